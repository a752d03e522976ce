// Package ytdlp parses the console output of yt-dlp.
package ytdlp

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"ytscribe/models"
)

// ProgressParser parses yt-dlp stdout for download metrics
type ProgressParser struct {
	percentRegex *regexp.Regexp
	sizeRegex    *regexp.Regexp
	speedRegex   *regexp.Regexp
	etaRegex     *regexp.Regexp
	errorLines   []string
}

// NewProgressParser creates a new parser for yt-dlp output
func NewProgressParser() *ProgressParser {
	return &ProgressParser{
		// "[download]  42.3% of ~  3.45MiB at    1.20MiB/s ETA 00:02 (frag 3/10)"
		percentRegex: regexp.MustCompile(`^\[download\]\s+([0-9.]+)%`),
		sizeRegex:    regexp.MustCompile(`\sof\s+~?\s*([0-9.]+\s*[KMGT]?i?B)`),
		speedRegex:   regexp.MustCompile(`\sat\s+([0-9.]+\s*[KMGT]?i?B/s)`),
		etaRegex:     regexp.MustCompile(`\sETA\s+([0-9:]+)`),
	}
}

// ParseLine parses a single line of yt-dlp output and updates progress.
// It returns true when progress changed.
func (pp *ProgressParser) ParseLine(line string, progress *models.DownloadProgress) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if strings.HasPrefix(line, "ERROR:") {
		pp.errorLines = append(pp.errorLines, line)
		return false
	}

	if strings.HasPrefix(line, "[ExtractAudio]") {
		progress.State = models.ProgressStateConverting
		progress.SetPercent(100)
		return true
	}

	matches := pp.percentRegex.FindStringSubmatch(line)
	if len(matches) < 2 {
		return false
	}
	percent, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return false
	}

	progress.SetPercent(percent)
	progress.State = models.ProgressStateDownloading

	if m := pp.sizeRegex.FindStringSubmatch(line); len(m) > 1 {
		progress.TotalSize = strings.ReplaceAll(m[1], " ", "")
	}
	if m := pp.speedRegex.FindStringSubmatch(line); len(m) > 1 {
		progress.Speed = strings.ReplaceAll(m[1], " ", "")
	}
	if m := pp.etaRegex.FindStringSubmatch(line); len(m) > 1 {
		progress.ETA = m[1]
	}

	return true
}

// Observe returns a line handler that feeds progress and invokes callback
// after every update. It fits command.LineFunc.
func (pp *ProgressParser) Observe(progress *models.DownloadProgress, callback models.ProgressCallback) func(string) {
	return func(line string) {
		if pp.ParseLine(line, progress) && callback != nil {
			callback(progress)
		}
	}
}

// Errors returns the "ERROR:" lines seen so far.
func (pp *ProgressParser) Errors() []string {
	return pp.errorLines
}

// FormatProgressJSON converts progress to JSON for logging or API responses
func FormatProgressJSON(progress *models.DownloadProgress) (string, error) {
	data, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
