// Package download builds yt-dlp invocations that fetch a video's audio
// track and convert it to a single audio file.
package download

import (
	"fmt"
	"strings"

	"ytscribe/command"
)

// Strategy selects the yt-dlp argument profile.
type Strategy int

const (
	// StrategyPrimary asks for the best audio with a desktop user agent.
	StrategyPrimary Strategy = iota
	// StrategyFallback asks for the worst audio through the mobile player client.
	StrategyFallback
)

func (s Strategy) String() string {
	switch s {
	case StrategyPrimary:
		return "primary"
	case StrategyFallback:
		return "fallback"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// DownloadBuilder implements command.Command for yt-dlp audio downloads.
type DownloadBuilder struct {
	binary             string
	videoURL           string
	outputPath         string
	format             string
	audioFormat        string
	userAgent          string
	extractorArgs      string
	geoBypass          bool
	noCheckCertificate bool
}

// NewDownloadBuilder creates a builder for videoURL writing to outputPath.
func NewDownloadBuilder(videoURL, outputPath string) *DownloadBuilder {
	return &DownloadBuilder{
		binary:      "yt-dlp",
		videoURL:    videoURL,
		outputPath:  outputPath,
		format:      "bestaudio",
		audioFormat: "mp3",
	}
}

// Options carries the settings shared by both strategies.
type Options struct {
	Binary             string
	AudioFormat        string
	UserAgent          string
	FallbackClient     string // youtube player_client, e.g. "android"
	GeoBypass          bool
	NoCheckCertificate bool
}

// ForStrategy returns a builder configured for the given strategy.
//
// The primary strategy requests "bestaudio" and sends the user agent. The
// fallback requests "worstaudio", drops the user agent and switches the
// YouTube player client.
func ForStrategy(s Strategy, opts Options, videoURL, outputPath string) *DownloadBuilder {
	b := NewDownloadBuilder(videoURL, outputPath).
		SetGeoBypass(opts.GeoBypass).
		SetNoCheckCertificate(opts.NoCheckCertificate)
	if opts.Binary != "" {
		b.SetBinary(opts.Binary)
	}
	if opts.AudioFormat != "" {
		b.SetAudioFormat(opts.AudioFormat)
	}

	switch s {
	case StrategyFallback:
		b.SetFormat("worstaudio")
		if opts.FallbackClient != "" {
			b.SetExtractorArgs("youtube:player_client=" + opts.FallbackClient)
		}
	default:
		b.SetFormat("bestaudio").SetUserAgent(opts.UserAgent)
	}
	return b
}

// SetBinary sets the yt-dlp executable.
func (d *DownloadBuilder) SetBinary(binary string) *DownloadBuilder {
	d.binary = binary
	return d
}

// SetFormat sets the yt-dlp format selector (e.g., "bestaudio", "worstaudio").
func (d *DownloadBuilder) SetFormat(format string) *DownloadBuilder {
	d.format = format
	return d
}

// SetAudioFormat sets the extracted audio format (e.g., "mp3", "m4a").
func (d *DownloadBuilder) SetAudioFormat(format string) *DownloadBuilder {
	d.audioFormat = format
	return d
}

// SetUserAgent sets the HTTP user agent. Empty omits the flag.
func (d *DownloadBuilder) SetUserAgent(ua string) *DownloadBuilder {
	d.userAgent = ua
	return d
}

// SetExtractorArgs sets --extractor-args. Empty omits the flag.
func (d *DownloadBuilder) SetExtractorArgs(args string) *DownloadBuilder {
	d.extractorArgs = args
	return d
}

// SetGeoBypass toggles --geo-bypass.
func (d *DownloadBuilder) SetGeoBypass(on bool) *DownloadBuilder {
	d.geoBypass = on
	return d
}

// SetNoCheckCertificate toggles --no-check-certificate.
func (d *DownloadBuilder) SetNoCheckCertificate(on bool) *DownloadBuilder {
	d.noCheckCertificate = on
	return d
}

// Binary implements command.Command.
func (d *DownloadBuilder) Binary() string {
	return d.binary
}

// Validate implements command.Command.
func (d *DownloadBuilder) Validate() error {
	var errors []string
	if strings.TrimSpace(d.binary) == "" {
		errors = append(errors, "binary is required")
	}
	if strings.TrimSpace(d.videoURL) == "" {
		errors = append(errors, "video url is required")
	}
	if strings.TrimSpace(d.outputPath) == "" {
		errors = append(errors, "output path is required")
	}
	if d.format == "" {
		errors = append(errors, "format is required")
	}
	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}
	return nil
}

// BuildArgs constructs the yt-dlp arguments. The video URL is always last.
func (d *DownloadBuilder) BuildArgs() []string {
	args := []string{
		"--extract-audio",
		"--format", d.format,
		"--audio-format", d.audioFormat,
		"--output", d.outputPath,
		"--no-warnings",
		"--no-playlist",
	}

	if d.userAgent != "" {
		args = append(args, "--user-agent", d.userAgent)
	}
	if d.geoBypass {
		args = append(args, "--geo-bypass")
	}
	if d.noCheckCertificate {
		args = append(args, "--no-check-certificate")
	}
	if d.extractorArgs != "" {
		args = append(args, "--extractor-args", d.extractorArgs)
	}

	return append(args, d.videoURL)
}

// DryRun returns the command line without executing it.
func (d *DownloadBuilder) DryRun() (string, error) {
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("cannot build command: %w", err)
	}
	return command.Render(d.binary, d.BuildArgs()), nil
}

// GetTaskType implements command.Command.
func (d *DownloadBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeDownload
}

// GetOutputPath implements command.Command.
func (d *DownloadBuilder) GetOutputPath() string {
	return d.outputPath
}
