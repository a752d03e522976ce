// Package ffprobe extracts metadata from media files using the ffprobe
// command-line tool.
package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"ytscribe/command"
	"ytscribe/models"
)

// Stream represents a media stream (audio, video, etc.)
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	CodecLongName string `json:"codec_long_name"`
	SampleRate    string `json:"sample_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	Duration      string `json:"duration,omitempty"`
}

// Format represents the container format information.
type Format struct {
	Filename       string `json:"filename"`
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	Duration       string `json:"duration"`
	Size           string `json:"size"`
	BitRate        string `json:"bit_rate"`
}

// ProbeResult holds the metadata extracted from a media file.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// GetDuration returns the duration of the media file in seconds.
func (pr *ProbeResult) GetDuration() (float64, error) {
	if pr.Format.Duration == "" {
		return 0, fmt.Errorf("duration not available in format metadata")
	}

	duration, err := strconv.ParseFloat(pr.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration '%s': %w", pr.Format.Duration, err)
	}

	return duration, nil
}

// GetSize returns the file size in bytes, 0 when unknown.
func (pr *ProbeResult) GetSize() int64 {
	size, err := strconv.ParseInt(pr.Format.Size, 10, 64)
	if err != nil {
		return 0
	}
	return size
}

// GetAudioStreams returns all audio streams from the media file.
func (pr *ProbeResult) GetAudioStreams() []Stream {
	var audioStreams []Stream
	for _, stream := range pr.Streams {
		if stream.CodecType == "audio" {
			audioStreams = append(audioStreams, stream)
		}
	}
	return audioStreams
}

// ProbeCommand implements command.Command for ffprobe.
type ProbeCommand struct {
	binary     string
	sourcePath string
}

// NewProbeCommand creates an ffprobe invocation for sourcePath.
func NewProbeCommand(binary, sourcePath string) *ProbeCommand {
	if binary == "" {
		binary = "ffprobe"
	}
	return &ProbeCommand{binary: binary, sourcePath: sourcePath}
}

// Binary implements command.Command.
func (p *ProbeCommand) Binary() string { return p.binary }

// BuildArgs implements command.Command.
//
//	-v quiet: suppress verbose output
//	-print_format json: output in JSON format
//	-show_streams / -show_format: stream and container information
func (p *ProbeCommand) BuildArgs() []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		p.sourcePath,
	}
}

// Validate implements command.Command.
func (p *ProbeCommand) Validate() error {
	if strings.TrimSpace(p.sourcePath) == "" {
		return fmt.Errorf("source path cannot be empty")
	}
	return nil
}

// DryRun implements command.Command.
func (p *ProbeCommand) DryRun() (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return command.Render(p.binary, p.BuildArgs()), nil
}

// GetTaskType implements command.Command.
func (p *ProbeCommand) GetTaskType() command.TaskType { return command.TaskTypeProbe }

// GetOutputPath implements command.Command. ffprobe writes to stdout only.
func (p *ProbeCommand) GetOutputPath() string { return "" }

// Prober runs ffprobe through a command.Runner.
type Prober struct {
	runner command.Runner
	binary string
}

// NewProber creates a Prober. An empty binary means "ffprobe".
func NewProber(runner command.Runner, binary string) *Prober {
	return &Prober{runner: runner, binary: binary}
}

// Probe analyzes a media file and extracts its metadata.
//
// Example:
//
//	result, err := ffprobe.NewProber(command.NewExecRunner(), "").Probe(ctx, "/tmp/run/abc.mp3")
//	if err != nil {
//	    return err
//	}
//	duration, _ := result.GetDuration()
func (p *Prober) Probe(ctx context.Context, sourcePath string) (*ProbeResult, error) {
	cmd := NewProbeCommand(p.binary, sourcePath)
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	res, err := p.runner.Run(ctx, cmd, nil)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var result ProbeResult
	if err := json.Unmarshal([]byte(res.Stdout), &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe JSON output: %w", err)
	}

	return &result, nil
}

// Inspect fills the size and duration of asset from ffprobe metadata.
// It fails when the file has no audio stream.
func (p *Prober) Inspect(ctx context.Context, asset *models.AudioAsset) error {
	result, err := p.Probe(ctx, asset.Path)
	if err != nil {
		return err
	}
	if len(result.GetAudioStreams()) == 0 {
		return fmt.Errorf("no audio stream in %s", asset.Path)
	}
	if d, err := result.GetDuration(); err == nil {
		asset.Duration = d
	}
	if size := result.GetSize(); size > 0 {
		asset.Size = size
	}
	return nil
}
