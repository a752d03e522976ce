// Package command provides the Command interface for building external
// tool invocations (yt-dlp, whisper, ffprobe) as structured argument lists,
// and a Runner that executes them.
//
// Arguments are always passed to exec as a []string; nothing is ever
// interpreted by a shell.
package command

// TaskType represents the kind of external task.
type TaskType string

const (
	TaskTypeDownload   TaskType = "download"   // audio download and extraction
	TaskTypeTranscribe TaskType = "transcribe" // speech recognition
	TaskTypeProbe      TaskType = "probe"      // media inspection
)

// Command represents an external tool invocation that can be built,
// validated, or previewed.
//
// Example usage:
//
//	cmd := download.NewDownloadBuilder(videoid.WatchURL(id), "/tmp/run/abc.mp3").
//		SetFormat("bestaudio").
//		SetUserAgent(ua)
//
//	preview, _ := cmd.DryRun()
//	result, err := runner.Run(ctx, cmd, nil)
type Command interface {
	// Binary returns the executable to run, e.g. "yt-dlp".
	Binary() string

	// BuildArgs constructs and returns the arguments as a slice.
	// The returned slice is suitable for exec.Command(Binary(), args...).
	BuildArgs() []string

	// Validate reports whether the command can be built.
	Validate() error

	// DryRun returns the command line as a string without executing it.
	DryRun() (string, error)

	// GetTaskType returns the kind of task, used for logging and metrics.
	GetTaskType() TaskType

	// GetOutputPath returns the file the command is expected to produce.
	GetOutputPath() string
}
