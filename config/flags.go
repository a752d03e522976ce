package config

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

// RegisterFlags defines the flags shared by every ytscribe command.
//
// Defaults shown in help come from DefaultConfig, but a flag only
// overrides the config file when it was set explicitly.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()

	fs.String("config", "", "Path to config file (default: search ./ytscribe.yaml, ~/.ytscribe/config.yaml, /etc/ytscribe/config.yaml)")
	fs.String("env-file", ".env", "Path to a .env file with secrets")

	fs.BoolP("translate", "t", d.Translate, "Translate captions and run Whisper in translate mode")
	fs.String("target", d.TargetLanguage, "Target language of the quick translation")
	fs.String("temp-dir", d.TempDir, "Parent directory for scratch files (default: OS temp dir)")
	fs.String("log-level", d.LogLevel, "Log level: debug, info, warn, error")

	fs.String("downloader", d.Downloader.Binary, "yt-dlp executable")
	fs.String("audio-format", d.Downloader.AudioFormat, "Audio format to extract")
	fs.Duration("download-timeout", d.Downloader.Timeout, "Timeout per download attempt (0 = none)")

	fs.String("translator", d.Translation.Provider, "Translation provider: google, openai, stub")
	fs.Int("chunk-size", d.Translation.ChunkSize, "Characters per translation request")

	fs.String("whisper-backend", d.Whisper.Backend, "Speech recognition backend: local, openai")
	fs.String("whisper-model", d.Whisper.Model, "Whisper model name")

	fs.String("addr", d.Server.Addr, "Listen address for serve")
	fs.String("history-db", d.History.Path, "Path to the run history database")
	fs.Bool("no-history", false, "Do not record runs")
	fs.Bool("no-cache", false, "Disable the caption cache")

	fs.BoolP("verbose", "v", d.Verbose, "Enable verbose logging")
	fs.Bool("dry-run", d.DryRun, "Show effective configuration without running")
}

// MergeFromFlags overrides config values with flags that were explicitly set
func (c *Config) MergeFromFlags(fs *pflag.FlagSet) error {
	var err error
	str := func(name string, dst *string) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetString(name)
		}
	}
	boolean := func(name string, dst *bool) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetBool(name)
		}
	}

	boolean("translate", &c.Translate)
	str("target", &c.TargetLanguage)
	str("temp-dir", &c.TempDir)
	str("log-level", &c.LogLevel)

	str("downloader", &c.Downloader.Binary)
	str("audio-format", &c.Downloader.AudioFormat)
	if err == nil && fs.Changed("download-timeout") {
		c.Downloader.Timeout, err = fs.GetDuration("download-timeout")
	}

	str("translator", &c.Translation.Provider)
	if err == nil && fs.Changed("chunk-size") {
		c.Translation.ChunkSize, err = fs.GetInt("chunk-size")
	}

	str("whisper-backend", &c.Whisper.Backend)
	str("whisper-model", &c.Whisper.Model)

	str("addr", &c.Server.Addr)
	str("history-db", &c.History.Path)
	if err == nil && fs.Changed("no-history") {
		var off bool
		if off, err = fs.GetBool("no-history"); off {
			c.History.Enabled = false
		}
	}
	if err == nil && fs.Changed("no-cache") {
		var off bool
		if off, err = fs.GetBool("no-cache"); off {
			c.Cache.Enabled = false
		}
	}

	boolean("verbose", &c.Verbose)
	boolean("dry-run", &c.DryRun)

	if err != nil {
		return fmt.Errorf("failed to read flags: %w", err)
	}
	if c.Verbose && !fs.Changed("log-level") {
		c.LogLevel = "debug"
	}
	return nil
}

// PrintConfig prints the effective configuration
func (c *Config) PrintConfig(w io.Writer) {
	line := "═══════════════════════════════════════════════════════════"
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "                 Effective Configuration                  ")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Translate:      %v\n", c.Translate)
	fmt.Fprintf(w, "Target:         %s\n", c.TargetLanguage)
	fmt.Fprintf(w, "Temp Dir:       %s\n", orDefault(c.TempDir, "(system)"))
	fmt.Fprintf(w, "Log Level:      %s\n", c.LogLevel)

	fmt.Fprintln(w, "\nDownloader:")
	fmt.Fprintf(w, "  Binary:       %s\n", c.Downloader.Binary)
	fmt.Fprintf(w, "  Format:       %s\n", c.Downloader.AudioFormat)
	fmt.Fprintf(w, "  Fallback:     player_client=%s\n", c.Downloader.FallbackClient)
	fmt.Fprintf(w, "  Timeout:      %s\n", c.Downloader.Timeout)

	fmt.Fprintln(w, "\nTranslation:")
	fmt.Fprintf(w, "  Provider:     %s\n", c.Translation.Provider)
	fmt.Fprintf(w, "  Chunk Size:   %d\n", c.Translation.ChunkSize)
	fmt.Fprintf(w, "  Rate:         %.1f req/s\n", c.Translation.RequestsPerSecond)

	fmt.Fprintln(w, "\nWhisper:")
	fmt.Fprintf(w, "  Backend:      %s\n", c.Whisper.Backend)
	fmt.Fprintf(w, "  Model:        %s\n", c.Whisper.Model)

	fmt.Fprintln(w, "\nServer:")
	fmt.Fprintf(w, "  Addr:         %s\n", c.Server.Addr)
	fmt.Fprintf(w, "  Downloads:    %d concurrent\n", c.Server.MaxConcurrentDownloads)
	fmt.Fprintf(w, "  Transcribes:  %d concurrent\n", c.Server.MaxConcurrentTranscriptions)

	fmt.Fprintln(w, "\nStorage:")
	fmt.Fprintf(w, "  History:      %v (%s)\n", c.History.Enabled, c.History.Path)
	fmt.Fprintf(w, "  Cache:        %v (redis: %s)\n", c.Cache.Enabled, orDefault(c.Cache.RedisURL, "off"))
	fmt.Fprintf(w, "  Telemetry:    %v (%s)\n", c.Telemetry.Enabled, orDefault(c.Telemetry.OTLPEndpoint, "no endpoint"))

	fmt.Fprintln(w, "\nSecrets:")
	fmt.Fprintf(w, "  OpenAI Key:   %s\n", mask(c.Secrets.OpenAIAPIKey))
	fmt.Fprintln(w, line)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:3] + "…" + secret[len(secret)-4:]
}
