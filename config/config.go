package config

import "time"

// Config holds all ytscribe configuration options
type Config struct {
	// Request defaults
	TargetLanguage string `yaml:"target_language"` // language of the quick translation
	Translate      bool   `yaml:"translate"`       // translate captions and run Whisper in translate mode

	// Execution settings
	TempDir  string `yaml:"temp_dir"`  // parent of the per-request scratch directories ("" = OS default)
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	Downloader  DownloaderConfig  `yaml:"downloader"`
	Captions    CaptionsConfig    `yaml:"captions"`
	Translation TranslationConfig `yaml:"translation"`
	Whisper     WhisperConfig     `yaml:"whisper"`
	Server      ServerConfig      `yaml:"server"`
	History     HistoryConfig     `yaml:"history"`
	Cache       CacheConfig       `yaml:"cache"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Behavioral flags
	Verbose bool `yaml:"verbose"` // Show detailed logs
	DryRun  bool `yaml:"dry_run"` // Show config without running

	// Secrets never come from the config file.
	Secrets Secrets `yaml:"-"`
}

// DownloaderConfig holds yt-dlp settings
type DownloaderConfig struct {
	Binary             string        `yaml:"binary"`               // yt-dlp executable
	AudioFormat        string        `yaml:"audio_format"`         // e.g., "mp3", "m4a", "wav"
	UserAgent          string        `yaml:"user_agent"`           // sent by the primary strategy only
	FallbackClient     string        `yaml:"fallback_client"`      // youtube player_client for the fallback
	GeoBypass          bool          `yaml:"geo_bypass"`           // --geo-bypass
	NoCheckCertificate bool          `yaml:"no_check_certificate"` // --no-check-certificate
	Timeout            time.Duration `yaml:"timeout"`              // per attempt, 0 = none
	FFprobeBinary      string        `yaml:"ffprobe_binary"`       // used to inspect the download
}

// CaptionsConfig holds caption retrieval settings
type CaptionsConfig struct {
	Retries  int           `yaml:"retries"` // retries on transient HTTP failures
	Timeout  time.Duration `yaml:"timeout"` // per HTTP request
	Language string        `yaml:"language"`
}

// TranslationConfig holds quick translation settings
type TranslationConfig struct {
	Provider          string        `yaml:"provider"`            // "google", "openai" or "stub"
	ChunkSize         int           `yaml:"chunk_size"`          // characters per request
	RequestsPerSecond float64       `yaml:"requests_per_second"` // pacing between chunk requests
	Timeout           time.Duration `yaml:"timeout"`             // per request
	Model             string        `yaml:"model"`               // chat model for the openai provider
}

// WhisperConfig holds speech recognition settings
type WhisperConfig struct {
	Backend      string        `yaml:"backend"`       // "local" (whisper CLI) or "openai" (API)
	Binary       string        `yaml:"binary"`        // whisper executable for the local backend
	FFmpegBinary string        `yaml:"ffmpeg_binary"` // required by the local backend
	Model        string        `yaml:"model"`         // e.g., "base", "small", "whisper-1"
	Timeout      time.Duration `yaml:"timeout"`       // 0 = none
}

// ServerConfig holds web UI settings
type ServerConfig struct {
	Addr                        string        `yaml:"addr"`
	MaxConcurrentDownloads      int           `yaml:"max_concurrent_downloads"`
	MaxConcurrentTranscriptions int           `yaml:"max_concurrent_transcriptions"`
	ShutdownTimeout             time.Duration `yaml:"shutdown_timeout"`
}

// HistoryConfig holds run history settings
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // sqlite database file
}

// CacheConfig holds caption cache settings
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	RedisURL   string        `yaml:"redis_url"` // empty disables the L2 tier
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// TelemetryConfig holds metrics export settings
type TelemetryConfig struct {
	Enabled      bool          `yaml:"enabled"`
	OTLPEndpoint string        `yaml:"otlp_endpoint"` // host:port of an OTLP gRPC collector
	Interval     time.Duration `yaml:"interval"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		TargetLanguage: "en",
		Translate:      false,

		TempDir:  "",
		LogLevel: "info",

		Downloader: DownloaderConfig{
			Binary:             "yt-dlp",
			AudioFormat:        "mp3",
			UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			FallbackClient:     "android",
			GeoBypass:          true,
			NoCheckCertificate: true,
			Timeout:            10 * time.Minute,
			FFprobeBinary:      "ffprobe",
		},

		Captions: CaptionsConfig{
			Retries: 3,
			Timeout: 15 * time.Second,
		},

		Translation: TranslationConfig{
			Provider:          "google",
			ChunkSize:         1000,
			RequestsPerSecond: 2,
			Timeout:           20 * time.Second,
			Model:             "gpt-4o-mini",
		},

		Whisper: WhisperConfig{
			Backend:      "local",
			Binary:       "whisper",
			FFmpegBinary: "ffmpeg",
			Model:        "base",
			Timeout:      0,
		},

		Server: ServerConfig{
			Addr:                        ":8080",
			MaxConcurrentDownloads:      2,
			MaxConcurrentTranscriptions: 1, // one model instance
			ShutdownTimeout:             10 * time.Second,
		},

		History: HistoryConfig{
			Enabled: true,
			Path:    defaultHistoryPath(),
		},

		Cache: CacheConfig{
			Enabled:    true,
			RedisURL:   "",
			TTL:        6 * time.Hour,
			MaxEntries: 500,
		},

		Telemetry: TelemetryConfig{
			Enabled:  false,
			Interval: 30 * time.Second,
		},

		Verbose: false,
		DryRun:  false,
	}
}

// Copy creates a deep copy of the config
func (c *Config) Copy() *Config {
	copy := *c
	return &copy
}

// ProviderValues returns valid translation providers
func ProviderValues() []string {
	return []string{"google", "openai", "stub"}
}

// BackendValues returns valid speech recognition backends
func BackendValues() []string {
	return []string{"local", "openai"}
}

// AudioFormatValues returns audio formats yt-dlp can extract to
func AudioFormatValues() []string {
	return []string{"mp3", "m4a", "wav", "opus", "flac"}
}

// LogLevelValues returns valid log levels
func LogLevelValues() []string {
	return []string{"debug", "info", "warn", "error"}
}

func isOneOf(value string, valid []string) bool {
	for _, v := range valid {
		if value == v {
			return true
		}
	}
	return false
}
