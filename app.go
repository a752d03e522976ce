package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ytscribe/acquirer"
	"ytscribe/asr"
	"ytscribe/cache"
	"ytscribe/captions"
	"ytscribe/command"
	"ytscribe/command/download"
	"ytscribe/config"
	"ytscribe/ffprobe"
	"ytscribe/history"
	"ytscribe/models"
	"ytscribe/orchestrator"
	"ytscribe/telemetry"
	"ytscribe/translation"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// app holds the collaborators shared by the run and serve commands.
type app struct {
	cfg     *config.Config
	logger  *zap.SugaredLogger
	orch    *orchestrator.Orchestrator
	history *history.Store
	cache   *cache.Tiered
	metrics *telemetry.Metrics
	limiter *orchestrator.Limiter
}

// newApp wires every component from cfg. Optional infrastructure (cache,
// telemetry) that cannot start is logged and left out.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	runner := command.NewExecRunner()
	prober := ffprobe.NewProber(runner, cfg.Downloader.FFprobeBinary)
	acq := acquirer.New(runner, acquirer.Options{
		Download: download.Options{
			Binary:             cfg.Downloader.Binary,
			AudioFormat:        cfg.Downloader.AudioFormat,
			UserAgent:          cfg.Downloader.UserAgent,
			FallbackClient:     cfg.Downloader.FallbackClient,
			GeoBypass:          cfg.Downloader.GeoBypass,
			NoCheckCertificate: cfg.Downloader.NoCheckCertificate,
		},
		Timeout: cfg.Downloader.Timeout,
	}, prober, logger)

	var fetcher captions.Fetcher = captions.NewYouTubeFetcher(captions.YouTubeOptions{
		Timeout:  cfg.Captions.Timeout,
		Retries:  cfg.Captions.Retries,
		Language: cfg.Captions.Language,
	}, logger)
	if cfg.Cache.Enabled {
		a.cache = cache.New(ctx, cache.Options{
			RedisURL:   cfg.Cache.RedisURL,
			TTL:        cfg.Cache.TTL,
			MaxEntries: cfg.Cache.MaxEntries,
		}, logger)
		fetcher = captions.NewCachedFetcher(fetcher, a.cache, captionKey, logger)
	}

	translator, err := newTranslator(cfg)
	if err != nil {
		return nil, err
	}

	loader, err := newModelLoader(cfg, runner, logger)
	if err != nil {
		return nil, err
	}

	a.limiter = orchestrator.NewLimiter([]orchestrator.ResourceConstraint{
		{Type: orchestrator.ResourceDownload, MaxSlots: cfg.Server.MaxConcurrentDownloads},
		{Type: orchestrator.ResourceTranscribe, MaxSlots: cfg.Server.MaxConcurrentTranscriptions},
	})

	deps := orchestrator.Dependencies{
		Captions:   fetcher,
		Translator: translation.NewChunkedTranslator(translator, cfg.Translation.ChunkSize, logger),
		Acquirer:   acq,
		Models:     asr.NewModelHolder(loader, logger),
		Limiter:    a.limiter,
		Logger:     logger,
	}

	if cfg.Telemetry.Enabled {
		m, err := telemetry.New(ctx, telemetry.Options{
			Endpoint: cfg.Telemetry.OTLPEndpoint,
			Interval: cfg.Telemetry.Interval,
			Insecure: true,
			Version:  version,
		})
		if err != nil {
			logger.Warnw("telemetry disabled", "error", err)
		} else {
			a.metrics = m
			deps.Metrics = m
		}
	}

	if cfg.History.Enabled {
		a.history = history.Open(cfg.History.Path)
	}

	a.orch = orchestrator.New(deps, orchestrator.Options{
		TempDir:        cfg.TempDir,
		TargetLanguage: cfg.TargetLanguage,
		AudioFormat:    cfg.Downloader.AudioFormat,
	})
	return a, nil
}

func captionKey(id models.VideoID) string {
	return cache.Key("captions", string(id))
}

func newTranslator(cfg *config.Config) (translation.Translator, error) {
	switch cfg.Translation.Provider {
	case "google":
		return translation.NewGoogleTranslator(translation.GoogleOptions{
			Timeout:           cfg.Translation.Timeout,
			RequestsPerSecond: cfg.Translation.RequestsPerSecond,
		}), nil
	case "openai":
		return translation.NewOpenAITranslator(cfg.Secrets.OpenAIAPIKey, cfg.Translation.Model), nil
	case "stub":
		return &translation.StubTranslator{}, nil
	default:
		return nil, fmt.Errorf("unknown translation provider: %s", cfg.Translation.Provider)
	}
}

func newModelLoader(cfg *config.Config, runner command.Runner, logger *zap.SugaredLogger) (asr.Loader, error) {
	switch cfg.Whisper.Backend {
	case "local":
		return asr.LocalLoader(runner, asr.LocalOptions{
			Binary:       cfg.Whisper.Binary,
			FFmpegBinary: cfg.Whisper.FFmpegBinary,
			Model:        cfg.Whisper.Model,
			Timeout:      cfg.Whisper.Timeout,
		}, logger), nil
	case "openai":
		return asr.OpenAILoader(cfg.Secrets.OpenAIAPIKey, cfg.Whisper.Model), nil
	default:
		return nil, fmt.Errorf("unknown whisper backend: %s", cfg.Whisper.Backend)
	}
}

// Close releases the app's resources. Errors are logged.
func (a *app) Close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.metrics.Shutdown(ctx); err != nil {
			a.logger.Warnw("telemetry shutdown failed", "error", err)
		}
		cancel()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warnw("cache close failed", "error", err)
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warnw("history close failed", "error", err)
		}
	}
	_ = a.logger.Sync()
}
