package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ytscribe/config"
	"ytscribe/history"
	"ytscribe/internal/logging"
	"ytscribe/internal/timeutil"
	"ytscribe/orchestrator"
	"ytscribe/server"
	"ytscribe/sink"
	"ytscribe/videoid"
)

const banner = "═══════════════════════════════════════════════════════════"

// exitError carries a process exit code for an outcome already reported
// to the user.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl+C and SIGTERM cancel the current run
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\n\n⚠️  Interrupt received, cleaning up...")
		cancel()
	}()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		if ctx.Err() == context.Canceled {
			os.Exit(130) // Standard exit code for SIGINT
		}
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "ytscribe",
		Short:         "Fetch, translate and transcribe YouTube videos",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newRunCommand(),
		newServeCommand(),
		newHistoryCommand(),
		newConfigCommand(),
	)
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func printDryRun(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "                      DRY RUN MODE")
	fmt.Fprintln(w, banner)
	cfg.PrintConfig(w)
	fmt.Fprintln(w, "\n✓ Configuration is valid. Nothing will be downloaded.")
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <youtube-url>",
		Short: "Show captions, a quick translation and a Whisper transcription for one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if cfg.DryRun {
				printDryRun(w, cfg)
				return nil
			}

			// info logs would interleave with the console output
			level := cfg.LogLevel
			if !cfg.Verbose && level == "info" {
				level = "warn"
			}
			logger, err := logging.New(level, true)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			console := sink.NewConsole(w)
			if console.Segments, err = cmd.Flags().GetBool("segments"); err != nil {
				return err
			}
			return runOnce(cmd.Context(), w, a, orchestrator.Request{
				URL:            args[0],
				Translate:      cfg.Translate,
				TargetLanguage: cfg.TargetLanguage,
			}, console)
		},
	}
	cmd.Flags().Bool("segments", false, "Print timestamped Whisper segments")
	return cmd
}

// runOnce executes req, rendering events to console and recording the run
// when history is enabled.
func runOnce(ctx context.Context, w io.Writer, a *app, req orchestrator.Request, console sink.Sink) error {
	fmt.Fprintln(w, "╔════════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║                       YTSCRIBE - RUN                           ║")
	fmt.Fprintln(w, "╚════════════════════════════════════════════════════════════════╝")
	fmt.Fprintf(w, "URL:       %s\n", req.URL)
	fmt.Fprintf(w, "Translate: %v\n", req.Translate)
	fmt.Fprintf(w, "Target:    %s\n", req.TargetLanguage)

	out := sink.Multi{console}
	if a.history != nil {
		run := history.Run{
			ID:             fmt.Sprintf("cli-%d", time.Now().UnixNano()),
			URL:            req.URL,
			Translate:      req.Translate,
			TargetLanguage: req.TargetLanguage,
		}
		if id, err := videoid.Extract(req.URL); err == nil {
			run.VideoID = string(id)
		}
		out = append(out, history.NewRecorder(a.history, run, a.logger))
	}

	outcome := a.orch.Run(ctx, req, out)
	fmt.Fprintf(w, "Total time: %s\n", timeutil.FormatDuration(outcome.Duration))

	return exitFor(outcome)
}

// exitFor maps an outcome to the process exit status: 0 when done, 130
// when cancelled, 1 otherwise.
func exitFor(o *orchestrator.Outcome) error {
	switch {
	case o.State == orchestrator.StateDone:
		return nil
	case o.Kind == orchestrator.KindCanceled:
		return &exitError{code: 130}
	default:
		return &exitError{code: 1}
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.DryRun {
				printDryRun(cmd.OutOrStdout(), cfg)
				return nil
			}

			logger, err := logging.New(cfg.LogLevel, false)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(a.orch, server.Options{
				History:         a.history,
				TargetLanguage:  cfg.TargetLanguage,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				Resources:       a.limiter.Stats,
			}, logger)
			return srv.Serve(cmd.Context(), cfg.Server.Addr)
		},
	}
}

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("history is disabled")
			}
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}

			store := history.Open(cfg.History.Path)
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Number of runs to show")
	return cmd
}

func printHistory(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return
	}
	fmt.Fprintf(w, "%-20s  %-12s  %-8s  %-20s  %s\n", "STARTED", "VIDEO", "STATE", "ERROR", "LANGUAGE")
	for _, r := range runs {
		lang := r.CaptionLanguage
		if lang == "" {
			lang = r.DetectedLanguage
		}
		kind := r.ErrorKind
		if kind == "" && len(r.Warnings) > 0 {
			kind = "(" + r.Warnings[0] + ")"
		}
		fmt.Fprintf(w, "%-20s  %-12s  %-8s  %-20s  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.VideoID, r.State, kind, lang)
	}
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path, err := cmd.Flags().GetString("save")
			if err != nil {
				return err
			}
			if path != "" {
				if err := config.SaveConfigFile(cfg, path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration written to %s\n", path)
				return nil
			}
			cfg.PrintConfig(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().String("save", "", "Write the effective configuration to this YAML file")
	return cmd
}
