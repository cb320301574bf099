package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/chapterlint/internal/api"
	"github.com/dgallion1/chapterlint/internal/config"
	"github.com/dgallion1/chapterlint/internal/pipeline"
	"github.com/dgallion1/chapterlint/internal/report"
	"github.com/dgallion1/chapterlint/internal/scanner"
)

// Version is injected at build time.
var Version = "dev"

// Exit codes: 0 = no failures, 1 = at least one fail-severity violation,
// 2 = configuration error (bad directory, no chapters, invalid flags).
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

// configError marks errors that should exit with the configuration code.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// errFailed signals fail-severity violations in the aggregate report.
var errFailed = errors.New("conformance failures found")

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(args[1:]); err != nil {
		var cfgErr *configError
		switch {
		case errors.As(err, &cfgErr):
			fmt.Fprintln(os.Stderr, "error:", err)
			exit(exitConfig)
		case errors.Is(err, errFailed):
			exit(exitFailed)
		default:
			fmt.Fprintln(os.Stderr, "error:", err)
			exit(exitConfig)
		}
		return
	}
	exit(exitOK)
}

// Execute runs the CLI, extracted for testing.
func Execute(args []string) error {
	rootCmd := &cobra.Command{
		Use:     "chapterlint <directory>",
		Short:   "Conformance checker for Markdown book chapters",
		Long:    "chapterlint validates chapter structure and content richness against the book's authoring conventions.",
		Version: Version,
		Args:    cobra.ExactArgs(1),
		// Exit-code mapping happens in runMain; cobra should not re-print.
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd, args[0])
		},
	}
	config.RegisterFlags(rootCmd.Flags())

	serveCmd := &cobra.Command{
		Use:           "serve",
		Short:         "Run the checker as an HTTP service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	config.RegisterFlags(serveCmd.Flags())
	config.RegisterServeFlags(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)

	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func runCheck(ctx context.Context, cmd *cobra.Command, dir string) error {
	log := newLogger()

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return &configError{err}
	}
	if err := cfg.Validate(); err != nil {
		return &configError{fmt.Errorf("invalid configuration: %w", err)}
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return &configError{fmt.Errorf("not a directory: %s", dir)}
	}

	paths, err := scanner.Discover(dir)
	if err != nil {
		return &configError{fmt.Errorf("discover chapters: %w", err)}
	}
	if len(paths) == 0 {
		return &configError{fmt.Errorf("no chapter files (NN-*.md) found in %s", dir)}
	}

	runner := pipeline.NewRunner(cfg.RuleSet(), log, cfg.Workers)
	results := runner.Run(ctx, paths)

	switch cfg.Format {
	case config.FormatJSON:
		if err := report.RenderJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	default:
		if err := report.RenderText(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	}

	if report.Aggregate(results).HasFailures() {
		return errFailed
	}
	return nil
}

func runServe(cmd *cobra.Command) error {
	log := newLogger()

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return &configError{err}
	}
	if err := cfg.Validate(); err != nil {
		return &configError{fmt.Errorf("invalid configuration: %w", err)}
	}

	runner := pipeline.NewRunner(cfg.RuleSet(), log, cfg.Workers)
	srv := api.NewServer(runner, log, cfg.Serve)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Serve.Port),
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting chapterlint server", "port", cfg.Serve.Port, "version", Version)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func newLogger() *slog.Logger {
	// Reports go to stdout; logs stay on stderr so JSON output pipes clean.
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}
