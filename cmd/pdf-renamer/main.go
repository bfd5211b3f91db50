package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-pdf-renamer/internal/batch"
	"github.com/a3tai/mcp-pdf-renamer/internal/config"
	"github.com/a3tai/mcp-pdf-renamer/internal/mcp"
	"github.com/a3tai/mcp-pdf-renamer/internal/pdf"
	"github.com/a3tai/mcp-pdf-renamer/internal/web"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

const shutdownTimeout = 10 * time.Second

// newLogger builds the process logger for the configured mode
func newLogger(cfg *config.Config, stderr io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	if cfg.IsStdioMode() {
		// stdout carries the MCP protocol; stay quiet unless debugging
		if !cfg.IsDebug() {
			return slog.New(slog.NewTextHandler(io.Discard, opts))
		}
		return slog.New(slog.NewTextHandler(stderr, opts))
	}

	opts.AddSource = cfg.IsDebug()
	return slog.New(slog.NewJSONHandler(stderr, opts))
}

// newHTTPServer wires the upload handler onto the configured address
func newHTTPServer(cfg *config.Config, processor *batch.Processor, logger *slog.Logger) *http.Server {
	handler := web.NewHandler(processor, logger, cfg.MaxFileSize)
	return &http.Server{
		Addr:              cfg.Address(),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

// runServerMode serves the upload form until ctx is cancelled
func runServerMode(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server.listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server.shutdown.begin")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server.stopped")
	return nil
}

// runStdioMode serves MCP until the parent process closes stdin
func runStdioMode(ctx context.Context, cfg *config.Config, processor *batch.Processor,
	decoder batch.Decoder, logger *slog.Logger,
) error {
	server, err := mcp.NewServer(cfg, processor, decoder, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion(os.Stdout)
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	if cfg.IsDebug() {
		logger.Debug("config.loaded", "config", cfg.String())
	}

	decoder := pdf.NewDecoder(cfg.ValidatePDF)
	processor, err := batch.NewProcessor(logger, decoder, cfg.BatchOptions())
	if err != nil {
		logger.Error("processor.init.failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if cfg.IsServerMode() {
		err = runServerMode(ctx, newHTTPServer(cfg, processor, logger), logger)
	} else {
		err = runStdioMode(ctx, cfg, processor, decoder, logger)
	}
	if err != nil {
		logger.Error("run.failed", "mode", cfg.Mode, "err", err)
		stop()
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP PDF Renamer\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
