// Package main provides the entry point for lumend, the photo index
// daemon.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lumenapp/lumen/pkg/daemon"
	"github.com/lumenapp/lumen/pkg/library/fslibrary"
	"github.com/lumenapp/lumen/pkg/lumen/config"
	"github.com/lumenapp/lumen/pkg/lumen/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lumend: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := initLogging(cfg); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logging.Close() }()
	log := logging.Get("daemon")

	socketPath := cfg.Daemon.SocketPath
	if socketPath == "" {
		socketPath = config.DefaultSocketPath()
	}
	pidPath := cfg.Daemon.PIDPath
	if pidPath == "" {
		pidPath = config.DefaultPIDPath()
	}
	statusPath := daemon.StartupPath(config.DataDir())

	for _, ensure := range []func() error{
		config.EnsureDataDir, config.EnsureStateDir, config.EnsureCacheDir,
	} {
		if err := ensure(); err != nil {
			return err
		}
	}

	if err := daemon.RecoverFromStaleDaemon(pidPath, socketPath, config.CacheDir()); err != nil {
		if errors.Is(err, daemon.ErrDaemonAlreadyRunning) {
			return errors.New("lumend is already running")
		}
		return err
	}

	lib, err := fslibrary.Open(fslibrary.Options{
		Root:     cfg.Library.Path,
		Exclude:  cfg.Library.Exclude,
		CacheDir: config.DefaultMetaCacheDir(),
	})
	if err != nil {
		_ = daemon.WriteStartupError(statusPath, err)
		return fmt.Errorf("open library: %w", err)
	}
	defer func() { _ = lib.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := lib.StartWatching(ctx); err != nil {
		log.Warn("library watching unavailable", "error", err)
	}

	svc := daemon.NewService(lib, config.DefaultIndexPath(), daemon.ServiceOptions{
		RebuildInterval: time.Duration(cfg.Index.RebuildDays) * 24 * time.Hour,
		CheckInterval:   checkInterval(cfg),
	})
	svc.Start(ctx)
	defer svc.Stop()

	srv, err := daemon.NewServer(daemon.Config{
		SocketPath: socketPath,
		DataDir:    config.DataDir(),
	}, svc)
	if err != nil {
		_ = daemon.WriteStartupError(statusPath, err)
		return fmt.Errorf("create server: %w", err)
	}

	if err := daemon.WritePIDFile(pidPath); err != nil {
		_ = daemon.WriteStartupError(statusPath, err)
		return fmt.Errorf("write PID file: %w", err)
	}
	defer func() { _ = daemon.RemovePIDFile(pidPath) }()

	if err := daemon.WriteStartupReady(statusPath); err != nil {
		log.Warn("failed to write startup file", "error", err)
	}
	defer func() { _ = daemon.RemoveStartup(statusPath) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	shutdown := func() {
		log.Info("shutting down")
		cancel()
		_ = srv.Close()
	}
	srv.SetShutdownFunc(shutdown)

	go func() {
		<-sigChan
		shutdown()
	}()

	log.Info("lumend starting", "socket", socketPath, "library", cfg.Library.Path)
	return srv.Serve()
}

func initLogging(cfg *config.Config) error {
	var maxSize int64
	if cfg.Logging.Rotation.MaxSize != "" {
		parsed, err := humanize.ParseBytes(cfg.Logging.Rotation.MaxSize)
		if err != nil {
			return fmt.Errorf("invalid logging.rotation.max_size: %w", err)
		}
		maxSize = int64(parsed) //nolint:gosec // config sizes are far below overflow
	}

	return logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Path:         cfg.Logging.Path,
		MaxSizeBytes: maxSize,
		MaxBackups:   cfg.Logging.Rotation.MaxBackups,
		Components:   cfg.Logging.Components,
	})
}

func checkInterval(cfg *config.Config) time.Duration {
	d, err := time.ParseDuration(cfg.Index.CheckInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}
