// Package main is the entry point for the gridbase server.
//
// gridbase is a schema-flexible mini database with end-user editable
// columns, exposed over an HTTP API. Configuration is read from CLI
// flags and an optional YAML config file.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/gridbase/gridbase/internal/server"
	"github.com/gridbase/gridbase/internal/storage"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "gridbase: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		return hashPassword(os.Args[2:])
	}

	version := flag.Bool("version", false, "Print version and exit")
	httpAddr := flag.String("http", "", "Address to listen on (overrides config)")
	configPath := flag.String("config", "gridbase.yaml", "Path to YAML config file")
	dataDir := flag.String("data-dir", "", "Data directory for the file backend (overrides config)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *version {
		printVersion()
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelInfo)
	// Skip timestamps when running under systemd (it adds its own).
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	switch *logLevel {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %q", *logLevel)
	}

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *httpAddr != "" {
		cfg.Addr = *httpAddr
	}
	if *dataDir != "" {
		cfg.Storage.Root = *dataDir
	}
	if v := os.Getenv("GRIDBASE_JWT_SECRET"); v != "" {
		cfg.JWTSecret = []byte(v)
	}
	if v := os.Getenv("GRIDBASE_ADMIN_PASSWORD_HASH"); v != "" {
		cfg.AdminPasswordHash = v
	}
	if v := os.Getenv("GRIDBASE_POSTGRES_DSN"); v != "" {
		cfg.Storage.Backend = "postgres"
		cfg.Storage.DSN = v
	}
	if len(cfg.JWTSecret) == 0 {
		// An ephemeral secret keeps the server usable; issued tokens do not
		// survive a restart.
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		cfg.JWTSecret = secret
		slog.Warn("No JWT secret configured, generated an ephemeral one")
	}

	if cfg.Storage.Backend == "file" {
		if err := os.MkdirAll(cfg.Storage.Root, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	store, err := storage.New(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// Watch own executable for modifications (for development restarts).
	if err := watchExecutable(ctx, stop); err != nil {
		return fmt.Errorf("failed to watch executable: %w", err)
	}

	buildVersion, _, _, _ := getBuildInfo()
	slog.InfoContext(ctx, "Starting gridbase",
		"addr", cfg.Addr,
		"backend", cfg.Storage.Backend,
		"version", buildVersion)
	return server.New(cfg, store, buildVersion).ListenAndServe(ctx)
}

// hashPassword implements the hash-password subcommand for provisioning the
// admin credential.
func hashPassword(args []string) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: gridbase hash-password <password>")
	}
	hash, err := server.HashPassword(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("gridbase %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}

// watchExecutable watches the current executable for modifications and calls
// stop to trigger graceful shutdown when detected. This enables seamless
// restarts during development.
func watchExecutable(ctx context.Context, stop context.CancelFunc) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(exe); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) {
					slog.InfoContext(ctx, "Executable modified, initiating shutdown")
					stop()
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching executable", "err", err)
			}
		}
	}()
	return nil
}
