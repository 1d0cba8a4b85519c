// Package main is the entry point for the toastd notification daemon.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/daemon"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var opts struct {
	verbose    bool
	configPath string
	headless   bool
	noDBus     bool
	logFile    string
}

var rootCmd = &cobra.Command{
	Use:   "toastd",
	Short: "Toast notification daemon for Linux desktops and terminals",
	Long: `toastd shows short-lived toast notifications stacked at five screen
anchors. It claims org.freedesktop.Notifications on the session bus so any
application can raise toasts, and draws them full screen in the terminal.

With --headless toasts are printed one per line instead, which suits
running under a service manager.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.Flags().StringVar(&opts.configPath, "config", "",
		"Path to config file (default: ~/.config/toastd/toastd.toml)")
	rootCmd.Flags().BoolVar(&opts.headless, "headless", false,
		"Print toasts instead of drawing them in the terminal")
	rootCmd.Flags().BoolVar(&opts.noDBus, "no-dbus", false,
		"Do not claim org.freedesktop.Notifications")
	rootCmd.Flags().StringVar(&opts.logFile, "log-file", "",
		"Write logs to this file (the terminal board needs stderr clean)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "toastd:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := setupLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("starting toastd", "version", version)

	d, err := daemon.New(daemon.Options{
		ConfigPath: opts.configPath,
		Headless:   opts.headless,
		NoDBus:     opts.noDBus,
		Output:     os.Stdout,
		Version:    version,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		if daemon.IsNameTaken(err) {
			return fmt.Errorf("%w (another notification daemon is running; set dbus.replace_existing or use --no-dbus)", err)
		}
		return err
	}
	return nil
}

// setupLogger configures the global slog logger. The terminal board owns
// the screen, so unless a log file is given it only logs warnings.
func setupLogger() (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}

	out := os.Stderr
	closeFn := func() {}
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	} else if !opts.headless && !opts.verbose {
		level = slog.LevelWarn
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}
