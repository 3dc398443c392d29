// Command waylandd runs the display-server runtime core: it accepts
// Wayland client connections on a Unix domain socket and dispatches
// their requests until SIGINT or SIGTERM arrives.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/waylandd/waylandd/internal/server"
)

var (
	socketPath string
	debugTrace bool
	logLevel   string
)

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "wayland-0")
	}
	return filepath.Join(os.TempDir(), "wayland-0")
}

func buildLogger(level string) zerolog.Logger {
	var writer = os.Stderr
	var out zerolog.ConsoleWriter
	var logger zerolog.Logger
	if isatty.IsTerminal(writer.Fd()) {
		out = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}
		logger = zerolog.New(out)
	} else {
		logger = zerolog.New(writer)
	}
	logger = logger.With().Timestamp().Logger()

	zl, err := zerolog.ParseLevel(level)
	if err != nil {
		zl = zerolog.InfoLevel
	}
	return logger.Level(zl)
}

var rootCmd = &cobra.Command{
	Use:   "waylandd",
	Short: "Minimal Wayland display-server runtime core",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := buildLogger(logLevel)

		trace := debugTrace
		if !cmd.Flags().Changed("debug-trace") {
			v := os.Getenv("WAYLAND_DEBUG")
			trace = v == "1" || v == "server"
		}

		srv, err := server.New(server.Config{
			SocketPath: socketPath,
			Trace:      trace,
			Logger:     log,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to start server")
			return err
		}

		log.Info().Str("socket", socketPath).Msg("listening")
		if err := srv.Run(); err != nil {
			log.Error().Err(err).Msg("server loop exited with error")
			return err
		}
		log.Info().Msg("shut down cleanly")
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&socketPath, "socket-path", defaultSocketPath(), "Unix domain socket path to listen on")
	rootCmd.Flags().BoolVar(&debugTrace, "debug-trace", false, "enable the request/event debug trace (overrides WAYLAND_DEBUG)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error, fatal, panic)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
