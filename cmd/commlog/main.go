package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	clientcmd "github.com/rzbill/commlog/internal/cmd/client"
	serverrun "github.com/rzbill/commlog/internal/cmd/server"
	cfgpkg "github.com/rzbill/commlog/internal/config"
	pebblestore "github.com/rzbill/commlog/internal/storage/pebble"
	logpkg "github.com/rzbill/commlog/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	// A .env file in the working directory is optional; real environment wins.
	_ = godotenv.Load()

	// initialize logger for CLI
	// Respect COMMLOG_LOG_LEVEL for both CLI and server start output
	level := os.Getenv("COMMLOG_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	// Redirect standard library logs (used by Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	var configPath string
	loadConfig := func() (cfgpkg.Config, error) {
		cfg, err := cfgpkg.Load(configPath)
		if err != nil {
			return cfgpkg.Config{}, err
		}
		cfgpkg.FromEnv(&cfg)
		return cfg, nil
	}

	rootCmd := &cobra.Command{
		Use:   "commlog",
		Short: "Unified call and SMS log service",
		Long:  "commlog serves paginated, filterable voice call and SMS logs from hosted providers or a local sandbox store.",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("COMMLOG_CONFIG"), "Path to a JSON or YAML config file")

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the commlog HTTP server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			httpAddr, _ := cmd.Flags().GetString("http")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			providerMode, _ := cmd.Flags().GetString("provider")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")

			mode := pebblestore.FsyncModeAlways
			switch fsyncMode {
			case "never":
				mode = pebblestore.FsyncModeNever
			case "interval":
				mode = pebblestore.FsyncModeInterval
			case "always":
				mode = pebblestore.FsyncModeAlways
			default:
				return fmt.Errorf("invalid --fsync; use always|interval|never")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if providerMode != "" {
				cfg.Provider.Mode = providerMode
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if logLevel != "" {
				_ = os.Setenv("COMMLOG_LOG_LEVEL", logLevel)
			}
			if logFormat != "" {
				_ = os.Setenv("COMMLOG_LOG_FORMAT", logFormat)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{
				HTTPAddr: httpAddr,
				Fsync:    mode,
				Config:   cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default from config, :8080)")
	serverStartCmd.Flags().String("provider", "", "Provider mode: remote|sandbox (default from config)")
	serverStartCmd.Flags().String("data-dir", "", "Sandbox data directory (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("fsync", "always", "Fsync mode for the sandbox store: always|interval|never")
	serverStartCmd.Flags().String("log-level", os.Getenv("COMMLOG_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", os.Getenv("COMMLOG_LOG_FORMAT"), "Log format: text|json (default text)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	// client commands
	rootCmd.AddCommand(clientcmd.NewCallsCommand(apiURL))
	rootCmd.AddCommand(clientcmd.NewMessagesCommand(apiURL))
	rootCmd.AddCommand(clientcmd.NewSandboxCommand(loadConfig))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("COMMLOG_API"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
