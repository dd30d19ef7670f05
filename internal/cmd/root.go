// Package cmd provides the command-line interface for the golf course API
// scraper. It handles configuration loading, logging setup, and running the
// crawl with graceful shutdown.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/GeorgeBronner/golfapi-scapper/internal/config"
	"github.com/GeorgeBronner/golfapi-scapper/internal/logging"
	"github.com/GeorgeBronner/golfapi-scapper/internal/scraper"
	"github.com/GeorgeBronner/golfapi-scapper/internal/storage"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "golfscraper",
	Short: "Sequentially scrape the Golf Course API into SQLite",
	Long: `golfscraper walks numeric course IDs against the Golf Course API and
persists each course into a local SQLite database.

The walk is restart-safe: every attempted ID and every API call is recorded,
so an interrupted run resumes exactly where it stopped without re-fetching
anything or blowing the daily call quota.`,
	RunE: runScrape,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI.
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./golfscraper.yml)")
	rootCmd.PersistentFlags().StringP("database", "d", "./data/golf_courses.db", "Path to SQLite database file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "Optional log file (JSON, size-rotated)")

	rootCmd.Flags().Bool("show-config", false, "Display effective configuration in YAML format and exit")
	rootCmd.Flags().String("base-url", "https://api.golfcourseapi.com", "API base URL")
	rootCmd.Flags().Int("max-calls", 295, "Max API calls per rolling window")
	rootCmd.Flags().Int("window-hours", 24, "Rolling rate-limit window in hours")
	rootCmd.Flags().IntP("miss-limit", "l", 1000, "Stop after this many consecutive 404s")
	rootCmd.Flags().Float64P("delay", "r", 1.5, "Delay between requests in seconds")
	rootCmd.Flags().Int("timeout", 30, "HTTP request timeout in seconds")
	rootCmd.Flags().Int("retries", 3, "Retry attempts per course ID")
	rootCmd.Flags().Int("retry-delay", 300, "Linear backoff base in seconds")
	rootCmd.Flags().Int("throttle-sleep", 3600, "Cooldown in seconds after an upstream 429")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"base_url", "base-url"},
		{"max_calls_per_day", "max-calls"},
		{"rate_limit_window_hours", "window-hours"},
		{"consecutive_404_limit", "miss-limit"},
		{"request_delay_seconds", "delay"},
		{"request_timeout_seconds", "timeout"},
		{"retry_max_attempts", "retries"},
		{"retry_delay_seconds", "retry-delay"},
		{"rate_limit_sleep_seconds", "throttle-sleep"},
	}
	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
	for _, bind := range []struct{ viperKey, flagName string }{
		{"db_path", "database"},
		{"log_level", "log-level"},
		{"log_file", "log-file"},
	} {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.PersistentFlags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads the .env file, config file, and environment variables.
func initConfig() {
	// Same contract as the long-standing deployment: a .env next to the
	// binary is honored, a missing one is not an error.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("golfscraper")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// The environment variable names predate this tool; keep them stable.
	envBindings := map[string]string{
		"api_key":                  "GOLFCOURSEAPI_API_KEY",
		"base_url":                 "API_BASE_URL",
		"max_calls_per_day":        "MAX_CALLS_PER_DAY",
		"rate_limit_window_hours":  "RATE_LIMIT_WINDOW_HOURS",
		"consecutive_404_limit":    "CONSECUTIVE_404_LIMIT",
		"request_delay_seconds":    "REQUEST_DELAY_SECONDS",
		"request_timeout_seconds":  "REQUEST_TIMEOUT_SECONDS",
		"retry_max_attempts":       "RETRY_MAX_ATTEMPTS",
		"retry_delay_seconds":      "RETRY_DELAY_SECONDS",
		"rate_limit_sleep_seconds": "RATE_LIMIT_SLEEP_SECONDS",
		"db_path":                  "DB_PATH",
		"log_level":                "LOG_LEVEL",
		"log_file":                 "LOG_FILE",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind env %s: %v\n", env, err)
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig materializes the effective configuration without validating it,
// so subcommands that only need the database path can share it.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) error {
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.LogLevel)
	logCfg.FilePath = cfg.LogFile
	return logging.SetDefault(logCfg)
}

func showCurrentConfig(cfg *config.Config) error {
	shown := *cfg
	if shown.APIKey != "" {
		shown.APIKey = "(set)"
	}

	yamlData, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Printf("# Effective golfscraper configuration\n")
	fmt.Printf("# Generated at: %s\n\n", time.Now().Format(time.RFC3339))
	fmt.Print(string(yamlData))
	return nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if showConfig {
		return showCurrentConfig(cfg)
	}

	// Configuration problems are fatal before any network or store activity.
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := setupLogging(cfg); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	progress, err := store.GetProgress()
	if err != nil {
		return err
	}

	slog.Info("Golf Course API scraper starting",
		"version", version,
		"base_url", cfg.BaseURL,
		"max_calls", cfg.MaxCallsPerDay,
		"window_hours", cfg.RateLimitWindowHours,
		"db_path", cfg.DBPath)
	slog.Info("Persisted crawl state",
		"last_course_id", progress.LastID,
		"total_saved", progress.TotalSaved,
		"consecutive_404s", progress.ConsecutiveMisses,
		"complete", progress.Complete)

	engine := scraper.NewEngine(cfg, store)
	defer engine.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return engine.Run(ctx)
}
