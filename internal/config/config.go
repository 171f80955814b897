package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath     string
	ServerPort string
	LogLevel   string

	StatsURLRoot          string
	HardwareFeedURL       string
	StatsParseConcurrency int

	EnableStatsParsing  bool
	StatsParsingCron    string
	EnableStatsReset    bool
	StatsResetCron      string
	EnableResultStorage bool
	ResultStorageCron   string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	concurrency, err := getEnvInt("STATS_PARSE_CONCURRENCY", 8)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBPath:     getEnv("DB_PATH", "folding-stats.db"),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		StatsURLRoot:          strings.TrimRight(getEnv("STATS_URL_ROOT", "https://api2.foldingathome.org"), "/"),
		HardwareFeedURL:       getEnv("HARDWARE_FEED_URL", ""),
		StatsParseConcurrency: concurrency,

		EnableStatsParsing:  getEnvBool("ENABLE_STATS_PARSING", true),
		StatsParsingCron:    getEnv("STATS_PARSING_SCHEDULE", "0 55 * * * *"),
		EnableStatsReset:    getEnvBool("ENABLE_STATS_RESET", true),
		StatsResetCron:      getEnv("STATS_RESET_SCHEDULE", "0 0 0 1 * *"),
		EnableResultStorage: getEnvBool("ENABLE_MONTHLY_RESULT_STORAGE", true),
		ResultStorageCron:   getEnv("STATS_ARCHIVE_SCHEDULE", "0 50 23 28-31 * *"),
	}

	if cfg.StatsParseConcurrency < 1 {
		return nil, fmt.Errorf("STATS_PARSE_CONCURRENCY must be positive, got %d", cfg.StatsParseConcurrency)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("stats_url_root", cfg.StatsURLRoot).
		Bool("hardware_feed", cfg.HardwareFeedURL != "").
		Int("parse_concurrency", cfg.StatsParseConcurrency).
		Bool("stats_parsing", cfg.EnableStatsParsing).
		Bool("stats_reset", cfg.EnableStatsReset).
		Bool("result_storage", cfg.EnableResultStorage).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

var Module = fx.Provide(Load)
