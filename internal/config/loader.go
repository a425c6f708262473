package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/example/duty-bot/internal/logging"
)

const envPrefix = "DUTYBOT_"

// Config captures environment driven configuration values for the bot.
type Config struct {
	HTTPPort          int
	DataDir           string
	VKToken           string
	VKAPIVersion      string
	VKAPIURL          string
	GroupID           int64
	CallbackSecret    string
	ConfirmationToken string
	SigningSecret     string
	BootstrapAdmin    int64
	FloorFile         string
	Floor             Floor
	RedisURL          string
	RateLimit         float64
	RateBurst         int
	LogLevel          slog.Level
}

// DatabasePath returns the SQLite file of the community groupID.
func (c Config) DatabasePath(groupID int64) string {
	return filepath.Join(c.DataDir, strconv.FormatInt(groupID, 10)+".sqlite")
}

// Secrets lists the values that must never appear in logs.
func (c Config) Secrets() []string {
	return []string{c.VKToken, c.CallbackSecret, c.ConfirmationToken, c.SigningSecret}
}

// Load parses configuration values from the current process environment. A
// .env file in the working directory is read first; variables already set in
// the environment win.
//
// The loader applies defaults for optional fields while validating required
// values, and reports every missing or invalid entry in one error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := Config{
		HTTPPort:     8080,
		DataDir:      "data",
		VKAPIVersion: "5.103",
		VKAPIURL:     "https://api.vk.com/method",
		Floor:        DefaultFloor(),
		RateLimit:    20,
		RateBurst:    40,
		LogLevel:     slog.LevelInfo,
	}

	missing := make([]string, 0, 4)
	invalid := make([]string, 0, 4)

	required := func(name string, dst *string) {
		if value := env(name); value == "" {
			missing = append(missing, envPrefix+name)
		} else {
			*dst = value
		}
	}
	optional := func(name string, dst *string) {
		if value := env(name); value != "" {
			*dst = value
		}
	}

	if value := env("HTTP_PORT"); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, envPrefix+"HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	optional("DATA_DIR", &cfg.DataDir)
	required("VK_TOKEN", &cfg.VKToken)
	optional("VK_API_VERSION", &cfg.VKAPIVersion)
	optional("VK_API_URL", &cfg.VKAPIURL)
	required("CALLBACK_SECRET", &cfg.CallbackSecret)
	required("CONFIRMATION_TOKEN", &cfg.ConfirmationToken)
	optional("SIGNING_SECRET", &cfg.SigningSecret)
	optional("FLOOR_FILE", &cfg.FloorFile)
	optional("REDIS_URL", &cfg.RedisURL)

	if value := env("GROUP_ID"); value != "" {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id < 0 {
			invalid = append(invalid, envPrefix+"GROUP_ID")
		} else {
			cfg.GroupID = id
		}
	}

	if value := env("BOOTSTRAP_ADMIN"); value == "" {
		missing = append(missing, envPrefix+"BOOTSTRAP_ADMIN")
	} else if id, err := strconv.ParseInt(value, 10, 64); err != nil || id <= 0 {
		invalid = append(invalid, envPrefix+"BOOTSTRAP_ADMIN")
	} else {
		cfg.BootstrapAdmin = id
	}

	if value := env("RATE_LIMIT"); value != "" {
		limit, err := strconv.ParseFloat(value, 64)
		if err != nil || limit <= 0 {
			invalid = append(invalid, envPrefix+"RATE_LIMIT")
		} else {
			cfg.RateLimit = limit
		}
	}

	if value := env("RATE_BURST"); value != "" {
		burst, err := strconv.Atoi(value)
		if err != nil || burst <= 0 {
			invalid = append(invalid, envPrefix+"RATE_BURST")
		} else {
			cfg.RateBurst = burst
		}
	}

	if value := env("LOG_LEVEL"); value != "" {
		level, err := logging.ParseLevel(value)
		if err != nil {
			invalid = append(invalid, envPrefix+"LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	if cfg.FloorFile != "" {
		floor, err := LoadFloor(cfg.FloorFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Floor = floor
	}

	return cfg, nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + name))
}
