package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvFFmpeg        = "VIDPRESS_FFMPEG"
	EnvFFprobe       = "VIDPRESS_FFPROBE"
	EnvOutputDir     = "VIDPRESS_OUTPUT_DIR"
	EnvLang          = "VIDPRESS_LANG"
	EnvRedisAddr     = "VIDPRESS_REDIS_ADDR"
	EnvRedisPassword = "VIDPRESS_REDIS_PASSWORD"
	EnvRedisDB       = "VIDPRESS_REDIS_DB"
	EnvRedisPrefix   = "VIDPRESS_REDIS_PREFIX"
	EnvLog           = "VIDPRESS_LOG"
)

// LoadEnv loads KEY=VALUE pairs from the given .env files (default ".env")
// into the process environment. Variables already set are not overridden.
// A missing file is not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays VIDPRESS_* environment variables onto cfg. Unset or
// empty variables leave the current value. An unparsable VIDPRESS_REDIS_DB
// is reported and ignored.
func ApplyEnv(cfg *Config) error {
	cfg.FFmpegPath = getEnv(EnvFFmpeg, cfg.FFmpegPath)
	cfg.FFprobePath = getEnv(EnvFFprobe, cfg.FFprobePath)
	cfg.OutputDir = getEnv(EnvOutputDir, cfg.OutputDir)
	cfg.Language = getEnv(EnvLang, cfg.Language)
	cfg.RedisAddr = getEnv(EnvRedisAddr, cfg.RedisAddr)
	cfg.RedisPassword = getEnv(EnvRedisPassword, cfg.RedisPassword)
	cfg.RedisPrefix = getEnv(EnvRedisPrefix, cfg.RedisPrefix)
	cfg.LogFile = getEnv(EnvLog, cfg.LogFile)

	db, err := getEnvInt(EnvRedisDB, cfg.RedisDB)
	cfg.RedisDB = db
	return err
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback, fmt.Errorf("%s must be a whole number (got %q)", key, value)
	}
	return n, nil
}
