package main

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// formatUptime renders d to the second, e.g. "1h2m5s".
func formatUptime(d time.Duration) string {
	return d.Truncate(time.Second).String()
}

// getEnv reads a string from the environment or returns a fallback.
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// envPositive reads key with parse and keeps it only if it is above zero.
// Anything else is logged and replaced by fallback.
func envPositive[T int | time.Duration](key string, fallback T, parse func(string) (T, error)) T {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	v, err := parse(val)
	if err == nil && v <= 0 {
		err = errors.New("must be positive")
	}
	if err != nil {
		log.Warn().Str("key", key).Str("value", val).Err(err).Msgf("Using default %v", fallback)
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	return envPositive(key, fallback, time.ParseDuration)
}

func getEnvInt(key string, fallback int) int {
	return envPositive(key, fallback, strconv.Atoi)
}

func envName(production bool) string {
	if production {
		return "production"
	}
	return "development"
}

func logInfo(format string, v ...any) { log.Info().Msgf(format, v...) }

func logWarn(format string, v ...any) { log.Warn().Msgf(format, v...) }

// logFatal logs and exits.
func logFatal(format string, v ...any) { log.Fatal().Msgf(format, v...) }
