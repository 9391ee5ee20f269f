package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds chat client configuration.
type Config struct {
	APIURL         string
	Token          string
	BudgetID       *uint
	Timezone       string
	RequestTimeout time.Duration
}

// loadConfig reads configuration from the environment, optionally seeded by a
// .env file, and validates required fields.
func loadConfig() (*Config, error) {
	_ = godotenv.Load()
	return parseConfig(os.Getenv)
}

func parseConfig(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		APIURL:   getenv("PENNYWISE_API_URL"),
		Token:    getenv("PENNYWISE_TOKEN"),
		Timezone: getenv("PENNYWISE_TIMEZONE"),
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "http://localhost:8080"
	}
	if cfg.Token == "" {
		return nil, errors.New("PENNYWISE_TOKEN is required")
	}
	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("invalid PENNYWISE_TIMEZONE %q: %w", cfg.Timezone, err)
		}
	}

	if raw := getenv("PENNYWISE_BUDGET_ID"); raw != "" {
		id, err := parseBudgetID(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PENNYWISE_BUDGET_ID: %w", err)
		}
		cfg.BudgetID = &id
	}

	cfg.RequestTimeout = 30 * time.Second
	if raw := getenv("REQUEST_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", raw, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", d)
		}
		cfg.RequestTimeout = d
	}

	return cfg, nil
}

func parseBudgetID(raw string) (uint, error) {
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("must be positive")
	}
	return uint(n), nil
}
