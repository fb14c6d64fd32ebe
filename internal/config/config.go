// Package config contains the configuration loading logic of the GFX order service.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime parameters of the GFX order service.
type Config struct {
	RunAddress      string `env:"RUN_ADDRESS"`
	DatabaseURI     string `env:"DATABASE_URI"`
	SessionSecret   string `env:"SESSION_SECRET"`
	DiscordBotToken string `env:"DISCORD_BOT_TOKEN"`
	AdminUsername   string `env:"ADMIN_USERNAME"`
	AdminEmail      string `env:"ADMIN_EMAIL"`
	AdminPassword   string `env:"ADMIN_PASSWORD"`
}

// Parse reads the configuration from command line flags and environment
// variables. Environment variables win over flags.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envSessionSecret := cfg.SessionSecret
	envBotToken := cfg.DiscordBotToken

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.SessionSecret, "s", "", "admin session signing secret")
	flag.StringVar(&cfg.DiscordBotToken, "t", "", "Discord bot token (bot disabled when empty)")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envSessionSecret != "" {
		cfg.SessionSecret = envSessionSecret
	}
	if envBotToken != "" {
		cfg.DiscordBotToken = envBotToken
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "monkey-studio-secret"
	}
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin"
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = "admin@example.com"
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "adminpassword"
	}

	return cfg, nil
}
