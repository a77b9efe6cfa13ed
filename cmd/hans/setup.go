package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/hansdj/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates config.toml from the embedded template when missing, then initializes the
// database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.writePlain("✓ Using existing config %s\n", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
		if err := config.ApplyEnv(cmd.String("env")); err != nil {
			r.logger.Warn("failed to load env file", "error", err)
		}
		r.config = config
		r.writePlain("✓ Created %s\n", configPath)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	if _, err := r.historyStore(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)

	if r.config.Credentials.Spotify.ClientSecret == "" {
		r.writePlainln("Next: set %s in your environment or .env, then run 'hans auth'.", shared.EnvClientSecret)
	} else {
		r.writePlainln("Next: run 'hans auth' to connect your Spotify account.")
	}
	return nil
}
