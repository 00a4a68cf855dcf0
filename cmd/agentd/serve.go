package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/api"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/config"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/db"
)

func newServeCmd() *cobra.Command {
	var configPath string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "agentd.yaml", "path to config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override listen port")
	return cmd
}

func runServe(configPath string, portOverride int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if portOverride != 0 {
		cfg.Server.Port = portOverride
	}

	gormDB, err := db.Connect(cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	if err != nil {
		return fmt.Errorf("serve: connect database: %w", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return fmt.Errorf("serve: migrate database: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	log.Info().Int("port", cfg.Server.Port).Msg("starting API server")
	return api.Start(ctx, api.StartOpts{
		DB:          gormDB,
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
}

// loadConfig falls back to defaults when the file is missing so that
// `agentd serve` works out of the box against a local MySQL.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("path", path).Msg("config file not found, using defaults")
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}
