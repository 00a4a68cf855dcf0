package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/config"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/db"
)

func newDBCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "agentd.yaml", "path to config file")

	cmd.AddCommand(newDBInitCmd(&configPath))
	cmd.AddCommand(newDBResetCmd(&configPath))
	return cmd
}

func newDBInitCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and run migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := runDBInit(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database %s initialized\n", cfg.Database.Name)
			return nil
		},
	}
}

func newDBResetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate the database (destroys all data)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			adminDB, err := connectAdmin(cfg)
			if err != nil {
				return err
			}
			if err := db.DropDatabase(adminDB, cfg.Database.Name); err != nil {
				return fmt.Errorf("db reset: %w", err)
			}
			if err := runDBInit(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database %s reset\n", cfg.Database.Name)
			return nil
		},
	}
}

func runDBInit(cfg *config.Config) error {
	adminDB, err := connectAdmin(cfg)
	if err != nil {
		return err
	}
	if err := db.CreateDatabase(adminDB, cfg.Database.Name); err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	gormDB, err := db.Connect(cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	if err != nil {
		return fmt.Errorf("db init: connect: %w", err)
	}
	return db.AutoMigrate(gormDB)
}

func connectAdmin(cfg *config.Config) (*gorm.DB, error) {
	adminDB, err := db.ConnectAdmin(cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port)
	if err != nil {
		return nil, fmt.Errorf("db: admin connect: %w", err)
	}
	return adminDB, nil
}
