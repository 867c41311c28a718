package main

import (
	"fmt"

	"go-coffee-pos/internal/config"
	"go-coffee-pos/internal/database"
	"go-coffee-pos/internal/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB()
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		logger.L.Info("migrations applied")
		return nil
	},
}

var seedInput database.SeedInput

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create payment methods, a first branch and an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB()
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		if err := database.Seed(db, seedInput); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		logger.L.Info("seed complete", "admin", seedInput.AdminEmail, "branch", seedInput.BranchName)
		return nil
	},
}

func init() {
	f := seedCmd.Flags()
	f.StringVar(&seedInput.AdminEmail, "admin-email", "admin@kahve.local", "email of the first admin")
	f.StringVar(&seedInput.AdminPassword, "admin-password", "", "password of the first admin (min 6 characters)")
	f.StringVar(&seedInput.AdminName, "admin-name", "Yönetici", "display name of the first admin")
	f.StringVar(&seedInput.BranchName, "branch", "Merkez", "name of the first branch")
	_ = seedCmd.MarkFlagRequired("admin-password")
}

func openDB() (*gorm.DB, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, cfg, err
	}
	logger.Setup(cfg.IsProduction())
	db, err := database.Connect(cfg.DBDriver, cfg.DBDSN, !cfg.IsProduction())
	if err != nil {
		return nil, cfg, err
	}
	return db, cfg, nil
}
