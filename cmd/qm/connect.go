package main

import (
	"context"
	"fmt"

	"github.com/quantummeet/quantummeet/internal/auth"
	"github.com/quantummeet/quantummeet/internal/config"
	"github.com/quantummeet/quantummeet/internal/db"
	"github.com/quantummeet/quantummeet/internal/models"
	"gorm.io/gorm"
)

func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	return cfg, gormDB, nil
}

// lookupUser resolves the --user flag, which takes an email address.
func lookupUser(ctx context.Context, gormDB *gorm.DB, email string) (*models.User, error) {
	if email == "" {
		return nil, fmt.Errorf("--user is required")
	}
	user, err := auth.UserByEmail(ctx, gormDB, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}
