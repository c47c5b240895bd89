package main

import (
	"context"
	"log"
	"time"

	"storefront/internal/app/session"
	"storefront/internal/app/user"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/db/seeder"
	"storefront/internal/utils"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer logger.Sync()

	utils.LoadEnv(logger)

	cfg := config.LoadConfig()

	logger.Info("Config loaded",
		zap.String("db_host", cfg.DBHost),
		zap.String("db_name", cfg.DBName),
		zap.String("env", cfg.Env),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbConn, err := db.Connect(&cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.Migrate(dbConn, logger); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	userService := user.NewService(
		user.NewRepository(dbConn),
		session.NewService(cfg.JWTSecret, cfg.JWTTTL),
		nil,
		logger,
		user.Options{
			AdminName:     cfg.AdminName,
			AdminEmail:    cfg.AdminEmail,
			AdminPassword: cfg.AdminPassword,
		},
	)

	if err := seeder.NewSeeder(userService, logger).Seed(ctx); err != nil {
		logger.Fatal("Failed to run seeders", zap.Error(err))
	}
}
