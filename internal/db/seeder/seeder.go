package seeder

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/app/user"

	"go.uber.org/zap"
)

const (
	DemoCustomerName     = "John Doe"
	DemoCustomerEmail    = "user@example.com"
	DemoCustomerPassword = "password"
)

type Seeder struct {
	users  user.Service
	logger *zap.Logger
}

func NewSeeder(users user.Service, logger *zap.Logger) *Seeder {
	return &Seeder{
		users:  users,
		logger: logger,
	}
}

func (s *Seeder) Seed(ctx context.Context) error {
	s.logger.Info("Running database seeders...")

	admin, err := s.users.EnsureAdministrator(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("Administrator ready", zap.Uint64("user_id", admin.ID), zap.String("email", admin.Email))

	if err := s.seedDemoCustomer(ctx); err != nil {
		return err
	}

	s.logger.Info("Database seeders completed successfully")
	return nil
}

func (s *Seeder) seedDemoCustomer(ctx context.Context) error {
	_, err := s.users.Register(ctx, DemoCustomerName, DemoCustomerEmail, DemoCustomerPassword)
	if errors.Is(err, user.ErrUserExists) {
		s.logger.Info("Demo customer already exists, skipping seed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed demo customer: %w", err)
	}
	s.logger.Info("Seeded demo customer", zap.String("email", DemoCustomerEmail))
	return nil
}
