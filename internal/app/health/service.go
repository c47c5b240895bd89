package health

import (
	"context"
	"time"

	"storefront/internal/utils"
)

type Service interface {
	Check(ctx context.Context) utils.HealthStatus
}

type service struct {
	checker   *utils.HealthChecker
	startedAt time.Time
}

func NewService(checker *utils.HealthChecker) Service {
	return &service{checker: checker, startedAt: time.Now()}
}

func (s *service) Check(ctx context.Context) utils.HealthStatus {
	status := s.checker.Check(ctx)
	status.Uptime = time.Since(s.startedAt).Round(time.Second).String()
	return status
}
