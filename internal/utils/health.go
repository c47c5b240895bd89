package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

type HealthStatus struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Uptime    string          `json:"uptime,omitempty"`
	Services  []ServiceStatus `json:"services"`
}

type ServiceStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Pinger is a dependency that can report liveness.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	Deps    []Pinger
	Timeout time.Duration
}

func NewHealthChecker(db *gorm.DB, rdb *redis.Client) *HealthChecker {
	hc := &HealthChecker{Timeout: 2 * time.Second}
	if db != nil {
		hc.Deps = append(hc.Deps, postgresPinger{db: db})
	}
	if rdb != nil {
		hc.Deps = append(hc.Deps, redisPinger{client: rdb})
	}
	return hc
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	services := make([]ServiceStatus, 0, len(h.Deps))
	overall := StatusHealthy

	for _, dep := range h.Deps {
		svc := ServiceStatus{Name: dep.Name(), Status: "up"}
		pingCtx, cancel := context.WithTimeout(ctx, h.Timeout)
		if err := dep.Ping(pingCtx); err != nil {
			svc.Status = "down"
			svc.Message = err.Error()
			overall = StatusDegraded
		}
		cancel()
		services = append(services, svc)
	}

	return HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Services:  services,
	}
}

type postgresPinger struct {
	db *gorm.DB
}

func (p postgresPinger) Name() string { return "PostgreSQL" }

func (p postgresPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Name() string { return "Redis" }

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
