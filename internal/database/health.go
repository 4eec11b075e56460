package database

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

const probeTimeout = 2 * time.Second

// Probe reports whether one dependency of the serving process is usable.
type Probe interface {
	Name() string
	Check(ctx context.Context) error
}

// Health runs the probes of a serving process. All of them must pass before it starts.
type Health struct {
	probes []Probe
	logger *zap.Logger
}

// Report is the outcome of one round of probes, keyed by probe name.
type Report struct {
	Healthy  bool
	Services map[string]string
}

func NewHealth(logger *zap.Logger, probes ...Probe) *Health {
	return &Health{probes: probes, logger: logger}
}

// Startup fails on the first probe that does not pass.
func (h *Health) Startup(ctx context.Context) error {
	for _, probe := range h.probes {
		if err := h.check(ctx, probe); err != nil {
			h.logger.Error("Startup probe failed", zap.String("service", probe.Name()), zap.Error(err))
			return fmt.Errorf("%s is not ready: %w", probe.Name(), err)
		}
		h.logger.Info("Startup probe passed", zap.String("service", probe.Name()))
	}
	return nil
}

// Report runs every probe once.
func (h *Health) Report(ctx context.Context) Report {
	report := Report{Healthy: true, Services: make(map[string]string, len(h.probes))}
	for _, probe := range h.probes {
		if err := h.check(ctx, probe); err != nil {
			report.Healthy = false
			report.Services[probe.Name()] = err.Error()
			continue
		}
		report.Services[probe.Name()] = "healthy"
	}
	return report
}

func (h *Health) check(ctx context.Context, probe Probe) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return probe.Check(ctx)
}

// PoolProbe pings the pool the server shares between requests.
type PoolProbe struct {
	db *bun.DB
}

func NewPoolProbe(db *bun.DB) *PoolProbe {
	return &PoolProbe{db: db}
}

func (p *PoolProbe) Name() string { return "database" }

func (p *PoolProbe) Check(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		stats := p.db.Stats()
		return fmt.Errorf("ping failed (open=%d in_use=%d): %w", stats.OpenConnections, stats.InUse, err)
	}
	return nil
}
