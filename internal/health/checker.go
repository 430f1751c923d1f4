package health

import (
	"context"
	"fmt"
	"time"

	"academic-assist/internal/metrics"
	"academic-assist/internal/upload"
)

// Pinger is satisfied by *bun.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// probeName never exists; asking for it exercises the storage round trip.
const probeName = ".readiness-probe"

type Checker struct {
	db      Pinger
	store   upload.Store
	metrics *metrics.HealthMetrics
	timeout time.Duration
}

func NewChecker(db Pinger, store upload.Store, m *metrics.HealthMetrics) *Checker {
	return &Checker{
		db:      db,
		store:   store,
		metrics: m,
		timeout: 2 * time.Second,
	}
}

// Check probes every dependency and returns the failures by name.
func (c *Checker) Check(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	failures := make(map[string]error)
	c.probe(ctx, metrics.DependencyDatabase, failures, func(ctx context.Context) error {
		return c.db.PingContext(ctx)
	})
	c.probe(ctx, metrics.DependencyStorage, failures, func(ctx context.Context) error {
		_, err := c.store.Exists(ctx, upload.DirPayments, probeName)
		return err
	})
	return failures
}

func (c *Checker) probe(ctx context.Context, name string, failures map[string]error, fn func(context.Context) error) {
	start := time.Now()
	err := fn(ctx)
	c.metrics.RecordCheck(ctx, name, time.Since(start), err)
	if err != nil {
		failures[name] = fmt.Errorf("%s: %w", name, err)
	}
}
