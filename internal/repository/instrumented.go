package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/dental-api/pkg/circuitbreaker"
	"github.com/jwalitptl/dental-api/pkg/metrics"
)

// Instrumented records latency and outcome of every backend call.
type Instrumented struct {
	KeyValueRepository
	driver  string
	metrics *metrics.Metrics
}

func NewInstrumented(repo KeyValueRepository, m *metrics.Metrics) *Instrumented {
	return &Instrumented{KeyValueRepository: repo, driver: DriverName(repo), metrics: m}
}

func (r *Instrumented) observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil && !errors.Is(err, ErrNotFound) {
		status = "error"
	}
	r.metrics.StorageOperations.WithLabelValues(r.driver, op, status).Inc()
	r.metrics.StorageLatency.WithLabelValues(r.driver, op).Observe(time.Since(start).Seconds())
}

func (r *Instrumented) Load(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	payload, err := r.KeyValueRepository.Load(ctx, key)
	r.observe("load", start, err)
	return payload, err
}

func (r *Instrumented) Save(ctx context.Context, key string, payload []byte) error {
	start := time.Now()
	err := r.KeyValueRepository.Save(ctx, key, payload)
	r.observe("save", start, err)
	return err
}

func (r *Instrumented) Remove(ctx context.Context, key string) error {
	start := time.Now()
	err := r.KeyValueRepository.Remove(ctx, key)
	r.observe("remove", start, err)
	return err
}

func (r *Instrumented) Ping(ctx context.Context) error { return Ping(ctx, r.KeyValueRepository) }

func (r *Instrumented) Driver() string { return r.driver }

// Guarded trips a circuit breaker when a remote backend keeps failing.
type Guarded struct {
	KeyValueRepository
	cb *circuitbreaker.CircuitBreaker
}

func NewGuarded(repo KeyValueRepository, settings circuitbreaker.Settings) *Guarded {
	if settings.Name == "" {
		settings.Name = DriverName(repo)
	}
	if settings.IsFailure == nil {
		settings.IsFailure = func(err error) bool {
			return !errors.Is(err, ErrNotFound) && !errors.Is(err, context.Canceled)
		}
	}
	return &Guarded{KeyValueRepository: repo, cb: circuitbreaker.NewCircuitBreaker(settings)}
}

func (r *Guarded) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.cb.Execute(func() error {
		var err error
		payload, err = r.KeyValueRepository.Load(ctx, key)
		return err
	})
	return payload, err
}

func (r *Guarded) Save(ctx context.Context, key string, payload []byte) error {
	return r.cb.Execute(func() error {
		return r.KeyValueRepository.Save(ctx, key, payload)
	})
}

func (r *Guarded) Remove(ctx context.Context, key string) error {
	return r.cb.Execute(func() error {
		return r.KeyValueRepository.Remove(ctx, key)
	})
}

func (r *Guarded) Ping(ctx context.Context) error {
	return r.cb.Execute(func() error {
		return Ping(ctx, r.KeyValueRepository)
	})
}

func (r *Guarded) Driver() string { return DriverName(r.KeyValueRepository) }

func (r *Guarded) State() circuitbreaker.State { return r.cb.State() }
