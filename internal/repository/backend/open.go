// Package backend picks and assembles the persistence backend named in config.
package backend

import (
	"context"
	"fmt"

	"github.com/jwalitptl/dental-api/internal/config"
	"github.com/jwalitptl/dental-api/internal/repository"
	"github.com/jwalitptl/dental-api/internal/repository/file"
	"github.com/jwalitptl/dental-api/internal/repository/memory"
	"github.com/jwalitptl/dental-api/internal/repository/postgres"
	"github.com/jwalitptl/dental-api/internal/repository/redis"
	"github.com/jwalitptl/dental-api/internal/repository/s3"
	"github.com/jwalitptl/dental-api/internal/repository/sqlite"
	"github.com/jwalitptl/dental-api/pkg/circuitbreaker"
	"github.com/jwalitptl/dental-api/pkg/metrics"
)

// remote drivers talk to another process and get a circuit breaker.
var remote = map[string]bool{"postgres": true, "redis": true, "s3": true}

// Open connects the configured driver and wraps it with metrics and, for
// remote drivers, a circuit breaker.
func Open(ctx context.Context, cfg config.StorageConfig, m *metrics.Metrics) (repository.KeyValueRepository, error) {
	repo, err := open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if remote[cfg.Driver] {
		repo = repository.NewGuarded(repo, circuitbreaker.Settings{
			Name:        cfg.Driver,
			MaxFailures: cfg.Breaker.MaxFailures,
			Timeout:     cfg.Breaker.Timeout(),
		})
	}
	if m != nil {
		repo = repository.NewInstrumented(repo, m)
	}
	return repo, nil
}

func open(ctx context.Context, cfg config.StorageConfig) (repository.KeyValueRepository, error) {
	switch cfg.Driver {
	case "memory":
		return memory.NewStore(), nil
	case "file":
		return file.NewStore(cfg.File.Dir)
	case "sqlite":
		return sqlite.NewStore(cfg.SQLite.Path)
	case "postgres":
		db, err := postgres.NewDB(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		repo, err := postgres.NewStateRepository(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return repo, nil
	case "redis":
		return redis.NewStore(ctx, redis.Config{
			URL:        cfg.Redis.URL,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
		})
	case "s3":
		return s3.New(ctx, s3.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
