package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/dental-api/internal/model"
	"github.com/jwalitptl/dental-api/pkg/metrics"
)

// KeyBackupLatest always holds the most recent backup. Each run also writes
// a timestamped copy next to it.
const KeyBackupLatest = "dentalBackup"

type Exporter interface {
	Export() model.Snapshot
}

type Saver interface {
	Save(ctx context.Context, key string, value interface{}) error
}

type BackupWorker struct {
	source   Exporter
	target   Saver
	interval time.Duration
	now      func() time.Time
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

func NewBackupWorker(source Exporter, target Saver, interval time.Duration, logger zerolog.Logger, m *metrics.Metrics) *BackupWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &BackupWorker{
		source:   source,
		target:   target,
		interval: interval,
		now:      time.Now,
		logger:   logger.With().Str("worker", "backup").Logger(),
		metrics:  m,
	}
}

// BackupKey names the timestamped copy written at t.
func BackupKey(t time.Time) string {
	return fmt.Sprintf("%s-%s", KeyBackupLatest, t.UTC().Format("20060102T150405Z"))
}

func (w *BackupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.interval).Msg("backup worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("backup worker shutting down")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error().Err(err).Msg("backup failed")
			}
		}
	}
}

// RunOnce writes one backup and returns its timestamped key.
func (w *BackupWorker) RunOnce(ctx context.Context) (string, error) {
	snap := w.source.Export()
	// the live session is not part of a backup
	snap.Session = nil

	key := BackupKey(w.now())
	for _, k := range []string{key, KeyBackupLatest} {
		if err := w.target.Save(ctx, k, snap); err != nil {
			w.metrics.BackupRuns.WithLabelValues("error").Inc()
			return "", fmt.Errorf("failed to write backup %s: %w", k, err)
		}
	}
	w.metrics.BackupRuns.WithLabelValues("success").Inc()
	w.logger.Info().
		Str("key", key).
		Int("patients", len(snap.Patients)).
		Int("appointments", len(snap.Appointments)).
		Msg("backup written")
	return key, nil
}
