package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/dental-api/internal/model"
	"github.com/jwalitptl/dental-api/internal/repository"
	"github.com/jwalitptl/dental-api/internal/repository/memory"
	"github.com/jwalitptl/dental-api/internal/store"
	"github.com/jwalitptl/dental-api/pkg/messaging"
	"github.com/jwalitptl/dental-api/pkg/metrics"
)

type staticExporter struct{ snap model.Snapshot }

func (e staticExporter) Export() model.Snapshot { return e.snap }

type brokenSaver struct{}

func (brokenSaver) Save(context.Context, string, interface{}) error { return errors.New("bucket gone") }

func TestBackupRunOnce(t *testing.T) {
	ctx := context.Background()
	target := repository.NewSnapshots(memory.NewStore(), "")
	source := staticExporter{snap: model.Snapshot{
		Session:      &model.Session{ID: 1, Email: "admin@dental.com", Role: model.RoleAdmin},
		Patients:     []model.Patient{{ID: 7, PatientFields: model.PatientFields{FullName: "Ada"}}},
		Appointments: []model.Appointment{},
	}}
	m := metrics.NewNop()

	w := NewBackupWorker(source, target, time.Minute, zerolog.Nop(), m)
	w.now = func() time.Time { return time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC) }

	key, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dentalBackup-20260304T093000Z", key)

	for _, k := range []string{key, KeyBackupLatest} {
		var got model.Snapshot
		found, err := target.Load(ctx, k, &got)
		require.NoError(t, err)
		require.True(t, found, k)
		assert.Nil(t, got.Session)
		require.Len(t, got.Patients, 1)
		assert.Equal(t, "Ada", got.Patients[0].FullName)
	}
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BackupRuns.WithLabelValues("success")))
}

func TestBackupRunOnceFailure(t *testing.T) {
	m := metrics.NewNop()
	w := NewBackupWorker(staticExporter{}, brokenSaver{}, 0, zerolog.Nop(), m)

	_, err := w.RunOnce(context.Background())
	assert.ErrorContains(t, err, "bucket gone")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BackupRuns.WithLabelValues("error")))
}

type chanBroker struct {
	ch  chan []byte
	err error
}

func (b *chanBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return b.ch, b.err
}

func TestChangeListenerRun(t *testing.T) {
	broker := &chanBroker{ch: make(chan []byte, 4)}
	m := metrics.NewNop()

	var mu sync.Mutex
	var got []Event
	l := NewChangeListener(broker, "dental.changes", func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
	}, zerolog.Nop(), m)

	change := store.Change{Kind: store.ChangeCreated, Collection: model.CollectionPatients, ID: 42, At: time.Now().UTC()}
	payload, err := json.Marshal(messaging.Message{Type: "patients.created", Payload: change})
	require.NoError(t, err)

	broker.ch <- payload
	broker.ch <- []byte("{not json")
	close(broker.ch)

	require.NoError(t, l.Run(context.Background()))

	require.Len(t, got, 1)
	assert.Equal(t, "patients.created", got[0].Type)
	assert.Equal(t, int64(42), got[0].Payload.ID)
	assert.Equal(t, store.ChangeCreated, got[0].Payload.Kind)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsConsumed.WithLabelValues("patients.created", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsConsumed.WithLabelValues("unknown", "error")))
}

func TestChangeListenerFoldsUnknownTypes(t *testing.T) {
	broker := &chanBroker{ch: make(chan []byte, 4)}
	m := metrics.NewNop()
	l := NewChangeListener(broker, "dental.changes", nil, zerolog.Nop(), m)

	for i := 0; i < 3; i++ {
		payload, err := json.Marshal(messaging.Message{Type: "spam-" + strconv.Itoa(i), Payload: store.Change{}})
		require.NoError(t, err)
		broker.ch <- payload
	}
	close(broker.ch)

	require.NoError(t, l.Run(context.Background()))

	assert.Equal(t, float64(3), testutil.ToFloat64(m.EventsConsumed.WithLabelValues("unknown", "success")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.EventsConsumed))
}

func TestChangeListenerStopsOnCancel(t *testing.T) {
	broker := &chanBroker{ch: make(chan []byte)}
	l := NewChangeListener(broker, "dental.changes", nil, zerolog.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestChangeListenerSubscribeError(t *testing.T) {
	l := NewChangeListener(&chanBroker{err: errors.New("refused")}, "c", nil, zerolog.Nop(), nil)
	assert.ErrorContains(t, l.Run(context.Background()), "refused")
}
