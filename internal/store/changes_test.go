package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/dental-api/internal/model"
	"github.com/jwalitptl/dental-api/pkg/messaging"
	"github.com/jwalitptl/dental-api/pkg/metrics"
)

type recordingPublisher struct {
	channel  string
	messages []messaging.Message
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.channel = channel
	p.messages = append(p.messages, message.(messaging.Message))
	return nil
}

func TestPublishToForwardsChanges(t *testing.T) {
	m := metrics.NewNop()
	pub := &recordingPublisher{}
	s := newTestStore(t, newSnapshots(), emptySeed(),
		WithObserver(PublishTo(pub, "dental.changes", time.Second, zerolog.Nop(), m)))

	p, err := s.AddPatient(context.Background(), patientFields("Ann"))
	require.NoError(t, err)

	assert.Equal(t, "dental.changes", pub.channel)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, "patients.created", pub.messages[0].Type)
	assert.Equal(t, Change{Kind: ChangeCreated, Collection: model.CollectionPatients, ID: p.ID, At: testNow}, pub.messages[0].Payload)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("success")))
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	m := metrics.NewNop()
	pub := &recordingPublisher{err: errors.New("broker down")}
	s := newTestStore(t, newSnapshots(), emptySeed(),
		WithObserver(PublishTo(pub, "dental.changes", time.Second, zerolog.Nop(), m)))

	_, err := s.AddPatient(context.Background(), patientFields("Ann"))
	require.NoError(t, err)
	assert.Len(t, s.Patients(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("error")))
}

func TestKnownChangeType(t *testing.T) {
	for _, c := range []model.Collection{model.CollectionSession, model.CollectionPatients, model.CollectionAppointments} {
		for _, k := range []ChangeKind{ChangeCreated, ChangeUpdated, ChangeDeleted, ChangeReplaced} {
			assert.True(t, KnownChangeType(Change{Kind: k, Collection: c}.Type()), "%s.%s", c, k)
		}
	}
	assert.False(t, KnownChangeType("patients.exploded"))
	assert.False(t, KnownChangeType(""))
}
