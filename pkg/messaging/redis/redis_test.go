package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/dental-api/pkg/circuitbreaker"
	"github.com/jwalitptl/dental-api/pkg/messaging"
)

type fakeClient struct {
	published map[string][][]byte
	err       error
	closed    bool
}

func (f *fakeClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	if f.published == nil {
		f.published = map[string][][]byte{}
	}
	f.published[channel] = append(f.published[channel], message.([]byte))
	return redis.NewIntResult(1, nil)
}

func (f *fakeClient) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	panic("not used")
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestPublishEncodesJSON(t *testing.T) {
	client := &fakeClient{}
	broker := NewWithClient(client, zerolog.Nop())

	err := broker.Publish(context.Background(), "dental.changes", messaging.Message{Type: "created", Payload: map[string]int{"id": 7}})
	require.NoError(t, err)

	require.Len(t, client.published["dental.changes"], 1)
	var got messaging.Message
	require.NoError(t, json.Unmarshal(client.published["dental.changes"][0], &got))
	assert.Equal(t, "created", got.Type)

	require.NoError(t, broker.Close())
	assert.True(t, client.closed)
}

func TestPublishOpensBreakerAfterRepeatedFailures(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	broker := NewWithClient(client, zerolog.Nop())

	for i := 0; i < 5; i++ {
		assert.Error(t, broker.Publish(context.Background(), "c", "x"))
	}
	err := broker.Publish(context.Background(), "c", "x")
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
}

func TestNewRedisBrokerRejectsBadURL(t *testing.T) {
	_, err := NewRedisBroker(context.Background(), Config{URL: "://nope"}, zerolog.Nop())
	assert.Error(t, err)
}
