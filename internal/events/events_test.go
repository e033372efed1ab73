package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	topic, key string
	event      any
	err        error
}

func (r *recordingProducer) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.topic, r.key, r.event = topic, key, event
	return r.err
}

func TestKafka_KeysByPhone(t *testing.T) {
	rp := &recordingProducer{}
	k := &Kafka{p: rp}

	ev := New(TypeCartItemAdded, "0912345678", map[string]any{"key": "SP1-Hộp"})
	require.NoError(t, k.Publish(context.Background(), TopicCart, ev))

	assert.Equal(t, TopicCart, rp.topic)
	assert.Equal(t, "0912345678", rp.key)
	assert.Equal(t, ev, rp.event)
}

func TestKafka_FallsBackToEventID(t *testing.T) {
	rp := &recordingProducer{}
	ev := New(TypePaymentVerified, "", nil)
	require.NoError(t, (&Kafka{p: rp}).Publish(context.Background(), TopicOrder, ev))
	assert.Equal(t, ev.ID, rp.key)
	assert.NotEmpty(t, ev.ID)
}

func TestEmit_SwallowsErrors(t *testing.T) {
	rp := &recordingProducer{err: errors.New("broker down")}
	assert.NotPanics(t, func() {
		Emit(context.Background(), &Kafka{p: rp}, TopicCart, New(TypeCartCleared, "", nil))
		Emit(context.Background(), nil, TopicCart, New(TypeCartCleared, "", nil))
		Emit(context.Background(), Noop{}, TopicCart, New(TypeCartCleared, "", nil))
	})
	assert.Equal(t, TopicCart, rp.topic)
}
