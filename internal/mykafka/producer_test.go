package mykafka

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestProducer_PublishEvent(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := &Producer{writer: w}

	err := p.PublishEvent(context.Background(), TopicPurchaseEvents, "7", map[string]any{"type": "purchase_completed", "user_id": 7})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, TopicPurchaseEvents, msg.Topic)
	assert.Equal(t, []byte("7"), msg.Key)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "purchase_completed", body["type"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishEvent_Errors(t *testing.T) {
	t.Parallel()

	p := &Producer{writer: &fakeWriter{err: errors.New("broker down")}}
	err := p.PublishEvent(context.Background(), TopicUserEvents, "1", map[string]any{})
	assert.ErrorContains(t, err, "broker down")

	err = p.PublishEvent(context.Background(), TopicUserEvents, "1", make(chan int))
	assert.ErrorContains(t, err, "json.Marshal")
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	t.Parallel()

	_, err := NewProducer(nil)
	assert.Error(t, err)

	p, err := NewProducer([]string{"localhost:9092"})
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestPublish_LogsFailures(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))
	p := &Producer{writer: &fakeWriter{err: errors.New("broker down")}}

	Publish(context.Background(), p, l, TopicUserEvents, "1", map[string]any{"type": "user_registered"})
	assert.Contains(t, buf.String(), "kafka_publish_failed")

	buf.Reset()
	Publish(context.Background(), Discard{}, l, TopicUserEvents, "1", nil)
	Publish(context.Background(), nil, l, TopicUserEvents, "1", nil)
	assert.Empty(t, buf.String())
}
