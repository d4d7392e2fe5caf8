package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisherPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, logger: zerolog.Nop()}

	err := p.Publish(context.Background(), SocietyApproved, 42, map[string]string{"name": "Chess Club"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, SocietyApproved, string(msg.Headers[0].Value))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, SocietyApproved, env.Name)
	assert.Equal(t, int64(42), env.Key)
	assert.False(t, env.OccurredAt.IsZero())
}

func TestKafkaPublisherWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := &KafkaPublisher{writer: w, logger: zerolog.Nop()}

	err := p.Publish(context.Background(), PaymentPaid, 1, nil)
	assert.Error(t, err)
}

func TestLoggingPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLoggingPublisher(zerolog.New(&buf))

	require.NoError(t, p.Publish(context.Background(), NewsPublished, 3, map[string]int{"newsId": 9}))
	assert.Contains(t, buf.String(), `"event":"news.published"`)
	assert.Contains(t, buf.String(), `"newsId":9`)
}
