package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerEncodesValues(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "gzip")

	require.NoError(t, p.Publish(context.Background(), "signals.created", []byte("id-1"), map[string]any{"id": "id-1"}))
	require.NoError(t, p.PublishMessage(context.Background(), "signaldesk.logs", "raw"))
	require.NoError(t, p.PublishBatch(context.Background(), "signals.created", []Message{
		{Key: []byte("a"), Value: []byte(`{"id":"a"}`), Headers: map[string]string{"trace_id": "t-1"}},
	}))

	msgs := w.written()
	require.Len(t, msgs, 3)
	assert.Equal(t, "signals.created", msgs[0].Topic)
	assert.JSONEq(t, `{"id":"id-1"}`, string(msgs[0].Value))
	assert.Equal(t, "raw", string(msgs[1].Value))
	assert.Nil(t, msgs[1].Key)
	assert.Equal(t, "t-1", ExtractTraceID(msgs[2]))
}

func TestProducerWrapsWriteErrors(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&fakeWriter{err: boom}, "gzip")
	err := p.Publish(context.Background(), "x", nil, "v")
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, p.PublishBatch(context.Background(), "x", nil))
}

func TestProducerRejectsUnencodableValues(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{}, "gzip")
	err := p.Publish(context.Background(), "x", nil, make(chan int))
	var ue *json.UnsupportedTypeError
	assert.ErrorAs(t, err, &ue)
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
	_, err = NewConsumer()
	assert.Error(t, err)
}
