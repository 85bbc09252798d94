package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/testutil"
	pkgkafka "SignalDesk/pkg/kafka"
)

type capturedBatch struct {
	topic string
	msgs  []pkgkafka.Message
}

type captureProducer struct {
	batches []capturedBatch
	closed  bool
}

func (p *captureProducer) PublishBatch(_ context.Context, topic string, msgs []pkgkafka.Message) error {
	p.batches = append(p.batches, capturedBatch{topic: topic, msgs: msgs})
	return nil
}

func (p *captureProducer) Close() error { p.closed = true; return nil }

func TestKafkaPublisherKeysBySignalID(t *testing.T) {
	p := &captureProducer{}
	pub := NewKafkaPublisher(p, "signals.created")

	sig := testutil.FullSignal("abc", 1)
	require.NoError(t, pub.Publish(context.Background(), sig))
	require.Len(t, p.batches, 1)
	assert.Equal(t, "signals.created", p.batches[0].topic)

	m := p.batches[0].msgs[0]
	assert.Equal(t, []byte("abc"), m.Key)
	assert.Same(t, sig, m.Value)
	assert.Equal(t, *sig.Source, m.Headers["source"])

	assert.Error(t, pub.Publish(context.Background(), nil))
	require.NoError(t, pub.Close())
	assert.True(t, p.closed)
}
