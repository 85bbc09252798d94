package usecase

import (
	"context"
	"errors"
	"sync"

	"SignalDesk/internal/domain/models"
)

type failingStore struct{ err error }

func (s failingStore) Append(context.Context, *models.Signal) (int, error) { return 0, s.err }
func (s failingStore) List(context.Context, int) ([]*models.Signal, error) { return nil, s.err }
func (s failingStore) Health(context.Context) error                        { return s.err }
func (s failingStore) Close() error                                        { return nil }

type recordingPublisher struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, s *models.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, s.ID)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type recordingBroadcaster struct {
	mu   sync.Mutex
	seen []*models.Signal
}

func (b *recordingBroadcaster) Broadcast(s *models.Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seen = append(b.seen, s)
}

type countingMetrics struct {
	mu       sync.Mutex
	ingested map[string]int
	errs     map[string]int
	size     int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{ingested: map[string]int{}, errs: map[string]int{}}
}

func (m *countingMetrics) RecordSignalIngested(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingested[source]++
}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[kind]++
}

func (m *countingMetrics) RecordStoreSize(_ string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.size = n
}

func (m *countingMetrics) RecordLatency(string, float64) {}

var errBoom = errors.New("connection refused")
