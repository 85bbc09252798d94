package repository

import (
	"context"

	"SignalDesk/internal/domain/models"
)

// SignalStore holds signal records newest-first. Records are immutable once appended.
type SignalStore interface {
	// Append inserts s at the head and returns the number of records held afterwards.
	Append(ctx context.Context, s *models.Signal) (int, error)
	// List returns at most limit records, newest first. An empty store yields an empty slice.
	List(ctx context.Context, limit int) ([]*models.Signal, error)
	Health(ctx context.Context) error
	Close() error
}

// Publisher fans a created signal out to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, s *models.Signal) error
	Close() error
}

// Broadcaster pushes a created signal to live subscribers. It must not block.
type Broadcaster interface {
	Broadcast(s *models.Signal)
}

type Metrics interface {
	RecordSignalIngested(source string)
	RecordError(kind string)
	RecordStoreSize(backend string, n int)
	RecordLatency(op string, seconds float64)
}
