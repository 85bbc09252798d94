package usecase

import (
	"context"
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
	drepo "SignalDesk/internal/domain/repository"
	applogger "SignalDesk/pkg/logger"

	"github.com/google/uuid"
)

// DefaultListLimit is how many records List returns when no limit is configured.
const DefaultListLimit = 100

// CreateResult is returned by a successful Create.
type CreateResult struct {
	ID    string
	Total int
}

// SignalService is the ingestion sink: it accepts any well-formed record, stamps identity and
// time when missing, and fans the stored record out. It never validates field ranges.
type SignalService struct {
	store     drepo.SignalStore
	metrics   drepo.Metrics
	backend   string
	pub       drepo.Publisher
	bc        drepo.Broadcaster
	listLimit int
	l         *applogger.Logger

	newID func() string
	now   func() time.Time
}

// ServiceOption configures SignalService.
type ServiceOption func(*SignalService)

// WithPublisher announces created signals, e.g. on Kafka.
func WithPublisher(p drepo.Publisher) ServiceOption {
	return func(s *SignalService) { s.pub = p }
}

// WithBroadcaster pushes created signals to live subscribers.
func WithBroadcaster(b drepo.Broadcaster) ServiceOption {
	return func(s *SignalService) { s.bc = b }
}

// WithListLimit bounds List.
func WithListLimit(n int) ServiceOption {
	return func(s *SignalService) {
		if n > 0 {
			s.listLimit = n
		}
	}
}

func NewSignalService(store drepo.SignalStore, metrics drepo.Metrics, backend string, opts ...ServiceOption) *SignalService {
	s := &SignalService{
		store:     store,
		metrics:   metrics,
		backend:   backend,
		listLimit: DefaultListLimit,
		l:         applogger.NewNop(),
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetLogger injects a structured logger.
func (s *SignalService) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

// Create stores sig after filling a generated id and the current time where absent.
// A store error is returned as is so its message can reach the client unchanged.
func (s *SignalService) Create(ctx context.Context, sig *models.Signal) (CreateResult, error) {
	if sig == nil {
		return CreateResult{}, fmt.Errorf("create: nil signal")
	}
	if sig.ID == "" {
		sig.ID = s.newID()
	}
	if sig.Timestamp == 0 {
		sig.Timestamp = s.now().UnixMilli()
	}

	start := time.Now()
	total, err := s.store.Append(ctx, sig)
	s.metrics.RecordLatency("store_append", time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordError("store_append")
		return CreateResult{}, err
	}

	source := ""
	if sig.Source != nil {
		source = *sig.Source
	}
	s.metrics.RecordSignalIngested(source)
	s.metrics.RecordStoreSize(s.backend, total)

	if s.bc != nil {
		s.bc.Broadcast(sig)
	}
	if s.pub != nil {
		if err := s.pub.Publish(ctx, sig); err != nil {
			// the record is stored; a lost announcement is not a failed create
			s.metrics.RecordError("publish")
			s.l.Warn("publish signal failed", applogger.String("id", sig.ID), applogger.Error(err))
		}
	}

	s.l.Debug("signal stored",
		applogger.String("id", sig.ID),
		applogger.String("source", source),
		applogger.Int("total", total),
	)
	return CreateResult{ID: sig.ID, Total: total}, nil
}

// List returns up to the configured limit of records, newest first. Never nil.
func (s *SignalService) List(ctx context.Context) ([]*models.Signal, error) {
	start := time.Now()
	out, err := s.store.List(ctx, s.listLimit)
	s.metrics.RecordLatency("store_list", time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordError("store_list")
		return nil, err
	}
	if out == nil {
		out = []*models.Signal{}
	}
	return out, nil
}

// Health reports whether the store is reachable.
func (s *SignalService) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

// Backend names the configured store.
func (s *SignalService) Backend() string { return s.backend }
