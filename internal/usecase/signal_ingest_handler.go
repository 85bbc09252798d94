package usecase

import (
	"context"
	"errors"
	"fmt"

	"SignalDesk/internal/domain/models"
	drepo "SignalDesk/internal/domain/repository"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
)

// SignalIngestHandler feeds signals published by upstream trackers on Kafka through the same
// Create path as POST /signals.
type SignalIngestHandler struct {
	topic   string
	svc     *SignalService
	metrics drepo.Metrics
	l       *applogger.Logger
}

func NewSignalIngestHandler(topic string, svc *SignalService, metrics drepo.Metrics) *SignalIngestHandler {
	return &SignalIngestHandler{topic: topic, svc: svc, metrics: metrics, l: applogger.NewNop()}
}

// SetLogger injects a structured logger.
func (h *SignalIngestHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *SignalIngestHandler) Topic() string { return h.topic }

// Handle stores one message. Undecodable payloads are permanent failures, a redelivered id counts
// as handled, and store errors are returned for retry.
func (h *SignalIngestHandler) Handle(ctx context.Context, b []byte) error {
	sig, err := models.DecodeSignal(b)
	if err != nil {
		h.metrics.RecordError("consumer_decode")
		return pkgkafka.Permanent(fmt.Errorf("decode signal: %w", err))
	}

	res, err := h.svc.Create(ctx, sig)
	if err != nil {
		if errors.Is(err, drepo.ErrDuplicateID) {
			h.l.Debug("duplicate signal skipped", applogger.String("id", sig.ID), applogger.String("trace_id", pkgkafka.TraceIDFrom(ctx)))
			return nil
		}
		return err
	}
	h.l.Debug("signal ingested from kafka",
		applogger.String("id", res.ID),
		applogger.String("trace_id", pkgkafka.TraceIDFrom(ctx)),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*SignalIngestHandler)(nil)
