package usecase

import (
	"context"
	"testing"

	"SignalDesk/internal/repository"
	pkgkafka "SignalDesk/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestHandlerStores(t *testing.T) {
	store := repository.NewMemorySignalStore(0)
	svc, m := newTestService(store)
	h := NewSignalIngestHandler("signals.ingest", svc, m)
	assert.Equal(t, "signals.ingest", h.Topic())

	require.NoError(t, h.Handle(context.Background(), []byte(`{"id":"k1","tokenSymbol":"POPCAT","age":15,"custom":"x"}`)))

	list, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "k1", list[0].ID)
	assert.Equal(t, "15", string(*list[0].Age))
	assert.JSONEq(t, `"x"`, string(list[0].Extra["custom"]))
}

func TestIngestHandlerMalformedIsPermanent(t *testing.T) {
	svc, m := newTestService(repository.NewMemorySignalStore(0))
	h := NewSignalIngestHandler("signals.ingest", svc, m)

	for _, body := range []string{`{`, `[1,2]`, `null`, `"text"`} {
		err := h.Handle(context.Background(), []byte(body))
		require.Error(t, err, body)
		assert.True(t, pkgkafka.IsPermanent(err), body)
	}
	assert.Equal(t, 4, m.errs["consumer_decode"])
}

func TestIngestHandlerDuplicateIsHandled(t *testing.T) {
	svc, m := newTestService(repository.NewMemorySignalStore(0))
	h := NewSignalIngestHandler("signals.ingest", svc, m)

	require.NoError(t, h.Handle(context.Background(), []byte(`{"id":"same"}`)))
	assert.NoError(t, h.Handle(context.Background(), []byte(`{"id":"same"}`)))
}

func TestIngestHandlerStoreErrorIsRetryable(t *testing.T) {
	svc, m := newTestService(failingStore{err: errBoom})
	h := NewSignalIngestHandler("signals.ingest", svc, m)

	err := h.Handle(context.Background(), []byte(`{"id":"x"}`))
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, pkgkafka.IsPermanent(err))
}
