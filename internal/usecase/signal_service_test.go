package usecase

import (
	"context"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
	drepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/repository"
	"SignalDesk/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(store drepo.SignalStore, opts ...ServiceOption) (*SignalService, *countingMetrics) {
	m := newCountingMetrics()
	svc := NewSignalService(store, m, "memory", opts...)
	svc.newID = func() string { return "generated-id" }
	svc.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return svc, m
}

func TestCreateFillsIDAndTimestamp(t *testing.T) {
	svc, m := newTestService(repository.NewMemorySignalStore(0))

	res, err := svc.Create(context.Background(), &models.Signal{TokenSymbol: testutil.Ptr("WIF")})
	require.NoError(t, err)
	assert.Equal(t, CreateResult{ID: "generated-id", Total: 1}, res)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "generated-id", list[0].ID)
	assert.Equal(t, int64(1700000000123), list[0].Timestamp)
	assert.Equal(t, 1, m.ingested[""])
	assert.Equal(t, 1, m.size)
}

func TestCreateKeepsClientIDAndTimestamp(t *testing.T) {
	svc, m := newTestService(repository.NewMemorySignalStore(0))

	res, err := svc.Create(context.Background(), testutil.FullSignal("client-id", 42))
	require.NoError(t, err)
	assert.Equal(t, "client-id", res.ID)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), list[0].Timestamp)
	assert.Equal(t, 1, m.ingested["tracker"])
}

func TestCreateReturnsStoreErrorUnchanged(t *testing.T) {
	pub := &recordingPublisher{}
	bc := &recordingBroadcaster{}
	svc, m := newTestService(failingStore{err: errBoom}, WithPublisher(pub), WithBroadcaster(bc))

	_, err := svc.Create(context.Background(), &models.Signal{})
	assert.Same(t, errBoom, err)
	assert.Equal(t, 1, m.errs["store_append"])
	assert.Empty(t, pub.sent)
	assert.Empty(t, bc.seen)
}

func TestCreateDuplicate(t *testing.T) {
	svc, _ := newTestService(repository.NewMemorySignalStore(0))
	_, err := svc.Create(context.Background(), testutil.MinimalSignal("dup", 1))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), testutil.MinimalSignal("dup", 2))
	assert.ErrorIs(t, err, drepo.ErrDuplicateID)
}

func TestCreateFansOut(t *testing.T) {
	pub := &recordingPublisher{}
	bc := &recordingBroadcaster{}
	svc, _ := newTestService(repository.NewMemorySignalStore(0), WithPublisher(pub), WithBroadcaster(bc))

	_, err := svc.Create(context.Background(), testutil.MinimalSignal("a", 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, pub.sent)
	require.Len(t, bc.seen, 1)
	assert.Equal(t, "a", bc.seen[0].ID)
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errBoom}
	svc, m := newTestService(repository.NewMemorySignalStore(0), WithPublisher(pub))

	res, err := svc.Create(context.Background(), testutil.MinimalSignal("a", 1))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, m.errs["publish"])
}

func TestListLimitAndEmpty(t *testing.T) {
	svc, _ := newTestService(repository.NewMemorySignalStore(0), WithListLimit(2))

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	for _, id := range []string{"a", "b", "c"} {
		_, err := svc.Create(context.Background(), testutil.MinimalSignal(id, 1))
		require.NoError(t, err)
	}
	list, err = svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestListError(t *testing.T) {
	svc, m := newTestService(failingStore{err: errBoom})
	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, m.errs["store_list"])
	assert.ErrorIs(t, svc.Health(context.Background()), errBoom)
	assert.Equal(t, "memory", svc.Backend())
}
