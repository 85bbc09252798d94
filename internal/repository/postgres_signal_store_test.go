package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"SignalDesk/internal/domain/repository"
	"SignalDesk/internal/testutil"
	pkgpg "SignalDesk/pkg/postgres"
)

func setupPostgresStore(t *testing.T) *PostgresSignalStore {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("signaldesk"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := pkgpg.NewClient(ctx, pkgpg.WithDSN(dsn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s := NewPostgresSignalStore(client)
	require.NoError(t, s.Init(ctx))
	return s
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	s := setupPostgresStore(t)
	ctx := context.Background()

	full := testutil.FullSignal("full", 2000)
	n, err := s.Append(ctx, full)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Append(ctx, testutil.MinimalSignal("min", 1000))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	want, _ := json.Marshal(full)
	have, _ := json.Marshal(got[0])
	assert.JSONEq(t, string(want), string(have))
	assert.Equal(t, testutil.MinimalSignal("min", 1000), got[1])
	assert.NoError(t, s.Health(ctx))
}

func TestPostgresStoreRejectsDuplicate(t *testing.T) {
	s := setupPostgresStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, testutil.MinimalSignal("dup", 1))
	require.NoError(t, err)
	_, err = s.Append(ctx, testutil.MinimalSignal("dup", 2))
	assert.ErrorIs(t, err, repository.ErrDuplicateID)
}

func TestPostgresStoreListLimit(t *testing.T) {
	s := setupPostgresStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.Append(ctx, testutil.MinimalSignal(fmt.Sprintf("s%d", i), int64(i)))
		require.NoError(t, err)
	}
	got, err := s.List(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"s4", "s3", "s2"}, ids(got))
}
