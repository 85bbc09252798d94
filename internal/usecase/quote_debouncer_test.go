package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"SignalDesk/internal/service/jupiter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

type fakeQuoter struct {
	mu    sync.Mutex
	calls []jupiter.QuoteParams
	block chan struct{}
	err   error
}

func (f *fakeQuoter) Quote(ctx context.Context, p jupiter.QuoteParams) (*jupiter.Quote, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &jupiter.Quote{OutputMint: p.OutputMint, InAmount: "x"}, nil
}

func (f *fakeQuoter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitResult(t *testing.T, d *QuoteDebouncer) QuoteResult {
	t.Helper()
	select {
	case r := <-d.Results():
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no quote result")
	}
	return QuoteResult{}
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	q := &fakeQuoter{}
	d := NewQuoteDebouncer(q, WithDebounceDelay(40*time.Millisecond))
	defer d.Close()

	for _, amt := range []float64{0.1, 0.2, 0.3, 0.5} {
		require.True(t, d.Request(jupiter.QuoteParams{OutputMint: mint, SolAmount: amt, Slippage: 1}))
		time.Sleep(5 * time.Millisecond)
	}

	r := waitResult(t, d)
	require.NoError(t, r.Err)
	assert.Equal(t, 0.5, r.Params.SolAmount)
	assert.Equal(t, 1, q.callCount())
}

func TestDebouncerDropsStaleInFlight(t *testing.T) {
	q := &fakeQuoter{block: make(chan struct{})}
	d := NewQuoteDebouncer(q, WithDebounceDelay(10*time.Millisecond))
	defer d.Close()

	d.Request(jupiter.QuoteParams{OutputMint: mint, SolAmount: 1})
	require.Eventually(t, func() bool { return q.callCount() == 1 }, time.Second, 2*time.Millisecond)

	// the first request is now in flight; a new input cancels it
	q.mu.Lock()
	q.block = nil
	q.mu.Unlock()
	d.Request(jupiter.QuoteParams{OutputMint: mint, SolAmount: 2})

	r := waitResult(t, d)
	require.NoError(t, r.Err)
	assert.Equal(t, 2.0, r.Params.SolAmount)

	select {
	case r := <-d.Results():
		t.Fatalf("unexpected extra result %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDebouncerRejectsUnquotableInput(t *testing.T) {
	q := &fakeQuoter{}
	d := NewQuoteDebouncer(q, WithDebounceDelay(10*time.Millisecond))
	defer d.Close()

	require.True(t, d.Request(jupiter.QuoteParams{OutputMint: mint, SolAmount: 1}))
	assert.False(t, d.Request(jupiter.QuoteParams{OutputMint: mint, SolAmount: 0}))
	assert.False(t, d.Request(jupiter.QuoteParams{OutputMint: mint, SolAmount: 100.5}))
	assert.False(t, d.Request(jupiter.QuoteParams{SolAmount: 1}))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, q.callCount())
}

func TestDebouncerReportsErrors(t *testing.T) {
	q := &fakeQuoter{err: &jupiter.UpstreamError{Op: "Quote", Status: 429}}
	d := NewQuoteDebouncer(q, WithDebounceDelay(5*time.Millisecond))
	defer d.Close()

	d.Request(jupiter.QuoteParams{OutputMint: mint, SolAmount: 1})
	r := waitResult(t, d)
	assert.EqualError(t, r.Err, "Quote API error: 429")
	assert.Nil(t, r.Quote)
}

func TestDebouncerCancelAndClose(t *testing.T) {
	q := &fakeQuoter{}
	d := NewQuoteDebouncer(q, WithDebounceDelay(20*time.Millisecond))

	d.Request(jupiter.QuoteParams{OutputMint: mint, SolAmount: 1})
	d.Cancel()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, q.callCount())

	d.Close()
	d.Close()
	_, ok := <-d.Results()
	assert.False(t, ok)
	assert.False(t, d.Request(jupiter.QuoteParams{OutputMint: mint, SolAmount: 1}))
}

func TestQuotableInput(t *testing.T) {
	assert.True(t, QuotableInput(jupiter.QuoteParams{OutputMint: mint, SolAmount: MaxSolAmount}))
	assert.False(t, QuotableInput(jupiter.QuoteParams{OutputMint: mint, SolAmount: -1}))
	assert.Equal(t, []float64{0.5, 1, 3}, SlippagePresets)
}
