package usecase

import (
	"context"
	"sync"
	"time"

	"SignalDesk/internal/service/jupiter"
)

const (
	DefaultQuoteDebounce = 500 * time.Millisecond
	// MaxSolAmount bounds a single quick-buy.
	MaxSolAmount = 100.0
)

// SlippagePresets are the percentages offered by quick-buy.
var SlippagePresets = []float64{0.5, 1, 3}

// Quoter prices a purchase.
type Quoter interface {
	Quote(ctx context.Context, p jupiter.QuoteParams) (*jupiter.Quote, error)
}

// QuoteResult is the outcome of the latest settled input.
type QuoteResult struct {
	Params jupiter.QuoteParams
	Quote  *jupiter.Quote
	Err    error
}

// QuoteDebouncer re-quotes after the input has been stable for the quiet period. Each new
// input cancels the pending timer and the in-flight request, and only the newest input ever
// produces a result.
type QuoteDebouncer struct {
	quoter  Quoter
	delay   time.Duration
	timeout time.Duration

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
	closed  bool
	results chan QuoteResult
}

// DebounceOption configures QuoteDebouncer.
type DebounceOption func(*QuoteDebouncer)

func WithDebounceDelay(d time.Duration) DebounceOption {
	return func(q *QuoteDebouncer) {
		if d > 0 {
			q.delay = d
		}
	}
}

// WithQuoteTimeout bounds each upstream call.
func WithQuoteTimeout(d time.Duration) DebounceOption {
	return func(q *QuoteDebouncer) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQuoteDebouncer(quoter Quoter, opts ...DebounceOption) *QuoteDebouncer {
	d := &QuoteDebouncer{
		quoter:  quoter,
		delay:   DefaultQuoteDebounce,
		timeout: 10 * time.Second,
		results: make(chan QuoteResult, 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Results delivers at most one pending result; an unread result is replaced by a newer one.
// The channel is closed by Close.
func (d *QuoteDebouncer) Results() <-chan QuoteResult { return d.results }

// QuotableInput reports whether p can be priced at all.
func QuotableInput(p jupiter.QuoteParams) bool {
	return p.OutputMint != "" && p.SolAmount > 0 && p.SolAmount <= MaxSolAmount
}

// Request supersedes any earlier input. An input that cannot be priced only clears the
// pending work and returns false.
func (d *QuoteDebouncer) Request(p jupiter.QuoteParams) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.gen++
	d.stopLocked()
	if !QuotableInput(p) {
		return false
	}
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.run(gen, p) })
	return true
}

// Cancel drops pending and in-flight work without closing.
func (d *QuoteDebouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.stopLocked()
}

func (d *QuoteDebouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *QuoteDebouncer) run(gen uint64, p jupiter.QuoteParams) {
	d.mu.Lock()
	if gen != d.gen || d.closed {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	d.cancel = cancel
	d.mu.Unlock()

	q, err := d.quoter.Quote(ctx, p)
	cancel()

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen || d.closed {
		return
	}
	d.cancel = nil
	select {
	case <-d.results:
	default:
	}
	d.results <- QuoteResult{Params: p, Quote: q, Err: err}
}

// Close stops all work and closes Results.
func (d *QuoteDebouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.gen++
	d.stopLocked()
	close(d.results)
}
