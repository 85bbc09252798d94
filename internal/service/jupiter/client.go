// Package jupiter talks to the Jupiter v6 swap aggregator: priced quotes for SOL -> token and
// unsigned swap transactions built from them.
package jupiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	drepo "SignalDesk/internal/domain/repository"
	"SignalDesk/pkg/cache"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	// SOLMint is the wrapped SOL mint used as the input side of every quote.
	SOLMint        = "So11111111111111111111111111111111111111112"
	DefaultBaseURL = "https://quote-api.jup.ag/v6"
)

var (
	lamportsPerSOL = decimal.NewFromInt(1_000_000_000)
	// output amounts are reported in micro units
	microUnits = decimal.NewFromInt(1_000_000)

	ErrNoSwapTransaction = errors.New("No swap transaction returned")
)

// UpstreamError is a non-2xx answer from Jupiter.
type UpstreamError struct {
	Op     string // "Quote" or "Swap"
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: %d", e.Op, e.Status)
}

// RejectedError carries the error field of a 2xx Jupiter body.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

// QuoteParams describes a SOL -> token purchase.
type QuoteParams struct {
	OutputMint string
	SolAmount  float64
	// Slippage is a percentage. Zero means 1%.
	Slippage float64
}

// Lamports is floor(SolAmount * 1e9).
func (p QuoteParams) Lamports() int64 {
	return decimal.NewFromFloat(p.SolAmount).Mul(lamportsPerSOL).Floor().IntPart()
}

// SlippageBps converts the percentage to basis points, rounded to a whole number.
func (p QuoteParams) SlippageBps() int64 {
	s := p.Slippage
	if s == 0 {
		s = 1
	}
	return decimal.NewFromFloat(s).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (p QuoteParams) cacheKey() string {
	return cache.GenerateKeyWithParams("jupiter:quote", p.OutputMint, p.Lamports(), p.SlippageBps())
}

// Quote is the upstream quote with outAmount scaled to whole tokens and a per-SOL price added.
// Raw keeps the upstream body unchanged for the swap call.
type Quote struct {
	InputMint            string          `json:"inputMint"`
	InAmount             string          `json:"inAmount"`
	OutputMint           string          `json:"outputMint"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          int64           `json:"slippageBps"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            json.RawMessage `json:"routePlan,omitempty"`
	Price                string          `json:"price"`

	Raw json.RawMessage `json:"-"`
}

type upstreamQuote struct {
	Error                string          `json:"error"`
	InputMint            string          `json:"inputMint"`
	InAmount             string          `json:"inAmount"`
	OutputMint           string          `json:"outputMint"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          int64           `json:"slippageBps"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            json.RawMessage `json:"routePlan"`
}

// Client calls the quote and swap endpoints. There are no automatic retries.
type Client struct {
	http     *xhttp.Client
	baseURL  string
	limiter  *rate.Limiter
	cache    cache.BytesCache
	cacheTTL time.Duration
	metrics  drepo.Metrics
	l        *applogger.Logger
}

// Option configures Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the transport client.
func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit paces outgoing calls; rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithQuoteCache reuses upstream quote bodies for ttl.
func WithQuoteCache(bc cache.BytesCache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = bc
		c.cacheTTL = ttl
	}
}

func WithMetrics(m drepo.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		limiter: rate.NewLimiter(rate.Limit(10), 10),
		l:       applogger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(10 * time.Second))
	}
	return c
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *applogger.Logger) { c.l = l }

// Quote fetches a quote and reshapes it for display.
func (c *Client) Quote(ctx context.Context, p QuoteParams) (*Quote, error) {
	if p.SolAmount <= 0 {
		return nil, fmt.Errorf("sol amount must be positive")
	}
	raw, err := c.quoteBody(ctx, p)
	if err != nil {
		return nil, err
	}
	return formatQuote(raw, p.SolAmount)
}

func (c *Client) quoteBody(ctx context.Context, p QuoteParams) ([]byte, error) {
	key := p.cacheKey()
	if c.cache != nil {
		if b, ok, err := c.cache.GetBytes(ctx, key); err == nil && ok {
			return b, nil
		} else if err != nil {
			c.l.Warn("quote cache read failed", applogger.Error(err))
		}
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	var raw []byte
	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/quote",
		QueryParams: map[string][]string{
			"inputMint":           {SOLMint},
			"outputMint":          {p.OutputMint},
			"amount":              {strconv.FormatInt(p.Lamports(), 10)},
			"slippageBps":         {strconv.FormatInt(p.SlippageBps(), 10)},
			"onlyDirectRoutes":    {"false"},
			"asLegacyTransaction": {"false"},
		},
	}, &raw)
	c.observe("jupiter_quote", start, err)
	if err != nil {
		return nil, upstreamErr("Quote", err)
	}

	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode quote: %w", err)
	}
	if probe.Error != "" {
		return nil, &RejectedError{Message: probe.Error}
	}

	if c.cache != nil && c.cacheTTL > 0 {
		if err := c.cache.SetBytes(ctx, key, raw, c.cacheTTL); err != nil {
			c.l.Warn("quote cache write failed", applogger.Error(err))
		}
	}
	return raw, nil
}

func formatQuote(raw []byte, sol float64) (*Quote, error) {
	var u upstreamQuote
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode quote: %w", err)
	}
	if u.Error != "" {
		return nil, &RejectedError{Message: u.Error}
	}
	out, err := decimal.NewFromString(u.OutAmount)
	if err != nil {
		return nil, fmt.Errorf("quote outAmount %q: %w", u.OutAmount, err)
	}
	tokens := out.Div(microUnits)
	return &Quote{
		InputMint:            u.InputMint,
		InAmount:             u.InAmount,
		OutputMint:           u.OutputMint,
		OutAmount:            tokens.StringFixed(6),
		OtherAmountThreshold: u.OtherAmountThreshold,
		SwapMode:             u.SwapMode,
		SlippageBps:          u.SlippageBps,
		PriceImpactPct:       u.PriceImpactPct,
		RoutePlan:            u.RoutePlan,
		Price:                tokens.Div(decimal.NewFromFloat(sol)).StringFixed(6),
		Raw:                  raw,
	}, nil
}

// SwapTransaction asks Jupiter to build an unsigned swap for q, paid by userPublicKey.
// The result is a base64 serialized versioned transaction.
func (c *Client) SwapTransaction(ctx context.Context, q *Quote, userPublicKey string) (string, error) {
	if q == nil || len(q.Raw) == 0 {
		return "", fmt.Errorf("swap: quote is required")
	}
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	var resp struct {
		SwapTransaction string `json:"swapTransaction"`
		Error           string `json:"error"`
	}
	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/swap",
		Body: map[string]interface{}{
			"quoteResponse":                 q.Raw,
			"userPublicKey":                 userPublicKey,
			"wrapAndUnwrapSol":              true,
			"computeUnitPriceMicroLamports": "auto",
		},
	}, &resp)
	c.observe("jupiter_swap", start, err)
	if err != nil {
		return "", upstreamErr("Swap", err)
	}
	if resp.Error != "" {
		return "", &RejectedError{Message: resp.Error}
	}
	if resp.SwapTransaction == "" {
		return "", ErrNoSwapTransaction
	}
	return resp.SwapTransaction, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("jupiter rate limit: %w", err)
	}
	return nil
}

func (c *Client) observe(op string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordLatency(op, time.Since(start).Seconds())
	if err != nil {
		c.metrics.RecordError(op)
	}
}

func upstreamErr(op string, err error) error {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return &UpstreamError{Op: op, Status: se.Code}
	}
	return fmt.Errorf("%s request: %w", op, err)
}
