package api

import (
	"context"
	"errors"
	"time"

	"SignalDesk/internal/service/jupiter"
	"SignalDesk/internal/service/ratelimit"
	"SignalDesk/internal/service/solana"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

func init() {
	if err := xhttp.RegisterValidation("solpubkey", func(fl validator.FieldLevel) bool {
		return solana.IsPublicKey(fl.Field().String())
	}); err != nil {
		panic(err)
	}
}

// QuoteRequest prices a SOL -> token purchase.
type QuoteRequest struct {
	TokenAddress string  `query:"tokenAddress" json:"tokenAddress" validate:"required,solpubkey"`
	SolAmount    float64 `query:"solAmount" json:"solAmount" validate:"gt=0,lte=100"`
	Slippage     float64 `query:"slippage" json:"slippage" default:"1" validate:"gt=0,lte=50"`
}

func (r *QuoteRequest) params() jupiter.QuoteParams {
	return jupiter.QuoteParams{OutputMint: r.TokenAddress, SolAmount: r.SolAmount, Slippage: r.Slippage}
}

type SwapRequest struct {
	TokenAddress  string  `json:"tokenAddress" validate:"required,solpubkey"`
	SolAmount     float64 `json:"solAmount" validate:"gt=0,lte=100"`
	Slippage      float64 `json:"slippage" default:"1" validate:"gt=0,lte=50"`
	UserPublicKey string  `json:"userPublicKey" validate:"required,solpubkey"`
}

type SubmitRequest struct {
	SignedTransaction string `json:"signedTransaction" validate:"required,base64"`
}

// Swapper is the aggregator surface the quick-buy endpoints need.
type Swapper interface {
	Quote(ctx context.Context, p jupiter.QuoteParams) (*jupiter.Quote, error)
	SwapTransaction(ctx context.Context, q *jupiter.Quote, userPublicKey string) (string, error)
}

// Submitter sends a signed transaction and waits for it to land.
type Submitter interface {
	SendAndConfirm(ctx context.Context, signedB64 string) (string, error)
}

// QuoteHandler passes quick-buy calls through to the aggregator and the chain.
type QuoteHandler struct {
	swapper   Swapper
	submitter Submitter
	limiter   *ratelimit.Limiter
	timeout   time.Duration
	l         *applogger.Logger
}

func NewQuoteHandler(swapper Swapper, submitter Submitter, limiter *ratelimit.Limiter, timeout time.Duration) *QuoteHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &QuoteHandler{
		swapper:   swapper,
		submitter: submitter,
		limiter:   limiter,
		timeout:   timeout,
		l:         applogger.NewNop(),
	}
}

// SetLogger injects a structured logger.
func (h *QuoteHandler) SetLogger(l *applogger.Logger) {
	if l != nil {
		h.l = l
	}
}

func (h *QuoteHandler) RegisterRoutes(e *echo.Echo) {
	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, RateLimit(h.limiter, h.l))
	}
	e.GET("/quote", h.Quote, mw...)
	e.POST("/swap", h.Swap, mw...)
	e.POST("/swap/submit", h.Submit, mw...)
}

// Quote handles GET /quote.
func (h *QuoteHandler) Quote(c echo.Context) error {
	req := &QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()
	q, err := h.swapper.Quote(ctx, req.params())
	if err != nil {
		return h.fail(c, "quote", err)
	}
	return xhttp.SuccessResponse(c, q)
}

// Swap handles POST /swap: a fresh quote turned into an unsigned transaction.
func (h *QuoteHandler) Swap(c echo.Context) error {
	req := &SwapRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()
	q, err := h.swapper.Quote(ctx, jupiter.QuoteParams{
		OutputMint: req.TokenAddress,
		SolAmount:  req.SolAmount,
		Slippage:   req.Slippage,
	})
	if err != nil {
		return h.fail(c, "quote", err)
	}
	tx, err := h.swapper.SwapTransaction(ctx, q, req.UserPublicKey)
	if err != nil {
		return h.fail(c, "swap", err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"swapTransaction": tx,
		"quote":           q,
	})
}

// Submit handles POST /swap/submit.
func (h *QuoteHandler) Submit(c echo.Context) error {
	if h.submitter == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("transaction submission is not configured"))
	}
	req := &SubmitRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()
	sig, err := h.submitter.SendAndConfirm(ctx, req.SignedTransaction)
	if err != nil {
		if sig != "" {
			h.l.Warn("submitted transaction did not confirm", applogger.String("signature", sig))
		}
		return h.fail(c, "submit", err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"signature": sig})
}

func (h *QuoteHandler) fail(c echo.Context, op string, err error) error {
	h.l.Warn("quick-buy call failed", applogger.String("op", op), applogger.Error(err))
	return xhttp.AppErrorResponse(c, toAppError(err))
}

// toAppError keeps the upstream message intact so the user sees one descriptive line.
func toAppError(err error) *xhttp.AppError {
	var rpcErr *solana.RPCError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.GatewayTimeoutError("upstream timed out").WithError(err)
	case errors.Is(err, solana.ErrTransactionFailed):
		return xhttp.UnprocessableError("ERR_TX_FAILED", err.Error())
	case errors.Is(err, solana.ErrMalformedTransaction):
		return xhttp.BadRequestError(err.Error())
	case errors.As(err, &rpcErr):
		// preflight rejected the signed transaction
		return xhttp.BadRequestError(rpcErr.Message)
	default:
		return xhttp.BadGatewayError(err.Error())
	}
}

// RateLimit rejects clients that exceed their per-address budget.
func RateLimit(lim *ratelimit.Limiter, l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP() + ":" + c.Path()
			if !lim.Allow(key) {
				l.Warn("rate limited", applogger.String("remote", c.RealIP()), applogger.String("path", c.Path()))
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
			}
			return next(c)
		}
	}
}

var _ xhttp.Handler = (*QuoteHandler)(nil)
