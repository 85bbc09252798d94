package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"SignalDesk/internal/domain/models"
	drepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/usecase"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// maxSignalBody bounds a POST /signals payload.
const maxSignalBody = 1 << 20

// otherMethods are answered with 405 on the signal and test endpoints.
var otherMethods = []string{
	http.MethodPut, http.MethodPatch, http.MethodDelete,
	http.MethodHead, http.MethodConnect, http.MethodTrace,
}

// StreamServer upgrades a request into a live signal stream.
type StreamServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request) error
}

// SignalsHandler serves ingestion and the newest-first listing.
type SignalsHandler struct {
	svc    *usecase.SignalService
	stream StreamServer
	l      *applogger.Logger
}

func NewSignalsHandler(svc *usecase.SignalService, stream StreamServer) *SignalsHandler {
	return &SignalsHandler{svc: svc, stream: stream, l: applogger.NewNop()}
}

// SetLogger injects a structured logger.
func (h *SignalsHandler) SetLogger(l *applogger.Logger) {
	if l != nil {
		h.l = l
	}
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/signals", h.List)
	e.POST("/signals", h.Create)
	e.Match(otherMethods, "/signals", methodNotAllowed)
	if h.stream != nil {
		e.GET("/signals/stream", h.Stream)
	}

	e.GET("/test", h.TestGet)
	e.POST("/test", h.TestPost)
	e.Match(otherMethods, "/test", methodNotAllowed)

	e.GET("/health", h.Health)
}

type createResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SignalID     string `json:"signalId"`
	TotalSignals int    `json:"totalSignals"`
}

// Create handles POST /signals.
func (h *SignalsHandler) Create(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxSignalBody))
	if err != nil {
		return xhttp.ErrorResponse(c, http.StatusBadRequest, "Invalid request", err.Error())
	}
	sig, err := models.DecodeSignal(body)
	if err != nil {
		return xhttp.ErrorResponse(c, http.StatusBadRequest, "Invalid request", err.Error())
	}

	res, err := h.svc.Create(c.Request().Context(), sig)
	if err != nil {
		if errors.Is(err, drepo.ErrDuplicateID) {
			return xhttp.ErrorResponse(c, http.StatusConflict, "Signal already exists", err.Error())
		}
		h.l.Error("store signal failed", applogger.String("id", sig.ID), applogger.Error(err))
		return xhttp.ErrorResponse(c, http.StatusInternalServerError, "Failed to store signal", err.Error())
	}

	return c.JSON(http.StatusCreated, createResponse{
		Success:      true,
		Message:      "Signal added successfully",
		SignalID:     res.ID,
		TotalSignals: res.Total,
	})
}

// List handles GET /signals.
func (h *SignalsHandler) List(c echo.Context) error {
	signals, err := h.svc.List(c.Request().Context())
	if err != nil {
		h.l.Error("list signals failed", applogger.Error(err))
		return xhttp.ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch signals", err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"signals": signals})
}

// Stream handles GET /signals/stream.
func (h *SignalsHandler) Stream(c echo.Context) error {
	if err := h.stream.ServeWS(c.Response(), c.Request()); err != nil {
		// the upgrader has already written the failure response
		h.l.Debug("stream upgrade failed", applogger.Error(err))
	}
	return nil
}

// Health reports store reachability.
func (h *SignalsHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.svc.Health(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "unavailable",
			"backend": h.svc.Backend(),
			"error":   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "backend": h.svc.Backend()})
}

// isoTime matches the millisecond UTC layout browsers produce.
const isoTime = "2006-01-02T15:04:05.000Z"

// TestGet handles GET /test.
func (h *SignalsHandler) TestGet(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message":      "Test endpoint is working!",
		"timestamp":    time.Now().UTC().Format(isoTime),
		"instructions": "Send a POST request to test data reception",
	})
}

// TestPost echoes any JSON body back.
func (h *SignalsHandler) TestPost(c echo.Context) error {
	var body interface{}
	if err := json.NewDecoder(io.LimitReader(c.Request().Body, maxSignalBody)).Decode(&body); err != nil {
		return xhttp.ErrorResponse(c, http.StatusBadRequest, "Invalid request", err.Error())
	}
	h.l.Info("test endpoint received", applogger.Any("body", body))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      "Test endpoint working!",
		"receivedData": body,
		"timestamp":    time.Now().UTC().Format(isoTime),
	})
}

func methodNotAllowed(c echo.Context) error {
	return c.JSON(http.StatusMethodNotAllowed, xhttp.ErrorBody{Error: "Method not allowed"})
}

var _ xhttp.Handler = (*SignalsHandler)(nil)
