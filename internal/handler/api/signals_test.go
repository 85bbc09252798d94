package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/repository"
	"SignalDesk/internal/testutil"
	"SignalDesk/internal/usecase"
	xhttp "SignalDesk/pkg/http"
	"SignalDesk/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{ err error }

func (s brokenStore) Append(context.Context, *models.Signal) (int, error) { return 0, s.err }
func (s brokenStore) List(context.Context, int) ([]*models.Signal, error) { return nil, s.err }
func (s brokenStore) Health(context.Context) error                        { return s.err }
func (s brokenStore) Close() error                                        { return nil }

func newSignalsServer(t *testing.T, svc *usecase.SignalService) *echo.Echo {
	t.Helper()
	srv := xhttp.NewServer([]xhttp.Handler{NewSignalsHandler(svc, nil)}, xhttp.WithMetrics(false, 0))
	return srv.Echo()
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func memoryService() (*usecase.SignalService, *repository.MemorySignalStore) {
	store := repository.NewMemorySignalStore(repository.DefaultCapacity)
	return usecase.NewSignalService(store, metrics.Nop{}, "memory"), store
}

func TestPreflight(t *testing.T) {
	svc, _ := memoryService()
	e := newSignalsServer(t, svc)

	for _, path := range []string{"/signals", "/test", "/anything"} {
		rec := do(e, http.MethodOptions, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "ok", rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "authorization, x-client-info, apikey, content-type", rec.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestCreateThenList(t *testing.T) {
	svc, _ := memoryService()
	e := newSignalsServer(t, svc)

	rec := do(e, http.MethodPost, "/signals", `{"id":"a","tokenSymbol":"WIF"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Signal added successfully", body["message"])
	assert.Equal(t, "a", body["signalId"])
	assert.Equal(t, float64(1), body["totalSignals"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(e, http.MethodPost, "/signals", `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	generated := decode(t, rec)["signalId"].(string)
	assert.NotEmpty(t, generated)

	rec = do(e, http.MethodGet, "/signals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Signals []*models.Signal `json:"signals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Signals, 2)
	assert.Equal(t, generated, list.Signals[0].ID)
	assert.NotZero(t, list.Signals[0].Timestamp)
	assert.Equal(t, "a", list.Signals[1].ID)
	assert.Equal(t, "WIF", *list.Signals[1].TokenSymbol)
}

func TestListEmpty(t *testing.T) {
	svc, _ := memoryService()
	rec := do(newSignalsServer(t, svc), http.MethodGet, "/signals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"signals":[]}`, rec.Body.String())
}

func TestCreateRoundTripsEveryField(t *testing.T) {
	svc, _ := memoryService()
	e := newSignalsServer(t, svc)

	in := testutil.FullSignal("full", 1700000000000)
	b, err := json.Marshal(in)
	require.NoError(t, err)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/signals", string(b)).Code)
	rec := do(e, http.MethodGet, "/signals", "")
	var list struct {
		Signals []json.RawMessage `json:"signals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Signals, 1)
	assert.JSONEq(t, string(b), string(list.Signals[0]))
}

func TestCreateMalformedDoesNotMutate(t *testing.T) {
	svc, store := memoryService()
	e := newSignalsServer(t, svc)

	for _, body := range []string{`{"id":`, `not json`, `[1]`, `{"winPercentage":"high"}`} {
		rec := do(e, http.MethodPost, "/signals", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		out := decode(t, rec)
		assert.Equal(t, "Invalid request", out["error"])
		assert.NotEmpty(t, out["details"])
	}
	assert.Equal(t, 0, store.Len())
}

func TestCreateCoercesLooseTypes(t *testing.T) {
	svc, store := memoryService()
	e := newSignalsServer(t, svc)

	rec := do(e, http.MethodPost, "/signals", `{"id":"loose","winPercentage":"85","TOKENSYMBOL":"X"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 85.0, *got[0].WinPercentage)
	assert.Nil(t, got[0].TokenSymbol)
	assert.JSONEq(t, `"X"`, string(got[0].Extra["TOKENSYMBOL"]))
}

func TestCreateDuplicate(t *testing.T) {
	svc, _ := memoryService()
	e := newSignalsServer(t, svc)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/signals", `{"id":"x"}`).Code)
	rec := do(e, http.MethodPost, "/signals", `{"id":"x"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Signal already exists", decode(t, rec)["error"])
}

func TestCreateStoreFailure(t *testing.T) {
	svc := usecase.NewSignalService(brokenStore{err: errors.New("dial tcp 10.0.0.5:5432: connection refused")}, metrics.Nop{}, "postgres")
	e := newSignalsServer(t, svc)

	rec := do(e, http.MethodPost, "/signals", `{"id":"x"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to store signal","details":"dial tcp 10.0.0.5:5432: connection refused"}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/signals", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "postgres", decode(t, rec)["backend"])
}

func TestMethodNotAllowed(t *testing.T) {
	svc, _ := memoryService()
	e := newSignalsServer(t, svc)

	for _, m := range []string{http.MethodPut, http.MethodPatch, http.MethodDelete} {
		for _, path := range []string{"/signals", "/test"} {
			rec := do(e, m, path, "")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, m+" "+path)
			assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
		}
	}
}

func TestHealthOK(t *testing.T) {
	svc, _ := memoryService()
	rec := do(newSignalsServer(t, svc), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","backend":"memory"}`, rec.Body.String())
}

func TestTestEndpoint(t *testing.T) {
	svc, _ := memoryService()
	e := newSignalsServer(t, svc)

	rec := do(e, http.MethodGet, "/test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "Test endpoint is working!", out["message"])
	assert.Equal(t, "Send a POST request to test data reception", out["instructions"])
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, out["timestamp"])

	rec = do(e, http.MethodPost, "/test", `{"hello":"world","n":[1,2]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode(t, rec)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Test endpoint working!", out["message"])
	assert.Equal(t, map[string]interface{}{"hello": "world", "n": []interface{}{float64(1), float64(2)}}, out["receivedData"])

	rec = do(e, http.MethodPost, "/test", `{oops`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request", decode(t, rec)["error"])
}

func TestConcurrentCreates(t *testing.T) {
	svc, store := memoryService()
	e := newSignalsServer(t, svc)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := do(e, http.MethodPost, "/signals", fmt.Sprintf(`{"id":"c%d"}`, i))
			assert.Equal(t, http.StatusCreated, rec.Code)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, n, store.Len())
}
