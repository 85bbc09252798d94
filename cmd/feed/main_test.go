package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/testutil"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"
)

func TestRenderSignal(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	t.Run("full", func(t *testing.T) {
		var buf bytes.Buffer
		renderSignal(&buf, testutil.FullSignal("a", now.UnixMilli()-5*60_000), now)

		out := buf.String()
		for _, want := range []string{"5m ago", "BUY", "BONK", "$1.5M", "2.25 SOL", "-12.5%", "$0.000021", "age 3h", "risk MEDIUM"} {
			assert.Contains(t, out, want)
		}
	})

	t.Run("minimal", func(t *testing.T) {
		var buf bytes.Buffer
		renderSignal(&buf, testutil.MinimalSignal("b", now.UnixMilli()), now)

		out := buf.String()
		for _, want := range []string{"Just now", "signal", "$0.00", "0.00 SOL", "+0.0%", "N/A", "age -", "risk -"} {
			assert.Contains(t, out, want)
		}
	})
}

func TestRenderSignalUnknownValues(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	s := testutil.MinimalSignal("c", now.UnixMilli())
	s.SignalType = testutil.Ptr(models.SignalType("hold"))
	s.RiskLevel = testutil.Ptr(models.RiskLevel("EXTREME"))

	var buf bytes.Buffer
	renderSignal(&buf, s, now)
	assert.Contains(t, buf.String(), "signal")
	assert.NotContains(t, buf.String(), "HOLD")
	assert.Contains(t, buf.String(), "risk -")
}

func TestFormatAge(t *testing.T) {
	age := func(s string) *models.TokenAge { return testutil.Ptr(models.TokenAge(s)) }
	assert.Equal(t, "-", formatAge(nil))
	assert.Equal(t, "45m", formatAge(age("45")))
	assert.Equal(t, "2h", formatAge(age("150")))
	assert.Equal(t, "3d", formatAge(age("4320")))
	assert.Equal(t, "2d", formatAge(age("2d")))
}

func TestRenderFeedCapsRows(t *testing.T) {
	now := time.Now()
	list := []*models.Signal{
		testutil.MinimalSignal("1", now.UnixMilli()),
		testutil.MinimalSignal("2", now.UnixMilli()),
		testutil.MinimalSignal("3", now.UnixMilli()),
	}

	var buf bytes.Buffer
	renderFeed(&buf, list, 2, now)

	assert.Contains(t, buf.String(), "(3 signals)")
	assert.Equal(t, 2, strings.Count(buf.String(), "Just now"))

	buf.Reset()
	renderFeed(&buf, nil, 2, now)
	assert.Contains(t, buf.String(), "No signals yet")
}

func TestPollerPoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/signals", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"signals": []*models.Signal{testutil.FullSignal("x", 1)},
		})
	}))
	defer srv.Close()

	var got []*models.Signal
	p := &poller{
		url:     srv.URL,
		timeout: time.Second,
		http:    xhttp.NewClient(),
		l:       applogger.NewNop(),
		show:    func(s []*models.Signal) { got = s },
	}
	p.poll(context.Background())

	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].ID)
	assert.Equal(t, "BONK", *got[0].TokenSymbol)
}

func TestPollerIgnoresFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	called := false
	p := &poller{
		url:     srv.URL,
		timeout: time.Second,
		http:    xhttp.NewClient(),
		l:       applogger.NewNop(),
		show:    func([]*models.Signal) { called = true },
	}
	p.poll(context.Background())

	assert.False(t, called)
}

func TestPollerDropsOlderResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"signals":[]}`))
	}))
	defer srv.Close()

	calls := 0
	p := &poller{
		url:     srv.URL,
		timeout: time.Second,
		http:    xhttp.NewClient(),
		l:       applogger.NewNop(),
		show:    func([]*models.Signal) { calls++ },
		latest:  time.Now().Add(time.Hour),
	}
	p.poll(context.Background())

	assert.Equal(t, 0, calls)
}
