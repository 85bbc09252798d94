package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/service/stream"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"
)

type listResponse struct {
	Signals []*models.Signal `json:"signals"`
}

// poller fetches the signal list. Polls are not serialised: a slow poll never delays the next.
type poller struct {
	url     string
	timeout time.Duration
	http    *xhttp.Client
	l       *applogger.Logger

	mu     sync.Mutex
	latest time.Time
	show   func([]*models.Signal)
}

func (p *poller) poll(ctx context.Context) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var resp listResponse
	err := p.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    p.url + "/signals",
	}, &resp)
	if err != nil {
		p.l.Warn("poll failed", applogger.Error(err))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// An overlapping poll that started earlier must not overwrite a newer result.
	if started.Before(p.latest) {
		return
	}
	p.latest = started
	p.show(resp.Signals)
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	envFile := flag.String("env", ".env", "dotenv file")
	useStream := flag.Bool("stream", false, "follow the websocket stream instead of polling")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath, *envFile)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	base := strings.TrimRight(cfg.Feed.URL, "/")
	show := func(signals []*models.Signal) {
		renderFeed(os.Stdout, signals, cfg.Feed.MaxShown, time.Now())
	}

	if *useStream || cfg.Feed.Stream {
		followStream(ctx, base, cfg, l, show)
		return
	}

	p := &poller{
		url:     base,
		timeout: cfg.Feed.Timeout,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.Feed.Timeout)),
		l:       l,
		show:    show,
	}

	ticker := time.NewTicker(cfg.Feed.Interval)
	defer ticker.Stop()

	go p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go p.poll(ctx)
		}
	}
}

// followStream seeds the view with one poll and then prepends every streamed signal.
func followStream(ctx context.Context, base string, cfg *config.Config, l *applogger.Logger, show func([]*models.Signal)) {
	var (
		mu      sync.Mutex
		signals []*models.Signal
	)
	seed := &poller{
		url:     base,
		timeout: cfg.Feed.Timeout,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.Feed.Timeout)),
		l:       l,
		show: func(list []*models.Signal) {
			mu.Lock()
			defer mu.Unlock()
			signals = list
			show(signals)
		},
	}
	seed.poll(ctx)

	wsURL := "ws" + strings.TrimPrefix(base, "http") + "/signals/stream"
	client := stream.NewClient(wsURL, stream.WithClientPingInterval(cfg.Stream.PingInterval))
	client.SetLogger(l)

	err := client.Run(ctx, func(s *models.Signal) {
		mu.Lock()
		defer mu.Unlock()
		signals = append([]*models.Signal{s}, signals...)
		if n := cfg.Feed.MaxShown; n > 0 && len(signals) > n {
			signals = signals[:n]
		}
		show(signals)
	})
	if err != nil && ctx.Err() == nil {
		l.Error("stream stopped", applogger.Error(err))
	}
}
