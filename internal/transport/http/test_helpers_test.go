package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ramadan-assistant/internal/config"
	"github.com/vovakirdan/ramadan-assistant/internal/core"
	"github.com/vovakirdan/ramadan-assistant/internal/prayer"
)

const testSecret = "test-secret"

type fetcherFunc func(ctx context.Context, date time.Time) (prayer.Timings, error)

func (f fetcherFunc) Fetch(ctx context.Context, date time.Time) (prayer.Timings, error) {
	return f(ctx, date)
}

var testTimings = prayer.Timings{
	"Fajr":    "05:56",
	"Sunrise": "07:10",
	"Dhuhr":   "13:15",
	"Asr":     "16:37",
	"Maghrib": "19:20",
	"Isha":    "20:33",
}

func okFetcher() core.PrayerFetcher {
	return fetcherFunc(func(context.Context, time.Time) (prayer.Timings, error) {
		return testTimings.Clone(), nil
	})
}

func failingFetcher() core.PrayerFetcher {
	return fetcherFunc(func(context.Context, time.Time) (prayer.Timings, error) {
		return nil, errors.New("upstream down")
	})
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.SessionSecret = testSecret
	cfg.ReplyDelay = 20 * time.Millisecond
	return &cfg
}

// gatedFetcher blocks every fetch until release is closed.
func gatedFetcher(release <-chan struct{}) core.PrayerFetcher {
	return fetcherFunc(func(ctx context.Context, _ time.Time) (prayer.Timings, error) {
		select {
		case <-release:
			return testTimings.Clone(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

// syncBuffer collects log output written from several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startTestServer(t *testing.T, fetcher core.PrayerFetcher) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	return startTestServerWithLogger(t, fetcher, &logger)
}

func startTestServerWithLogger(t *testing.T, fetcher core.PrayerFetcher, logger *zerolog.Logger) *httptest.Server {
	t.Helper()

	cfg := testConfig()

	hub := core.NewHub(core.Options{
		ReplyDelay: cfg.ReplyDelay,
		SessionTTL: cfg.SessionTTL,
		Prayer:     fetcher,
		Logger:     logger,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	server, err := NewServer(hub, cfg, logger)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

// browser returns a client that keeps cookies and follows redirects.
func browser(t *testing.T) *stdhttp.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &stdhttp.Client{Jar: jar, Timeout: 5 * time.Second}
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (*stdhttp.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := stdhttp.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func openSession(t *testing.T, ts *httptest.Server) SessionResponse {
	t.Helper()

	resp, body := doJSON(t, ts, stdhttp.MethodPost, "/api/session", "", nil)
	if resp.StatusCode != stdhttp.StatusCreated {
		t.Fatalf("open session: status %d body %s", resp.StatusCode, body)
	}
	var out SessionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return out
}
