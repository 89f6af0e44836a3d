package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/axellelanca/shortlink/internal/logging"
	"github.com/axellelanca/shortlink/internal/models"
)

type staticLinks struct {
	links []models.Link
}

func (s staticLinks) CreateLink(context.Context, *models.Link) error { return nil }
func (s staticLinks) GetLinkByCode(context.Context, string) (*models.Link, error) {
	return nil, nil
}
func (s staticLinks) IncrementClicks(context.Context, string) (int64, error) { return 0, nil }
func (s staticLinks) ListLinksByOwner(context.Context, string) ([]models.Link, error) {
	return s.links, nil
}
func (s staticLinks) GetAllLinks(context.Context) ([]models.Link, error) { return s.links, nil }

func TestCheckUrlsDetectsStateChange(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	m := NewUrlMonitor(staticLinks{links: []models.Link{{ID: 1, Code: "abc", DestinationURL: srv.URL}}}, time.Minute, logging.Discard())
	ctx := context.Background()

	if n := m.checkUrls(ctx); n != 0 {
		t.Fatalf("first pass should only record state, got %d changes", n)
	}
	if n := m.checkUrls(ctx); n != 0 {
		t.Fatalf("unchanged destination reported %d changes", n)
	}
	healthy.Store(false)
	if n := m.checkUrls(ctx); n != 1 {
		t.Fatalf("expected 1 change, got %d", n)
	}
}

func TestRedirectCountsAsAccessible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://127.0.0.1:1/unreachable", http.StatusFound)
	}))
	defer srv.Close()

	m := NewUrlMonitor(staticLinks{}, time.Minute, logging.Discard())
	if !m.isUrlAccessible(context.Background(), srv.URL) {
		t.Fatal("3xx should count as accessible")
	}
	if m.isUrlAccessible(context.Background(), "http://127.0.0.1:1") {
		t.Fatal("closed port should be inaccessible")
	}
}

func TestStartStopsWithContext(t *testing.T) {
	m := NewUrlMonitor(staticLinks{}, 10*time.Millisecond, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestStartDisabled(t *testing.T) {
	m := NewUrlMonitor(staticLinks{}, 0, logging.Discard())
	done := make(chan struct{})
	go func() {
		m.Start(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled monitor should return immediately")
	}
}
