package monitor

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/axellelanca/shortlink/internal/repository"
)

const requestTimeout = 5 * time.Second

// UrlMonitor periodically probes every destination URL and logs reachability changes.
// It never modifies links.
type UrlMonitor struct {
	linkRepo    repository.LinkRepository
	interval    time.Duration
	knownStates map[uint]bool // link ID -> reachable at last check
	mu          sync.Mutex
	httpClient  *http.Client
	log         *slog.Logger
}

// NewUrlMonitor creates a monitor checking every interval.
func NewUrlMonitor(linkRepo repository.LinkRepository, interval time.Duration, log *slog.Logger) *UrlMonitor {
	return &UrlMonitor{
		linkRepo:    linkRepo,
		interval:    interval,
		knownStates: make(map[uint]bool),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: log,
	}
}

// Start runs an immediate check, then one per interval, until ctx is cancelled.
// A non-positive interval disables the monitor.
func (m *UrlMonitor) Start(ctx context.Context) {
	if m.interval <= 0 {
		m.log.Info("URL monitor disabled")
		return
	}
	m.log.Info("Starting URL monitor", "interval", m.interval.String())

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.checkUrls(ctx)
	for {
		select {
		case <-ctx.Done():
			m.log.Info("URL monitor stopped")
			return
		case <-ticker.C:
			m.checkUrls(ctx)
		}
	}
}

// checkUrls probes every link once. Returns the number of state changes seen.
func (m *UrlMonitor) checkUrls(ctx context.Context) int {
	links, err := m.linkRepo.GetAllLinks(ctx)
	if err != nil {
		m.log.Error("failed to list links for monitoring", "error", err)
		return 0
	}

	changes := 0
	for _, link := range links {
		if ctx.Err() != nil {
			return changes
		}
		current := m.isUrlAccessible(ctx, link.DestinationURL)

		m.mu.Lock()
		previous, seen := m.knownStates[link.ID]
		m.knownStates[link.ID] = current
		m.mu.Unlock()

		if !seen {
			m.log.Debug("initial destination state", "code", link.Code, "url", link.DestinationURL, "state", formatState(current))
			continue
		}
		if current != previous {
			changes++
			m.log.Warn("destination state changed",
				"code", link.Code,
				"url", link.DestinationURL,
				"from", formatState(previous),
				"to", formatState(current))
		}
	}
	return changes
}

// isUrlAccessible sends a HEAD request; 2xx and 3xx count as reachable.
func (m *UrlMonitor) isUrlAccessible(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

func formatState(accessible bool) string {
	if accessible {
		return "ACCESSIBLE"
	}
	return "INACCESSIBLE"
}
