// Package workers persists click details off the request path.
package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/axellelanca/shortlink/internal/errors"
	"github.com/axellelanca/shortlink/internal/models"
	"github.com/axellelanca/shortlink/internal/repository"
)

// writeTimeout bounds a single click insert, including the ones drained at shutdown.
const writeTimeout = 5 * time.Second

// ClickPool is a fixed set of goroutines writing ClickEvents to the click repository.
// The link's click counter is maintained synchronously elsewhere; losing an event here
// only loses the detail row.
type ClickPool struct {
	events    chan models.ClickEvent
	clickRepo repository.ClickRepository
	log       *slog.Logger
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// StartClickWorkers launches workerCount goroutines reading from a channel of bufferSize.
// Workers stop once Stop is called and the buffered events are written.
func StartClickWorkers(workerCount, bufferSize int, clickRepo repository.ClickRepository, log *slog.Logger) *ClickPool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &ClickPool{
		events:    make(chan models.ClickEvent, bufferSize),
		clickRepo: clickRepo,
		log:       log,
	}

	log.Info("Starting click workers", "workers", workerCount, "buffer", bufferSize)
	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.clickWorker(i)
	}
	return p
}

// Enqueue hands an event to the pool without blocking. It returns false when the
// buffer is full and the event was dropped.
func (p *ClickPool) Enqueue(event models.ClickEvent) bool {
	select {
	case p.events <- event:
		return true
	default:
		p.log.Warn("click buffer full, dropping event", "link_id", event.LinkID)
		return false
	}
}

// Stop closes the queue and waits for the workers to drain it, or for ctx to end.
// Enqueue must not be called after Stop.
func (p *ClickPool) Stop(ctx context.Context) error {
	p.closeOnce.Do(func() { close(p.events) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("Click workers stopped")
		return nil
	case <-ctx.Done():
		p.log.Warn("click workers did not drain before deadline", "pending", len(p.events))
		return ctx.Err()
	}
}

func (p *ClickPool) clickWorker(id int) {
	defer p.wg.Done()

	for event := range p.events {
		click := &models.Click{
			LinkID:    event.LinkID,
			Timestamp: event.Timestamp,
			UserAgent: truncate(event.UserAgent, 255),
			Referrer:  truncate(event.Referrer, 255),
			IPHash:    event.IPHash,
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := p.clickRepo.CreateClick(ctx, click)
		cancel()
		if err != nil {
			p.log.Error("failed to record click",
				"worker", id,
				"error", apperrors.ErrClickRecordingFailed{LinkID: event.LinkID, Reason: err.Error()})
			continue
		}
		p.log.Debug("click recorded", "worker", id, "link_id", event.LinkID)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
