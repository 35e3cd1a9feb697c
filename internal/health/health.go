package health

import (
	"context"
	"encoding/json"
	"github.com/clambin/tank-monitor/internal/snapshot"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type Publisher interface {
	Subscribe() <-chan snapshot.Snapshot
	Unsubscribe(<-chan snapshot.Snapshot)
}

// Health serves the last published snapshot. Until a snapshot has been published, it reports the service as unavailable.
type Health struct {
	Publisher
	logger  *slog.Logger
	update  snapshot.Snapshot
	updated time.Time
	lock    sync.RWMutex
}

func New(p Publisher, logger *slog.Logger) *Health {
	return &Health{
		Publisher: p,
		logger:    logger,
	}
}

func (h *Health) Run(ctx context.Context) error {
	h.logger.Debug("started")
	defer h.logger.Debug("stopped")

	ch := h.Publisher.Subscribe()
	defer h.Publisher.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-ch:
			h.lock.Lock()
			h.update = update
			h.updated = time.Now()
			h.lock.Unlock()
		}
	}
}

type response struct {
	Updated time.Time         `json:"updated"`
	Tanks   snapshot.Snapshot `json:"tanks"`
}

func (h *Health) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	if h.updated.IsZero() {
		http.Error(w, "no update yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response{Updated: h.updated, Tanks: h.update}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
