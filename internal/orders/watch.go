package orders

import (
	"context"
	"sync"

	"github.com/nourhachem/backoffice-backend/pkg/db/models"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
)

// Watcher fans full listing snapshots out to subscribers whenever an order
// mutates. Each subscriber channel holds at most one snapshot: if a consumer
// is slow, older snapshots are replaced rather than queued, so a reader
// always sees the latest state next.
type Watcher struct {
	repo Repository
	logg *logger.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]chan []models.Order
}

func NewWatcher(repo Repository, logg *logger.Logger) *Watcher {
	return &Watcher{
		repo: repo,
		logg: logg,
		subs: make(map[int]chan []models.Order),
	}
}

// Subscribe registers a listener. The returned cancel func must be called
// when the listener goes away; the channel is closed then.
func (w *Watcher) Subscribe() (<-chan []models.Order, func()) {
	ch := make(chan []models.Order, 1)

	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = ch
	w.mu.Unlock()

	cancel := func() {
		w.mu.Lock()
		if sub, ok := w.subs[id]; ok {
			delete(w.subs, id)
			close(sub)
		}
		w.mu.Unlock()
	}
	return ch, cancel
}

// Refresh re-reads the listing and broadcasts it. Failures are logged, not
// returned: a missed snapshot only delays the next one.
func (w *Watcher) Refresh(ctx context.Context) {
	snapshot, err := w.repo.List(ctx)
	if err != nil {
		w.logg.Error(ctx, "failed to build orders snapshot", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale snapshot, then push the fresh one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}
