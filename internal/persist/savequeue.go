package persist

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SaveQueue decouples the game loop from the database: zone actors enqueue
// character snapshots and return immediately, the queue's worker writes them
// with retry and backoff. Later snapshots for the same character supersede
// earlier ones, so a retry never resurrects stale state.
type SaveQueue struct {
	repo *CharacterRepo
	log  *zap.Logger

	mu      sync.Mutex
	pending map[uint64]*CharacterRow // character_id → latest snapshot
	wake    chan struct{}
	done    chan struct{}
}

func NewSaveQueue(repo *CharacterRepo, log *zap.Logger) *SaveQueue {
	return &SaveQueue{
		repo:    repo,
		log:     log,
		pending: make(map[uint64]*CharacterRow),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Enqueue records a snapshot for eventual write. Never blocks.
func (q *SaveQueue) Enqueue(c *CharacterRow) {
	q.mu.Lock()
	q.pending[c.CharacterID] = c
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Run drains the queue until ctx is cancelled, then makes one final flush so
// a clean shutdown loses nothing.
func (q *SaveQueue) Run(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			q.flush(context.Background())
			return
		case <-q.wake:
			q.flush(ctx)
		}
	}
}

// Wait blocks until Run has finished its final flush.
func (q *SaveQueue) Wait() {
	<-q.done
}

func (q *SaveQueue) flush(ctx context.Context) {
	for {
		q.mu.Lock()
		var c *CharacterRow
		for id, row := range q.pending {
			c = row
			delete(q.pending, id)
			break
		}
		q.mu.Unlock()
		if c == nil {
			return
		}
		q.saveWithRetry(ctx, c)
	}
}

// saveWithRetry keeps trying with backoff. The game state is authoritative
// in memory; a failed write is reconciled by the next successful one.
func (q *SaveQueue) saveWithRetry(ctx context.Context, c *CharacterRow) {
	backoff := time.Second
	for attempt := 1; ; attempt++ {
		saveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := q.repo.Save(saveCtx, c)
		cancel()
		if err == nil {
			return
		}
		q.log.Warn("角色存檔失敗，稍後重試",
			zap.Uint64("character", c.CharacterID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt >= 5 || ctx.Err() != nil {
			q.log.Error("角色存檔放棄", zap.Uint64("character", c.CharacterID))
			return
		}
		select {
		case <-ctx.Done():
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}
