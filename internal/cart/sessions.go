package cart

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/wichananm65/shopper-backend/internal/identity"
)

// Sessions hands out one Store per signed-in user. A Store is loaded from
// the repository the first time it is requested (and again on later
// requests until a load succeeds) and, when watching is on, follows remote
// changes until it is evicted or Sessions is closed.
type Sessions struct {
	repo  Repository
	opts  Options
	watch bool
	now   func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	stores map[string]*session
}

type session struct {
	store *Store

	mu        sync.Mutex
	loaded    bool
	stopWatch context.CancelFunc
	lastUsed  time.Time
}

func NewSessions(repo Repository, opts Options, watch bool) *Sessions {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sessions{
		repo:   repo,
		opts:   opts,
		watch:  watch,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
		stores: make(map[string]*session),
	}
}

// For returns the caller's cart. Without a caller it returns a detached
// Store whose operations do nothing.
func (s *Sessions) For(ctx context.Context, id *identity.Identity) *Store {
	if id == nil || id.ID == "" {
		return NewStore("", nil, s.opts)
	}

	s.mu.Lock()
	sess, ok := s.stores[id.ID]
	if !ok {
		sess = &session{store: NewStore(id.ID, s.repo, s.opts)}
		s.stores[id.ID] = sess
	}
	sess.lastUsed = s.now()
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.loaded && sess.store.load(ctx) == nil {
		sess.loaded = true
	}
	if s.watch && sess.stopWatch == nil {
		wctx, stop := context.WithCancel(s.ctx)
		if err := sess.store.Watch(wctx); err != nil {
			stop()
			// the store still works, it just won't see other devices
			sess.store.reportWrite(job{desc: "watch cart " + id.ID}, err)
		} else {
			sess.stopWatch = stop
		}
	}
	return sess.store
}

// EvictIdle drops carts not requested for at least idle whose writes have
// all finished, stopping their watchers. It returns how many were dropped.
func (s *Sessions) EvictIdle(idle time.Duration) int {
	cutoff := s.now().Add(-idle)
	var evicted []*session

	s.mu.Lock()
	for uid, sess := range s.stores {
		if sess.lastUsed.After(cutoff) || sess.store.queue.busy() {
			continue
		}
		delete(s.stores, uid)
		evicted = append(evicted, sess)
	}
	s.mu.Unlock()

	for _, sess := range evicted {
		sess.mu.Lock()
		if sess.stopWatch != nil {
			sess.stopWatch()
			sess.stopWatch = nil
		}
		sess.mu.Unlock()
	}
	if len(evicted) > 0 {
		log.Printf("[cart] evicted %d idle cart(s)", len(evicted))
	}
	return len(evicted)
}

// EvictEvery runs EvictIdle on a ticker until Close.
func (s *Sessions) EvictEvery(every, idle time.Duration) {
	if every <= 0 || idle <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-t.C:
				s.EvictIdle(idle)
			}
		}
	}()
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stores)
}

// Flush waits for every open cart's queued writes.
func (s *Sessions) Flush(ctx context.Context) error {
	s.mu.Lock()
	stores := make([]*Store, 0, len(s.stores))
	for _, sess := range s.stores {
		stores = append(stores, sess.store)
	}
	s.mu.Unlock()
	for _, st := range stores {
		if err := st.Flush(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close stops remote watchers and the eviction loop. Queued writes keep
// running.
func (s *Sessions) Close() {
	s.cancel()
}
