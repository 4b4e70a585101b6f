package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/shopper-backend/internal/product"
)

// sweepKey is the queue key of the post-clear sweep. It cannot collide with
// a product id.
const sweepKey = "\x00sweep"

type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncError   SyncStatus = "error"
)

type SyncState struct {
	Status    SyncStatus `json:"status"`
	Pending   int        `json:"pending"`
	LastError string     `json:"lastError,omitempty"`
}

type Options struct {
	// Attempts per remote write, including the first.
	Attempts int
	Backoff  time.Duration
}

// Store is one user's cart: an ordered list of lines plus a quantity index,
// mirrored to the Repository. Mutations apply locally first and queue the
// remote write. The remote copy is authoritative on Load.
type Store struct {
	userID string
	repo   Repository
	queue  *syncQueue

	mu      sync.Mutex
	lines   []Line
	qty     map[string]int
	gen     uint64 // bumped on every queued write
	lastErr error
	subs    map[int]chan struct{}
	nextSub int
}

// NewStore builds a cart for userID. An empty userID yields a detached
// store on which every operation is a no-op.
func NewStore(userID string, repo Repository, opts Options) *Store {
	s := &Store{
		userID: userID,
		repo:   repo,
		qty:    make(map[string]int),
		subs:   make(map[int]chan struct{}),
	}
	s.queue = newSyncQueue(opts.Attempts, opts.Backoff, s.reportWrite)
	return s
}

func (s *Store) UserID() string {
	return s.userID
}

func (s *Store) detached() bool {
	return s.userID == "" || s.repo == nil
}

// Load waits for queued writes, then replaces local state with the remote
// cart. On failure the prior local state is kept.
func (s *Store) Load(ctx context.Context) {
	_ = s.load(ctx)
}

// load is Load reporting whether the remote cart could be read. Losing a
// race with a local change is not a failure.
func (s *Store) load(ctx context.Context) error {
	if s.detached() {
		return nil
	}
	if err := s.queue.flush(ctx); err != nil {
		log.Printf("[cart] WARN: load for %s skipped, writes still queued: %v", s.userID, err)
		return err
	}
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	lines, err := s.repo.List(ctx, s.userID)
	if err != nil {
		log.Printf("[cart] ERROR: load for %s failed, keeping local state: %v", s.userID, err)
		return err
	}

	s.mu.Lock()
	if s.gen != gen || s.queue.busy() {
		s.mu.Unlock()
		log.Printf("[cart] load for %s raced a local change, keeping local state", s.userID)
		return nil
	}
	s.replaceLocked(lines)
	s.lastErr = nil
	s.mu.Unlock()
	s.notify()
	return nil
}

// Watch keeps local state in step with remote changes made elsewhere (for
// example another device). Snapshots that arrive while local writes are
// queued are ignored.
func (s *Store) Watch(ctx context.Context) error {
	if s.detached() {
		return nil
	}
	return s.repo.Watch(ctx, s.userID, func(lines []Line, err error) {
		if err != nil {
			log.Printf("[cart] WARN: watch for %s: %v", s.userID, err)
			return
		}
		s.mu.Lock()
		if s.queue.busy() {
			s.mu.Unlock()
			return
		}
		changed := !s.sameLocked(lines)
		if changed {
			s.replaceLocked(lines)
		}
		s.mu.Unlock()
		if changed {
			s.notify()
		}
	})
}

// AddOrIncrement adds delta to an existing line, removing it when the
// result is not positive. A missing line is created with quantity delta and
// the product's current name, price and image; delta <= 0 is ignored then.
func (s *Store) AddOrIncrement(p product.Product, delta int) {
	if s.detached() || p.ID == "" {
		return
	}
	s.mu.Lock()
	if cur, ok := s.qty[p.ID]; ok {
		s.applyQuantityLocked(p.ID, cur+delta)
		s.mu.Unlock()
		s.notify()
		return
	}
	if delta <= 0 {
		s.mu.Unlock()
		return
	}
	line := Line{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    delta,
		UnitPrice:   p.Price,
		ImageURL:    p.ImageURL,
	}
	s.lines = append(s.lines, line)
	s.qty[p.ID] = delta
	s.enqueuePutLocked(line)
	s.mu.Unlock()
	s.notify()
}

// SetQuantity sets an existing line's quantity; n <= 0 removes it.
// Unknown products are ignored since there is nothing to snapshot.
func (s *Store) SetQuantity(productID string, n int) {
	if s.detached() {
		return
	}
	s.mu.Lock()
	if _, ok := s.qty[productID]; !ok {
		s.mu.Unlock()
		if n <= 0 {
			s.Remove(productID)
		}
		return
	}
	s.applyQuantityLocked(productID, n)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) Increment(productID string) {
	s.step(productID, 1)
}

// Decrement at quantity 1 removes the line.
func (s *Store) Decrement(productID string) {
	s.step(productID, -1)
}

func (s *Store) step(productID string, delta int) {
	if s.detached() {
		return
	}
	s.mu.Lock()
	cur, ok := s.qty[productID]
	if !ok {
		s.mu.Unlock()
		return
	}
	s.applyQuantityLocked(productID, cur+delta)
	s.mu.Unlock()
	s.notify()
}

// Remove drops the line locally and queues the remote delete.
func (s *Store) Remove(productID string) {
	if s.detached() || productID == "" {
		return
	}
	s.mu.Lock()
	s.removeLocked(productID)
	s.mu.Unlock()
	s.notify()
}

// Clear empties the cart. Every known line is deleted individually, then a
// sweep deletes remote lines this store never saw. A failed delete leaves an
// orphan until the next Load.
func (s *Store) Clear() {
	if s.detached() {
		return
	}
	s.mu.Lock()
	ids := make([]string, 0, len(s.lines))
	for _, l := range s.lines {
		ids = append(ids, l.ProductID)
	}
	s.lines = nil
	s.qty = make(map[string]int)
	for _, id := range ids {
		s.enqueueDeleteLocked(id)
	}
	s.enqueueLocked(sweepKey, "sweep cart "+s.userID, s.sweep)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) sweep(ctx context.Context) error {
	remote, err := s.repo.List(ctx, s.userID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range remote {
		if _, ok := s.qty[l.ProductID]; ok {
			continue
		}
		s.enqueueDeleteLocked(l.ProductID)
	}
	return nil
}

// TotalValue is the sum of unit price times quantity over local state.
func (s *Store) TotalValue() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

func (s *Store) totalLocked() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Snapshot copies the current lines and total. It does not change the cart.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{UserID: s.userID, Lines: s.copyLinesLocked(), Total: s.totalLocked()}
}

func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLinesLocked()
}

// Quantity returns 0 for products not in the cart.
func (s *Store) Quantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qty[productID]
}

func (s *Store) Quantities() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.qty))
	for k, v := range s.qty {
		out[k] = v
	}
	return out
}

func (s *Store) SyncState() SyncState {
	pending := s.queue.pendingCount()
	s.mu.Lock()
	lastErr := s.lastErr
	s.mu.Unlock()

	st := SyncState{Status: SyncIdle, Pending: pending}
	switch {
	case pending > 0:
		st.Status = SyncSyncing
	case lastErr != nil:
		st.Status = SyncError
	}
	if lastErr != nil {
		st.LastError = lastErr.Error()
	}
	return st
}

// Flush waits until every queued write has finished.
func (s *Store) Flush(ctx context.Context) error {
	return s.queue.flush(ctx)
}

// Subscribe returns a channel that receives a signal after every local
// change. Signals coalesce; read state through the accessors. Call the
// returned func to unsubscribe.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) reportWrite(j job, err error) {
	if err == nil {
		return
	}
	log.Printf("[cart] ERROR: %s gave up: %v", j.desc, err)
	s.mu.Lock()
	s.lastErr = fmt.Errorf("%s: %w", j.desc, err)
	s.mu.Unlock()
	s.notify()
}

// applyQuantityLocked sets an existing line to n, removing it when n <= 0,
// and queues the matching remote write.
func (s *Store) applyQuantityLocked(productID string, n int) {
	if n <= 0 {
		s.removeLocked(productID)
		return
	}
	var snapshot Line
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines[i].Quantity = n
			snapshot = s.lines[i]
			break
		}
	}
	s.qty[productID] = n

	userID := s.userID
	s.enqueueLocked(productID, fmt.Sprintf("set %s/%s quantity=%d", userID, productID, n), func(ctx context.Context) error {
		err := s.repo.UpdateQuantity(ctx, userID, productID, n)
		if errors.Is(err, ErrLineNotFound) {
			return s.repo.Put(ctx, userID, snapshot)
		}
		return err
	})
}

func (s *Store) removeLocked(productID string) {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			break
		}
	}
	delete(s.qty, productID)
	s.enqueueDeleteLocked(productID)
}

func (s *Store) enqueueLocked(key, desc string, run func(context.Context) error) {
	s.gen++
	s.queue.enqueue(key, desc, run)
}

func (s *Store) enqueuePutLocked(line Line) {
	userID := s.userID
	s.enqueueLocked(line.ProductID, fmt.Sprintf("put %s/%s quantity=%d", userID, line.ProductID, line.Quantity), func(ctx context.Context) error {
		return s.repo.Put(ctx, userID, line)
	})
}

func (s *Store) enqueueDeleteLocked(productID string) {
	userID := s.userID
	s.enqueueLocked(productID, fmt.Sprintf("delete %s/%s", userID, productID), func(ctx context.Context) error {
		return s.repo.Delete(ctx, userID, productID)
	})
}

func (s *Store) replaceLocked(lines []Line) {
	s.lines = make([]Line, 0, len(lines))
	s.qty = make(map[string]int, len(lines))
	for _, l := range lines {
		if _, dup := s.qty[l.ProductID]; dup {
			continue
		}
		s.lines = append(s.lines, l)
		s.qty[l.ProductID] = l.Quantity
	}
}

// sameLocked reports whether lines match local state, ignoring order.
func (s *Store) sameLocked(lines []Line) bool {
	if len(lines) != len(s.lines) {
		return false
	}
	local := make(map[string]Line, len(s.lines))
	for _, l := range s.lines {
		local[l.ProductID] = l
	}
	for _, l := range lines {
		cur, ok := local[l.ProductID]
		if !ok || cur.Quantity != l.Quantity || !cur.UnitPrice.Equal(l.UnitPrice) || cur.ProductName != l.ProductName {
			return false
		}
	}
	return true
}

func (s *Store) copyLinesLocked() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}
