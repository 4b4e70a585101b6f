package docstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	col := Path("users", "u1", "cart")

	_, err := s.Get(ctx, col, "p1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, col, "p1", map[string]any{"quantity": 2, "productName": "A"}))
	doc, err := s.Get(ctx, col, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", doc.ID)
	assert.Equal(t, 2, doc.Data["quantity"])

	require.NoError(t, s.Update(ctx, col, "p1", map[string]any{"quantity": 5}))
	doc, _ = s.Get(ctx, col, "p1")
	assert.Equal(t, 5, doc.Data["quantity"])
	assert.Equal(t, "A", doc.Data["productName"])

	assert.ErrorIs(t, s.Update(ctx, col, "nope", map[string]any{"quantity": 1}), ErrNotFound)

	require.NoError(t, s.Delete(ctx, col, "p1"))
	require.NoError(t, s.Delete(ctx, col, "p1"))
	_, err = s.Get(ctx, col, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "orders", "o1", map[string]any{"a": 1, "b": 2}))
	require.NoError(t, s.Set(ctx, "orders", "o1", map[string]any{"a": 3}))
	doc, _ := s.Get(ctx, "orders", "o1")
	assert.Equal(t, map[string]any{"a": 3}, doc.Data)
}

func TestMemoryStore_CreateRejectsExisting(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Create(ctx, "orders", "o1", map[string]any{"orderNumber": "DH1"}))
	assert.ErrorIs(t, s.Create(ctx, "orders", "o1", map[string]any{"orderNumber": "DH2"}), ErrAlreadyExists)

	doc, err := s.Get(ctx, "orders", "o1")
	require.NoError(t, err)
	assert.Equal(t, "DH1", doc.Data["orderNumber"])
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	items := []map[string]any{{"productId": "p1"}}
	require.NoError(t, s.Set(ctx, "orders", "o1", map[string]any{"items": items}))
	items[0]["productId"] = "changed"

	doc, _ := s.Get(ctx, "orders", "o1")
	list, ok := Maps(doc.Data, "items")
	require.True(t, ok)
	assert.Equal(t, "p1", list[0]["productId"])

	list[0]["productId"] = "changed-again"
	doc, _ = s.Get(ctx, "orders", "o1")
	list, _ = Maps(doc.Data, "items")
	assert.Equal(t, "p1", list[0]["productId"])
}

func TestMemoryStore_QueryFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "reviews", "r2", map[string]any{"productId": "p1", "rating": 4}))
	require.NoError(t, s.Set(ctx, "reviews", "r1", map[string]any{"productId": "p1", "rating": int64(5)}))
	require.NoError(t, s.Set(ctx, "reviews", "r3", map[string]any{"productId": "p2", "rating": 5.0}))

	all, err := s.Query(ctx, "reviews")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r1", all[0].ID)

	byProduct, err := s.Query(ctx, "reviews", Eq("productId", "p1"))
	require.NoError(t, err)
	assert.Len(t, byProduct, 2)

	// numeric filters compare by value, not by Go type
	fives, err := s.Query(ctx, "reviews", Eq("rating", 5))
	require.NoError(t, err)
	assert.Len(t, fives, 2)

	none, err := s.Query(ctx, "reviews", Eq("productId", "p1"), Eq("rating", 3))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_InvalidCollection(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, col := range []string{"", "users/u1", "users//cart", " "} {
		assert.ErrorIs(t, s.Set(ctx, col, "x", nil), ErrInvalidCollection, col)
		_, err := s.Query(ctx, col)
		assert.ErrorIs(t, err, ErrInvalidCollection, col)
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()
	assert.ErrorIs(t, s.Set(ctx, "orders", "o1", map[string]any{}), context.Canceled)
}

type snapshotRecorder struct {
	mu    sync.Mutex
	snaps [][]Document
}

func (r *snapshotRecorder) record(docs []Document, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, docs)
}

func (r *snapshotRecorder) last() []Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return nil
	}
	return r.snaps[len(r.snaps)-1]
}

func (r *snapshotRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func TestMemoryStore_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewMemoryStore()
	col := Path("users", "u1", "cart")
	require.NoError(t, s.Set(ctx, col, "p1", map[string]any{"quantity": 1}))

	rec := &snapshotRecorder{}
	require.NoError(t, s.Watch(ctx, col, rec.record))

	require.Eventually(t, func() bool { return rec.count() >= 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, rec.last(), 1)

	require.NoError(t, s.Set(ctx, col, "p2", map[string]any{"quantity": 1}))
	require.Eventually(t, func() bool { return len(rec.last()) == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Delete(ctx, col, "p1"))
	require.NoError(t, s.Delete(ctx, col, "p2"))
	require.Eventually(t, func() bool { return rec.count() > 0 && len(rec.last()) == 0 }, time.Second, 5*time.Millisecond)

	// writes to other collections do not wake the watcher
	time.Sleep(20 * time.Millisecond)
	before := rec.count()
	require.NoError(t, s.Set(ctx, "orders", "o1", map[string]any{}))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, rec.count())

	cancel()
	time.Sleep(20 * time.Millisecond)
	stopped := rec.count()
	require.NoError(t, s.Set(context.Background(), col, "p3", map[string]any{}))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, rec.count())
}

func TestFields_Lenient(t *testing.T) {
	data := map[string]any{
		"s":     "  hi ",
		"i":     float64(3),
		"istr":  "42",
		"d":     "1.25",
		"t":     int64(1700000000000),
		"b":     true,
		"bad":   []int{1},
		"strs":  []any{"a", 1, "b"},
		"empty": nil,
	}
	s, ok := String(data, "s")
	assert.True(t, ok)
	assert.Equal(t, "hi", s)

	n, ok := Int(data, "i")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	n64, ok := Int64(data, "istr")
	assert.True(t, ok)
	assert.Equal(t, int64(42), n64)

	d, ok := Decimal(data, "d")
	assert.True(t, ok)
	assert.Equal(t, "1.25", d.String())

	ts, ok := Time(data, "t")
	assert.True(t, ok)
	assert.Equal(t, int64(1700000000000), ts.UnixMilli())

	b, ok := Bool(data, "b")
	assert.True(t, ok && b)

	_, ok = Int(data, "bad")
	assert.False(t, ok)
	_, ok = String(data, "empty")
	assert.False(t, ok)
	_, ok = Decimal(data, "missing")
	assert.False(t, ok)

	strs, ok := Strings(data, "strs")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, strs)
}
