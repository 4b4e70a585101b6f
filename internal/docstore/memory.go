package docstore

import (
	"context"
	"reflect"
	"sort"
	"sync"
)

// MemoryStore keeps documents in process memory. It is used for local runs
// and as the backend of every package test.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	watchers    map[string]map[int]*memoryWatcher
	nextWatcher int
}

type memoryWatcher struct {
	signal chan struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]any),
		watchers:    make(map[string]map[int]*memoryWatcher),
	}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if !validCollection(collection) {
		return Document{}, ErrInvalidCollection
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: cloneMap(data)}, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validCollection(collection) {
		return ErrInvalidCollection
	}
	s.mu.Lock()
	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]map[string]any)
		s.collections[collection] = col
	}
	if _, exists := col[id]; exists {
		s.mu.Unlock()
		return ErrAlreadyExists
	}
	col[id] = cloneMap(data)
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validCollection(collection) {
		return ErrInvalidCollection
	}
	s.mu.Lock()
	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]map[string]any)
		s.collections[collection] = col
	}
	col[id] = cloneMap(data)
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validCollection(collection) {
		return ErrInvalidCollection
	}
	s.mu.Lock()
	data, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range fields {
		data[k] = cloneValue(v)
	}
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validCollection(collection) {
		return ErrInvalidCollection
	}
	s.mu.Lock()
	_, existed := s.collections[collection][id]
	delete(s.collections[collection], id)
	s.mu.Unlock()

	if existed {
		s.notify(collection)
	}
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validCollection(collection) {
		return nil, ErrInvalidCollection
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryLocked(collection, filters), nil
}

func (s *MemoryStore) queryLocked(collection string, filters []Filter) []Document {
	col := s.collections[collection]
	out := make([]Document, 0, len(col))
	for id, data := range col {
		if matches(data, filters) {
			out = append(out, Document{ID: id, Data: cloneMap(data)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Watch delivers the current snapshot immediately, then the latest snapshot
// after each change. Bursts of writes may be coalesced into one delivery.
func (s *MemoryStore) Watch(ctx context.Context, collection string, fn WatchFunc) error {
	if !validCollection(collection) {
		return ErrInvalidCollection
	}
	w := &memoryWatcher{signal: make(chan struct{}, 1)}

	s.mu.Lock()
	if s.watchers[collection] == nil {
		s.watchers[collection] = make(map[int]*memoryWatcher)
	}
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[collection][id] = w
	s.mu.Unlock()

	w.signal <- struct{}{}

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.watchers[collection], id)
			s.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.signal:
				s.mu.RLock()
				docs := s.queryLocked(collection, nil)
				s.mu.RUnlock()
				fn(docs, nil)
			}
		}
	}()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) notify(collection string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.watchers[collection] {
		select {
		case w.signal <- struct{}{}:
		default:
		}
	}
}

func matches(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if !valuesEqual(data[f.Field], f.Value) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	fa, aNum := asFloat(a)
	fb, bNum := asFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = cloneMap(m)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return v
	}
}
