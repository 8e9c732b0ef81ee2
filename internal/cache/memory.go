// internal/cache/memory.go
//
// In-process Client: a small LRU with per-entry expiry.
//
// Used when `cache.driver` is `memory`, typically a single-node dev box
// without Redis.  Entries are not shared between processes, so explicit
// invalidation only reaches the local node; multi-node deployments must
// use Redis.  Good for a few thousand tenants.
package cache

import (
	"container/list"
	"context"
	"path"
	"sync"
	"time"
)

// Memory is a concurrency-safe LRU keyed by string.
type Memory struct {
	mu   sync.Mutex
	cap  int
	ll   *list.List
	dict map[string]*list.Element
	now  func() time.Time
}

type pair struct {
	key string
	val []byte
	exp time.Time // zero = no expiry
}

// NewMemory returns a Memory client holding at most capacity entries.
// Panics on capacity < 1.
func NewMemory(capacity int) *Memory {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &Memory{
		cap:  capacity,
		ll:   list.New(),
		dict: make(map[string]*list.Element, capacity),
		now:  time.Now,
	}
}

// Get returns a copy of the value and marks it MRU.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ele, hit := m.dict[key]
	if !hit {
		return nil, ErrMiss
	}
	p := ele.Value.(*pair)
	if !p.exp.IsZero() && !m.now().Before(p.exp) {
		m.remove(ele)
		return nil, ErrMiss
	}
	m.ll.MoveToFront(ele)
	return append([]byte(nil), p.val...), nil
}

// Set inserts or replaces a value.  ttl <= 0 means no expiry.
func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}
	p := &pair{key: key, val: append([]byte(nil), val...), exp: exp}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ele, hit := m.dict[key]; hit {
		ele.Value = p
		m.ll.MoveToFront(ele)
		return nil
	}
	m.dict[key] = m.ll.PushFront(p)
	if m.ll.Len() > m.cap {
		m.remove(m.ll.Back())
	}
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, k := range keys {
		if ele, hit := m.dict[k]; hit {
			m.remove(ele)
			n++
		}
	}
	return n, nil
}

// DeletePattern matches with path.Match, which shares the glob syntax
// Redis uses for plain keys.
func (m *Memory) DeletePattern(_ context.Context, pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, ele := range m.dict {
		if ok, _ := path.Match(pattern, k); ok {
			m.remove(ele)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

// Len reports current size, expired entries included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ll.Len()
}

func (m *Memory) remove(ele *list.Element) {
	m.ll.Remove(ele)
	delete(m.dict, ele.Value.(*pair).key)
}
