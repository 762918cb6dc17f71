package tiercache

import (
	"container/list"
	"sync"
	"time"
)

type hashEntry struct {
	key       string
	fields    map[string][]byte
	expiresAt time.Time // zero => no expiry; all fields share it
}

// hashTable stores the local tier's hash entries: an LRU-bounded table where
// each entry is a field map under one shared TTL. Scalars live in the
// provider store; keeping the two apart avoids round-tripping a whole field
// map through the byte store on every field access.
type hashTable struct {
	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List // front = most recently used
	cap   int
}

func newHashTable(capacity int) *hashTable {
	return &hashTable{
		items: make(map[string]*list.Element),
		order: list.New(),
		cap:   capacity,
	}
}

// getEntry returns the live entry for key, expiring lazily. Caller holds mu.
func (t *hashTable) getEntryLocked(key string, now time.Time) (*hashEntry, bool) {
	el, ok := t.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*hashEntry)
	if hashExpired(e, now) {
		t.removeLocked(el)
		return nil, false
	}
	t.order.MoveToFront(el)
	return e, true
}

func (t *hashTable) set(key, field string, value []byte, ttl time.Duration) {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.getEntryLocked(key, now)
	if !ok {
		for len(t.items) >= t.cap {
			oldest := t.order.Back()
			if oldest == nil {
				break
			}
			t.removeLocked(oldest)
		}
		e = &hashEntry{key: key, fields: make(map[string][]byte)}
		if ttl > 0 {
			e.expiresAt = now.Add(ttl)
		}
		t.items[key] = t.order.PushFront(e)
	}
	e.fields[field] = value
}

func (t *hashTable) get(key, field string) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.getEntryLocked(key, time.Now())
	if !ok {
		return nil, false
	}
	v, ok := e.fields[field]
	return v, ok
}

// del removes one field; the entry goes with its last field.
func (t *hashTable) del(key, field string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.getEntryLocked(key, time.Now())
	if !ok {
		return false
	}
	if _, ok := e.fields[field]; !ok {
		return false
	}
	delete(e.fields, field)
	if len(e.fields) == 0 {
		t.removeLocked(t.items[key])
	}
	return true
}

func (t *hashTable) exists(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.getEntryLocked(key, time.Now())
	return ok
}

func (t *hashTable) fieldExists(key, field string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.getEntryLocked(key, time.Now())
	if !ok {
		return false
	}
	_, ok = e.fields[field]
	return ok
}

func (t *hashTable) fieldKeys(key string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.getEntryLocked(key, time.Now())
	if !ok {
		return nil
	}
	out := make([]string, 0, len(e.fields))
	for f := range e.fields {
		out = append(out, f)
	}
	return out
}

func (t *hashTable) fieldCount(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.getEntryLocked(key, time.Now())
	if !ok {
		return 0
	}
	return len(e.fields)
}

// remove drops the whole hash under key.
func (t *hashTable) remove(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	el, ok := t.items[key]
	if !ok {
		return false
	}
	gone := hashExpired(el.Value.(*hashEntry), time.Now())
	t.removeLocked(el)
	return !gone
}

func (t *hashTable) expire(key string, ttl time.Duration) bool {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.getEntryLocked(key, now)
	if !ok {
		return false
	}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	} else {
		e.expiresAt = time.Time{}
	}
	return true
}

func (t *hashTable) keys() []string {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.items))
	for k, el := range t.items {
		if !hashExpired(el.Value.(*hashEntry), now) {
			out = append(out, k)
		}
	}
	return out
}

func (t *hashTable) sweep() {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	for el := t.order.Back(); el != nil; {
		prev := el.Prev()
		if hashExpired(el.Value.(*hashEntry), now) {
			t.removeLocked(el)
		}
		el = prev
	}
}

func (t *hashTable) removeLocked(el *list.Element) {
	e := el.Value.(*hashEntry)
	t.order.Remove(el)
	delete(t.items, e.key)
}

func hashExpired(e *hashEntry, now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}
