package blueprint

import (
	"context"
	"sort"
	"strconv"
	"sync"
)

// Record is one stored model instance.
type Record map[string]any

// Model is the persistence a blueprint action talks to.
type Model interface {
	// Update merges params into the records matching id and returns them.
	// No match is an empty result, not an error.
	Update(ctx context.Context, id string, params map[string]any) ([]Record, error)
}

// Silencer is implemented by models whose changes are not published.
type Silencer interface {
	Silent() bool
}

// MemoryModel is a process-local Model keyed by the "id" attribute.
type MemoryModel struct {
	mu      sync.RWMutex
	records map[string]Record
	seq     int
	silent  bool
}

func NewMemoryModel() *MemoryModel {
	return &MemoryModel{records: make(map[string]Record)}
}

// SetSilent stops update events for this model.
func (m *MemoryModel) SetSilent(s bool) {
	m.mu.Lock()
	m.silent = s
	m.mu.Unlock()
}

func (m *MemoryModel) Silent() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.silent
}

// Create stores a copy of rec, assigning the next id when it has none.
func (m *MemoryModel) Create(rec Record) Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := clone(rec)
	id, _ := out["id"].(string)
	if id == "" {
		m.seq++
		id = strconv.Itoa(m.seq)
		out["id"] = id
	}
	m.records[id] = out
	return clone(out)
}

// Find returns a copy of the record with id.
func (m *MemoryModel) Find(id string) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, false
	}
	return clone(rec), true
}

// All returns every record ordered by id.
func (m *MemoryModel) All() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(m.records[id]))
	}
	return out
}

func (m *MemoryModel) Update(ctx context.Context, id string, params map[string]any) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	for k, v := range params {
		if k == "id" {
			continue
		}
		rec[k] = v
	}
	return []Record{clone(rec)}, nil
}

func clone(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
