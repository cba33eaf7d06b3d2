package index

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/soyeahso/intentd/internal/domain"
)

// MemoryIndex keeps donations in process, merged by group ID.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]Entry), now: time.Now}
}

// Submit stores d, replacing any earlier entry with the same group ID.
func (m *MemoryIndex) Submit(_ context.Context, d domain.Descriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entries[d.GroupID]
	e.Descriptor = d
	e.DonatedAt = m.now()
	e.Count++
	m.entries[d.GroupID] = e
	return nil
}

// Get returns the entry for a group.
func (m *MemoryIndex) Get(groupID string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[groupID]
	return e, ok
}

// Len returns the number of distinct groups.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Recent returns up to limit entries of an account, newest first. An empty
// accountID matches every account; limit <= 0 means no limit.
func (m *MemoryIndex) Recent(accountID string, limit int) []Entry {
	m.mu.RLock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if accountID == "" || e.Descriptor.AccountID == accountID {
			out = append(out, e)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].DonatedAt.Equal(out[j].DonatedAt) {
			return out[i].DonatedAt.After(out[j].DonatedAt)
		}
		return out[i].Descriptor.GroupID < out[j].Descriptor.GroupID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Forget drops a group's entry.
func (m *MemoryIndex) Forget(_ context.Context, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, groupID)
	return nil
}
