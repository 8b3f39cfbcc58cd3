package search

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryIndexer is the default in-process index used when no external search
// backend is configured.
type MemoryIndexer struct {
	mu   sync.RWMutex
	docs map[int64]EmployeeDocument
}

func NewMemoryIndexer() *MemoryIndexer {
	return &MemoryIndexer{docs: make(map[int64]EmployeeDocument)}
}

func (m *MemoryIndexer) UpsertEmployeeDocument(_ context.Context, doc EmployeeDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

func (m *MemoryIndexer) QueryEmployees(_ context.Context, query string, limit int) ([]EmployeeDocument, error) {
	if limit <= 0 {
		limit = 10
	}
	q := strings.ToLower(strings.TrimSpace(query))

	m.mu.RLock()
	matches := make([]EmployeeDocument, 0)
	for _, doc := range m.docs {
		haystack := strings.ToLower(doc.Name + " " + doc.Email + " " + doc.Position + " " + doc.Department)
		if strings.Contains(haystack, q) {
			matches = append(matches, doc)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Name != matches[j].Name {
			return matches[i].Name < matches[j].Name
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
