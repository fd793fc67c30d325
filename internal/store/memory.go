package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/serroba/shortlink/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu     sync.RWMutex
	byHash map[shortener.Hash]shortener.Link
	ids    map[uuid.UUID]struct{}
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byHash: make(map[shortener.Hash]shortener.Link),
		ids:    make(map[uuid.UUID]struct{}),
	}
}

func (m *MemoryStore) Insert(_ context.Context, link *shortener.Link) (*shortener.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byHash[link.Hash]; ok {
		return nil, shortener.ErrHashConflict
	}

	if _, ok := m.ids[link.ID]; ok {
		return nil, shortener.ErrHashConflict
	}

	stored := *link
	m.byHash[link.Hash] = stored
	m.ids[link.ID] = struct{}{}

	return &stored, nil
}

func (m *MemoryStore) GetByHash(_ context.Context, hash shortener.Hash) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.byHash[hash]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &link, nil
}

func (m *MemoryStore) List(_ context.Context) ([]shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	links := make([]shortener.Link, 0, len(m.byHash))
	for _, link := range m.byHash {
		links = append(links, link)
	}

	slices.SortFunc(links, func(a, b shortener.Link) int {
		return cmp.Compare(a.Destination, b.Destination)
	})

	return links, nil
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
