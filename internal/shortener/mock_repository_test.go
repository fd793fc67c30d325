package shortener_test

import (
	"context"
	"errors"

	"github.com/serroba/shortlink/internal/shortener"
)

var errMock = errors.New("mock error")

// mockRepository is a test double for shortener.Repository.
type mockRepository struct {
	insertErrs   []error
	getErr       error
	listErr      error
	listResult   []shortener.Link
	inserted     []*shortener.Link
	insertCalls  int
	getHashCalls []shortener.Hash
}

func (m *mockRepository) Insert(_ context.Context, link *shortener.Link) (*shortener.Link, error) {
	m.insertCalls++

	if len(m.insertErrs) > 0 {
		err := m.insertErrs[0]
		m.insertErrs = m.insertErrs[1:]

		if err != nil {
			return nil, err
		}
	}

	m.inserted = append(m.inserted, link)

	stored := *link

	return &stored, nil
}

func (m *mockRepository) GetByHash(_ context.Context, hash shortener.Hash) (*shortener.Link, error) {
	m.getHashCalls = append(m.getHashCalls, hash)

	if m.getErr != nil {
		return nil, m.getErr
	}

	for _, link := range m.inserted {
		if link.Hash == hash {
			found := *link

			return &found, nil
		}
	}

	return nil, shortener.ErrNotFound
}

func (m *mockRepository) List(_ context.Context) ([]shortener.Link, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	return m.listResult, nil
}
