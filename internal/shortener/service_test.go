package shortener_test

import (
	"context"
	"testing"

	"github.com/serroba/shortlink/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestService_Create(t *testing.T) {
	t.Run("stores normalized link", func(t *testing.T) {
		repo := &mockRepository{}
		svc := shortener.NewService(repo, zap.NewNop())

		link, err := svc.Create(context.Background(), "https://www.google.com")

		require.NoError(t, err)
		assert.Equal(t, "https://www.google.com/", link.Destination)
		assert.Len(t, string(link.Hash), shortener.HashLength)
		require.Len(t, repo.inserted, 1)
		assert.Equal(t, repo.inserted[0].ID, link.ID)
	})

	t.Run("invalid url never reaches repository", func(t *testing.T) {
		repo := &mockRepository{}
		svc := shortener.NewService(repo, zap.NewNop())

		link, err := svc.Create(context.Background(), "not a url")

		assert.Nil(t, link)
		require.ErrorIs(t, err, shortener.ErrInvalidURL)
		assert.Zero(t, repo.insertCalls)
	})

	t.Run("retries with a new link on hash conflict", func(t *testing.T) {
		repo := &mockRepository{
			insertErrs: []error{shortener.ErrHashConflict, nil},
		}
		svc := shortener.NewService(repo, zap.NewNop())

		link, err := svc.Create(context.Background(), "https://example.com")

		require.NoError(t, err)
		assert.Equal(t, 2, repo.insertCalls)
		assert.Equal(t, "https://example.com/", link.Destination)
	})

	t.Run("fails with database error once attempts are exhausted", func(t *testing.T) {
		repo := &mockRepository{
			insertErrs: []error{
				shortener.ErrHashConflict,
				shortener.ErrHashConflict,
			},
		}
		svc := shortener.NewService(repo, zap.NewNop(), shortener.WithMaxHashAttempts(2))

		link, err := svc.Create(context.Background(), "https://example.com")

		assert.Nil(t, link)
		require.ErrorIs(t, err, shortener.ErrDatabase)
		assert.Equal(t, 2, repo.insertCalls)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		repo := &mockRepository{insertErrs: []error{shortener.ErrDatabase}}
		svc := shortener.NewService(repo, zap.NewNop())

		_, err := svc.Create(context.Background(), "https://example.com")

		require.ErrorIs(t, err, shortener.ErrDatabase)
		assert.Equal(t, 1, repo.insertCalls)
	})

	t.Run("uses injected link factory", func(t *testing.T) {
		repo := &mockRepository{}
		fixed := shortener.NewWithHash("https://ignored.example/")
		factory := func(destination string) *shortener.Link {
			l := *fixed
			l.Destination = destination

			return &l
		}
		svc := shortener.NewService(repo, zap.NewNop(), shortener.WithLinkFactory(factory))

		link, err := svc.Create(context.Background(), "https://example.com/x")

		require.NoError(t, err)
		assert.Equal(t, fixed.ID, link.ID)
		assert.Equal(t, fixed.Hash, link.Hash)
		assert.Equal(t, "https://example.com/x", link.Destination)
	})
}

func TestService_Resolve(t *testing.T) {
	t.Run("returns inserted link", func(t *testing.T) {
		repo := &mockRepository{}
		svc := shortener.NewService(repo, zap.NewNop())

		created, err := svc.Create(context.Background(), "https://example.com")
		require.NoError(t, err)

		got, err := svc.Resolve(context.Background(), created.Hash)

		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("unknown hash is not found", func(t *testing.T) {
		svc := shortener.NewService(&mockRepository{}, zap.NewNop())

		got, err := svc.Resolve(context.Background(), "zzzzz")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("propagates database errors", func(t *testing.T) {
		svc := shortener.NewService(&mockRepository{getErr: shortener.ErrDatabase}, zap.NewNop())

		_, err := svc.Resolve(context.Background(), "abcde")

		assert.ErrorIs(t, err, shortener.ErrDatabase)
	})
}

func TestService_List(t *testing.T) {
	t.Run("returns repository result", func(t *testing.T) {
		links := []shortener.Link{
			*shortener.NewWithHash("https://a.example/"),
			*shortener.NewWithHash("https://b.example/"),
		}
		svc := shortener.NewService(&mockRepository{listResult: links}, zap.NewNop())

		assert.Equal(t, links, svc.List(context.Background()))
	})

	t.Run("returns empty list on failure", func(t *testing.T) {
		svc := shortener.NewService(&mockRepository{listErr: errMock}, zap.NewNop())

		got := svc.List(context.Background())

		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("returns empty list instead of nil", func(t *testing.T) {
		svc := shortener.NewService(&mockRepository{}, zap.NewNop())

		got := svc.List(context.Background())

		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
