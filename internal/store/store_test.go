package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"foody/indexer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDetail(id, tag string) *domain.ItemDetail {
	return &domain.ItemDetail{
		ID: id,
		ItemBody: domain.ItemBody{
			Name:    "Cơm Nhà " + id,
			Link:    "https://www.foody.vn/ha-noi/" + id,
			Avatar:  "https://images.foody.vn/" + id + ".jpg",
			Address: "12 Main St - Hoàn Kiếm",
			Tag:     tag,
			Menu: []domain.MenuLine{
				{Name: "Bún chả", Price: 45000, Desc: domain.EmptyDescription},
				{Name: "Nem", Price: 30000, Desc: "giòn"},
			},
		},
	}
}

// testDocumentStore checks the contract every backend must honour.
func testDocumentStore(t *testing.T, s DocumentStore) {
	ctx := context.Background()

	t.Run("exists on empty store", func(t *testing.T) {
		found, err := s.Exists(ctx, "a")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("upsert then exists", func(t *testing.T) {
		require.NoError(t, s.Upsert(ctx, sampleDetail("a", "Quán ăn")))
		found, err := s.Exists(ctx, "a")
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("duplicate id overwrites", func(t *testing.T) {
		require.NoError(t, s.Upsert(ctx, sampleDetail("a", "Cafe")))
		require.NoError(t, s.Upsert(ctx, sampleDetail("b", "Quán ăn")))

		var docs []*domain.ItemDetail
		require.NoError(t, s.Scan(ctx, func(d *domain.ItemDetail) error {
			docs = append(docs, d)
			return nil
		}))

		require.Len(t, docs, 2)
		byID := map[string]*domain.ItemDetail{}
		for _, d := range docs {
			byID[d.ID] = d
		}
		assert.Equal(t, "Cafe", byID["a"].Tag)
		assert.Equal(t, sampleDetail("a", "Cafe"), byID["a"])
	})

	t.Run("scan stops on callback error", func(t *testing.T) {
		stop := errors.New("stop")
		calls := 0
		err := s.Scan(ctx, func(*domain.ItemDetail) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	testDocumentStore(t, s)
	assert.Equal(t, 2, s.Len())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "items.db")
	s, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()

	testDocumentStore(t, s)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "items.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, sampleDetail("persisted", "Quán ăn")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	found, err := s.Exists(ctx, "persisted")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestPostgresStore(t *testing.T) {
	databaseURL := os.Getenv("FOODY_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("FOODY_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := ConnectPostgres(ctx, databaseURL)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.EnsureSchema(ctx))
	_, err = s.db.Exec(ctx, `TRUNCATE items`)
	require.NoError(t, err)

	testDocumentStore(t, s)
}

func TestCountToExists(t *testing.T) {
	found, err := countToExists("x", 0)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = countToExists("x", 1)
	require.NoError(t, err)
	assert.True(t, found)

	_, err = countToExists("x", 2)
	assert.ErrorIs(t, err, ErrIntegrity)
}
