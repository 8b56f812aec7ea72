package artifact

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestPostgres connects to TEST_DATABASE_URL or skips.
func setupTestPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresStore_PutAndListPaginated(t *testing.T) {
	pool := setupTestPostgres(t)
	ctx := context.Background()

	store := NewPostgresStore(pool)
	store.pageSize = 3
	require.NoError(t, store.EnsureSchema(ctx))

	container := "test-" + uuid.NewString()
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM result_artifacts WHERE container = $1`, container)
	})

	for i := 0; i < 7; i++ {
		name := fmt.Sprintf("%d/imageWithDetection.jpg", i)
		require.NoError(t, store.Put(ctx, container, Artifact{Name: name, Locator: "https://store.example/" + name}))
	}
	// Upsert keeps one row per name.
	require.NoError(t, store.Put(ctx, container, Artifact{Name: "0/imageWithDetection.jpg", Locator: "https://store.example/replaced"}))

	items, err := store.List(ctx, container)
	require.NoError(t, err)
	assert.Len(t, items, 7)
	assert.Equal(t, "https://store.example/replaced", items[0].Locator)
}
