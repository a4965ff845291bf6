package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aretw0/refgraph/pkg/adapters/postgres"
	"github.com/aretw0/refgraph/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set REFGRAPH_TEST_POSTGRES_DSN to run the contract against a live server.
func TestPostgresStore_Contract(t *testing.T) {
	dsn := os.Getenv("REFGRAPH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("REFGRAPH_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	table := fmt.Sprintf("refgraph_test_%d", time.Now().UnixNano())

	store, err := postgres.New(ctx, dsn, postgres.WithTable(table))
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = store.DB().Exec("DROP TABLE " + table)
		_ = store.Close()
	})

	ports.RunSnapshotStoreContract(t, store)
}

func TestPostgresStore_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := postgres.New(ctx, "postgres://refgraph@127.0.0.1:1/refgraph?sslmode=disable&connect_timeout=1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping postgres")
}
