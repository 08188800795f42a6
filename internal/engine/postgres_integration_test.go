package engine

import (
	"context"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"alphadb/internal/dialect"
	_ "alphadb/internal/dialect/postgres"
	"alphadb/internal/source"
)

func setupPostgresEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	e, err := New(dialect.PostgreSQL, "testdb")
	require.NoError(t, err)
	require.NoError(t, e.Connect(ctx, "postgres", dsn))
	t.Cleanup(func() { _ = e.Close() })

	return e
}

func TestEnginePostgresLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	e := setupPostgresEngine(t)
	ctx := context.Background()

	initResult, err := e.Init(ctx)
	require.NoError(t, err)
	require.True(t, initResult.TableCreated)
	require.True(t, initResult.RowCreated)

	src := &source.Source{
		Name: "app",
		Version: []source.Version{
			{
				ID: "0.0.1",
				CreateTable: map[string]source.TableDef{
					"users": {
						Columns:     map[string]source.ColumnDef{"id": {"type": "INT", "a_i": true}},
						ColumnOrder: []string{"id"},
						PrimaryKey:  "id",
					},
				},
				CreateTableOrder: []string{"users"},
			},
		},
	}

	require.NoError(t, e.Update(ctx, src, "", true, false, ""))

	status, err := e.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, "0.0.1", status.Version)

	require.NoError(t, e.Vacate(ctx))
}
