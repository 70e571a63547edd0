// Package dbtest starts a disposable MongoDB for repository integration tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/db"
	"github.com/dovl-commerce/dovl-backend/pkg/migrate"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo starts a mongo:7 container, applies the application indexes and
// returns a connected client. Tests are skipped under -short.
func Mongo(t *testing.T) *db.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mongo integration test in short mode")
	}

	ctx := context.Background()
	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	conn, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri).SetRegistry(db.Registry()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Disconnect(context.Background()) })

	client := db.Wrap(conn, "dovl_test")
	require.NoError(t, migrate.EnsureIndexes(ctx, client.Database()))
	return client
}
