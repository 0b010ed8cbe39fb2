package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qius-alx/social-network/internal/model"
	"github.com/qius-alx/social-network/internal/repository/sqlite"
)

func newTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func storeUser(t *testing.T, db *sqlite.DB, username string) model.Profile {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "hash"}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u.Profile()
}
