package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		in, driver, dsn string
	}{
		{"postgres://u:p@localhost:5432/retreat?sslmode=disable", DriverPostgres, "postgres://u:p@localhost:5432/retreat?sslmode=disable"},
		{"sqlite:///var/lib/retreat.db", DriverSQLite, "/var/lib/retreat.db"},
		{"sqlite:retreat.db", DriverSQLite, "retreat.db"},
		{"file::memory:", DriverSQLite, "file::memory:"},
	}
	for _, tt := range tests {
		driver, dsn := resolve(tt.in)
		assert.Equal(t, tt.driver, driver, tt.in)
		assert.Equal(t, tt.dsn, dsn, tt.in)
	}
}

func TestNewDBSQLite(t *testing.T) {
	db, err := NewDB(context.Background(), "sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, DriverSQLite, db.Driver)
	assert.True(t, db.Healthy(context.Background()))

	var nilDB *DB
	assert.False(t, nilDB.Healthy(context.Background()))
	assert.NoError(t, nilDB.Close())
}

func TestNewRedis(t *testing.T) {
	r, err := NewRedis("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", r.Client.Options().Addr)
	require.NoError(t, r.Close())

	r, err = NewRedis("redis://:secret@cache.internal:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", r.Client.Options().Addr)
	assert.Equal(t, "secret", r.Client.Options().Password)
	assert.Equal(t, 2, r.Client.Options().DB)
	require.NoError(t, r.Close())

	_, err = NewRedis("redis://cache.internal:6380/notanumber")
	assert.Error(t, err)
}
