package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduatipico/portal/core/session"
	"github.com/eduatipico/portal/storage/database"
)

func TestSessionBackend_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	require.NoError(t, database.Migrate(ctx, db))
	require.NoError(t, database.Migrate(ctx, db), "migrations are idempotent")

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	b := NewSessionBackend(db)
	b.nowFunc = func() time.Time { return now }

	_, err = b.Get(ctx, "eduatipico_user:c1")
	assert.Equal(t, session.ErrNoRecord, err)

	require.NoError(t, b.Set(ctx, "eduatipico_user:c1", []byte(`{"id":"1"}`), 0))
	require.NoError(t, b.Set(ctx, "eduatipico_user:c1", []byte(`{"id":"2"}`), time.Hour), "set overwrites")
	data, err := b.Get(ctx, "eduatipico_user:c1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"2"}`, string(data))

	require.NoError(t, b.Set(ctx, "eduatipico_user:c2", []byte(`{}`), time.Minute))
	require.NoError(t, b.Set(ctx, "eduatipico_user:c3", []byte(`{}`), 0))

	now = now.Add(2 * time.Minute)
	_, err = b.Get(ctx, "eduatipico_user:c2")
	assert.Equal(t, session.ErrNoRecord, err, "expired")

	require.NoError(t, b.Set(ctx, "eduatipico_user:c4", []byte(`{}`), time.Second))
	now = now.Add(time.Minute)
	n, err := b.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = b.Get(ctx, "eduatipico_user:c3")
	assert.NoError(t, err, "no ttl never expires")

	require.NoError(t, b.Delete(ctx, "eduatipico_user:c1"))
	require.NoError(t, b.Delete(ctx, "eduatipico_user:c1"), "deleting twice is fine")
	_, err = b.Get(ctx, "eduatipico_user:c1")
	assert.Equal(t, session.ErrNoRecord, err)
}
