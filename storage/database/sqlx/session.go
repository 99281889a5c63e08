package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/eduatipico/portal/core/session"
)

// SessionBackend keeps persisted session records in the session_records table.
// Queries are written with `?` and rebound for the driver in use.
type SessionBackend struct {
	db      *sqlx.DB
	nowFunc func() time.Time
}

var _ session.Backend = (*SessionBackend)(nil)

func NewSessionBackend(db *sqlx.DB) *SessionBackend {
	return &SessionBackend{db: db, nowFunc: time.Now}
}

type sessionRow struct {
	Value     string `db:"value"`
	ExpiresAt int64  `db:"expires_at"`
}

func (b *SessionBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var row sessionRow
	q := b.db.Rebind(`SELECT value, expires_at FROM session_records WHERE record_key = ?`)
	if err := b.db.GetContext(ctx, &row, q, key); err != nil {
		if err == sql.ErrNoRows {
			return nil, session.ErrNoRecord
		}
		return nil, errors.Wrap(err, "selecting session record")
	}
	if row.ExpiresAt != 0 && b.nowFunc().UnixNano() >= row.ExpiresAt {
		if err := b.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, session.ErrNoRecord
	}
	return []byte(row.Value), nil
}

func (b *SessionBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = b.nowFunc().Add(ttl).UnixNano()
	}
	q := b.db.Rebind(`INSERT INTO session_records (record_key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (record_key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`)
	if _, err := b.db.ExecContext(ctx, q, key, string(value), expiresAt); err != nil {
		return errors.Wrap(err, "upserting session record")
	}
	return nil
}

func (b *SessionBackend) Delete(ctx context.Context, key string) error {
	q := b.db.Rebind(`DELETE FROM session_records WHERE record_key = ?`)
	if _, err := b.db.ExecContext(ctx, q, key); err != nil {
		return errors.Wrap(err, "deleting session record")
	}
	return nil
}

// Purge deletes expired records and returns how many were removed.
func (b *SessionBackend) Purge(ctx context.Context) (int64, error) {
	q := b.db.Rebind(`DELETE FROM session_records WHERE expires_at <> 0 AND expires_at <= ?`)
	res, err := b.db.ExecContext(ctx, q, b.nowFunc().UnixNano())
	if err != nil {
		return 0, errors.Wrap(err, "purging session records")
	}
	return res.RowsAffected()
}
