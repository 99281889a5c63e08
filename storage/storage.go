package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/eduatipico/portal/core"
	"github.com/eduatipico/portal/core/session"
	"github.com/eduatipico/portal/storage/database"
	inmemdb "github.com/eduatipico/portal/storage/database/inmem"
	sqlxrepos "github.com/eduatipico/portal/storage/database/sqlx"
	redisstore "github.com/eduatipico/portal/storage/redis"
)

// Session record backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Purger is implemented by backends that keep expired records until told to drop them.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// OpenSessionBackend opens the session record backend selected by conf.Session.Backend.
// SQL backends are migrated. The returned func releases the connection.
func OpenSessionBackend(ctx context.Context, conf *core.Config) (session.Backend, func() error, error) {
	noop := func() error { return nil }

	switch conf.Session.Backend {
	case BackendMemory, "":
		return inmemdb.NewSessionBackend(), noop, nil

	case BackendRedis:
		rdb, err := redisstore.Open(ctx, conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.NewSessionBackend(rdb), rdb.Close, nil

	case BackendPostgres, BackendSQLite:
		if engine := database.Engine(conf.Database.DSN); engine != conf.Session.Backend {
			return nil, nil, errors.Errorf("session backend %q does not match database DSN (%s)", conf.Session.Backend, engine)
		}
		db, err := database.Open(ctx, conf.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return sqlxrepos.NewSessionBackend(db), db.Close, nil
	}
	return nil, nil, errors.Errorf("unknown session backend %q", conf.Session.Backend)
}
