package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/eduatipico/portal/core"
	"github.com/eduatipico/portal/storage/database"
)

func migrateDB(conf *core.Config) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if conf.Database.DSN == "" {
			return errors.New("no database configured (EDU_DATABASE_DSN)")
		}
		db, err := database.Open(ctx, conf.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		return database.Migrate(ctx, db)
	}
}
