package main

import (
	"context"
	"log"
	"os"

	"github.com/eduatipico/portal/core"
	"github.com/eduatipico/portal/core/session"
	"github.com/eduatipico/portal/storage"
)

func main() {
	logger := log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()
	if err := conf.Validate(); err != nil {
		logger.Fatalf("error: %s\n", err)
	}

	cli := commandLine{
		conf: conf,
		out:  os.Stdout,
		openBackend: func(ctx context.Context) (session.Backend, func() error, error) {
			return storage.OpenSessionBackend(ctx, conf)
		},
		migrate: migrateDB(conf),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("error: %s\n", err)
		}
		os.Exit(1)
	}
}
