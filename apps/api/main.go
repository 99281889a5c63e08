package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/eduatipico/portal/apps/api/echo"
	"github.com/eduatipico/portal/core"
	"github.com/eduatipico/portal/core/record"
	"github.com/eduatipico/portal/core/session"
	"github.com/eduatipico/portal/core/user"
	"github.com/eduatipico/portal/services/email"
	"github.com/eduatipico/portal/services/logger"
	"github.com/eduatipico/portal/services/telemetry"
	"github.com/eduatipico/portal/storage"
	"github.com/eduatipico/portal/storage/database/inmem"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	if err := run(conf, logger); err != nil {
		logger.Fatal(fmt.Sprintf("api: %v", err), err)
	}
}

func run(conf *core.Config, logger core.Logger) error {
	if err := conf.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	shutdownTracing, err := telemetry.Setup(ctx, conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("flushing traces", err)
		}
	}()

	// credential records & student files
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	recRepo := inmemdb.NewRecordRepository(db)
	if err := user.Seed(usrRepo, conf.Seed.CredentialsFile); err != nil {
		return errors.Wrap(err, "seeding users")
	}
	if err := record.Seed(recRepo); err != nil {
		return errors.Wrap(err, "seeding records")
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger, log.New(os.Stdout, "MAIL : ", log.LstdFlags))
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	recSvc := record.NewService(recRepo)

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	record.InitValidators(validate, translator)

	// session records
	backend, closeBackend, err := storage.OpenSessionBackend(ctx, conf)
	if err != nil {
		return errors.Wrap(err, "opening session backend")
	}
	defer func() {
		if err := closeBackend(); err != nil {
			logger.Error("closing session backend", err)
		}
	}()

	registry := session.NewRegistry(backend, usrSvc, logger, session.RegistryOptions{
		Options: session.Options{
			LoginTimeout: conf.Session.LoginTimeout,
			LoginLatency: conf.Session.LoginLatency,
		},
		TTL: conf.Session.TTL,
	})
	go registry.Run(ctx, conf.Session.SweepEvery, conf.Session.IdleTimeout)
	if purger, ok := backend.(storage.Purger); ok {
		go purge(ctx, purger, conf, logger)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("sessionBackend").Set(conf.Session.Backend)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddr, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(&echoapi.Options{
		Conf:           conf,
		Logger:         logger,
		Registry:       registry,
		UserSvc:        usrSvc,
		RecordSvc:      recSvc,
		Validate:       validate,
		Translator:     translator,
		SignalShutdown: stop,
	})

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("API listening on %s", conf.Server.Addr))
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return errors.Wrap(err, "server error")

	case <-ctx.Done():
		logger.Info("Start shutdown...")

		// give outstanding requests a deadline for completion
		sctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Stop(sctx); err != nil {
			return errors.Wrap(err, "could not stop server gracefully")
		}
	}
	return nil
}

// purge drops expired session records from SQL backends.
func purge(ctx context.Context, p storage.Purger, conf *core.Config, logger core.Logger) {
	ticker := time.NewTicker(conf.Session.SweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.Purge(ctx)
			if err != nil {
				logger.Error("purging expired session records", err)
				continue
			}
			if n > 0 {
				logger.Debug("purged expired session records", map[string]interface{}{"count": n})
			}
		}
	}
}
