package tests

import (
	"testing"
	"time"

	. "github.com/eduatipico/portal/apps/api/echo"
	"github.com/eduatipico/portal/core"
	"github.com/eduatipico/portal/core/record"
	"github.com/eduatipico/portal/core/session"
	"github.com/eduatipico/portal/core/user"
	"github.com/eduatipico/portal/services/email"
	"github.com/eduatipico/portal/services/logger"
	"github.com/eduatipico/portal/storage/database/inmem"
)

// seeded demo accounts
const (
	adminEmail       = "admin@eduatipico.com"
	cuidadorEmail    = "maria@eduatipico.com"
	responsavelEmail = "joao@eduatipico.com"
	studentEmail     = "ana@eduatipico.com"
)

var passwords = map[string]string{
	adminEmail:       "admin123",
	cuidadorEmail:    "cuidador123",
	responsavelEmail: "responsavel123",
	studentEmail:     "student123",
}

type testEnv struct {
	app      Server
	conf     *core.Config
	backend  session.Backend
	usrRepo  user.Repository
	recSvc   record.ServiceInterface
	mailSvc  *emailsvc.ConsoleService
	registry *session.Registry
}

type setupOpts struct {
	auth    session.Authenticator // defaults to the user service
	backend session.Backend
	csrf    bool

	loginTimeout time.Duration
}

func testConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.SecretKey = "test-secret"
	conf.Server.DisableCSRF = true
	conf.Session.LoginTimeout = time.Second
	conf.Session.LoginLatency = 0
	return conf
}

func setup(t *testing.T, opts ...setupOpts) *testEnv {
	t.Helper()
	var o setupOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	conf := testConfig()
	conf.Server.DisableCSRF = !o.csrf
	if o.loginTimeout > 0 {
		conf.Session.LoginTimeout = o.loginTimeout
	}
	logger := logsvc.NewDiscardLogger()

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	recRepo := inmemdb.NewRecordRepository(db)
	if err := user.Seed(usrRepo, ""); err != nil {
		t.Fatalf("user.Seed() failed: %v", err)
	}
	if err := record.Seed(recRepo); err != nil {
		t.Fatalf("record.Seed() failed: %v", err)
	}

	// set up services
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	record.InitValidators(validate, translator)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	recSvc := record.NewService(recRepo)

	auth := o.auth
	if auth == nil {
		auth = usrSvc
	}
	backend := o.backend
	if backend == nil {
		backend = inmemdb.NewSessionBackend()
	}
	registry := session.NewRegistry(backend, auth, logger, session.RegistryOptions{
		Options: session.Options{LoginTimeout: conf.Session.LoginTimeout},
		TTL:     conf.Session.TTL,
	})

	// set up server
	app := NewServer(&Options{
		Conf:           conf,
		Logger:         logger,
		Registry:       registry,
		UserSvc:        usrSvc,
		RecordSvc:      recSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})

	return &testEnv{
		app:      app,
		conf:     conf,
		backend:  backend,
		usrRepo:  usrRepo,
		recSvc:   recSvc,
		mailSvc:  mailSvc,
		registry: registry,
	}
}

// loggedIn returns a browser holding the session of email.
func (env *testEnv) loggedIn(t *testing.T, email string) *browser {
	b := newBrowser(t, env.app)
	b.login(email, passwords[email])
	return b
}
