package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "EDU"

type (
	Config struct {
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		DefaultFromEmail string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridAPIKey   string

		Server    ServerConfig
		Session   SessionConfig
		Redis     RedisConfig
		Database  DatabaseConfig
		Seed      SeedConfig
		Telemetry TelemetryConfig
	}

	ServerConfig struct {
		Host            string
		Addr            string
		DebugAddr       string
		ShutdownTimeout time.Duration
		PendingRefresh  time.Duration
		DisableCSRF     bool
	}

	SessionConfig struct {
		CookieName   string
		TTL          time.Duration
		IdleTimeout  time.Duration
		SweepEvery   time.Duration
		LoginTimeout time.Duration
		LoginLatency time.Duration
		Backend      string // memory | redis | postgres | sqlite
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	DatabaseConfig struct {
		DSN string // postgres URL or sqlite file path
	}

	SeedConfig struct {
		CredentialsFile string
	}

	TelemetryConfig struct {
		OTLPEndpoint string
		Insecure     bool
	}
)

// NewConfig loads `config/.env.<env>` when present, then reads every setting from
// the environment (prefixed with EDU_) on top of the defaults below.
func NewConfig() *Config {
	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	loadDotEnv(env)

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)
	if env == "TEST" {
		v.SetDefault("testMode", true)
		v.SetDefault("session.loginLatency", time.Duration(0))
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridAPIKey:   v.GetString("sendgridAPIKey"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Addr:            v.GetString("server.addr"),
			DebugAddr:       v.GetString("server.debugAddr"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			PendingRefresh:  v.GetDuration("server.pendingRefresh"),
			DisableCSRF:     v.GetBool("server.disableCSRF"),
		},
		Session: SessionConfig{
			CookieName:   v.GetString("session.cookieName"),
			TTL:          v.GetDuration("session.ttl"),
			IdleTimeout:  v.GetDuration("session.idleTimeout"),
			SweepEvery:   v.GetDuration("session.sweepEvery"),
			LoginTimeout: v.GetDuration("session.loginTimeout"),
			LoginLatency: v.GetDuration("session.loginLatency"),
			Backend:      strings.ToLower(v.GetString("session.backend")),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Database: DatabaseConfig{
			DSN: v.GetString("database.dsn"),
		},
		Seed: SeedConfig{
			CredentialsFile: v.GetString("seed.credentialsFile"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: v.GetString("telemetry.otlpEndpoint"),
			Insecure:     v.GetBool("telemetry.insecure"),
		},
	}
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	positive := map[string]time.Duration{
		"session.idleTimeout":    c.Session.IdleTimeout,
		"session.sweepEvery":     c.Session.SweepEvery,
		"server.shutdownTimeout": c.Server.ShutdownTimeout,
	}
	for key, d := range positive {
		if d <= 0 {
			return errors.Errorf("config: %s must be positive, got %s", key, d)
		}
	}
	// a zero TTL means session records and client cookies never expire
	nonNegative := map[string]time.Duration{
		"session.ttl":          c.Session.TTL,
		"session.loginTimeout": c.Session.LoginTimeout,
		"session.loginLatency": c.Session.LoginLatency,
	}
	for key, d := range nonNegative {
		if d < 0 {
			return errors.Errorf("config: %s must not be negative, got %s", key, d)
		}
	}
	switch c.Session.Backend {
	case "memory", "redis", "postgres", "sqlite":
	default:
		return errors.Errorf("config: unknown session backend %q", c.Session.Backend)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "EduAtipico")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "k2v!9s#qz-dev-only-0r$w7m^x1c&h4e@p8u(t3n)y6b")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:8000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridAPIKey", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debugAddr", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.pendingRefresh", 1*time.Second)
	v.SetDefault("server.disableCSRF", false)

	v.SetDefault("session.cookieName", "eduatipico_client")
	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("session.idleTimeout", 30*time.Minute)
	v.SetDefault("session.sweepEvery", 5*time.Minute)
	v.SetDefault("session.loginTimeout", 5*time.Second)
	v.SetDefault("session.loginLatency", time.Duration(0))
	v.SetDefault("session.backend", "memory")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.dsn", "")
	v.SetDefault("seed.credentialsFile", "")
	v.SetDefault("telemetry.otlpEndpoint", "")
	v.SetDefault("telemetry.insecure", false)
}

// loadDotEnv loads `config/.env.<env>` if it exists (ignored if it does not).
func loadDotEnv(env string) {
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
}
