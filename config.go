package folioadmin

import (
	"net/http"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/eringen/folioadmin/storage"
)

// Config holds all configuration for the console. Values come from the
// environment; a .env file is loaded first by the command.
type Config struct {
	Addr string `env:"ADDR" env-default:":3000"`

	BackendURL     string        `env:"BACKEND_URL" env-required:"true"`
	BackendAnonKey string        `env:"BACKEND_ANON_KEY" env-required:"true"`
	RemoteTimeout  time.Duration `env:"REMOTE_TIMEOUT" env-default:"15s"`

	SessionSecret string `env:"SESSION_SECRET" env-required:"true"`
	CookieSecure  bool   `env:"COOKIE_SECURE" env-default:"false"`

	DatabasePath   string        `env:"DATABASE_PATH" env-default:"data/folioadmin.db"`
	CacheStaleTime time.Duration `env:"CACHE_STALE_TIME" env-default:"5m"`

	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	SentryDSN   string `env:"SENTRY_DSN"`
	Environment string `env:"ENV" env-default:"development"`

	StorageEndpoint  string `env:"STORAGE_ENDPOINT"`
	StorageAccessKey string `env:"STORAGE_ACCESS_KEY"`
	StorageSecretKey string `env:"STORAGE_SECRET_KEY"`
	StorageBucket    string `env:"STORAGE_BUCKET"`
	StorageUseSSL    bool   `env:"STORAGE_USE_SSL" env-default:"false"`
	StoragePublicURL string `env:"STORAGE_PUBLIC_URL"`

	StaticDir     string        `env:"STATIC_DIR" env-default:"public"`
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE" env-default:"10s"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "reading environment")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.BackendURL == "" {
		return eris.New("BACKEND_URL is required")
	}
	if c.BackendAnonKey == "" {
		return eris.New("BACKEND_ANON_KEY is required")
	}
	if len(c.SessionSecret) < 16 {
		return eris.New("SESSION_SECRET must be at least 16 characters")
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/folioadmin.db"
	}
	if c.CacheStaleTime == 0 {
		c.CacheStaleTime = 5 * time.Minute
	}
	if c.RemoteTimeout == 0 {
		c.RemoteTimeout = 15 * time.Second
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.ShutdownGrace == 0 {
		c.ShutdownGrace = 10 * time.Second
	}
}

// Storage returns the object storage settings.
func (c Config) Storage() storage.Options {
	return storage.Options{
		Endpoint:  c.StorageEndpoint,
		AccessKey: c.StorageAccessKey,
		SecretKey: c.StorageSecretKey,
		Bucket:    c.StorageBucket,
		UseSSL:    c.StorageUseSSL,
		PublicURL: c.StoragePublicURL,
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithViews replaces the default page components.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}

// WithLogger sets the logger (default: a JSON logger at LOG_LEVEL).
func WithLogger(l *logrus.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithHTTPClient sets the client used to reach the backend.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) {
		a.httpClient = c
	}
}

// WithJournal replaces the SQLite activity journal.
func WithJournal(j Journal) Option {
	return func(a *App) {
		a.Journal = j
	}
}

// WithStaticDir sets the directory for static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}
