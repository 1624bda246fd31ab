// Package folioadmin is the administration console of a personal portfolio
// site. It edits the rows of a PostgREST/GoTrue backend (bio, education,
// experience, skills, projects, blog posts, messages, dashboards), manages
// the admin's sign-in sessions and uploads images to object storage.
//
// Pages are server-rendered with echo and templ; every entity goes through
// an entity hook so reads are cached and mutations invalidate the cache.
package folioadmin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/eringen/folioadmin/entity"
	"github.com/eringen/folioadmin/logging"
	"github.com/eringen/folioadmin/query"
	"github.com/eringen/folioadmin/remote"
	"github.com/eringen/folioadmin/storage"
)

// App is the central console application. It wires together the backend
// client, query cache, entity hooks, journal, handlers and middleware.
type App struct {
	Config  Config
	Echo    *echo.Echo
	Remote  *remote.Client
	Cache   *query.Cache
	Hooks   *entity.Hooks
	Journal Journal
	Bucket  ObjectStore
	Logger  *logrus.Logger
	Views   ViewFuncs

	loginLimiter *LoginLimiter
	httpClient   *http.Client
	resources    []routable
	stopWatch    func()
}

// WithObjectStore replaces the bucket built from the storage settings.
func WithObjectStore(s ObjectStore) Option {
	return func(a *App) {
		a.Bucket = s
	}
}

// New builds the console. It opens the journal but does not contact the
// backend.
func New(cfg Config, opts ...Option) (*App, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  DefaultViews(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}

	if a.Logger == nil {
		logger, err := logging.NewLogger(a.Config.LogLevel)
		if err != nil {
			return nil, err
		}
		a.Logger = logger
	}

	client, err := remote.NewClient(remote.Options{
		BaseURL:    a.Config.BackendURL,
		AnonKey:    a.Config.BackendAnonKey,
		Timeout:    a.Config.RemoteTimeout,
		HTTPClient: a.httpClient,
		Logger:     a.Logger,
	})
	if err != nil {
		return nil, eris.Wrap(err, "creating backend client")
	}
	a.Remote = client

	if a.Journal == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return nil, eris.Wrap(err, "opening journal")
		}
		a.Journal = store
	}

	if a.Bucket == nil && a.Config.Storage().Enabled() {
		bucket, err := storage.New(a.Config.Storage())
		if err != nil {
			a.Journal.Close()
			return nil, eris.Wrap(err, "configuring object storage")
		}
		a.Bucket = bucket
	}

	a.Cache = query.New(a.Config.CacheStaleTime)
	a.Hooks = entity.NewHooks(entity.Deps{
		Backend: a.Remote,
		Cache:   a.Cache,
		Journal: a.Journal,
		Logger:  a.Logger,
	})
	a.stopWatch = a.Hooks.Watch()
	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.resources = a.buildResources()

	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.StaticDir)
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	})
	e.GET("/healthz/", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/admin/login/", a.handleLoginPage)
	e.POST("/admin/login/", a.handleLogin)
	e.POST("/admin/logout/", a.handleLogout)
	e.POST("/admin/theme/", a.handleTheme)

	admin := e.Group("/admin", a.requireAdmin)
	admin.GET("/", a.handleHome)
	for _, r := range a.resources {
		r.register(admin)
	}

	admin.GET("/sessions/", a.handleSessions)
	admin.POST("/sessions/revoke-others/", a.handleRevokeOthers)
	admin.POST("/sessions/:id/revoke/", a.handleRevokeSession)

	admin.GET("/uploads/", a.handleUploads)
	admin.POST("/uploads/", a.handleUpload, middleware.BodyLimit("12M"))
	admin.GET("/uploads/delete/", a.handleConfirmUploadDelete)
	admin.POST("/uploads/delete/", a.handleUploadDelete)
}

// Start serves until ctx is done, then shuts down gracefully.
func (a *App) Start(ctx context.Context) error {
	if b, ok := a.Bucket.(interface{ EnsureBucket(context.Context) error }); ok {
		if err := b.EnsureBucket(ctx); err != nil {
			a.Logger.WithError(err).Warn("object storage unavailable, uploads will fail")
		}
	}

	a.Logger.WithField("addr", a.Config.Addr).Info("starting http server")

	errCh := make(chan error, 1)
	go func() {
		err := a.Echo.Start(a.Config.Addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return eris.Wrap(err, "http server error")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownGrace)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutting down http server")
	}
	a.Logger.Info("http server shut down cleanly")
	return nil
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	if a.Journal != nil {
		return a.Journal.Close()
	}
	return nil
}
