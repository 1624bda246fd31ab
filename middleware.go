package folioadmin

import (
	"crypto/sha256"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/eringen/folioadmin/notify"
	"github.com/eringen/folioadmin/remote"
	"github.com/eringen/folioadmin/views"
)

const (
	sessionName = "folioadmin_session"

	adminKey = "admin"
	flashKey = "flashes"

	// An access token this close to expiry is refreshed before use.
	refreshLeeway = 60 * time.Second
)

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := a.Logger.WithFields(logrus.Fields{
				"method":      v.Method,
				"uri":         v.URI,
				"status":      v.Status,
				"duration_ms": float64(v.Latency.Microseconds()) / 1000,
				"request_id":  v.RequestID,
				"remote_ip":   v.RemoteIP,
			})
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			if v.Status >= 500 {
				entry.Error("request failed")
			} else {
				entry.Info("request completed")
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/public/")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "same-origin",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; frame-src https:; connect-src 'self'",
		HSTSMaxAge:            31536000,
	}))

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		ContextKey:     middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.CookieSecure,
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))

	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/public")
		},
	}))

	e.Use(cacheControlMiddleware)
	e.Use(a.notifications)
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if strings.HasPrefix(c.Request().URL.Path, "/public/") {
			c.Response().Header().Set("Cache-Control", "public, max-age=86400")
		} else {
			c.Response().Header().Set("Cache-Control", "no-store")
		}
		return next(c)
	}
}

// newSessionStore derives separate signing and encryption keys from the
// configured secret, so the cookie holding the tokens is never readable by
// the browser.
func (a *App) newSessionStore() *sessions.CookieStore {
	hashKey := sha256.Sum256([]byte("folioadmin/hash:" + a.Config.SessionSecret))
	blockKey := sha256.Sum256([]byte("folioadmin/block:" + a.Config.SessionSecret))
	store := sessions.NewCookieStore(hashKey[:], blockKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 24 * 7,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// flashBox collects the notifications raised while handling one request.
// Whatever the page does not show is saved as session flashes so it
// survives a redirect.
type flashBox struct {
	mu      sync.Mutex
	pending []notify.Message
}

func (b *flashBox) Notify(m notify.Message) {
	b.mu.Lock()
	b.pending = append(b.pending, m)
	b.mu.Unlock()
}

func (b *flashBox) take() []notify.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out
}

// withdraw drops pending notifications of kind with text.
func (b *flashBox) withdraw(kind notify.Kind, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.pending[:0]
	for _, m := range b.pending {
		if m.Kind != kind || m.Text != text {
			kept = append(kept, m)
		}
	}
	b.pending = kept
}

func (a *App) notifications(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		box := &flashBox{}
		c.Set(flashKey, box)
		req := c.Request()
		c.SetRequest(req.WithContext(notify.WithNotifier(req.Context(), box)))

		c.Response().Before(func() {
			msgs := box.take()
			if len(msgs) == 0 {
				return
			}
			sess, err := session.Get(sessionName, c)
			if err != nil {
				return
			}
			for _, m := range msgs {
				sess.AddFlash(m.Text, string(m.Kind))
			}
			if err := sess.Save(c.Request(), c.Response()); err != nil {
				a.Logger.WithError(err).Warn("saving flashes failed")
			}
		})
		return next(c)
	}
}

// takeFlashes returns the flashes saved by an earlier response followed by
// the notifications raised so far in this one.
func (a *App) takeFlashes(c echo.Context) []views.Flash {
	var out []views.Flash
	if sess, err := session.Get(sessionName, c); err == nil {
		dirty := false
		for _, kind := range []notify.Kind{notify.KindSuccess, notify.KindError} {
			for _, f := range sess.Flashes(string(kind)) {
				if text, ok := f.(string); ok {
					out = append(out, views.Flash{Kind: string(kind), Text: text})
				}
				dirty = true
			}
		}
		if dirty {
			if err := sess.Save(c.Request(), c.Response()); err != nil {
				a.Logger.WithError(err).Warn("clearing flashes failed")
			}
		}
	}
	if box, ok := c.Get(flashKey).(*flashBox); ok {
		for _, m := range box.take() {
			out = append(out, views.Flash{Kind: string(m.Kind), Text: m.Text})
		}
	}
	return out
}

// withdrawError drops a pending error notification the page is about to
// show in place.
func withdrawError(c echo.Context, text string) {
	if box, ok := c.Get(flashKey).(*flashBox); ok {
		box.withdraw(notify.KindError, text)
	}
}

// requireAdmin lets signed-in admins through with their session on the
// request context. A token near expiry is refreshed first; if that fails
// the admin is signed out.
func (a *App) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s, ok := storedSession(c)
		if !ok {
			return a.toLogin(c)
		}
		if time.Until(s.Expiry()) < refreshLeeway {
			fresh, err := a.Remote.Refresh(c.Request().Context(), s.RefreshToken)
			if err != nil {
				a.Logger.WithError(err).WithField("email", s.User.Email).Info("token refresh failed, signing out")
				_ = clearAdminSession(c)
				notify.Error(c.Request().Context(), "Your session expired. Please sign in again.")
				return a.toLogin(c)
			}
			if fresh.User.Email == "" {
				fresh.User = s.User
			}
			s = fresh
			if err := setAdminSession(c, s); err != nil {
				return err
			}
		}
		c.Set(adminKey, s)
		req := c.Request()
		c.SetRequest(req.WithContext(remote.WithSession(req.Context(), s)))
		return next(c)
	}
}

func (a *App) toLogin(c echo.Context) error {
	if isHTMX(c) {
		c.Response().Header().Set("HX-Redirect", "/admin/login/")
		return c.NoContent(http.StatusUnauthorized)
	}
	return c.Redirect(http.StatusSeeOther, "/admin/login/")
}

// currentAdmin returns the session requireAdmin admitted.
func currentAdmin(c echo.Context) (remote.Session, bool) {
	s, ok := c.Get(adminKey).(remote.Session)
	return s, ok
}

// IsAdmin checks if the current cookie carries a signed-in admin.
func IsAdmin(c echo.Context) bool {
	_, ok := storedSession(c)
	return ok
}

func storedSession(c echo.Context) (remote.Session, bool) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return remote.Session{}, false
	}
	access, _ := sess.Values["access_token"].(string)
	if access == "" {
		return remote.Session{}, false
	}
	refresh, _ := sess.Values["refresh_token"].(string)
	expires, _ := sess.Values["expires_at"].(int64)
	id, _ := sess.Values["user_id"].(string)
	email, _ := sess.Values["email"].(string)
	return remote.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expires,
		User:         remote.User{ID: id, Email: email},
	}, true
}

func setAdminSession(c echo.Context, s remote.Session) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values["access_token"] = s.AccessToken
	sess.Values["refresh_token"] = s.RefreshToken
	sess.Values["expires_at"] = s.ExpiresAt
	sess.Values["user_id"] = s.User.ID
	sess.Values["email"] = s.User.Email
	return sess.Save(c.Request(), c.Response())
}

// clearAdminSession drops the tokens but keeps the cookie, so flashes
// raised while signing out still reach the login page.
func clearAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	for _, k := range []string{"access_token", "refresh_token", "expires_at", "user_id", "email"} {
		delete(sess.Values, k)
	}
	return sess.Save(c.Request(), c.Response())
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
