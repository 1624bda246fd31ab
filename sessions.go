package folioadmin

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folioadmin/remote"
	"github.com/eringen/folioadmin/views"
)

func (a *App) handleSessions(c echo.Context) error {
	ctx := c.Request().Context()
	hook := a.Hooks.Sessions
	res := hook.Read(ctx)
	current := hook.CurrentID(ctx)

	page := views.SessionsPage{
		CanRevokeOthers: current != "",
		CSRF:            CsrfToken(c),
	}
	if res.Err != nil {
		if sessionRejected(res.Err) {
			return res.Err
		}
		page.Err = remote.Message(res.Err)
	}
	for _, s := range res.Data {
		page.Sessions = append(page.Sessions, views.SessionItem{
			ID:        s.ID,
			CreatedAt: shortTimestamp(s.CreatedAt),
			UserAgent: s.UserAgent,
			IP:        s.IP,
			Current:   s.ID == current,
		})
	}
	return a.page(c, http.StatusOK, "Sessions", "sessions", a.Views.Sessions(page))
}

func (a *App) handleRevokeSession(c echo.Context) error {
	id, err := url.PathUnescape(c.Param("id"))
	if err != nil || id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	// The hook reports other failures to the admin.
	if err := a.Hooks.Sessions.RevokeOne(c.Request().Context(), id); sessionRejected(err) {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/sessions/")
}

func (a *App) handleRevokeOthers(c echo.Context) error {
	if err := a.Hooks.Sessions.RevokeOthers(c.Request().Context()); sessionRejected(err) {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/sessions/")
}

// shortTimestamp renders "2026-01-02T15:04:05.000Z" as "2026-01-02 15:04".
func shortTimestamp(ts string) string {
	if len(ts) >= 16 && ts[10] == 'T' {
		return ts[:10] + " " + ts[11:16]
	}
	return ts
}
