package folioadmin

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folioadmin/entity"
	"github.com/eringen/folioadmin/notify"
	"github.com/eringen/folioadmin/remote"
	"github.com/eringen/folioadmin/views"
)

// sessionRejected reports whether the backend refused the admin's token.
// A 403 keeps the admin signed in.
func sessionRejected(err error) bool {
	re, ok := remote.AsError(err)
	return ok && re.Unauthorized()
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	// The backend no longer accepts the stored token.
	if sessionRejected(err) {
		_ = clearAdminSession(c)
		notify.Error(c.Request().Context(), "Your session expired. Please sign in again.")
		_ = a.toLogin(c)
		return
	}

	code := http.StatusInternalServerError
	msg := ""
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		if code < 500 {
			msg = fmt.Sprint(he.Message)
		}
	case errors.Is(err, entity.ErrNotFound):
		code = http.StatusNotFound
	}

	if code >= 500 {
		a.Logger.WithError(err).WithField("uri", c.Request().RequestURI).Error("server error")
	}

	page := views.ErrorPage{Code: code, Title: http.StatusText(code), Message: msg}
	switch code {
	case http.StatusNotFound:
		page.Title = "Page not found"
		page.Message = "There is nothing at this address."
	case http.StatusInternalServerError:
		page.Title = "Something went wrong"
		page.Message = "The error has been logged."
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if err := a.page(c, code, page.Title, "", a.Views.Error(page)); err != nil {
		a.Logger.WithError(err).Error("rendering error page failed")
	}
}
