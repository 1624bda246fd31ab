package folioadmin

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folioadmin/remote"
	"github.com/eringen/folioadmin/views"
)

func (a *App) handleLoginPage(c echo.Context) error {
	if IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return a.renderLogin(c, http.StatusOK, "", "")
}

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	email := strings.TrimSpace(c.FormValue("email"))
	if !a.loginLimiter.Check(ip) {
		a.Logger.WithField("ip", ip).Warn("sign-in rate limited")
		return a.renderLogin(c, http.StatusTooManyRequests, email, "Too many sign-in attempts. Try again later.")
	}

	s, err := a.Remote.SignIn(c.Request().Context(), email, c.FormValue("password"))
	if err != nil {
		a.loginLimiter.Record(ip)
		a.Logger.WithError(err).WithField("ip", ip).Info("sign-in failed")
		msg := "Sign-in failed. Check your email and password."
		if re, ok := remote.AsError(err); ok && re.Status == 0 {
			msg = "The backend could not be reached. Try again later."
		}
		return a.renderLogin(c, http.StatusUnauthorized, email, msg)
	}
	a.loginLimiter.Reset(ip)
	if s.User.Email == "" {
		s.User.Email = email
	}
	if err := setAdminSession(c, s); err != nil {
		return err
	}
	a.Logger.WithField("email", s.User.Email).Info("admin signed in")
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleLogout(c echo.Context) error {
	if s, ok := storedSession(c); ok {
		ctx := remote.WithSession(c.Request().Context(), s)
		if err := a.Remote.SignOut(ctx); err != nil {
			a.Logger.WithError(err).Warn("remote sign-out failed")
		}
	}
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/login/")
}

func (a *App) renderLogin(c echo.Context, code int, email, msg string) error {
	s := a.shell(c, "Sign in", "")
	return RenderStatus(c, code, a.Views.Bare(s, a.Views.Login(views.LoginPage{
		Email: email,
		Error: msg,
		CSRF:  CsrfToken(c),
	})))
}
