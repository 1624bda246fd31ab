package folioadmin

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	themeCookie = "theme"

	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Preferences are the console-wide display settings kept in the browser.
type Preferences struct {
	Theme string
}

// LoadPreferences reads the theme cookie. A missing or unknown value means
// the light theme.
func LoadPreferences(r *http.Request) Preferences {
	p := Preferences{Theme: ThemeLight}
	if ck, err := r.Cookie(themeCookie); err == nil && ck.Value == ThemeDark {
		p.Theme = ThemeDark
	}
	return p
}

// Toggled returns p with the other theme.
func (p Preferences) Toggled() Preferences {
	if p.Theme == ThemeDark {
		return Preferences{Theme: ThemeLight}
	}
	return Preferences{Theme: ThemeDark}
}

// Save writes p back to the browser.
func (p Preferences) Save(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     themeCookie,
		Value:    p.Theme,
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 365,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *App) handleTheme(c echo.Context) error {
	LoadPreferences(c.Request()).Toggled().Save(c.Response(), a.Config.CookieSecure)
	return c.Redirect(http.StatusSeeOther, backTo(c.Request().Referer()))
}

// backTo keeps the admin on the page they toggled from, but never leaves
// the console.
func backTo(referer string) string {
	u, err := url.Parse(referer)
	if err != nil || !strings.HasPrefix(u.Path, "/admin/") {
		return "/admin/"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
