package folioadmin

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/folioadmin/views"
)

// ViewFuncs holds the components the console renders. DefaultViews
// returns the embedded ones; tests and forks may swap any of them.
type ViewFuncs struct {
	Page     func(s views.Shell, body templ.Component) templ.Component
	Bare     func(s views.Shell, body templ.Component) templ.Component
	Login    func(p views.LoginPage) templ.Component
	Home     func(p views.HomePage) templ.Component
	List     func(p views.ListPage) templ.Component
	Rows     func(p views.ListPage) templ.Component
	Form     func(p views.FormPage) templ.Component
	Confirm  func(p views.ConfirmPage) templ.Component
	Sessions func(p views.SessionsPage) templ.Component
	Uploads  func(p views.UploadsPage) templ.Component
	Error    func(p views.ErrorPage) templ.Component
}

// DefaultViews returns the built-in pages.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Page:     views.Page,
		Bare:     views.Bare,
		Login:    views.Login,
		Home:     views.Home,
		List:     views.List,
		Rows:     views.Rows,
		Form:     views.Form,
		Confirm:  views.Confirm,
		Sessions: views.Sessions,
		Uploads:  views.Uploads,
		Error:    views.Error,
	}
}

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// page renders body inside the console chrome. Pending notifications and
// flashes saved by an earlier redirect are shown and consumed.
func (a *App) page(c echo.Context, code int, title, active string, body templ.Component) error {
	s := a.shell(c, title, active)
	return RenderStatus(c, code, a.Views.Page(s, body))
}

// fragment renders body alone, for HTMX swaps.
func (a *App) fragment(c echo.Context, code int, body templ.Component) error {
	return RenderStatus(c, code, body)
}

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

func (a *App) shell(c echo.Context, title, active string) views.Shell {
	s := views.Shell{
		Title:   title,
		Active:  active,
		Theme:   LoadPreferences(c.Request()).Theme,
		CSRF:    CsrfToken(c),
		Flashes: a.takeFlashes(c),
	}
	if sess, ok := currentAdmin(c); ok {
		s.Admin = sess.User.Email
		s.Nav = a.nav()
	}
	return s
}

func (a *App) nav() []views.NavItem {
	items := []views.NavItem{{Name: "home", Label: "Overview", Href: "/admin/"}}
	for _, r := range a.resources {
		items = append(items, r.navItem())
	}
	return append(items,
		views.NavItem{Name: "sessions", Label: "Sessions", Href: "/admin/sessions/"},
		views.NavItem{Name: "uploads", Label: "Uploads", Href: "/admin/uploads/"},
	)
}
