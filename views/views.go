// Package views renders the console's pages. Pages are html/template files
// embedded in the binary and exposed as templ components so handlers deal
// with one component type throughout.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var files embed.FS

var pages = template.Must(template.New("").Funcs(funcs).ParseFS(files, "templates/*.html"))

func page(name string, data any) templ.Component {
	return templ.FromGoHTML(pages.Lookup(name), data)
}

type shellData struct {
	Shell
	Body template.HTML
}

// Page wraps body in the console chrome: head, sidebar, flashes.
func Page(s Shell, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		html, err := templ.ToGoHTML(ctx, body)
		if err != nil {
			return err
		}
		return pages.ExecuteTemplate(w, "layout", shellData{Shell: s, Body: html})
	})
}

// Bare renders the chrome without navigation, for the login page.
func Bare(s Shell, body templ.Component) templ.Component {
	s.Nav = nil
	s.Admin = ""
	return Page(s, body)
}

func Login(p LoginPage) templ.Component       { return page("login", p) }
func Home(p HomePage) templ.Component         { return page("home", p) }
func List(p ListPage) templ.Component         { return page("list", p) }
func Rows(p ListPage) templ.Component         { return page("rows", p) }
func Form(p FormPage) templ.Component         { return page("form", p) }
func Confirm(p ConfirmPage) templ.Component   { return page("confirm", p) }
func Sessions(p SessionsPage) templ.Component { return page("sessions", p) }
func Uploads(p UploadsPage) templ.Component   { return page("uploads", p) }
func Error(p ErrorPage) templ.Component       { return page("error", p) }
