package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestPageWrapsBodyInChrome(t *testing.T) {
	s := Shell{
		Title:   "Projects",
		Active:  "projects",
		Theme:   "dark",
		CSRF:    "tok",
		Admin:   "owner@example.com",
		Nav:     []NavItem{{Name: "home", Label: "Overview", Href: "/admin/"}, {Name: "projects", Label: "Projects", Href: "/admin/projects/"}},
		Flashes: []Flash{{Kind: "error", Text: "Could not save <draft>"}},
	}
	out := render(t, Page(s, Rows(ListPage{Items: []Item{{ID: "p1", Title: "Compiler"}}, Total: 1})))

	assert.Contains(t, out, `class="dark"`)
	assert.Contains(t, out, "owner@example.com")
	assert.Contains(t, out, `data-kind="error"`)
	assert.Contains(t, out, "Could not save &lt;draft&gt;")
	assert.Contains(t, out, `data-id="p1"`)
	assert.Contains(t, out, "/admin/projects/")
}

func TestBareHidesNavigation(t *testing.T) {
	s := Shell{Title: "Sign in", Admin: "owner@example.com", Nav: []NavItem{{Name: "home", Label: "Overview", Href: "/admin/"}}}
	out := render(t, Bare(s, Login(LoginPage{Error: "Sign-in failed", CSRF: "tok"})))

	assert.NotContains(t, out, "owner@example.com")
	assert.NotContains(t, out, "/admin/logout/")
	assert.Contains(t, out, `data-error="login"`)
	assert.Contains(t, out, `name="_csrf" value="tok"`)
}

func TestRowsStates(t *testing.T) {
	assert.Contains(t, render(t, Rows(ListPage{IsLoading: true})), `aria-busy="true"`)
	assert.Contains(t, render(t, Rows(ListPage{Err: "offline"})), `data-error="list"`)
	assert.Contains(t, render(t, Rows(ListPage{EmptyText: "Nothing yet."})), "Nothing yet.")
}

func TestFormRendersFieldErrorsAndChips(t *testing.T) {
	out := render(t, Form(FormPage{
		Title:  "New project",
		Action: "/admin/projects/new/",
		Submit: "Create",
		Fields: []Field{
			{Name: "title", Label: "Title", Kind: KindText, Error: "Title is required"},
			{Name: "tags", Label: "Tags", Kind: KindChips, Values: []string{"go", "htmx"}},
		},
		General: "Backend unavailable",
	}))

	assert.Contains(t, out, `data-error="title"`)
	assert.Contains(t, out, `data-error="form"`)
	assert.Contains(t, out, `data-chip="htmx"`)
	assert.Contains(t, out, `value="remove:tags:go"`)
	assert.Contains(t, out, `name="tags_new"`)
}

func TestEnterSavesAndChipInputAdds(t *testing.T) {
	out := render(t, Form(FormPage{
		Title:  "Edit project",
		Action: "/admin/projects/p1/edit/",
		Submit: "Save",
		Fields: []Field{
			{Name: "tags", Label: "Tags", Kind: KindChips, Values: []string{"go"}},
			{Name: "title", Label: "Title", Kind: KindText, Value: "Compiler"},
		},
	}))

	// Implicit submission uses the first submit button in the form.
	first := strings.Index(out, `type="submit"`)
	chip := strings.Index(out, `name="_chip"`)
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, chip, 0)
	assert.Less(t, first, chip)
	tag := out[first : first+strings.Index(out[first:], ">")]
	assert.NotContains(t, tag, "name=")
	assert.Contains(t, tag, "data-default-submit")

	assert.Contains(t, out, `hx-post="/admin/projects/p1/edit/"`)
	assert.Contains(t, out, `hx-trigger="keydown[key=='Enter']"`)
	assert.Contains(t, out, `"_chip":"add:tags"`)
	assert.Contains(t, out, `hx-target="closest dialog"`)
}

func TestLoadingListFetchesRows(t *testing.T) {
	out := render(t, List(ListPage{Base: "/admin/skills/", IsLoading: true, LoadURL: "/admin/skills/rows/?controls=1&q=go"}))
	assert.Contains(t, out, `aria-busy="true"`)
	assert.Contains(t, out, `hx-trigger="load"`)
	assert.Contains(t, out, `hx-get="/admin/skills/rows/?controls=1&amp;q=go"`)
	assert.NotContains(t, out, "hx-swap-oob")

	out = render(t, Rows(ListPage{
		Base: "/admin/blog-posts/", Label: "Blog post", CanCreate: true, WithControls: true,
		Filter: &Filter{Param: "status", Label: "Status", Selected: "all", Options: []Option{{Value: "all", Label: "All"}}},
		Items:  []Item{{ID: "b1", Title: "Shipping Go"}}, Total: 1,
	}))
	assert.Contains(t, out, `id="list-filter"`)
	assert.Contains(t, out, `id="list-create"`)
	assert.Equal(t, 2, strings.Count(out, `hx-swap-oob="true"`))
	assert.Contains(t, out, `name="status"`)
	assert.Contains(t, out, "/admin/blog-posts/new/")
	assert.Contains(t, out, `data-id="b1"`)
}

func TestReadOnlyFormHasNoSubmit(t *testing.T) {
	out := render(t, Form(FormPage{
		Title:    "Hello",
		ReadOnly: true,
		Fields:   []Field{{Name: "message", Label: "Message", Kind: KindReadOnly, Value: "Hi there"}},
	}))
	assert.Contains(t, out, "Hi there")
	assert.Contains(t, out, "Close")
	assert.NotContains(t, out, `type="submit"`)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "uploads%2Fa.jpg", PathEscape("uploads/a.jpg"))
	assert.Equal(t, "go, sql", JoinTags([]string{"go", "sql"}))
	assert.Equal(t, "512 B", HumanBytes(512))
	assert.Equal(t, "2 KB", HumanBytes(2048))
	assert.Equal(t, "1.5 MB", HumanBytes(3<<19))
	assert.Equal(t, "", When(time.Time{}))
	assert.Contains(t, FlashClass("error"), "red")
	assert.Contains(t, FlashClass("success"), "emerald")
}
