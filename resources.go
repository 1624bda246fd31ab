package folioadmin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folioadmin/entity"
	"github.com/eringen/folioadmin/form"
	"github.com/eringen/folioadmin/listing"
	"github.com/eringen/folioadmin/remote"
	"github.com/eringen/folioadmin/views"
)

// routable is a console section with its own routes and sidebar entry.
type routable interface {
	register(g *echo.Group)
	navItem() views.NavItem
}

// resource is the list page plus create/edit/delete dialogs of one entity.
type resource[T entity.Row, In entity.Payload[In]] struct {
	app    *App
	hook   *entity.Hook[T, In]
	plural string
	empty  string

	// search returns the text fields the search box matches.
	search []func(T) string
	// filter narrows rows by the filter select and describes the select.
	filter func(ctx context.Context, rows []T, selected string) (*views.Filter, []T)
	item   func(T) views.Item
	title  func(T) string

	blank  func() In
	input  func(T) In
	bind   func(url.Values) In
	fields func(ctx context.Context, in In) []views.Field

	// detail renders a read-only dialog for entities without Update.
	detail func(T) []views.Field
	// singleton entities allow Create only while no row exists.
	singleton bool
}

func (r *resource[T, In]) def() entity.Definition { return r.hook.Definition() }

func (r *resource[T, In]) base() string { return "/admin/" + r.def().Name + "/" }

func (r *resource[T, In]) navItem() views.NavItem {
	return views.NavItem{Name: r.def().Name, Label: r.plural, Href: r.base()}
}

func (r *resource[T, In]) register(g *echo.Group) {
	p := "/" + r.def().Name + "/"
	g.GET(p, r.list)
	g.GET(p+"rows/", r.rows)
	ops := r.def().Ops
	if ops.Has(entity.OpCreate) {
		g.GET(p+"new/", r.newForm)
		g.POST(p+"new/", r.create)
	}
	if ops.Has(entity.OpUpdate) || r.detail != nil {
		g.GET(p+":id/edit/", r.edit)
	}
	if ops.Has(entity.OpUpdate) {
		g.POST(p+":id/edit/", r.update)
	}
	if ops.Has(entity.OpDelete) {
		g.GET(p+":id/delete/", r.confirmDelete)
		g.POST(p+":id/delete/", r.remove)
	}
}

func (r *resource[T, In]) newListPage(c echo.Context) views.ListPage {
	return views.ListPage{
		Entity:    r.def().Name,
		Label:     r.def().Label,
		Plural:    strings.ToLower(r.plural),
		Base:      r.base(),
		Query:     strings.TrimSpace(c.QueryParam("q")),
		EmptyText: r.empty,
		CSRF:      CsrfToken(c),
	}
}

// loading reports whether the entity has never been fetched, or its last
// fetch has gone stale, with no failure on record.
func (r *resource[T, In]) loading() bool {
	res := r.hook.Peek()
	return res.FetchedAt.IsZero() && res.Err == nil
}

// loadingPage is the list page shown while the rows are fetched by a
// follow-up request, which also fills in the filter and create controls.
func (r *resource[T, In]) loadingPage(c echo.Context) views.ListPage {
	page := r.newListPage(c)
	page.IsLoading = true
	page.CanCreate = r.def().Ops.Has(entity.OpCreate) && !r.singleton
	params := url.Values{}
	for k, v := range c.QueryParams() {
		params[k] = v
	}
	params.Set("controls", "1")
	page.LoadURL = r.base() + "rows/?" + params.Encode()
	return page
}

func (r *resource[T, In]) listPage(c echo.Context) (views.ListPage, error) {
	ctx := c.Request().Context()
	page := r.newListPage(c)
	q := page.Query

	res := r.hook.Read(ctx)
	if res.Err != nil {
		if sessionRejected(res.Err) {
			return page, res.Err
		}
		page.Err = remote.Message(res.Err)
		page.CanCreate = r.def().Ops.Has(entity.OpCreate) && !r.singleton
		return page, nil
	}

	view := listing.View[T]{Rows: res.Data, Total: len(res.Data), Query: q}
	if r.filter != nil {
		view.Category = c.QueryParam(r.filterParam())
		page.Filter, view.Rows = r.filter(ctx, view.Rows, view.Category)
	}
	view.Rows = listing.Search(view.Rows, q, r.search...)

	page.Total = view.Total
	page.CanCreate = r.def().Ops.Has(entity.OpCreate) && (!r.singleton || view.Total == 0)
	page.Items = make([]views.Item, 0, len(view.Rows))
	for _, row := range view.Rows {
		page.Items = append(page.Items, r.itemOf(row))
	}
	if view.Empty() && view.Filtered() {
		page.EmptyText = "No " + page.Plural + " match the current search."
	}
	return page, nil
}

func (r *resource[T, In]) filterParam() string {
	if r.def().Name == entity.BlogPostDef.Name || r.def().Name == entity.DashboardDef.Name {
		return "status"
	}
	return "category"
}

func (r *resource[T, In]) itemOf(row T) views.Item {
	it := r.item(row)
	it.ID = row.RowID()
	id := url.PathEscape(row.RowID())
	ops := r.def().Ops
	if ops.Has(entity.OpUpdate) {
		it.EditHref = r.base() + id + "/edit/"
	} else if r.detail != nil {
		it.ViewHref = r.base() + id + "/edit/"
	}
	if ops.Has(entity.OpDelete) {
		it.DelHref = r.base() + id + "/delete/"
	}
	return it
}

func (r *resource[T, In]) list(c echo.Context) error {
	if !isHTMX(c) && r.loading() {
		return r.app.page(c, http.StatusOK, r.plural, r.def().Name, r.app.Views.List(r.loadingPage(c)))
	}
	page, err := r.listPage(c)
	if err != nil {
		return err
	}
	if isHTMX(c) {
		return r.app.fragment(c, http.StatusOK, r.app.Views.Rows(page))
	}
	return r.app.page(c, http.StatusOK, r.plural, r.def().Name, r.app.Views.List(page))
}

func (r *resource[T, In]) rows(c echo.Context) error {
	page, err := r.listPage(c)
	if err != nil {
		return err
	}
	page.WithControls = c.QueryParam("controls") == "1"
	return r.app.fragment(c, http.StatusOK, r.app.Views.Rows(page))
}

func (r *resource[T, In]) formPage(c echo.Context, title, action, submit string, in In, errs form.Errors) views.FormPage {
	fields := r.fields(c.Request().Context(), in)
	for i := range fields {
		fields[i].Error = errs.Field(fields[i].Name)
	}
	return views.FormPage{
		Entity:  r.def().Name,
		Title:   title,
		Action:  action,
		Cancel:  r.base(),
		Submit:  submit,
		Fields:  fields,
		General: errs.Field(""),
		CSRF:    CsrfToken(c),
	}
}

func (r *resource[T, In]) renderForm(c echo.Context, code int, p views.FormPage) error {
	if isHTMX(c) {
		return r.app.fragment(c, code, r.app.Views.Form(p))
	}
	return r.app.page(c, code, p.Title, r.def().Name, r.app.Views.Form(p))
}

func (r *resource[T, In]) newTitle() string { return "New " + r.def().Label }

func (r *resource[T, In]) newForm(c echo.Context) error {
	if r.singleton {
		if id, ok, err := r.existing(c.Request().Context()); err != nil {
			return err
		} else if ok {
			return c.Redirect(http.StatusSeeOther, r.base()+url.PathEscape(id)+"/edit/")
		}
	}
	p := r.formPage(c, r.newTitle(), r.base()+"new/", "Create", r.blank(), nil)
	return r.renderForm(c, http.StatusOK, p)
}

func (r *resource[T, In]) create(c echo.Context) error {
	values, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if applyChip(values, c.FormValue("_chip")) {
		p := r.formPage(c, r.newTitle(), r.base()+"new/", "Create", r.bind(values), nil)
		return r.renderForm(c, http.StatusOK, p)
	}
	if r.singleton {
		if id, ok, err := r.existing(c.Request().Context()); err != nil {
			return err
		} else if ok {
			return c.Redirect(http.StatusSeeOther, r.base()+url.PathEscape(id)+"/edit/")
		}
	}

	in := r.bind(values)
	if _, err := r.hook.Create(c.Request().Context(), in); err != nil {
		if sessionRejected(err) {
			return err
		}
		return r.saveFailed(c, r.newTitle(), r.base()+"new/", "Create", in, err)
	}
	return c.Redirect(http.StatusSeeOther, r.base())
}

func (r *resource[T, In]) existing(ctx context.Context) (string, bool, error) {
	res := r.hook.Read(ctx)
	if res.Err != nil {
		return "", false, res.Err
	}
	if len(res.Data) == 0 {
		return "", false, nil
	}
	return res.Data[0].RowID(), true, nil
}

func (r *resource[T, In]) row(c echo.Context) (T, error) {
	row, err := r.hook.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, entity.ErrNotFound) {
		return row, echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return row, err
}

func (r *resource[T, In]) editTitle(row T) string {
	return "Edit " + r.def().Label + ": " + r.title(row)
}

func (r *resource[T, In]) editAction(id string) string {
	return r.base() + url.PathEscape(id) + "/edit/"
}

func (r *resource[T, In]) edit(c echo.Context) error {
	row, err := r.row(c)
	if err != nil {
		return err
	}
	if !r.def().Ops.Has(entity.OpUpdate) {
		return r.renderForm(c, http.StatusOK, views.FormPage{
			Entity:   r.def().Name,
			Title:    r.title(row),
			Cancel:   r.base(),
			Fields:   r.detail(row),
			ReadOnly: true,
			CSRF:     CsrfToken(c),
		})
	}
	p := r.formPage(c, r.editTitle(row), r.editAction(row.RowID()), "Save", r.input(row), nil)
	return r.renderForm(c, http.StatusOK, p)
}

func (r *resource[T, In]) update(c echo.Context) error {
	row, err := r.row(c)
	if err != nil {
		return err
	}
	values, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if applyChip(values, c.FormValue("_chip")) {
		p := r.formPage(c, r.editTitle(row), r.editAction(row.RowID()), "Save", r.bind(values), nil)
		return r.renderForm(c, http.StatusOK, p)
	}

	in := r.bind(values)
	if _, err := r.hook.Update(c.Request().Context(), row.RowID(), in); err != nil {
		if sessionRejected(err) {
			return err
		}
		return r.saveFailed(c, r.editTitle(row), r.editAction(row.RowID()), "Save", in, err)
	}
	return c.Redirect(http.StatusSeeOther, r.base())
}

func (r *resource[T, In]) confirmDelete(c echo.Context) error {
	row, err := r.row(c)
	if err != nil {
		return err
	}
	p := views.ConfirmPage{
		Title:   "Delete " + r.def().Label,
		Message: fmt.Sprintf("Delete %q? This cannot be undone.", r.title(row)),
		Action:  r.base() + url.PathEscape(row.RowID()) + "/delete/",
		Cancel:  r.base(),
		CSRF:    CsrfToken(c),
	}
	if isHTMX(c) {
		return r.app.fragment(c, http.StatusOK, r.app.Views.Confirm(p))
	}
	return r.app.page(c, http.StatusOK, p.Title, r.def().Name, r.app.Views.Confirm(p))
}

func (r *resource[T, In]) remove(c echo.Context) error {
	confirmed := c.FormValue("confirm") == "yes"
	// Other failures are reported to the admin by the hook.
	if err := r.hook.Delete(c.Request().Context(), entity.Confirm(c.Param("id"), confirmed)); sessionRejected(err) {
		return err
	}
	return c.Redirect(http.StatusSeeOther, r.base())
}

// saveFailed re-renders the dialog with err. The dialog shows the backend
// message itself, so the matching toast is withdrawn.
func (r *resource[T, In]) saveFailed(c echo.Context, title, action, submit string, in In, err error) error {
	errs := formErrors(err)
	if msg := errs.Field(""); msg != "" {
		withdrawError(c, msg)
	}
	p := r.formPage(c, title, action, submit, in, errs)
	return r.renderForm(c, http.StatusUnprocessableEntity, p)
}

// formErrors turns a mutation failure into dialog errors.
func formErrors(err error) form.Errors {
	var fe form.Errors
	if errors.As(err, &fe) {
		return fe
	}
	return form.Errors{"": remote.Message(err)}
}

// applyChip edits the staged chip list named by action ("add:<field>" or
// "remove:<field>:<value>") in values. It reports whether action was a
// chip action.
func applyChip(values url.Values, action string) bool {
	if action == "" {
		return false
	}
	op, rest, ok := strings.Cut(action, ":")
	if !ok {
		return false
	}
	switch op {
	case "add":
		chips := form.NewChips(values[rest]...)
		chips.Add(values.Get(rest + "_new"))
		values[rest] = chips.Values()
		values.Del(rest + "_new")
	case "remove":
		field, value, _ := strings.Cut(rest, ":")
		chips := form.NewChips(values[field]...)
		chips.Remove(value)
		values[field] = chips.Values()
	default:
		return false
	}
	return true
}
