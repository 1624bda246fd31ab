package views

import "time"

// Flash is a notification shown once at the top of the next page.
type Flash struct {
	Kind string // "success" or "error"
	Text string
}

// NavItem is one sidebar entry.
type NavItem struct {
	Name  string
	Label string
	Href  string
}

// Shell is everything the page chrome needs.
type Shell struct {
	Title   string
	Active  string
	Theme   string // "light" or "dark"
	CSRF    string
	Admin   string // signed-in email, empty on the login page
	Nav     []NavItem
	Flashes []Flash
}

// Dark reports whether the dark theme is active.
func (s Shell) Dark() bool { return s.Theme == "dark" }

// LoginPage is the sign-in form.
type LoginPage struct {
	Email string
	Error string
	CSRF  string
}

// Option is one choice of a select or filter.
type Option struct {
	Value string
	Label string
}

// Filter is the optional category/status selector above a list.
type Filter struct {
	Param    string
	Label    string
	Selected string
	Options  []Option
}

// Item is one row of a list, already reduced to what the card shows.
type Item struct {
	ID        string
	Title     string
	Subtitle  string
	Body      string
	Image     string
	Meta      []string
	Tags      []string
	Badge     string
	Link      string // external link, e.g. mailto: for contacts
	LinkLabel string
	EditHref  string
	ViewHref  string
	DelHref   string
}

// ListPage is an entity list with search, filter and dialogs entry points.
type ListPage struct {
	Entity    string
	Label     string
	Plural    string
	Base      string
	Items     []Item
	Total     int
	Query     string
	Filter    *Filter
	CanCreate bool
	IsLoading bool
	Err       string
	EmptyText string
	CSRF      string
	// LoadURL fetches the rows of a page rendered while loading.
	LoadURL string
	// WithControls makes the rows fragment also replace the filter and
	// create controls, which a loading page renders without data.
	WithControls bool
}

// Empty reports whether the empty state should show.
func (p ListPage) Empty() bool {
	return !p.IsLoading && p.Err == "" && len(p.Items) == 0
}

// Field kinds understood by the form template.
const (
	KindText     = "text"
	KindTextarea = "textarea"
	KindURL      = "url"
	KindEmail    = "email"
	KindDate     = "date"
	KindCheckbox = "checkbox"
	KindSelect   = "select"
	KindChips    = "chips"
	KindReadOnly = "readonly"
)

// Field is one form control.
type Field struct {
	Name        string
	Label       string
	Kind        string
	Value       string
	Checked     bool
	Values      []string // chips
	Options     []Option // select
	Placeholder string
	Help        string
	Required    bool
	Error       string
}

// FormPage is a create/edit dialog.
type FormPage struct {
	Entity   string
	Title    string
	Action   string
	Cancel   string
	Submit   string
	Fields   []Field
	General  string
	ReadOnly bool
	CSRF     string
}

// ConfirmPage asks before an irreversible action.
type ConfirmPage struct {
	Title   string
	Message string
	Action  string
	Cancel  string
	Hidden  map[string]string
	CSRF    string
}

// SessionItem is one identity-service session.
type SessionItem struct {
	ID        string
	CreatedAt string
	UserAgent string
	IP        string
	Current   bool
}

// SessionsPage lists the admin's sessions.
type SessionsPage struct {
	Sessions        []SessionItem
	CanRevokeOthers bool
	Err             string
	CSRF            string
}

// UploadItem is one stored image.
type UploadItem struct {
	Key      string
	Name     string
	URL      string
	Size     int64
	Modified time.Time
}

// UploadsPage lists uploaded images.
type UploadsPage struct {
	Enabled bool
	Items   []UploadItem
	Err     string
	CSRF    string
}

// CountItem is one entity total on the home page.
type CountItem struct {
	Label string
	Href  string
	Rows  int
	Err   string
}

// ActivityItem is one journal entry.
type ActivityItem struct {
	Entity string
	Action string
	RowID  string
	Actor  string
	At     time.Time
}

// HomePage is the dashboard.
type HomePage struct {
	Owner    string
	Counts   []CountItem
	Activity []ActivityItem
}

// ErrorPage is rendered by the HTTP error handler.
type ErrorPage struct {
	Code    int
	Title   string
	Message string
}
