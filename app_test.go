package folioadmin

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folioadmin/remote/remotetest"
	"github.com/eringen/folioadmin/storage"
)

const (
	adminEmail    = "owner@example.com"
	adminPassword = "correct horse"
)

// memBucket is an in-memory ObjectStore.
type memBucket struct {
	mu      sync.Mutex
	objects map[string]storage.Object
	data    map[string][]byte
}

func newMemBucket() *memBucket {
	return &memBucket{objects: map[string]storage.Object{}, data: map[string][]byte{}}
}

func (b *memBucket) Put(_ context.Context, key string, data []byte, contentType string) (storage.Object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj := storage.Object{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  contentType,
		LastModified: time.Now(),
		URL:          "https://cdn.example.com/" + key,
	}
	b.objects[key] = obj
	b.data[key] = data
	return obj, nil
}

func (b *memBucket) List(context.Context) ([]storage.Object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]storage.Object, 0, len(b.objects))
	for _, o := range b.objects {
		out = append(out, o)
	}
	return out, nil
}

func (b *memBucket) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	delete(b.data, key)
	return nil
}

type harness struct {
	t       *testing.T
	backend *remotetest.Server
	app     *App
	srv     *httptest.Server
	client  *http.Client
	bucket  *memBucket
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := remotetest.NewServer(t)
	backend.AddAccount(remotetest.Account{ID: "user-1", Email: adminEmail, Password: adminPassword, SessionID: "sess-1"})

	journal, err := NewStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	bucket := newMemBucket()
	app, err := New(Config{
		BackendURL:     backend.URL,
		BackendAnonKey: remotetest.AnonKey,
		SessionSecret:  "test-session-secret-0123456789",
	}, WithJournal(journal), WithLogger(logger), WithObjectStore(bucket), WithStaticDir(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	srv := httptest.NewServer(app.Echo)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &harness{t: t, backend: backend, app: app, srv: srv, client: client, bucket: bucket}
}

func (h *harness) do(req *http.Request) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp, string(body)
}

func (h *harness) get(path string, header ...string) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.srv.URL+path, nil)
	require.NoError(h.t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return h.do(req)
}

// csrf returns the token cookie, fetching a page first if there is none.
func (h *harness) csrf() string {
	h.t.Helper()
	u, _ := url.Parse(h.srv.URL)
	for _, ck := range h.client.Jar.Cookies(u) {
		if ck.Name == "_csrf" {
			return ck.Value
		}
	}
	h.get("/admin/login/")
	for _, ck := range h.client.Jar.Cookies(u) {
		if ck.Name == "_csrf" {
			return ck.Value
		}
	}
	h.t.Fatal("no csrf cookie")
	return ""
}

func (h *harness) post(path string, form url.Values) (*http.Response, string) {
	h.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("_csrf", h.csrf())
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

func (h *harness) login() {
	h.t.Helper()
	resp, _ := h.post("/admin/login/", url.Values{"email": {adminEmail}, "password": {adminPassword}})
	require.Equal(h.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(h.t, "/admin/", resp.Header.Get("Location"))
}

func assertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, location, resp.Header.Get("Location"))
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.get("/admin/skills/")
	assertRedirect(t, resp, "/admin/login/")

	resp, _ = h.get("/admin/skills/rows/", "HX-Request", "true")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/admin/login/", resp.Header.Get("HX-Redirect"))

	resp, _ = h.get("/")
	assertRedirect(t, resp, "/admin/")
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	resp, body := h.post("/admin/login/", url.Values{"email": {adminEmail}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Sign-in failed")
	assert.Contains(t, body, `value="owner@example.com"`)

	h.login()

	resp, body = h.get("/admin/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, adminEmail)
	assert.Contains(t, body, "Overview")

	resp, _ = h.get("/admin/login/")
	assertRedirect(t, resp, "/admin/")
}

func TestLoginRateLimited(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 5; i++ {
		resp, _ := h.post("/admin/login/", url.Values{"email": {adminEmail}, "password": {"wrong"}})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp, body := h.post("/admin/login/", url.Values{"email": {adminEmail}, "password": {adminPassword}})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, "Too many sign-in attempts")
	assert.Len(t, h.backend.Calls("POST", "auth/token"), 5)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp, _ := h.post("/admin/logout/", nil)
	assertRedirect(t, resp, "/admin/login/")
	assert.Len(t, h.backend.Calls("POST", "auth/logout"), 1)

	resp, _ = h.get("/admin/")
	assertRedirect(t, resp, "/admin/login/")
}

func TestPostWithoutCSRFIsForbidden(t *testing.T) {
	h := newHarness(t)
	h.login()

	req, err := http.NewRequest(http.MethodPost, h.srv.URL+"/admin/skill-categories/new/", strings.NewReader("title=Languages"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, _ := h.do(req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, h.backend.Calls("POST", "skill_categories"))
}

func TestCreateRefetchesOnceAndFlashes(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.ResetCalls()

	resp, _ := h.post("/admin/skill-categories/new/", url.Values{"title": {"  Languages "}})
	assertRedirect(t, resp, "/admin/skill-categories/")

	assert.Len(t, h.backend.Calls("POST", "skill_categories"), 1)
	assert.Len(t, h.backend.Calls("GET", "skill_categories"), 1)
	rows := h.backend.Rows("skill_categories")
	require.Len(t, rows, 1)
	assert.Equal(t, "Languages", rows[0]["title"])

	resp, body := h.get("/admin/skill-categories/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Languages")
	assert.Contains(t, body, "Skill category created")
	assert.Contains(t, body, `data-kind="success"`)
	assert.Len(t, h.backend.Calls("GET", "skill_categories"), 1, "list is served from the cache")

	// The flash is shown once.
	_, body = h.get("/admin/skill-categories/")
	assert.NotContains(t, body, "Skill category created")

	recent, err := h.app.Journal.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.NotEmpty(t, recent)
	assert.Equal(t, "skill-categories", recent[0].Entity)
	assert.Equal(t, "created", recent[0].Action)
	assert.Equal(t, adminEmail, recent[0].Actor)
}

func TestCreateValidationErrorSendsNothing(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.ResetCalls()

	resp, body := h.post("/admin/skill-categories/new/", url.Values{"title": {" "}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, `data-error="title"`)
	assert.Empty(t, h.backend.Calls("POST", "skill_categories"))
}

func TestCreateBackendErrorShownInDialog(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.FailNext("POST", "skill_categories", http.StatusConflict, "duplicate key value violates unique constraint")

	resp, body := h.post("/admin/skill-categories/new/", url.Values{"title": {"Languages"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, `data-error="form"`)
	assert.Equal(t, 1, strings.Count(body, "duplicate key value violates unique constraint"))
	assert.Contains(t, body, `value="Languages"`)

	// Nothing is left over for the next page either.
	_, body = h.get("/admin/")
	assert.NotContains(t, body, "duplicate key value violates unique constraint")
}

func TestSingletonCreateReportsReadFailure(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.FailNext("GET", "bio", http.StatusInternalServerError, "database is down")

	resp, body := h.post("/admin/bio/new/", url.Values{"name": {"Ada"}, "description": {"Writes programs for engines."}})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "Something went wrong")
	assert.Empty(t, h.backend.Calls("POST", "bio"))
}

func TestChipActionsRerenderDialog(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.ResetCalls()

	resp, body := h.post("/admin/bio/new/", url.Values{
		"name":      {"Ada"},
		"roles":     {"Writer"},
		"roles_new": {" Engineer "},
		"_chip":     {"add:roles"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `data-chip="Writer"`)
	assert.Contains(t, body, `data-chip="Engineer"`)
	assert.Contains(t, body, `value="Ada"`)

	resp, body = h.post("/admin/bio/new/", url.Values{
		"name":  {"Ada"},
		"roles": {"Writer", "Engineer"},
		"_chip": {"remove:roles:Writer"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, `data-chip="Writer"`)
	assert.Contains(t, body, `data-chip="Engineer"`)

	assert.Empty(t, h.backend.Calls("POST", "bio"))
}

func TestBioIsSingleton(t *testing.T) {
	h := newHarness(t)
	h.backend.Seed("bio", remotetest.Row{"id": "b1", "name": "Ada Lovelace", "roles": []string{"Engineer"}, "description": "Writes programs for engines."})
	h.login()

	resp, _ := h.get("/admin/bio/new/")
	assertRedirect(t, resp, "/admin/bio/b1/edit/")

	_, body := h.get("/admin/bio/")
	assert.NotContains(t, body, "/admin/bio/new/")
	assert.Contains(t, body, "Ada Lovelace")

	_, body = h.get("/admin/")
	assert.Contains(t, body, "Ada Lovelace")
}

func TestUpdate(t *testing.T) {
	h := newHarness(t)
	h.backend.Seed("skill_categories", remotetest.Row{"id": "c1", "title": "Tools"})
	h.login()

	resp, body := h.get("/admin/skill-categories/c1/edit/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="Tools"`)

	resp, _ = h.post("/admin/skill-categories/c1/edit/", url.Values{"title": {"Tooling"}})
	assertRedirect(t, resp, "/admin/skill-categories/")

	rows := h.backend.Rows("skill_categories")
	require.Len(t, rows, 1)
	assert.Equal(t, "Tooling", rows[0]["title"])

	_, body = h.get("/admin/skill-categories/")
	assert.Contains(t, body, "Tooling")
	assert.Contains(t, body, "Skill category updated")
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	h := newHarness(t)
	h.backend.Seed("skill_categories", remotetest.Row{"id": "c1", "title": "Tools"})
	h.login()

	resp, body := h.get("/admin/skill-categories/c1/delete/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="confirm" value="yes"`)
	assert.Contains(t, body, "Tools")

	resp, _ = h.post("/admin/skill-categories/c1/delete/", nil)
	assertRedirect(t, resp, "/admin/skill-categories/")
	assert.Empty(t, h.backend.Calls("DELETE", "skill_categories"))

	_, body = h.get("/admin/skill-categories/")
	assert.Contains(t, body, `data-kind="error"`)
	assert.Contains(t, body, "delete was not confirmed")

	resp, _ = h.post("/admin/skill-categories/c1/delete/", url.Values{"confirm": {"yes"}})
	assertRedirect(t, resp, "/admin/skill-categories/")
	assert.Len(t, h.backend.Calls("DELETE", "skill_categories"), 1)
	assert.Empty(t, h.backend.Rows("skill_categories"))

	_, body = h.get("/admin/skill-categories/")
	assert.Contains(t, body, "Skill category deleted")
	assert.Contains(t, body, `data-empty="true"`)
}

func TestListSearchAndFilter(t *testing.T) {
	h := newHarness(t)
	h.backend.Seed("blog_posts",
		remotetest.Row{"title": "Shipping Go", "slug": "shipping-go", "content": "Long enough content", "published": true, "views": 12, "tags": []string{"go"}},
		remotetest.Row{"title": "Half Written", "slug": "half-written", "content": "Long enough content", "published": false, "views": 0, "tags": []string{}},
	)
	h.login()

	_, body := h.get("/admin/blog-posts/rows/")
	assert.Contains(t, body, "Shipping Go")
	assert.Contains(t, body, "Half Written")
	assert.Contains(t, body, "12 views")

	_, body = h.get("/admin/blog-posts/?status=published")
	assert.Contains(t, body, "Shipping Go")
	assert.NotContains(t, body, "Half Written")

	_, body = h.get("/admin/blog-posts/rows/?status=draft")
	assert.NotContains(t, body, "Shipping Go")
	assert.Contains(t, body, "Half Written")
	assert.NotContains(t, body, "<html", "rows are a fragment")

	_, body = h.get("/admin/blog-posts/rows/?q=SHIPPING")
	assert.Contains(t, body, "Shipping Go")
	assert.NotContains(t, body, "Half Written")

	_, body = h.get("/admin/blog-posts/rows/?q=nothing-matches")
	assert.Contains(t, body, `data-empty="true"`)
	assert.Contains(t, body, "No blog posts match the current search.")

	assert.Len(t, h.backend.Calls("GET", "blog_posts"), 1)
}

func TestListErrorShownInline(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.FailNext("GET", "skill_categories", http.StatusInternalServerError, "database is down")

	resp, body := h.get("/admin/skill-categories/rows/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `data-error="list"`)
	assert.Contains(t, body, "database is down")

	// The failure is on record, so the page reads again instead of loading.
	_, body = h.get("/admin/skill-categories/")
	assert.NotContains(t, body, `aria-busy="true"`)
	assert.Contains(t, body, `data-empty="true"`)
}

func TestListLoadsRowsAfterFirstPaint(t *testing.T) {
	h := newHarness(t)
	h.backend.Seed("blog_posts",
		remotetest.Row{"title": "Shipping Go", "slug": "shipping-go", "content": "Long enough content", "published": true, "views": 12, "tags": []string{"go"}},
	)
	h.login()
	h.backend.ResetCalls()

	resp, body := h.get("/admin/blog-posts/?q=ship")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `aria-busy="true"`)
	assert.Contains(t, body, `hx-trigger="load"`)
	assert.Contains(t, body, "/admin/blog-posts/rows/?controls=1&amp;q=ship")
	assert.NotContains(t, body, "Shipping Go")
	assert.Empty(t, h.backend.Calls("GET", "blog_posts"), "the page does not wait for the backend")

	resp, body = h.get("/admin/blog-posts/rows/?controls=1&q=ship", "HX-Request", "true")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Shipping Go")
	assert.Contains(t, body, `hx-swap-oob="true"`)
	assert.Contains(t, body, `name="status"`)
	assert.Len(t, h.backend.Calls("GET", "blog_posts"), 1)

	_, body = h.get("/admin/blog-posts/")
	assert.NotContains(t, body, `aria-busy="true"`)
	assert.Contains(t, body, "Shipping Go")
}

func TestBackendUnauthorizedSignsOut(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.FailNext("GET", "skill_categories", http.StatusUnauthorized, "JWT expired")

	resp, _ := h.get("/admin/skill-categories/rows/")
	assertRedirect(t, resp, "/admin/login/")

	resp, body := h.get("/admin/login/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Your session expired")

	resp, _ = h.get("/admin/")
	assertRedirect(t, resp, "/admin/login/")
}

func TestMutationUnauthorizedSignsOut(t *testing.T) {
	cases := []struct {
		name   string
		method string
		table  string
		path   string
		form   url.Values
	}{
		{"create", "POST", "skill_categories", "/admin/skill-categories/new/", url.Values{"title": {"Languages"}}},
		{"update", "PATCH", "skill_categories", "/admin/skill-categories/c1/edit/", url.Values{"title": {"Tooling"}}},
		{"delete", "DELETE", "skill_categories", "/admin/skill-categories/c1/delete/", url.Values{"confirm": {"yes"}}},
		{"revoke", "POST", "rpc/revoke_session", "/admin/sessions/sess-2/revoke/", nil},
		{"revoke others", "POST", "rpc/revoke_other_sessions", "/admin/sessions/revoke-others/", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.backend.Seed("skill_categories", remotetest.Row{"id": "c1", "title": "Tools"})
			h.backend.HandleRPC("revoke_session", func(map[string]any, map[string]any) (any, error) { return nil, nil })
			h.backend.HandleRPC("revoke_other_sessions", func(map[string]any, map[string]any) (any, error) { return nil, nil })
			h.login()
			h.backend.FailNext(tc.method, tc.table, http.StatusUnauthorized, "JWT expired")

			resp, _ := h.post(tc.path, tc.form)
			assertRedirect(t, resp, "/admin/login/")

			_, body := h.get("/admin/login/")
			assert.Contains(t, body, "Your session expired")

			resp, _ = h.get("/admin/")
			assertRedirect(t, resp, "/admin/login/")
		})
	}
}

func TestMutationForbiddenKeepsAdminSignedIn(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.FailNext("POST", "skill_categories", http.StatusForbidden, "permission denied for table skill_categories")

	resp, body := h.post("/admin/skill-categories/new/", url.Values{"title": {"Languages"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "permission denied for table skill_categories")

	resp, _ = h.get("/admin/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTokenRefreshedNearExpiry(t *testing.T) {
	h := newHarness(t)
	h.backend.SetTokenTTL(30 * time.Second)
	h.login()
	h.backend.ResetCalls()

	resp, _ := h.get("/admin/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	refreshes := h.backend.Calls("POST", "auth/token")
	require.Len(t, refreshes, 1)
	assert.Equal(t, "refresh_token", refreshes[0].Query.Get("grant_type"))

	// Replacing the account invalidates the refresh token.
	h.backend.AddAccount(remotetest.Account{ID: "user-2", Email: adminEmail, Password: adminPassword})

	resp, _ = h.get("/admin/")
	assertRedirect(t, resp, "/admin/login/")

	_, body := h.get("/admin/login/")
	assert.Contains(t, body, "Your session expired")
}

func TestContactsAreReadOnly(t *testing.T) {
	h := newHarness(t)
	h.backend.Seed("contacts", remotetest.Row{
		"id": "m1", "name": "Grace", "email": "grace@example.com",
		"subject": "Hello", "message": "Loved the compiler post.", "created_at": "2026-01-02T10:00:00Z",
	})
	h.login()

	_, body := h.get("/admin/contacts/rows/")
	assert.Contains(t, body, "Grace")
	assert.Contains(t, body, "/admin/contacts/m1/edit/")
	assert.Contains(t, body, "/admin/contacts/m1/delete/")
	assert.Contains(t, body, "mailto:grace@example.com")

	_, body = h.get("/admin/contacts/")
	assert.Contains(t, body, "Grace")
	assert.NotContains(t, body, "/admin/contacts/new/")

	resp, body := h.get("/admin/contacts/m1/edit/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Loved the compiler post.")
	assert.Contains(t, body, "Close")

	resp, _ = h.get("/admin/contacts/new/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = h.post("/admin/contacts/m1/edit/", url.Values{"message": {"changed"}})
	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, resp.StatusCode)
	assert.Empty(t, h.backend.Calls("PATCH", "contacts"))
}

func TestSessions(t *testing.T) {
	h := newHarness(t)
	var revokedOthers []map[string]any
	h.backend.HandleRPC("get_my_sessions", func(map[string]any, map[string]any) (any, error) {
		return []map[string]string{
			{"id": "sess-1", "created_at": "2026-01-02T10:00:00.000Z", "user_agent": "Firefox", "ip": "10.0.0.1"},
			{"id": "sess-2", "created_at": "2026-01-01T09:00:00.000Z", "user_agent": "Safari", "ip": "10.0.0.2"},
		}, nil
	})
	h.backend.HandleRPC("revoke_other_sessions", func(args map[string]any, _ map[string]any) (any, error) {
		revokedOthers = append(revokedOthers, args)
		return nil, nil
	})
	h.backend.HandleRPC("revoke_session", func(map[string]any, map[string]any) (any, error) {
		return nil, nil
	})
	h.login()

	resp, body := h.get("/admin/sessions/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Firefox")
	assert.Contains(t, body, "Safari")
	assert.Contains(t, body, "2026-01-02 10:00")
	assert.NotContains(t, body, "The current session cannot be identified")

	resp, _ = h.post("/admin/sessions/revoke-others/", nil)
	assertRedirect(t, resp, "/admin/sessions/")
	require.Len(t, revokedOthers, 1)
	assert.Equal(t, "sess-1", revokedOthers[0]["current_session_id"])

	resp, _ = h.post("/admin/sessions/sess-2/revoke/", nil)
	assertRedirect(t, resp, "/admin/sessions/")
	calls := h.backend.Calls("POST", "rpc/revoke_session")
	require.Len(t, calls, 1)
	assert.Contains(t, string(calls[0].Body), `"session_id":"sess-2"`)

	_, body = h.get("/admin/sessions/")
	assert.Contains(t, body, "Session revoked")
}

func TestRevokeOthersWithoutSessionClaimSendsNothing(t *testing.T) {
	h := newHarness(t)
	h.backend.AddAccount(remotetest.Account{ID: "user-1", Email: adminEmail, Password: adminPassword})
	h.backend.HandleRPC("get_my_sessions", func(map[string]any, map[string]any) (any, error) {
		return []map[string]string{}, nil
	})
	h.login()

	_, body := h.get("/admin/sessions/")
	assert.Contains(t, body, "The current session cannot be identified")

	resp, _ := h.post("/admin/sessions/revoke-others/", nil)
	assertRedirect(t, resp, "/admin/sessions/")
	assert.Empty(t, h.backend.Calls("", "rpc/revoke_other_sessions"))

	_, body = h.get("/admin/sessions/")
	assert.Contains(t, body, `data-kind="error"`)
}

func TestThemeToggle(t *testing.T) {
	h := newHarness(t)
	token := h.csrf()

	form := url.Values{"_csrf": {token}}
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+"/admin/theme/", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", h.srv.URL+"/admin/blog-posts/?status=draft")
	resp, _ := h.do(req)
	assertRedirect(t, resp, "/admin/blog-posts/?status=draft")

	_, body := h.get("/admin/login/")
	assert.Contains(t, body, `class="dark"`)

	resp, _ = h.post("/admin/theme/", nil)
	assertRedirect(t, resp, "/admin/")
	_, body = h.get("/admin/login/")
	assert.NotContains(t, body, `class="dark"`)
}

func TestNotFound(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp, body := h.get("/admin/skill-categories/missing/edit/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page not found")

	resp, _ = h.get("/admin/no-such-section/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	resp, body := h.get("/healthz/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestNewRejectsShortSecret(t *testing.T) {
	_, err := New(Config{BackendURL: "http://localhost:1", BackendAnonKey: "k", SessionSecret: "short"})
	assert.Error(t, err)
}

func TestUploadRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.login()

	var buf bytes.Buffer
	contentType := writeMultipartImage(t, &buf, "wide.png", pngImage(t, 2000, 100))
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+"/admin/uploads/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-CSRF-Token", h.csrf())
	resp, _ := h.do(req)
	assertRedirect(t, resp, "/admin/uploads/")

	objs, err := h.bucket.List(context.Background())
	require.NoError(t, err)
	require.Len(t, objs, 1)
	key := objs[0].Key
	assert.True(t, strings.HasPrefix(key, storage.Prefix))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.Equal(t, "image/jpeg", objs[0].ContentType)
	assertJPEGWidth(t, h.bucket.data[key], maxImageWidth)

	_, body := h.get("/admin/uploads/")
	assert.Contains(t, body, "Image uploaded")
	assert.Contains(t, body, objs[0].URL)

	resp, body = h.get("/admin/uploads/delete/?key=" + url.QueryEscape(key))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="confirm" value="yes"`)

	resp, _ = h.post("/admin/uploads/delete/", url.Values{"key": {key}, "confirm": {"yes"}})
	assertRedirect(t, resp, "/admin/uploads/")
	objs, _ = h.bucket.List(context.Background())
	assert.Empty(t, objs)

	recent, err := h.app.Journal.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "deleted", recent[0].Action)
	assert.Equal(t, "created", recent[1].Action)
	assert.Equal(t, "uploads", recent[1].Entity)
}

func TestUploadRejectsNonImage(t *testing.T) {
	h := newHarness(t)
	h.login()

	var buf bytes.Buffer
	contentType := writeMultipartImage(t, &buf, "notes.png", []byte("not an image"))
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+"/admin/uploads/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-CSRF-Token", h.csrf())
	resp, _ := h.do(req)
	assertRedirect(t, resp, "/admin/uploads/")

	objs, _ := h.bucket.List(context.Background())
	assert.Empty(t, objs)
	_, body := h.get("/admin/uploads/")
	assert.Contains(t, body, "Invalid image")
}
