// Package remotetest provides an in-memory backend that speaks enough of the
// table, rpc and identity protocol for tests. It records every call.
package remotetest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AnonKey is the api key the server expects.
const AnonKey = "test-anon-key"

const signingSecret = "remotetest-signing-secret"

// Row is one stored record.
type Row = map[string]any

// Call records a request the server received.
type Call struct {
	Method        string
	Table         string
	Query         url.Values
	Body          []byte
	Authorization string
}

// RPCFunc implements a remote procedure.
// claims are the verified access-token claims of the caller, nil when the
// caller is anonymous.
type RPCFunc func(args map[string]any, claims map[string]any) (any, error)

// Account is a user the identity endpoints accept.
type Account struct {
	ID        string
	Email     string
	Password  string
	SessionID string // empty means issued tokens carry no session_id claim
}

type failure struct {
	status  int
	message string
}

// Server is a fake backend.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	tables   map[string][]Row
	calls    []Call
	nextID   int
	rpcs     map[string]RPCFunc
	accounts map[string]Account
	failures map[string]failure
	tokenTTL time.Duration
	now      func() time.Time
}

// NewServer starts a Server that is closed when t finishes.
func NewServer(t testing.TB) *Server {
	s := &Server{
		tables:   make(map[string][]Row),
		rpcs:     make(map[string]RPCFunc),
		accounts: make(map[string]Account),
		failures: make(map[string]failure),
		tokenTTL: time.Hour,
		now:      time.Now,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Seed appends rows to table, assigning ids to rows that lack one.
func (s *Server) Seed(table string, rows ...Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.tables[table] = append(s.tables[table], s.assign(copyRow(r)))
	}
}

// Rows returns a copy of the stored rows of table.
func (s *Server) Rows(table string) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, 0, len(s.tables[table]))
	for _, r := range s.tables[table] {
		out = append(out, copyRow(r))
	}
	return out
}

// Calls returns the recorded calls matching method and table. An empty
// method or table matches everything.
func (s *Server) Calls(method, table string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if (method == "" || c.Method == method) && (table == "" || c.Table == table) {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded calls.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

// FailNext makes the next method call against table (or rpc name) fail
// with status and a PostgREST-style message.
func (s *Server) FailNext(method, table string, status int, message string) {
	s.mu.Lock()
	s.failures[method+" "+table] = failure{status: status, message: message}
	s.mu.Unlock()
}

// HandleRPC registers a remote procedure.
func (s *Server) HandleRPC(name string, fn RPCFunc) {
	s.mu.Lock()
	s.rpcs[name] = fn
	s.mu.Unlock()
}

// AddAccount registers a user for the password grant.
func (s *Server) AddAccount(a Account) {
	s.mu.Lock()
	if a.ID == "" {
		a.ID = fmt.Sprintf("user-%d", len(s.accounts)+1)
	}
	s.accounts[a.Email] = a
	s.mu.Unlock()
}

// SetTokenTTL changes the lifetime of issued access tokens.
func (s *Server) SetTokenTTL(ttl time.Duration) {
	s.mu.Lock()
	s.tokenTTL = ttl
	s.mu.Unlock()
}

// IssueToken mints an access token for a, as the password grant would.
func (s *Server) IssueToken(a Account) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issue(a)
}

func (s *Server) issue(a Account) string {
	claims := jwt.MapClaims{
		"sub":   a.ID,
		"email": a.Email,
		"exp":   s.now().Add(s.tokenTTL).Unix(),
		"iat":   s.now().Unix(),
		"role":  "authenticated",
	}
	if a.SessionID != "" {
		claims["session_id"] = a.SessionID
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	if err != nil {
		panic(err)
	}
	return tok
}

func (s *Server) assign(r Row) Row {
	if _, ok := r["id"]; !ok {
		s.nextID++
		r["id"] = fmt.Sprintf("row-%d", s.nextID)
	}
	if _, ok := r["created_at"]; !ok {
		r["created_at"] = s.now().UTC().Add(time.Duration(s.nextID) * time.Millisecond).Format(time.RFC3339Nano)
	}
	return r
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Header.Get("apikey") != AnonKey {
		writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}

	switch {
	case strings.HasPrefix(r.URL.Path, "/auth/v1/"):
		s.serveAuth(w, r, strings.TrimPrefix(r.URL.Path, "/auth/v1/"), body)
	case strings.HasPrefix(r.URL.Path, "/rest/v1/rpc/"):
		name := strings.TrimPrefix(r.URL.Path, "/rest/v1/rpc/")
		s.record(r, "rpc/"+name, body)
		if s.fail(w, r.Method, "rpc/"+name) {
			return
		}
		s.serveRPC(w, r, name, body)
	case strings.HasPrefix(r.URL.Path, "/rest/v1/"):
		table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
		s.record(r, table, body)
		if s.fail(w, r.Method, table) {
			return
		}
		s.serveTable(w, r, table, body)
	default:
		writeError(w, http.StatusNotFound, "no route")
	}
}

func (s *Server) record(r *http.Request, table string, body []byte) {
	s.calls = append(s.calls, Call{
		Method:        r.Method,
		Table:         table,
		Query:         r.URL.Query(),
		Body:          body,
		Authorization: r.Header.Get("Authorization"),
	})
}

func (s *Server) fail(w http.ResponseWriter, method, table string) bool {
	key := method + " " + table
	f, ok := s.failures[key]
	if !ok {
		return false
	}
	delete(s.failures, key)
	writeError(w, f.status, f.message)
	return true
}

func (s *Server) serveTable(w http.ResponseWriter, r *http.Request, table string, body []byte) {
	q := r.URL.Query()
	switch r.Method {
	case http.MethodGet:
		rows := filterRows(s.tables[table], q)
		sortRows(rows, q.Get("order"))
		writeJSON(w, http.StatusOK, rows)
	case http.MethodPost:
		var row Row
		if err := json.Unmarshal(body, &row); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		row = s.assign(row)
		s.tables[table] = append(s.tables[table], row)
		writeJSON(w, http.StatusCreated, []Row{copyRow(row)})
	case http.MethodPatch:
		var fields Row
		if err := json.Unmarshal(body, &fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		var updated []Row
		for _, row := range s.tables[table] {
			if matches(row, q) {
				for k, v := range fields {
					row[k] = v
				}
				updated = append(updated, copyRow(row))
			}
		}
		if updated == nil {
			updated = []Row{}
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		kept := s.tables[table][:0]
		for _, row := range s.tables[table] {
			if !matches(row, q) {
				kept = append(kept, row)
			}
		}
		s.tables[table] = kept
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) serveRPC(w http.ResponseWriter, r *http.Request, name string, body []byte) {
	fn, ok := s.rpcs[name]
	if !ok {
		writeError(w, http.StatusNotFound, "function "+name+" not found")
		return
	}
	args := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
	}
	out, err := fn(args, s.claims(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if out == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) serveAuth(w http.ResponseWriter, r *http.Request, path string, body []byte) {
	s.record(r, "auth/"+path, body)
	switch path {
	case "token":
		var req struct {
			Email        string `json:"email"`
			Password     string `json:"password"`
			RefreshToken string `json:"refresh_token"`
		}
		_ = json.Unmarshal(body, &req)
		var account Account
		switch r.URL.Query().Get("grant_type") {
		case "password":
			a, ok := s.accounts[req.Email]
			if !ok || a.Password != req.Password {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error":             "invalid_grant",
					"error_description": "Invalid login credentials",
				})
				return
			}
			account = a
		case "refresh_token":
			a, ok := s.accountByRefresh(req.RefreshToken)
			if !ok {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error":             "invalid_grant",
					"error_description": "Invalid Refresh Token",
				})
				return
			}
			account = a
		default:
			writeError(w, http.StatusBadRequest, "unsupported grant type")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  s.issue(account),
			"refresh_token": "refresh-" + account.ID,
			"expires_in":    int64(s.tokenTTL / time.Second),
			"token_type":    "bearer",
			"user":          map[string]string{"id": account.ID, "email": account.Email},
		})
	case "logout":
		w.WriteHeader(http.StatusNoContent)
	case "user":
		claims := s.claims(r)
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		sub, _ := claims["sub"].(string)
		email, _ := claims["email"].(string)
		writeJSON(w, http.StatusOK, map[string]string{"id": sub, "email": email})
	default:
		writeError(w, http.StatusNotFound, "no route")
	}
}

func (s *Server) accountByRefresh(token string) (Account, bool) {
	for _, a := range s.accounts {
		if "refresh-"+a.ID == token {
			return a, true
		}
	}
	return Account{}, false
}

func (s *Server) claims(r *http.Request) map[string]any {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(signingSecret), nil
	})
	if err != nil || !tok.Valid {
		return nil
	}
	return claims
}

func filterRows(rows []Row, q url.Values) []Row {
	out := []Row{}
	for _, r := range rows {
		if matches(r, q) {
			out = append(out, copyRow(r))
		}
	}
	return out
}

func matches(r Row, q url.Values) bool {
	for col, vals := range q {
		if col == "select" || col == "order" {
			continue
		}
		for _, v := range vals {
			want, ok := strings.CutPrefix(v, "eq.")
			if !ok {
				continue
			}
			if fmt.Sprint(r[col]) != want {
				return false
			}
		}
	}
	return true
}

func sortRows(rows []Row, order string) {
	if order == "" {
		return
	}
	terms := strings.Split(order, ",")
	sort.SliceStable(rows, func(i, j int) bool {
		for _, term := range terms {
			col, dir, _ := strings.Cut(term, ".")
			a, b := fmt.Sprint(rows[i][col]), fmt.Sprint(rows[j][col])
			if a == b {
				continue
			}
			if dir == "desc" {
				return a > b
			}
			return a < b
		}
		return false
	})
}

func copyRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"code":    fmt.Sprintf("E%d", status),
		"message": message,
	})
}
