// Package remote talks to the hosted backend: PostgREST-style table access
// under /rest/v1 and the identity service under /auth/v1.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const (
	restPrefix   = "/rest/v1/"
	authPrefix   = "/auth/v1/"
	maxBodyBytes = 8 << 20

	defaultTimeout = 15 * time.Second
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	AnonKey    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Client is the single point of contact with the backend. It never retries.
type Client struct {
	base    *url.URL
	anonKey string
	http    *http.Client
	logger  *logrus.Logger
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, eris.New("backend base URL is required")
	}
	if opts.AnonKey == "" {
		return nil, eris.New("backend anon key is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, eris.Wrapf(err, "invalid backend URL %q", opts.BaseURL)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, eris.Errorf("backend URL %q must be absolute", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		base:    base,
		anonKey: opts.AnonKey,
		http:    httpClient,
		logger:  opts.Logger,
	}, nil
}

// QueryOption narrows or orders a table read.
type QueryOption func(url.Values)

// Eq keeps rows whose column equals value.
func Eq(column, value string) QueryOption {
	return func(q url.Values) {
		q.Set(column, "eq."+value)
	}
}

// Order sorts by column. Several Order options apply in the order given.
func Order(column string, ascending bool) QueryOption {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	return func(q url.Values) {
		term := column + "." + dir
		if existing := q.Get("order"); existing != "" {
			term = existing + "," + term
		}
		q.Set("order", term)
	}
}

// Query reads every row of table matching opts into out, which must be a
// pointer to a slice.
func (c *Client) Query(ctx context.Context, table string, out any, opts ...QueryOption) error {
	q := url.Values{}
	q.Set("select", "*")
	for _, opt := range opts {
		opt(q)
	}
	return c.do(ctx, http.MethodGet, restPrefix+table, q, nil, "", out)
}

// Select is the typed form of Query.
func Select[T any](ctx context.Context, c *Client, table string, opts ...QueryOption) ([]T, error) {
	var rows []T
	if err := c.Query(ctx, table, &rows, opts...); err != nil {
		return nil, err
	}
	return rows, nil
}

// Insert creates one row and decodes the created representation into out.
func (c *Client) Insert(ctx context.Context, table string, record, out any) error {
	var rows []json.RawMessage
	if err := c.do(ctx, http.MethodPost, restPrefix+table, nil, record, "return=representation", &rows); err != nil {
		return err
	}
	return firstRow(rows, out)
}

// Update replaces the given fields of the row identified by id and decodes
// the updated representation into out.
func (c *Client) Update(ctx context.Context, table, id string, fields, out any) error {
	if id == "" {
		return eris.New("update requires a row id")
	}
	q := url.Values{}
	Eq("id", id)(q)
	var rows []json.RawMessage
	if err := c.do(ctx, http.MethodPatch, restPrefix+table, q, fields, "return=representation", &rows); err != nil {
		return err
	}
	return firstRow(rows, out)
}

// Remove deletes the row identified by id.
func (c *Client) Remove(ctx context.Context, table, id string) error {
	if id == "" {
		return eris.New("delete requires a row id")
	}
	q := url.Values{}
	Eq("id", id)(q)
	return c.do(ctx, http.MethodDelete, restPrefix+table, q, nil, "return=minimal", nil)
}

// RPC calls a remote procedure with args encoded as a JSON object. out may
// be nil for procedures that return nothing.
func (c *Client) RPC(ctx context.Context, fn string, args, out any) error {
	if args == nil {
		args = struct{}{}
	}
	return c.do(ctx, http.MethodPost, restPrefix+"rpc/"+fn, nil, args, "", out)
}

func firstRow(rows []json.RawMessage, out any) error {
	if len(rows) == 0 {
		return &Error{Status: http.StatusNotFound, Message: "row not found"}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rows[0], out); err != nil {
		return eris.Wrap(err, "decoding returned row")
	}
	return nil
}

func (c *Client) bearer(ctx context.Context) string {
	if s, ok := SessionFromContext(ctx); ok && s.AccessToken != "" {
		return s.AccessToken
	}
	return c.anonKey
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, prefer string, out any) error {
	return c.send(ctx, method, path, query, body, prefer, c.bearer(ctx), out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, prefer, bearer string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "encoding request body")
		}
		reader = bytes.NewReader(payload)
	}

	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return eris.Wrap(err, "building backend request")
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log(method, path, 0, start, err)
		return &Error{Message: "backend unreachable", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.log(method, path, resp.StatusCode, start, err)
		return &Error{Status: resp.StatusCode, Message: "reading backend response", Err: err}
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		re := decodeError(resp.StatusCode, data)
		c.log(method, path, resp.StatusCode, start, re)
		return re
	}
	c.log(method, path, resp.StatusCode, start, nil)

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrapf(err, "decoding %s %s response", method, path)
	}
	return nil
}

func (c *Client) log(method, path string, status int, start time.Time, err error) {
	if c.logger == nil {
		return
	}
	entry := c.logger.WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": float64(time.Since(start).Microseconds()) / 1000,
	})
	if err != nil {
		entry.WithError(err).Warn("backend call failed")
		return
	}
	entry.Debug("backend call")
}
