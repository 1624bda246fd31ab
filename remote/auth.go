package remote

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// User is the identity attached to a Session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the token pair issued by the identity service.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

// Expiry returns the access token expiry as a time.
func (s Session) Expiry() time.Time {
	if s.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAt, 0)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

func (t tokenResponse) session(now time.Time) Session {
	expires := t.ExpiresAt
	if expires == 0 && t.ExpiresIn > 0 {
		expires = now.Add(time.Duration(t.ExpiresIn) * time.Second).Unix()
	}
	return Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    expires,
		User:         t.User,
	}
}

type sessionKey struct{}

// WithSession returns a context carrying s. Calls made with that context
// are authenticated as s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored by WithSession.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok && s.AccessToken != ""
}

// CurrentSession returns the session the client would authenticate ctx
// calls with, or false when ctx is anonymous.
func (c *Client) CurrentSession(ctx context.Context) (Session, bool) {
	return SessionFromContext(ctx)
}

// SignIn exchanges an email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	return c.grant(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if refreshToken == "" {
		return Session{}, eris.New("refresh token is empty")
	}
	return c.grant(ctx, "refresh_token", map[string]string{
		"refresh_token": refreshToken,
	})
}

func (c *Client) grant(ctx context.Context, grantType string, body map[string]string) (Session, error) {
	q := url.Values{}
	q.Set("grant_type", grantType)
	var resp tokenResponse
	if err := c.send(ctx, http.MethodPost, authPrefix+"token", q, body, "", c.anonKey, &resp); err != nil {
		return Session{}, err
	}
	if resp.AccessToken == "" {
		return Session{}, &Error{Status: http.StatusUnauthorized, Message: "identity service returned no access token"}
	}
	return resp.session(time.Now()), nil
}

// SignOut revokes the session carried by ctx on the identity service.
func (c *Client) SignOut(ctx context.Context) error {
	s, ok := SessionFromContext(ctx)
	if !ok {
		return nil
	}
	return c.send(ctx, http.MethodPost, authPrefix+"logout", nil, nil, "", s.AccessToken, nil)
}

// User fetches the identity behind the session carried by ctx.
func (c *Client) User(ctx context.Context) (User, error) {
	s, ok := SessionFromContext(ctx)
	if !ok {
		return User{}, &Error{Status: http.StatusUnauthorized, Message: "not signed in"}
	}
	var u User
	if err := c.send(ctx, http.MethodGet, authPrefix+"user", nil, nil, "", s.AccessToken, &u); err != nil {
		return User{}, err
	}
	return u, nil
}
