package entity

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/eringen/folioadmin/notify"
	"github.com/eringen/folioadmin/query"
	"github.com/eringen/folioadmin/remote"
	"github.com/eringen/folioadmin/token"
)

const (
	rpcListSessions  = "get_my_sessions"
	rpcRevokeSession = "revoke_session"
	rpcRevokeOthers  = "revoke_other_sessions"

	sessionsName = "sessions"
)

// SessionHook lists and revokes the identity-service sessions of the
// signed-in admin. There is no create or update.
type SessionHook struct {
	Deps
}

// NewSessionHook builds a SessionHook.
func NewSessionHook(deps Deps) *SessionHook {
	return &SessionHook{Deps: deps}
}

// Key is scoped to the admin so two admins never share a slot.
func (h *SessionHook) Key(ctx context.Context) query.Key {
	if s, ok := remote.SessionFromContext(ctx); ok {
		if sub, err := token.Subject(s.AccessToken); err == nil && sub != "" {
			return query.Key(sessionsName + ":" + sub)
		}
	}
	return sessionsName
}

// Read returns the admin's sessions, newest first.
func (h *SessionHook) Read(ctx context.Context) Result[Session] {
	v, err := h.Cache.Fetch(ctx, h.Key(ctx), func(ctx context.Context) (any, error) {
		rows := []Session{}
		if err := h.Backend.RPC(ctx, rpcListSessions, nil, &rows); err != nil {
			return nil, err
		}
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].CreatedAt > rows[j].CreatedAt
		})
		return rows, nil
	})
	if err != nil {
		return Result[Session]{Err: err}
	}
	rows, _ := v.([]Session)
	return Result[Session]{Data: rows, FetchedAt: h.Cache.State(h.Key(ctx)).FetchedAt}
}

// Peek returns the cached sessions without fetching.
func (h *SessionHook) Peek(ctx context.Context) Result[Session] {
	st := h.Cache.State(h.Key(ctx))
	rows, _ := st.Data.([]Session)
	return Result[Session]{Data: rows, IsLoading: st.IsLoading, Err: st.Err, FetchedAt: st.FetchedAt}
}

// CurrentID returns the session id claimed by the access token on ctx, or
// "" when there is none.
func (h *SessionHook) CurrentID(ctx context.Context) string {
	s, ok := remote.SessionFromContext(ctx)
	if !ok {
		return ""
	}
	id, err := token.SessionID(s.AccessToken)
	if err != nil {
		return ""
	}
	return id
}

// RevokeOne ends the session with id.
func (h *SessionHook) RevokeOne(ctx context.Context, id string) error {
	if id == "" {
		return failed(ctx, h.Deps, sessionsName, "revoke", eris.New("session id is required"))
	}
	if err := h.Backend.RPC(ctx, rpcRevokeSession, map[string]string{"session_id": id}, nil); err != nil {
		return failed(ctx, h.Deps, sessionsName, "revoke", err)
	}
	h.revoked(ctx, "revoked", id)
	notify.Success(ctx, "Session revoked")
	return nil
}

// RevokeOthers ends every session except the current one. The current
// session is identified by the access token's session claim; without it
// nothing is revoked.
func (h *SessionHook) RevokeOthers(ctx context.Context) error {
	s, ok := remote.SessionFromContext(ctx)
	if !ok {
		return failed(ctx, h.Deps, sessionsName, "revoke others", token.ErrNoSessionClaim)
	}
	current, err := token.SessionID(s.AccessToken)
	if err != nil {
		return failed(ctx, h.Deps, sessionsName, "revoke others", err)
	}
	args := map[string]string{"current_session_id": current}
	if err := h.Backend.RPC(ctx, rpcRevokeOthers, args, nil); err != nil {
		return failed(ctx, h.Deps, sessionsName, "revoke others", err)
	}
	h.revoked(ctx, "revoked others", current)
	notify.Success(ctx, "Other sessions revoked")
	return nil
}

func (h *SessionHook) revoked(ctx context.Context, action, id string) {
	mutated(ctx, h.Deps, h.Key(ctx), sessionsName, action, id)
}
