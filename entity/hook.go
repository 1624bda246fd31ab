// Package entity holds one read-plus-mutations hook per managed content
// type. Every hook follows the same contract: reads go through the shared
// query cache under the entity name, and a successful mutation invalidates
// that key instead of patching the cached rows.
package entity

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/eringen/folioadmin/form"
	"github.com/eringen/folioadmin/notify"
	"github.com/eringen/folioadmin/query"
	"github.com/eringen/folioadmin/remote"
)

var (
	// ErrNotConfirmed is returned by Delete when the admin did not
	// acknowledge the confirmation step.
	ErrNotConfirmed = eris.New("delete was not confirmed")
	// ErrUnsupported is returned for operations an entity does not offer.
	ErrUnsupported = eris.New("operation not supported for this entity")
	// ErrNotFound is returned by Get when no row has the requested id.
	ErrNotFound = eris.New("row not found")
)

// Row is a stored record with a server-assigned id.
type Row interface {
	RowID() string
}

// Payload is the editable field set of an entity. Normalized returns the
// value that is sent to the backend.
type Payload[P any] interface {
	validation.Validatable
	Normalized() P
}

// Backend is the part of *remote.Client the hooks use.
type Backend interface {
	Query(ctx context.Context, table string, out any, opts ...remote.QueryOption) error
	Insert(ctx context.Context, table string, record, out any) error
	Update(ctx context.Context, table, id string, fields, out any) error
	Remove(ctx context.Context, table, id string) error
	RPC(ctx context.Context, fn string, args, out any) error
}

// Activity is one successful mutation, as written to the journal.
type Activity struct {
	Entity string
	Action string
	RowID  string
	Actor  string
	At     time.Time
}

// Journal records activity. Failures are logged, never returned to the
// admin.
type Journal interface {
	Record(ctx context.Context, a Activity) error
}

// Op is a set of mutation capabilities.
type Op uint8

const (
	OpCreate Op = 1 << iota
	OpUpdate
	OpDelete

	OpAll = OpCreate | OpUpdate | OpDelete
)

// Has reports whether o includes op.
func (o Op) Has(op Op) bool { return o&op == op }

// Definition describes one entity.
type Definition struct {
	// Name is the cache key and the route segment.
	Name string
	// Table is the backend table.
	Table string
	// Label is the singular noun used in notifications.
	Label string
	// Order is the fixed ordering of Read results.
	Order []remote.QueryOption
	Ops   Op
}

// Deps are the collaborators every hook shares.
type Deps struct {
	Backend Backend
	Cache   *query.Cache
	Journal Journal
	Logger  *logrus.Logger
}

// Result is what a read hook exposes.
type Result[T any] struct {
	Data      []T
	IsLoading bool
	Err       error
	FetchedAt time.Time
}

// Confirmation is the acknowledgement a delete needs. The zero value is
// unacknowledged.
type Confirmation struct {
	id           string
	acknowledged bool
}

// Confirm builds the confirmation for deleting id.
func Confirm(id string, acknowledged bool) Confirmation {
	return Confirmation{id: id, acknowledged: acknowledged}
}

// ID returns the row the confirmation is for.
func (c Confirmation) ID() string { return c.id }

// Hook is the read-plus-mutations contract for one entity.
type Hook[T Row, In Payload[In]] struct {
	def Definition
	Deps
}

// NewHook builds a hook for def.
func NewHook[T Row, In Payload[In]](def Definition, deps Deps) *Hook[T, In] {
	return &Hook[T, In]{def: def, Deps: deps}
}

// Definition returns what the hook was built with.
func (h *Hook[T, In]) Definition() Definition { return h.def }

// Key is the cache key of the entity.
func (h *Hook[T, In]) Key() query.Key { return query.Key(h.def.Name) }

// Read returns every row in the entity's fixed order. Concurrent readers
// share one fetch.
func (h *Hook[T, In]) Read(ctx context.Context) Result[T] {
	v, err := h.Cache.Fetch(ctx, h.Key(), func(ctx context.Context) (any, error) {
		rows := []T{}
		if err := h.Backend.Query(ctx, h.def.Table, &rows, h.def.Order...); err != nil {
			return nil, err
		}
		return rows, nil
	})
	if err != nil {
		return Result[T]{Err: err}
	}
	st := h.Cache.State(h.Key())
	rows, _ := v.([]T)
	return Result[T]{Data: rows, FetchedAt: st.FetchedAt}
}

// Peek returns the cached state without fetching.
func (h *Hook[T, In]) Peek() Result[T] {
	st := h.Cache.State(h.Key())
	rows, _ := st.Data.([]T)
	return Result[T]{Data: rows, IsLoading: st.IsLoading, Err: st.Err, FetchedAt: st.FetchedAt}
}

// Get finds the row with id in the read result.
func (h *Hook[T, In]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	res := h.Read(ctx)
	if res.Err != nil {
		return zero, res.Err
	}
	for _, row := range res.Data {
		if row.RowID() == id {
			return row, nil
		}
	}
	return zero, eris.Wrapf(ErrNotFound, "%s %s", h.def.Label, id)
}

// Watch re-fetches the entity whenever its key is invalidated, using the
// context of the call that invalidated it. The returned func stops it.
func (h *Hook[T, In]) Watch() (stop func()) {
	return h.Cache.Subscribe(h.Key(), func(ctx context.Context, e query.Event) {
		if e.Kind != query.Invalidated {
			return
		}
		if res := h.Read(ctx); res.Err != nil && h.Logger != nil {
			h.Logger.WithError(res.Err).WithField("entity", h.def.Name).Warn("refetch after invalidation failed")
		}
	})
}

// Create normalises, validates and inserts in. Validation failures are
// returned as form.Errors and never reach the backend.
func (h *Hook[T, In]) Create(ctx context.Context, in In) (T, error) {
	var created T
	if !h.def.Ops.Has(OpCreate) {
		return created, h.fail(ctx, "create", ErrUnsupported)
	}
	payload := in.Normalized()
	if errs := form.Validate(payload); errs != nil {
		return created, errs
	}
	if err := h.Backend.Insert(ctx, h.def.Table, payload, &created); err != nil {
		return created, h.fail(ctx, "create", err)
	}
	h.succeed(ctx, "created", created.RowID())
	return created, nil
}

// Update replaces every editable field of the row id with in.
func (h *Hook[T, In]) Update(ctx context.Context, id string, in In) (T, error) {
	var updated T
	if !h.def.Ops.Has(OpUpdate) {
		return updated, h.fail(ctx, "update", ErrUnsupported)
	}
	payload := in.Normalized()
	if errs := form.Validate(payload); errs != nil {
		return updated, errs
	}
	if err := h.Backend.Update(ctx, h.def.Table, id, payload, &updated); err != nil {
		return updated, h.fail(ctx, "update", err)
	}
	h.succeed(ctx, "updated", id)
	return updated, nil
}

// Delete removes the confirmed row. Without an acknowledged confirmation
// nothing is sent.
func (h *Hook[T, In]) Delete(ctx context.Context, c Confirmation) error {
	if !h.def.Ops.Has(OpDelete) {
		return h.fail(ctx, "delete", ErrUnsupported)
	}
	if !c.acknowledged || c.id == "" {
		return h.fail(ctx, "delete", ErrNotConfirmed)
	}
	if err := h.Backend.Remove(ctx, h.def.Table, c.id); err != nil {
		return h.fail(ctx, "delete", err)
	}
	h.succeed(ctx, "deleted", c.id)
	return nil
}

func (h *Hook[T, In]) succeed(ctx context.Context, action, id string) {
	mutated(ctx, h.Deps, h.Key(), h.def.Name, action, id)
	notify.Success(ctx, fmt.Sprintf("%s %s", capitalize(h.def.Label), action))
}

func (h *Hook[T, In]) fail(ctx context.Context, op string, err error) error {
	return failed(ctx, h.Deps, h.def.Name, op, err)
}

// mutated invalidates key and journals the change.
func mutated(ctx context.Context, deps Deps, key query.Key, name, action, id string) {
	deps.Cache.Invalidate(ctx, key)
	if deps.Journal == nil {
		return
	}
	a := Activity{Entity: name, Action: action, RowID: id, At: time.Now().UTC()}
	if s, ok := remote.SessionFromContext(ctx); ok {
		a.Actor = s.User.Email
	}
	if err := deps.Journal.Record(ctx, a); err != nil && deps.Logger != nil {
		deps.Logger.WithError(err).WithFields(logrus.Fields{
			"entity": name,
			"action": action,
			"row_id": id,
		}).Error("journal write failed")
	}
}

// failed reports err to the admin and returns it wrapped.
func failed(ctx context.Context, deps Deps, name, op string, err error) error {
	notify.Error(ctx, remote.Message(err))
	if deps.Logger != nil {
		deps.Logger.WithError(err).WithFields(logrus.Fields{
			"entity": name,
			"op":     op,
		}).Warn("mutation failed")
	}
	return eris.Wrapf(err, "%s %s", op, name)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
