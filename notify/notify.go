// Package notify carries transient admin notifications (toasts) from the
// code that decides them to whatever renders them.
package notify

import (
	"context"
	"sync"
)

// Kind is the tone of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Message is one notification.
type Message struct {
	Kind Kind
	Text string
}

// Notifier receives notifications.
type Notifier interface {
	Notify(Message)
}

// Func adapts a function to Notifier.
type Func func(Message)

func (f Func) Notify(m Message) { f(m) }

type discard struct{}

func (discard) Notify(Message) {}

// Discard drops every notification.
var Discard Notifier = discard{}

type ctxKey struct{}

// WithNotifier returns a context whose notifications go to n.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, ctxKey{}, n)
}

// FromContext returns the notifier stored in ctx, or Discard.
func FromContext(ctx context.Context) Notifier {
	if n, ok := ctx.Value(ctxKey{}).(Notifier); ok && n != nil {
		return n
	}
	return Discard
}

// Success raises a success notification on ctx's notifier.
func Success(ctx context.Context, text string) {
	FromContext(ctx).Notify(Message{Kind: KindSuccess, Text: text})
}

// Error raises an error notification on ctx's notifier.
func Error(ctx context.Context, text string) {
	FromContext(ctx).Notify(Message{Kind: KindError, Text: text})
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Notify(m Message) {
	r.mu.Lock()
	r.messages = append(r.messages, m)
	r.mu.Unlock()
}

// Messages returns a copy of what was recorded.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Last returns the most recent message, if any.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}
