package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one log channel record.
type Entry struct {
	Time    time.Time
	Message string
	Level   Level
}

// Call carries the log and escalation channels of one callback invocation.
// A Call is created per invocation and discarded afterwards.
type Call struct {
	sink     Sink
	id       string
	callback string
	fatal    string
	entries  []Entry
	mu       sync.Mutex
	fatalSet bool
}

// NewCall starts a call for the given callback id. A nil sink discards
// entries; they are still recorded on the call.
func NewCall(callback string, sink Sink) *Call {
	if sink == nil {
		sink = Nop{}
	}
	return &Call{
		id:       uuid.NewString(),
		callback: callback,
		sink:     sink,
	}
}

// ID returns the unique call id.
func (c *Call) ID() string { return c.id }

// Callback returns the id of the callback being invoked.
func (c *Call) Callback() string { return c.callback }

// Log records message at level and forwards it to the sink. Out-of-range
// levels are recorded as LevelInfo. Log never fails and never halts.
func (c *Call) Log(message string, level Level) {
	e := Entry{Time: time.Now(), Message: message, Level: level.Normalize()}

	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()

	c.sink.Write(c, e)
}

// SignalFatal marks the call fatal. Only the first message is kept.
func (c *Call) SignalFatal(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fatalSet {
		return
	}
	c.fatal = message
	c.fatalSet = true
}

// Fatal returns the escalation message and whether one was signalled.
func (c *Call) Fatal() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fatal, c.fatalSet
}

// Entries returns the recorded log entries in call order.
func (c *Call) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

type callKey struct{}

// WithCall attaches c to ctx for host functions that only see a context.
func WithCall(ctx context.Context, c *Call) context.Context {
	return context.WithValue(ctx, callKey{}, c)
}

// FromContext returns the call attached by WithCall.
func FromContext(ctx context.Context) (*Call, bool) {
	c, ok := ctx.Value(callKey{}).(*Call)
	return c, ok && c != nil
}
