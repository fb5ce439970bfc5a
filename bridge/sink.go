package bridge

import (
	"sync"

	"go.uber.org/zap"
)

// Sink receives log channel entries.
type Sink interface {
	Write(call *Call, e Entry)
}

// Nop discards entries.
type Nop struct{}

func (Nop) Write(*Call, Entry) {}

// ZapSink writes entries through a zap logger with callback and call id
// fields.
type ZapSink struct {
	Logger *zap.Logger
}

func NewZapSink(l *zap.Logger) *ZapSink {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapSink{Logger: l}
}

func (s *ZapSink) Write(call *Call, e Entry) {
	if ce := s.Logger.Check(e.Level.ZapLevel(), e.Message); ce != nil {
		ce.Time = e.Time
		ce.Write(
			zap.String("callback", call.Callback()),
			zap.String("call_id", call.ID()),
		)
	}
}

// Capture keeps entries in memory.
type Capture struct {
	entries []Entry
	mu      sync.Mutex
}

func (c *Capture) Write(_ *Call, e Entry) {
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()
}

// Entries returns everything written so far.
func (c *Capture) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Reset drops the captured entries.
func (c *Capture) Reset() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}

type tee []Sink

func (t tee) Write(call *Call, e Entry) {
	for _, s := range t {
		s.Write(call, e)
	}
}

// Tee fans entries out to every non-nil sink.
func Tee(sinks ...Sink) Sink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
