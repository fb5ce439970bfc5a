package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// spanPrinter writes one line per ended span.
type spanPrinter struct {
	w  io.Writer
	mu sync.Mutex
}

func newSpanPrinter(w io.Writer) *spanPrinter {
	return &spanPrinter{w: w}
}

func (p *spanPrinter) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *spanPrinter) OnEnd(s sdktrace.ReadOnlySpan) {
	var attrs []string
	for _, kv := range s.Attributes() {
		attrs = append(attrs, string(kv.Key)+"="+kv.Value.Emit())
	}
	status := s.Status().Code.String()
	if d := s.Status().Description; d != "" {
		status += " (" + d + ")"
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "span %s %s %s %s\n",
		s.Name(), s.EndTime().Sub(s.StartTime()), status, strings.Join(attrs, " "))
	for _, e := range s.Events() {
		fmt.Fprintf(p.w, "  event %s", e.Name)
		for _, kv := range e.Attributes {
			fmt.Fprintf(p.w, " %s=%s", kv.Key, kv.Value.Emit())
		}
		fmt.Fprintln(p.w)
	}
}

func (p *spanPrinter) Shutdown(context.Context) error   { return nil }
func (p *spanPrinter) ForceFlush(context.Context) error { return nil }
