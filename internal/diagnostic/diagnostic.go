// Package diagnostic implements the error sink used by the checker and the
// code generator: a collector of source-located messages, plus the fatal/
// debug-trace side channel described for internal invariant violations.
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Severity represents the severity level of a diagnostic message.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
	Debug
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Debug:
		return "debug"
	default:
		return "unknown"
	}
}

// Diagnostic is a single compiler message.
type Diagnostic struct {
	Severity Severity
	Message  string
	Line     int
	Column   int
	File     string
	Hint     string
}

// Sink collects diagnostics and carries the debug-trace indentation state.
// It is the error sink referenced by §6 of the spec: error/fatal/debugMessage/
// incDebug/decDebug.
type Sink struct {
	items      []Diagnostic
	debugLevel int
	traceOn    bool
}

// New creates a new empty Sink.
func New() *Sink {
	return &Sink{items: make([]Diagnostic, 0)}
}

// SetTrace turns debug-message emission on or off.
func (d *Sink) SetTrace(on bool) {
	d.traceOn = on
}

// Error records an error diagnostic at the given source position.
func (d *Sink) Error(line, col int, format string, args ...interface{}) {
	d.items = append(d.items, Diagnostic{
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
}

// ErrorWithHint records an error diagnostic with an attached suggestion.
func (d *Sink) ErrorWithHint(line, col int, msg, hint string) {
	d.items = append(d.items, Diagnostic{
		Severity: Error,
		Message:  msg,
		Line:     line,
		Column:   col,
		Hint:     hint,
	})
}

// Fatal records an error diagnostic and returns a wrapped, stack-carrying
// Go error for internal invariant violations that must abort compilation
// (§7's "internal errors (fatal)"): code generation invoked on an Error
// node, or an unrecognised operator tag.
func (d *Sink) Fatal(line, col int, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	d.items = append(d.items, Diagnostic{
		Severity: Error,
		Message:  "internal error: " + msg,
		Line:     line,
		Column:   col,
	})
	return errors.WithStack(fmt.Errorf("pl0core: internal error at %d:%d: %s", line, col, msg))
}

// Debugf emits an indentation-tracked trace message, gated behind SetTrace.
func (d *Sink) Debugf(format string, args ...interface{}) {
	if !d.traceOn {
		return
	}
	d.items = append(d.items, Diagnostic{
		Severity: Debug,
		Message:  strings.Repeat("  ", d.debugLevel) + fmt.Sprintf(format, args...),
	})
}

// IncDebug increases the trace indentation level.
func (d *Sink) IncDebug() { d.debugLevel++ }

// DecDebug decreases the trace indentation level.
func (d *Sink) DecDebug() {
	if d.debugLevel > 0 {
		d.debugLevel--
	}
}

// HasErrors reports whether any error-level diagnostic was recorded.
func (d *Sink) HasErrors() bool {
	for _, item := range d.items {
		if item.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns only the error-level diagnostics.
func (d *Sink) Errors() []Diagnostic {
	out := make([]Diagnostic, 0)
	for _, item := range d.items {
		if item.Severity == Error {
			out = append(out, item)
		}
	}
	return out
}

// All returns every recorded diagnostic, including debug trace lines.
func (d *Sink) All() []Diagnostic {
	return d.items
}

// Count returns the total number of non-debug diagnostics recorded.
func (d *Sink) Count() int {
	n := 0
	for _, item := range d.items {
		if item.Severity != Debug {
			n++
		}
	}
	return n
}

// Format renders error/warning/info diagnostics in recorded (source) order,
// one per line, with an optional hint line. Debug trace lines are omitted.
func (d *Sink) Format(filename string) string {
	var b strings.Builder
	first := true
	for _, item := range d.items {
		if item.Severity == Debug {
			continue
		}
		file := filename
		if item.File != "" {
			file = item.File
		}
		if !first {
			b.WriteString("\n")
		}
		first = false
		fmt.Fprintf(&b, "%s[%s:%d:%d]: %s", item.Severity, file, item.Line, item.Column, item.Message)
		if item.Hint != "" {
			fmt.Fprintf(&b, "\n  hint: %s", item.Hint)
		}
	}
	return b.String()
}

// Clear removes all recorded diagnostics.
func (d *Sink) Clear() {
	d.items = d.items[:0]
	d.debugLevel = 0
}
