// Package diag implements the diagnostic primitives shared by every stage
// of the pipeline: spans, labels, and structured error records. This
// package only produces diagnostics; it never renders them (SPEC_FULL §4.B
// and §6 — rendering belongs to the driver, which is the one caller
// allowed to reach for a terminal-coloring dependency).
package diag

import "fmt"

// Span is a byte-offset range into a single source file. Two spans are
// never compared for equality as part of any identity check elsewhere in
// the compiler (spec.md §3: "span equality is not part of identity").
type Span struct {
	Start int
	End   int
}

// DummySpan is used when no real source location is available, e.g. for
// synthetic locals introduced by desugaring.
func DummySpan() Span {
	return Span{}
}

// Merge returns the smallest span covering both s and other.
func (s Span) Merge(other Span) Span {
	start, end := s.Start, s.End
	if other.Start < start {
		start = other.Start
	}
	if other.End > end {
		end = other.End
	}
	return Span{Start: start, End: end}
}

// Severity distinguishes user-facing errors from internal invariant
// violations (spec.md §7).
type Severity int

const (
	// SeverityError is a user error: a mistake in the compiled program.
	SeverityError Severity = iota
	// SeverityBug is an internal invariant violation in the compiler
	// itself, surfaced but distinguished from user error.
	SeverityBug
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityBug:
		return "bug"
	default:
		return "unknown"
	}
}

// Label attaches a message to a span, either as the primary location of a
// diagnostic or as secondary context (spec.md §7: "duplicate field is an
// error with two secondary labels").
type Label struct {
	Span    Span
	Message string
}

// Diagnostic is a single structured error record. The core never writes
// one to stdout/stderr; it is returned by value up the pipeline (spec.md
// §5, §7).
type Diagnostic struct {
	Severity  Severity
	Message   string
	Primary   Label
	Secondary []Label
}

// Error implements the error interface so a *Diagnostic can be returned
// and propagated like any other Go error.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s (at %d..%d)", d.Severity, d.Message, d.Primary.Span.Start, d.Primary.Span.End)
}

// NewError builds a user-facing diagnostic.
func NewError(message string, primary Label) *Diagnostic {
	return &Diagnostic{Severity: SeverityError, Message: message, Primary: primary}
}

// NewBug builds an internal-invariant-violation diagnostic.
func NewBug(message string, primary Label) *Diagnostic {
	return &Diagnostic{Severity: SeverityBug, Message: message, Primary: primary}
}

// WithSecondary attaches secondary labels and returns the receiver for
// chaining, mirroring the original's Diagnostic::with_secondary_labels.
func (d *Diagnostic) WithSecondary(labels ...Label) *Diagnostic {
	d.Secondary = append(d.Secondary, labels...)
	return d
}
