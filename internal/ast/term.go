package ast

import "github.com/hassan/compiler/internal/diag"

// Term is a statement-like form in a function body: it may bind a name,
// print, branch, or return, and always sequences into whatever follows it
// (spec.md §4.F).
type Term interface {
	Span() diag.Span
	isTerm()
}

// LetTerm binds Name to the value of Expr, with an optional declared type,
// then continues into Rest.
type LetTerm struct {
	SpanVal  diag.Span
	Name     Ident
	Ty       *TyExpr
	Expr     Expr
	Rest     Term
}

func (t *LetTerm) Span() diag.Span { return t.SpanVal }
func (t *LetTerm) isTerm()         {}

// PrintlnTerm prints the value of Expr, then continues into Rest.
type PrintlnTerm struct {
	SpanVal diag.Span
	Expr    Expr
	Rest    Term
}

func (t *PrintlnTerm) Span() diag.Span { return t.SpanVal }
func (t *PrintlnTerm) isTerm()         {}

// MatchArm is one (pattern, body) alternative of a match term.
type MatchArm struct {
	SpanVal diag.Span
	Pattern Pattern
	Body    Term
}

// MatchTerm dispatches on Scrutinee to the first arm whose pattern
// matches. An "if" in source desugars to a MatchTerm with a zero literal
// arm first and a wildcard identifier arm second, targeting the else and
// then branches respectively (spec.md §4.F, §9).
type MatchTerm struct {
	SpanVal   diag.Span
	Scrutinee Expr
	Arms      []MatchArm
}

func (t *MatchTerm) Span() diag.Span { return t.SpanVal }
func (t *MatchTerm) isTerm()         {}

// IfTerm is surface-level sugar for a two-armed match: lowering desugars
// it into a MatchTerm over the condition, with a u64 zero-literal arm first
// (targeting Else) and a wildcard identifier arm second (targeting Then),
// so that any nonzero condition value falls through to Then (spec.md §4.F,
// §9).
type IfTerm struct {
	SpanVal diag.Span
	Cond    Expr
	Then    Term
	Else    Term
}

func (t *IfTerm) Span() diag.Span { return t.SpanVal }
func (t *IfTerm) isTerm()         {}

// ReturnTerm returns the value of Expr from the enclosing function; it
// terminates its Term chain (no Rest).
type ReturnTerm struct {
	SpanVal diag.Span
	Expr    Expr
}

func (t *ReturnTerm) Span() diag.Span { return t.SpanVal }
func (t *ReturnTerm) isTerm()         {}
