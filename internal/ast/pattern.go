package ast

import "github.com/hassan/compiler/internal/diag"

// Pattern is a single match-arm pattern as written in source.
type Pattern interface {
	Span() diag.Span
	isPattern()
}

// NumberLiteralPattern matches an unsuffixed integer literal by equality.
type NumberLiteralPattern struct {
	SpanVal diag.Span
	Value   int64
}

func (p *NumberLiteralPattern) Span() diag.Span { return p.SpanVal }
func (p *NumberLiteralPattern) isPattern()      {}

// U64LiteralPattern matches a u64-suffixed integer literal by equality.
type U64LiteralPattern struct {
	SpanVal diag.Span
	Value   uint64
}

func (p *U64LiteralPattern) Span() diag.Span { return p.SpanVal }
func (p *U64LiteralPattern) isPattern()      {}

// StringLiteralPattern matches a string literal by equality. Carried
// through parsing and lowering but rejected with a "not supported" error
// diagnostic by both the lowering and the type checker (spec.md §9).
type StringLiteralPattern struct {
	SpanVal diag.Span
	Value   string
}

func (p *StringLiteralPattern) Span() diag.Span { return p.SpanVal }
func (p *StringLiteralPattern) isPattern()      {}

// ArrayLiteralPattern matches an array literal by equality. Same
// limitation as StringLiteralPattern.
type ArrayLiteralPattern struct {
	SpanVal  diag.Span
	Elements []Pattern
}

func (p *ArrayLiteralPattern) Span() diag.Span { return p.SpanVal }
func (p *ArrayLiteralPattern) isPattern()      {}

// IdentPattern always matches and binds the scrutinee to Name.
type IdentPattern struct {
	SpanVal diag.Span
	Name    Ident
}

func (p *IdentPattern) Span() diag.Span { return p.SpanVal }
func (p *IdentPattern) isPattern()      {}

// VariantPattern matches a named enum case and binds its payload to
// Binding.
type VariantPattern struct {
	SpanVal diag.Span
	Enum    Ident
	Case    Ident
	Binding Ident
}

func (p *VariantPattern) Span() diag.Span { return p.SpanVal }
func (p *VariantPattern) isPattern()      {}

// RecordFieldPattern binds one named struct field to Binding.
type RecordFieldPattern struct {
	Name    Ident
	Binding Ident
}

// RecordPattern destructures a named struct, binding each field present
// to its corresponding name; missing or duplicate fields are a lowering
// error, same as record literals (spec.md §4.F).
type RecordPattern struct {
	SpanVal diag.Span
	Struct  Ident
	Fields  []RecordFieldPattern
}

func (p *RecordPattern) Span() diag.Span { return p.SpanVal }
func (p *RecordPattern) isPattern()      {}
