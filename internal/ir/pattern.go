package ir

import (
	"github.com/hassan/compiler/internal/diag"
	"github.com/hassan/compiler/internal/idx"
	"github.com/hassan/compiler/internal/types"
)

// Pattern is the IR shape of a single match-arm pattern (spec.md §3).
type Pattern interface {
	Span() diag.Span
	isPattern()
}

// LiteralPattern matches a fixed-width integer literal by equality.
type LiteralPattern struct {
	SpanVal diag.Span
	Width   IntWidth
	Value   int64
}

func (p *LiteralPattern) Span() diag.Span { return p.SpanVal }
func (p *LiteralPattern) isPattern()      {}

// StringPattern matches a string literal by equality. Per spec.md §9 this
// pattern kind is carried by the IR but neither the type checker nor the
// lowering's arm dispatch implement it as a real dispatch case — both
// stages report a "not supported" error diagnostic rather than silently
// treating it as a wildcard.
type StringPattern struct {
	SpanVal diag.Span
	Value   string
}

func (p *StringPattern) Span() diag.Span { return p.SpanVal }
func (p *StringPattern) isPattern()      {}

// ArrayPattern matches an array literal by equality. Carried for the same
// reason and with the same limitation as StringPattern (spec.md §9).
type ArrayPattern struct {
	SpanVal   diag.Span
	ElementTy types.Ty
	Elements  []LocalIdx
}

func (p *ArrayPattern) Span() diag.Span { return p.SpanVal }
func (p *ArrayPattern) isPattern()      {}

// IdentPattern is a wildcard-binding identifier: it always matches, and
// binds the matched value to a fresh local.
type IdentPattern struct {
	SpanVal diag.Span
	Binding LocalIdx
}

func (p *IdentPattern) Span() diag.Span { return p.SpanVal }
func (p *IdentPattern) isPattern()      {}

// VariantPattern matches a specific enum discriminant and binds its
// payload to a fresh local.
type VariantPattern struct {
	SpanVal      diag.Span
	Ty           types.Ty
	Discriminant types.VariantIdx
	Binding      LocalIdx
}

func (p *VariantPattern) Span() diag.Span { return p.SpanVal }
func (p *VariantPattern) isPattern()      {}

// RecordPattern destructures a struct, binding each field to a fresh
// local.
type RecordPattern struct {
	SpanVal diag.Span
	Ty      types.Ty
	Fields  *idx.IdxVec[types.FieldIdx, LocalIdx]
}

func (p *RecordPattern) Span() diag.Span { return p.SpanVal }
func (p *RecordPattern) isPattern()      {}
