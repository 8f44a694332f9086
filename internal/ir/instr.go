package ir

import (
	"github.com/hassan/compiler/internal/diag"
	"github.com/hassan/compiler/internal/types"
)

// Instruction is one step within a basic block that does not transfer
// control: a binding, a side-effecting print, or a memory-management
// directive (spec.md §3).
type Instruction interface {
	Span() diag.Span
	isInstruction()
}

// LetInstr binds a fresh local to the result of evaluating expr, with an
// optional declared type checked against the expression's inferred type
// (spec.md §4.F, §4.G).
type LetInstr struct {
	SpanVal    diag.Span
	Binding    LocalIdx
	DeclaredTy *types.Ty
	Expr       Expr
}

func (i *LetInstr) Span() diag.Span { return i.SpanVal }
func (i *LetInstr) isInstruction()   {}

// PrintlnInstr prints the value of a local; the checker does not
// constrain its type (the original's string-only restriction is
// commented out in alc_type_checker, and spec.md §4.G names no
// restriction for it either).
type PrintlnInstr struct {
	SpanVal diag.Span
	Local   LocalIdx
}

func (i *PrintlnInstr) Span() diag.Span { return i.SpanVal }
func (i *PrintlnInstr) isInstruction()   {}

// MarkInstr, UnmarkInstr, and FreeInstr are memory-management directives
// over a heap-allocated aggregate local (spec.md §3, §4.G: "never a
// primitive"). Mark and Unmark belong to a GC variant this compiler does
// not implement (spec.md §9 notes "multiple conflicting variants of the
// MM pass exist in the source tree"; the `gc` selector here only ever
// produces `none` — the identity — or `own-rc`). Free is real: own-rc
// emits it whenever a tracked local's count reaches zero (spec.md §4.H).
type MarkInstr struct {
	SpanVal diag.Span
	Local   LocalIdx
	Ty      types.Ty
}

func (i *MarkInstr) Span() diag.Span { return i.SpanVal }
func (i *MarkInstr) isInstruction()   {}

type UnmarkInstr struct {
	SpanVal diag.Span
	Local   LocalIdx
	Ty      types.Ty
}

func (i *UnmarkInstr) Span() diag.Span { return i.SpanVal }
func (i *UnmarkInstr) isInstruction()   {}

type FreeInstr struct {
	SpanVal diag.Span
	Local   LocalIdx
	Ty      types.Ty
}

func (i *FreeInstr) Span() diag.Span { return i.SpanVal }
func (i *FreeInstr) isInstruction()   {}

// IncRcInstr and DecRcInstr are the reference-count adjustments inserted
// by the own-rc memory-management policy (spec.md §4.H).
type IncRcInstr struct {
	SpanVal diag.Span
	Local   LocalIdx
	Ty      types.Ty
}

func (i *IncRcInstr) Span() diag.Span { return i.SpanVal }
func (i *IncRcInstr) isInstruction()   {}

type DecRcInstr struct {
	SpanVal diag.Span
	Local   LocalIdx
	Ty      types.Ty
}

func (i *DecRcInstr) Span() diag.Span { return i.SpanVal }
func (i *DecRcInstr) isInstruction()   {}
