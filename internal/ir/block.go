package ir

import "github.com/hassan/compiler/internal/diag"

// Terminator is the final step of a basic block: every block ends in
// exactly one (spec.md §3).
type Terminator interface {
	Span() diag.Span
	isTerminator()
}

// ReturnTerm returns the value of a local from the enclosing definition.
type ReturnTerm struct {
	SpanVal diag.Span
	Local   LocalIdx
}

func (t *ReturnTerm) Span() diag.Span { return t.SpanVal }
func (t *ReturnTerm) isTerminator()    {}

// Arm is one (pattern, target block) alternative of a match terminator.
// Target is a pointer because arms are only ever referenced from the one
// match that owns them, mirroring the original's boxed block
// (SPEC_FULL §3).
type Arm struct {
	SpanVal diag.Span
	Pattern Pattern
	Target  *Block
}

// MatchTerm dispatches on the value of Source to the first arm whose
// pattern matches, in order (spec.md §3, §4.F "if"-desugaring note in
// §9: literal arms tested by equality, identifier arm as default).
type MatchTerm struct {
	SpanVal diag.Span
	Source  LocalIdx
	Arms    []Arm
}

func (t *MatchTerm) Span() diag.Span { return t.SpanVal }
func (t *MatchTerm) isTerminator()    {}

// Block is a straight-line sequence of instructions ending in a single
// terminator, owned by one definition.
type Block struct {
	Owner        DefIdx
	BlockIdx     BlockIdx
	SpanVal      diag.Span
	Instructions []Instruction
	Terminator   Terminator
}

func (b *Block) Span() diag.Span { return b.SpanVal }
