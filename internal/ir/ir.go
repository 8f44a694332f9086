// Package ir implements the intermediate representation produced by
// lowering and consumed by the type checker, the MM-instruction pass, and
// ultimately a backend code generator (SPEC_FULL §4.E).
//
// The IR is a tree rooted at a definition vector: blocks are owned by
// their definition, instructions by their block, expressions by their
// instruction. Cross-references (a local index to an earlier let binding,
// a definition index to a definition, a type index to a type) are by
// value and resolved through the owning container — there are no cyclic
// owning references (spec.md §3).
package ir

import (
	"github.com/hassan/compiler/internal/diag"
	"github.com/hassan/compiler/internal/idx"
	"github.com/hassan/compiler/internal/types"
)

// DefIdx identifies a function (a "Definition") within an Ir.
type DefIdx struct{ idx int }

func (d DefIdx) Index() int  { return d.idx }
func NewDefIdx(i int) DefIdx { return DefIdx{idx: i} }

// BlockIdx identifies a basic block within a single definition.
type BlockIdx struct{ idx int }

func (b BlockIdx) Index() int    { return b.idx }
func NewBlockIdx(i int) BlockIdx { return BlockIdx{idx: i} }

// LocalIdx identifies an SSA-like temporary within a single definition.
// It additionally carries a source span for diagnostics; per spec.md §3
// span equality is not part of LocalIdx identity, so Index is the only
// thing that should ever be compared or used as a map key (always via
// .Index(), never the struct itself — two LocalIdx values for the same
// position but different spans would not be == under Go's struct
// equality because of the embedded span, so code in this compiler never
// relies on LocalIdx struct equality).
type LocalIdx struct {
	idx  int
	span diag.Span
}

func (l LocalIdx) Index() int { return l.idx }

// NewLocalIdx builds a LocalIdx at a given position with a dummy span.
func NewLocalIdx(i int) LocalIdx { return LocalIdx{idx: i, span: diag.DummySpan()} }

// WithSpan returns a copy of l re-pointed at a new source location,
// without changing its identity (spec.md §3 / §4.F: a variable reference
// "resolves the identifier... and returns the existing local (with its
// span updated to the use site)").
func (l LocalIdx) WithSpan(s diag.Span) LocalIdx { return LocalIdx{idx: l.idx, span: s} }

// Span returns the source location currently associated with l.
func (l LocalIdx) Span() diag.Span { return l.span }

// NewLocalIdxr allocates a fresh monotonic LocalIdx allocator, starting at
// zero, for one definition.
func NewLocalIdxr() *idx.Idxr[LocalIdx] {
	return idx.NewIdxr[LocalIdx](NewLocalIdx)
}

// NewBlockIdxr allocates a fresh monotonic BlockIdx allocator for one
// definition.
func NewBlockIdxr() *idx.Idxr[BlockIdx] {
	return idx.NewIdxr[BlockIdx](NewBlockIdx)
}

// Entry is the root block of a definition along with the locals its
// parameters were bound to.
type Entry struct {
	Owner         DefIdx
	ParamBindings *idx.IdxVec[types.ParamIdx, LocalIdx]
	Body          *Block
}

// Def is a lowered function: a source name, its prototype type, its
// entry block, and the local-index allocator that minted every LocalIdx
// appearing in its body.
type Def struct {
	DefIdx    DefIdx
	Name      string
	Ty        types.Ty
	Span      diag.Span
	Entry     Entry
	LocalIdxr *idx.Idxr[LocalIdx]
}

// Ir is the full lowered program: every definition, in registration
// order.
type Ir struct {
	Defs *idx.IdxVec[DefIdx, *Def]
}

// NewIr creates an empty Ir ready to receive pushed definitions.
func NewIr() *Ir {
	return &Ir{Defs: idx.NewIdxVec[DefIdx, *Def](NewDefIdx)}
}

// ReservedNames lists the runtime-support symbols a user function must
// not be named after (spec.md §6).
var ReservedNames = map[string]bool{
	"main":      true,
	"malloc":    true,
	"free":      true,
	"alc_reset": true,
	"alc_free":  true,
	"alc_alloc": true,
	"GC_malloc": true,
}
