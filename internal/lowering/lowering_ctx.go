package lowering

import (
	"fmt"

	"github.com/hassan/compiler/internal/diag"
	"github.com/hassan/compiler/internal/idx"
	"github.com/hassan/compiler/internal/ir"
	"github.com/hassan/compiler/internal/types"
)

// scope is one link in the lexical binding chain: each match arm and each
// arm of a desugared if lowers in a fresh child scope, while let-bindings
// and function parameters bind into the current scope, whose extent is
// the rest of the term being lowered, so a binding never leaks past the
// term that introduced it (spec.md §4.F).
type scope struct {
	parent *scope
	vars   map[string]ir.LocalIdx
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]ir.LocalIdx)}
}

func (s *scope) bind(name string, local ir.LocalIdx) {
	s.vars[name] = local
}

func (s *scope) lookup(name string) (ir.LocalIdx, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if l, ok := cur.vars[name]; ok {
			return l, true
		}
	}
	return ir.LocalIdx{}, false
}

// fnInfo is what the module-level environment remembers about a
// function once its prototype has been registered, before its body is
// lowered — this is what makes forward and mutually recursive calls
// resolve (spec.md §4.F, mirroring the two-phase registration of §4.D).
type fnInfo struct {
	defIdx ir.DefIdx
	proto  types.Prototype
}

// ctx holds everything shared across the whole module's lowering: the
// type session, the nominal-type environment built by LowerTypes, and the
// function environment built by the first phase of LowerModule.
type ctx struct {
	sess  *types.Session
	tyEnv *TyEnv
	fns   map[string]fnInfo
	out   *ir.Ir
}

// fnCtx holds the per-definition state threaded through lowering of a
// single function body: its local/block allocators, its current lexical
// scope, and the type recorded for each local it has minted so far
// (needed to resolve field projections and validate declared types).
type fnCtx struct {
	*ctx
	def        *ir.Def
	localIdxr  *idx.Idxr[ir.LocalIdx]
	blockIdxr  *idx.Idxr[ir.BlockIdx]
	localTypes map[int]types.Ty
	sc         *scope
	diags      []*diag.Diagnostic
}

func (fc *fnCtx) errorf(span diag.Span, hint string, args ...any) {
	msg := fmt.Sprintf(hint, args...)
	fc.diags = append(fc.diags, diag.NewError(msg, diag.Label{Span: span, Message: msg}))
}

func (fc *fnCtx) bugf(span diag.Span, hint string, args ...any) {
	msg := fmt.Sprintf(hint, args...)
	fc.diags = append(fc.diags, diag.NewBug(msg, diag.Label{Span: span, Message: msg}))
}

func (fc *fnCtx) fresh(span diag.Span, ty types.Ty) ir.LocalIdx {
	l := fc.localIdxr.Next().WithSpan(span)
	fc.localTypes[l.Index()] = ty
	return l
}

func (fc *fnCtx) typeOf(local ir.LocalIdx) (types.Ty, bool) {
	ty, ok := fc.localTypes[local.Index()]
	return ty, ok
}
