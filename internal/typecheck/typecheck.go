// Package typecheck implements the independent type-checking pass
// (SPEC_FULL §4.G): it reconstructs, from scratch, a local-index-to-type
// environment for every definition in an already-lowered Ir and verifies
// every expression, instruction, and terminator against it. It trusts
// nothing lowering decided — a bug in lowering that produces an
// ill-typed IR is caught here rather than silently propagating to the
// backend.
package typecheck

import (
	"fmt"

	"github.com/hassan/compiler/internal/diag"
	"github.com/hassan/compiler/internal/ir"
	"github.com/hassan/compiler/internal/types"
)

// Env is the full result of a successful check: one local-to-type table
// per definition.
type Env struct {
	byDef map[int]map[int]types.Ty
}

// LocalTy reads the type the checker assigned to a local within a
// definition.
func (e *Env) LocalTy(def ir.DefIdx, local ir.LocalIdx) (types.Ty, bool) {
	locals, ok := e.byDef[def.Index()]
	if !ok {
		return types.Ty{}, false
	}
	ty, ok := locals[local.Index()]
	return ty, ok
}

// globalCtx binds every definition's own prototype type, so calls
// (including forward and recursive ones) can be checked against a
// complete picture before any one body is walked.
type globalCtx struct {
	sess  *types.Session
	defTy map[int]types.Ty
}

// Check runs the independent type-checking pass over prog and returns the
// reconstructed type environment, or the diagnostics that explain why it
// could not be built.
func Check(sess *types.Session, prog *ir.Ir) (*Env, []*diag.Diagnostic) {
	gctx := &globalCtx{sess: sess, defTy: make(map[int]types.Ty)}
	var diags []*diag.Diagnostic

	prog.Defs.Iter(func(di ir.DefIdx, def *ir.Def) {
		if def == nil {
			return
		}
		gctx.defTy[di.Index()] = def.Ty
	})

	env := &Env{byDef: make(map[int]map[int]types.Ty)}
	prog.Defs.Iter(func(di ir.DefIdx, def *ir.Def) {
		if def == nil {
			return
		}
		locals, defDiags := checkDef(gctx, def)
		diags = append(diags, defDiags...)
		env.byDef[di.Index()] = locals
	})

	return env, diags
}

// localCtx holds the per-definition state: the prototype being checked
// against and the local-to-(span,type) table built up as instructions are
// walked, exactly mirroring the bind/lookup discipline of the original
// checker (duplicate binding is always an error, since every local is an
// SSA-like temporary assigned exactly once).
type localCtx struct {
	*globalCtx
	proto types.Prototype
	tys   map[int]types.Ty
	diags []*diag.Diagnostic
}

func checkDef(gctx *globalCtx, def *ir.Def) (map[int]types.Ty, []*diag.Diagnostic) {
	proto, ok := gctx.sess.AsPrototype(def.Ty)
	if !ok {
		return nil, []*diag.Diagnostic{diag.NewBug(
			"failed to read fn type",
			diag.Label{Span: def.Span, Message: "function prototype could not be read"},
		)}
	}
	lc := &localCtx{globalCtx: gctx, proto: proto, tys: make(map[int]types.Ty)}

	def.Entry.ParamBindings.Iter(func(pi types.ParamIdx, local ir.LocalIdx) {
		pty, ok := proto.Params.Get(pi)
		if !ok {
			lc.bugf(local.Span(), "parameter type could not be read")
			return
		}
		lc.bind(local, pty)
	})

	lc.checkBlock(def.Entry.Body)
	return lc.tys, lc.diags
}

func (lc *localCtx) errorf(span diag.Span, msg string) {
	lc.diags = append(lc.diags, diag.NewError(msg, diag.Label{Span: span, Message: msg}))
}

func (lc *localCtx) bugf(span diag.Span, msg string) {
	lc.diags = append(lc.diags, diag.NewBug(msg, diag.Label{Span: span, Message: msg}))
}

func (lc *localCtx) bind(local ir.LocalIdx, ty types.Ty) {
	if existing, ok := lc.tys[local.Index()]; ok {
		lc.errorf(local.Span(), fmt.Sprintf(
			"could not infer single type for value (previously bound as a different type, now %v)", existing))
		return
	}
	lc.tys[local.Index()] = ty
}

func (lc *localCtx) lookup(local ir.LocalIdx) (types.Ty, bool) {
	ty, ok := lc.tys[local.Index()]
	if !ok {
		lc.errorf(local.Span(), "reference to unbound variable (while type checking)")
	}
	return ty, ok
}

func (lc *localCtx) lookupDef(d ir.DefIdx, span diag.Span) (types.Ty, bool) {
	ty, ok := lc.defTy[d.Index()]
	if !ok {
		lc.errorf(span, "reference to unbound definition")
	}
	return ty, ok
}

func (lc *localCtx) checkBlock(block *ir.Block) {
	if block == nil {
		return
	}
	for _, instr := range block.Instructions {
		lc.checkInstruction(instr)
	}
	lc.checkTerminator(block.Terminator)
}

func (lc *localCtx) checkInstruction(instr ir.Instruction) {
	switch in := instr.(type) {
	case *ir.LetInstr:
		boundTy, ok := lc.checkExpr(in.Expr)
		if !ok {
			return
		}
		if in.DeclaredTy != nil && *in.DeclaredTy != boundTy {
			lc.errorf(in.SpanVal, "declared type for let binding does not match type of bound expression")
			return
		}
		lc.bind(in.Binding, boundTy)

	case *ir.PrintlnInstr:
		// No type restriction: println accepts any value (spec.md §4.G).

	case *ir.MarkInstr:
		lc.checkHeapAggregateOp(in.Local, in.Ty)
	case *ir.UnmarkInstr:
		lc.checkHeapAggregateOp(in.Local, in.Ty)
	case *ir.FreeInstr:
		lc.checkHeapAggregateOp(in.Local, in.Ty)
	case *ir.IncRcInstr:
		lc.checkHeapAggregateOp(in.Local, in.Ty)
	case *ir.DecRcInstr:
		lc.checkHeapAggregateOp(in.Local, in.Ty)

	default:
		lc.bugf(instr.Span(), "unhandled instruction kind in type checking")
	}
}

// checkHeapAggregateOp validates the shared precondition of every
// memory-management directive: the local must hold a heap aggregate
// (struct or enum), and it must be the same type the directive claims
// (spec.md §4.G, §4.H — "never a primitive").
func (lc *localCtx) checkHeapAggregateOp(local ir.LocalIdx, claimedTy types.Ty) {
	actual, ok := lc.lookup(local)
	if !ok {
		return
	}
	if !lc.sess.IsHeapAggregate(actual) {
		lc.errorf(local.Span(), "cannot free/mark/unmark/retain/release a primitive type")
		return
	}
	if actual != claimedTy {
		lc.bugf(local.Span(), "attempted to operate on data of one type as another")
	}
}

func (lc *localCtx) checkExpr(expr ir.Expr) (types.Ty, bool) {
	switch e := expr.(type) {
	case *ir.IntLiteral:
		return lc.tyForWidth(e.Width), true

	case *ir.StringLiteral:
		return lc.sess.InternString(), true

	case *ir.ArrayLiteral:
		return lc.sess.InternArray(e.ElementTy, len(e.Elements)), true

	case *ir.Var:
		base, ok := lc.lookup(e.Local)
		if !ok {
			return types.Ty{}, false
		}
		cur := base
		for _, fi := range e.Projections {
			fty, ok := lc.sess.FieldTy(cur, fi)
			if !ok {
				lc.bugf(e.SpanVal, "failed to read field of struct")
				return types.Ty{}, false
			}
			cur = fty
		}
		return cur, true

	case *ir.Unop:
		operandTy, ok := lc.lookup(e.Operand)
		if !ok {
			return types.Ty{}, false
		}
		if operandTy != lc.sess.InternI32() {
			lc.errorf(e.SpanVal, "argument to unary operator must have type i32")
			return types.Ty{}, false
		}
		return lc.sess.InternI32(), true

	case *ir.Binop:
		leftTy, ok := lc.lookup(e.Left)
		if !ok {
			return types.Ty{}, false
		}
		rightTy, ok := lc.lookup(e.Right)
		if !ok {
			return types.Ty{}, false
		}
		if leftTy != rightTy {
			lc.errorf(e.SpanVal, "arguments to binary operator must have the same type")
			return types.Ty{}, false
		}
		switch e.Kind {
		case ir.BinopEq, ir.BinopNeq, ir.BinopLess, ir.BinopLeq, ir.BinopGreater, ir.BinopGeq:
			return lc.sess.InternU64(), true
		default:
			return leftTy, true
		}

	case *ir.Call:
		fnTy, ok := lc.lookupDef(e.Target, e.SpanVal)
		if !ok {
			return types.Ty{}, false
		}
		proto, ok := lc.sess.AsPrototype(fnTy)
		if !ok {
			lc.bugf(e.SpanVal, "failed to read fn type")
			return types.Ty{}, false
		}
		if e.Args.Len() != proto.Params.Len() {
			lc.errorf(e.SpanVal, "argument count mismatch")
			return types.Ty{}, false
		}
		mismatched := false
		e.Args.Iter(func(pi types.ParamIdx, local ir.LocalIdx) {
			argTy, ok := lc.lookup(local)
			if !ok {
				mismatched = true
				return
			}
			paramTy, ok := proto.Params.Get(pi)
			if !ok || argTy != paramTy {
				lc.errorf(local.Span(), "argument types and parameter types do not match")
				mismatched = true
			}
		})
		if mismatched {
			return types.Ty{}, false
		}
		return proto.ReturnTy, true

	case *ir.Variant:
		bodyTy, ok := lc.lookup(e.Body)
		if !ok {
			return types.Ty{}, false
		}
		variantTy, ok := lc.sess.VariantTy(e.Ty, e.Discriminant)
		if !ok {
			lc.bugf(e.SpanVal, "failed to read variant of enum")
			return types.Ty{}, false
		}
		if bodyTy != variantTy {
			lc.errorf(e.SpanVal, "enum variant cannot be instantiated using the given body")
			return types.Ty{}, false
		}
		return e.Ty, true

	case *ir.Record:
		ok := true
		e.Fields.Iter(func(fi types.FieldIdx, local ir.LocalIdx) {
			bodyTy, found := lc.lookup(local)
			if !found {
				ok = false
				return
			}
			fieldTy, found := lc.sess.FieldTy(e.Ty, fi)
			if !found {
				lc.bugf(e.SpanVal, "failed to read field of struct")
				ok = false
				return
			}
			if bodyTy != fieldTy {
				lc.errorf(local.Span(), "struct field cannot be instantiated using the given body")
				ok = false
			}
		})
		if !ok {
			return types.Ty{}, false
		}
		return e.Ty, true

	case *ir.Socket, *ir.Bind, *ir.Listen, *ir.Accept, *ir.Close, *ir.ListenAndServe, *ir.Recv, *ir.Send:
		return lc.sess.InternI32(), true

	default:
		lc.bugf(expr.Span(), "unhandled expression kind in type checking")
		return types.Ty{}, false
	}
}

func (lc *localCtx) checkPattern(sourceTy types.Ty, pattern ir.Pattern) (types.Ty, bool) {
	switch p := pattern.(type) {
	case *ir.LiteralPattern:
		return lc.tyForWidth(p.Width), true

	case *ir.StringPattern:
		lc.errorf(p.SpanVal, "string patterns are not supported")
		return types.Ty{}, false

	case *ir.ArrayPattern:
		lc.errorf(p.SpanVal, "array patterns are not supported")
		return types.Ty{}, false

	case *ir.IdentPattern:
		lc.bind(p.Binding, sourceTy)
		return sourceTy, true

	case *ir.VariantPattern:
		variantTy, ok := lc.sess.VariantTy(p.Ty, p.Discriminant)
		if !ok {
			lc.bugf(p.SpanVal, "failed to read variant of enum")
			return types.Ty{}, false
		}
		lc.bind(p.Binding, variantTy)
		return p.Ty, true

	case *ir.RecordPattern:
		ok := true
		p.Fields.Iter(func(fi types.FieldIdx, binding ir.LocalIdx) {
			fieldTy, found := lc.sess.FieldTy(p.Ty, fi)
			if !found {
				lc.bugf(binding.Span(), "failed to read field of struct")
				ok = false
				return
			}
			lc.bind(binding, fieldTy)
		})
		if !ok {
			return types.Ty{}, false
		}
		return p.Ty, true

	default:
		lc.bugf(pattern.Span(), "unhandled pattern kind in type checking")
		return types.Ty{}, false
	}
}

func (lc *localCtx) checkTerminator(term ir.Terminator) {
	switch t := term.(type) {
	case *ir.ReturnTerm:
		bodyTy, ok := lc.lookup(t.Local)
		if !ok {
			return
		}
		if bodyTy != lc.proto.ReturnTy {
			lc.errorf(t.Local.Span(), "return type does not match type of returned expression")
		}

	case *ir.MatchTerm:
		sourceTy, ok := lc.lookup(t.Source)
		if !ok {
			return
		}
		for _, arm := range t.Arms {
			patternTy, ok := lc.checkPattern(sourceTy, arm.Pattern)
			if !ok {
				continue
			}
			if patternTy != sourceTy {
				lc.errorf(t.Source.Span(), "match arm contains pattern with type incompatible with that of the match source")
				continue
			}
			lc.checkBlock(arm.Target)
		}

	default:
		lc.bugf(term.Span(), "unhandled terminator kind in type checking")
	}
}

func (lc *localCtx) tyForWidth(w ir.IntWidth) types.Ty {
	switch w {
	case ir.Width8:
		return lc.sess.InternI8()
	case ir.Width16:
		return lc.sess.InternI16()
	case ir.Width32:
		return lc.sess.InternI32()
	case ir.Width64:
		return lc.sess.InternI64()
	default:
		return lc.sess.InternU64()
	}
}
