package lowering

import (
	"github.com/hassan/compiler/internal/ast"
	"github.com/hassan/compiler/internal/diag"
	"github.com/hassan/compiler/internal/idx"
	"github.com/hassan/compiler/internal/ir"
	"github.com/hassan/compiler/internal/types"
)

// LowerModule is the entry point for AST-to-IR lowering (spec.md §4.F): it
// registers every function's prototype in a first pass — so forward and
// mutually recursive calls resolve — then lowers every body in a second
// pass. tyEnv is the nominal-type environment LowerTypes already built for
// this module.
func LowerModule(sess *types.Session, tyEnv *TyEnv, mod *ast.Module) (*ir.Ir, []*diag.Diagnostic) {
	c := &ctx{sess: sess, tyEnv: tyEnv, fns: make(map[string]fnInfo), out: ir.NewIr()}
	var diags []*diag.Diagnostic

	var fnDecls []*ast.FnDecl
	for _, item := range mod.Items {
		fd, ok := item.(*ast.FnDecl)
		if !ok {
			continue
		}
		fnDecls = append(fnDecls, fd)
	}

	for _, fd := range fnDecls {
		if ir.ReservedNames[fd.Name.Name] {
			diags = append(diags, diag.NewError(
				"function name is reserved for runtime support",
				diag.Label{Span: fd.Name.Span, Message: "reserved name"},
			))
			continue
		}
		if _, exists := c.fns[fd.Name.Name]; exists {
			diags = append(diags, diag.NewError(
				"duplicate function name",
				diag.Label{Span: fd.Name.Span, Message: "already declared"},
			))
			continue
		}

		paramTys := idx.NewIdxVec[types.ParamIdx, types.Ty](types.NewParamIdx)
		ok := true
		for _, p := range fd.Params {
			pty, resolved := resolveTyExpr(sess, tyEnv, p.Ty)
			if !resolved {
				diags = append(diags, diag.NewError(
					"unresolved parameter type",
					diag.Label{Span: p.Span, Message: "unresolved type"},
				))
				ok = false
				continue
			}
			paramTys.Push(pty)
		}
		retTy, retOk := resolveTyExpr(sess, tyEnv, fd.ReturnTy)
		if !retOk {
			diags = append(diags, diag.NewError(
				"unresolved return type",
				diag.Label{Span: fd.ReturnTy.Span, Message: "unresolved type"},
			))
			ok = false
		}
		if !ok {
			continue
		}

		protoTy := sess.InternFn(retTy, paramTys)
		proto, _ := sess.AsPrototype(protoTy)
		defIdx := c.out.Defs.Push(nil)
		c.fns[fd.Name.Name] = fnInfo{defIdx: defIdx, proto: proto}
	}

	for _, fd := range fnDecls {
		info, ok := c.fns[fd.Name.Name]
		if !ok {
			continue // already reported above
		}
		def, fnDiags := lowerFn(c, info, fd)
		diags = append(diags, fnDiags...)
		c.out.Defs.Set(info.defIdx, def)
	}

	return c.out, diags
}

func lowerFn(c *ctx, info fnInfo, fd *ast.FnDecl) (*ir.Def, []*diag.Diagnostic) {
	def := &ir.Def{
		DefIdx:    info.defIdx,
		Name:      fd.Name.Name,
		Ty:        protoAsTy(c.sess, info.proto),
		Span:      fd.Span,
		LocalIdxr: ir.NewLocalIdxr(),
	}
	fc := &fnCtx{
		ctx:        c,
		def:        def,
		localIdxr:  def.LocalIdxr,
		blockIdxr:  ir.NewBlockIdxr(),
		localTypes: make(map[int]types.Ty),
		sc:         newScope(nil),
	}

	bindings := idx.NewIdxVec[types.ParamIdx, ir.LocalIdx](types.NewParamIdx)
	info.proto.Params.Iter(func(pi types.ParamIdx, pty types.Ty) {
		if pi.Index() >= len(fd.Params) {
			return
		}
		p := fd.Params[pi.Index()]
		local := fc.fresh(p.Span, pty)
		fc.sc.bind(p.Name.Name, local)
		bindings.Push(local)
	})

	body := fc.lowerBody(fd.Body)
	def.Entry = ir.Entry{Owner: info.defIdx, ParamBindings: bindings, Body: body}
	return def, fc.diags
}

func protoAsTy(sess *types.Session, proto types.Prototype) types.Ty {
	return sess.InternFn(proto.ReturnTy, proto.Params)
}

// lowerBody lowers a function body term into its entry block, recursing
// into fresh child blocks wherever control branches (match/if arms).
func (fc *fnCtx) lowerBody(term ast.Term) *ir.Block {
	block := &ir.Block{
		Owner:    fc.def.DefIdx,
		BlockIdx: fc.blockIdxr.Next(),
		SpanVal:  term.Span(),
	}
	fc.lowerTermInto(term, block)
	return block
}

func (fc *fnCtx) lowerTermInto(term ast.Term, block *ir.Block) {
	switch t := term.(type) {
	case *ast.LetTerm:
		var expected *types.Ty
		if t.Ty != nil {
			declared, ok := resolveTyExpr(fc.sess, fc.tyEnv, *t.Ty)
			if !ok {
				fc.errorf(t.SpanVal, "unresolved declared type for %q", t.Name.Name)
			} else {
				expected = &declared
			}
		}
		local, ty := fc.lowerExprInto(t.Expr, block, expected)
		if expected != nil {
			// Record the declared type on the let that binds the initializer
			// so the type checker verifies it; a bare variable initializer
			// emits no let, so its type is compared here instead.
			annotated := false
			if n := len(block.Instructions); n > 0 {
				if let, ok := block.Instructions[n-1].(*ir.LetInstr); ok && let.Binding.Index() == local.Index() {
					let.DeclaredTy = expected
					annotated = true
				}
			}
			if !annotated && *expected != ty {
				fc.errorf(t.SpanVal, "declared type of %q does not match its initializer", t.Name.Name)
			}
		}
		fc.sc.bind(t.Name.Name, local)
		if t.Rest != nil {
			fc.lowerTermInto(t.Rest, block)
		}

	case *ast.PrintlnTerm:
		local, _ := fc.lowerExprInto(t.Expr, block, nil)
		block.Instructions = append(block.Instructions, &ir.PrintlnInstr{SpanVal: t.SpanVal, Local: local})
		if t.Rest != nil {
			fc.lowerTermInto(t.Rest, block)
		}

	case *ast.IfTerm:
		fc.lowerIf(t, block)

	case *ast.MatchTerm:
		fc.lowerMatch(t, block)

	case *ast.ReturnTerm:
		local, _ := fc.lowerExprInto(t.Expr, block, nil)
		block.Terminator = &ir.ReturnTerm{SpanVal: t.SpanVal, Local: local}

	default:
		fc.bugf(term.Span(), "unhandled term kind in lowering")
	}
}

// lowerIf desugars "if" into a two-armed match over the condition's local:
// the u64 zero-literal arm comes first and targets Else, the wildcard
// identifier arm comes second and targets Then, so any nonzero condition
// value falls through to Then (spec.md §4.F, §9). Each arm lowers in its
// own child scope.
func (fc *fnCtx) lowerIf(t *ast.IfTerm, block *ir.Block) {
	condLocal, _ := fc.lowerExprInto(t.Cond, block, nil)

	saved := fc.sc
	fc.sc = newScope(saved)
	elseBlock := fc.lowerBody(t.Else)
	fc.sc = newScope(saved)
	thenBlock := fc.lowerBody(t.Then)
	fc.sc = saved

	wildcard := fc.fresh(t.SpanVal, fc.sess.InternU64())

	block.Terminator = &ir.MatchTerm{
		SpanVal: t.SpanVal,
		Source:  condLocal,
		Arms: []ir.Arm{
			{SpanVal: t.Else.Span(), Pattern: &ir.LiteralPattern{SpanVal: t.Else.Span(), Width: ir.WidthU64, Value: 0}, Target: elseBlock},
			{SpanVal: t.Then.Span(), Pattern: &ir.IdentPattern{SpanVal: t.Then.Span(), Binding: wildcard}, Target: thenBlock},
		},
	}
}

func (fc *fnCtx) lowerMatch(t *ast.MatchTerm, block *ir.Block) {
	srcLocal, srcTy := fc.lowerExprInto(t.Scrutinee, block, nil)

	var arms []ir.Arm
	for _, a := range t.Arms {
		armScope := newScope(fc.sc)
		saved := fc.sc
		fc.sc = armScope

		pat, patDiag := fc.lowerPattern(a.Pattern, srcTy)
		if patDiag != nil {
			fc.diags = append(fc.diags, patDiag)
		}

		armBlock := fc.lowerBody(a.Body)
		fc.sc = saved

		arms = append(arms, ir.Arm{SpanVal: a.SpanVal, Pattern: pat, Target: armBlock})
	}

	block.Terminator = &ir.MatchTerm{SpanVal: t.SpanVal, Source: srcLocal, Arms: arms}
}

// lowerPattern lowers a single match-arm pattern, binding any identifiers
// it introduces into the (already-pushed) current scope.
func (fc *fnCtx) lowerPattern(p ast.Pattern, scrutineeTy types.Ty) (ir.Pattern, *diag.Diagnostic) {
	switch pat := p.(type) {
	case *ast.NumberLiteralPattern:
		return &ir.LiteralPattern{SpanVal: pat.SpanVal, Width: ir.Width32, Value: pat.Value}, nil

	case *ast.U64LiteralPattern:
		return &ir.LiteralPattern{SpanVal: pat.SpanVal, Width: ir.WidthU64, Value: int64(pat.Value)}, nil

	case *ast.StringLiteralPattern:
		return &ir.StringPattern{SpanVal: pat.SpanVal, Value: pat.Value},
			diag.NewError("string patterns are not supported", diag.Label{Span: pat.SpanVal, Message: "unsupported pattern"})

	case *ast.ArrayLiteralPattern:
		return &ir.ArrayPattern{SpanVal: pat.SpanVal},
			diag.NewError("array patterns are not supported", diag.Label{Span: pat.SpanVal, Message: "unsupported pattern"})

	case *ast.IdentPattern:
		local := fc.fresh(pat.SpanVal, scrutineeTy)
		fc.sc.bind(pat.Name.Name, local)
		return &ir.IdentPattern{SpanVal: pat.SpanVal, Binding: local}, nil

	case *ast.VariantPattern:
		enumTy, ok := fc.tyEnv.Lookup(pat.Enum.Name)
		if !ok {
			return nil, diag.NewError("unresolved enum type", diag.Label{Span: pat.SpanVal, Message: "unresolved type"})
		}
		vi, ok := fc.sess.LookupVariant(enumTy, pat.Case.Name)
		if !ok {
			return nil, diag.NewError("unknown enum variant", diag.Label{Span: pat.SpanVal, Message: "unknown variant"})
		}
		payloadTy, _ := fc.sess.VariantTy(enumTy, vi)
		local := fc.fresh(pat.Binding.Span, payloadTy)
		fc.sc.bind(pat.Binding.Name, local)
		return &ir.VariantPattern{SpanVal: pat.SpanVal, Ty: enumTy, Discriminant: vi, Binding: local}, nil

	case *ast.RecordPattern:
		structTy, ok := fc.tyEnv.Lookup(pat.Struct.Name)
		if !ok {
			return nil, diag.NewError("unresolved struct type", diag.Label{Span: pat.SpanVal, Message: "unresolved type"})
		}
		fields := idx.NewIdxVec[types.FieldIdx, ir.LocalIdx](types.NewFieldIdx)
		declared, _ := fc.sess.FieldNamesOrdered(structTy)
		seen := make(map[string]bool, len(pat.Fields))
		for _, f := range pat.Fields {
			if seen[f.Name.Name] {
				return nil, diag.NewError("duplicate field in record pattern", diag.Label{Span: pat.SpanVal, Message: "duplicate field"})
			}
			seen[f.Name.Name] = true
		}
		for _, name := range declared {
			var found *ast.RecordFieldPattern
			for i := range pat.Fields {
				if pat.Fields[i].Name.Name == name {
					found = &pat.Fields[i]
					break
				}
			}
			if found == nil {
				return nil, diag.NewError("missing field in record pattern", diag.Label{Span: pat.SpanVal, Message: "missing field " + name})
			}
			fi, _ := fc.sess.LookupField(structTy, name)
			fty, _ := fc.sess.FieldTy(structTy, fi)
			local := fc.fresh(found.Binding.Span, fty)
			fc.sc.bind(found.Binding.Name, local)
			fields.Push(local)
		}
		if len(pat.Fields) > len(declared) {
			return nil, diag.NewError("extra field in record pattern", diag.Label{Span: pat.SpanVal, Message: "unknown field"})
		}
		return &ir.RecordPattern{SpanVal: pat.SpanVal, Ty: structTy, Fields: fields}, nil

	default:
		return nil, diag.NewBug("unhandled pattern kind in lowering", diag.Label{Span: p.Span(), Message: "unhandled pattern"})
	}
}
