// Package codegen implements the reference backend collaborator named in
// SPEC_FULL §6: given a fully lowered and type-checked Ir it emits a
// deterministic textual pseudo-IR, grounded in the teacher's own
// ir.go/basicblock.go String() methods rather than a real LLVM binding
// (no crate in the original's alc_ast_lowering touches a real backend
// either — the socket primitives are backend intrinsics regardless of
// what emits them).
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hassan/compiler/internal/ir"
	"github.com/hassan/compiler/internal/typecheck"
	"github.com/hassan/compiler/internal/types"
)

// Emit renders prog as a deterministic, human-readable textual program.
// Calling Emit twice on the same prog produces byte-identical output
// (SPEC_FULL §8 P8): defs are walked in IdxVec insertion order, and no
// Go map is ever range'd over without first sorting its keys.
func Emit(sess *types.Session, prog *ir.Ir, env *typecheck.Env) string {
	var b strings.Builder
	prog.Defs.Iter(func(di ir.DefIdx, def *ir.Def) {
		if def == nil {
			return
		}
		emitDef(&b, sess, env, di, def)
		b.WriteString("\n")
	})
	return b.String()
}

func emitDef(b *strings.Builder, sess *types.Session, env *typecheck.Env, di ir.DefIdx, def *ir.Def) {
	proto, _ := sess.AsPrototype(def.Ty)

	params := make([]string, 0, proto.Params.Len())
	proto.Params.Iter(func(p types.ParamIdx, ty types.Ty) {
		params = append(params, fmt.Sprintf("%s: %s", p.String(), tyName(sess, ty)))
	})

	fmt.Fprintf(b, "define %s @%s(%s) {\n", tyName(sess, proto.ReturnTy), def.Name, strings.Join(params, ", "))

	e := &emitter{b: b, sess: sess, env: env, di: di, labels: make(map[*ir.Block]string), next: 0}
	e.assignLabel(def.Entry.Body)
	e.emitBlock(def.Entry.Body)

	b.WriteString("}\n")
}

// emitter walks the block tree rooted at one definition's entry, minting
// a stable label for every block it reaches before emitting any of them,
// so forward branch targets (a match arm whose target block is emitted
// after the branch referencing it) always print a resolved name.
type emitter struct {
	b      *strings.Builder
	sess   *types.Session
	env    *typecheck.Env
	di     ir.DefIdx
	labels map[*ir.Block]string
	next   int
}

// Each block has exactly one owning arm (spec.md §3's boxed-block
// design), so the block tree reached from an entry has no shared nodes:
// emitBlock's recursive walk visits every block exactly once without
// needing a separate visited-set.

func (e *emitter) assignLabel(block *ir.Block) string {
	if label, ok := e.labels[block]; ok {
		return label
	}
	label := fmt.Sprintf("bb%d", e.next)
	e.next++
	e.labels[block] = label
	if term, ok := block.Terminator.(*ir.MatchTerm); ok {
		for _, arm := range term.Arms {
			if arm.Target != nil {
				e.assignLabel(arm.Target)
			}
		}
	}
	return label
}

func (e *emitter) emitBlock(block *ir.Block) {
	fmt.Fprintf(e.b, "%s:\n", e.labels[block])
	for _, instr := range block.Instructions {
		e.emitInstruction(instr)
	}
	e.emitTerminator(block.Terminator)

	if term, ok := block.Terminator.(*ir.MatchTerm); ok {
		for _, arm := range term.Arms {
			if arm.Target != nil {
				e.emitBlock(arm.Target)
			}
		}
	}
}

func (e *emitter) local(l ir.LocalIdx) string {
	return fmt.Sprintf("%%%d", l.Index())
}

func (e *emitter) localTy(l ir.LocalIdx) string {
	ty, ok := e.env.LocalTy(e.di, l)
	if !ok {
		return "?"
	}
	return tyName(e.sess, ty)
}

func (e *emitter) emitInstruction(instr ir.Instruction) {
	switch i := instr.(type) {
	case *ir.LetInstr:
		fmt.Fprintf(e.b, "  %s: %s = %s\n", e.local(i.Binding), e.localTy(i.Binding), e.emitExpr(i.Expr))
	case *ir.PrintlnInstr:
		fmt.Fprintf(e.b, "  call @println(%s)\n", e.local(i.Local))
	case *ir.MarkInstr:
		fmt.Fprintf(e.b, "  call @mark(%s)\n", e.local(i.Local))
	case *ir.UnmarkInstr:
		fmt.Fprintf(e.b, "  call @unmark(%s)\n", e.local(i.Local))
	case *ir.FreeInstr:
		fmt.Fprintf(e.b, "  call @free(%s)\n", e.local(i.Local))
	case *ir.IncRcInstr:
		fmt.Fprintf(e.b, "  call @rc_inc(%s)\n", e.local(i.Local))
	case *ir.DecRcInstr:
		fmt.Fprintf(e.b, "  call @rc_dec(%s)\n", e.local(i.Local))
	default:
		fmt.Fprintf(e.b, "  ; unhandled instruction %T\n", instr)
	}
}

func (e *emitter) emitTerminator(term ir.Terminator) {
	switch t := term.(type) {
	case *ir.ReturnTerm:
		fmt.Fprintf(e.b, "  ret %s\n", e.local(t.Local))
	case *ir.MatchTerm:
		fmt.Fprintf(e.b, "  switch %s [\n", e.local(t.Source))
		for _, arm := range t.Arms {
			label := "(unreachable)"
			if arm.Target != nil {
				label = e.labels[arm.Target]
			}
			fmt.Fprintf(e.b, "    %s -> %%%s\n", e.emitPattern(arm.Pattern), label)
		}
		e.b.WriteString("  ]\n")
	default:
		fmt.Fprintf(e.b, "  ; unhandled terminator %T\n", term)
	}
}

func (e *emitter) emitPattern(p ir.Pattern) string {
	switch pat := p.(type) {
	case *ir.LiteralPattern:
		return strconv.FormatInt(pat.Value, 10)
	case *ir.StringPattern:
		return strconv.Quote(pat.Value)
	case *ir.ArrayPattern:
		return fmt.Sprintf("[array len=%d]", len(pat.Elements))
	case *ir.IdentPattern:
		return fmt.Sprintf("_ -> %s", e.local(pat.Binding))
	case *ir.VariantPattern:
		return fmt.Sprintf("%s(%s) -> %s", pat.Discriminant.String(), tyName(e.sess, pat.Ty), e.local(pat.Binding))
	case *ir.RecordPattern:
		return fmt.Sprintf("{%s} -> %s", tyName(e.sess, pat.Ty), tyName(e.sess, pat.Ty))
	default:
		return fmt.Sprintf("<unhandled pattern %T>", p)
	}
}

func (e *emitter) emitExpr(expr ir.Expr) string {
	switch v := expr.(type) {
	case *ir.IntLiteral:
		return fmt.Sprintf("const.%s %d", widthName(v.Width), v.Value)
	case *ir.StringLiteral:
		return fmt.Sprintf("const.string %s", strconv.Quote(v.Value))
	case *ir.ArrayLiteral:
		parts := make([]string, len(v.Elements))
		for i, el := range v.Elements {
			parts[i] = e.local(el)
		}
		return fmt.Sprintf("array.build [%s]", strings.Join(parts, ", "))
	case *ir.Var:
		if len(v.Projections) == 0 {
			return fmt.Sprintf("var %s", e.local(v.Local))
		}
		fields := make([]string, len(v.Projections))
		for i, f := range v.Projections {
			fields[i] = f.String()
		}
		return fmt.Sprintf("var %s.%s", e.local(v.Local), strings.Join(fields, "."))
	case *ir.Unop:
		return fmt.Sprintf("%s %s", unopName(v.Kind), e.local(v.Operand))
	case *ir.Binop:
		return fmt.Sprintf("%s %s, %s", binopName(v.Kind), e.local(v.Left), e.local(v.Right))
	case *ir.Call:
		args := make([]string, 0, v.Args.Len())
		v.Args.Iter(func(_ types.ParamIdx, l ir.LocalIdx) {
			args = append(args, e.local(l))
		})
		return fmt.Sprintf("call @def%d(%s)", v.Target.Index(), strings.Join(args, ", "))
	case *ir.Variant:
		return fmt.Sprintf("variant.new %s#%s(%s)", tyName(e.sess, v.Ty), v.Discriminant.String(), e.local(v.Body))
	case *ir.Record:
		fields := make([]string, 0, v.Fields.Len())
		v.Fields.Iter(func(_ types.FieldIdx, l ir.LocalIdx) {
			fields = append(fields, e.local(l))
		})
		return fmt.Sprintf("record.new %s{%s}", tyName(e.sess, v.Ty), strings.Join(fields, ", "))
	case *ir.Socket:
		return fmt.Sprintf("call @sentra_socket(%s, %s, %s)", e.local(v.Domain), e.local(v.SockTy), e.local(v.Protocol))
	case *ir.Bind:
		return fmt.Sprintf("call @sentra_bind(%s, %s, %s)", e.local(v.Socket), e.local(v.Address), e.local(v.AddressLength))
	case *ir.Listen:
		return fmt.Sprintf("call @sentra_listen(%s, %s)", e.local(v.Socket), e.local(v.Backlog))
	case *ir.Accept:
		return fmt.Sprintf("call @sentra_accept(%s)", e.local(v.Socket))
	case *ir.Recv:
		return fmt.Sprintf("call @sentra_recv(%s, %s, %s, %s)", e.local(v.Socket), e.local(v.Buffer), e.local(v.BufferLength), e.local(v.Flags))
	case *ir.Send:
		return fmt.Sprintf("call @sentra_send(%s, %s, %s, %s, %s)", e.local(v.Socket), e.local(v.Buffer), e.local(v.BufferLength), e.local(v.Content), e.local(v.Flags))
	case *ir.Close:
		return fmt.Sprintf("call @sentra_close(%s)", e.local(v.Socket))
	case *ir.ListenAndServe:
		return fmt.Sprintf(
			"call @sentra_listen_and_serve(%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)",
			e.local(v.Domain), e.local(v.SockTy), e.local(v.Protocol), e.local(v.Address), e.local(v.AddressLength),
			e.local(v.Backlog), e.local(v.RecvBuffer), e.local(v.RecvBufferLength), e.local(v.RecvFlags),
			e.local(v.SendBuffer), e.local(v.SendBufferLength), e.local(v.SendFlags),
			e.local(v.FormatString), e.local(v.HttpHeader), e.local(v.CallHandler),
		)
	default:
		return fmt.Sprintf("<unhandled expr %T>", expr)
	}
}

func tyName(sess *types.Session, ty types.Ty) string {
	data, ok := sess.Kind(ty)
	if !ok {
		return "?"
	}
	switch data.Kind {
	case types.KindArray:
		return fmt.Sprintf("[%s; %d]", tyName(sess, data.Array.ElementTy), data.Array.Len)
	case types.KindFn:
		params := make([]string, 0, data.Fn.Params.Len())
		data.Fn.Params.Iter(func(_ types.ParamIdx, t types.Ty) {
			params = append(params, tyName(sess, t))
		})
		return fmt.Sprintf("fn(%s) -> %s", strings.Join(params, ", "), tyName(sess, data.Fn.ReturnTy))
	case types.KindStruct:
		return fmt.Sprintf("struct#%d", ty.Index())
	case types.KindEnum:
		return fmt.Sprintf("enum#%d", ty.Index())
	default:
		return data.Kind.String()
	}
}

func widthName(w ir.IntWidth) string {
	switch w {
	case ir.Width8:
		return "i8"
	case ir.Width16:
		return "i16"
	case ir.Width32:
		return "i32"
	case ir.Width64:
		return "i64"
	default:
		return "u64"
	}
}

func unopName(k ir.UnopKind) string {
	switch k {
	case ir.UnopNot:
		return "not"
	default:
		return "unop?"
	}
}

func binopName(k ir.BinopKind) string {
	names := map[ir.BinopKind]string{
		ir.BinopPlus: "add", ir.BinopMinus: "sub", ir.BinopMul: "mul", ir.BinopDiv: "div",
		ir.BinopLess: "lt", ir.BinopLeq: "le", ir.BinopGreater: "gt", ir.BinopGeq: "ge",
		ir.BinopEq: "eq", ir.BinopNeq: "ne", ir.BinopAnd: "and", ir.BinopOr: "or",
		ir.BinopXor: "xor", ir.BinopLShift: "shl", ir.BinopRShift: "shr",
	}
	if name, ok := names[k]; ok {
		return name
	}
	return "binop?"
}

