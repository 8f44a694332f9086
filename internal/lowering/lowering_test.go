package lowering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassan/compiler/internal/ir"
	"github.com/hassan/compiler/internal/parser"
	"github.com/hassan/compiler/internal/types"
)

func lowerSource(t *testing.T, src string) (*types.Session, *ir.Ir) {
	t.Helper()
	mod, errs := parser.ParseModule(src, "test.src")
	require.Empty(t, errs)

	sess := types.NewSession()
	tyEnv, diags := LowerTypes(sess, mod)
	require.Empty(t, diags)

	prog, diags := LowerModule(sess, tyEnv, mod)
	require.Empty(t, diags)
	return sess, prog
}

func TestLowerModule_IdentityFunction(t *testing.T) {
	sess, prog := lowerSource(t, `fn id(x: i32) i32 { return x }`)

	require.Equal(t, 1, prog.Defs.Len())
	def, ok := prog.Defs.Get(ir.NewDefIdx(0))
	require.True(t, ok)
	assert.Equal(t, "id", def.Name)

	proto, ok := sess.AsPrototype(def.Ty)
	require.True(t, ok)
	assert.Equal(t, sess.InternI32(), proto.ReturnTy)
	assert.Equal(t, 1, proto.Params.Len())

	ret, ok := def.Entry.Body.Terminator.(*ir.ReturnTerm)
	require.True(t, ok)
	assert.Equal(t, def.Entry.ParamBindings.Values()[0].Index(), ret.Local.Index())
}

func TestLowerModule_IfDesugarsToTwoArmedMatchOnU64(t *testing.T) {
	sess, prog := lowerSource(t, `fn pick(c: i32) i32 { if c { return 1 } else { return 0 } }`)

	def, ok := prog.Defs.Get(ir.NewDefIdx(0))
	require.True(t, ok)

	match, ok := def.Entry.Body.Terminator.(*ir.MatchTerm)
	require.True(t, ok, "if must desugar to a MatchTerm")
	require.Len(t, match.Arms, 2)

	lit, ok := match.Arms[0].Pattern.(*ir.LiteralPattern)
	require.True(t, ok, "first arm must be the zero literal")
	assert.Equal(t, ir.WidthU64, lit.Width)
	assert.Equal(t, int64(0), lit.Value)
	require.NotNil(t, match.Arms[0].Target)

	wildcard, ok := match.Arms[1].Pattern.(*ir.IdentPattern)
	require.True(t, ok, "second arm must be the wildcard, targeting Then")
	_ = wildcard
	require.NotNil(t, match.Arms[1].Target)

	_ = sess
}

func TestLowerModule_ReservedNameIsRejected(t *testing.T) {
	mod, errs := parser.ParseModule(`fn main() i32 { return 0 }`, "test.src")
	require.Empty(t, errs)
	sess := types.NewSession()
	tyEnv, diags := LowerTypes(sess, mod)
	require.Empty(t, diags)
	_, diags = LowerModule(sess, tyEnv, mod)
	assert.NotEmpty(t, diags, "a function named after a reserved runtime symbol must be rejected")
}

func TestLowerModule_RecordLiteralReordersToDeclarationOrder(t *testing.T) {
	sess, prog := lowerSource(t, `struct P{a:i32,b:i32}
fn make() P { return P{b:2,a:1} }`)

	def, ok := prog.Defs.Get(ir.NewDefIdx(0))
	require.True(t, ok)

	ret, ok := def.Entry.Body.Terminator.(*ir.ReturnTerm)
	require.True(t, ok)

	var record *ir.Record
	for _, instr := range def.Entry.Body.Instructions {
		let, ok := instr.(*ir.LetInstr)
		if !ok {
			continue
		}
		if rec, ok := let.Expr.(*ir.Record); ok && let.Binding.Index() == ret.Local.Index() {
			record = rec
		}
	}
	require.NotNil(t, record, "expected the returned local to be bound from a Record expression")
	assert.Equal(t, 2, record.Fields.Len())

	literals := make(map[int]int64)
	for _, instr := range def.Entry.Body.Instructions {
		if let, ok := instr.(*ir.LetInstr); ok {
			if lit, ok := let.Expr.(*ir.IntLiteral); ok {
				literals[let.Binding.Index()] = lit.Value
			}
		}
	}
	fields := record.Fields.Values()
	require.Len(t, fields, 2)
	assert.Equal(t, int64(1), literals[fields[0].Index()], "field a (declared first) must hold the value written for a")
	assert.Equal(t, int64(2), literals[fields[1].Index()], "field b (declared second) must hold the value written for b")
	_ = sess
}

func TestLowerModule_DuplicateFunctionNameIsRejected(t *testing.T) {
	mod, errs := parser.ParseModule(`fn f() i32 { return 0 }
fn f() i32 { return 1 }`, "test.src")
	require.Empty(t, errs)
	sess := types.NewSession()
	tyEnv, diags := LowerTypes(sess, mod)
	require.Empty(t, diags)
	_, diags = LowerModule(sess, tyEnv, mod)
	assert.NotEmpty(t, diags)
}
