package typecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassan/compiler/internal/idx"
	"github.com/hassan/compiler/internal/ir"
	"github.com/hassan/compiler/internal/lowering"
	"github.com/hassan/compiler/internal/parser"
	"github.com/hassan/compiler/internal/types"
)

func lowerSource(t *testing.T, src string) (*types.Session, *ir.Ir) {
	t.Helper()
	mod, errs := parser.ParseModule(src, "test.src")
	require.Empty(t, errs)

	sess := types.NewSession()
	tyEnv, diags := lowering.LowerTypes(sess, mod)
	require.Empty(t, diags)

	prog, diags := lowering.LowerModule(sess, tyEnv, mod)
	require.Empty(t, diags)
	return sess, prog
}

func TestCheck_IdentityFunctionRecordsParamType(t *testing.T) {
	sess, prog := lowerSource(t, `fn id(x: i32) i32 { return x }`)
	env, diags := Check(sess, prog)
	require.Empty(t, diags)

	def, ok := prog.Defs.Get(ir.NewDefIdx(0))
	require.True(t, ok)
	param := def.Entry.ParamBindings.Values()[0]
	ty, ok := env.LocalTy(ir.NewDefIdx(0), param)
	require.True(t, ok)
	assert.Equal(t, sess.InternI32(), ty)
}

func TestCheck_DeclaredLetTypeMismatchIsRejected(t *testing.T) {
	sess, prog := lowerSource(t, `struct P{a:i32,b:i32}
fn make() i32 { let x: i32 = P{a:1,b:2}; return x }`)
	_, diags := Check(sess, prog)
	assert.NotEmpty(t, diags, "a let binding whose declared type disagrees with its expression must be rejected")
}

func TestCheck_PrimitiveLetAndReturnCheckCleanly(t *testing.T) {
	sess, prog := lowerSource(t, `fn make() i32 { let x = 1; return 0 }`)
	_, diags := Check(sess, prog)
	require.Empty(t, diags, "a plain integer let/return must type-check cleanly on its own")
}

func TestCheck_UnboundVariableIsRejected(t *testing.T) {
	sess := types.NewSession()
	prog := ir.NewIr()

	i32 := sess.InternI32()
	params := idx.NewIdxVec[types.ParamIdx, types.Ty](types.NewParamIdx)
	fnTy := sess.InternFn(i32, params)

	entry := &ir.Block{
		Terminator: &ir.ReturnTerm{Local: ir.NewLocalIdx(99)},
	}
	def := &ir.Def{
		Name: "bad",
		Ty:   fnTy,
		Entry: ir.Entry{
			ParamBindings: idx.NewIdxVec[types.ParamIdx, ir.LocalIdx](types.NewParamIdx),
			Body:          entry,
		},
	}
	prog.Defs.Push(def)

	_, diags := Check(sess, prog)
	assert.NotEmpty(t, diags, "returning an unbound local must be rejected")
}
