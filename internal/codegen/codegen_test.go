package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassan/compiler/internal/lowering"
	"github.com/hassan/compiler/internal/mm"
	"github.com/hassan/compiler/internal/parser"
	"github.com/hassan/compiler/internal/typecheck"
	"github.com/hassan/compiler/internal/types"
)

func compile(t *testing.T, src string, policy mm.Policy) string {
	t.Helper()
	mod, errs := parser.ParseModule(src, "test.src")
	require.Empty(t, errs)

	sess := types.NewSession()
	tyEnv, diags := lowering.LowerTypes(sess, mod)
	require.Empty(t, diags)

	prog, diags := lowering.LowerModule(sess, tyEnv, mod)
	require.Empty(t, diags)

	env, diags := typecheck.Check(sess, prog)
	require.Empty(t, diags)

	prog = mm.Run(sess, prog, policy)
	return Emit(sess, prog, env)
}

func TestEmit_IdentityFunction(t *testing.T) {
	out := compile(t, `fn id(x: i32) i32 { return x }`, mm.None)
	assert.Contains(t, out, "define i32 @id(")
	assert.Contains(t, out, "ret %")
}

func TestEmit_IsDeterministicAcrossRuns(t *testing.T) {
	src := `struct P{a:i32,b:i32}
fn make() P { return P{a:1,b:2} }`
	first := compile(t, src, mm.None)
	second := compile(t, src, mm.None)
	assert.Equal(t, first, second)
}

func TestEmit_SocketPrimitivesEmitIntrinsicCalls(t *testing.T) {
	src := `fn serve() i32 { let s = socket(1, 2, 3); return s }`
	out := compile(t, src, mm.None)
	assert.Contains(t, out, "@sentra_socket(")
}

func TestEmit_NonePolicyIsIdentity(t *testing.T) {
	src := `struct P{a:i32,b:i32}
fn make() i32 { let p = P{a:1,b:2}; return 0 }`
	out := compile(t, src, mm.None)
	assert.NotContains(t, out, "@mark(")
	assert.NotContains(t, out, "@unmark(")
	assert.NotContains(t, out, "@free(")
	assert.NotContains(t, out, "@rc_inc(")
	assert.NotContains(t, out, "@rc_dec(")
}

func TestEmit_RcInstructionsForOwnRcPolicy(t *testing.T) {
	src := `struct P{a:i32,b:i32}
fn id(p: P) P { return p }
fn make() i32 { let p = P{a:1,b:2}; let x = id(p); let y = id(p); return 0 }`
	out := compile(t, src, mm.OwnRc)
	// p is seeded at count 1 by its construction. Passing it as a call
	// argument twice is a second and third read of an already-tracked
	// local, so each call retains it: count 1->2 then 2->3, each
	// emitting an increment. At make's return, p is still live (its
	// count never reached zero) and is decremented once, from 3 to 2,
	// which stays positive and so emits a decrement rather than a free.
	assert.Equal(t, 2, strings.Count(out, "@rc_inc("))
	assert.Equal(t, 1, strings.Count(out, "@rc_dec("))
	assert.NotContains(t, out, "@free(")
}

func TestEmit_OwnRcFreesUnaliasedLocal(t *testing.T) {
	src := `struct P{a:i32,b:i32}
fn make() i32 { let p = P{a:1,b:2}; return 0 }`
	out := compile(t, src, mm.OwnRc)
	assert.Contains(t, out, "@free(")
	assert.NotContains(t, out, "@rc_inc(")
	assert.NotContains(t, out, "@rc_dec(")
}
