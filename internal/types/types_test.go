package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassan/compiler/internal/idx"
)

func TestSession_PrimitivesAreStructurallyInterned(t *testing.T) {
	sess := NewSession()
	assert.Equal(t, sess.InternI32(), sess.InternI32())
	assert.Equal(t, sess.InternU64(), sess.InternU64())
	assert.NotEqual(t, sess.InternI32(), sess.InternI64())
}

func TestSession_ArraysDedupeOnElementAndLength(t *testing.T) {
	sess := NewSession()
	a1 := sess.InternArray(sess.InternI32(), 4)
	a2 := sess.InternArray(sess.InternI32(), 4)
	a3 := sess.InternArray(sess.InternI32(), 5)
	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, a3)
}

func TestSession_RegisterEnumNeverShares(t *testing.T) {
	sess := NewSession()
	e1 := sess.RegisterEnum()
	e2 := sess.RegisterEnum()
	assert.NotEqual(t, e1, e2, "two registrations must never be the same Ty even before completion")
}

func TestSession_CompleteEnumOrdersVariantsAndNamesThem(t *testing.T) {
	sess := NewSession()
	enumTy := sess.RegisterEnum()
	i32 := sess.InternI32()

	err := sess.CompleteEnum(enumTy, []string{"Some", "None"}, []Ty{i32, i32})
	require.NoError(t, err)

	names, ok := sess.VariantNamesOrdered(enumTy)
	require.True(t, ok)
	assert.Equal(t, []string{"Some", "None"}, names)

	vi, ok := sess.LookupVariant(enumTy, "Some")
	require.True(t, ok)
	assert.Equal(t, 0, vi.Index())

	payload, ok := sess.VariantTy(enumTy, vi)
	require.True(t, ok)
	assert.Equal(t, i32, payload)
}

func TestSession_CompleteEnumTwiceIsAnError(t *testing.T) {
	sess := NewSession()
	enumTy := sess.RegisterEnum()
	i32 := sess.InternI32()
	require.NoError(t, sess.CompleteEnum(enumTy, []string{"A"}, []Ty{i32}))
	err := sess.CompleteEnum(enumTy, []string{"A"}, []Ty{i32})
	assert.Error(t, err)
}

func TestSession_CompleteStructOrdersFieldsAndNamesThem(t *testing.T) {
	sess := NewSession()
	structTy := sess.RegisterStruct()
	i32 := sess.InternI32()
	str := sess.InternString()

	require.NoError(t, sess.CompleteStruct(structTy, []string{"a", "b"}, []Ty{i32, str}))

	names, ok := sess.FieldNamesOrdered(structTy)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, names)

	fi, ok := sess.LookupField(structTy, "b")
	require.True(t, ok)
	ty, ok := sess.FieldTy(structTy, fi)
	require.True(t, ok)
	assert.Equal(t, str, ty)
}

func TestSession_IsHeapAggregate(t *testing.T) {
	sess := NewSession()
	structTy := sess.RegisterStruct()
	require.NoError(t, sess.CompleteStruct(structTy, nil, nil))

	assert.True(t, sess.IsHeapAggregate(structTy))
	assert.False(t, sess.IsHeapAggregate(sess.InternI32()))
	assert.False(t, sess.IsHeapAggregate(sess.InternString()))
}

func TestSession_InternFnDedupesOnReturnAndParams(t *testing.T) {
	sess := NewSession()
	i32 := sess.InternI32()

	params1 := idx.NewIdxVec[ParamIdx, Ty](NewParamIdx)
	params1.Push(i32)
	fn1 := sess.InternFn(i32, params1)

	params2 := idx.NewIdxVec[ParamIdx, Ty](NewParamIdx)
	params2.Push(i32)
	fn2 := sess.InternFn(i32, params2)

	assert.Equal(t, fn1, fn2)

	proto, ok := sess.AsPrototype(fn1)
	require.True(t, ok)
	assert.Equal(t, i32, proto.ReturnTy)
	assert.Equal(t, 1, proto.Params.Len())
}
