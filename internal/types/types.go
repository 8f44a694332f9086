// Package types implements the type session: a globally shared registry
// that assigns a canonical identifier to each structural type and supports
// late completion of user-defined aggregates (SPEC_FULL §4.C).
//
// Primitives, arrays, and function prototypes are structurally interned:
// any two requests with equal shape return the same Ty. Structs and enums
// are nominal and mutable-until-complete: Session.RegisterEnum and
// Session.RegisterStruct hand back a Ty whose body is empty, to be filled
// in later by CompleteEnum/CompleteStruct, which is how mutually
// recursive aggregate definitions are supported.
package types

import (
	"fmt"
	"sync"

	"github.com/hassan/compiler/internal/idx"
)

// Ty is an opaque reference to an interned or registered type. Two Ty
// values are equal if and only if they refer to the same type.
type Ty struct{ idx int }

// Index implements idx.Idx so Ty can key an IdxVec.
func (t Ty) Index() int { return t.idx }

func newTy(i int) Ty { return Ty{idx: i} }

// VariantIdx identifies one alternative of an enum by its ordinal.
type VariantIdx struct{ idx int }

func (v VariantIdx) Index() int      { return v.idx }
func newVariantIdx(i int) VariantIdx { return VariantIdx{idx: i} }
func (v VariantIdx) String() string  { return fmt.Sprintf("variant_%d", v.idx) }

// NewVariantIdx builds a VariantIdx at a given ordinal, for callers
// outside this package that need to mint one (e.g. an IdxVec ctor).
func NewVariantIdx(i int) VariantIdx { return VariantIdx{idx: i} }

// FieldIdx identifies one field of a struct by its ordinal.
type FieldIdx struct{ idx int }

func (f FieldIdx) Index() int     { return f.idx }
func newFieldIdx(i int) FieldIdx  { return FieldIdx{idx: i} }
func (f FieldIdx) String() string { return fmt.Sprintf("field_%d", f.idx) }

// NewFieldIdx builds a FieldIdx at a given ordinal, for callers outside
// this package that need to mint one (e.g. an IdxVec ctor).
func NewFieldIdx(i int) FieldIdx { return FieldIdx{idx: i} }

// ParamIdx identifies one parameter of a function prototype by its
// ordinal.
type ParamIdx struct{ idx int }

func (p ParamIdx) Index() int     { return p.idx }
func newParamIdx(i int) ParamIdx  { return ParamIdx{idx: i} }
func (p ParamIdx) String() string { return fmt.Sprintf("arg_%d", p.idx) }

// NewParamIdx builds a ParamIdx at a given ordinal, for callers outside
// this package that need to mint one (e.g. an IdxVec ctor).
func NewParamIdx(i int) ParamIdx { return ParamIdx{idx: i} }

// Kind enumerates the shapes a type can take.
type Kind int

const (
	KindI8 Kind = iota
	KindI16
	KindI32
	KindI64
	KindU64
	KindString
	KindArray
	KindEnum
	KindStruct
	KindFn
)

func (k Kind) String() string {
	switch k {
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindU64:
		return "u64"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindEnum:
		return "enum"
	case KindStruct:
		return "struct"
	case KindFn:
		return "fn"
	default:
		return "unknown"
	}
}

// Array describes a fixed-length homogeneous sequence type.
type Array struct {
	ElementTy Ty
	Len       int
}

// Enum describes a nominal sum type: an ordered mapping from variant
// index to payload type, plus a name lookup table. The name table lives
// on the Session (see variantNames), not here, because it is a
// compile-time-only convenience; the IR only ever carries VariantIdx.
type Enum struct {
	Variants *idx.IdxVec[VariantIdx, Ty]
}

// Struct describes a nominal product type: an ordered mapping from field
// index to type, plus a name lookup table (see fieldNames on Session).
type Struct struct {
	Fields *idx.IdxVec[FieldIdx, Ty]
}

// Prototype describes a function type: a return type plus ordered
// parameter types.
type Prototype struct {
	ReturnTy Ty
	Params   *idx.IdxVec[ParamIdx, Ty]
}

// TyData holds the full shape of one interned or registered type.
type TyData struct {
	Kind   Kind
	Array  Array
	Enum   Enum
	Struct Struct
	Fn     Prototype
}

// structuralKey is the deduplication key for structurally-interned types.
// Nominal types (enum/struct) are never given a structuralKey, since two
// nominal registrations always yield distinct Ty values even when
// eventually completed with identical bodies (spec.md §4.C invariant).
type structuralKey struct {
	kind   Kind
	elem   Ty
	arrLen int
	ret    Ty
	params string // stable encoding of the parameter Ty sequence
}

func paramsKey(params *idx.IdxVec[ParamIdx, Ty]) string {
	s := make([]byte, 0, params.Len()*4)
	params.Iter(func(_ ParamIdx, t Ty) {
		s = append(s, byte(t.idx), byte(t.idx>>8), byte(t.idx>>16), byte(t.idx>>24))
	})
	return string(s)
}

// Session is the type session: the per-compilation-unit registry of all
// type identities (GLOSSARY). Every method is safe for concurrent use,
// guarding its interning maps and nominal bodies with a single mutex so
// that, per SPEC_FULL §4.C/§5, every mutation is one atomic step and no
// mutation re-enters the session while another is in flight.
type Session struct {
	mu       sync.Mutex
	tys      *idx.IdxVec[Ty, TyData]
	uniqued  map[structuralKey]Ty
	complete map[int]bool // Ty.idx -> has this nominal aggregate been completed?

	fieldNames   map[int]map[string]FieldIdx
	variantNames map[int]map[string]VariantIdx

	fieldOrder   map[int][]string // Ty.idx -> field names in declaration order
	variantOrder map[int][]string // Ty.idx -> variant names in declaration order
}

// NewSession creates an empty type session.
func NewSession() *Session {
	return &Session{
		tys:          idx.NewIdxVec[Ty, TyData](newTy),
		uniqued:      make(map[structuralKey]Ty),
		complete:     make(map[int]bool),
		fieldNames:   make(map[int]map[string]FieldIdx),
		variantNames: make(map[int]map[string]VariantIdx),
		fieldOrder:   make(map[int][]string),
		variantOrder: make(map[int][]string),
	}
}

func (s *Session) internUnlocked(key structuralKey, data TyData) Ty {
	if ty, ok := s.uniqued[key]; ok {
		return ty
	}
	ty := s.tys.Push(data)
	s.uniqued[key] = ty
	return ty
}

// InternI8 returns the canonical Ty for the 8-bit signed integer type.
func (s *Session) InternI8() Ty { return s.internPrimitive(KindI8) }

// InternI16 returns the canonical Ty for the 16-bit signed integer type.
func (s *Session) InternI16() Ty { return s.internPrimitive(KindI16) }

// InternI32 returns the canonical Ty for the 32-bit signed integer type.
func (s *Session) InternI32() Ty { return s.internPrimitive(KindI32) }

// InternI64 returns the canonical Ty for the 64-bit signed integer type.
func (s *Session) InternI64() Ty { return s.internPrimitive(KindI64) }

// InternU64 returns the canonical Ty for the 64-bit unsigned integer
// type, used as the result type of comparison operators and as the
// literal type of the desugared if's zero-literal arm (SPEC_FULL §3).
func (s *Session) InternU64() Ty { return s.internPrimitive(KindU64) }

// InternString returns the canonical Ty for the string type.
func (s *Session) InternString() Ty { return s.internPrimitive(KindString) }

func (s *Session) internPrimitive(kind Kind) Ty {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.internUnlocked(structuralKey{kind: kind}, TyData{Kind: kind})
}

// InternArray returns the canonical Ty for a fixed-length array of elem,
// structurally deduplicated on (elem, length).
func (s *Session) InternArray(elem Ty, length int) Ty {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := structuralKey{kind: KindArray, elem: elem, arrLen: length}
	return s.internUnlocked(key, TyData{Kind: KindArray, Array: Array{ElementTy: elem, Len: length}})
}

// InternFn returns the canonical Ty for a function prototype, structurally
// deduplicated on (returnTy, params).
func (s *Session) InternFn(returnTy Ty, params *idx.IdxVec[ParamIdx, Ty]) Ty {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := structuralKey{kind: KindFn, ret: returnTy, params: paramsKey(params)}
	return s.internUnlocked(key, TyData{Kind: KindFn, Fn: Prototype{ReturnTy: returnTy, Params: params}})
}

// RegisterEnum allocates a fresh, empty enum type. Two calls to
// RegisterEnum always return distinct Ty values, even before either is
// completed (spec.md §4.C: "Nominal registration is not shared by key").
func (s *Session) RegisterEnum() Ty {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tys.Push(TyData{Kind: KindEnum, Enum: Enum{Variants: idx.NewIdxVec[VariantIdx, Ty](newVariantIdx)}})
}

// RegisterStruct allocates a fresh, empty struct type.
func (s *Session) RegisterStruct() Ty {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tys.Push(TyData{Kind: KindStruct, Struct: Struct{Fields: idx.NewIdxVec[FieldIdx, Ty](newFieldIdx)}})
}

// CompleteEnum populates a previously registered enum's variants, in the
// order given, installing a name lookup table alongside. It is a bug
// (spec.md §4.C) to complete an already-completed type or a non-enum.
func (s *Session) CompleteEnum(ty Ty, names []string, tys []Ty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete[ty.idx] {
		return fmt.Errorf("type %d already completed", ty.idx)
	}
	data, ok := s.tys.Get(ty)
	if !ok || data.Kind != KindEnum {
		return fmt.Errorf("type %d is not a registered enum", ty.idx)
	}
	names_ := make(map[string]VariantIdx, len(names))
	for i, n := range names {
		vi := data.Enum.Variants.Push(tys[i])
		names_[n] = vi
	}
	s.variantNames[ty.idx] = names_
	s.variantOrder[ty.idx] = append([]string(nil), names...)
	s.complete[ty.idx] = true
	s.tys.Set(ty, data)
	return nil
}

// CompleteStruct populates a previously registered struct's fields, in
// the order given, installing a name lookup table alongside.
func (s *Session) CompleteStruct(ty Ty, names []string, tys []Ty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete[ty.idx] {
		return fmt.Errorf("type %d already completed", ty.idx)
	}
	data, ok := s.tys.Get(ty)
	if !ok || data.Kind != KindStruct {
		return fmt.Errorf("type %d is not a registered struct", ty.idx)
	}
	names_ := make(map[string]FieldIdx, len(names))
	for i, n := range names {
		fi := data.Struct.Fields.Push(tys[i])
		names_[n] = fi
	}
	s.fieldNames[ty.idx] = names_
	s.fieldOrder[ty.idx] = append([]string(nil), names...)
	s.complete[ty.idx] = true
	s.tys.Set(ty, data)
	return nil
}

// FieldNamesOrdered returns a struct's field names in declaration order,
// the order record literals and patterns must be reconciled against
// (spec.md §4.F).
func (s *Session) FieldNamesOrdered(ty Ty) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names, ok := s.fieldOrder[ty.idx]
	return names, ok
}

// VariantNamesOrdered returns an enum's variant names in declaration
// order.
func (s *Session) VariantNamesOrdered(ty Ty) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names, ok := s.variantOrder[ty.idx]
	return names, ok
}

// Kind reads the shape of ty.
func (s *Session) Kind(ty Ty) (TyData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tys.Get(ty)
}

// LookupField resolves a field name against a struct type.
func (s *Session) LookupField(ty Ty, name string) (FieldIdx, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.fieldNames[ty.idx]
	if !ok {
		return FieldIdx{}, false
	}
	fi, ok := fields[name]
	return fi, ok
}

// LookupVariant resolves a variant name against an enum type.
func (s *Session) LookupVariant(ty Ty, name string) (VariantIdx, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	variants, ok := s.variantNames[ty.idx]
	if !ok {
		return VariantIdx{}, false
	}
	vi, ok := variants[name]
	return vi, ok
}

// FieldTy reads the declared type of a struct field.
func (s *Session) FieldTy(ty Ty, field FieldIdx) (Ty, bool) {
	data, ok := s.Kind(ty)
	if !ok || data.Kind != KindStruct {
		return Ty{}, false
	}
	return data.Struct.Fields.Get(field)
}

// VariantTy reads the declared payload type of an enum variant.
func (s *Session) VariantTy(ty Ty, variant VariantIdx) (Ty, bool) {
	data, ok := s.Kind(ty)
	if !ok || data.Kind != KindEnum {
		return Ty{}, false
	}
	return data.Enum.Variants.Get(variant)
}

// AsPrototype reads ty as a function prototype, failing if it is not one.
func (s *Session) AsPrototype(ty Ty) (Prototype, bool) {
	data, ok := s.Kind(ty)
	if !ok || data.Kind != KindFn {
		return Prototype{}, false
	}
	return data.Fn, true
}

// IsHeapAggregate reports whether ty is a struct or enum: the only kinds
// eligible for mark/unmark/free and rc-tracking (spec.md §4.G, §4.H).
func (s *Session) IsHeapAggregate(ty Ty) bool {
	data, ok := s.Kind(ty)
	if !ok {
		return false
	}
	return data.Kind == KindEnum || data.Kind == KindStruct
}
