// Package ast defines the abstract syntax tree accepted as input by the
// lowering stage (SPEC_FULL §6). It is produced by a parser collaborator
// external to the core — internal/parser is a reference implementation of
// that collaborator, grounded in the teacher's recursive-descent parser,
// but lowering depends only on the node shapes defined here.
package ast

import "github.com/hassan/compiler/internal/diag"

// Ident is a source identifier together with the span it occupies.
type Ident struct {
	Name string
	Span diag.Span
}

// Item is one top-level declaration: a function, an enum, or a struct.
type Item interface {
	isItem()
}

// FnDecl declares a function: a name, an ordered parameter list, a
// return type, and a body term.
type FnDecl struct {
	Name     Ident
	Params   []Binding
	ReturnTy TyExpr
	Body     Term
	Span     diag.Span
}

func (*FnDecl) isItem() {}

// EnumDecl declares a nominal sum type: a name and an ordered list of
// variant bindings (name + payload type).
type EnumDecl struct {
	Name     Ident
	Variants []Binding
	Span     diag.Span
}

func (*EnumDecl) isItem() {}

// StructDecl declares a nominal product type: a name and an ordered list
// of field bindings (name + type).
type StructDecl struct {
	Name   Ident
	Fields []Binding
	Span   diag.Span
}

func (*StructDecl) isItem() {}

// Binding pairs a name with a declared type expression: used for
// function parameters, struct fields, and enum variant payloads.
type Binding struct {
	Name Ident
	Ty   TyExpr
	Span diag.Span
}

// TyKind enumerates the shapes a type expression written in source can
// take.
type TyKind int

const (
	TyI8 TyKind = iota
	TyI16
	TyI32
	TyI64
	TyU64
	TyString
	TyArray
	TyName
)

// TyExpr is a type as written in source: a primitive keyword, an array
// shape, or a reference to a nominal (enum/struct) name.
type TyExpr struct {
	Kind TyKind
	Elem *TyExpr // only set when Kind == TyArray
	Len  int     // only set when Kind == TyArray
	Name Ident   // only set when Kind == TyName
	Span diag.Span
}

// Module is the root of one compiled source file: an ordered list of
// top-level items. Order matters only for diagnostics — declarations may
// reference each other regardless of position (spec.md §4.D, §4.F).
type Module struct {
	Items []Item
}
