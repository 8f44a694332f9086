package ast

import "github.com/hassan/compiler/internal/diag"

// Expr is a value-producing form as written in source, before lowering
// reduces it to three-address form (spec.md §4.F).
type Expr interface {
	Span() diag.Span
	isExpr()
}

// NumberLiteral is an integer literal with no width suffix; lowering
// resolves its width against context (spec.md §4.F numeric literal
// width-resolution order, defaulting to i32).
type NumberLiteral struct {
	SpanVal diag.Span
	Value   int64
}

func (e *NumberLiteral) Span() diag.Span { return e.SpanVal }
func (e *NumberLiteral) isExpr()         {}

// U64Literal is an integer literal written with an explicit unsigned
// 64-bit suffix.
type U64Literal struct {
	SpanVal diag.Span
	Value   uint64
}

func (e *U64Literal) Span() diag.Span { return e.SpanVal }
func (e *U64Literal) isExpr()         {}

// StringLiteral is a string constant.
type StringLiteral struct {
	SpanVal diag.Span
	Value   string
}

func (e *StringLiteral) Span() diag.Span { return e.SpanVal }
func (e *StringLiteral) isExpr()         {}

// ArrayLiteral builds a fixed-length array from source-level element
// expressions (not yet reduced to locals — lowering does that).
type ArrayLiteral struct {
	SpanVal  diag.Span
	Elements []Expr
}

func (e *ArrayLiteral) Span() diag.Span { return e.SpanVal }
func (e *ArrayLiteral) isExpr()         {}

// Var is a variable reference, optionally followed by a chain of field
// projections written with dotted-name syntax.
type Var struct {
	SpanVal     diag.Span
	Name        Ident
	Projections []Ident
}

func (e *Var) Span() diag.Span { return e.SpanVal }
func (e *Var) isExpr()         {}

// UnopKind mirrors ir.UnopKind at the source level.
type UnopKind int

const (
	UnopNot UnopKind = iota
)

// Unop applies a unary operator to a source-level operand expression.
type Unop struct {
	SpanVal diag.Span
	Kind    UnopKind
	Operand Expr
}

func (e *Unop) Span() diag.Span { return e.SpanVal }
func (e *Unop) isExpr()         {}

// BinopKind mirrors ir.BinopKind at the source level.
type BinopKind int

const (
	BinopPlus BinopKind = iota
	BinopMinus
	BinopMul
	BinopDiv
	BinopLess
	BinopLeq
	BinopGreater
	BinopGeq
	BinopEq
	BinopNeq
	BinopAnd
	BinopOr
	BinopXor
	BinopLShift
	BinopRShift
)

// Binop applies a binary operator to two source-level operand
// expressions.
type Binop struct {
	SpanVal diag.Span
	Kind    BinopKind
	Left    Expr
	Right   Expr
}

func (e *Binop) Span() diag.Span { return e.SpanVal }
func (e *Binop) isExpr()         {}

// Call invokes the function named Callee with an ordered argument list.
type Call struct {
	SpanVal diag.Span
	Callee  Ident
	Args    []Expr
}

func (e *Call) Span() diag.Span { return e.SpanVal }
func (e *Call) isExpr()         {}

// Variant constructs an enum value by variant name and a payload
// expression.
type Variant struct {
	SpanVal diag.Span
	Enum    Ident
	Case    Ident
	Body    Expr
}

func (e *Variant) Span() diag.Span { return e.SpanVal }
func (e *Variant) isExpr()         {}

// RecordField is one name/value pair in a record literal.
type RecordField struct {
	Name  Ident
	Value Expr
}

// Record constructs a struct value from named field expressions, in any
// order; lowering reorders them to the struct's declared field order and
// rejects duplicate or missing fields (spec.md §4.F).
type Record struct {
	SpanVal diag.Span
	Struct  Ident
	Fields  []RecordField
}

func (e *Record) Span() diag.Span { return e.SpanVal }
func (e *Record) isExpr()         {}

// Socket, Bind, Listen, Accept, Recv, Send, Close, and ListenAndServe are
// the source-level forms of the socket primitives (spec.md §3, full
// 8-primitive set per SPEC_FULL §9).
type Socket struct {
	SpanVal  diag.Span
	Domain   Expr
	SockTy   Expr
	Protocol Expr
}

func (e *Socket) Span() diag.Span { return e.SpanVal }
func (e *Socket) isExpr()         {}

type Bind struct {
	SpanVal       diag.Span
	Socket        Expr
	Address       Expr
	AddressLength Expr
}

func (e *Bind) Span() diag.Span { return e.SpanVal }
func (e *Bind) isExpr()         {}

type Listen struct {
	SpanVal diag.Span
	Socket  Expr
	Backlog Expr
}

func (e *Listen) Span() diag.Span { return e.SpanVal }
func (e *Listen) isExpr()         {}

type Accept struct {
	SpanVal diag.Span
	Socket  Expr
}

func (e *Accept) Span() diag.Span { return e.SpanVal }
func (e *Accept) isExpr()         {}

type Recv struct {
	SpanVal      diag.Span
	Socket       Expr
	Buffer       Expr
	BufferLength Expr
	Flags        Expr
}

func (e *Recv) Span() diag.Span { return e.SpanVal }
func (e *Recv) isExpr()         {}

type Send struct {
	SpanVal      diag.Span
	Socket       Expr
	Buffer       Expr
	BufferLength Expr
	Content      Expr
	Flags        Expr
}

func (e *Send) Span() diag.Span { return e.SpanVal }
func (e *Send) isExpr()         {}

type Close struct {
	SpanVal diag.Span
	Socket  Expr
}

func (e *Close) Span() diag.Span { return e.SpanVal }
func (e *Close) isExpr()         {}

type ListenAndServe struct {
	SpanVal          diag.Span
	Domain           Expr
	SockTy           Expr
	Protocol         Expr
	Address          Expr
	AddressLength    Expr
	Backlog          Expr
	RecvBuffer       Expr
	RecvBufferLength Expr
	RecvFlags        Expr
	SendBuffer       Expr
	SendBufferLength Expr
	SendFlags        Expr
	FormatString     Expr
	HttpHeader       Expr
	CallHandler      Expr
}

func (e *ListenAndServe) Span() diag.Span { return e.SpanVal }
func (e *ListenAndServe) isExpr()         {}
