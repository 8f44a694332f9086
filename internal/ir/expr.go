package ir

import (
	"github.com/hassan/compiler/internal/diag"
	"github.com/hassan/compiler/internal/idx"
	"github.com/hassan/compiler/internal/types"
)

// Expr is a pure value-producing form with all operands already reduced
// to local indices (spec.md §3). Rather than a single struct tagged by a
// kind enum, each expression shape is its own concrete type implementing
// Expr — the same design choice the teacher made for Instruction in its
// original ir package: type-safe pattern matching via type switches, and
// a new expression shape is a new type rather than a new case bolted
// onto a shared struct.
type Expr interface {
	Span() diag.Span
	isExpr()
}

// IntWidth is the fixed integer width of an integer literal or a literal
// pattern.
type IntWidth int

const (
	Width8 IntWidth = iota
	Width16
	Width32
	Width64
	WidthU64
)

// IntLiteral is a fixed-width integer constant.
type IntLiteral struct {
	SpanVal diag.Span
	Width   IntWidth
	Value   int64
}

func (e *IntLiteral) Span() diag.Span { return e.SpanVal }
func (e *IntLiteral) isExpr()         {}

// StringLiteral is a string constant.
type StringLiteral struct {
	SpanVal diag.Span
	Value   string
}

func (e *StringLiteral) Span() diag.Span { return e.SpanVal }
func (e *StringLiteral) isExpr()         {}

// ArrayLiteral builds a fixed-length array from already-lowered element
// locals.
type ArrayLiteral struct {
	SpanVal   diag.Span
	ElementTy types.Ty
	Elements  []LocalIdx
}

func (e *ArrayLiteral) Span() diag.Span { return e.SpanVal }
func (e *ArrayLiteral) isExpr()         {}

// Var is a variable reference, optionally followed by a chain of field
// projections. Lowering resolves each projection to a field index from the
// struct type of the value it applies to; the field is read from Local
// when the expression is evaluated, not replaced by the local that
// initialized it. An empty Projections never appears as the expression of
// a Let instruction — lowering returns the existing local directly
// instead of emitting one (spec.md §4.F "does not emit a let").
type Var struct {
	SpanVal     diag.Span
	Local       LocalIdx
	Projections []types.FieldIdx
}

func (e *Var) Span() diag.Span { return e.SpanVal }
func (e *Var) isExpr()         {}

// UnopKind enumerates the supported unary operators.
type UnopKind int

const (
	UnopNot UnopKind = iota
)

// Unop applies a unary operator to an already-lowered operand.
type Unop struct {
	SpanVal diag.Span
	Kind    UnopKind
	Operand LocalIdx
}

func (e *Unop) Span() diag.Span { return e.SpanVal }
func (e *Unop) isExpr()         {}

// BinopKind enumerates the supported binary operators.
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

// Binop applies a binary operator to two already-lowered operands.
type Binop struct {
	SpanVal diag.Span
	Kind    BinopKind
	Left    LocalIdx
	Right   LocalIdx
}

func (e *Binop) Span() diag.Span { return e.SpanVal }
func (e *Binop) isExpr()         {}

// Call invokes a definition with a parameter-indexed argument vector.
type Call struct {
	SpanVal diag.Span
	Target  DefIdx
	Args    *idx.IdxVec[types.ParamIdx, LocalIdx]
}

func (e *Call) Span() diag.Span { return e.SpanVal }
func (e *Call) isExpr()         {}

// Variant constructs an enum value from a discriminant and an
// already-lowered payload local.
type Variant struct {
	SpanVal      diag.Span
	Ty           types.Ty
	Discriminant types.VariantIdx
	Body         LocalIdx
}

func (e *Variant) Span() diag.Span { return e.SpanVal }
func (e *Variant) isExpr()         {}

// Record constructs a struct value from a field-indexed value vector.
type Record struct {
	SpanVal diag.Span
	Ty      types.Ty
	Fields  *idx.IdxVec[types.FieldIdx, LocalIdx]
}

func (e *Record) Span() diag.Span { return e.SpanVal }
func (e *Record) isExpr()         {}

// Socket, Bind, Listen, Accept, Recv, Send, Close, and ListenAndServe are
// the fixed set of socket primitives named in spec.md §3. None of them
// ever executes a real network call during compilation — they describe a
// backend intrinsic invocation for code generation (SPEC_FULL §9, "Sockets
// are compile-time values only").

// Socket creates a socket file descriptor from a domain, type, and
// protocol.
type Socket struct {
	SpanVal  diag.Span
	Domain   LocalIdx
	SockTy   LocalIdx
	Protocol LocalIdx
}

func (e *Socket) Span() diag.Span { return e.SpanVal }
func (e *Socket) isExpr()         {}

// Bind binds a socket file descriptor to an address.
type Bind struct {
	SpanVal       diag.Span
	Socket        LocalIdx
	Address       LocalIdx
	AddressLength LocalIdx
}

func (e *Bind) Span() diag.Span { return e.SpanVal }
func (e *Bind) isExpr()         {}

// Listen marks a bound socket as ready to accept connections.
type Listen struct {
	SpanVal diag.Span
	Socket  LocalIdx
	Backlog LocalIdx
}

func (e *Listen) Span() diag.Span { return e.SpanVal }
func (e *Listen) isExpr()         {}

// Accept accepts one pending connection on a listening socket.
type Accept struct {
	SpanVal diag.Span
	Socket  LocalIdx
}

func (e *Accept) Span() diag.Span { return e.SpanVal }
func (e *Accept) isExpr()         {}

// Recv reads up to BufferLength bytes from a connected socket into
// Buffer.
type Recv struct {
	SpanVal      diag.Span
	Socket       LocalIdx
	Buffer       LocalIdx
	BufferLength LocalIdx
	Flags        LocalIdx
}

func (e *Recv) Span() diag.Span { return e.SpanVal }
func (e *Recv) isExpr()         {}

// Send writes Content, of length BufferLength, from Buffer to a connected
// socket.
type Send struct {
	SpanVal      diag.Span
	Socket       LocalIdx
	Buffer       LocalIdx
	BufferLength LocalIdx
	Content      LocalIdx
	Flags        LocalIdx
}

func (e *Send) Span() diag.Span { return e.SpanVal }
func (e *Send) isExpr()         {}

// Close releases a socket or listener file descriptor.
type Close struct {
	SpanVal diag.Span
	Socket  LocalIdx
}

func (e *Close) Span() diag.Span { return e.SpanVal }
func (e *Close) isExpr()         {}

// ListenAndServe is the compound primitive that sockets together socket,
// bind, listen, accept, recv, and send into one backend intrinsic for a
// minimal request/response server loop.
type ListenAndServe struct {
	SpanVal          diag.Span
	Domain           LocalIdx
	SockTy           LocalIdx
	Protocol         LocalIdx
	Address          LocalIdx
	AddressLength    LocalIdx
	Backlog          LocalIdx
	RecvBuffer       LocalIdx
	RecvBufferLength LocalIdx
	RecvFlags        LocalIdx
	SendBuffer       LocalIdx
	SendBufferLength LocalIdx
	SendFlags        LocalIdx
	FormatString     LocalIdx
	HttpHeader       LocalIdx
	CallHandler      LocalIdx
}

func (e *ListenAndServe) Span() diag.Span { return e.SpanVal }
func (e *ListenAndServe) isExpr()         {}
