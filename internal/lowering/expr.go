package lowering

import (
	"github.com/hassan/compiler/internal/ast"
	"github.com/hassan/compiler/internal/diag"
	"github.com/hassan/compiler/internal/idx"
	"github.com/hassan/compiler/internal/ir"
	"github.com/hassan/compiler/internal/types"
)

// widthForTy reports the fixed integer width a type corresponds to, for
// the primitive integer kinds a numeric literal may adopt (spec.md §4.F
// "Numeric literal typing").
func widthForTy(sess *types.Session, ty types.Ty) (ir.IntWidth, bool) {
	data, ok := sess.Kind(ty)
	if !ok {
		return 0, false
	}
	switch data.Kind {
	case types.KindI8:
		return ir.Width8, true
	case types.KindI16:
		return ir.Width16, true
	case types.KindI32:
		return ir.Width32, true
	case types.KindI64:
		return ir.Width64, true
	case types.KindU64:
		return ir.WidthU64, true
	default:
		return 0, false
	}
}

// lowerExprInto lowers a source expression into the tail of block,
// emitting a Let instruction for every sub-expression except a bare
// variable reference with no field projection, which resolves directly to
// its existing local rather than rebinding it (spec.md §4.F: "does not
// emit a let"). expected is the type the surrounding context supplies, if
// any — only a numeric literal consults it, adopting its width when it
// names one of the supported integer widths (spec.md §4.F "Numeric
// literal typing"); every other expression's type is fully determined by
// its own shape. It returns the local the expression's value now lives in
// and that local's type.
func (fc *fnCtx) lowerExprInto(e ast.Expr, block *ir.Block, expected *types.Ty) (ir.LocalIdx, types.Ty) {
	switch expr := e.(type) {
	case *ast.NumberLiteral:
		width := ir.Width32
		ty := fc.sess.InternI32()
		if expected != nil {
			if w, ok := widthForTy(fc.sess, *expected); ok {
				width, ty = w, *expected
			}
		}
		return fc.emitExpr(block, expr.SpanVal, ty, &ir.IntLiteral{SpanVal: expr.SpanVal, Width: width, Value: expr.Value})

	case *ast.U64Literal:
		ty := fc.sess.InternU64()
		return fc.emitExpr(block, expr.SpanVal, ty, &ir.IntLiteral{SpanVal: expr.SpanVal, Width: ir.WidthU64, Value: int64(expr.Value)})

	case *ast.StringLiteral:
		ty := fc.sess.InternString()
		return fc.emitExpr(block, expr.SpanVal, ty, &ir.StringLiteral{SpanVal: expr.SpanVal, Value: expr.Value})

	case *ast.ArrayLiteral:
		var elems []ir.LocalIdx
		var elemTy types.Ty
		for i, el := range expr.Elements {
			l, t := fc.lowerExprInto(el, block, nil)
			if i == 0 {
				elemTy = t
			}
			elems = append(elems, l)
		}
		arrTy := fc.sess.InternArray(elemTy, len(expr.Elements))
		return fc.emitExpr(block, expr.SpanVal, arrTy, &ir.ArrayLiteral{SpanVal: expr.SpanVal, ElementTy: elemTy, Elements: elems})

	case *ast.Var:
		local, ok := fc.sc.lookup(expr.Name.Name)
		if !ok {
			fc.errorf(expr.SpanVal, "undefined variable %q", expr.Name.Name)
			return fc.fresh(expr.SpanVal, types.Ty{}), types.Ty{}
		}
		ty, _ := fc.typeOf(local)

		if len(expr.Projections) == 0 {
			return local.WithSpan(expr.SpanVal), ty
		}

		var fields []types.FieldIdx
		curTy := ty
		for _, proj := range expr.Projections {
			fi, ok := fc.sess.LookupField(curTy, proj.Name)
			if !ok {
				fc.errorf(proj.Span, "unknown field %q", proj.Name)
				return fc.fresh(expr.SpanVal, types.Ty{}), types.Ty{}
			}
			fieldTy, _ := fc.sess.FieldTy(curTy, fi)
			fields = append(fields, fi)
			curTy = fieldTy
		}
		return fc.emitExpr(block, expr.SpanVal, curTy, &ir.Var{SpanVal: expr.SpanVal, Local: local, Projections: fields})

	case *ast.Unop:
		operand, opTy := fc.lowerExprInto(expr.Operand, block, nil)
		return fc.emitExpr(block, expr.SpanVal, opTy, &ir.Unop{SpanVal: expr.SpanVal, Kind: ir.UnopKind(expr.Kind), Operand: operand})

	case *ast.Binop:
		left, leftTy := fc.lowerExprInto(expr.Left, block, nil)
		right, _ := fc.lowerExprInto(expr.Right, block, nil)
		resultTy := leftTy
		switch expr.Kind {
		case ast.BinopEq, ast.BinopNeq, ast.BinopLess, ast.BinopLeq, ast.BinopGreater, ast.BinopGeq:
			resultTy = fc.sess.InternU64()
		}
		return fc.emitExpr(block, expr.SpanVal, resultTy, &ir.Binop{SpanVal: expr.SpanVal, Kind: ir.BinopKind(expr.Kind), Left: left, Right: right})

	case *ast.Call:
		info, ok := fc.fns[expr.Callee.Name]
		if !ok {
			fc.errorf(expr.SpanVal, "call to undefined function %q", expr.Callee.Name)
			return fc.fresh(expr.SpanVal, types.Ty{}), types.Ty{}
		}
		args := idx.NewIdxVec[types.ParamIdx, ir.LocalIdx](types.NewParamIdx)
		for _, a := range expr.Args {
			l, _ := fc.lowerExprInto(a, block, nil)
			args.Push(l)
		}
		return fc.emitExpr(block, expr.SpanVal, info.proto.ReturnTy, &ir.Call{SpanVal: expr.SpanVal, Target: info.defIdx, Args: args})

	case *ast.Variant:
		enumTy, ok := fc.tyEnv.Lookup(expr.Enum.Name)
		if !ok {
			fc.errorf(expr.SpanVal, "unresolved enum type %q", expr.Enum.Name)
			return fc.fresh(expr.SpanVal, types.Ty{}), types.Ty{}
		}
		vi, ok := fc.sess.LookupVariant(enumTy, expr.Case.Name)
		if !ok {
			fc.errorf(expr.SpanVal, "unknown variant %q of enum %q", expr.Case.Name, expr.Enum.Name)
			return fc.fresh(expr.SpanVal, types.Ty{}), types.Ty{}
		}
		body, _ := fc.lowerExprInto(expr.Body, block, nil)
		return fc.emitExpr(block, expr.SpanVal, enumTy, &ir.Variant{SpanVal: expr.SpanVal, Ty: enumTy, Discriminant: vi, Body: body})

	case *ast.Record:
		return fc.lowerRecord(expr, block)

	case *ast.Socket:
		domain, _ := fc.lowerExprInto(expr.Domain, block, nil)
		sockTy, _ := fc.lowerExprInto(expr.SockTy, block, nil)
		protocol, _ := fc.lowerExprInto(expr.Protocol, block, nil)
		resultTy := fc.sess.InternI32()
		return fc.emitExpr(block, expr.SpanVal, resultTy, &ir.Socket{SpanVal: expr.SpanVal, Domain: domain, SockTy: sockTy, Protocol: protocol})

	case *ast.Bind:
		socket, _ := fc.lowerExprInto(expr.Socket, block, nil)
		address, _ := fc.lowerExprInto(expr.Address, block, nil)
		addrLen, _ := fc.lowerExprInto(expr.AddressLength, block, nil)
		resultTy := fc.sess.InternI32()
		return fc.emitExpr(block, expr.SpanVal, resultTy, &ir.Bind{SpanVal: expr.SpanVal, Socket: socket, Address: address, AddressLength: addrLen})

	case *ast.Listen:
		socket, _ := fc.lowerExprInto(expr.Socket, block, nil)
		backlog, _ := fc.lowerExprInto(expr.Backlog, block, nil)
		resultTy := fc.sess.InternI32()
		return fc.emitExpr(block, expr.SpanVal, resultTy, &ir.Listen{SpanVal: expr.SpanVal, Socket: socket, Backlog: backlog})

	case *ast.Accept:
		socket, _ := fc.lowerExprInto(expr.Socket, block, nil)
		resultTy := fc.sess.InternI32()
		return fc.emitExpr(block, expr.SpanVal, resultTy, &ir.Accept{SpanVal: expr.SpanVal, Socket: socket})

	case *ast.Recv:
		socket, _ := fc.lowerExprInto(expr.Socket, block, nil)
		buffer, _ := fc.lowerExprInto(expr.Buffer, block, nil)
		bufLen, _ := fc.lowerExprInto(expr.BufferLength, block, nil)
		flags, _ := fc.lowerExprInto(expr.Flags, block, nil)
		resultTy := fc.sess.InternI32()
		return fc.emitExpr(block, expr.SpanVal, resultTy, &ir.Recv{SpanVal: expr.SpanVal, Socket: socket, Buffer: buffer, BufferLength: bufLen, Flags: flags})

	case *ast.Send:
		socket, _ := fc.lowerExprInto(expr.Socket, block, nil)
		buffer, _ := fc.lowerExprInto(expr.Buffer, block, nil)
		bufLen, _ := fc.lowerExprInto(expr.BufferLength, block, nil)
		content, _ := fc.lowerExprInto(expr.Content, block, nil)
		flags, _ := fc.lowerExprInto(expr.Flags, block, nil)
		resultTy := fc.sess.InternI32()
		return fc.emitExpr(block, expr.SpanVal, resultTy, &ir.Send{SpanVal: expr.SpanVal, Socket: socket, Buffer: buffer, BufferLength: bufLen, Content: content, Flags: flags})

	case *ast.Close:
		socket, _ := fc.lowerExprInto(expr.Socket, block, nil)
		resultTy := fc.sess.InternI32()
		return fc.emitExpr(block, expr.SpanVal, resultTy, &ir.Close{SpanVal: expr.SpanVal, Socket: socket})

	case *ast.ListenAndServe:
		return fc.lowerListenAndServe(expr, block)

	default:
		fc.bugf(e.Span(), "unhandled expression kind in lowering")
		return fc.fresh(e.Span(), types.Ty{}), types.Ty{}
	}
}

// emitExpr mints a fresh local for expr's result, emits the Let
// instruction binding it, and returns the local and its type.
func (fc *fnCtx) emitExpr(block *ir.Block, span diag.Span, ty types.Ty, expr ir.Expr) (ir.LocalIdx, types.Ty) {
	local := fc.fresh(span, ty)
	block.Instructions = append(block.Instructions, &ir.LetInstr{SpanVal: span, Binding: local, Expr: expr})
	return local, ty
}

func (fc *fnCtx) lowerRecord(expr *ast.Record, block *ir.Block) (ir.LocalIdx, types.Ty) {
	structTy, ok := fc.tyEnv.Lookup(expr.Struct.Name)
	if !ok {
		fc.errorf(expr.SpanVal, "unresolved struct type %q", expr.Struct.Name)
		return fc.fresh(expr.SpanVal, types.Ty{}), types.Ty{}
	}
	declared, _ := fc.sess.FieldNamesOrdered(structTy)

	seen := make(map[string]bool, len(expr.Fields))
	for _, f := range expr.Fields {
		if seen[f.Name.Name] {
			fc.errorf(expr.SpanVal, "duplicate field %q in record literal", f.Name.Name)
		}
		seen[f.Name.Name] = true
	}

	fields := idx.NewIdxVec[types.FieldIdx, ir.LocalIdx](types.NewFieldIdx)
	for _, name := range declared {
		var valExpr ast.Expr
		found := false
		for _, f := range expr.Fields {
			if f.Name.Name == name {
				valExpr = f.Value
				found = true
				break
			}
		}
		if !found {
			fc.errorf(expr.SpanVal, "missing field %q in record literal for %q", name, expr.Struct.Name)
			continue
		}
		fi, _ := fc.sess.LookupField(structTy, name)
		fieldTy, _ := fc.sess.FieldTy(structTy, fi)
		local, _ := fc.lowerExprInto(valExpr, block, &fieldTy)
		fields.Push(local)
	}
	if len(expr.Fields) > len(declared) {
		fc.errorf(expr.SpanVal, "unknown field in record literal for %q", expr.Struct.Name)
	}

	return fc.emitExpr(block, expr.SpanVal, structTy, &ir.Record{SpanVal: expr.SpanVal, Ty: structTy, Fields: fields})
}

func (fc *fnCtx) lowerListenAndServe(expr *ast.ListenAndServe, block *ir.Block) (ir.LocalIdx, types.Ty) {
	domain, _ := fc.lowerExprInto(expr.Domain, block, nil)
	sockTy, _ := fc.lowerExprInto(expr.SockTy, block, nil)
	protocol, _ := fc.lowerExprInto(expr.Protocol, block, nil)
	address, _ := fc.lowerExprInto(expr.Address, block, nil)
	addrLen, _ := fc.lowerExprInto(expr.AddressLength, block, nil)
	backlog, _ := fc.lowerExprInto(expr.Backlog, block, nil)
	recvBuf, _ := fc.lowerExprInto(expr.RecvBuffer, block, nil)
	recvBufLen, _ := fc.lowerExprInto(expr.RecvBufferLength, block, nil)
	recvFlags, _ := fc.lowerExprInto(expr.RecvFlags, block, nil)
	sendBuf, _ := fc.lowerExprInto(expr.SendBuffer, block, nil)
	sendBufLen, _ := fc.lowerExprInto(expr.SendBufferLength, block, nil)
	sendFlags, _ := fc.lowerExprInto(expr.SendFlags, block, nil)
	formatString, _ := fc.lowerExprInto(expr.FormatString, block, nil)
	httpHeader, _ := fc.lowerExprInto(expr.HttpHeader, block, nil)
	handler, _ := fc.lowerExprInto(expr.CallHandler, block, nil)

	resultTy := fc.sess.InternI32()
	return fc.emitExpr(block, expr.SpanVal, resultTy, &ir.ListenAndServe{
		SpanVal:          expr.SpanVal,
		Domain:           domain,
		SockTy:           sockTy,
		Protocol:         protocol,
		Address:          address,
		AddressLength:    addrLen,
		Backlog:          backlog,
		RecvBuffer:       recvBuf,
		RecvBufferLength: recvBufLen,
		RecvFlags:        recvFlags,
		SendBuffer:       sendBuf,
		SendBufferLength: sendBufLen,
		SendFlags:        sendFlags,
		FormatString:     formatString,
		HttpHeader:       httpHeader,
		CallHandler:      handler,
	})
}
