// This file implements a recursive-descent parser for the fixed grammar
// SPEC_FULL §6 describes: a small first-order language of fn/struct/enum
// items, let/println/if/match/return terms, and a small expression
// grammar with built-in socket primitives. It reuses internal/lexer's
// token stream and precedence-climbing style but targets
// internal/ast, the lowering stage's actual input contract, rather than
// the teacher's general-purpose Go-shaped internal/parser/ast.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hassan/compiler/internal/ast"
	"github.com/hassan/compiler/internal/diag"
	"github.com/hassan/compiler/internal/lexer"
)

// LangParser converts a token stream into an internal/ast.Module. It
// accumulates errors rather than stopping at the first one, the same
// trade-off the teacher's Parser makes, though the core pipeline it feeds
// aborts on the first error it sees (spec.md §7).
type LangParser struct {
	lex      *lexer.Lexer
	filename string
	cur      lexer.Token
	prev     lexer.Token
	errs     []error

	// noRecordLiteral suppresses parsing a bare `name { ... }` as a record
	// construction while parsing the condition of an if/match, mirroring
	// Go's own parser restriction on composite literals in statement
	// headers (ambiguous with the following block's opening brace).
	noRecordLiteral bool
}

// NewLangParser creates a parser over src, tagging every span with
// filename for diagnostics.
func NewLangParser(src, filename string) *LangParser {
	p := &LangParser{lex: lexer.New(src, filename), filename: filename}
	p.advance()
	return p
}

// ParseModule parses a complete source file into the lowering stage's AST
// contract.
func ParseModule(src, filename string) (*ast.Module, []error) {
	p := NewLangParser(src, filename)
	mod := &ast.Module{}
	for p.cur.Type != lexer.TokenEOF {
		item := p.parseItem()
		if item != nil {
			mod.Items = append(mod.Items, item)
		} else {
			p.advance() // avoid looping forever on an unrecognized token
		}
	}
	return mod, p.errs
}

func (p *LangParser) advance() {
	p.prev = p.cur
	tok, err := p.lex.NextToken()
	for err == nil && tok.Type == lexer.TokenComment {
		tok, err = p.lex.NextToken()
	}
	if err != nil {
		p.errs = append(p.errs, err)
	}
	p.cur = tok
}

func (p *LangParser) span(tok lexer.Token) diag.Span {
	return diag.Span{Start: tok.Position.Offset, End: tok.Position.Offset + tok.Length}
}

func (p *LangParser) errorf(format string, args ...any) {
	p.errs = append(p.errs, fmt.Errorf("%s: %s", p.span(p.cur), fmt.Sprintf(format, args...)))
}

// expect consumes the current token if it matches tt, else records an
// error and returns the current token without consuming it.
func (p *LangParser) expect(tt lexer.TokenType, what string) lexer.Token {
	if p.cur.Type != tt {
		p.errorf("expected %s, found %q", what, p.cur.Lexeme)
		return p.cur
	}
	tok := p.cur
	p.advance()
	return tok
}

func (p *LangParser) ident() ast.Ident {
	tok := p.expect(lexer.TokenIdentifier, "identifier")
	return ast.Ident{Name: tok.Lexeme, Span: p.span(tok)}
}

// --- items -----------------------------------------------------------

func (p *LangParser) parseItem() ast.Item {
	switch p.cur.Type {
	case lexer.TokenFn:
		return p.parseFn()
	case lexer.TokenStruct:
		return p.parseStruct()
	case lexer.TokenEnum:
		return p.parseEnum()
	default:
		p.errorf("expected fn, struct, or enum, found %q", p.cur.Lexeme)
		return nil
	}
}

func (p *LangParser) parseFn() *ast.FnDecl {
	start := p.cur
	p.advance() // fn
	name := p.ident()
	p.expect(lexer.TokenLeftParen, "'('")
	var params []ast.Binding
	for p.cur.Type != lexer.TokenRightParen && p.cur.Type != lexer.TokenEOF {
		params = append(params, p.parseBinding())
		if p.cur.Type == lexer.TokenComma {
			p.advance()
		}
	}
	p.expect(lexer.TokenRightParen, "')'")
	retTy := p.parseType()
	p.expect(lexer.TokenLeftBrace, "'{'")
	body := p.parseTerm()
	end := p.expect(lexer.TokenRightBrace, "'}'")
	return &ast.FnDecl{Name: name, Params: params, ReturnTy: retTy, Body: body, Span: p.span(start).Merge(p.span(end))}
}

func (p *LangParser) parseStruct() *ast.StructDecl {
	start := p.cur
	p.advance() // struct
	name := p.ident()
	p.expect(lexer.TokenLeftBrace, "'{'")
	var fields []ast.Binding
	for p.cur.Type != lexer.TokenRightBrace && p.cur.Type != lexer.TokenEOF {
		fields = append(fields, p.parseBinding())
		if p.cur.Type == lexer.TokenComma {
			p.advance()
		}
	}
	end := p.expect(lexer.TokenRightBrace, "'}'")
	return &ast.StructDecl{Name: name, Fields: fields, Span: p.span(start).Merge(p.span(end))}
}

func (p *LangParser) parseEnum() *ast.EnumDecl {
	start := p.cur
	p.advance() // enum
	name := p.ident()
	p.expect(lexer.TokenLeftBrace, "'{'")
	var variants []ast.Binding
	for p.cur.Type != lexer.TokenRightBrace && p.cur.Type != lexer.TokenEOF {
		caseName := p.ident()
		p.expect(lexer.TokenLeftParen, "'('")
		ty := p.parseType()
		p.expect(lexer.TokenRightParen, "')'")
		variants = append(variants, ast.Binding{Name: caseName, Ty: ty, Span: caseName.Span.Merge(ty.Span)})
		if p.cur.Type == lexer.TokenComma {
			p.advance()
		}
	}
	end := p.expect(lexer.TokenRightBrace, "'}'")
	return &ast.EnumDecl{Name: name, Variants: variants, Span: p.span(start).Merge(p.span(end))}
}

func (p *LangParser) parseBinding() ast.Binding {
	name := p.ident()
	p.expect(lexer.TokenColon, "':'")
	ty := p.parseType()
	return ast.Binding{Name: name, Ty: ty, Span: name.Span.Merge(ty.Span)}
}

// primitiveTypeNames maps the identifier spelling of a primitive type to
// its TyKind, since this grammar has no reserved keywords for them (they
// are ordinary identifiers the way Go's own predeclared "int"/"string"
// are).
var primitiveTypeNames = map[string]ast.TyKind{
	"i8": ast.TyI8, "i16": ast.TyI16, "i32": ast.TyI32, "i64": ast.TyI64,
	"u64": ast.TyU64, "string": ast.TyString,
}

func (p *LangParser) parseType() ast.TyExpr {
	if p.cur.Type == lexer.TokenLeftBracket {
		start := p.cur
		p.advance()
		elem := p.parseType()
		p.expect(lexer.TokenSemicolon, "';'")
		lenTok := p.expect(lexer.TokenNumber, "array length")
		length, _ := strconv.Atoi(lenTok.Lexeme)
		end := p.expect(lexer.TokenRightBracket, "']'")
		return ast.TyExpr{Kind: ast.TyArray, Elem: &elem, Len: length, Span: p.span(start).Merge(p.span(end))}
	}
	tok := p.expect(lexer.TokenIdentifier, "type")
	span := p.span(tok)
	if kind, ok := primitiveTypeNames[tok.Lexeme]; ok {
		return ast.TyExpr{Kind: kind, Span: span}
	}
	return ast.TyExpr{Kind: ast.TyName, Name: ast.Ident{Name: tok.Lexeme, Span: span}, Span: span}
}

// --- terms -------------------------------------------------------------

func (p *LangParser) parseTerm() ast.Term {
	switch p.cur.Type {
	case lexer.TokenLet:
		return p.parseLet()
	case lexer.TokenPrintln:
		return p.parsePrintln()
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenMatch:
		return p.parseMatch()
	case lexer.TokenReturn:
		return p.parseReturn()
	default:
		p.errorf("expected a term (let/println/if/match/return), found %q", p.cur.Lexeme)
		return nil
	}
}

func (p *LangParser) parseLet() *ast.LetTerm {
	start := p.cur
	p.advance() // let
	name := p.ident()
	var ty *ast.TyExpr
	if p.cur.Type == lexer.TokenColon {
		p.advance()
		t := p.parseType()
		ty = &t
	}
	p.expect(lexer.TokenAssign, "'='")
	expr := p.parseExpr(precLowest)
	p.expect(lexer.TokenSemicolon, "';'")
	rest := p.parseTerm()
	return &ast.LetTerm{SpanVal: p.span(start).Merge(rest.Span()), Name: name, Ty: ty, Expr: expr, Rest: rest}
}

func (p *LangParser) parsePrintln() *ast.PrintlnTerm {
	start := p.cur
	p.advance() // println
	p.expect(lexer.TokenLeftParen, "'('")
	expr := p.parseExpr(precLowest)
	p.expect(lexer.TokenRightParen, "')'")
	p.expect(lexer.TokenSemicolon, "';'")
	rest := p.parseTerm()
	return &ast.PrintlnTerm{SpanVal: p.span(start).Merge(rest.Span()), Expr: expr, Rest: rest}
}

func (p *LangParser) parseIf() *ast.IfTerm {
	start := p.cur
	p.advance() // if
	p.noRecordLiteral = true
	cond := p.parseExpr(precLowest)
	p.noRecordLiteral = false
	p.expect(lexer.TokenLeftBrace, "'{'")
	then := p.parseTerm()
	p.expect(lexer.TokenRightBrace, "'}'")
	p.expect(lexer.TokenElse, "'else'")
	p.expect(lexer.TokenLeftBrace, "'{'")
	els := p.parseTerm()
	end := p.expect(lexer.TokenRightBrace, "'}'")
	return &ast.IfTerm{SpanVal: p.span(start).Merge(p.span(end)), Cond: cond, Then: then, Else: els}
}

func (p *LangParser) parseMatch() *ast.MatchTerm {
	start := p.cur
	p.advance() // match
	p.noRecordLiteral = true
	scrutinee := p.parseExpr(precLowest)
	p.noRecordLiteral = false
	p.expect(lexer.TokenLeftBrace, "'{'")
	var arms []ast.MatchArm
	for p.cur.Type != lexer.TokenRightBrace && p.cur.Type != lexer.TokenEOF {
		arms = append(arms, p.parseMatchArm())
		if p.cur.Type == lexer.TokenComma {
			p.advance()
		}
	}
	end := p.expect(lexer.TokenRightBrace, "'}'")
	return &ast.MatchTerm{SpanVal: p.span(start).Merge(p.span(end)), Scrutinee: scrutinee, Arms: arms}
}

// parseMatchArm accepts either a brace-delimited term ("full" arm body,
// needed when an arm itself binds further names before returning) or a
// bare expression, sugar for an implicit return of that expression —
// matching spec.md §8 scenario 4's `O::Some(v) => v` shorthand.
func (p *LangParser) parseMatchArm() ast.MatchArm {
	pattern := p.parsePattern()
	p.expect(lexer.TokenFatArrow, "'=>'")
	if p.cur.Type == lexer.TokenLeftBrace {
		p.advance()
		body := p.parseTerm()
		end := p.expect(lexer.TokenRightBrace, "'}'")
		return ast.MatchArm{SpanVal: pattern.Span().Merge(p.span(end)), Pattern: pattern, Body: body}
	}
	expr := p.parseExpr(precLowest)
	body := &ast.ReturnTerm{SpanVal: expr.Span(), Expr: expr}
	return ast.MatchArm{SpanVal: pattern.Span().Merge(expr.Span()), Pattern: pattern, Body: body}
}

func (p *LangParser) parseReturn() *ast.ReturnTerm {
	start := p.cur
	p.advance() // return
	expr := p.parseExpr(precLowest)
	span := p.span(start).Merge(expr.Span())
	if p.cur.Type == lexer.TokenSemicolon {
		p.advance()
	}
	return &ast.ReturnTerm{SpanVal: span, Expr: expr}
}

// --- patterns ------------------------------------------------------------

func (p *LangParser) parsePattern() ast.Pattern {
	switch p.cur.Type {
	case lexer.TokenNumber:
		tok := p.cur
		p.advance()
		val, _ := strconv.ParseInt(tok.Lexeme, 10, 64)
		return &ast.NumberLiteralPattern{SpanVal: p.span(tok), Value: val}
	case lexer.TokenString:
		tok := p.cur
		p.advance()
		return &ast.StringLiteralPattern{SpanVal: p.span(tok), Value: unquote(tok.Lexeme)}
	case lexer.TokenLeftBracket:
		start := p.cur
		p.advance()
		var elems []ast.Pattern
		for p.cur.Type != lexer.TokenRightBracket && p.cur.Type != lexer.TokenEOF {
			elems = append(elems, p.parsePattern())
			if p.cur.Type == lexer.TokenComma {
				p.advance()
			}
		}
		end := p.expect(lexer.TokenRightBracket, "']'")
		return &ast.ArrayLiteralPattern{SpanVal: p.span(start).Merge(p.span(end)), Elements: elems}
	case lexer.TokenIdentifier:
		name := p.ident()
		if p.cur.Type == lexer.TokenColonColon {
			p.advance()
			caseName := p.ident()
			p.expect(lexer.TokenLeftParen, "'('")
			binding := p.ident()
			end := p.expect(lexer.TokenRightParen, "')'")
			return &ast.VariantPattern{SpanVal: name.Span.Merge(p.span(end)), Enum: name, Case: caseName, Binding: binding}
		}
		if p.cur.Type == lexer.TokenLeftBrace {
			p.advance()
			var fields []ast.RecordFieldPattern
			for p.cur.Type != lexer.TokenRightBrace && p.cur.Type != lexer.TokenEOF {
				fname := p.ident()
				p.expect(lexer.TokenColon, "':'")
				fbind := p.ident()
				fields = append(fields, ast.RecordFieldPattern{Name: fname, Binding: fbind})
				if p.cur.Type == lexer.TokenComma {
					p.advance()
				}
			}
			end := p.expect(lexer.TokenRightBrace, "'}'")
			return &ast.RecordPattern{SpanVal: name.Span.Merge(p.span(end)), Struct: name, Fields: fields}
		}
		return &ast.IdentPattern{SpanVal: name.Span, Name: name}
	default:
		p.errorf("expected a pattern, found %q", p.cur.Lexeme)
		tok := p.cur
		p.advance()
		return &ast.IdentPattern{SpanVal: p.span(tok), Name: ast.Ident{Name: "_", Span: p.span(tok)}}
	}
}

// --- expressions ---------------------------------------------------------

type precLevel int

const (
	precLowest precLevel = iota
	precOr
	precXor
	precAnd
	precEquality
	precComparison
	precShift
	precAdd
	precMul
	precUnary
)

func binopPrec(tt lexer.TokenType) (ast.BinopKind, precLevel, bool) {
	switch tt {
	case lexer.TokenOr:
		return ast.BinopOr, precOr, true
	case lexer.TokenBitXor:
		return ast.BinopXor, precXor, true
	case lexer.TokenAnd:
		return ast.BinopAnd, precAnd, true
	case lexer.TokenEqual:
		return ast.BinopEq, precEquality, true
	case lexer.TokenNotEqual:
		return ast.BinopNeq, precEquality, true
	case lexer.TokenLess:
		return ast.BinopLess, precComparison, true
	case lexer.TokenLessEqual:
		return ast.BinopLeq, precComparison, true
	case lexer.TokenGreater:
		return ast.BinopGreater, precComparison, true
	case lexer.TokenGreaterEqual:
		return ast.BinopGeq, precComparison, true
	case lexer.TokenShl:
		return ast.BinopLShift, precShift, true
	case lexer.TokenShr:
		return ast.BinopRShift, precShift, true
	case lexer.TokenPlus:
		return ast.BinopPlus, precAdd, true
	case lexer.TokenMinus:
		return ast.BinopMinus, precAdd, true
	case lexer.TokenStar:
		return ast.BinopMul, precMul, true
	case lexer.TokenSlash:
		return ast.BinopDiv, precMul, true
	default:
		return 0, precLowest, false
	}
}

func (p *LangParser) parseExpr(min precLevel) ast.Expr {
	left := p.parseUnary()
	for {
		kind, prec, ok := binopPrec(p.cur.Type)
		if !ok || prec < min {
			return left
		}
		op := p.cur
		p.advance()
		right := p.parseExpr(prec + 1)
		left = &ast.Binop{SpanVal: p.span(op).Merge(right.Span()), Kind: kind, Left: left, Right: right}
	}
}

func (p *LangParser) parseUnary() ast.Expr {
	if p.cur.Type == lexer.TokenNot {
		start := p.cur
		p.advance()
		operand := p.parseUnary()
		return &ast.Unop{SpanVal: p.span(start).Merge(operand.Span()), Kind: ast.UnopNot, Operand: operand}
	}
	return p.parsePostfix()
}

// builtinArity lists the socket primitives recognized by call name and
// their fixed argument count (SPEC_FULL §9 "full socket primitive set").
var builtinArity = map[string]int{
	"socket": 3, "bind": 3, "listen": 2, "accept": 1,
	"recv": 4, "send": 5, "close": 1, "listen_and_serve": 15,
}

func (p *LangParser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for p.cur.Type == lexer.TokenDot {
		if v, ok := expr.(*ast.Var); ok {
			p.advance()
			proj := p.ident()
			v.Projections = append(v.Projections, proj)
			v.SpanVal = v.SpanVal.Merge(proj.Span)
			continue
		}
		break
	}
	return expr
}

func (p *LangParser) parsePrimary() ast.Expr {
	switch p.cur.Type {
	case lexer.TokenNumber:
		tok := p.cur
		p.advance()
		val, _ := strconv.ParseInt(tok.Lexeme, 10, 64)
		return &ast.NumberLiteral{SpanVal: p.span(tok), Value: val}
	case lexer.TokenString:
		tok := p.cur
		p.advance()
		return &ast.StringLiteral{SpanVal: p.span(tok), Value: unquote(tok.Lexeme)}
	case lexer.TokenLeftParen:
		p.advance()
		expr := p.parseExpr(precLowest)
		p.expect(lexer.TokenRightParen, "')'")
		return expr
	case lexer.TokenLeftBracket:
		start := p.cur
		p.advance()
		var elems []ast.Expr
		for p.cur.Type != lexer.TokenRightBracket && p.cur.Type != lexer.TokenEOF {
			elems = append(elems, p.parseExpr(precLowest))
			if p.cur.Type == lexer.TokenComma {
				p.advance()
			}
		}
		end := p.expect(lexer.TokenRightBracket, "']'")
		return &ast.ArrayLiteral{SpanVal: p.span(start).Merge(p.span(end)), Elements: elems}
	case lexer.TokenIdentifier:
		return p.parseIdentExpr()
	default:
		p.errorf("expected an expression, found %q", p.cur.Lexeme)
		tok := p.cur
		p.advance()
		return &ast.NumberLiteral{SpanVal: p.span(tok), Value: 0}
	}
}

func (p *LangParser) parseIdentExpr() ast.Expr {
	name := p.ident()

	if p.cur.Type == lexer.TokenLeftParen {
		if arity, isBuiltin := builtinArity[name.Name]; isBuiltin {
			return p.parseBuiltin(name, arity)
		}
		p.advance()
		var args []ast.Expr
		for p.cur.Type != lexer.TokenRightParen && p.cur.Type != lexer.TokenEOF {
			args = append(args, p.parseExpr(precLowest))
			if p.cur.Type == lexer.TokenComma {
				p.advance()
			}
		}
		end := p.expect(lexer.TokenRightParen, "')'")
		return &ast.Call{SpanVal: name.Span.Merge(p.span(end)), Callee: name, Args: args}
	}

	if p.cur.Type == lexer.TokenColonColon {
		p.advance()
		caseName := p.ident()
		p.expect(lexer.TokenLeftParen, "'('")
		body := p.parseExpr(precLowest)
		end := p.expect(lexer.TokenRightParen, "')'")
		return &ast.Variant{SpanVal: name.Span.Merge(p.span(end)), Enum: name, Case: caseName, Body: body}
	}

	if p.cur.Type == lexer.TokenLeftBrace && !p.noRecordLiteral {
		p.advance()
		var fields []ast.RecordField
		for p.cur.Type != lexer.TokenRightBrace && p.cur.Type != lexer.TokenEOF {
			fname := p.ident()
			p.expect(lexer.TokenColon, "':'")
			fval := p.parseExpr(precLowest)
			fields = append(fields, ast.RecordField{Name: fname, Value: fval})
			if p.cur.Type == lexer.TokenComma {
				p.advance()
			}
		}
		end := p.expect(lexer.TokenRightBrace, "'}'")
		return &ast.Record{SpanVal: name.Span.Merge(p.span(end)), Struct: name, Fields: fields}
	}

	return &ast.Var{SpanVal: name.Span, Name: name}
}

// parseBuiltin parses a socket-primitive call. Arity is checked against
// the grammar's fixed shape rather than left to the type checker, since a
// wrong argument count here is a syntax error, not a semantic one.
func (p *LangParser) parseBuiltin(name ast.Ident, arity int) ast.Expr {
	start := p.cur
	p.advance() // (
	var args []ast.Expr
	for p.cur.Type != lexer.TokenRightParen && p.cur.Type != lexer.TokenEOF {
		args = append(args, p.parseExpr(precLowest))
		if p.cur.Type == lexer.TokenComma {
			p.advance()
		}
	}
	end := p.expect(lexer.TokenRightParen, "')'")
	span := name.Span.Merge(p.span(end))
	if len(args) != arity {
		p.errs = append(p.errs, fmt.Errorf("%s: %s expects %d arguments, found %d", p.span(start), name.Name, arity, len(args)))
		for len(args) < arity {
			args = append(args, &ast.NumberLiteral{SpanVal: span, Value: 0})
		}
	}
	switch name.Name {
	case "socket":
		return &ast.Socket{SpanVal: span, Domain: args[0], SockTy: args[1], Protocol: args[2]}
	case "bind":
		return &ast.Bind{SpanVal: span, Socket: args[0], Address: args[1], AddressLength: args[2]}
	case "listen":
		return &ast.Listen{SpanVal: span, Socket: args[0], Backlog: args[1]}
	case "accept":
		return &ast.Accept{SpanVal: span, Socket: args[0]}
	case "recv":
		return &ast.Recv{SpanVal: span, Socket: args[0], Buffer: args[1], BufferLength: args[2], Flags: args[3]}
	case "send":
		return &ast.Send{SpanVal: span, Socket: args[0], Buffer: args[1], BufferLength: args[2], Content: args[3], Flags: args[4]}
	case "close":
		return &ast.Close{SpanVal: span, Socket: args[0]}
	case "listen_and_serve":
		return &ast.ListenAndServe{
			SpanVal: span, Domain: args[0], SockTy: args[1], Protocol: args[2], Address: args[3], AddressLength: args[4],
			Backlog: args[5], RecvBuffer: args[6], RecvBufferLength: args[7], RecvFlags: args[8],
			SendBuffer: args[9], SendBufferLength: args[10], SendFlags: args[11],
			FormatString: args[12], HttpHeader: args[13], CallHandler: args[14],
		}
	default:
		panic("unreachable: " + name.Name + " is not a registered builtin")
	}
}

// unquote strips the surrounding quotes and resolves the small set of
// backslash escapes the lexer passes through verbatim in Token.Lexeme.
func unquote(raw string) string {
	s := strings.TrimPrefix(raw, "\"")
	s = strings.TrimSuffix(s, "\"")
	replacer := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, "\"", `\\`, "\\")
	return replacer.Replace(s)
}
