package parser

import (
	"testing"

	"github.com/hassan/compiler/internal/ast"
)

func TestParseModule_SimpleFn(t *testing.T) {
	src := `fn id(x: i32) i32 { return x }`
	mod, errs := ParseModule(src, "test.src")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(mod.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(mod.Items))
	}
	fn, ok := mod.Items[0].(*ast.FnDecl)
	if !ok {
		t.Fatalf("expected *ast.FnDecl, got %T", mod.Items[0])
	}
	if fn.Name.Name != "id" {
		t.Errorf("expected name %q, got %q", "id", fn.Name.Name)
	}
	if len(fn.Params) != 1 || fn.Params[0].Name.Name != "x" || fn.Params[0].Ty.Kind != ast.TyI32 {
		t.Errorf("unexpected params: %+v", fn.Params)
	}
	if fn.ReturnTy.Kind != ast.TyI32 {
		t.Errorf("expected return type i32, got %v", fn.ReturnTy.Kind)
	}
	ret, ok := fn.Body.(*ast.ReturnTerm)
	if !ok {
		t.Fatalf("expected *ast.ReturnTerm body, got %T", fn.Body)
	}
	v, ok := ret.Expr.(*ast.Var)
	if !ok || v.Name.Name != "x" {
		t.Errorf("expected return of var x, got %+v", ret.Expr)
	}
}

func TestParseModule_StructAndEnum(t *testing.T) {
	src := `struct P{a:i32,b:i32}
enum O { Some(i32), None(i32) }`
	mod, errs := ParseModule(src, "test.src")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(mod.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(mod.Items))
	}
	st, ok := mod.Items[0].(*ast.StructDecl)
	if !ok || st.Name.Name != "P" || len(st.Fields) != 2 {
		t.Fatalf("unexpected struct decl: %+v", mod.Items[0])
	}
	en, ok := mod.Items[1].(*ast.EnumDecl)
	if !ok || en.Name.Name != "O" || len(en.Variants) != 2 {
		t.Fatalf("unexpected enum decl: %+v", mod.Items[1])
	}
}

func TestParseModule_IfElse(t *testing.T) {
	src := `fn pick(c: i32) i32 { if c { return 1 } else { return 0 } }`
	mod, errs := ParseModule(src, "test.src")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fn := mod.Items[0].(*ast.FnDecl)
	ifTerm, ok := fn.Body.(*ast.IfTerm)
	if !ok {
		t.Fatalf("expected *ast.IfTerm, got %T", fn.Body)
	}
	if _, ok := ifTerm.Cond.(*ast.Var); !ok {
		t.Errorf("expected condition to be a Var, got %T", ifTerm.Cond)
	}
}

func TestParseModule_MatchWithVariantAndShorthandArm(t *testing.T) {
	src := `fn unwrap(x: i32) i32 { match x { O::Some(v) => v, O::None(z) => 0 } }`
	mod, errs := ParseModule(src, "test.src")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fn := mod.Items[0].(*ast.FnDecl)
	matchTerm, ok := fn.Body.(*ast.MatchTerm)
	if !ok {
		t.Fatalf("expected *ast.MatchTerm, got %T", fn.Body)
	}
	if len(matchTerm.Arms) != 2 {
		t.Fatalf("expected 2 arms, got %d", len(matchTerm.Arms))
	}
	pat, ok := matchTerm.Arms[0].Pattern.(*ast.VariantPattern)
	if !ok || pat.Case.Name != "Some" || pat.Binding.Name != "v" {
		t.Errorf("unexpected first arm pattern: %+v", matchTerm.Arms[0].Pattern)
	}
	if _, ok := matchTerm.Arms[0].Body.(*ast.ReturnTerm); !ok {
		t.Errorf("expected shorthand arm body to desugar to a ReturnTerm, got %T", matchTerm.Arms[0].Body)
	}
}

func TestParseModule_LetAndRecordLiteral(t *testing.T) {
	src := `fn make() P { let p = P{a:1,b:2}; return p }`
	mod, errs := ParseModule(src, "test.src")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fn := mod.Items[0].(*ast.FnDecl)
	letTerm, ok := fn.Body.(*ast.LetTerm)
	if !ok {
		t.Fatalf("expected *ast.LetTerm, got %T", fn.Body)
	}
	rec, ok := letTerm.Expr.(*ast.Record)
	if !ok || rec.Struct.Name != "P" || len(rec.Fields) != 2 {
		t.Fatalf("unexpected record literal: %+v", letTerm.Expr)
	}
}

func TestParseModule_PrintlnAndBuiltinSocket(t *testing.T) {
	src := `fn serve() i32 { println("hi"); let s = socket(1, 2, 3); return s }`
	mod, errs := ParseModule(src, "test.src")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fn := mod.Items[0].(*ast.FnDecl)
	printlnTerm, ok := fn.Body.(*ast.PrintlnTerm)
	if !ok {
		t.Fatalf("expected *ast.PrintlnTerm, got %T", fn.Body)
	}
	letTerm, ok := printlnTerm.Rest.(*ast.LetTerm)
	if !ok {
		t.Fatalf("expected *ast.LetTerm, got %T", printlnTerm.Rest)
	}
	if _, ok := letTerm.Expr.(*ast.Socket); !ok {
		t.Errorf("expected socket() to parse as *ast.Socket, got %T", letTerm.Expr)
	}
}

func TestParseModule_BuiltinWrongArityReportsError(t *testing.T) {
	src := `fn bad() i32 { let s = socket(1); return s }`
	_, errs := ParseModule(src, "test.src")
	if len(errs) == 0 {
		t.Fatalf("expected an arity error, got none")
	}
}
