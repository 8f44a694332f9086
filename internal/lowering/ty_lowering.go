// Package lowering implements the two components of the compiler that sit
// between parsing and type checking: type lowering (SPEC_FULL §4.D), which
// registers and completes every enum/struct declaration against a type
// session, and AST-to-IR lowering (SPEC_FULL §4.F), which turns function
// bodies into three-address IR.
package lowering

import (
	"fmt"

	"github.com/hassan/compiler/internal/ast"
	"github.com/hassan/compiler/internal/diag"
	"github.com/hassan/compiler/internal/types"
)

// TyEnv maps a source-level nominal name to the Ty the type session
// registered for it, so later declarations (and function bodies) can
// resolve references that were written before the registration that
// defines them (spec.md §4.D: forward references across items are legal).
type TyEnv struct {
	names map[string]types.Ty
}

func newTyEnv() *TyEnv {
	return &TyEnv{names: make(map[string]types.Ty)}
}

// Lookup resolves a nominal type name previously registered in this
// environment.
func (e *TyEnv) Lookup(name string) (types.Ty, bool) {
	ty, ok := e.names[name]
	return ty, ok
}

func label(span diag.Span, message string) diag.Label {
	return diag.Label{Span: span, Message: message}
}

// LowerTypes performs the two-phase registration of every enum and struct
// item in mod: first every nominal type gets an empty Ty (so mutually
// recursive aggregates can refer to one another), then every one is
// completed against the now-fully-populated environment (spec.md §4.D).
// It returns the environment mapping names to their registered Ty and any
// diagnostics raised resolving field/variant payload types.
func LowerTypes(sess *types.Session, mod *ast.Module) (*TyEnv, []*diag.Diagnostic) {
	env := newTyEnv()
	var diags []*diag.Diagnostic

	type pendingEnum struct {
		ty   types.Ty
		decl *ast.EnumDecl
	}
	type pendingStruct struct {
		ty   types.Ty
		decl *ast.StructDecl
	}
	var enums []pendingEnum
	var structs []pendingStruct

	for _, item := range mod.Items {
		switch it := item.(type) {
		case *ast.EnumDecl:
			ty := sess.RegisterEnum()
			env.names[it.Name.Name] = ty
			enums = append(enums, pendingEnum{ty: ty, decl: it})
		case *ast.StructDecl:
			ty := sess.RegisterStruct()
			env.names[it.Name.Name] = ty
			structs = append(structs, pendingStruct{ty: ty, decl: it})
		}
	}

	for _, pe := range enums {
		names := make([]string, 0, len(pe.decl.Variants))
		tys := make([]types.Ty, 0, len(pe.decl.Variants))
		seen := make(map[string]bool, len(pe.decl.Variants))
		for _, v := range pe.decl.Variants {
			if seen[v.Name.Name] {
				diags = append(diags, diag.NewError(
					fmt.Sprintf("duplicate variant %q in enum %q", v.Name.Name, pe.decl.Name.Name),
					label(v.Name.Span, "duplicate variant"),
				))
				continue
			}
			seen[v.Name.Name] = true
			ty, ok := resolveTyExpr(sess, env, v.Ty)
			if !ok {
				diags = append(diags, diag.NewError(
					fmt.Sprintf("unresolved type for variant %q of enum %q", v.Name.Name, pe.decl.Name.Name),
					label(v.Span, "unresolved variant type"),
				))
				continue
			}
			names = append(names, v.Name.Name)
			tys = append(tys, ty)
		}
		if err := sess.CompleteEnum(pe.ty, names, tys); err != nil {
			diags = append(diags, diag.NewBug(err.Error(), label(pe.decl.Span, "while completing this enum")))
		}
	}

	for _, ps := range structs {
		names := make([]string, 0, len(ps.decl.Fields))
		tys := make([]types.Ty, 0, len(ps.decl.Fields))
		seen := make(map[string]bool, len(ps.decl.Fields))
		for _, f := range ps.decl.Fields {
			if seen[f.Name.Name] {
				diags = append(diags, diag.NewError(
					fmt.Sprintf("duplicate field %q in struct %q", f.Name.Name, ps.decl.Name.Name),
					label(f.Name.Span, "duplicate field"),
				))
				continue
			}
			seen[f.Name.Name] = true
			ty, ok := resolveTyExpr(sess, env, f.Ty)
			if !ok {
				diags = append(diags, diag.NewError(
					fmt.Sprintf("unresolved type for field %q of struct %q", f.Name.Name, ps.decl.Name.Name),
					label(f.Span, "unresolved field type"),
				))
				continue
			}
			names = append(names, f.Name.Name)
			tys = append(tys, ty)
		}
		if err := sess.CompleteStruct(ps.ty, names, tys); err != nil {
			diags = append(diags, diag.NewBug(err.Error(), label(ps.decl.Span, "while completing this struct")))
		}
	}

	return env, diags
}

// resolveTyExpr maps a source-level type expression to its canonical Ty,
// structurally interning primitives and arrays and looking up nominal
// names against env.
func resolveTyExpr(sess *types.Session, env *TyEnv, t ast.TyExpr) (types.Ty, bool) {
	switch t.Kind {
	case ast.TyI8:
		return sess.InternI8(), true
	case ast.TyI16:
		return sess.InternI16(), true
	case ast.TyI32:
		return sess.InternI32(), true
	case ast.TyI64:
		return sess.InternI64(), true
	case ast.TyU64:
		return sess.InternU64(), true
	case ast.TyString:
		return sess.InternString(), true
	case ast.TyArray:
		elem, ok := resolveTyExpr(sess, env, *t.Elem)
		if !ok {
			return types.Ty{}, false
		}
		return sess.InternArray(elem, t.Len), true
	case ast.TyName:
		return env.Lookup(t.Name.Name)
	default:
		return types.Ty{}, false
	}
}
