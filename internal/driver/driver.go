// Package driver wires the pipeline stages together: parse, lower types,
// lower to IR, type-check, instrument for memory management, emit. It
// runs every stage strictly sequentially on the calling goroutine
// (SPEC_FULL §5), logs stage entry/exit through logrus at Debug, noting
// when a stage exits with diagnostics (the diagnostics themselves are
// returned to the caller, not logged), and is the one place allowed
// to depend on terminal rendering (fatih/color) when printing
// diagnostics for a human to read.
package driver

import (
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hassan/compiler/internal/codegen"
	"github.com/hassan/compiler/internal/config"
	"github.com/hassan/compiler/internal/diag"
	"github.com/hassan/compiler/internal/lowering"
	"github.com/hassan/compiler/internal/mm"
	"github.com/hassan/compiler/internal/parser"
	"github.com/hassan/compiler/internal/typecheck"
	"github.com/hassan/compiler/internal/types"
)

var log = logrus.New()

// Run executes the full pipeline for opts and returns the emitted
// pseudo-IR, or the diagnostics collected from whichever stage failed
// first.
func Run(opts config.Options) (string, []*diag.Diagnostic, error) {
	if opts.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	source, err := os.ReadFile(opts.Source)
	if err != nil {
		return "", nil, errors.Wrapf(err, "opening %s", opts.Source)
	}

	log.WithField("stage", "parse").Debug("entering")
	mod, errs := parser.ParseModule(string(source), opts.Source)
	if len(errs) > 0 {
		log.WithField("stage", "parse").Debug("exiting with errors")
		return "", parseErrorsToDiagnostics(errs), nil
	}
	log.WithField("stage", "parse").Debug("exiting")

	sess := types.NewSession()

	log.WithField("stage", "type-lowering").Debug("entering")
	tyEnv, diags := lowering.LowerTypes(sess, mod)
	if len(diags) > 0 {
		log.WithField("stage", "type-lowering").Debug("exiting with diagnostics")
		return "", diags, nil
	}
	log.WithField("stage", "type-lowering").Debug("exiting")

	log.WithField("stage", "lowering").Debug("entering")
	prog, diags := lowering.LowerModule(sess, tyEnv, mod)
	if len(diags) > 0 {
		log.WithField("stage", "lowering").Debug("exiting with diagnostics")
		return "", diags, nil
	}
	log.WithField("stage", "lowering").Debug("exiting")

	log.WithField("stage", "typecheck").Debug("entering")
	env, diags := typecheck.Check(sess, prog)
	if len(diags) > 0 {
		log.WithField("stage", "typecheck").Debug("exiting with diagnostics")
		return "", diags, nil
	}
	log.WithField("stage", "typecheck").Debug("exiting")

	log.WithFields(logrus.Fields{"stage": "mm", "policy": opts.GC}).Debug("entering")
	prog = mm.Run(sess, prog, opts.GC)
	log.WithField("stage", "mm").Debug("exiting")

	log.WithField("stage", "codegen").Debug("entering")
	out := codegen.Emit(sess, prog, env)
	log.WithField("stage", "codegen").Debug("exiting")

	return out, nil, nil
}

// parseErrorsToDiagnostics wraps bare parser errors (which carry a
// formatted span in their message rather than a structured diag.Span) in
// dummy-spanned Diagnostics so every pipeline stage reports through the
// same channel.
func parseErrorsToDiagnostics(errs []error) []*diag.Diagnostic {
	out := make([]*diag.Diagnostic, 0, len(errs))
	for _, err := range errs {
		out = append(out, diag.NewError(err.Error(), diag.Label{Span: diag.DummySpan(), Message: "parse error"}))
	}
	return out
}

// PrintDiagnostics renders diags to stderr, coloring by severity: red for
// a user error, yellow for an internal bug. This is the one function in
// the core pipeline allowed to touch a terminal-coloring dependency
// (SPEC_FULL §4.B).
func PrintDiagnostics(diags []*diag.Diagnostic) {
	errColor := color.New(color.FgRed, color.Bold)
	bugColor := color.New(color.FgYellow, color.Bold)
	for _, d := range diags {
		switch d.Severity {
		case diag.SeverityBug:
			bugColor.Fprintf(os.Stderr, "bug: %s (at %d..%d)\n", d.Message, d.Primary.Span.Start, d.Primary.Span.End)
		default:
			errColor.Fprintf(os.Stderr, "error: %s (at %d..%d)\n", d.Message, d.Primary.Span.Start, d.Primary.Span.End)
		}
		if d.Primary.Message != "" {
			color.New(color.FgCyan).Fprintf(os.Stderr, "  %s\n", d.Primary.Message)
		}
		for _, sec := range d.Secondary {
			color.New(color.FgCyan).Fprintf(os.Stderr, "  note: %s\n", sec.Message)
		}
	}
}
