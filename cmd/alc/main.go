// Command alc compiles a single source file through the full pipeline
// (parse, type-lowering, lowering, type-checking, memory-management
// instrumentation, pseudo-IR emission) and prints the result.
package main

import (
	"fmt"
	"os"

	"github.com/hassan/compiler/internal/config"
	"github.com/hassan/compiler/internal/driver"
)

func main() {
	root := config.NewRootCommand(runCompile)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCompile(opts config.Options) error {
	out, diags, err := driver.Run(opts)
	if err != nil {
		return err
	}
	if len(diags) > 0 {
		driver.PrintDiagnostics(diags)
		os.Exit(1)
	}
	if opts.Out != "" {
		return os.WriteFile(opts.Out, []byte(out), 0o644)
	}
	fmt.Println(out)
	return nil
}
