// Package config wires the command line and environment into a single
// Options value, the idiomatic Go replacement for the original's
// structopt-derived CommandOptions (SPEC_FULL §9). It uses cobra for flag
// parsing and viper for binding those flags to a settings store, so an
// env var (ALC_GC, ALC_DEBUG, ALC_OUT) can supply a value the command
// line omits.
package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hassan/compiler/internal/mm"
)

// Options is the fully resolved set of compiler settings for one run.
type Options struct {
	// Source is the path to the file to compile.
	Source string
	// GC selects the memory-management instruction policy ("none" or
	// "ownrc"); see internal/mm.Policy.
	GC mm.Policy
	// Debug raises the driver's logger to debug level.
	Debug bool
	// Out is the path the emitted pseudo-IR is written to, or "" for
	// stdout.
	Out string
}

// gcPolicyFromFlag maps the --gc flag's string value to an mm.Policy.
// Unrecognized values default to mm.None, the same default the flag
// itself declares.
func gcPolicyFromFlag(name string) mm.Policy {
	if name == "ownrc" {
		return mm.OwnRc
	}
	return mm.None
}

// NewRootCommand builds the cobra command tree for the alc binary. run is
// invoked once flags are parsed and bound, with the resolved Options.
func NewRootCommand(run func(Options) error) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "alc <source-file>",
		Short: "compile a source file to pseudo-IR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := Options{
				Source: args[0],
				GC:     gcPolicyFromFlag(v.GetString("gc")),
				Debug:  v.GetBool("debug"),
				Out:    v.GetString("out"),
			}
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.String("gc", "none", "memory management policy: none or ownrc")
	flags.Bool("debug", false, "enable debug logging of every pipeline stage")
	flags.String("out", "", "write emitted pseudo-IR to this path instead of stdout")

	v.SetEnvPrefix("alc")
	v.AutomaticEnv()
	_ = v.BindPFlag("gc", flags.Lookup("gc"))
	_ = v.BindPFlag("debug", flags.Lookup("debug"))
	_ = v.BindPFlag("out", flags.Lookup("out"))

	return cmd
}
