package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// CheckCommand creates the "check" cobra command with optional embedder
// configuration.
func CheckCommand(opts ...Option) *cobra.Command {
	var cfg cmdConfig
	for _, o := range opts {
		o(&cfg)
	}

	var excludes []string

	cmd := &cobra.Command{
		Use:   "check [flags] [files...]",
		Short: "Resolve source files and report diagnostics",
		Long: `Resolve C-Next source files and report everything the analyzer finds.

Files build in argument order and share one symbol registry, so a
constant or scope declared in an earlier file is visible to every later
one.  Project includes resolve transitively; C headers contribute their
macros, enums, and typedefs, C++ headers their namespaces and
declarations.  The build is fault tolerant: a file that fails to parse
is reported and the remaining files still resolve.

Findings render with source context, errors before warnings.  Warnings
alone do not fail the build.

Exit codes:
  0  No errors
  1  One or more errors were reported
  2  Bad invocation (invalid flags, no input files)

Examples:
  cnext check main.cnx                     Check a single file
  cnext check motor.cnx panel.cnx          Later files see earlier symbols
  cnext check ./...                        Check every .cnx file under .
  cnext check --exclude=generated ./...    Skip a directory by name
  cnext check -I vendor/include main.cnx   Add a header search directory
  cnext check -D F_CPU=16000000 main.cnx   Seed a constant`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				_ = cmd.Help()
				os.Exit(2)
			}
			res, err := runBuild(&cfg, args, excludes)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			if renderBuildDiagnostics(os.Stderr, res) {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
	return cmd
}

func init() {
	rootCmd.AddCommand(CheckCommand())
}
