package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jlaustill/c-next-sub006/driver"
	"github.com/jlaustill/c-next-sub006/ide"
)

// SymbolsCommand creates the "symbols" cobra command with optional
// embedder configuration.
func SymbolsCommand(opts ...Option) *cobra.Command {
	var cfg cmdConfig
	for _, o := range opts {
		o(&cfg)
	}

	var (
		format     string
		withPasses bool
		excludes   []string
	)

	cmd := &cobra.Command{
		Use:   "symbols [flags] [files...]",
		Short: "Print the resolved symbol table",
		Long: `Run the full pipeline over C-Next source files and print every symbol
the build produced: header contributions first, then each translation
unit in build order.

Symbols print under their dot path ("Motor.speed"); the transpiler
emits the same symbol under its mangled C name ("Motor_speed").  The
detail column carries what the kind warrants: a function's signature,
a variable's type, a register's address, a bitmap's width.

With --passes, pass-by-value decisions follow the table: one line per
function parameter, by-value when the transpiler may drop the pointer.

Diagnostics still render to stderr, and a build with errors exits 1
after printing whatever resolved.

Examples:
  cnext symbols main.cnx                Print the symbol table
  cnext symbols --passes main.cnx       Include parameter decisions
  cnext symbols --format json ./...     Outline JSON for tooling`,
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
			hard := renderBuildDiagnostics(os.Stderr, res)

			items := ide.BuildOutline(res.Symbols())
			switch format {
			case "json":
				if err := ide.WriteJSON(os.Stdout, items); err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(2)
				}
			case "text":
				writeOutline(os.Stdout, items)
				if withPasses {
					writePasses(os.Stdout, res)
				}
			default:
				fmt.Fprintf(os.Stderr, "unknown format %q (want \"text\" or \"json\")\n", format)
				os.Exit(2)
			}
			if hard {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text",
		`Output format: "text" or "json".`)
	cmd.Flags().BoolVar(&withPasses, "passes", false,
		"Append pass-by-value decisions per function parameter.")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
	return cmd
}

// writeOutline prints one symbol per line with columns sized to the
// longest entry.
func writeOutline(w io.Writer, items []ide.Item) {
	kindWidth, idWidth := 0, 0
	for _, it := range items {
		if len(it.Kind) > kindWidth {
			kindWidth = len(it.Kind)
		}
		if len(it.ID) > idWidth {
			idWidth = len(it.ID)
		}
	}
	for _, it := range items {
		line := fmt.Sprintf("%-*s  %-*s", kindWidth, it.Kind, idWidth, it.ID)
		if it.Detail != "" {
			line += "  " + it.Detail
		}
		if it.File != "" && it.Line > 0 {
			line += fmt.Sprintf("  (%s:%d)", it.File, it.Line)
		}
		fmt.Fprintln(w, line)
	}
}

// writePasses prints one decision per parameter, functions sorted by
// mangled name.
func writePasses(w io.Writer, res *driver.Result) {
	if len(res.PassByValue) == 0 {
		return
	}
	fns := make([]string, 0, len(res.PassByValue))
	for fn := range res.PassByValue {
		fns = append(fns, fn)
	}
	sort.Strings(fns)

	fmt.Fprintln(w, "\npass-by-value:")
	for _, fn := range fns {
		params := make([]string, 0, len(res.PassByValue[fn]))
		for param := range res.PassByValue[fn] {
			params = append(params, param)
		}
		sort.Strings(params)
		for _, param := range params {
			decision := "by-reference"
			if res.PassByValue[fn][param] {
				decision = "by-value"
			}
			fmt.Fprintf(w, "  %s %s %s\n", fn, param, decision)
		}
	}
}

func init() {
	rootCmd.AddCommand(SymbolsCommand())
}
