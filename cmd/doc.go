package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jlaustill/c-next-sub006/docs"
)

// DocCommand creates the "doc" cobra command.
func DocCommand() *cobra.Command {
	var listSections bool

	cmd := &cobra.Command{
		Use:   "doc [flags] [TOPIC]",
		Short: "Show the C-Next language reference",
		Long: `Show the built-in C-Next language reference.

With no arguments the whole reference prints.  A topic prints a single
section; topics match the reference's headings, case insensitively, so
"bitmaps" and "Pass by value" both work.

Examples:
  cnext doc                 Print the whole reference
  cnext doc bitmaps         Print the bitmap section
  cnext doc pass-by-value   Print the pass-by-value section
  cnext doc --list          List section names`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			out := bufio.NewWriter(os.Stdout)
			defer out.Flush() //nolint:errcheck // best-effort flush on exit

			if listSections {
				for _, name := range docs.Sections() {
					fmt.Fprintln(out, name)
				}
				return
			}
			if len(args) == 0 {
				fmt.Fprint(out, docs.LangGuide)
				return
			}
			text, ok := docs.Section(args[0])
			if !ok {
				fmt.Fprintf(os.Stderr, "no section %q in the language reference (try --list)\n", args[0])
				os.Exit(1)
			}
			fmt.Fprint(out, text)
		},
	}

	cmd.Flags().BoolVarP(&listSections, "list", "l", false,
		"List reference sections and exit.")
	return cmd
}

func init() {
	rootCmd.AddCommand(DocCommand())
}
