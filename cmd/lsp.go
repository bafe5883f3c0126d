package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jlaustill/c-next-sub006/lsp"
)

// LSPCommand creates the "lsp" cobra command.  The server rebuilds each
// open document from its buffer contents, so include directories and
// defines configured here apply to every build it runs.
func LSPCommand(opts ...Option) *cobra.Command {
	var cfg cmdConfig
	for _, o := range opts {
		o(&cfg)
	}

	var (
		stdio bool
		port  int
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the C-Next Language Server Protocol server",
		Long: `Start an LSP server for C-Next source files.

The language server rebuilds every open document as it changes and
provides real-time diagnostics, document outlines, and workspace-wide
symbol search.  Include directories and -D defines from the config file
and persistent flags apply to each build.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  cnext lsp                          Start with stdio transport
  cnext lsp --stdio                  Same as above (explicit)
  cnext lsp --port 7998              Start with TCP on port 7998
  cnext lsp -I boards/teensy41       Resolve includes against a board dir

Editor configuration (VS Code):
  Install a generic LSP client extension and configure it to run
  "cnext lsp --stdio" for .cnx files.`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			buildOpts, err := buildOptions(&cfg)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}

			var serverOpts []lsp.Option
			if len(buildOpts.IncludeDirs) > 0 {
				serverOpts = append(serverOpts, lsp.WithIncludeDirs(buildOpts.IncludeDirs))
			}
			if len(buildOpts.Defines) > 0 {
				serverOpts = append(serverOpts, lsp.WithDefines(buildOpts.Defines))
			}

			srv := lsp.New(serverOpts...)

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				log.Printf("C-Next LSP server listening on %s", addr)
				if err := srv.RunTCP(addr); err != nil {
					fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
					os.Exit(1)
				}
			} else {
				if err := srv.RunStdio(); err != nil {
					fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
					os.Exit(1)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")

	return cmd
}

func init() {
	rootCmd.AddCommand(LSPCommand())
}
