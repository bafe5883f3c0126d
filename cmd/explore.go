package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jlaustill/c-next-sub006/explore"
)

// ExploreCommand creates the "explore" cobra command with optional
// embedder configuration.
func ExploreCommand(opts ...Option) *cobra.Command {
	var cfg cmdConfig
	for _, o := range opts {
		o(&cfg)
	}

	cmd := &cobra.Command{
		Use:   "explore [flags] files...",
		Short: "Interactively query the resolved model",
		Long: `Build the given files once, then answer queries about the result in a
readline loop.  Type a symbol path to inspect it; tab completes over
every symbol the build produced.  Use Ctrl-D or quit to exit.

Example session:
  cnext> Motor.setSpeed
  Motor.setSpeed  function  main.cnx:4
    void Motor_setSpeed(u8)
    target u8 by-value
  cnext> consts MODE
  MODE_IDLE 0
  MODE_RUN 1
  cnext> scopes
  Motor
  cnext> help
  ...`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			res, err := runBuild(&cfg, args, nil)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			// Findings print first; the loop still runs so a broken
			// build can be poked at.
			renderBuildDiagnostics(os.Stderr, res)
			explore.Run(res, filepath.Base(os.Args[0])+"> ")
		},
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(ExploreCommand())
}
