package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile         string
	colorFlag       string
	includeDirFlags []string
	defineFlags     []string
	traceFlag       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cnext",
	Short: "cnext — C-Next semantic analyzer",
	Long: `cnext fronts the semantic analyzer of the C-Next transpiler.  It
resolves C-Next source files together with the C and C++ headers they
include and reports what the transpiler would see: every symbol under
its mangled C name, every constant value, every pass-by-value decision,
and every error or warning the resolver raises.

Getting started:
  cnext check main.cnx          Resolve files and report diagnostics
  cnext check ./...             Check every .cnx file under the tree
  cnext symbols main.cnx        Print the resolved symbol table
  cnext symbols --format json   Machine-readable outline for tooling
  cnext explore main.cnx        Interactive queries over the model
  cnext doc                     Show the language reference
  cnext lsp                     Language server for editors

Language overview:
  C-Next targets embedded systems and transpiles to plain C.  Scopes
  group state and functions and mangle into C with underscores:
  scope Motor { u8 speed; } becomes Motor_speed.  Assignment is <-,
  so = can never hide in a condition.  bitmap8..bitmap64 name bit
  fields over a fixed width, register binds members to hardware
  addresses, and #include pulls C and C++ headers into the analysis
  so array dimensions can use macro constants.

Configuration ($HOME/.cnext.yaml, or --config):
  include-dirs: [vendor/include]    Header search path
  defines: [F_CPU=16000000, DEBUG]  Seed constants, like -D
  color: auto                       auto, always, or never`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags are shared by every subcommand that runs a build.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cnext.yaml)")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto",
		`Control colored output: "auto", "always", or "never".`)
	rootCmd.PersistentFlags().StringArrayVarP(&includeDirFlags, "include-dir", "I", nil,
		"Directory searched for included headers (may be repeated).")
	rootCmd.PersistentFlags().StringArrayVarP(&defineFlags, "define", "D", nil,
		"Seed a constant as NAME or NAME=EXPR (may be repeated).")
	rootCmd.PersistentFlags().BoolVar(&traceFlag, "trace", false,
		"Write per-stage wall-time totals to stderr after the build.")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".cnext" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".cnext")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
