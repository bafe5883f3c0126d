package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/jlaustill/c-next-sub006/cparser"
	"github.com/jlaustill/c-next-sub006/driver"
	"github.com/jlaustill/c-next-sub006/tracing"
)

// buildOptions assembles driver options from the config file, the
// persistent flags, and any embedder injection.
func buildOptions(cfg *cmdConfig) (*driver.Options, error) {
	opts := &driver.Options{
		Registry: cfg.registry,
		Tracer:   cfg.tracer,
	}
	opts.IncludeDirs = append(opts.IncludeDirs, viper.GetStringSlice("include-dirs")...)
	opts.IncludeDirs = append(opts.IncludeDirs, includeDirFlags...)

	defines := make(map[string]int)
	for name, value := range cfg.defines {
		defines[name] = value
	}
	// Config-file defines are NAME=EXPR strings, never a map: viper
	// lowercases map keys and macro names are case sensitive.
	for _, def := range viper.GetStringSlice("defines") {
		name, value, err := parseDefine(def)
		if err != nil {
			return nil, fmt.Errorf("config defines: %w", err)
		}
		defines[name] = value
	}
	for _, def := range defineFlags {
		name, value, err := parseDefine(def)
		if err != nil {
			return nil, err
		}
		defines[name] = value
	}
	if len(defines) > 0 {
		opts.Defines = defines
	}
	return opts, nil
}

// parseDefine splits NAME or NAME=EXPR.  A bare name defines 1, the C
// toolchain convention for -D.
func parseDefine(arg string) (string, int, error) {
	name, text, found := strings.Cut(arg, "=")
	if name == "" {
		return "", 0, fmt.Errorf("define %q: missing name", arg)
	}
	if !found {
		return name, 1, nil
	}
	value, err := cparser.EvalConstExpr(text, nil)
	if err != nil {
		return "", 0, fmt.Errorf("define %q: %w", arg, err)
	}
	return name, int(value), nil
}

// runBuild expands the file arguments and runs a whole-program build,
// writing the stage report to stderr when --trace is set.
func runBuild(cfg *cmdConfig, args, excludes []string) (*driver.Result, error) {
	files, err := expandArgs(args, excludes)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .cnx files to build")
	}
	opts, err := buildOptions(cfg)
	if err != nil {
		return nil, err
	}
	if traceFlag && opts.Tracer == nil {
		report := tracing.NewReportAnnotator(os.Stderr, tracing.WithFileLabels())
		if err := report.Enable(); err != nil {
			return nil, err
		}
		defer func() { _ = report.Complete() }()
		opts.Tracer = report
	}
	return driver.Build(context.Background(), files, opts), nil
}
