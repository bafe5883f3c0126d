package cmd

import (
	"io"

	"github.com/spf13/viper"

	"github.com/jlaustill/c-next-sub006/diagnostic"
	"github.com/jlaustill/c-next-sub006/driver"
)

// colorMode resolves the --color flag, falling back to the config
// file's color key when the flag is left at its default.
func colorMode() diagnostic.ColorMode {
	mode := colorFlag
	if mode == "auto" && viper.IsSet("color") {
		mode = viper.GetString("color")
	}
	switch mode {
	case "always":
		return diagnostic.ColorAlways
	case "never":
		return diagnostic.ColorNever
	default:
		return diagnostic.ColorAuto
	}
}

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: colorMode()}
}

// renderBuildDiagnostics renders every finding from a build to w,
// errors before warnings, and reports whether any were hard errors.
func renderBuildDiagnostics(w io.Writer, res *driver.Result) bool {
	ds := driver.Diagnose(res)
	if len(ds) > 0 {
		r := newRenderer()
		_ = r.RenderAll(w, ds)
	}
	return len(res.Errors) > 0
}
