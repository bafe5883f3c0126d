// Package cnexttest runs golden build tests from txtar archives.
//
// An archive holds a miniature project plus expectation files under
// want/.  Every other file is laid out in a temporary directory and the
// .cnx files are built in archive order; the build output is then
// compared against each expectation that is present:
//
//	want/symbols      "kind name" per symbol, in resolution order
//	want/consts       "NAME VALUE" per constant, sorted by name
//	want/passbyvalue  "function param by-value|by-reference", sorted
//	want/errors       error strings, in build order
//	want/warnings     warning strings, in build order
//
// File paths inside errors and warnings are reported relative to the
// archive root so expectations stay byte-stable across runs.  An
// archive without want/errors must build with none, and likewise for
// want/warnings; unexpected findings are rendered through the
// diagnostic renderer so a failing archive reads like compiler output.
package cnexttest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/jlaustill/c-next-sub006/analysis"
	"github.com/jlaustill/c-next-sub006/diagnostic"
	"github.com/jlaustill/c-next-sub006/driver"
)

// Runner executes build archives as subtests.
type Runner struct {
	// IncludeDirs are header search directories relative to the archive
	// root, tried after the including file's own directory.
	IncludeDirs []string

	// Tracer is handed to every build.
	Tracer analysis.Tracer
}

// RunDir runs every .txtar archive in dir as a named subtest.
func (r *Runner) RunDir(t *testing.T, dir string) {
	archives, err := filepath.Glob(filepath.Join(dir, "*.txtar"))
	if err != nil {
		t.Fatalf("unable to list archives: %v", err)
	}
	if len(archives) == 0 {
		t.Fatalf("no archives under %s", dir)
	}
	for _, path := range archives {
		path := path
		name := strings.TrimSuffix(filepath.Base(path), ".txtar")
		t.Run(name, func(t *testing.T) {
			r.RunFile(t, path)
		})
	}
}

// RunFile runs one archive.
func (r *Runner) RunFile(t *testing.T, path string) {
	archive, err := txtar.ParseFile(path)
	if err != nil {
		t.Fatalf("unable to read archive: %v", err)
	}
	r.run(t, archive)
}

func (r *Runner) run(t *testing.T, archive *txtar.Archive) {
	dir := t.TempDir()
	want := make(map[string]string)
	var units []string
	for _, f := range archive.Files {
		if strings.HasPrefix(f.Name, "want/") {
			want[strings.TrimPrefix(f.Name, "want/")] = string(f.Data)
			continue
		}
		dst := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(dst), 0700); err != nil {
			t.Fatalf("unable to lay out %s: %v", f.Name, err)
		}
		if err := os.WriteFile(dst, f.Data, 0600); err != nil {
			t.Fatalf("unable to lay out %s: %v", f.Name, err)
		}
		if filepath.Ext(f.Name) == ".cnx" {
			units = append(units, dst)
		}
	}
	if len(units) == 0 {
		t.Fatal("archive has no .cnx files")
	}

	opts := &driver.Options{Tracer: r.Tracer}
	for _, inc := range r.IncludeDirs {
		opts.IncludeDirs = append(opts.IncludeDirs, filepath.Join(dir, inc))
	}
	res := driver.Build(context.Background(), units, opts)

	r.checkFindings(t, res, dir, want)
	if text, ok := want["symbols"]; ok {
		compare(t, "symbols", text, dumpSymbols(res))
	}
	if text, ok := want["consts"]; ok {
		compare(t, "consts", text, dumpConsts(res))
	}
	if text, ok := want["passbyvalue"]; ok {
		compare(t, "passbyvalue", text, dumpPassByValue(res))
	}
}

func (r *Runner) checkFindings(t *testing.T, res *driver.Result, dir string, want map[string]string) {
	var errs []string
	for _, err := range res.Errors {
		errs = append(errs, normalize(err.Error(), dir))
	}
	var warnings []string
	for _, w := range res.Warnings {
		warnings = append(warnings, normalize(w.String(), dir))
	}

	unexpected := false
	if text, ok := want["errors"]; ok {
		compare(t, "errors", text, lines(errs))
	} else if len(errs) > 0 {
		t.Errorf("unexpected errors:\n%s", lines(errs))
		unexpected = true
	}
	if text, ok := want["warnings"]; ok {
		compare(t, "warnings", text, lines(warnings))
	} else if len(warnings) > 0 {
		t.Errorf("unexpected warnings:\n%s", lines(warnings))
		unexpected = true
	}
	if unexpected {
		r.renderFindings(t, res)
	}
}

// renderFindings shows unexpected findings the way the CLI would.
func (r *Runner) renderFindings(t *testing.T, res *driver.Result) {
	logger := NewLogger(t)
	renderer := &diagnostic.Renderer{Color: diagnostic.ColorNever}
	if err := renderer.RenderAll(logger, driver.Diagnose(res)); err != nil {
		t.Logf("render: %v", err)
	}
	logger.Flush()
}

// normalize strips the archive root from paths in a finding.
func normalize(s, dir string) string {
	return strings.ReplaceAll(s, dir+string(os.PathSeparator), "")
}

func lines(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return strings.Join(list, "\n") + "\n"
}

func compare(t *testing.T, name, want, got string) {
	t.Helper()
	if strings.TrimSuffix(want, "\n") == strings.TrimSuffix(got, "\n") {
		return
	}
	t.Errorf("%s mismatch\nwant:\n%s\ngot:\n%s", name, want, got)
}

func dumpSymbols(res *driver.Result) string {
	var b strings.Builder
	for _, sym := range res.Symbols() {
		fmt.Fprintf(&b, "%s %s\n", sym.Kind(), sym.Name())
	}
	return b.String()
}

func dumpConsts(res *driver.Result) string {
	names := make([]string, 0, len(res.Consts))
	for name := range res.Consts {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s %d\n", name, res.Consts[name])
	}
	return b.String()
}

func dumpPassByValue(res *driver.Result) string {
	fns := make([]string, 0, len(res.PassByValue))
	for fn := range res.PassByValue {
		fns = append(fns, fn)
	}
	sort.Strings(fns)
	var b strings.Builder
	for _, fn := range fns {
		decisions := res.PassByValue[fn]
		params := make([]string, 0, len(decisions))
		for p := range decisions {
			params = append(params, p)
		}
		sort.Strings(params)
		for _, p := range params {
			mode := "by-reference"
			if decisions[p] {
				mode = "by-value"
			}
			fmt.Fprintf(&b, "%s %s %s\n", fn, p, mode)
		}
	}
	return b.String()
}
