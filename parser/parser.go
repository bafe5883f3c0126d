// Package parser is the public entry point for parsing C-Next source.
package parser

import (
	"io"
	"os"

	"github.com/jlaustill/c-next-sub006/ast"
	"github.com/jlaustill/c-next-sub006/parser/cnparser"
	"github.com/jlaustill/c-next-sub006/parser/token"
)

// Parse reads a complete C-Next translation unit from r.  The name is
// attached to the Program and to every source location in it.
func Parse(name string, r io.Reader) (*ast.Program, error) {
	s := token.NewScanner(name, r)
	p := cnparser.New(s)
	p.SetFile(name)
	return p.ParseProgram()
}

// ParseString parses in-memory source text.
func ParseString(name, text string) (*ast.Program, error) {
	s := token.NewScannerString(name, text)
	p := cnparser.New(s)
	p.SetFile(name)
	return p.ParseProgram()
}

// ParseFile parses the file at path.
func ParseFile(path string) (*ast.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s := token.NewScanner(f.Name(), f)
	s.SetPath(path)
	p := cnparser.New(s)
	p.SetFile(f.Name())
	return p.ParseProgram()
}
