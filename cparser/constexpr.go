package cparser

import (
	"fmt"
	"strconv"
	"strings"

	parsec "github.com/prataprc/goparsec"
)

// EvalConstExpr evaluates the integer constant expressions found in macro
// bodies, enum values, and array dimensions: literals, previously defined
// names, parentheses, unary + - ~, and the binary operators
// * / % + - << >> & ^ | with C precedence.  lookup resolves identifiers
// and reports false for names that are not integer constants; it may be
// nil.
func EvalConstExpr(text string, lookup func(string) (int64, bool)) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("constexpr: empty expression")
	}
	if lookup == nil {
		lookup = func(string) (int64, bool) { return 0, false }
	}
	parser := newConstExprParser(lookup)
	s := parsec.NewScanner([]byte(text))
	root, s := parser(s)
	if root == nil {
		return 0, fmt.Errorf("constexpr: cannot parse %q", text)
	}
	_, s = s.SkipWS()
	if !s.Endof() {
		return 0, fmt.Errorf("constexpr: unexpected text after expression in %q", text)
	}
	return intValue(root)
}

func newConstExprParser(lookup func(string) (int64, bool)) parsec.Parser {
	nodifyName := func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		term := nodes[0].(*parsec.Terminal)
		v, ok := lookup(term.GetValue())
		if !ok {
			return fmt.Errorf("constexpr: %q is not an integer constant", term.GetValue())
		}
		return v
	}

	number := parsec.And(nodifyNumber,
		parsec.Token(`(?:0[xX][0-9a-fA-F]+|0[bB][01]+|[0-9]+)[uUlL]*`, "NUMBER"))
	name := parsec.And(nodifyName, parsec.Token(`[_A-Za-z][_A-Za-z0-9]*`, "NAME"))

	var expr parsec.Parser // forward declaration allows for recursive parsing
	group := parsec.And(nodifyGroup,
		parsec.Atom("(", "OPENP"), &expr, parsec.Atom(")", "CLOSEP"))
	primary := parsec.OrdChoice(nil, number, name, group)
	unary := parsec.And(nodifyUnary,
		parsec.Kleene(nil, parsec.Token(`[-+~]`, "UNARYOP")), primary)

	mul := binaryChain(unary, parsec.Token(`[*/%]`, "MULOP"))
	add := binaryChain(mul, parsec.Token(`[-+]`, "ADDOP"))
	shift := binaryChain(add, parsec.Token(`(?:<<|>>)`, "SHIFTOP"))
	band := binaryChain(shift, parsec.Atom("&", "BANDOP"))
	bxor := binaryChain(band, parsec.Atom("^", "BXOROP"))
	expr = binaryChain(bxor, parsec.Atom("|", "BOROP"))
	return expr
}

// binaryChain builds one left-associative precedence level:
// operand (op operand)*.
func binaryChain(operand parsec.Parser, op parsec.Parser) parsec.Parser {
	return parsec.And(nodifyChain, operand, parsec.Kleene(nil, parsec.And(nil, op, operand)))
}

func nodifyNumber(nodes []parsec.ParsecNode) parsec.ParsecNode {
	term := nodes[0].(*parsec.Terminal)
	text := strings.TrimRight(term.GetValue(), "uUlL")
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return fmt.Errorf("constexpr: bad integer literal %q", term.GetValue())
	}
	return v
}

func nodifyGroup(nodes []parsec.ParsecNode) parsec.ParsecNode {
	return nodes[1]
}

func nodifyUnary(nodes []parsec.ParsecNode) parsec.ParsecNode {
	v, err := intValue(nodes[1])
	if err != nil {
		return err
	}
	ops, _ := nodes[0].([]parsec.ParsecNode)
	for i := len(ops) - 1; i >= 0; i-- {
		term, ok := ops[i].(*parsec.Terminal)
		if !ok {
			continue
		}
		switch term.GetValue() {
		case "-":
			v = -v
		case "~":
			v = ^v
		}
	}
	return v
}

func nodifyChain(nodes []parsec.ParsecNode) parsec.ParsecNode {
	acc, err := intValue(nodes[0])
	if err != nil {
		return err
	}
	rest, _ := nodes[1].([]parsec.ParsecNode)
	for _, n := range rest {
		pair, ok := n.([]parsec.ParsecNode)
		if !ok || len(pair) != 2 {
			return fmt.Errorf("constexpr: malformed operator chain")
		}
		term, ok := pair[0].(*parsec.Terminal)
		if !ok {
			return fmt.Errorf("constexpr: malformed operator token")
		}
		rhs, err := intValue(pair[1])
		if err != nil {
			return err
		}
		acc, err = applyBinary(acc, term.GetValue(), rhs)
		if err != nil {
			return err
		}
	}
	return acc
}

func intValue(node parsec.ParsecNode) (int64, error) {
	switch v := node.(type) {
	case int64:
		return v, nil
	case error:
		return 0, v
	case []parsec.ParsecNode:
		// OrdChoice with a nil callback leaves a single-element slice.
		if len(v) == 1 {
			return intValue(v[0])
		}
	}
	return 0, fmt.Errorf("constexpr: unexpected node %T", node)
}

func applyBinary(lhs int64, op string, rhs int64) (int64, error) {
	switch op {
	case "*":
		return lhs * rhs, nil
	case "/":
		if rhs == 0 {
			return 0, fmt.Errorf("constexpr: division by zero")
		}
		return lhs / rhs, nil
	case "%":
		if rhs == 0 {
			return 0, fmt.Errorf("constexpr: division by zero")
		}
		return lhs % rhs, nil
	case "+":
		return lhs + rhs, nil
	case "-":
		return lhs - rhs, nil
	case "<<", ">>":
		if rhs < 0 || rhs > 63 {
			return 0, fmt.Errorf("constexpr: shift count %d out of range", rhs)
		}
		if op == "<<" {
			return lhs << uint(rhs), nil
		}
		return lhs >> uint(rhs), nil
	case "&":
		return lhs & rhs, nil
	case "^":
		return lhs ^ rhs, nil
	case "|":
		return lhs | rhs, nil
	}
	return 0, fmt.Errorf("constexpr: unknown operator %q", op)
}

// EvalDefines resolves a header's object-like macros to integer values
// where possible.  Macros may reference other macros in any order; cycles
// and non-integer bodies are skipped.  extern resolves names defined
// outside the header (earlier includes); it may be nil.
func EvalDefines(defines []*Define, extern func(string) (int64, bool)) map[string]int64 {
	byName := make(map[string]*Define, len(defines))
	for _, d := range defines {
		if _, dup := byName[d.Name]; !dup {
			byName[d.Name] = d
		}
	}
	values := make(map[string]int64)
	const (
		visiting = 1
		resolved = 2
		failed   = 3
	)
	state := make(map[string]int)
	var resolve func(name string) (int64, bool)
	resolve = func(name string) (int64, bool) {
		switch state[name] {
		case visiting, failed:
			return 0, false
		case resolved:
			return values[name], true
		}
		d, ok := byName[name]
		if !ok {
			if extern != nil {
				return extern(name)
			}
			return 0, false
		}
		state[name] = visiting
		v, err := EvalConstExpr(d.Body, resolve)
		if err != nil {
			state[name] = failed
			return 0, false
		}
		state[name] = resolved
		values[name] = v
		return v, true
	}
	for _, d := range defines {
		resolve(d.Name)
	}
	return values
}
