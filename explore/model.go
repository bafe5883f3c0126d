package explore

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jlaustill/c-next-sub006/analysis"
	"github.com/jlaustill/c-next-sub006/driver"
	"github.com/jlaustill/c-next-sub006/ide"
)

// model indexes a build result for interactive lookup.  Symbols key by
// outline dot path and by mangled name, so "Motor.speed" and
// "Motor_speed" reach the same entry.
type model struct {
	res    *driver.Result
	items  []ide.Item
	syms   map[string]analysis.Symbol
	byName map[string]string // mangled name -> outline ID
}

func newModel(res *driver.Result) *model {
	symbols := res.Symbols()
	// BuildOutline yields one item per symbol, in order.
	items := ide.BuildOutline(symbols)
	m := &model{
		res:    res,
		items:  items,
		syms:   make(map[string]analysis.Symbol, len(items)),
		byName: make(map[string]string, len(items)),
	}
	for i, it := range items {
		m.syms[it.ID] = symbols[i]
		m.byName[symbols[i].Name()] = it.ID
	}
	return m
}

func (m *model) eval(w io.Writer, line string) {
	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	switch fields[0] {
	case "help":
		m.help(w)
	case "symbols":
		m.listSymbols(w, arg)
	case "consts":
		m.listConsts(w, arg)
	case "scopes":
		m.listScopes(w)
	case "passes":
		m.listPasses(w, arg)
	default:
		m.show(w, fields[0])
	}
}

func (m *model) help(w io.Writer) {
	fmt.Fprintln(w, `type a symbol path to inspect it: Motor.setSpeed
  symbols [prefix]   list symbols
  consts [prefix]    list constant values
  scopes             list scopes
  passes [function]  list pass-by-value decisions
  quit               leave`)
}

// show prints one symbol looked up by dot path or mangled name.
func (m *model) show(w io.Writer, path string) {
	id := path
	sym, ok := m.syms[id]
	if !ok {
		if mapped, found := m.byName[path]; found {
			id = mapped
			sym = m.syms[id]
			ok = true
		}
	}
	if !ok {
		fmt.Fprintf(w, "unknown symbol %q (try: symbols)\n", path)
		return
	}

	where := ""
	if sym.File() != "" && sym.Line() > 0 {
		where = fmt.Sprintf("  %s:%d", sym.File(), sym.Line())
	}
	fmt.Fprintf(w, "%s  %s%s\n", id, sym.Kind(), where)
	m.describe(w, sym)
}

func (m *model) describe(w io.Writer, sym analysis.Symbol) {
	switch s := sym.(type) {
	case *analysis.Function:
		fmt.Fprintf(w, "  %s\n", s.Signature)
		for _, p := range s.Params {
			decision := "by-reference"
			if m.res.PassByValue.PassByValue(s.Name(), p.Name) {
				decision = "by-value"
			}
			fmt.Fprintf(w, "  %s %s %s\n", p.Name, typeText(p.Type), decision)
		}
	case *analysis.Variable:
		qual := ""
		if s.Const {
			qual = "const "
		}
		if s.Atomic {
			qual += "atomic "
		}
		fmt.Fprintf(w, "  %s%s", qual, typeText(s.Type))
		if s.InitText != "" {
			fmt.Fprintf(w, " <- %s", s.InitText)
		}
		fmt.Fprintln(w)
		if value, ok := m.res.Consts[s.Name()]; ok {
			fmt.Fprintf(w, "  value %d\n", value)
		}
	case *analysis.ScopeSymbol:
		if scope, ok := m.res.Registry.Scope(s.Name()); ok {
			for _, member := range scope.Members() {
				fmt.Fprintf(w, "  %s\n", member)
			}
		}
	case *analysis.Struct:
		if s.Opaque {
			fmt.Fprintln(w, "  opaque")
			return
		}
		for _, f := range s.Fields {
			fmt.Fprintf(w, "  %s %s\n", f.Name, typeText(f.Type))
		}
	case *analysis.Enum:
		for _, member := range s.Members {
			fmt.Fprintf(w, "  %s\n", member.Name())
		}
	case *analysis.EnumMember:
		if value, ok := m.res.Consts[s.Name()]; ok {
			fmt.Fprintf(w, "  value %d\n", value)
		}
	case *analysis.Bitmap:
		fmt.Fprintf(w, "  %d bits\n", s.Width)
		for _, f := range s.Fields {
			fmt.Fprintf(w, "  %s bits %d..%d\n", f.Name(), f.Offset, f.Offset+f.Bits-1)
		}
	case *analysis.BitmapField:
		fmt.Fprintf(w, "  bits %d..%d of %s\n", s.Offset, s.Offset+s.Bits-1, s.BitmapName)
	case *analysis.Register:
		fmt.Fprintf(w, "  %s @ %s\n", typeText(s.Type), s.Address)
		for _, member := range s.Members {
			fmt.Fprintf(w, "  %s %s %s\n", member.Name(), typeText(member.Type), member.Access)
		}
	case *analysis.RegisterMember:
		fmt.Fprintf(w, "  %s %s of %s\n", typeText(s.Type), s.Access, s.RegisterName)
	}
}

func (m *model) listSymbols(w io.Writer, prefix string) {
	for _, it := range m.items {
		if prefix != "" && !strings.HasPrefix(it.ID, prefix) {
			continue
		}
		fmt.Fprintf(w, "%s  %s\n", it.ID, it.Kind)
	}
}

func (m *model) listConsts(w io.Writer, prefix string) {
	names := make([]string, 0, len(m.res.Consts))
	for name := range m.res.Consts {
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s %d\n", name, m.res.Consts[name])
	}
}

func (m *model) listScopes(w io.Writer) {
	for _, name := range m.res.Registry.ScopeNames() {
		fmt.Fprintln(w, name)
	}
}

func (m *model) listPasses(w io.Writer, fn string) {
	fns := make([]string, 0, len(m.res.PassByValue))
	for name := range m.res.PassByValue {
		if fn != "" && name != fn {
			continue
		}
		fns = append(fns, name)
	}
	sort.Strings(fns)
	for _, name := range fns {
		params := make([]string, 0, len(m.res.PassByValue[name]))
		for param := range m.res.PassByValue[name] {
			params = append(params, param)
		}
		sort.Strings(params)
		for _, param := range params {
			decision := "by-reference"
			if m.res.PassByValue[name][param] {
				decision = "by-value"
			}
			fmt.Fprintf(w, "%s %s %s\n", name, param, decision)
		}
	}
}

func typeText(t analysis.TypeDesc) string {
	if t.IsArray() {
		elem := ""
		if t.Elem != nil {
			elem = typeText(*t.Elem)
		}
		if t.DimText != "" {
			return fmt.Sprintf("%s[%s]", elem, t.DimText)
		}
		return elem + "[]"
	}
	return t.Name
}
