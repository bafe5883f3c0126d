package ide

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DocumentSymbols converts the outline of one file into hierarchical LSP
// document symbols.  Only items located in file are included; an item
// whose container is missing from the file surfaces at top level.
func DocumentSymbols(items []Item, file string) []protocol.DocumentSymbol {
	var kept []Item
	present := make(map[string]bool)
	for _, it := range items {
		if it.File == file {
			kept = append(kept, it)
			present[it.ID] = true
		}
	}

	children := make(map[string][]Item)
	var roots []Item
	for _, it := range kept {
		if it.Container != "" && it.Container != it.ID && present[it.Container] {
			children[it.Container] = append(children[it.Container], it)
			continue
		}
		roots = append(roots, it)
	}

	var build func(it Item) protocol.DocumentSymbol
	build = func(it Item) protocol.DocumentSymbol {
		r := itemRange(it)
		ds := protocol.DocumentSymbol{
			Name:           it.Name,
			Kind:           mapSymbolKind(it.Kind),
			Range:          r,
			SelectionRange: r,
		}
		if it.Detail != "" {
			detail := it.Detail
			ds.Detail = &detail
		}
		for _, c := range children[it.ID] {
			ds.Children = append(ds.Children, build(c))
		}
		return ds
	}

	out := make([]protocol.DocumentSymbol, 0, len(roots))
	for _, root := range roots {
		out = append(out, build(root))
	}
	return out
}

// SymbolInformation converts outline items into flat LSP entries matching
// the query.  An empty query matches everything (per LSP spec: empty
// string requests all symbols).
func SymbolInformation(items []Item, query string) []protocol.SymbolInformation {
	lower := strings.ToLower(query)
	var out []protocol.SymbolInformation
	for _, it := range items {
		if !matchesQuery(it.ID, lower) {
			continue
		}
		si := protocol.SymbolInformation{
			Name: it.Name,
			Kind: mapSymbolKind(it.Kind),
			Location: protocol.Location{
				URI:   pathToURI(it.File),
				Range: itemRange(it),
			},
		}
		if it.Container != "" {
			container := it.Container
			si.ContainerName = &container
		}
		out = append(out, si)
	}
	return out
}

// matchesQuery performs case-insensitive substring matching.
func matchesQuery(name, lowerQuery string) bool {
	if lowerQuery == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), lowerQuery)
}

// itemRange builds a single-line range covering the item name.  Outline
// items carry no column, so ranges anchor at the line start.
func itemRange(it Item) protocol.Range {
	line := it.Line
	if line > 0 {
		line--
	}
	start := protocol.Position{Line: safeUint(line)}
	return protocol.Range{
		Start: start,
		End:   protocol.Position{Line: start.Line, Character: safeUint(len(it.Name))},
	}
}

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}

func mapSymbolKind(kind string) protocol.SymbolKind {
	switch kind {
	case "function":
		return protocol.SymbolKindFunction
	case "struct":
		return protocol.SymbolKindStruct
	case "enum":
		return protocol.SymbolKindEnum
	case "enum-member":
		return protocol.SymbolKindEnumMember
	case "bitmap":
		return protocol.SymbolKindStruct
	case "bitmap-field":
		return protocol.SymbolKindField
	case "register":
		return protocol.SymbolKindObject
	case "register-member":
		return protocol.SymbolKindProperty
	case "scope":
		return protocol.SymbolKindNamespace
	default:
		return protocol.SymbolKindVariable
	}
}
