// Package ide presents resolved symbols to editor-facing consumers.  The
// outline view keys symbols by dot path ("Motor.speed") with parent
// links derived from the scope chain; conversions to LSP protocol types
// serve an external language-server front door.  Views are derived on
// demand from the symbol list and hold no state of their own.
package ide

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jlaustill/c-next-sub006/analysis"
)

// Item is one outline entry.
type Item struct {
	// ID is the dot-path identifier, e.g. "Motor.speed".
	ID string `json:"id"`
	// Name is the bare member name.
	Name string `json:"name"`
	// Container is the ID of the enclosing item, empty at top level.
	Container string `json:"container,omitempty"`
	Kind      string `json:"kind"`
	Detail    string `json:"detail,omitempty"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Lang      string `json:"lang"`
	Exported  bool   `json:"exported"`
}

// BuildOutline derives outline items from resolved symbols, in symbol
// order.  Enum members, bitmap fields, and register members nest under
// their containing type; everything else nests under its owning scope.
func BuildOutline(symbols []analysis.Symbol) []Item {
	// Containers first, so member links can point at their IDs
	// regardless of emission order.
	ids := make(map[string]string, len(symbols))
	for _, sym := range symbols {
		if memberContainer(sym) != "" {
			continue
		}
		id, _, _ := scopePath(sym)
		ids[sym.Name()] = id
	}

	items := make([]Item, 0, len(symbols))
	for _, sym := range symbols {
		var item Item
		if container := memberContainer(sym); container != "" {
			item = memberItem(sym, container, ids)
		} else {
			id, name, parent := scopePath(sym)
			item = Item{ID: id, Name: name, Container: parent}
		}
		item.Kind = sym.Kind()
		item.Detail = detail(sym)
		item.File = sym.File()
		item.Line = sym.Line()
		item.Lang = sym.Language().String()
		item.Exported = sym.Exported()
		items = append(items, item)
	}
	return items
}

// memberContainer returns the mangled name of the symbol's containing
// type, or "" for symbols that nest under their scope.
func memberContainer(sym analysis.Symbol) string {
	switch m := sym.(type) {
	case *analysis.EnumMember:
		return m.EnumName
	case *analysis.BitmapField:
		return m.BitmapName
	case *analysis.RegisterMember:
		return m.RegisterName
	}
	return ""
}

// scopePath derives a symbol's dot path from its owning scope.
func scopePath(sym analysis.Symbol) (id, name, container string) {
	name = sym.Name()
	owner := sym.Scope()
	if owner == nil || owner.IsGlobal() {
		return name, name, ""
	}
	name = strings.TrimPrefix(name, owner.Name+analysis.Separator)
	return owner.Name + "." + name, name, owner.Name
}

func memberItem(sym analysis.Symbol, containerMangled string, ids map[string]string) Item {
	name := strings.TrimPrefix(sym.Name(), containerMangled+analysis.Separator)
	if name == sym.Name() {
		// Enum members mangle under the scope, not under the enum.
		if owner := sym.Scope(); owner != nil && !owner.IsGlobal() {
			name = strings.TrimPrefix(name, owner.Name+analysis.Separator)
		}
	}
	containerID, ok := ids[containerMangled]
	if !ok {
		containerID = containerMangled
	}
	return Item{ID: containerID + "." + name, Name: name, Container: containerID}
}

func detail(sym analysis.Symbol) string {
	switch s := sym.(type) {
	case *analysis.Function:
		return s.Signature
	case *analysis.Variable:
		return s.Type.Name
	case *analysis.RegisterMember:
		return s.Type.Name
	case *analysis.Register:
		return s.Address
	case *analysis.Bitmap:
		return fmt.Sprintf("%d bits", s.Width)
	}
	return ""
}

// WriteJSON writes items as an indented JSON array.
func WriteJSON(w io.Writer, items []Item) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}
