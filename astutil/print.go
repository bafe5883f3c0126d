package astutil

import (
	"strings"

	"github.com/jlaustill/c-next-sub006/ast"
	"github.com/jlaustill/c-next-sub006/parser/token"
)

// ExprString renders an expression back to canonical source text.  It is
// the fallback spelling for callers that want expression text when the
// original source bytes are unavailable.
func ExprString(expr ast.Expr) string {
	var sb strings.Builder
	writeExpr(&sb, expr)
	return sb.String()
}

func writeExpr(sb *strings.Builder, expr ast.Expr) {
	switch x := expr.(type) {
	case nil:
	case *ast.Ident:
		sb.WriteString(x.Name)
	case *ast.BasicLit:
		sb.WriteString(x.Text)
	case *ast.SelectorExpr:
		writeExpr(sb, x.X)
		sb.WriteByte('.')
		sb.WriteString(x.Sel)
	case *ast.IndexExpr:
		writeExpr(sb, x.X)
		sb.WriteByte('[')
		writeExpr(sb, x.Index)
		sb.WriteByte(']')
	case *ast.BitIndexExpr:
		writeExpr(sb, x.X)
		sb.WriteByte('[')
		writeExpr(sb, x.Index)
		sb.WriteString(", ")
		writeExpr(sb, x.Width)
		sb.WriteByte(']')
	case *ast.CallExpr:
		writeExpr(sb, x.Fun)
		sb.WriteByte('(')
		for i, arg := range x.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeExpr(sb, arg)
		}
		sb.WriteByte(')')
	case *ast.UnaryExpr:
		sb.WriteString(opString(x.Op))
		writeExpr(sb, x.X)
	case *ast.BinaryExpr:
		writeExpr(sb, x.X)
		sb.WriteByte(' ')
		sb.WriteString(opString(x.Op))
		sb.WriteByte(' ')
		writeExpr(sb, x.Y)
	case *ast.ParenExpr:
		sb.WriteByte('(')
		writeExpr(sb, x.X)
		sb.WriteByte(')')
	case *ast.ArrayLit:
		sb.WriteByte('[')
		for i, el := range x.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeExpr(sb, el)
		}
		sb.WriteByte(']')
	}
}

func opString(typ token.Type) string {
	switch typ {
	case token.PLUS:
		return "+"
	case token.MINUS:
		return "-"
	case token.STAR:
		return "*"
	case token.SLASH:
		return "/"
	case token.PERCENT:
		return "%"
	case token.AMP:
		return "&"
	case token.PIPE:
		return "|"
	case token.CARET:
		return "^"
	case token.TILDE:
		return "~"
	case token.BANG:
		return "!"
	case token.SHL:
		return "<<"
	case token.SHR:
		return ">>"
	case token.LAND:
		return "&&"
	case token.LOR:
		return "||"
	case token.EQ:
		return "=="
	case token.NE:
		return "!="
	case token.LT:
		return "<"
	case token.GT:
		return ">"
	case token.LE:
		return "<="
	case token.GE:
		return ">="
	}
	return typ.String()
}

// TypeString renders a type expression back to source form, including any
// qualifier, path, string capacity, and array dimensions.
func TypeString(typ *ast.TypeExpr) string {
	if typ == nil {
		return ""
	}
	var sb strings.Builder
	if typ.Qualifier != "" {
		sb.WriteString(typ.Qualifier)
		sb.WriteByte('.')
	}
	for _, seg := range typ.Path {
		sb.WriteString(seg)
		sb.WriteByte('.')
	}
	sb.WriteString(typ.Name)
	if typ.StringCap != nil {
		sb.WriteByte('<')
		writeExpr(&sb, typ.StringCap)
		sb.WriteByte('>')
	}
	for _, dim := range typ.Dims {
		sb.WriteByte('[')
		if !dim.Empty {
			sb.WriteString(dim.Text)
		}
		sb.WriteByte(']')
	}
	return sb.String()
}
