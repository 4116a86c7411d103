package ir

import (
	"fmt"
	"strings"
)

// Dump returns an indented outline of node, one line per node. Sequences
// are flattened into their parent.
func Dump(node Node) string {
	d := &dumper{}
	d.node(node, 0)
	return d.sb.String()
}

type dumper struct {
	sb strings.Builder
}

func (d *dumper) line(depth int, format string, args ...any) {
	d.sb.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(&d.sb, format, args...)
	d.sb.WriteByte('\n')
}

func (d *dumper) children(depth int, nodes ...Node) {
	for _, node := range nodes {
		d.node(node, depth)
	}
}

func (d *dumper) node(node Node, depth int) {
	switch n := node.(type) {
	case nil:
	case *Sequence:
		d.children(depth, n.Nodes...)
	case *Text:
		d.line(depth, "Text %q", n.Value)
	case *Interpolation:
		d.line(depth, "Interpolation %q", n.Token.Value)
	case *Element:
		d.line(depth, "Element %s", n.Name)
		d.children(depth+1, n.Start, n.Body, n.End)
	case *StartTag:
		d.line(depth, "StartTag %q %q", n.Prefix+n.Name, n.Suffix)
		d.children(depth+1, n.Attributes...)
	case *Attribute:
		flags := ""
		if n.Default != nil {
			flags += fmt.Sprintf(" default=%q", *n.Default)
		}
		if n.Translate {
			flags += fmt.Sprintf(" translate=%q", n.Msgid)
		}
		d.line(depth, "Attribute %s %s%s", n.Name, FormatValue(n.Value), flags)
	case *AttributeMap:
		d.line(depth, "AttributeMap %s exclude=%v", FormatValue(n.Expr), n.Exclude)
	case *Condition:
		d.line(depth, "Condition %s", FormatValue(n.Test))
		d.children(depth+1, n.Then)
		if n.Else != nil {
			d.line(depth, "Else")
			d.children(depth+1, n.Else)
		}
	case *Repeat:
		d.line(depth, "Repeat %s %s", strings.Join(n.Names, ","), FormatValue(n.Expr))
		d.children(depth+1, n.Body)
	case *Define:
		clauses := make([]string, len(n.Assignments))
		for i, a := range n.Assignments {
			clauses[i] = strings.Join(a.Names, ",") + "=" + FormatValue(a.Expr)
			if a.Global {
				clauses[i] = "global " + clauses[i]
			}
		}
		d.line(depth, "Define %s", strings.Join(clauses, "; "))
		d.children(depth+1, n.Body)
	case *Cache:
		exprs := make([]string, len(n.Exprs))
		for i, expr := range n.Exprs {
			exprs[i] = FormatValue(expr)
		}
		d.line(depth, "Cache %s", strings.Join(exprs, " "))
		d.children(depth+1, n.Body)
	case *Content:
		flags := ""
		if n.Structure {
			flags += " structure"
		}
		if n.Translate {
			flags += " translate"
		}
		d.line(depth, "Content %s%s", FormatValue(n.Expr), flags)
	case *Translate:
		d.line(depth, "Translate %q", n.Msgid)
		d.children(depth+1, n.Body)
	case *Name:
		d.line(depth, "Name %s", n.Name)
		d.children(depth+1, n.Body)
	case *Domain:
		d.line(depth, "Domain %s", n.Name)
		d.children(depth+1, n.Body)
	case *OnError:
		d.line(depth, "OnError")
		d.children(depth+1, n.Body)
		d.line(depth, "Fallback")
		d.children(depth+1, n.Fallback)
	case *Macro:
		d.line(depth, "Macro %s", n.Name)
		d.children(depth+1, n.Body)
	case *UseInternalMacro:
		d.line(depth, "UseInternalMacro %s extend=%t", n.Name, n.Extend)
		d.children(depth+1, fillSlots(n.Slots)...)
	case *UseExternalMacro:
		d.line(depth, "UseExternalMacro %s extend=%t", FormatValue(n.Expr), n.Extend)
		d.children(depth+1, fillSlots(n.Slots)...)
	case *FillSlot:
		d.line(depth, "FillSlot %s", n.Name)
		d.children(depth+1, n.Body)
	case *DefineSlot:
		d.line(depth, "DefineSlot %s", n.Name)
		d.children(depth+1, n.Body)
	case *Switch:
		d.line(depth, "Switch %d %s", n.ID, FormatValue(n.Expr))
		d.children(depth+1, n.Body)
	case *Case:
		d.line(depth, "Case %d %s", n.Switch, FormatValue(n.Value))
		d.children(depth+1, n.Body)
	case *Omitted:
		d.line(depth, "Omitted")
	case *Module:
		d.line(depth, "Module %s", n.Filename)
		d.children(depth+1, n.Body)
	default:
		d.line(depth, "%T", node)
	}
}

// FormatValue returns a short textual form of a value
func FormatValue(value Value) string {
	switch v := value.(type) {
	case *Literal:
		return fmt.Sprintf("%q", v.Text)
	case *Expr:
		if v == nil {
			return "<nil>"
		}
		return "expr(" + v.Source + ")"
	case *Interpolated:
		return fmt.Sprintf("interpolated(%q)", v.Token.Value)
	case *IsDefault:
		return "is-default(" + v.Expr.Source + ")"
	case *Not:
		return "not(" + FormatValue(v.Value) + ")"
	}
	return fmt.Sprintf("%T", value)
}
