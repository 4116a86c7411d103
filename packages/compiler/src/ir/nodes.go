package ir

import (
	"github.com/malthe/chameleon-sub000/packages/compiler/src/ml_parser"
)

// Node is a node of the intermediate representation produced by the program
// builder. The set of node types is closed.
type Node interface {
	node()
}

// Value is an operand of an IR node. The set of value types is closed.
type Value interface {
	value()
}

// Literal is a constant string value
type Literal struct {
	Text string
}

// Expr is an expression to evaluate. Pointer identity matters: a Cache node
// stores the result of an Expr for the IsDefault and Content nodes that
// refer to the same pointer.
type Expr struct {
	Source string
	Token  ml_parser.Token
}

// NewExpr creates a new Expr from the token holding its source
func NewExpr(tok ml_parser.Token) *Expr {
	return &Expr{Source: tok.Value, Token: tok}
}

// Part is one piece of an interpolated string: either literal text or an
// expression
type Part struct {
	Literal string
	Expr    *Expr
}

// Interpolated is a string value with `${...}` expressions
type Interpolated struct {
	Token ml_parser.Token
	Parts []Part
}

// IsDefault tests whether the cached result of Expr is the default marker
type IsDefault struct {
	Expr *Expr
}

// Not negates the truth of a value
type Not struct {
	Value Value
}

func (*Literal) value()      {}
func (*Expr) value()         {}
func (*Interpolated) value() {}
func (*IsDefault) value()    {}
func (*Not) value()          {}

// Sequence renders its nodes in order
type Sequence struct {
	Nodes []Node
}

// Text is static markup written as it is
type Text struct {
	Value string
}

// Interpolation is character data with `${...}` expressions. Literal parts
// are written as they are; expression results are escaped unless they are
// markup.
type Interpolation struct {
	Token ml_parser.Token
	Parts []Part
}

// Element renders a start tag, a body and an end tag. Start and End are
// nil when the tags are omitted.
type Element struct {
	Name  string
	Start Node
	Body  Node
	End   Node
}

// StartTag is a start tag with static and dynamic attributes
type StartTag struct {
	Prefix     string
	Name       string
	Attributes []Node
	Suffix     string
}

// Attribute is an attribute whose value is computed at render time. When
// the value is nil or false the attribute is dropped; the default marker
// restores the value written in the template.
type Attribute struct {
	Name      string
	Value     Value
	Space     string
	Eq        string
	Quote     string
	Default   *string
	Boolean   bool
	Translate bool
	Msgid     string
}

// AttributeMap writes every entry of a mapping returned by Expr as an
// attribute, in key order. Names listed in Exclude are written elsewhere.
type AttributeMap struct {
	Expr    *Expr
	Exclude []string
}

// Condition renders Then when Test is true and Else otherwise. Either may
// be nil.
type Condition struct {
	Test Value
	Then Node
	Else Node
}

// Repeat renders Body once per item of Expr, binding Names to the item.
// Whitespace is written between iterations.
type Repeat struct {
	Names      []string
	Expr       *Expr
	Body       Node
	Whitespace string
}

// Assignment binds the result of Expr to Names. More than one name unpacks
// a sequence.
type Assignment struct {
	Names  []string
	Expr   *Expr
	Global bool
}

// Define evaluates its assignments in order and renders Body with the
// bindings in place
type Define struct {
	Assignments []*Assignment
	Body        Node
}

// Cache evaluates Exprs once and makes their results available to the
// nodes of Body that refer to the same Expr
type Cache struct {
	Exprs []*Expr
	Body  Node
}

// Content writes the value of Expr as element content. Structure values are
// written without escaping.
type Content struct {
	Expr      *Expr
	Structure bool
	Translate bool
}

// Translate renders Body as a message and passes it through the
// translation hook. An empty Msgid uses the normalized body text.
type Translate struct {
	Msgid string
	Body  Node
}

// Name renders Body as a named sub-message of the enclosing translation
type Name struct {
	Name string
	Body Node
}

// Domain sets the translation domain of Body
type Domain struct {
	Name string
	Body Node
}

// OnError renders Body; if that fails the partial output is discarded, the
// error is bound to `error` and Fallback is rendered instead.
type OnError struct {
	Body     Node
	Fallback Node
}

// Macro is a reusable body registered under Name
type Macro struct {
	Name string
	Body Node
}

// UseInternalMacro includes a macro of the same template
type UseInternalMacro struct {
	Name   string
	Token  ml_parser.Token
	Slots  []*FillSlot
	Extend bool
}

// UseExternalMacro includes the macro returned by Expr
type UseExternalMacro struct {
	Expr   *Expr
	Slots  []*FillSlot
	Extend bool
}

// FillSlot supplies the content of a slot to a macro call
type FillSlot struct {
	Name string
	Body Node
}

// DefineSlot renders the caller's fill for Name, or Body when the caller
// supplies none
type DefineSlot struct {
	Name string
	Body Node
}

// Switch evaluates Expr once for the Case nodes of Body carrying its ID
type Switch struct {
	ID   int
	Expr *Expr
	Body Node
}

// Case renders Body when Value equals the value of its switch and no
// earlier case of the switch has matched. A nil Value matches anything.
type Case struct {
	Switch int
	Value  *Expr
	Body   Node
}

// Omitted renders nothing
type Omitted struct{}

// Module is the root of a compiled template
type Module struct {
	Filename string
	Source   string
	Body     Node
	Macros   map[string]*Macro
	// MacroNames lists the macros in document order
	MacroNames []string
}

func (*Sequence) node()         {}
func (*Text) node()             {}
func (*Interpolation) node()    {}
func (*Element) node()          {}
func (*StartTag) node()         {}
func (*Attribute) node()        {}
func (*AttributeMap) node()     {}
func (*Condition) node()        {}
func (*Repeat) node()           {}
func (*Define) node()           {}
func (*Cache) node()            {}
func (*Content) node()          {}
func (*Translate) node()        {}
func (*Name) node()             {}
func (*Domain) node()           {}
func (*OnError) node()          {}
func (*Macro) node()            {}
func (*UseInternalMacro) node() {}
func (*UseExternalMacro) node() {}
func (*FillSlot) node()         {}
func (*DefineSlot) node()       {}
func (*Switch) node()           {}
func (*Case) node()             {}
func (*Omitted) node()          {}
func (*Module) node()           {}

// Walk calls fn for node and, depth-first, for every node below it. It
// stops descending below a node when fn returns false.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for _, child := range Children(node) {
		Walk(child, fn)
	}
}

// Children returns the direct child nodes of node
func Children(node Node) []Node {
	switch n := node.(type) {
	case *Sequence:
		return n.Nodes
	case *Element:
		return nonNil(n.Start, n.Body, n.End)
	case *StartTag:
		return n.Attributes
	case *Condition:
		return nonNil(n.Then, n.Else)
	case *Repeat:
		return nonNil(n.Body)
	case *Define:
		return nonNil(n.Body)
	case *Cache:
		return nonNil(n.Body)
	case *Translate:
		return nonNil(n.Body)
	case *Name:
		return nonNil(n.Body)
	case *Domain:
		return nonNil(n.Body)
	case *OnError:
		return nonNil(n.Body, n.Fallback)
	case *Macro:
		return nonNil(n.Body)
	case *UseInternalMacro:
		return fillSlots(n.Slots)
	case *UseExternalMacro:
		return fillSlots(n.Slots)
	case *FillSlot:
		return nonNil(n.Body)
	case *DefineSlot:
		return nonNil(n.Body)
	case *Switch:
		return nonNil(n.Body)
	case *Case:
		return nonNil(n.Body)
	case *Module:
		return nonNil(n.Body)
	}
	return nil
}

func nonNil(nodes ...Node) []Node {
	result := make([]Node, 0, len(nodes))
	for _, node := range nodes {
		if node != nil {
			result = append(result, node)
		}
	}
	return result
}

func fillSlots(slots []*FillSlot) []Node {
	result := make([]Node, len(slots))
	for i, slot := range slots {
		result[i] = slot
	}
	return result
}
