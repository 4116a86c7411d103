package ml_parser

import (
	"strings"
)

// Node represents a node in the element tree
type Node interface {
	Visit(visitor Visitor, context any) any
	// Source returns the markup the node was parsed from
	Source() string
}

// Visitor is the interface for visiting element tree nodes
type Visitor interface {
	VisitText(text *Text, context any) any
	VisitElement(element *Element, context any) any
}

// Text is any token that is not an element tag: character data, comments,
// CDATA sections, declarations and processing instructions
type Text struct {
	Token Token
}

// NewText creates a new Text
func NewText(token Token) *Text {
	return &Text{Token: token}
}

// Visit implements Node
func (t *Text) Visit(visitor Visitor, context any) any {
	return visitor.VisitText(t, context)
}

// Source implements Node
func (t *Text) Source() string {
	return t.Token.Value
}

// Attribute is a raw attribute with its resolved name
type Attribute struct {
	Key Key
	Raw *RawAttribute
}

// Element is a matched start tag with its children and end tag. End is nil
// for self-closing and void elements.
type Element struct {
	Start     *Tag
	End       *Tag
	Children  []Node
	Namespace string
	Local     string
	Attrs     []*Attribute
}

// Visit implements Node
func (e *Element) Visit(visitor Visitor, context any) any {
	return visitor.VisitElement(e, context)
}

// Source implements Node
func (e *Element) Source() string {
	var sb strings.Builder
	sb.WriteString(e.Start.String())
	for _, child := range e.Children {
		sb.WriteString(child.Source())
	}
	if e.End != nil {
		sb.WriteString(e.End.String())
	}
	return sb.String()
}

// Name returns the element name as written
func (e *Element) Name() string {
	return e.Start.Name.Value
}

// Attr returns the attribute with the given key
func (e *Element) Attr(key Key) (*RawAttribute, bool) {
	for _, attr := range e.Attrs {
		if attr.Key == key {
			return attr.Raw, true
		}
	}
	return nil, false
}

// IsSelfClosing checks if the element was written as an empty tag
func (e *Element) IsSelfClosing() bool {
	return e.Start.IsEmpty()
}

// Serialize reconstructs the markup of a node list
func Serialize(nodes []Node) string {
	var sb strings.Builder
	for _, node := range nodes {
		sb.WriteString(node.Source())
	}
	return sb.String()
}

// RecursiveVisitor visits every node of a tree depth-first
type RecursiveVisitor struct {
	Text    func(text *Text)
	Element func(element *Element)
}

// VisitText implements Visitor
func (v *RecursiveVisitor) VisitText(text *Text, context any) any {
	if v.Text != nil {
		v.Text(text)
	}
	return nil
}

// VisitElement implements Visitor
func (v *RecursiveVisitor) VisitElement(element *Element, context any) any {
	if v.Element != nil {
		v.Element(element)
	}
	VisitAll(v, element.Children, context)
	return nil
}

// VisitAll visits all nodes with the given visitor
func VisitAll(visitor Visitor, nodes []Node, context any) []any {
	result := make([]any, 0, len(nodes))
	for _, node := range nodes {
		if r := node.Visit(visitor, context); r != nil {
			result = append(result, r)
		}
	}
	return result
}
