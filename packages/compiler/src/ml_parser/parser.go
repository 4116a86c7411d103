package ml_parser

import (
	"github.com/malthe/chameleon-sub000/packages/compiler/src/util"
)

// ParseSource tokenizes and parses source into an element tree
func ParseSource(source, filename string) ([]Node, error) {
	return Parse(Tokenize(source, filename))
}

// Parse builds an element tree from tokens
func Parse(tokens []Token) ([]Node, error) {
	tb := NewTreeBuilder(tokens)
	if err := tb.Build(); err != nil {
		return nil, err
	}
	return tb.RootNodes(), nil
}

type container struct {
	element    *Element
	pos        int
	namespaces map[string]string
}

// TreeBuilder matches start and end tags and resolves namespaces. Nodes are
// collected in one flat list; closing an element moves everything after its
// start position into its children. Open void elements that are skipped by
// an end tag, and any element still open at the end of input, are simply
// forgotten, leaving their followers as siblings.
type TreeBuilder struct {
	tokens         []Token
	containerStack []container
	namespaces     map[string]string
	items          []Node
}

// NewTreeBuilder creates a new TreeBuilder
func NewTreeBuilder(tokens []Token) *TreeBuilder {
	return &TreeBuilder{
		tokens:     tokens,
		namespaces: DefaultNamespaces,
	}
}

// RootNodes returns the top-level nodes
func (tb *TreeBuilder) RootNodes() []Node {
	return tb.items
}

// Build consumes all tokens
func (tb *TreeBuilder) Build() error {
	for _, tok := range tb.tokens {
		var err error
		switch tok.Kind {
		case TokenKindStartTag, TokenKindEmptyTag:
			err = tb.consumeStartTag(tok)
		case TokenKindEndTag:
			err = tb.consumeEndTag(tok)
		default:
			tb.items = append(tb.items, NewText(tok))
		}
		if err != nil {
			return err
		}
	}
	tb.containerStack = nil
	return nil
}

func (tb *TreeBuilder) consumeStartTag(tok Token) error {
	tag, ok := ParseTag(tok)
	if !ok {
		tb.items = append(tb.items, NewText(tok))
		return nil
	}

	namespaces := tb.foldNamespaces(tag)
	element := &Element{Start: tag}
	element.Namespace, element.Local = resolveName(namespaces, tag.Name.Value, namespaces[""])
	for _, raw := range tag.Attrs {
		element.Attrs = append(element.Attrs, &Attribute{
			Key: resolveAttribute(namespaces, raw.Name.Value, element.Namespace),
			Raw: raw,
		})
	}

	tb.items = append(tb.items, element)
	if tok.Kind == TokenKindEmptyTag {
		return nil
	}
	tb.containerStack = append(tb.containerStack, container{
		element:    element,
		pos:        len(tb.items) - 1,
		namespaces: tb.namespaces,
	})
	tb.namespaces = namespaces
	return nil
}

func (tb *TreeBuilder) consumeEndTag(tok Token) error {
	tag, ok := ParseTag(tok)
	if !ok {
		tb.items = append(tb.items, NewText(tok))
		return nil
	}
	name := tag.Name.Value
	for i := len(tb.containerStack) - 1; i >= 0; i-- {
		open := tb.containerStack[i]
		if open.element.Name() == name {
			open.element.End = tag
			tb.popContainer(i)
			return nil
		}
		if !IsVoidElement(open.element.Name()) {
			break
		}
	}
	return util.NewParseError(tok.Span(), "Unexpected end tag")
}

// popContainer closes the container at index along with the void elements
// left open above it
func (tb *TreeBuilder) popContainer(index int) {
	open := tb.containerStack[index]
	open.element.Children = append([]Node(nil), tb.items[open.pos+1:]...)
	tb.items = tb.items[:open.pos+1]
	tb.namespaces = open.namespaces
	tb.containerStack = tb.containerStack[:index]
}

// foldNamespaces returns the bindings in effect for the tag, including the
// declarations it makes itself
func (tb *TreeBuilder) foldNamespaces(tag *Tag) map[string]string {
	namespaces := tb.namespaces
	copied := false
	for _, attr := range tag.Attrs {
		prefix, local := SplitNsName(attr.Name.Value)
		var bound string
		switch {
		case prefix == "" && local == "xmlns":
			bound = ""
		case prefix == "xmlns":
			bound = local
		default:
			continue
		}
		if !copied {
			namespaces = make(map[string]string, len(tb.namespaces)+1)
			for k, v := range tb.namespaces {
				namespaces[k] = v
			}
			copied = true
		}
		namespaces[bound] = attr.Value.Value
	}
	return namespaces
}

func resolveName(namespaces map[string]string, name, fallback string) (string, string) {
	prefix, local := SplitNsName(name)
	if prefix == "" {
		return fallback, name
	}
	if ns, ok := namespaces[prefix]; ok {
		return ns, local
	}
	return "", name
}

func resolveAttribute(namespaces map[string]string, name, elementNamespace string) Key {
	prefix, local := SplitNsName(name)
	switch {
	case prefix == "" && name == "xmlns":
		return Key{Namespace: XMLNSNamespace, Local: ""}
	case prefix == "" && IsDirectiveNamespace(elementNamespace):
		return Key{Namespace: elementNamespace, Local: name}
	case prefix == "":
		return Key{Local: name}
	}
	if ns, ok := namespaces[prefix]; ok {
		return Key{Namespace: ns, Local: local}
	}
	return Key{Local: name}
}
