package ml_parser

import (
	"strings"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/core"
	"golang.org/x/net/html/atom"
)

// Well-known namespace URIs
const (
	XMLNamespace   = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespace = "http://www.w3.org/2000/xmlns/"
	TALNamespace   = "http://xml.zope.org/namespaces/tal"
	METALNamespace = "http://xml.zope.org/namespaces/metal"
	I18NNamespace  = "http://xml.zope.org/namespaces/i18n"
)

// DefaultNamespaces are the prefix bindings in effect at the document root
var DefaultNamespaces = map[string]string{
	"xml":   XMLNamespace,
	"xmlns": XMLNSNamespace,
	"tal":   TALNamespace,
	"metal": METALNamespace,
	"i18n":  I18NNamespace,
}

// IsDirectiveNamespace checks if a namespace carries template directives
func IsDirectiveNamespace(ns string) bool {
	return ns == TALNamespace || ns == METALNamespace || ns == I18NNamespace
}

// Key is a namespace-qualified name
type Key struct {
	Namespace string
	Local     string
}

// RawAttribute is an attribute exactly as written. Joining Space, Name, Eq,
// Quote, Value and Quote again reproduces the source text.
type RawAttribute struct {
	Space string
	Name  Token
	Eq    string
	Quote string
	Value Token
}

// HasValue reports whether the attribute was written with `=`
func (a *RawAttribute) HasValue() bool {
	return a.Eq != ""
}

// String returns the attribute source text
func (a *RawAttribute) String() string {
	return a.Space + a.Name.Value + a.Eq + a.Quote + a.Value.Value + a.Quote
}

// Tag is a start, empty or end tag split into its parts
type Tag struct {
	Token  Token
	Prefix string
	Name   Token
	Attrs  []*RawAttribute
	Suffix string
}

// String returns the tag source text
func (t *Tag) String() string {
	var sb strings.Builder
	sb.WriteString(t.Prefix)
	sb.WriteString(t.Name.Value)
	for _, attr := range t.Attrs {
		sb.WriteString(attr.String())
	}
	sb.WriteString(t.Suffix)
	return sb.String()
}

// IsEmpty checks if the tag closes itself
func (t *Tag) IsEmpty() bool {
	return strings.HasSuffix(t.Suffix, "/>")
}

// ParseTag splits a tag token into its parts. It returns false when the token
// is not a well-formed tag; the caller keeps such tokens as text.
func ParseTag(tok Token) (*Tag, bool) {
	switch tok.Kind {
	case TokenKindStartTag, TokenKindEmptyTag, TokenKindEndTag:
	default:
		return nil, false
	}
	s := tok.Value
	tag := &Tag{Token: tok, Prefix: "<"}
	i := 1
	if tok.Kind == TokenKindEndTag {
		tag.Prefix = "</"
		i = 2
	}
	start := i
	for i < len(s) && core.IsNameChar(int(s[i])) {
		i++
	}
	if i == start {
		return nil, false
	}
	tag.Name = tok.Slice(start, i)

	for {
		spaceStart := i
		for i < len(s) && core.IsWhitespace(int(s[i])) {
			i++
		}
		if rest := s[i:]; rest == ">" || rest == "/>" {
			tag.Suffix = s[spaceStart:]
			return tag, true
		}
		if i == spaceStart || tok.Kind == TokenKindEndTag {
			return nil, false
		}
		attr, next, ok := parseAttribute(tok, i)
		if !ok {
			return nil, false
		}
		attr.Space = s[spaceStart:i]
		tag.Attrs = append(tag.Attrs, attr)
		i = next
	}
}

func isAttributeNameChar(ch byte) bool {
	switch ch {
	case '=', '>', '/', '"', '\'', '<':
		return false
	}
	return !core.IsWhitespace(int(ch))
}

func parseAttribute(tok Token, i int) (*RawAttribute, int, bool) {
	s := tok.Value
	start := i
	for i < len(s) && isAttributeNameChar(s[i]) {
		i++
	}
	if i == start {
		return nil, 0, false
	}
	attr := &RawAttribute{Name: tok.Slice(start, i)}

	eqStart := i
	for i < len(s) && core.IsWhitespace(int(s[i])) {
		i++
	}
	if i >= len(s) || s[i] != '=' {
		attr.Value = tok.Slice(eqStart, eqStart)
		return attr, eqStart, true
	}
	i++
	for i < len(s) && core.IsWhitespace(int(s[i])) {
		i++
	}
	attr.Eq = s[eqStart:i]
	if i >= len(s) {
		return nil, 0, false
	}

	if core.IsQuote(int(s[i])) {
		quote := s[i]
		end := strings.IndexByte(s[i+1:], quote)
		if end < 0 {
			return nil, 0, false
		}
		attr.Quote = string(quote)
		attr.Value = tok.Slice(i+1, i+1+end)
		return attr, i + end + 2, true
	}

	valueStart := i
	for i < len(s) && !core.IsWhitespace(int(s[i])) && s[i] != '>' && s[i] != '"' && s[i] != '\'' {
		if s[i] == '/' && i+1 < len(s) && s[i+1] == '>' {
			break
		}
		i++
	}
	if i == valueStart {
		return nil, 0, false
	}
	attr.Value = tok.Slice(valueStart, i)
	return attr, i, true
}

// SplitNsName splits a `prefix:local` name into prefix and local name
func SplitNsName(name string) (string, string) {
	prefix, local, found := strings.Cut(name, ":")
	if !found {
		return "", name
	}
	return prefix, local
}

// MergeNsAndName merges namespace prefix and local name
func MergeNsAndName(prefix, localName string) string {
	if prefix != "" {
		return prefix + ":" + localName
	}
	return localName
}

var voidElements = map[atom.Atom]bool{
	atom.Area:   true,
	atom.Base:   true,
	atom.Br:     true,
	atom.Col:    true,
	atom.Embed:  true,
	atom.Hr:     true,
	atom.Img:    true,
	atom.Input:  true,
	atom.Keygen: true,
	atom.Link:   true,
	atom.Meta:   true,
	atom.Param:  true,
	atom.Source: true,
	atom.Track:  true,
	atom.Wbr:    true,
}

var booleanAttributes = map[atom.Atom]bool{
	atom.Async:          true,
	atom.Autofocus:      true,
	atom.Autoplay:       true,
	atom.Checked:        true,
	atom.Controls:       true,
	atom.Default:        true,
	atom.Defer:          true,
	atom.Disabled:       true,
	atom.Formnovalidate: true,
	atom.Hidden:         true,
	atom.Ismap:          true,
	atom.Loop:           true,
	atom.Multiple:       true,
	atom.Muted:          true,
	atom.Nomodule:       true,
	atom.Novalidate:     true,
	atom.Open:           true,
	atom.Readonly:       true,
	atom.Required:       true,
	atom.Reversed:       true,
	atom.Selected:       true,
}

func lookupAtom(name string) atom.Atom {
	return atom.Lookup([]byte(strings.ToLower(name)))
}

// IsVoidElement checks if an HTML element never has an end tag
func IsVoidElement(name string) bool {
	_, local := SplitNsName(name)
	return voidElements[lookupAtom(local)]
}

// IsBooleanAttribute checks if an HTML attribute is rendered by presence
func IsBooleanAttribute(name string) bool {
	return booleanAttributes[lookupAtom(name)]
}
