package ml_parser

import (
	"strings"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/core"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/util"
)

// TokenKind represents the type of a token
type TokenKind int

const (
	TokenKindText TokenKind = iota
	TokenKindComment
	TokenKindCDATA
	TokenKindDeclaration
	TokenKindProcessingInstruction
	TokenKindEndTag
	TokenKindStartTag
	TokenKindEmptyTag
)

var tokenKindNames = map[TokenKind]string{
	TokenKindText:                  "text",
	TokenKindComment:               "comment",
	TokenKindCDATA:                 "cdata",
	TokenKindDeclaration:           "declaration",
	TokenKindProcessingInstruction: "processing_instruction",
	TokenKindEndTag:                "end_tag",
	TokenKindStartTag:              "start_tag",
	TokenKindEmptyTag:              "empty_tag",
}

// String returns the name of the token kind
func (k TokenKind) String() string {
	return tokenKindNames[k]
}

// Token is an immutable slice of the template source. It remembers its byte
// offset so that derived tokens still point at the right line and column.
type Token struct {
	Kind     TokenKind
	Value    string
	Pos      int
	Source   string
	Filename string
}

// NewToken creates a new text Token covering the whole source
func NewToken(source, filename string) Token {
	return Token{Kind: TokenKindText, Value: source, Source: source, Filename: filename}
}

// String returns the token text
func (t Token) String() string {
	return t.Value
}

// End returns the offset just past the token
func (t Token) End() int {
	return t.Pos + len(t.Value)
}

// Location returns the one-based line and column of the token start
func (t Token) Location() (int, int) {
	if t.Source == "" {
		return 1, t.Pos + 1
	}
	return util.LineCol(t.Source, t.Pos)
}

// File returns the source file the token belongs to
func (t Token) File() *util.ParseSourceFile {
	return util.NewParseSourceFile(t.Source, t.Filename)
}

// Span returns the source span covered by the token
func (t Token) Span() *util.ParseSourceSpan {
	if t.Source == "" {
		return nil
	}
	return util.SpanAt(t.File(), t.Pos, len(t.Value))
}

// Slice returns the token for Value[i:j]
func (t Token) Slice(i, j int) Token {
	return Token{Kind: t.Kind, Value: t.Value[i:j], Pos: t.Pos + i, Source: t.Source, Filename: t.Filename}
}

// From returns the token for Value[i:]
func (t Token) From(i int) Token {
	return t.Slice(i, len(t.Value))
}

// Split splits the token around each instance of sep
func (t Token) Split(sep string) []Token {
	return t.SplitN(sep, -1)
}

// SplitN splits the token around the first n-1 instances of sep
func (t Token) SplitN(sep string, n int) []Token {
	var tokens []Token
	offset := 0
	for n < 0 || len(tokens) < n-1 {
		i := strings.Index(t.Value[offset:], sep)
		if i < 0 {
			break
		}
		tokens = append(tokens, t.Slice(offset, offset+i))
		offset += i + len(sep)
	}
	return append(tokens, t.From(offset))
}

// TrimSpace returns the token with leading and trailing whitespace removed
func (t Token) TrimSpace() Token {
	start, end := 0, len(t.Value)
	for start < end && core.IsWhitespace(int(t.Value[start])) {
		start++
	}
	for end > start && core.IsWhitespace(int(t.Value[end-1])) {
		end--
	}
	return t.Slice(start, end)
}

// Concat joins tokens into one token positioned at the first of them
func Concat(tokens ...Token) Token {
	if len(tokens) == 0 {
		return Token{}
	}
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.Value)
	}
	first := tokens[0]
	return Token{Kind: first.Kind, Value: sb.String(), Pos: first.Pos, Source: first.Source, Filename: first.Filename}
}
