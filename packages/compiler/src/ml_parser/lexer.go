package ml_parser

import (
	"strings"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/core"
)

// Tokenizer scans template source into text and markup tokens. It has no
// semantic knowledge and never fails: anything it cannot recognise becomes a
// text token, so the concatenation of all token values is always the input.
type Tokenizer struct {
	source   string
	filename string
	pos      int
	tokens   []Token
}

// NewTokenizer creates a new Tokenizer
func NewTokenizer(source, filename string) *Tokenizer {
	return &Tokenizer{source: source, filename: filename}
}

// Tokenize tokenizes source
func Tokenize(source, filename string) []Token {
	t := NewTokenizer(source, filename)
	t.Tokenize()
	return t.tokens
}

// Tokens returns the tokens produced so far
func (t *Tokenizer) Tokens() []Token {
	return t.tokens
}

// Tokenize scans the whole source
func (t *Tokenizer) Tokenize() {
	for t.pos < len(t.source) {
		if t.peek(0) != core.CharLT {
			t.consumeText()
			continue
		}
		if !t.consumeMarkup() {
			t.consumeMalformed()
		}
	}
}

func (t *Tokenizer) peek(offset int) int {
	if t.pos+offset >= len(t.source) {
		return core.CharEOF
	}
	return int(t.source[t.pos+offset])
}

func (t *Tokenizer) emit(kind TokenKind, end int) {
	t.tokens = append(t.tokens, Token{
		Kind:     kind,
		Value:    t.source[t.pos:end],
		Pos:      t.pos,
		Source:   t.source,
		Filename: t.filename,
	})
	t.pos = end
}

func (t *Tokenizer) consumeText() {
	end := strings.IndexByte(t.source[t.pos:], '<')
	if end < 0 {
		t.emit(TokenKindText, len(t.source))
		return
	}
	t.emit(TokenKindText, t.pos+end)
}

// consumeMalformed emits the stray `<` and whatever follows it up to the
// next `<` as text.
func (t *Tokenizer) consumeMalformed() {
	end := strings.IndexByte(t.source[t.pos+1:], '<')
	if end < 0 {
		t.emit(TokenKindText, len(t.source))
		return
	}
	t.emit(TokenKindText, t.pos+1+end)
}

func (t *Tokenizer) consumeMarkup() bool {
	rest := t.source[t.pos:]
	switch {
	case strings.HasPrefix(rest, "<!--"):
		return t.consumeDelimited(TokenKindComment, 4, "-->")
	case strings.HasPrefix(rest, "<![CDATA["):
		return t.consumeDelimited(TokenKindCDATA, 9, "]]>")
	case strings.HasPrefix(rest, "<!"):
		if !core.IsAsciiLetter(t.peek(2)) {
			return false
		}
		return t.consumeDelimited(TokenKindDeclaration, 2, ">")
	case strings.HasPrefix(rest, "<?"):
		return t.consumeDelimited(TokenKindProcessingInstruction, 2, "?>")
	case strings.HasPrefix(rest, "</"):
		return t.consumeEndTag()
	}
	return t.consumeStartTag()
}

func (t *Tokenizer) consumeDelimited(kind TokenKind, skip int, terminator string) bool {
	i := strings.Index(t.source[t.pos+skip:], terminator)
	if i < 0 {
		return false
	}
	t.emit(kind, t.pos+skip+i+len(terminator))
	return true
}

func (t *Tokenizer) consumeEndTag() bool {
	offset := 2
	if !core.IsNameStart(t.peek(offset)) {
		return false
	}
	for core.IsNameChar(t.peek(offset)) {
		offset++
	}
	for core.IsWhitespace(t.peek(offset)) {
		offset++
	}
	if t.peek(offset) != core.CharGT {
		return false
	}
	t.emit(TokenKindEndTag, t.pos+offset+1)
	return true
}

// consumeStartTag scans to the closing `>`, skipping over quoted attribute
// values so that `>` inside them does not end the tag.
func (t *Tokenizer) consumeStartTag() bool {
	offset := 1
	if !core.IsNameStart(t.peek(offset)) {
		return false
	}
	last := core.CharEOF
	for {
		ch := t.peek(offset)
		switch {
		case ch == core.CharEOF || ch == core.CharLT:
			return false
		case ch == core.CharGT:
			kind := TokenKindStartTag
			if last == core.CharSLASH {
				kind = TokenKindEmptyTag
			}
			t.emit(kind, t.pos+offset+1)
			return true
		case core.IsQuote(ch) && last == core.CharEQ:
			end := strings.IndexByte(t.source[t.pos+offset+1:], byte(ch))
			if end < 0 {
				return false
			}
			offset += end + 2
			last = ch
			continue
		}
		if !core.IsWhitespace(ch) {
			last = ch
		}
		offset++
	}
}
