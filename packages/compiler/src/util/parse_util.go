package util

import (
	"errors"
	"fmt"
	"strings"
)

// ParseSourceFile represents a template source
type ParseSourceFile struct {
	Content string
	URL     string
}

// NewParseSourceFile creates a new ParseSourceFile
func NewParseSourceFile(content, url string) *ParseSourceFile {
	return &ParseSourceFile{
		Content: content,
		URL:     url,
	}
}

// ParseLocation represents a location in the source file. Line and Col are
// one-based; an Offset below zero means the location is unknown.
type ParseLocation struct {
	File   *ParseSourceFile
	Offset int
	Line   int
	Col    int
}

// NewParseLocation creates a new ParseLocation
func NewParseLocation(file *ParseSourceFile, offset, line, col int) *ParseLocation {
	return &ParseLocation{
		File:   file,
		Offset: offset,
		Line:   line,
		Col:    col,
	}
}

// LocationAt computes the line and column of a byte offset in the file
func LocationAt(file *ParseSourceFile, offset int) *ParseLocation {
	if file == nil || offset < 0 || offset > len(file.Content) {
		return NewParseLocation(file, -1, -1, -1)
	}
	line, col := LineCol(file.Content, offset)
	return NewParseLocation(file, offset, line, col)
}

// LineCol returns the one-based line and column of offset in source
func LineCol(source string, offset int) (int, int) {
	if offset > len(source) {
		offset = len(source)
	}
	line := 1 + strings.Count(source[:offset], "\n")
	col := 1 + offset
	if line > 1 {
		col -= 1 + strings.LastIndex(source[:offset], "\n")
	}
	return line, col
}

// String returns a string representation of the location
func (p *ParseLocation) String() string {
	url := ""
	if p.File != nil {
		url = p.File.URL
	}
	if p.Offset >= 0 {
		return fmt.Sprintf("%s:%d:%d", url, p.Line, p.Col)
	}
	return url
}

// GetContext returns the source context around the location
func (p *ParseLocation) GetContext(maxChars, maxLines int) *Context {
	if p.File == nil || p.Offset < 0 || len(p.File.Content) == 0 {
		return nil
	}
	content := p.File.Content
	startOffset := p.Offset
	if startOffset > len(content)-1 {
		startOffset = len(content) - 1
	}
	offset := startOffset
	endOffset := startOffset
	ctxChars := 0
	ctxLines := 0

	for ctxChars < maxChars && startOffset > 0 {
		startOffset--
		ctxChars++
		if content[startOffset] == '\n' {
			ctxLines++
			if ctxLines == maxLines {
				break
			}
		}
	}

	ctxChars = 0
	ctxLines = 0
	for ctxChars < maxChars && endOffset < len(content)-1 {
		endOffset++
		ctxChars++
		if content[endOffset] == '\n' {
			ctxLines++
			if ctxLines == maxLines {
				break
			}
		}
	}

	return &Context{
		Before: content[startOffset:offset],
		After:  content[offset : endOffset+1],
	}
}

// Context represents source context around a location
type Context struct {
	Before string
	After  string
}

// ParseSourceSpan represents a span of source code
type ParseSourceSpan struct {
	Start *ParseLocation
	End   *ParseLocation
}

// NewParseSourceSpan creates a new ParseSourceSpan
func NewParseSourceSpan(start, end *ParseLocation) *ParseSourceSpan {
	return &ParseSourceSpan{
		Start: start,
		End:   end,
	}
}

// SpanAt creates the span covering length bytes from offset
func SpanAt(file *ParseSourceFile, offset, length int) *ParseSourceSpan {
	return NewParseSourceSpan(LocationAt(file, offset), LocationAt(file, offset+length))
}

// String returns the source code in this span
func (p *ParseSourceSpan) String() string {
	if p.Start == nil || p.End == nil || p.Start.Offset < 0 || p.End.Offset < p.Start.Offset {
		return ""
	}
	return p.Start.File.Content[p.Start.Offset:p.End.Offset]
}

// ErrorKind classifies compile-time failures
type ErrorKind int

const (
	// ErrorKindParse - tag mismatch or unmatched tag
	ErrorKindParse ErrorKind = iota
	// ErrorKindLanguage - illegal directive combination or clause syntax
	ErrorKindLanguage
	// ErrorKindExpression - an expression fails to parse for its declared type
	ErrorKindExpression
	// ErrorKindCompilation - structural rule violation
	ErrorKindCompilation
	// ErrorKindTranslation - disallowed or conflicting variable name
	ErrorKindTranslation
)

var errorKindNames = map[ErrorKind]string{
	ErrorKindParse:       "ParseError",
	ErrorKindLanguage:    "LanguageError",
	ErrorKindExpression:  "ExpressionError",
	ErrorKindCompilation: "CompilationError",
	ErrorKindTranslation: "TranslationError",
}

// String returns the name of the error kind
func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParseError represents a compile-time error attached to a source span. The
// offending source text is always available through Span.
type ParseError struct {
	Kind         ErrorKind
	Span         *ParseSourceSpan
	Msg          string
	RelatedError error
}

// NewParseError creates a new ParseError
func NewParseError(span *ParseSourceSpan, msg string) *ParseError {
	return &ParseError{Kind: ErrorKindParse, Span: span, Msg: msg}
}

// NewLanguageError creates a new error of kind ErrorKindLanguage
func NewLanguageError(span *ParseSourceSpan, msg string) *ParseError {
	return &ParseError{Kind: ErrorKindLanguage, Span: span, Msg: msg}
}

// NewExpressionError creates a new error of kind ErrorKindExpression
func NewExpressionError(span *ParseSourceSpan, msg string, related error) *ParseError {
	return &ParseError{Kind: ErrorKindExpression, Span: span, Msg: msg, RelatedError: related}
}

// NewCompilationError creates a new error of kind ErrorKindCompilation
func NewCompilationError(span *ParseSourceSpan, msg string) *ParseError {
	return &ParseError{Kind: ErrorKindCompilation, Span: span, Msg: msg}
}

// NewTranslationError creates a new error of kind ErrorKindTranslation
func NewTranslationError(span *ParseSourceSpan, msg string) *ParseError {
	return &ParseError{Kind: ErrorKindTranslation, Span: span, Msg: msg}
}

// Error implements the error interface
func (p *ParseError) Error() string {
	return p.String()
}

// Unwrap returns the underlying error, if any
func (p *ParseError) Unwrap() error {
	return p.RelatedError
}

// Text returns the offending source text
func (p *ParseError) Text() string {
	if p.Span == nil {
		return ""
	}
	return p.Span.String()
}

// ContextualMessage returns the error message with context
func (p *ParseError) ContextualMessage() string {
	if p.Span == nil || p.Span.Start == nil {
		return p.Msg
	}
	ctx := p.Span.Start.GetContext(100, 3)
	if ctx != nil {
		return fmt.Sprintf(`%s ("%s[ERROR ->]%s")`, p.Msg, ctx.Before, ctx.After)
	}
	return p.Msg
}

// String returns a string representation of the error
func (p *ParseError) String() string {
	msg := p.Msg
	if text := p.Text(); text != "" {
		msg = fmt.Sprintf("%s %q", msg, text)
	}
	if p.RelatedError != nil {
		msg = fmt.Sprintf("%s: %v", msg, p.RelatedError)
	}
	if p.Span == nil || p.Span.Start == nil {
		return fmt.Sprintf("%s: %s", p.Kind, msg)
	}
	return fmt.Sprintf("%s: %s - %s", p.Kind, msg, p.Span.Start)
}

// IsKind reports whether err carries a ParseError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var perr *ParseError
	if errors.As(err, &perr) {
		return perr.Kind == kind
	}
	return false
}
