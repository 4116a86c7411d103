package ml_parser_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/ml_parser"
)

func tokenizeAndHumanizeParts(input string) [][]any {
	result := [][]any{}
	for _, tok := range ml_parser.Tokenize(input, "test.pt") {
		result = append(result, []any{tok.Kind, tok.Value})
	}
	return result
}

func tokenizeAndHumanizeLineColumn(input string) [][]any {
	result := [][]any{}
	for _, tok := range ml_parser.Tokenize(input, "test.pt") {
		line, col := tok.Location()
		result = append(result, []any{tok.Kind, fmt.Sprintf("%d:%d", line, col)})
	}
	return result
}

func TestTokenizer_Kinds(t *testing.T) {
	t.Run("should split text and tags", func(t *testing.T) {
		expected := [][]any{
			{ml_parser.TokenKindStartTag, "<p>"},
			{ml_parser.TokenKindText, "Hi ${x}"},
			{ml_parser.TokenKindEndTag, "</p>"},
		}
		result := tokenizeAndHumanizeParts("<p>Hi ${x}</p>")
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("Tokenize() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should recognise markup constructs", func(t *testing.T) {
		expected := [][]any{
			{ml_parser.TokenKindProcessingInstruction, `<?xml version="1.0"?>`},
			{ml_parser.TokenKindDeclaration, "<!DOCTYPE html>"},
			{ml_parser.TokenKindComment, "<!-- a <b> -->"},
			{ml_parser.TokenKindCDATA, "<![CDATA[ <x> ]]>"},
			{ml_parser.TokenKindEmptyTag, "<br />"},
		}
		result := tokenizeAndHumanizeParts(`<?xml version="1.0"?><!DOCTYPE html><!-- a <b> --><![CDATA[ <x> ]]><br />`)
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("Tokenize() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should not end a tag inside a quoted value", func(t *testing.T) {
		expected := [][]any{
			{ml_parser.TokenKindStartTag, `<a title="1 > 0" href='x>y'>`},
			{ml_parser.TokenKindText, "z"},
			{ml_parser.TokenKindEndTag, "</a>"},
		}
		result := tokenizeAndHumanizeParts(`<a title="1 > 0" href='x>y'>z</a>`)
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("Tokenize() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should keep malformed markup as text", func(t *testing.T) {
		expected := [][]any{
			{ml_parser.TokenKindText, "1 "},
			{ml_parser.TokenKindText, "< 2 and "},
			{ml_parser.TokenKindText, "<!-- open"},
		}
		result := tokenizeAndHumanizeParts("1 < 2 and <!-- open")
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("Tokenize() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should stop an unterminated tag at the next tag", func(t *testing.T) {
		expected := [][]any{
			{ml_parser.TokenKindText, `<a href="x `},
			{ml_parser.TokenKindStartTag, "<b>"},
		}
		result := tokenizeAndHumanizeParts(`<a href="x <b>`)
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("Tokenize() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestTokenizer_LineColumnNumbers(t *testing.T) {
	t.Run("should work without newlines", func(t *testing.T) {
		expected := [][]any{
			{ml_parser.TokenKindStartTag, "1:1"},
			{ml_parser.TokenKindText, "1:4"},
			{ml_parser.TokenKindEndTag, "1:5"},
		}
		result := tokenizeAndHumanizeLineColumn("<t>a</t>")
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("tokenizeAndHumanizeLineColumn() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should work with multiple newlines", func(t *testing.T) {
		expected := [][]any{
			{ml_parser.TokenKindStartTag, "1:1"},
			{ml_parser.TokenKindText, "2:2"},
			{ml_parser.TokenKindEndTag, "3:2"},
		}
		result := tokenizeAndHumanizeLineColumn("<t\n>\na</t>")
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("tokenizeAndHumanizeLineColumn() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestTokenizer_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		`<html xmlns:tal="http://xml.zope.org/namespaces/tal"><p tal:content="x">y</p></html>`,
		"<a><b></c>< d <!-- x",
		"<p title='it>s'>\n\t<br/>\n</p>\n<?pi x?><![CDATA[ <]]>",
		"<div =x>bad</div><",
	}
	for _, input := range inputs {
		t.Run(fmt.Sprintf("should reproduce %q", input), func(t *testing.T) {
			var sb strings.Builder
			for _, tok := range ml_parser.Tokenize(input, "test.pt") {
				sb.WriteString(tok.Value)
			}
			if diff := cmp.Diff(input, sb.String()); diff != "" {
				t.Errorf("Tokenize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToken_Derived(t *testing.T) {
	source := "<p>\n  one; two</p>"
	text := ml_parser.Tokenize(source, "test.pt")[1]

	t.Run("should keep offsets when splitting", func(t *testing.T) {
		parts := text.Split(";")
		second := parts[1].TrimSpace()
		line, col := second.Location()
		expected := []any{"two", 2, 8}
		if diff := cmp.Diff(expected, []any{second.Value, line, col}); diff != "" {
			t.Errorf("Split() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should keep offsets when slicing", func(t *testing.T) {
		slice := text.Slice(3, 6)
		if diff := cmp.Diff("one", slice.Value); diff != "" {
			t.Errorf("Slice() mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(source[slice.Pos:slice.End()], slice.Value); diff != "" {
			t.Errorf("Slice() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should concatenate at the first position", func(t *testing.T) {
		parts := text.SplitN(";", 2)
		joined := ml_parser.Concat(parts[0], parts[1])
		expected := []any{"\n  one two", text.Pos}
		if diff := cmp.Diff(expected, []any{joined.Value, joined.Pos}); diff != "" {
			t.Errorf("Concat() mismatch (-want +got):\n%s", diff)
		}
	})
}
