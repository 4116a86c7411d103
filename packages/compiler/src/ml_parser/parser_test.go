package ml_parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/ml_parser"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/util"
)

type humanizer struct {
	result  [][]any
	elDepth int
}

func (h *humanizer) VisitText(text *ml_parser.Text, context any) any {
	h.result = append(h.result, []any{"Text", text.Token.Value, h.elDepth})
	return nil
}

func (h *humanizer) VisitElement(element *ml_parser.Element, context any) any {
	res := []any{"Element", element.Name(), h.elDepth}
	if element.End == nil {
		res = append(res, "#noEnd")
	}
	h.result = append(h.result, res)
	h.elDepth++
	ml_parser.VisitAll(h, element.Children, context)
	h.elDepth--
	return nil
}

func parseAndHumanize(t *testing.T, source string) [][]any {
	t.Helper()
	nodes, err := ml_parser.ParseSource(source, "test.pt")
	if err != nil {
		t.Fatalf("ParseSource() unexpected error: %v", err)
	}
	h := &humanizer{result: [][]any{}}
	ml_parser.VisitAll(h, nodes, nil)
	return h.result
}

func TestParser_Elements(t *testing.T) {
	t.Run("should nest elements", func(t *testing.T) {
		expected := [][]any{
			{"Element", "div", 0},
			{"Element", "p", 1},
			{"Text", "a", 2},
			{"Element", "br", 1, "#noEnd"},
			{"Text", "b", 1},
		}
		result := parseAndHumanize(t, "<div><p>a</p><br/>b</div>")
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should leave unclosed void elements childless", func(t *testing.T) {
		expected := [][]any{
			{"Element", "p", 0},
			{"Element", "br", 1, "#noEnd"},
			{"Text", "x", 1},
			{"Element", "img", 1, "#noEnd"},
		}
		result := parseAndHumanize(t, `<p><br>x<img src="y"></p>`)
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should match an explicit end tag of a void element", func(t *testing.T) {
		expected := [][]any{
			{"Element", "input", 0},
		}
		result := parseAndHumanize(t, "<input></input>")
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should keep comments and malformed tags as text", func(t *testing.T) {
		expected := [][]any{
			{"Element", "p", 0},
			{"Text", "<!-- c -->", 1},
			{"Text", "<b =>", 1},
		}
		result := parseAndHumanize(t, "<p><!-- c --><b =></p>")
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestParser_Errors(t *testing.T) {
	t.Run("should reject a mismatched end tag", func(t *testing.T) {
		_, err := ml_parser.ParseSource("<a><b></a>", "test.pt")
		if !util.IsKind(err, util.ErrorKindParse) {
			t.Fatalf("ParseSource() error = %v, want ParseError", err)
		}
		perr := err.(*util.ParseError)
		expected := []any{"</a>", 1, 7}
		result := []any{perr.Text(), perr.Span.Start.Line, perr.Span.Start.Col}
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("ParseError mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should reject an end tag without start tag", func(t *testing.T) {
		_, err := ml_parser.ParseSource("text</p>", "test.pt")
		if !util.IsKind(err, util.ErrorKindParse) {
			t.Errorf("ParseSource() error = %v, want ParseError", err)
		}
	})

	t.Run("should leave elements open at the end childless", func(t *testing.T) {
		expected := [][]any{
			{"Element", "div", 0, "#noEnd"},
			{"Element", "p", 0},
			{"Text", "x", 1},
		}
		result := parseAndHumanize(t, "<div><p>x</p>")
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestParser_RoundTrip(t *testing.T) {
	inputs := []string{
		`<html xmlns:tal="http://xml.zope.org/namespaces/tal">` + "\n" +
			`  <p tal:content="x" class = 'a'  >y</p>` + "\n" +
			`  <input checked disabled=disabled />` + "\n" +
			"</html>",
		"<!DOCTYPE html>\n<div><br>text<hr></div><!-- tail -->",
		"<a>1 < 2</a>",
		"<div><p>open",
	}
	for _, input := range inputs {
		t.Run("should serialize back to the input", func(t *testing.T) {
			nodes, err := ml_parser.ParseSource(input, "test.pt")
			if err != nil {
				t.Fatalf("ParseSource() unexpected error: %v", err)
			}
			if diff := cmp.Diff(input, ml_parser.Serialize(nodes)); diff != "" {
				t.Errorf("Serialize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParser_Namespaces(t *testing.T) {
	t.Run("should resolve the built-in prefixes", func(t *testing.T) {
		nodes, err := ml_parser.ParseSource(`<p tal:content="x" i18n:translate="" class="c">y</p>`, "test.pt")
		if err != nil {
			t.Fatalf("ParseSource() unexpected error: %v", err)
		}
		el := nodes[0].(*ml_parser.Element)
		expected := []ml_parser.Key{
			{Namespace: ml_parser.TALNamespace, Local: "content"},
			{Namespace: ml_parser.I18NNamespace, Local: "translate"},
			{Local: "class"},
		}
		var result []ml_parser.Key
		for _, attr := range el.Attrs {
			result = append(result, attr.Key)
		}
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("Attrs mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should fold declarations before resolving", func(t *testing.T) {
		nodes, err := ml_parser.ParseSource(`<x:p xmlns:x="urn:x" x:a="1"><x:q/></x:p><x:r/>`, "test.pt")
		if err != nil {
			t.Fatalf("ParseSource() unexpected error: %v", err)
		}
		outer := nodes[0].(*ml_parser.Element)
		inner := outer.Children[0].(*ml_parser.Element)
		after := nodes[1].(*ml_parser.Element)
		expected := []any{"urn:x", "p", ml_parser.Key{Namespace: "urn:x", Local: "a"}, "urn:x", "", "x:r"}
		result := []any{outer.Namespace, outer.Local, outer.Attrs[1].Key, inner.Namespace, after.Namespace, after.Local}
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("Namespace mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should let directive elements own unprefixed attributes", func(t *testing.T) {
		nodes, err := ml_parser.ParseSource(`<tal:block condition="ok">x</tal:block>`, "test.pt")
		if err != nil {
			t.Fatalf("ParseSource() unexpected error: %v", err)
		}
		el := nodes[0].(*ml_parser.Element)
		expected := []any{ml_parser.TALNamespace, "block", ml_parser.Key{Namespace: ml_parser.TALNamespace, Local: "condition"}}
		result := []any{el.Namespace, el.Local, el.Attrs[0].Key}
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("Namespace mismatch (-want +got):\n%s", diff)
		}
	})
}
