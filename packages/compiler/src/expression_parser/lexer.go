package expression_parser

import (
	"regexp"
	"strings"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/core"
)

// splitPipes splits source on `|` characters that are not part of `||` and
// not inside quotes or brackets
func splitPipes(source string) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(source); i++ {
		ch := source[i]
		switch {
		case quote != 0:
			if ch == core.CharBACKSLASH {
				i++
			} else if ch == quote {
				quote = 0
			}
		case core.IsQuote(int(ch)) || ch == '`':
			quote = ch
		case ch == core.CharLPAREN || ch == core.CharLBRACKET || ch == core.CharLBRACE:
			depth++
		case ch == core.CharRPAREN || ch == core.CharRBRACKET || ch == core.CharRBRACE:
			if depth > 0 {
				depth--
			}
		case ch == core.CharPIPE && depth == 0:
			if i+1 < len(source) && source[i+1] == core.CharPIPE {
				i++
				continue
			}
			parts = append(parts, source[start:i])
			start = i + 1
		}
	}
	return append(parts, source[start:])
}

// Fragment is a piece of interpolated text. Offset and End locate the
// fragment source, including the `${`/`}` delimiters, in the input text.
type Fragment struct {
	Value      string
	Expression bool
	Offset     int
	End        int
}

var simpleInterpolationRegexp = regexp.MustCompile(`^\$([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)`)

// SplitInterpolation splits text into literal and expression fragments.
// `${...}` takes the longest brace-balanced span that compiles with the
// default expression type; `$name` and `$a.b` are shorthand forms; `$$`
// stands for a literal dollar sign and `\$` leaves the text unchanged.
func (e *Engine) SplitInterpolation(text string) ([]Fragment, error) {
	var fragments []Fragment
	var literal strings.Builder
	literalStart := 0
	flush := func(end int) {
		if literal.Len() > 0 {
			fragments = append(fragments, Fragment{Value: literal.String(), Offset: literalStart, End: end})
			literal.Reset()
		}
	}

	for i := 0; i < len(text); {
		ch := text[i]
		if literal.Len() == 0 {
			literalStart = i
		}
		switch {
		case ch == core.CharBACKSLASH && i+1 < len(text) && text[i+1] == core.CharDollar:
			literal.WriteString(text[i : i+2])
			i += 2
			continue
		case ch != core.CharDollar || i+1 >= len(text):
			literal.WriteByte(ch)
			i++
			continue
		case text[i+1] == core.CharDollar:
			literal.WriteByte(core.CharDollar)
			i += 2
			continue
		case text[i+1] == core.CharLBRACE:
			source, end, err := e.matchBraced(text, i)
			if err != nil {
				return nil, err
			}
			if end < 0 {
				literal.WriteByte(ch)
				i++
				continue
			}
			flush(i)
			fragments = append(fragments, Fragment{Value: source, Expression: true, Offset: i, End: end})
			i = end
			continue
		}

		m := simpleInterpolationRegexp.FindStringSubmatch(text[i:])
		if m == nil {
			literal.WriteByte(ch)
			i++
			continue
		}
		source := m[1]
		if e.defaultType == "path" {
			source = strings.ReplaceAll(source, ".", "/")
		}
		flush(i)
		fragments = append(fragments, Fragment{Value: source, Expression: true, Offset: i, End: i + len(m[0])})
		i += len(m[0])
	}
	flush(len(text))
	return fragments, nil
}

// matchBraced finds the expression of a `${` at start. It tries closing
// braces from the last one backwards and returns the first balanced span
// that compiles. end is -1 when there is no closing brace.
func (e *Engine) matchBraced(text string, start int) (string, int, error) {
	var closings []int
	for j := start + 2; j < len(text); j++ {
		if text[j] == core.CharRBRACE {
			closings = append(closings, j)
		}
	}
	if len(closings) == 0 {
		return "", -1, nil
	}
	var firstErr error
	for k := len(closings) - 1; k >= 0; k-- {
		candidate := text[start+2 : closings[k]]
		if strings.Count(candidate, "{") != strings.Count(candidate, "}") {
			continue
		}
		if _, err := e.Compile(candidate); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return candidate, closings[k] + 1, nil
	}
	if firstErr == nil {
		return "", -1, nil
	}
	return "", 0, firstErr
}
