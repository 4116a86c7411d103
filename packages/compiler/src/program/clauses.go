package program

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/ml_parser"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/util"
)

// reservedNames cannot be assigned by define or repeat clauses
var reservedNames = map[string]bool{
	"default":         true,
	"nothing":         true,
	"repeat":          true,
	"macros":          true,
	"econtext":        true,
	"rcontext":        true,
	"translate":       true,
	"target_language": true,
	"attrs":           true,
	"template":        true,
}

const namePattern = `[A-Za-z_][A-Za-z0-9_]*`

var (
	defineRegexp = regexp.MustCompile(`(?s)^(?:(local|global)\s+)?(?:(` + namePattern + `)|\(\s*(` +
		namePattern + `(?:\s*,\s*` + namePattern + `)*)\s*,?\s*\))\s+(\S.*)$`)
	repeatRegexp = regexp.MustCompile(`(?s)^(?:(` + namePattern + `)|\(\s*(` +
		namePattern + `(?:\s*,\s*` + namePattern + `)*)\s*,?\s*\))\s+(\S.*)$`)
	attributeRegexp     = regexp.MustCompile(`(?s)^([A-Za-z_:][-A-Za-z0-9_:.]*)\s+(\S.*)$`)
	substituteRegexp    = regexp.MustCompile(`(?s)^(structure|text)\s+(\S.*)$`)
	internalMacroRegexp = regexp.MustCompile(`^macros(?:\.(` + namePattern + `)|\[\s*(?:'([^']*)'|"([^"]*)")\s*\])$`)
	splitNamesRegexp    = regexp.MustCompile(`\s*,\s*`)
)

// definition is one entry of a tal:define clause
type definition struct {
	Names  []string
	Expr   ml_parser.Token
	Global bool
}

// iteration is a tal:repeat clause
type iteration struct {
	Names []string
	Expr  ml_parser.Token
}

// attributeEntry is one entry of a tal:attributes clause. An empty Name is
// an expression returning a mapping of attributes.
type attributeEntry struct {
	Name string
	Expr ml_parser.Token
}

// translatedAttribute is one entry of an i18n:attributes clause
type translatedAttribute struct {
	Name  string
	Msgid string
}

// splitClauses splits a clause list on `;`. A doubled `;;` stands for a
// literal semicolon. Blank entries are dropped.
func splitClauses(tok ml_parser.Token) []ml_parser.Token {
	var parts []ml_parser.Token
	var sb strings.Builder
	s := tok.Value
	start := 0
	add := func(end int) {
		part := tok.Slice(start, end)
		part.Value = sb.String()
		sb.Reset()
		if part = part.TrimSpace(); part.Value != "" {
			parts = append(parts, part)
		}
	}
	for i := 0; i < len(s); i++ {
		if s[i] != ';' {
			sb.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == ';' {
			sb.WriteByte(';')
			i++
			continue
		}
		add(i)
		start = i + 1
	}
	add(len(s))
	return parts
}

func splitNames(s string) []string {
	return splitNamesRegexp.Split(strings.TrimSpace(s), -1)
}

func checkNames(tok ml_parser.Token, names []string) error {
	for _, name := range names {
		if reservedNames[name] {
			return util.NewTranslationError(tok.Span(), fmt.Sprintf("Name %q is reserved", name))
		}
	}
	return nil
}

// parseDefines parses `[local|global] name expr; [local|global] (a, b) expr`
func parseDefines(tok ml_parser.Token) ([]definition, error) {
	var defines []definition
	for _, part := range splitClauses(tok) {
		m := defineRegexp.FindStringSubmatchIndex(part.Value)
		if m == nil {
			return nil, util.NewLanguageError(part.Span(), "Invalid define syntax")
		}
		d := definition{Global: m[2] >= 0 && part.Value[m[2]:m[3]] == "global"}
		if m[4] >= 0 {
			d.Names = []string{part.Value[m[4]:m[5]]}
		} else {
			d.Names = splitNames(part.Value[m[6]:m[7]])
		}
		if err := checkNames(part, d.Names); err != nil {
			return nil, err
		}
		d.Expr = part.From(m[8])
		defines = append(defines, d)
	}
	if len(defines) == 0 {
		return nil, util.NewLanguageError(tok.Span(), "Invalid define syntax")
	}
	return defines, nil
}

// parseRepeat parses `name expr` or `(key, value) expr`
func parseRepeat(tok ml_parser.Token) (*iteration, error) {
	tok = tok.TrimSpace()
	m := repeatRegexp.FindStringSubmatchIndex(tok.Value)
	if m == nil {
		return nil, util.NewLanguageError(tok.Span(), "Invalid repeat syntax")
	}
	it := &iteration{}
	if m[2] >= 0 {
		it.Names = []string{tok.Value[m[2]:m[3]]}
	} else {
		it.Names = splitNames(tok.Value[m[4]:m[5]])
	}
	if err := checkNames(tok, it.Names); err != nil {
		return nil, err
	}
	it.Expr = tok.From(m[6])
	return it, nil
}

// parseAttributes parses `name expr; name expr; expr`
func parseAttributes(tok ml_parser.Token) ([]attributeEntry, error) {
	var entries []attributeEntry
	seen := map[string]bool{}
	for _, part := range splitClauses(tok) {
		m := attributeRegexp.FindStringSubmatchIndex(part.Value)
		if m == nil {
			entries = append(entries, attributeEntry{Expr: part})
			continue
		}
		name := part.Value[m[2]:m[3]]
		if seen[strings.ToLower(name)] {
			return nil, util.NewLanguageError(part.Span(), fmt.Sprintf("Duplicate attribute name %q", name))
		}
		seen[strings.ToLower(name)] = true
		entries = append(entries, attributeEntry{Name: name, Expr: part.From(m[4])})
	}
	return entries, nil
}

// parseTranslatedAttributes parses `name [msgid]; name [msgid]`
func parseTranslatedAttributes(tok ml_parser.Token) ([]translatedAttribute, error) {
	var entries []translatedAttribute
	for _, part := range splitClauses(tok) {
		fields := strings.Fields(part.Value)
		switch len(fields) {
		case 1:
			entries = append(entries, translatedAttribute{Name: fields[0]})
		case 2:
			entries = append(entries, translatedAttribute{Name: fields[0], Msgid: fields[1]})
		default:
			return nil, util.NewLanguageError(part.Span(), "Invalid i18n:attributes syntax")
		}
	}
	return entries, nil
}

// parseSubstitution splits the `structure`/`text` keyword off a content or
// replace clause
func parseSubstitution(tok ml_parser.Token) (ml_parser.Token, bool) {
	tok = tok.TrimSpace()
	m := substituteRegexp.FindStringSubmatchIndex(tok.Value)
	if m == nil {
		return tok, false
	}
	return tok.From(m[4]), tok.Value[m[2]:m[3]] == "structure"
}

// internalMacroName returns the macro name of a `macros.name` or
// `macros['name']` expression
func internalMacroName(source string) (string, bool) {
	m := internalMacroRegexp.FindStringSubmatch(strings.TrimSpace(source))
	if m == nil {
		return "", false
	}
	for _, name := range m[1:] {
		if name != "" {
			return name, true
		}
	}
	return "", false
}
