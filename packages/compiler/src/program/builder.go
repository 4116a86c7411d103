package program

import (
	"fmt"
	"strings"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/expression_parser"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/ir"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/ml_parser"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/util"
)

// Checker validates expressions while the program is built. The expression
// engine implements it.
type Checker interface {
	Check(source string) error
	SplitInterpolation(text string) ([]expression_parser.Fragment, error)
}

// allowedDirectives lists the attribute names of each directive namespace
var allowedDirectives = map[string]map[string]bool{
	ml_parser.TALNamespace: {
		"define": true, "condition": true, "repeat": true, "attributes": true, "content": true,
		"replace": true, "omit-tag": true, "on-error": true, "switch": true, "case": true,
	},
	ml_parser.METALNamespace: {
		"define-macro": true, "use-macro": true, "extend-macro": true, "define-slot": true, "fill-slot": true,
	},
	ml_parser.I18NNamespace: {
		"translate": true, "name": true, "domain": true, "attributes": true,
	},
}

var namespacePrefixes = map[string]string{
	ml_parser.TALNamespace:   "tal",
	ml_parser.METALNamespace: "metal",
	ml_parser.I18NNamespace:  "i18n",
}

// directives holds the directive attributes of one element
type directives map[ml_parser.Key]*ml_parser.RawAttribute

func (d directives) get(namespace, name string) (ml_parser.Token, bool) {
	raw, ok := d[ml_parser.Key{Namespace: namespace, Local: name}]
	if !ok {
		return ml_parser.Token{}, false
	}
	return raw.Value, true
}

func (d directives) has(namespace, name string) bool {
	_, ok := d[ml_parser.Key{Namespace: namespace, Local: name}]
	return ok
}

func (d directives) attr(namespace, name string) *ml_parser.RawAttribute {
	return d[ml_parser.Key{Namespace: namespace, Local: name}]
}

// Builder turns an element tree into the IR of a template module
type Builder struct {
	checker Checker

	macros     map[string]*ir.Macro
	macroNames []string
	calls      []*ir.UseInternalMacro

	switches   []int
	nextSwitch int
	callDepth  int
	names      []map[string]bool
}

// NewBuilder creates a new Builder
func NewBuilder(checker Checker) *Builder {
	return &Builder{checker: checker, macros: map[string]*ir.Macro{}}
}

// Build builds the module of a parsed template
func Build(nodes []ml_parser.Node, filename, source string, checker Checker) (*ir.Module, error) {
	return NewBuilder(checker).Build(nodes, filename, source)
}

// Build builds the module of a parsed template. A Builder builds one module.
func (b *Builder) Build(nodes []ml_parser.Node, filename, source string) (*ir.Module, error) {
	body, err := b.visitNodes(nodes)
	if err != nil {
		return nil, err
	}
	for _, call := range b.calls {
		if _, ok := b.macros[call.Name]; !ok {
			return nil, util.NewCompilationError(call.Token.Span(), fmt.Sprintf("Macro %q not found", call.Name))
		}
	}
	return &ir.Module{
		Filename:   filename,
		Source:     source,
		Body:       body,
		Macros:     b.macros,
		MacroNames: b.macroNames,
	}, nil
}

func (b *Builder) visitNodes(nodes []ml_parser.Node) (*ir.Sequence, error) {
	seq := &ir.Sequence{}
	whitespace := ""
	for _, node := range nodes {
		var result ir.Node
		var err error
		switch n := node.(type) {
		case *ml_parser.Text:
			result, err = b.visitText(n)
			whitespace = trailingWhitespace(n)
		case *ml_parser.Element:
			result, err = b.visitElement(n, whitespace)
			whitespace = ""
		default:
			err = fmt.Errorf("unexpected node %T", node)
		}
		if err != nil {
			return nil, err
		}
		seq.Nodes = append(seq.Nodes, result)
	}
	return seq, nil
}

// trailingWhitespace returns the indentation that ends a text node,
// starting at its last line break
func trailingWhitespace(text *ml_parser.Text) string {
	if text.Token.Kind != ml_parser.TokenKindText {
		return ""
	}
	value := text.Token.Value
	i := strings.LastIndexByte(value, '\n')
	if i < 0 || strings.TrimSpace(value[i:]) != "" {
		return ""
	}
	return value[i:]
}

func (b *Builder) visitText(text *ml_parser.Text) (ir.Node, error) {
	switch text.Token.Kind {
	case ml_parser.TokenKindComment:
		if strings.HasPrefix(text.Token.Value, "<!--!") {
			return &ir.Omitted{}, nil
		}
		return b.interpolate(text.Token)
	case ml_parser.TokenKindText:
		return b.interpolate(text.Token)
	}
	return &ir.Text{Value: text.Token.Value}, nil
}

// interpolate compiles character data with `${...}` expressions
func (b *Builder) interpolate(tok ml_parser.Token) (ir.Node, error) {
	if !strings.Contains(tok.Value, "$") {
		return &ir.Text{Value: tok.Value}, nil
	}
	parts, dynamic, err := b.parts(tok)
	if err != nil {
		return nil, err
	}
	if !dynamic {
		var sb strings.Builder
		for _, part := range parts {
			sb.WriteString(part.Literal)
		}
		return &ir.Text{Value: sb.String()}, nil
	}
	return &ir.Interpolation{Token: tok, Parts: parts}, nil
}

func (b *Builder) parts(tok ml_parser.Token) ([]ir.Part, bool, error) {
	fragments, err := b.checker.SplitInterpolation(tok.Value)
	if err != nil {
		return nil, false, util.NewExpressionError(tok.Span(), "Invalid interpolation", err)
	}
	parts := make([]ir.Part, 0, len(fragments))
	dynamic := false
	for _, fragment := range fragments {
		if !fragment.Expression {
			parts = append(parts, ir.Part{Literal: fragment.Value})
			continue
		}
		exprTok := tok.Slice(fragment.Offset, fragment.End)
		if i := strings.Index(exprTok.Value, fragment.Value); i >= 0 {
			exprTok = exprTok.Slice(i, i+len(fragment.Value))
		} else {
			exprTok.Value = fragment.Value
		}
		expr, err := b.expression(exprTok)
		if err != nil {
			return nil, false, err
		}
		parts = append(parts, ir.Part{Expr: expr})
		dynamic = true
	}
	return parts, dynamic, nil
}

func (b *Builder) expression(tok ml_parser.Token) (*ir.Expr, error) {
	if err := b.checker.Check(tok.Value); err != nil {
		return nil, util.NewExpressionError(tok.Span(), "Invalid expression", err)
	}
	return ir.NewExpr(tok), nil
}

// classify separates directive attributes from literal ones and checks the
// directives against the whitelist of their namespace
func (b *Builder) classify(el *ml_parser.Element) (directives, []*ml_parser.Attribute, error) {
	ns := directives{}
	var static []*ml_parser.Attribute
	for _, attr := range el.Attrs {
		switch {
		case ml_parser.IsDirectiveNamespace(attr.Key.Namespace):
			if !allowedDirectives[attr.Key.Namespace][attr.Key.Local] {
				return nil, nil, util.NewLanguageError(attr.Raw.Name.Span(),
					fmt.Sprintf("Unknown %s directive", namespacePrefixes[attr.Key.Namespace]))
			}
			if _, ok := ns[attr.Key]; ok {
				return nil, nil, util.NewLanguageError(attr.Raw.Name.Span(), "Duplicate directive")
			}
			ns[attr.Key] = attr.Raw
		case attr.Key.Namespace == ml_parser.XMLNSNamespace && ml_parser.IsDirectiveNamespace(attr.Raw.Value.Value):
			// namespace declarations of directive namespaces are not rendered
		default:
			static = append(static, attr)
		}
	}
	return ns, static, nil
}

// checkExclusions rejects directive combinations that have no meaning
func checkExclusions(el *ml_parser.Element, ns directives) error {
	tal, metal, i18n := ml_parser.TALNamespace, ml_parser.METALNamespace, ml_parser.I18NNamespace
	if ns.has(tal, "content") && ns.has(tal, "replace") {
		return util.NewLanguageError(ns.attr(tal, "replace").Name.Span(),
			"tal:content and tal:replace are mutually exclusive")
	}
	if msgid, ok := ns.get(i18n, "translate"); ok && strings.TrimSpace(msgid.Value) != "" {
		if ns.has(tal, "content") || ns.has(tal, "replace") {
			return util.NewLanguageError(ns.attr(i18n, "translate").Name.Span(),
				"i18n:translate with a message id cannot be combined with tal:content or tal:replace")
		}
	}
	if ns.has(tal, "attributes") && ml_parser.IsDirectiveNamespace(el.Namespace) {
		return util.NewLanguageError(ns.attr(tal, "attributes").Name.Span(),
			"Dynamic attributes are not allowed on elements of a directive namespace")
	}
	if ns.has(metal, "define-macro") && ns.has(metal, "use-macro") {
		return util.NewCompilationError(ns.attr(metal, "use-macro").Name.Span(),
			"metal:define-macro and metal:use-macro are mutually exclusive; use metal:extend-macro")
	}
	if ns.has(metal, "use-macro") && ns.has(metal, "extend-macro") {
		return util.NewLanguageError(ns.attr(metal, "extend-macro").Name.Span(),
			"metal:use-macro and metal:extend-macro are mutually exclusive")
	}
	return nil
}

func (b *Builder) visitElement(el *ml_parser.Element, whitespace string) (ir.Node, error) {
	tal, metal, i18n := ml_parser.TALNamespace, ml_parser.METALNamespace, ml_parser.I18NNamespace
	ns, static, err := b.classify(el)
	if err != nil {
		return nil, err
	}
	if err := checkExclusions(el, ns); err != nil {
		return nil, err
	}

	// A case belongs to the switch of an ancestor, not to one declared on
	// the same element.
	caseSwitch := -1
	if caseTok, ok := ns.get(tal, "case"); ok {
		if len(b.switches) == 0 {
			return nil, util.NewLanguageError(caseTok.Span(), "tal:case outside of a tal:switch")
		}
		caseSwitch = b.switches[len(b.switches)-1]
	}
	switchID := -1
	if _, ok := ns.get(tal, "switch"); ok {
		switchID = b.nextSwitch
		b.nextSwitch++
		b.switches = append(b.switches, switchID)
		defer func() { b.switches = b.switches[:len(b.switches)-1] }()
	}

	useTok, useMacro := ns.get(metal, "use-macro")
	extendTok, extendMacro := ns.get(metal, "extend-macro")
	callsMacro := useMacro || extendMacro

	if fill, ok := ns.get(metal, "fill-slot"); ok && b.callDepth == 0 {
		return nil, util.NewCompilationError(fill.Span(), "metal:fill-slot outside of a macro call")
	}

	if nameTok, ok := ns.get(i18n, "name"); ok && len(b.names) > 0 {
		name := strings.TrimSpace(nameTok.Value)
		names := b.names[len(b.names)-1]
		if names[name] {
			return nil, util.NewTranslationError(nameTok.Span(), fmt.Sprintf("Duplicate i18n:name %q", name))
		}
		names[name] = true
	}
	if ns.has(i18n, "translate") {
		b.names = append(b.names, map[string]bool{})
		defer func() { b.names = b.names[:len(b.names)-1] }()
	}

	if callsMacro {
		b.callDepth++
	}
	children, err := b.visitNodes(el.Children)
	if callsMacro {
		b.callDepth--
	}
	if err != nil {
		return nil, err
	}

	var content ir.Node
	if callsMacro {
		tok, extend := useTok, false
		if extendMacro {
			tok, extend = extendTok, true
		}
		content, err = b.macroCall(tok, extend, collectSlots(children))
		if err != nil {
			return nil, err
		}
	} else {
		content, err = b.element(el, ns, static, children)
		if err != nil {
			return nil, err
		}
	}

	return b.wrap(el, ns, static, content, whitespace, caseSwitch, switchID)
}

// element builds the tags and content of an element that does not call a
// macro
func (b *Builder) element(el *ml_parser.Element, ns directives, static []*ml_parser.Attribute, children *ir.Sequence) (ir.Node, error) {
	tal, i18n := ml_parser.TALNamespace, ml_parser.I18NNamespace

	var body ir.Node = children
	msgid, translates := ns.get(i18n, "translate")
	if translates {
		body = &ir.Translate{Msgid: strings.TrimSpace(msgid.Value), Body: body}
	}

	contentTok, hasContent := ns.get(tal, "content")
	if hasContent {
		sub, err := b.substitution(contentTok, body, translates)
		if err != nil {
			return nil, err
		}
		body = sub
	}

	start, end, err := b.tags(el, ns, static, hasContent)
	if err != nil {
		return nil, err
	}
	var node ir.Node = &ir.Element{Name: el.Name(), Start: start, Body: body, End: end}

	if omitTok, ok := ns.get(tal, "omit-tag"); ok && start != nil {
		if strings.TrimSpace(omitTok.Value) == "" {
			node = &ir.Element{Name: el.Name(), Body: body}
		} else {
			expr, err := b.expression(omitTok.TrimSpace())
			if err != nil {
				return nil, err
			}
			node = &ir.Cache{Exprs: []*ir.Expr{expr}, Body: &ir.Element{
				Name:  el.Name(),
				Start: &ir.Condition{Test: &ir.Not{Value: expr}, Then: start},
				Body:  body,
				End:   conditionalEnd(expr, end),
			}}
		}
	}

	if replaceTok, ok := ns.get(tal, "replace"); ok {
		return b.substitution(replaceTok, node, translates)
	}
	return node, nil
}

func conditionalEnd(expr *ir.Expr, end ir.Node) ir.Node {
	if end == nil {
		return nil
	}
	return &ir.Condition{Test: &ir.Not{Value: expr}, Then: end}
}

// substitution evaluates the clause expression once and renders original
// when it returns the default marker
func (b *Builder) substitution(tok ml_parser.Token, original ir.Node, translate bool) (ir.Node, error) {
	exprTok, structure := parseSubstitution(tok)
	expr, err := b.expression(exprTok)
	if err != nil {
		return nil, err
	}
	return &ir.Cache{Exprs: []*ir.Expr{expr}, Body: &ir.Condition{
		Test: &ir.IsDefault{Expr: expr},
		Then: original,
		Else: &ir.Content{Expr: expr, Structure: structure, Translate: translate},
	}}, nil
}

// tags builds the start and end tag nodes. Both are nil for elements of a
// directive namespace.
func (b *Builder) tags(el *ml_parser.Element, ns directives, static []*ml_parser.Attribute, forceEnd bool) (ir.Node, ir.Node, error) {
	if ml_parser.IsDirectiveNamespace(el.Namespace) {
		return nil, nil, nil
	}
	attrs, err := b.attributes(ns, static)
	if err != nil {
		return nil, nil, err
	}
	start := &ir.StartTag{Prefix: el.Start.Prefix, Name: el.Name(), Attributes: attrs, Suffix: el.Start.Suffix}
	var end ir.Node
	switch {
	case el.End != nil:
		end = &ir.Text{Value: el.End.String()}
	case el.IsSelfClosing() && forceEnd:
		start.Suffix = ">"
		end = &ir.Text{Value: "</" + el.Name() + ">"}
	}
	return start, end, nil
}

// attributeSlot is an attribute of the start tag being merged
type attributeSlot struct {
	name string
	raw  *ml_parser.RawAttribute
	node ir.Node
}

// attributes merges literal attributes with tal:attributes and
// i18n:attributes, keeping source order and appending new names
func (b *Builder) attributes(ns directives, static []*ml_parser.Attribute) ([]ir.Node, error) {
	var slots []*attributeSlot
	find := func(name string) *attributeSlot {
		for _, slot := range slots {
			if strings.EqualFold(slot.name, name) {
				return slot
			}
		}
		return nil
	}

	for _, attr := range static {
		node, err := b.staticAttribute(attr.Raw)
		if err != nil {
			return nil, err
		}
		slots = append(slots, &attributeSlot{name: attr.Raw.Name.Value, raw: attr.Raw, node: node})
	}

	var mappings []*ir.Expr
	if tok, ok := ns.get(ml_parser.TALNamespace, "attributes"); ok {
		entries, err := parseAttributes(tok)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			expr, err := b.expression(entry.Expr)
			if err != nil {
				return nil, err
			}
			if entry.Name == "" {
				mappings = append(mappings, expr)
				continue
			}
			attr := &ir.Attribute{
				Name:    entry.Name,
				Value:   expr,
				Space:   " ",
				Eq:      "=",
				Quote:   `"`,
				Boolean: ml_parser.IsBooleanAttribute(entry.Name),
			}
			if slot := find(entry.Name); slot != nil {
				attr.Name = slot.name
				attr.Space = slot.raw.Space
				if slot.raw.HasValue() {
					attr.Eq = slot.raw.Eq
					attr.Quote = slot.raw.Quote
					value := slot.raw.Value.Value
					attr.Default = &value
				}
				slot.node = attr
				continue
			}
			slots = append(slots, &attributeSlot{name: entry.Name, node: attr})
		}
	}

	if tok, ok := ns.get(ml_parser.I18NNamespace, "attributes"); ok {
		entries, err := parseTranslatedAttributes(tok)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			slot := find(entry.Name)
			if slot == nil {
				slot = &attributeSlot{name: entry.Name, node: &ir.Attribute{
					Name: entry.Name, Value: &ir.Literal{}, Space: " ", Eq: "=", Quote: `"`,
				}}
				slots = append(slots, slot)
			}
			attr, ok := slot.node.(*ir.Attribute)
			if !ok {
				attr = literalAttribute(slot.raw)
				slot.node = attr
			}
			attr.Translate = true
			attr.Msgid = entry.Msgid
		}
	}

	nodes := make([]ir.Node, 0, len(slots)+len(mappings))
	exclude := make([]string, 0, len(slots))
	for _, slot := range slots {
		nodes = append(nodes, slot.node)
		exclude = append(exclude, strings.ToLower(slot.name))
	}
	for _, expr := range mappings {
		nodes = append(nodes, &ir.AttributeMap{Expr: expr, Exclude: exclude})
	}
	return nodes, nil
}

// staticAttribute returns the node of a literal attribute. Values with
// `${...}` expressions become dynamic attributes.
func (b *Builder) staticAttribute(raw *ml_parser.RawAttribute) (ir.Node, error) {
	if !raw.HasValue() || !strings.Contains(raw.Value.Value, "$") {
		return &ir.Text{Value: raw.String()}, nil
	}
	parts, dynamic, err := b.parts(raw.Value)
	if err != nil {
		return nil, err
	}
	if !dynamic {
		attr := literalAttribute(raw)
		var sb strings.Builder
		for _, part := range parts {
			sb.WriteString(part.Literal)
		}
		attr.Value = &ir.Literal{Text: sb.String()}
		return attr, nil
	}
	return &ir.Attribute{
		Name:    raw.Name.Value,
		Value:   &ir.Interpolated{Token: raw.Value, Parts: parts},
		Space:   raw.Space,
		Eq:      raw.Eq,
		Quote:   raw.Quote,
		Boolean: ml_parser.IsBooleanAttribute(raw.Name.Value),
	}, nil
}

// literalAttribute turns a literal attribute into an Attribute node
// rendering the same text
func literalAttribute(raw *ml_parser.RawAttribute) *ir.Attribute {
	attr := &ir.Attribute{
		Name:  raw.Name.Value,
		Value: &ir.Literal{Text: raw.Value.Value},
		Space: raw.Space,
		Eq:    raw.Eq,
		Quote: raw.Quote,
	}
	if !raw.HasValue() {
		attr.Eq = "="
		attr.Quote = `"`
	}
	return attr
}

// macroCall builds the call of a use-macro or extend-macro clause
func (b *Builder) macroCall(tok ml_parser.Token, extend bool, slots []*ir.FillSlot) (ir.Node, error) {
	tok = tok.TrimSpace()
	if name, ok := internalMacroName(tok.Value); ok {
		call := &ir.UseInternalMacro{Name: name, Token: tok, Slots: slots, Extend: extend}
		b.calls = append(b.calls, call)
		return call, nil
	}
	expr, err := b.expression(tok)
	if err != nil {
		return nil, err
	}
	return &ir.UseExternalMacro{Expr: expr, Slots: slots, Extend: extend}, nil
}

// collectSlots gathers the fill-slots below node without entering nested
// macro calls or other fill-slots
func collectSlots(node ir.Node) []*ir.FillSlot {
	var slots []*ir.FillSlot
	ir.Walk(node, func(n ir.Node) bool {
		switch n := n.(type) {
		case *ir.FillSlot:
			slots = append(slots, n)
			return false
		case *ir.UseInternalMacro, *ir.UseExternalMacro:
			return false
		}
		return true
	})
	return slots
}

// wrap applies the control directives around the element content. The
// first wrapper applied ends up innermost, so at render time define-slot
// is entered first and the switch last; macro registration, the
// translation domain, i18n:name and on-error enclose all of them.
func (b *Builder) wrap(el *ml_parser.Element, ns directives, static []*ml_parser.Attribute, content ir.Node,
	whitespace string, caseSwitch, switchID int) (ir.Node, error) {
	tal, metal, i18n := ml_parser.TALNamespace, ml_parser.METALNamespace, ml_parser.I18NNamespace
	node := content

	if tok, ok := ns.get(tal, "switch"); ok {
		expr, err := b.expression(tok.TrimSpace())
		if err != nil {
			return nil, err
		}
		node = &ir.Switch{ID: switchID, Expr: expr, Body: node}
	}

	if tok, ok := ns.get(tal, "repeat"); ok {
		it, err := parseRepeat(tok)
		if err != nil {
			return nil, err
		}
		expr, err := b.expression(it.Expr)
		if err != nil {
			return nil, err
		}
		node = &ir.Repeat{Names: it.Names, Expr: expr, Body: node, Whitespace: whitespace}
	}

	if tok, ok := ns.get(tal, "condition"); ok {
		expr, err := b.expression(tok.TrimSpace())
		if err != nil {
			return nil, err
		}
		node = &ir.Condition{Test: expr, Then: node}
	}

	if tok, ok := ns.get(tal, "case"); ok {
		expr, err := b.expression(tok.TrimSpace())
		if err != nil {
			return nil, err
		}
		node = &ir.Case{Switch: caseSwitch, Value: expr, Body: node}
	}

	if tok, ok := ns.get(tal, "define"); ok {
		defines, err := parseDefines(tok)
		if err != nil {
			return nil, err
		}
		define := &ir.Define{Body: node}
		for _, d := range defines {
			expr, err := b.expression(d.Expr)
			if err != nil {
				return nil, err
			}
			define.Assignments = append(define.Assignments, &ir.Assignment{Names: d.Names, Expr: expr, Global: d.Global})
		}
		node = define
	}

	if tok, ok := ns.get(metal, "define-slot"); ok {
		node = &ir.DefineSlot{Name: strings.TrimSpace(tok.Value), Body: node}
	}

	if tok, ok := ns.get(metal, "fill-slot"); ok {
		node = &ir.FillSlot{Name: strings.TrimSpace(tok.Value), Body: node}
	}

	if tok, ok := ns.get(metal, "define-macro"); ok {
		name := strings.TrimSpace(tok.Value)
		if name == "" {
			return nil, util.NewLanguageError(tok.Span(), "Empty macro name")
		}
		if _, exists := b.macros[name]; exists {
			return nil, util.NewCompilationError(tok.Span(), fmt.Sprintf("Duplicate macro name %q", name))
		}
		macro := &ir.Macro{Name: name, Body: node}
		b.macros[name] = macro
		b.macroNames = append(b.macroNames, name)
		node = macro
	}

	if tok, ok := ns.get(i18n, "domain"); ok {
		node = &ir.Domain{Name: strings.TrimSpace(tok.Value), Body: node}
	}

	if tok, ok := ns.get(i18n, "name"); ok {
		node = &ir.Name{Name: strings.TrimSpace(tok.Value), Body: node}
	}

	if tok, ok := ns.get(tal, "on-error"); ok {
		fallback, err := b.fallback(el, static, tok)
		if err != nil {
			return nil, err
		}
		node = &ir.OnError{Body: node, Fallback: fallback}
	}

	return node, nil
}

// fallback builds the element rendered by tal:on-error: the literal start
// and end tags around the handler value
func (b *Builder) fallback(el *ml_parser.Element, static []*ml_parser.Attribute, tok ml_parser.Token) (ir.Node, error) {
	exprTok, structure := parseSubstitution(tok)
	expr, err := b.expression(exprTok)
	if err != nil {
		return nil, err
	}
	body := &ir.Content{Expr: expr, Structure: structure}
	if ml_parser.IsDirectiveNamespace(el.Namespace) {
		return body, nil
	}
	attrs := make([]ir.Node, len(static))
	for i, attr := range static {
		attrs[i] = &ir.Text{Value: attr.Raw.String()}
	}
	start := &ir.StartTag{Prefix: el.Start.Prefix, Name: el.Name(), Attributes: attrs, Suffix: el.Start.Suffix}
	var end ir.Node
	switch {
	case el.End != nil:
		end = &ir.Text{Value: el.End.String()}
	case el.IsSelfClosing():
		start.Suffix = ">"
		end = &ir.Text{Value: "</" + el.Name() + ">"}
	}
	return &ir.Element{Name: el.Name(), Start: start, Body: body, End: end}, nil
}
