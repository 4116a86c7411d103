package codegen

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/expression_parser"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/ir"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/ml_parser"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/runtime"
)

type renderFunc func(f *frame) error

type valueFunc func(f *frame) (any, error)

func nop(*frame) error { return nil }

// compiledExpr is an expression with the location reported when it fails
type compiledExpr struct {
	expr      *ir.Expr
	evaluator expression_parser.Evaluator
	info      runtime.ErrorInfo
}

// evaluate returns the cached value of the expression, if any, and
// otherwise evaluates it
func (e *compiledExpr) evaluate(f *frame) (any, error) {
	if value, ok := f.cache[e.expr]; ok {
		return value, nil
	}
	return e.evaluateFresh(f)
}

func (e *compiledExpr) evaluateFresh(f *frame) (any, error) {
	value, err := e.evaluator.Evaluate(f.scope)
	if err != nil {
		return nil, f.fail(e, err)
	}
	return value, nil
}

// compiler lowers IR nodes into render closures
type compiler struct {
	program  *Program
	module   *ir.Module
	compiler ExpressionCompiler
	exprs    map[*ir.Expr]*compiledExpr
}

func newCompiler(p *Program, module *ir.Module, c ExpressionCompiler) *compiler {
	return &compiler{program: p, module: module, compiler: c, exprs: map[*ir.Expr]*compiledExpr{}}
}

func (c *compiler) expr(e *ir.Expr) (*compiledExpr, error) {
	if compiled, ok := c.exprs[e]; ok {
		return compiled, nil
	}
	evaluator, err := c.compiler.CompileToken(e.Token)
	if err != nil {
		return nil, err
	}
	line, col := e.Token.Location()
	source := e.Token.Source
	if source == "" {
		source = c.module.Source
	}
	compiled := &compiledExpr{expr: e, evaluator: evaluator, info: runtime.ErrorInfo{
		Expression: e.Source,
		Filename:   c.module.Filename,
		Line:       line,
		Column:     col,
		Source:     source,
		Offset:     e.Token.Pos,
	}}
	c.exprs[e] = compiled
	return compiled, nil
}

func (c *compiler) all(nodes ...ir.Node) ([]renderFunc, error) {
	fns := make([]renderFunc, len(nodes))
	for i, node := range nodes {
		fn, err := c.compile(node)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}
	return fns, nil
}

func (c *compiler) compile(node ir.Node) (renderFunc, error) {
	switch n := node.(type) {
	case nil:
		return nop, nil
	case *ir.Sequence:
		return c.sequence(n.Nodes)
	case *ir.Text:
		value := n.Value
		return func(f *frame) error {
			f.out.Append(value)
			return nil
		}, nil
	case *ir.Interpolation:
		return c.interpolation(n)
	case *ir.Element:
		return c.sequence([]ir.Node{n.Start, n.Body, n.End})
	case *ir.StartTag:
		return c.startTag(n)
	case *ir.Attribute:
		return c.attribute(n)
	case *ir.AttributeMap:
		return c.attributeMap(n)
	case *ir.Condition:
		return c.condition(n)
	case *ir.Repeat:
		return c.repeat(n)
	case *ir.Define:
		return c.define(n)
	case *ir.Cache:
		return c.cache(n)
	case *ir.Content:
		return c.content(n)
	case *ir.Translate:
		return c.translate(n)
	case *ir.Name:
		return c.name(n)
	case *ir.Domain:
		return c.domain(n)
	case *ir.OnError:
		return c.onError(n)
	case *ir.Macro:
		return c.compile(n.Body)
	case *ir.UseInternalMacro:
		return c.useMacro(n.Slots, n.Extend, func(f *frame) (any, error) {
			return f.program.Macros[n.Name], nil
		})
	case *ir.UseExternalMacro:
		e, err := c.expr(n.Expr)
		if err != nil {
			return nil, err
		}
		return c.useMacro(n.Slots, n.Extend, func(f *frame) (any, error) {
			value, err := e.evaluate(f)
			if err != nil {
				return nil, err
			}
			if _, ok := value.(runtime.Macro); !ok {
				return nil, f.fail(e, &runtime.TypeError{Msg: fmt.Sprintf("%T is not a macro", value)})
			}
			return value, nil
		})
	case *ir.FillSlot:
		return c.compile(n.Body)
	case *ir.DefineSlot:
		return c.defineSlot(n)
	case *ir.Switch:
		return c.switchNode(n)
	case *ir.Case:
		return c.caseNode(n)
	case *ir.Omitted:
		return nop, nil
	case *ir.Module:
		return c.compile(n.Body)
	}
	return nil, fmt.Errorf("unsupported node %T", node)
}

func (c *compiler) sequence(nodes []ir.Node) (renderFunc, error) {
	fns, err := c.all(nodes...)
	if err != nil {
		return nil, err
	}
	return func(f *frame) error {
		for _, fn := range fns {
			if err := fn(f); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

// value compiles an operand
func (c *compiler) value(value ir.Value) (valueFunc, error) {
	switch v := value.(type) {
	case *ir.Literal:
		text := v.Text
		return func(*frame) (any, error) { return text, nil }, nil
	case *ir.Expr:
		e, err := c.expr(v)
		if err != nil {
			return nil, err
		}
		return e.evaluate, nil
	case *ir.IsDefault:
		e, err := c.expr(v.Expr)
		if err != nil {
			return nil, err
		}
		return func(f *frame) (any, error) {
			value, err := e.evaluate(f)
			return runtime.IsDefault(value), err
		}, nil
	case *ir.Not:
		inner, err := c.value(v.Value)
		if err != nil {
			return nil, err
		}
		return func(f *frame) (any, error) {
			value, err := inner(f)
			return !runtime.Truthy(value), err
		}, nil
	case *ir.Interpolated:
		return c.interpolated(v, `"`)
	}
	return nil, fmt.Errorf("unsupported value %T", value)
}

func (c *compiler) interpolation(n *ir.Interpolation) (renderFunc, error) {
	type part struct {
		literal string
		expr    *compiledExpr
	}
	parts := make([]part, len(n.Parts))
	for i, p := range n.Parts {
		parts[i].literal = p.Literal
		if p.Expr != nil {
			e, err := c.expr(p.Expr)
			if err != nil {
				return nil, err
			}
			parts[i].expr = e
		}
	}
	return func(f *frame) error {
		for _, p := range parts {
			if p.expr == nil {
				f.out.Append(p.literal)
				continue
			}
			value, err := p.expr.evaluate(f)
			if err != nil {
				return err
			}
			if value == nil || runtime.IsDefault(value) {
				continue
			}
			f.out.Append(runtime.Content(value))
		}
		return nil
	}, nil
}

// interpolated compiles an attribute value with `${...}` parts. A value made
// of one expression keeps the type of its result so that nil and false can
// drop the attribute; anything else becomes markup with escaped results.
func (c *compiler) interpolated(v *ir.Interpolated, quote string) (valueFunc, error) {
	if len(v.Parts) == 1 && v.Parts[0].Expr != nil {
		e, err := c.expr(v.Parts[0].Expr)
		if err != nil {
			return nil, err
		}
		return e.evaluate, nil
	}
	exprs := make([]*compiledExpr, len(v.Parts))
	for i, p := range v.Parts {
		if p.Expr == nil {
			continue
		}
		e, err := c.expr(p.Expr)
		if err != nil {
			return nil, err
		}
		exprs[i] = e
	}
	parts := v.Parts
	return func(f *frame) (any, error) {
		var sb strings.Builder
		for i, p := range parts {
			if exprs[i] == nil {
				sb.WriteString(p.Literal)
				continue
			}
			value, err := exprs[i].evaluate(f)
			if err != nil {
				return nil, err
			}
			if value == nil || runtime.IsDefault(value) {
				continue
			}
			sb.WriteString(runtime.AttributeContent(value, quote))
		}
		return runtime.Markup(sb.String()), nil
	}, nil
}

func (c *compiler) startTag(n *ir.StartTag) (renderFunc, error) {
	attrs, err := c.all(n.Attributes...)
	if err != nil {
		return nil, err
	}
	open := n.Prefix + n.Name
	suffix := n.Suffix
	return func(f *frame) error {
		f.out.Append(open)
		for _, attr := range attrs {
			if err := attr(f); err != nil {
				return err
			}
		}
		f.out.Append(suffix)
		return nil
	}, nil
}

func (c *compiler) attribute(n *ir.Attribute) (renderFunc, error) {
	var value valueFunc
	var err error
	switch v := n.Value.(type) {
	case *ir.Literal:
		text := runtime.Markup(v.Text)
		value = func(*frame) (any, error) { return text, nil }
	case *ir.Interpolated:
		value, err = c.interpolated(v, n.Quote)
	default:
		value, err = c.value(n.Value)
	}
	if err != nil {
		return nil, err
	}
	booleans := n.Boolean && c.program.config.BooleanAttributes
	prefix := n.Space + n.Name + n.Eq + n.Quote
	return func(f *frame) error {
		result, err := value(f)
		if err != nil {
			return err
		}
		if runtime.IsDefault(result) {
			if n.Default != nil {
				f.out.Append(prefix + *n.Default + n.Quote)
			}
			return nil
		}
		if result == nil || result == false {
			return nil
		}
		if booleans {
			if !runtime.Truthy(result) {
				return nil
			}
			result = runtime.Markup(n.Name)
		}
		if n.Translate {
			result = translateValue(f, n.Msgid, result)
		}
		f.out.Append(prefix + runtime.AttributeContent(result, n.Quote) + n.Quote)
		return nil
	}, nil
}

// translateValue translates the text of value. Markup stays markup.
func translateValue(f *frame, msgid string, value any) any {
	text := runtime.Text(value)
	if msgid == "" {
		msgid = text
	}
	if msgid == "" {
		return value
	}
	translated := f.translate(msgid, nil, text)
	if _, ok := value.(runtime.HTMLer); ok {
		return runtime.Markup(translated)
	}
	return translated
}

func (c *compiler) attributeMap(n *ir.AttributeMap) (renderFunc, error) {
	e, err := c.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	exclude := make(map[string]bool, len(n.Exclude))
	for _, name := range n.Exclude {
		exclude[name] = true
	}
	booleans := c.program.config.BooleanAttributes
	return func(f *frame) error {
		value, err := e.evaluate(f)
		if err != nil {
			return err
		}
		entries, err := mapEntries(value)
		if err != nil {
			return f.fail(e, err)
		}
		for _, entry := range entries {
			if exclude[strings.ToLower(entry.name)] || entry.value == nil || entry.value == false {
				continue
			}
			result := entry.value
			if booleans && ml_parser.IsBooleanAttribute(entry.name) {
				if !runtime.Truthy(result) {
					continue
				}
				result = runtime.Markup(entry.name)
			}
			f.out.Append(" " + entry.name + `="` + runtime.AttributeContent(result, `"`) + `"`)
		}
		return nil
	}, nil
}

type mapEntry struct {
	name  string
	value any
}

// mapEntries returns the entries of a string-keyed map sorted by key
func mapEntries(value any) ([]mapEntry, error) {
	if value == nil {
		return nil, nil
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return nil, &runtime.TypeError{Msg: fmt.Sprintf("attributes must be a mapping, not %T", value)}
	}
	entries := make([]mapEntry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		entries = append(entries, mapEntry{name: iter.Key().String(), value: iter.Value().Interface()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries, nil
}

func (c *compiler) condition(n *ir.Condition) (renderFunc, error) {
	test, err := c.value(n.Test)
	if err != nil {
		return nil, err
	}
	then, err := c.compile(n.Then)
	if err != nil {
		return nil, err
	}
	otherwise, err := c.compile(n.Else)
	if err != nil {
		return nil, err
	}
	return func(f *frame) error {
		value, err := test(f)
		if err != nil {
			return err
		}
		if runtime.Truthy(value) {
			return then(f)
		}
		return otherwise(f)
	}, nil
}

func (c *compiler) repeat(n *ir.Repeat) (renderFunc, error) {
	e, err := c.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	body, err := c.compile(n.Body)
	if err != nil {
		return nil, err
	}
	names := n.Names
	whitespace := n.Whitespace
	return func(f *frame) error {
		source, err := e.evaluate(f)
		if err != nil {
			return err
		}
		iterator, err := runtime.Iterate(source, len(names) > 1)
		if err != nil {
			return f.fail(e, err)
		}
		item := runtime.NewRepeatItem(iterator)
		dict := f.repeatDict()
		previous, had := dict[names[0]]
		dict[names[0]] = item
		defer func() {
			if had {
				dict[names[0]] = previous
			} else {
				delete(dict, names[0])
			}
		}()

		for {
			value, ok := item.Next()
			if !ok {
				return nil
			}
			values := []any{value}
			if len(names) > 1 {
				if values, err = runtime.Unpack(value, len(names)); err != nil {
					return f.fail(e, err)
				}
			}
			restores := make([]func(), len(names))
			for i, name := range names {
				restores[i] = f.scope.Bind(name, values[i])
			}
			err := body(f)
			for i := len(restores) - 1; i >= 0; i-- {
				restores[i]()
			}
			if err != nil {
				return err
			}
			if !item.End && whitespace != "" {
				f.out.Append(whitespace)
			}
		}
	}, nil
}

func (c *compiler) define(n *ir.Define) (renderFunc, error) {
	type assignment struct {
		names  []string
		expr   *compiledExpr
		global bool
	}
	assignments := make([]assignment, len(n.Assignments))
	for i, a := range n.Assignments {
		e, err := c.expr(a.Expr)
		if err != nil {
			return nil, err
		}
		assignments[i] = assignment{names: a.Names, expr: e, global: a.Global}
	}
	body, err := c.compile(n.Body)
	if err != nil {
		return nil, err
	}
	return func(f *frame) error {
		var restores []func()
		defer func() {
			for i := len(restores) - 1; i >= 0; i-- {
				restores[i]()
			}
		}()
		for _, a := range assignments {
			value, err := a.expr.evaluateFresh(f)
			if err != nil {
				return err
			}
			values := []any{value}
			if len(a.names) > 1 {
				if values, err = runtime.Unpack(value, len(a.names)); err != nil {
					return f.fail(a.expr, err)
				}
			}
			for i, name := range a.names {
				if a.global {
					f.scope.SetGlobal(name, values[i])
				} else {
					restores = append(restores, f.scope.Bind(name, values[i]))
				}
			}
		}
		return body(f)
	}, nil
}

func (c *compiler) cache(n *ir.Cache) (renderFunc, error) {
	exprs := make([]*compiledExpr, len(n.Exprs))
	for i, expr := range n.Exprs {
		e, err := c.expr(expr)
		if err != nil {
			return nil, err
		}
		exprs[i] = e
	}
	body, err := c.compile(n.Body)
	if err != nil {
		return nil, err
	}
	return func(f *frame) error {
		type saved struct {
			value any
			had   bool
		}
		previous := make([]saved, len(exprs))
		defer func() {
			for i, e := range exprs {
				if previous[i].had {
					f.cache[e.expr] = previous[i].value
				} else {
					delete(f.cache, e.expr)
				}
			}
		}()
		for i, e := range exprs {
			value, err := e.evaluateFresh(f)
			if err != nil {
				return err
			}
			previous[i].value, previous[i].had = f.cache[e.expr]
			f.cache[e.expr] = value
		}
		return body(f)
	}, nil
}

func (c *compiler) content(n *ir.Content) (renderFunc, error) {
	e, err := c.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	structure, translate := n.Structure, n.Translate
	return func(f *frame) error {
		value, err := e.evaluate(f)
		if err != nil {
			return err
		}
		if value == nil || runtime.IsDefault(value) {
			return nil
		}
		if translate {
			value = translateValue(f, "", value)
		}
		if structure {
			f.out.Append(runtime.Text(value))
		} else {
			f.out.Append(runtime.Content(value))
		}
		return nil
	}, nil
}

// translate renders the body into a message with `${name}` placeholders
// for its named sub-messages and writes the translation
func (c *compiler) translate(n *ir.Translate) (renderFunc, error) {
	body, err := c.compile(n.Body)
	if err != nil {
		return nil, err
	}
	msgid := n.Msgid
	return func(f *frame) error {
		state := &translation{mapping: map[string]string{}}
		out, outer := f.out, f.translation
		f.out, f.translation = runtime.NewOutput(), state
		err := body(f)
		message := f.out.String()
		f.out, f.translation = out, outer
		if err != nil {
			return err
		}
		text := normalize(message)
		id := msgid
		if id == "" {
			id = text
		}
		if id == "" {
			return nil
		}
		f.out.Append(f.translate(id, state.mapping, text))
		return nil
	}, nil
}

func (c *compiler) name(n *ir.Name) (renderFunc, error) {
	body, err := c.compile(n.Body)
	if err != nil {
		return nil, err
	}
	name := n.Name
	return func(f *frame) error {
		state := f.translation
		if state == nil {
			return body(f)
		}
		out := f.out
		f.out, f.translation = runtime.NewOutput(), nil
		err := body(f)
		value := f.out.String()
		f.out, f.translation = out, state
		if err != nil {
			return err
		}
		state.mapping[name] = value
		f.out.Append("${" + name + "}")
		return nil
	}, nil
}

func (c *compiler) domain(n *ir.Domain) (renderFunc, error) {
	body, err := c.compile(n.Body)
	if err != nil {
		return nil, err
	}
	domain := n.Name
	return func(f *frame) error {
		outer := f.domain
		f.domain = domain
		defer func() { f.domain = outer }()
		return body(f)
	}, nil
}

// onError renders the body; on failure its partial output and recorded
// errors are discarded and the fallback is rendered with `error` bound
func (c *compiler) onError(n *ir.OnError) (renderFunc, error) {
	body, err := c.compile(n.Body)
	if err != nil {
		return nil, err
	}
	fallback, err := c.compile(n.Fallback)
	if err != nil {
		return nil, err
	}
	return func(f *frame) error {
		mark := f.out.Len()
		remote := f.scope.Remote()
		recorded := len(remote.Errors())
		err := body(f)
		if err == nil {
			return nil
		}
		f.out.Truncate(mark)
		remote.TruncateErrors(recorded)
		cause := err
		if renderErr, ok := err.(*runtime.RenderError); ok {
			cause = renderErr.Err
		}
		restore := f.scope.Bind("error", cause)
		defer restore()
		return fallback(f)
	}, nil
}

// useMacro renders a macro call. The macro runs in a copy of the scope that
// carries the fill-slots; global definitions it makes are merged back.
func (c *compiler) useMacro(slots []*ir.FillSlot, extend bool, resolve valueFunc) (renderFunc, error) {
	type fill struct {
		name string
		body renderFunc
	}
	fills := make([]fill, len(slots))
	for i, slot := range slots {
		body, err := c.compile(slot.Body)
		if err != nil {
			return nil, err
		}
		fills[i] = fill{name: slot.Name, body: body}
	}
	return func(f *frame) error {
		value, err := resolve(f)
		if err != nil {
			return err
		}
		macro := value.(runtime.Macro)

		callerSlots := f.scope.Slots()
		provided := make(map[string]runtime.Slot, len(fills)+len(callerSlots))
		for _, fl := range fills {
			body := fl.body
			provided[fl.name] = func(out *runtime.Output, scope *runtime.Scope) error {
				return body(f.derive(out, scope.WithSlots(callerSlots)))
			}
		}
		if extend {
			for name, slot := range callerSlots {
				provided[name] = slot
			}
		}

		err = macro.Include(f.out, f.scope.WithSlots(provided))
		f.scope.Merge()
		return err
	}, nil
}

func (c *compiler) defineSlot(n *ir.DefineSlot) (renderFunc, error) {
	body, err := c.compile(n.Body)
	if err != nil {
		return nil, err
	}
	name := n.Name
	return func(f *frame) error {
		if slot, ok := f.scope.Slots()[name]; ok {
			return slot(f.out, f.scope)
		}
		return body(f)
	}, nil
}

func (c *compiler) switchNode(n *ir.Switch) (renderFunc, error) {
	e, err := c.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	body, err := c.compile(n.Body)
	if err != nil {
		return nil, err
	}
	id := n.ID
	return func(f *frame) error {
		value, err := e.evaluateFresh(f)
		if err != nil {
			return err
		}
		previous := f.switches[id]
		f.switches[id] = &switchState{value: value}
		defer func() { f.switches[id] = previous }()
		return body(f)
	}, nil
}

func (c *compiler) caseNode(n *ir.Case) (renderFunc, error) {
	var e *compiledExpr
	if n.Value != nil {
		var err error
		if e, err = c.expr(n.Value); err != nil {
			return nil, err
		}
	}
	body, err := c.compile(n.Body)
	if err != nil {
		return nil, err
	}
	id := n.Switch
	return func(f *frame) error {
		state := f.switches[id]
		if state == nil || state.matched {
			return nil
		}
		if e != nil {
			value, err := e.evaluate(f)
			if err != nil {
				return err
			}
			if !runtime.IsDefault(value) && !runtime.Equal(value, state.value) {
				return nil
			}
		}
		state.matched = true
		return body(f)
	}, nil
}
