package expression_parser

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
	exprruntime "github.com/expr-lang/expr/vm/runtime"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/runtime"
)

// freeNames collects the identifiers an expression reads from its
// environment
type freeNames struct {
	names    map[string]bool
	declared map[string]bool
}

func (f *freeNames) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		f.names[n.Value] = true
	case *ast.VariableDeclaratorNode:
		f.declared[n.Name] = true
	}
}

func (f *freeNames) list() []string {
	var names []string
	for name := range f.names {
		if !f.declared[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// fetchFunction is the host function member access is routed through
const fetchFunction = "__fetch"

// memberLookups rewrites `a.b` and `a[k]` into fetchFunction calls, so a key
// missing from a map is a lookup failure rather than nil. Accesses inside an
// optional chain (`a?.b`) keep their nil short-circuit.
type memberLookups struct {
	rewritten map[*ast.CallNode]*ast.MemberNode
}

func (m *memberLookups) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.MemberNode:
		if n.Optional || n.Method {
			return
		}
		call := &ast.CallNode{
			Callee:    &ast.IdentifierNode{Value: fetchFunction},
			Arguments: []ast.Node{n.Node, n.Property},
		}
		m.rewritten[call] = n
		ast.Patch(node, call)
	case *ast.ChainNode:
		ast.Walk(&n.Node, &memberRestore{m.rewritten})
	}
}

// memberRestore undoes memberLookups below an optional chain
type memberRestore struct {
	rewritten map[*ast.CallNode]*ast.MemberNode
}

func (m *memberRestore) Visit(node *ast.Node) {
	call, ok := (*node).(*ast.CallNode)
	if !ok {
		return
	}
	if member, ok := m.rewritten[call]; ok {
		member.Node, member.Property = call.Arguments[0], call.Arguments[1]
		*node = member
	}
}

// fetch reads a member the way expr-lang does, except that a key missing
// from a map is a LookupError. Keys present with a nil value give nil.
func fetch(params ...any) (any, error) {
	from, key := params[0], params[1]
	v := reflect.ValueOf(from)
	if v.IsValid() && v.NumMethod() > 0 {
		if name, ok := key.(string); ok && v.MethodByName(name).IsValid() {
			return exprruntime.Fetch(from, key), nil
		}
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			break
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Map {
		k := reflect.ValueOf(key)
		if !k.IsValid() {
			k = reflect.Zero(v.Type().Key())
		}
		if k.Type().AssignableTo(v.Type().Key()) {
			if !v.MapIndex(k).IsValid() {
				return nil, &runtime.LookupError{Key: fmt.Sprint(key), Msg: fmt.Sprintf("no such key: %v", key)}
			}
		}
	}
	return exprruntime.Fetch(from, key), nil
}

// exprEvaluator runs an expr-lang program against the local variables of
// the render scope
type exprEvaluator struct {
	source  string
	program *vm.Program
	names   []string
}

func compileExpr(_ *Engine, source string) (Evaluator, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errors.New("empty expression")
	}
	tree, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	// `repeat` is the loop state of the template, not the string builtin
	program, err := expr.Compile(source,
		expr.AllowUndefinedVariables(),
		expr.DisableBuiltin("repeat"),
		expr.Function(fetchFunction, fetch),
		expr.Patch(&memberLookups{rewritten: map[*ast.CallNode]*ast.MemberNode{}}),
	)
	if err != nil {
		return nil, err
	}
	visitor := &freeNames{names: map[string]bool{}, declared: map[string]bool{}}
	ast.Walk(&tree.Node, visitor)
	return &exprEvaluator{source: source, program: program, names: visitor.list()}, nil
}

// Evaluate implements Evaluator
func (e *exprEvaluator) Evaluate(scope *runtime.Scope) (any, error) {
	for _, name := range e.names {
		if _, ok := scope.Lookup(name); !ok {
			return nil, &runtime.NameError{Name: name}
		}
	}
	value, err := expr.Run(e.program, scope.Vars())
	if err != nil {
		return nil, classifyError(err)
	}
	return value, nil
}

func (e *exprEvaluator) String() string {
	return e.source
}

var errorClasses = []struct {
	fragments []string
	wrap      func(err error) error
}{
	{
		fragments: []string{"cannot fetch", "cannot get", "index out of range", "out of bounds", "no such key"},
		wrap:      func(err error) error { return &runtime.LookupError{Msg: err.Error()} },
	},
	{
		fragments: []string{"invalid operation", "mismatched types", "cannot use", "interface conversion", "not callable", "cannot call", "invalid memory address", "cannot convert"},
		wrap:      func(err error) error { return &runtime.TypeError{Msg: err.Error()} },
	},
	{
		fragments: []string{"divide by zero", "invalid argument", "invalid syntax", "value out of range"},
		wrap:      func(err error) error { return &runtime.ValueError{Msg: err.Error()} },
	},
}

// classifyError maps expr-lang runtime failures onto the error kinds that
// pipe alternatives fall through on. Errors raised by host functions keep
// their identity.
func classifyError(err error) error {
	if runtime.CanFallThrough(err) {
		var nameErr *runtime.NameError
		var lookupErr *runtime.LookupError
		var typeErr *runtime.TypeError
		var valueErr *runtime.ValueError
		switch {
		case errors.As(err, &nameErr):
			return nameErr
		case errors.As(err, &lookupErr):
			return lookupErr
		case errors.As(err, &typeErr):
			return typeErr
		case errors.As(err, &valueErr):
			return valueErr
		}
	}
	msg := err.Error()
	for _, class := range errorClasses {
		for _, fragment := range class.fragments {
			if strings.Contains(msg, fragment) {
				return class.wrap(err)
			}
		}
	}
	return fmt.Errorf("expression failed: %w", err)
}
