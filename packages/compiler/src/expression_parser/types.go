package expression_parser

import (
	"fmt"
	"strings"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/runtime"
)

// compileString compiles `string:` expressions: literal text with `${...}`
// interpolation, producing a string
func compileString(e *Engine, source string) (Evaluator, error) {
	fragments, err := e.SplitInterpolation(source)
	if err != nil {
		return nil, err
	}
	parts := make([]Evaluator, len(fragments))
	for i, fragment := range fragments {
		if !fragment.Expression {
			value := fragment.Value
			parts[i] = EvaluatorFunc(func(*runtime.Scope) (any, error) { return value, nil })
			continue
		}
		if parts[i], err = e.Compile(fragment.Value); err != nil {
			return nil, err
		}
	}
	return EvaluatorFunc(func(scope *runtime.Scope) (any, error) {
		var sb strings.Builder
		for _, part := range parts {
			value, err := part.Evaluate(scope)
			if err != nil {
				return nil, err
			}
			sb.WriteString(runtime.Text(value))
		}
		return sb.String(), nil
	}), nil
}

// compileNot compiles `not:` expressions
func compileNot(e *Engine, source string) (Evaluator, error) {
	inner, err := e.Compile(source)
	if err != nil {
		return nil, err
	}
	return EvaluatorFunc(func(scope *runtime.Scope) (any, error) {
		value, err := inner.Evaluate(scope)
		if err != nil {
			return nil, err
		}
		return !runtime.Truthy(value), nil
	}), nil
}

// compileExists compiles `exists:` expressions. Lookup failures count as
// absence; any other error propagates.
func compileExists(e *Engine, source string) (Evaluator, error) {
	inner, err := e.Compile(source)
	if err != nil {
		return nil, err
	}
	return EvaluatorFunc(func(scope *runtime.Scope) (any, error) {
		_, err := inner.Evaluate(scope)
		if err == nil {
			return true, nil
		}
		if runtime.CanFallThrough(err) {
			return false, nil
		}
		return nil, err
	}), nil
}

// compileImport compiles `import:` expressions naming values registered
// with the compiler configuration
func compileImport(e *Engine, source string) (Evaluator, error) {
	name := strings.TrimSpace(source)
	value, ok := e.imports[name]
	if !ok {
		return nil, fmt.Errorf("no import registered as %q", name)
	}
	return EvaluatorFunc(func(*runtime.Scope) (any, error) { return value, nil }), nil
}

// compileStructure compiles `structure:` expressions; the result is
// inserted without escaping
func compileStructure(e *Engine, source string) (Evaluator, error) {
	inner, err := e.Compile(source)
	if err != nil {
		return nil, err
	}
	return EvaluatorFunc(func(scope *runtime.Scope) (any, error) {
		value, err := inner.Evaluate(scope)
		if err != nil {
			return nil, err
		}
		return Structure(value), nil
	}), nil
}

// Structure marks a value as markup. nil and the default marker pass
// through unchanged.
func Structure(value any) any {
	switch value.(type) {
	case nil, runtime.HTMLer:
		return value
	}
	if runtime.IsDefault(value) {
		return value
	}
	return runtime.Markup(runtime.Text(value))
}
