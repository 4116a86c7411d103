package expression_parser

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/config"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/ml_parser"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/runtime"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/util"
)

// Evaluator is a compiled expression
type Evaluator interface {
	Evaluate(scope *runtime.Scope) (any, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface
type EvaluatorFunc func(scope *runtime.Scope) (any, error)

// Evaluate implements Evaluator
func (f EvaluatorFunc) Evaluate(scope *runtime.Scope) (any, error) {
	return f(scope)
}

// CompilerFunc compiles the source of one expression type
type CompilerFunc func(engine *Engine, source string) (Evaluator, error)

type expressionType struct {
	compile    CompilerFunc
	splitPipes bool
}

var typePrefixRegexp = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9_.-]*):`)

// Engine compiles template expressions. It maps `type:` prefixes to
// compilers and falls back to the default type for unprefixed source.
// Compiled evaluators are immutable and cached by source.
type Engine struct {
	types       map[string]*expressionType
	defaultType string
	imports     map[string]any

	mu    sync.Mutex
	cache map[string]Evaluator
}

// NewEngine creates a new Engine with the built-in expression types
func NewEngine(cfg *config.CompilerConfig) *Engine {
	if cfg == nil {
		cfg = config.NewCompilerConfig()
	}
	e := &Engine{
		types:       map[string]*expressionType{},
		defaultType: cfg.DefaultExpression,
		imports:     cfg.Imports,
		cache:       map[string]Evaluator{},
	}
	e.RegisterPiped("expr", compileExpr)
	e.RegisterPiped("path", compilePath)
	e.Register("string", compileString)
	e.Register("not", compileNot)
	e.Register("exists", compileExists)
	e.Register("import", compileImport)
	e.Register("structure", compileStructure)
	return e
}

// Register registers an expression type that receives the rest of the
// expression, pipes included
func (e *Engine) Register(name string, compile CompilerFunc) {
	e.register(name, compile, false)
}

// RegisterPiped registers an expression type whose source is split into
// `|` alternatives
func (e *Engine) RegisterPiped(name string, compile CompilerFunc) {
	e.register(name, compile, true)
}

func (e *Engine) register(name string, compile CompilerFunc, splitPipes bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.types[name] = &expressionType{compile: compile, splitPipes: splitPipes}
	e.cache = map[string]Evaluator{}
}

// DefaultType returns the type used for unprefixed expressions
func (e *Engine) DefaultType() string {
	return e.defaultType
}

func (e *Engine) lookupType(name string) (*expressionType, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.types[name]
	return t, ok
}

// splitType separates a registered `type:` prefix from the source. It
// returns the default type when there is no such prefix.
func (e *Engine) splitType(source string) (string, string, bool) {
	if m := typePrefixRegexp.FindStringSubmatch(source); m != nil {
		if _, ok := e.lookupType(m[1]); ok {
			return m[1], source[len(m[0]):], true
		}
	}
	return e.defaultType, source, false
}

// Compile compiles an expression
func (e *Engine) Compile(source string) (Evaluator, error) {
	e.mu.Lock()
	cached, ok := e.cache[source]
	e.mu.Unlock()
	if ok {
		return cached, nil
	}
	typ, body, _ := e.splitType(source)
	evaluator, err := e.CompileType(typ, body)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.cache[source] = evaluator
	e.mu.Unlock()
	return evaluator, nil
}

// CompileToken compiles the expression held by a template token. Failures
// are reported as expression errors pointing at the token.
func (e *Engine) CompileToken(tok ml_parser.Token) (Evaluator, error) {
	evaluator, err := e.Compile(tok.Value)
	if err != nil {
		return nil, util.NewExpressionError(tok.Span(), "Invalid expression", err)
	}
	return evaluator, nil
}

// Check reports whether source compiles
func (e *Engine) Check(source string) error {
	_, err := e.Compile(source)
	return err
}

// CompileType compiles source as an expression of the given type
func (e *Engine) CompileType(name, source string) (Evaluator, error) {
	typ, ok := e.lookupType(name)
	if !ok {
		return nil, fmt.Errorf("unknown expression type %q", name)
	}
	if !typ.splitPipes {
		return typ.compile(e, source)
	}
	return e.compileAlternatives(typ, source)
}

// compileAlternatives compiles `a | b | c` into an evaluator that tries each
// alternative in turn. A segment that fails to compile is joined with the
// one after it, so `|` inside an expression survives.
func (e *Engine) compileAlternatives(first *expressionType, source string) (Evaluator, error) {
	parts := splitPipes(source)
	var alternatives []Evaluator
	typ := first
	for len(parts) > 0 {
		if len(alternatives) > 0 {
			name, body, prefixed := e.splitType(parts[0])
			typ, _ = e.lookupType(name)
			if typ == nil {
				return nil, fmt.Errorf("unknown expression type %q", name)
			}
			if prefixed && !typ.splitPipes {
				rest := strings.Join(append([]string{body}, parts[1:]...), "|")
				evaluator, err := typ.compile(e, rest)
				if err != nil {
					return nil, err
				}
				alternatives = append(alternatives, evaluator)
				break
			}
			parts[0] = body
		}

		var evaluator Evaluator
		var err error
		n := 1
		for ; n <= len(parts); n++ {
			evaluator, err = typ.compile(e, strings.Join(parts[:n], "|"))
			if err == nil {
				break
			}
		}
		if err != nil {
			return nil, err
		}
		alternatives = append(alternatives, evaluator)
		parts = parts[n:]
	}

	if len(alternatives) == 1 {
		return alternatives[0], nil
	}
	return EvaluatorFunc(func(scope *runtime.Scope) (any, error) {
		var err error
		for _, alternative := range alternatives {
			var value any
			value, err = alternative.Evaluate(scope)
			if err == nil {
				return value, nil
			}
			if !runtime.CanFallThrough(err) {
				return nil, err
			}
		}
		return nil, err
	}), nil
}
