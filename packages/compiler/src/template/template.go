package template

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/codegen"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/config"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/expression_parser"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/ml_parser"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/program"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/runtime"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/util"
)

// Template is a template compiled on first use. Cooking is serialized; the
// cooked program is immutable and renders may run concurrently.
type Template struct {
	// Name is the loader name, used to resolve relative `load:` names
	Name     string
	Filename string

	cfg    *config.CompilerConfig
	cache  *Cache
	loader Loader
	engine *expression_parser.Engine

	mu      sync.Mutex
	source  string
	program atomic.Pointer[codegen.Program]
}

// Option configures a Template
type Option func(*Template)

// WithConfig sets the compiler configuration
func WithConfig(cfg *config.CompilerConfig) Option {
	return func(t *Template) {
		t.cfg = cfg
	}
}

// WithCache shares compiled programs through cache. Templates sharing a
// cache must use the same loader.
func WithCache(cache *Cache) Option {
	return func(t *Template) {
		t.cache = cache
	}
}

// WithLoader sets the loader used by the `load:` expression type
func WithLoader(loader Loader) Option {
	return func(t *Template) {
		t.loader = loader
	}
}

// New creates a new Template from source text
func New(filename, source string, opts ...Option) *Template {
	t := &Template{Name: filename, Filename: filename, source: source}
	for _, opt := range opts {
		opt(t)
	}
	if t.cfg == nil {
		t.cfg = config.NewCompilerConfig()
	}
	if t.cache == nil {
		t.cache = NewCache()
	}
	t.engine = expression_parser.NewEngine(t.cfg)
	t.engine.Register("load", t.compileLoad)
	return t
}

// Load creates a new Template from the source loader returns for name
func Load(loader Loader, name string, opts ...Option) (*Template, error) {
	src, err := loader.Load(name)
	if err != nil {
		return nil, err
	}
	t := New(src.Filename, src.Text, append([]Option{WithLoader(loader)}, opts...)...)
	t.Name = src.Name
	return t, nil
}

// Cook compiles the template unless it is compiled already
func (t *Template) Cook() (*codegen.Program, error) {
	if p := t.program.Load(); p != nil {
		return p, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if p := t.program.Load(); p != nil {
		return p, nil
	}
	key := Key(t.Filename, t.source, t.cfg)
	p, ok := t.cache.Get(key)
	if !ok {
		var err error
		if p, err = t.compile(); err != nil {
			return nil, err
		}
		t.cache.Put(key, p)
		t.cfg.Console.Log(fmt.Sprintf("cooked %s (%d macros)", t.Filename, len(p.MacroNames())))
	}
	t.program.Store(p)
	return p, nil
}

func (t *Template) compile() (*codegen.Program, error) {
	nodes, err := ml_parser.ParseSource(t.source, t.Filename)
	if err != nil {
		return nil, err
	}
	module, err := program.Build(nodes, t.Filename, t.source, t.engine)
	if err != nil {
		return nil, err
	}
	return codegen.Compile(module, t.engine, t.cfg)
}

// Invalidate drops the cooked program. The next render cooks again.
func (t *Template) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.program.Store(nil)
	t.cfg.Console.Log(fmt.Sprintf("invalidated %s", t.Filename))
}

// Reload replaces the source text and invalidates the template
func (t *Template) Reload(source string) {
	t.mu.Lock()
	t.source = source
	t.mu.Unlock()
	t.Invalidate()
}

// Macros returns the macro names of the template in document order
func (t *Template) Macros() ([]string, error) {
	p, err := t.Cook()
	if err != nil {
		return nil, err
	}
	return p.MacroNames(), nil
}

// Render renders the template with bindings
func (t *Template) Render(bindings map[string]any) (string, error) {
	return t.render(codegen.MainEntry, bindings)
}

// RenderMacro renders one macro of the template with bindings
func (t *Template) RenderMacro(name string, bindings map[string]any) (string, error) {
	return t.render(codegen.MainEntry+"_"+util.SanitizeIdentifier(name), bindings)
}

func (t *Template) render(entry string, bindings map[string]any) (string, error) {
	p, err := t.Cook()
	if err != nil {
		return "", err
	}
	fn, ok := p.Bind(t.cfg).Initialize(nil)[entry]
	if !ok {
		return "", &runtime.LookupError{Key: entry, Msg: fmt.Sprintf("%s has no entry point %q", t.Filename, entry)}
	}

	out := runtime.NewOutput()
	remote := runtime.NewRemote(nil)
	if _, err := fn(out, runtime.NewScope(bindings, remote), remote); err != nil {
		return "", t.templateError(err, remote, bindings)
	}
	return out.String(), nil
}

// templateError builds the error returned by a failed render from the
// innermost recorded failure and drains the error list
func (t *Template) templateError(err error, remote *runtime.Remote, bindings map[string]any) error {
	var info *runtime.ErrorInfo
	if errs := remote.Errors(); len(errs) > 0 {
		info = errs[0]
	}
	remote.TruncateErrors(0)

	var arguments map[string]any
	if t.cfg.Debug {
		arguments = map[string]any{}
		for name, value := range bindings {
			arguments[name] = value
		}
	}
	diagnostic := runtime.FormatDiagnostic(err, info, arguments)
	t.cfg.Console.Error(diagnostic)
	return &runtime.TemplateError{Diagnostic: diagnostic, Err: err}
}

// Include renders the whole template into out, making a Template usable as
// the target of metal:use-macro
func (t *Template) Include(out *runtime.Output, scope *runtime.Scope) error {
	p, err := t.Cook()
	if err != nil {
		return err
	}
	return p.Bind(t.cfg).Include(out, scope)
}

func (t *Template) String() string {
	return fmt.Sprintf("<template %s>", t.Filename)
}

// compileLoad compiles `load:` expressions, which evaluate to the program of
// another template of the same loader
func (t *Template) compileLoad(_ *expression_parser.Engine, source string) (expression_parser.Evaluator, error) {
	name := strings.TrimSpace(source)
	if name == "" {
		return nil, errors.New("empty template name")
	}
	return expression_parser.EvaluatorFunc(func(*runtime.Scope) (any, error) {
		return t.load(name)
	}), nil
}

func (t *Template) load(name string) (*codegen.Program, error) {
	if t.loader == nil {
		return nil, &runtime.LookupError{Key: name, Msg: fmt.Sprintf("cannot load %q without a loader", name)}
	}
	src, err := t.loader.Load(resolveName(name, t.Name))
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return nil, &runtime.LookupError{Key: name, Msg: err.Error()}
		}
		return nil, err
	}
	child := New(src.Filename, src.Text, WithConfig(t.cfg), WithCache(t.cache), WithLoader(t.loader))
	child.Name = src.Name
	return child.Cook()
}
