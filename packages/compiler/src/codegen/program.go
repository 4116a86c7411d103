package codegen

import (
	"fmt"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/config"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/expression_parser"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/ir"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/ml_parser"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/runtime"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/util"
)

// ExpressionCompiler compiles the expressions of a module. The expression
// engine implements it.
type ExpressionCompiler interface {
	CompileToken(tok ml_parser.Token) (expression_parser.Evaluator, error)
}

// EntryPoint renders a program or one of its macros into out. econtext holds
// the caller's bindings and rcontext the render-wide store; a nil econtext
// starts from an empty scope over rcontext. The returned value is always
// nil; the rendered text is in out.
type EntryPoint func(out *runtime.Output, econtext *runtime.Scope, rcontext *runtime.Remote) (any, error)

// MainEntry is the name of the entry point rendering the whole template
const MainEntry = "render"

// Program is a compiled template. It is immutable and safe for concurrent
// use; every render gets its own scope.
type Program struct {
	Filename string
	Source   string
	// Macros maps the macro names of the template to includable macros
	Macros map[string]runtime.Macro `expr:"macros"`

	// config holds the compile settings and the render settings used when
	// no outer render supplies its own
	config     *config.CompilerConfig
	main       renderFunc
	bodies     map[string]renderFunc
	macroNames []string
	entryNames map[string]string
}

// Compile lowers a module into a Program
func Compile(module *ir.Module, compiler ExpressionCompiler, cfg *config.CompilerConfig) (*Program, error) {
	if cfg == nil {
		cfg = config.NewCompilerConfig()
	}
	p := &Program{
		Filename:   module.Filename,
		Source:     module.Source,
		Macros:     make(map[string]runtime.Macro, len(module.Macros)),
		config:     cfg,
		bodies:     make(map[string]renderFunc, len(module.Macros)),
		macroNames: module.MacroNames,
		entryNames: map[string]string{MainEntry: ""},
	}
	c := newCompiler(p, module, compiler)

	main, err := c.compile(module.Body)
	if err != nil {
		return nil, err
	}
	p.main = main

	for _, name := range module.MacroNames {
		entry := MainEntry + "_" + util.SanitizeIdentifier(name)
		if other, exists := p.entryNames[entry]; exists {
			return nil, util.NewCompilationError(nil,
				fmt.Sprintf("Macro names %q and %q both map to entry point %q", other, name, entry))
		}
		p.entryNames[entry] = name

		body, err := c.compile(module.Macros[name].Body)
		if err != nil {
			return nil, err
		}
		p.bodies[name] = body
		p.Macros[name] = &macroRef{program: p, name: name}
	}
	return p, nil
}

// settingsKey is the reserved remote key holding the settings of the
// current render. Programs included from other templates render with them.
const settingsKey = "__settings__"

// Bind returns a view of the program that renders with the translation
// settings, builtins and console of cfg. The compiled bodies are shared, so
// cfg must not differ in the settings that change the compiled program.
func (p *Program) Bind(cfg *config.CompilerConfig) *Program {
	if cfg == nil || cfg == p.config {
		return p
	}
	bound := *p
	bound.config = cfg
	return &bound
}

// settings returns the settings of the render scope belongs to
func (p *Program) settings(scope *runtime.Scope) *config.CompilerConfig {
	if value, ok := scope.Remote().Get(settingsKey); ok {
		if cfg, ok := value.(*config.CompilerConfig); ok {
			return cfg
		}
	}
	return p.config
}

// MacroNames returns the macro names in document order
func (p *Program) MacroNames() []string {
	return p.macroNames
}

// Initialize returns the entry points of the program: "render" for the whole
// template and "render_<name>" for every macro. builtins are bound in every
// scope that does not define them already.
func (p *Program) Initialize(builtins map[string]any) map[string]EntryPoint {
	entries := make(map[string]EntryPoint, len(p.entryNames))
	for entry, name := range p.entryNames {
		entries[entry] = p.entryPoint(name, builtins)
	}
	return entries
}

func (p *Program) entryPoint(name string, builtins map[string]any) EntryPoint {
	return func(out *runtime.Output, econtext *runtime.Scope, rcontext *runtime.Remote) (any, error) {
		if econtext == nil {
			econtext = runtime.NewScope(nil, rcontext)
		} else if rcontext != nil && econtext.Remote() != rcontext {
			econtext = runtime.NewScope(econtext.Vars(), rcontext)
		}
		if _, ok := econtext.Remote().Get(settingsKey); !ok {
			econtext.Remote().Set(settingsKey, p.config)
		}
		p.bind(econtext, builtins)
		return nil, p.include(name, out, econtext)
	}
}

// bind sets the names every render scope provides
func (p *Program) bind(scope *runtime.Scope, builtins map[string]any) {
	cfg := p.settings(scope)
	for name, value := range cfg.Builtins {
		setDefault(scope, name, value)
	}
	for name, value := range builtins {
		setDefault(scope, name, value)
	}
	setDefault(scope, "default", runtime.Default)
	setDefault(scope, "nothing", nil)
	setDefault(scope, "repeat", runtime.RepeatDict{})
	setDefault(scope, "template", p)
	setDefault(scope, "target_language", cfg.TargetLanguage)
	setDefault(scope, "translate", translateFunc(cfg))
}

func setDefault(scope *runtime.Scope, name string, value any) {
	if _, ok := scope.Lookup(name); !ok {
		scope.Set(name, value)
	}
}

// translateFunc returns the `translate(msgid)` function bound in templates
func translateFunc(cfg *config.CompilerConfig) func(string) string {
	return func(msgid string) string {
		result, err := runtime.SafeTranslate(cfg.Translate, msgid, cfg.Domain, nil, cfg.TargetLanguage, msgid)
		if err != nil {
			cfg.Console.Warn(err.Error())
		}
		return result
	}
}

// Include renders the whole template. It makes the program usable as the
// target of metal:use-macro.
func (p *Program) Include(out *runtime.Output, scope *runtime.Scope) error {
	return p.include("", out, scope)
}

func (p *Program) include(name string, out *runtime.Output, scope *runtime.Scope) error {
	body := p.main
	if name != "" {
		var ok bool
		if body, ok = p.bodies[name]; !ok {
			return &runtime.LookupError{Key: name, Msg: fmt.Sprintf("macro %q not found", name)}
		}
	}
	scope.Set("macros", p.Macros)
	return body(p.newFrame(out, scope))
}

// macroRef is a macro of a compiled program
type macroRef struct {
	program *Program
	name    string
}

// Include implements runtime.Macro
func (m *macroRef) Include(out *runtime.Output, scope *runtime.Scope) error {
	return m.program.include(m.name, out, scope)
}

func (m *macroRef) String() string {
	return fmt.Sprintf("<macro %q of %s>", m.name, m.program.Filename)
}
