package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/runtime"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/util"
)

// DefaultExpressionType is the expression type used when an expression
// carries no `type:` prefix
const DefaultExpressionType = "expr"

// CompilerConfig represents the compiler configuration. It is built once by
// the host application and passed to the template constructors; nothing in
// the compiler reads the process environment.
type CompilerConfig struct {
	DefaultExpression string
	Debug             bool
	BooleanAttributes bool
	TargetLanguage    string
	Domain            string
	Translate         runtime.TranslateFunc
	Imports           map[string]any
	Builtins          map[string]any
	Console           util.Console
}

// NewCompilerConfig creates a new CompilerConfig with optional parameters
func NewCompilerConfig(opts ...CompilerConfigOption) *CompilerConfig {
	config := &CompilerConfig{
		DefaultExpression: DefaultExpressionType,
		Debug:             false,
		BooleanAttributes: true,
		Imports:           map[string]any{},
		Builtins:          map[string]any{},
		Console:           util.NopConsole{},
	}

	for _, opt := range opts {
		opt(config)
	}

	return config
}

// CompilerConfigOption is a function that modifies CompilerConfig
type CompilerConfigOption func(*CompilerConfig)

// WithDefaultExpression sets the expression type used for unprefixed expressions
func WithDefaultExpression(name string) CompilerConfigOption {
	return func(c *CompilerConfig) {
		c.DefaultExpression = name
	}
}

// WithDebug enables the binding listing in render diagnostics
func WithDebug(debug bool) CompilerConfigOption {
	return func(c *CompilerConfig) {
		c.Debug = debug
	}
}

// WithBooleanAttributes sets whether HTML boolean attributes are rendered by
// presence (`checked="checked"`) or dropped on a false value
func WithBooleanAttributes(enabled bool) CompilerConfigOption {
	return func(c *CompilerConfig) {
		c.BooleanAttributes = enabled
	}
}

// WithTargetLanguage sets the default target language of translations
func WithTargetLanguage(language string) CompilerConfigOption {
	return func(c *CompilerConfig) {
		c.TargetLanguage = language
	}
}

// WithDomain sets the default translation domain
func WithDomain(domain string) CompilerConfigOption {
	return func(c *CompilerConfig) {
		c.Domain = domain
	}
}

// WithTranslate sets the translation hook
func WithTranslate(translate runtime.TranslateFunc) CompilerConfigOption {
	return func(c *CompilerConfig) {
		c.Translate = translate
	}
}

// WithImports registers values reachable through the `import:` expression type
func WithImports(imports map[string]any) CompilerConfigOption {
	return func(c *CompilerConfig) {
		for name, value := range imports {
			c.Imports[name] = value
		}
	}
}

// WithBuiltins registers names bound in every render scope
func WithBuiltins(builtins map[string]any) CompilerConfigOption {
	return func(c *CompilerConfig) {
		for name, value := range builtins {
			c.Builtins[name] = value
		}
	}
}

// WithConsole sets the console used for compiler and render logging
func WithConsole(console util.Console) CompilerConfigOption {
	return func(c *CompilerConfig) {
		if console == nil {
			console = util.NopConsole{}
		}
		c.Console = console
	}
}

// Fingerprint returns a string identifying the settings that change the
// compiled program. Two configurations with equal fingerprints may share
// compiled programs; the render settings (language, domain, translation
// hook, builtins, console) are bound per template with Program.Bind.
func (c *CompilerConfig) Fingerprint() string {
	names := make([]string, 0, len(c.Imports))
	for name := range c.Imports {
		names = append(names, name)
	}
	sort.Strings(names)
	imports := strings.Join(names, ",")
	if len(names) > 0 {
		imports += fmt.Sprintf("@%p", c.Imports)
	}
	return fmt.Sprintf("expr=%s;bool=%t;imports=%s", c.DefaultExpression, c.BooleanAttributes, imports)
}
