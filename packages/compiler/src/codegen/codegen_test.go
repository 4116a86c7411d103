package codegen_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/codegen"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/config"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/expression_parser"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/ml_parser"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/program"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/runtime"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/util"
)

func compile(t *testing.T, source string, cfg *config.CompilerConfig) *codegen.Program {
	t.Helper()
	engine := expression_parser.NewEngine(cfg)
	nodes, err := ml_parser.ParseSource(source, "test.pt")
	if err != nil {
		t.Fatalf("ParseSource() unexpected error: %v", err)
	}
	module, err := program.Build(nodes, "test.pt", source, engine)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	p, err := codegen.Compile(module, engine, cfg)
	if err != nil {
		t.Fatalf("Compile() unexpected error: %v", err)
	}
	return p
}

func renderProgram(p *codegen.Program, entry string, vars map[string]any) (string, *runtime.Scope, error) {
	out := runtime.NewOutput()
	scope := runtime.NewScope(vars, nil)
	_, err := p.Initialize(nil)[entry](out, scope, nil)
	return out.String(), scope, err
}

func render(t *testing.T, source string, vars map[string]any, opts ...config.CompilerConfigOption) string {
	t.Helper()
	result, _, err := renderProgram(compile(t, source, config.NewCompilerConfig(opts...)), codegen.MainEntry, vars)
	if err != nil {
		t.Fatalf("render() unexpected error: %v", err)
	}
	return result
}

func TestRender(t *testing.T) {
	cases := []struct {
		name     string
		source   string
		vars     map[string]any
		expected string
	}{
		{
			name:     "should escape content",
			source:   `<p tal:content="name">Hi</p>`,
			vars:     map[string]any{"name": "<World> & co"},
			expected: `<p>&lt;World&gt; &amp; co</p>`,
		},
		{
			name:     "should keep the original content on default",
			source:   `<p tal:content="default">Hi</p>`,
			expected: `<p>Hi</p>`,
		},
		{
			name:     "should write nothing for nothing",
			source:   `<p tal:content="nothing">Hi</p>`,
			expected: `<p></p>`,
		},
		{
			name:     "should insert structure verbatim",
			source:   `<div><span tal:replace="structure x">a</span></div>`,
			vars:     map[string]any{"x": "<b>y</b>"},
			expected: `<div><b>y</b></div>`,
		},
		{
			name:     "should not escape markup values",
			source:   `<p>${x}</p>`,
			vars:     map[string]any{"x": runtime.Markup("<i>m</i>")},
			expected: `<p><i>m</i></p>`,
		},
		{
			name:     "should replace and drop attributes",
			source:   `<a href="#" class="c" tal:attributes="HREF url; title t">x</a>`,
			vars:     map[string]any{"url": "/a?b=1&c=2", "t": nil},
			expected: `<a href="/a?b=1&amp;c=2" class="c">x</a>`,
		},
		{
			name:     "should restore the template value on default",
			source:   `<a href="#" tal:attributes="href default">x</a>`,
			expected: `<a href="#">x</a>`,
		},
		{
			name:     "should interpolate attribute values",
			source:   `<a title="Hi ${name}!" class="${cls}">x</a>`,
			vars:     map[string]any{"name": `"Bob"`, "cls": false},
			expected: `<a title="Hi &quot;Bob&quot;!">x</a>`,
		},
		{
			name:     "should write mapped attributes in key order",
			source:   `<a id="x" tal:attributes="extra">x</a>`,
			vars:     map[string]any{"extra": map[string]any{"ID": "no", "title": "T", "data-n": 1, "hidden": nil}},
			expected: `<a id="x" data-n="1" title="T">x</a>`,
		},
		{
			name:     "should render boolean attributes by presence",
			source:   `<input type="checkbox" tal:attributes="checked on; disabled off" />`,
			vars:     map[string]any{"on": 1, "off": 0},
			expected: `<input type="checkbox" checked="checked" />`,
		},
		{
			name:     "should number repeated items",
			source:   `<ul><li tal:repeat="i items">${repeat.i.number}:${i}</li></ul>`,
			vars:     map[string]any{"items": []any{"a", "b"}},
			expected: `<ul><li>1:a</li><li>2:b</li></ul>`,
		},
		{
			name:     "should keep the indentation between repeated items",
			source:   "<ul>\n  <li tal:repeat=\"i items\">${i}</li>\n</ul>",
			vars:     map[string]any{"items": []any{1, 2, 3}},
			expected: "<ul>\n  <li>1</li>\n  <li>2</li>\n  <li>3</li>\n</ul>",
		},
		{
			name:     "should unpack repeated pairs",
			source:   `<p tal:repeat="(k, v) pairs">${k}=${v};</p>`,
			vars:     map[string]any{"pairs": []any{[]any{"a", 1}, []any{"b", 2}}},
			expected: `<p>a=1;</p><p>b=2;</p>`,
		},
		{
			name:     "should define before testing conditions",
			source:   `<p tal:define="x 2" tal:condition="x > 1">${x}</p><p tal:condition="false">no</p>`,
			expected: `<p>2</p>`,
		},
		{
			name:     "should scope local definitions",
			source:   `<div tal:define="x 'outer'"><p tal:define="x 'inner'">${x}</p>${x}</div>`,
			expected: `<div><p>inner</p>outer</div>`,
		},
		{
			name:     "should keep global definitions",
			source:   `<div><p tal:define="global g 'G'" />${g}</div>`,
			expected: `<div><p />G</div>`,
		},
		{
			name:     "should omit tags on a true condition",
			source:   `<div tal:omit-tag="flag">x</div><div tal:omit-tag="not flag">y</div>`,
			vars:     map[string]any{"flag": true},
			expected: `x<div>y</div>`,
		},
		{
			name:     "should render the first matching case",
			source:   `<div tal:switch="x"><p tal:case="1">one</p><p tal:case="2">two</p><p tal:case="default">other</p></div>`,
			vars:     map[string]any{"x": 2},
			expected: `<div><p>two</p></div>`,
		},
		{
			name:     "should fall back to the default case",
			source:   `<div tal:switch="x"><p tal:case="1">one</p><p tal:case="default">other</p></div>`,
			vars:     map[string]any{"x": 3},
			expected: `<div><p>other</p></div>`,
		},
		{
			name:     "should render the fallback of a failing element",
			source:   `<div><p class="x" tal:on-error="string:failed" tal:content="broken">d</p></div>`,
			expected: `<div><p class="x">failed</p></div>`,
		},
		{
			name:     "should bind the error in the fallback",
			source:   `<p tal:on-error="error" tal:content="broken">d</p>`,
			expected: `<p>name "broken" is not defined</p>`,
		},
		{
			name:     "should fill slots of internal macros",
			source:   `<div metal:define-macro="main"><p metal:define-slot="body">d</p></div><div metal:use-macro="macros.main"><p metal:fill-slot="body">f</p></div>`,
			expected: `<div><p>d</p></div><div><p>f</p></div>`,
		},
		{
			name:     "should render fill-slots in the scope of the macro",
			source:   `<div metal:define-macro="m" tal:define="who 'macro'"><b metal:define-slot="s">${who}</b></div><div metal:use-macro="macros.m"><i metal:fill-slot="s">${who}</i></div>`,
			vars:     map[string]any{"who": "caller"},
			expected: `<div><b>macro</b></div><div><i>macro</i></div>`,
		},
		{
			name:     "should translate messages with named parts",
			source:   `<p i18n:translate="">Hello <b i18n:name="who">${name}</b>!</p>`,
			vars:     map[string]any{"name": "Ann"},
			expected: `<p>Hello <b>Ann</b>!</p>`,
		},
		{
			name:     "should drop silent comments",
			source:   `<p><!--! hidden --><!-- shown -->x</p>`,
			expected: `<p><!-- shown -->x</p>`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.expected, render(t, tc.source, tc.vars)); diff != "" {
				t.Errorf("render() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRender_Options(t *testing.T) {
	t.Run("should write boolean attribute values when disabled", func(t *testing.T) {
		result := render(t, `<input tal:attributes="checked on" />`, map[string]any{"on": true},
			config.WithBooleanAttributes(false))
		if diff := cmp.Diff(`<input checked="true" />`, result); diff != "" {
			t.Errorf("render() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should render a bound program with its settings", func(t *testing.T) {
		p := compile(t, `<p>${target_language}</p>`, config.NewCompilerConfig(config.WithTargetLanguage("de")))
		bound := p.Bind(config.NewCompilerConfig(config.WithTargetLanguage("fr")))
		var results []string
		for _, prog := range []*codegen.Program{bound, p} {
			result, _, err := renderProgram(prog, codegen.MainEntry, nil)
			if err != nil {
				t.Fatalf("render() unexpected error: %v", err)
			}
			results = append(results, result)
		}
		if diff := cmp.Diff([]string{`<p>fr</p>`, `<p>de</p>`}, results); diff != "" {
			t.Errorf("render() mismatch (-want +got):\n%s", diff)
		}
		if p.Bind(nil) != p {
			t.Errorf("Bind(nil) returned a copy")
		}
	})

	t.Run("should bind the builtins of the bound settings", func(t *testing.T) {
		p := compile(t, `<p>${extra}</p>`, config.NewCompilerConfig())
		bound := p.Bind(config.NewCompilerConfig(config.WithBuiltins(map[string]any{"extra": "x"})))
		result, _, err := renderProgram(bound, codegen.MainEntry, nil)
		if err != nil {
			t.Fatalf("render() unexpected error: %v", err)
		}
		if diff := cmp.Diff(`<p>x</p>`, result); diff != "" {
			t.Errorf("render() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should pass messages through the translation hook", func(t *testing.T) {
		var calls []string
		translate := func(msgid, domain string, mapping map[string]string, lang, def string) string {
			calls = append(calls, domain+"|"+lang+"|"+msgid)
			if msgid == "Hello ${who}!" {
				return "Hallo ${who}!"
			}
			return ""
		}
		source := `<div i18n:domain="site"><p i18n:translate="">Hello <b i18n:name="who">${name}</b>!</p>` +
			`<img alt="Logo" i18n:attributes="alt" /></div>`
		result := render(t, source, map[string]any{"name": "Ann"},
			config.WithTranslate(translate), config.WithTargetLanguage("de"))
		expected := `<div><p>Hallo <b>Ann</b>!</p><img alt="Logo" /></div>`
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("render() mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"site|de|Hello ${who}!", "site|de|Logo"}, calls); diff != "" {
			t.Errorf("translate calls mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should keep the default text when the hook panics", func(t *testing.T) {
		translate := func(msgid, domain string, mapping map[string]string, lang, def string) string {
			panic("no catalog")
		}
		result := render(t, `<p i18n:translate="greeting">Hi  there</p>`, nil, config.WithTranslate(translate))
		if diff := cmp.Diff(`<p>Hi there</p>`, result); diff != "" {
			t.Errorf("render() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRender_Macros(t *testing.T) {
	layout := compile(t, `<html metal:define-macro="page"><title metal:define-slot="title">Default</title>`+
		`<body metal:define-slot="body" /></html>`, nil)

	t.Run("should list macros and entry points", func(t *testing.T) {
		if diff := cmp.Diff([]string{"page"}, layout.MacroNames()); diff != "" {
			t.Errorf("MacroNames() mismatch (-want +got):\n%s", diff)
		}
		entries := layout.Initialize(nil)
		_, hasMain := entries[codegen.MainEntry]
		_, hasPage := entries["render_page"]
		if !hasMain || !hasPage {
			t.Errorf("Initialize() = %v, want render and render_page", entries)
		}
	})

	t.Run("should render a macro entry point", func(t *testing.T) {
		result, _, err := renderProgram(layout, "render_page", nil)
		if err != nil {
			t.Fatalf("render() unexpected error: %v", err)
		}
		expected := `<html><title>Default</title><body /></html>`
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("render() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should use macros of other programs", func(t *testing.T) {
		page := compile(t, `<html metal:use-macro="layout.macros.page"><title metal:fill-slot="title">${title}</title></html>`, nil)
		result, _, err := renderProgram(page, codegen.MainEntry, map[string]any{"layout": layout, "title": "Mine"})
		if err != nil {
			t.Fatalf("render() unexpected error: %v", err)
		}
		expected := `<html><title>Mine</title><body /></html>`
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("render() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should pass the caller's slots through an extended macro", func(t *testing.T) {
		section := compile(t, `<html metal:define-macro="section" metal:extend-macro="layout.macros.page">`+
			`<title metal:fill-slot="title">Section</title><body metal:fill-slot="body">section body</body></html>`, nil)
		page := compile(t, `<html metal:use-macro="section.macros.section"><body metal:fill-slot="body">page body</body></html>`, nil)
		result, _, err := renderProgram(page, codegen.MainEntry, map[string]any{"layout": layout, "section": section})
		if err != nil {
			t.Fatalf("render() unexpected error: %v", err)
		}
		expected := `<html><title>Section</title><body>page body</body></html>`
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("render() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should merge global definitions made by a macro", func(t *testing.T) {
		lib := compile(t, `<i metal:define-macro="m" tal:define="global g 'set'" />`, nil)
		p := compile(t, `<b metal:use-macro="lib.macros.m" />${g}`, nil)
		result, _, err := renderProgram(p, codegen.MainEntry, map[string]any{"lib": lib})
		if err != nil {
			t.Fatalf("render() unexpected error: %v", err)
		}
		if diff := cmp.Diff(`<i />set`, result); diff != "" {
			t.Errorf("render() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should reject values that are not macros", func(t *testing.T) {
		p := compile(t, `<div metal:use-macro="layout" />`, nil)
		_, _, err := renderProgram(p, codegen.MainEntry, map[string]any{"layout": "page.pt"})
		var typeErr *runtime.TypeError
		if !errors.As(err, &typeErr) {
			t.Errorf("render() error = %v, want TypeError", err)
		}
	})
}

func TestRender_Errors(t *testing.T) {
	t.Run("should locate and record evaluation errors", func(t *testing.T) {
		p := compile(t, "<div>\n  <p tal:content=\"missing\">x</p>\n</div>", nil)
		_, scope, err := renderProgram(p, codegen.MainEntry, nil)
		var renderErr *runtime.RenderError
		if !errors.As(err, &renderErr) {
			t.Fatalf("render() error = %v, want RenderError", err)
		}
		var nameErr *runtime.NameError
		if !errors.As(err, &nameErr) {
			t.Errorf("render() error = %v, want NameError", err)
		}
		recorded := scope.Remote().Errors()
		type location struct {
			Expression string
			Filename   string
			Line       int
			Column     int
		}
		expected := []location{{"missing", "test.pt", 2, 19}}
		var result []location
		for _, info := range recorded {
			result = append(result, location{info.Expression, info.Filename, info.Line, info.Column})
		}
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("Errors() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should discard errors handled by on-error", func(t *testing.T) {
		p := compile(t, `<p tal:on-error="'x'" tal:content="missing" />`, nil)
		_, scope, err := renderProgram(p, codegen.MainEntry, nil)
		if err != nil {
			t.Fatalf("render() unexpected error: %v", err)
		}
		if n := len(scope.Remote().Errors()); n != 0 {
			t.Errorf("Errors() has %d entries, want 0", n)
		}
	})

	t.Run("should reject colliding macro entry points", func(t *testing.T) {
		source := `<a metal:define-macro="a-b" /><b metal:define-macro="a_b" />`
		engine := expression_parser.NewEngine(nil)
		nodes, err := ml_parser.ParseSource(source, "test.pt")
		if err != nil {
			t.Fatalf("ParseSource() unexpected error: %v", err)
		}
		module, err := program.Build(nodes, "test.pt", source, engine)
		if err != nil {
			t.Fatalf("Build() unexpected error: %v", err)
		}
		_, err = codegen.Compile(module, engine, nil)
		if !util.IsKind(err, util.ErrorKindCompilation) {
			t.Errorf("Compile() error = %v, want a compilation error", err)
		}
	})
}

func TestRender_Idempotent(t *testing.T) {
	p := compile(t, `<ul><li tal:repeat="i items" tal:content="i" /></ul>`, nil)
	vars := map[string]any{"items": []any{"x", "y"}}
	first, _, err := renderProgram(p, codegen.MainEntry, vars)
	if err != nil {
		t.Fatalf("render() unexpected error: %v", err)
	}
	second, _, err := renderProgram(p, codegen.MainEntry, vars)
	if err != nil {
		t.Fatalf("render() unexpected error: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("render() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(`<ul><li>x</li><li>y</li></ul>`, first); diff != "" {
		t.Errorf("render() mismatch (-want +got):\n%s", diff)
	}
}
