package codegen

import (
	"errors"
	"strings"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/config"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/ir"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/runtime"
)

// frame is the state of one program body being rendered
type frame struct {
	program     *Program
	settings    *config.CompilerConfig
	out         *runtime.Output
	scope       *runtime.Scope
	cache       map[*ir.Expr]any
	switches    map[int]*switchState
	domain      string
	translation *translation
}

type switchState struct {
	value   any
	matched bool
}

// translation collects the named sub-messages of an i18n:translate block
type translation struct {
	mapping map[string]string
}

func (p *Program) newFrame(out *runtime.Output, scope *runtime.Scope) *frame {
	settings := p.settings(scope)
	return &frame{
		program:  p,
		settings: settings,
		out:      out,
		scope:    scope,
		cache:    map[*ir.Expr]any{},
		switches: map[int]*switchState{},
		domain:   settings.Domain,
	}
}

// derive returns a frame writing to out with scope, sharing the expression
// cache and switch state of f
func (f *frame) derive(out *runtime.Output, scope *runtime.Scope) *frame {
	d := *f
	d.out = out
	d.scope = scope
	d.translation = nil
	return &d
}

// fail records err in the render error list and wraps it with the
// location of the expression. Errors already located pass through.
func (f *frame) fail(e *compiledExpr, err error) error {
	var renderErr *runtime.RenderError
	if errors.As(err, &renderErr) {
		return err
	}
	info := e.info
	info.Err = err
	f.scope.Remote().RecordError(&info)
	return &runtime.RenderError{Info: &info, Err: err}
}

func (f *frame) repeatDict() runtime.RepeatDict {
	if value, ok := f.scope.Lookup("repeat"); ok {
		if dict, ok := value.(runtime.RepeatDict); ok {
			return dict
		}
	}
	dict := runtime.RepeatDict{}
	f.scope.Set("repeat", dict)
	return dict
}

func (f *frame) targetLanguage() string {
	if value, ok := f.scope.Lookup("target_language"); ok {
		if language, ok := value.(string); ok {
			return language
		}
	}
	return f.settings.TargetLanguage
}

// translate passes a message through the translation hook. Failures of the
// hook are logged and fall back to the default text.
func (f *frame) translate(msgid string, mapping map[string]string, def string) string {
	result, err := runtime.SafeTranslate(f.settings.Translate, msgid, f.domain, mapping, f.targetLanguage(), def)
	if err != nil {
		f.settings.Console.Warn(err.Error())
	}
	return result
}

// normalize collapses whitespace runs of a message into single spaces
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
