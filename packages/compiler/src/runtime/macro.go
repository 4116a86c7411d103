package runtime

// Macro is a renderable unit that can be included by `use-macro` and
// `extend-macro`. The scope passed in carries the caller's fill-slots.
type Macro interface {
	Include(out *Output, scope *Scope) error
}

// MacroFunc adapts a function to the Macro interface
type MacroFunc func(out *Output, scope *Scope) error

// Include implements Macro
func (f MacroFunc) Include(out *Output, scope *Scope) error {
	return f(out, scope)
}
