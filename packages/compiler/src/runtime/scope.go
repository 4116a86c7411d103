package runtime

// ErrorKey is the reserved remote-scope key holding the errors recorded
// during a render, innermost first
const ErrorKey = "__error__"

// Remote is the render-wide variable store. It is shared by every scope
// derived from the same top-level render, so global definitions made inside
// a macro are visible to the caller afterwards.
type Remote struct {
	vars map[string]any
}

// NewRemote creates a new Remote holding a copy of vars
func NewRemote(vars map[string]any) *Remote {
	r := &Remote{vars: make(map[string]any, len(vars))}
	for name, value := range vars {
		r.vars[name] = value
	}
	return r
}

// Get returns the value of a remote variable
func (r *Remote) Get(name string) (any, bool) {
	value, ok := r.vars[name]
	return value, ok
}

// Set sets a remote variable
func (r *Remote) Set(name string, value any) {
	r.vars[name] = value
}

// Vars returns the remote variables
func (r *Remote) Vars() map[string]any {
	return r.vars
}

// Errors returns the errors recorded so far
func (r *Remote) Errors() []*ErrorInfo {
	errs, _ := r.vars[ErrorKey].([]*ErrorInfo)
	return errs
}

// RecordError appends an error to the render error list
func (r *Remote) RecordError(info *ErrorInfo) {
	r.vars[ErrorKey] = append(r.Errors(), info)
}

// TruncateErrors drops every error recorded after the first n
func (r *Remote) TruncateErrors(n int) {
	if errs := r.Errors(); len(errs) > n {
		r.vars[ErrorKey] = errs[:n]
	}
}

// Slot renders fill-slot content into out using the scope of the macro
// that defines the slot
type Slot func(out *Output, scope *Scope) error

// Scope is the variable context of a render. Local variables live in the
// scope's own map; the remote store is shared between copies.
type Scope struct {
	vars   map[string]any
	remote *Remote
	slots  map[string]Slot
}

// NewScope creates a new Scope over a copy of vars. A nil remote creates a
// fresh one.
func NewScope(vars map[string]any, remote *Remote) *Scope {
	if remote == nil {
		remote = NewRemote(nil)
	}
	s := &Scope{vars: make(map[string]any, len(vars)+8), remote: remote}
	for name, value := range vars {
		s.vars[name] = value
	}
	return s
}

// Get returns the value of a variable, or a *NameError when it is unbound
func (s *Scope) Get(name string) (any, error) {
	if value, ok := s.vars[name]; ok {
		return value, nil
	}
	return nil, &NameError{Name: name}
}

// Lookup returns the value of a variable and whether it is bound
func (s *Scope) Lookup(name string) (any, bool) {
	value, ok := s.vars[name]
	return value, ok
}

// Set sets a local variable
func (s *Scope) Set(name string, value any) {
	s.vars[name] = value
}

// SetGlobal sets a variable locally and in the remote store
func (s *Scope) SetGlobal(name string, value any) {
	s.vars[name] = value
	s.remote.Set(name, value)
}

// Bind sets a local variable and returns a function restoring the
// previous binding
func (s *Scope) Bind(name string, value any) func() {
	previous, bound := s.vars[name]
	s.vars[name] = value
	return func() {
		if bound {
			s.vars[name] = previous
		} else {
			delete(s.vars, name)
		}
	}
}

// Copy returns a new local view over the same remote store and slots
func (s *Scope) Copy() *Scope {
	c := NewScope(s.vars, s.remote)
	c.slots = s.slots
	return c
}

// Merge copies every remote variable into the local view
func (s *Scope) Merge() {
	for name, value := range s.remote.vars {
		if name != ErrorKey {
			s.vars[name] = value
		}
	}
}

// Vars returns the live local variables
func (s *Scope) Vars() map[string]any {
	return s.vars
}

// Remote returns the shared remote store
func (s *Scope) Remote() *Remote {
	return s.remote
}

// Slots returns the fill-slot renderers passed to the current macro
func (s *Scope) Slots() map[string]Slot {
	return s.slots
}

// WithSlots returns a copy of the scope carrying the given fill-slots
func (s *Scope) WithSlots(slots map[string]Slot) *Scope {
	c := s.Copy()
	c.slots = slots
	return c
}
