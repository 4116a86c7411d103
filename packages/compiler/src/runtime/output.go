package runtime

import "strings"

// Output accumulates rendered text fragments
type Output struct {
	parts []string
}

// NewOutput creates a new Output
func NewOutput() *Output {
	return &Output{}
}

// Append appends a fragment
func (o *Output) Append(s string) {
	if s != "" {
		o.parts = append(o.parts, s)
	}
}

// Len returns the number of fragments, usable as a Truncate mark
func (o *Output) Len() int {
	return len(o.parts)
}

// Truncate discards every fragment after the first n
func (o *Output) Truncate(n int) {
	if n < len(o.parts) {
		o.parts = o.parts[:n]
	}
}

// String returns the joined output
func (o *Output) String() string {
	return strings.Join(o.parts, "")
}
