package runtime

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// NameError is raised when an expression refers to an unbound variable
type NameError struct {
	Name string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("name %q is not defined", e.Name)
}

// LookupError is raised when an attribute, key or index cannot be resolved
type LookupError struct {
	Key string
	Msg string
}

func (e *LookupError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("cannot resolve %q", e.Key)
}

// TypeError is raised when an operation is applied to a value of the wrong type
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string {
	return e.Msg
}

// ValueError is raised when a value has the right type but is unusable
type ValueError struct {
	Msg string
}

func (e *ValueError) Error() string {
	return e.Msg
}

// TranslateError reports a panic raised by the translation hook
type TranslateError struct {
	MsgID string
	Value any
}

func (e *TranslateError) Error() string {
	return fmt.Sprintf("translation of %q failed: %v", e.MsgID, e.Value)
}

// CanFallThrough reports whether an evaluation failure lets a pipe
// expression try its next alternative
func CanFallThrough(err error) bool {
	var nameErr *NameError
	var lookupErr *LookupError
	var typeErr *TypeError
	var valueErr *ValueError
	return errors.As(err, &nameErr) || errors.As(err, &lookupErr) ||
		errors.As(err, &typeErr) || errors.As(err, &valueErr)
}

// ErrorInfo describes where a render-time failure happened
type ErrorInfo struct {
	Expression string
	Filename   string
	Line       int
	Column     int
	Source     string
	Offset     int
	Err        error
}

// RenderError is an evaluation failure annotated with its template location
type RenderError struct {
	Info *ErrorInfo
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%v (%s:%d:%d)", e.Err, e.Info.Filename, e.Info.Line, e.Info.Column)
}

// Unwrap returns the original error
func (e *RenderError) Unwrap() error {
	return e.Err
}

// TemplateError is returned by a top-level render. Diagnostic holds the
// formatted report; Err is the original failure.
type TemplateError struct {
	Diagnostic string
	Err        error
}

func (e *TemplateError) Error() string {
	return e.Diagnostic
}

// Unwrap returns the original error
func (e *TemplateError) Unwrap() error {
	return e.Err
}

// ErrorName returns the short type name of an error, such as "NameError"
func ErrorName(err error) string {
	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		err = renderErr.Err
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "Error"
	}
	return t.Name()
}

const summaryWidth = 60

func summarize(value any) (summary string) {
	defer func() {
		if r := recover(); r != nil {
			summary = fmt.Sprintf("<unrepresentable %T>", value)
		}
	}()
	summary = fmt.Sprintf("<%T> %v", value, value)
	summary = strings.ReplaceAll(summary, "\n", " ")
	if len(summary) > summaryWidth {
		summary = summary[:summaryWidth-3] + "..."
	}
	return summary
}

// FormatDiagnostic formats a render failure report. The bindings section is
// left out when bindings is nil.
func FormatDiagnostic(err error, info *ErrorInfo, bindings map[string]any) string {
	var sb strings.Builder
	cause := err
	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		cause = renderErr.Err
		if info == nil {
			info = renderErr.Info
		}
	}
	fmt.Fprintf(&sb, "%s: %v\n", ErrorName(cause), cause)
	if info == nil {
		return sb.String()
	}

	const indent = "\n               "
	fmt.Fprintf(&sb, "\n - Expression: %q", info.Expression)
	fmt.Fprintf(&sb, "\n - Filename:   %s", info.Filename)
	fmt.Fprintf(&sb, "\n - Location:   (line %d: col %d)", info.Line, info.Column)
	if line, marker := sourceExcerpt(info); line != "" {
		fmt.Fprintf(&sb, "\n - Source:     %s%s%s", line, indent, marker)
	}
	if bindings != nil {
		names := make([]string, 0, len(bindings))
		for name := range bindings {
			names = append(names, name)
		}
		sort.Strings(names)
		sb.WriteString("\n - Arguments:  ")
		for i, name := range names {
			if i > 0 {
				sb.WriteString(indent)
			}
			fmt.Fprintf(&sb, "%s: %s", name, summarize(bindings[name]))
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

// sourceExcerpt returns the source line holding the expression and a marker
// line underlining it
func sourceExcerpt(info *ErrorInfo) (string, string) {
	if info.Source == "" || info.Offset < 0 || info.Offset > len(info.Source) {
		return "", ""
	}
	start := strings.LastIndexByte(info.Source[:info.Offset], '\n') + 1
	end := strings.IndexByte(info.Source[info.Offset:], '\n')
	if end < 0 {
		end = len(info.Source)
	} else {
		end += info.Offset
	}
	line := info.Source[start:end]
	width := len(info.Expression)
	if width < 1 {
		width = 1
	}
	if info.Offset+width > end {
		width = end - info.Offset
	}
	marker := strings.Repeat(" ", info.Offset-start) + strings.Repeat("^", max(width, 1))
	return line, marker
}
