package runtime

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type defaultMarker struct{}

func (*defaultMarker) String() string {
	return "<default>"
}

// Default is the value bound to `default`. Substitution directives compare
// against it by identity and keep the original markup when it comes back.
var Default any = &defaultMarker{}

// IsDefault checks if v is the default marker
func IsDefault(v any) bool {
	return v == Default
}

// HTMLer is implemented by values that render as markup without escaping
type HTMLer interface {
	HTML() string
}

// Markup is a string that is inserted into the output verbatim
type Markup string

// HTML implements HTMLer
func (m Markup) HTML() string {
	return string(m)
}

// String implements fmt.Stringer
func (m Markup) String() string {
	return string(m)
}

// Truthy returns whether the value is 'true', in the sense of not the zero
// of its type
func Truthy(i any) (truth bool) {
	val := reflect.ValueOf(i)
	if !val.IsValid() {
		return false
	}
	switch val.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		truth = val.Len() > 0
	case reflect.Bool:
		truth = val.Bool()
	case reflect.Complex64, reflect.Complex128:
		truth = val.Complex() != 0
	case reflect.Chan, reflect.Func, reflect.Ptr, reflect.Interface:
		truth = !val.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		truth = val.Int() != 0
	case reflect.Float32, reflect.Float64:
		truth = val.Float() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		truth = val.Uint() != 0
	case reflect.Struct:
		truth = true
	}
	return
}

// Text converts a value to its text form
func Text(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case HTMLer:
		return v.HTML()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return decimal.NewFromFloat(f).String()
}

var (
	textEscaper        = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	doubleQuoteEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	singleQuoteEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "'", "&#39;")
)

// Escape escapes text content
func Escape(s string) string {
	return textEscaper.Replace(s)
}

// EscapeAttribute escapes an attribute value delimited by quote
func EscapeAttribute(s, quote string) string {
	if quote == "'" {
		return singleQuoteEscaper.Replace(s)
	}
	return doubleQuoteEscaper.Replace(s)
}

// Content converts a value to output text, escaping it unless it is markup
func Content(v any) string {
	if h, ok := v.(HTMLer); ok {
		return h.HTML()
	}
	return Escape(Text(v))
}

// AttributeContent converts a value to an attribute value, escaping it
// unless it is markup
func AttributeContent(v any, quote string) string {
	if h, ok := v.(HTMLer); ok {
		return h.HTML()
	}
	return EscapeAttribute(Text(v), quote)
}

// Equal compares two values the way tal:case matches its switch. Numbers
// of different types compare by value.
func Equal(a, b any) bool {
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			return x == y
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(val.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(val.Uint()), true
	case reflect.Float32, reflect.Float64:
		return val.Float(), true
	}
	return 0, false
}
