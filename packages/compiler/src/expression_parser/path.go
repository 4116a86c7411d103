package expression_parser

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/core"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/runtime"
)

// Traverser is implemented by values that resolve path segments themselves
type Traverser interface {
	Traverse(name string) (any, error)
}

// compilePath compiles `path:` expressions such as `request/form/name`
func compilePath(_ *Engine, source string) (Evaluator, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errors.New("empty path")
	}
	segments := strings.Split(source, "/")
	if !core.IsIdentifier(segments[0]) {
		return nil, fmt.Errorf("invalid path %q", source)
	}
	for _, segment := range segments[1:] {
		if segment == "" || strings.ContainsAny(segment, " \t\n()+*") {
			return nil, fmt.Errorf("invalid path %q", source)
		}
	}
	return EvaluatorFunc(func(scope *runtime.Scope) (any, error) {
		value, err := scope.Get(segments[0])
		if err != nil {
			return nil, err
		}
		for _, segment := range segments[1:] {
			if value, err = Traverse(value, segment); err != nil {
				return nil, err
			}
		}
		return value, nil
	}), nil
}

// Traverse resolves one path segment on value. Maps are indexed by key,
// structs resolve exported fields and methods without arguments
// (case-insensitively), and slices accept integer indexes.
func Traverse(value any, name string) (any, error) {
	if t, ok := value.(Traverser); ok {
		return t.Traverse(name)
	}
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return nil, &runtime.LookupError{Key: name, Msg: fmt.Sprintf("cannot resolve %q on nil", name)}
	}

	if method := findMethod(v, name); method.IsValid() {
		return callMethod(method, name)
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, &runtime.LookupError{Key: name, Msg: fmt.Sprintf("cannot resolve %q on nil", name)}
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		key := reflect.ValueOf(name)
		if !key.Type().AssignableTo(v.Type().Key()) {
			if !key.Type().ConvertibleTo(v.Type().Key()) {
				return nil, &runtime.LookupError{Key: name}
			}
			key = key.Convert(v.Type().Key())
		}
		item := v.MapIndex(key)
		if !item.IsValid() {
			return nil, &runtime.LookupError{Key: name, Msg: fmt.Sprintf("key %q not found", name)}
		}
		return item.Interface(), nil
	case reflect.Struct:
		field := v.FieldByNameFunc(func(fieldName string) bool {
			return strings.EqualFold(fieldName, name)
		})
		if field.IsValid() && field.CanInterface() {
			return field.Interface(), nil
		}
	case reflect.Slice, reflect.Array, reflect.String:
		index, err := strconv.Atoi(name)
		if err != nil {
			return nil, &runtime.LookupError{Key: name, Msg: fmt.Sprintf("invalid index %q", name)}
		}
		if index < 0 {
			index += v.Len()
		}
		if index < 0 || index >= v.Len() {
			return nil, &runtime.LookupError{Key: name, Msg: fmt.Sprintf("index %d out of range", index)}
		}
		return v.Index(index).Interface(), nil
	}
	return nil, &runtime.LookupError{Key: name, Msg: fmt.Sprintf("%T has no attribute %q", value, name)}
}

func findMethod(v reflect.Value, name string) reflect.Value {
	t := v.Type()
	for i := 0; i < t.NumMethod(); i++ {
		if strings.EqualFold(t.Method(i).Name, name) {
			return v.Method(i)
		}
	}
	return reflect.Value{}
}

func callMethod(method reflect.Value, name string) (any, error) {
	t := method.Type()
	if t.NumIn() != 0 {
		return method.Interface(), nil
	}
	out := method.Call(nil)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	}
	if err, ok := out[len(out)-1].Interface().(error); ok && err != nil {
		return nil, err
	}
	return out[0].Interface(), nil
}
