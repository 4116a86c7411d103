package runtime

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Iterator yields the items of a repeat source. Remaining reports how many
// items are left after the last one returned by Next.
type Iterator interface {
	Next() (any, bool)
	Remaining() int
}

type sliceIterator struct {
	items []any
	pos   int
}

func (it *sliceIterator) Next() (any, bool) {
	if it.pos >= len(it.items) {
		return nil, false
	}
	it.pos++
	return it.items[it.pos-1], true
}

func (it *sliceIterator) Remaining() int {
	return len(it.items) - it.pos
}

// NewSliceIterator creates an Iterator over items
func NewSliceIterator(items []any) Iterator {
	return &sliceIterator{items: items}
}

// Iterate returns an Iterator over a repeat source. Maps yield their keys in
// sorted order, or key/value pairs when pairs is set. Strings yield their
// characters. Channels are received from until closed, so the loop state
// knows its length. A nil source yields nothing.
func Iterate(source any, pairs bool) (Iterator, error) {
	switch v := source.(type) {
	case nil:
		return NewSliceIterator(nil), nil
	case Iterator:
		return v, nil
	case []any:
		return NewSliceIterator(v), nil
	case string:
		var items []any
		for _, r := range v {
			items = append(items, string(r))
		}
		return NewSliceIterator(items), nil
	}

	val := reflect.ValueOf(source)
	switch val.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, val.Len())
		for i := range items {
			items[i] = val.Index(i).Interface()
		}
		return NewSliceIterator(items), nil
	case reflect.Map:
		keys := val.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		items := make([]any, len(keys))
		for i, key := range keys {
			if pairs {
				items[i] = []any{key.Interface(), val.MapIndex(key).Interface()}
			} else {
				items[i] = key.Interface()
			}
		}
		return NewSliceIterator(items), nil
	case reflect.Chan:
		if val.Type().ChanDir()&reflect.RecvDir == 0 {
			break
		}
		var items []any
		for {
			item, ok := val.Recv()
			if !ok {
				break
			}
			items = append(items, item.Interface())
		}
		return NewSliceIterator(items), nil
	case reflect.Pointer:
		if val.IsNil() {
			return NewSliceIterator(nil), nil
		}
		return Iterate(val.Elem().Interface(), pairs)
	}
	return nil, &TypeError{Msg: fmt.Sprintf("%T object is not iterable", source)}
}

// Unpack splits a repeat or define item into n values
func Unpack(item any, n int) ([]any, error) {
	val := reflect.ValueOf(item)
	if val.Kind() != reflect.Slice && val.Kind() != reflect.Array {
		return nil, &TypeError{Msg: fmt.Sprintf("cannot unpack non-sequence %T", item)}
	}
	if val.Len() != n {
		return nil, &ValueError{Msg: fmt.Sprintf("expected %d values to unpack, got %d", n, val.Len())}
	}
	values := make([]any, n)
	for i := range values {
		values[i] = val.Index(i).Interface()
	}
	return values, nil
}

// RepeatItem is the loop state exposed as `repeat.<name>`. Its fields are
// refreshed in place on every iteration.
type RepeatItem struct {
	Index         int    `expr:"index"`
	Number        int    `expr:"number"`
	Even          bool   `expr:"even"`
	Odd           bool   `expr:"odd"`
	Start         bool   `expr:"start"`
	End           bool   `expr:"end"`
	Length        int    `expr:"length"`
	Parity        string `expr:"parity"`
	LowerLetter   string `expr:"letter"`
	CapitalLetter string `expr:"Letter"`
	LowerRoman    string `expr:"roman"`
	CapitalRoman  string `expr:"Roman"`

	iterator Iterator
}

// NewRepeatItem creates a new RepeatItem over iterator
func NewRepeatItem(iterator Iterator) *RepeatItem {
	return &RepeatItem{iterator: iterator, Index: -1}
}

// Next advances to the next item
func (r *RepeatItem) Next() (any, bool) {
	item, ok := r.iterator.Next()
	if !ok {
		return nil, false
	}
	remaining := r.iterator.Remaining()
	if r.Index < 0 {
		r.Length = remaining + 1
	}
	r.Index = r.Length - remaining - 1
	r.Number = r.Index + 1
	r.Even = r.Index%2 == 0
	r.Odd = !r.Even
	r.Start = r.Index == 0
	r.End = remaining == 0
	r.Parity = "odd"
	if r.Even {
		r.Parity = "even"
	}
	r.LowerLetter = Letter(r.Number)
	r.CapitalLetter = strings.ToUpper(r.LowerLetter)
	r.LowerRoman = strings.ToLower(Roman(r.Number))
	r.CapitalRoman = Roman(r.Number)
	return item, true
}

// Traverse resolves the lowercase attribute names used by path expressions
func (r *RepeatItem) Traverse(name string) (any, error) {
	switch name {
	case "index":
		return r.Index, nil
	case "number":
		return r.Number, nil
	case "even":
		return r.Even, nil
	case "odd":
		return r.Odd, nil
	case "start":
		return r.Start, nil
	case "end":
		return r.End, nil
	case "length":
		return r.Length, nil
	case "parity":
		return r.Parity, nil
	case "letter":
		return r.LowerLetter, nil
	case "Letter":
		return r.CapitalLetter, nil
	case "roman":
		return r.LowerRoman, nil
	case "Roman":
		return r.CapitalRoman, nil
	}
	return nil, &LookupError{Key: name, Msg: "repeat item has no attribute " + name}
}

// RepeatDict maps repeat variable names to their loop state
type RepeatDict map[string]*RepeatItem

// Letter returns the bijective base-26 lowercase label of n: 1 is "a", 26
// is "z" and 27 is "aa"
func Letter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('a' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

var romanNumerals = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// Roman returns the uppercase roman numeral of n
func Roman(n int) string {
	var sb strings.Builder
	for _, numeral := range romanNumerals {
		for n >= numeral.value {
			sb.WriteString(numeral.symbol)
			n -= numeral.value
		}
	}
	return sb.String()
}
