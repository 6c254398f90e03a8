package models

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// FlexNumber is an optional number that also accepts numeric strings, the
// way form based clients send them. null and "" leave it unset.
type FlexNumber[T int | float64] struct {
	Value T
	Set   bool
}

// NumberOf returns a set FlexNumber holding v.
func NumberOf[T int | float64](v T) FlexNumber[T] {
	return FlexNumber[T]{Value: v, Set: true}
}

// NumberFrom returns an unset FlexNumber for nil, or the value p points to.
func NumberFrom[T int | float64](p *T) FlexNumber[T] {
	if p == nil {
		return FlexNumber[T]{}
	}
	return NumberOf(*p)
}

// Ptr returns nil when n is unset.
func (n FlexNumber[T]) Ptr() *T {
	if !n.Set {
		return nil
	}
	v := n.Value
	return &v
}

func (n *FlexNumber[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = FlexNumber[T]{}
		return nil
	}

	var f float64
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = FlexNumber[T]{}
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return n.typeError("string " + strconv.Quote(s))
		}
		f = parsed
	} else if err := json.Unmarshal(b, &f); err != nil {
		return n.typeError(string(b))
	}

	v := T(f)
	if float64(v) != f {
		return n.typeError("number " + strconv.FormatFloat(f, 'f', -1, 64))
	}
	*n = NumberOf(v)
	return nil
}

// typeError lets encoding/json attach the struct field name.
func (n *FlexNumber[T]) typeError(value string) error {
	return &json.UnmarshalTypeError{Value: value, Type: reflect.TypeOf(n.Value)}
}

func (n FlexNumber[T]) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// flexNumberValue exposes the held value to the validator, nil when unset.
func flexNumberValue(field reflect.Value) any {
	switch n := field.Interface().(type) {
	case FlexNumber[int]:
		if n.Set {
			return n.Value
		}
	case FlexNumber[float64]:
		if n.Set {
			return n.Value
		}
	}
	return nil
}
