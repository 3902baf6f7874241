package invitation

import (
	"encoding/json"
	"fmt"
	"time"
)

// PayloadObject is a nested payload value object. It is exclusively owned by
// the enclosing invitation: rebuilt from the stored mapping on load and
// flattened back on save.
type PayloadObject interface {
	ToMap() map[string]any
	ApplyMap(m map[string]any) error
}

// Field binds one declared payload field name to a (de)serializer pair.
// Get reports the current value and whether the field is set at all;
// unset fields are skipped when no explicit include list is declared, so
// pure defaults never pollute storage.
type Field struct {
	Name string
	Get  func() (any, bool)
	Set  func(any) error
}

// PayloadSpec declares the complete payload surface of one invitation type.
// Only declared field names ever reach storage. When Include is non-empty it
// further restricts which declared fields are persisted.
type PayloadSpec struct {
	Fields  []Field
	Include []string
}

func (s *PayloadSpec) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s *PayloadSpec) included(name string) bool {
	if len(s.Include) == 0 {
		return true
	}
	for _, n := range s.Include {
		if n == name {
			return true
		}
	}
	return false
}

func StringField(name string, v **string) Field {
	return Field{
		Name: name,
		Get: func() (any, bool) {
			if *v == nil {
				return nil, false
			}
			return **v, true
		},
		Set: func(raw any) error {
			if raw == nil {
				*v = nil
				return nil
			}
			str, ok := raw.(string)
			if !ok {
				return fmt.Errorf("field %q: expected string, got %T", name, raw)
			}
			*v = &str
			return nil
		},
	}
}

func BoolField(name string, v **bool) Field {
	return Field{
		Name: name,
		Get: func() (any, bool) {
			if *v == nil {
				return nil, false
			}
			return **v, true
		},
		Set: func(raw any) error {
			if raw == nil {
				*v = nil
				return nil
			}
			b, ok := raw.(bool)
			if !ok {
				return fmt.Errorf("field %q: expected bool, got %T", name, raw)
			}
			*v = &b
			return nil
		},
	}
}

func Int64Field(name string, v **int64) Field {
	return Field{
		Name: name,
		Get: func() (any, bool) {
			if *v == nil {
				return nil, false
			}
			return **v, true
		},
		Set: func(raw any) error {
			if raw == nil {
				*v = nil
				return nil
			}
			n, ok := AsInt64(raw)
			if !ok {
				return fmt.Errorf("field %q: expected integer, got %T", name, raw)
			}
			*v = &n
			return nil
		},
	}
}

// TimeField stores the value as an RFC 3339 string in the payload mapping.
func TimeField(name string, v **time.Time) Field {
	return Field{
		Name: name,
		Get: func() (any, bool) {
			if *v == nil {
				return nil, false
			}
			return (*v).Format(time.RFC3339), true
		},
		Set: func(raw any) error {
			if raw == nil {
				*v = nil
				return nil
			}
			t, ok := AsTime(raw)
			if !ok {
				return fmt.Errorf("field %q: expected RFC 3339 timestamp, got %v", name, raw)
			}
			*v = &t
			return nil
		},
	}
}

// ObjectField declares a single nested payload object. A nil pointer means unset.
func ObjectField[T any, P interface {
	*T
	PayloadObject
}](name string, v **T) Field {
	return Field{
		Name: name,
		Get: func() (any, bool) {
			if *v == nil {
				return nil, false
			}
			return P(*v).ToMap(), true
		},
		Set: func(raw any) error {
			if raw == nil {
				*v = nil
				return nil
			}
			m, ok := asMap(raw)
			if !ok {
				return fmt.Errorf("field %q: expected object, got %T", name, raw)
			}
			obj := new(T)
			if err := P(obj).ApplyMap(m); err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			*v = obj
			return nil
		},
	}
}

// ObjectListField declares a list of nested payload objects. A nil slice means
// unset; an empty slice is a deliberate value and is persisted.
func ObjectListField[T any, P interface {
	*T
	PayloadObject
}](name string, list *[]T) Field {
	return Field{
		Name: name,
		Get: func() (any, bool) {
			if *list == nil {
				return nil, false
			}
			out := make([]any, len(*list))
			for i := range *list {
				out[i] = P(&(*list)[i]).ToMap()
			}
			return out, true
		},
		Set: func(raw any) error {
			if raw == nil {
				*list = nil
				return nil
			}
			items, ok := raw.([]any)
			if !ok {
				return fmt.Errorf("field %q: expected list, got %T", name, raw)
			}
			out := make([]T, len(items))
			for i, item := range items {
				m, ok := asMap(item)
				if !ok {
					return fmt.Errorf("field %q[%d]: expected object, got %T", name, i, item)
				}
				if err := P(&out[i]).ApplyMap(m); err != nil {
					return fmt.Errorf("field %q[%d]: %w", name, i, err)
				}
			}
			*list = out
			return nil
		},
	}
}

func asMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

// AsInt64 converts the loose numeric types a JSON column round-trip produces.
func AsInt64(raw any) (int64, bool) {
	switch n := raw.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		v, err := n.Int64()
		return v, err == nil
	default:
		return 0, false
	}
}

func AsString(raw any) (string, bool) {
	s, ok := raw.(string)
	return s, ok
}

func AsBool(raw any) (bool, bool) {
	b, ok := raw.(bool)
	return b, ok
}

func AsTime(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339, v)
		return t, err == nil
	default:
		return time.Time{}, false
	}
}
