// Package response converts plan values into plain JSON-safe trees.
package response

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

var (
	timeType          = reflect.TypeOf(time.Time{})
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	stringerType      = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

// Normalize walks v and returns a tree of map[string]any, []any, string,
// bool, int64, uint64, float64 and nil. Non-finite floats become nil, times
// become RFC 3339 strings, and text-marshalable or Stringer values (such as
// month periods) become their canonical string. Struct fields are keyed by
// their json tag.
func Normalize(v any) any {
	if v == nil {
		return nil
	}
	return normalize(reflect.ValueOf(v))
}

// NormalizeMap is Normalize for values known to encode as JSON objects
func NormalizeMap(v any) map[string]any {
	m, _ := Normalize(v).(map[string]any)
	return m
}

func normalize(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		if v.Kind() == reflect.Pointer && v.Type().Elem() == timeType {
			return formatTime(v.Elem())
		}
		if s, ok := asString(v); ok {
			return s
		}
		return normalize(v.Elem())
	}

	if v.Type() == timeType {
		return formatTime(v)
	}
	if s, ok := asString(v); ok {
		return s
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case reflect.String:
		return v.String()
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = normalize(v.Index(i))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[mapKey(iter.Key())] = normalize(iter.Value())
		}
		return out
	case reflect.Struct:
		return normalizeStruct(v)
	default:
		return nil
	}
}

func normalizeStruct(v reflect.Value) map[string]any {
	t := v.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonName(field)
		if skip {
			continue
		}
		fv := v.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		if omitEmpty && (fv.Kind() == reflect.Slice || fv.Kind() == reflect.Map) && fv.Len() == 0 {
			continue
		}
		out[name] = normalize(fv)
	}
	return out
}

func jsonName(f reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = f.Name
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

func asString(v reflect.Value) (string, bool) {
	if !v.CanInterface() {
		return "", false
	}
	if v.Type().Implements(textMarshalerType) {
		if b, err := v.Interface().(encoding.TextMarshaler).MarshalText(); err == nil {
			return string(b), true
		}
	}
	if v.Type().Implements(stringerType) {
		return v.Interface().(fmt.Stringer).String(), true
	}
	return "", false
}

func mapKey(k reflect.Value) string {
	if s, ok := asString(k); ok {
		return s
	}
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

func formatTime(v reflect.Value) string {
	return v.Interface().(time.Time).Format(time.RFC3339)
}
