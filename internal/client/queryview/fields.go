package queryview

import (
	"cmp"
	"reflect"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// matches reports whether any string value of item contains needle, which
// must already be lower case.
func matches(item any, needle string) bool {
	found := false
	walkStrings(reflect.ValueOf(item), func(s string) bool {
		found = strings.Contains(strings.ToLower(s), needle)
		return !found
	})
	return found
}

// walkStrings calls fn for every string reachable through struct fields,
// map values, slices and pointers, stopping when fn returns false.
func walkStrings(v reflect.Value, fn func(string) bool) bool {
	v = indirect(v)
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.String:
		return fn(v.String())
	case reflect.Struct:
		if v.Type() == timeType {
			return true
		}
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if !walkStrings(v.Field(i), fn) {
				return false
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if !walkStrings(iter.Value(), fn) {
				return false
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if !walkStrings(v.Index(i), fn) {
				return false
			}
		}
	}
	return true
}

// field looks key up as a JSON tag name or field name on structs and as a
// key on string-keyed maps.
func field(item any, key string) reflect.Value {
	v := indirect(reflect.ValueOf(item))
	if !v.IsValid() {
		return reflect.Value{}
	}

	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == key || strings.EqualFold(f.Name, key) {
				return indirect(v.Field(i))
			}
		}
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}
		}
		return indirect(v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key())))
	}
	return reflect.Value{}
}

// compareField orders a and b by key. Values that are missing or of
// different kinds compare equal so the stable sort keeps their order.
func compareField(a, b any, key string) int {
	va, vb := field(a, key), field(b, key)
	if !va.IsValid() || !vb.IsValid() {
		return 0
	}

	if va.Type() == timeType && vb.Type() == timeType {
		return va.Interface().(time.Time).Compare(vb.Interface().(time.Time))
	}

	if fa, ok := number(va); ok {
		if fb, ok := number(vb); ok {
			return cmp.Compare(fa, fb)
		}
		return 0
	}

	switch {
	case va.Kind() == reflect.String && vb.Kind() == reflect.String:
		return strings.Compare(va.String(), vb.String())
	case va.Kind() == reflect.Bool && vb.Kind() == reflect.Bool:
		switch {
		case va.Bool() == vb.Bool():
			return 0
		case vb.Bool():
			return -1
		default:
			return 1
		}
	}
	return 0
}

func number(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

// indirect follows pointers and interfaces; nil yields the zero Value.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
