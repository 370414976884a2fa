package reflector

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ConvertScalar 尽力将解码得到的标量 v 转换为 t 类型（bool、整数、浮点、字符串及其具名类型）。
// 支持 json.Number、各宽度的整数与浮点、数字字符串与布尔字符串，并做溢出检查。
// 转换失败时原样返回 v 的反射值与 false。
func ConvertScalar(v any, t reflect.Type) (reflect.Value, bool) {
	failed := func() (reflect.Value, bool) {
		if v == nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(v), false
	}
	if v == nil || t == nil {
		return failed()
	}

	base := Indirect(t)
	out := reflect.New(base).Elem()
	ok := false

	switch base.Kind() {
	case reflect.Bool:
		var b bool
		if b, ok = toBool(v); ok {
			out.SetBool(b)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var i int64
		if i, ok = toInt64(v); ok && !out.OverflowInt(i) {
			out.SetInt(i)
		} else {
			ok = false
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		var u uint64
		if u, ok = toUint64(v); ok && !out.OverflowUint(u) {
			out.SetUint(u)
		} else {
			ok = false
		}
	case reflect.Float32, reflect.Float64:
		var f float64
		if f, ok = toFloat64(v); ok && !out.OverflowFloat(f) {
			out.SetFloat(f)
		} else {
			ok = false
		}
	case reflect.String:
		var s string
		if s, ok = toString(v); ok {
			out.SetString(s)
		}
	}

	if !ok {
		return failed()
	}
	return pointTo(out, t), true
}

// Normalize 将任意标量归一到 bool、int64、uint64、float64、string 之一。
// 非标量返回 false。
func Normalize(v reflect.Value) (any, bool) {
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.String:
		return v.String(), true
	default:
		return nil, false
	}
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	default:
		return false, false
	}
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		return parseInt(string(x))
	case string:
		return parseInt(strings.TrimSpace(x))
	case bool:
		return 0, false
	}
	n, ok := Normalize(reflect.ValueOf(v))
	if !ok {
		return 0, false
	}
	switch x := n.(type) {
	case int64:
		return x, true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		return floatToInt(x)
	default:
		return 0, false
	}
}

func toUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case json.Number:
		return parseUint(string(x))
	case string:
		return parseUint(strings.TrimSpace(x))
	case bool:
		return 0, false
	}
	n, ok := Normalize(reflect.ValueOf(v))
	if !ok {
		return 0, false
	}
	switch x := n.(type) {
	case int64:
		if x < 0 {
			return 0, false
		}
		return uint64(x), true
	case uint64:
		return x, true
	case float64:
		if x < 0 || x != math.Trunc(x) || x >= math.MaxUint64 {
			return 0, false
		}
		return uint64(x), true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case bool:
		return 0, false
	}
	n, ok := Normalize(reflect.ValueOf(v))
	if !ok {
		return 0, false
	}
	switch x := n.(type) {
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

func toString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	}
	n, ok := Normalize(reflect.ValueOf(v))
	if !ok {
		return "", false
	}
	switch x := n.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	default:
		return "", false
	}
}

func parseInt(s string) (int64, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return floatToInt(f)
}

func parseUint(s string) (uint64, bool) {
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return u, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != math.Trunc(f) || f >= math.MaxUint64 {
		return 0, false
	}
	return uint64(f), true
}

func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// IsCompatible 判断 actual 类型的值能否放在声明为 declared 的位置：
// 类型相同、可赋值，或 declared 为接口且 actual（值或指针接收者）实现了它。
// declared 为指针时按其元素类型判断。
func IsCompatible(actual, declared reflect.Type) bool {
	if actual == nil || declared == nil {
		return false
	}
	if actual == declared || actual.AssignableTo(declared) {
		return true
	}
	if declared.Kind() == reflect.Interface {
		return actual.Implements(declared) || reflect.PointerTo(actual).Implements(declared)
	}
	if declared.Kind() == reflect.Pointer {
		return IsCompatible(actual, declared.Elem())
	}
	return false
}
