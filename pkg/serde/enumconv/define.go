package enumconv

import (
	"math"
	"reflect"

	"golang.org/x/exp/constraints"

	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

// Member 是枚举的一个具名取值。
type Member[E constraints.Integer] struct {
	Name  string
	Value E
}

// Of 构造一个枚举成员。
func Of[E constraints.Integer](name string, value E) Member[E] {
	return Member[E]{Name: name, Value: value}
}

// Define 在 c 中登记枚举类型 E 及其成员。
// 同一取值可以有多个名称，编码时使用最先登记的名称；同一类型只能登记一次。
func Define[E constraints.Integer](c *Converter, members ...Member[E]) error {
	t := reflect.TypeOf(E(0))
	names := make([]string, 0, len(members))
	codes := make([]int64, 0, len(members))
	for _, m := range members {
		code, ok := toCode(reflect.ValueOf(m.Value))
		if !ok {
			// 超出 int64 的 uint64 取值不参与编码空间。
			continue
		}
		names = append(names, m.Name)
		codes = append(codes, code)
	}
	return c.define(t, names, codes)
}

// DefineSequential 按 iota 习惯登记枚举：names[i] 对应取值 i。
func DefineSequential[E constraints.Integer](c *Converter, names ...string) error {
	members := make([]Member[E], 0, len(names))
	for i, name := range names {
		members = append(members, Of(name, E(i)))
	}
	return Define(c, members...)
}

// MustDefine 与 Define 相同，失败时 panic，便于在 init 中使用。
func MustDefine[E constraints.Integer](c *Converter, members ...Member[E]) {
	if err := Define(c, members...); err != nil {
		panic(err)
	}
}

// Parse 是 StringToEnum 的泛型形式。
func Parse[E constraints.Integer](c *Converter, text string, ignoreCase bool) (E, error) {
	v, err := c.StringToEnum(reflect.TypeOf(E(0)), text, ignoreCase)
	if err != nil {
		return 0, err
	}
	return v.Interface().(E), nil
}

// Format 是 EnumToString 的泛型形式，未登记的类型返回十进制取值。
func Format[E constraints.Integer](c *Converter, e E) string {
	s, err := c.EnumToString(reflect.ValueOf(e))
	if err != nil {
		return decimal(reflect.ValueOf(e))
	}
	return s
}

// widthRange 返回整数类型 t 可用于编码的 [min, max]，uint64 的上界按 int64 截断。
func widthRange(t reflect.Type) (int64, int64, error) {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits := t.Bits()
		return -1 << (bits - 1), 1<<(bits-1) - 1, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		bits := t.Bits()
		if bits >= 64 {
			return 0, math.MaxInt64, nil
		}
		return 0, 1<<bits - 1, nil
	default:
		return 0, 0, merr.WrapErrEnumDefinition(t.String(), "enum must have an integer kind")
	}
}
