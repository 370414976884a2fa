package reflector

import (
	"reflect"
	"strconv"
)

// Shape 描述一个类型在构建/绑定过程中的结构类别。
type Shape int

const (
	ShapeUnsupported Shape = iota
	ShapePrimitive
	ShapeEnum
	ShapeString
	ShapeTupleLike
	ShapePairLike
	ShapeListLike
	ShapeMapLike
	ShapeEnumerableLike
	ShapeRecord
	// ShapeWellKnown 表示以规范字符串形式收发的值类型，例如 time.Time。
	ShapeWellKnown
	// ShapeInterface 表示声明类型为接口，需要依据实际值再次分类。
	ShapeInterface
)

var shapeNames = map[Shape]string{
	ShapeUnsupported:    "Unsupported",
	ShapePrimitive:      "Primitive",
	ShapeEnum:           "Enum",
	ShapeString:         "String",
	ShapeTupleLike:      "TupleLike",
	ShapePairLike:       "PairLike",
	ShapeListLike:       "ListLike",
	ShapeMapLike:        "MapLike",
	ShapeEnumerableLike: "EnumerableLike",
	ShapeRecord:         "Record",
	ShapeWellKnown:      "WellKnown",
	ShapeInterface:      "Interface",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "Shape(" + strconv.Itoa(int(s)) + ")"
}

// Terminal 表示该类别不会继续向成员递归。
func (s Shape) Terminal() bool {
	switch s {
	case ShapePrimitive, ShapeEnum, ShapeString, ShapeWellKnown:
		return true
	default:
		return false
	}
}

// Container 表示该类别按元素（或键值）逐个处理。
func (s Shape) Container() bool {
	switch s {
	case ShapeListLike, ShapeMapLike, ShapeEnumerableLike:
		return true
	default:
		return false
	}
}

// EnumSet 判断一个类型是否登记为枚举。
type EnumSet interface {
	IsEnum(t reflect.Type) bool
}

// Classify 返回 t 的结构类别，指针按其元素类型分类。
// enums 可以为 nil，此时所有整数类型都按 Primitive 处理。
func Classify(t reflect.Type, enums EnumSet) Shape {
	t = Indirect(t)
	if t == nil {
		return ShapeUnsupported
	}

	if t.Kind() == reflect.Interface {
		return ShapeInterface
	}
	if enums != nil && isInteger(t.Kind()) && enums.IsEnum(t) {
		return ShapeEnum
	}
	if IsWellKnown(t) {
		return ShapeWellKnown
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return ShapePrimitive
	case reflect.String:
		return ShapeString
	case reflect.Slice, reflect.Array:
		return ShapeListLike
	case reflect.Map:
		if isUnitType(t.Elem()) {
			return ShapeEnumerableLike
		}
		return ShapeMapLike
	case reflect.Struct:
		if IsPairLike(t) {
			return ShapePairLike
		}
		if IsTupleLike(t) {
			return ShapeTupleLike
		}
		return ShapeRecord
	default:
		return ShapeUnsupported
	}
}

// Indirect 剥离所有指针层级。
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// IsPairLike 判断 t 是否为只包含 Key、Value 两个导出字段的结构体。
func IsPairLike(t reflect.Type) bool {
	t = Indirect(t)
	if t == nil || t.Kind() != reflect.Struct || t.NumField() != 2 {
		return false
	}
	return t.Field(0).Name == "Key" && t.Field(1).Name == "Value"
}

// IsTupleLike 判断 t 是否为字段依次命名为 Item1..ItemN 的结构体。
func IsTupleLike(t reflect.Type) bool {
	t = Indirect(t)
	if t == nil || t.Kind() != reflect.Struct || t.NumField() == 0 {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Name != "Item"+strconv.Itoa(i+1) {
			return false
		}
	}
	return true
}

// ElemType 返回容器的元素类型；MapLike 返回值类型，EnumerableLike 返回键类型。
func ElemType(t reflect.Type) reflect.Type {
	t = Indirect(t)
	if t == nil {
		return nil
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem()
	case reflect.Map:
		if isUnitType(t.Elem()) {
			return t.Key()
		}
		return t.Elem()
	default:
		return nil
	}
}

// IsNillable 判断 t 的零值是否可以表示“缺失”。
func IsNillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// isUnitType 判断 t 是否为 struct{} 这类零大小结构体，集合以 map[K]struct{} 表示。
func isUnitType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.NumField() == 0
}
