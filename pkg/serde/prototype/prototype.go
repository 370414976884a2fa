// Package prototype 定义与具体格式无关的中间表示：带名称子节点的容器（Prototype）
// 以及把它编码为外部字节的格式（Format）。
package prototype

import (
	"reflect"

	"github.com/lk2023060901/danmu-serde/pkg/util/typeutil"
)

const (
	// TypeKey 是类型标签的首选键。
	TypeKey = "type"
	// TypeKeyAlt 在 TypeKey 与成员名冲突时使用。
	TypeKeyAlt = "type___"
)

// TagKeys 按写入优先级列出类型标签可以使用的键。
var TagKeys = []string{TypeKey, TypeKeyAlt}

// Prototype 是可变的命名子节点容器，附带一个可选的类型标签。
//
// SetChild/Child 面向记录成员，名称经过 TransformName 转换，读取时容忍任意大小写；
// SetEntry/Entry 面向 map 形状的数据，键原样保存。
// 子节点取值为标量（bool、int64、uint64、float64、string）、已登记的枚举值、
// 嵌套 Prototype 或上述取值组成的 []any。
type Prototype interface {
	SetChild(name string, value any)
	Child(name string) (any, bool)

	SetEntry(key string, value any)
	Entry(key string) (any, bool)
	// Keys 返回全部原始键（包括类型标签键），按字典序排列。
	Keys() []string
	Len() int

	// TypeTag 返回已嵌入的类型标签。
	TypeTag() (string, bool)
	// SetTypeTag 依次尝试 TypeKey、TypeKeyAlt；键已被占用或与 reserved 中的成员名
	// 转换后冲突时跳过，两者都不可用时返回 false。
	SetTypeTag(tag string, reserved typeutil.Set[string]) bool
}

// Format 负责 Prototype 与外部字节之间的转换。
type Format interface {
	// Name 返回格式名称，例如 "json"。
	Name() string
	// IsBinary 为 true 时，字符串入口需要对编码结果做 base64。
	IsBinary() bool
	NewPrototype() Prototype
	Encode(p Prototype, pretty bool) ([]byte, error)
	// Decode 解析顶层文档，无法解析时返回 merr.ErrMalformedInput。
	Decode(data []byte) (Prototype, error)
}

// EnumRenderer 把枚举值渲染为字符串，*enumconv.Converter 实现了该接口。
type EnumRenderer interface {
	IsEnum(t reflect.Type) bool
	EnumToString(v reflect.Value) (string, error)
}
