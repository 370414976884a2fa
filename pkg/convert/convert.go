// Package convert 提供基于默认 JSON Serializer 的便捷函数。
//
// 默认 Serializer 在第一次使用时创建，使用 sonic 后端、最大深度 64，
// 枚举与多态类型分别通过 Enums 与 Registry 登记。
package convert

import (
	"reflect"
	"sync"

	"github.com/lk2023060901/danmu-serde/pkg/serde"
	"github.com/lk2023060901/danmu-serde/pkg/serde/enumconv"
	"github.com/lk2023060901/danmu-serde/pkg/serde/format/jsonfmt"
	"github.com/lk2023060901/danmu-serde/pkg/serde/typeregistry"
)

var (
	defaultOnce       sync.Once
	defaultSerializer *serde.Serializer
)

// Default 返回进程共享的 JSON Serializer。
func Default() *serde.Serializer {
	defaultOnce.Do(func() {
		defaultSerializer = serde.MustNew()
	})
	return defaultSerializer
}

// Enums 返回默认 Serializer 的枚举转换器。
func Enums() *enumconv.Converter {
	return Default().Enums()
}

// Registry 返回默认 Serializer 的类型注册表。
func Registry() *typeregistry.Registry {
	return Default().Registry()
}

// ToJSON 把 v 序列化为 JSON，pretty 为 true 时输出缩进格式。
func ToJSON(v any, pretty bool) (string, error) {
	return Default().SerializeToString(v, pretty, nil)
}

// ToJSONAs 以 T 为声明类型序列化 v，T 为接口时输出类型标签。
func ToJSONAs[T any](v T, pretty bool) (string, error) {
	return serde.SerializeAs(Default(), v, pretty)
}

// FromJSON 把 JSON 文本反序列化为 T。
func FromJSON[T any](text string) (T, error) {
	return serde.Deserialize[T](Default(), text)
}

// FromJSONType 把 JSON 文本反序列化为 t 类型的值。
func FromJSONType(text string, t reflect.Type) (any, error) {
	v, err := Default().DeserializeType(text, t)
	if err != nil || !v.IsValid() {
		return nil, err
	}
	return v.Interface(), nil
}

// Prettify 对紧凑 JSON 做缩进排版，不校验输入合法性。
func Prettify(text string) string {
	return jsonfmt.Prettify(text)
}
