package log

import (
	"reflect"

	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameTraceID   = "traceID"
	FieldNameBatchID   = "batchID"
	FieldNameFormat    = "format"
	FieldNameType      = "type"
	FieldNameMember    = "member"
	FieldNameTypeTag   = "typeTag"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldFormat 返回一个包含数据格式名称的 zap 字段。
func FieldFormat(format string) zap.Field {
	return zap.String(FieldNameFormat, format)
}

// FieldType 返回一个包含 Go 类型名的 zap 字段，t 为 nil 时输出 "<nil>"。
func FieldType(t reflect.Type) zap.Field {
	if t == nil {
		return zap.String(FieldNameType, "<nil>")
	}
	return zap.Stringer(FieldNameType, t)
}

// FieldMember 返回一个包含成员名的 zap 字段。
func FieldMember(member string) zap.Field {
	return zap.String(FieldNameMember, member)
}

// FieldTypeTag 返回一个包含多态类型标签的 zap 字段。
func FieldTypeTag(tag string) zap.Field {
	return zap.String(FieldNameTypeTag, tag)
}
