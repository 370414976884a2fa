package reflector

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

// TagName 是控制成员是否参与序列化的结构体标签名，`serde:"-"` 表示忽略该字段。
const TagName = "serde"

// ForceSerializer 由需要额外输出只读成员的类型实现。
// ForceSerialize 返回无参数、单返回值的方法名，这些方法的结果在构建时作为同名成员输出，
// 绑定时不会回写。
type ForceSerializer interface {
	ForceSerialize() []string
}

var forceSerializerType = reflect.TypeOf((*ForceSerializer)(nil)).Elem()

// Member 描述一个可序列化成员。
type Member struct {
	Name string
	Type reflect.Type
	// Index 为字段在结构体中的索引路径，提升字段的路径长度大于 1。
	Index []int
	// ReadOnly 为 true 时成员来自 ForceSerialize 声明的方法，只读取不写回。
	ReadOnly bool
	method   string
}

// MemberValue 是成员与其在某个实例上的取值。
type MemberValue struct {
	Member *Member
	Value  reflect.Value
}

var memberCache sync.Map // reflect.Type -> []*Member

// SerializableMembers 返回结构体类型 t 中参与序列化的成员（指针按元素类型处理）：
// 所有可见的导出字段（包含嵌入结构体提升的字段，排除 `serde:"-"`），
// 以及 ForceSerialize 声明的只读成员。结果按类型缓存，调用方不得修改。
func SerializableMembers(t reflect.Type) []*Member {
	t = Indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	if cached, ok := memberCache.Load(t); ok {
		return cached.([]*Member)
	}
	members := collectMembers(t)
	actual, _ := memberCache.LoadOrStore(t, members)
	return actual.([]*Member)
}

// WritableMembers 返回 SerializableMembers 中可以写回的成员。
func WritableMembers(t reflect.Type) []*Member {
	all := SerializableMembers(t)
	out := make([]*Member, 0, len(all))
	for _, m := range all {
		if !m.ReadOnly {
			out = append(out, m)
		}
	}
	return out
}

func collectMembers(t reflect.Type) []*Member {
	var members []*Member
	seen := make(map[string]struct{})

	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && Indirect(f.Type).Kind() == reflect.Struct && !IsWellKnown(f.Type) {
			// 嵌入结构体本身不输出，其提升字段会单独出现在 VisibleFields 中。
			continue
		}
		if tag, ok := f.Tag.Lookup(TagName); ok && strings.TrimSpace(tag) == "-" {
			continue
		}
		members = append(members, &Member{
			Name:  f.Name,
			Type:  f.Type,
			Index: f.Index,
		})
		seen[f.Name] = struct{}{}
	}

	for _, name := range forcedMethods(t) {
		if _, dup := seen[name]; dup {
			continue
		}
		m, ok := reflect.PointerTo(t).MethodByName(name)
		if !ok || m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
			continue
		}
		members = append(members, &Member{
			Name:     name,
			Type:     m.Type.Out(0),
			ReadOnly: true,
			method:   name,
		})
		seen[name] = struct{}{}
	}
	return members
}

func forcedMethods(t reflect.Type) []string {
	if !reflect.PointerTo(t).Implements(forceSerializerType) {
		return nil
	}
	var names []string
	func() {
		defer func() {
			// ForceSerialize 依赖实例状态并在零值上 panic 时视为未声明。
			_ = recover()
		}()
		names = reflect.New(t).Interface().(ForceSerializer).ForceSerialize()
	}()
	return names
}

// SerializableValues 读取 v 上所有可序列化成员的当前值。
// 经由 nil 嵌入指针无法到达的字段被跳过；只读成员的读取方法 panic 时返回 merr.ErrValueRead。
func SerializableValues(v reflect.Value) ([]MemberValue, error) {
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Kind() != reflect.Struct {
		return nil, nil
	}

	members := SerializableMembers(v.Type())
	values := make([]MemberValue, 0, len(members))
	for _, m := range members {
		if m.ReadOnly {
			mv, err := readMethod(v, m)
			if err != nil {
				return nil, err
			}
			values = append(values, MemberValue{Member: m, Value: mv})
			continue
		}
		fv, err := v.FieldByIndexErr(m.Index)
		if err != nil {
			continue
		}
		values = append(values, MemberValue{Member: m, Value: fv})
	}
	return values, nil
}

func readMethod(v reflect.Value, m *Member) (out reflect.Value, err error) {
	recv := v
	if v.CanAddr() {
		recv = v.Addr()
	} else {
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		recv = ptr
	}

	defer func() {
		if r := recover(); r != nil {
			err = merr.WrapErrValueRead(v.Type().String(), m.Name, r)
		}
	}()
	method := recv.MethodByName(m.method)
	if !method.IsValid() {
		return reflect.Value{}, merr.WrapErrValueRead(v.Type().String(), m.Name, fmt.Sprintf("method %s not found", m.method))
	}
	return method.Call(nil)[0], nil
}

// SetMember 将 value 写入 target 的成员 m，必要时分配经过的 nil 嵌入指针。
// value 的类型必须可赋值给成员类型，否则返回 false。
func SetMember(target reflect.Value, m *Member, value reflect.Value) bool {
	if m.ReadOnly || !value.IsValid() {
		return false
	}
	for target.Kind() == reflect.Pointer {
		if target.IsNil() {
			return false
		}
		target = target.Elem()
	}

	field := target
	for i, idx := range m.Index {
		if i > 0 && field.Kind() == reflect.Pointer {
			if field.IsNil() {
				if !field.CanSet() {
					return false
				}
				field.Set(reflect.New(field.Type().Elem()))
			}
			field = field.Elem()
		}
		field = field.Field(idx)
	}
	if !field.CanSet() || !value.Type().AssignableTo(field.Type()) {
		return false
	}
	field.Set(value)
	return true
}

// FindMember 按名称查找成员，名称需完全一致。
func FindMember(t reflect.Type, name string) (*Member, bool) {
	for _, m := range SerializableMembers(t) {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}
