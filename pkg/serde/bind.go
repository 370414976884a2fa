package serde

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serde/internal/json"
	"github.com/lk2023060901/danmu-serde/internal/reflector"
	"github.com/lk2023060901/danmu-serde/pkg/log"
	"github.com/lk2023060901/danmu-serde/pkg/metrics"
	"github.com/lk2023060901/danmu-serde/pkg/serde/prototype"
	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

// bind 把解码得到的节点转换为 t 类型的值。
// 返回 false 表示该节点无法绑定，调用方保留目标的零值；
// 只有枚举编码空间耗尽会返回错误。
func (s *Serializer) bind(node any, t reflect.Type, depth int) (reflect.Value, bool, error) {
	if node == nil {
		return reflect.Value{}, false, nil
	}
	if depth > s.maxDepth {
		s.drop(metrics.BindStage, metrics.DepthExceededReason, log.FieldType(t), zap.Int("depth", depth))
		return reflect.Value{}, false, nil
	}
	if t.Kind() == reflect.Pointer {
		inner, ok, err := s.bind(node, t.Elem(), depth)
		if err != nil || !ok {
			return reflect.Value{}, false, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(inner)
		return ptr, true, nil
	}

	switch shape := reflector.Classify(t, s.enums); shape {
	case reflector.ShapeInterface:
		return s.bindInterface(node, t, depth)
	case reflector.ShapeEnum:
		return s.bindEnum(node, t)
	case reflector.ShapePrimitive, reflector.ShapeString:
		v, ok := reflector.ConvertScalar(node, t)
		if !ok {
			s.drop(metrics.BindStage, metrics.ValueMismatchReason, log.FieldType(t))
			return reflect.Value{}, false, nil
		}
		return v, true, nil
	case reflector.ShapeWellKnown:
		return s.bindWellKnown(node, t), true, nil
	case reflector.ShapeListLike:
		return s.bindList(node, t, depth)
	case reflector.ShapeEnumerableLike:
		return s.bindSet(node, t, depth)
	case reflector.ShapeMapLike:
		return s.bindMap(node, t, depth)
	case reflector.ShapeTupleLike, reflector.ShapePairLike:
		return s.bindTuple(node, t, depth)
	case reflector.ShapeRecord:
		return s.bindRecord(node, t, depth)
	default:
		s.drop(metrics.BindStage, metrics.ValueMismatchReason, log.FieldType(t), zap.Stringer("shape", shape))
		return reflect.Value{}, false, nil
	}
}

func (s *Serializer) bindEnum(node any, t reflect.Type) (reflect.Value, bool, error) {
	text, isText := node.(string)
	if !isText {
		v, ok := reflector.ConvertScalar(node, t)
		if !ok {
			s.drop(metrics.BindStage, metrics.ValueMismatchReason, log.FieldType(t))
		}
		return v, ok, nil
	}
	v, err := s.enums.StringToEnum(t, text, s.ignoreEnumCase)
	if err != nil {
		if merr.IsFatal(err) {
			return reflect.Value{}, false, err
		}
		s.drop(metrics.BindStage, metrics.ValueMismatchReason, log.FieldType(t), zap.Error(err))
		return reflect.Value{}, false, nil
	}
	return v, true, nil
}

// bindWellKnown 解析规范字符串，解析失败时得到零值。
func (s *Serializer) bindWellKnown(node any, t reflect.Type) reflect.Value {
	if text, ok := node.(string); ok {
		v, ok := reflector.ParseWellKnown(text, t)
		if !ok {
			s.Logger().Debug("parse well-known value failed, using zero value", log.FieldType(t), zap.String("text", text))
		}
		return v
	}
	if v, ok := reflector.ConvertScalar(node, t); ok {
		return v
	}
	return reflect.Zero(t)
}

func (s *Serializer) bindList(node any, t reflect.Type, depth int) (reflect.Value, bool, error) {
	items, ok := node.([]any)
	if !ok {
		s.drop(metrics.BindStage, metrics.ValueMismatchReason, log.FieldType(t))
		return reflect.Value{}, false, nil
	}

	if t.Kind() == reflect.Array {
		out := reflect.New(t).Elem()
		n := 0
		for _, item := range items {
			if n >= t.Len() {
				break
			}
			v, ok, err := s.bind(item, t.Elem(), depth+1)
			if err != nil {
				return reflect.Value{}, false, err
			}
			if !ok {
				continue
			}
			out.Index(n).Set(v)
			n++
		}
		return out, true, nil
	}

	out := reflect.MakeSlice(t, 0, len(items))
	for _, item := range items {
		v, ok, err := s.bind(item, t.Elem(), depth+1)
		if err != nil {
			return reflect.Value{}, false, err
		}
		if !ok {
			s.drop(metrics.BindStage, metrics.ElementFailedReason, log.FieldType(t.Elem()))
			continue
		}
		out = reflect.Append(out, v)
	}
	return out, true, nil
}

func (s *Serializer) bindSet(node any, t reflect.Type, depth int) (reflect.Value, bool, error) {
	items, ok := node.([]any)
	if !ok {
		s.drop(metrics.BindStage, metrics.ValueMismatchReason, log.FieldType(t))
		return reflect.Value{}, false, nil
	}
	out := reflect.MakeMapWithSize(t, len(items))
	unit := reflect.Zero(t.Elem())
	for _, item := range items {
		key, ok, err := s.bind(item, t.Key(), depth+1)
		if err != nil {
			return reflect.Value{}, false, err
		}
		if !ok {
			s.drop(metrics.BindStage, metrics.ElementFailedReason, log.FieldType(t.Key()))
			continue
		}
		out.SetMapIndex(key, unit)
	}
	return out, true, nil
}

// bindMap 接受两种形式：以字符串为键的对象，以及 {Key, Value} 对象组成的列表。
func (s *Serializer) bindMap(node any, t reflect.Type, depth int) (reflect.Value, bool, error) {
	out := reflect.MakeMap(t)
	switch x := node.(type) {
	case prototype.Prototype:
		for _, text := range x.Keys() {
			key, ok, err := s.bindKey(text, t.Key())
			if err != nil {
				return reflect.Value{}, false, err
			}
			if !ok {
				s.drop(metrics.BindStage, metrics.ElementFailedReason, log.FieldType(t.Key()), zap.String("key", text))
				continue
			}
			raw, _ := x.Entry(text)
			value, ok, err := s.bind(raw, t.Elem(), depth+1)
			if err != nil {
				return reflect.Value{}, false, err
			}
			if !ok {
				continue
			}
			out.SetMapIndex(key, value)
		}
	case []any:
		for _, item := range x {
			pair, ok := item.(prototype.Prototype)
			if !ok {
				s.drop(metrics.BindStage, metrics.ElementFailedReason, log.FieldType(t))
				continue
			}
			rawKey, _ := pair.Child(pairKeyName)
			key, ok, err := s.bind(rawKey, t.Key(), depth+1)
			if err != nil {
				return reflect.Value{}, false, err
			}
			if !ok {
				s.drop(metrics.BindStage, metrics.ElementFailedReason, log.FieldType(t.Key()))
				continue
			}
			rawValue, _ := pair.Child(pairValueName)
			value, ok, err := s.bind(rawValue, t.Elem(), depth+1)
			if err != nil {
				return reflect.Value{}, false, err
			}
			if !ok {
				value = reflect.Zero(t.Elem())
			}
			out.SetMapIndex(key, value)
		}
	default:
		s.drop(metrics.BindStage, metrics.ValueMismatchReason, log.FieldType(t))
		return reflect.Value{}, false, nil
	}
	return out, true, nil
}

func (s *Serializer) bindKey(text string, t reflect.Type) (reflect.Value, bool, error) {
	switch reflector.Classify(t, s.enums) {
	case reflector.ShapeEnum:
		return s.bindEnum(text, t)
	case reflector.ShapeWellKnown:
		v, ok := reflector.ParseWellKnown(text, t)
		return v, ok, nil
	case reflector.ShapeString, reflector.ShapePrimitive:
		v, ok := reflector.ConvertScalar(text, t)
		return v, ok, nil
	default:
		return reflect.Value{}, false, nil
	}
}

// bindTuple 按位置绑定 Item1..ItemN 或 Key/Value，非可空槽位缺失时整个值缺失。
func (s *Serializer) bindTuple(node any, t reflect.Type, depth int) (reflect.Value, bool, error) {
	p, ok := node.(prototype.Prototype)
	if !ok {
		s.drop(metrics.BindStage, metrics.ValueMismatchReason, log.FieldType(t))
		return reflect.Value{}, false, nil
	}
	out := reflect.New(t).Elem()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		var (
			v     reflect.Value
			bound bool
			err   error
		)
		if raw, found := p.Child(field.Name); found {
			v, bound, err = s.bind(raw, field.Type, depth+1)
			if err != nil {
				return reflect.Value{}, false, err
			}
		}
		if !bound {
			if reflector.IsNillable(field.Type) {
				continue
			}
			s.drop(metrics.BindStage, metrics.ElementFailedReason,
				zap.Error(merr.WrapErrBindIncomplete(t.String(), "missing "+field.Name)))
			return reflect.Value{}, false, nil
		}
		out.Field(i).Set(v)
	}
	return out, true, nil
}

func (s *Serializer) bindRecord(node any, t reflect.Type, depth int) (reflect.Value, bool, error) {
	p, ok := node.(prototype.Prototype)
	if !ok {
		s.drop(metrics.BindStage, metrics.ValueMismatchReason, log.FieldType(t))
		return reflect.Value{}, false, nil
	}
	out := reflect.New(t).Elem()
	for _, m := range reflector.WritableMembers(t) {
		raw, found := p.Child(m.Name)
		if !found {
			continue
		}
		v, ok, err := s.bind(raw, m.Type, depth+1)
		if err != nil {
			return reflect.Value{}, false, err
		}
		if !ok {
			continue
		}
		if !reflector.SetMember(out, m, v) {
			s.drop(metrics.BindStage, metrics.ValueMismatchReason, log.FieldType(t), log.FieldMember(m.Name))
		}
	}
	return out, true, nil
}

// bindInterface 依据类型标签选择实际类型；没有可用标签时，
// 空接口得到普通的 map/切片/标量，非空接口的值缺失。
func (s *Serializer) bindInterface(node any, t reflect.Type, depth int) (reflect.Value, bool, error) {
	if p, ok := node.(prototype.Prototype); ok {
		if tag, ok := p.TypeTag(); ok {
			if actual, ok := s.resolve(tag, t); ok {
				v, ok, err := s.bind(p, actual, depth)
				if err != nil || !ok {
					return reflect.Value{}, false, err
				}
				return s.box(v, t)
			}
		}
	}

	if t.NumMethod() > 0 {
		s.drop(metrics.BindStage, metrics.UnresolvedTypeReason, log.FieldType(t))
		return reflect.Value{}, false, nil
	}
	plain := toPlain(node)
	if plain == nil {
		return reflect.Value{}, false, nil
	}
	out := reflect.New(t).Elem()
	out.Set(reflect.ValueOf(plain))
	return out, true, nil
}

// resolve 返回标签登记的类型，要求它能放在声明类型的位置。
func (s *Serializer) resolve(tag string, declared reflect.Type) (reflect.Type, bool) {
	actual, ok := s.registry.Resolve(tag)
	if !ok {
		if s.unresolved.Insert(tag) {
			s.Logger().RatedWarn(1, "type tag cannot be resolved",
				log.FieldTypeTag(tag), log.FieldType(declared),
				zap.Error(merr.WrapErrTypeUnresolvable(tag, declared.String())))
		}
		return nil, false
	}
	if !reflector.IsCompatible(actual, declared) {
		s.Logger().Debug("type tag not compatible with declared type",
			log.FieldTypeTag(tag), log.FieldType(declared), zap.Stringer("actual", actual))
		return nil, false
	}
	return actual, true
}

// box 把实际类型的值装入接口 t，值不满足接口时尝试其指针。
func (s *Serializer) box(v reflect.Value, t reflect.Type) (reflect.Value, bool, error) {
	out := reflect.New(t).Elem()
	if v.Type().AssignableTo(t) {
		out.Set(v)
		return out, true, nil
	}
	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)
	if ptr.Type().AssignableTo(t) {
		out.Set(ptr)
		return out, true, nil
	}
	s.drop(metrics.BindStage, metrics.UnresolvedTypeReason, log.FieldType(t), zap.Stringer("actual", v.Type()))
	return reflect.Value{}, false, nil
}

// toPlain 把解码节点转换为 map[string]any、[]any 与标量组成的普通值。
// 整数形式的数字转换为 int64，其余数字为 float64。
func toPlain(node any) any {
	switch x := node.(type) {
	case prototype.Prototype:
		m := make(map[string]any, x.Len())
		for _, key := range x.Keys() {
			raw, _ := x.Entry(key)
			if v := toPlain(raw); v != nil {
				m[key] = v
			}
		}
		return m
	case []any:
		out := make([]any, 0, len(x))
		for _, item := range x {
			if v := toPlain(item); v != nil {
				out = append(out, v)
			}
		}
		return out
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	default:
		return node
	}
}
