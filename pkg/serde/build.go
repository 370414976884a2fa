package serde

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serde/internal/reflector"
	"github.com/lk2023060901/danmu-serde/pkg/log"
	"github.com/lk2023060901/danmu-serde/pkg/metrics"
	"github.com/lk2023060901/danmu-serde/pkg/serde/prototype"
	"github.com/lk2023060901/danmu-serde/pkg/util/typeutil"
)

const (
	pairKeyName   = "Key"
	pairValueName = "Value"
)

// build 把 v 转换为 Prototype 子节点取值：标量、字符串、[]any 或 Prototype。
// 返回 false 表示该节点缺失，由调用方省略；只有成员读取失败会返回错误。
func (s *Serializer) build(v reflect.Value, declared reflect.Type, depth int) (any, bool, error) {
	v, ok := deref(v)
	if !ok {
		return nil, false, nil
	}
	t := v.Type()
	if depth > s.maxDepth {
		s.drop(metrics.BuildStage, metrics.DepthExceededReason, log.FieldType(t), zap.Int("depth", depth))
		return nil, false, nil
	}

	switch shape := reflector.Classify(t, s.enums); shape {
	case reflector.ShapeEnum:
		text, err := s.enums.EnumToString(v)
		if err != nil {
			s.drop(metrics.BuildStage, metrics.ValueMismatchReason, log.FieldType(t), zap.Error(err))
			return nil, false, nil
		}
		return text, true, nil
	case reflector.ShapePrimitive, reflector.ShapeString:
		out, ok := reflector.Normalize(v)
		if f, isFloat := out.(float64); isFloat && (math.IsNaN(f) || math.IsInf(f, 0)) {
			// 线格式无法表示 NaN 与无穷大。
			s.drop(metrics.BuildStage, metrics.ValueMismatchReason, log.FieldType(t), zap.Float64("value", f))
			return nil, false, nil
		}
		return out, ok, nil
	case reflector.ShapeWellKnown:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil, false, nil
		}
		text, ok := reflector.FormatWellKnown(v)
		if !ok {
			s.drop(metrics.BuildStage, metrics.ValueMismatchReason, log.FieldType(t))
		}
		return text, ok, nil
	case reflector.ShapeListLike:
		return s.buildList(v, depth)
	case reflector.ShapeEnumerableLike:
		return s.buildSet(v, depth)
	case reflector.ShapeMapLike:
		return s.buildMap(v, depth)
	case reflector.ShapeTupleLike, reflector.ShapePairLike, reflector.ShapeRecord:
		return s.buildRecord(v, declared, depth)
	default:
		s.drop(metrics.BuildStage, metrics.ValueMismatchReason, log.FieldType(t), zap.Stringer("shape", shape))
		return nil, false, nil
	}
}

func (s *Serializer) buildList(v reflect.Value, depth int) (any, bool, error) {
	if v.Kind() == reflect.Slice && v.IsNil() {
		return nil, false, nil
	}
	elem := v.Type().Elem()
	items := make([]any, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		node, ok, err := s.build(v.Index(i), elem, depth+1)
		if err != nil {
			return nil, false, err
		}
		if ok {
			items = append(items, node)
		}
	}
	return items, true, nil
}

func (s *Serializer) buildSet(v reflect.Value, depth int) (any, bool, error) {
	if v.IsNil() {
		return nil, false, nil
	}
	keyType := v.Type().Key()
	items := make([]any, 0, v.Len())
	for _, key := range sortedKeys(v) {
		node, ok, err := s.build(key, keyType, depth+1)
		if err != nil {
			return nil, false, err
		}
		if ok {
			items = append(items, node)
		}
	}
	return items, true, nil
}

// buildMap 把键可以表示为字符串的 map 构建为嵌套对象，
// 其余 map 构建为 {Key, Value} 对象组成的列表。
func (s *Serializer) buildMap(v reflect.Value, depth int) (any, bool, error) {
	if v.IsNil() {
		return nil, false, nil
	}
	t := v.Type()
	keys := sortedKeys(v)

	if s.isKeyShape(t.Key()) {
		p := s.format.NewPrototype()
		for _, key := range keys {
			text, ok := s.keyString(key)
			if !ok {
				s.drop(metrics.BuildStage, metrics.ElementFailedReason, log.FieldType(t.Key()))
				continue
			}
			node, ok, err := s.build(v.MapIndex(key), t.Elem(), depth+1)
			if err != nil {
				return nil, false, err
			}
			if ok {
				p.SetEntry(text, node)
			}
		}
		return p, true, nil
	}

	items := make([]any, 0, len(keys))
	for _, key := range keys {
		keyNode, ok, err := s.build(key, t.Key(), depth+1)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			s.drop(metrics.BuildStage, metrics.ElementFailedReason, log.FieldType(t.Key()))
			continue
		}
		valueNode, hasValue, err := s.build(v.MapIndex(key), t.Elem(), depth+1)
		if err != nil {
			return nil, false, err
		}
		pair := s.format.NewPrototype()
		pair.SetChild(pairKeyName, keyNode)
		if hasValue {
			pair.SetChild(pairValueName, valueNode)
		}
		items = append(items, pair)
	}
	return items, true, nil
}

// buildRecord 逐个构建成员；实际类型与声明类型不同时嵌入类型标签。
func (s *Serializer) buildRecord(v reflect.Value, declared reflect.Type, depth int) (any, bool, error) {
	values, err := reflector.SerializableValues(v)
	if err != nil {
		return nil, false, err
	}

	p := s.format.NewPrototype()
	// 经由 nil 嵌入指针的成员没有取值，但它们的名称同样不能被类型标签占用。
	reserved := typeutil.NewSet(lo.Map(reflector.SerializableMembers(v.Type()), func(m *reflector.Member, _ int) string {
		return m.Name
	})...)
	for _, mv := range values {
		node, ok, err := s.build(mv.Value, mv.Member.Type, depth+1)
		if err != nil {
			return nil, false, err
		}
		if ok {
			p.SetChild(mv.Member.Name, node)
		}
	}

	if declared != nil && reflector.Indirect(declared) != v.Type() {
		s.embedTypeTag(p, v.Type(), reserved)
	}
	return p, true, nil
}

func (s *Serializer) embedTypeTag(p prototype.Prototype, actual reflect.Type, reserved typeutil.Set[string]) {
	if s.autoRegister {
		if err := s.registry.Register(actual); err != nil {
			s.Logger().Debug("auto register type failed", log.FieldType(actual), zap.Error(err))
		}
	}
	tag := s.registry.TagOf(actual)
	if tag == "" {
		return
	}
	if !p.SetTypeTag(tag, reserved) {
		s.Logger().Debug("no free key for type tag", log.FieldType(actual), log.FieldTypeTag(tag))
	}
}

// isKeyShape 判断 map 键类型能否写作对象的字符串键。
func (s *Serializer) isKeyShape(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return false
	}
	switch reflector.Classify(t, s.enums) {
	case reflector.ShapeString, reflector.ShapeEnum, reflector.ShapePrimitive, reflector.ShapeWellKnown:
		return true
	default:
		return false
	}
}

func (s *Serializer) keyString(key reflect.Value) (string, bool) {
	switch reflector.Classify(key.Type(), s.enums) {
	case reflector.ShapeEnum:
		text, err := s.enums.EnumToString(key)
		return text, err == nil
	case reflector.ShapeWellKnown:
		return reflector.FormatWellKnown(key)
	default:
		scalar, ok := reflector.Normalize(key)
		if !ok {
			return "", false
		}
		return formatScalar(scalar), true
	}
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// sortedKeys 返回按取值排序的 map 键，使集合与键值对列表的输出顺序稳定。
func sortedKeys(v reflect.Value) []reflect.Value {
	keys := v.MapKeys()
	slices.SortFunc(keys, compareValues)
	return keys
}

func compareValues(a, b reflect.Value) int {
	switch a.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Bool:
		switch {
		case a.Bool() == b.Bool():
			return 0
		case b.Bool():
			return -1
		default:
			return 1
		}
	default:
		return cmp.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
	}
}
