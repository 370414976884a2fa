package prototype

import (
	"reflect"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/lk2023060901/danmu-serde/pkg/util/typeutil"
)

// Tree 是基于 map[string]any 的 Prototype，供树形格式（JSON、MessagePack）共用。
// 写入时取值即被渲染为通用值树：嵌套 Prototype 变为 map，枚举值经 EnumRenderer 变为字符串，
// 切片逐元素渲染。读取时 map 重新包装为 *Tree，[]any 逐元素包装。
type Tree struct {
	children map[string]any
	enums    EnumRenderer
}

var _ Prototype = (*Tree)(nil)

// NewTree 返回一个空 Tree，enums 可以为 nil。
func NewTree(enums EnumRenderer) *Tree {
	return &Tree{children: make(map[string]any), enums: enums}
}

// WrapTree 以 m 为底层存储构造 Tree，m 由解码得到。
func WrapTree(m map[string]any, enums EnumRenderer) *Tree {
	if m == nil {
		m = make(map[string]any)
	}
	return &Tree{children: m, enums: enums}
}

// Map 返回底层的通用值树，可以直接交给编解码后端。
func (t *Tree) Map() map[string]any {
	return t.children
}

func (t *Tree) SetChild(name string, value any) {
	key := TransformName(name)
	if key == "" {
		return
	}
	t.SetEntry(key, value)
}

func (t *Tree) Child(name string) (any, bool) {
	if name == "" {
		return nil, false
	}
	if raw, ok := t.children[TransformName(name)]; ok {
		return t.unwrap(raw), true
	}
	if raw, ok := t.children[name]; ok {
		return t.unwrap(raw), true
	}
	for _, key := range t.Keys() {
		if strings.EqualFold(key, name) {
			return t.unwrap(t.children[key]), true
		}
	}
	return nil, false
}

func (t *Tree) SetEntry(key string, value any) {
	rendered, ok := t.render(value)
	if !ok {
		return
	}
	t.children[key] = rendered
}

func (t *Tree) Entry(key string) (any, bool) {
	raw, ok := t.children[key]
	if !ok {
		return nil, false
	}
	return t.unwrap(raw), true
}

func (t *Tree) Keys() []string {
	keys := lo.Keys(t.children)
	sort.Strings(keys)
	return keys
}

func (t *Tree) Len() int {
	return len(t.children)
}

func (t *Tree) TypeTag() (string, bool) {
	for i := len(TagKeys) - 1; i >= 0; i-- {
		if tag, ok := t.children[TagKeys[i]].(string); ok && tag != "" {
			return tag, true
		}
	}
	return "", false
}

func (t *Tree) SetTypeTag(tag string, reserved typeutil.Set[string]) bool {
	transformed := typeutil.Map(reserved, TransformName)
	for _, key := range TagKeys {
		if transformed.Contain(key) {
			continue
		}
		if _, taken := t.children[key]; taken {
			continue
		}
		t.children[key] = tag
		return true
	}
	return false
}

// render 将写入的取值转换为通用值树中的表示，nil 返回 false。
func (t *Tree) render(value any) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case *Tree:
		return v.children, true
	case Prototype:
		m := make(map[string]any, v.Len())
		for _, key := range v.Keys() {
			if child, ok := v.Entry(key); ok {
				if rendered, ok := t.render(child); ok {
					m[key] = rendered
				}
			}
		}
		return m, true
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			if rendered, ok := t.render(item); ok {
				out = append(out, rendered)
			}
		}
		return out, true
	case bool, int64, uint64, float64, string:
		return v, true
	}

	rv := reflect.ValueOf(value)
	if t.enums != nil && t.enums.IsEnum(rv.Type()) {
		s, err := t.enums.EnumToString(rv)
		if err != nil {
			return nil, false
		}
		return s, true
	}
	return value, true
}

func (t *Tree) unwrap(raw any) any {
	switch v := raw.(type) {
	case map[string]any:
		return WrapTree(v, t.enums)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = t.unwrap(item)
		}
		return out
	default:
		return raw
	}
}
