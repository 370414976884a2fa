// Package typeregistry 维护多态类型标签与 Go 类型之间的映射。
//
// 标签默认取 "<包路径目录>/<包名>.<类型名>"，例如
// github.com/acme/zoo/animal.Dog 的标签为 "github.com/acme/zoo/animal.Dog"。
// 也可以为类型登记一个稳定的自定义名称，避免包路径变动影响线上数据。
package typeregistry

import (
	"reflect"
	"sync"

	"github.com/lk2023060901/danmu-serde/internal/reflector"
	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

// Registry 是并发安全的标签注册表。
type Registry struct {
	mu     sync.RWMutex
	byTag  map[string]reflect.Type
	byType map[reflect.Type]string
}

// New 返回一个空的 Registry。
func New() *Registry {
	return &Registry{
		byTag:  make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

// DefaultTag 返回 t 的默认标签，指针按元素类型处理；未命名类型返回空字符串。
func DefaultTag(t reflect.Type) string {
	t = reflector.Indirect(t)
	if t == nil || t.Name() == "" {
		return ""
	}
	pkg := t.PkgPath()
	if pkg == "" {
		return t.Name()
	}
	return pkg + "." + t.Name()
}

// Register 以默认标签登记 t。
func (r *Registry) Register(t reflect.Type) error {
	return r.RegisterName(DefaultTag(t), t)
}

// RegisterName 以 tag 登记 t，指针按元素类型登记。
// 同一标签已登记为其他类型时返回 merr.ErrTypeAlreadyRegistered。
func (r *Registry) RegisterName(tag string, t reflect.Type) error {
	t = reflector.Indirect(t)
	if t == nil || tag == "" {
		return merr.WrapErrParameterInvalidMsg("type tag and type must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byTag[tag]; ok {
		if existing == t {
			return nil
		}
		return merr.WrapErrTypeAlreadyRegistered(tag, existing.String())
	}
	r.byTag[tag] = t
	if _, ok := r.byType[t]; !ok {
		r.byType[t] = tag
	}
	return nil
}

// Resolve 返回 tag 对应的类型。
func (r *Registry) Resolve(tag string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byTag[tag]
	return t, ok
}

// TagOf 返回 t 的标签：优先使用登记的名称，否则为默认标签。
func (r *Registry) TagOf(t reflect.Type) string {
	t = reflector.Indirect(t)
	if t == nil {
		return ""
	}
	r.mu.RLock()
	tag, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return tag
	}
	return DefaultTag(t)
}

// Len 返回已登记的标签数量。
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byTag)
}

// Register 以默认标签登记类型 T。
func Register[T any](r *Registry) error {
	return r.Register(reflect.TypeOf((*T)(nil)).Elem())
}

// RegisterName 以 tag 登记类型 T。
func RegisterName[T any](r *Registry, tag string) error {
	return r.RegisterName(tag, reflect.TypeOf((*T)(nil)).Elem())
}

// MustRegister 与 Register 相同，失败时 panic。
func MustRegister[T any](r *Registry) {
	if err := Register[T](r); err != nil {
		panic(err)
	}
}
