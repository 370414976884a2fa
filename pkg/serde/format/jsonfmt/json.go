// Package jsonfmt 将 Prototype 编码为 JSON 文本。
package jsonfmt

import (
	"bytes"

	"github.com/lk2023060901/danmu-serde/internal/json"
	"github.com/lk2023060901/danmu-serde/pkg/serde/prototype"
	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

// Name 是 JSON 格式的名称。
const Name = "json"

// Format 是基于 internal/json 后端的 JSON 格式。
type Format struct {
	api     json.API
	backend json.Backend
	enums   prototype.EnumRenderer
}

var _ prototype.Format = (*Format)(nil)

// Option 配置 Format。
type Option func(f *Format)

// WithBackend 指定 JSON 编解码后端，默认使用 sonic。
func WithBackend(backend json.Backend) Option {
	return func(f *Format) {
		f.backend = backend
	}
}

// New 返回 JSON 格式，enums 用于渲染枚举值。
func New(enums prototype.EnumRenderer, opts ...Option) (*Format, error) {
	f := &Format{backend: json.BackendSonic, enums: enums}
	for _, opt := range opts {
		opt(f)
	}
	api, err := json.Get(f.backend)
	if err != nil {
		return nil, err
	}
	f.api = api
	return f, nil
}

func (f *Format) Name() string { return Name }

func (f *Format) IsBinary() bool { return false }

// Backend 返回当前使用的后端。
func (f *Format) Backend() json.Backend { return f.backend }

func (f *Format) NewPrototype() prototype.Prototype {
	return prototype.NewTree(f.enums)
}

// Encode 输出紧凑的 JSON 文本，对象键按字典序排列；pretty 为 true 时经过 Prettify。
func (f *Format) Encode(p prototype.Prototype, pretty bool) ([]byte, error) {
	if p == nil {
		return nil, merr.WrapErrParameterInvalidMsg("nil prototype")
	}
	data, err := f.api.Marshal(asTree(p, f.enums).Map())
	if err != nil {
		return nil, merr.WrapErrFormatEncode(Name, err)
	}
	if pretty {
		data = PrettifyBytes(data)
	}
	return data, nil
}

// Decode 解析顶层 JSON 对象，数字保留为 json.Number。
func (f *Format) Decode(data []byte) (prototype.Prototype, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, merr.WrapErrMalformedInput(Name, nil)
	}
	var root map[string]any
	if err := f.api.Unmarshal(data, &root); err != nil {
		return nil, merr.WrapErrMalformedInput(Name, err)
	}
	if root == nil {
		return nil, merr.WrapErrMalformedInput(Name, nil)
	}
	return prototype.WrapTree(root, f.enums), nil
}

func asTree(p prototype.Prototype, enums prototype.EnumRenderer) *prototype.Tree {
	if t, ok := p.(*prototype.Tree); ok {
		return t
	}
	t := prototype.NewTree(enums)
	for _, key := range p.Keys() {
		if v, ok := p.Entry(key); ok {
			t.SetEntry(key, v)
		}
	}
	return t
}
