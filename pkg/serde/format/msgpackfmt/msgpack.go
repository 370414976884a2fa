// Package msgpackfmt 将 Prototype 编码为 MessagePack 二进制。
package msgpackfmt

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/lk2023060901/danmu-serde/pkg/serde/prototype"
	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

// Name 是 MessagePack 格式的名称。
const Name = "msgpack"

// Format 是 MessagePack 格式，顶层为 map，键按字典序输出。
type Format struct {
	enums prototype.EnumRenderer
}

var _ prototype.Format = (*Format)(nil)

// New 返回 MessagePack 格式，enums 用于渲染枚举值。
func New(enums prototype.EnumRenderer) *Format {
	return &Format{enums: enums}
}

func (f *Format) Name() string { return Name }

func (f *Format) IsBinary() bool { return true }

func (f *Format) NewPrototype() prototype.Prototype {
	return prototype.NewTree(f.enums)
}

// Encode 输出 MessagePack 字节，二进制格式忽略 pretty。
func (f *Format) Encode(p prototype.Prototype, _ bool) ([]byte, error) {
	if p == nil {
		return nil, merr.WrapErrParameterInvalidMsg("nil prototype")
	}
	tree, ok := p.(*prototype.Tree)
	if !ok {
		tree = prototype.NewTree(f.enums)
		for _, key := range p.Keys() {
			if v, ok := p.Entry(key); ok {
				tree.SetEntry(key, v)
			}
		}
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	if err := enc.Encode(tree.Map()); err != nil {
		return nil, merr.WrapErrFormatEncode(Name, err)
	}
	return buf.Bytes(), nil
}

// Decode 解析顶层 map，整数统一解码为 int64/uint64，浮点为 float64。
func (f *Format) Decode(data []byte) (prototype.Prototype, error) {
	if len(data) == 0 {
		return nil, merr.WrapErrMalformedInput(Name, nil)
	}
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)

	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, merr.WrapErrMalformedInput(Name, err)
	}
	if root == nil {
		return nil, merr.WrapErrMalformedInput(Name, nil)
	}
	return prototype.WrapTree(root, f.enums), nil
}
