package format

import (
	"github.com/lk2023060901/danmu-serde/internal/compressor"
	"github.com/lk2023060901/danmu-serde/pkg/serde/prototype"
	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

const (
	frameRaw        byte = 0
	frameCompressed byte = 1
)

// Compressed 在内层格式的输出上做整块压缩。
// 输出首字节标记载荷是否经过压缩，短于阈值的载荷原样保存。
type Compressed struct {
	inner   prototype.Format
	c       compressor.Compressor
	minSize int
}

var _ prototype.Format = (*Compressed)(nil)

// NewCompressed 包装 inner，minSize <= 0 表示总是压缩。
func NewCompressed(inner prototype.Format, c compressor.Compressor, minSize int) *Compressed {
	if minSize < 0 {
		minSize = 0
	}
	return &Compressed{inner: inner, c: c, minSize: minSize}
}

func (f *Compressed) Name() string { return f.inner.Name() + "+" + f.c.Name() }

func (f *Compressed) IsBinary() bool { return true }

func (f *Compressed) NewPrototype() prototype.Prototype { return f.inner.NewPrototype() }

// Inner 返回被包装的格式。
func (f *Compressed) Inner() prototype.Format { return f.inner }

func (f *Compressed) Encode(p prototype.Prototype, _ bool) ([]byte, error) {
	plain, err := f.inner.Encode(p, false)
	if err != nil {
		return nil, err
	}
	if len(plain) < f.minSize {
		return append([]byte{frameRaw}, plain...), nil
	}
	packed, err := f.c.Compress(make([]byte, 0, len(plain)/2+1), plain)
	if err != nil {
		return nil, merr.WrapErrFormatEncode(f.Name(), err)
	}
	return append([]byte{frameCompressed}, packed...), nil
}

func (f *Compressed) Decode(data []byte) (prototype.Prototype, error) {
	if len(data) == 0 {
		return nil, merr.WrapErrMalformedInput(f.Name(), nil)
	}
	switch data[0] {
	case frameRaw:
		return f.inner.Decode(data[1:])
	case frameCompressed:
		plain, err := f.c.Decompress(nil, data[1:])
		if err != nil {
			return nil, merr.WrapErrMalformedInput(f.Name(), err)
		}
		return f.inner.Decode(plain)
	default:
		return nil, merr.WrapErrMalformedInput(f.Name(), nil)
	}
}
