// Package format 根据配置创建具体的 prototype.Format。
package format

import (
	"strings"

	"github.com/lk2023060901/danmu-serde/internal/compressor"
	"github.com/lk2023060901/danmu-serde/internal/json"
	"github.com/lk2023060901/danmu-serde/pkg/serde/format/jsonfmt"
	"github.com/lk2023060901/danmu-serde/pkg/serde/format/msgpackfmt"
	"github.com/lk2023060901/danmu-serde/pkg/serde/prototype"
	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

// Kind 表示外部格式种类。
type Kind string

const (
	KindJSON    Kind = jsonfmt.Name
	KindMsgpack Kind = msgpackfmt.Name
)

const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
)

// Config 描述如何创建 Format。
type Config struct {
	// Kind 为格式种类，空值表示 json。
	Kind Kind `mapstructure:"kind" json:"kind"`
	// JSONBackend 为 JSON 后端，sonic 或 jsoniter。
	JSONBackend json.Backend `mapstructure:"json-backend" json:"json-backend"`
	// Compression 为压缩算法，none 或 zstd；开启后格式总是二进制。
	Compression string `mapstructure:"compression" json:"compression"`
	// MinCompressSize 为触发压缩的最小字节数，更短的载荷原样保存。
	MinCompressSize int `mapstructure:"min-compress-size" json:"min-compress-size"`
}

// New 按 cfg 创建 Format，enums 用于渲染枚举值。
func New(cfg Config, enums prototype.EnumRenderer) (prototype.Format, error) {
	var (
		inner prototype.Format
		err   error
	)
	switch Kind(strings.ToLower(string(cfg.Kind))) {
	case "", KindJSON:
		inner, err = jsonfmt.New(enums, jsonfmt.WithBackend(cfg.JSONBackend))
		if err != nil {
			return nil, err
		}
	case KindMsgpack:
		inner = msgpackfmt.New(enums)
	default:
		return nil, merr.WrapErrFormatUnsupported(cfg.Kind)
	}

	switch strings.ToLower(cfg.Compression) {
	case "", CompressionNone:
		return inner, nil
	case CompressionZstd:
		c, err := compressor.NewZstdCompressor()
		if err != nil {
			return nil, err
		}
		return NewCompressed(inner, c, cfg.MinCompressSize), nil
	default:
		return nil, merr.WrapErrFormatUnsupported(cfg.Compression, "unknown compression")
	}
}
