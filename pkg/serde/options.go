package serde

import (
	"github.com/lk2023060901/danmu-serde/pkg/log"
	"github.com/lk2023060901/danmu-serde/pkg/serde/enumconv"
	"github.com/lk2023060901/danmu-serde/pkg/serde/format"
	"github.com/lk2023060901/danmu-serde/pkg/serde/prototype"
	"github.com/lk2023060901/danmu-serde/pkg/serde/typeregistry"
)

// DefaultMaxDepth 为构建与绑定的默认最大递归深度。
const DefaultMaxDepth = 64

type options struct {
	format         prototype.Format
	formatConfig   format.Config
	enums          *enumconv.Converter
	registry       *typeregistry.Registry
	maxDepth       int
	ignoreEnumCase bool
	autoRegister   bool
	batchPoolSize  int
	logger         *log.MLogger
}

func defaultOptions() *options {
	return &options{
		maxDepth:     DefaultMaxDepth,
		autoRegister: true,
	}
}

// Option 用于定制 Serializer。
type Option func(opts *options)

// WithFormat 直接指定线格式。
// 传入的格式应使用同一个枚举转换器渲染枚举，否则枚举按数字输出。
func WithFormat(f prototype.Format) Option {
	return func(opts *options) {
		opts.format = f
	}
}

// WithFormatConfig 通过配置创建线格式，WithFormat 优先。
func WithFormatConfig(cfg format.Config) Option {
	return func(opts *options) {
		opts.formatConfig = cfg
	}
}

// WithEnums 指定枚举转换器，多个 Serializer 共享转换器时发明的编码保持一致。
func WithEnums(c *enumconv.Converter) Option {
	return func(opts *options) {
		opts.enums = c
	}
}

// WithRegistry 指定类型注册表。
func WithRegistry(r *typeregistry.Registry) Option {
	return func(opts *options) {
		opts.registry = r
	}
}

// WithMaxDepth 设置最大递归深度，n <= 0 时使用 DefaultMaxDepth。
func WithMaxDepth(n int) Option {
	return func(opts *options) {
		if n <= 0 {
			n = DefaultMaxDepth
		}
		opts.maxDepth = n
	}
}

// WithIgnoreEnumCase 设置枚举名匹配是否忽略大小写。
func WithIgnoreEnumCase(v bool) Option {
	return func(opts *options) {
		opts.ignoreEnumCase = v
	}
}

// WithAutoRegister 设置输出类型标签时是否自动登记实际类型。
func WithAutoRegister(v bool) Option {
	return func(opts *options) {
		opts.autoRegister = v
	}
}

// WithBatchPoolSize 设置批量接口使用的协程池容量。
func WithBatchPoolSize(n int) Option {
	return func(opts *options) {
		opts.batchPoolSize = n
	}
}

// WithLogger 指定 Serializer 使用的 Logger。
func WithLogger(l *log.MLogger) Option {
	return func(opts *options) {
		opts.logger = l
	}
}
