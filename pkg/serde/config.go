package serde

import "github.com/lk2023060901/danmu-serde/pkg/config"

// NewFromConfig 按配置创建 Serializer，opts 在配置之后应用，可以覆盖配置项。
func NewFromConfig(cfg config.SerdeConfig, opts ...Option) (*Serializer, error) {
	cfg.Initialize()
	base := []Option{
		WithFormatConfig(cfg.Format),
		WithMaxDepth(cfg.MaxDepth),
		WithIgnoreEnumCase(cfg.IgnoreEnumCase),
		WithAutoRegister(cfg.AutoRegister),
		WithBatchPoolSize(cfg.BatchPoolSize),
	}
	return New(append(base, opts...)...)
}
