// Package config 定义 serde 进程的配置结构，并通过 viper 从 YAML/JSON 文件加载。
package config

import (
	"github.com/lk2023060901/danmu-serde/pkg/log"
	"github.com/lk2023060901/danmu-serde/pkg/serde/format"
	"github.com/lk2023060901/danmu-serde/pkg/util/viper"
)

const (
	// DefaultMaxDepth 为构建与绑定的默认最大递归深度。
	DefaultMaxDepth = 64

	// EnvPrefix 为覆盖配置项的环境变量前缀，例如 SERDE_SERDE_MAX_DEPTH。
	EnvPrefix = "SERDE"
)

// SerdeConfig 为序列化引擎的配置。
type SerdeConfig struct {
	Format format.Config `mapstructure:"format" json:"format"`
	// MaxDepth 为最大递归深度，超过深度的分支被省略。
	MaxDepth int `mapstructure:"max-depth" json:"max-depth"`
	// IgnoreEnumCase 为 true 时枚举名匹配不区分大小写。
	IgnoreEnumCase bool `mapstructure:"ignore-enum-case" json:"ignore-enum-case"`
	// AutoRegister 为 true 时，输出类型标签的同时把实际类型登记到类型注册表。
	AutoRegister bool `mapstructure:"auto-register" json:"auto-register"`
	// BatchPoolSize 为批量序列化协程池容量，<= 0 时使用 GOMAXPROCS。
	BatchPoolSize int `mapstructure:"batch-pool-size" json:"batch-pool-size"`
}

// MetricsConfig 控制 Prometheus 指标。
type MetricsConfig struct {
	Enable bool `mapstructure:"enable" json:"enable"`
}

// Config 为进程级配置。
type Config struct {
	Serde   SerdeConfig           `mapstructure:"serde" json:"serde"`
	Log     log.Config            `mapstructure:"log" json:"log"`
	Logging map[string]log.Config `mapstructure:"logging" json:"logging"`
	Metrics MetricsConfig         `mapstructure:"metrics" json:"metrics"`
}

// Default 返回全部取缺省值的配置。
func Default() *Config {
	cfg := &Config{}
	cfg.Initialize()
	return cfg
}

// Initialize 为未设置的字段填充缺省值。
func (c *Config) Initialize() {
	c.Serde.Initialize()
	c.Log.Initialize()
}

// Initialize 为未设置的字段填充缺省值。
func (c *SerdeConfig) Initialize() {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.Format.Kind == "" {
		c.Format.Kind = format.KindJSON
	}
	if c.Format.Compression == "" {
		c.Format.Compression = format.CompressionNone
	}
}

// setDefaults 注册 viper 缺省值，使环境变量可以覆盖文件中没有出现的配置项。
func setDefaults(v *viper.Config) {
	v.SetDefault("serde.format.kind", string(format.KindJSON))
	v.SetDefault("serde.format.json-backend", "sonic")
	v.SetDefault("serde.format.compression", format.CompressionNone)
	v.SetDefault("serde.format.min-compress-size", 0)
	v.SetDefault("serde.max-depth", DefaultMaxDepth)
	v.SetDefault("serde.ignore-enum-case", false)
	v.SetDefault("serde.auto-register", true)
	v.SetDefault("serde.batch-pool-size", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.enable", false)
}

// Load 从 path 加载配置，path 为空时只使用缺省值与环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.BindEnv(EnvPrefix)
	if path != "" {
		if err := v.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return FromViper(v)
}

// FromViper 将已加载的 viper 配置反序列化为 Config。
func FromViper(v *viper.Config) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.Initialize()
	return cfg, nil
}
