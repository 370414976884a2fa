package viper

import (
	"bytes"
	"path/filepath"
	"strings"

	spfviper "github.com/spf13/viper"
)

// Config 封装 spf13/viper 实例，对外提供精简的 YAML/JSON 配置加载接口。
type Config struct {
	v *spfviper.Viper
}

// New 创建一个空的 Config。
// 未加载任何配置文件时，Unmarshal 只会得到缺省值与环境变量。
func New() *Config {
	return &Config{
		v: spfviper.New(),
	}
}

func (c *Config) viper() *spfviper.Viper {
	if c.v == nil {
		c.v = spfviper.New()
	}
	return c.v
}

// LoadFile 将 YAML 或 JSON 配置文件加载到 Config 中。
// 文件类型通过扩展名（.yaml/.yml/.json）推断。
func (c *Config) LoadFile(path string) error {
	v := c.viper()
	v.SetConfigFile(path)
	if typ := configType(path); typ != "" {
		v.SetConfigType(typ)
	}
	return v.ReadInConfig()
}

// LoadBytes 从内存中读取配置，typ 为 "yaml" 或 "json"。
func (c *Config) LoadBytes(typ string, data []byte) error {
	v := c.viper()
	v.SetConfigType(typ)
	return v.ReadConfig(bytes.NewReader(data))
}

// BindEnv 允许以 prefix_KEY 形式的环境变量覆盖配置，
// 层级分隔符 "." 与 "-" 在环境变量中写作 "_"。
func (c *Config) BindEnv(prefix string) {
	v := c.viper()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// SetDefault 为 key 设置缺省值。
func (c *Config) SetDefault(key string, value any) {
	c.viper().SetDefault(key, value)
}

// IsSet 判断 key 是否存在于配置文件、环境变量或缺省值中。
func (c *Config) IsSet(key string) bool {
	return c.viper().IsSet(key)
}

// Unmarshal 将完整配置反序列化到 dst。
// dst 应为结构体或 map 的指针。
func (c *Config) Unmarshal(dst any) error {
	return c.viper().Unmarshal(dst)
}

// UnmarshalKey 将指定 key 对应的子配置反序列化到 dst。
// dst 应为结构体或 map 的指针。
func (c *Config) UnmarshalKey(key string, dst any) error {
	return c.viper().UnmarshalKey(key, dst)
}

func configType(path string) string {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		// 交给 viper 自行推断，无法识别时 ReadInConfig 会返回错误。
		return ""
	}
}
