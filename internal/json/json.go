// Package json 为项目提供统一的 JSON 编解码入口。
// 默认使用 bytedance/sonic，可切换为 json-iterator。
// 解码统一开启 UseNumber，数字以 json.Number 形式保留，避免大整数在 float64 中丢失精度。
package json

import (
	stdjson "encoding/json"
	"strings"

	"github.com/bytedance/sonic"
	jsoniter "github.com/json-iterator/go"

	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

// Backend 表示 JSON 编解码实现。
type Backend string

const (
	BackendSonic    Backend = "sonic"
	BackendJSONIter Backend = "jsoniter"
)

// Number 与 encoding/json.Number 相同，两种后端在 UseNumber 下都产出该类型。
type Number = stdjson.Number

// API 是编解码后端需要提供的最小能力集合。
type API interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Valid(data []byte) bool
}

var (
	sonicAPI API = sonic.Config{
		EscapeHTML:       false,
		SortMapKeys:      true,
		UseNumber:        true,
		ValidateString:   true,
		CompactMarshaler: true,
	}.Froze()

	jsoniterAPI API = jsoniter.Config{
		EscapeHTML:             false,
		SortMapKeys:            true,
		UseNumber:              true,
		ValidateJsonRawMessage: true,
	}.Froze()
)

// Get 返回指定后端的实现，空字符串表示默认后端 sonic。
func Get(backend Backend) (API, error) {
	switch Backend(strings.ToLower(string(backend))) {
	case "", BackendSonic:
		return sonicAPI, nil
	case BackendJSONIter:
		return jsoniterAPI, nil
	default:
		return nil, merr.WrapErrParameterInvalid(string(BackendSonic)+"|"+string(BackendJSONIter), string(backend), "json backend")
	}
}

// Marshal 使用默认后端编码 v。
func Marshal(v any) ([]byte, error) {
	return sonicAPI.Marshal(v)
}

// Unmarshal 使用默认后端将 data 解码到 v。
func Unmarshal(data []byte, v any) error {
	return sonicAPI.Unmarshal(data, v)
}

// Valid 判断 data 是否为合法 JSON。
func Valid(data []byte) bool {
	return sonicAPI.Valid(data)
}
