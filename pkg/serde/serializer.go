// Package serde 实现基于反射的对象序列化引擎。
//
// 序列化分两步：构建（build）把任意 Go 值转换为与格式无关的 Prototype 树，
// 随后由 prototype.Format 编码为 JSON、msgpack 等字节；反序列化则先解码出 Prototype，
// 再依据目标类型绑定（bind）回具体的值。
//
// 单个成员、元素或键值读取失败时只省略该节点，不会中断整个调用；
// 调用方只会看到 merr.ErrValueRead、merr.ErrEnumSpaceExhausted、
// merr.ErrMalformedInput、merr.ErrUnsupportedRoot 以及格式编码错误。
package serde

import (
	"encoding/base64"
	"reflect"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serde/internal/reflector"
	"github.com/lk2023060901/danmu-serde/pkg/log"
	"github.com/lk2023060901/danmu-serde/pkg/metrics"
	"github.com/lk2023060901/danmu-serde/pkg/serde/enumconv"
	"github.com/lk2023060901/danmu-serde/pkg/serde/format"
	"github.com/lk2023060901/danmu-serde/pkg/serde/prototype"
	"github.com/lk2023060901/danmu-serde/pkg/serde/typeregistry"
	"github.com/lk2023060901/danmu-serde/pkg/util/conc"
	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
	"github.com/lk2023060901/danmu-serde/pkg/util/typeutil"
)

// rateGroup 为重复性日志（丢弃节点的调试日志、无法解析的类型标签告警）使用的限流分组。
const rateGroup = "serde.serializer"

// Serializer 在 Go 值与某种线格式之间转换，可以被多个 goroutine 并发使用。
type Serializer struct {
	log.Binder

	format         prototype.Format
	enums          *enumconv.Converter
	registry       *typeregistry.Registry
	maxDepth       int
	ignoreEnumCase bool
	autoRegister   bool

	// unresolved 记录已告警过的无法解析的类型标签，每个标签只告警一次。
	unresolved *typeutil.ConcurrentSet[string]

	poolMu   sync.Mutex
	poolSize int
	pool     *conc.Pool[any]
	closed   bool
}

// New 创建 Serializer。未指定格式时按 WithFormatConfig 的配置创建，缺省为 JSON。
func New(opts ...Option) (*Serializer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.enums == nil {
		o.enums = enumconv.NewConverter()
	}
	if o.registry == nil {
		o.registry = typeregistry.New()
	}
	if o.format == nil {
		f, err := format.New(o.formatConfig, o.enums)
		if err != nil {
			return nil, err
		}
		o.format = f
	}
	if o.batchPoolSize <= 0 {
		o.batchPoolSize = runtime.GOMAXPROCS(0)
	}

	s := &Serializer{
		format:         o.format,
		enums:          o.enums,
		registry:       o.registry,
		maxDepth:       o.maxDepth,
		ignoreEnumCase: o.ignoreEnumCase,
		autoRegister:   o.autoRegister,
		unresolved:     typeutil.NewConcurrentSet[string](),
		poolSize:       o.batchPoolSize,
	}
	logger := o.logger
	if logger == nil {
		logger = log.With(log.FieldComponent("serde"))
	}
	s.SetLogger(logger.With(log.FieldFormat(s.format.Name())).WithRateGroup(rateGroup, 1, 30))
	return s, nil
}

// MustNew 与 New 相同，出错时 panic。
func MustNew(opts ...Option) *Serializer {
	s, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Format 返回使用的线格式。
func (s *Serializer) Format() prototype.Format { return s.format }

// Enums 返回枚举转换器，枚举类型需要先通过 enumconv.Define 登记。
func (s *Serializer) Enums() *enumconv.Converter { return s.enums }

// Registry 返回类型注册表。
func (s *Serializer) Registry() *typeregistry.Registry { return s.registry }

// MaxDepth 返回最大递归深度。
func (s *Serializer) MaxDepth() int { return s.maxDepth }

// Close 释放批量接口使用的协程池，之后批量接口返回错误。重复调用是安全的。
func (s *Serializer) Close() {
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	s.closed = true
	if s.pool != nil {
		s.pool.Release()
		s.pool = nil
	}
}

// SerializeToString 把 v 序列化为字符串，二进制格式的结果经过 base64 编码。
// asType 为 nil 时以 v 的实际类型作为声明类型；asType 为接口等与实际类型不同的类型时，
// 根节点会嵌入类型标签。v 为 nil 时返回空字符串。
func (s *Serializer) SerializeToString(v any, pretty bool, asType reflect.Type) (string, error) {
	data, err := s.serialize(v, pretty, asType)
	if err != nil || data == nil {
		return "", err
	}
	if s.format.IsBinary() {
		return base64.StdEncoding.EncodeToString(data), nil
	}
	return string(data), nil
}

// SerializeToBytes 把 v 序列化为线格式字节。v 为 nil 时返回 nil。
func (s *Serializer) SerializeToBytes(v any, asType reflect.Type) ([]byte, error) {
	return s.serialize(v, false, asType)
}

func (s *Serializer) serialize(v any, pretty bool, asType reflect.Type) (data []byte, err error) {
	rv, ok := deref(reflect.ValueOf(v))
	if !ok {
		return nil, nil
	}
	defer func() {
		metrics.SerializeTotal.WithLabelValues(s.format.Name(), metrics.ResultLabel(err)).Inc()
	}()

	if err := s.checkRoot(rv.Type()); err != nil {
		return nil, err
	}
	declared := asType
	if declared == nil {
		declared = rv.Type()
	}

	root, ok, err := s.build(rv, declared, 0)
	if err != nil {
		s.Logger().Warn("build prototype failed", append(errorFields(err), log.FieldType(rv.Type()))...)
		return nil, err
	}
	p, isPrototype := root.(prototype.Prototype)
	if !ok || !isPrototype {
		return nil, merr.WrapErrBuildIncomplete(rv.Type().String())
	}

	data, err = s.format.Encode(p, pretty)
	if err != nil {
		return nil, err
	}
	metrics.PayloadBytes.WithLabelValues(s.format.Name(), metrics.EncodeDirection).Observe(float64(len(data)))
	return data, nil
}

// DeserializeType 把字符串形式的文档绑定到 t 类型的新值上，
// 二进制格式的输入应为 base64 编码。
func (s *Serializer) DeserializeType(text string, t reflect.Type) (reflect.Value, error) {
	data := []byte(text)
	if s.format.IsBinary() {
		decoded, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			err = merr.WrapErrMalformedInput(s.format.Name(), err)
			metrics.DeserializeTotal.WithLabelValues(s.format.Name(), metrics.ResultLabel(err)).Inc()
			return reflect.Zero(t), err
		}
		data = decoded
	}
	return s.DeserializeBytesType(data, t)
}

// DeserializeBytesType 把线格式字节绑定到 t 类型的新值上。
// 返回值的类型总是 t；无法绑定的成员保持零值。
func (s *Serializer) DeserializeBytesType(data []byte, t reflect.Type) (out reflect.Value, err error) {
	defer func() {
		metrics.DeserializeTotal.WithLabelValues(s.format.Name(), metrics.ResultLabel(err)).Inc()
	}()
	if t == nil {
		return reflect.Value{}, merr.WrapErrParameterInvalidMsg("deserialize target type is nil")
	}
	if err := s.checkRoot(t); err != nil {
		return reflect.Zero(t), err
	}

	metrics.PayloadBytes.WithLabelValues(s.format.Name(), metrics.DecodeDirection).Observe(float64(len(data)))
	p, err := s.format.Decode(data)
	if err != nil {
		s.Logger().Debug("decode document failed", log.FieldType(t), zap.Error(err))
		return reflect.Zero(t), err
	}

	v, ok, err := s.bind(p, t, 0)
	if err != nil {
		s.Logger().Warn("bind prototype failed", append(errorFields(err), log.FieldType(t))...)
		return reflect.Zero(t), err
	}
	if !ok {
		return reflect.Zero(t), nil
	}
	return v, nil
}

// Deserialize 把字符串形式的文档绑定到 T 类型的新值上。
func Deserialize[T any](s *Serializer, text string) (T, error) {
	var zero T
	v, err := s.DeserializeType(text, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil || !v.IsValid() {
		return zero, err
	}
	out, _ := v.Interface().(T)
	return out, nil
}

// DeserializeBytes 把线格式字节绑定到 T 类型的新值上。
func DeserializeBytes[T any](s *Serializer, data []byte) (T, error) {
	var zero T
	v, err := s.DeserializeBytesType(data, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil || !v.IsValid() {
		return zero, err
	}
	out, _ := v.Interface().(T)
	return out, nil
}

// SerializeAs 以 T 作为声明类型序列化 v，T 为接口时根节点带有类型标签。
func SerializeAs[T any](s *Serializer, v T, pretty bool) (string, error) {
	return s.SerializeToString(v, pretty, reflect.TypeOf((*T)(nil)).Elem())
}

// checkRoot 判断 t 能否作为文档根：根必须编码为对象。
func (s *Serializer) checkRoot(t reflect.Type) error {
	shape := reflector.Classify(t, s.enums)
	switch shape {
	case reflector.ShapeRecord, reflector.ShapeTupleLike, reflector.ShapePairLike, reflector.ShapeInterface:
		return nil
	case reflector.ShapeMapLike:
		if s.isKeyShape(reflector.Indirect(t).Key()) {
			return nil
		}
	}
	return merr.WrapErrUnsupportedRoot(t.String(), shape.String())
}

// drop 记录一个被省略的节点。
func (s *Serializer) drop(stage, reason string, fields ...zap.Field) {
	metrics.DroppedNodesTotal.WithLabelValues(stage, reason).Inc()
	s.Logger().RatedDebug(1, "node dropped", append(fields, zap.String("stage", stage), zap.String("reason", reason))...)
}

// errorFields 描述一个向调用方抛出的错误：错误码、类别与错误本身。
func errorFields(err error) []zap.Field {
	return []zap.Field{
		zap.Int32("errCode", merr.Code(err)),
		zap.Stringer("errType", merr.GetErrorType(err)),
		zap.Error(err),
	}
}

// deref 剥离接口与指针，遇到 nil 时返回 false。
func deref(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}
