// Package enumconv 实现枚举值与字符串之间的兼容转换。
//
// 不同版本的服务对同一枚举可能有不同的成员集合。当解码遇到本进程未定义的成员名时，
// Converter 为其分配一个未被占用的整数编码并记住对应关系，再次编码时还原出原始字符串，
// 从而让未知成员在服务之间无损传递。
package enumconv

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serde/pkg/log"
	"github.com/lk2023060901/danmu-serde/pkg/metrics"
	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

type enumTable struct {
	name     string
	typ      reflect.Type
	min, max int64

	byName  map[string]int64
	byFold  map[string]int64
	byCode  map[int64]string
	defined map[int64]struct{}

	// 大小写敏感与不敏感两种模式各自维护发明表，反向表共享，先发明的字符串优先。
	invented     map[string]int64
	inventedFold map[string]int64
	inventedCode map[int64]string
	next         int64
}

func (t *enumTable) taken(code int64) bool {
	if _, ok := t.defined[code]; ok {
		return true
	}
	_, ok := t.inventedCode[code]
	return ok
}

// Converter 保存已登记的枚举定义与发明出的编码。
// 所有读写由同一把互斥锁串行化，不同 Converter 之间互不影响。
type Converter struct {
	mu     sync.Mutex
	tables map[reflect.Type]*enumTable
}

// NewConverter 返回一个空的 Converter。
func NewConverter() *Converter {
	return &Converter{tables: make(map[reflect.Type]*enumTable)}
}

func (c *Converter) define(t reflect.Type, names []string, codes []int64) error {
	lower, upper, err := widthRange(t)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return merr.WrapErrEnumDefinition(t.String(), "no members")
	}

	table := &enumTable{
		name:         t.String(),
		typ:          t,
		min:          lower,
		max:          upper,
		byName:       make(map[string]int64, len(names)),
		byFold:       make(map[string]int64, len(names)),
		byCode:       make(map[int64]string, len(names)),
		defined:      make(map[int64]struct{}, len(names)),
		invented:     make(map[string]int64),
		inventedFold: make(map[string]int64),
		inventedCode: make(map[int64]string),
		next:         lower,
	}
	for i, name := range names {
		if name == "" {
			return merr.WrapErrEnumDefinition(t.String(), "member name is empty")
		}
		if _, dup := table.byName[name]; dup {
			return merr.WrapErrEnumDefinition(t.String(), "duplicate member "+name)
		}
		code := codes[i]
		table.byName[name] = code
		if _, ok := table.byFold[strings.ToLower(name)]; !ok {
			table.byFold[strings.ToLower(name)] = code
		}
		if _, ok := table.byCode[code]; !ok {
			table.byCode[code] = name
		}
		table.defined[code] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tables == nil {
		c.tables = make(map[reflect.Type]*enumTable)
	}
	if _, ok := c.tables[t]; ok {
		return merr.WrapErrEnumDefinition(t.String(), "already defined")
	}
	c.tables[t] = table
	return nil
}

// IsEnum 判断 t 是否已登记为枚举。
func (c *Converter) IsEnum(t reflect.Type) bool {
	if c == nil || t == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tables[t]
	return ok
}

// StringToEnum 将 text 转换为枚举类型 t 的值。
// 依次尝试：已定义成员名（按大小写模式）、十进制数字（不含已发明的编码）、发明表；
// 都未命中时发明新编码。
// 编码空间耗尽时返回 merr.ErrEnumSpaceExhausted。
func (c *Converter) StringToEnum(t reflect.Type, text string, ignoreCase bool) (reflect.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	table, ok := c.tables[t]
	if !ok {
		return reflect.Value{}, merr.WrapErrEnumNotDefined(typeName(t))
	}

	if code, ok := table.lookupDefined(text, ignoreCase); ok {
		return table.value(code), nil
	}
	if code, ok := table.lookupNumeric(text); ok {
		return table.value(code), nil
	}

	inventedTable := table.invented
	key := text
	if ignoreCase {
		inventedTable = table.inventedFold
		key = strings.ToLower(text)
	}
	if code, ok := inventedTable[key]; ok {
		return table.value(code), nil
	}

	code, err := table.nextFree()
	if err != nil {
		log.RatedWarn(1, "enum value space exhausted",
			log.FieldComponent("enumconv"),
			zap.String("enum", table.name),
			zap.String("text", text))
		return reflect.Value{}, err
	}
	inventedTable[key] = code
	if _, ok := table.inventedCode[code]; !ok {
		table.inventedCode[code] = text
	}

	metrics.EnumInventedTotal.WithLabelValues(table.name).Inc()
	log.RatedInfo(1, "invented enum code",
		log.FieldComponent("enumconv"),
		zap.String("enum", table.name),
		zap.String("text", text),
		zap.Int64("code", code),
		zap.Bool("ignoreCase", ignoreCase))
	return table.value(code), nil
}

// EnumToString 返回枚举值的字符串形式：发明过的编码还原为原始字符串，
// 其次为已定义的成员名，最后为十进制取值。
func (c *Converter) EnumToString(v reflect.Value) (string, error) {
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", merr.WrapErrParameterInvalidMsg("nil enum pointer")
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return "", merr.WrapErrParameterInvalidMsg("invalid enum value")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	table, ok := c.tables[v.Type()]
	if !ok {
		return "", merr.WrapErrEnumNotDefined(typeName(v.Type()))
	}
	code, ok := toCode(v)
	if !ok {
		return decimal(v), nil
	}
	if s, ok := table.inventedCode[code]; ok {
		return s, nil
	}
	if s, ok := table.byCode[code]; ok {
		return s, nil
	}
	return decimal(v), nil
}

func (t *enumTable) lookupDefined(text string, ignoreCase bool) (int64, bool) {
	if code, ok := t.byName[text]; ok {
		return code, true
	}
	if ignoreCase {
		code, ok := t.byFold[strings.ToLower(text)]
		return code, ok
	}
	return 0, false
}

// lookupNumeric 解析十进制形式的编码。已分配给发明字符串的编码不参与匹配，
// 否则数字文本会被还原成另一个字符串。
func (t *enumTable) lookupNumeric(text string) (int64, bool) {
	code, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || code < t.min || code > t.max {
		return 0, false
	}
	if _, invented := t.inventedCode[code]; invented {
		return 0, false
	}
	return code, true
}

// nextFree 从游标开始向上扫描第一个未被占用的编码。
// 扫描到上界时报错，上界本身始终保留不分配。
func (t *enumTable) nextFree() (int64, error) {
	code := t.next
	for t.taken(code) {
		if code >= t.max {
			return 0, merr.WrapErrEnumSpaceExhausted(t.name, t.min, t.max)
		}
		code++
	}
	if code >= t.max {
		return 0, merr.WrapErrEnumSpaceExhausted(t.name, t.min, t.max)
	}
	t.next = code + 1
	return code, nil
}

func (t *enumTable) value(code int64) reflect.Value {
	out := reflect.New(t.typ).Elem()
	switch t.typ.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out.SetUint(uint64(code))
	default:
		out.SetInt(code)
	}
	return out
}

func toCode(v reflect.Value) (int64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	default:
		return 0, false
	}
}

func decimal(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	default:
		return ""
	}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
