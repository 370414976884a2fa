package reflector

import (
	"encoding"
	"encoding/base64"
	"net"
	"net/netip"
	"reflect"
	"time"

	"github.com/blang/semver/v4"
	"github.com/google/uuid"
)

type wellKnownCodec struct {
	format func(v reflect.Value) (string, bool)
	parse  func(s string) (reflect.Value, bool)
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	durType     = reflect.TypeOf(time.Duration(0))
	uuidType    = reflect.TypeOf(uuid.UUID{})
	ipType      = reflect.TypeOf(net.IP{})
	addrType    = reflect.TypeOf(netip.Addr{})
	versionType = reflect.TypeOf(semver.Version{})
	bytesType   = reflect.TypeOf([]byte(nil))

	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

var wellKnownCodecs = map[reflect.Type]wellKnownCodec{
	timeType: {
		format: func(v reflect.Value) (string, bool) {
			return v.Interface().(time.Time).UTC().Format(time.RFC3339Nano), true
		},
		parse: func(s string) (reflect.Value, bool) {
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return reflect.Value{}, false
			}
			return reflect.ValueOf(t.UTC()), true
		},
	},
	durType: {
		format: func(v reflect.Value) (string, bool) {
			return time.Duration(v.Int()).String(), true
		},
		parse: func(s string) (reflect.Value, bool) {
			d, err := time.ParseDuration(s)
			if err != nil {
				return reflect.Value{}, false
			}
			return reflect.ValueOf(d), true
		},
	},
	uuidType: {
		format: func(v reflect.Value) (string, bool) {
			return v.Interface().(uuid.UUID).String(), true
		},
		parse: func(s string) (reflect.Value, bool) {
			id, err := uuid.Parse(s)
			if err != nil {
				return reflect.Value{}, false
			}
			return reflect.ValueOf(id), true
		},
	},
	ipType: {
		format: func(v reflect.Value) (string, bool) {
			ip := v.Interface().(net.IP)
			if len(ip) == 0 {
				return "", false
			}
			return ip.String(), true
		},
		parse: func(s string) (reflect.Value, bool) {
			ip := net.ParseIP(s)
			if ip == nil {
				return reflect.Value{}, false
			}
			return reflect.ValueOf(ip), true
		},
	},
	addrType: {
		format: func(v reflect.Value) (string, bool) {
			addr := v.Interface().(netip.Addr)
			if !addr.IsValid() {
				return "", false
			}
			return addr.String(), true
		},
		parse: func(s string) (reflect.Value, bool) {
			addr, err := netip.ParseAddr(s)
			if err != nil {
				return reflect.Value{}, false
			}
			return reflect.ValueOf(addr), true
		},
	},
	versionType: {
		format: func(v reflect.Value) (string, bool) {
			return v.Interface().(semver.Version).String(), true
		},
		parse: func(s string) (reflect.Value, bool) {
			ver, err := semver.ParseTolerant(s)
			if err != nil {
				return reflect.Value{}, false
			}
			return reflect.ValueOf(ver), true
		},
	},
	bytesType: {
		format: func(v reflect.Value) (string, bool) {
			return base64.StdEncoding.EncodeToString(v.Bytes()), true
		},
		parse: func(s string) (reflect.Value, bool) {
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return reflect.Value{}, false
			}
			return reflect.ValueOf(b), true
		},
	},
}

// IsWellKnown 判断 t 是否以规范字符串形式收发：内置的时间、UUID、IP、版本号、
// 字节串，以及同时实现 encoding.TextMarshaler 和 *encoding.TextUnmarshaler 的类型。
func IsWellKnown(t reflect.Type) bool {
	t = Indirect(t)
	if t == nil {
		return false
	}
	if _, ok := wellKnownCodecs[t]; ok {
		return true
	}
	return isTextual(t)
}

func isTextual(t reflect.Type) bool {
	return t.Kind() != reflect.Interface &&
		(t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType)) &&
		reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// FormatWellKnown 返回 v 的规范字符串形式，v 不是已知值类型或为空值时返回 false。
func FormatWellKnown(v reflect.Value) (string, bool) {
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return "", false
	}
	if codec, ok := wellKnownCodecs[v.Type()]; ok {
		return codec.format(v)
	}
	if !isTextual(v.Type()) {
		return "", false
	}

	var m encoding.TextMarshaler
	if v.Type().Implements(textMarshalerType) {
		m = v.Interface().(encoding.TextMarshaler)
	} else {
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		m = ptr.Interface().(encoding.TextMarshaler)
	}
	text, err := m.MarshalText()
	if err != nil {
		return "", false
	}
	return string(text), true
}

// ParseWellKnown 将 s 解析为 t 类型的值。
// 解析失败时返回 t 的零值与 false，调用方据此决定是否记录。
func ParseWellKnown(s string, t reflect.Type) (reflect.Value, bool) {
	base := Indirect(t)
	out := reflect.New(base).Elem()

	if codec, ok := wellKnownCodecs[base]; ok {
		if parsed, ok := codec.parse(s); ok {
			out.Set(parsed.Convert(base))
			return pointTo(out, t), true
		}
		return pointTo(out, t), false
	}
	if isTextual(base) {
		ptr := reflect.New(base)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err == nil {
			return pointTo(ptr.Elem(), t), true
		}
	}
	return pointTo(out, t), false
}

// pointTo 将 v 包装成 t 需要的指针层级。
func pointTo(v reflect.Value, t reflect.Type) reflect.Value {
	if t.Kind() != reflect.Pointer {
		return v
	}
	inner := pointTo(v, t.Elem())
	ptr := reflect.New(t.Elem())
	ptr.Elem().Set(inner)
	return ptr
}
