package reflector

import (
	"encoding/json"
	"net"
	"net/netip"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/blang/semver/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

type color int32

type enumSet map[reflect.Type]bool

func (s enumSet) IsEnum(t reflect.Type) bool { return s[t] }

type Base struct {
	ID   int64
	Note string
}

type hidden struct {
	Promoted string
}

type record struct {
	Base
	hidden
	Name    string
	Skipped string `serde:"-"`
	private int
	Ptr     *Base
}

type pairLike struct {
	Key   string
	Value int
}

type tupleLike struct {
	Item1 string
	Item2 int
	Item3 bool
}

type forced struct {
	First string
	Last  string
}

func (f forced) ForceSerialize() []string { return []string{"FullName", "Broken", "WithArg"} }

func (f forced) FullName() string { return f.First + " " + f.Last }

func (f *forced) Broken() int {
	if f.First == "" {
		panic("no first name")
	}
	return len(f.First)
}

func (f forced) WithArg(x int) int { return x }

type textual struct {
	raw string
}

func (t textual) MarshalText() ([]byte, error) { return []byte(strings.ToUpper(t.raw)), nil }

func (t *textual) UnmarshalText(b []byte) error {
	t.raw = strings.ToLower(string(b))
	return nil
}

type ReflectorSuite struct {
	suite.Suite
}

func (s *ReflectorSuite) TestClassify() {
	enums := enumSet{reflect.TypeOf(color(0)): true}
	cases := []struct {
		v     any
		shape Shape
	}{
		{1, ShapePrimitive},
		{1.5, ShapePrimitive},
		{true, ShapePrimitive},
		{color(1), ShapeEnum},
		{"x", ShapeString},
		{[]int{1}, ShapeListLike},
		{[2]string{}, ShapeListLike},
		{map[string]int{}, ShapeMapLike},
		{map[string]struct{}{}, ShapeEnumerableLike},
		{pairLike{}, ShapePairLike},
		{tupleLike{}, ShapeTupleLike},
		{record{}, ShapeRecord},
		{&record{}, ShapeRecord},
		{time.Time{}, ShapeWellKnown},
		{uuid.UUID{}, ShapeWellKnown},
		{net.IP{}, ShapeWellKnown},
		{[]byte{}, ShapeWellKnown},
		{textual{}, ShapeWellKnown},
		{make(chan int), ShapeUnsupported},
	}
	for _, c := range cases {
		s.Equal(c.shape, Classify(reflect.TypeOf(c.v), enums), "%T", c.v)
	}
	s.Equal(ShapePrimitive, Classify(reflect.TypeOf(color(1)), nil))
	s.Equal(ShapeInterface, Classify(reflect.TypeOf((*any)(nil)).Elem(), nil))
	s.Equal("Record", ShapeRecord.String())
	s.True(ShapeEnum.Terminal())
	s.True(ShapeMapLike.Container())
}

func (s *ReflectorSuite) TestSerializableMembers() {
	members := SerializableMembers(reflect.TypeOf(&record{}))
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	s.Equal([]string{"ID", "Note", "Promoted", "Name", "Ptr"}, names)

	// cached
	again := SerializableMembers(reflect.TypeOf(record{}))
	s.Same(members[0], again[0])

	s.Nil(SerializableMembers(reflect.TypeOf(1)))
}

func (s *ReflectorSuite) TestForcedMembers() {
	members := SerializableMembers(reflect.TypeOf(forced{}))
	s.Len(members, 4)
	s.True(members[2].ReadOnly)
	s.Equal("FullName", members[2].Name)
	s.Equal("Broken", members[3].Name)
	s.Len(WritableMembers(reflect.TypeOf(forced{})), 2)

	values, err := SerializableValues(reflect.ValueOf(forced{First: "Ann", Last: "Lee"}))
	s.Require().NoError(err)
	s.Equal("Ann Lee", values[2].Value.String())
	s.EqualValues(3, values[3].Value.Int())

	_, err = SerializableValues(reflect.ValueOf(&forced{}))
	s.ErrorIs(err, merr.ErrValueRead)
	s.Contains(err.Error(), "Broken")
	s.True(merr.IsFatal(err))
}

func (s *ReflectorSuite) TestSetMember() {
	var r record
	target := reflect.ValueOf(&r).Elem()

	m, ok := FindMember(target.Type(), "Name")
	s.Require().True(ok)
	s.True(SetMember(target, m, reflect.ValueOf("ann")))
	s.Equal("ann", r.Name)

	m, _ = FindMember(target.Type(), "Promoted")
	s.True(SetMember(target, m, reflect.ValueOf("p")))
	s.Equal("p", r.Promoted)

	m, _ = FindMember(target.Type(), "ID")
	s.False(SetMember(target, m, reflect.ValueOf("wrong type")))

	forcedMember := SerializableMembers(reflect.TypeOf(forced{}))[2]
	s.False(SetMember(reflect.ValueOf(&forced{}).Elem(), forcedMember, reflect.ValueOf("x")))
}

func (s *ReflectorSuite) TestNilEmbeddedPointer() {
	type outer struct {
		*Base
		Name string
	}
	values, err := SerializableValues(reflect.ValueOf(outer{Name: "x"}))
	s.Require().NoError(err)
	s.Len(values, 1)
	s.Equal("Name", values[0].Member.Name)

	var o outer
	m, _ := FindMember(reflect.TypeOf(o), "ID")
	s.True(SetMember(reflect.ValueOf(&o).Elem(), m, reflect.ValueOf(int64(7))))
	s.Require().NotNil(o.Base)
	s.EqualValues(7, o.ID)
}

func (s *ReflectorSuite) TestConvertScalar() {
	v, ok := ConvertScalar(json.Number("42"), reflect.TypeOf(int8(0)))
	s.True(ok)
	s.Equal(int8(42), v.Interface())

	_, ok = ConvertScalar(json.Number("300"), reflect.TypeOf(int8(0)))
	s.False(ok)

	v, ok = ConvertScalar("17", reflect.TypeOf(uint16(0)))
	s.True(ok)
	s.Equal(uint16(17), v.Interface())

	_, ok = ConvertScalar(int64(-1), reflect.TypeOf(uint(0)))
	s.False(ok)

	v, ok = ConvertScalar(float64(3), reflect.TypeOf(int(0)))
	s.True(ok)
	s.Equal(3, v.Interface())

	_, ok = ConvertScalar(3.5, reflect.TypeOf(int(0)))
	s.False(ok)

	v, ok = ConvertScalar(json.Number("1.25"), reflect.TypeOf(float32(0)))
	s.True(ok)
	s.Equal(float32(1.25), v.Interface())

	v, ok = ConvertScalar("true", reflect.TypeOf(false))
	s.True(ok)
	s.Equal(true, v.Interface())

	v, ok = ConvertScalar(json.Number("12"), reflect.TypeOf(""))
	s.True(ok)
	s.Equal("12", v.Interface())

	v, ok = ConvertScalar(int64(5), reflect.TypeOf(color(0)))
	s.True(ok)
	s.Equal(color(5), v.Interface())

	v, ok = ConvertScalar(int64(5), reflect.TypeOf((*int)(nil)))
	s.True(ok)
	s.Equal(5, *(v.Interface().(*int)))

	v, ok = ConvertScalar("abc", reflect.TypeOf(0))
	s.False(ok)
	s.Equal("abc", v.Interface())

	_, ok = ConvertScalar(nil, reflect.TypeOf(0))
	s.False(ok)
}

func (s *ReflectorSuite) TestIsCompatible() {
	anyType := reflect.TypeOf((*any)(nil)).Elem()
	stringer := reflect.TypeOf((*interface{ String() string })(nil)).Elem()

	s.True(IsCompatible(reflect.TypeOf(record{}), reflect.TypeOf(record{})))
	s.True(IsCompatible(reflect.TypeOf(record{}), anyType))
	s.True(IsCompatible(reflect.TypeOf(record{}), reflect.TypeOf(&record{})))
	s.True(IsCompatible(reflect.TypeOf(semver.Version{}), stringer))
	s.False(IsCompatible(reflect.TypeOf(record{}), reflect.TypeOf(Base{})))
	s.False(IsCompatible(nil, anyType))
}

func (s *ReflectorSuite) TestWellKnown() {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123, time.FixedZone("x", 3600))
	text, ok := FormatWellKnown(reflect.ValueOf(ts))
	s.True(ok)
	s.Equal("2024-05-06T06:08:09.000000123Z", text)
	back, ok := ParseWellKnown(text, reflect.TypeOf(time.Time{}))
	s.True(ok)
	s.True(ts.Equal(back.Interface().(time.Time)))

	id := uuid.New()
	text, _ = FormatWellKnown(reflect.ValueOf(&id))
	s.Equal(id.String(), text)
	back, ok = ParseWellKnown(text, reflect.TypeOf(&id))
	s.True(ok)
	s.Equal(id, *(back.Interface().(*uuid.UUID)))

	back, ok = ParseWellKnown("not-a-uuid", reflect.TypeOf(uuid.UUID{}))
	s.False(ok)
	s.Equal(uuid.Nil, back.Interface())

	text, _ = FormatWellKnown(reflect.ValueOf(net.ParseIP("10.0.0.1")))
	s.Equal("10.0.0.1", text)
	text, _ = FormatWellKnown(reflect.ValueOf(netip.MustParseAddr("::1")))
	s.Equal("::1", text)
	_, ok = FormatWellKnown(reflect.ValueOf(netip.Addr{}))
	s.False(ok)

	text, _ = FormatWellKnown(reflect.ValueOf(semver.MustParse("1.2.3")))
	s.Equal("1.2.3", text)
	back, ok = ParseWellKnown("v2.0", reflect.TypeOf(semver.Version{}))
	s.True(ok)
	s.Equal(semver.MustParse("2.0.0"), back.Interface())

	text, _ = FormatWellKnown(reflect.ValueOf(90 * time.Second))
	s.Equal("1m30s", text)

	text, _ = FormatWellKnown(reflect.ValueOf([]byte("hi")))
	s.Equal("aGk=", text)

	text, _ = FormatWellKnown(reflect.ValueOf(textual{raw: "abc"}))
	s.Equal("ABC", text)
	back, ok = ParseWellKnown("XYZ", reflect.TypeOf(textual{}))
	s.True(ok)
	s.Equal(textual{raw: "xyz"}, back.Interface())

	var nilTime *time.Time
	_, ok = FormatWellKnown(reflect.ValueOf(nilTime))
	s.False(ok)
}

func TestReflector(t *testing.T) {
	suite.Run(t, new(ReflectorSuite))
}
