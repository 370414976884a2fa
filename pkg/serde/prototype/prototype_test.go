package prototype

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
	"github.com/lk2023060901/danmu-serde/pkg/util/typeutil"
)

type mood int

type moodRenderer struct{}

func (moodRenderer) IsEnum(t reflect.Type) bool { return t == reflect.TypeOf(mood(0)) }

func (moodRenderer) EnumToString(v reflect.Value) (string, error) {
	switch v.Int() {
	case 0:
		return "Calm", nil
	case 1:
		return "Angry", nil
	default:
		return "", merr.WrapErrEnumNotDefined("mood#" + strconv.FormatInt(v.Int(), 10))
	}
}

type PrototypeSuite struct {
	suite.Suite
}

func (s *PrototypeSuite) TestTransformName() {
	cases := map[string]string{
		"Name":    "name",
		"ID":      "id",
		"ABCDVar": "abcdVar",
		"URLPath": "urlPath",
		"already": "already",
		"X":       "x",
		"Item1":   "item1",
		"":        "",
		"Ärger":   "ärger",
	}
	for in, want := range cases {
		s.Equal(want, TransformName(in), in)
	}
}

func (s *PrototypeSuite) TestChildLookupTolerance() {
	t := NewTree(nil)
	t.SetChild("ABCDVar", int64(7))

	s.Equal(map[string]any{"abcdVar": int64(7)}, t.Map())
	for _, name := range []string{"ABCDVar", "abcdVar", "aBCDVar", "ABCDVAR"} {
		v, ok := t.Child(name)
		s.True(ok, name)
		s.Equal(int64(7), v)
	}

	_, ok := t.Child("Other")
	s.False(ok)
	_, ok = t.Child("")
	s.False(ok)
}

func (s *PrototypeSuite) TestRender() {
	t := NewTree(moodRenderer{})
	nested := NewTree(moodRenderer{})
	nested.SetChild("Mood", mood(1))

	t.SetChild("Nested", nested)
	t.SetChild("Moods", []any{mood(0), mood(1), mood(9), "raw"})
	t.SetChild("Absent", nil)
	t.SetEntry("Raw Key", "kept")

	s.Equal(map[string]any{
		"nested":  map[string]any{"mood": "Angry"},
		"moods":   []any{"Calm", "Angry", "raw"},
		"Raw Key": "kept",
	}, t.Map())
	s.Equal([]string{"Raw Key", "moods", "nested"}, t.Keys())
	s.Equal(3, t.Len())

	child, ok := t.Child("Nested")
	s.Require().True(ok)
	p, ok := child.(Prototype)
	s.Require().True(ok)
	v, _ := p.Child("mood")
	s.Equal("Angry", v)

	_, ok = t.Entry("raw key")
	s.False(ok)
	v, ok = t.Entry("Raw Key")
	s.True(ok)
	s.Equal("kept", v)
}

func (s *PrototypeSuite) TestUnwrapLists() {
	t := WrapTree(map[string]any{
		"list": []any{map[string]any{"a": int64(1)}, "x"},
	}, nil)
	v, ok := t.Child("List")
	s.Require().True(ok)
	list := v.([]any)
	s.Len(list, 2)
	s.IsType(&Tree{}, list[0])
	s.Equal("x", list[1])
}

func (s *PrototypeSuite) TestTypeTag() {
	t := NewTree(nil)
	_, ok := t.TypeTag()
	s.False(ok)

	s.True(t.SetTypeTag("pkg/a.Dog", typeutil.NewSet("Name")))
	tag, ok := t.TypeTag()
	s.True(ok)
	s.Equal("pkg/a.Dog", tag)
	s.Equal("pkg/a.Dog", t.Map()[TypeKey])

	// "Type" 成员占用了 type 键时使用备用键。
	withMember := NewTree(nil)
	withMember.SetChild("Type", "member value")
	s.True(withMember.SetTypeTag("pkg/a.Cat", typeutil.NewSet("Type")))
	s.Equal("member value", withMember.Map()[TypeKey])
	tag, _ = withMember.TypeTag()
	s.Equal("pkg/a.Cat", tag)

	// 成员缺失但名称保留时同样不能使用 type 键。
	reservedOnly := NewTree(nil)
	s.True(reservedOnly.SetTypeTag("pkg/a.Cat", typeutil.NewSet("Type")))
	_, taken := reservedOnly.Map()[TypeKey]
	s.False(taken)

	full := NewTree(nil)
	s.False(full.SetTypeTag("pkg/a.Cow", typeutil.NewSet("Type", "Type___")))
	s.Equal(0, full.Len())
}

func TestPrototype(t *testing.T) {
	suite.Run(t, new(PrototypeSuite))
}
