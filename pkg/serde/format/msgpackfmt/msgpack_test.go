package msgpackfmt

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/lk2023060901/danmu-serde/pkg/serde/prototype"
	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

type MsgpackSuite struct {
	suite.Suite
	format *Format
}

func (s *MsgpackSuite) SetupTest() {
	s.format = New(nil)
}

func (s *MsgpackSuite) TestRoundTrip() {
	p := s.format.NewPrototype()
	p.SetChild("Name", "Ann")
	p.SetChild("Count", int64(-3))
	p.SetChild("Big", uint64(1)<<63)
	p.SetChild("Ratio", 0.5)
	p.SetChild("Tags", []any{"x", true})
	nested := s.format.NewPrototype()
	nested.SetEntry("k", int64(1))
	p.SetChild("Meta", nested)

	data, err := s.format.Encode(p, true)
	s.Require().NoError(err)

	back, err := s.format.Decode(data)
	s.Require().NoError(err)

	v, _ := back.Child("name")
	s.Equal("Ann", v)
	v, _ = back.Child("count")
	s.Equal(int64(-3), v)
	v, _ = back.Child("big")
	s.Equal(uint64(1)<<63, v)
	v, _ = back.Child("ratio")
	s.Equal(0.5, v)
	v, _ = back.Child("tags")
	s.Equal([]any{"x", true}, v)

	m, ok := back.Child("meta")
	s.Require().True(ok)
	k, _ := m.(prototype.Prototype).Entry("k")
	s.Equal(int64(1), k)
}

func (s *MsgpackSuite) TestDeterministic() {
	build := func() []byte {
		p := s.format.NewPrototype()
		for _, name := range []string{"C", "A", "B", "D"} {
			p.SetChild(name, name)
		}
		data, err := s.format.Encode(p, false)
		s.Require().NoError(err)
		return data
	}
	s.Equal(build(), build())
}

func (s *MsgpackSuite) TestMalformed() {
	_, err := s.format.Decode(nil)
	s.ErrorIs(err, merr.ErrMalformedInput)

	_, err = s.format.Decode([]byte{0xc1})
	s.ErrorIs(err, merr.ErrMalformedInput)

	list, err := msgpack.Marshal([]int{1, 2})
	s.Require().NoError(err)
	_, err = s.format.Decode(list)
	s.ErrorIs(err, merr.ErrMalformedInput)

	nilData, err := msgpack.Marshal(nil)
	s.Require().NoError(err)
	_, err = s.format.Decode(nilData)
	s.ErrorIs(err, merr.ErrMalformedInput)
}

func (s *MsgpackSuite) TestProperties() {
	s.Equal("msgpack", s.format.Name())
	s.True(s.format.IsBinary())
}

func TestMsgpack(t *testing.T) {
	suite.Run(t, new(MsgpackSuite))
}
