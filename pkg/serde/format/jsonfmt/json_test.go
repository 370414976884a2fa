package jsonfmt

import (
	stdjson "encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/danmu-serde/internal/json"
	"github.com/lk2023060901/danmu-serde/pkg/serde/prototype"
	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

type JSONSuite struct {
	suite.Suite
	backend json.Backend
	format  *Format
}

func (s *JSONSuite) SetupTest() {
	f, err := New(nil, WithBackend(s.backend))
	s.Require().NoError(err)
	s.format = f
}

func (s *JSONSuite) TestEncodeDecode() {
	p := s.format.NewPrototype()
	p.SetChild("Name", "Ann")
	p.SetChild("Tags", []any{"x", "y"})
	meta := s.format.NewPrototype()
	meta.SetEntry("k", int64(1))
	p.SetChild("Meta", meta)

	data, err := s.format.Encode(p, false)
	s.Require().NoError(err)
	s.Equal(`{"meta":{"k":1},"name":"Ann","tags":["x","y"]}`, string(data))

	back, err := s.format.Decode(data)
	s.Require().NoError(err)
	name, ok := back.Child("Name")
	s.True(ok)
	s.Equal("Ann", name)

	m, ok := back.Child("Meta")
	s.Require().True(ok)
	k, ok := m.(prototype.Prototype).Entry("k")
	s.True(ok)
	s.Equal(stdjson.Number("1"), k)
}

func (s *JSONSuite) TestPretty() {
	p := s.format.NewPrototype()
	p.SetChild("A", []any{int64(1), int64(2)})
	p.SetChild("B", "x:y,{z}")

	data, err := s.format.Encode(p, true)
	s.Require().NoError(err)
	s.Equal("{\n  \"a\": [\n    1,\n    2\n  ],\n  \"b\": \"x:y,{z}\"\n}", string(data))

	var out map[string]any
	s.NoError(stdjson.Unmarshal(data, &out))
}

func (s *JSONSuite) TestMalformed() {
	for _, input := range []string{"", "   ", "{", "[1,2]", "null", "42", `{"a":}`} {
		_, err := s.format.Decode([]byte(input))
		s.ErrorIs(err, merr.ErrMalformedInput, input)
	}
}

func (s *JSONSuite) TestProperties() {
	s.Equal("json", s.format.Name())
	s.False(s.format.IsBinary())
	s.Equal(s.backend, s.format.Backend())

	_, err := s.format.Encode(nil, false)
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func TestSonicFormat(t *testing.T) {
	suite.Run(t, &JSONSuite{backend: json.BackendSonic})
}

func TestJSONIterFormat(t *testing.T) {
	suite.Run(t, &JSONSuite{backend: json.BackendJSONIter})
}

func TestUnknownBackend(t *testing.T) {
	_, err := New(nil, WithBackend("yaml"))
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
