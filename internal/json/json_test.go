package json

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

type BackendSuite struct {
	suite.Suite
	backend Backend
	api     API
}

func (s *BackendSuite) SetupSuite() {
	api, err := Get(s.backend)
	s.Require().NoError(err)
	s.api = api
}

func (s *BackendSuite) TestSortedKeys() {
	data, err := s.api.Marshal(map[string]any{"b": int64(2), "a": "x", "c": []any{true, nil}})
	s.Require().NoError(err)
	s.Equal(`{"a":"x","b":2,"c":[true,null]}`, string(data))
}

func (s *BackendSuite) TestUseNumber() {
	var out map[string]any
	s.Require().NoError(s.api.Unmarshal([]byte(`{"big":9223372036854775807,"f":1.5}`), &out))

	big, ok := out["big"].(Number)
	s.Require().True(ok)
	v, err := big.Int64()
	s.NoError(err)
	s.Equal(int64(9223372036854775807), v)

	f, ok := out["f"].(Number)
	s.Require().True(ok)
	s.Equal("1.5", f.String())
}

func (s *BackendSuite) TestNoHTMLEscape() {
	data, err := s.api.Marshal(map[string]any{"k": "<a&b>"})
	s.Require().NoError(err)
	s.Equal(`{"k":"<a&b>"}`, string(data))
}

func (s *BackendSuite) TestValid() {
	s.True(s.api.Valid([]byte(`{"a":[1,2]}`)))
	s.False(s.api.Valid([]byte(`{"a":`)))
}

func TestSonic(t *testing.T) {
	suite.Run(t, &BackendSuite{backend: BackendSonic})
}

func TestJSONIter(t *testing.T) {
	suite.Run(t, &BackendSuite{backend: BackendJSONIter})
}

func TestGet(t *testing.T) {
	api, err := Get("")
	require.NoError(t, err)
	assert.NotNil(t, api)

	api, err = Get("JSONITER")
	require.NoError(t, err)
	assert.NotNil(t, api)

	_, err = Get("gob")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestPackageLevel(t *testing.T) {
	data, err := Marshal(map[string]int{"x": 1})
	require.NoError(t, err)
	assert.True(t, Valid(data))

	var out map[string]any
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, Number("1"), out["x"])
}
