package typeregistry

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

type Dog struct {
	Name string
}

type Cat struct {
	Lives int
}

func TestDefaultTag(t *testing.T) {
	assert.Equal(t, "github.com/lk2023060901/danmu-serde/pkg/serde/typeregistry.Dog", DefaultTag(reflect.TypeOf(Dog{})))
	assert.Equal(t, DefaultTag(reflect.TypeOf(Dog{})), DefaultTag(reflect.TypeOf(&Dog{})))
	assert.Equal(t, "int", DefaultTag(reflect.TypeOf(0)))
	assert.Equal(t, "", DefaultTag(reflect.TypeOf(struct{}{})))
	assert.Equal(t, "", DefaultTag(nil))
}

func TestRegisterResolve(t *testing.T) {
	r := New()
	require.NoError(t, Register[Dog](r))
	require.NoError(t, Register[*Dog](r))
	assert.Equal(t, 1, r.Len())

	typ, ok := r.Resolve(DefaultTag(reflect.TypeOf(Dog{})))
	assert.True(t, ok)
	assert.Equal(t, reflect.TypeOf(Dog{}), typ)

	_, ok = r.Resolve("unknown.Type")
	assert.False(t, ok)
}

func TestRegisterName(t *testing.T) {
	r := New()
	require.NoError(t, RegisterName[Cat](r, "zoo.Cat"))
	assert.Equal(t, "zoo.Cat", r.TagOf(reflect.TypeOf(&Cat{})))
	assert.Equal(t, DefaultTag(reflect.TypeOf(Dog{})), r.TagOf(reflect.TypeOf(Dog{})))

	err := RegisterName[Dog](r, "zoo.Cat")
	assert.ErrorIs(t, err, merr.ErrTypeAlreadyRegistered)

	assert.ErrorIs(t, r.RegisterName("", reflect.TypeOf(Dog{})), merr.ErrParameterInvalid)
	assert.Panics(t, func() { MustRegister[struct{ X int }](r) })
}

func TestConcurrentRegister(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, Register[Dog](r))
			_, ok := r.Resolve(r.TagOf(reflect.TypeOf(Dog{})))
			assert.True(t, ok)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, r.Len())
}
