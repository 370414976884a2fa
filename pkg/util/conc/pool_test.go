package conc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	pool := NewPool[int](4)
	defer pool.Release()

	futures := make([]*Future[int], 0, 16)
	for i := 0; i < 16; i++ {
		i := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * 2, nil
		}))
	}
	for i, f := range futures {
		v, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, i*2, v)
	}
	assert.Equal(t, 4, pool.inner.Cap())
}

func TestPoolError(t *testing.T) {
	pool := NewPool[string](2)
	defer pool.Release()

	boom := errors.New("boom")
	_, err := pool.Submit(func() (string, error) { return "", boom }).Await()
	assert.ErrorIs(t, err, boom)
}

func TestPoolConcealPanic(t *testing.T) {
	pool := NewPool[int](1, WithConcealPanic(true))
	defer pool.Release()

	_, err := pool.Submit(func() (int, error) { panic("bad getter") }).Await()
	assert.Error(t, err)

	// worker 在 panic 之后仍可继续接收任务
	v, err := pool.Submit(func() (int, error) { return 3, nil }).Await()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestPoolReleased(t *testing.T) {
	pool := NewPool[int](2, WithPreAlloc(true))
	pool.Release()

	_, err := pool.Submit(func() (int, error) { return 1, nil }).Await()
	assert.Error(t, err)
}

func TestPoolOptions(t *testing.T) {
	opt := defaultPoolOption()
	WithExpiryDuration(0)(opt)
	assert.Equal(t, DefaultExpiryDuration, opt.expiryDuration)
	WithPreAlloc(true)(opt)
	assert.True(t, opt.preAlloc)
	assert.Len(t, opt.antsOptions(), 3)

	pool := NewPool[int](0, WithExpiryDuration(10*time.Second), WithConcealPanic(true))
	defer pool.Release()
	assert.Positive(t, pool.inner.Cap())
	v, err := pool.Submit(func() (int, error) { return 7, nil }).Await()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
