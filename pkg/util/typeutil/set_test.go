package typeutil

import (
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	set := NewSet("type", "type___")
	assert.True(t, set.Contain("type"))
	assert.True(t, set.Contain("type", "type___"))
	assert.False(t, set.Contain("type", "name"))
	assert.Equal(t, 2, set.Len())

	set.Insert("name", "name")
	assert.Equal(t, 3, set.Len())

	assert.True(t, set.Contain())

	got := set.Collect()
	sort.Strings(got)
	assert.Equal(t, []string{"name", "type", "type___"}, got)

	upper := Map(set, strings.ToUpper)
	assert.True(t, upper.Contain("TYPE", "NAME"))
	assert.Equal(t, 3, upper.Len())

	set.Remove("name")
	assert.False(t, set.Contain("name"))
	assert.True(t, upper.Contain("NAME"))
}

func TestConcurrentSet(t *testing.T) {
	set := NewConcurrentSet[int]()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := 0; v < 100; v++ {
				if set.Insert(v) {
					mu.Lock()
					inserted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, inserted)
	assert.True(t, set.Contain(0, 50, 99))
	assert.Len(t, set.Collect(), 100)

	assert.Equal(t, 100, set.Len())

	set.Remove(0, 0)
	assert.False(t, set.Contain(0))
	assert.Equal(t, 99, set.Len())
}
