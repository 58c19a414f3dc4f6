package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMiss(t *testing.T) {
	c := NewCache()

	list, ok := c.Get("cat")
	assert.False(t, ok)
	assert.Nil(t, list)
	assert.Equal(t, 0, c.Len())
}

func TestExactKeys(t *testing.T) {
	c := NewCache()
	c.Put("ca", []string{"cat facts", "camel facts"})

	list, ok := c.Get("ca")
	require.True(t, ok)
	assert.Equal(t, []string{"cat facts", "camel facts"}, list)

	for _, q := range []string{"Ca", "ca ", " ca", "c"} {
		_, ok := c.Get(q)
		assert.False(t, ok, "query %q", q)
	}
}

func TestEmptyListIsAHit(t *testing.T) {
	c := NewCache()
	c.Put("zz", nil)

	list, ok := c.Get("zz")
	assert.True(t, ok)
	assert.Empty(t, list)
}

func TestStoresCopies(t *testing.T) {
	c := NewCache()
	in := []string{"a", "b"}
	c.Put("q", in)
	in[0] = "changed"

	out, _ := c.Get("q")
	assert.Equal(t, []string{"a", "b"}, out)

	out[1] = "changed"
	again, _ := c.Get("q")
	assert.Equal(t, []string{"a", "b"}, again)
}

func TestPutReplaces(t *testing.T) {
	c := NewCache()
	c.Put("q", []string{"old"})
	c.Put("q", []string{"new"})

	out, _ := c.Get("q")
	assert.Equal(t, []string{"new"}, out)
	assert.Equal(t, 1, c.Len())
}
