package cache

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	c, err := Open(t.TempDir(), logrus.New())
	require.NoError(t, err)
	defer c.Close()

	k := Key("gpt-4o-mini", "1. Hi")
	_, ok, err := c.Get(k)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(k, []byte(`{"drugs":[]}`)))
	v, ok, err := c.Get(k)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"drugs":[]}`, string(v))
}

func TestReopenKeepsValues(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir, logrus.New())
	require.NoError(t, err)
	require.NoError(t, c.Put("k", []byte("v")))
	require.NoError(t, c.Close())

	c, err = Open(dir, logrus.New())
	require.NoError(t, err)
	defer c.Close()
	v, ok, err := c.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(v))
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("m", "a"), Key("m", "a"))
	assert.NotEqual(t, Key("m", "a"), Key("n", "a"))
	assert.NotEqual(t, Key("m", "a"), Key("m", "b"))
	assert.Contains(t, Key("m", "a"), "extract:")
}
