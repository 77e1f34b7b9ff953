package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhengyongqin/audiobook-hub/internal/cache"
)

type fakeSource struct {
	voices []string
	err    error
	calls  atomic.Int32
}

func (f *fakeSource) ListVoices(context.Context) ([]string, error) {
	f.calls.Add(1)
	return f.voices, f.err
}

func TestCatalog_LoadSuccess(t *testing.T) {
	src := &fakeSource{voices: []string{"alice", "bob"}}
	c := New(src)

	require.NoError(t, c.Load(context.Background()))

	sel := c.Selector("alice")
	assert.Equal(t, []string{"alice", "bob"}, sel.Options)
	assert.True(t, sel.Enabled)
	assert.Equal(t, "alice", sel.Selected)
	assert.True(t, c.Contains("bob"))
	assert.False(t, c.Contains("carol"))
}

func TestCatalog_LoadFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	c := New(src)

	err := c.Load(context.Background())
	require.Error(t, err)
	assert.False(t, c.Ready())

	sel := c.Selector("")
	assert.Equal(t, []string{Placeholder}, sel.Options)
	assert.False(t, sel.Enabled)
}

func TestCatalog_EmptyList(t *testing.T) {
	c := New(&fakeSource{voices: []string{" ", ""}})

	err := c.Load(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCatalog)
	assert.False(t, c.Selector("").Enabled)
}

func TestCatalog_LoadOnce(t *testing.T) {
	src := &fakeSource{voices: []string{"alice"}}
	c := New(src)

	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCatalog_KeepsBackendListVerbatim(t *testing.T) {
	raw := []string{"bob", "alice", "bob", " carol "}
	c := New(&fakeSource{voices: raw})

	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, raw, c.Voices())
	assert.True(t, c.Contains(" carol "))

	// 返回值是副本，修改不影响目录
	c.Voices()[0] = "mallory"
	assert.Equal(t, "bob", c.Voices()[0])
}

func TestCatalog_ReadThroughCache(t *testing.T) {
	store := cache.NewMemoryCache(time.Minute, time.Minute)

	first := &fakeSource{voices: []string{"alice", "bob"}}
	require.NoError(t, New(first, WithCache(store, "k", time.Minute)).Load(context.Background()))

	// 第二个实例命中缓存，不访问后端
	second := &fakeSource{err: errors.New("should not be called")}
	c := New(second, WithCache(store, "k", time.Minute))
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, []string{"alice", "bob"}, c.Voices())
	assert.Equal(t, int32(0), second.calls.Load())
}
