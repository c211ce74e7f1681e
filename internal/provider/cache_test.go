package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/config"
)

func TestKey(t *testing.T) {
	assert.Equal(t, Key("a"), Key("a"))
	assert.NotEqual(t, Key("a"), Key("b"))
	assert.Len(t, Key("anything"), 64)
}

func TestResponseCache_EvictsOldestStored(t *testing.T) {
	ctx := context.Background()
	c, err := NewResponseCache(config.CacheConfig{Capacity: 2})
	require.NoError(t, err)

	c.Set(ctx, "a", "A")
	c.Set(ctx, "b", "B")
	// 读取不改变淘汰顺序
	_, ok := c.Get(ctx, "a")
	require.True(t, ok)
	c.Set(ctx, "c", "C")

	_, ok = c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "b")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestResponseCache_TTL(t *testing.T) {
	ctx := context.Background()
	c, err := NewResponseCache(config.CacheConfig{Capacity: 10, TTL: time.Minute})
	require.NoError(t, err)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "p", "r")
	now = now.Add(59 * time.Second)
	_, ok := c.Get(ctx, "p")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get(ctx, "p")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestResponseCache_SaveLoadSkipsExpired(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.CacheConfig{Dir: dir, Capacity: 10, TTL: time.Hour}

	c, err := NewResponseCache(cfg)
	require.NoError(t, err)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return start }
	c.Set(ctx, "old", "1")
	c.now = func() time.Time { return start.Add(50 * time.Minute) }
	c.Set(ctx, "new", "2")
	require.NoError(t, c.Save())

	_, err = os.Stat(filepath.Join(dir, cacheFileName))
	require.NoError(t, err)

	loaded, err := NewResponseCache(cfg)
	require.NoError(t, err)
	loaded.now = func() time.Time { return start.Add(70 * time.Minute) }
	require.NoError(t, loaded.Load())

	assert.Equal(t, 1, loaded.Len())
	got, ok := loaded.Get(ctx, "new")
	assert.True(t, ok)
	assert.Equal(t, "2", got)
}

func TestResponseCache_LoadMissingFile(t *testing.T) {
	c, err := NewResponseCache(config.CacheConfig{Dir: t.TempDir(), Capacity: 1})
	require.NoError(t, err)
	assert.NoError(t, c.Load())
}

func TestResponseCache_RedisTier(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	writer, err := NewResponseCache(config.CacheConfig{Capacity: 10, TTL: time.Hour})
	require.NoError(t, err)
	writer.WithRedis(client, "test:")
	writer.Set(ctx, "shared prompt", "shared answer")

	assert.True(t, mr.Exists("test:"+Key("shared prompt")))
	assert.Equal(t, time.Hour, mr.TTL("test:"+Key("shared prompt")))

	reader, err := NewResponseCache(config.CacheConfig{Capacity: 10, TTL: time.Hour})
	require.NoError(t, err)
	reader.WithRedis(client, "test:")
	got, ok := reader.Get(ctx, "shared prompt")
	require.True(t, ok)
	assert.Equal(t, "shared answer", got)
	assert.Equal(t, 1, reader.Len())

	_, ok = reader.Get(ctx, "unknown")
	assert.False(t, ok)
}

func TestResponseCache_RedisFromConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewResponseCache(config.CacheConfig{Capacity: 10, TTL: time.Hour, RedisAddr: mr.Addr(), RedisPrefix: "wf:"})
	require.NoError(t, err)

	c.Set(context.Background(), "configured prompt", "configured answer")
	got, err := mr.Get("wf:" + Key("configured prompt"))
	require.NoError(t, err)
	assert.Equal(t, "configured answer", got)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"408", &StatusError{Code: 408}, true},
		{"429", &StatusError{Code: 429}, true},
		{"503", &StatusError{Code: 503}, true},
		{"400", &StatusError{Code: 400}, false},
		{"401", &StatusError{Code: 401}, false},
		{"422", &StatusError{Code: 422}, false},
		{"openai rate limit", &openai.APIError{HTTPStatusCode: 429}, true},
		{"openai auth", &openai.APIError{HTTPStatusCode: 401}, false},
		{"openai request 502", &openai.RequestError{HTTPStatusCode: 502, Err: errors.New("bad gateway")}, true},
		{"net timeout", fmt.Errorf("dial: %w", timeoutErr{}), true},
		{"conn reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"conn refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"empty", ErrEmptyCompletion, true},
		{"status in message", errors.New("ark: request failed, status code: 403"), false},
		{"5xx in message", errors.New("qwen: status code: 500, internal"), true},
		{"unknown", errors.New("something odd"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	err := Classify("p", &StatusError{Code: 401})
	var pe *PermanentError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "p", pe.Provider)

	err = Classify("p", &StatusError{Code: 500})
	var te *TransientError
	require.True(t, errors.As(err, &te))

	// 已分类的错误原样返回
	assert.Same(t, te, Classify("q", te))
	assert.Nil(t, Classify("p", nil))
}

func TestSanitizeJSON(t *testing.T) {
	in := `{"model":"gpt","api_key":"sk-123","messages":[{"token": "abc"}]}`
	out := SanitizeJSON(in)
	assert.NotContains(t, out, "sk-123")
	assert.NotContains(t, out, "abc")
	assert.Contains(t, out, `"model":"gpt"`)
}
