package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/config"
	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

const cacheFileName = "response_cache.json"

type cacheEntry struct {
	Key      string        `json:"key"`
	Response string        `json:"response"`
	StoredAt time.Time     `json:"stored_at"`
	TTL      time.Duration `json:"ttl"`
}

func (e cacheEntry) expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.StoredAt) >= e.TTL
}

type cacheSnapshot struct {
	SavedAt time.Time    `json:"saved_at"`
	Entries []cacheEntry `json:"entries"`
}

// ResponseCache 按 prompt 哈希缓存后端回复。
// 内存层容量有限，满了淘汰最早写入的条目；可选 redis 共享层。
type ResponseCache struct {
	mem    *lru.Cache[string, cacheEntry]
	ttl    time.Duration
	path   string
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
	fileMu sync.Mutex
}

func NewResponseCache(cfg config.CacheConfig) (*ResponseCache, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 500
	}
	mem, err := lru.New[string, cacheEntry](capacity)
	if err != nil {
		return nil, fmt.Errorf("create response cache: %w", err)
	}
	c := &ResponseCache{
		mem: mem,
		ttl: cfg.TTL,
		now: time.Now,
	}
	if cfg.Dir != "" {
		c.path = filepath.Join(cfg.Dir, cacheFileName)
	}
	if cfg.RedisAddr != "" {
		c.WithRedis(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), cfg.RedisPrefix)
	}
	return c, nil
}

// WithRedis 挂上 redis 共享层
func (c *ResponseCache) WithRedis(client redis.UniversalClient, prefix string) *ResponseCache {
	c.rdb = client
	c.prefix = prefix
	return c
}

// Key 返回 prompt 的 sha256 十六进制摘要
func Key(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

func (c *ResponseCache) Get(ctx context.Context, prompt string) (string, bool) {
	key := Key(prompt)
	// Peek 不刷新新旧顺序，淘汰始终按写入先后
	if e, ok := c.mem.Peek(key); ok {
		if !e.expired(c.now()) {
			return e.Response, true
		}
		c.mem.Remove(key)
	}
	if c.rdb == nil {
		return "", false
	}
	val, err := c.rdb.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warnf("redis cache read failed: %v", err)
		}
		return "", false
	}
	c.mem.Add(key, cacheEntry{Key: key, Response: val, StoredAt: c.now(), TTL: c.ttl})
	return val, true
}

func (c *ResponseCache) Set(ctx context.Context, prompt, response string) {
	key := Key(prompt)
	c.mem.Add(key, cacheEntry{Key: key, Response: response, StoredAt: c.now(), TTL: c.ttl})
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, c.prefix+key, response, c.ttl).Err(); err != nil {
			logger.Warnf("redis cache write failed: %v", err)
		}
	}
}

func (c *ResponseCache) Len() int { return c.mem.Len() }

// Load 从快照文件恢复，跳过已过期条目；文件不存在不算错误
func (c *ResponseCache) Load() error {
	if c.path == "" {
		return nil
	}
	c.fileMu.Lock()
	defer c.fileMu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	var snap cacheSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode cache file: %w", err)
	}

	sort.SliceStable(snap.Entries, func(i, j int) bool {
		return snap.Entries[i].StoredAt.Before(snap.Entries[j].StoredAt)
	})
	now := c.now()
	loaded := 0
	for _, e := range snap.Entries {
		if e.Key == "" || e.expired(now) {
			continue
		}
		c.mem.Add(e.Key, e)
		loaded++
	}
	logger.Infof("Loaded %d cached responses from %s", loaded, c.path)
	return nil
}

// Save 把当前内存层写入快照文件（先写临时文件再 rename）
func (c *ResponseCache) Save() error {
	if c.path == "" {
		return nil
	}
	c.fileMu.Lock()
	defer c.fileMu.Unlock()

	now := c.now()
	snap := cacheSnapshot{SavedAt: now}
	for _, k := range c.mem.Keys() {
		if e, ok := c.mem.Peek(k); ok && !e.expired(now) {
			snap.Entries = append(snap.Entries, e)
		}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// Close 关闭 redis 连接
func (c *ResponseCache) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}
