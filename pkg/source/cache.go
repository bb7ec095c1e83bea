package source

import (
	"sync"
	"time"
)

// Cacher は取得済み参照画像のバイト列キャッシュです。
// 同じリモート参照を繰り返し使う場合の再ダウンロードを避けます。
type Cacher interface {
	Get(key string) ([]byte, bool)
	Set(key string, data []byte)
}

// MemoryCache は TTL 付きのインメモリ Cacher 実装です。
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration

	now func() time.Time // テスト差し替え用
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache は TTL を指定して MemoryCache を返します。
// ttl が0以下のときは期限なしで保持します。
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get はキーの値を返します。期限切れのエントリは取り除きます。
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.data, true
}

// Set は値をキャッシュへ保存します。
func (c *MemoryCache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}
	c.entries[key] = cacheEntry{data: data, expiresAt: expiresAt}
}
