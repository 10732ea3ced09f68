package facts

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const DefaultTTL = 24 * time.Hour

// Cache хранит факты о направлениях в памяти процесса до истечения TTL.
type Cache struct {
	store *cache.Cache
}

// NewCache создает кэш с заданным временем жизни записей.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	cleanup := ttl
	if cleanup > time.Hour {
		cleanup = time.Hour
	}

	return &Cache{store: cache.New(ttl, cleanup)}
}

// Key нормализует направление: регистр и крайние пробелы не важны.
func Key(destination string) string {
	return strings.ToLower(strings.TrimSpace(destination))
}

func (c *Cache) Get(destination string) ([]string, bool) {
	value, ok := c.store.Get(Key(destination))
	if !ok {
		return nil, false
	}
	return clone(value.([]string)), true
}

func (c *Cache) Set(destination string, facts []string) {
	c.store.SetDefault(Key(destination), clone(facts))
}

func (c *Cache) Len() int {
	return c.store.ItemCount()
}

func clone(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
