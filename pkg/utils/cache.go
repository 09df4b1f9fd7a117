package utils

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// RequestCache keeps rendered responses for a short time.
// A cache built with a zero expiration stores nothing.
type RequestCache struct {
	Cache   *cache.Cache
	enabled bool
}

func NewRequestCache(expiration time.Duration) *RequestCache {
	if expiration <= 0 {
		return &RequestCache{}
	}
	return &RequestCache{
		Cache:   cache.New(expiration, expiration*2),
		enabled: true,
	}
}

func (c *RequestCache) Get(key string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}
	raw, found := c.Cache.Get(key)
	if !found {
		return nil, false
	}
	return raw.([]byte), true
}

func (c *RequestCache) Set(key string, value []byte) {
	if !c.enabled {
		return
	}
	c.Cache.SetDefault(key, value)
}
