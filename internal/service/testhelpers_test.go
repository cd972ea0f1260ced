package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// memoryJSONCache 测试用内存缓存
type memoryJSONCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryJSONCache() *memoryJSONCache {
	return &memoryJSONCache{items: map[string][]byte{}}
}

func (c *memoryJSONCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	raw, ok := c.items[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryJSONCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.items[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *memoryJSONCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *memoryJSONCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}
