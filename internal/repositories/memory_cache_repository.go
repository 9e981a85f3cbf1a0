package repositories

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

type memoryItem struct {
	value   string
	expires time.Time
}

// MemoryCacheRepository - кеш в памяти процесса. Используется CLI без Redis и тестами.
type MemoryCacheRepository struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

func NewMemoryCacheRepository() *MemoryCacheRepository {
	return &MemoryCacheRepository{items: make(map[string]memoryItem), now: time.Now}
}

// get вызывается под блокировкой.
func (r *MemoryCacheRepository) get(key string) (memoryItem, bool) {
	item, ok := r.items[key]
	if !ok {
		return item, false
	}
	if !item.expires.IsZero() && !r.now().Before(item.expires) {
		delete(r.items, key)
		return item, false
	}
	return item, true
}

func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item := memoryItem{value: stringify(value)}
	if expiration > 0 {
		item.expires = r.now().Add(expiration)
	}
	r.items[key] = item
	return nil
}

func (r *MemoryCacheRepository) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.get(key)
	if !ok {
		return "", ErrCacheMiss
	}
	return item.value, nil
}

func (r *MemoryCacheRepository) Del(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.items, k)
	}
	return nil
}

func (r *MemoryCacheRepository) Incr(_ context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, _ := r.get(key)
	n := int64(0)
	if item.value != "" {
		var err error
		if n, err = strconv.ParseInt(item.value, 10, 64); err != nil {
			return 0, fmt.Errorf("значение ключа %s не является числом", key)
		}
	}
	n++
	item.value = strconv.FormatInt(n, 10)
	r.items[key] = item
	return n, nil
}

func (r *MemoryCacheRepository) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.get(key)
	if !ok {
		return false, nil
	}
	item.expires = r.now().Add(expiration)
	r.items[key] = item
	return true, nil
}

func (r *MemoryCacheRepository) GetDel(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.get(key)
	if !ok {
		return "", ErrCacheMiss
	}
	delete(r.items, key)
	return item.value, nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
