package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var ErrLockNotAcquired = errors.New("lock not acquired")

// Locker 按 key 串行化操作（项目保存锁）
// Acquire 在 wait 时间内拿不到锁时返回 ErrLockNotAcquired；返回的 release 可重复调用
type Locker interface {
	Acquire(ctx context.Context, key string, ttl, wait time.Duration) (release func(), err error)
}

const lockRetryInterval = 50 * time.Millisecond

// 仅当 value 仍为本持有者 token 时才删除，避免误删过期后被他人重新获取的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker 基于 SET NX PX 的分布式锁
type RedisLocker struct {
	c      redis.Cmdable
	prefix string
}

func NewRedisLocker(c redis.Cmdable, prefix string) *RedisLocker {
	return &RedisLocker{c: c, prefix: prefix}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (func(), error) {
	fullKey := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.c.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", fullKey, err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					// 释放不跟随请求 ctx：请求取消后仍需归还锁
					releaseScript.Run(context.Background(), l.c, []string{fullKey}, token)
				})
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%s: %w", fullKey, ErrLockNotAcquired)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// MemoryLocker 进程内锁（Redis 未启用时）
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]time.Time // key -> 过期时间
	now  func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: map[string]time.Time{}, now: time.Now}
}

func (l *MemoryLocker) tryAcquire(key string, ttl time.Duration) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return time.Time{}, false
	}
	exp := now.Add(ttl)
	l.held[key] = exp
	return exp, true
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (func(), error) {
	deadline := time.Now().Add(wait)
	for {
		if exp, ok := l.tryAcquire(key, ttl); ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					defer l.mu.Unlock()
					// 已过期并被他人重新获取时不删除
					if cur, ok := l.held[key]; ok && cur.Equal(exp) {
						delete(l.held, key)
					}
				})
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%s: %w", key, ErrLockNotAcquired)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}
