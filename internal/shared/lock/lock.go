// Package lock 提供按key串行化的锁，用于请购单号等"读最大值-加一-写入"的临界区。
//
// 单实例部署使用 MemoryLocker；多实例部署使用 RedisLocker。
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrLockTimeout 在等待时间内没有拿到锁
var ErrLockTimeout = errors.New("lock wait timeout")

// KeyLocker 按key加锁，返回的 unlock 可重复调用
type KeyLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// MemoryLocker 进程内按key加锁
type MemoryLocker struct {
	mu   sync.Mutex
	keys map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{keys: make(map[string]*keyLock)}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.keys[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.keys[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.release(key, kl)
		})
	}, nil
}

func (l *MemoryLocker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.keys, key)
	}
}

// size 当前持有或等待中的key数量
func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}
