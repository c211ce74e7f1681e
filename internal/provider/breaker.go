package provider

import (
	"sync"
	"time"
)

// Breaker 连续失败达到阈值后打开，冷却期过后放行一次试探调用
type Breaker struct {
	mu        sync.Mutex
	threshold int
	reset     time.Duration
	failures  int
	openedAt  time.Time
	now       func() time.Time
}

// NewBreaker threshold <= 0 时永不熔断
func NewBreaker(threshold int, reset time.Duration) *Breaker {
	return &Breaker{threshold: threshold, reset: reset, now: time.Now}
}

func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.threshold <= 0 || b.failures < b.threshold {
		return true
	}
	if b.now().Sub(b.openedAt) >= b.reset {
		// 半开：放行这一次，其它调用等到试探结果或下一个冷却期
		b.openedAt = b.now()
		return true
	}
	return false
}

func (b *Breaker) Success() {
	b.mu.Lock()
	b.failures = 0
	b.mu.Unlock()
}

func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.threshold > 0 && b.failures >= b.threshold {
		b.openedAt = b.now()
	}
}

func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.threshold > 0 && b.failures >= b.threshold && b.now().Sub(b.openedAt) < b.reset
}
