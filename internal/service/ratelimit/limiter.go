package ratelimit

import (
    "sync"
    "time"
)

// pruneAfter is how long an untouched bucket survives before it is swept.
const pruneAfter = 10 * time.Minute

type bucket struct {
    tokens     float64
    capacity   float64
    refillRate float64 // tokens per second
    last       time.Time
}

type Limiter struct {
    mu  sync.Mutex
    m   map[string]*bucket
    now func() time.Time
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket), now: time.Now} }

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
    now := l.now()
    l.mu.Lock()
    defer l.mu.Unlock()

    b, ok := l.m[key]
    if !ok {
        if len(l.m) > 1024 {
            l.prune(now)
        }
        b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
        l.m[key] = b
    }
    // refill
    elapsed := now.Sub(b.last).Seconds()
    if elapsed > 0 {
        b.tokens += elapsed * b.refillRate
        if b.tokens > b.capacity {
            b.tokens = b.capacity
        }
        b.last = now
    }
    if b.tokens >= 1 {
        b.tokens -= 1
        return true
    }
    return false
}

// prune drops buckets idle long enough to be fully refilled anyway.
// Caller holds the lock.
func (l *Limiter) prune(now time.Time) {
    for k, b := range l.m {
        if now.Sub(b.last) > pruneAfter {
            delete(l.m, k)
        }
    }
}
