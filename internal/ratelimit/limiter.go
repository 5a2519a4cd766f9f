// SPDX-License-Identifier: MIT

// Package ratelimit implements per-IP weighted usage accounting over a
// sliding 24h window. Unlike a token bucket, the weight of a request is only
// known after the work is done (LLM tokens, seconds of synthesized audio), so
// usage is charged post-hoc and the gate refuses the next request of an IP
// that is already over its daily budget.
package ratelimit

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Window is the accounting horizon.
const Window = 24 * time.Hour

var exceededTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "aitalkmaster",
		Name:      "ratelimit_exceeded_total",
		Help:      "Total requests refused because the daily usage budget was spent",
	},
)

type sample struct {
	at     time.Time
	weight float64
}

// entry is the usage deque of one IP, guarded by its own lock so hot IPs do
// not serialize against each other.
type entry struct {
	mu      sync.Mutex
	samples []sample
}

func (e *entry) expire(now time.Time) {
	cutoff := now.Add(-Window)
	i := 0
	for i < len(e.samples) && e.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		e.samples = append(e.samples[:0], e.samples[i:]...)
	}
}

func (e *entry) total(now time.Time) float64 {
	e.expire(now)
	var sum float64
	for _, s := range e.samples {
		sum += s.weight
	}
	return sum
}

// Limiter tracks weighted usage per client IP.
type Limiter struct {
	dailyLimit float64
	clock      func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates a limiter with the given daily weight budget.
func New(dailyLimit float64) *Limiter {
	return &Limiter{
		dailyLimit: dailyLimit,
		clock:      time.Now,
		entries:    make(map[string]*entry),
	}
}

// WithClock overrides the time source, for tests.
func (l *Limiter) WithClock(clock func() time.Time) *Limiter {
	l.clock = clock
	return l
}

func (l *Limiter) entry(ip string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ip]
	if !ok {
		e = &entry{}
		l.entries[ip] = e
	}
	return e
}

// Increment charges weight against ip at the current time.
func (l *Limiter) Increment(ip string, weight float64) {
	now := l.clock()
	e := l.entry(ip)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.samples = append(e.samples, sample{at: now, weight: weight})
	e.expire(now)
}

// Exceeded reports whether ip has spent more than the daily budget inside
// the window. Expired samples are dropped lazily on each check.
func (l *Limiter) Exceeded(ip string) bool {
	now := l.clock()
	e := l.entry(ip)
	e.mu.Lock()
	total := e.total(now)
	e.mu.Unlock()
	if total > l.dailyLimit {
		exceededTotal.Inc()
		return true
	}
	return false
}

// Usage returns the current weight sum for ip, for diagnostics.
func (l *Limiter) Usage(ip string) float64 {
	now := l.clock()
	e := l.entry(ip)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total(now)
}
