// Package ratelimit bounds accepted attempts per identifier in a sliding window.
//
// State lives in process memory only; a restart clears every limit.
package ratelimit

import (
	"math/rand"
	"sync"
	"time"
)

// sweepHorizon is how long an idle identifier survives an opportunistic
// sweep. Identifiers with a longer window keep theirs.
const sweepHorizon = 5 * time.Minute

const sweepProbability = 0.01

// Policy is a max number of accepted attempts per window.
type Policy struct {
	Action      string
	MaxRequests int
	Window      time.Duration
}

var (
	FormSubmit = Policy{Action: "form_submit", MaxRequests: 3, Window: 60 * time.Second}
	Valuation  = Policy{Action: "tasacion", MaxRequests: 5, Window: 300 * time.Second}
	APICall    = Policy{Action: "api_call", MaxRequests: 10, Window: 60 * time.Second}
	Login      = Policy{Action: "login", MaxRequests: 5, Window: 900 * time.Second}
)

// Result reports the decision and how many attempts are left in the window.
type Result struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
}

// Limiter is safe for concurrent use. One mutex guards the whole map so
// exactly MaxRequests attempts are accepted per window under contention.
type Limiter struct {
	mu       sync.Mutex
	requests map[string]*history

	now    func() time.Time
	random func() float64
}

type history struct {
	stamps []time.Time
	window time.Duration
}

type Option func(*Limiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithRandom replaces the sweep coin toss.
func WithRandom(random func() float64) Option {
	return func(l *Limiter) { l.random = random }
}

func New(opts ...Option) *Limiter {
	l := &Limiter{
		requests: make(map[string]*history),
		now:      time.Now,
		random:   rand.Float64,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsAllowed records an attempt for identifier and reports whether it fits in
// the window. Rejected attempts are not recorded.
func (l *Limiter) IsAllowed(identifier string, maxRequests int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	allowed, _ := l.attempt(identifier, maxRequests, window)
	return allowed
}

// Check is IsAllowed for a policy, also returning the remaining attempts.
func (l *Limiter) Check(identifier string, p Policy) Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	allowed, live := l.attempt(identifier, p.MaxRequests, p.Window)
	remaining := p.MaxRequests - live
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: allowed, Remaining: remaining}
}

// Reset forgets every attempt for identifier.
func (l *Limiter) Reset(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.requests, identifier)
}

// Len returns the number of tracked identifiers.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

// attempt must be called with mu held. It returns the decision and the
// number of live entries after it.
func (l *Limiter) attempt(identifier string, maxRequests int, window time.Duration) (bool, int) {
	now := l.now()
	h := l.requests[identifier]
	if h == nil {
		h = &history{}
	}
	h.window = window
	h.stamps = prune(h.stamps, now, window)

	if len(h.stamps) >= maxRequests {
		l.store(identifier, h)
		return false, len(h.stamps)
	}

	h.stamps = append(h.stamps, now)
	l.requests[identifier] = h

	if l.random() < sweepProbability {
		l.sweep(now)
	}
	return true, len(h.stamps)
}

func (l *Limiter) store(identifier string, h *history) {
	if len(h.stamps) == 0 {
		delete(l.requests, identifier)
		return
	}
	l.requests[identifier] = h
}

func (l *Limiter) sweep(now time.Time) {
	for id, h := range l.requests {
		horizon := sweepHorizon
		if h.window > horizon {
			horizon = h.window
		}
		h.stamps = prune(h.stamps, now, horizon)
		l.store(id, h)
	}
}

// prune keeps the timestamps younger than window, reusing the backing array.
func prune(stamps []time.Time, now time.Time, window time.Duration) []time.Time {
	live := stamps[:0]
	for _, ts := range stamps {
		if now.Sub(ts) < window {
			live = append(live, ts)
		}
	}
	return live
}
