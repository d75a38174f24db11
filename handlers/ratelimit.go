package handlers

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/thejerf/abtime"
)

type attemptData struct {
	count        int
	firstAttempt time.Time
}

type rateLimiter struct {
	sync.Mutex
	clock    abtime.AbstractTime
	attempts map[string]*attemptData
	blocked  map[string]time.Time
}

const (
	maxAttempts      = 5
	captchaThreshold = 3
	blockDuration    = 15 * time.Minute
	windowDuration   = 15 * time.Minute
	maxTrackedIPs    = 10000
)

func newRateLimiter(clock abtime.AbstractTime) *rateLimiter {
	return &rateLimiter{
		clock:    clock,
		attempts: make(map[string]*attemptData),
		blocked:  make(map[string]time.Time),
	}
}

// Allow returns false if the IP is currently blocked.
// It also cleans up expired blocks.
func (r *rateLimiter) Allow(ip string) bool {
	r.Lock()
	defer r.Unlock()

	if unblockTime, ok := r.blocked[ip]; ok {
		if r.clock.Now().Before(unblockTime) {
			return false
		}
		delete(r.blocked, ip)
		delete(r.attempts, ip)
	}
	return true
}

// RecordFailure increments the failure count and blocks if threshold reached.
func (r *rateLimiter) RecordFailure(ip string) {
	r.Lock()
	defer r.Unlock()

	now := r.clock.Now()
	if len(r.attempts) > maxTrackedIPs {
		r.prune(now)
	}

	data, exists := r.attempts[ip]
	if !exists || now.Sub(data.firstAttempt) > windowDuration {
		r.attempts[ip] = &attemptData{count: 1, firstAttempt: now}
		return
	}
	data.count++
	if data.count >= maxAttempts {
		r.blocked[ip] = now.Add(blockDuration)
	}
}

// Failures returns the number of failures recorded for ip in the current
// window.
func (r *rateLimiter) Failures(ip string) int {
	r.Lock()
	defer r.Unlock()

	data, ok := r.attempts[ip]
	if !ok || r.clock.Now().Sub(data.firstAttempt) > windowDuration {
		return 0
	}
	return data.count
}

// NeedsCaptcha reports whether the next login from ip must solve a captcha.
func (r *rateLimiter) NeedsCaptcha(ip string) bool {
	return r.Failures(ip) >= captchaThreshold
}

// Reset clears the counter for an IP (used on successful login).
func (r *rateLimiter) Reset(ip string) {
	r.Lock()
	defer r.Unlock()
	delete(r.attempts, ip)
	delete(r.blocked, ip)
}

// prune drops windows and blocks that have run out. Caller holds the lock.
func (r *rateLimiter) prune(now time.Time) {
	for ip, data := range r.attempts {
		if now.Sub(data.firstAttempt) > windowDuration {
			delete(r.attempts, ip)
		}
	}
	for ip, until := range r.blocked {
		if !now.Before(until) {
			delete(r.blocked, ip)
		}
	}
}

func getClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
