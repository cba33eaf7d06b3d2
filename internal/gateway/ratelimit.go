package gateway

import (
	"net"
	"sync"
	"time"
)

const (
	authRateWindow   = 5 * time.Minute
	authRateMaxFails = 10
	authRateMaxIPs   = 10000
)

// authRateLimiter counts failed handshakes per remote host and refuses
// hosts that failed too often inside the window.
type authRateLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	now      func() time.Time
}

func newAuthRateLimiter() *authRateLimiter {
	return &authRateLimiter{failures: make(map[string][]time.Time), now: time.Now}
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return addr
	}
	return host
}

// recent drops expired failures for host and returns the rest.
// Callers hold l.mu.
func (l *authRateLimiter) recent(host string, cutoff time.Time) []time.Time {
	kept := l.failures[host][:0]
	for _, t := range l.failures[host] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, host)
		return nil
	}
	l.failures[host] = kept
	return kept
}

func (l *authRateLimiter) allow(remoteAddr string) bool {
	host := remoteHost(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recent(host, l.now().Add(-authRateWindow))) < authRateMaxFails
}

func (l *authRateLimiter) recordFailure(remoteAddr string) {
	host := remoteHost(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if _, tracked := l.failures[host]; !tracked && len(l.failures) >= authRateMaxIPs {
		l.sweep(now.Add(-authRateWindow))
		if len(l.failures) >= authRateMaxIPs {
			l.evictOldest()
		}
	}
	l.failures[host] = append(l.failures[host], now)
}

func (l *authRateLimiter) sweep(cutoff time.Time) {
	for host := range l.failures {
		l.recent(host, cutoff)
	}
}

func (l *authRateLimiter) evictOldest() {
	var oldest string
	var oldestAt time.Time
	for host, times := range l.failures {
		if oldest == "" || times[0].Before(oldestAt) {
			oldest, oldestAt = host, times[0]
		}
	}
	delete(l.failures, oldest)
}
