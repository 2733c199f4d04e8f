package web

import (
	"github.com/shrinex/bridge/metrics"
	"golang.org/x/time/rate"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const throttleEntryTTL = 30 * time.Minute

type (
	// Throttle limits requests per client address, it guards the login
	// endpoint against password guessing
	Throttle struct {
		limit rate.Limit
		burst int

		mu      sync.Mutex
		entries map[string]*throttleEntry
		swept   time.Time
	}

	throttleEntry struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
)

// NewThrottle allows perSecond requests per client with the given burst
func NewThrottle(perSecond float64, burst int) *Throttle {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &Throttle{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		entries: map[string]*throttleEntry{},
	}
}

// Wrap returns the wrapped HTTP handler.
func (t *Throttle) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.allow(clientKey(r), time.Now()) {
			metrics.RecordThrottled()
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(1/float64(t.limit)))))
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (t *Throttle) allow(key string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.swept) > throttleEntryTTL {
		for k, e := range t.entries {
			if now.Sub(e.lastSeen) > throttleEntryTTL {
				delete(t.entries, k)
			}
		}
		t.swept = now
	}

	entry, ok := t.entries[key]
	if !ok {
		entry = &throttleEntry{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.entries[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
