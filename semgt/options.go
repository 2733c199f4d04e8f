package semgt

import (
	"github.com/google/uuid"
	"strings"
	"time"
)

type (
	// Option can be used to customize Options
	Option func(*Options)

	// Options controls how sessions are created, expired and bound to cookies
	Options struct {
		// CookieName names the cookie carrying the session token
		CookieName string
		// Timeout bounds the whole lifetime of a session
		Timeout time.Duration
		// IdleTimeout expires sessions without activity
		IdleTimeout time.Duration
		// CleanupInterval is how often expired sessions are swept
		CleanupInterval time.Duration
		// Insecure drops the Secure flag from the session cookie
		Insecure bool
		// NewToken generates session tokens
		NewToken func() string
	}
)

func defaultOptions() Options {
	return Options{
		CookieName:      DefaultCookieName,
		Timeout:         DefaultTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		CleanupInterval: time.Minute,
		NewToken: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
}

func apply(opts ...Option) Options {
	opt := defaultOptions()

	for _, f := range opts {
		f(&opt)
	}

	return opt
}

func WithCookieName(name string) Option {
	return func(opt *Options) {
		name = strings.TrimSpace(name)
		if len(name) != 0 {
			opt.CookieName = name
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(opt *Options) {
		if timeout > 0 {
			opt.Timeout = timeout
		}
	}
}

func WithIdleTimeout(idleTimeout time.Duration) Option {
	return func(opt *Options) {
		if idleTimeout > 0 {
			opt.IdleTimeout = idleTimeout
		}
	}
}

func WithCleanupInterval(interval time.Duration) Option {
	return func(opt *Options) {
		if interval > 0 {
			opt.CleanupInterval = interval
		}
	}
}

// WithInsecureCookie permits the session cookie over plain HTTP
func WithInsecureCookie() Option {
	return func(opt *Options) {
		opt.Insecure = true
	}
}

func WithTokenGenerator(f func() string) Option {
	return func(opt *Options) {
		if f != nil {
			opt.NewToken = f
		}
	}
}
