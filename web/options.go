package web

import (
	"go.uber.org/zap"
	"strings"
)

const (
	DefaultLoginPath  = "/login"
	DefaultLogoutPath = "/logout.html"

	// RememberMeParam asks for a persistent login when set to "true"
	RememberMeParam = "rememberme"
)

type (
	// Option can be used to customize Options
	Option func(*Options)

	Options struct {
		Logger *zap.Logger
		// LoginPath is where unauthenticated visitors are sent
		LoginPath string
		// LogoutPath always clears the persistent login cookie
		LogoutPath string
		// LogoutImage answers logouts with a 1x1 PNG instead of 204
		LogoutImage bool
	}
)

func apply(opts ...Option) Options {
	opt := Options{
		Logger:     zap.NewNop(),
		LoginPath:  DefaultLoginPath,
		LogoutPath: DefaultLogoutPath,
	}

	for _, f := range opts {
		f(&opt)
	}

	return opt
}

func WithLogger(logger *zap.Logger) Option {
	return func(opt *Options) {
		if logger != nil {
			opt.Logger = logger
		}
	}
}

func WithLoginPath(path string) Option {
	return func(opt *Options) {
		path = strings.TrimSpace(path)
		if len(path) != 0 {
			opt.LoginPath = path
		}
	}
}

func WithLogoutPath(path string) Option {
	return func(opt *Options) {
		path = strings.TrimSpace(path)
		if len(path) != 0 {
			opt.LogoutPath = path
		}
	}
}

func WithLogoutImage() Option {
	return func(opt *Options) {
		opt.LogoutImage = true
	}
}
