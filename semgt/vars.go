package semgt

import (
	"errors"
	"time"
)

var (
	nowFunc = time.Now

	ErrExpired     = errors.New("session expired")
	ErrInvalidated = errors.New("session invalidated")
)

const (
	DefaultCookieName  = "BRIDGESESSIONID"
	DefaultTimeout     = 12 * time.Hour
	DefaultIdleTimeout = time.Hour
)
