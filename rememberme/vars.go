package rememberme

import (
	"errors"
	"time"
)

const (
	// CookieName is the well-known persistent login cookie
	CookieName = "bridge_rememberme"
	// KeyFile is the name of the key file inside the key directory
	KeyFile = "rememberme.key"

	DefaultMaxAge = 30 * 24 * time.Hour
)

var (
	nowFunc = time.Now

	// ErrKeyMaterial means the key could neither be read nor created,
	// the store cannot be used
	ErrKeyMaterial = errors.New("rememberme: key material unavailable")
)
