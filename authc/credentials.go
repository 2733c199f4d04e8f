package authc

// Credentials is an immutable username and password pair
type Credentials struct {
	username string
	password string
}

var _ Token = Credentials{}

func NewCredentials(username string, password string) Credentials {
	return Credentials{username: username, password: password}
}

func (c Credentials) Username() string {
	return c.username
}

func (c Credentials) Password() string {
	return c.password
}

func (c Credentials) Principal() string {
	return c.username
}

func (c Credentials) Credentials() string {
	return c.password
}

// IsZero reports whether either half is missing
func (c Credentials) IsZero() bool {
	return len(c.username) == 0 || len(c.password) == 0
}

// String never reveals the password
func (c Credentials) String() string {
	return c.username + ":***"
}

// GoString keeps the password out of %#v
func (c Credentials) GoString() string {
	return "authc.Credentials{" + c.String() + "}"
}
