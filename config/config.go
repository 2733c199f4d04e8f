// Package config loads the bridge configuration.
// Sources in priority order: env vars > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type (
	// Config holds all bridge configuration
	Config struct {
		// Listen address (default ":8080")
		ListenAddr string `yaml:"listen_addr"`
		// Log level (debug, info, warn, error)
		LogLevel string `yaml:"log_level"`
		// TrustedProxy takes the client address from X-Forwarded-For and
		// X-Real-IP, only safe behind a proxy that overwrites them
		TrustedProxy bool             `yaml:"trusted_proxy"`
		PageSeeder   PageSeederConfig `yaml:"pageseeder"`
		Auth         AuthConfig       `yaml:"auth"`
		Session      SessionConfig    `yaml:"session"`
		Login        LoginConfig      `yaml:"login"`
	}

	// PageSeederConfig locates the identity service
	PageSeederConfig struct {
		URL string `yaml:"url"`
		// Timeout applies to every call made to the service
		Timeout time.Duration `yaml:"timeout"`
	}

	AuthConfig struct {
		HardLogout bool `yaml:"hard_logout"`
		// GroupFilter selects the groups granted as roles, empty for member-only logins
		GroupFilter       string        `yaml:"group_filter"`
		UsernameAttribute string        `yaml:"username_attribute"`
		PasswordAttribute string        `yaml:"password_attribute"`
		KeyDir            string        `yaml:"key_dir"`
		LoginPath         string        `yaml:"login_path"`
		LogoutPath        string        `yaml:"logout_path"`
		LogoutImage       bool          `yaml:"logout_image"`
		RememberMaxAge    time.Duration `yaml:"remember_max_age"`
	}

	SessionConfig struct {
		CookieName  string        `yaml:"cookie_name"`
		Timeout     time.Duration `yaml:"timeout"`
		IdleTimeout time.Duration `yaml:"idle_timeout"`
		// InsecureCookies drops the Secure flag, for plain HTTP development setups
		InsecureCookies bool `yaml:"insecure_cookies"`
	}

	// LoginConfig throttles login attempts per client
	LoginConfig struct {
		Rate  float64 `yaml:"rate"`
		Burst int     `yaml:"burst"`
	}
)

// Default returns configuration with sensible defaults.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		LogLevel:   "info",
		PageSeeder: PageSeederConfig{
			URL:     "http://localhost:8080/ps",
			Timeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			HardLogout:        true,
			GroupFilter:       "*",
			UsernameAttribute: "org.pageseeder.berlioz.bridge.auth.Username",
			PasswordAttribute: "org.pageseeder.berlioz.bridge.auth.Password",
			KeyDir:            "auth",
			LoginPath:         "/login",
			LogoutPath:        "/logout.html",
			RememberMaxAge:    30 * 24 * time.Hour,
		},
		Session: SessionConfig{
			CookieName:  "BRIDGESESSIONID",
			Timeout:     12 * time.Hour,
			IdleTimeout: time.Hour,
		},
		Login: LoginConfig{
			Rate:  1,
			Burst: 5,
		},
	}
}

// Load reads configuration from a file, then overlays environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("BRIDGE_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("BRIDGE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("BRIDGE_TRUSTED_PROXY"); v != "" {
		cfg.TrustedProxy = v == "true" || v == "1"
	}
	if v := os.Getenv("BRIDGE_PAGESEEDER_URL"); v != "" {
		cfg.PageSeeder.URL = v
	}
	if v := os.Getenv("BRIDGE_HARD_LOGOUT"); v != "" {
		cfg.Auth.HardLogout = v == "true" || v == "1"
	}
	// set but empty selects member-only logins
	if v, ok := os.LookupEnv("BRIDGE_GROUP_FILTER"); ok {
		cfg.Auth.GroupFilter = strings.TrimSpace(v)
	}
	if v := os.Getenv("BRIDGE_KEY_DIR"); v != "" {
		cfg.Auth.KeyDir = v
	}
	if v := os.Getenv("BRIDGE_LOGIN_PATH"); v != "" {
		cfg.Auth.LoginPath = v
	}
	if v := os.Getenv("BRIDGE_LOGOUT_PATH"); v != "" {
		cfg.Auth.LogoutPath = v
	}
	if v := os.Getenv("BRIDGE_LOGOUT_IMAGE"); v != "" {
		cfg.Auth.LogoutImage = v == "true" || v == "1"
	}
	if v := os.Getenv("BRIDGE_SESSION_COOKIE"); v != "" {
		cfg.Session.CookieName = v
	}
	if v := os.Getenv("BRIDGE_INSECURE_COOKIES"); v != "" {
		cfg.Session.InsecureCookies = v == "true" || v == "1"
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"BRIDGE_PAGESEEDER_TIMEOUT", &cfg.PageSeeder.Timeout},
		{"BRIDGE_REMEMBER_MAX_AGE", &cfg.Auth.RememberMaxAge},
		{"BRIDGE_SESSION_TIMEOUT", &cfg.Session.Timeout},
		{"BRIDGE_SESSION_IDLE_TIMEOUT", &cfg.Session.IdleTimeout},
	}
	for _, d := range durations {
		if v := os.Getenv(d.env); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", d.env, err)
			}
			*d.dst = parsed
		}
	}

	if v := os.Getenv("BRIDGE_LOGIN_RATE"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BRIDGE_LOGIN_RATE: %w", err)
		}
		cfg.Login.Rate = n
	}
	if v := os.Getenv("BRIDGE_LOGIN_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BRIDGE_LOGIN_BURST: %w", err)
		}
		cfg.Login.Burst = n
	}

	return nil
}

// Validate reports the first setting the bridge cannot run with
func (c Config) Validate() error {
	u, err := url.Parse(c.PageSeeder.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("pageseeder.url: %q is not an http(s) URL", c.PageSeeder.URL)
	}
	if c.PageSeeder.Timeout <= 0 {
		return errors.New("pageseeder.timeout must be positive")
	}
	if strings.TrimSpace(c.Auth.KeyDir) == "" {
		return errors.New("auth.key_dir is required")
	}
	if !strings.HasPrefix(c.Auth.LoginPath, "/") || !strings.HasPrefix(c.Auth.LogoutPath, "/") {
		return errors.New("auth.login_path and auth.logout_path must be absolute paths")
	}
	if c.Auth.RememberMaxAge <= 0 {
		return errors.New("auth.remember_max_age must be positive")
	}
	if c.Session.Timeout <= 0 || c.Session.IdleTimeout <= 0 {
		return errors.New("session timeouts must be positive")
	}
	if c.Login.Rate <= 0 || c.Login.Burst <= 0 {
		return errors.New("login.rate and login.burst must be positive")
	}
	return nil
}
