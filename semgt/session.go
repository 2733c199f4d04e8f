package semgt

import (
	"context"
	"github.com/shrinex/bridge/codec"
	"sync"
	"sync/atomic"
	"time"
)

type (
	// Session is the server-side state shared by the requests of one visitor
	Session interface {
		Token() string
		StartTime(context.Context) (time.Time, error)
		LastAccessTime(context.Context) (time.Time, error)
		Attribute(context.Context, string, any) (bool, error)
		SetAttribute(context.Context, string, any) error
		RemoveAttribute(context.Context, string) error
		Expired(context.Context) (bool, error)
		Touch(context.Context) error
		Invalidate(context.Context) error
	}

	MapSession struct {
		token          string
		mu             sync.RWMutex
		invalidated    atomic.Bool
		startTime      time.Time
		lastAccessTime time.Time
		codec          codec.Codec
		timeout        time.Duration
		idleTimeout    time.Duration
		attrs          map[string]string
	}
)

var _ Session = (*MapSession)(nil)

func NewSession(token string, codec codec.Codec, timeout, idleTimeout time.Duration) *MapSession {
	nowTime := nowFunc()
	return &MapSession{
		token:          token,
		codec:          codec,
		startTime:      nowTime,
		lastAccessTime: nowTime,
		timeout:        timeout,
		idleTimeout:    idleTimeout,
		attrs:          make(map[string]string),
	}
}

func (s *MapSession) Token() string {
	return s.token
}

func (s *MapSession) StartTime(ctx context.Context) (time.Time, error) {
	if err := s.checkState(ctx); err != nil {
		return time.Time{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.startTime, nil
}

func (s *MapSession) LastAccessTime(ctx context.Context) (time.Time, error) {
	if err := s.checkState(ctx); err != nil {
		return time.Time{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastAccessTime, nil
}

// Expired reports whether the session outlived its timeout, sat idle
// for too long or was invalidated
func (s *MapSession) Expired(ctx context.Context) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	if s.invalidated.Load() {
		return true, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	nowTime := nowFunc()
	timedOut := s.timeout > 0 && s.startTime.Add(s.timeout).Before(nowTime)
	inactive := s.idleTimeout > 0 && s.lastAccessTime.Add(s.idleTimeout).Before(nowTime)

	return timedOut || inactive, nil
}

func (s *MapSession) Attribute(ctx context.Context, key string, ptr any) (bool, error) {
	if err := s.checkState(ctx); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.attrs[key]
	if !ok {
		return false, nil
	}

	err := s.codec.Decode(data, ptr)
	if err != nil {
		return false, err
	}

	return true, nil
}

// SetAttribute stores the encoded value under key, a nil value removes it
func (s *MapSession) SetAttribute(ctx context.Context, key string, value any) error {
	if err := s.checkState(ctx); err != nil {
		return err
	}

	if value == nil {
		return s.RemoveAttribute(ctx, key)
	}

	data, err := s.codec.Encode(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attrs[key] = data
	return nil
}

func (s *MapSession) RemoveAttribute(ctx context.Context, key string) error {
	if err := s.checkState(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.attrs, key)

	return nil
}

func (s *MapSession) Touch(ctx context.Context) error {
	if err := s.checkState(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastAccessTime = nowFunc()

	return nil
}

// Invalidate discards every attribute, later calls fail with ErrInvalidated
func (s *MapSession) Invalidate(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !s.invalidated.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	s.attrs = make(map[string]string)
	s.mu.Unlock()

	return nil
}

func (s *MapSession) checkState(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if s.invalidated.Load() {
		return ErrInvalidated
	}

	return nil
}
