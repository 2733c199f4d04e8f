package semgt

import (
	"context"
	"github.com/shrinex/bridge/codec"
	"sync"
	"time"
)

type (
	// Repository holds sessions by token, Read yields nil for unknown tokens
	Repository interface {
		Create(context.Context) (Session, error)
		Read(context.Context, string) (Session, error)
		Remove(context.Context, string) error
	}

	MapSessionRepository struct {
		mu        sync.RWMutex
		stopGuard sync.Once
		codec     codec.Codec
		stopChan  chan struct{}
		opts      Options
		lookup    map[string]*MapSession
	}
)

var _ Repository = (*MapSessionRepository)(nil)

// NewRepository returns an in-memory repository and starts sweeping
// expired sessions in the background until StopCleanup is called
func NewRepository(codec codec.Codec, opts ...Option) *MapSessionRepository {
	r := &MapSessionRepository{
		codec:    codec,
		opts:     apply(opts...),
		stopChan: make(chan struct{}),
		lookup:   make(map[string]*MapSession),
	}

	go r.startCleanup()

	return r
}

func (r *MapSessionRepository) Create(ctx context.Context) (Session, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	token := r.opts.NewToken()
	for _, exists := r.lookup[token]; exists; _, exists = r.lookup[token] {
		token = r.opts.NewToken()
	}

	result := NewSession(token, r.codec, r.opts.Timeout, r.opts.IdleTimeout)
	r.lookup[token] = result

	return result, nil
}

// Read returns the live session for token, or nil when it is unknown or expired
func (r *MapSessionRepository) Read(ctx context.Context, token string) (Session, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	src, ok := r.lookup[token]
	r.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	expired, err := src.Expired(ctx)
	if err != nil {
		return nil, err
	}

	if expired {
		_ = r.Remove(ctx, token)
		_ = src.Invalidate(ctx)
		return nil, nil
	}

	return src, nil
}

func (r *MapSessionRepository) Remove(ctx context.Context, token string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.lookup, token)

	return nil
}

// Len returns the number of sessions currently held
func (r *MapSessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.lookup)
}

func (r *MapSessionRepository) StopCleanup() error {
	r.stopGuard.Do(func() {
		close(r.stopChan)
	})

	return nil
}

func (r *MapSessionRepository) startCleanup() {
	ticker := time.NewTicker(r.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.deleteExpired()
		case <-r.stopChan:
			return
		}
	}
}

func (r *MapSessionRepository) deleteExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := context.TODO()
	for token, ss := range r.lookup {
		if expired, _ := ss.Expired(ctx); expired {
			delete(r.lookup, token)
			_ = ss.Invalidate(ctx)
		}
	}
}
