package semgt

import (
	"context"
	"github.com/google/uuid"
	"github.com/shrinex/bridge/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func newTestRepository(t *testing.T, opts ...Option) *MapSessionRepository {
	repo := NewRepository(codec.JSON, opts...)
	t.Cleanup(func() { _ = repo.StopCleanup() })
	return repo
}

func TestCreateNoErr(t *testing.T) {
	repo := newTestRepository(t)

	ss, err := repo.Create(context.TODO())
	assert.NoError(t, err)
	assert.NotEmpty(t, ss.Token())
	assert.Equal(t, 1, repo.Len())
}

func TestCreateUsesTokenGenerator(t *testing.T) {
	repo := newTestRepository(t, WithTokenGenerator(func() string { return "fixed" }))

	ss, err := repo.Create(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, "fixed", ss.Token())
}

func TestReadNil(t *testing.T) {
	repo := newTestRepository(t)

	ss, err := repo.Read(context.TODO(), uuid.NewString())
	assert.NoError(t, err)
	assert.Nil(t, ss)
}

func TestReadLastCreate(t *testing.T) {
	ctx := context.TODO()
	repo := newTestRepository(t)

	lhs, _ := repo.Create(ctx)
	_ = lhs.SetAttribute(ctx, "key", "value")

	rhs, err := repo.Read(ctx, lhs.Token())
	assert.NoError(t, err)
	require.NotNil(t, rhs)

	var value string
	found, err := rhs.Attribute(ctx, "key", &value)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value", value)
}

func TestReadExpired(t *testing.T) {
	ctx := context.TODO()
	repo := newTestRepository(t, WithIdleTimeout(time.Millisecond))

	ss, _ := repo.Create(ctx)
	time.Sleep(10 * time.Millisecond)

	rhs, err := repo.Read(ctx, ss.Token())
	assert.NoError(t, err)
	assert.Nil(t, rhs)
	assert.Equal(t, 0, repo.Len())
}

func TestRemoveWhenNotExists(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.Remove(context.TODO(), uuid.NewString())
	assert.NoError(t, err)
}

func TestRemoveLastCreate(t *testing.T) {
	ctx := context.TODO()
	repo := newTestRepository(t)

	ss, _ := repo.Create(ctx)
	err := repo.Remove(ctx, ss.Token())
	assert.NoError(t, err)

	rhs, err := repo.Read(ctx, ss.Token())
	assert.NoError(t, err)
	assert.Nil(t, rhs)
}
