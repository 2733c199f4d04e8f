package semgt

import (
	"context"
	"github.com/google/uuid"
	"github.com/shrinex/bridge/codec"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestNewSession(t *testing.T) {
	defer func() { nowFunc = time.Now }()
	nowTime := time.Unix(0, 0)
	nowFunc = func() time.Time { return nowTime }

	ctx := context.TODO()
	key := uuid.NewString()
	ss := NewSession(key, codec.JSON, time.Hour, time.Minute)

	assert.Equal(t, key, ss.Token())

	startTime, err := ss.StartTime(ctx)
	assert.NoError(t, err)
	assert.Equal(t, nowTime, startTime)

	lastAccessTime, err := ss.LastAccessTime(ctx)
	assert.NoError(t, err)
	assert.Equal(t, nowTime, lastAccessTime)
}

func TestSetAttrNoErr(t *testing.T) {
	ss := NewSession(uuid.NewString(), codec.JSON, 0, 0)

	err := ss.SetAttribute(context.TODO(), "key", "value")
	assert.NoError(t, err)
}

func TestGetAttrWhenNotExists(t *testing.T) {
	ss := NewSession(uuid.NewString(), codec.JSON, 0, 0)

	var value string
	found, err := ss.Attribute(context.TODO(), "key", &value)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)
}

func TestGetAttrLastSet(t *testing.T) {
	ss := NewSession(uuid.NewString(), codec.JSON, 0, 0)

	_ = ss.SetAttribute(context.TODO(), "key", "value")
	var value string
	found, err := ss.Attribute(context.TODO(), "key", &value)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value", value)
}

func TestSetNilRemovesAttr(t *testing.T) {
	ctx := context.TODO()
	ss := NewSession(uuid.NewString(), codec.JSON, 0, 0)

	_ = ss.SetAttribute(ctx, "flag", true)
	_ = ss.SetAttribute(ctx, "flag", nil)

	var flag bool
	found, err := ss.Attribute(ctx, "flag", &flag)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	ctx := context.TODO()
	ss := NewSession(uuid.NewString(), codec.JSON, 0, 0)
	_ = ss.SetAttribute(ctx, "key", "value")

	assert.NoError(t, ss.Invalidate(ctx))
	assert.NoError(t, ss.Invalidate(ctx))

	var value string
	_, err := ss.Attribute(ctx, "key", &value)
	assert.ErrorIs(t, err, ErrInvalidated)

	expired, err := ss.Expired(ctx)
	assert.NoError(t, err)
	assert.True(t, expired)
}

func TestExpiredAfterIdle(t *testing.T) {
	defer func() { nowFunc = time.Now }()
	nowTime := time.Unix(0, 0)
	nowFunc = func() time.Time { return nowTime }

	ctx := context.TODO()
	ss := NewSession(uuid.NewString(), codec.JSON, time.Hour, time.Minute)

	expired, err := ss.Expired(ctx)
	assert.NoError(t, err)
	assert.False(t, expired)

	nowFunc = func() time.Time { return nowTime.Add(2 * time.Minute) }
	expired, err = ss.Expired(ctx)
	assert.NoError(t, err)
	assert.True(t, expired)
}
