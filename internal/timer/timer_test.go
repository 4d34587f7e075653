package timer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_FiresAtDeadline(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	c := New(clock)

	var fired atomic.Int32
	c.Start(60*time.Second, func() { fired.Add(1) })
	require.True(t, c.Running())
	assert.Equal(t, 60*time.Second, c.Remaining())
	assert.Equal(t, clock.Now().Add(60*time.Second), c.Deadline())

	clock.Advance(59 * time.Second).MustWait(ctx)
	assert.Equal(t, int32(0), fired.Load())
	assert.Equal(t, time.Second, c.Remaining())
	assert.False(t, c.Expired())

	clock.Advance(time.Second).MustWait(ctx)
	assert.Equal(t, int32(1), fired.Load())
	assert.False(t, c.Running())
	assert.Zero(t, c.Remaining())
	assert.True(t, c.Deadline().IsZero())
}

func TestController_StopPreventsCallback(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	c := New(clock)

	var fired atomic.Int32
	c.Start(10*time.Second, func() { fired.Add(1) })
	c.Stop()
	assert.False(t, c.Running())

	clock.Advance(10 * time.Second).MustWait(ctx)
	assert.Equal(t, int32(0), fired.Load())

	c.Stop()
}

func TestController_RestartSupersedesPrevious(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	c := New(clock)

	var first, second atomic.Int32
	c.Start(10*time.Second, func() { first.Add(1) })
	clock.Advance(5 * time.Second).MustWait(ctx)
	c.Start(10*time.Second, func() { second.Add(1) })

	clock.Advance(5 * time.Second).MustWait(ctx)
	assert.Equal(t, int32(0), first.Load())
	assert.True(t, c.Running())

	clock.Advance(5 * time.Second).MustWait(ctx)
	assert.Equal(t, int32(0), first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestController_ExpiredUntilStopped(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	c := New(clock)

	var expiredInCallback atomic.Bool
	c.Start(10*time.Second, func() { expiredInCallback.Store(c.Expired()) })

	clock.Advance(10 * time.Second).MustWait(ctx)
	assert.True(t, expiredInCallback.Load())
	assert.False(t, c.Running())
	assert.True(t, c.Expired())

	c.Stop()
	assert.False(t, c.Expired())

	c.Start(10*time.Second, nil)
	clock.Advance(10 * time.Second).MustWait(ctx)
	assert.True(t, c.Expired())
	c.Start(10*time.Second, nil)
	assert.False(t, c.Expired())
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{5 * time.Second, "0:05"},
		{60 * time.Second, "1:00"},
		{61 * time.Second, "1:01"},
		{999 * time.Second, "16:39"},
		{1500 * time.Millisecond, "0:02"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatClock(tc.d), tc.d.String())
	}
}

func TestLevel(t *testing.T) {
	assert.Equal(t, "", Level(31*time.Second))
	assert.Equal(t, "warning", Level(30*time.Second))
	assert.Equal(t, "warning", Level(11*time.Second))
	assert.Equal(t, "danger", Level(10*time.Second))
	assert.Equal(t, "danger", Level(0))
}

func TestAttemptsLevel(t *testing.T) {
	assert.Equal(t, "", AttemptsLevel(4))
	assert.Equal(t, "warning", AttemptsLevel(3))
	assert.Equal(t, "warning", AttemptsLevel(2))
	assert.Equal(t, "danger", AttemptsLevel(1))
	assert.Equal(t, "danger", AttemptsLevel(0))
}
