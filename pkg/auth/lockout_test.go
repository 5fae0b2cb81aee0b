package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testClock struct {
	current time.Time
}

func (c *testClock) now() time.Time { return c.current }

func (c *testClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestLimiter() (*Limiter, *testClock) {
	clock := &testClock{current: time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)}
	return NewLimiter(WithClock(clock.now)), clock
}

func TestLimiterLocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newTestLimiter()

	for i := 0; i < maxFailures-1; i++ {
		limiter.RecordFailure(ctx, "1.2.3.4")
		assert.False(t, limiter.Locked(ctx, "1.2.3.4"),
			"must not lock before failure %d", maxFailures)
	}
	limiter.RecordFailure(ctx, "1.2.3.4")
	assert.True(t, limiter.Locked(ctx, "1.2.3.4"))
	assert.False(t, limiter.Locked(ctx, "5.6.7.8"), "keys are independent")
}

func TestLimiterLockExpires(t *testing.T) {
	ctx := context.Background()
	limiter, clock := newTestLimiter()

	for i := 0; i < maxFailures; i++ {
		limiter.RecordFailure(ctx, "k")
	}
	assert.True(t, limiter.Locked(ctx, "k"))

	clock.advance(lockoutDuration - time.Second)
	assert.True(t, limiter.Locked(ctx, "k"))
	clock.advance(2 * time.Second)
	assert.False(t, limiter.Locked(ctx, "k"))
}

func TestLimiterRollingWindow(t *testing.T) {
	ctx := context.Background()
	limiter, clock := newTestLimiter()

	// failures spread out so the oldest drop out of the window
	for i := 0; i < maxFailures-1; i++ {
		limiter.RecordFailure(ctx, "k")
		clock.advance(20 * time.Minute)
	}
	// the first two failures are older than an hour now
	limiter.RecordFailure(ctx, "k")
	assert.False(t, limiter.Locked(ctx, "k"),
		"expired failures must not count towards the lockout")
}

func TestLimiterReset(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newTestLimiter()

	for i := 0; i < maxFailures; i++ {
		limiter.RecordFailure(ctx, "k")
	}
	assert.True(t, limiter.Locked(ctx, "k"))
	limiter.Reset(ctx, "k")
	assert.False(t, limiter.Locked(ctx, "k"))

	// after a reset the counter starts over
	limiter.RecordFailure(ctx, "k")
	assert.False(t, limiter.Locked(ctx, "k"))
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{name: "ipv4", arg: "10.0.0.1", want: "10.0.0.1"},
		{name: "ipv6", arg: "2001:db8::1", want: "2001_db8__1"},
		{name: "path chars", arg: "a/b c", want: "a_b_c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeKey(tt.arg); got != tt.want {
				t.Errorf("sanitizeKey(%q) = %q, want %q", tt.arg, got, tt.want)
			}
		})
	}
}
