package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/ebbinghaus/internal/logging"
)

func fixed(d time.Duration) func() time.Duration {
	return func() time.Duration { return d }
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(func() error {
		calls.Add(1)
		return nil
	}, fixed(30*time.Millisecond), logging.Discard())

	assert.Equal(t, Idle, d.State())
	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, Pending, d.State())
	assert.False(t, d.Deadline().IsZero())

	require.Eventually(t, func() bool { return calls.Load() == 1 && d.State() == Idle },
		time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, d.Deadline().IsZero())
}

func TestDebouncer_ErrorDoesNotStopLaterTriggers(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(func() error {
		calls.Add(1)
		return errors.New("host unavailable")
	}, fixed(10*time.Millisecond), logging.Discard())

	d.Trigger()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	d.Trigger()
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDebouncer_TriggerWhileFiring(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	var calls atomic.Int32
	d := NewDebouncer(func() error {
		if calls.Add(1) == 1 {
			started <- struct{}{}
			<-release
		}
		return nil
	}, fixed(10*time.Millisecond), logging.Discard())

	d.Trigger()
	<-started
	assert.Equal(t, Firing, d.State())

	d.Trigger()
	assert.Equal(t, Pending, d.State())
	close(release)

	require.Eventually(t, func() bool { return calls.Load() == 2 && d.State() == Idle },
		time.Second, 5*time.Millisecond)
}

func TestDebouncer_Stop(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(func() error {
		calls.Add(1)
		return nil
	}, fixed(20*time.Millisecond), logging.Discard())

	d.Trigger()
	d.Stop()
	assert.Equal(t, Idle, d.State())
	d.Trigger()
	assert.Equal(t, Idle, d.State())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestDebouncer_DefaultInterval(t *testing.T) {
	d := NewDebouncer(func() error { return nil }, fixed(0), nil)
	before := time.Now()
	d.Trigger()
	defer d.Stop()
	assert.WithinDuration(t, before.Add(DefaultDebounce), d.Deadline(), 100*time.Millisecond)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "firing", Firing.String())
}

func TestUntilNextMidnight(t *testing.T) {
	now := time.Date(2025, 3, 10, 23, 0, 0, 0, time.Local)
	assert.Equal(t, time.Hour+time.Second, UntilNextMidnight(now))

	late := time.Date(2025, 3, 10, 23, 59, 59, 500_000_000, time.Local)
	assert.Equal(t, 1500*time.Millisecond, UntilNextMidnight(late))

	justAfter := time.Date(2025, 3, 11, 0, 0, 1, 0, time.Local)
	assert.Equal(t, 24*time.Hour, UntilNextMidnight(justAfter))
}

// fakeClock hands out channels that the test fires explicitly.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	waits  []time.Duration
	timers chan chan time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, timers: make(chan chan time.Time, 8)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	c.timers <- ch
	return ch
}

func (c *fakeClock) advanceTo(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func TestDaily_RearmsAfterFailingPass(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	clock := newFakeClock(start)

	var passes atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := &Daily{
		Pass: func(context.Context) error {
			passes.Add(1)
			return errors.New("boom")
		},
		Logger: logging.Discard(),
		Now:    clock.Now,
		After:  clock.After,
	}

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	first := <-clock.timers
	clock.advanceTo(time.Date(2025, 3, 11, 0, 0, 1, 0, time.Local))
	first <- clock.Now()

	second := <-clock.timers
	assert.Equal(t, int32(1), passes.Load())
	clock.advanceTo(time.Date(2025, 3, 12, 0, 0, 1, 0, time.Local))
	second <- clock.Now()

	<-clock.timers
	assert.Equal(t, int32(2), passes.Load())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	clock.mu.Lock()
	defer clock.mu.Unlock()
	require.Len(t, clock.waits, 3)
	assert.Equal(t, 12*time.Hour+time.Second, clock.waits[0])
	assert.Equal(t, 24*time.Hour, clock.waits[1])
	assert.Equal(t, 24*time.Hour, clock.waits[2])
}

func TestDaily_RearmsAfterPanickingPass(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local))

	var passes atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := &Daily{
		Pass: func(context.Context) error {
			passes.Add(1)
			panic("host went away")
		},
		Logger: logging.Discard(),
		Now:    clock.Now,
		After:  clock.After,
	}

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	first := <-clock.timers
	clock.advanceTo(time.Date(2025, 3, 11, 0, 0, 1, 0, time.Local))
	first <- clock.Now()

	<-clock.timers
	assert.Equal(t, int32(1), passes.Load())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
