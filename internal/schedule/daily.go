package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aidanlsb/ebbinghaus/internal/dates"
)

// UntilNextMidnight returns the delay to 00:00:01 of the next local day,
// never less than one second.
func UntilNextMidnight(now time.Time) time.Duration {
	d := dates.NextMidnight(now).Sub(now)
	if d < time.Second {
		return time.Second
	}
	return d
}

// Daily runs Pass once per local day just after midnight.
type Daily struct {
	Pass   func(ctx context.Context) error
	Logger *slog.Logger

	// Clock hooks; nil uses the wall clock.
	Now   func() time.Time
	After func(time.Duration) <-chan time.Time
}

// Run blocks until ctx is cancelled. The next delay is computed from the wall
// clock only after the previous pass returns, and a failing or panicking pass
// is logged without stopping the loop.
func (d *Daily) Run(ctx context.Context) error {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	after := d.After
	if after == nil {
		after = time.After
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for {
		wait := UntilNextMidnight(now())
		logger.Debug("daily pass scheduled", "in", wait.Round(time.Second).String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-after(wait):
		}

		if err := d.runPass(ctx); err != nil {
			logger.Error("daily pass failed", "error", err)
		}
	}
}

// runPass turns a panic in Pass into an error so the loop re-arms.
func (d *Daily) runPass(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("daily pass panicked: %v", r)
		}
	}()
	return d.Pass(ctx)
}
