// Package trigger turns a physical push button into capture requests.
package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/cjeanneret/SnapGo/internal/debug"
	"github.com/cjeanneret/SnapGo/internal/hw/gpio"
)

// Button is an active-low push button wired between a GPIO pin and ground.
// The internal pull-up keeps the pin HIGH while released.
type Button struct {
	gpio     gpio.Driver
	pin      int
	poll     time.Duration
	debounce time.Duration
	now      func() time.Time
}

// NewButton configures pin as a pulled-up input.
// poll is the sampling interval, debounce the minimum time between two presses.
func NewButton(g gpio.Driver, pin int, poll, debounce time.Duration) (*Button, error) {
	if err := g.SetupPin(pin, gpio.InputPullUp); err != nil {
		return nil, fmt.Errorf("setup trigger pin %d: %w", pin, err)
	}
	if poll <= 0 {
		poll = 20 * time.Millisecond
	}
	return &Button{
		gpio:     g,
		pin:      pin,
		poll:     poll,
		debounce: debounce,
		now:      time.Now,
	}, nil
}

// Run samples the pin until ctx is cancelled and calls onPress on each
// HIGH->LOW edge. onPress runs on the polling goroutine, so presses that
// happen while it is busy are ignored.
func (b *Button) Run(ctx context.Context, onPress func(context.Context)) error {
	debug.Info("Trigger button armed on pin %d", b.pin)

	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	last := gpio.High
	var lastPress time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		level, err := b.gpio.ReadPin(b.pin)
		if err != nil {
			return fmt.Errorf("read trigger pin %d: %w", b.pin, err)
		}
		pressed := last == gpio.High && level == gpio.Low
		last = level
		if !pressed {
			continue
		}

		now := b.now()
		if !lastPress.IsZero() && now.Sub(lastPress) < b.debounce {
			debug.Trace("Trigger: bounce ignored")
			continue
		}
		lastPress = now
		debug.Live("Trigger button pressed")
		onPress(ctx)
	}
}
