package gpio

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/cjeanneret/SnapGo/internal/debug"
)

// RPiDriver drives Raspberry Pi GPIOs through go-rpio (memory-mapped /dev/gpiomem).
type RPiDriver struct {
	mu    sync.Mutex
	modes map[int]PinMode
}

// NewRPiRealDriver maps the GPIO registers. It fails off a Raspberry Pi
// or without access to /dev/gpiomem.
func NewRPiRealDriver() (*RPiDriver, error) {
	debug.Info("Initializing real GPIO driver (go-rpio)")
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open GPIO: %w (are you running on a Raspberry Pi?)", err)
	}
	return &RPiDriver{modes: make(map[int]PinMode)}, nil
}

func (r *RPiDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setup(pin, mode)
}

func (r *RPiDriver) setup(pin int, mode PinMode) error {
	p := rpio.Pin(pin)
	switch mode {
	case Input:
		p.Input()
		p.PullOff()
	case InputPullUp:
		p.Input()
		p.PullUp()
	default:
		return fmt.Errorf("unknown pin mode: %d", mode)
	}
	r.modes[pin] = mode
	return nil
}

func (r *RPiDriver) ReadPin(pin int) (Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modes[pin]; !ok {
		if err := r.setup(pin, Input); err != nil {
			return Low, err
		}
	}
	level := Level(rpio.Pin(pin).Read() == rpio.High)
	debug.GPIO("ReadPin", pin, level)
	return level, nil
}

// Close returns every used pin to a floating input and unmaps the registers.
func (r *RPiDriver) Close() error {
	debug.Trace("GPIO Close (real driver)")
	r.mu.Lock()
	defer r.mu.Unlock()
	for pin := range r.modes {
		p := rpio.Pin(pin)
		p.Input()
		p.PullOff()
	}
	r.modes = make(map[int]PinMode)
	return rpio.Close()
}
