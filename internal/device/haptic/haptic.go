package haptic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Pattern is a vibration waveform: alternating off and on durations, starting with off.
type Pattern []time.Duration

// DefaultPattern pauses for half a second, then vibrates for one second.
//
//nolint:gochecknoglobals // Immutable default waveform.
var DefaultPattern = Pattern{500 * time.Millisecond, time.Second}

// cancelTimeout bounds how long Cancel waits for the motor to be switched off.
const cancelTimeout = 3 * time.Second

var (
	// ErrInvalidPattern is returned for empty patterns or non-positive segments.
	ErrInvalidPattern = errors.New("invalid vibration pattern")
	// ErrCancelTimeout is returned when the motor is not switched off in time.
	ErrCancelTimeout = errors.New("vibration did not stop in time")
)

// Validate checks that the pattern has at least one segment and no zero-length steps.
func (p Pattern) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidPattern)
	}

	for i, d := range p {
		if d <= 0 {
			return fmt.Errorf("%w: segment %d is %s", ErrInvalidPattern, i, d)
		}
	}

	return nil
}

// Motor switches the vibration actuator.
type Motor interface {
	Set(on bool) error
}

// NopMotor is used when the host has no vibration actuator.
type NopMotor struct{}

// Set does nothing.
func (NopMotor) Set(bool) error { return nil }

// FileMotor toggles an actuator exposed as a control file, such as
// /sys/class/timed_output/vibrator/enable or a LED-class vibrator brightness file.
type FileMotor struct {
	// path is the control file.
	path string
	// on is the value written to start the motor.
	on string
}

// NewFileMotor returns a motor writing to path. Writing "1" starts it, "0" stops it.
func NewFileMotor(path string) *FileMotor {
	return &FileMotor{
		path: filepath.Clean(path),
		on:   "1",
	}
}

// Set writes the on or off value to the control file.
func (m *FileMotor) Set(on bool) error {
	value := "0"
	if on {
		value = m.on
	}

	f, err := os.OpenFile(m.path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("open motor control: %w", err)
	}

	if _, err = f.WriteString(value); err != nil {
		_ = f.Close()
		return fmt.Errorf("write motor control: %w", err)
	}

	return f.Close()
}

// Vibrator runs patterns on a motor.
type Vibrator struct {
	// motor is the actuator being driven.
	motor Motor
}

// NewVibrator returns a vibrator for motor. A nil motor behaves like NopMotor.
func NewVibrator(motor Motor) *Vibrator {
	if motor == nil {
		motor = NopMotor{}
	}

	return &Vibrator{motor: motor}
}

// Vibration is a running waveform.
type Vibration struct {
	// cancel stops the driving goroutine.
	cancel context.CancelFunc
	// done is closed once the motor is left off.
	done chan struct{}
	// once guards the single release.
	once sync.Once
	// offErr is the result of the final motor-off write. Written by the driving goroutine.
	offErr error
	// err is what Cancel reports.
	err error
}

// StartRepeatingVibration drives the waveform on the motor until the returned
// vibration is canceled or ctx ends. The first motor write happens synchronously so
// an unusable actuator is reported here instead of silently.
func (v *Vibrator) StartRepeatingVibration(ctx context.Context, pattern Pattern) (*Vibration, error) {
	if err := pattern.Validate(); err != nil {
		return nil, err
	}

	// The waveform starts with a pause, so the motor begins switched off.
	if err := v.motor.Set(false); err != nil {
		return nil, fmt.Errorf("start vibration: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	vib := &Vibration{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go v.drive(runCtx, pattern, vib)

	return vib, nil
}

// drive steps through the pattern forever, leaving the motor off on exit.
func (v *Vibrator) drive(ctx context.Context, pattern Pattern, vib *Vibration) {
	defer close(vib.done)

	timer := time.NewTimer(pattern[0])
	defer timer.Stop()

	for i := 0; ; {
		select {
		case <-ctx.Done():
			vib.offErr = v.motor.Set(false)
			return
		case <-timer.C:
		}

		i = (i + 1) % len(pattern)
		// Even indexes are pauses, odd ones pulses. A failing write keeps the
		// waveform going; Cancel reports the final state.
		_ = v.motor.Set(i%2 == 1)

		timer.Reset(pattern[i])
	}
}

// Cancel stops the waveform and switches the motor off, giving up after a bounded wait.
// Repeated calls return the first result.
func (vib *Vibration) Cancel() error {
	vib.once.Do(func() {
		vib.cancel()

		timer := time.NewTimer(cancelTimeout)
		defer timer.Stop()

		select {
		case <-vib.done:
			vib.err = vib.offErr
		case <-timer.C:
			vib.err = ErrCancelTimeout
		}
	})

	return vib.err
}
