package voice

import (
	"sync"
	"time"
)

// Device is the audio output handle. The engine never touches a
// concrete device; the gateway injects one (usually a feed device that
// forwards scheduled chunks to the browser) and tests inject fakes.
type Device interface {
	// Init prepares the device for playback.
	Init() error
	// Play schedules samples to start at the given device-clock offset.
	Play(pcm []float32, sampleRate int, at time.Duration) error
	// Stop cancels everything scheduled but not yet played.
	Stop()
	// Now returns the current device-clock offset.
	Now() time.Duration
	// Shutdown releases the device.
	Shutdown()
}

// ClockDevice is a wall-clock Device with no physical output. It keeps
// honest time so the scheduler's cursor math behaves exactly as it
// would against a sound card, and hands every scheduled chunk to an
// optional sink (the live feed uses this to forward audio frames).
type ClockDevice struct {
	mu    sync.Mutex
	epoch time.Time
	sink  func(pcm []float32, sampleRate int, at time.Duration)
}

// NewClockDevice creates a wall-clock device with an optional sink.
func NewClockDevice(sink func(pcm []float32, sampleRate int, at time.Duration)) *ClockDevice {
	return &ClockDevice{sink: sink}
}

// Init starts the device clock.
func (d *ClockDevice) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.epoch.IsZero() {
		d.epoch = time.Now()
	}
	return nil
}

// Play hands the chunk to the sink.
func (d *ClockDevice) Play(pcm []float32, sampleRate int, at time.Duration) error {
	d.mu.Lock()
	sink := d.sink
	d.mu.Unlock()
	if sink != nil {
		sink(pcm, sampleRate, at)
	}
	return nil
}

// Stop is a no-op; consumers drop frames scheduled past a cancel.
func (d *ClockDevice) Stop() {}

// Now returns time since Init.
func (d *ClockDevice) Now() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.epoch.IsZero() {
		return 0
	}
	return time.Since(d.epoch)
}

// Shutdown detaches the sink.
func (d *ClockDevice) Shutdown() {
	d.mu.Lock()
	d.sink = nil
	d.mu.Unlock()
}
