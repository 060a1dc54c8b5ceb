package voice

import (
	"log/slog"
	"sync"
	"time"
)

// driftReset is how far the cursor may lag real time before it snaps
// back once the queue drains.
const driftReset = 500 * time.Millisecond

// Scheduler places decoded audio on the device clock back to back.
// The cursor guarantees gapless playback: each chunk starts at
// max(now, cursor) and pushes the cursor forward by its duration.
type Scheduler struct {
	dev        Device
	sampleRate int
	logger     *slog.Logger

	mu        sync.Mutex
	cursor    time.Duration // end of the last scheduled chunk
	scheduled []span        // in-flight chunks on the device clock
	recorder  *Recorder
}

// span is one scheduled chunk's window on the device clock.
type span struct {
	start, end time.Duration
}

// NewScheduler creates a playback scheduler over the given device.
// A nil recorder disables the session recording tap.
func NewScheduler(dev Device, sampleRate int, rec *Recorder, logger *slog.Logger) *Scheduler {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		dev:        dev,
		sampleRate: sampleRate,
		logger:     logger.With("component", "playback"),
		recorder:   rec,
	}
}

// Enqueue schedules a chunk for gapless playback and taps it into the
// session recording.
func (s *Scheduler) Enqueue(pcm []float32) error {
	if len(pcm) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.dev.Now()
	s.pruneLocked(now)

	start := now
	if s.cursor > start {
		start = s.cursor
	}
	dur := Duration(len(pcm), s.sampleRate)

	if err := s.dev.Play(pcm, s.sampleRate, start); err != nil {
		return err
	}
	s.cursor = start + dur
	s.scheduled = append(s.scheduled, span{start: start, end: s.cursor})
	if s.recorder != nil {
		s.recorder.Append(pcm)
	}
	s.logger.Debug("scheduled chunk", "start", start, "dur", dur, "queued", len(s.scheduled))
	return nil
}

// PlayNow plays samples immediately, bypassing the queue and cursor.
// Used for the human-turn notification chime.
func (s *Scheduler) PlayNow(pcm []float32) error {
	return s.dev.Play(pcm, s.sampleRate, s.dev.Now())
}

// Notify plays the 880Hz half-second chime that announces a human turn.
func (s *Scheduler) Notify() error {
	return s.PlayNow(Sine(880, 500*time.Millisecond, s.sampleRate))
}

// Playing reports whether any scheduled chunk is still sounding.
func (s *Scheduler) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.dev.Now())
	return len(s.scheduled) > 0
}

// Queued returns how many scheduled chunks have not started sounding.
// The chunk currently at the device does not count: a table waiting for
// Queued to hit zero may overlap its next turn with the tail of this
// one, matching live conversation pacing.
func (s *Scheduler) Queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.dev.Now()
	s.pruneLocked(now)
	n := 0
	for _, sp := range s.scheduled {
		if sp.start > now {
			n++
		}
	}
	return n
}

// Cancel drops everything scheduled and resets the cursor.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	s.scheduled = nil
	s.cursor = 0
	s.mu.Unlock()
	s.dev.Stop()
}

// pruneLocked drops finished chunks and snaps a stale cursor back to
// now once the queue is empty.
func (s *Scheduler) pruneLocked(now time.Duration) {
	keep := s.scheduled[:0]
	for _, sp := range s.scheduled {
		if sp.end > now {
			keep = append(keep, sp)
		}
	}
	s.scheduled = keep
	if len(s.scheduled) == 0 && s.cursor != 0 && s.cursor < now-driftReset {
		s.cursor = now
	}
}
