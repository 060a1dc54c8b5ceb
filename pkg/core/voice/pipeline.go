package voice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/centaurus-ai/roundtable/pkg/core"
)

// Synthesizer produces 24kHz mono PCM16 audio for a sentence.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// PipelineConfig tunes the synthesis pipeline.
type PipelineConfig struct {
	// MaxAttempts bounds synthesis retries per sentence.
	MaxAttempts int
	// Spacing is the pause between consecutive synthesis requests.
	Spacing time.Duration
	// BreakerTrip suspends synthesis after this many consecutive
	// failures. A success resets the counter.
	BreakerTrip int
	// QueueSize bounds how many sentences may wait for synthesis.
	QueueSize int
	// Sleep is swapped out in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (c *PipelineConfig) defaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Spacing <= 0 {
		c.Spacing = 500 * time.Millisecond
	}
	if c.BreakerTrip <= 0 {
		c.BreakerTrip = 3
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
}

type speakRequest struct {
	text  string
	voice string
	gen   uint64
}

// Pipeline serializes speech synthesis: one worker, strict FIFO, so
// sentences can never play out of order. Synthesis failures are skipped
// after retries; they never block the table.
type Pipeline struct {
	synth  Synthesizer
	sched  *Scheduler
	cfg    PipelineConfig
	logger *slog.Logger

	reqs chan speakRequest

	mu        sync.Mutex
	gen       uint64
	queued    int
	fetching  bool
	failures  int
	suspended bool
}

// NewPipeline creates a synthesis pipeline. Call Run to start the
// worker.
func NewPipeline(synth Synthesizer, sched *Scheduler, cfg PipelineConfig, logger *slog.Logger) *Pipeline {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		synth:  synth,
		sched:  sched,
		cfg:    cfg,
		logger: logger.With("component", "speech"),
		reqs:   make(chan speakRequest, cfg.QueueSize),
	}
}

// Speak queues a sentence for synthesis. Fragments of one rune or less
// are ignored, as are submissions while the breaker is open.
func (p *Pipeline) Speak(text, voice string) {
	if len([]rune(text)) <= 1 {
		return
	}
	p.mu.Lock()
	if p.suspended {
		p.mu.Unlock()
		p.logger.Warn("synthesis suspended, dropping sentence")
		return
	}
	req := speakRequest{text: text, voice: voice, gen: p.gen}
	select {
	case p.reqs <- req:
		p.queued++
	default:
		p.logger.Warn("synthesis queue full, dropping sentence")
	}
	p.mu.Unlock()
}

// PendingCount returns sentences awaiting synthesis, plus one for an
// in-flight fetch, plus chunks scheduled behind the one at the device.
// The chunk currently sounding is excluded, so the next turn can start
// thinking under the tail of this one. The turn engine holds the table
// while this is nonzero.
func (p *Pipeline) PendingCount() int {
	p.mu.Lock()
	n := p.queued
	if p.fetching {
		n++
	}
	p.mu.Unlock()
	return n + p.sched.Queued()
}

// Active reports whether anything is playing, queued or being fetched.
func (p *Pipeline) Active() bool {
	return p.sched.Playing() || p.PendingCount() > 0
}

// Cancel drops queued sentences and everything scheduled for playback.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	p.gen++
	p.mu.Unlock()
	p.sched.Cancel()
}

// Notify plays the human-turn chime immediately, bypassing the queue.
func (p *Pipeline) Notify() {
	if err := p.sched.Notify(); err != nil {
		p.logger.Warn("notification chime failed", "err", err)
	}
}

// Suspended reports whether the breaker is open.
func (p *Pipeline) Suspended() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.suspended
}

// Run processes the queue until ctx is done. Strict FIFO: there is
// exactly one worker and requests are taken in submission order.
func (p *Pipeline) Run(ctx context.Context) {
	sleep := p.cfg.Sleep
	if sleep == nil {
		sleep = func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-p.reqs:
			p.mu.Lock()
			p.queued--
			if req.gen != p.gen || p.suspended {
				p.mu.Unlock()
				continue
			}
			p.fetching = true
			p.mu.Unlock()

			audio, err := p.fetch(ctx, req)

			p.mu.Lock()
			p.fetching = false
			if err != nil {
				p.failures++
				consecutive := p.failures
				tripped := p.failures >= p.cfg.BreakerTrip && !p.suspended
				if tripped {
					p.suspended = true
				}
				p.mu.Unlock()
				if ctx.Err() != nil {
					return
				}
				p.logger.Warn("synthesis failed, skipping sentence", "err", err, "consecutive", consecutive)
				if tripped {
					p.logger.Warn("synthesis breaker open, speech suspended")
				}
				continue
			}
			p.failures = 0
			stale := req.gen != p.gen
			p.mu.Unlock()

			if !stale {
				if err := p.sched.Enqueue(DecodePCM16(audio)); err != nil {
					p.logger.Warn("playback scheduling failed", "err", err)
				}
			}
			if err := sleep(ctx, p.cfg.Spacing); err != nil {
				return
			}
		}
	}
}

func (p *Pipeline) fetch(ctx context.Context, req speakRequest) ([]byte, error) {
	policy := core.DefaultRetryPolicy(p.cfg.MaxAttempts)
	policy.Sleep = p.cfg.Sleep
	var audio []byte
	err := core.Retry(ctx, policy, func(ctx context.Context) error {
		var err error
		audio, err = p.synth.Synthesize(ctx, req.text, req.voice)
		return err
	})
	return audio, err
}
