package voice

import (
	"fmt"
	"os"
	"sync"
)

// Recorder accumulates everything the scheduler plays so a completed
// session can be downloaded as a single audio file.
type Recorder struct {
	mu         sync.Mutex
	sampleRate int
	pcm        []byte
	finalized  bool
}

// NewRecorder creates a recorder at the given sample rate.
func NewRecorder(sampleRate int) *Recorder {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Recorder{sampleRate: sampleRate}
}

// Append taps a chunk of played samples into the recording.
func (r *Recorder) Append(pcm []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	r.pcm = append(r.pcm, EncodePCM16(pcm)...)
}

// Len returns recorded bytes so far.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pcm)
}

// WAV returns the recording as a WAV container.
func (r *Recorder) WAV() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return EncodeWAV(r.pcm, r.sampleRate)
}

// Finalize writes the recording to path and stops accepting audio.
// Finalizing an empty recording writes nothing and returns "".
func (r *Recorder) Finalize(path string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return "", nil
	}
	r.finalized = true
	if len(r.pcm) == 0 {
		return "", nil
	}
	if err := os.WriteFile(path, EncodeWAV(r.pcm, r.sampleRate), 0o644); err != nil {
		return "", fmt.Errorf("write recording: %w", err)
	}
	return path, nil
}
