package voice

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRecorder_FinalizeWritesWAV(t *testing.T) {
	rec := NewRecorder(DefaultSampleRate)
	rec.Append(make([]float32, 100))

	path := filepath.Join(t.TempDir(), "session.wav")
	written, err := rec.Finalize(path)
	if err != nil {
		t.Fatalf("Finalize error: %v", err)
	}
	if written != path {
		t.Errorf("written = %q, want %q", written, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read recording: %v", err)
	}
	if len(data) != 44+200 {
		t.Errorf("file size = %d, want WAV header plus 200 PCM bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" {
		t.Error("recording is not a WAV file")
	}
}

func TestRecorder_EmptyFinalizeWritesNothing(t *testing.T) {
	rec := NewRecorder(DefaultSampleRate)
	path := filepath.Join(t.TempDir(), "empty.wav")
	written, err := rec.Finalize(path)
	if err != nil {
		t.Fatalf("Finalize error: %v", err)
	}
	if written != "" {
		t.Errorf("written = %q, want empty for a silent session", written)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should exist for an empty recording")
	}
}

func TestRecorder_AppendAfterFinalizeIgnored(t *testing.T) {
	rec := NewRecorder(DefaultSampleRate)
	rec.Append(make([]float32, 10))
	if _, err := rec.Finalize(filepath.Join(t.TempDir(), "r.wav")); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}

	before := rec.Len()
	rec.Append(make([]float32, 10))
	if rec.Len() != before {
		t.Error("appends after finalize must be ignored")
	}
}
