package live

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/centaurus-ai/roundtable/pkg/core/session"
	"github.com/centaurus-ai/roundtable/pkg/core/turn"
	"github.com/centaurus-ai/roundtable/pkg/core/voice"
)

func recvFrame(t *testing.T, ch <-chan []byte) Frame {
	t.Helper()
	select {
	case payload := <-ch:
		var f Frame
		if err := json.Unmarshal(payload, &f); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame arrived")
		return Frame{}
	}
}

func TestHub_RoutesBySession(t *testing.T) {
	h := NewHub(nil)
	subA, cancelA := h.Subscribe("a")
	defer cancelA()
	subB, cancelB := h.Subscribe("b")
	defer cancelB()

	h.Ghost("a", "p1", "hello")

	f := recvFrame(t, subA.normal)
	if f.Type != FrameGhost || f.Delta != "hello" || f.ParticipantID != "p1" {
		t.Errorf("frame = %+v", f)
	}
	select {
	case <-subB.normal:
		t.Error("frame leaked to another session's subscriber")
	case <-subB.priority:
		t.Error("frame leaked to another session's subscriber")
	default:
	}
}

func TestHub_PriorityClassification(t *testing.T) {
	h := NewHub(nil)
	sub, cancel := h.Subscribe("s1")
	defer cancel()

	h.TurnState("s1", turn.StateThinking)
	h.Committed("s1", session.Message{ID: "m1", Text: "done"})
	h.Notice("s1", turn.NoticeHumanTurn)
	h.Ghost("s1", "p1", "partial")
	h.ReportUpdated("s1", &session.Report{Summary: "so far"})

	for i := 0; i < 3; i++ {
		recvFrame(t, sub.priority)
	}
	if f := recvFrame(t, sub.normal); f.Type != FrameGhost {
		t.Errorf("first normal frame = %q, want ghost traffic", f.Type)
	}
	if f := recvFrame(t, sub.normal); f.Type != FrameReport {
		t.Errorf("second normal frame = %q, want the report", f.Type)
	}
}

func TestHub_SlowSubscriberDropsFrames(t *testing.T) {
	h := NewHub(nil)
	sub, cancel := h.Subscribe("s1")
	defer cancel()

	// Nobody drains: the normal buffer fills and overflow is dropped,
	// not blocked on.
	for i := 0; i < 300; i++ {
		h.Ghost("s1", "p1", "x")
	}
	if got := len(sub.normal); got != cap(sub.normal) {
		t.Errorf("buffered = %d, want a full buffer of %d", got, cap(sub.normal))
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub(nil)
	sub, cancel := h.Subscribe("s1")
	cancel()

	h.Ghost("s1", "p1", "late")
	select {
	case <-sub.normal:
		t.Error("frame delivered after unsubscribe")
	default:
	}
}

func TestHub_AudioSinkEncodesChunk(t *testing.T) {
	h := NewHub(nil)
	sub, cancel := h.Subscribe("s1")
	defer cancel()

	sink := h.AudioSink("s1")
	sink([]float32{0, 0.5}, 24000, 1500*time.Millisecond)

	f := recvFrame(t, sub.normal)
	if f.Type != FrameAudio || f.SampleRate != 24000 || f.StartMS != 1500 {
		t.Fatalf("frame = %+v", f)
	}
	raw, err := base64.StdEncoding.DecodeString(f.Audio)
	if err != nil {
		t.Fatalf("audio not base64: %v", err)
	}
	samples := voice.DecodePCM16(raw)
	if len(samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(samples))
	}
	if samples[0] != 0 || samples[1] < 0.49 || samples[1] > 0.51 {
		t.Errorf("samples = %v", samples)
	}
}
