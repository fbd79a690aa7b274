package client

import (
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/aviavoice/gateway/internal/audio"
)

type fakePlayback struct {
	mu      sync.Mutex
	playing bool
	stopped bool
}

func (f *fakePlayback) Playing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakePlayback) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	f.stopped = true
}

func (f *fakePlayback) finish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
}

type playRecord struct {
	samples []float32
	rate    int
}

type fakeOutput struct {
	mu         sync.Mutex
	autoFinish time.Duration
	plays      []playRecord
	playbacks  []*fakePlayback
	overlapped bool
}

func (f *fakeOutput) Play(samples []float32, rate int) (Playback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pb := range f.playbacks {
		if pb.Playing() {
			f.overlapped = true
		}
	}
	f.plays = append(f.plays, playRecord{samples: samples, rate: rate})
	pb := &fakePlayback{playing: true}
	f.playbacks = append(f.playbacks, pb)
	if f.autoFinish > 0 {
		time.AfterFunc(f.autoFinish, pb.finish)
	}
	return pb, nil
}

func (f *fakeOutput) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.plays)
}

func (f *fakeOutput) recorded() []playRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]playRecord, len(f.plays))
	copy(out, f.plays)
	return out
}

func rawChunk(samples []int16) string {
	return base64.StdEncoding.EncodeToString(audio.EncodePCM16LE(samples))
}

func newTestPlayer(out Output) *Player {
	p := NewPlayer(out)
	p.poll = time.Millisecond
	return p
}

func waitCount(t *testing.T, out *fakeOutput, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if out.playCount() >= n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d plays, got %d", n, out.playCount())
}

func TestPlayerPlaysInOrderWithoutOverlap(t *testing.T) {
	out := &fakeOutput{autoFinish: 5 * time.Millisecond}
	p := newTestPlayer(out)

	p.Enqueue(rawChunk([]int16{100}), 0)
	p.Enqueue(rawChunk([]int16{200}), 0)
	p.Enqueue(rawChunk([]int16{300}), 0)

	waitCount(t, out, 3)
	time.Sleep(20 * time.Millisecond)

	plays := out.recorded()
	wantFirst := []float32{100.0 / 32768, 200.0 / 32768, 300.0 / 32768}
	for i, rec := range plays {
		if len(rec.samples) != 1 || rec.samples[0] != wantFirst[i] {
			t.Fatalf("play %d samples = %v, want [%v]", i, rec.samples, wantFirst[i])
		}
	}
	if out.overlapped {
		t.Fatalf("two sources were playing at once")
	}
	if p.QueueLen() != 0 {
		t.Fatalf("queue not drained: %d", p.QueueLen())
	}
}

func TestPlayerStopDiscardsQueue(t *testing.T) {
	out := &fakeOutput{} // playback never finishes on its own
	p := newTestPlayer(out)

	p.Enqueue(rawChunk([]int16{1, 2, 3}), 0)
	p.Enqueue(rawChunk([]int16{4, 5, 6}), 0)
	waitCount(t, out, 1)

	p.Stop()
	time.Sleep(30 * time.Millisecond)

	if got := out.playCount(); got != 1 {
		t.Fatalf("queued chunk played after Stop, plays = %d", got)
	}
	out.mu.Lock()
	stopped := out.playbacks[0].stopped
	out.mu.Unlock()
	if !stopped {
		t.Fatalf("current playback was not stopped")
	}
	if p.QueueLen() != 0 {
		t.Fatalf("queue survived Stop: %d", p.QueueLen())
	}
}

func TestPlayerDecodesWAVHeader(t *testing.T) {
	out := &fakeOutput{autoFinish: time.Millisecond}
	p := newTestPlayer(out)

	pcm := audio.EncodePCM16LE([]int16{16384, -16384})
	wav, err := audio.EncodeWAVPCM16LE(pcm, 16000)
	if err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	p.Enqueue(base64.StdEncoding.EncodeToString(wav), 0)

	waitCount(t, out, 1)
	rec := out.recorded()[0]
	if rec.rate != 16000 {
		t.Fatalf("rate = %d, want 16000 from the WAV header", rec.rate)
	}
	if len(rec.samples) != 2 || rec.samples[0] != 0.5 || rec.samples[1] != -0.5 {
		t.Fatalf("samples = %v", rec.samples)
	}
}

func TestPlayerRawPCMFallback(t *testing.T) {
	out := &fakeOutput{autoFinish: time.Millisecond}
	p := newTestPlayer(out)

	p.Enqueue(rawChunk([]int16{-32768}), 0)
	waitCount(t, out, 1)
	rec := out.recorded()[0]
	if rec.rate != fallbackSampleRate {
		t.Fatalf("rate = %d, want %d for raw PCM without a rate", rec.rate, fallbackSampleRate)
	}
	if rec.samples[0] != -1.0 {
		t.Fatalf("sample = %v, want -1.0", rec.samples[0])
	}

	p.Enqueue(rawChunk([]int16{0}), 16000)
	waitCount(t, out, 2)
	if rec := out.recorded()[1]; rec.rate != 16000 {
		t.Fatalf("rate = %d, want the supplied 16000", rec.rate)
	}
}

func TestDefaultPlayerLifecycle(t *testing.T) {
	if Default() != nil {
		t.Fatalf("default player should be nil before Init")
	}
	Init(&fakeOutput{autoFinish: time.Millisecond})
	if Default() == nil {
		t.Fatalf("default player missing after Init")
	}
	Teardown()
	if Default() != nil {
		t.Fatalf("default player should be nil after Teardown")
	}
}
