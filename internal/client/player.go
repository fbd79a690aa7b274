// Package client is the Go counterpart of the browser console: a websocket
// client for the gateway, a serial audio player, and an event router feeding
// conversation state.
package client

import (
	"encoding/base64"
	"log"
	"sync"
	"time"

	"github.com/aviavoice/gateway/internal/audio"
)

const fallbackSampleRate = 44100

// Playback is one in-flight buffer on an Output device.
type Playback interface {
	Playing() bool
	Stop()
}

// Output is the playback device. The real implementation wraps an audio
// context; tests substitute a fake.
type Output interface {
	Play(samples []float32, sampleRate int) (Playback, error)
}

type chunk struct {
	audio      string
	sampleRate int
}

// Player drains a FIFO of base64 audio chunks through a single Output. At
// most one buffer plays at a time; Stop discards the queue and halts the
// current buffer.
type Player struct {
	out  Output
	poll time.Duration

	mu       sync.Mutex
	queue    []chunk
	draining bool
	current  Playback
}

func NewPlayer(out Output) *Player {
	return &Player{out: out, poll: 50 * time.Millisecond}
}

// Enqueue appends a chunk and starts a drain if none is running. SampleRate
// zero means the chunk is raw PCM at the default capture rate.
func (p *Player) Enqueue(b64Audio string, sampleRate int) {
	p.mu.Lock()
	p.queue = append(p.queue, chunk{audio: b64Audio, sampleRate: sampleRate})
	start := !p.draining
	if start {
		p.draining = true
	}
	p.mu.Unlock()
	if start {
		go p.drain()
	}
}

// Stop clears the queue and halts the current buffer.
func (p *Player) Stop() {
	p.mu.Lock()
	p.queue = nil
	current := p.current
	p.mu.Unlock()
	if current != nil {
		current.Stop()
	}
}

// QueueLen reports the number of chunks not yet started.
func (p *Player) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Player) drain() {
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.draining = false
			p.mu.Unlock()
			return
		}
		next := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.playOne(next)
	}
}

func (p *Player) playOne(c chunk) {
	data, err := base64.StdEncoding.DecodeString(c.audio)
	if err != nil {
		log.Printf("audio chunk is not base64: %v", err)
		return
	}
	samples, rate := decodeChunk(data, c.sampleRate)
	if len(samples) == 0 {
		return
	}

	playback, err := p.out.Play(samples, rate)
	if err != nil {
		log.Printf("audio playback failed: %v", err)
		return
	}
	p.mu.Lock()
	p.current = playback
	p.mu.Unlock()

	for playback.Playing() {
		time.Sleep(p.poll)
	}

	p.mu.Lock()
	if p.current == playback {
		p.current = nil
	}
	p.mu.Unlock()
}

// decodeChunk first tries the bytes as a packaged WAV file; anything else is
// treated as raw little-endian PCM16 mono at the supplied rate.
func decodeChunk(data []byte, sampleRate int) ([]float32, int) {
	if pcm, rate, err := audio.DecodeWAVPCM16LE(data); err == nil {
		return audio.Float32FromPCM16(audio.DecodePCM16LE(pcm)), rate
	}
	if sampleRate <= 0 {
		sampleRate = fallbackSampleRate
	}
	return audio.Float32FromPCM16(audio.DecodePCM16LE(data)), sampleRate
}

// The process owns one player, matching the single shared audio device.
var (
	defaultMu     sync.Mutex
	defaultPlayer *Player
)

// Init installs the process-wide player. Tests pass a fake Output.
func Init(out Output) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultPlayer = NewPlayer(out)
}

// Default returns the process-wide player, or nil before Init.
func Default() *Player {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultPlayer
}

// Teardown stops and forgets the process-wide player.
func Teardown() {
	defaultMu.Lock()
	p := defaultPlayer
	defaultPlayer = nil
	defaultMu.Unlock()
	if p != nil {
		p.Stop()
	}
}
