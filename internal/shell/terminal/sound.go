package terminal

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/playmatatu/pooltable/internal/game"
)

const sampleRate = beep.SampleRate(44100)

// minClickSpeed filters out resting contacts.
const minClickSpeed = 40.0

// Sound plays short clicks for contacts and a thud for captures. A Sound that
// failed to initialize stays silent.
type Sound struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
}

func NewSound() *Sound {
	return &Sound{mixer: &beep.Mixer{}}
}

// Initialize opens the speaker.
func (s *Sound) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(s.mixer)
	s.initialized = true
	return nil
}

// Cleanup silences the mixer and releases the speaker.
func (s *Sound) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	s.initialized = false
}

// PlayEvents queues one sound per audible event of a tick.
func (s *Sound) PlayEvents(events []game.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}
	for _, ev := range events {
		if st := streamerFor(ev); st != nil {
			speaker.Lock()
			s.mixer.Add(st)
			speaker.Unlock()
		}
	}
}

// streamerFor picks the tone for an event, or nil when it should stay silent.
func streamerFor(ev game.Event) beep.Streamer {
	switch ev.Type {
	case game.EventPocket:
		return newClick(110, 180*time.Millisecond, 0.5)
	case game.EventBallBall:
		if ev.Speed < minClickSpeed {
			return nil
		}
		return newClick(1800, 25*time.Millisecond, clickVolume(ev.Speed))
	case game.EventRail:
		if ev.Speed < minClickSpeed {
			return nil
		}
		return newClick(420, 40*time.Millisecond, clickVolume(ev.Speed)*0.6)
	}
	return nil
}

// clickVolume scales loudness with impact speed, capped below clipping.
func clickVolume(speed float64) float64 {
	return math.Min(0.4, speed/2500)
}

// click is a decaying sine burst.
type click struct {
	freq    float64
	volume  float64
	pos     int
	samples int
}

func newClick(freq float64, d time.Duration, volume float64) *click {
	return &click{freq: freq, volume: volume, samples: sampleRate.N(d)}
}

func (c *click) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if c.pos >= c.samples {
			return i, i > 0
		}
		t := float64(c.pos) / float64(sampleRate)
		decay := 1 - float64(c.pos)/float64(c.samples)
		v := c.volume * decay * decay * math.Sin(2*math.Pi*c.freq*t)
		samples[i][0] = v
		samples[i][1] = v
		c.pos++
	}
	return len(samples), true
}

func (c *click) Err() error { return nil }
