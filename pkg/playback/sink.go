package playback

import (
	"math"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/james-see/rollgen/internal/logger"
	"github.com/james-see/rollgen/pkg/grid"
)

// Sink sounds a single pitch. rate scales the note relative to 120 BPM.
type Sink interface {
	PlayNote(p grid.Pitch, rate float64)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(p grid.Pitch, rate float64)

func (f SinkFunc) PlayNote(p grid.Pitch, rate float64) {
	f(p, rate)
}

// MultiSink fans every note out to several sinks
type MultiSink []Sink

func (m MultiSink) PlayNote(p grid.Pitch, rate float64) {
	for _, s := range m {
		s.PlayNote(p, rate)
	}
}

// Frequency returns the equal-tempered frequency of a pitch (A4 = 440 Hz)
func Frequency(p grid.Pitch) float64 {
	return 440 * math.Pow(2, (float64(p.Note)-69)/12)
}

// BeepSink sounds notes on the system speaker
type BeepSink struct {
	// Length of a note at 120 BPM; faster tempos shorten it
	Length time.Duration

	beep func(freq float64, ms int) error
}

// NewBeepSink creates a speaker sink with quarter-note length at 120 BPM
func NewBeepSink() *BeepSink {
	return &BeepSink{Length: 400 * time.Millisecond, beep: beeep.Beep}
}

// PlayNote beeps without blocking the playback chain
func (b *BeepSink) PlayNote(p grid.Pitch, rate float64) {
	if rate <= 0 {
		rate = 1
	}
	ms := int(float64(b.Length.Milliseconds()) / rate)
	freq := Frequency(p)
	go func() {
		if err := b.beep(freq, ms); err != nil {
			logger.Debug("Beep failed", logger.Fields{"pitch": p.Name, "error": err.Error()})
		}
	}()
}

// LogSink writes one log line per note
type LogSink struct{}

func (LogSink) PlayNote(p grid.Pitch, rate float64) {
	logger.Debug("Note", logger.Fields{"pitch": p.Name, "note": p.Note, "rate": rate})
}
