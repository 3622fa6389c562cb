// Package session holds one composer's state: the grid, the generation
// parameters, the tempo and the playback driver bound to them.
package session

import (
	"context"
	"sync"

	"github.com/james-see/rollgen/pkg/client"
	"github.com/james-see/rollgen/pkg/grid"
	"github.com/james-see/rollgen/pkg/melody"
	"github.com/james-see/rollgen/pkg/playback"
)

const (
	DefaultTemperature  = 0.6
	DefaultOutputLength = 4
	DefaultBPM          = melody.DefaultBPM

	MinBPM          = melody.MinBPM
	MaxBPM          = melody.MaxBPM
	MinOutputLength = 1
	MaxOutputLength = 16
)

// Submitter sends a generation request
type Submitter interface {
	Submit(ctx context.Context, req client.Request) (*client.Submission, error)
}

// Session is a composer's working state
type Session struct {
	mu           sync.Mutex
	grid         *grid.Grid
	bpm          int
	temperature  float64
	outputLength int

	player *playback.Driver
}

// New creates a session on an empty grid. sink and opts configure playback.
func New(g *grid.Grid, sink playback.Sink, opts ...playback.Option) *Session {
	if g == nil {
		g = grid.NewDefault()
	}
	s := &Session{
		grid:         g,
		bpm:          DefaultBPM,
		temperature:  DefaultTemperature,
		outputLength: DefaultOutputLength,
	}
	s.player = playback.NewDriver(sink, s.BPM, opts...)
	return s
}

// Grid returns the session's grid. Callers mutate it only through Toggle.
func (s *Session) Grid() *grid.Grid {
	return s.grid
}

// Toggle flips one cell
func (s *Session) Toggle(row, col int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Toggle(row, col)
}

// BPM returns the current tempo
func (s *Session) BPM() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bpm
}

// SetBPM sets the tempo, clamped to [MinBPM, MaxBPM]. A running pass picks
// it up on its next tick.
func (s *Session) SetBPM(bpm int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bpm = clamp(bpm, MinBPM, MaxBPM)
	return s.bpm
}

// Temperature returns the sampling temperature
func (s *Session) Temperature() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.temperature
}

// SetTemperature sets the sampling temperature, clamped to [0,1]
func (s *Session) SetTemperature(t float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case t < 0:
		t = 0
	case t > 1:
		t = 1
	}
	s.temperature = t
	return s.temperature
}

// OutputLength returns the requested length in bars
func (s *Session) OutputLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outputLength
}

// SetOutputLength sets the length in bars, clamped to the allowed range
func (s *Session) SetOutputLength(bars int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputLength = clamp(bars, MinOutputLength, MaxOutputLength)
	return s.outputLength
}

// Player exposes the playback driver
func (s *Session) Player() *playback.Driver {
	return s.player
}

// PlayPause toggles playback of the current grid
func (s *Session) PlayPause() bool {
	s.mu.Lock()
	snapshot := s.grid.Clone()
	s.mu.Unlock()
	return s.player.Toggle(snapshot)
}

// BackToStart stops playback and rewinds to the first column
func (s *Session) BackToStart() {
	s.player.Stop()
}

// Clear empties the grid, restores the default temperature and stops
// playback. It returns the grid as it was before.
func (s *Session) Clear() [][]bool {
	s.player.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temperature = DefaultTemperature
	return s.grid.Clear()
}

// Track encodes the grid at the current tempo
func (s *Session) Track() melody.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return melody.EncodeTrack(s.grid, s.bpm)
}

// Request builds a generation request from the current state
func (s *Session) Request() client.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return client.Request{
		Sequence:     melody.Sequence(melody.Encode(s.grid)),
		Temperature:  s.temperature,
		OutputLength: s.outputLength,
	}
}

// Submit sends the current melody for generation
func (s *Session) Submit(ctx context.Context, sub Submitter) (*client.Submission, error) {
	return sub.Submit(ctx, s.Request())
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
