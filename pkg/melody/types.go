// Package melody encodes piano-roll grids into ordered note events, Standard
// MIDI Files and the generation service's wire sequence.
package melody

import (
	"strings"

	"github.com/james-see/rollgen/pkg/grid"
)

// DefaultBPM is the tempo used when none is given
const DefaultBPM = 120

// Tempo bounds. A MIDI tempo is 24 bits of microseconds per beat, which
// overflows below 4 BPM.
const (
	MinBPM = 30
	MaxBPM = 300
)

// ClampBPM maps a requested tempo into [MinBPM, MaxBPM]. Zero and negative
// values mean DefaultBPM.
func ClampBPM(bpm int) int {
	switch {
	case bpm <= 0:
		return DefaultBPM
	case bpm < MinBPM:
		return MinBPM
	case bpm > MaxBPM:
		return MaxBPM
	}
	return bpm
}

// Event is one time slot and the pitches sounding in it. An empty Pitches
// slice is a rest.
type Event struct {
	Slot    int
	Pitches []grid.Pitch
}

// IsRest reports whether nothing sounds in this slot
func (e Event) IsRest() bool {
	return len(e.Pitches) == 0
}

// Notes returns the MIDI note numbers of the event
func (e Event) Notes() []uint8 {
	notes := make([]uint8, len(e.Pitches))
	for i, p := range e.Pitches {
		notes[i] = p.Note
	}
	return notes
}

func (e Event) String() string {
	if e.IsRest() {
		return "rest"
	}
	names := make([]string, len(e.Pitches))
	for i, p := range e.Pitches {
		names[i] = p.Name
	}
	return strings.Join(names, "+")
}

// Track is an encoded melody with a uniform tempo
type Track struct {
	Name   string
	Events []Event
	BPM    int
}
