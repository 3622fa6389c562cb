package melody

import "github.com/james-see/rollgen/pkg/grid"

// Encode walks the grid column by column and collects the active pitches of
// each time slot. Every column yields exactly one event, rests included.
func Encode(g *grid.Grid) []Event {
	if g == nil {
		panic("melody: Encode called with nil grid")
	}
	columns := g.Transpose()
	events := make([]Event, len(columns))
	for slot, column := range columns {
		var pitches []grid.Pitch
		for row, on := range column {
			if on {
				pitches = append(pitches, grid.PitchForRow(row))
			}
		}
		events[slot] = Event{Slot: slot, Pitches: pitches}
	}
	return events
}

// EncodeTrack encodes a grid with the tempo current at call time, clamped
// to the supported range
func EncodeTrack(g *grid.Grid, bpm int) Track {
	return Track{
		Name:   "Melody",
		Events: Encode(g),
		BPM:    ClampBPM(bpm),
	}
}
