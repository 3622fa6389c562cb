package grid

import "fmt"

// Pitch is a named MIDI note
type Pitch struct {
	Name string // Scientific pitch name, e.g. "G#4"
	Note uint8  // MIDI note number (C4 = 60)
}

func (p Pitch) String() string {
	return p.Name
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchFromNote names a MIDI note number
func PitchFromNote(note uint8) Pitch {
	octave := int(note)/12 - 1
	return Pitch{
		Name: fmt.Sprintf("%s%d", noteNames[note%12], octave),
		Note: note,
	}
}

// Top of the default piano roll; rows descend chromatically from here.
const topNote uint8 = 68 // G#4

// DefaultRows is the number of pitch rows (two octaves, G#4 down to A2)
const DefaultRows = 24

// DefaultColumns is the number of time slots
const DefaultColumns = 16

var pitchTable = buildPitchTable()

func buildPitchTable() []Pitch {
	table := make([]Pitch, DefaultRows)
	for r := range table {
		table[r] = PitchFromNote(topNote - uint8(r))
	}
	return table
}

// Pitches returns a copy of the row → pitch lookup table
func Pitches() []Pitch {
	out := make([]Pitch, len(pitchTable))
	copy(out, pitchTable)
	return out
}

// PitchForRow maps a row index to its pitch. An out-of-range row is a
// programming error and panics.
func PitchForRow(row int) Pitch {
	if row < 0 || row >= len(pitchTable) {
		panic(fmt.Sprintf("grid: row %d outside pitch table [0,%d)", row, len(pitchTable)))
	}
	return pitchTable[row]
}
