package melody

// TicksPerSlot is the number of piano-roll ticks (eighth notes) in one slot
const TicksPerSlot = 2

// Note is one entry of the piano-roll sequence the generation service
// accepts: start tick, MIDI note number and gate length, ticks being eighth
// notes.
type Note struct {
	T int   `json:"t"`
	N uint8 `json:"n"`
	G int   `json:"g"`
}

// Sequence flattens events into the piano-roll sequence. Rests emit nothing;
// their time is implied by the next note's start tick.
func Sequence(events []Event) []Note {
	var seq []Note
	for _, ev := range events {
		for _, p := range ev.Pitches {
			seq = append(seq, Note{
				T: ev.Slot * TicksPerSlot,
				N: p.Note,
				G: TicksPerSlot,
			})
		}
	}
	if seq == nil {
		seq = []Note{}
	}
	return seq
}
