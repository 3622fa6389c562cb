package melody

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/james-see/rollgen/pkg/grid"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Writer handles Standard MIDI File generation and parsing
type Writer struct {
	ticksPerQuarter uint16
	channel         uint8
	program         uint8
	velocity        uint8
}

// NewWriter creates a MIDI writer. One slot is one quarter note.
func NewWriter() *Writer {
	return &Writer{
		ticksPerQuarter: 480,
		channel:         0,
		program:         1,
		velocity:        100,
	}
}

// WriteMIDI renders a track as a single-track Standard MIDI File
func (w *Writer) WriteMIDI(track Track) ([]byte, error) {
	bpm := ClampBPM(track.BPM)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(w.ticksPerQuarter)

	var tr smf.Track
	tr.Add(0, tempoMessage(float64(bpm)))
	// 4/4
	tr.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))
	tr.Add(0, midi.ProgramChange(w.channel, w.program))

	slotTicks := uint32(w.ticksPerQuarter)

	// pending accumulates time not yet consumed by an emitted event, so rest
	// slots still advance the clock.
	var pending uint32
	for _, ev := range track.Events {
		if ev.IsRest() {
			pending += slotTicks
			continue
		}
		for i, p := range ev.Pitches {
			delta := uint32(0)
			if i == 0 {
				delta = pending
			}
			tr.Add(delta, midi.NoteOn(w.channel, p.Note, w.velocity))
		}
		for i, p := range ev.Pitches {
			delta := uint32(0)
			if i == 0 {
				delta = slotTicks
			}
			tr.Add(delta, midi.NoteOff(w.channel, p.Note))
		}
		pending = 0
	}

	// Trailing rests: pad with a marker so the file keeps its full length
	if pending > 0 {
		tr.Add(pending, smf.Message([]byte{0xFF, 0x06, 0x00}))
	}
	tr.Close(0)

	if err := s.Add(tr); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteMIDIFile writes a track to a .mid file
func (w *Writer) WriteMIDIFile(track Track, filename string) error {
	data, err := w.WriteMIDI(track)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

func tempoMessage(bpm float64) smf.Message {
	microsecondsPerBeat := uint32(60000000.0 / bpm)
	return smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	})
}

// NoteOn is a note start found in a MIDI file
type NoteOn struct {
	Tick     int64
	Note     uint8
	Velocity uint8
}

// Summary describes a parsed MIDI file
type Summary struct {
	Resolution  uint16
	BPM         float64
	Tracks      int
	Notes       []NoteOn
	LengthTicks int64
}

// Duration is the playing time of the file at its (first) tempo
func (s *Summary) Duration() time.Duration {
	if s.Resolution == 0 || s.BPM <= 0 {
		return 0
	}
	beats := float64(s.LengthTicks) / float64(s.Resolution)
	return time.Duration(beats * 60 / s.BPM * float64(time.Second))
}

// Events quantizes the file's note starts back into quarter-note slots.
// Slots are contiguous from 0 up to the file length.
func (s *Summary) Events() []Event {
	if s.Resolution == 0 {
		return nil
	}
	res := int64(s.Resolution)
	slots := int((s.LengthTicks + res - 1) / res)
	events := make([]Event, slots)
	for i := range events {
		events[i].Slot = i
	}
	for _, n := range s.Notes {
		slot := int(n.Tick / res)
		if slot >= slots {
			continue
		}
		events[slot].Pitches = append(events[slot].Pitches, grid.PitchFromNote(n.Note))
	}
	for i := range events {
		sort.Slice(events[i].Pitches, func(a, b int) bool {
			return events[i].Pitches[a].Note > events[i].Pitches[b].Note
		})
	}
	return events
}

// ReadMIDI parses a MIDI file into a Summary
func (w *Writer) ReadMIDI(data []byte) (*Summary, error) {
	if DetectFormat(data) != FormatMIDI {
		return nil, errors.New("not a MIDI file")
	}

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	summary := &Summary{
		Resolution: w.ticksPerQuarter,
		BPM:        DefaultBPM,
		Tracks:     len(s.Tracks),
	}
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		summary.Resolution = mt.Resolution()
	}

	tempoSeen := false
	for _, track := range s.Tracks {
		var tick int64
		for _, ev := range track {
			tick += int64(ev.Delta)
			msg := ev.Message

			// Tempo meta message (FF 51 03 tt tt tt)
			if !tempoSeen && len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
				microsecondsPerBeat := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				if microsecondsPerBeat > 0 {
					summary.BPM = 60000000.0 / float64(microsecondsPerBeat)
					tempoSeen = true
				}
			}

			// Note On (0x90-0x9F) with non-zero velocity
			if len(msg) >= 3 && msg[0] >= 0x90 && msg[0] <= 0x9F && msg[2] > 0 {
				summary.Notes = append(summary.Notes, NoteOn{
					Tick:     tick,
					Note:     msg[1],
					Velocity: msg[2],
				})
			}
		}
		if tick > summary.LengthTicks {
			summary.LengthTicks = tick
		}
	}

	sort.SliceStable(summary.Notes, func(a, b int) bool {
		return summary.Notes[a].Tick < summary.Notes[b].Tick
	})
	return summary, nil
}

// ReadMIDIFile parses a .mid file into a Summary
func (w *Writer) ReadMIDIFile(filename string) (*Summary, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return w.ReadMIDI(data)
}
