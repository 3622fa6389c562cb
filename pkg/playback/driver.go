// Package playback walks a piano-roll grid column by column at the current
// tempo, sounding each column's pitches on an audio sink.
package playback

import (
	"sync"
	"time"

	"github.com/james-see/rollgen/pkg/grid"
)

// Timer is a cancellable pending tick
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SchedulerFunc adapts a function to Scheduler
type SchedulerFunc func(d time.Duration, f func()) Timer

func (s SchedulerFunc) AfterFunc(d time.Duration, f func()) Timer {
	return s(d, f)
}

// WallClock schedules ticks with time.AfterFunc
var WallClock Scheduler = SchedulerFunc(func(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
})

// Interval is the time between two columns at the given tempo
func Interval(bpm int) time.Duration {
	if bpm <= 0 {
		bpm = 120
	}
	return time.Minute / time.Duration(bpm)
}

// Option configures a Driver
type Option func(*Driver)

// WithScheduler replaces the wall-clock scheduler
func WithScheduler(s Scheduler) Option {
	return func(d *Driver) { d.sched = s }
}

// WithOnTick registers a callback receiving the column just played
func WithOnTick(f func(col int)) Option {
	return func(d *Driver) { d.onTick = f }
}

// WithOnDone registers a callback fired when a pass reaches the last column
func WithOnDone(f func()) Option {
	return func(d *Driver) { d.onDone = f }
}

// Driver plays a grid as a self-rescheduling chain of ticks. Each tick
// sounds one column, advances the cursor and schedules the next tick using
// the tempo read at that moment, so a tempo change lands on the next tick
// rather than the one already pending.
type Driver struct {
	mu    sync.Mutex
	sink  Sink
	tempo func() int
	sched Scheduler

	onTick func(col int)
	onDone func()

	columns    [][]bool
	cursor     int
	playing    bool
	pending    Timer
	generation uint64
}

// NewDriver creates a playback driver. tempo is consulted on every tick.
func NewDriver(sink Sink, tempo func() int, opts ...Option) *Driver {
	if sink == nil {
		sink = SinkFunc(func(grid.Pitch, float64) {})
	}
	if tempo == nil {
		tempo = func() int { return 120 }
	}
	d := &Driver{sink: sink, tempo: tempo, sched: WallClock}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Play starts a pass over a snapshot of g from column 0. The first column
// sounds immediately. A pass already running is cancelled first.
func (d *Driver) Play(g *grid.Grid) {
	d.mu.Lock()
	d.stopLocked()
	d.columns = g.Transpose()
	d.playing = true
	gen := d.generation
	d.mu.Unlock()

	d.tick(gen)
}

// Stop cancels the pending tick and rewinds the cursor
func (d *Driver) Stop() {
	d.mu.Lock()
	d.stopLocked()
	d.mu.Unlock()
}

// Toggle plays when idle and stops when playing. It reports whether
// playback is running afterwards.
func (d *Driver) Toggle(g *grid.Grid) bool {
	if d.Playing() {
		d.Stop()
		return false
	}
	d.Play(g)
	return true
}

// Playing reports whether a pass is in progress
func (d *Driver) Playing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

// Cursor returns the next column to be played
func (d *Driver) Cursor() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor
}

func (d *Driver) stopLocked() {
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	// Invalidates any tick whose timer fired but has not taken the lock yet.
	d.generation++
	d.playing = false
	d.cursor = 0
}

// current reports whether gen is still the running pass
func (d *Driver) current(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gen == d.generation && d.playing
}

func (d *Driver) tick(gen uint64) {
	d.mu.Lock()
	if gen != d.generation || !d.playing {
		d.mu.Unlock()
		return
	}
	d.pending = nil
	col := d.cursor
	column := d.columns[col]
	bpm := d.tempo()
	d.mu.Unlock()

	rate := float64(bpm) / 120
	for row, on := range column {
		if !on {
			continue
		}
		if !d.current(gen) {
			return
		}
		d.sink.PlayNote(grid.PitchForRow(row), rate)
	}
	if !d.current(gen) {
		return
	}
	if d.onTick != nil {
		d.onTick(col)
	}

	d.mu.Lock()
	if gen != d.generation {
		// stopped while the column was sounding
		d.mu.Unlock()
		return
	}
	d.cursor++
	if d.cursor < len(d.columns) {
		d.pending = d.sched.AfterFunc(Interval(d.tempo()), func() { d.tick(gen) })
		d.mu.Unlock()
		return
	}
	d.cursor = 0
	d.playing = false
	d.mu.Unlock()

	if d.onDone != nil {
		d.onDone()
	}
}
