package playback

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/james-see/rollgen/pkg/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

// manualScheduler only fires timers when told to
type manualScheduler struct {
	timers []*fakeTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) next() *fakeTimer {
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			return t
		}
	}
	return nil
}

// fireNext runs the earliest pending timer and reports whether one existed
func (s *manualScheduler) fireNext() bool {
	t := s.next()
	if t == nil {
		return false
	}
	t.fired = true
	t.f()
	return true
}

func (s *manualScheduler) drain() {
	for s.fireNext() {
	}
}

type recordingSink struct {
	mu    sync.Mutex
	notes []grid.Pitch
	rates []float64
}

func (r *recordingSink) PlayNote(p grid.Pitch, rate float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, p)
	r.rates = append(r.rates, rate)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

func TestInterval(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, Interval(120))
	assert.Equal(t, time.Second, Interval(60))
	assert.Equal(t, 500*time.Millisecond, Interval(0))
}

func TestPlayEmptyGridCompletesSilently(t *testing.T) {
	sched := &manualScheduler{}
	sink := &recordingSink{}
	done := 0
	d := NewDriver(sink, func() int { return 120 }, WithScheduler(sched), WithOnDone(func() { done++ }))

	d.Play(grid.New(4, 8))
	assert.True(t, d.Playing())
	assert.Equal(t, 1, d.Cursor())

	sched.drain()

	assert.False(t, d.Playing())
	assert.Equal(t, 0, d.Cursor())
	assert.Equal(t, 0, sink.count())
	assert.Equal(t, 1, done)
	require.Len(t, sched.timers, 7)
	for _, timer := range sched.timers {
		assert.Equal(t, 500*time.Millisecond, timer.delay)
	}
}

func TestPlaySoundsEachColumnInOrder(t *testing.T) {
	sched := &manualScheduler{}
	sink := &recordingSink{}
	var ticks []int
	d := NewDriver(sink, func() int { return 240 }, WithScheduler(sched), WithOnTick(func(col int) { ticks = append(ticks, col) }))

	g := grid.New(grid.DefaultRows, 3)
	g.Set(8, 0, true)  // C4
	g.Set(0, 2, true)  // G#4
	g.Set(23, 2, true) // A2

	d.Play(g)
	sched.drain()

	require.Len(t, sink.notes, 3)
	assert.Equal(t, "C4", sink.notes[0].Name)
	assert.Equal(t, "G#4", sink.notes[1].Name)
	assert.Equal(t, "A2", sink.notes[2].Name)
	assert.Equal(t, 2.0, sink.rates[0])
	assert.Equal(t, []int{0, 1, 2}, ticks)
}

func TestStopCancelsPendingTick(t *testing.T) {
	sched := &manualScheduler{}
	sink := &recordingSink{}
	d := NewDriver(sink, nil, WithScheduler(sched))

	g := grid.New(1, 8)
	for c := 0; c < 8; c++ {
		g.Set(0, c, true)
	}

	d.Play(g)
	require.True(t, sched.fireNext())
	require.True(t, sched.fireNext())
	assert.Equal(t, 3, sink.count())

	pending := sched.next()
	require.NotNil(t, pending)

	d.Stop()

	assert.True(t, pending.stopped, "pending tick should be cancelled")
	assert.False(t, d.Playing())
	assert.Equal(t, 0, d.Cursor())
	assert.False(t, sched.fireNext())

	// A timer that fired just before Stop took the lock must not sound.
	pending.f()
	assert.Equal(t, 3, sink.count())
}

// blockingSink holds the first note until released
type blockingSink struct {
	recordingSink
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (b *blockingSink) PlayNote(p grid.Pitch, rate float64) {
	b.recordingSink.PlayNote(p, rate)
	b.once.Do(func() {
		close(b.started)
		<-b.release
	})
}

func TestStopSilencesColumnBeingSounded(t *testing.T) {
	sched := &manualScheduler{}
	sink := &blockingSink{started: make(chan struct{}), release: make(chan struct{})}
	var ticks atomic.Int32
	d := NewDriver(sink, nil, WithScheduler(sched), WithOnTick(func(int) { ticks.Add(1) }))

	g := grid.New(grid.DefaultRows, 2)
	g.Set(0, 0, true)
	g.Set(1, 0, true)
	g.Set(2, 0, true)

	played := make(chan struct{})
	go func() {
		d.Play(g)
		close(played)
	}()

	<-sink.started
	d.Stop()
	atStop := sink.count()
	close(sink.release)

	select {
	case <-played:
	case <-time.After(2 * time.Second):
		t.Fatal("tick did not return")
	}

	assert.Equal(t, 1, atStop)
	assert.Equal(t, atStop, sink.count(), "no notes after Stop returned")
	assert.Zero(t, ticks.Load())
	assert.Empty(t, sched.timers)
	assert.False(t, d.Playing())
}

func TestTempoChangeAppliesToNextScheduledTick(t *testing.T) {
	sched := &manualScheduler{}
	bpm := 120
	d := NewDriver(nil, func() int { return bpm }, WithScheduler(sched))

	d.Play(grid.New(1, 4))
	require.Len(t, sched.timers, 1)

	bpm = 60
	assert.Equal(t, 500*time.Millisecond, sched.timers[0].delay, "pending tick keeps its delay")

	sched.fireNext()
	require.Len(t, sched.timers, 2)
	assert.Equal(t, time.Second, sched.timers[1].delay)
}

func TestPlayWhilePlayingRestarts(t *testing.T) {
	sched := &manualScheduler{}
	sink := &recordingSink{}
	d := NewDriver(sink, nil, WithScheduler(sched))

	g := grid.New(1, 4)
	g.Set(0, 0, true)

	d.Play(g)
	sched.fireNext()
	first := sched.next()

	d.Play(g)

	assert.True(t, first.stopped)
	assert.Equal(t, 1, d.Cursor())
	assert.Equal(t, 2, sink.count())
}

func TestToggle(t *testing.T) {
	sched := &manualScheduler{}
	d := NewDriver(nil, nil, WithScheduler(sched))
	g := grid.New(1, 4)

	assert.True(t, d.Toggle(g))
	assert.True(t, d.Playing())
	assert.False(t, d.Toggle(g))
	assert.False(t, d.Playing())
	assert.False(t, sched.fireNext())
}

func TestPlayMutationsAfterStartDoNotAffectPass(t *testing.T) {
	sched := &manualScheduler{}
	sink := &recordingSink{}
	d := NewDriver(sink, nil, WithScheduler(sched))

	g := grid.New(1, 2)
	d.Play(g)
	g.Set(0, 1, true)
	sched.drain()

	assert.Equal(t, 0, sink.count())
}

func TestWallClockPlayback(t *testing.T) {
	sink := &recordingSink{}
	done := make(chan struct{})
	d := NewDriver(sink, func() int { return 6000 }, WithOnDone(func() { close(done) }))

	g := grid.New(1, 3)
	g.Set(0, 0, true)
	g.Set(0, 2, true)
	d.Play(g)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not finish")
	}
	assert.Equal(t, 2, sink.count())
	assert.False(t, d.Playing())
}

func TestFrequency(t *testing.T) {
	assert.InDelta(t, 440.0, Frequency(grid.PitchFromNote(69)), 0.001)
	assert.InDelta(t, 261.626, Frequency(grid.PitchFromNote(60)), 0.001)
}

func TestBeepSinkScalesLength(t *testing.T) {
	got := make(chan int, 1)
	b := &BeepSink{Length: 400 * time.Millisecond, beep: func(freq float64, ms int) error {
		got <- ms
		return nil
	}}

	b.PlayNote(grid.PitchFromNote(69), 2)

	select {
	case ms := <-got:
		assert.Equal(t, 200, ms)
	case <-time.After(time.Second):
		t.Fatal("beep not called")
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	MultiSink{a, b}.PlayNote(grid.PitchFromNote(60), 1)
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
}
