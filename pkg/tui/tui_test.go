package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/james-see/rollgen/pkg/client"
	"github.com/james-see/rollgen/pkg/job"
	"github.com/james-see/rollgen/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	submitErr error
	statuses  []string
	calls     int
	got       client.Request
}

func (f *fakeBackend) Submit(ctx context.Context, req client.Request) (*client.Submission, error) {
	f.got = req
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &client.Submission{Message: "queued", SongID: "song-1"}, nil
}

func (f *fakeBackend) Status(ctx context.Context, songID string) (string, error) {
	i := f.calls
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	f.calls++
	return f.statuses[i], nil
}

func (f *fakeBackend) DownloadURL(songID string) string {
	return "http://gen.local/download_file/" + songID
}

var fastPolicy = job.Policy{Interval: time.Millisecond, MaxAttempts: 15}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestCursorAndToggle(t *testing.T) {
	m := New(&fakeBackend{})

	m = press(t, m, "up", "left", "x")
	assert.True(t, m.Session().Grid().At(0, 0), "cursor is clamped at the top-left corner")

	m = press(t, m, "down", "down", "right", "x", "x", "x")
	assert.True(t, m.Session().Grid().At(2, 1))
	assert.Equal(t, 2, m.Session().Grid().Active())
}

func TestParameterKeys(t *testing.T) {
	m := New(&fakeBackend{})

	m = press(t, m, "+", "+", "-", "T", "]", "]")
	assert.Equal(t, 125, m.Session().BPM())
	assert.InDelta(t, 0.65, m.Session().Temperature(), 1e-9)
	assert.Equal(t, 6, m.Session().OutputLength())

	m = press(t, m, "c")
	assert.Equal(t, session.DefaultTemperature, m.Session().Temperature())
	assert.Equal(t, 125, m.Session().BPM(), "clear keeps the tempo")
}

func TestGenerateReachesResults(t *testing.T) {
	backend := &fakeBackend{statuses: []string{"pending", "complete"}}
	m := New(backend, WithPollPolicy(fastPolicy))
	m = press(t, m, "x", "g")
	require.Equal(t, StateSubmitting, m.State())

	next, cmd := m.Update(m.submit()())
	m = next.(Model)
	require.Equal(t, StateWaiting, m.State())
	require.NotNil(t, cmd)
	assert.Len(t, backend.got.Sequence, 1)
	assert.Equal(t, 0.6, backend.got.Temperature)

	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, StateResult, m.State())
	assert.Equal(t, job.ResultsFor("song-1"), m.result)
	assert.Contains(t, m.View(), "http://gen.local/download_file/song-1")

	m = press(t, m, "enter")
	assert.Equal(t, StateCompose, m.State())
}

func TestGenerateFailureShowsError(t *testing.T) {
	backend := &fakeBackend{statuses: []string{"failed"}}
	m := New(backend, WithPollPolicy(fastPolicy))
	m = press(t, m, "g")

	next, cmd := m.Update(m.submit()())
	m = next.(Model)
	next, _ = m.Update(cmd())
	m = next.(Model)

	assert.Equal(t, StateResult, m.State())
	assert.Equal(t, job.ErrorGeneration, m.result.ErrorID)
	assert.Contains(t, m.View(), "song-1")
}

func TestSubmitUnavailable(t *testing.T) {
	backend := &fakeBackend{submitErr: client.ErrUnavailable}
	m := New(backend)
	m = press(t, m, "g")

	next, _ := m.Update(m.submit()())
	m = next.(Model)

	assert.Equal(t, StateResult, m.State())
	assert.Equal(t, job.ErrorUnavailable, m.result.ErrorID)
	assert.Contains(t, m.View(), "not available right now")
}

func TestCancelWhileWaiting(t *testing.T) {
	backend := &fakeBackend{statuses: []string{"pending"}}
	m := New(backend, WithPollPolicy(job.Policy{Interval: time.Millisecond, MaxAttempts: 100000}))
	m = press(t, m, "g")

	next, cmd := m.Update(m.submit()())
	m = next.(Model)
	m = press(t, m, "esc")

	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, StateCompose, m.State())
}

func TestSubmitCancelledReturnsToComposer(t *testing.T) {
	m := New(&fakeBackend{submitErr: errors.Join(client.ErrUnavailable, context.Canceled)})
	m = press(t, m, "g")

	next, _ := m.Update(m.submit()())
	assert.Equal(t, StateCompose, next.(Model).State())
}

func TestPlayheadMessages(t *testing.T) {
	m := New(&fakeBackend{})

	next, cmd := m.Update(playheadMsg{col: 3})
	m = next.(Model)
	assert.Equal(t, 3, m.playhead)
	assert.NotNil(t, cmd, "keeps listening for playback events")

	next, _ = m.Update(playbackDoneMsg{})
	assert.Equal(t, -1, next.(Model).playhead)
}

func TestViewShowsGridAndParameters(t *testing.T) {
	m := New(&fakeBackend{})
	view := m.View()

	assert.Contains(t, view, "G#4")
	assert.Contains(t, view, "A2")
	assert.Contains(t, view, "tempo 120 bpm")
	assert.Equal(t, 1, strings.Count(view, "▣"))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "under a second", formatElapsed(300*time.Millisecond))
	assert.Contains(t, formatElapsed(30*time.Second), "30 seconds")
}
