// Package tui provides the interactive terminal piano-roll for rollgen
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/rollgen/internal/logger"
	"github.com/james-see/rollgen/pkg/client"
	"github.com/james-see/rollgen/pkg/job"
	"github.com/james-see/rollgen/pkg/melody"
	"github.com/james-see/rollgen/pkg/playback"
	"github.com/james-see/rollgen/pkg/session"
)

// State represents the current TUI state
type State int

const (
	StateCompose State = iota
	StateSubmitting
	StateWaiting
	StateResult
)

const (
	bpmStep         = 5
	temperatureStep = 0.05
)

// Backend is the generation service as the composer uses it
type Backend interface {
	Submit(ctx context.Context, req client.Request) (*client.Submission, error)
	Status(ctx context.Context, songID string) (string, error)
	DownloadURL(songID string) string
}

// Model represents the TUI model
type Model struct {
	state   State
	session *session.Session
	backend Backend
	policy  job.Policy
	spinner spinner.Model

	// composer cursor
	row, col int
	// column under the playhead, -1 when stopped
	playhead int

	songID   string
	attempts int
	elapsed  time.Duration
	result   job.Destination
	status   string
	err      error

	events chan tea.Msg
	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
}

type playheadMsg struct{ col int }

type playbackDoneMsg struct{}

type submittedMsg struct {
	sub *client.Submission
	err error
}

type pollAttemptMsg struct{ attempt job.Attempt }

type pollDoneMsg struct {
	result job.Result
	err    error
}

type savedMsg struct {
	path string
	err  error
}

// Option configures the model
type Option func(*Model)

// WithPollPolicy overrides the polling schedule
func WithPollPolicy(p job.Policy) Option {
	return func(m *Model) { m.policy = p }
}

// WithSink sets the audio sink used for playback
func WithSink(sink playback.Sink) Option {
	return func(m *Model) { m.session = newSession(sink, m.events) }
}

// New creates a new TUI model
func New(backend Backend, opts ...Option) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(acidGreen)

	m := Model{
		state:    StateCompose,
		backend:  backend,
		policy:   job.DefaultPolicy,
		spinner:  s,
		playhead: -1,
		events:   make(chan tea.Msg, 64),
	}
	m.session = newSession(nil, m.events)
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// newSession wires playback callbacks into the program's message stream.
// Sends never block the timer goroutine.
func newSession(sink playback.Sink, events chan tea.Msg) *session.Session {
	send := func(msg tea.Msg) {
		select {
		case events <- msg:
		default:
		}
	}
	return session.New(nil, sink,
		playback.WithOnTick(func(col int) { send(playheadMsg{col: col}) }),
		playback.WithOnDone(func() { send(playbackDoneMsg{}) }),
	)
}

// Session exposes the composer state
func (m Model) Session() *session.Session {
	return m.session
}

// State returns the current screen
func (m Model) State() State {
	return m.state
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

// listen delivers one message from the background event stream
func (m Model) listen() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateCompose:
			return m.updateCompose(msg)
		case StateSubmitting, StateWaiting:
			return m.updateWaiting(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case playheadMsg:
		m.playhead = msg.col
		return m, m.listen()

	case playbackDoneMsg:
		m.playhead = -1
		return m, m.listen()

	case pollAttemptMsg:
		m.attempts = msg.attempt.Number
		m.elapsed = msg.attempt.Elapsed
		m.status = msg.attempt.Status
		return m, m.listen()

	case submittedMsg:
		return m.handleSubmitted(msg)

	case pollDoneMsg:
		m.release()
		if msg.err != nil {
			// cancelled from the keyboard
			m.state = StateCompose
			return m, nil
		}
		m.state = StateResult
		m.result = msg.result.Destination
		m.attempts = msg.result.Attempts
		m.elapsed = msg.result.Elapsed
		return m, nil

	case savedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = "saved " + msg.path
		}
		return m, nil
	}

	return m, nil
}

func (m Model) updateCompose(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	g := m.session.Grid()
	switch msg.String() {
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
	case "down", "j":
		if m.row < g.Rows()-1 {
			m.row++
		}
	case "left", "h":
		if m.col > 0 {
			m.col--
		}
	case "right", "l":
		if m.col < g.Columns()-1 {
			m.col++
		}
	case " ", "x", "enter":
		m.session.Toggle(m.row, m.col)
	case "p":
		if !m.session.PlayPause() {
			m.playhead = -1
		}
	case "b":
		m.session.BackToStart()
		m.playhead = -1
	case "c":
		m.session.Clear()
		m.playhead = -1
		m.status = ""
	case "+", "=":
		m.session.SetBPM(m.session.BPM() + bpmStep)
	case "-", "_":
		m.session.SetBPM(m.session.BPM() - bpmStep)
	case "T":
		m.session.SetTemperature(m.session.Temperature() + temperatureStep)
	case "t":
		m.session.SetTemperature(m.session.Temperature() - temperatureStep)
	case "[":
		m.session.SetOutputLength(m.session.OutputLength() - 1)
	case "]":
		m.session.SetOutputLength(m.session.OutputLength() + 1)
	case "w":
		return m, m.save("melody.mid")
	case "g":
		m.session.BackToStart()
		m.playhead = -1
		m.state = StateSubmitting
		m.err = nil
		m.songID = ""
		m.attempts = 0
		m.elapsed = 0
		m.ctx, m.cancel = context.WithCancel(context.Background())
		return m, tea.Batch(m.spinner.Tick, m.submit())
	case "q", "ctrl+c":
		m.session.BackToStart()
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateWaiting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.cancel != nil {
			m.cancel()
		}
		return m, nil
	case "ctrl+c":
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateCompose
		m.err = nil
		m.status = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleSubmitted(msg submittedMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.err, context.Canceled) {
		m.release()
		m.state = StateCompose
		return m, nil
	}
	if msg.err != nil {
		logger.Warn("Generation submit failed", logger.Fields{"error": msg.err.Error()})
		m.release()
		m.err = msg.err
		m.state = StateResult
		m.result = job.ErrorFor(job.ErrorUnavailable, "")
		return m, nil
	}
	m.songID = msg.sub.SongID
	m.state = StateWaiting
	return m, m.poll(msg.sub.SongID)
}

// release drops the context of a finished submit/poll run
func (m *Model) release() {
	if m.cancel != nil {
		m.cancel()
	}
	m.ctx, m.cancel = nil, nil
}

func (m Model) submit() tea.Cmd {
	ctx, sess, backend := m.ctx, m.session, m.backend
	return func() tea.Msg {
		sub, err := sess.Submit(ctx, backend)
		return submittedMsg{sub: sub, err: err}
	}
}

func (m Model) poll(songID string) tea.Cmd {
	ctx, events := m.ctx, m.events
	poller := job.NewPoller(m.backend,
		job.WithPolicy(m.policy),
		job.WithOnAttempt(func(a job.Attempt) {
			select {
			case events <- pollAttemptMsg{attempt: a}:
			default:
			}
		}),
	)
	return func() tea.Msg {
		result, err := poller.Run(ctx, songID)
		return pollDoneMsg{result: result, err: err}
	}
}

func (m Model) save(path string) tea.Cmd {
	track := m.session.Track()
	return func() tea.Msg {
		err := melody.NewWriter().WriteMIDIFile(track, path)
		return savedMsg{path: path, err: err}
	}
}

// Run starts the TUI application
func Run(backend Backend, opts ...Option) error {
	p := tea.NewProgram(New(backend, opts...), tea.WithAltScreen())
	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
