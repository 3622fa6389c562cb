package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hako/durafmt"
	"github.com/james-see/rollgen/pkg/grid"
	"github.com/james-see/rollgen/pkg/job"
)

// Acid-green on dark, same palette as the rest of the toolchain
var (
	acidGreen  = lipgloss.Color("#39FF14")
	acidYellow = lipgloss.Color("#FFFF00")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(acidGreen).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			Width(4)

	offStyle    = lipgloss.NewStyle().Foreground(darkGray)
	onStyle     = lipgloss.NewStyle().Foreground(acidGreen).Bold(true)
	cursorStyle = lipgloss.NewStyle().Foreground(acidYellow).Bold(true)
	headStyle   = lipgloss.NewStyle().Background(darkGray)

	statusStyle = lipgloss.NewStyle().
			Foreground(acidYellow).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(acidGreen).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(acidGreen).
			Padding(1, 2)
)

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" ROLLGEN "))
	s.WriteString("\n")

	switch m.state {
	case StateCompose:
		s.WriteString(m.viewCompose())
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("←↑↓→: move • space: toggle • p: play/pause • b: back to start • c: clear\n" +
			"+/-: tempo • t/T: temperature • [/]: length • w: save MIDI • g: generate • q: quit"))
	case StateSubmitting, StateWaiting:
		s.WriteString(m.viewWaiting())
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("esc: cancel"))
	case StateResult:
		s.WriteString(m.viewResult())
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("enter: back to composer • q: quit"))
	}

	return s.String()
}

func (m Model) viewCompose() string {
	var s strings.Builder
	g := m.session.Grid()

	for row := 0; row < g.Rows(); row++ {
		s.WriteString(labelStyle.Render(grid.PitchForRow(row).Name))
		for col := 0; col < g.Columns(); col++ {
			cell := offStyle.Render("·")
			if g.At(row, col) {
				cell = onStyle.Render("■")
			}
			if row == m.row && col == m.col {
				cell = cursorStyle.Render("▣")
			}
			if col == m.playhead {
				cell = headStyle.Render(cell)
			}
			s.WriteString(" ")
			s.WriteString(cell)
		}
		s.WriteString("\n")
	}

	params := fmt.Sprintf("tempo %d bpm   temperature %.2f   length %d bars",
		m.session.BPM(), m.session.Temperature(), m.session.OutputLength())
	s.WriteString(statusStyle.Render(params))
	if m.status != "" {
		s.WriteString("\n")
		s.WriteString(successStyle.Render(m.status))
	}
	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(m.err.Error()))
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewWaiting() string {
	var s strings.Builder

	if m.state == StateSubmitting {
		s.WriteString(fmt.Sprintf("%s Submitting melody...", m.spinner.View()))
		return boxStyle.Render(s.String())
	}

	s.WriteString(fmt.Sprintf("%s Generating %s...\n", m.spinner.View(), m.songID))
	s.WriteString(statusStyle.Render(fmt.Sprintf("  attempt %d/%d • %s",
		m.attempts, m.policy.MaxAttempts, formatElapsed(m.elapsed))))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	switch m.result.View {
	case job.ViewResults:
		s.WriteString(successStyle.Render("✓ Your melody is ready!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Generation: %s\n", m.result.SongID))
		s.WriteString(fmt.Sprintf("Download:   %s\n", m.backend.DownloadURL(m.result.SongID)))
		s.WriteString(fmt.Sprintf("Took:       %s", formatElapsed(m.elapsed)))
	default:
		s.WriteString(errorStyle.Render("✗ " + m.result.ErrorID.Message()))
		if m.result.ErrorID.ShowsSongID() && m.result.SongID != "" {
			s.WriteString("\n\n")
			s.WriteString(fmt.Sprintf("Generation: %s", m.result.SongID))
		}
		if m.err != nil {
			s.WriteString("\n\n")
			s.WriteString(helpStyle.Render(m.err.Error()))
		}
	}

	return boxStyle.Render(s.String())
}

func formatElapsed(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d <= 0 {
		return "under a second"
	}
	return durafmt.Parse(d).LimitFirstN(2).String()
}
