// Package tui renders a running batch as an interactive bubbletea program:
// a table of files with per-file progress, an aggregate progress line, and
// keys to request a stop.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/backmassage/vidpress/internal/display"
	"github.com/backmassage/vidpress/internal/locale"
	"github.com/backmassage/vidpress/internal/pipeline"
	"github.com/backmassage/vidpress/internal/profile"
)

// Stopper requests a graceful stop of the run.
type Stopper interface {
	Stop()
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
)

const maxNameWidth = 40

type eventMsg pipeline.Event

type eventsClosedMsg struct{}

type fileRow struct {
	name     string
	size     int64
	percent  int
	status   pipeline.Status
	outBytes int64
	finished bool
	success  bool
	reason   string
}

// Model is the bubbletea model for one run.
type Model struct {
	cat      *locale.Catalog
	events   <-chan pipeline.Event
	stopper  Stopper
	profile  profile.Profile
	settings pipeline.Settings

	rows     []fileRow
	current  int
	overall  int
	spinner  spinner.Model
	stopping bool
	notes    []string
	result   *pipeline.BatchResult
	width    int
}

// New returns a model for files. events must be the run's event stream
// (or a mirror of it); stopper is called once on the first stop key.
func New(files []pipeline.SourceFile, events <-chan pipeline.Event, stopper Stopper, cat *locale.Catalog, prof profile.Profile, s pipeline.Settings) Model {
	rows := make([]fileRow, len(files))
	for i, f := range files {
		rows[i] = fileRow{name: f.Name, size: f.Size, status: pipeline.StatusWaiting}
	}
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)
	return Model{
		cat:      cat,
		events:   events,
		stopper:  stopper,
		profile:  prof,
		settings: s,
		rows:     rows,
		current:  -1,
		spinner:  sp,
	}
}

// Result returns the batch result once batch_done was received.
func (m Model) Result() (pipeline.BatchResult, bool) {
	if m.result == nil {
		return pipeline.BatchResult{}, false
	}
	return *m.result, true
}

// Overall returns the aggregate progress percentage.
func (m Model) Overall() int { return m.overall }

func waitEvent(ch <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitEvent(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "s", "ctrl+c", "esc":
			return m.requestStop(), nil
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case eventMsg:
		m = m.apply(pipeline.Event(msg))
		if m.result != nil {
			return m, tea.Quit
		}
		return m, waitEvent(m.events)
	case eventsClosedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) requestStop() Model {
	if m.stopping || m.result != nil {
		return m
	}
	m.stopping = true
	if m.stopper != nil {
		m.stopper.Stop()
	}
	if m.current >= 0 && m.current < len(m.rows) && !m.rows[m.current].finished {
		m.rows[m.current].status = pipeline.StatusStopping
	}
	return m
}

func (m Model) apply(ev pipeline.Event) Model {
	total := len(m.rows)
	inRange := ev.FileIndex >= 0 && ev.FileIndex < total

	switch ev.Kind {
	case pipeline.EventProgress:
		if !inRange {
			return m
		}
		m.current = ev.FileIndex
		r := &m.rows[ev.FileIndex]
		r.percent = ev.Percent
		r.status = ev.Status
		if m.stopping {
			r.status = pipeline.StatusStopping
		}
		m.overall = (ev.FileIndex*100 + ev.Percent) / total
	case pipeline.EventFileDone:
		if !inRange {
			return m
		}
		r := &m.rows[ev.FileIndex]
		r.finished = true
		r.success = ev.Success
		r.status = ev.Status
		r.reason = ev.Reason
		if ev.Success {
			r.percent = 100
			r.outBytes = ev.OutputBytes
		}
		m.overall = ((ev.FileIndex + 1) * 100) / total
	case pipeline.EventError:
		m.notes = append(m.notes, ev.Message)
	case pipeline.EventBatchDone:
		res := pipeline.BatchResult{}
		if ev.Result != nil {
			res = *ev.Result
		}
		m.result = &res
		m.current = -1
		for i := range m.rows {
			if !m.rows[i].finished && m.rows[i].status != pipeline.StatusWaiting {
				m.rows[i].status = pipeline.StatusWaiting
				m.rows[i].percent = 0
			}
		}
	}
	return m
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.cat.T(locale.KeyAppTitle)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.settingsLine()))
	b.WriteString("\n")
	if info := m.cat.ProfileInfo(m.profile.Info); info != "" {
		b.WriteString(mutedStyle.Render(info))
		b.WriteString("\n")
	}

	b.WriteString(m.renderTable())
	b.WriteString("\n")

	for _, n := range m.notes {
		b.WriteString(errorStyle.Render(n))
		b.WriteString("\n")
	}
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	return b.String()
}

func (m Model) settingsLine() string {
	out := m.cat.T(locale.KeySameAsSrc)
	if m.settings.OutputDir != "" {
		out = m.settings.OutputDir
	}
	parts := []string{
		m.cat.T(locale.KeyEncoder) + ": " + m.cat.ProfileName(m.profile.ID),
		m.cat.T(locale.KeyQuality) + ": " + m.cat.Quality(m.settings.Quality),
	}
	if m.profile.HasPreset {
		parts = append(parts, m.cat.T(locale.KeySpeed)+": "+m.cat.Speed(m.settings.Speed))
	}
	parts = append(parts,
		m.cat.T(locale.KeyResolution)+": "+m.cat.Resolution(m.settings.Resolution),
		m.cat.T(locale.KeyOutputDir)+": "+out,
	)
	return strings.Join(parts, " | ")
}

func (m Model) renderTable() string {
	rows := make([][]string, len(m.rows))
	for i, r := range m.rows {
		rows[i] = []string{
			truncate(r.name, maxNameWidth),
			display.FormatBytes(r.size),
			fmt.Sprintf("%d%%", r.percent),
			m.outputCell(r),
			m.statusCell(i, r),
		}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(
			m.cat.T(locale.KeyColFilename),
			m.cat.T(locale.KeyColSize),
			m.cat.T(locale.KeyColProgress),
			m.cat.T(locale.KeyColOutput),
			m.cat.T(locale.KeyColStatus),
		).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Bold(true)
			}
			if row < 0 || row >= len(m.rows) || col != 4 {
				return cellStyle
			}
			r := m.rows[row]
			switch {
			case r.finished && r.success:
				return cellStyle.Foreground(okStyle.GetForeground())
			case r.finished:
				return cellStyle.Foreground(errorStyle.GetForeground())
			case r.status == pipeline.StatusStopping:
				return cellStyle.Foreground(warnStyle.GetForeground())
			}
			return cellStyle
		})
	return t.String()
}

func (m Model) outputCell(r fileRow) string {
	if !r.finished {
		return ""
	}
	if !r.success {
		return "-"
	}
	return display.FormatBytes(r.outBytes) + " (" + display.FormatRatio(r.size, r.outBytes) + ")"
}

func (m Model) statusCell(i int, r fileRow) string {
	label := m.cat.Status(r.status)
	if i == m.current && !r.finished && m.result == nil {
		return m.spinner.View() + " " + label
	}
	return label
}

func (m Model) statusLine() string {
	total := len(m.rows)
	if m.result != nil {
		done := m.cat.T(locale.KeyDoneCount, m.result.Completed, m.result.Total)
		if m.result.Stopped {
			return warnStyle.Render(m.cat.T(locale.KeyStopped) + " | " + done)
		}
		return okStyle.Render(done)
	}
	if m.stopping {
		return warnStyle.Render(m.cat.T(locale.KeyStopping))
	}
	pos := m.current + 1
	if pos < 1 {
		pos = 1
	}
	return fmt.Sprintf("%s  %d%%  %s",
		m.cat.T(locale.KeyProcessing, pos, total),
		m.overall,
		mutedStyle.Render(m.cat.T(locale.KeyStopHint)),
	)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
