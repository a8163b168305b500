package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"

	"srcfmt/internal/dispatch"
	"srcfmt/internal/task"
)

// maxRows bounds the file list; a full engine tree has thousands of files.
const maxRows = 12

type progressModel struct {
	title       string
	events      <-chan dispatch.Event
	spinner     spinner.Model
	prog        progress.Model
	items       []fileItem
	index       map[string][]int
	active      []int // rows currently being worked on, most recent last
	done        int
	failed      int
	width       int
	closed      bool
	interrupted bool
}

type fileItem struct {
	path   string
	kind   task.Kind
	status string
	final  bool
	owned  bool
	worker int
}

type eventMsg dispatch.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders worklist progress.
// events is closed by the producer once the run finishes.
func NewProgressModel(title string, tasks []task.FileTask, events <-chan dispatch.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(tasks))
	index := make(map[string][]int, len(tasks))
	for i, t := range tasks {
		items = append(items, fileItem{path: t.Path, kind: t.Kind, status: string(dispatch.StatusQueued)})
		// Overlapping roots may list one path twice.
		index[t.Path] = append(index[t.Path], i)
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

// Interrupted reports whether the user quit before the run finished.
func (m *progressModel) Interrupted() bool { return m.interrupted }

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(dispatch.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.closed = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.interrupted = true
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.closed {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s %d/%d", m.title, m.done+m.failed, len(m.items))
	if m.failed > 0 {
		header += fmt.Sprintf(" (%d failed)", m.failed)
	}
	if m.closed {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusWidth-4, 20)
	for _, i := range m.visibleRows() {
		item := m.items[i]
		status := styleStatus(item.status).Render(fmt.Sprintf("%*s", statusWidth, item.status))
		b.WriteString("  " + status + " " + truncate(displayName(item), nameWidth) + "\n")
	}

	b.WriteString("\n")
	if m.closed {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

const statusWidth = 8

// visibleRows shows failures first, then the files in flight.
func (m *progressModel) visibleRows() []int {
	rows := make([]int, 0, maxRows)
	for i, item := range m.items {
		if item.status == string(dispatch.StatusError) && len(rows) < maxRows {
			rows = append(rows, i)
		}
	}
	for j := len(m.active) - 1; j >= 0 && len(rows) < maxRows; j-- {
		rows = append(rows, m.active[j])
	}
	return rows
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev dispatch.Event) tea.Cmd {
	rows, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	row := m.claimRow(rows, ev.Worker)
	if row < 0 {
		return nil
	}

	item := &m.items[row]
	item.owned, item.worker = true, ev.Worker
	switch ev.Status {
	case dispatch.StatusDone, dispatch.StatusError:
		item.status = string(ev.Status)
		item.final = true
		if ev.Status == dispatch.StatusDone {
			m.done++
		} else {
			m.failed++
		}
		m.removeActive(row)
	case dispatch.StatusWorking:
		item.status = string(ev.Stage)
		m.removeActive(row)
		m.active = append(m.active, row)
	}
	return m.prog.SetPercent(float64(m.done+m.failed) / float64(len(m.items)))
}

// claimRow picks the row an event belongs to among rows sharing one path:
// the open row this worker already holds, else an open row nobody holds.
func (m *progressModel) claimRow(rows []int, worker int) int {
	free, open := -1, -1
	for _, r := range rows {
		item := m.items[r]
		if item.final {
			continue
		}
		if item.owned && item.worker == worker {
			return r
		}
		if open < 0 {
			open = r
		}
		if !item.owned && free < 0 {
			free = r
		}
	}
	if free >= 0 {
		return free
	}
	return open
}

func (m *progressModel) removeActive(row int) {
	for j, r := range m.active {
		if r == row {
			m.active = append(m.active[:j], m.active[j+1:]...)
			return
		}
	}
}

func displayName(item fileItem) string {
	name := norm.NFC.String(item.path)
	if item.kind == task.KindShader {
		name += " [hlsl]"
	}
	return name
}

func styleStatus(status string) lipgloss.Style {
	switch dispatch.Status(status) {
	case dispatch.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case dispatch.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case dispatch.StatusQueued:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	// Keep the tail; the file name matters more than the root.
	for runewidth.StringWidth(value) > width-3 {
		_, size := utf8.DecodeRuneInString(value)
		value = value[size:]
	}
	return "..." + value
}
