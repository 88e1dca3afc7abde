package picker

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultFrameInterval is how often the focused picker ranks and redraws.
const DefaultFrameInterval = 16 * time.Millisecond

// Layout controls where the prompt sits relative to the list.
type Layout int

const (
	// LayoutBottomUp draws the prompt on the last row with the best match
	// directly above it.
	LayoutBottomUp Layout = iota
	// LayoutTopDown draws the prompt first and the list below it.
	LayoutTopDown
)

// frameMsg drives one ranking step of the focused picker.
type frameMsg struct{}

// Source is one candidate set shown in the picker.
type Source[T any] struct {
	Label  string
	Picker *Picker[T]

	// Display renders an item as a list row. The searchable text is used
	// when nil.
	Display func(T) string
}

// Model is the Bubble Tea model for the launcher picker. It shows one focused
// Source at a time; all sources share the query typed into the prompt.
type Model[T any] struct {
	sources []Source[T]
	active  int
	input   textinput.Model
	query   string // last query applied to the sources
	keys    KeyMap
	layout  Layout
	frame   time.Duration

	width  int // Terminal width
	height int // Terminal height
}

// NewModel creates a Model over sources. The first source starts focused.
func NewModel[T any](sources ...Source[T]) Model[T] {
	in := textinput.New()
	in.Prompt = "> "
	in.PromptStyle = promptStyle
	in.CharLimit = 256
	in.Focus()

	return Model[T]{
		sources: sources,
		input:   in,
		keys:    DefaultKeyMap(),
		layout:  LayoutBottomUp,
		frame:   DefaultFrameInterval,
	}
}

// WithLayout returns a copy of m using layout.
func (m Model[T]) WithLayout(layout Layout) Model[T] {
	m.layout = layout
	return m
}

// WithFrameInterval returns a copy of m ticking every d.
func (m Model[T]) WithFrameInterval(d time.Duration) Model[T] {
	if d > 0 {
		m.frame = d
	}
	return m
}

// WithFocus returns a copy of m with source i focused.
func (m Model[T]) WithFocus(i int) Model[T] {
	if i >= 0 && i < len(m.sources) {
		m.active = i
	}
	return m
}

// WithQuery returns a copy of m with an initial query.
func (m Model[T]) WithQuery(q string) Model[T] {
	m.input.SetValue(q)
	m.applyQuery()
	return m
}

// Query returns the text in the prompt.
func (m Model[T]) Query() string {
	return m.query
}

// Focused returns the index of the focused source.
func (m Model[T]) Focused() int {
	return m.active
}

// Result returns the completed selection, if any.
func (m Model[T]) Result() (T, bool) {
	for _, s := range m.sources {
		if item, ok := s.Picker.Result(); ok {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// IsCancelled reports whether the user aborted the picker.
func (m Model[T]) IsCancelled() bool {
	for _, s := range m.sources {
		if s.Picker.State() == StateAborted {
			return true
		}
	}
	return false
}

// Init implements tea.Model.
func (m Model[T]) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.nextFrame())
}

// Update implements tea.Model.
func (m Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-lipgloss.Width(m.input.Prompt)-1, 1)
		return m, nil

	case frameMsg:
		if p := m.focused(); p != nil {
			p.Tick()
		}
		return m, m.nextFrame()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey processes keyboard input. Bindings are checked before the prompt
// sees the key so that tab and the arrows never edit the query.
func (m Model[T]) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.focused()
	if p == nil {
		return m, tea.Quit
	}

	switch {
	case key.Matches(msg, m.keys.Abort):
		p.Abort()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Confirm):
		if p.Complete() {
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.layout == LayoutBottomUp {
			p.MoveUp()
		} else {
			p.MoveDown()
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.layout == LayoutBottomUp {
			p.MoveDown()
		} else {
			p.MoveUp()
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		m.toggle()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.applyQuery()
	return m, cmd
}

// toggle focuses the next source, carrying the cursor position over.
func (m *Model[T]) toggle() {
	if len(m.sources) < 2 {
		return
	}
	cursor := m.focused().Cursor()
	m.active = (m.active + 1) % len(m.sources)
	next := m.focused()
	next.Tick()
	next.SelectAt(cursor)
}

// applyQuery pushes a changed prompt value to every source. Only a strict
// extension of the previous query narrows; any other edit rescans.
func (m *Model[T]) applyQuery() {
	q := m.input.Value()
	if q == m.query {
		return
	}
	narrowing := len(q) > len(m.query) && strings.HasPrefix(q, m.query)
	for _, s := range m.sources {
		s.Picker.SetQuery(q, narrowing)
	}
	m.query = q
}

func (m Model[T]) focused() *Picker[T] {
	if m.active < 0 || m.active >= len(m.sources) {
		return nil
	}
	return m.sources[m.active].Picker
}

func (m Model[T]) nextFrame() tea.Cmd {
	return tea.Tick(m.frame, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

// listHeight returns the number of visible list rows (terminal height minus
// the status and prompt rows).
func (m Model[T]) listHeight() int {
	const chrome = 2
	h := m.height - chrome
	if h < 1 {
		h = 20 // Sensible default before first WindowSizeMsg
	}
	return h
}

// --- View rendering ---

var (
	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	promptStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View implements tea.Model.
func (m Model[T]) View() string {
	rows := m.viewRows()
	status := m.viewStatus()
	prompt := m.input.View()

	var b strings.Builder
	if m.layout == LayoutTopDown {
		b.WriteString(prompt)
		b.WriteRune('\n')
		b.WriteString(status)
		for _, r := range rows {
			b.WriteRune('\n')
			b.WriteString(r)
		}
		return b.String()
	}

	for i := len(rows) - 1; i >= 0; i-- {
		b.WriteString(rows[i])
		b.WriteRune('\n')
	}
	b.WriteString(status)
	b.WriteRune('\n')
	b.WriteString(prompt)
	return b.String()
}

// viewRows renders the visible window, best match first. In the bottom-up
// layout the rows are padded so the prompt stays on the last line.
func (m Model[T]) viewRows() []string {
	p := m.focused()
	if p == nil {
		return nil
	}

	height := m.listHeight()
	window := p.Window(height)
	display := m.sources[m.active].Display

	rows := make([]string, 0, height)
	for _, match := range window {
		var text string
		if display != nil {
			text = display(match.Item)
		} else {
			text = fmt.Sprint(match.Item)
		}
		text = ValidateUTF8(StripANSI(text))
		if m.width > 4 {
			text = MiddleTruncate(text, m.width-4)
		}

		if match.Rank == p.Cursor() {
			rows = append(rows, selectedStyle.Render("> "+text))
		} else {
			rows = append(rows, normalStyle.Render("  "+text))
		}
	}

	if m.layout == LayoutBottomUp {
		for len(rows) < height {
			rows = append(rows, "")
		}
	}
	return rows
}

// viewStatus renders the source tabs and the match counter.
func (m Model[T]) viewStatus() string {
	var parts []string
	if len(m.sources) > 1 {
		for i, s := range m.sources {
			label := " " + s.Label + " "
			if i == m.active {
				parts = append(parts, activeTabStyle.Render(label))
			} else {
				parts = append(parts, inactiveTabStyle.Render(label))
			}
		}
	}

	if p := m.focused(); p != nil {
		snap := p.Snapshot()
		counter := fmt.Sprintf("%d/%d", snap.MatchedCount(), snap.ItemCount())
		if p.Busy() {
			counter += " …"
		}
		parts = append(parts, dimStyle.Render(counter))
	}
	return strings.Join(parts, " ")
}
