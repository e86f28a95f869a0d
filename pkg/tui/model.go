// Package tui draws a figure in the terminal with bubbletea.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/teslashibe/go-sphere/pkg/expression"
)

// statusLines is the number of rows reserved below the figure.
const statusLines = 2

type frameMsg expression.Frame

type closedMsg struct{}

// Model is the bubbletea model for one figure.
type Model struct {
	title   string
	frames  <-chan expression.Frame
	onLook  func(expression.Point)
	onReset func()

	layout expression.Layout
	frame  expression.Frame
	count  int
	closed bool
	plain  bool

	width  int
	height int

	styles Styles
	keys   KeyMap
}

// NewModel creates a model that redraws on every frame received from frames.
func NewModel(opts Options) Model {
	size := opts.Size
	if size <= 0 {
		size = expression.DefaultSize
	}
	layout := expression.NewLayout(size)
	return Model{
		title:   opts.Title,
		frames:  opts.Frames,
		onLook:  opts.OnLook,
		onReset: opts.OnReset,
		layout:  layout,
		frame: expression.Frame{
			Size:       layout.Size,
			LeftPupil:  layout.LeftEye,
			RightPupil: layout.RightEye,
		},
		plain:  opts.Plain,
		width:  80,
		height: 24,
		styles: DefaultStyles(),
		keys:   DefaultKeyMap(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return waitForFrame(m.frames)
}

func waitForFrame(frames <-chan expression.Frame) tea.Cmd {
	if frames == nil {
		return nil
	}
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return closedMsg{}
		}
		return frameMsg(f)
	}
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reset):
			if m.onReset != nil {
				return m, func() tea.Msg { m.onReset(); return nil }
			}
		case key.Matches(msg, m.keys.Plain):
			m.plain = !m.plain
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.MouseMsg:
		if m.onLook == nil {
			return m, nil
		}
		p := m.viewport().pixel(msg.X, msg.Y)
		look := m.onLook
		return m, func() tea.Msg { look(p); return nil }

	case frameMsg:
		f := expression.Frame(msg)
		if f.Size > 0 && f.Size != m.layout.Size {
			m.layout = expression.NewLayout(f.Size)
		}
		m.frame = f
		m.count++
		return m, waitForFrame(m.frames)

	case closedMsg:
		m.closed = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) gridSize() (cols, rows int) {
	return max(m.width, 1), max(m.height-statusLines, 1)
}

func (m Model) viewport() viewport {
	cols, rows := m.gridSize()
	return fit(m.layout.Size, cols, rows)
}

// Frame returns the last frame drawn.
func (m Model) Frame() expression.Frame { return m.frame }

// View implements tea.Model
func (m Model) View() string {
	cols, rows := m.gridSize()
	grid := Rasterize(m.layout, m.frame, cols, rows)

	var b strings.Builder
	if m.plain {
		b.WriteString(Text(grid))
	} else {
		for r, row := range grid {
			if r > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(m.styles.paint(row))
		}
	}
	b.WriteByte('\n')
	b.WriteString(m.status())
	return b.String()
}

func (m Model) status() string {
	line := m.styles.Status.Render(fmt.Sprintf("amp %.2f  mouth %.1fpx  size %.0f  frames %d",
		m.frame.SmoothedAmplitude, m.frame.MouthHeight, m.frame.Size, m.count))
	if m.title != "" {
		line = lipgloss.JoinHorizontal(lipgloss.Top, m.styles.Title.Render(m.title), "  ", line)
	}
	if m.closed {
		line += m.styles.Help.Render("  (stream ended)")
	}

	help := []string{helpText(m.keys.Quit)}
	if m.onReset != nil {
		help = append(help, helpText(m.keys.Reset))
	}
	help = append(help, helpText(m.keys.Plain))
	return line + "\n" + m.styles.Help.Render(strings.Join(help, "  "))
}

func helpText(b key.Binding) string {
	h := b.Help()
	return h.Key + " " + h.Desc
}
