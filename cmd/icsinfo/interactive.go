package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	ics "github.com/anntzer/go-libics"
	"github.com/anntzer/go-libics/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type fileInfo struct {
	version int
	desc    ics.Descriptor
	bits    uint64
	system  string
	history []ics.HistoryEntry
}

type infoModel struct {
	err         error
	info        *fileInfo
	libPath     string
	path        string
	view        viewport.Model
	showHistory bool
	ready       bool
}

type loadedMsg struct {
	err  error
	info *fileInfo
}

func newInfoModel(libPath, path string) *infoModel {
	return &infoModel{libPath: libPath, path: path}
}

func (m *infoModel) Init() tea.Cmd {
	return m.loadFile
}

// loadFile reads everything in one session and releases the native handle
// before the TUI starts drawing.
func (m *infoModel) loadFile() tea.Msg {
	ctx := context.Background()

	eng, err := engine.New(ctx, engine.Config{LibraryPath: m.libPath})
	if err != nil {
		return loadedMsg{err: err}
	}
	defer eng.Close(ctx)

	version, err := eng.Version(ctx, m.path)
	if err != nil {
		return loadedMsg{err: err}
	}

	f, err := ics.Open(ctx, eng, m.path, ics.Read)
	if err != nil {
		return loadedMsg{err: err}
	}
	defer f.Close(ctx)

	info := &fileInfo{version: version}
	if info.desc, err = f.Descriptor(ctx); err != nil {
		return loadedMsg{err: err}
	}
	if info.history, err = f.History(ctx); err != nil {
		return loadedMsg{err: err}
	}
	info.bits, _ = f.SignificantBits(ctx)
	info.system, _ = f.CoordinateSystem(ctx)

	return loadedMsg{info: info}
}

func (m *infoModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "h":
			m.showHistory = !m.showHistory
			m.view.SetContent(m.content())
			m.view.GotoTop()
		}

	case tea.WindowSizeMsg:
		// Leave room for the title and help lines.
		if !m.ready {
			m.view = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.view.Width = msg.Width
			m.view.Height = msg.Height - 4
		}
		m.view.SetContent(m.content())

	case loadedMsg:
		m.err = msg.err
		m.info = msg.info
		if m.ready {
			m.view.SetContent(m.content())
		}
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m *infoModel) content() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.info == nil {
		return "Loading..."
	}

	var b strings.Builder
	row := func(key, value string) {
		b.WriteString(keyStyle.Render(fmt.Sprintf("%-18s", key)))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	desc := m.info.desc
	row("ICS version", fmt.Sprintf("%d", m.info.version))
	row("Data type", desc.DataType.String())
	row("Byte order", desc.ByteOrder.String())
	row("Compression", desc.Compression.String())
	if m.info.bits > 0 {
		row("Significant bits", fmt.Sprintf("%d", m.info.bits))
	}
	if m.info.system != "" {
		row("Coordinate system", m.info.system)
	}

	b.WriteString("\n")
	b.WriteString(keyStyle.Render("Dimensions"))
	b.WriteString("\n")
	for i, dim := range desc.Dimensions {
		line := fmt.Sprintf("  %d: %-4s %8d", i, dim.Order, dim.Size)
		if dim.Unit != "" || dim.Scale != 0 {
			line += fmt.Sprintf("  origin %g, scale %g %s", dim.Origin, dim.Scale, dim.Unit)
		}
		b.WriteString(valueStyle.Render(line))
		b.WriteString("\n")
	}

	if m.showHistory {
		b.WriteString("\n")
		b.WriteString(keyStyle.Render(fmt.Sprintf("History (%d entries)", len(m.info.history))))
		b.WriteString("\n")
		for _, e := range m.info.history {
			b.WriteString(valueStyle.Render("  " + e.Key))
			b.WriteString("  " + e.Value)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *infoModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("ICS Inspector"))
	b.WriteString(" ")
	b.WriteString(m.path)
	b.WriteString("\n\n")
	if m.ready {
		b.WriteString(m.view.View())
	} else {
		b.WriteString(m.content())
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ scroll • h history • q quit"))
	return b.String()
}

func runInteractive(libPath, path string) error {
	p := tea.NewProgram(newInfoModel(libPath, path), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
