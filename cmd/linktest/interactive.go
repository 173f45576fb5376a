package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/wasm-linktest/script"
)

// entry is one command result in the browser list.
type entry struct {
	file   string
	result script.Result
}

func (e entry) title() string {
	return fmt.Sprintf("%-4s %s:%d  %s", e.result.Status, e.file, e.result.Line, e.result.Command)
}

type browserModel struct {
	entries      []entry
	visible      []int
	filter       textinput.Model
	detail       viewport.Model
	selected     int
	offset       int
	height       int
	failuresOnly bool
	ready        bool
}

func newBrowserModel(files []fileReport) *browserModel {
	var entries []entry
	for _, f := range files {
		for _, r := range f.report.Results {
			entries = append(entries, entry{file: f.path, result: r})
		}
	}

	filter := textinput.New()
	filter.Placeholder = "filter"
	filter.Prompt = "/ "
	filter.Width = 40

	m := &browserModel{entries: entries, filter: filter, height: 10}
	m.refilter()
	return m
}

func (m *browserModel) Init() tea.Cmd {
	return nil
}

// refilter recomputes the visible entries and keeps the cursor in range.
func (m *browserModel) refilter() {
	query := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, e := range m.entries {
		if m.failuresOnly && e.result.Status == script.StatusPass {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(e.title()+" "+e.result.Error), query) {
			continue
		}
		m.visible = append(m.visible, i)
	}
	if m.selected >= len(m.visible) {
		m.selected = len(m.visible) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	m.scroll()
	m.showDetail()
}

func (m *browserModel) scroll() {
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+m.height {
		m.offset = m.selected - m.height + 1
	}
}

func (m *browserModel) showDetail() {
	if len(m.visible) == 0 {
		m.detail.SetContent("no matching commands")
		return
	}
	e := m.entries[m.visible[m.selected]]
	var b strings.Builder
	fmt.Fprintf(&b, "file:    %s\n", e.file)
	fmt.Fprintf(&b, "line:    %d\n", e.result.Line)
	fmt.Fprintf(&b, "index:   %d\n", e.result.Index)
	fmt.Fprintf(&b, "command: %s\n", e.result.Command)
	fmt.Fprintf(&b, "status:  %s\n", e.result.Status)
	if e.result.Kind != "" {
		fmt.Fprintf(&b, "kind:    %s\n", e.result.Kind)
	}
	if e.result.Error != "" {
		fmt.Fprintf(&b, "\n%s\n", e.result.Error)
	}
	m.detail.SetContent(b.String())
	m.detail.GotoTop()
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height/2-4, 3)
		m.detail = viewport.New(msg.Width, max(msg.Height-m.height-6, 3))
		m.ready = true
		m.scroll()
		m.showDetail()
		return m, nil

	case tea.KeyMsg:
		if m.filter.Focused() {
			switch msg.String() {
			case "enter", "esc":
				m.filter.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.refilter()
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.scroll()
				m.showDetail()
			}
		case "down", "j":
			if m.selected < len(m.visible)-1 {
				m.selected++
				m.scroll()
				m.showDetail()
			}
		case "f":
			m.failuresOnly = !m.failuresOnly
			m.refilter()
		case "/":
			return m, m.filter.Focus()
		default:
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *browserModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	passed, failed := 0, 0
	for _, e := range m.entries {
		if e.result.Status == script.StatusPass {
			passed++
		} else {
			failed++
		}
	}
	b.WriteString(titleStyle.Render("linktest"))
	b.WriteString(" ")
	b.WriteString(passStyle.Render(fmt.Sprintf("%d passed", passed)))
	b.WriteString(" ")
	b.WriteString(failStyle.Render(fmt.Sprintf("%d failed", failed)))
	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.visible))
	for i := m.offset; i < end; i++ {
		e := m.entries[m.visible[i]]
		line := e.title()
		switch {
		case i == m.selected:
			line = selectedStyle.Render("> " + line)
		case e.result.Status == script.StatusPass:
			line = "  " + passStyle.Render(line)
		default:
			line = "  " + failStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	for i := end - m.offset; i < m.height; i++ {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.detail.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • / filter • f failures only • q quit"))
	return b.String()
}

func runInteractive(files []fileReport) error {
	p := tea.NewProgram(newBrowserModel(files), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
