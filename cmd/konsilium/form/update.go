package form

import (
	"strings"

	"konsilium/internal/logging"
	"konsilium/internal/query"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Rows taken by everything except the output viewport:
// banner, blank, input box (3), blank, label, output border (2),
// error banner, notice, help.
const chromeHeight = 12

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case resultMsg:
		m.form.Finish(msg.res)
		m.releaseRetired()
		m.focus = FocusInput
		m.refreshOutput()
		return m, m.input.Focus()

	case spinner.TickMsg:
		if !m.form.Snapshot().Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ConfigChangedMsg:
		if msg.Generator != nil && msg.Generator != m.gen {
			if c, ok := m.gen.(idleCloser); ok {
				m.retired = append(m.retired, c)
			}
			m.gen = msg.Generator
			if !m.form.Snapshot().Loading {
				m.releaseRetired()
			}
		}
		m.notice = "Настройки обновлены: " + msg.Endpoint
		logging.UI("generator swapped: %s", msg.Endpoint)
		return m, nil

	case ConfigErrorMsg:
		m.notice = "Файл настроек не применён"
		logging.Get(logging.CategoryUI).Warn("config reload failed: %v", msg.Err)
		return m, nil
	}

	if m.focus == FocusInput && !m.form.Snapshot().Loading {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDn):
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}

	// Controls are disabled while a request is in flight.
	if m.form.Snapshot().Loading {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Focus):
		if m.focus == FocusInput {
			m.focus = FocusSubmit
			m.input.Blur()
			return m, nil
		}
		m.focus = FocusInput
		return m, m.input.Focus()
	}

	if m.focus != FocusInput {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.form.SetQuery(m.input.Value())
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	m.notice = ""
	sub := m.form.Begin()
	m.input.Blur()
	m.refreshOutput()
	return m, tea.Batch(m.spinner.Tick, submitCmd(m.ctx, m.gen, sub))
}

// releaseRetired closes pooled connections of generators replaced by a reload.
func (m *Model) releaseRetired() {
	for _, c := range m.retired {
		c.CloseIdleConnections()
	}
	m.retired = nil
}

func (m *Model) resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	m.width = width
	m.height = height

	// input box border+padding (4) and the button (len + padding + margin)
	inputWidth := width - 4 - lipgloss.Width(m.styles.Button.Render(SubmitLabel)) - 2
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.output.Width = max(width-4, 10)
	m.output.Height = max(height-chromeHeight, 3)

	if m.markdown {
		m.renderer = newRenderer(m.styles.Theme.IsDark, m.output.Width)
	}
	m.refreshOutput()
}

// refreshOutput rebuilds the output viewport from the form state.
func (m *Model) refreshOutput() {
	snap := m.form.Snapshot()
	switch {
	case snap.Loading:
		m.output.SetContent("")
	case snap.ShowsPlaceholder():
		m.output.SetContent(m.styles.Placeholder.Render(query.OutputPlaceholder))
	default:
		m.output.SetContent(m.renderResponse(snap.Response))
	}
	m.output.GotoTop()
}

func (m *Model) renderResponse(text string) string {
	if m.markdown && m.renderer != nil {
		if out, err := m.renderer.Render(text); err == nil {
			return strings.TrimRight(out, "\n")
		}
		logging.UIDebug("markdown render failed, showing raw text")
	}
	return lipgloss.NewStyle().Width(m.output.Width).Render(text)
}
