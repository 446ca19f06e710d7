package form

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the form.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.form.Snapshot()
	disabled := snap.ControlsDisabled()

	var sb strings.Builder

	sb.WriteString(m.styles.Banner(m.width))
	sb.WriteString("\n\n")

	// Input row
	inputStyle := m.styles.Input
	switch {
	case disabled:
		inputStyle = m.styles.InputDisabled
	case m.focus == FocusInput:
		inputStyle = m.styles.InputFocused
	}
	buttonStyle := m.styles.Button
	switch {
	case disabled:
		buttonStyle = m.styles.ButtonOff
	case m.focus == FocusSubmit:
		buttonStyle = m.styles.ButtonFocused
	}
	inputBox := inputStyle.Render(m.input.View())
	button := buttonStyle.Render(SubmitLabel)
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, inputBox, button))
	sb.WriteString("\n\n")

	// Output area
	sb.WriteString(m.styles.Label.Render(OutputLabel))
	sb.WriteString("\n")
	var body string
	if snap.Loading {
		body = m.spinner.View() + " " + m.styles.Muted.Render(LoadingLabel)
	} else {
		body = m.output.View()
	}
	sb.WriteString(m.styles.Output.Width(m.output.Width + 2).Render(body))
	sb.WriteString("\n")

	if snap.ErrorMessage != "" {
		sb.WriteString(m.styles.Error.Render(snap.ErrorMessage))
	}
	sb.WriteString("\n")

	if m.notice != "" {
		sb.WriteString(m.styles.Notice.Render(m.notice))
	}
	sb.WriteString("\n")

	sb.WriteString(m.styles.Footer.Render(m.help.View(m.keys)))

	return sb.String()
}
