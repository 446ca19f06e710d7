// Package form is the interactive query form: a bubbletea Model around
// query.Form with a text input, a submit control and a read-only output area.
package form

import (
	"context"

	"konsilium/cmd/konsilium/ui"
	"konsilium/internal/query"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// SubmitLabel is the caption of the submit control.
const SubmitLabel = "Сгенерировать"

// OutputLabel is the caption above the output area.
const OutputLabel = "Текст"

// LoadingLabel accompanies the spinner while a request is in flight.
const LoadingLabel = "Генерация ответа..."

// Focus is the control that receives Enter and typing.
type Focus int

const (
	FocusInput Focus = iota
	FocusSubmit
)

// Options configures a new Model.
type Options struct {
	Generator      query.Generator
	Styles         ui.Styles
	RenderMarkdown bool

	// Context is passed to every generation call. Defaults to Background.
	Context context.Context
}

// Model is the bubbletea model for the query form.
type Model struct {
	// UI Components
	input    textinput.Model
	output   viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	styles   ui.Styles
	renderer *glamour.TermRenderer

	// State
	form     *query.Form
	gen      query.Generator
	ctx      context.Context
	focus    Focus
	markdown bool
	notice   string
	retired  []idleCloser
	width    int
	height   int
	quitting bool
}

// New creates the form model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	ti := textinput.New()
	ti.Placeholder = query.InputPlaceholder
	ti.Prompt = ""
	ti.Width = 60
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opts.Styles.Spinner

	vp := viewport.New(80, 15)

	m := Model{
		input:    ti,
		output:   vp,
		spinner:  sp,
		help:     help.New(),
		keys:     defaultKeyMap(),
		styles:   opts.Styles,
		form:     query.NewForm(),
		gen:      opts.Generator,
		ctx:      ctx,
		focus:    FocusInput,
		markdown: opts.RenderMarkdown,
	}
	if m.markdown {
		m.renderer = newRenderer(opts.Styles.Theme.IsDark, 80)
	}
	m.refreshOutput()
	return m
}

func newRenderer(dark bool, wrap int) *glamour.TermRenderer {
	style := "light"
	if dark {
		style = "dark"
	}
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	return r
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Snapshot exposes the underlying form state.
func (m Model) Snapshot() query.Snapshot {
	return m.form.Snapshot()
}

// Focused returns the control that currently has focus.
func (m Model) Focused() Focus {
	return m.focus
}

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool {
	return m.quitting
}

// =============================================================================
// MESSAGES
// =============================================================================

// resultMsg carries a finished submission back to the event loop.
type resultMsg struct {
	res query.Result
}

// ConfigChangedMsg swaps the generator after a config reload.
// Only the endpoint is reloaded; theme and markdown settings apply on restart.
// Requests already in flight finish against the old endpoint, whose idle
// connections are released once nothing is loading.
type ConfigChangedMsg struct {
	Generator query.Generator
	Endpoint  string
}

// ConfigErrorMsg reports a config file that failed to reload.
type ConfigErrorMsg struct {
	Err error
}

// idleCloser is implemented by *generator.Client.
type idleCloser interface {
	CloseIdleConnections()
}

// submitCmd performs the network call off the event loop.
func submitCmd(ctx context.Context, gen query.Generator, sub query.Submission) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{res: query.Run(ctx, gen, sub)}
	}
}
