package form

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"konsilium/cmd/konsilium/ui"
	"konsilium/internal/generator"
	"konsilium/internal/query"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// HELPERS
// =============================================================================

type stubGenerator struct {
	mu      sync.Mutex
	queries []string
	text    string
	err     error
}

func (g *stubGenerator) Generate(ctx context.Context, q string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queries = append(g.queries, q)
	return g.text, g.err
}

func (g *stubGenerator) calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.queries...)
}

func newTestModel(gen query.Generator) Model {
	m := New(Options{Generator: gen, Styles: ui.NewStyles(ui.LightTheme())})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok, "Update must return form.Model")
	return out, cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: k})
}

// results executes cmd (expanding batches) and returns the submission results.
// Spinner ticks and other UI messages are dropped.
func results(cmd tea.Cmd) []resultMsg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []resultMsg
		for _, c := range msg {
			out = append(out, results(c)...)
		}
		return out
	case resultMsg:
		return []resultMsg{msg}
	default:
		return nil
	}
}

// submitAndWait presses Enter, runs the network call and feeds the result back.
func submitAndWait(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := press(t, m, tea.KeyEnter)
	require.True(t, m.Snapshot().Loading)
	res := results(cmd)
	require.Len(t, res, 1, "exactly one request per submit")
	m, _ = update(t, m, res[0])
	return m
}

// =============================================================================
// INPUT
// =============================================================================

func TestTyping_UpdatesQuery(t *testing.T) {
	m := newTestModel(&stubGenerator{})
	m = typeText(t, m, "рак лёгкого")
	assert.Equal(t, "рак лёгкого", m.Snapshot().Query)

	m, _ = press(t, m, tea.KeyBackspace)
	assert.Equal(t, "рак лёгког", m.Snapshot().Query)
}

func TestInitialView(t *testing.T) {
	m := newTestModel(&stubGenerator{})
	view := m.View()

	assert.Contains(t, view, ui.HeaderTitle)
	assert.Contains(t, view, SubmitLabel)
	assert.Contains(t, view, OutputLabel)
	assert.Contains(t, view, query.OutputPlaceholder)
	assert.NotContains(t, view, query.FailureMessage)
	assert.NotNil(t, m.Init())
}

// =============================================================================
// SUBMIT LIFECYCLE
// =============================================================================

func TestSubmit_DisablesControlsWhileLoading(t *testing.T) {
	gen := &stubGenerator{text: "Result A"}
	m := newTestModel(gen)
	m = typeText(t, m, "test")

	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)

	snap := m.Snapshot()
	assert.True(t, snap.Loading)
	assert.True(t, snap.ControlsDisabled())
	assert.Contains(t, m.View(), LoadingLabel)

	// Typing and a second Enter are ignored while loading.
	m = typeText(t, m, "x")
	assert.Equal(t, "test", m.Snapshot().Query)
	m, again := press(t, m, tea.KeyEnter)
	assert.Nil(t, again, "no second request while loading")
	m, again = press(t, m, tea.KeyTab)
	assert.Nil(t, again)
	assert.Equal(t, FocusInput, m.Focused())

	// Finish the original request.
	res := results(cmd)
	require.Len(t, res, 1)
	m, _ = update(t, m, res[0])

	assert.False(t, m.Snapshot().ControlsDisabled())
	assert.Equal(t, []string{"test"}, gen.calls())
}

func TestSubmit_Success(t *testing.T) {
	m := newTestModel(&stubGenerator{text: "Result A"})
	m = typeText(t, m, "test")
	m = submitAndWait(t, m)

	snap := m.Snapshot()
	assert.Equal(t, query.StateSuccess, snap.State)
	assert.Equal(t, "Result A", snap.Output())
	assert.Empty(t, snap.ErrorMessage)
	assert.False(t, snap.ControlsDisabled())
	assert.Equal(t, FocusInput, m.Focused())

	view := m.View()
	assert.Contains(t, view, "Result A")
	assert.NotContains(t, view, query.FailureMessage)
	assert.NotContains(t, view, LoadingLabel)
}

func TestSubmit_Failure(t *testing.T) {
	gen := &stubGenerator{text: "Result A"}
	m := newTestModel(gen)
	m = typeText(t, m, "test")
	m = submitAndWait(t, m)
	require.Equal(t, "Result A", m.Snapshot().Output())

	gen.text, gen.err = "", errors.New("connection refused")
	m = submitAndWait(t, m)

	snap := m.Snapshot()
	assert.Equal(t, query.StateError, snap.State)
	assert.Equal(t, query.FailureMessage, snap.ErrorMessage)
	assert.False(t, snap.ControlsDisabled())

	view := m.View()
	assert.Contains(t, view, query.FailureMessage)
	assert.Contains(t, view, query.OutputPlaceholder)
	assert.NotContains(t, view, "Result A")
}

func TestSubmit_FromSubmitControl(t *testing.T) {
	gen := &stubGenerator{text: "ok"}
	m := newTestModel(gen)
	m = typeText(t, m, "q")

	m, _ = press(t, m, tea.KeyTab)
	require.Equal(t, FocusSubmit, m.Focused())

	// Typing with the button focused does not edit the query.
	m = typeText(t, m, "zzz")
	assert.Equal(t, "q", m.Snapshot().Query)

	m = submitAndWait(t, m)
	assert.Equal(t, []string{"q"}, gen.calls())
	assert.Equal(t, FocusInput, m.Focused(), "focus returns to the input after completion")

	m, _ = press(t, m, tea.KeyTab)
	m, _ = press(t, m, tea.KeyTab)
	assert.Equal(t, FocusInput, m.Focused())
}

func TestSubmit_EmptyQueryIsSent(t *testing.T) {
	gen := &stubGenerator{text: "ok"}
	m := newTestModel(gen)
	_ = submitAndWait(t, m)
	assert.Equal(t, []string{""}, gen.calls())
}

// =============================================================================
// END-TO-END AGAINST A MOCK ENDPOINT
// =============================================================================

func newEndpoint(t *testing.T, status int, body string) (*httptest.Server, *int32, *string) {
	t.Helper()
	var posts int32
	var got string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&posts, 1)
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = string(b)
		mu.Unlock()
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &posts, &got
}

func TestScenario_200ResultA(t *testing.T) {
	srv, posts, body := newEndpoint(t, http.StatusOK, "Result A")
	gen := generator.New(generator.Config{URL: srv.URL})
	t.Cleanup(gen.CloseIdleConnections)

	m := newTestModel(gen)
	m = typeText(t, m, "test")
	m = submitAndWait(t, m)

	assert.EqualValues(t, 1, atomic.LoadInt32(posts))
	assert.Equal(t, `"test"`, *body)

	snap := m.Snapshot()
	assert.Equal(t, "Result A", snap.Output())
	assert.Empty(t, snap.ErrorMessage)
	assert.False(t, snap.ControlsDisabled())
}

func TestScenario_500(t *testing.T) {
	srv, posts, _ := newEndpoint(t, http.StatusInternalServerError, "boom")
	gen := generator.New(generator.Config{URL: srv.URL})
	t.Cleanup(gen.CloseIdleConnections)

	m := newTestModel(gen)
	m = typeText(t, m, "test")
	m = submitAndWait(t, m)

	assert.EqualValues(t, 1, atomic.LoadInt32(posts))

	snap := m.Snapshot()
	assert.Equal(t, "Ошибка при генерации ответа", snap.ErrorMessage)
	assert.Equal(t, query.OutputPlaceholder, snap.Output())
	assert.False(t, snap.ControlsDisabled())
	assert.NotContains(t, m.View(), "boom", "raw error detail stays out of the UI")
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func TestConfigChanged_SwapsGenerator(t *testing.T) {
	old := &stubGenerator{text: "old"}
	fresh := &stubGenerator{text: "new"}
	m := newTestModel(old)

	m, cmd := update(t, m, ConfigChangedMsg{Generator: fresh, Endpoint: "http://new/q"})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "http://new/q")

	m = submitAndWait(t, m)
	assert.Empty(t, old.calls())
	assert.Len(t, fresh.calls(), 1)
	assert.Equal(t, "new", m.Snapshot().Output())
	assert.NotContains(t, m.View(), "http://new/q", "notice clears on the next submit")
}

// closingGenerator counts CloseIdleConnections calls.
type closingGenerator struct {
	stubGenerator
	closed atomic.Int32
}

func (g *closingGenerator) CloseIdleConnections() {
	g.closed.Add(1)
}

func TestConfigChanged_ReleasesOldClientWhenIdle(t *testing.T) {
	old := &closingGenerator{}
	m := newTestModel(old)

	_, _ = update(t, m, ConfigChangedMsg{Generator: &stubGenerator{}, Endpoint: "http://new/q"})
	assert.Equal(t, int32(1), old.closed.Load())
}

func TestConfigChanged_ReleasesOldClientAfterInFlightRequest(t *testing.T) {
	old := &closingGenerator{stubGenerator: stubGenerator{text: "old"}}
	fresh := &stubGenerator{text: "new"}
	m := newTestModel(old)
	m = typeText(t, m, "test")

	m, cmd := press(t, m, tea.KeyEnter)
	require.True(t, m.Snapshot().Loading)

	m, _ = update(t, m, ConfigChangedMsg{Generator: fresh, Endpoint: "http://new/q"})
	assert.Equal(t, int32(0), old.closed.Load(), "still in flight on the old client")

	res := results(cmd)
	require.Len(t, res, 1)
	m, _ = update(t, m, res[0])

	assert.Equal(t, int32(1), old.closed.Load())
	assert.Equal(t, "old", m.Snapshot().Output(), "in-flight request finishes against the old endpoint")
	assert.Empty(t, fresh.calls())
}

func TestSubmit_EmptyResponseShownAsIs(t *testing.T) {
	m := newTestModel(&stubGenerator{text: ""})
	m = typeText(t, m, "test")
	m = submitAndWait(t, m)

	snap := m.Snapshot()
	assert.Equal(t, query.StateSuccess, snap.State)
	assert.Empty(t, snap.Output())
	assert.NotContains(t, m.View(), query.OutputPlaceholder)
}

func TestConfigError_ShowsNotice(t *testing.T) {
	m := newTestModel(&stubGenerator{})
	m, _ = update(t, m, ConfigErrorMsg{Err: errors.New("bad yaml")})
	assert.Contains(t, m.View(), "Файл настроек не применён")
	assert.NotContains(t, m.View(), "bad yaml")
}

// =============================================================================
// MISC
// =============================================================================

func TestQuit(t *testing.T) {
	m := newTestModel(&stubGenerator{})
	m, cmd := press(t, m, tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.True(t, m.Quitting())
	assert.Empty(t, m.View())
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestQuit_AllowedWhileLoading(t *testing.T) {
	m := newTestModel(&stubGenerator{})
	m, _ = press(t, m, tea.KeyEnter)
	require.True(t, m.Snapshot().Loading)
	m, cmd := press(t, m, tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.True(t, m.Quitting())
}

func TestSpinnerTickIgnoredWhenIdle(t *testing.T) {
	m := newTestModel(&stubGenerator{})
	_, cmd := update(t, m, m.spinner.Tick())
	assert.Nil(t, cmd)
}

func TestWindowSize_Degenerate(t *testing.T) {
	m := New(Options{Generator: &stubGenerator{}, Styles: ui.NewStyles(ui.DarkTheme())})
	for _, size := range []tea.WindowSizeMsg{{Width: 0, Height: 0}, {Width: -1, Height: -1}, {Width: 10000, Height: 5000}} {
		assert.NotPanics(t, func() {
			next, _ := m.Update(size)
			_ = next.View()
		})
	}
}

func TestLongResponseScrolls(t *testing.T) {
	long := strings.Repeat("строка\n", 200)
	m := newTestModel(&stubGenerator{text: long})
	m = submitAndWait(t, m)

	assert.True(t, m.output.AtTop())
	m, _ = press(t, m, tea.KeyPgDown)
	assert.False(t, m.output.AtTop())
}

func TestMarkdownRendering(t *testing.T) {
	m := New(Options{
		Generator:      &stubGenerator{text: "# Заголовок\n\n* пункт"},
		Styles:         ui.NewStyles(ui.LightTheme()),
		RenderMarkdown: true,
	})
	require.NotNil(t, m.renderer)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m = submitAndWait(t, m)

	view := m.View()
	assert.Contains(t, view, "Заголовок")
	assert.Contains(t, view, "пункт")
	assert.Equal(t, "# Заголовок\n\n* пункт", m.Snapshot().Response, "state keeps the raw text")
}
