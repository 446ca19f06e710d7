// Package query holds the state of the query form independent of any UI:
// the query text, the last response, and the idle/loading/error/success
// lifecycle of a submission.
//
// A Form is owned by a single goroutine (the UI event loop); it does no
// locking. The network call itself runs elsewhere (see Run) and its Result
// is handed back to Finish on the owning goroutine.
package query

import (
	"konsilium/internal/logging"

	"github.com/google/uuid"
)

// Form is the mutable state behind the query form.
type Form struct {
	query    string
	response string
	state    State
	loading  bool
	errMsg   string

	sessionID string
	seq       int
	audit     *logging.AuditLogger
}

// NewForm creates an idle form with an empty query.
func NewForm() *Form {
	session := uuid.NewString()
	return &Form{
		state:     StateIdle,
		sessionID: session,
		audit:     logging.AuditWithSession(session),
	}
}

// Submission is one outbound request: the query as it was at submit time.
type Submission struct {
	ID    string
	Seq   int
	Query string
}

// SetQuery replaces the query text. No validation, no side effects.
func (f *Form) SetQuery(text string) {
	f.query = text
}

// Query returns the current query text.
func (f *Form) Query() string {
	return f.query
}

// Begin moves the form to loading, clears the previous error and returns the
// submission to send. It does not refuse a second Begin while one is in
// flight; callers keep their controls disabled while Loading is true.
func (f *Form) Begin() Submission {
	f.seq++
	sub := Submission{
		ID:    uuid.NewString(),
		Seq:   f.seq,
		Query: f.query,
	}

	if f.loading {
		logging.Get(logging.CategoryUI).Warn("submit #%d started while #%d still loading", sub.Seq, sub.Seq-1)
	}

	f.state = StateLoading
	f.loading = true
	f.errMsg = ""

	logging.UIDebug("submit #%d req=%s: %s -> loading", sub.Seq, sub.ID, f.state)
	f.audit.Log(logging.AuditEvent{
		EventType:  logging.AuditSubmitStart,
		RequestID:  sub.ID,
		QueryBytes: len(sub.Query),
	})
	return sub
}

// Finish records the outcome of a submission. The loading flag is cleared on
// every path, including a panic while recording the outcome.
func (f *Form) Finish(res Result) {
	defer func() {
		f.loading = false
	}()

	if res.Err != nil {
		f.state = StateError
		f.errMsg = FailureMessage
		f.response = ""
		logging.Get(logging.CategoryUI).Error("submit #%d req=%s failed: %v", res.Submission.Seq, res.Submission.ID, res.Err)
		f.audit.Log(logging.AuditEvent{
			EventType: logging.AuditSubmitError,
			RequestID: res.Submission.ID,
			Endpoint:  res.Endpoint,
			Status:    res.StatusCode(),
			Duration:  res.Duration,
			Error:     res.Err.Error(),
		})
		return
	}

	f.state = StateSuccess
	f.response = res.Text
	logging.UIDebug("submit #%d req=%s: success (%d bytes)", res.Submission.Seq, res.Submission.ID, len(res.Text))
	f.audit.Log(logging.AuditEvent{
		EventType: logging.AuditSubmitSuccess,
		RequestID: res.Submission.ID,
		Endpoint:  res.Endpoint,
		Duration:  res.Duration,
	})
}

// Snapshot returns an immutable copy of the form for rendering.
func (f *Form) Snapshot() Snapshot {
	return Snapshot{
		Query:        f.query,
		Response:     f.response,
		State:        f.state,
		Loading:      f.loading,
		ErrorMessage: f.errMsg,
	}
}

// Snapshot is a point-in-time view of a Form.
type Snapshot struct {
	Query        string
	Response     string
	State        State
	Loading      bool
	ErrorMessage string
}

// ControlsDisabled reports whether the input and submit control are locked.
func (s Snapshot) ControlsDisabled() bool {
	return s.Loading
}

// Output is the text for the read-only output area. It is the placeholder
// prompt before the first response and after a failure, the response
// verbatim (even when empty) after a success, and empty while loading (the
// UI shows its loading indicator instead).
func (s Snapshot) Output() string {
	if s.Loading {
		return ""
	}
	if s.ShowsPlaceholder() {
		return OutputPlaceholder
	}
	return s.Response
}

// ShowsPlaceholder reports whether Output is the placeholder prompt.
func (s Snapshot) ShowsPlaceholder() bool {
	return !s.Loading && (s.State == StateIdle || s.State == StateError)
}
