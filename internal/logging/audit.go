package logging

import "time"

// AuditEventType names one step of a submission's lifecycle.
type AuditEventType string

const (
	AuditSubmitStart   AuditEventType = "submit_start"
	AuditSubmitSuccess AuditEventType = "submit_success"
	AuditSubmitError   AuditEventType = "submit_error"
)

// AuditEvent is one structured line in the audit log.
// The query text itself is never recorded, only its size.
type AuditEvent struct {
	EventType  AuditEventType
	RequestID  string
	Endpoint   string
	QueryBytes int
	Status     int
	Duration   time.Duration
	Error      string
}

// AuditLogger writes submission events to the audit category.
type AuditLogger struct {
	sessionID string
}

// AuditWithSession creates an audit logger scoped to a session
func AuditWithSession(sessionID string) *AuditLogger {
	return &AuditLogger{sessionID: sessionID}
}

// Log writes an audit event. No-op unless the audit category is enabled.
func (a *AuditLogger) Log(e AuditEvent) {
	l := Get(CategoryAudit)
	if !l.Enabled() {
		return
	}

	fields := map[string]interface{}{
		"event":       string(e.EventType),
		"session":     a.sessionID,
		"req":         e.RequestID,
		"endpoint":    e.Endpoint,
		"query_bytes": e.QueryBytes,
		"dur_ms":      e.Duration.Milliseconds(),
	}
	if e.Status != 0 {
		fields["status"] = e.Status
	}

	lvl := "info"
	if e.Error != "" {
		fields["error"] = e.Error
		lvl = "warn"
	}
	l.StructuredLog(lvl, "audit", fields)
}
