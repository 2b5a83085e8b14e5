package models

import "time"

// EventType discriminates the events an analysis run emits.
type EventType string

const (
	// EventStatus reports phase changes with a progress percentage.
	EventStatus EventType = "status"
	// EventLog carries a log line, optionally with partial streaming text.
	EventLog EventType = "log"
	// EventResult carries the terminal AnalysisResult. At most one per run.
	EventResult EventType = "result"
	// EventError is the terminal event of a failed run. The stream closes
	// after it.
	EventError EventType = "error"
)

// AnalysisEvent is one element of the event stream produced by the
// orchestrator and consumed by the transport layer. Collaborator log lines
// are forwarded through the same stream, not re-interpreted.
type AnalysisEvent struct {
	Type      EventType       `json:"type"`
	Message   string          `json:"message,omitempty"`
	Progress  float64         `json:"progress,omitempty"`
	Level     string          `json:"log_type,omitempty"`
	Partial   string          `json:"streaming_text,omitempty"`
	Result    *AnalysisResult `json:"result,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// StatusEvent builds a status event with the given progress percentage.
func StatusEvent(message string, progress float64) AnalysisEvent {
	return AnalysisEvent{
		Type:      EventStatus,
		Message:   message,
		Progress:  progress,
		Timestamp: nowMillis(),
	}
}

// LogEvent builds a log event. Level is one of "step", "info", "warning",
// "success", "error".
func LogEvent(level, message string) AnalysisEvent {
	return AnalysisEvent{
		Type:      EventLog,
		Message:   message,
		Level:     level,
		Timestamp: nowMillis(),
	}
}

// ResultEvent wraps the terminal result.
func ResultEvent(result *AnalysisResult) AnalysisEvent {
	return AnalysisEvent{
		Type:      EventResult,
		Result:    result,
		Timestamp: nowMillis(),
	}
}

// ErrorEvent builds the terminal error event.
func ErrorEvent(message string) AnalysisEvent {
	return AnalysisEvent{
		Type:      EventError,
		Message:   message,
		Timestamp: nowMillis(),
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
