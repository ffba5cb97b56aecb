// Package flowlog implements C10: chronologically ordered, append-only
// structured logging of one query's whole processing flow, correlated by
// session, plus a companion analyzer. Grounded on rag5/utils/flow_logger.py
// and rag5/utils/flow_analyzer.py (see original_source), reworked from
// their human-formatted-text-plus-regex-parsing design into JSON-lines
// writes the analyzer decodes directly, since this writer (unlike the
// original) owns both ends of the format.
package flowlog

import "time"

// EventType is one of §4.10's seven event kinds.
type EventType string

const (
	EventQueryStart    EventType = "QUERY_START"
	EventQueryAnalysis EventType = "QUERY_ANALYSIS"
	EventToolSelection EventType = "TOOL_SELECTION"
	EventToolExecution EventType = "TOOL_EXECUTION"
	EventLLMCall       EventType = "LLM_CALL"
	EventQueryComplete EventType = "QUERY_COMPLETE"
	EventError         EventType = "ERROR"
	// EventLogOverflow is written once per overflow window when the async
	// queue drops events under backpressure (§4.10).
	EventLogOverflow EventType = "LOG_OVERFLOW"
)

// Status is one of §4.10's three event statuses.
type Status string

const (
	StatusSuccess    Status = "SUCCESS"
	StatusError      Status = "ERROR"
	StatusInProgress Status = "IN_PROGRESS"
)

// DetailLevel controls how much of an event's metadata values survive
// truncation before being written, per §4.10.
type DetailLevel string

const (
	DetailMinimal DetailLevel = "minimal"
	DetailNormal  DetailLevel = "normal"
	DetailVerbose DetailLevel = "verbose"
)

// maxContentLength is the normal-detail truncation bound from the original
// FlowLogger's max_content_length default.
const maxContentLength = 500

// Event is one structured flow-log record.
type Event struct {
	Timestamp         time.Time              `json:"timestamp"`
	SessionID         string                 `json:"session_id"`
	EventType         EventType              `json:"event_type"`
	ElapsedSinceStart float64                `json:"elapsed_since_start"`
	DurationSeconds   *float64               `json:"duration_seconds,omitempty"`
	Status            Status                 `json:"status"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}
