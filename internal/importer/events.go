package importer

// EventType names the three event kinds an execute run can emit.
type EventType string

const (
	EventError    EventType = "error"
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
)

// Event is one record in the execute stream. The core produces these in
// order; the transport layer is responsible for framing (SSE or otherwise).
// Exactly one terminal event (error or complete) ends every stream.
type Event struct {
	Type    EventType
	Payload any
}

// ErrorPayload is the body of a terminal error event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ProgressPayload reports cumulative rows persisted out of the accepted total.
type ProgressPayload struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// CompletePayload is the body of the terminal complete event.
type CompletePayload struct {
	Imported int       `json:"imported"`
	Skipped  []Skipped `json:"skipped"`
}

func errorEvent(message string) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Message: message}}
}

func progressEvent(processed, total int) Event {
	return Event{Type: EventProgress, Payload: ProgressPayload{Processed: processed, Total: total}}
}

func completeEvent(imported int, skipped []Skipped) Event {
	return Event{Type: EventComplete, Payload: CompletePayload{Imported: imported, Skipped: skipped}}
}
