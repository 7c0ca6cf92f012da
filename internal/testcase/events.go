package testcase

// EventKind names something a form session wants its controller to know.
type EventKind string

const (
	// EventColumnSelected asks the controller to reflect the active column in
	// navigation state (the activeColumnFqn query parameter).
	EventColumnSelected EventKind = "column_selected"
	// EventFetchFailed is a non-blocking notification about a failed fetch.
	EventFetchFailed EventKind = "fetch_failed"
	EventSubmitted   EventKind = "submitted"
	EventCancelled   EventKind = "cancelled"
)

// Event is emitted by a Session.
type Event struct {
	Kind            EventKind `json:"kind"`
	ActiveColumnFQN string    `json:"activeColumnFqn,omitempty"`
	Message         string    `json:"message,omitempty"`
}

// Listener receives session events. It is never called with the session lock held.
type Listener func(Event)
