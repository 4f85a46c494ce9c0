package core

// EventKind is a notification the hub emits to subscribed clients.
type EventKind int

const (
	// EventState notifies about a tab, night or draft change.
	EventState EventKind = iota
	// EventMessage notifies about a message appended to the chat history.
	EventMessage
	// EventPrayerTimes notifies that the session's prayer times arrived.
	EventPrayerTimes
)

// Event is sent to clients to describe what happened to their session.
type Event struct {
	Kind      EventKind
	SessionID string
	Message   Message  // EventMessage only
	Snapshot  Snapshot // state after the change
}
