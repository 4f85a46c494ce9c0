package core

// Client is a listener attached to one session, e.g. a WebSocket connection.
type Client struct {
	ID        string
	SessionID string
	Events    chan *Event
}

// NewClient constructs a client with an initialized events channel.
// The hub closes Events when the client is unsubscribed, the session is evicted or the hub stops.
func NewClient(id, sessionID string) *Client {
	return &Client{
		ID:        id,
		SessionID: sessionID,
		Events:    make(chan *Event, 16),
	}
}
