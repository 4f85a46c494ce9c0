package core

import "time"

// Message is one entry of a session's chat history.
type Message struct {
	Seq       int
	Text      string
	FromUser  bool
	CreatedAt time.Time
}
