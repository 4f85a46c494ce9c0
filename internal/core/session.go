package core

import (
	"time"

	"github.com/vovakirdan/ramadan-assistant/internal/content"
	"github.com/vovakirdan/ramadan-assistant/internal/prayer"
)

// session is the mutable UI state of one visitor. Only the hub goroutine touches it.
type session struct {
	id          string
	tab         content.Tab
	night       content.Night
	draft       string
	messages    []Message
	prayerTimes prayer.Timings
	// pendingReplies holds scheduled answers in submit order.
	pendingReplies []string
	lastSeen       time.Time
	clients     map[*Client]struct{}
}

func newSession(id string, now time.Time) *session {
	s := &session{
		id:       id,
		tab:      content.DefaultTab,
		night:    content.DefaultNight,
		lastSeen: now,
		clients:  make(map[*Client]struct{}),
	}
	s.appendMessage(content.Greeting, false, now)
	return s
}

// appendMessage is the only way history grows; entries are never removed or edited.
func (s *session) appendMessage(text string, fromUser bool, now time.Time) Message {
	msg := Message{
		Seq:       len(s.messages) + 1,
		Text:      text,
		FromUser:  fromUser,
		CreatedAt: now,
	}
	s.messages = append(s.messages, msg)
	return msg
}

// nextReply pops the oldest scheduled answer.
func (s *session) nextReply() (string, bool) {
	if len(s.pendingReplies) == 0 {
		return "", false
	}
	reply := s.pendingReplies[0]
	s.pendingReplies = s.pendingReplies[1:]
	return reply, true
}

func (s *session) snapshot() Snapshot {
	return Snapshot{
		ID:          s.id,
		Tab:         s.tab,
		Night:       s.night,
		Draft:       s.draft,
		Messages:    append([]Message(nil), s.messages...),
		PrayerTimes: s.prayerTimes.Clone(),
	}
}

// Snapshot is a read-only copy of a session's state.
type Snapshot struct {
	ID          string
	Tab         content.Tab
	Night       content.Night
	Draft       string
	Messages    []Message
	PrayerTimes prayer.Timings
}

// HasPrayerTimes reports whether the session's fetch has succeeded.
func (s Snapshot) HasPrayerTimes() bool {
	return len(s.PrayerTimes) > 0
}
