package core

import (
	"github.com/vovakirdan/ramadan-assistant/internal/content"
	"github.com/vovakirdan/ramadan-assistant/internal/prayer"
)

// CommandKind describes what a caller wants the hub to do.
type CommandKind int

const (
	// CommandOpenSession creates a session and starts its prayer-times fetch.
	CommandOpenSession CommandKind = iota
	// CommandSnapshot reads a session's state.
	CommandSnapshot
	// CommandSelectTab switches the visible panel.
	CommandSelectTab
	// CommandSelectNight switches the displayed night.
	CommandSelectNight
	// CommandUpdateDraft replaces the chat draft.
	CommandUpdateDraft
	// CommandSubmitMessage appends a user question and schedules the answer.
	CommandSubmitMessage
	// CommandSubscribe attaches a client to a session's events.
	CommandSubscribe
	// CommandUnsubscribe detaches a client and closes its events channel.
	CommandUnsubscribe

	// commandDeliverReply appends the oldest scheduled answer.
	commandDeliverReply
	// commandSetPrayerTimes stores the result of a session's fetch.
	commandSetPrayerTimes
)

// Command represents an action requested of the hub.
type Command struct {
	Kind        CommandKind
	SessionID   string
	Tab         content.Tab
	Night       content.Night
	Text        string
	PrayerTimes prayer.Timings
	Client      *Client

	reply chan result
}

type result struct {
	snapshot Snapshot
	err      error
}
