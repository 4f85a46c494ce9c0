package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeTab   = "tab"
	InboundTypeNight = "night"
	InboundTypeDraft = "draft"
	InboundTypeMsg   = "msg"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventState       = "state"
	EventMessage     = "message"
	EventPrayerTimes = "prayer_times"
)

// TabData selects a content panel.
type TabData struct {
	Tab string `json:"tab"`
}

// NightData selects a night.
type NightData struct {
	Night int `json:"night"`
}

// TextData carries draft or message text.
type TextData struct {
	Text string `json:"text"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Message is one chat history entry.
type Message struct {
	Seq      int    `json:"seq"`
	Text     string `json:"text"`
	FromUser bool   `json:"from_user"`
	TS       int64  `json:"ts"`
}

// PrayerTime is one displayed prayer.
type PrayerTime struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// State is the full UI state of a session.
type State struct {
	Session     string       `json:"session"`
	Tab         string       `json:"tab"`
	Night       int          `json:"night"`
	Draft       string       `json:"draft"`
	Messages    []Message    `json:"messages"`
	PrayerTimes []PrayerTime `json:"prayer_times,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
