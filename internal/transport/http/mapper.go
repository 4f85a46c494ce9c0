package http

import (
	"encoding/json"

	"github.com/vovakirdan/ramadan-assistant/internal/content"
	"github.com/vovakirdan/ramadan-assistant/internal/core"
	"github.com/vovakirdan/ramadan-assistant/internal/prayer"
	"github.com/vovakirdan/ramadan-assistant/internal/proto"
)

// inboundAction is a decoded client frame ready to be applied to the hub.
type inboundAction struct {
	kind  string
	tab   content.Tab
	night content.Night
	text  string
}

func decodeInbound(inbound proto.Inbound) (*inboundAction, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeTab:
		var data proto.TabData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		tab, err := content.ParseTab(data.Tab)
		if err != nil {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: err.Error()}, nil
		}
		return &inboundAction{kind: inbound.Type, tab: tab}, nil, nil
	case proto.InboundTypeNight:
		var data proto.NightData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		night := content.Night(data.Night)
		if !night.Valid() {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: core.ErrUnknownNight.Message}, nil
		}
		return &inboundAction{kind: inbound.Type, night: night}, nil, nil
	case proto.InboundTypeDraft, proto.InboundTypeMsg:
		var data proto.TextData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &inboundAction{kind: inbound.Type, text: data.Text}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func stateFromSnapshot(s core.Snapshot) proto.State {
	messages := make([]proto.Message, 0, len(s.Messages))
	for _, msg := range s.Messages {
		messages = append(messages, messageFromCore(msg))
	}
	return proto.State{
		Session:     s.ID,
		Tab:         string(s.Tab),
		Night:       int(s.Night),
		Draft:       s.Draft,
		Messages:    messages,
		PrayerTimes: prayerTimesFromTimings(s.PrayerTimes),
	}
}

func messageFromCore(msg core.Message) proto.Message {
	return proto.Message{
		Seq:      msg.Seq,
		Text:     msg.Text,
		FromUser: msg.FromUser,
		TS:       msg.CreatedAt.Unix(),
	}
}

func prayerTimesFromTimings(t prayer.Timings) []proto.PrayerTime {
	if len(t) == 0 {
		return nil
	}
	ordered := t.Ordered()
	out := make([]proto.PrayerTime, 0, len(ordered))
	for _, p := range ordered {
		out = append(out, proto.PrayerTime{Name: p.Name, Time: p.Time})
	}
	return out
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessage,
			Data:  messageFromCore(event.Message),
		}
	case core.EventPrayerTimes:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventPrayerTimes,
			Data:  prayerTimesFromTimings(event.Snapshot.PrayerTimes),
		}
	default:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventState,
			Data:  stateFromSnapshot(event.Snapshot),
		}
	}
}

func errorFrame(code, msg string) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: code, Msg: msg}}
}
