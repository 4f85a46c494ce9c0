package http

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/ramadan-assistant/internal/proto"
	"github.com/vovakirdan/ramadan-assistant/internal/qa"
)

// wireFrame mirrors proto.Outbound with raw data for decoding in tests.
type wireFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func dialSession(t *testing.T, ctx context.Context, wsURL, token string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, wsURL+"?token="+token, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil reads frames until match returns true.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, match func(wireFrame) bool) wireFrame {
	t.Helper()

	for {
		var frame wireFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if match(frame) {
			return frame
		}
	}
}

func isEvent(name string) func(wireFrame) bool {
	return func(f wireFrame) bool { return f.Type == proto.OutboundTypeEvent && f.Event == name }
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t, nil)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketRequiresSession(t *testing.T) {
	ts := startTestServer(t, nil)
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, resp, err := websocket.Dial(ctx, wsURL, nil)
	if err == nil {
		conn.Close(websocket.StatusNormalClosure, "done")
		t.Fatalf("expected dial without token to fail")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func TestWebSocketChatRoundTrip(t *testing.T) {
	ts := startTestServer(t, nil)
	sess := openSession(t, ts)
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialSession(t, ctx, wsURL, sess.Token)

	initial := readUntil(t, ctx, conn, isEvent(proto.EventState))
	var state proto.State
	if err := json.Unmarshal(initial.Data, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Session != sess.State.Session || len(state.Messages) != 1 {
		t.Fatalf("unexpected initial state: %+v", state)
	}

	send(t, ctx, conn, proto.InboundTypeMsg, proto.TextData{Text: "How do I perform Wudu"})

	var userMsg proto.Message
	frame := readUntil(t, ctx, conn, isEvent(proto.EventMessage))
	if err := json.Unmarshal(frame.Data, &userMsg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if !userMsg.FromUser || userMsg.Seq != 2 || userMsg.Text != "How do I perform Wudu" {
		t.Fatalf("unexpected user message: %+v", userMsg)
	}

	var reply proto.Message
	frame = readUntil(t, ctx, conn, isEvent(proto.EventMessage))
	if err := json.Unmarshal(frame.Data, &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.FromUser || reply.Seq != 3 || reply.Text != qa.Answer("how do i perform wudu") {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestWebSocketStateCommands(t *testing.T) {
	ts := startTestServer(t, nil)
	sess := openSession(t, ts)
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialSession(t, ctx, wsURL, sess.Token)
	readUntil(t, ctx, conn, isEvent(proto.EventState))

	send(t, ctx, conn, proto.InboundTypeNight, proto.NightData{Night: 25})
	frame := readUntil(t, ctx, conn, isEvent(proto.EventState))
	var state proto.State
	if err := json.Unmarshal(frame.Data, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Night != 25 {
		t.Fatalf("expected night 25, got %d", state.Night)
	}

	send(t, ctx, conn, proto.InboundTypeTab, proto.TabData{Tab: "settings"})
	frame = readUntil(t, ctx, conn, func(f wireFrame) bool { return f.Type == proto.OutboundTypeError })
	if frame.Error == nil || frame.Error.Code != "bad_request" {
		t.Fatalf("expected bad_request error, got %+v", frame.Error)
	}

	send(t, ctx, conn, "hello", proto.TextData{Text: "x"})
	frame = readUntil(t, ctx, conn, func(f wireFrame) bool { return f.Type == proto.OutboundTypeError })
	if frame.Error == nil || frame.Error.Code != "invalid_message" {
		t.Fatalf("expected invalid_message error, got %+v", frame.Error)
	}
}

func TestWebSocketEventsFromOtherTransports(t *testing.T) {
	ts := startTestServer(t, nil)
	sess := openSession(t, ts)
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialSession(t, ctx, wsURL, sess.Token)
	readUntil(t, ctx, conn, isEvent(proto.EventState))

	doJSON(t, ts, "PUT", "/api/state/tab", sess.Token, TabRequest{Tab: "chat"})

	frame := readUntil(t, ctx, conn, isEvent(proto.EventState))
	var state proto.State
	if err := json.Unmarshal(frame.Data, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Tab != "chat" {
		t.Fatalf("expected tab chat, got %s", state.Tab)
	}
}

func TestWebSocketDeliversPrayerTimesFetchedAfterConnect(t *testing.T) {
	release := make(chan struct{})
	ts := startTestServer(t, gatedFetcher(release))
	sess := openSession(t, ts)
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialSession(t, ctx, wsURL, sess.Token)

	initial := readUntil(t, ctx, conn, isEvent(proto.EventState))
	var state proto.State
	if err := json.Unmarshal(initial.Data, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if len(state.PrayerTimes) != 0 {
		t.Fatalf("prayer times must be absent before the fetch completes: %+v", state.PrayerTimes)
	}

	close(release)

	wantNames := []string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}
	checkTimes := func(label string, times []proto.PrayerTime) {
		t.Helper()
		if len(times) != len(wantNames) {
			t.Fatalf("%s: expected %d prayers, got %+v", label, len(wantNames), times)
		}
		for i, name := range wantNames {
			if times[i].Name != name || times[i].Time != testTimings[name] {
				t.Fatalf("%s: prayer %d is %+v, want %s %s", label, i, times[i], name, testTimings[name])
			}
		}
	}

	frame := readUntil(t, ctx, conn, isEvent(proto.EventPrayerTimes))
	var times []proto.PrayerTime
	if err := json.Unmarshal(frame.Data, &times); err != nil {
		t.Fatalf("prayer_times data must be a list: %v (%s)", err, frame.Data)
	}
	checkTimes("prayer_times frame", times)

	send(t, ctx, conn, proto.InboundTypeNight, proto.NightData{Night: 23})
	frame = readUntil(t, ctx, conn, isEvent(proto.EventState))
	state = proto.State{}
	if err := json.Unmarshal(frame.Data, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Night != 23 {
		t.Fatalf("expected night 23, got %d", state.Night)
	}
	checkTimes("state frame", state.PrayerTimes)
}
