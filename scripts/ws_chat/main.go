package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/ramadan-assistant/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	token, err := openSession(ctx, *base)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	wsURL := strings.Replace(*base, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Printf("Connected to %s\n", *base)
	fmt.Println("Type a question and press Enter. /tab <name> and /night <n> change the view. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func openSession(ctx context.Context, base string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/session", nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if outbound.Error != nil {
			fmt.Printf("error %s: %s\n", outbound.Error.Code, outbound.Error.Msg)
			continue
		}

		switch outbound.Event {
		case proto.EventMessage:
			var msg proto.Message
			if err := json.Unmarshal(outbound.Data, &msg); err != nil {
				log.Printf("unmarshal message: %v", err)
				continue
			}
			who := "assistant"
			if msg.FromUser {
				who = "you"
			}
			fmt.Printf("[%d] %s: %s\n", msg.Seq, who, msg.Text)
		case proto.EventState:
			var state proto.State
			if err := json.Unmarshal(outbound.Data, &state); err != nil {
				log.Printf("unmarshal state: %v", err)
				continue
			}
			fmt.Printf("[state] tab=%s night=%d messages=%d\n", state.Tab, state.Night, len(state.Messages))
		case proto.EventPrayerTimes:
			var times []proto.PrayerTime
			if err := json.Unmarshal(outbound.Data, &times); err != nil {
				log.Printf("unmarshal prayer times: %v", err)
				continue
			}
			for _, p := range times {
				fmt.Printf("[prayer] %-8s %s\n", p.Name, p.Time)
			}
		default:
			fmt.Printf("event=%s data=%s\n", outbound.Event, outbound.Data)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			inbound, err := parseLine(strings.TrimSpace(line))
			if err != nil {
				fmt.Println(err)
				continue
			}
			if inbound == nil {
				continue
			}
			if err := wsjson.Write(ctx, conn, inbound); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}

func parseLine(line string) (*proto.Inbound, error) {
	if line == "" {
		return nil, nil
	}

	var (
		typ  string
		data any
	)
	switch {
	case strings.HasPrefix(line, "/tab "):
		typ, data = proto.InboundTypeTab, proto.TabData{Tab: strings.TrimSpace(strings.TrimPrefix(line, "/tab "))}
	case strings.HasPrefix(line, "/night "):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/night ")))
		if err != nil {
			return nil, fmt.Errorf("night must be a number: %w", err)
		}
		typ, data = proto.InboundTypeNight, proto.NightData{Night: n}
	default:
		typ, data = proto.InboundTypeMsg, proto.TextData{Text: line}
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &proto.Inbound{Type: typ, Data: payload}, nil
}
