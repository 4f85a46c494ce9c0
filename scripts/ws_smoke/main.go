package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/ramadan-assistant/internal/proto"
)

func main() {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	text := flag.String("text", "What is Ramadan", "question to ask")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	token, err := openSession(ctx, *base)
	if err != nil {
		log.Fatalf("open session: %v", err)
	}

	wsURL := strings.Replace(*base, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	payload, _ := json.Marshal(proto.TextData{Text: *text})
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeMsg, Data: payload}); err != nil {
		log.Fatalf("send: %v", err)
	}

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error,omitempty"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			log.Fatalf("read: %v", err)
		}

		fmt.Printf("Received outbound: type=%s", outbound.Type)
		if outbound.Event != "" {
			fmt.Printf(" event=%s", outbound.Event)
		}
		fmt.Println()
		if outbound.Error != nil {
			log.Fatalf("error: %s: %s", outbound.Error.Code, outbound.Error.Msg)
		}

		if outbound.Event != proto.EventMessage {
			continue
		}
		var msg proto.Message
		if err := json.Unmarshal(outbound.Data, &msg); err != nil {
			log.Fatalf("decode message: %v", err)
		}
		fmt.Printf("Message: seq=%d from_user=%t text=%q\n", msg.Seq, msg.FromUser, msg.Text)
		if !msg.FromUser {
			return
		}
	}
}

func openSession(ctx context.Context, base string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/session", bytes.NewReader(nil))
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
