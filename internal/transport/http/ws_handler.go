package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ramadan-assistant/internal/core"
	"github.com/vovakirdan/ramadan-assistant/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to a hub session.
type WSHandler struct {
	hub       *core.Hub
	tokens    *sessionTokens
	log       *zerolog.Logger
	readLimit int64
	rateLimit int
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, tokens *sessionTokens, readLimit int64, rateLimit int, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:       hub,
		tokens:    tokens,
		log:       logger,
		readLimit: readLimit,
		rateLimit: rateLimit,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sessionID, err := h.tokens.resolve(r)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws rejected: invalid session token")
		stdhttp.Error(w, "invalid session token", stdhttp.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := core.NewClient(uuid.NewString(), sessionID)
	snap, err := h.hub.Subscribe(ctx, client)
	if err != nil {
		code := "internal"
		var coreErr *core.CoreError
		if errors.As(err, &coreErr) {
			code = coreErr.Code
		}
		_ = wsjson.Write(ctx, conn, errorFrame(code, err.Error()))
		conn.Close(websocket.StatusPolicyViolation, err.Error())
		return
	}
	defer h.hub.Unsubscribe(client)

	if err := wsjson.Write(ctx, conn, proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: proto.EventState,
		Data:  stateFromSnapshot(snap),
	}); err != nil {
		h.log.Warn().Err(err).Str("client_id", client.ID).Msg("write initial state")
		return
	}

	limiter := newRateLimiter(h.rateLimit)
	limiter.startReset(ctx.Done())

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, limiter *rateLimiter) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			if err := wsjson.Write(ctx, conn, errorFrame("rate_limited", "too many messages")); err != nil {
				return err
			}
			continue
		}

		action, protoErr, err := decodeInbound(inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("failed to decode inbound")
			protoErr = &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed data"}
		}
		if protoErr == nil {
			protoErr, err = h.apply(ctx, client.SessionID, action)
			if err != nil {
				return err
			}
		}
		if protoErr != nil {
			if err := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); err != nil {
				return err
			}
		}
	}
}

// apply runs action on the hub. Domain errors are returned as frames, anything else ends the connection.
func (h *WSHandler) apply(ctx context.Context, sessionID string, action *inboundAction) (*proto.Error, error) {
	var err error
	switch action.kind {
	case proto.InboundTypeTab:
		_, err = h.hub.SelectTab(ctx, sessionID, action.tab)
	case proto.InboundTypeNight:
		_, err = h.hub.SelectNight(ctx, sessionID, action.night)
	case proto.InboundTypeDraft:
		_, err = h.hub.UpdateDraft(ctx, sessionID, action.text)
	case proto.InboundTypeMsg:
		_, err = h.hub.SubmitMessage(ctx, sessionID, action.text)
	}

	var coreErr *core.CoreError
	if errors.As(err, &coreErr) {
		return &proto.Error{Code: coreErr.Code, Msg: coreErr.Message}, nil
	}
	return nil, err
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
