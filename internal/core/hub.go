package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ramadan-assistant/internal/content"
	"github.com/vovakirdan/ramadan-assistant/internal/prayer"
	"github.com/vovakirdan/ramadan-assistant/internal/qa"
)

const maxSweepInterval = time.Minute

// PrayerFetcher loads the prayer times of a day.
type PrayerFetcher interface {
	Fetch(ctx context.Context, date time.Time) (prayer.Timings, error)
}

// Options configures a Hub. Nil Answer, Logger, Now and NewID fall back to defaults;
// durations are used as given.
type Options struct {
	// ReplyDelay is how long an answer waits before it is appended; zero replies immediately.
	ReplyDelay time.Duration
	// SessionTTL evicts sessions idle for longer; zero keeps them forever.
	SessionTTL time.Duration
	// Answer maps a question to its reply; defaults to qa.Answer.
	Answer func(question string) string
	// Prayer is called once per new session; nil disables prayer times.
	Prayer PrayerFetcher
	Logger *zerolog.Logger
	Now    func() time.Time
	NewID  func() string
}

// Hub owns every session. All state changes run on the Run goroutine, one command at a time.
type Hub struct {
	replyDelay time.Duration
	sessionTTL time.Duration
	answer     func(string) string
	prayer     PrayerFetcher
	log        *zerolog.Logger
	now        func() time.Time
	newID      func() string

	commands chan Command
	done     chan struct{}
	sessions map[string]*session
}

// NewHub creates a hub. Call Run to start processing commands.
func NewHub(opts Options) *Hub {
	h := &Hub{
		replyDelay: opts.ReplyDelay,
		sessionTTL: opts.SessionTTL,
		answer:     opts.Answer,
		prayer:     opts.Prayer,
		log:        opts.Logger,
		now:        opts.Now,
		newID:      opts.NewID,
		commands:   make(chan Command, 64),
		done:       make(chan struct{}),
		sessions:   make(map[string]*session),
	}
	if h.answer == nil {
		h.answer = qa.Answer
	}
	if h.log == nil {
		nop := zerolog.Nop()
		h.log = &nop
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.newID == nil {
		h.newID = uuid.NewString
	}
	return h
}

// Run processes commands until ctx is cancelled. It must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	var sweep <-chan time.Time
	if h.sessionTTL > 0 {
		interval := h.sessionTTL
		if interval > maxSweepInterval {
			interval = maxSweepInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		sweep = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			for _, s := range h.sessions {
				h.closeClients(s)
			}
			return
		case cmd := <-h.commands:
			h.handle(ctx, cmd)
		case <-sweep:
			h.evictIdle()
		}
	}
}

// OpenSession creates a session with default state and starts fetching its prayer times.
func (h *Hub) OpenSession(ctx context.Context) (Snapshot, error) {
	return h.do(ctx, Command{Kind: CommandOpenSession})
}

// Snapshot returns the current state of a session.
func (h *Hub) Snapshot(ctx context.Context, sessionID string) (Snapshot, error) {
	return h.do(ctx, Command{Kind: CommandSnapshot, SessionID: sessionID})
}

// SelectTab replaces the active tab.
func (h *Hub) SelectTab(ctx context.Context, sessionID string, tab content.Tab) (Snapshot, error) {
	return h.do(ctx, Command{Kind: CommandSelectTab, SessionID: sessionID, Tab: tab})
}

// SelectNight replaces the displayed night.
func (h *Hub) SelectNight(ctx context.Context, sessionID string, night content.Night) (Snapshot, error) {
	return h.do(ctx, Command{Kind: CommandSelectNight, SessionID: sessionID, Night: night})
}

// UpdateDraft replaces the unsent chat text.
func (h *Hub) UpdateDraft(ctx context.Context, sessionID, text string) (Snapshot, error) {
	return h.do(ctx, Command{Kind: CommandUpdateDraft, SessionID: sessionID, Text: text})
}

// SubmitMessage appends text as a user message and schedules the answer after the reply delay.
// Blank text is ignored and the unchanged state is returned.
func (h *Hub) SubmitMessage(ctx context.Context, sessionID, text string) (Snapshot, error) {
	return h.do(ctx, Command{Kind: CommandSubmitMessage, SessionID: sessionID, Text: text})
}

// Subscribe attaches client to its session's events.
func (h *Hub) Subscribe(ctx context.Context, client *Client) (Snapshot, error) {
	return h.do(ctx, Command{Kind: CommandSubscribe, SessionID: client.SessionID, Client: client})
}

// Unsubscribe detaches client. Its Events channel is closed by the hub.
func (h *Hub) Unsubscribe(client *Client) {
	h.post(Command{Kind: CommandUnsubscribe, SessionID: client.SessionID, Client: client})
}

func (h *Hub) do(ctx context.Context, cmd Command) (Snapshot, error) {
	cmd.reply = make(chan result, 1)

	select {
	case h.commands <- cmd:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-h.done:
		return Snapshot{}, ErrHubStopped
	}

	select {
	case res := <-cmd.reply:
		return res.snapshot, res.err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-h.done:
		return Snapshot{}, ErrHubStopped
	}
}

// post enqueues a command nobody waits on. Dropped once the hub has stopped.
func (h *Hub) post(cmd Command) {
	select {
	case h.commands <- cmd:
	case <-h.done:
	}
}

func (h *Hub) handle(ctx context.Context, cmd Command) {
	var res result

	switch cmd.Kind {
	case CommandOpenSession:
		res = h.handleOpen(ctx)
	case CommandSnapshot:
		res = h.withSession(cmd, func(s *session) error { return nil })
	case CommandSelectTab:
		res = h.withSession(cmd, func(s *session) error {
			if !cmd.Tab.Valid() {
				return ErrUnknownTab
			}
			s.tab = cmd.Tab
			h.broadcast(s, &Event{Kind: EventState})
			return nil
		})
	case CommandSelectNight:
		res = h.withSession(cmd, func(s *session) error {
			if !cmd.Night.Valid() {
				return ErrUnknownNight
			}
			s.night = cmd.Night
			h.broadcast(s, &Event{Kind: EventState})
			return nil
		})
	case CommandUpdateDraft:
		res = h.withSession(cmd, func(s *session) error {
			s.draft = cmd.Text
			h.broadcast(s, &Event{Kind: EventState})
			return nil
		})
	case CommandSubmitMessage:
		res = h.withSession(cmd, func(s *session) error {
			h.submit(s, cmd.Text)
			return nil
		})
	case CommandSubscribe:
		res = h.withSession(cmd, func(s *session) error {
			s.clients[cmd.Client] = struct{}{}
			return nil
		})
	case CommandUnsubscribe:
		if s, ok := h.sessions[cmd.SessionID]; ok {
			if _, attached := s.clients[cmd.Client]; attached {
				delete(s.clients, cmd.Client)
				close(cmd.Client.Events)
			}
		}
	case commandDeliverReply:
		s, ok := h.sessions[cmd.SessionID]
		if !ok {
			h.log.Debug().Str("session_id", cmd.SessionID).Msg("dropping reply for closed session")
			break
		}
		// timers may fire out of order; the queue keeps answers in question order
		text, ok := s.nextReply()
		if !ok {
			break
		}
		msg := s.appendMessage(text, false, h.now())
		h.broadcast(s, &Event{Kind: EventMessage, Message: msg})
	case commandSetPrayerTimes:
		s, ok := h.sessions[cmd.SessionID]
		if !ok {
			break
		}
		s.prayerTimes = cmd.PrayerTimes.Clone()
		h.broadcast(s, &Event{Kind: EventPrayerTimes})
	default:
		h.log.Warn().Int("kind", int(cmd.Kind)).Msg("unknown hub command")
	}

	if cmd.reply != nil {
		cmd.reply <- res
	}
}

func (h *Hub) withSession(cmd Command, fn func(s *session) error) result {
	s, ok := h.sessions[cmd.SessionID]
	if !ok {
		return result{err: ErrSessionNotFound}
	}
	s.lastSeen = h.now()
	if err := fn(s); err != nil {
		return result{snapshot: s.snapshot(), err: err}
	}
	return result{snapshot: s.snapshot()}
}

func (h *Hub) handleOpen(ctx context.Context) result {
	now := h.now()
	s := newSession(h.newID(), now)
	h.sessions[s.id] = s

	h.log.Info().Str("session_id", s.id).Msg("session opened")

	if h.prayer != nil {
		go h.fetchPrayerTimes(ctx, s.id, now)
	}

	return result{snapshot: s.snapshot()}
}

// fetchPrayerTimes runs once per session. Failures are only logged; nothing is retried.
func (h *Hub) fetchPrayerTimes(ctx context.Context, sessionID string, date time.Time) {
	timings, err := h.prayer.Fetch(ctx, date)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to fetch prayer times")
		return
	}
	h.post(Command{Kind: commandSetPrayerTimes, SessionID: sessionID, PrayerTimes: timings})
}

func (h *Hub) submit(s *session, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	msg := s.appendMessage(text, true, h.now())
	s.draft = ""
	h.broadcast(s, &Event{Kind: EventMessage, Message: msg})

	s.pendingReplies = append(s.pendingReplies, h.answer(text))
	sessionID := s.id
	time.AfterFunc(h.replyDelay, func() {
		h.post(Command{Kind: commandDeliverReply, SessionID: sessionID})
	})
}

func (h *Hub) broadcast(s *session, ev *Event) {
	if len(s.clients) == 0 {
		return
	}
	ev.SessionID = s.id
	ev.Snapshot = s.snapshot()

	for client := range s.clients {
		select {
		case client.Events <- ev:
		default:
			h.log.Warn().Str("client_id", client.ID).Str("session_id", s.id).Msg("client events buffer full, dropping event")
		}
	}
}

func (h *Hub) closeClients(s *session) {
	for client := range s.clients {
		close(client.Events)
		delete(s.clients, client)
	}
}

func (h *Hub) evictIdle() {
	cutoff := h.now().Add(-h.sessionTTL)
	for id, s := range h.sessions {
		// an attached client means the page is still open
		if len(s.clients) > 0 {
			continue
		}
		if s.lastSeen.Before(cutoff) {
			h.closeClients(s)
			delete(h.sessions, id)
			h.log.Info().Str("session_id", id).Msg("idle session evicted")
		}
	}
}
