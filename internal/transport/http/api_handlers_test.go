package http

import (
	"encoding/json"
	stdhttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/ramadan-assistant/internal/auth"
	"github.com/vovakirdan/ramadan-assistant/internal/content"
	"github.com/vovakirdan/ramadan-assistant/internal/core"
	"github.com/vovakirdan/ramadan-assistant/internal/proto"
	"github.com/vovakirdan/ramadan-assistant/internal/qa"
)

func decodeState(t *testing.T, body []byte) proto.State {
	t.Helper()
	var state proto.State
	require.NoError(t, json.Unmarshal(body, &state))
	return state
}

func decodeError(t *testing.T, body []byte) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestAPIOpenSession(t *testing.T) {
	ts := startTestServer(t, nil)

	sess := openSession(t, ts)
	require.NotEmpty(t, sess.Token)
	assert.NotEmpty(t, sess.State.Session)
	assert.Equal(t, string(content.TabDuaas), sess.State.Tab)
	assert.Equal(t, 21, sess.State.Night)
	require.Len(t, sess.State.Messages, 1)
	assert.Equal(t, content.Greeting, sess.State.Messages[0].Text)
	assert.False(t, sess.State.Messages[0].FromUser)

	resp, body := doJSON(t, ts, stdhttp.MethodGet, "/api/state", sess.Token, nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, sess.State.Session, decodeState(t, body).Session)
}

func TestAPISelectTabAndNight(t *testing.T) {
	ts := startTestServer(t, nil)
	sess := openSession(t, ts)

	resp, body := doJSON(t, ts, stdhttp.MethodPut, "/api/state/tab", sess.Token, TabRequest{Tab: "reminders"})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "reminders", decodeState(t, body).Tab)

	for _, night := range content.Nights() {
		resp, body = doJSON(t, ts, stdhttp.MethodPut, "/api/state/night", sess.Token, NightRequest{Night: int(night)})
		require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
		assert.Equal(t, int(night), decodeState(t, body).Night)
	}

	resp, body = doJSON(t, ts, stdhttp.MethodPut, "/api/state/tab", sess.Token, TabRequest{Tab: "settings"})
	assert.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, core.ErrCodeBadRequest, decodeError(t, body).Code)

	resp, _ = doJSON(t, ts, stdhttp.MethodPut, "/api/state/night", sess.Token, NightRequest{Night: 22})
	assert.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, ts, stdhttp.MethodGet, "/api/state", sess.Token, nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	state := decodeState(t, body)
	assert.Equal(t, "reminders", state.Tab)
	assert.Equal(t, 29, state.Night)
}

func TestAPIDraft(t *testing.T) {
	ts := startTestServer(t, nil)
	sess := openSession(t, ts)

	resp, body := doJSON(t, ts, stdhttp.MethodPut, "/api/state/draft", sess.Token, TextRequest{Text: "how do"})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "how do", decodeState(t, body).Draft)
}

func TestAPIChatReplyArrivesAfterUserMessage(t *testing.T) {
	ts := startTestServer(t, nil)
	sess := openSession(t, ts)

	doJSON(t, ts, stdhttp.MethodPut, "/api/state/draft", sess.Token, TextRequest{Text: "What is Ramadan"})
	resp, body := doJSON(t, ts, stdhttp.MethodPost, "/api/chat", sess.Token, TextRequest{Text: "What is Ramadan"})
	require.Equal(t, stdhttp.StatusAccepted, resp.StatusCode)

	state := decodeState(t, body)
	require.Len(t, state.Messages, 2)
	assert.True(t, state.Messages[1].FromUser)
	assert.Equal(t, "What is Ramadan", state.Messages[1].Text)
	assert.Empty(t, state.Draft)

	var final proto.State
	require.Eventually(t, func() bool {
		_, body := doJSON(t, ts, stdhttp.MethodGet, "/api/state", sess.Token, nil)
		final = decodeState(t, body)
		return len(final.Messages) == 3
	}, 2*time.Second, 10*time.Millisecond)

	reply := final.Messages[2]
	assert.False(t, reply.FromUser)
	assert.Equal(t, qa.Answer("what is ramadan"), reply.Text)
	assert.Equal(t, 3, reply.Seq)
}

func TestAPIChatIgnoresBlank(t *testing.T) {
	ts := startTestServer(t, nil)
	sess := openSession(t, ts)

	for _, text := range []string{"", "   ", "\t\n"} {
		resp, body := doJSON(t, ts, stdhttp.MethodPost, "/api/chat", sess.Token, TextRequest{Text: text})
		require.Equal(t, stdhttp.StatusAccepted, resp.StatusCode)
		assert.Len(t, decodeState(t, body).Messages, 1)
	}
}

func TestAPIAskIsStateless(t *testing.T) {
	ts := startTestServer(t, nil)

	resp, body := doJSON(t, ts, stdhttp.MethodPost, "/api/ask", "", AskRequest{Question: "WHAT BREAKS THE FAST"})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	var out AskResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, qa.Answer("what breaks the fast"), out.Answer)

	_, body = doJSON(t, ts, stdhttp.MethodPost, "/api/ask", "", AskRequest{Question: "tell me a joke"})
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, qa.Fallback, out.Answer)
}

func TestAPIContent(t *testing.T) {
	ts := startTestServer(t, nil)

	resp, body := doJSON(t, ts, stdhttp.MethodGet, "/api/content", "", nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var out ContentResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out.Tabs, 4)
	assert.Equal(t, []int{21, 23, 25, 27, 29}, out.Nights)
	assert.Len(t, out.Supplications, len(content.Supplications()))
	assert.Equal(t, content.Reminders(), out.Reminders)
	assert.Equal(t, content.Activities(), out.Activities)
	assert.Len(t, out.Questions, 5)
}

func TestAPIPrayerTimes(t *testing.T) {
	ts := startTestServer(t, okFetcher())
	sess := openSession(t, ts)

	var times []proto.PrayerTime
	require.Eventually(t, func() bool {
		resp, body := doJSON(t, ts, stdhttp.MethodGet, "/api/prayer-times", sess.Token, nil)
		if resp.StatusCode != stdhttp.StatusOK {
			return false
		}
		return json.Unmarshal(body, &times) == nil
	}, 2*time.Second, 10*time.Millisecond)

	require.Len(t, times, 5)
	assert.Equal(t, proto.PrayerTime{Name: "Fajr", Time: "05:56"}, times[0])
	assert.Equal(t, proto.PrayerTime{Name: "Isha", Time: "20:33"}, times[4])
}

func TestAPIPrayerTimesNoContentOnFailure(t *testing.T) {
	ts := startTestServer(t, failingFetcher())
	sess := openSession(t, ts)

	time.Sleep(50 * time.Millisecond)
	resp, _ := doJSON(t, ts, stdhttp.MethodGet, "/api/prayer-times", sess.Token, nil)
	assert.Equal(t, stdhttp.StatusNoContent, resp.StatusCode)

	resp, body := doJSON(t, ts, stdhttp.MethodGet, "/api/state", sess.Token, nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeState(t, body).PrayerTimes)
}

func TestAPIRejectsMissingAndForeignTokens(t *testing.T) {
	ts := startTestServer(t, nil)

	resp, body := doJSON(t, ts, stdhttp.MethodGet, "/api/state", "", nil)
	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, core.ErrCodeUnauthorized, decodeError(t, body).Code)

	foreign, err := auth.GenerateToken(&auth.JWTConfig{
		Secret:   []byte("another-secret"),
		Issuer:   "ramadan-assistant",
		Audience: sessionAudience,
		TTL:      time.Hour,
	}, "some-session")
	require.NoError(t, err)

	resp, _ = doJSON(t, ts, stdhttp.MethodGet, "/api/state", foreign, nil)
	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
}

func TestAPIUnknownSession(t *testing.T) {
	ts := startTestServer(t, nil)

	token, err := auth.GenerateToken(&auth.JWTConfig{
		Secret:   []byte(testSecret),
		Issuer:   "ramadan-assistant",
		Audience: sessionAudience,
		TTL:      time.Hour,
	}, "never-opened")
	require.NoError(t, err)

	resp, body := doJSON(t, ts, stdhttp.MethodGet, "/api/state", token, nil)
	assert.Equal(t, stdhttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, core.ErrCodeSessionNotFound, decodeError(t, body).Code)
}

func TestSessionOpenedLoggedOnce(t *testing.T) {
	var out syncBuffer
	logger := zerolog.New(&out)
	ts := startTestServerWithLogger(t, nil, &logger)

	openSession(t, ts)
	resp, err := browser(t).Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 2, strings.Count(out.String(), `"message":"session opened"`))
}
