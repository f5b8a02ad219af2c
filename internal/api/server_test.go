package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chatroom/presence-api/internal/config"
	"github.com/chatroom/presence-api/internal/domain"
	"github.com/chatroom/presence-api/internal/repository/memory"
	"github.com/chatroom/presence-api/internal/service"
	"github.com/chatroom/presence-api/internal/stream"
	"github.com/chatroom/presence-api/internal/worker"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		API: &config.APIConfig{
			Environment:        "development",
			Port:               "5000",
			BaseURL:            "localhost:5000",
			AllowedCORSDomains: []string{"*"},
		},
		Gin:      &config.GinConfig{Mode: "test"},
		Store:    &config.StoreConfig{Driver: config.StoreDriverMemory},
		Postgres: &config.PostgresConfig{},
		Presence: &config.PresenceConfig{ReapInterval: 15 * time.Second, StaleAfter: 10 * time.Second},
		Chat: &config.ChatConfig{
			BroadcastTarget: domain.DefaultBroadcastTarget,
			JoinNotice:      "entra na sala...",
			LeaveNotice:     "sai da sala...",

			MaxNameLength:        100,
			ReserveBroadcastName: true,
		},
	}
}

type testEnv struct {
	server    *Server
	hub       *stream.Hub
	messages  *memory.MessageStore
	published *stream.PublishingStore
}

func newTestEnv(t *testing.T, participants service.ParticipantRepository) *testEnv {
	t.Helper()

	if participants == nil {
		participants = memory.NewParticipantStore()
	}
	messages := memory.NewMessageStore()
	hub := stream.NewHub(domain.DefaultBroadcastTarget)
	t.Cleanup(hub.Close)

	published := stream.NewPublishingStore(messages, hub)

	return &testEnv{
		server:    NewServer(testConfig(), participants, published, hub, domain.SystemClock{}),
		hub:       hub,
		messages:  messages,
		published: published,
	}
}

func (e *testEnv) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("User", user)
	}

	rr := httptest.NewRecorder()
	e.server.Router.ServeHTTP(rr, req)

	return rr
}

func (e *testEnv) register(t *testing.T, name string) {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/participants", "", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func decodeMessages(t *testing.T, rr *httptest.ResponseRecorder) []domain.Message {
	t.Helper()
	var messages []domain.Message
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &messages))
	return messages
}

func TestHealthcheck(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodPost, "/participants", "", map[string]string{"name": "alice"})
	require.Equal(t, http.StatusCreated, rr.Code)

	var p domain.Participant
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "alice", p.Name)
	assert.NotZero(t, p.LastStatus)

	rr = env.do(t, http.MethodPost, "/participants", "", map[string]string{"name": "alice"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = env.do(t, http.MethodPost, "/participants", "", map[string]string{"name": "  alice  "})
	assert.Equal(t, http.StatusConflict, rr.Code, "names are trimmed before the uniqueness check")
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, body := range []any{
		map[string]string{"name": ""},
		map[string]string{"name": "   "},
		map[string]string{},
		map[string]string{"name": "todos"},
	} {
		rr := env.do(t, http.MethodPost, "/participants", "", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "%v", body)
	}

	rr := env.do(t, http.MethodPost, "/participants", "", map[string]any{"name": 123})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/participants", strings.NewReader("{not json"))
	rr = httptest.NewRecorder()
	env.server.Router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetParticipants(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "bob")
	env.register(t, "alice")

	rr := env.do(t, http.MethodGet, "/participants", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var participants []domain.Participant
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &participants))
	require.Len(t, participants, 2)
	assert.Equal(t, "alice", participants[0].Name)
	assert.Equal(t, "bob", participants[1].Name)
}

func TestPostMessage(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice")

	rr := env.do(t, http.MethodPost, "/messages", "alice", map[string]string{"to": "Todos", "text": "hi", "type": "message"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var saved domain.Message
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &saved))
	assert.Equal(t, "alice", saved.From)
	assert.Regexp(t, `^\d{2}:\d{2}:\d{2}$`, saved.Time)

	rr = env.do(t, http.MethodPost, "/messages", "ghost", map[string]string{"to": "Todos", "text": "boo", "type": "message"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(t, http.MethodPost, "/messages", "", map[string]string{"to": "Todos", "text": "boo", "type": "message"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	for _, body := range []map[string]string{
		{"text": "hi", "type": "message"},
		{"to": "Todos", "type": "message"},
		{"to": "Todos", "text": "hi"},
		{"to": "Todos", "text": "hi", "type": "status"},
	} {
		rr = env.do(t, http.MethodPost, "/messages", "alice", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "%v", body)
	}

	rr = env.do(t, http.MethodPost, "/messages", "alice", map[string]any{"to": "Todos", "text": 5, "type": "message"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	all, err := env.messages.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2, "only the arrival notice and the valid message are stored")
}

func TestGetMessages(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, name := range []string{"alice", "bob", "carol"} {
		env.register(t, name)
	}

	env.do(t, http.MethodPost, "/messages", "bob", map[string]string{"to": "Todos", "text": "m1", "type": "message"})
	env.do(t, http.MethodPost, "/messages", "carol", map[string]string{"to": "bob", "text": "m2", "type": "private_message"})
	env.do(t, http.MethodPost, "/messages", "bob", map[string]string{"to": "alice", "text": "m3", "type": "private_message"})

	rr := env.do(t, http.MethodGet, "/messages", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	messages := decodeMessages(t, rr)
	require.Len(t, messages, 5)
	for _, m := range messages {
		assert.NotEqual(t, "m2", m.Text)
	}
	assert.Equal(t, "m1", messages[3].Text)
	assert.Equal(t, "m3", messages[4].Text)

	rr = env.do(t, http.MethodGet, "/messages?limit=1", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	messages = decodeMessages(t, rr)
	require.Len(t, messages, 1)
	assert.Equal(t, "m3", messages[0].Text)

	rr = env.do(t, http.MethodGet, "/messages?limit=100", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeMessages(t, rr), 5)

	for _, q := range []string{"limit=0", "limit=-2", "limit=abc", "limit="} {
		rr = env.do(t, http.MethodGet, "/messages?"+q, "alice", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, q)
	}

	rr = env.do(t, http.MethodGet, "/messages", "ghost", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHeartbeat(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice")

	rr := env.do(t, http.MethodPost, "/status", "alice", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/status", "ghost", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodPost, "/status", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

type brokenParticipants struct {
	*memory.ParticipantStore
}

func (brokenParticipants) Create(context.Context, domain.Participant) (domain.Participant, error) {
	return domain.Participant{}, errors.New("connection refused")
}

func (brokenParticipants) UpdateLastStatus(context.Context, string, int64) error {
	return errors.New("connection refused")
}

func TestStoreErrorsAreInternal(t *testing.T) {
	env := newTestEnv(t, brokenParticipants{memory.NewParticipantStore()})

	rr := env.do(t, http.MethodPost, "/participants", "", map[string]string{"name": "alice"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "connection refused")

	rr = env.do(t, http.MethodPost, "/status", "alice", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestStream(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice")
	env.register(t, "bob")

	srv := httptest.NewServer(env.server.Router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/messages/stream"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?user=ghost", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?user=alice", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	env.do(t, http.MethodPost, "/messages", "bob", map[string]string{"to": "carol", "text": "not for alice", "type": "private_message"})
	env.do(t, http.MethodPost, "/messages", "bob", map[string]string{"to": "alice", "text": "for alice", "type": "private_message"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got domain.Message
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "for alice", got.Text)
	assert.Equal(t, domain.MessageTypePrivate, got.Type)
}

func TestStream_ClosedWhenParticipantEvicted(t *testing.T) {
	ctx := context.Background()
	participants := memory.NewParticipantStore()
	env := newTestEnv(t, participants)
	env.register(t, "alice")
	env.register(t, "bob")

	srv := httptest.NewServer(env.server.Router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/messages/stream"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?user=bob", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return env.hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	// Alice keeps heartbeating, bob goes quiet.
	later := &domain.FixedClock{At: time.Now().Add(20 * time.Second)}
	require.NoError(t, participants.UpdateLastStatus(ctx, "alice", later.Now().UnixMilli()))

	conf := testConfig()
	reaper := worker.NewReaper(participants, env.published, env.hub, later, conf.Presence, conf.Chat, zaptest.NewLogger(t))
	evicted, err := reaper.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"bob"}, evicted)
	assert.Equal(t, 0, env.hub.Len())

	// A new bob and a private message to him never reach the old stream.
	env.register(t, "bob")
	rr := env.do(t, http.MethodPost, "/messages", "alice", map[string]string{"to": "bob", "text": "for the new bob", "type": "private_message"})
	require.Equal(t, http.StatusCreated, rr.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived), "%v", err)
			break
		}
		assert.NotContains(t, string(payload), "for the new bob")
	}
}
