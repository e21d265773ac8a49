package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"alerta_social/middleware"
	"alerta_social/model"
	"alerta_social/service"
	"alerta_social/utils/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	APIPrefix   = "/api/v1"
	recvTimeout = 2 * time.Second
	quietPeriod = 300 * time.Millisecond
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv is a full server wired the way main wires it, on sqlite and miniredis.
type testEnv struct {
	t        *testing.T
	db       *gorm.DB
	redis    *miniredis.Miniredis
	server   *httptest.Server
	registry *Registry
	hub      *Hub
	notifSvc *service.NotificationService
}

func newTestEnv(t *testing.T, policy SessionPolicy, maxPerUser int) *testEnv {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	verifier, err := middleware.NewVerifier(testutil.TestSecret)
	require.NoError(t, err)

	notifSvc := service.NewNotificationService(db, service.DefaultListLimit)
	templateSvc := service.NewNotificationTemplateService(db)
	presence := service.NewPresenceService(rdb, 30*time.Second)
	userSvc := service.NewUserService(db)
	postSvc := service.NewPostService(db)
	friendSvc := service.NewFriendshipService(db)

	registry := NewRegistry(policy, maxPerUser)
	hub := NewHub(registry, verifier, notifSvc, presence)
	emitters := service.NewNotificationEmitter(notifSvc, templateSvc, hub)

	router := NewRouter(Handlers{
		Hub:           hub,
		Verifier:      verifier,
		Posts:         NewPostHandler(postSvc, userSvc, emitters),
		Friendships:   NewFriendshipHandler(friendSvc, userSvc, emitters),
		Notifications: NewNotificationHandler(notifSvc, hub, service.DefaultListLimit),
		Sessions:      NewSessionHandler(hub, friendSvc, presence),
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.CloseAll()
		server.Close()
	})

	return &testEnv{
		t:        t,
		db:       db,
		redis:    mr,
		server:   server,
		registry: registry,
		hub:      hub,
		notifSvc: notifSvc,
	}
}

// TestUser is a persisted user with a valid token.
type TestUser struct {
	*model.User
	Token string
}

func (e *testEnv) createTestUser(name string) *TestUser {
	e.t.Helper()
	user := testutil.MustCreateUser(e.t, e.db, name)
	return &TestUser{User: user, Token: testutil.SignToken(e.t, testutil.TestSecret, user, time.Hour)}
}

func (e *testEnv) wsURL() string {
	return "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws"
}

// connectWebSocket dials the gateway without consuming any frame.
func (e *testEnv) connectWebSocket(token string) (*websocket.Conn, *http.Response, error) {
	conn, resp, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s?token=%s", e.wsURL(), token), nil)
	if conn != nil {
		e.t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, resp, err
}

// join dials and consumes connected plus total_nao_lidas, returning the unread total.
// Once both frames are read the connection is registered.
func (e *testEnv) join(user *TestUser) (*websocket.Conn, int) {
	e.t.Helper()

	conn, _, err := e.connectWebSocket(user.Token)
	require.NoError(e.t, err)

	connected, err := wsReceiveRaw(conn, recvTimeout)
	require.NoError(e.t, err)
	require.Equal(e.t, model.EventConnected, connected["type"])

	unread, err := wsReceiveRaw(conn, recvTimeout)
	require.NoError(e.t, err)
	require.Equal(e.t, model.EventUnreadCount, unread["type"])

	return conn, int(unread["data"].(float64))
}

// httpRequest sends an authenticated JSON request and returns the status and data field.
func (e *testEnv) httpRequest(method, path, token string, body interface{}) (int, map[string]interface{}) {
	e.t.Helper()

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		require.NoError(e.t, err)
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, e.server.URL+path, bodyReader)
	require.NoError(e.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, parseResponse(respBody)
}

func (e *testEnv) seedNotification(recipient, sender *TestUser, notifType string) *model.Notification {
	e.t.Helper()
	n, err := e.notifSvc.Create(e.t.Context(), service.CreateNotificationInput{
		RecipientID: recipient.ID,
		SenderID:    sender.ID,
		Type:        notifType,
		Message:     sender.Name + " fez algo",
	})
	require.NoError(e.t, err)
	return n
}

// failNotificationReads makes every SELECT on notificacoes fail while writes
// keep working.
func (e *testEnv) failNotificationReads() {
	e.t.Helper()
	err := e.db.Callback().Query().Before("gorm:query").Register("test:fail_notification_reads", func(tx *gorm.DB) {
		if tx.Statement.Table == "notificacoes" {
			_ = tx.AddError(errors.New("notificacoes unavailable"))
		}
	})
	require.NoError(e.t, err)
}

// dropNotifications removes the notificacoes table so every read and write on it fails.
func (e *testEnv) dropNotifications() {
	e.t.Helper()
	require.NoError(e.t, e.db.Migrator().DropTable(&model.Notification{}))
}

func wsSend(conn *websocket.Conn, msgType string, data interface{}) error {
	return conn.WriteJSON(map[string]interface{}{
		"type": msgType,
		"data": data,
	})
}

func wsReceiveRaw(conn *websocket.Conn, timeout time.Duration) (map[string]interface{}, error) {
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	var msg map[string]interface{}
	err := conn.ReadJSON(&msg)
	return msg, err
}

// wsReceiveMessageType skips frames until msgType arrives.
func wsReceiveMessageType(conn *websocket.Conn, msgType string, timeout time.Duration, maxAttempts int) (map[string]interface{}, error) {
	for i := 0; i < maxAttempts; i++ {
		msg, err := wsReceiveRaw(conn, timeout)
		if err != nil {
			return nil, err
		}
		if msg["type"] == msgType {
			return msg, nil
		}
	}
	return nil, fmt.Errorf("did not receive message type '%s' after %d attempts", msgType, maxAttempts)
}

// requireSilence fails if any frame arrives within quietPeriod.
// The read deadline poisons the connection, so call it last.
func requireSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	msg, err := wsReceiveRaw(conn, quietPeriod)
	require.Error(t, err, "unexpected frame: %v", msg)
}

func dataOf(msg map[string]interface{}) map[string]interface{} {
	data, _ := msg["data"].(map[string]interface{})
	return data
}

func parseResponse(body []byte) map[string]interface{} {
	var response struct {
		Code    int                    `json:"code"`
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
	_ = json.Unmarshal(body, &response)
	if response.Data != nil {
		return response.Data
	}
	var result map[string]interface{}
	_ = json.Unmarshal(body, &result)
	return result
}
