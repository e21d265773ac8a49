package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"alerta_social/middleware"
	"alerta_social/model"
	"alerta_social/service"
	"alerta_social/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBufferSize = 256
	handlerTimeout = 5 * time.Second
)

// Client is one live websocket connection of an authenticated identity.
type Client struct {
	ID       uuid.UUID
	UserID   uint
	UserName string
	Conn     *websocket.Conn
	Send     chan []byte
	hub      *Hub
	mu       sync.RWMutex
	closed   bool
}

// Hub owns every live connection: the global set and the private channels.
type Hub struct {
	registry *Registry
	verifier *middleware.Verifier
	notifSvc *service.NotificationService
	presence *service.PresenceService
	validate *validator.Validate
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu       sync.RWMutex
	clients  map[uuid.UUID]*Client
	channels map[string]map[uuid.UUID]*Client
}

var _ service.EventPublisher = (*Hub)(nil)

func NewHub(registry *Registry, verifier *middleware.Verifier, notifSvc *service.NotificationService, presence *service.PresenceService) *Hub {
	return &Hub{
		registry: registry,
		verifier: verifier,
		notifSvc: notifSvc,
		presence: presence,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostWithoutPort(origin)
				return originHost == hostWithoutPort(r.Host) || isLoopback(originHost)
			},
		},
		log:      utils.WithModule("gateway"),
		clients:  make(map[uuid.UUID]*Client),
		channels: make(map[string]map[uuid.UUID]*Client),
	}
}

// wsMessage is the inbound envelope.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleWebSocket verifies the token before upgrading. A refused handshake
// never reaches the upgrade, so no event is written.
func HandleWebSocket(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			tokenString = middleware.BearerToken(c.GetHeader("Authorization"))
		}

		claims, err := hub.verifier.Verify(tokenString)
		if err != nil {
			utils.HandshakeAttempts.WithLabelValues("refused").Inc()
			hub.log.Debug("handshake refused", zap.Error(err))
			utils.Unauthorized(c, "token inválido ou ausente")
			return
		}

		conn, err := hub.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Warn("websocket upgrade failed", zap.Uint("user_id", claims.ID), zap.Error(err))
			return
		}

		client := &Client{
			ID:       uuid.New(),
			UserID:   claims.ID,
			UserName: claims.Name,
			Conn:     conn,
			Send:     make(chan []byte, sendBufferSize),
			hub:      hub,
		}

		if err := hub.join(client); err != nil {
			utils.HandshakeAttempts.WithLabelValues("rejected_limit").Inc()
			hub.reject(client, err)
			return
		}
		utils.HandshakeAttempts.WithLabelValues("accepted").Inc()

		go client.writePump()
		go client.readPump()
	}
}

// join enqueues connected before the client becomes visible to any emitter,
// so it is always the first frame the client reads.
func (h *Hub) join(c *Client) error {
	c.send(model.EventConnected, model.ConnectedEvent{
		Success:   true,
		Message:   "Conectado com sucesso",
		UserID:    c.UserID,
		UserName:  c.UserName,
		Timestamp: time.Now(),
	})

	channel := ChannelFor(c.UserID)

	h.mu.Lock()
	displaced, err := h.registry.Register(c.UserID, c.ID)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.clients[c.ID] = c
	members := h.channels[channel]
	if members == nil {
		members = make(map[uuid.UUID]*Client)
		h.channels[channel] = members
	}
	for _, id := range displaced {
		delete(members, id)
	}
	members[c.ID] = c
	h.mu.Unlock()

	utils.ActiveConnections.Inc()
	h.recordRegistryStats()

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	h.presence.MarkOnline(ctx, c.UserID)

	h.log.Info("client connected",
		zap.Uint("user_id", c.UserID),
		zap.String("client_id", c.ID.String()),
		zap.Int("displaced", len(displaced)))

	count, err := h.notifSvc.UnreadCount(ctx, c.UserID)
	if err != nil {
		h.log.Error("unread count on join failed", zap.Uint("user_id", c.UserID), zap.Error(err))
		c.sendError("Erro ao buscar total de notificações não lidas")
		return nil
	}
	c.send(model.EventUnreadCount, count)
	return nil
}

func (h *Hub) reject(c *Client, err error) {
	message := "Conexão recusada"
	if errors.Is(err, ErrTooManyConnections) {
		message = "Limite de conexões simultâneas atingido"
	}
	h.log.Warn("connection rejected", zap.Uint("user_id", c.UserID), zap.Error(err))

	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	if frame, mErr := json.Marshal(model.Envelope{Type: model.EventError, Data: model.ErrorEvent{Message: message}}); mErr == nil {
		_ = c.Conn.WriteMessage(websocket.TextMessage, frame)
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message))
	_ = c.Conn.Close()
}

// leave is idempotent. Only this connection is unregistered, so a late close
// of a displaced connection leaves the newer mapping in place.
func (h *Hub) leave(c *Client) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.Send)
	c.mu.Unlock()

	channel := ChannelFor(c.UserID)

	h.mu.Lock()
	delete(h.clients, c.ID)
	if members, ok := h.channels[channel]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
	remaining := h.registry.Unregister(c.UserID, c.ID)
	h.mu.Unlock()

	utils.ActiveConnections.Dec()
	h.recordRegistryStats()

	if remaining == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		h.presence.MarkOffline(ctx, c.UserID)
		cancel()
	}

	h.log.Info("client disconnected",
		zap.Uint("user_id", c.UserID),
		zap.String("client_id", c.ID.String()),
		zap.Int("remaining", remaining))
}

// EmitToUser sends to every connection joined to the private channel of userID.
// Events for an identity with no live connection are dropped.
func (h *Hub) EmitToUser(userID uint, event string, data interface{}) bool {
	frame, err := encodeEvent(event, data)
	if err != nil {
		h.log.Error("encode event failed", zap.String("event", event), zap.Error(err))
		return false
	}

	h.mu.RLock()
	members := h.channels[ChannelFor(userID)]
	targets := make([]*Client, 0, len(members))
	for _, c := range members {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := h.deliver(targets, frame)
	if delivered {
		utils.EventsEmitted.WithLabelValues(event, "user").Inc()
	}
	return delivered
}

// Broadcast sends to every connected client.
func (h *Hub) Broadcast(event string, data interface{}) {
	frame, err := encodeEvent(event, data)
	if err != nil {
		h.log.Error("encode event failed", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	h.deliver(targets, frame)
	utils.EventsEmitted.WithLabelValues(event, "global").Inc()
}

func (h *Hub) deliver(targets []*Client, frame []byte) bool {
	delivered := false
	for _, c := range targets {
		switch c.enqueue(frame) {
		case enqueueOK:
			delivered = true
		case enqueueFull:
			h.log.Warn("send buffer full, dropping connection",
				zap.Uint("user_id", c.UserID), zap.String("client_id", c.ID.String()))
			go h.leave(c)
		}
	}
	return delivered
}

// IsOnline reports whether userID holds a registered connection on this process.
func (h *Hub) IsOnline(userID uint) bool {
	return h.registry.IsOnline(userID)
}

// ForceOffline closes every connection of userID, displaced ones included.
func (h *Hub) ForceOffline(userID uint) int {
	h.registry.UnregisterAll(userID)
	h.recordRegistryStats()

	h.mu.RLock()
	var targets []*Client
	for _, c := range h.clients {
		if c.UserID == userID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.leave(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	h.presence.MarkOffline(ctx, userID)
	return len(targets)
}

// CloseAll disconnects every client. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.leave(c)
	}
}

func (h *Hub) recordRegistryStats() {
	users, conns := h.registry.Stats()
	utils.OnlineUsers.Set(float64(users))
	utils.RegisteredConnections.Set(float64(conns))
}

// readPump processes inbound events in arrival order.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("unexpected close", zap.Uint("user_id", c.UserID), zap.Error(err))
			}
			return
		}
		c.dispatch(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) dispatch(raw []byte) {
	var msg wsMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
		c.sendError("Formato de mensagem inválido")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	switch msg.Type {
	case model.EventRequestNotifications:
		c.handleRequestNotifications(ctx)
	case model.EventMarkRead:
		c.handleMarkRead(ctx, msg.Data)
	case model.EventMarkAllRead:
		c.handleMarkAllRead(ctx)
	case model.EventHeartbeat:
		c.hub.presence.MarkOnline(ctx, c.UserID)
	default:
		c.sendError(fmt.Sprintf("Tipo de evento desconhecido: %s", msg.Type))
	}
}

func (c *Client) handleRequestNotifications(ctx context.Context) {
	items, err := c.hub.notifSvc.ListRecent(ctx, c.UserID)
	if err != nil {
		c.hub.log.Error("list notifications failed", zap.Uint("user_id", c.UserID), zap.Error(err))
		c.sendError("Erro ao buscar notificações")
		return
	}
	c.send(model.EventNotificationList, items)
}

func (c *Client) handleMarkRead(ctx context.Context, data json.RawMessage) {
	req, err := c.hub.parseMarkRead(data)
	if err != nil {
		c.sendError("ID de notificação inválido")
		return
	}

	if _, err := c.hub.notifSvc.MarkRead(ctx, c.UserID, req.NotificationID); err != nil {
		c.hub.log.Error("mark read failed", zap.Uint("user_id", c.UserID), zap.Error(err))
		c.sendError("Erro ao marcar notificação como lida")
		return
	}
	c.refreshUnreadCount(ctx)
}

func (c *Client) handleMarkAllRead(ctx context.Context) {
	if err := c.hub.notifSvc.MarkAllRead(ctx, c.UserID); err != nil {
		c.hub.log.Error("mark all read failed", zap.Uint("user_id", c.UserID), zap.Error(err))
		c.sendError("Erro ao marcar notificações como lidas")
		return
	}
	c.publishUnreadCount(0)
}

// refreshUnreadCount recounts after a write and publishes the result.
func (c *Client) refreshUnreadCount(ctx context.Context) {
	count, err := c.hub.notifSvc.UnreadCount(ctx, c.UserID)
	if err != nil {
		c.hub.log.Error("unread count failed", zap.Uint("user_id", c.UserID), zap.Error(err))
		c.sendError("Erro ao buscar total de notificações não lidas")
		return
	}
	c.publishUnreadCount(count)
}

// publishUnreadCount updates every connection on the private channel and the
// caller itself when it is not a member (a displaced connection).
func (c *Client) publishUnreadCount(count int64) {
	c.hub.EmitToUser(c.UserID, model.EventUnreadCount, count)
	if !c.hub.registry.IsRegistered(c.UserID, c.ID) {
		c.send(model.EventUnreadCount, count)
	}
}

// parseMarkRead accepts a bare id or {"notificacaoId": id}.
func (h *Hub) parseMarkRead(data json.RawMessage) (model.MarkReadRequest, error) {
	var req model.MarkReadRequest
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return req, errors.New("missing payload")
	}

	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &req); err != nil {
			return req, err
		}
	} else {
		var id uint
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return req, err
		}
		req.NotificationID = id
	}

	if err := h.validate.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

type enqueueResult int

const (
	enqueueOK enqueueResult = iota
	enqueueFull
	enqueueClosed
)

func (c *Client) enqueue(frame []byte) enqueueResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return enqueueClosed
	}
	select {
	case c.Send <- frame:
		return enqueueOK
	default:
		return enqueueFull
	}
}

// send writes a reply to this connection only.
func (c *Client) send(event string, data interface{}) {
	frame, err := encodeEvent(event, data)
	if err != nil {
		c.hub.log.Error("encode event failed", zap.String("event", event), zap.Error(err))
		return
	}
	if c.enqueue(frame) == enqueueFull {
		c.hub.log.Warn("send buffer full, dropping connection", zap.Uint("user_id", c.UserID))
		go c.hub.leave(c)
	}
}

func (c *Client) sendError(message string) {
	c.send(model.EventError, model.ErrorEvent{Message: message})
}

func encodeEvent(event string, data interface{}) ([]byte, error) {
	return json.Marshal(model.Envelope{Type: event, Data: data})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		if parsed, err := url.Parse(host); err == nil {
			return hostWithoutPort(parsed.Host)
		}
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
