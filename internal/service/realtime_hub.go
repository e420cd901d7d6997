package service

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/pkg/logger"
	"aiedu_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageSize  = 512
	realtimeChannel = "realtime_channel"

	TopicNews  = "news"
	TopicPaths = "paths"
)

// DraftTopic 单个草稿的订阅主题
func DraftTopic(draftID string) string {
	return "draft:" + draftID
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage 推送给客户端的事件
type WSMessage struct {
	Type  string      `json:"type"`
	Topic string      `json:"topic,omitempty"`
	Data  interface{} `json:"data"`
}

// clientCommand 客户端上行指令: {"type":"subscribe","topic":"news"}
type clientCommand struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

type Client struct {
	Hub     *RealtimeHub
	Conn    *websocket.Conn
	Send    chan []byte
	UserID  string
	Role    model.UserRole
	Limiter *rate.Limiter

	mu     sync.RWMutex
	topics map[string]bool
}

func (c *Client) subscribe(topic string) {
	c.mu.Lock()
	c.topics[topic] = true
	c.mu.Unlock()
}

func (c *Client) unsubscribe(topic string) {
	c.mu.Lock()
	delete(c.topics, topic)
	c.mu.Unlock()
}

func (c *Client) subscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics[topic]
}

// canSubscribe 草稿主题只对编辑和管理员开放
func canSubscribe(topic string, role model.UserRole) bool {
	switch {
	case topic == TopicNews, topic == TopicPaths:
		return true
	case strings.HasPrefix(topic, "draft:") && len(topic) > len("draft:"):
		return role == model.Editor || role == model.Admin
	}
	return false
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.ctx.Done():
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.String("userId", c.UserID))
			}
			break
		}

		if !c.Limiter.Allow() {
			continue
		}

		var cmd clientCommand
		if err := json.Unmarshal(message, &cmd); err != nil || !canSubscribe(cmd.Topic, c.Role) {
			continue
		}
		switch cmd.Type {
		case "subscribe":
			c.subscribe(cmd.Topic)
		case "unsubscribe":
			c.unsubscribe(cmd.Topic)
		}
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
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 每条事件单独成帧，保证客户端按发布顺序逐条解析
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type pubSubMessage struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// RealtimeHub 按主题推送数据变更，配置 Redis 时通过 pub/sub 在多实例间广播
type RealtimeHub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	Redis      *redis.Client
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewRealtimeHub(rdb *redis.Client) *RealtimeHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &RealtimeHub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		Redis:      rdb,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (h *RealtimeHub) Run() {
	if h.Redis != nil {
		pubsub := h.Redis.Subscribe(h.ctx, realtimeChannel)
		go func() {
			defer pubsub.Close()
			for msg := range pubsub.Channel() {
				var ps pubSubMessage
				if err := json.Unmarshal([]byte(msg.Payload), &ps); err != nil {
					logger.Log.Error("PubSub unmarshal error", zap.Error(err))
					continue
				}
				h.deliverLocal(ps.Topic, ps.Payload)
			}
		}()
	}

	for {
		select {
		case <-h.ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			monitoring.RealtimeConnections.Inc()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				monitoring.RealtimeConnections.Dec()
			}
			h.mu.Unlock()
		}
	}
}

// Publish 向订阅了 topic 的连接推送事件
func (h *RealtimeHub) Publish(topic, eventType string, data interface{}) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(WSMessage{Type: eventType, Topic: topic, Data: data})
	if err != nil {
		logger.Log.Error("Realtime marshal error", zap.Error(err), zap.String("topic", topic))
		return
	}

	if h.Redis != nil {
		body, _ := json.Marshal(pubSubMessage{Topic: topic, Payload: payload})
		err := h.Redis.Publish(h.ctx, realtimeChannel, body).Err()
		if err == nil {
			return
		}
		logger.Log.Warn("Realtime publish via redis failed, delivering locally", zap.Error(err))
	}
	h.deliverLocal(topic, payload)
}

func (h *RealtimeHub) deliverLocal(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !client.subscribed(topic) {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			logger.Log.Warn("Realtime client send buffer full, dropping event",
				zap.String("userId", client.UserID), zap.String("topic", topic))
		}
	}
}

// Stop 关闭所有连接
func (h *RealtimeHub) Stop() {
	h.cancel()
	h.mu.Lock()
	n := len(h.clients)
	for client := range h.clients {
		close(client.Send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
	monitoring.RealtimeConnections.Set(0)
	logger.Log.Info("RealtimeHub stopped", zap.Int("closedConnections", n))
}

func ServeWs(hub *RealtimeHub, w http.ResponseWriter, r *http.Request, userID string, role model.UserRole) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.String("userId", userID))
		return
	}
	client := &Client{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		UserID:  userID,
		Role:    role,
		Limiter: rate.NewLimiter(rate.Limit(10), 20),
		topics:  make(map[string]bool),
	}
	for _, t := range strings.Split(r.URL.Query().Get("topics"), ",") {
		if t = strings.TrimSpace(t); canSubscribe(t, role) {
			client.topics[t] = true
		}
	}
	select {
	case hub.register <- client:
	case <-hub.ctx.Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
