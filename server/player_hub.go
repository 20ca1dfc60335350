package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"MusicSphere/core/keymap"
	"MusicSphere/core/player"
	"MusicSphere/core/session"
	"MusicSphere/logger"

	"github.com/gorilla/websocket"
)

// PlayerMessageType 播放器通道消息类型
type PlayerMessageType string

const (
	// 服务端 -> 客户端
	MsgTypeCommand PlayerMessageType = "command" // 播放器指令
	MsgTypeState   PlayerMessageType = "state"   // 会话状态
	MsgTypeError   PlayerMessageType = "error"   // 播放失败，客户端也可用它上报媒体错误
	MsgTypePong    PlayerMessageType = "pong"

	// 客户端 -> 服务端
	MsgTypePing     PlayerMessageType = "ping"
	MsgTypeEnded    PlayerMessageType = "ended"    // 自然播放结束
	MsgTypeFault    PlayerMessageType = "fault"    // 同 error
	MsgTypeProgress PlayerMessageType = "progress" // 播放进度
	MsgTypeKey      PlayerMessageType = "key"      // 键盘事件
)

const (
	sendBufferSize = 256
	readLimit      = 4096
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	writeWait      = 10 * time.Second
)

var errClientClosed = errors.New("player client closed")

// PlayerMessage WebSocket 消息结构
type PlayerMessage struct {
	Type      PlayerMessageType `json:"type"`
	Data      json.RawMessage   `json:"data,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// ReportData 客户端播放器上报
type ReportData struct {
	TrackID  string  `json:"trackId"`
	Position float64 `json:"position,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// PlayerClient 一个用户的播放器连接
type PlayerClient struct {
	hub      *PlayerHub
	Conn     *websocket.Conn
	Send     chan []byte
	UserID   int64
	Username string

	session *session.Session
	mode    player.Kind // 连接时请求的播放模式，可为空

	mu     sync.Mutex
	closed bool
}

// PlayerHub 播放器 WebSocket 管理中心，每个用户只保留一个连接
type PlayerHub struct {
	sessions *session.Manager
	keymap   *keymap.Keymap

	clients map[int64]*PlayerClient

	register   chan *PlayerClient
	unregister chan *PlayerClient

	mu   sync.RWMutex
	done chan struct{}
	once sync.Once
}

// NewPlayerHub 创建播放器 Hub
func NewPlayerHub(sessions *session.Manager, km *keymap.Keymap) *PlayerHub {
	return &PlayerHub{
		sessions:   sessions,
		keymap:     km,
		clients:    make(map[int64]*PlayerClient),
		register:   make(chan *PlayerClient),
		unregister: make(chan *PlayerClient),
		done:       make(chan struct{}),
	}
}

// Run 启动 Hub 主循环
func (h *PlayerHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop 停止 Hub，可重复调用
func (h *PlayerHub) Stop() {
	h.once.Do(func() { close(h.done) })
}

// Register 注册客户端
func (h *PlayerHub) Register(client *PlayerClient) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

// Unregister 注销客户端
func (h *PlayerHub) Unregister(client *PlayerClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Client 获取用户当前连接
func (h *PlayerHub) Client(userID int64) *PlayerClient {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[userID]
}

// Count 在线播放器数量
func (h *PlayerHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *PlayerHub) registerClient(client *PlayerClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// 同一用户的旧连接被踢掉
	if old, exists := h.clients[client.UserID]; exists {
		old.close()
		logger.Info("player client replaced", logger.Int64("user", client.UserID))
	}
	h.clients[client.UserID] = client

	// 指令和状态在会话锁内按顺序进入同一个发送队列
	client.session.Attach(player.SinkFunc(client.SendCommand), client)
	if client.mode != "" {
		client.session.SetMode(client.mode)
	}

	logger.Info("player client registered",
		logger.Int64("user", client.UserID),
		logger.String("username", client.Username))
}

func (h *PlayerHub) unregisterClient(client *PlayerClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// 已被新连接替换时不能动会话的 sink
	if h.clients[client.UserID] == client {
		delete(h.clients, client.UserID)
		client.session.Attach(nil, nil)
	}
	client.close()

	logger.Info("player client unregistered", logger.Int64("user", client.UserID))
}

func (h *PlayerHub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.session.Attach(nil, nil)
		client.close()
	}
	h.clients = make(map[int64]*PlayerClient)
}

// ========== PlayerClient ==========

// SendCommand is the session's player.Sink. Commands are queued, never written inline.
func (c *PlayerClient) SendCommand(cmd player.Command) error {
	if !c.sendMessage(MsgTypeCommand, cmd) {
		return errClientClosed
	}
	return nil
}

func (c *PlayerClient) sendMessage(t PlayerMessageType, payload interface{}) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("encode player message failed", logger.ErrorField(err))
		return false
	}
	msg, err := json.Marshal(PlayerMessage{Type: t, Data: data, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		return false
	}
	return c.enqueue(msg)
}

func (c *PlayerClient) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		// 发送缓冲区满，丢弃
		logger.Warn("player send buffer full", logger.Int64("user", c.UserID))
		return false
	}
}

func (c *PlayerClient) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.Send)
	c.mu.Unlock()
}

// StateChanged implements session.Observer.
func (c *PlayerClient) StateChanged(st session.State) {
	c.sendMessage(MsgTypeState, st)
}

// Failed implements session.Observer.
func (c *PlayerClient) Failed(e session.ErrorEvent) {
	c.sendMessage(MsgTypeError, map[string]string{"trackId": e.TrackID, "message": e.Message})
}

// ReadPump 读取消息循环
func (c *PlayerClient) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error",
					logger.ErrorField(err),
					logger.Int64("user", c.UserID))
			}
			return
		}

		var msg PlayerMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Warn("invalid message format", logger.ErrorField(err), logger.Int64("user", c.UserID))
			continue
		}
		c.handle(&msg)
	}
}

func (c *PlayerClient) handle(msg *PlayerMessage) {
	switch msg.Type {
	case MsgTypePing:
		c.sendMessage(MsgTypePong, nil)

	case MsgTypeEnded, MsgTypeFault, MsgTypeError, MsgTypeProgress:
		var report ReportData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &report); err != nil {
				logger.Warn("invalid report", logger.ErrorField(err), logger.String("type", string(msg.Type)))
				return
			}
		}
		switch msg.Type {
		case MsgTypeEnded:
			c.session.ReportEnded(report.TrackID)
		case MsgTypeFault, MsgTypeError:
			c.session.ReportFault(report.TrackID, report.Message)
		default:
			c.session.ReportProgress(report.TrackID, report.Position, report.Duration)
		}

	case MsgTypeKey:
		var ev keymap.KeyEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Warn("invalid key event", logger.ErrorField(err))
			return
		}
		c.hub.keymap.Dispatch(c.session, ev)

	default:
		logger.Debug("unknown player message", logger.String("type", string(msg.Type)))
	}
}

// WritePump 写入消息循环
func (c *PlayerClient) WritePump() {
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
				// Hub 关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// 合并发送队列中的消息
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
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

var playerUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// PlayerWebSocketHandler GET /ws/player?token=...&mode=audio|video
// 浏览器 WebSocket 无法设置 header，token 走查询参数
func (h *APIHandler) PlayerWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusUnauthorized, "token is required")
		return
	}
	claims, err := h.issuer.ParseToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var mode player.Kind
	if m := r.URL.Query().Get("mode"); m != "" {
		if mode, err = player.ParseKind(m); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	conn, err := playerUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket 升级失败", logger.ErrorField(err))
		return
	}

	client := &PlayerClient{
		hub:      h.hub,
		Conn:     conn,
		Send:     make(chan []byte, sendBufferSize),
		UserID:   claims.UserID,
		Username: claims.Username,
		session:  h.sessions.Get(claims.UserID),
		mode:     mode,
	}
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(context.Background())

	logger.Info("播放器连接建立",
		logger.Int64("userId", claims.UserID),
		logger.String("username", claims.Username))
}
