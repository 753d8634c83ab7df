package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/codezero/photomap/pkg/response"
)

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client represents a single WebSocket connection subscribed to one group.
type Client struct {
	ID        string
	GroupID   uuid.UUID
	MemberID  uuid.UUID
	hub       *Hub
	conn      *websocket.Conn
	send      chan WSMessage
	closeOnce sync.Once
	logger    *zap.Logger
}

// Authorizer resolves the member behind token and checks they belong to groupID.
type Authorizer func(ctx context.Context, token string, groupID uuid.UUID) (uuid.UUID, error)

// ServeWs handles the WebSocket upgrade and runs the client loop.
// The token travels in the query string because browsers cannot set headers on upgrade.
func ServeWs(hub *Hub, logger *zap.Logger, authorize Authorizer, allowedOrigins []string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return func(c *gin.Context) {
		groupIDStr := c.Query("groupId")
		token := c.Query("token")
		if groupIDStr == "" || token == "" {
			response.BadRequest(c, "groupId and token required")
			return
		}
		groupID, err := uuid.Parse(groupIDStr)
		if err != nil {
			response.BadRequest(c, "invalid groupId")
			return
		}
		memberID, err := authorize(c.Request.Context(), token, groupID)
		if err != nil {
			response.Error(c, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:       uuid.New().String(),
			GroupID:  groupID,
			MemberID: memberID,
			hub:      hub,
			conn:     conn,
			send:     make(chan WSMessage, 64),
			logger:   logger,
		}
		if err := hub.Register(client); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "group feed unavailable"),
				time.Now().Add(time.Second))
			_ = conn.Close()
			return
		}
		go client.writePump()
		client.readPump()
	}
}

// originChecker allows listed origins; an empty list or "*" allows all.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return len(set) == 0 || set["*"] || origin == "" || set[origin]
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { _ = c.conn.Close() })
}

// readPump only keeps the connection alive; the feed is server-to-client.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		if msg.Event == "ping" {
			select {
			case c.send <- WSMessage{Event: "pong"}:
			default:
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
