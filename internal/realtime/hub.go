package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains group_id -> set of connections and fans group events out to them.
// With a Redis bridge, events go through Redis so every instance delivers them once.
type Hub struct {
	// groupID -> map[clientID]*Client
	groups map[uuid.UUID]map[string]*Client
	subs   map[uuid.UUID]func() // cancel Redis subscription per group
	mu     sync.RWMutex
	// subMu serializes subscription setup and teardown; it is taken before mu.
	subMu    sync.Mutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishGroupEvent(ctx context.Context, groupID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to group channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeGroup(groupID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. Both Redis arguments may be nil for a single instance.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		groups:   make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to a group room. The first client of a group starts its Redis
// subscription; if that fails the client is not registered and the error is returned.
func (h *Hub) Register(c *Client) error {
	groupID := c.GroupID
	h.subMu.Lock()
	defer h.subMu.Unlock()

	h.mu.RLock()
	_, subscribed := h.subs[groupID]
	h.mu.RUnlock()
	if h.redisSub != nil && !subscribed {
		cancel, err := h.redisSub.SubscribeGroup(groupID, func(event string, payload []byte) {
			h.deliver(groupID, event, payload)
		})
		if err != nil {
			h.logger.Warn("group subscription failed", zap.String("group_id", groupID.String()), zap.Error(err))
			return fmt.Errorf("subscribe group %s: %w", groupID, err)
		}
		h.mu.Lock()
		h.subs[groupID] = cancel
		h.mu.Unlock()
	}

	h.mu.Lock()
	if h.groups[groupID] == nil {
		h.groups[groupID] = make(map[string]*Client)
	}
	h.groups[groupID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined group feed", zap.String("client_id", c.ID), zap.String("group_id", groupID.String()))
	return nil
}

// Unregister removes a client from a group room. Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	var cancel func()
	h.mu.Lock()
	m, ok := h.groups[c.GroupID]
	if ok {
		if _, ok := m[c.ID]; ok {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.groups, c.GroupID)
			cancel = h.subs[c.GroupID]
			delete(h.subs, c.GroupID)
		}
	}
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	h.logger.Debug("client left group feed", zap.String("client_id", c.ID), zap.String("group_id", c.GroupID.String()))
}

// Publish implements Publisher.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Warn("marshal group event", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	if h.redis != nil {
		err := h.redis.PublishGroupEvent(ctx, ev.GroupID, ev.Type, data)
		if err == nil {
			return
		}
		h.logger.Warn("redis publish failed, delivering locally", zap.String("type", ev.Type), zap.Error(err))
	}
	h.deliver(ev.GroupID, ev.Type, data)
}

// DisconnectGroup drops every local connection of a group (e.g. after it is deleted).
func (h *Hub) DisconnectGroup(groupID uuid.UUID) {
	h.disconnect(groupID, func(*Client) bool { return true })
}

// DisconnectMember drops the local connections of memberID to a group feed.
func (h *Hub) DisconnectMember(groupID, memberID uuid.UUID) {
	h.disconnect(groupID, func(c *Client) bool { return c.MemberID == memberID })
}

// disconnect unregisters matching clients, so they get no further events, then closes them.
// Messages already queued are still written before the close frame.
func (h *Hub) disconnect(groupID uuid.UUID, match func(*Client) bool) {
	h.mu.RLock()
	var clients []*Client
	for _, c := range h.groups[groupID] {
		if match(c) {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.Unregister(c)
	}
	if len(clients) > 0 {
		h.logger.Debug("group feed connections dropped", zap.String("group_id", groupID.String()), zap.Int("count", len(clients)))
	}
}

type revokedMember struct {
	Payload struct {
		MemberID uuid.UUID `json:"memberId"`
	} `json:"payload"`
}

// deliver broadcasts an event locally, then drops the connections it revokes.
// Every instance runs this for events from Redis, so a removal on one instance
// closes the member's feed on all of them.
func (h *Hub) deliver(groupID uuid.UUID, event string, data []byte) {
	h.broadcast(groupID, event, data)
	switch event {
	case EventGroupDeleted:
		h.DisconnectGroup(groupID)
	case EventMemberLeft, EventMemberRemoved:
		var ev revokedMember
		if err := json.Unmarshal(data, &ev); err != nil || ev.Payload.MemberID == uuid.Nil {
			h.logger.Debug("member event without member id", zap.String("type", event))
			return
		}
		h.DisconnectMember(groupID, ev.Payload.MemberID)
	}
}

// broadcast sends a message to all local clients of a group.
func (h *Hub) broadcast(groupID uuid.UUID, event string, data []byte) {
	msg := WSMessage{Event: event, Data: json.RawMessage(data)}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.groups[groupID] {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("client buffer full, event dropped", zap.String("client_id", c.ID))
		}
	}
}

// Subscribers returns the number of connected clients in a group.
func (h *Hub) Subscribers(groupID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[groupID])
}
