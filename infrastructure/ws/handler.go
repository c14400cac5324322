package ws

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/services"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler upgrades /ws requests into registered live connections.
// Identity is resolved before the upgrade: a request carrying neither a
// usable token nor a userId query parameter is refused with 401 and never
// reaches the registry.
type Handler struct {
	log            *slog.Logger
	registry       contract.IRegistry
	dispatcher     contract.IDispatcher
	chat           services.IChatService
	upgrader       websocket.Upgrader
	sendBufferSize int
	writeTimeout   time.Duration
}

func NewHandler(
	log *slog.Logger,
	registry contract.IRegistry,
	dispatcher contract.IDispatcher,
	chat services.IChatService,
	sendBufferSize int,
	writeTimeout time.Duration,
) *Handler {
	return &Handler{
		log:        log,
		registry:   registry,
		dispatcher: dispatcher,
		chat:       chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sendBufferSize: sendBufferSize,
		writeTimeout:   writeTimeout,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveIdentity(r)
	if !ok {
		h.log.Debug("Refusing websocket handshake, no user identity",
			"remote_addr", r.RemoteAddr)
		http.Error(w, "missing or invalid user identity", http.StatusUnauthorized)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.log.Debug("Websocket upgrade failed", "error", err)
		return
	}

	conn := newConnection(h.log, wsConn, h.sendBufferSize, h.writeTimeout)
	go conn.writePump()

	h.registry.Register(userID, conn)
	h.log.Info("Websocket session opened",
		"user_id", userID, "connection_id", conn.ID())

	// Handshake ack goes to this connection only, never broadcast.
	h.dispatcher.DispatchTo(conn, event.ConnectionStatus{Status: "connected"})

	h.readLoop(conn, userID)
}

// resolveIdentity extracts the user id from a signed token when present,
// otherwise from the userId query parameter.
func (h *Handler) resolveIdentity(r *http.Request) (uuid.UUID, bool) {
	query := r.URL.Query()

	if token := query.Get("token"); token != "" {
		claims, err := auth.ValidateToken(token)
		if err != nil {
			h.log.Debug("Rejecting websocket token", "error", err)
			return uuid.Nil, false
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return uuid.Nil, false
		}
		return userID, true
	}

	if raw := query.Get("userId"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, false
		}
		return userID, true
	}

	return uuid.Nil, false
}

// readLoop consumes inbound frames until the peer closes or the transport
// fails, then tears the session down. Teardown is idempotent with the
// write pump's own close path.
func (h *Handler) readLoop(conn *Connection, userID uuid.UUID) {
	defer func() {
		h.registry.Unregister(conn)
		conn.close()
		h.log.Info("Websocket session closed",
			"user_id", userID, "connection_id", conn.ID())
	}()

	for {
		_, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("Websocket read ended", "connection_id", conn.ID(), "error", err)
			}
			return
		}
		h.handleInbound(userID, data)
	}
}

// inboundFrame tolerates both flat frames and frames nesting their fields
// under "payload". Clients only ever send typing signals.
type inboundFrame struct {
	Type           string        `json:"type"`
	ConversationID string        `json:"conversationId"`
	UserID         string        `json:"userId"`
	IsTyping       *bool         `json:"isTyping"`
	Typing         *bool         `json:"typing"`
	Payload        *inboundFrame `json:"payload"`
}

func (f inboundFrame) kind() string {
	if t := strings.ToLower(strings.TrimSpace(f.Type)); t != "" {
		return t
	}
	if f.Payload != nil {
		return strings.ToLower(strings.TrimSpace(f.Payload.Type))
	}
	return ""
}

func (f inboundFrame) conversationID() string {
	if f.ConversationID != "" {
		return f.ConversationID
	}
	if f.Payload != nil {
		return f.Payload.ConversationID
	}
	return ""
}

func (f inboundFrame) userID() string {
	if f.UserID != "" {
		return f.UserID
	}
	if f.Payload != nil {
		return f.Payload.UserID
	}
	return ""
}

// isTyping defaults to true: a typing frame without the flag means the user
// started typing.
func (f inboundFrame) isTyping() bool {
	for _, flag := range []*bool{f.IsTyping, f.Typing} {
		if flag != nil {
			return *flag
		}
	}
	if f.Payload != nil {
		return f.Payload.isTyping()
	}
	return true
}

// handleInbound relays a typing frame to the chat service. Malformed frames,
// unknown types and identity mismatches are dropped silently: an inbound
// frame never produces an error response on the socket.
func (h *Handler) handleInbound(registeredUserID uuid.UUID, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.log.Debug("Dropping malformed inbound frame", "error", err)
		return
	}

	if frame.kind() != string(event.KindTyping) {
		h.log.Debug("Dropping inbound frame of unsupported type", "type", frame.kind())
		return
	}

	convID, err := uuid.Parse(frame.conversationID())
	if err != nil {
		h.log.Debug("Dropping typing frame without conversation id")
		return
	}

	// A frame may omit the user id; when present it must match the identity
	// the connection registered with.
	userID := registeredUserID
	if raw := frame.userID(); raw != "" {
		declared, err := uuid.Parse(raw)
		if err != nil || declared != registeredUserID {
			h.log.Debug("Dropping typing frame with mismatched user identity",
				"declared", raw, "registered", registeredUserID)
			return
		}
		userID = declared
	}

	if err := h.chat.HandleTyping(context.Background(), convID, userID, frame.isTyping()); err != nil {
		h.log.Debug("Typing signal rejected",
			"conversation_id", convID, "user_id", userID, "error", err)
	}
}
