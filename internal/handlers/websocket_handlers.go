package handlers

import (
	"net/http"

	"chat-server/internal/auth"
	"chat-server/internal/chat"
	ws "chat-server/internal/websocket"
	"chat-server/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService *auth.Service
	registry    *chat.Registry
	sendBuffer  int
	upgrader    websocket.Upgrader
}

func NewWebSocketHandlers(authService *auth.Service, registry *chat.Registry, sendBuffer int) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService: authService,
		registry:    registry,
		sendBuffer:  sendBuffer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

// HandleWebSocket authenticates the caller, upgrades the connection and
// registers it with the core. The connection is in no channel until the
// client sends a join event.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.authService, w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	client := ws.NewClient(conn, h.registry, user.Username, h.sendBuffer)

	go client.WritePump()
	go client.ReadPump()
}
