package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"chat-server/internal/auth"
	"chat-server/internal/chat"

	"github.com/gorilla/mux"
)

type ChannelHandlers struct {
	authService *auth.Service
	registry    *chat.Registry
}

func NewChannelHandlers(authService *auth.Service, registry *chat.Registry) *ChannelHandlers {
	return &ChannelHandlers{
		authService: authService,
		registry:    registry,
	}
}

// ListChannels returns every live channel with its occupant count.
func (h *ChannelHandlers) ListChannels(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(h.authService, w, r); !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.registry.Channels())
}

// DeleteChannel force-removes a channel. Admin only; members are notified
// before the channel goes away.
func (h *ChannelHandlers) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.authService, w, r)
	if !ok {
		return
	}
	if !user.IsAdmin {
		http.Error(w, "admin required", http.StatusForbidden)
		return
	}

	name := mux.Vars(r)["name"]
	notice := fmt.Sprintf("Channel %s has been deleted by admin", name)
	if !h.registry.DropChannel(name, notice) {
		http.Error(w, "channel not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
