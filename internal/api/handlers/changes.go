package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/dvloznov/findata/internal/store"
)

// ChangesHandler relays data-changed notifications from the storage
// engine's change feed over a websocket. It is best-effort: if the feed is
// unavailable (standalone Mongo without a replica set), the client gets a
// single error event telling it to fall back to polling.
type ChangesHandler struct {
	repo     store.Repository
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewChangesHandler creates a new change-notification handler.
func NewChangesHandler(repo store.Repository, log zerolog.Logger) *ChangesHandler {
	return &ChangesHandler{
		repo: repo,
		log:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// changeEvent is the wire shape of one notification.
type changeEvent struct {
	Event   string `json:"event"`
	Message string `json:"message,omitempty"`
}

// ServeWS handles WS /ws/changes. Every committed change to the collection
// produces one {"event":"changed"} message; the payload carries no document
// data, it only signals that a refetch is worthwhile.
func (h *ChangesHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	// The request context outlives the hijacked connection, so detect a
	// departed client from the read side and cancel the watch ourselves.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	stream, err := h.repo.Watch(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("Change feed unavailable, telling client to poll")
		_ = conn.WriteJSON(changeEvent{Event: "error", Message: err.Error()})
		return
	}
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		if err := conn.WriteJSON(changeEvent{Event: "changed"}); err != nil {
			return
		}
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		h.log.Error().Err(err).Msg("Change stream failed")
		_ = conn.WriteJSON(changeEvent{Event: "error", Message: err.Error()})
	}
}
