package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/foodwheel/internal/middleware"
	"github.com/dukerupert/foodwheel/internal/redeem"
	"github.com/dukerupert/foodwheel/internal/store"
	"github.com/dukerupert/foodwheel/internal/websocket"
)

// PublicHandler serves the wheel page's API: the prize list, code checks and
// spins.
type PublicHandler struct {
	prizes   *store.PrizeStore
	service  *redeem.Service
	hub      *websocket.Hub
	clientIP func(*http.Request) string
	logger   *slog.Logger
}

// NewPublicHandler builds the handler. clientIP identifies the caller in spin
// records; nil means the socket peer address.
func NewPublicHandler(ps *store.PrizeStore, svc *redeem.Service, hub *websocket.Hub, clientIP func(*http.Request) string, logger *slog.Logger) *PublicHandler {
	if clientIP == nil {
		clientIP = middleware.PeerIP
	}
	return &PublicHandler{prizes: ps, service: svc, hub: hub, clientIP: clientIP, logger: logger}
}

func (h *PublicHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *PublicHandler) Foods(w http.ResponseWriter, r *http.Request) {
	foods, err := h.prizes.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to load foods")
		return
	}
	writeJSON(w, http.StatusOK, foods)
}

func (h *PublicHandler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Validate(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(w, h.logger, err, "failed to validate code")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type spinRequest struct {
	Code string `json:"code"`
}

func (h *PublicHandler) Spin(w http.ResponseWriter, r *http.Request) {
	var req spinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid JSON")
		return
	}

	res, err := h.service.Spin(r.Context(), req.Code, redeem.Caller{
		IP:        h.clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeError(w, h.logger, err, "failed to spin the wheel")
		return
	}

	h.logger.Info("spin recorded", "code", res.Code.Code, "prize", res.Winner.Name)
	h.broadcast(websocket.NewMessage("spin", "recorded", res.Code.Code, map[string]any{
		"wonItem":   res.Winner.Name,
		"usedCount": res.Code.UsedCount,
	}))

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"winner":  res.Winner,
		"message": res.Message,
	})
}
