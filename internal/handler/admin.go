package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dukerupert/foodwheel/internal/apperr"
	"github.com/dukerupert/foodwheel/internal/auth"
	"github.com/dukerupert/foodwheel/internal/model"
	"github.com/dukerupert/foodwheel/internal/stats"
	"github.com/dukerupert/foodwheel/internal/store"
	"github.com/dukerupert/foodwheel/internal/websocket"
)

var hexColorRegexp = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

const defaultColor = "#FF6B6B"

type AdminHandler struct {
	prizes   *store.PrizeStore
	codes    *store.CodeStore
	verifier *auth.Verifier
	hub      *websocket.Hub
	logger   *slog.Logger
	now      func() time.Time
}

func NewAdminHandler(ps *store.PrizeStore, cs *store.CodeStore, v *auth.Verifier, hub *websocket.Hub, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		prizes:   ps,
		codes:    cs,
		verifier: v,
		hub:      hub,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *AdminHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type authRequest struct {
	Password string `json:"password"`
}

func (h *AdminHandler) Auth(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid JSON")
		return
	}
	if !h.verifier.Check(req.Password) {
		writeError(w, h.logger, apperr.Auth("wrong password"), "wrong password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Login successful"})
}

func (h *AdminHandler) GetFoods(w http.ResponseWriter, r *http.Request) {
	doc, err := h.prizes.Get(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to load foods")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type updateFoodsRequest struct {
	Foods []model.Prize `json:"foods"`
}

func (h *AdminHandler) UpdateFoods(w http.ResponseWriter, r *http.Request) {
	var req updateFoodsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid JSON")
		return
	}
	if err := validateFoods(req.Foods); err != nil {
		writeError(w, h.logger, err, "invalid foods")
		return
	}

	doc, err := h.prizes.Replace(r.Context(), req.Foods)
	if err != nil {
		writeError(w, h.logger, err, "failed to update foods")
		return
	}

	h.broadcast(websocket.NewMessage("foods", "updated", "", map[string]any{
		"count":       len(doc.Foods),
		"totalWeight": doc.TotalWeight,
	}))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": doc})
}

// validateFoods trims names and fills in missing colors in place.
func validateFoods(foods []model.Prize) error {
	if len(foods) == 0 {
		return apperr.Validation("at least one food is required")
	}
	for i := range foods {
		f := &foods[i]
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			return apperr.Validation(fmt.Sprintf("food %d: name is required", i+1))
		}
		if f.Weight <= 0 {
			return apperr.Validation(fmt.Sprintf("food %q: weight must be positive", f.Name))
		}
		if f.Color == "" {
			f.Color = defaultColor
		} else if !hexColorRegexp.MatchString(f.Color) {
			return apperr.Validation(fmt.Sprintf("food %q: color must be #RRGGBB", f.Name))
		}
	}
	return nil
}

func (h *AdminHandler) ListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.codes.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to load codes")
		return
	}
	writeJSON(w, http.StatusOK, codes)
}

type generateCodeRequest struct {
	Name     string `json:"name"`
	MaxSpins int    `json:"maxSpins"`
}

func (h *AdminHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	var req generateCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid JSON")
		return
	}
	if req.MaxSpins < 0 {
		writeError(w, h.logger, apperr.Validation("maxSpins must be positive"), "invalid maxSpins")
		return
	}

	code, err := h.codes.Create(r.Context(), req.Name, req.MaxSpins)
	if err != nil {
		writeError(w, h.logger, err, "failed to generate code")
		return
	}

	h.broadcast(websocket.NewMessage("code", "created", code.Code, nil))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "code": code})
}

type renameCodeRequest struct {
	Name string `json:"name"`
}

func (h *AdminHandler) RenameCode(w http.ResponseWriter, r *http.Request) {
	var req renameCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid JSON")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, h.logger, apperr.Validation("name is required"), "invalid name")
		return
	}

	code, err := h.codes.Rename(r.Context(), r.PathValue("code"), name)
	if err != nil {
		writeError(w, h.logger, err, "failed to update code")
		return
	}

	h.broadcast(websocket.NewMessage("code", "updated", code.Code, nil))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "code": code})
}

func (h *AdminHandler) DeleteCode(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("code")
	if err := h.codes.Delete(r.Context(), token); err != nil {
		writeError(w, h.logger, err, "failed to delete code")
		return
	}

	h.broadcast(websocket.NewMessage("code", "deleted", token, nil))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Code deleted"})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	codes, err := h.codes.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to load statistics")
		return
	}
	foods, err := h.prizes.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to load statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats.Compute(codes, len(foods), h.now()))
}
