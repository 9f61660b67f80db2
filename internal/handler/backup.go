package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/foodwheel/internal/apperr"
	"github.com/dukerupert/foodwheel/internal/auth"
	"github.com/dukerupert/foodwheel/internal/backup"
	"github.com/dukerupert/foodwheel/internal/websocket"
)

type BackupHandler struct {
	manager *backup.Manager
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, hub *websocket.Hub, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, hub: hub, logger: logger}
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	key, err := h.manager.RunNow(r.Context())
	if err != nil {
		h.writeBackupError(w, err, "backup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "key": key})
}

type restoreRequest struct {
	Key string `json:"key"`
}

// Restore overwrites every live document. It requires the admin context set
// by middleware.RequireAdmin.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		writeError(w, h.logger, apperr.Auth("Unauthorized"), "Unauthorized")
		return
	}

	var req restoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid JSON")
		return
	}

	if err := h.manager.Restore(r.Context(), req.Key); err != nil {
		h.writeBackupError(w, err, "restore failed")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("backup", "restored", req.Key, nil))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Backup restored"})
}

// writeBackupError answers 503 while backups are not configured.
func (h *BackupHandler) writeBackupError(w http.ResponseWriter, err error, fallback string) {
	if !h.manager.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "backups are not configured"})
		return
	}
	writeError(w, h.logger, err, fallback)
}
