package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dukerupert/foodwheel/internal/auth"
	"github.com/dukerupert/foodwheel/internal/backup"
	"github.com/dukerupert/foodwheel/internal/codegen"
	"github.com/dukerupert/foodwheel/internal/config"
	"github.com/dukerupert/foodwheel/internal/draw"
	"github.com/dukerupert/foodwheel/internal/handler"
	"github.com/dukerupert/foodwheel/internal/middleware"
	"github.com/dukerupert/foodwheel/internal/redeem"
	"github.com/dukerupert/foodwheel/internal/store"
	ws "github.com/dukerupert/foodwheel/internal/websocket"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

type Server struct {
	hub            *ws.Hub
	publicH        *handler.PublicHandler
	adminH         *handler.AdminHandler
	backupH        *handler.BackupHandler
	verifier       *auth.Verifier
	prizeStore     *store.PrizeStore
	codeStore      *store.CodeStore
	spinLimiter    *middleware.RateLimiter
	authLimiter    *middleware.RateLimiter
	backupManager  *backup.Manager
	clientIP       func(*http.Request) string
	allowedOrigins []string
	staticDir      string
	logger         *slog.Logger
}

func New(cfg config.Config, docs *store.Documents, logger *slog.Logger) (*Server, error) {
	verifier, err := auth.NewVerifier(cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		return nil, fmt.Errorf("admin verifier: %w", err)
	}

	hub := ws.NewHub(logger.With("component", "websocket"))
	clientIP := middleware.ClientIP(cfg.TrustProxy)

	prizeStore := store.NewPrizeStore(docs)
	codeStore := store.NewCodeStore(docs, codegen.New(nil))
	svc := redeem.NewService(prizeStore, codeStore, draw.New(nil))

	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.S3.Endpoint,
			Bucket:    cfg.Backup.S3.Bucket,
			Region:    cfg.Backup.S3.Region,
			AccessKey: cfg.Backup.S3.AccessKey,
			SecretKey: cfg.Backup.S3.SecretKey,
		},
		Passphrase: cfg.Backup.Passphrase,
		Interval:   cfg.Backup.Interval,
		Documents:  []string{store.PrizesDocument, store.CodesDocument},
	}, docs, func(s backup.Status) {
		hub.Broadcast(ws.Message{
			Type:   "backup_status",
			Entity: "backup",
			Action: string(s.State),
			Key:    s.LastKey,
			Extra: map[string]any{
				"inProgress": s.InProgress,
				"error":      s.Error,
			},
		})
	}, logger.With("component", "backup"))

	return &Server{
		hub:            hub,
		publicH:        handler.NewPublicHandler(prizeStore, svc, hub, clientIP, logger.With("component", "wheel")),
		adminH:         handler.NewAdminHandler(prizeStore, codeStore, verifier, hub, logger.With("component", "admin")),
		backupH:        handler.NewBackupHandler(backupMgr, hub, logger.With("component", "backup_handler")),
		verifier:       verifier,
		prizeStore:     prizeStore,
		codeStore:      codeStore,
		spinLimiter:    middleware.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow),
		authLimiter:    middleware.NewRateLimiter(authRateLimit, authRateWindow),
		backupManager:  backupMgr,
		clientIP:       clientIP,
		allowedOrigins: cfg.AllowedOrigins,
		staticDir:      cfg.StaticDir,
		logger:         logger,
	}, nil
}

// PrizeStore returns the prize store for seeding.
func (s *Server) PrizeStore() *store.PrizeStore {
	return s.prizeStore
}

// CodeStore returns the code store for seeding.
func (s *Server) CodeStore() *store.CodeStore {
	return s.codeStore
}

// RateLimiters returns the rate limiters for cleanup tasks.
func (s *Server) RateLimiters() []*middleware.RateLimiter {
	return []*middleware.RateLimiter{s.spinLimiter, s.authLimiter}
}

// Close stops scheduled backups and disconnects admin feed clients.
func (s *Server) Close() {
	s.backupManager.Stop()
	s.hub.Close()
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()
	byIP := s.clientIP

	// Public routes
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /api/foods", s.publicH.Foods)
	outerMux.HandleFunc("GET /api/validate-code/{code}", s.publicH.ValidateCode)
	outerMux.Handle("POST /api/spin", middleware.RateLimit(s.spinLimiter, byIP)(http.HandlerFunc(s.publicH.Spin)))
	outerMux.Handle("POST /api/admin/auth", middleware.RateLimit(s.authLimiter, byIP)(http.HandlerFunc(s.adminH.Auth)))

	// Browsers cannot set headers on a WebSocket upgrade, so the feed also
	// accepts the password as a query parameter.
	outerMux.Handle("GET /api/admin/ws", middleware.RequireAdmin(s.verifier, true)(
		ws.HandleWebSocket(s.hub, s.allowedOrigins, s.logger.With("component", "websocket")),
	))

	// Admin routes, wrapped with RequireAdmin
	adminMux := http.NewServeMux()
	s.registerAdminRoutes(adminMux)
	outerMux.Handle("/api/admin/", middleware.RequireAdmin(s.verifier, false)(adminMux))

	if info, err := os.Stat(s.staticDir); err == nil && info.IsDir() {
		outerMux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	} else {
		s.logger.Warn("static directory not found, UI disabled", "dir", s.staticDir)
	}

	var h http.Handler = outerMux
	h = middleware.CORS(s.allowedOrigins)(h)
	h = middleware.SecurityHeaders(h)
	return middleware.RequestLogger(s.logger.With("component", "http"), s.clientIP)(h)
}

func (s *Server) registerAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/foods", s.adminH.GetFoods)
	mux.HandleFunc("PUT /api/admin/foods", s.adminH.UpdateFoods)

	mux.HandleFunc("GET /api/admin/codes", s.adminH.ListCodes)
	mux.HandleFunc("POST /api/admin/codes/generate", s.adminH.GenerateCode)
	mux.HandleFunc("PUT /api/admin/codes/{code}", s.adminH.RenameCode)
	mux.HandleFunc("DELETE /api/admin/codes/{code}", s.adminH.DeleteCode)

	mux.HandleFunc("GET /api/admin/stats", s.adminH.Stats)

	mux.HandleFunc("GET /api/admin/backup", s.backupH.Status)
	mux.HandleFunc("POST /api/admin/backup", s.backupH.Run)
	mux.HandleFunc("POST /api/admin/backup/restore", s.backupH.Restore)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}
