package websocket

import (
	"log/slog"
	"net/http"
	"net/url"

	ws "github.com/coder/websocket"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to WebSocket
// and runs them as Hub clients. originPatterns limits cross-origin upgrades;
// a "*" pattern disables the origin check.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	opts := &ws.AcceptOptions{}
	for _, p := range originPatterns {
		if p == "*" {
			opts = &ws.AcceptOptions{InsecureSkipVerify: true}
			break
		}
		// Patterns match the Origin host, so "https://a.example" becomes "a.example".
		if u, err := url.Parse(p); err == nil && u.Host != "" {
			p = u.Host
		}
		opts.OriginPatterns = append(opts.OriginPatterns, p)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, opts)
		if err != nil {
			logger.Warn("accept websocket", "error", err)
			return
		}

		client := NewClient(hub, conn)
		client.Run(r.Context())
	}
}
