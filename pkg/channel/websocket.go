package channel

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gorilla/websocket"

	"clipkind/pkg/logger"
)

// WebSocketHandler serves the same calls over a WebSocket. Each text
// message is one request; responses are written back in order on the same
// connection. Browser clients are accepted only from the server's own
// origin or one listed in allowedOrigins; clients that send no Origin
// header are not browsers and are always accepted.
func (s *Server) WebSocketHandler(ctx context.Context, allowedOrigins ...string) http.HandlerFunc {
	up := websocket.Upgrader{
		ReadBufferSize:  8192,
		WriteBufferSize: 8192,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With("ws").With().Str("remote", r.RemoteAddr).Logger()

		// Upgrade has already answered the client when it fails.
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Str("origin", r.Header.Get("Origin")).Msg("websocket upgrade rejected")
			return
		}
		defer conn.Close()

		log.Debug().Msg("client connected")

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("client disconnected")
				return
			}
			if mt != websocket.TextMessage || len(data) == 0 {
				continue
			}
			if err := conn.WriteJSON(s.handleLine(ctx, data)); err != nil {
				log.Warn().Err(err).Msg("write response failed")
				return
			}
		}
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	normalized := make([]string, 0, len(allowed))
	for _, o := range allowed {
		normalized = append(normalized, strings.ToLower(strings.TrimRight(o, "/")))
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(normalized, strings.ToLower(origin)) {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}
