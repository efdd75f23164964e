package server

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"codearh/internal/logging"
)

// eventWriteTimeout bounds a single websocket write.
const eventWriteTimeout = 5 * time.Second

// events streams application events to a websocket client until either
// side closes.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	origins := s.cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"localhost:*", "127.0.0.1:*"}
	}
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: origins})
	if err != nil {
		logging.Warn("failed to accept websocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			logging.Debug("failed to close websocket", "error", closeErr)
		}
	}()

	// Clients only listen; CloseRead handles their close frame.
	ctx := ws.CloseRead(r.Context())

	events, cancel := s.app.Events().Subscribe()
	defer cancel()
	logging.Debug("event stream opened", "remote", r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			logging.Debug("event stream closed", "remote", r.RemoteAddr)
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			writeCtx, done := context.WithTimeout(ctx, eventWriteTimeout)
			err := wsjson.Write(writeCtx, ws, e)
			done()
			if err != nil {
				logging.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}
