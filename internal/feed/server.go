package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/mvasques/ripple/internal/wire"
	"go.uber.org/zap"
)

const subscriberWriteTimeout = 5 * time.Second

// Server exposes the broadcaster over websocket. Each accepted
// connection becomes one attached subscriber; its read loop answers
// probes until the connection dies.
type Server struct {
	b      *Broadcaster
	logger *zap.Logger
}

// NewServer creates the websocket front for a broadcaster.
func NewServer(b *Broadcaster, logger *zap.Logger) *Server {
	return &Server{b: b, logger: logger}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}

	sub := &wsSubscriber{conn: c}
	id := s.b.Attach(sub)
	defer s.b.Detach(id)
	defer sub.Close()

	ctx := r.Context()
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			// Normal closure and network errors end the subscription alike.
			return
		}
		ev, derr := wire.Decode(data)
		if derr != nil {
			s.logger.Warn("dropping malformed subscriber frame", zap.Error(derr))
			continue
		}
		if ev.Type == wire.TypePing {
			s.b.OnProbe(id)
		}
	}
}

type wsSubscriber struct {
	conn *websocket.Conn
}

func (s *wsSubscriber) Send(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), subscriberWriteTimeout)
	defer cancel()
	return s.conn.Write(ctx, websocket.MessageText, data)
}

func (s *wsSubscriber) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}
