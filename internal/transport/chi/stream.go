package chi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cpfvariants/internal/domain/variant"
)

const (
	streamReadTimeout  = 30 * time.Second
	streamWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
}

// streamConn writes frames tagged with the search id.
type streamConn struct {
	ws       *websocket.Conn
	searchID string
	logger   *zap.Logger
}

func (c *streamConn) send(msg StreamMessage) error {
	msg.SearchID = c.searchID
	_ = c.ws.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := c.ws.WriteJSON(msg); err != nil {
		c.logger.Debug("stream write failed", zap.Error(err))
		return err
	}
	return nil
}

func (c *streamConn) sendError(code ErrorCode, message string) {
	_ = c.send(StreamMessage{
		Type:  StreamError,
		Error: &ErrorResponse{Code: code, Message: message},
	})
}

// StreamVariants handles GET /v1/variants/stream. The client sends one
// SearchRequest; the server replies with a session message, progress
// messages and finally a result or an error. Closing the socket aborts the
// search.
func (s *Server) StreamVariants(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	conn := &streamConn{ws: ws, searchID: uuid.NewString(), logger: s.logger}
	logger := s.logger.With(zap.String("search_id", conn.searchID))

	var body SearchRequest
	_ = ws.SetReadDeadline(time.Now().Add(streamReadTimeout))
	if err := ws.ReadJSON(&body); err != nil {
		conn.sendError(ErrorCodeBadRequest, "Invalid request message: "+err.Error())
		return
	}
	_ = ws.SetReadDeadline(time.Time{})

	if err := conn.send(StreamMessage{Type: StreamSession}); err != nil {
		return
	}

	req, err := searchRequestFromBody(body, conn.searchID)
	if err != nil {
		logger.Warn("stream request rejected", zap.Error(err))
		conn.sendError(errorCode(err), safeDomainMessage(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.timeout)
	defer cancel()

	// The reader only exists to notice the client going away.
	go func() {
		for {
			if _, _, err := ws.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	observe := func(p variant.Progress) {
		if err := conn.send(StreamMessage{Type: StreamProgress, Progress: &p}); err != nil {
			cancel()
		}
	}

	out, err := s.search.Search(ctx, req, observe)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			logger.Info("stream closed by client", zap.Error(err))
			return
		}
		logger.Warn("stream search failed", zap.Error(err))
		conn.sendError(errorCode(err), safeDomainMessage(err))
		return
	}

	resp := outcomeToResponse(conn.searchID, req.Original.String(), out)
	if err := conn.send(StreamMessage{Type: StreamResult, Result: &resp}); err != nil {
		return
	}

	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(time.Second))
}
