package analysis

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/assessment-engine/pkg/http/errors"
	ws "github.com/gokatarajesh/assessment-engine/pkg/http/ws"
)

// WSHandler streams analysis results to adaptive test runners.
type WSHandler struct {
	hub    *ws.Hub
	logger zerolog.Logger
}

func NewWSHandler(hub *ws.Hub, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		logger: logger.With().Str("component", "analysis_ws").Logger(),
	}
}

// HandleWebSocket subscribes the caller to one session's results.
// Route: GET /ws/analyses?student_id=&test_id=
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	studentID, testID := q.Get("student_id"), q.Get("test_id")
	if studentID == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "student_id is required", "student_id")
		return
	}
	if testID == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "test_id is required", "test_id")
		return
	}

	raw, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	id := uuid.New()
	logger := h.logger.With().Str("conn_id", id.String()).Logger()
	conn := ws.NewConnection(raw, logger)

	h.hub.Subscribe(id, ws.SessionKey(studentID, testID), conn)
	defer h.hub.Unsubscribe(id)

	go conn.WritePump()

	msg, err := ws.NewMessage(ws.TypeSubscribed, ws.SubscribedPayload{StudentID: studentID, TestID: testID})
	if err != nil {
		logger.Error().Err(err).Msg("encode subscribed message failed")
	} else if err := conn.Send(msg); err != nil {
		logger.Warn().Err(err).Msg("send subscribed message failed")
	}

	conn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(conn, msg)
	})
}

func (h *WSHandler) handleMessage(conn ws.Sender, msg ws.Message) error {
	switch msg.Type {
	case ws.TypePing:
		return conn.Send(ws.Message{Type: ws.TypePong, RequestID: msg.RequestID})
	default:
		reply, err := ws.NewMessage(ws.TypeError, ws.ErrorPayload{
			Code:    httperrors.ErrCodeUnknownMessageType,
			Message: "unsupported message type " + msg.Type,
		})
		if err != nil {
			return fmt.Errorf("encode error reply: %w", err)
		}
		reply.RequestID = msg.RequestID
		return conn.Send(reply)
	}
}
