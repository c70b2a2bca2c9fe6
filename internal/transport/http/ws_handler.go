package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"quizwhiz-service/internal/app"
)

type WSHandler struct {
	service  *app.QuizService
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewWSHandler(service *app.QuizService, hub *Hub, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeWS upgrades the request and feeds the connection's commands into the quiz use cases.
func (h *WSHandler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := newClient(app.NewConnectionID(), conn, h.logger)
	h.hub.Register(client)
	h.logger.Debug("connection opened", "connection_id", client.id)

	go client.writePump()
	go func() {
		client.readPump(func(raw []byte) {
			h.dispatch(context.Background(), client.id, raw)
		})
		h.hub.Unregister(client.id)
		h.service.Disconnect(context.Background(), client.id)
		h.logger.Debug("connection closed", "connection_id", client.id)
	}()
}

// dispatch runs one inbound command. Unknown types and malformed payloads are ignored.
func (h *WSHandler) dispatch(ctx context.Context, connectionID string, raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.Debug("malformed message", "connection_id", connectionID, "error", err)
		return
	}

	switch msg.Type {
	case CommandJoinQuiz:
		var p joinPayload
		if !h.decode(connectionID, msg, &p) {
			return
		}
		_ = h.service.Join(ctx, p.QuizID, connectionID, p.Name)
	case CommandStartQuiz:
		var p startPayload
		if !h.decode(connectionID, msg, &p) {
			return
		}
		h.service.Start(ctx, p.QuizID)
	case CommandSubmitAnswer:
		var p answerPayload
		if !h.decode(connectionID, msg, &p) {
			return
		}
		h.service.SubmitAnswer(ctx, p.QuizID, connectionID, p.Answer)
	default:
		h.logger.Debug("unknown message type", "connection_id", connectionID, "type", msg.Type)
	}
}

func (h *WSHandler) decode(connectionID string, msg inboundMessage, into any) bool {
	if len(msg.Payload) == 0 {
		h.logger.Debug("missing payload", "connection_id", connectionID, "type", msg.Type)
		return false
	}
	if err := json.Unmarshal(msg.Payload, into); err != nil {
		h.logger.Debug("malformed payload", "connection_id", connectionID, "type", msg.Type, "error", err)
		return false
	}
	return true
}
