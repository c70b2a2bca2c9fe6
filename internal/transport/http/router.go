package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"quizwhiz-service/internal/app"
	"quizwhiz-service/internal/domain"
)

// RouterConfig carries what the HTTP layer needs besides the service.
type RouterConfig struct {
	// PublicURL prefixes share links; the request host is used when empty.
	PublicURL string
	Logger    *slog.Logger
}

type createResponse struct {
	QuizID   string `json:"quiz_id"`
	JoinLink string `json:"join_link"`
	HostLink string `json:"host_link"`
}

type quizResponse struct {
	QuizID string               `json:"quiz_id"`
	IsHost bool                 `json:"is_host"`
	State  domain.StateSnapshot `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter wires the quiz endpoints and the websocket upgrade onto a gin engine.
func NewRouter(service *app.QuizService, hub *Hub, cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	api := &quizHandler{service: service, publicURL: strings.TrimRight(cfg.PublicURL, "/"), logger: logger}
	ws := NewWSHandler(service, hub, logger)

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.POST("/create", api.create)
	router.GET("/quiz/:id", api.view)
	router.GET("/ws", ws.ServeWS)
	return router
}

type quizHandler struct {
	service   *app.QuizService
	publicURL string
	logger    *slog.Logger
}

func (h *quizHandler) create(c *gin.Context) {
	quizID, err := h.service.CreateQuiz(c.Request.Context())
	if err != nil {
		h.logger.Error("create quiz", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Unable to create quiz."})
		return
	}
	joinLink := h.baseURL(c) + "/quiz/" + quizID
	c.JSON(http.StatusOK, createResponse{
		QuizID:   quizID,
		JoinLink: joinLink,
		HostLink: joinLink + "?host=1",
	})
}

func (h *quizHandler) view(c *gin.Context) {
	quizID := c.Param("id")
	snap, err := h.service.Snapshot(c.Request.Context(), quizID)
	switch {
	case errors.Is(err, domain.ErrInvalidQuiz):
		c.JSON(http.StatusNotFound, errorResponse{Error: "Quiz not found."})
		return
	case err != nil:
		h.logger.Error("load quiz", "quiz_id", quizID, "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Unable to load quiz."})
		return
	}
	c.JSON(http.StatusOK, quizResponse{
		QuizID: quizID,
		IsHost: c.Query("host") == "1",
		State:  snap,
	})
}

func (h *quizHandler) baseURL(c *gin.Context) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + c.Request.Host
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
