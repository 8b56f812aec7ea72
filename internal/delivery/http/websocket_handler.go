package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Harsh-BH/edgeclassify/internal/domain"
	"github.com/Harsh-BH/edgeclassify/internal/usecase"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development; restrict in production
	},
}

// WebSocketHandler streams result status until the artifact appears.
type WebSocketHandler struct {
	lookupUC *usecase.LookupResultUsecase
	interval time.Duration
	logger   *zap.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler. interval is raised to
// usecase.MinPollInterval if it is shorter.
func NewWebSocketHandler(lookupUC *usecase.LookupResultUsecase, interval time.Duration, logger *zap.Logger) *WebSocketHandler {
	if interval < usecase.MinPollInterval {
		interval = usecase.MinPollInterval
	}
	return &WebSocketHandler{
		lookupUC: lookupUC,
		interval: interval,
		logger:   logger,
	}
}

// Stream handles GET /api/v1/jobs/:id/stream (WebSocket upgrade)
func (h *WebSocketHandler) Stream(c *gin.Context) {
	idStr := c.Param("id")
	id, err := domain.ParseCorrelationID(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid correlation ID format"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Debug("WebSocket connection opened", zap.String("correlation_id", idStr))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The client never sends data; a read error means it went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		loc, err := h.lookupUC.Execute(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			h.write(conn, gin.H{"error": domain.ErrLookupFailed.Error()})
			h.close(conn, websocket.CloseTryAgainLater, "lookup failed")
			return
		}

		if err := h.write(conn, loc); err != nil {
			h.logger.Debug("WebSocket write failed (client disconnected)", zap.Error(err))
			return
		}

		if loc.Ready() {
			h.logger.Debug("Result ready, closing WebSocket", zap.String("correlation_id", idStr))
			h.close(conn, websocket.CloseNormalClosure, "result ready")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *WebSocketHandler) write(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(v)
}

func (h *WebSocketHandler) close(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteTimeout))
}
