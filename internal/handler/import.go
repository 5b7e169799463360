package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/recordport/recordport/internal/middleware"
	"github.com/recordport/recordport/internal/service"
)

const (
	// writeWait bounds a single frame write when ctx carries no deadline.
	writeWait = 10 * time.Second
	// closeGrace is how long the close handshake may take.
	closeGrace = time.Second
)

// ImportHandler upgrades GET /ws/import to a websocket and runs one
// import session over it.
type ImportHandler struct {
	svc             *service.ImportService
	upgrader        websocket.Upgrader
	maxMessageBytes int64
	logger          *slog.Logger
}

// ImportHandlerConfig configures the websocket endpoint.
type ImportHandlerConfig struct {
	// MaxMessageBytes caps one inbound frame. Zero means unlimited.
	MaxMessageBytes int64
	// AllowedOrigins restricts browser origins; empty allows any.
	AllowedOrigins []string
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(svc *service.ImportService, cfg ImportHandlerConfig, logger *slog.Logger) *ImportHandler {
	h := &ImportHandler{
		svc:             svc,
		maxMessageBytes: cfg.MaxMessageBytes,
		logger:          logger.With("component", "handler.import"),
	}
	origins := middleware.NewOriginMatcher(cfg.AllowedOrigins)
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  32 << 10,
		WriteBufferSize: 32 << 10,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origins.Empty() || origins.Allowed(origin)
		},
	}
	return h
}

// Import handles GET /ws/import.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	out := h.svc.Run(r.Context(), &wsChannel{conn: conn})

	h.logger.Info("import connection closed",
		"request_id", middleware.GetRequestID(r.Context()),
		"session_id", out.SessionID,
		"state", out.State,
	)

	if out.State != service.StateAborted {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
	}
}

// wsChannel adapts a websocket connection to service.Channel.
type wsChannel struct {
	conn *websocket.Conn
}

// ReadMessage reads one text or binary frame. A ctx deadline becomes the
// read deadline and cancelling ctx unblocks the read.
func (c *wsChannel) ReadMessage(ctx context.Context) ([]byte, error) {
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrDisconnected, err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, data, err := c.conn.ReadMessage()
	if err == nil {
		return data, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return nil, context.DeadlineExceeded
	}
	return nil, fmt.Errorf("%w: %v", service.ErrDisconnected, err)
}

// WriteJSON sends v as one text frame.
func (c *wsChannel) WriteJSON(ctx context.Context, v any) error {
	if err := c.setWriteDeadline(ctx); err != nil {
		return err
	}
	if err := c.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("%w: %v", service.ErrDisconnected, err)
	}
	return nil
}

// WriteText sends text as one text frame.
func (c *wsChannel) WriteText(ctx context.Context, text string) error {
	if err := c.setWriteDeadline(ctx); err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("%w: %v", service.ErrDisconnected, err)
	}
	return nil
}

func (c *wsChannel) setWriteDeadline(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %v", service.ErrDisconnected, err)
	}
	return nil
}
