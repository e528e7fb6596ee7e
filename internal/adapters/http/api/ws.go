package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	service "github.com/okian/placar/internal/app"
	"github.com/okian/placar/internal/domain/guard"
	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/pkg/logger"
	"github.com/okian/placar/pkg/metrics"
)

// Websocket message types.
const (
	msgChange       = "change"
	msgConfirmReply = "confirm_reply"
	msgPing         = "ping"

	msgForm    = "form"
	msgConfirm = "confirm"
	msgAlert   = "alert"
	msgResult  = "result"
	msgError   = "error"
	msgPong    = "pong"
	msgClosed  = "closed"
)

const pendingChanges = 16

// ClientMessage is the envelope for client-to-server websocket messages.
type ClientMessage struct {
	Type string          `json:"type"`
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ChangeData is the payload of a "change" message.
type ChangeData struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ConfirmReplyData answers a "confirm" message.
type ConfirmReplyData struct {
	Accepted bool `json:"accepted"`
}

// ServerMessage is the envelope for server-to-client websocket messages.
type ServerMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// WSHandler runs the live form channel. Confirmation prompts are sent to the
// client and the change waits for its confirm_reply.
type WSHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewWSHandler creates a websocket handler.
func NewWSHandler(deps Dependencies, l logger.Logger) *WSHandler {
	return &WSHandler{deps: deps, logger: l}
}

// ServeHTTP upgrades GET /forms/{id}/ws and runs the message loop.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "api.ws", err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn(r.Context(), "websocket accept failed", logger.Error(err))
		return
	}
	defer conn.CloseNow()

	metrics.AddWebsocketClients(1)
	defer metrics.AddWebsocketClients(-1)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &wsClient{
		conn:    conn,
		sess:    sess,
		logger:  h.logger,
		changes: make(chan ClientMessage, pendingChanges),
		answers: make(chan bool, 1),
	}

	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	c.send(ctx, ServerMessage{Type: msgForm, Data: sess.View()})

	go c.forward(ctx, cancel, events)
	go c.applyChanges(ctx)

	c.readLoop(ctx)
}

type wsClient struct {
	conn    *websocket.Conn
	sess    *service.Session
	logger  logger.Logger
	changes chan ClientMessage
	answers chan bool

	// awaiting is set while a confirm prompt is outstanding.
	awaiting atomic.Bool
}

func (c *wsClient) readLoop(ctx context.Context) {
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				c.logger.Debug(ctx, "websocket read ended", logger.Error(err))
			}
			return
		}

		switch msg.Type {
		case msgChange:
			select {
			case c.changes <- msg:
			default:
				c.sendError(ctx, msg.ID, "backpressure", ErrBackpressure.Error())
			}
		case msgConfirmReply:
			var data ConfirmReplyData
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.sendError(ctx, msg.ID, "bad_request", "invalid confirm_reply data")
				continue
			}
			if !c.awaiting.Load() {
				c.sendError(ctx, msg.ID, "bad_request", "no confirmation pending")
				continue
			}
			select {
			case c.answers <- data.Accepted:
			default:
			}
		case msgPing:
			c.send(ctx, ServerMessage{Type: msgPong, RequestID: msg.ID})
		default:
			c.sendError(ctx, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

// applyChanges submits changes one at a time so this client's writes keep
// their order while a confirmation is outstanding.
func (c *wsClient) applyChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.changes:
			c.applyChange(ctx, msg)
		}
	}
}

func (c *wsClient) applyChange(ctx context.Context, msg ClientMessage) {
	var data ChangeData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		c.sendError(ctx, msg.ID, "bad_request", "invalid change data")
		return
	}
	f, err := match.ParseField(data.Field)
	if err != nil {
		c.sendError(ctx, msg.ID, "bad_request", err.Error())
		return
	}

	res, err := c.sess.Change(ctx, msg.ID, f, data.Value, c.confirmer(ctx, msg.ID))
	if err != nil {
		code := "internal"
		switch {
		case errors.Is(err, service.ErrBackpressure):
			code = "backpressure"
		case errors.Is(err, service.ErrSessionClosed):
			code = "gone"
		}
		c.sendError(ctx, msg.ID, code, err.Error())
		return
	}
	_, body := changeOutcome(res, c.sess.View())
	c.send(ctx, ServerMessage{Type: msgResult, RequestID: msg.ID, Data: body})
}

// confirmer asks this client and waits for its reply. A disconnect while
// waiting (connCtx done) counts as a decline.
func (c *wsClient) confirmer(connCtx context.Context, requestID string) guard.Confirmer {
	return guard.ConfirmFunc(func(ctx context.Context, p guard.Prompt) (bool, error) {
		// drop a stale answer from an earlier prompt
		select {
		case <-c.answers:
		default:
		}
		c.awaiting.Store(true)
		defer c.awaiting.Store(false)

		if err := wsjson.Write(connCtx, c.conn, ServerMessage{Type: msgConfirm, RequestID: requestID, Data: p}); err != nil {
			return false, err
		}
		select {
		case ok := <-c.answers:
			return ok, nil
		case <-connCtx.Done():
			return false, connCtx.Err()
		case <-ctx.Done():
			return false, ctx.Err()
		}
	})
}

// forward pushes session events to the client until the session closes.
func (c *wsClient) forward(ctx context.Context, cancel context.CancelFunc, events <-chan service.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				_ = c.conn.Close(websocket.StatusGoingAway, "form closed")
				cancel()
				return
			}
			switch ev.Type {
			case service.EventForm:
				c.send(ctx, ServerMessage{Type: msgForm, Data: ev.View})
			case service.EventAlert:
				c.send(ctx, ServerMessage{Type: msgAlert, Data: map[string]string{"message": ev.Message}})
			case service.EventClosed:
				c.send(ctx, ServerMessage{Type: msgClosed, Data: map[string]string{"reason": ev.Message}})
			}
		}
	}
}

func (c *wsClient) send(ctx context.Context, msg ServerMessage) {
	if err := wsjson.Write(ctx, c.conn, msg); err != nil && ctx.Err() == nil {
		c.logger.Debug(ctx, "websocket write failed", logger.Error(err))
	}
}

func (c *wsClient) sendError(ctx context.Context, requestID, code, message string) {
	c.send(ctx, ServerMessage{
		Type:      msgError,
		RequestID: requestID,
		Data:      errorResponse{Code: code, Message: message},
	})
}
