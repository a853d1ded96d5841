package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"spachat/internal/infrastructure/realtime"
	"spachat/internal/pkg/chat/presentation/middleware"
)

// ChatSocketController upgrades HTTP connections to websocket and lets the
// client manage its topic subscriptions over the push gateway. The gateway
// only delivers hints; the client is expected to re-fetch over HTTP on
// every event, including right after each subscribe.
type ChatSocketController struct {
	gateway *realtime.Gateway
}

func NewChatSocketController(gateway *realtime.Gateway) *ChatSocketController {
	return &ChatSocketController{gateway: gateway}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins; the route itself sits behind auth.
		return true
	},
}

type inboundFrame struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
}

type ackFrame struct {
	Type     string `json:"type"`
	Topic    string `json:"topic,omitempty"`
	SocketID string `json:"socket_id,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

const defaultReadTimeout = 60 * time.Second

// Handle processes frames until the client disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := middleware.Principal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		conn := realtime.NewConnection(p.ID, ws)
		ctl.gateway.Attach(conn)
		defer func() {
			ctl.gateway.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 16)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		// The client echoes this socket id back in X-Socket-ID on its
		// sends; that is how its own messages stay off this connection.
		ctl.reply(conn, ackFrame{Type: "connected", SocketID: conn.SocketID})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				ctl.replyError(conn, "read_error", err.Error())
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case "subscribe":
				if frame.Topic == "" {
					ctl.replyError(conn, "bad_request", "topic is required")
					continue
				}
				if err := ctl.gateway.Subscribe(c.Request.Context(), conn, frame.Topic); err != nil {
					ctl.replyError(conn, "subscribe_failed", err.Error())
					continue
				}
				ctl.reply(conn, ackFrame{Type: "subscribed", Topic: frame.Topic})
			case "unsubscribe":
				if frame.Topic == "" {
					ctl.replyError(conn, "bad_request", "topic is required")
					continue
				}
				ctl.gateway.Unsubscribe(conn, frame.Topic)
				ctl.reply(conn, ackFrame{Type: "unsubscribed", Topic: frame.Topic})
			default:
				ctl.replyError(conn, "unsupported_type", "unknown frame type")
			}
		}
	}
}

func (ctl *ChatSocketController) reply(conn *realtime.Connection, frame ackFrame) {
	if payload, err := json.Marshal(frame); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) replyError(conn *realtime.Connection, code, message string) {
	frame := errorFrame{Type: "error", Code: code, Error: message}
	if payload, err := json.Marshal(frame); err == nil {
		_ = conn.Send(payload)
	}
}
