package echoapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/notification"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsSendQueue  = 32
)

type notificationApi struct {
	relay    *notification.Relay
	logger   core.Logger
	upgrader websocket.Upgrader
}

func registerNotificationAPI(g *echo.Group, deps ServerDeps) {
	api := notificationApi{
		relay:  deps.Relay,
		logger: deps.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(deps.Conf.Server.AllowedOrigins),
		},
	}
	g.GET("/notifications", api.connect)
}

// checkOrigin accepts non-browser clients (no Origin header) and the allowed origins.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func (api *notificationApi) connect(ctx echo.Context) error {
	conn, err := api.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		// the upgrader has already replied
		api.logger.Warn("websocket upgrade failed: " + err.Error())
		return nil
	}

	client := newWSClient(conn)
	api.relay.Register(client)
	go client.writePump(api.relay)
	client.readPump()

	api.relay.Unregister(client)
	client.close()
	return nil
}

// wsClient queues messages for one websocket connection; a full queue drops the message.
type wsClient struct {
	conn *websocket.Conn
	send chan string
	done chan struct{}
	once sync.Once
}

var _ notification.Client = (*wsClient)(nil)

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		conn: conn,
		send: make(chan string, wsSendQueue),
		done: make(chan struct{}),
	}
}

func (c *wsClient) Send(msg string) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *wsClient) writePump(relay *notification.Relay) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		relay.Unregister(c)
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound messages and returns when the peer goes away.
func (c *wsClient) readPump() {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
