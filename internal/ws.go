package internal

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// WSRoutes is a module's websocket endpoint.
type WSRoutes struct {
	// Upgrade runs after the application's websocket middlewares. A non-nil
	// result other than a 200 response rejects the upgrade and is written
	// as the HTTP response.
	Upgrade []Action

	// Open runs once the connection is established.
	Open []Action

	// Events maps message types to their handlers.
	Events map[string][]Action
}

// WSMessage is the envelope of every websocket message.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Bind decodes the message data into v.
func (m *WSMessage) Bind(v any) error {
	if len(m.Data) == 0 {
		return ErrBadRequest("empty message data")
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return ErrBadRequest("invalid message data", WithCause(err))
	}
	return nil
}

// WSConn is an established websocket connection. Sends are serialized.
type WSConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Send writes v as a JSON message.
func (c *WSConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Emit sends a typed message.
func (c *WSConn) Emit(typ string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.Send(WSMessage{Type: typ, Data: raw})
}

func (c *WSConn) Close() error {
	return c.conn.Close()
}

type wsEndpoint struct {
	module  string
	upgrade Action
	open    Action
	events  map[string]Action
}

// wsPath is where a module's websocket endpoint is served.
func wsPath(app, module string) string {
	return "/" + app + "/" + module
}

func newUpgrader(checkOrigin func(origin, host string) bool) websocket.Upgrader {
	u := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if checkOrigin == nil {
		checkOrigin = sameOrigin
	}
	u.CheckOrigin = func(r *http.Request) bool {
		return checkOrigin(r.Header.Get("Origin"), r.Host)
	}
	return u
}

// buildWS collects websocket endpoints, children first, once per module.
func (a *App) buildWS() error {
	for _, e := range a.list.LeafFirstUnique() {
		provide := capsOf(e.Module).ws
		if provide == nil {
			continue
		}
		routes, err := provide(e.Config, a.services)
		if err != nil {
			return errors.Join(ErrRoutesFailed, err)
		}
		if routes == nil {
			continue
		}
		path := wsPath(a.name, e.Config.ModuleName)
		if _, dup := a.ws[path]; dup {
			return errors.Join(ErrDuplicateWSModule, errors.New(path))
		}
		ep := &wsEndpoint{
			module:  e.Config.ModuleName,
			upgrade: Chain(routes.Upgrade...),
			open:    Chain(routes.Open...),
			events:  make(map[string]Action, len(routes.Events)),
		}
		for typ, handlers := range routes.Events {
			if action := Chain(handlers...); action != nil {
				ep.events[typ] = action
			}
		}
		a.ws[path] = ep
	}
	return nil
}

// WS returns the websocket connection of a websocket context, or nil.
func (c *Context) WS() *WSConn {
	return c.ws
}

// Message returns the websocket message being handled, or nil.
func (c *Context) Message() *WSMessage {
	return c.msg
}

func (a *App) serveWS(w *ResponseWriter, r *http.Request, ep *wsEndpoint) {
	c := newContext(w, r, a, emptyMatch)

	if upgrade := Chain(a.wsMiddleware, ep.upgrade); upgrade != nil {
		res, err := a.callAction(upgrade, c)
		if err != nil {
			a.metrics.errorSeen(a.name, KindOf(err))
			a.fail(c, err)
			return
		}
		if res != nil && !acceptsUpgrade(res) {
			if err := a.respond(c, res, 0); err != nil {
				a.fail(c, err)
			}
			return
		}
	}

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.LogDebug("websocket upgrade failed", slog.String("module", ep.module), slog.Any("error", err))
		return
	}
	ws := &WSConn{conn: conn}
	c.ws = ws
	defer ws.Close()

	a.metrics.wsOpened(a.name)
	defer a.metrics.wsClosed(a.name)

	a.wsReply(c, ep.open)

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.LogWarn("websocket read failed", slog.String("module", ep.module), slog.Any("error", err))
			}
			return
		}
		action, ok := ep.events[msg.Type]
		if !ok {
			c.LogDebug("websocket event without handler", slog.String("module", ep.module), slog.String("type", msg.Type))
			continue
		}
		c.msg = &msg
		a.wsReply(c, action)
		c.msg = nil
	}
}

// wsReply runs action and sends its result back on the connection.
func (a *App) wsReply(c *Context, action Action) {
	if action == nil {
		return
	}
	res, err := a.callAction(action, c)
	if err != nil {
		kind := KindOf(err)
		a.metrics.errorSeen(a.name, kind)
		c.LogError("websocket handler failed", slog.String("kind", kind.String()), slog.Any("error", err))
		_ = c.ws.Emit("error", kind.String())
		return
	}
	if res == nil {
		return
	}
	if err := c.ws.Send(res); err != nil {
		c.LogDebug("websocket send failed", slog.Any("error", err))
	}
}

// acceptsUpgrade reports whether an upgrade middleware result lets the
// connection through.
func acceptsUpgrade(res any) bool {
	switch v := res.(type) {
	case *Response:
		return v.Code() == http.StatusOK
	case bool:
		return v
	}
	return false
}

// sameOrigin is the default origin check.
func sameOrigin(origin, host string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, host)
}
