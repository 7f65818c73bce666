// Package middleware implements the dispatcher RPC client used as the
// harness command bridge. The dispatcher protocol is JSON call/response
// envelopes over a single websocket, matched by message id.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/storageops/nascheck/internal/harness"
	"golang.org/x/sync/errgroup"
)

const (
	dispatcherPath     = "/dispatcher"
	defaultCallTimeout = 30 * time.Second
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = 25 * time.Second
)

// Options configure the dispatcher connection.
type Options struct {
	Host        string
	Port        int
	Username    string
	Password    string
	CallTimeout time.Duration
}

type envelope struct {
	Namespace string          `json:"namespace"`
	Name      string          `json:"name"`
	ID        string          `json:"id"`
	Args      json.RawMessage `json:"args,omitempty"`
}

type callArgs struct {
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// RPCError is an application-level error envelope returned by the
// middleware for a rejected call.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Client is a dispatcher protocol client. One websocket carries every
// call; a read pump delivers responses to the pending call that issued
// them. The harness only ever has one call in flight, but the client does
// not depend on that.
type Client struct {
	log  logrus.FieldLogger
	opts Options
	conn *websocket.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan *envelope

	g    *errgroup.Group
	done chan struct{}
}

// Connect dials the dispatcher, starts the read and keepalive loops, and
// authenticates when credentials are configured.
func Connect(ctx context.Context, log logrus.FieldLogger, opts Options) (*Client, error) {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}

	u := url.URL{
		Scheme: "ws",
		Host:   fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Path:   dispatcherPath,
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", harness.ErrBridgeUnavailable, u.String(), err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c := &Client{
		log:     log.WithField("component", "middleware_client"),
		opts:    opts,
		conn:    conn,
		pending: make(map[string]chan *envelope),
		done:    make(chan struct{}),
	}

	c.g = &errgroup.Group{}
	c.g.Go(c.readLoop)
	c.g.Go(c.pingLoop)

	if opts.Username != "" {
		if _, err := c.Call(ctx, "server.login_user", opts.Username, opts.Password); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("authenticating as %s: %w", opts.Username, err)
		}
	}

	c.log.WithField("endpoint", u.String()).Info("connected to middleware")

	return c, nil
}

// Call issues a single RPC and blocks until its response, the context, or
// the call timeout. An error envelope is returned as *RPCError.
func (c *Client) Call(ctx context.Context, method string, args ...any) (any, error) {
	select {
	case <-c.done:
		return nil, fmt.Errorf("%w: connection closed", harness.ErrBridgeUnavailable)
	default:
	}

	if args == nil {
		args = []any{}
	}

	payload, err := json.Marshal(callArgs{Method: method, Args: args})
	if err != nil {
		return nil, fmt.Errorf("encoding args for %s: %w", method, err)
	}

	id := uuid.NewString()
	ch := make(chan *envelope, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	env := &envelope{Namespace: "rpc", Name: "call", ID: id, Args: payload}

	c.writeMu.Lock()
	err = c.conn.WriteJSON(env)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("%w: writing call %s: %v", harness.ErrBridgeUnavailable, method, err)
	}

	c.log.WithFields(logrus.Fields{
		"method": method,
		"id":     id,
	}).Debug("call sent")

	timeout := time.NewTimer(c.opts.CallTimeout)
	defer timeout.Stop()

	select {
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	case <-timeout.C:
		c.forget(id)
		return nil, fmt.Errorf("call %s timed out after %s", method, c.opts.CallTimeout) //nolint:err113 // Method name needed for debugging
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("%w: connection closed during %s", harness.ErrBridgeUnavailable, method)
		}
		return decodeResponse(method, resp)
	}
}

// Close sends a close frame, tears down the connection, and waits for the
// read and keepalive loops to exit.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	c.writeMu.Unlock()

	err := c.conn.Close()
	_ = c.g.Wait()

	if err != nil {
		return fmt.Errorf("closing connection: %w", err)
	}
	return nil
}

func decodeResponse(method string, resp *envelope) (any, error) {
	if resp.Name == "error" {
		rpcErr := &RPCError{}
		if err := json.Unmarshal(resp.Args, rpcErr); err != nil {
			return nil, fmt.Errorf("decoding error envelope for %s: %w", method, err)
		}
		return nil, rpcErr
	}

	var value any
	if len(resp.Args) > 0 {
		if err := json.Unmarshal(resp.Args, &value); err != nil {
			return nil, fmt.Errorf("decoding response for %s: %w", method, err)
		}
	}
	return value, nil
}

func (c *Client) readLoop() error {
	defer close(c.done)
	defer c.failPending()

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("reading envelope: %w", err)
		}

		if env.Namespace != "rpc" {
			c.log.WithField("namespace", env.Namespace).Debug("ignoring non-rpc message")
			continue
		}

		switch env.Name {
		case "response", "error":
			c.deliver(&env)
		default:
			c.log.WithField("name", env.Name).Debug("ignoring rpc message")
		}
	}
}

func (c *Client) pingLoop() error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return nil
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("writing ping: %w", err)
			}
		}
	}
}

func (c *Client) deliver(env *envelope) {
	c.mu.Lock()
	ch, ok := c.pending[env.ID]
	if ok {
		delete(c.pending, env.ID)
	}
	c.mu.Unlock()

	if !ok {
		c.log.WithField("id", env.ID).Debug("dropping unmatched response")
		return
	}

	ch <- env
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// failPending closes every waiting call's channel so blocked callers see
// the connection as gone.
func (c *Client) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}
