package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/popgate/popgate/internal/infrastructure/logging"
)

const writeWait = 10 * time.Second

// Conn is a websocket connection to the relay. Inbound frames are dispatched
// inline on the read loop, so inspection and navigation happen synchronously
// with delivery.
type Conn struct {
	*Dispatcher

	ws      *websocket.Conn
	logger  *logging.Logger
	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the relay websocket endpoint and starts the read loop.
func Dial(ctx context.Context, url string, logger *logging.Logger) (*Conn, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay %s: %w", url, err)
	}

	c := &Conn{
		Dispatcher: NewDispatcher(),
		ws:         ws,
		logger:     logger,
		done:       make(chan struct{}),
	}

	go c.readLoop()
	return c, nil
}

// Send writes v as a JSON text frame.
func (c *Conn) Send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// Close tears down the connection. The read loop dispatches EventClose on
// its way out.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ws.Close()
	})
	return err
}

// Done is closed once the read loop has exited.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) readLoop() {
	defer close(c.done)

	c.Dispatch(EventOpen, nil)
	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("relay connection lost", zap.Error(err))
				c.Dispatch(EventError, []byte(err.Error()))
			}
			c.Dispatch(EventClose, nil)
			return
		}
		c.Dispatch(EventMessage, payload)
	}
}
