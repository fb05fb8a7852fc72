package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hilthontt/proctor/internal/domain"
	"github.com/hilthontt/proctor/internal/infrastructure/configs"
	"github.com/hilthontt/proctor/internal/infrastructure/logging"
)

var (
	ErrEndpointClosed = errors.New("endpoint closed")
	ErrSendBufferFull = errors.New("endpoint send buffer full")
)

// Endpoint is an addressable, live channel. Send never blocks.
type Endpoint interface {
	ID() domain.EndpointID
	Send(evt *Event) error
}

// Dispatcher receives every decoded inbound event and the final disconnect of
// a client. Events from one client are dispatched in the order they arrive.
type Dispatcher interface {
	Dispatch(ctx context.Context, ep Endpoint, evt *InboundEvent)
	Disconnect(ctx context.Context, ep Endpoint)
}

type ClientOptions struct {
	SendBuffer     int
	MaxMessageSize int64
	PongWait       time.Duration
	PingPeriod     time.Duration
	WriteWait      time.Duration
}

func NewClientOptions(cfg configs.WebSocketConfig) ClientOptions {
	return ClientOptions{
		SendBuffer:     cfg.SendBuffer,
		MaxMessageSize: cfg.MaxMessageSize,
		PongWait:       cfg.PongWait,
		PingPeriod:     cfg.PingPeriod,
		WriteWait:      cfg.WriteWait,
	}
}

type Client struct {
	conn   *connWrapper
	send   chan *Event
	id     domain.EndpointID
	opts   ClientOptions
	logger logging.Logger

	closeOnce sync.Once
	closed    chan struct{}
	mu        sync.RWMutex // guards send against close
}

func NewClient(conn *websocket.Conn, opts ClientOptions, logger logging.Logger) *Client {
	return &Client{
		conn:   newConnWrapper(conn),
		send:   make(chan *Event, opts.SendBuffer),
		id:     domain.EndpointID(uuid.NewString()),
		opts:   opts,
		logger: logger,
		closed: make(chan struct{}),
	}
}

func (c *Client) ID() domain.EndpointID {
	return c.id
}

func (c *Client) Send(evt *Event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.IsClosed() {
		return ErrEndpointClosed
	}

	select {
	case c.send <- evt:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		close(c.closed)
		close(c.send)
		c.mu.Unlock()
		_ = c.conn.Close()
	})
}

func (c *Client) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// ReadPump blocks until the socket fails or closes, then reports the
// disconnect to d exactly once.
func (c *Client) ReadPump(ctx context.Context, d Dispatcher) {
	defer func() {
		d.Disconnect(ctx, c)
		c.Close()
	}()

	c.conn.conn.SetReadLimit(c.opts.MaxMessageSize)
	_ = c.conn.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.conn.SetPongHandler(func(string) error {
		return c.conn.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn(logging.Socket, logging.Disconnect, "unexpected close", map[logging.ExtraKey]any{
					logging.EndpointID:   c.id,
					logging.ErrorMessage: err.Error(),
				})
			}
			return
		}

		if len(raw) == 0 {
			continue
		}

		evt, err := DecodeInbound(raw)
		if err != nil {
			c.logger.Warn(logging.Socket, logging.Decode, "dropping undecodable event", map[logging.ExtraKey]any{
				logging.EndpointID:   c.id,
				logging.ErrorMessage: err.Error(),
			})
			continue
		}

		d.Dispatch(ctx, c, evt)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, time.Now().Add(c.opts.WriteWait))
				return
			}

			if err := c.conn.WriteJSON(evt, time.Now().Add(c.opts.WriteWait)); err != nil {
				c.logger.Warn(logging.Socket, logging.Delivery, "write failed", map[logging.ExtraKey]any{
					logging.EndpointID:   c.id,
					logging.EventType:    evt.Type,
					logging.ErrorMessage: err.Error(),
				})
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, time.Now().Add(c.opts.WriteWait)); err != nil {
				return
			}
		}
	}
}
