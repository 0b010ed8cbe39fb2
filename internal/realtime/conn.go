package realtime

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/qius-alx/social-network/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	DefaultSendBuffer = 64
)

var (
	ErrConnClosed     = errors.New("realtime: connection closed")
	ErrSendBufferFull = errors.New("realtime: send buffer full")
)

// Conn is a websocket connection owned by one authenticated user. Outbound
// frames go through a bounded queue drained by a single writer goroutine,
// so Send is safe for concurrent use.
type Conn struct {
	id      string
	profile model.Profile
	ws      *websocket.Conn
	logger  *slog.Logger

	send chan []byte
	done chan struct{}
	once sync.Once

	// set once by Close, read by the write loop after done is closed
	closeCode   int
	closeReason string
}

var _ Client = (*Conn)(nil)

// NewConn wraps ws. bufferSize <= 0 selects DefaultSendBuffer.
func NewConn(ws *websocket.Conn, profile model.Profile, bufferSize int, logger *slog.Logger) *Conn {
	if bufferSize <= 0 {
		bufferSize = DefaultSendBuffer
	}
	id := uuid.NewString()
	return &Conn{
		id:      id,
		profile: profile,
		ws:      ws,
		logger:  logger.With(slog.String("connID", id), slog.String("userID", profile.ID)),
		send:    make(chan []byte, bufferSize),
		done:    make(chan struct{}),
	}
}

func (c *Conn) ID() string             { return c.id }
func (c *Conn) Profile() model.Profile { return c.profile }

// Start launches the write loop, which owns the socket from then on and
// tears it down after Close. Call it once.
func (c *Conn) Start() {
	go c.writeLoop()
}

// Send queues frame. A client too slow to keep its queue from filling is
// disconnected.
func (c *Conn) Send(frame []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		c.logger.Warn("send buffer full, closing connection")
		c.Close(websocket.CloseTryAgainLater, "send buffer full")
		return ErrSendBufferFull
	}
}

// Close marks the connection closed and returns at once. The write loop
// sends the close frame with code and reason and then closes the socket.
// Safe to call more than once and from any goroutine.
func (c *Conn) Close(code int, reason string) {
	c.once.Do(func() {
		c.closeCode, c.closeReason = code, reason
		close(c.done)
	})
}

// Done is closed once the connection is closed.
func (c *Conn) Done() <-chan struct{} { return c.done }

// ReadLoop reads frames and hands each to handle, one at a time, until the
// peer goes away or the connection is closed.
func (c *Conn) ReadLoop(handle func(frame []byte)) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Debug("read failed", slog.String("error", err.Error()))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		handle(frame)
	}
}

func (c *Conn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.shutdown()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			if err := c.write(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("write failed", slog.String("error", err.Error()))
				c.Close(websocket.CloseGoingAway, "")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseGoingAway, "")
				return
			}
		}
	}
}

func (c *Conn) write(msgType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(msgType, payload)
}

// shutdown runs on the write loop once done is closed. Frames still queued
// are dropped.
func (c *Conn) shutdown() {
	<-c.done
	msg := websocket.FormatCloseMessage(c.closeCode, c.closeReason)
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = c.ws.Close()
}
