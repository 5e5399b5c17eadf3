package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/dicthub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dicthub/internal/shared/utils"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WebSocketPort adapts a gorilla connection to Port. The origin is checked
// once, when the connection is upgraded.
type WebSocketPort struct {
	conn    *websocket.Conn
	logger  *zap.Logger
	metrics *monitoring.Metrics

	inbox chan Message
	done  chan struct{}
	once  sync.Once
	wmu   sync.Mutex
}

// NewWebSocketPort starts the read and keepalive loops for conn.
func NewWebSocketPort(conn *websocket.Conn, logger *zap.Logger, metrics *monitoring.Metrics) *WebSocketPort {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &WebSocketPort{
		conn:    conn,
		logger:  logger,
		metrics: metrics,
		inbox:   make(chan Message, pipeBuffer),
		done:    make(chan struct{}),
	}
	if metrics != nil {
		metrics.IncPorts()
	}
	go p.readLoop()
	go p.pingLoop()
	return p
}

func (p *WebSocketPort) readLoop() {
	defer p.Close()

	p.conn.SetReadLimit(int64(utils.MaxPacketSize))
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			p.logger.Debug("Dropping non-text frame")
			continue
		}

		msg, err := Decode(data)
		if err != nil {
			p.logger.Debug("Dropping malformed message", zap.Error(err))
			continue
		}
		if p.metrics != nil {
			p.metrics.RecordPacket(DirectionIn, string(msg.Command()))
		}

		select {
		case p.inbox <- msg:
		case <-p.done:
			return
		}
	}
}

func (p *WebSocketPort) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.wmu.Lock()
			err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			p.wmu.Unlock()
			if err != nil {
				p.Close()
				return
			}
		case <-p.done:
			return
		}
	}
}

// Send writes msg as one text frame.
func (p *WebSocketPort) Send(ctx context.Context, msg Message) error {
	select {
	case <-p.done:
		return ErrPortClosed
	default:
	}
	data, err := Encode(msg)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	p.wmu.Lock()
	defer p.wmu.Unlock()
	_ = p.conn.SetWriteDeadline(deadline)
	if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	if p.metrics != nil {
		p.metrics.RecordPacket(DirectionOut, string(msg.Command()))
	}
	return nil
}

func (p *WebSocketPort) Receive() <-chan Message { return p.inbox }

func (p *WebSocketPort) Done() <-chan struct{} { return p.done }

// Close sends a close frame and releases the connection.
func (p *WebSocketPort) Close() error {
	var err error
	p.once.Do(func() {
		close(p.done)
		p.wmu.Lock()
		_ = p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		p.wmu.Unlock()
		err = p.conn.Close()
		if p.metrics != nil {
			p.metrics.DecPorts()
		}
	})
	return err
}
