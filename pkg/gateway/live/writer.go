package live

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

type wsConn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// feedWriter drains a subscriber onto a WebSocket. Priority frames
// (snapshots, commits, state changes) always preempt audio and ghost
// traffic, and a ping keeps intermediaries from idling the socket out.
type feedWriter struct {
	ws           wsConn
	ctx          context.Context
	pingInterval time.Duration
	writeTimeout time.Duration
	priority     <-chan []byte
	normal       <-chan []byte
}

func (w *feedWriter) Run() error {
	if w == nil || w.ws == nil {
		return nil
	}

	pingInterval := w.pingInterval
	if pingInterval <= 0 {
		pingInterval = 20 * time.Second
	}
	writeTimeout := w.writeTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	var pendingNormal []byte

	for {
		if w.ctx != nil {
			select {
			case <-w.ctx.Done():
				_ = w.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
				_ = w.ws.Close()
				return nil
			default:
			}
		}

		// Hard priority: anything queued goes out before normal frames.
		select {
		case payload := <-w.priority:
			if err := w.write(payload, writeTimeout); err != nil {
				return err
			}
			continue
		default:
		}

		// Allow a newly-queued priority frame to preempt a held normal
		// frame before it is written.
		if pendingNormal != nil {
			select {
			case payload := <-w.priority:
				if err := w.write(payload, writeTimeout); err != nil {
					return err
				}
				continue
			default:
			}
			if err := w.write(pendingNormal, writeTimeout); err != nil {
				return err
			}
			pendingNormal = nil
			continue
		}

		select {
		case <-pingTicker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := w.ws.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				return err
			}
		case payload := <-w.priority:
			if err := w.write(payload, writeTimeout); err != nil {
				return err
			}
		case payload := <-w.normal:
			pendingNormal = payload
		case <-w.done():
		}
	}
}

func (w *feedWriter) done() <-chan struct{} {
	if w.ctx == nil {
		return nil
	}
	return w.ctx.Done()
}

func (w *feedWriter) write(payload []byte, writeTimeout time.Duration) error {
	if err := w.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return w.ws.WriteMessage(websocket.TextMessage, payload)
}
