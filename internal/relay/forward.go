package relay

import (
	"context"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// ForwardingPublisher relays publishes over one persistent websocket
// connection to a remotely hosted push server. The connection is dialed
// lazily on first use and reused for the life of the process; a failed write
// drops it so the next publish redials.
type ForwardingPublisher struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewForwardingPublisher(url string) *ForwardingPublisher {
	return &ForwardingPublisher{url: url}
}

func (p *ForwardingPublisher) Publish(ctx context.Context, event string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, p.url, nil)
		if err != nil {
			return err
		}
		log.Printf("✅ Connected to socket server: %s", p.url)
		p.conn = conn
	}

	if err := p.conn.WriteJSON(Envelope{Event: event, Data: data}); err != nil {
		p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

// Close tears down the forwarding connection, if any. Only used by tests and
// shutdown paths; the relay otherwise lives as long as the process.
func (p *ForwardingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
