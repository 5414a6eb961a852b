package relay

// Hub is the central router for hosted-local mode. It maintains the set of
// connected admin UI sockets and fans published frames out to all of them.
//
// Run owns h.clients; register/unregister/broadcast channels are the only way
// in, so the map needs no lock.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Broadcast queues a frame for delivery to every connected client. Clients
// that cannot keep up are dropped rather than allowed to back up the hub.
func (h *Hub) Broadcast(frame []byte) {
	h.broadcast <- frame
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}

		case frame := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- frame:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}
