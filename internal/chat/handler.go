package chat

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/contact-iqbal/ppdb-chat-bridge/internal/relay"
	"github.com/contact-iqbal/ppdb-chat-bridge/internal/store"
)

type Handler struct {
	store   *store.Store
	pub     relay.Publisher
	gateway *Gateway
	hub     *relay.Hub // nil in relay-forward mode (no local /ws endpoint)
}

func NewHandler(st *store.Store, pub relay.Publisher, gateway *Gateway, hub *relay.Hub) *Handler {
	return &Handler{
		store:   st,
		pub:     pub,
		gateway: gateway,
		hub:     hub,
	}
}

// Webhook ingests an inbound message from the WhatsApp gateway: assign a
// local id, push to the relay, append to the store. The two effects are
// independent and non-transactional; neither is retried.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var p WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now()
	if p.Type == "" {
		p.Type = "text"
	}
	if p.Timestamp == 0 {
		p.Timestamp = now.UnixMilli()
	}

	msg := store.Message{
		ID:        now.UnixMilli(),
		User:      p.User,
		From:      p.From,
		Type:      p.Type,
		Message:   p.Message,
		Data:      p.Data,
		Mimetype:  p.Mimetype,
		Quoted:    p.Quoted,
		Timestamp: p.Timestamp,
		IsFromMe:  p.IsFromMe,
	}

	log.Printf("📥 Received message from webhook: id=%d type=%s from=%s hasData=%t",
		msg.ID, msg.Type, msg.From, msg.Data != "")

	if err := h.pub.Publish(r.Context(), relay.EventNewMessage, msg); err != nil {
		log.Printf("❌ Relay publish failed: %v", err)
	}
	h.store.Append(r.Context(), msg)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Send forwards an outbound message to the WhatsApp gateway and pushes the
// optimistic "sent" copy to subscribed UIs. The store is not touched here:
// the gateway echoes the message back through the webhook.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.To == "" || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Parameter 'to' dan 'message' wajib diisi",
		})
		return
	}

	now := time.Now()
	log.Printf("📤 API: Mengirim pesan WhatsApp ke %s", req.To)

	if err := h.gateway.SendMessage(r.Context(), req.To, req.Message); err != nil {
		log.Printf("❌ API Error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "Terjadi kesalahan saat mengirim pesan",
		})
		return
	}

	out := store.Message{
		ID:        now.UnixMilli(),
		From:      req.To,
		Type:      "text",
		Message:   req.Message,
		Timestamp: now.UnixMilli(),
		IsFromMe:  true,
		Status:    "sent",
	}
	if err := h.pub.Publish(r.Context(), relay.EventNewMessage, out); err != nil {
		log.Printf("❌ Relay publish failed: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Pesan sedang dikirim",
		"data": map[string]any{
			"to":        req.To,
			"message":   req.Message,
			"timestamp": now.UTC().Format(time.RFC3339),
		},
	})
}

// StoreGet returns the full {messages, sessions} aggregate for the initial
// UI load. Live updates ride the relay instead.
func (h *Handler) StoreGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Load(r.Context()))
}

// StorePost handles the union store write: a session unread update or a
// message-shaped append.
func (h *Handler) StorePost(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Type == "update_session" {
		sessions := h.store.UpdateSessionUnread(r.Context(), req.Phone, req.UnreadCount)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"sessions": sessions,
		})
		return
	}

	now := time.Now()
	if req.ID == 0 {
		req.ID = now.UnixMilli()
	}
	if req.Timestamp == 0 {
		req.Timestamp = now.UnixMilli()
	}

	msg := store.Message{
		ID:        req.ID,
		User:      req.User,
		From:      req.From,
		Type:      req.Type,
		Message:   req.Message,
		Data:      req.Data,
		Mimetype:  req.Mimetype,
		Quoted:    req.Quoted,
		Timestamp: req.Timestamp,
		IsFromMe:  req.IsFromMe,
	}
	sessions := h.store.Append(r.Context(), msg)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"msg":      msg,
		"sessions": sessions,
	})
}

// ReceiveStatus is the gateway-facing diagnostics ping.
func (h *Handler) ReceiveStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "active",
		"message":   "WhatsApp webhook endpoint",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReceiveEcho logs an inbound message without storing it. Used while wiring
// up a new gateway instance.
func (h *Handler) ReceiveEcho(w http.ResponseWriter, r *http.Request) {
	var p WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now()
	if p.Timestamp == 0 {
		p.Timestamp = now.UnixMilli()
	}
	log.Printf("📥 API: Menerima pesan WhatsApp dari %s", p.From)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Pesan berhasil diterima (console)",
		"data": map[string]any{
			"from":      p.From,
			"message":   p.Message,
			"timestamp": p.Timestamp,
			"messageId": "msg_" + strconv.FormatInt(now.UnixMilli(), 10),
		},
	})
}

// ServeWs subscribes an admin UI client to the local hub. Only routed in
// hosted-local mode.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	relay.ServeWs(h.hub, w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
