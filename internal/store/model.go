package store

import "strings"

// ---------------------------------------------
// 🗄️ Store Models
// ---------------------------------------------

// Message is one chat message as the gateway/UI sees it.
// IDs and timestamps are unix milliseconds (the gateway sends epoch millis).
type Message struct {
	ID        int64  `json:"id"`
	User      string `json:"user"`    // Display name of the sender
	From      string `json:"from"`    // Raw contact address, e.g. "628111xxxx@c.us"
	Type      string `json:"type"`    // "text", "image" or "sticker"
	Message   string `json:"message"` // Display text (empty for media)
	Data      string `json:"data,omitempty"`     // Inline media payload, base64
	Mimetype  string `json:"mimetype,omitempty"` // MIME type of Data
	Quoted    string `json:"quoted,omitempty"`   // Text of the quoted message, if any
	Timestamp int64  `json:"timestamp"`
	IsFromMe  bool   `json:"is_from_me"`
	Status    string `json:"status,omitempty"` // "sent", "delivered" or "read"
}

// Session is the per-contact conversation summary the sidebar renders.
type Session struct {
	Phone           string `json:"phone"` // Contact address with the domain suffix stripped
	Name            string `json:"name"`
	LastMessage     string `json:"lastMessage"`
	LastMessageTime int64  `json:"lastMessageTime"`
	UnreadCount     int    `json:"unreadCount"`
}

// Aggregate is the full persisted state: every message ever seen plus the
// session list. This is exactly the JSON layout written to disk/blob.
type Aggregate struct {
	Messages []Message `json:"messages"`
	Sessions []Session `json:"sessions"`
}

// NormalizePhone strips the gateway domain suffix ("6281111@c.us" -> "6281111").
// Sessions are keyed by the stripped form.
func NormalizePhone(addr string) string {
	if i := strings.Index(addr, "@"); i >= 0 {
		return addr[:i]
	}
	return addr
}

// Preview collapses media messages to a fixed placeholder for the sidebar.
func Preview(msgType, text string) string {
	switch msgType {
	case "image":
		return "[image]"
	case "sticker":
		return "[sticker]"
	}
	return text
}
