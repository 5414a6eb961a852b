package chat

// ---------------------------------------------
// 🗄️ API Models
// ---------------------------------------------

// WebhookPayload is the body the WhatsApp gateway POSTs on message receipt.
// The local message id is assigned here, not by the gateway.
type WebhookPayload struct {
	From      string `json:"from"`
	Message   string `json:"message"`
	User      string `json:"user"`
	IsFromMe  bool   `json:"is_from_me"`
	Type      string `json:"type"`
	Data      string `json:"data"`
	Mimetype  string `json:"mimetype"`
	Quoted    string `json:"quoted"`
	Timestamp int64  `json:"timestamp"`
}

// SendRequest is the outbound-send body coming from the admin UI.
type SendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// StoreRequest is the union body of the store POST: when Type is
// "update_session" only Phone/UnreadCount matter, otherwise the embedded
// message fields describe an append.
type StoreRequest struct {
	WebhookPayload

	ID          int64  `json:"id"`
	Phone       string `json:"phone"`
	UnreadCount int    `json:"unreadCount"`
}
