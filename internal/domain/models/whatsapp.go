package models

// WebhookPayload is the subset of a Cloud API webhook callback the chat
// commands need. Unknown fields are ignored.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

// WebhookValue carries inbound messages, delivery receipts and errors.
type WebhookValue struct {
	Messages []InboundMessage `json:"messages"`
	Statuses []MessageStatus  `json:"statuses"`
	Errors   []WebhookError   `json:"errors"`
}

// InboundMessage is one message sent by the plant owner.
type InboundMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *TextContent        `json:"text,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
	Image       *MediaContent       `json:"image,omitempty"`
}

// Body is the command text of the message: the text body, the id of a
// tapped button or list row, or an image caption.
func (m InboundMessage) Body() string {
	switch {
	case m.Text != nil:
		return m.Text.Body
	case m.Interactive != nil && m.Interactive.ButtonReply != nil:
		return m.Interactive.ButtonReply.ID
	case m.Interactive != nil && m.Interactive.ListReply != nil:
		return m.Interactive.ListReply.ID
	case m.Image != nil:
		return m.Image.Caption
	}
	return ""
}

// PhotoOnly reports an image sent without any command text.
func (m InboundMessage) PhotoOnly() bool {
	return m.Image != nil && m.Body() == ""
}

type TextContent struct {
	Body string `json:"body"`
}

// InteractiveContent is a button or list reply. Reply ids are command strings
// such as "/due" or "/water 3".
type InteractiveContent struct {
	Type        string            `json:"type"`
	ButtonReply *InteractiveReply `json:"button_reply,omitempty"`
	ListReply   *InteractiveReply `json:"list_reply,omitempty"`
}

type InteractiveReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type MediaContent struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption"`
}

// MessageStatus is a delivery receipt for a reply or reminder.
type MessageStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

type WebhookError struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
