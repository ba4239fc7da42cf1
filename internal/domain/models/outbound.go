package models

// AutomationReply is the text sent back to a chat user after a command.
type AutomationReply struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// String renders the reply as a WhatsApp message body.
func (r AutomationReply) String() string {
	if r.Title == "" {
		return r.Message
	}
	return "*" + r.Title + "*\n" + r.Message
}
