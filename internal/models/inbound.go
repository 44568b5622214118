package models

// Inbound is a message received from the transport, already decoded.
type Inbound struct {
	// ChatID is the chat the message came from (equal to the sender for private chats).
	ChatID int64
	// MessageID is the transport message ID.
	MessageID int
	Sender    Sender
	// Command is the bot command without the leading slash, empty for regular messages.
	Command string
	Content Content
}

// Text returns the text body of the message, or an empty string for media.
func (in Inbound) Text() string {
	if t, ok := in.Content.(Text); ok {
		return t.Body
	}
	return ""
}

// Callback is an inline button press received from the transport.
type Callback struct {
	ID     string
	ChatID int64
	Sender Sender
	// Data is the opaque action token attached to the button.
	Data string
}
