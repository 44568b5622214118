package models

// ContentType is the kind of payload carried by a relayed message.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentPhoto    ContentType = "photo"
	ContentVideo    ContentType = "video"
	ContentDocument ContentType = "document"
	ContentUnknown  ContentType = "unknown"
)

// Content is the payload of an inbound or outbound message.
// It is implemented only by Text, Photo, Video, Document and Unknown.
type Content interface {
	Type() ContentType
	isContent()
}

// Text is a plain text message.
type Text struct {
	Body string
}

// Photo references a photo already uploaded to Telegram.
type Photo struct {
	FileID  string
	Caption string
}

// Video references a video already uploaded to Telegram.
type Video struct {
	FileID  string
	Caption string
}

// Document references a file already uploaded to Telegram.
type Document struct {
	FileID   string
	FileName string
	Caption  string
}

// Unknown is any message kind the relay does not forward as-is
// (stickers, voice notes, locations, ...). Kind names the Telegram message type.
type Unknown struct {
	Kind string
}

func (Text) Type() ContentType     { return ContentText }
func (Photo) Type() ContentType    { return ContentPhoto }
func (Video) Type() ContentType    { return ContentVideo }
func (Document) Type() ContentType { return ContentDocument }
func (Unknown) Type() ContentType  { return ContentUnknown }

func (Text) isContent()     {}
func (Photo) isContent()    {}
func (Video) isContent()    {}
func (Document) isContent() {}
func (Unknown) isContent()  {}

// Summary returns the human readable part of the content: the text body,
// the caption of a media message, or an empty string.
func Summary(c Content) string {
	switch v := c.(type) {
	case Text:
		return v.Body
	case Photo:
		return v.Caption
	case Video:
		return v.Caption
	case Document:
		return v.Caption
	default:
		return ""
	}
}
