package model

import "time"

// MessageRef points at a message that already exists on the platform, so it can
// be forwarded without copying its content.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// InboundMessage is immutable once built by the transport layer.
type InboundMessage struct {
	Sender     Sender
	Ref        MessageRef
	Text       string // text or caption, empty for pure media
	ReceivedAt time.Time
}

type EventKind int

const (
	EventIgnored EventKind = iota
	EventCommand
	EventPersonalMessage
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventPersonalMessage:
		return "personal_message"
	default:
		return "ignored"
	}
}

// Event is the classified form of one inbound update.
// Raw keeps the transport payload for diagnostics only.
type Event struct {
	Kind    EventKind
	Command string // without the leading slash, EventCommand only
	Message *InboundMessage
	Raw     any
}
