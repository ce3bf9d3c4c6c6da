package model

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// maxEmbedDepth bounds how many levels of messages are embedded by value.
// Replies and pinned messages beyond it keep only the referenced message ID.
const maxEmbedDepth = 1

// Message is a single chat message. IDs are unique only within Chat.
type Message struct {
	ID     int64
	Chat   Chat
	Date   time.Time
	Edited bool

	// From is nil for channel posts.
	From *User

	Forwarded            bool
	ForwardFrom          *User
	ForwardFromChat      *Chat
	ForwardFromMessageID int64

	// ReplyTo is the embedded replied-to message. ReplyToID is set whenever
	// the message is a reply, embedded or not.
	ReplyTo   *Message
	ReplyToID int64

	Content Content
}

// DecodeMessage builds a Message from a raw message object.
func DecodeMessage(r gjson.Result, edited bool) (Message, error) {
	return decodeMessage(r, edited, 0)
}

func decodeMessage(r gjson.Result, edited bool, depth int) (Message, error) {
	id, err := requireInt(r, "message", "message_id")
	if err != nil {
		return Message{}, err
	}
	date, err := requireInt(r, "message", "date")
	if err != nil {
		return Message{}, err
	}
	if !has(r, "chat") {
		return Message{}, missing("message", "chat")
	}
	chat, err := DecodeChat(r.Get("chat"))
	if err != nil {
		return Message{}, fmt.Errorf("message %d: %w", id, err)
	}

	m := Message{
		ID:     id,
		Chat:   chat,
		Date:   time.Unix(date, 0).UTC(),
		Edited: edited,
	}

	if from := r.Get("from"); from.Exists() {
		u, err := DecodeUser(from)
		if err != nil {
			return Message{}, fmt.Errorf("message %d sender: %w", id, err)
		}
		m.From = &u
	}

	if m.Forwarded = has(r, "forward_date"); m.Forwarded {
		if err := m.decodeForward(r); err != nil {
			return Message{}, fmt.Errorf("message %d forward: %w", id, err)
		}
	}

	if reply := r.Get("reply_to_message"); reply.Exists() {
		m.ReplyToID = reply.Get("message_id").Int()
		if depth < maxEmbedDepth {
			// An undecodable reply target degrades to a reference.
			if embedded, err := decodeMessage(reply, false, depth+1); err == nil {
				m.ReplyTo = &embedded
			}
		}
	}

	if m.Content, err = decodeContent(r, depth); err != nil {
		return Message{}, fmt.Errorf("message %d: %w", id, err)
	}
	return m, nil
}

func (m *Message) decodeForward(r gjson.Result) error {
	switch {
	case has(r, "forward_from"):
		u, err := DecodeUser(r.Get("forward_from"))
		if err != nil {
			return err
		}
		m.ForwardFrom = &u
	case has(r, "forward_from_chat"):
		c, err := DecodeChat(r.Get("forward_from_chat"))
		if err != nil {
			return err
		}
		m.ForwardFromChat = &c
		m.ForwardFromMessageID = r.Get("forward_from_message_id").Int()
	}
	return nil
}

// decodeContent resolves the payload by trying text, then media kinds, then
// service events, using the first key present.
func decodeContent(r gjson.Result, depth int) (Content, error) {
	if text := r.Get("text"); text.Exists() {
		return Text{Body: text.String()}, nil
	}
	for _, key := range mediaKeys {
		if has(r, key) {
			return nil, &DecodeError{Entity: "message", Field: key, Err: ErrNotSupported}
		}
	}
	for _, kind := range serviceKeys {
		v := r.Get(string(kind))
		if !v.Exists() {
			continue
		}
		return decodeService(kind, v, depth)
	}
	return nil, &DecodeError{Entity: "message", Err: ErrEmptyMessage}
}

func decodeService(kind ServiceKind, v gjson.Result, depth int) (Service, error) {
	s := Service{Event: kind}
	switch kind {
	case ServiceMemberAdded, ServiceMemberRemoved:
		u, err := DecodeUser(v)
		if err != nil {
			return Service{}, err
		}
		s.User = &u
	case ServiceTitleChanged:
		s.Title = v.String()
	case ServiceMigrateTo, ServiceMigrateFrom:
		s.ChatID = v.Int()
	case ServicePinnedMessage:
		s.MessageID = v.Get("message_id").Int()
		if depth < maxEmbedDepth {
			if pinned, err := decodeMessage(v, false, depth+1); err == nil {
				s.Message = &pinned
			}
		}
	}
	return s, nil
}

// Text returns the body of a plain text message.
func (m Message) Text() (string, bool) {
	t, ok := m.Content.(Text)
	return t.Body, ok
}

// SenderID returns the sender's user ID, or 0 for anonymous channel posts.
func (m Message) SenderID() int64 {
	if m.From == nil {
		return 0
	}
	return m.From.ID
}

func (m Message) String() string {
	switch c := m.Content.(type) {
	case Text:
		return "message: " + c.Body
	case Service:
		return "service message: " + string(c.Event)
	default:
		return fmt.Sprintf("message %d", m.ID)
	}
}
