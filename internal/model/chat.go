package model

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ChatKind is the closed set of conversation types.
type ChatKind string

const (
	ChatPrivate    ChatKind = "private"
	ChatGroup      ChatKind = "group"
	ChatSupergroup ChatKind = "supergroup"
	ChatChannel    ChatKind = "channel"
)

// Chat is a conversation context. Chats compare by ID only.
//
// Users and Messages are only populated on the canonical chat held by the
// conversation store; a Chat embedded in a Message is a point-in-time snapshot
// with both lists empty.
type Chat struct {
	ID    int64
	Kind  ChatKind
	Title string

	// FirstName and LastName are set for private chats only.
	FirstName string
	LastName  string

	// Username is never set for plain groups.
	Username string

	AllMembersAreAdmins bool

	Users    []User
	Messages []Message
}

// DecodeChat builds a Chat from a raw chat object.
//
// Private chats have no platform title; it is rendered as "first last", which
// leaves a trailing space when the last name is absent.
func DecodeChat(r gjson.Result) (Chat, error) {
	id, err := requireInt(r, "chat", "id")
	if err != nil {
		return Chat{}, err
	}
	kind, err := requireString(r, "chat", "type")
	if err != nil {
		return Chat{}, err
	}

	c := Chat{ID: id, Kind: ChatKind(kind)}
	switch c.Kind {
	case ChatPrivate:
		if c.FirstName, err = requireString(r, "chat", "first_name"); err != nil {
			return Chat{}, err
		}
		c.LastName = optionalString(r, "last_name")
		c.Username = optionalString(r, "username")
		c.Title = c.FirstName + " " + c.LastName
		c.AllMembersAreAdmins = true
	case ChatGroup, ChatSupergroup, ChatChannel:
		if c.Title, err = requireString(r, "chat", "title"); err != nil {
			return Chat{}, err
		}
		if c.Kind == ChatGroup {
			c.AllMembersAreAdmins = r.Get("all_members_are_administrators").Bool()
		} else {
			c.Username = optionalString(r, "username")
		}
	default:
		return Chat{}, &DecodeError{Entity: "chat", Field: kind, Err: ErrUnknownChatKind}
	}
	return c, nil
}

// Equal compares chats by ID only.
func (c Chat) Equal(other Chat) bool {
	return c.ID == other.ID
}

// HasUser reports whether a user with the same ID is known in the chat.
func (c Chat) HasUser(u User) bool {
	for _, known := range c.Users {
		if known.Equal(u) {
			return true
		}
	}
	return false
}

// MessageIndex returns the position of the message with the given ID, or -1.
func (c Chat) MessageIndex(id int64) int {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

// FindMessage returns the message with the given ID.
func (c Chat) FindMessage(id int64) (Message, bool) {
	if i := c.MessageIndex(id); i >= 0 {
		return c.Messages[i], true
	}
	return Message{}, false
}

// Snapshot returns a copy of the chat without its user and message lists.
func (c Chat) Snapshot() Chat {
	c.Users = nil
	c.Messages = nil
	return c
}

func (c Chat) String() string {
	return fmt.Sprintf("%s chat %s", c.Kind, c.Title)
}
