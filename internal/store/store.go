// Package store holds the in-memory conversation state: the canonical chats
// known to the bot together with their users and message history.
package store

import (
	"slices"
	"sync"

	"github.com/edgard/pollbot/internal/model"
)

// Outcome describes what folding a message did to its chat's history.
type Outcome int

const (
	// MessageAppended means a new message was added at the end of the history.
	MessageAppended Outcome = iota
	// MessageReplaced means an edit replaced the earlier message in place.
	MessageReplaced
	// MessageDuplicate means a non-edited message with a known ID was ignored.
	MessageDuplicate
	// EditDiscarded means an edit referenced a message the chat never saw.
	EditDiscarded
)

func (o Outcome) String() string {
	switch o {
	case MessageAppended:
		return "appended"
	case MessageReplaced:
		return "replaced"
	case MessageDuplicate:
		return "duplicate"
	case EditDiscarded:
		return "edit_discarded"
	default:
		return "unknown"
	}
}

// FoldResult reports the effect of a single Fold.
type FoldResult struct {
	ChatAdded bool
	UserAdded bool
	Outcome   Outcome
}

// Counts summarizes the store's contents.
type Counts struct {
	Chats    int
	Users    int
	Messages int
}

// Store is the conversation registry. Chats are kept in first-seen order and
// reconciled by ID. A single lock guards all list mutation, so readers may run
// concurrently with folding.
type Store struct {
	mu    sync.RWMutex
	chats map[int64]*model.Chat
	order []int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{chats: make(map[int64]*model.Chat)}
}

// Fold merges a freshly decoded message into the store:
//   - the chat is inserted on first sight, with empty user and message lists;
//   - the sender, if any, is added to the chat's users once;
//   - a non-edited message is appended unless its ID is already present;
//   - an edited message replaces the message with the same ID in place, and is
//     dropped when there is none.
func (s *Store) Fold(msg model.Message) FoldResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res FoldResult
	chat, ok := s.chats[msg.Chat.ID]
	if !ok {
		snapshot := msg.Chat.Snapshot()
		chat = &snapshot
		s.chats[chat.ID] = chat
		s.order = append(s.order, chat.ID)
		res.ChatAdded = true
	}

	if msg.From != nil && !chat.HasUser(*msg.From) {
		chat.Users = append(chat.Users, *msg.From)
		res.UserAdded = true
	}

	i := chat.MessageIndex(msg.ID)
	switch {
	case !msg.Edited && i < 0:
		chat.Messages = append(chat.Messages, msg)
		res.Outcome = MessageAppended
	case !msg.Edited:
		res.Outcome = MessageDuplicate
	case i >= 0:
		chat.Messages[i] = msg
		res.Outcome = MessageReplaced
	default:
		res.Outcome = EditDiscarded
	}
	return res
}

// Chat returns a copy of the canonical chat with the given ID.
func (s *Store) Chat(id int64) (model.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[id]
	if !ok {
		return model.Chat{}, false
	}
	return clone(chat), true
}

// Chats returns copies of all known chats in first-seen order.
func (s *Store) Chats() []model.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Chat, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clone(s.chats[id]))
	}
	return out
}

// Message looks up a message by chat and message ID.
func (s *Store) Message(chatID, msgID int64) (model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return model.Message{}, false
	}
	return chat.FindMessage(msgID)
}

// Counts returns the number of chats, users and messages held.
func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Counts{Chats: len(s.chats)}
	for _, chat := range s.chats {
		c.Users += len(chat.Users)
		c.Messages += len(chat.Messages)
	}
	return c
}

func clone(c *model.Chat) model.Chat {
	out := *c
	out.Users = slices.Clone(c.Users)
	out.Messages = slices.Clone(c.Messages)
	return out
}
