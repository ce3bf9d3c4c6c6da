package model

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// UpdateKind records how an update's message arrived.
type UpdateKind string

const (
	UpdateMessage           UpdateKind = "message"
	UpdateEditedMessage     UpdateKind = "edited_message"
	UpdateChannelPost       UpdateKind = "channel_post"
	UpdateEditedChannelPost UpdateKind = "edited_channel_post"
)

var updateKinds = []UpdateKind{
	UpdateMessage,
	UpdateEditedMessage,
	UpdateChannelPost,
	UpdateEditedChannelPost,
}

// Edited reports whether the kind carries an edit of an earlier message.
func (k UpdateKind) Edited() bool {
	return k == UpdateEditedMessage || k == UpdateEditedChannelPost
}

// Update is one platform event wrapping exactly one message.
type Update struct {
	ID      int64
	Kind    UpdateKind
	Message Message
}

// DecodeUpdate builds an Update from a raw update object.
//
// When the update ID could be read it is set on the returned Update even if
// decoding fails, so callers can still advance their offset. Updates without a
// message payload (inline queries, callbacks and the like) fail with
// ErrUnsupportedUpdate.
func DecodeUpdate(r gjson.Result) (Update, error) {
	id, err := requireInt(r, "update", "update_id")
	if err != nil {
		return Update{}, err
	}
	u := Update{ID: id}
	for _, kind := range updateKinds {
		v := r.Get(string(kind))
		if !v.Exists() {
			continue
		}
		msg, err := DecodeMessage(v, kind.Edited())
		if err != nil {
			return u, fmt.Errorf("update %d: %w", id, err)
		}
		u.Kind = kind
		u.Message = msg
		return u, nil
	}
	return u, &DecodeError{Entity: "update", Err: ErrUnsupportedUpdate}
}
