package model

// Content is the payload of a message. It is a closed union: consumers switch
// over Text and Service.
type Content interface {
	content()
}

// Text is a plain text message body.
type Text struct {
	Body string
}

// ServiceKind tags an administrative chat event.
type ServiceKind string

const (
	ServiceMemberAdded       ServiceKind = "new_chat_member"
	ServiceMemberRemoved     ServiceKind = "left_chat_member"
	ServiceTitleChanged      ServiceKind = "new_chat_title"
	ServicePhotoChanged      ServiceKind = "new_chat_photo"
	ServicePhotoDeleted      ServiceKind = "delete_chat_photo"
	ServiceGroupCreated      ServiceKind = "group_chat_created"
	ServiceSupergroupCreated ServiceKind = "supergroup_chat_created"
	ServiceChannelCreated    ServiceKind = "channel_chat_created"
	ServiceMigrateTo         ServiceKind = "migrate_to_chat_id"
	ServiceMigrateFrom       ServiceKind = "migrate_from_chat_id"
	ServicePinnedMessage     ServiceKind = "pinned_message"
)

// Service is an administrative event. Which extra field is set depends on
// Event:
//
//	member added/removed  User
//	title changed         Title
//	migrate to/from       ChatID
//	pinned message        Message, or only MessageID when not embedded
type Service struct {
	Event     ServiceKind
	User      *User
	Title     string
	ChatID    int64
	Message   *Message
	MessageID int64
}

func (Text) content()    {}
func (Service) content() {}

// mediaKeys are content keys the model recognizes but does not implement.
var mediaKeys = []string{
	"audio",
	"document",
	"game",
	"photo",
	"sticker",
	"video",
	"voice",
	"contact",
	"location",
	"venue",
}

var serviceKeys = []ServiceKind{
	ServiceMemberAdded,
	ServiceMemberRemoved,
	ServiceTitleChanged,
	ServicePhotoChanged,
	ServicePhotoDeleted,
	ServiceGroupCreated,
	ServiceSupergroupCreated,
	ServiceChannelCreated,
	ServiceMigrateTo,
	ServiceMigrateFrom,
	ServicePinnedMessage,
}
