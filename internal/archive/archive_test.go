package archive_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/pollbot/internal/archive"
	"github.com/edgard/pollbot/internal/model"
)

func newStore(t *testing.T) archive.Store {
	t.Helper()
	db, err := archive.Open(filepath.Join(t.TempDir(), "archive.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close(db, nil) })
	return archive.NewStore(db, nil)
}

func TestSaveMessagesUpserts(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	chat := model.Chat{ID: -7, Kind: model.ChatGroup, Title: "G"}
	original := model.Message{ID: 1, Chat: chat, Date: time.Unix(1500000000, 0), From: &model.User{ID: 3}, Content: model.Text{Body: "hi"}}
	other := model.Message{ID: 2, Chat: chat, Date: time.Unix(1500000001, 0), Content: model.Service{Event: model.ServiceTitleChanged, Title: "New"}}

	n, err := s.SaveMessages(ctx, []archive.Message{archive.FromModel(original), archive.FromModel(other)})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	edited := original
	edited.Edited = true
	edited.Content = model.Text{Body: "hi (edited)"}
	_, err = s.SaveMessages(ctx, []archive.Message{archive.FromModel(edited)})
	require.NoError(t, err)

	count, err := s.CountMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, ok, err := s.GetMessage(ctx, -7, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hi (edited)", got.Content)
	assert.True(t, got.Edited)
	assert.Equal(t, int64(3), got.UserID)
	assert.Equal(t, int64(1500000000), got.SentAt)

	svc, ok, err := s.GetMessage(ctx, -7, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "[new_chat_title] New", svc.Content)

	missing, ok, err := s.GetMessage(ctx, -7, 99)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, archive.Message{}, missing)

	require.NoError(t, s.RunSQLMaintenance(ctx))
}

func TestSaveMessagesEmpty(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	n, err := s.SaveMessages(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		content model.Content
		want    string
	}{
		{model.Text{Body: "plain"}, "plain"},
		{model.Service{Event: model.ServiceMemberAdded, User: &model.User{ID: 4}}, "[new_chat_member] 4"},
		{model.Service{Event: model.ServiceMigrateTo, ChatID: -100}, "[migrate_to_chat_id] -100"},
		{model.Service{Event: model.ServicePinnedMessage, MessageID: 8}, "[pinned_message] 8"},
		{model.Service{Event: model.ServiceGroupCreated}, "[group_chat_created]"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, archive.Describe(tc.content))
	}
}
