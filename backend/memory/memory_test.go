package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/systemcmd0122/developer-bot/backend/model"
)

func TestInteractionUpsertAndList(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	ctx := context.Background()

	rec := model.InteractionRecord{
		MessageID: uuid.NewString(),
		Kind:      model.KindButton,
		GuildID:   "guild-1",
		Payload:   json.RawMessage(`{"action":"delete-all"}`),
		UpdatedAt: time.Now(),
	}

	require.NoError(t, b.UpsertInteraction(ctx, rec))

	records, err := b.ListInteractions(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, rec.MessageID, records[0].MessageID)
	require.JSONEq(t, `{"action":"delete-all"}`, string(records[0].Payload))
}

func TestInteractionUpsertRequiresMessageID(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	err = b.UpsertInteraction(context.Background(), model.InteractionRecord{Kind: model.KindMenu})
	require.Error(t, err)
}

func TestDeleteInteractionRemovesAllKinds(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	ctx := context.Background()
	id := uuid.NewString()

	for _, kind := range []model.Kind{model.KindButton, model.KindMenu, model.KindBoard} {
		require.NoError(t, b.UpsertInteraction(ctx, model.InteractionRecord{
			MessageID: id,
			Kind:      kind,
			Payload:   json.RawMessage(`{}`),
			UpdatedAt: time.Now(),
		}))
	}

	require.NoError(t, b.DeleteInteraction(ctx, id))

	records, err := b.ListInteractions(ctx)
	require.NoError(t, err)
	require.Empty(t, records)

	// deleting again must be harmless
	require.NoError(t, b.DeleteInteraction(ctx, id))
}

func TestDeleteInteractionsBefore(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, b.UpsertInteraction(ctx, model.InteractionRecord{
		MessageID: "old",
		Kind:      model.KindButton,
		UpdatedAt: time.Now().Add(-48 * time.Hour),
	}))
	require.NoError(t, b.UpsertInteraction(ctx, model.InteractionRecord{
		MessageID: "fresh",
		Kind:      model.KindButton,
		UpdatedAt: time.Now(),
	}))

	removed, err := b.DeleteInteractionsBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	records, err := b.ListInteractions(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "fresh", records[0].MessageID)
}

func TestActivitySettingDefaultsToEnabled(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	ctx := context.Background()

	setting, err := b.GetActivitySetting(ctx, "never-written")
	require.NoError(t, err)
	require.True(t, setting.NotificationsEnabled)

	require.NoError(t, b.SetActivitySetting(ctx, model.ActivitySetting{
		UserID:               "muted",
		NotificationsEnabled: false,
	}))

	setting, err = b.GetActivitySetting(ctx, "muted")
	require.NoError(t, err)
	require.False(t, setting.NotificationsEnabled)
}

func TestFriendCodeRoundTrip(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	ctx := context.Background()

	code := model.FriendCode{
		UserID:    "user-1",
		GuildID:   "guild-1",
		Game:      "valorant",
		Code:      "ABCD-1234",
		UpdatedAt: time.Now(),
	}
	require.NoError(t, b.UpsertFriendCode(ctx, code))

	codes, err := b.ListFriendCodes(ctx, "guild-1", "valorant")
	require.NoError(t, err)
	require.Len(t, codes, 1)
	require.Equal(t, "ABCD-1234", codes[0].Code)

	// overwrite wins
	code.Code = "EFGH-5678"
	require.NoError(t, b.UpsertFriendCode(ctx, code))

	codes, err = b.ListFriendCodes(ctx, "guild-1", "")
	require.NoError(t, err)
	require.Len(t, codes, 1)
	require.Equal(t, "EFGH-5678", codes[0].Code)

	require.NoError(t, b.DeleteFriendCode(ctx, "user-1", "guild-1", "valorant"))

	codes, err = b.ListFriendCodes(ctx, "guild-1", "")
	require.NoError(t, err)
	require.Empty(t, codes)
}

func TestRoleAssignmentCounter(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	ctx := context.Background()

	board := model.RoleBoard{
		BoardID: uuid.NewString(),
		GuildID: "guild-1",
		Title:   "games",
		Roles: []model.BoardRole{
			{RoleID: "role-1", Label: "Valorant"},
		},
	}
	require.NoError(t, b.UpsertRoleBoard(ctx, board))

	require.NoError(t, b.IncrementRoleAssignment(ctx, board.BoardID, "role-1", 1))
	require.NoError(t, b.IncrementRoleAssignment(ctx, board.BoardID, "role-1", 1))
	require.NoError(t, b.IncrementRoleAssignment(ctx, board.BoardID, "role-1", -1))

	got, err := b.GetRoleBoard(ctx, board.BoardID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 1, got.Roles[0].Assignments)

	require.Error(t, b.IncrementRoleAssignment(ctx, board.BoardID, "missing", 1))
}

func TestConversationHistory(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, b.AppendConversation(ctx, model.ConversationTurn{
			UserID:    "user-1",
			Role:      "user",
			Content:   "hello",
			CreatedAt: time.Now(),
		}))
	}

	turns, err := b.RecentConversation(ctx, "user-1", 3)
	require.NoError(t, err)
	require.Len(t, turns, 3)

	require.NoError(t, b.ClearConversation(ctx, "user-1"))

	turns, err = b.RecentConversation(ctx, "user-1", 3)
	require.NoError(t, err)
	require.Empty(t, turns)
}
