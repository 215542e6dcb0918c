package backend

import (
	"context"
	"time"

	"github.com/systemcmd0122/developer-bot/backend/memory"
	"github.com/systemcmd0122/developer-bot/backend/model"
	"github.com/systemcmd0122/developer-bot/backend/postgres"
	"github.com/systemcmd0122/developer-bot/backend/redict"
	"github.com/systemcmd0122/developer-bot/config"
)

var backend Engine

// Engine is the persistence contract every store backend implements.
// All writes are upserts keyed by the record's natural key.
type Engine interface {
	UpsertInteraction(ctx context.Context, rec model.InteractionRecord) error
	ListInteractions(ctx context.Context) ([]model.InteractionRecord, error)
	DeleteInteraction(ctx context.Context, messageID string) error
	DeleteInteractionsBefore(ctx context.Context, cutoff time.Time) (int, error)

	GetActivitySetting(ctx context.Context, userID string) (model.ActivitySetting, error)
	SetActivitySetting(ctx context.Context, setting model.ActivitySetting) error

	UpsertFriendCode(ctx context.Context, code model.FriendCode) error
	ListFriendCodes(ctx context.Context, guildID string, game string) ([]model.FriendCode, error)
	DeleteFriendCode(ctx context.Context, userID string, guildID string, game string) error

	UpsertRoleBoard(ctx context.Context, board model.RoleBoard) error
	GetRoleBoard(ctx context.Context, boardID string) (*model.RoleBoard, error)
	DeleteRoleBoard(ctx context.Context, boardID string) error
	IncrementRoleAssignment(ctx context.Context, boardID string, roleID string, delta int) error

	AppendConversation(ctx context.Context, turn model.ConversationTurn) error
	RecentConversation(ctx context.Context, userID string, limit int) ([]model.ConversationTurn, error)
	ClearConversation(ctx context.Context, userID string) error
}

func Backend() (Engine, error) {
	var err error
	if backend == nil {
		switch config.Get().Store.Engine {
		case "postgres":
			backend, err = postgres.New(context.Background(), config.Get().Store.Postgres.URL)
		case "redict":
			backend, err = redict.New(config.Get().Store.Redict.Address)
		case "memory":
			fallthrough
		default:
			backend, err = memory.New()
		}
	}

	return backend, err
}
