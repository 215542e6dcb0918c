package redict

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/systemcmd0122/developer-bot/backend/model"
	"github.com/systemcmd0122/developer-bot/config"
)

var packageName string = "github.com/systemcmd0122/developer-bot/backend/redict"

const (
	spanUpsertInteraction        = "UpsertInteraction"
	spanListInteractions         = "ListInteractions"
	spanDeleteInteraction        = "DeleteInteraction"
	spanDeleteInteractionsBefore = "DeleteInteractionsBefore"
	spanGetActivitySetting       = "GetActivitySetting"
	spanSetActivitySetting       = "SetActivitySetting"
	spanUpsertFriendCode         = "UpsertFriendCode"
	spanListFriendCodes          = "ListFriendCodes"
	spanDeleteFriendCode         = "DeleteFriendCode"
	spanUpsertRoleBoard          = "UpsertRoleBoard"
	spanGetRoleBoard             = "GetRoleBoard"
	spanDeleteRoleBoard          = "DeleteRoleBoard"
	spanIncrementRoleAssignment  = "IncrementRoleAssignment"
	spanAppendConversation       = "AppendConversation"
	spanRecentConversation       = "RecentConversation"
	spanClearConversation        = "ClearConversation"

	keyInteractions = "interactions"
	keySettings     = "settings"
	keyFriendCodes  = "friend_codes"
	keyRoleBoards   = "roleboards"
	keyConversation = "conversation"

	conversationMaxLen = 50
)

type Backend struct {
	redict *redis.Client
}

func New(url string) (*Backend, error) {
	redict := redis.NewClient(&redis.Options{
		Addr: url,
		DB:   1,
	})

	return &Backend{
		redict: redict,
	}, nil
}

func key(parts ...string) string {
	return fmt.Sprintf("%s:%s", config.Get().Store.Redict.Prefix, strings.Join(parts, ":"))
}

func field(messageID string, kind model.Kind) string {
	return fmt.Sprintf("%s:%s", messageID, kind)
}

func (r *Backend) UpsertInteraction(ctx context.Context, rec model.InteractionRecord) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanUpsertInteraction)
	defer span.End()

	span.SetAttributes(
		attribute.String("message_id", rec.MessageID),
		attribute.String("kind", string(rec.Kind)),
	)

	raw, err := json.Marshal(rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := r.redict.HSet(sctx, key(keyInteractions), field(rec.MessageID, rec.Kind), raw).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (r *Backend) ListInteractions(ctx context.Context) ([]model.InteractionRecord, error) {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanListInteractions)
	defer span.End()

	raw, err := r.redict.HGetAll(sctx, key(keyInteractions)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	records := make([]model.InteractionRecord, 0, len(raw))
	for f, v := range raw {
		var rec model.InteractionRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			slog.Warn("dropping undecodable interaction record", "field", f, "error", err)
			continue
		}
		records = append(records, rec)
	}

	span.SetStatus(codes.Ok, "ok")
	return records, nil
}

func (r *Backend) DeleteInteraction(ctx context.Context, messageID string) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanDeleteInteraction)
	defer span.End()

	span.SetAttributes(attribute.String("message_id", messageID))

	fields := []string{
		field(messageID, model.KindButton),
		field(messageID, model.KindMenu),
		field(messageID, model.KindBoard),
	}

	if err := r.redict.HDel(sctx, key(keyInteractions), fields...).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (r *Backend) DeleteInteractionsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanDeleteInteractionsBefore)
	defer span.End()

	raw, err := r.redict.HGetAll(sctx, key(keyInteractions)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	stale := make([]string, 0)
	for f, v := range raw {
		var rec model.InteractionRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			stale = append(stale, f)
			continue
		}
		if rec.UpdatedAt.Before(cutoff) {
			stale = append(stale, f)
		}
	}

	if len(stale) > 0 {
		if err := r.redict.HDel(sctx, key(keyInteractions), stale...).Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, err
		}
	}

	span.SetAttributes(attribute.Int("removed", len(stale)))
	span.SetStatus(codes.Ok, "ok")
	return len(stale), nil
}

func (r *Backend) GetActivitySetting(ctx context.Context, userID string) (model.ActivitySetting, error) {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanGetActivitySetting)
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	raw, err := r.redict.Get(sctx, key(keySettings, userID)).Result()
	switch err {
	case nil:
	case redis.Nil:
		span.SetStatus(codes.Ok, "ok")
		return model.ActivitySetting{UserID: userID, NotificationsEnabled: true}, nil
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.ActivitySetting{}, err
	}

	var setting model.ActivitySetting
	if err := json.Unmarshal([]byte(raw), &setting); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.ActivitySetting{}, err
	}

	span.SetStatus(codes.Ok, "ok")
	return setting, nil
}

func (r *Backend) SetActivitySetting(ctx context.Context, setting model.ActivitySetting) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanSetActivitySetting)
	defer span.End()

	span.SetAttributes(attribute.String("user_id", setting.UserID))

	raw, err := json.Marshal(setting)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := r.redict.Set(sctx, key(keySettings, setting.UserID), raw, 0).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (r *Backend) UpsertFriendCode(ctx context.Context, code model.FriendCode) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanUpsertFriendCode)
	defer span.End()

	raw, err := json.Marshal(code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	f := fmt.Sprintf("%s:%s", code.UserID, code.Game)
	if err := r.redict.HSet(sctx, key(keyFriendCodes, code.GuildID), f, raw).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (r *Backend) ListFriendCodes(ctx context.Context, guildID string, game string) ([]model.FriendCode, error) {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanListFriendCodes)
	defer span.End()

	raw, err := r.redict.HGetAll(sctx, key(keyFriendCodes, guildID)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	codesOut := make([]model.FriendCode, 0, len(raw))
	for _, v := range raw {
		var code model.FriendCode
		if err := json.Unmarshal([]byte(v), &code); err != nil {
			continue
		}
		if game != "" && code.Game != game {
			continue
		}
		codesOut = append(codesOut, code)
	}

	span.SetStatus(codes.Ok, "ok")
	return codesOut, nil
}

func (r *Backend) DeleteFriendCode(ctx context.Context, userID string, guildID string, game string) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanDeleteFriendCode)
	defer span.End()

	f := fmt.Sprintf("%s:%s", userID, game)
	if err := r.redict.HDel(sctx, key(keyFriendCodes, guildID), f).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (r *Backend) UpsertRoleBoard(ctx context.Context, board model.RoleBoard) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanUpsertRoleBoard)
	defer span.End()

	span.SetAttributes(attribute.String("board_id", board.BoardID))

	raw, err := json.Marshal(board)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := r.redict.Set(sctx, key(keyRoleBoards, board.BoardID), raw, 0).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (r *Backend) GetRoleBoard(ctx context.Context, boardID string) (*model.RoleBoard, error) {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanGetRoleBoard)
	defer span.End()

	span.SetAttributes(attribute.String("board_id", boardID))

	raw, err := r.redict.Get(sctx, key(keyRoleBoards, boardID)).Result()
	switch err {
	case nil:
	case redis.Nil:
		span.SetStatus(codes.Ok, "ok")
		return nil, nil
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var board model.RoleBoard
	if err := json.Unmarshal([]byte(raw), &board); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "ok")
	return &board, nil
}

func (r *Backend) DeleteRoleBoard(ctx context.Context, boardID string) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanDeleteRoleBoard)
	defer span.End()

	span.SetAttributes(attribute.String("board_id", boardID))

	if err := r.redict.Del(sctx, key(keyRoleBoards, boardID)).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (r *Backend) IncrementRoleAssignment(ctx context.Context, boardID string, roleID string, delta int) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanIncrementRoleAssignment)
	defer span.End()

	span.SetAttributes(
		attribute.String("board_id", boardID),
		attribute.String("role_id", roleID),
		attribute.Int("delta", delta),
	)

	board, err := r.GetRoleBoard(sctx, boardID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if board == nil {
		err := fmt.Errorf("role board %s not found", boardID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	found := false
	for i := range board.Roles {
		if board.Roles[i].RoleID == roleID {
			board.Roles[i].Assignments += delta
			found = true
			break
		}
	}
	if !found {
		err := fmt.Errorf("role %s not on board %s", roleID, boardID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := r.UpsertRoleBoard(sctx, *board); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (r *Backend) AppendConversation(ctx context.Context, turn model.ConversationTurn) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanAppendConversation)
	defer span.End()

	span.SetAttributes(attribute.String("user_id", turn.UserID))

	raw, err := json.Marshal(turn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	k := key(keyConversation, turn.UserID)
	pipe := r.redict.TxPipeline()
	pipe.RPush(sctx, k, raw)
	pipe.LTrim(sctx, k, -conversationMaxLen, -1)
	if _, err := pipe.Exec(sctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (r *Backend) RecentConversation(ctx context.Context, userID string, limit int) ([]model.ConversationTurn, error) {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanRecentConversation)
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if limit <= 0 {
		limit = conversationMaxLen
	}

	raw, err := r.redict.LRange(sctx, key(keyConversation, userID), int64(-limit), -1).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	turns := make([]model.ConversationTurn, 0, len(raw))
	for _, v := range raw {
		var turn model.ConversationTurn
		if err := json.Unmarshal([]byte(v), &turn); err != nil {
			continue
		}
		turns = append(turns, turn)
	}

	span.SetStatus(codes.Ok, "ok")
	return turns, nil
}

func (r *Backend) ClearConversation(ctx context.Context, userID string) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, spanClearConversation)
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if err := r.redict.Del(sctx, key(keyConversation, userID)).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}
