package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/systemcmd0122/developer-bot/backend/model"
)

var packageName string = "github.com/systemcmd0122/developer-bot/backend/postgres"

// Backend stores everything in a hosted Postgres database. Supabase
// exposes a plain Postgres connection string, so this engine covers
// both self-hosted and Supabase deployments.
type Backend struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, url string) (*Backend, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	b := &Backend{pool: pool}

	if err := b.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return b, nil
}

func (b *Backend) Close() {
	b.pool.Close()
}

func (b *Backend) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS interactions (
			message_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			guild_id TEXT NOT NULL DEFAULT 'unknown',
			payload JSONB NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (message_id, kind)
		)`,
		`CREATE TABLE IF NOT EXISTS activity_settings (
			user_id TEXT PRIMARY KEY,
			notifications_enabled BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS friend_codes (
			user_id TEXT NOT NULL,
			guild_id TEXT NOT NULL,
			game TEXT NOT NULL,
			code TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, guild_id, game)
		)`,
		`CREATE TABLE IF NOT EXISTS roleboards (
			board_id TEXT PRIMARY KEY,
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			title TEXT NOT NULL,
			created_by TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS roleboard_roles (
			board_id TEXT NOT NULL REFERENCES roleboards(board_id) ON DELETE CASCADE,
			role_id TEXT NOT NULL,
			label TEXT NOT NULL,
			assignments INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (board_id, role_id)
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_history (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_updated_at ON interactions(updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_friend_codes_guild ON friend_codes(guild_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_user ON conversation_history(user_id, created_at)`,
	}

	for _, migration := range migrations {
		if _, err := b.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

func (b *Backend) UpsertInteraction(ctx context.Context, rec model.InteractionRecord) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, "UpsertInteraction")
	defer span.End()

	span.SetAttributes(
		attribute.String("message_id", rec.MessageID),
		attribute.String("kind", string(rec.Kind)),
	)

	if rec.GuildID == "" {
		rec.GuildID = "unknown"
	}

	_, err := b.pool.Exec(sctx,
		`INSERT INTO interactions (message_id, kind, guild_id, payload, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (message_id, kind)
		 DO UPDATE SET guild_id = EXCLUDED.guild_id, payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		rec.MessageID, rec.Kind, rec.GuildID, rec.Payload, rec.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (b *Backend) ListInteractions(ctx context.Context) ([]model.InteractionRecord, error) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "ListInteractions")
	defer span.End()

	rows, err := b.pool.Query(sctx,
		`SELECT message_id, kind, guild_id, payload, updated_at FROM interactions`,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	records := make([]model.InteractionRecord, 0)
	for rows.Next() {
		var rec model.InteractionRecord
		if err := rows.Scan(&rec.MessageID, &rec.Kind, &rec.GuildID, &rec.Payload, &rec.UpdatedAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "ok")
	return records, nil
}

func (b *Backend) DeleteInteraction(ctx context.Context, messageID string) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, "DeleteInteraction")
	defer span.End()

	span.SetAttributes(attribute.String("message_id", messageID))

	if _, err := b.pool.Exec(sctx,
		`DELETE FROM interactions WHERE message_id = $1`, messageID,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (b *Backend) DeleteInteractionsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "DeleteInteractionsBefore")
	defer span.End()

	tag, err := b.pool.Exec(sctx,
		`DELETE FROM interactions WHERE updated_at < $1`, cutoff,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	removed := int(tag.RowsAffected())
	span.SetAttributes(attribute.Int("removed", removed))
	span.SetStatus(codes.Ok, "ok")
	return removed, nil
}

func (b *Backend) GetActivitySetting(ctx context.Context, userID string) (model.ActivitySetting, error) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "GetActivitySetting")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	setting := model.ActivitySetting{UserID: userID, NotificationsEnabled: true}

	err := b.pool.QueryRow(sctx,
		`SELECT user_id, notifications_enabled FROM activity_settings WHERE user_id = $1`, userID,
	).Scan(&setting.UserID, &setting.NotificationsEnabled)
	switch err {
	case nil, pgx.ErrNoRows:
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.ActivitySetting{}, err
	}

	span.SetStatus(codes.Ok, "ok")
	return setting, nil
}

func (b *Backend) SetActivitySetting(ctx context.Context, setting model.ActivitySetting) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, "SetActivitySetting")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", setting.UserID))

	if _, err := b.pool.Exec(sctx,
		`INSERT INTO activity_settings (user_id, notifications_enabled)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET notifications_enabled = EXCLUDED.notifications_enabled`,
		setting.UserID, setting.NotificationsEnabled,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (b *Backend) UpsertFriendCode(ctx context.Context, code model.FriendCode) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, "UpsertFriendCode")
	defer span.End()

	if _, err := b.pool.Exec(sctx,
		`INSERT INTO friend_codes (user_id, guild_id, game, code, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, guild_id, game)
		 DO UPDATE SET code = EXCLUDED.code, updated_at = EXCLUDED.updated_at`,
		code.UserID, code.GuildID, code.Game, code.Code, code.UpdatedAt,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (b *Backend) ListFriendCodes(ctx context.Context, guildID string, game string) ([]model.FriendCode, error) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "ListFriendCodes")
	defer span.End()

	query := `SELECT user_id, guild_id, game, code, updated_at FROM friend_codes WHERE guild_id = $1`
	args := []any{guildID}
	if game != "" {
		query += ` AND game = $2`
		args = append(args, game)
	}
	query += ` ORDER BY game, user_id`

	rows, err := b.pool.Query(sctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	codesOut := make([]model.FriendCode, 0)
	for rows.Next() {
		var code model.FriendCode
		if err := rows.Scan(&code.UserID, &code.GuildID, &code.Game, &code.Code, &code.UpdatedAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		codesOut = append(codesOut, code)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "ok")
	return codesOut, nil
}

func (b *Backend) DeleteFriendCode(ctx context.Context, userID string, guildID string, game string) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, "DeleteFriendCode")
	defer span.End()

	if _, err := b.pool.Exec(sctx,
		`DELETE FROM friend_codes WHERE user_id = $1 AND guild_id = $2 AND game = $3`,
		userID, guildID, game,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (b *Backend) UpsertRoleBoard(ctx context.Context, board model.RoleBoard) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, "UpsertRoleBoard")
	defer span.End()

	span.SetAttributes(attribute.String("board_id", board.BoardID))

	tx, err := b.pool.Begin(sctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback(sctx)

	if _, err := tx.Exec(sctx,
		`INSERT INTO roleboards (board_id, guild_id, channel_id, message_id, title, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (board_id)
		 DO UPDATE SET channel_id = EXCLUDED.channel_id, message_id = EXCLUDED.message_id, title = EXCLUDED.title`,
		board.BoardID, board.GuildID, board.ChannelID, board.MessageID, board.Title, board.CreatedBy,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	for _, role := range board.Roles {
		if _, err := tx.Exec(sctx,
			`INSERT INTO roleboard_roles (board_id, role_id, label, assignments)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (board_id, role_id)
			 DO UPDATE SET label = EXCLUDED.label`,
			board.BoardID, role.RoleID, role.Label, role.Assignments,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	if err := tx.Commit(sctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (b *Backend) GetRoleBoard(ctx context.Context, boardID string) (*model.RoleBoard, error) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "GetRoleBoard")
	defer span.End()

	span.SetAttributes(attribute.String("board_id", boardID))

	board := model.RoleBoard{}
	err := b.pool.QueryRow(sctx,
		`SELECT board_id, guild_id, channel_id, message_id, title, created_by FROM roleboards WHERE board_id = $1`,
		boardID,
	).Scan(&board.BoardID, &board.GuildID, &board.ChannelID, &board.MessageID, &board.Title, &board.CreatedBy)
	switch err {
	case nil:
	case pgx.ErrNoRows:
		span.SetStatus(codes.Ok, "ok")
		return nil, nil
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	rows, err := b.pool.Query(sctx,
		`SELECT role_id, label, assignments FROM roleboard_roles WHERE board_id = $1 ORDER BY role_id`,
		boardID,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var role model.BoardRole
		if err := rows.Scan(&role.RoleID, &role.Label, &role.Assignments); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		board.Roles = append(board.Roles, role)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "ok")
	return &board, nil
}

func (b *Backend) DeleteRoleBoard(ctx context.Context, boardID string) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, "DeleteRoleBoard")
	defer span.End()

	span.SetAttributes(attribute.String("board_id", boardID))

	if _, err := b.pool.Exec(sctx,
		`DELETE FROM roleboards WHERE board_id = $1`, boardID,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (b *Backend) IncrementRoleAssignment(ctx context.Context, boardID string, roleID string, delta int) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, "IncrementRoleAssignment")
	defer span.End()

	span.SetAttributes(
		attribute.String("board_id", boardID),
		attribute.String("role_id", roleID),
		attribute.Int("delta", delta),
	)

	tag, err := b.pool.Exec(sctx,
		`UPDATE roleboard_roles SET assignments = GREATEST(assignments + $3, 0)
		 WHERE board_id = $1 AND role_id = $2`,
		boardID, roleID, delta,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if tag.RowsAffected() == 0 {
		err := fmt.Errorf("role %s not on board %s", roleID, boardID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (b *Backend) AppendConversation(ctx context.Context, turn model.ConversationTurn) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, "AppendConversation")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", turn.UserID))

	if _, err := b.pool.Exec(sctx,
		`INSERT INTO conversation_history (user_id, role, content, created_at) VALUES ($1, $2, $3, $4)`,
		turn.UserID, turn.Role, turn.Content, turn.CreatedAt,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (b *Backend) RecentConversation(ctx context.Context, userID string, limit int) ([]model.ConversationTurn, error) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "RecentConversation")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if limit <= 0 {
		limit = 50
	}

	rows, err := b.pool.Query(sctx,
		`SELECT user_id, role, content, created_at FROM (
			SELECT user_id, role, content, created_at FROM conversation_history
			WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
		 ) recent ORDER BY created_at ASC`,
		userID, limit,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	turns := make([]model.ConversationTurn, 0)
	for rows.Next() {
		var turn model.ConversationTurn
		if err := rows.Scan(&turn.UserID, &turn.Role, &turn.Content, &turn.CreatedAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "ok")
	return turns, nil
}

func (b *Backend) ClearConversation(ctx context.Context, userID string) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, "ClearConversation")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if _, err := b.pool.Exec(sctx,
		`DELETE FROM conversation_history WHERE user_id = $1`, userID,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}
