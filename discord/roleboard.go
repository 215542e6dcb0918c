package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/systemcmd0122/developer-bot/backend/model"
	"github.com/systemcmd0122/developer-bot/common"
	"github.com/systemcmd0122/developer-bot/registry"
)

func (h *Handlers) handleRoleBoard(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "HandleRoleBoard")
	defer span.End()

	opts := i.ApplicationCommandData().Options
	if len(opts) == 0 {
		respondError(s, i)
		span.SetStatus(codes.Error, "missing subcommand")
		return
	}
	sub := opts[0]
	span.SetAttributes(attribute.String("subcommand", sub.Name))

	switch sub.Name {
	case "create":
		h.createRoleBoard(sctx, s, i, sub)
	case "delete":
		h.deleteRoleBoard(sctx, s, i, sub)
	default:
		respondError(s, i)
		span.SetStatus(codes.Error, "unknown subcommand")
		return
	}

	span.SetStatus(codes.Ok, "ok")
}

func (h *Handlers) createRoleBoard(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "CreateRoleBoard")
	defer span.End()

	opts := subcommandOptions(sub)
	title := opts["title"].StringValue()

	var roles []model.BoardRole
	for _, name := range []string{"role1", "role2", "role3"} {
		opt, ok := opts[name]
		if !ok {
			continue
		}
		role := opt.RoleValue(s, i.GuildID)
		if role == nil {
			continue
		}
		roles = append(roles, model.BoardRole{
			RoleID: role.ID,
			Label:  role.Name,
		})
	}
	if len(roles) == 0 {
		respondEphemeral(s, i, "付与できるロールが指定されていません。")
		span.SetStatus(codes.Error, "no roles")
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    fmt.Sprintf("📌 **%s**\nボタンを押すとロールが付け外しされます。", title),
			Components: roleBoardButtons(roles),
		},
	}); err != nil {
		slog.Error("failed to post role board", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	msg, err := s.InteractionResponse(i.Interaction)
	if err != nil {
		slog.Error("failed to fetch role board message", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	engine, err := getBackend(span)
	if err != nil {
		return
	}

	board := model.RoleBoard{
		BoardID:   uuid.NewString(),
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		MessageID: msg.ID,
		Title:     title,
		Roles:     roles,
		CreatedBy: interactionUserID(i),
	}
	if err := engine.UpsertRoleBoard(sctx, board); err != nil {
		slog.Error("failed to store role board", "board_id", board.BoardID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	if err := h.Registry.SaveBoard(sctx, msg.ID, registry.BoardPayload{
		Action:  "roleboard",
		BoardID: board.BoardID,
		GuildID: i.GuildID,
	}); err != nil {
		slog.Error("failed to register role board message", "board_id", board.BoardID, "error", err)
		span.RecordError(err)
	}

	span.SetStatus(codes.Ok, "ok")
}

func (h *Handlers) deleteRoleBoard(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "DeleteRoleBoard")
	defer span.End()

	boardID := subcommandOptions(sub)["board_id"].StringValue()
	span.SetAttributes(attribute.String("board_id", boardID))

	engine, err := getBackend(span)
	if err != nil {
		respondError(s, i)
		return
	}

	board, err := engine.GetRoleBoard(sctx, boardID)
	if err != nil {
		slog.Error("failed to load role board", "board_id", boardID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(s, i)
		return
	}
	if board == nil {
		respondEphemeral(s, i, "そのIDのロールボードは見つかりません。")
		span.SetStatus(codes.Ok, "ok")
		return
	}

	if err := s.ChannelMessageDelete(board.ChannelID, board.MessageID); err != nil {
		// The message may already be gone; keep going so the rest of
		// the record still gets cleaned up.
		slog.Warn("failed to delete role board message", "board_id", boardID, "error", err)
	}

	if err := h.Registry.Remove(sctx, board.MessageID); err != nil {
		slog.Error("failed to remove role board record", "board_id", boardID, "error", err)
	}

	if err := engine.DeleteRoleBoard(sctx, boardID); err != nil {
		slog.Error("failed to delete role board", "board_id", boardID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(s, i)
		return
	}

	respondEphemeral(s, i, fmt.Sprintf("ロールボード「%s」を削除しました。", board.Title))
	span.SetStatus(codes.Ok, "ok")
}

func (h *Handlers) handleRoleBoardButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, roleID string) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "HandleRoleBoardButton")
	defer span.End()

	span.SetAttributes(
		attribute.String("message_id", i.Message.ID),
		attribute.String("role_id", roleID),
	)

	payload, ok := h.Registry.Board(i.Message.ID)
	if !ok || payload.Action != "roleboard" {
		respondGone(s, i)
		span.SetStatus(codes.Error, "board record missing")
		return
	}

	engine, err := getBackend(span)
	if err != nil {
		respondError(s, i)
		return
	}

	board, err := engine.GetRoleBoard(sctx, payload.BoardID)
	if err != nil || board == nil {
		slog.Error("failed to load role board", "board_id", payload.BoardID, "error", err)
		respondGone(s, i)
		span.SetStatus(codes.Error, "board missing")
		return
	}

	var label string
	known := false
	for _, role := range board.Roles {
		if role.RoleID == roleID {
			label = role.Label
			known = true
			break
		}
	}
	if !known {
		respondGone(s, i)
		span.SetStatus(codes.Error, "role not on board")
		return
	}

	if i.Member == nil {
		respondEphemeral(s, i, "サーバー内でのみ使用できます。")
		span.SetStatus(codes.Error, "no member")
		return
	}
	userID := i.Member.User.ID

	if common.Contains(i.Member.Roles, roleID) {
		if err := s.GuildMemberRoleRemove(i.GuildID, userID, roleID); err != nil {
			slog.Error("failed to remove role", "role_id", roleID, "user_id", userID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			respondError(s, i)
			return
		}
		if err := engine.IncrementRoleAssignment(sctx, board.BoardID, roleID, -1); err != nil {
			slog.Error("failed to update assignment count", "board_id", board.BoardID, "role_id", roleID, "error", err)
		}
		respondEphemeral(s, i, fmt.Sprintf("ロール「%s」を外しました。", label))
	} else {
		if err := s.GuildMemberRoleAdd(i.GuildID, userID, roleID); err != nil {
			slog.Error("failed to add role", "role_id", roleID, "user_id", userID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			respondError(s, i)
			return
		}
		if err := engine.IncrementRoleAssignment(sctx, board.BoardID, roleID, 1); err != nil {
			slog.Error("failed to update assignment count", "board_id", board.BoardID, "role_id", roleID, "error", err)
		}
		respondEphemeral(s, i, fmt.Sprintf("ロール「%s」を付与しました。", label))
	}

	span.SetStatus(codes.Ok, "ok")
}

func roleBoardButtons(roles []model.BoardRole) []discordgo.MessageComponent {
	buttons := make([]discordgo.MessageComponent, 0, len(roles))
	for _, role := range roles {
		buttons = append(buttons, discordgo.Button{
			Label:    role.Label,
			Style:    discordgo.PrimaryButton,
			CustomID: "roleboard:" + role.RoleID,
		})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: buttons},
	}
}
