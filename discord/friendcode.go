package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/systemcmd0122/developer-bot/backend"
	"github.com/systemcmd0122/developer-bot/backend/model"
	"github.com/systemcmd0122/developer-bot/common"
	"github.com/systemcmd0122/developer-bot/registry"
)

func (h *Handlers) handleFriendCode(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "HandleFriendCode")
	defer span.End()

	engine, err := getBackend(span)
	if err != nil {
		respondError(s, i)
		return
	}

	userID := interactionUserID(i)
	sub := i.ApplicationCommandData().Options[0]
	span.SetAttributes(attribute.String("subcommand", sub.Name))

	switch sub.Name {
	case "register":
		opts := subcommandOptions(sub)
		code := model.FriendCode{
			UserID:    userID,
			GuildID:   i.GuildID,
			Game:      strings.TrimSpace(opts["game"].StringValue()),
			Code:      strings.TrimSpace(opts["code"].StringValue()),
			UpdatedAt: time.Now(),
		}

		if err := engine.UpsertFriendCode(sctx, code); err != nil {
			slog.Error("failed to save friend code", "user_id", userID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			respondError(s, i)
			return
		}

		respondEphemeral(s, i, fmt.Sprintf("%s のフレンドコードを登録しました。", code.Game))

	case "list":
		game := ""
		if opt, ok := subcommandOptions(sub)["game"]; ok {
			game = strings.TrimSpace(opt.StringValue())
		}

		codesList, err := engine.ListFriendCodes(sctx, i.GuildID, game)
		if err != nil {
			slog.Error("failed to list friend codes", "guild_id", i.GuildID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			respondError(s, i)
			return
		}

		respondEphemeral(s, i, formatFriendCodes(codesList))

	case "delete":
		game := strings.TrimSpace(subcommandOptions(sub)["game"].StringValue())

		if err := engine.DeleteFriendCode(sctx, userID, i.GuildID, game); err != nil {
			slog.Error("failed to delete friend code", "user_id", userID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			respondError(s, i)
			return
		}

		respondEphemeral(s, i, fmt.Sprintf("%s のフレンドコードを削除しました。", game))

	case "board":
		h.postFriendCodeBoard(sctx, s, i, engine)

	default:
		respondGone(s, i)
	}

	span.SetStatus(codes.Ok, "ok")
}

// postFriendCodeBoard sends a select menu listing every game that has
// at least one registered code, and records the menu semantics in the
// registry so later selections can be resolved.
func (h *Handlers) postFriendCodeBoard(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, engine backend.Engine) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "PostFriendCodeBoard")
	defer span.End()

	codesList, err := engine.ListFriendCodes(sctx, i.GuildID, "")
	if err != nil {
		slog.Error("failed to list friend codes", "guild_id", i.GuildID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(s, i)
		return
	}

	games := make([]string, 0)
	for _, code := range codesList {
		if !common.Contains(games, code.Game) {
			games = append(games, code.Game)
		}
	}

	if len(games) == 0 {
		respondEphemeral(s, i, "まだフレンドコードが登録されていません。")
		span.SetStatus(codes.Ok, "ok")
		return
	}

	options := make([]discordgo.SelectMenuOption, 0, len(games))
	for _, game := range games {
		options = append(options, discordgo.SelectMenuOption{
			Label: game,
			Value: game,
		})
	}

	msg, err := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Content: "ゲームを選ぶと登録されたフレンドコードが表示されます。",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    "friendcode:game",
						Placeholder: "ゲームを選択",
						Options:     options,
					},
				},
			},
		},
	})
	if err != nil {
		slog.Error("failed to post friend code board", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(s, i)
		return
	}

	if err := h.Registry.SaveMenu(sctx, msg.ID, registry.MenuPayload{
		Action:  "friendcode-game",
		Options: games,
		GuildID: i.GuildID,
	}); err != nil {
		slog.Error("failed to register board menu", "message_id", msg.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	respondEphemeral(s, i, "ボードを設置しました。")
	span.SetStatus(codes.Ok, "ok")
}

func (h *Handlers) handleFriendCodeSelect(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "HandleFriendCodeSelect")
	defer span.End()

	payload, ok := h.Registry.Menu(i.Message.ID)
	if !ok || payload.Action != "friendcode-game" {
		respondGone(s, i)
		span.SetStatus(codes.Error, "menu record missing")
		return
	}

	values := i.MessageComponentData().Values
	if len(values) == 0 {
		respondGone(s, i)
		span.SetStatus(codes.Error, "no value selected")
		return
	}
	game := values[0]

	if !common.Contains(payload.Options, game) {
		respondGone(s, i)
		span.SetStatus(codes.Error, "selected game not on menu")
		return
	}

	engine, err := getBackend(span)
	if err != nil {
		respondError(s, i)
		return
	}

	codesList, err := engine.ListFriendCodes(sctx, i.GuildID, game)
	if err != nil {
		slog.Error("failed to list friend codes", "guild_id", i.GuildID, "game", game, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(s, i)
		return
	}

	respondEphemeral(s, i, formatFriendCodes(codesList))
	span.SetStatus(codes.Ok, "ok")
}

func formatFriendCodes(codesList []model.FriendCode) string {
	if len(codesList) == 0 {
		return "登録されたフレンドコードはありません。"
	}

	var sb strings.Builder
	sb.WriteString("登録済みフレンドコード:\n")
	for _, code := range codesList {
		fmt.Fprintf(&sb, "- **%s** <@%s>: `%s`\n", code.Game, code.UserID, code.Code)
	}
	return sb.String()
}
