package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/systemcmd0122/developer-bot/registry"
	"github.com/systemcmd0122/developer-bot/session"
)

func (h *Handlers) handleRecruit(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "HandleRecruit")
	defer span.End()

	opts := commandOptions(i)
	game := opts["game"].StringValue()
	capacity := int(opts["capacity"].IntValue())
	owner := interactionUserID(i)

	span.SetAttributes(
		attribute.String("game", game),
		attribute.Int("capacity", capacity),
	)

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    recruitContent(game, capacity, nil),
			Components: recruitButtons(),
		},
	}); err != nil {
		slog.Error("failed to start recruitment", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	msg, err := s.InteractionResponse(i.Interaction)
	if err != nil {
		slog.Error("failed to fetch recruitment message", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	if _, err := h.Sessions.Create(msg.ID, session.Options{
		Kind:      "recruit",
		ChannelID: i.ChannelID,
		Capacity:  capacity,
		OnExpire: func(sess session.Session) {
			h.expireRecruitMessage(s, sess, game)
		},
	}); err != nil {
		slog.Error("failed to create recruitment session", "message_id", msg.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	if err := h.Registry.SaveButton(sctx, msg.ID, registry.ButtonPayload{
		Action:  "recruit",
		UserID:  owner,
		GuildID: i.GuildID,
	}); err != nil {
		slog.Error("failed to register recruitment buttons", "message_id", msg.ID, "error", err)
		span.RecordError(err)
	}

	span.SetStatus(codes.Ok, "ok")
}

func (h *Handlers) handleRecruitButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, action string) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "HandleRecruitButton")
	defer span.End()

	span.SetAttributes(
		attribute.String("message_id", i.Message.ID),
		attribute.String("action", action),
	)

	payload, ok := h.Registry.Button(i.Message.ID)
	if !ok || payload.Action != "recruit" {
		respondGone(s, i)
		span.SetStatus(codes.Error, "button record missing")
		return
	}

	userID := interactionUserID(i)

	switch action {
	case "join":
		sess, err := h.Sessions.Join(i.Message.ID, userID)
		switch err {
		case nil:
			h.updateRecruitMessage(s, i, sess)
		case session.ErrFull:
			respondEphemeral(s, i, "この募集は満員です。")
		case session.ErrAlreadyJoined:
			respondEphemeral(s, i, "すでに参加しています。")
		case session.ErrNotFound:
			respondEphemeral(s, i, "この募集はもう終了しています。")
		default:
			slog.Error("failed to join recruitment", "message_id", i.Message.ID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			respondError(s, i)
			return
		}

	case "close":
		if userID != payload.UserID {
			respondEphemeral(s, i, "募集を締め切れるのは作成者だけです。")
			span.SetStatus(codes.Ok, "ok")
			return
		}

		sess, err := h.Sessions.Resolve(i.Message.ID)
		if err != nil {
			respondEphemeral(s, i, "この募集はもう終了しています。")
			span.SetStatus(codes.Ok, "ok")
			return
		}

		content := fmt.Sprintf("募集を締め切りました。参加者: %s", mentionList(sess.Participants))
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Content:    content,
				Components: []discordgo.MessageComponent{},
			},
		}); err != nil {
			slog.Error("failed to close recruitment", "message_id", i.Message.ID, "error", err)
			span.RecordError(err)
		}

		if err := h.Registry.Remove(sctx, i.Message.ID); err != nil {
			slog.Error("failed to remove recruitment record", "message_id", i.Message.ID, "error", err)
		}

	default:
		respondGone(s, i)
		span.SetStatus(codes.Error, "unknown action")
		return
	}

	span.SetStatus(codes.Ok, "ok")
}

func (h *Handlers) updateRecruitMessage(s *discordgo.Session, i *discordgo.InteractionCreate, sess session.Session) {
	game := recruitGameFromContent(i.Message.Content)

	full := sess.Capacity > 0 && len(sess.Participants) >= sess.Capacity

	content := recruitContent(game, sess.Capacity, sess.Participants)
	components := recruitButtons()
	if full {
		content += "\n満員になりました！"
		components = []discordgo.MessageComponent{}
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: components,
		},
	}); err != nil {
		slog.Error("failed to update recruitment message", "message_id", i.Message.ID, "error", err)
	}

	if full {
		if _, err := h.Sessions.Resolve(i.Message.ID); err != nil && err != session.ErrNotFound {
			slog.Error("failed to resolve filled recruitment", "message_id", i.Message.ID, "error", err)
		}
		if err := h.Registry.Remove(context.Background(), i.Message.ID); err != nil {
			slog.Error("failed to remove recruitment record", "message_id", i.Message.ID, "error", err)
		}
	}
}

func (h *Handlers) expireRecruitMessage(s *discordgo.Session, sess session.Session, game string) {
	content := fmt.Sprintf("「%s」の募集は時間切れで終了しました。", game)
	if len(sess.Participants) > 0 {
		content += fmt.Sprintf(" 参加表明: %s", mentionList(sess.Participants))
	}

	if _, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         sess.Key,
		Channel:    sess.ChannelID,
		Content:    &content,
		Components: &[]discordgo.MessageComponent{},
	}); err != nil {
		slog.Error("failed to edit expired recruitment", "message_id", sess.Key, "error", err)
	}

	if err := h.Registry.Remove(context.Background(), sess.Key); err != nil {
		slog.Error("failed to remove expired recruitment record", "message_id", sess.Key, "error", err)
	}
}

func recruitButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "参加する",
					Style:    discordgo.SuccessButton,
					CustomID: "recruit:join",
				},
				discordgo.Button{
					Label:    "締め切る",
					Style:    discordgo.SecondaryButton,
					CustomID: "recruit:close",
				},
			},
		},
	}
}

func recruitContent(game string, capacity int, participants []string) string {
	content := fmt.Sprintf("🎮 **%s** のメンバー募集中！ (%d/%d)", game, len(participants), capacity)
	if len(participants) > 0 {
		content += "\n参加者: " + mentionList(participants)
	}
	return content
}

// recruitGameFromContent pulls the game name back out of the message
// body so edits do not need extra state.
func recruitGameFromContent(content string) string {
	start := strings.Index(content, "**")
	if start < 0 {
		return "?"
	}
	rest := content[start+2:]
	end := strings.Index(rest, "**")
	if end < 0 {
		return "?"
	}
	return rest[:end]
}

func mentionList(userIDs []string) string {
	mentions := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		mentions = append(mentions, fmt.Sprintf("<@%s>", id))
	}
	return strings.Join(mentions, " ")
}
