package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/systemcmd0122/developer-bot/common"
	"github.com/systemcmd0122/developer-bot/config"
	"github.com/systemcmd0122/developer-bot/registry"
	"github.com/systemcmd0122/developer-bot/session"
)

var rpsHands = []string{"rock", "paper", "scissors"}

var rpsLabels = map[string]string{
	"rock":     "グー ✊",
	"paper":    "パー ✋",
	"scissors": "チョキ ✌️",
}

// beats maps each hand to the hand it defeats.
var beats = map[string]string{
	"rock":     "scissors",
	"paper":    "rock",
	"scissors": "paper",
}

func (h *Handlers) handleGame(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "HandleGame")
	defer span.End()

	sub := i.ApplicationCommandData().Options[0]
	if sub.Name != "rps" {
		respondGone(s, i)
		span.SetStatus(codes.Error, "unknown subcommand")
		return
	}

	challenger := interactionUserID(i)
	opponent := subcommandOptions(sub)["opponent"].UserValue(s)

	if opponent == nil || opponent.ID == challenger || opponent.Bot {
		respondEphemeral(s, i, "その相手とは対戦できません。")
		span.SetStatus(codes.Ok, "ok")
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    fmt.Sprintf("<@%s> vs <@%s> じゃんけん勝負！手を選んでください。", challenger, opponent.ID),
			Components: rpsButtons(),
		},
	}); err != nil {
		slog.Error("failed to start rps match", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	msg, err := s.InteractionResponse(i.Interaction)
	if err != nil {
		slog.Error("failed to fetch rps message", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	span.SetAttributes(attribute.String("message_id", msg.ID))

	timeout := time.Duration(config.Get().Session.TimeoutSeconds) * time.Second
	_, err = h.Sessions.Create(msg.ID, session.Options{
		Kind:         "rps",
		ChannelID:    i.ChannelID,
		Participants: []string{challenger, opponent.ID},
		Timeout:      timeout,
		OnExpire: func(sess session.Session) {
			h.expireGameMessage(s, sess)
		},
	})
	if err != nil {
		slog.Error("failed to create rps session", "message_id", msg.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	if err := h.Registry.SaveButton(sctx, msg.ID, registry.ButtonPayload{
		Action:  "rps",
		UserID:  challenger,
		GuildID: i.GuildID,
	}); err != nil {
		slog.Error("failed to register rps buttons", "message_id", msg.ID, "error", err)
		span.RecordError(err)
	}

	span.SetStatus(codes.Ok, "ok")
}

func (h *Handlers) handleRPSChoice(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, choice string) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "HandleRPSChoice")
	defer span.End()

	span.SetAttributes(
		attribute.String("message_id", i.Message.ID),
		attribute.String("choice", choice),
	)

	if !common.Contains(rpsHands, choice) {
		respondGone(s, i)
		span.SetStatus(codes.Error, "invalid hand")
		return
	}

	if payload, ok := h.Registry.Button(i.Message.ID); !ok || payload.Action != "rps" {
		respondGone(s, i)
		span.SetStatus(codes.Error, "button record missing")
		return
	}

	userID := interactionUserID(i)

	sess, resolved, err := h.Sessions.Submit(i.Message.ID, userID, choice)
	switch err {
	case nil:
	case session.ErrNotFound:
		respondEphemeral(s, i, "このじゃんけんはもう終了しています。")
		span.SetStatus(codes.Ok, "ok")
		return
	default:
		slog.Error("failed to submit rps choice", "message_id", i.Message.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respondError(s, i)
		return
	}

	if !resolved {
		respondEphemeral(s, i, fmt.Sprintf("%s を受け付けました。相手の手を待っています…", rpsLabels[choice]))
		span.SetStatus(codes.Ok, "ok")
		return
	}

	result := rpsResult(sess)
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    result,
			Components: []discordgo.MessageComponent{},
		},
	}); err != nil {
		slog.Error("failed to publish rps result", "message_id", i.Message.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if err := h.Registry.Remove(sctx, i.Message.ID); err != nil {
		slog.Error("failed to remove rps registry record", "message_id", i.Message.ID, "error", err)
	}

	span.SetStatus(codes.Ok, "ok")
}

func (h *Handlers) expireGameMessage(s *discordgo.Session, sess session.Session) {
	content := "時間切れです。じゃんけんは不成立となりました。"
	if _, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         sess.Key,
		Channel:    sess.ChannelID,
		Content:    &content,
		Components: &[]discordgo.MessageComponent{},
	}); err != nil {
		slog.Error("failed to edit expired game message", "message_id", sess.Key, "error", err)
	}

	if err := h.Registry.Remove(context.Background(), sess.Key); err != nil {
		slog.Error("failed to remove expired registry record", "message_id", sess.Key, "error", err)
	}
}

func rpsButtons() []discordgo.MessageComponent {
	buttons := make([]discordgo.MessageComponent, 0, len(rpsHands))
	for _, hand := range rpsHands {
		buttons = append(buttons, discordgo.Button{
			Label:    rpsLabels[hand],
			Style:    discordgo.PrimaryButton,
			CustomID: "rps:" + hand,
		})
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: buttons},
	}
}

func rpsResult(sess session.Session) string {
	if len(sess.Participants) != 2 {
		return "結果を判定できませんでした。"
	}

	a, b := sess.Participants[0], sess.Participants[1]
	handA, handB := sess.Choices[a], sess.Choices[b]

	header := fmt.Sprintf("<@%s>: %s vs <@%s>: %s\n", a, rpsLabels[handA], b, rpsLabels[handB])

	switch {
	case handA == handB:
		return header + "あいこ！"
	case beats[handA] == handB:
		return header + fmt.Sprintf("<@%s> の勝ち！", a)
	default:
		return header + fmt.Sprintf("<@%s> の勝ち！", b)
	}
}
