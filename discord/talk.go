package discord

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/systemcmd0122/developer-bot/backend/model"
)

// recentTurns bounds how much history gets replayed to the model.
const recentTurns = 10

func (h *Handlers) handleTalk(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "HandleTalk")
	defer span.End()

	if h.Gemini == nil {
		respondEphemeral(s, i, "AIチャットは現在利用できません。")
		span.SetStatus(codes.Error, "gemini not configured")
		return
	}

	opts := commandOptions(i)
	prompt := opts["prompt"].StringValue()
	reset := false
	if opt, ok := opts["reset"]; ok {
		reset = opt.BoolValue()
	}
	userID := interactionUserID(i)

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Bool("reset", reset),
	)

	// Generation can take longer than the 3 second interaction window.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		slog.Error("failed to defer talk response", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	engine, err := getBackend(span)
	if err != nil {
		followupError(s, i)
		return
	}

	if reset {
		if err := engine.ClearConversation(sctx, userID); err != nil {
			slog.Error("failed to clear conversation", "user_id", userID, "error", err)
			span.RecordError(err)
		}
	}

	history, err := engine.RecentConversation(sctx, userID, recentTurns)
	if err != nil {
		slog.Error("failed to load conversation", "user_id", userID, "error", err)
		span.RecordError(err)
		history = nil
	}

	reply, err := h.Gemini.Chat(sctx, history, prompt)
	if err != nil {
		slog.Error("chat generation failed", "user_id", userID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		followupError(s, i)
		return
	}

	now := time.Now().UTC()
	for _, turn := range []model.ConversationTurn{
		{UserID: userID, Role: "user", Content: prompt, CreatedAt: now},
		{UserID: userID, Role: "assistant", Content: reply, CreatedAt: now},
	} {
		if err := engine.AppendConversation(sctx, turn); err != nil {
			slog.Error("failed to store conversation turn", "user_id", userID, "error", err)
			span.RecordError(err)
		}
	}

	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &reply,
	}); err != nil {
		slog.Error("failed to publish talk reply", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	span.SetStatus(codes.Ok, "ok")
}

// followupError reports a failure after the response was deferred,
// where a plain interaction response is no longer accepted.
func followupError(s *discordgo.Session, i *discordgo.InteractionCreate) {
	content := msgGenericError
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	}); err != nil {
		slog.Error("failed to report error", "error", err)
	}
}
