package discord

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var packageName = "github.com/systemcmd0122/developer-bot/discord"

// HandleInteraction is the single gateway entry point. Slash commands
// dispatch by name, components by custom id prefix; the semantics of
// a component live in the interaction registry keyed by message id.
func (h *Handlers) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		h.handleComponent(s, i)
	}
}

func (h *Handlers) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, span := otel.Tracer(packageName).Start(context.Background(), "HandleCommand")
	defer span.End()

	name := i.ApplicationCommandData().Name
	span.SetAttributes(attribute.String("command", name))

	switch name {
	case "afk":
		h.handleAFK(ctx, s, i)
	case "announce":
		h.handleAnnounce(ctx, s, i)
	case "friendcode":
		h.handleFriendCode(ctx, s, i)
	case "game":
		h.handleGame(ctx, s, i)
	case "recruit":
		h.handleRecruit(ctx, s, i)
	case "roleboard":
		h.handleRoleBoard(ctx, s, i)
	case "talk":
		h.handleTalk(ctx, s, i)
	case "valorant":
		h.handleValorant(ctx, s, i)
	default:
		slog.Warn("unknown command received", "command", name)
		span.SetStatus(codes.Error, "unknown command")
		respondGone(s, i)
		return
	}

	span.SetStatus(codes.Ok, "ok")
}

func (h *Handlers) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, span := otel.Tracer(packageName).Start(context.Background(), "HandleComponent")
	defer span.End()

	customID := i.MessageComponentData().CustomID
	span.SetAttributes(
		attribute.String("custom_id", customID),
		attribute.String("message_id", i.Message.ID),
	)

	switch {
	case strings.HasPrefix(customID, "rps:"):
		h.handleRPSChoice(ctx, s, i, strings.TrimPrefix(customID, "rps:"))
	case strings.HasPrefix(customID, "recruit:"):
		h.handleRecruitButton(ctx, s, i, strings.TrimPrefix(customID, "recruit:"))
	case strings.HasPrefix(customID, "roleboard:"):
		h.handleRoleBoardButton(ctx, s, i, strings.TrimPrefix(customID, "roleboard:"))
	case customID == "friendcode:game":
		h.handleFriendCodeSelect(ctx, s, i)
	default:
		slog.Warn("unknown component interaction", "custom_id", customID)
		span.SetStatus(codes.Error, "unknown component")
		respondGone(s, i)
		return
	}

	span.SetStatus(codes.Ok, "ok")
}
