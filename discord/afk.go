package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/systemcmd0122/developer-bot/backend/model"
)

func (h *Handlers) handleAFK(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "HandleAFK")
	defer span.End()

	engine, err := getBackend(span)
	if err != nil {
		respondError(s, i)
		return
	}

	userID := interactionUserID(i)
	sub := i.ApplicationCommandData().Options[0]

	switch sub.Name {
	case "notifications":
		enabled := subcommandOptions(sub)["enabled"].BoolValue()

		if err := engine.SetActivitySetting(sctx, model.ActivitySetting{
			UserID:               userID,
			NotificationsEnabled: enabled,
		}); err != nil {
			slog.Error("failed to save activity setting", "user_id", userID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			respondError(s, i)
			return
		}

		if enabled {
			respondEphemeral(s, i, "通話切断通知をオンにしました。")
		} else {
			respondEphemeral(s, i, "通話切断通知をオフにしました。")
		}

	case "status":
		setting, err := engine.GetActivitySetting(sctx, userID)
		if err != nil {
			slog.Error("failed to read activity setting", "user_id", userID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			respondError(s, i)
			return
		}

		state := "オン"
		if !setting.NotificationsEnabled {
			state = "オフ"
		}
		respondEphemeral(s, i, fmt.Sprintf("通話切断通知は現在 %s です。", state))

	default:
		respondGone(s, i)
	}

	span.SetStatus(codes.Ok, "ok")
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
