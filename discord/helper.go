package discord

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/systemcmd0122/developer-bot/backend"
)

const (
	msgGenericError = "エラーが発生しました。しばらくしてからもう一度お試しください。"
	msgGone         = "この操作はもう有効ではありません。"
)

func getBackend(span trace.Span) (backend.Engine, error) {
	engine, err := backend.Backend()
	if err != nil {
		slog.Error("failed to get backend", "error", err)
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return nil, err
	}

	return engine, nil
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	}); err != nil {
		slog.Error("failed to respond to interaction", "error", err)
	}
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		slog.Error("failed to respond to interaction", "error", err)
	}
}

func respondError(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondEphemeral(s, i, msgGenericError)
}

func respondGone(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondEphemeral(s, i, msgGone)
}

// commandOptions flattens the options of a slash command into a map.
func commandOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		out[opt.Name] = opt
	}
	return out
}

func subcommandOptions(sub *discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(sub.Options))
	for _, opt := range sub.Options {
		out[opt.Name] = opt
	}
	return out
}
