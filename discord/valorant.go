package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/systemcmd0122/developer-bot/valorant"
)

const colorValorant = 0xfd4556

func (h *Handlers) handleValorant(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "HandleValorant")
	defer span.End()

	if h.Valorant == nil {
		respondEphemeral(s, i, "Valorant連携は現在利用できません。")
		span.SetStatus(codes.Error, "valorant not configured")
		return
	}

	opts := i.ApplicationCommandData().Options
	if len(opts) == 0 {
		respondError(s, i)
		span.SetStatus(codes.Error, "missing subcommand")
		return
	}
	sub := opts[0]
	span.SetAttributes(attribute.String("subcommand", sub.Name))

	// The stats API routinely takes longer than the interaction window.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		slog.Error("failed to defer valorant response", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	var embed *discordgo.MessageEmbed
	var err error

	switch sub.Name {
	case "account":
		embed, err = h.valorantAccountEmbed(sctx, sub)
	case "rank":
		embed, err = h.valorantRankEmbed(sctx, sub)
	default:
		err = fmt.Errorf("unknown subcommand %q", sub.Name)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		content := valorantErrorMessage(err)
		if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content: &content,
		}); err != nil {
			slog.Error("failed to report valorant error", "error", err)
		}
		return
	}

	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	}); err != nil {
		slog.Error("failed to publish valorant reply", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	span.SetStatus(codes.Ok, "ok")
}

func (h *Handlers) valorantAccountEmbed(ctx context.Context, sub *discordgo.ApplicationCommandInteractionDataOption) (*discordgo.MessageEmbed, error) {
	opts := subcommandOptions(sub)
	name := opts["name"].StringValue()
	tag := opts["tag"].StringValue()

	account, err := h.Valorant.Account(ctx, name, tag)
	if err != nil {
		return nil, err
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s#%s", account.Name, account.Tag),
		Color: colorValorant,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "リージョン", Value: account.Region, Inline: true},
			{Name: "アカウントレベル", Value: fmt.Sprintf("%d", account.AccountLevel), Inline: true},
		},
	}
	if account.Card.Small != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: account.Card.Small}
	}

	return embed, nil
}

func (h *Handlers) valorantRankEmbed(ctx context.Context, sub *discordgo.ApplicationCommandInteractionDataOption) (*discordgo.MessageEmbed, error) {
	opts := subcommandOptions(sub)
	region := opts["region"].StringValue()
	name := opts["name"].StringValue()
	tag := opts["tag"].StringValue()

	mmr, err := h.Valorant.MMR(ctx, region, name, tag)
	if err != nil {
		return nil, err
	}

	tier := mmr.CurrentTier
	if tier == "" {
		tier = "Unrated"
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s#%s の現在ランク", name, tag),
		Color: colorValorant,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "ランク", Value: tier, Inline: true},
			{Name: "RR", Value: fmt.Sprintf("%d/100", mmr.RankingInTier), Inline: true},
			{Name: "直近の増減", Value: fmt.Sprintf("%+d", mmr.MMRChange), Inline: true},
		},
	}, nil
}

func valorantErrorMessage(err error) string {
	switch {
	case errors.Is(err, valorant.ErrNotFound):
		return "そのプレイヤーは見つかりませんでした。名前とタグを確認してください。"
	case errors.Is(err, valorant.ErrRateLimited):
		return "APIの利用制限に達しました。しばらくしてからもう一度お試しください。"
	case errors.Is(err, valorant.ErrForbidden):
		return "戦績APIの認証に失敗しました。管理者に連絡してください。"
	default:
		return msgGenericError
	}
}
