package discord

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/julianshen/og"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/systemcmd0122/developer-bot/common"
	"github.com/systemcmd0122/developer-bot/config"
)

const colorAnnounce = 0x5865f2

func (h *Handlers) handleAnnounce(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	_, span := otel.Tracer(packageName).Start(ctx, "HandleAnnounce")
	defer span.End()

	opts := commandOptions(i)

	message := opts["message"].StringValue()
	embed := &discordgo.MessageEmbed{
		Title:       "お知らせ",
		Description: message,
		Color:       colorAnnounce,
	}

	if opt, ok := opts["url"]; ok {
		url := opt.StringValue()
		span.SetAttributes(attribute.String("url", url))

		if preview, err := linkEmbed(url, message); err != nil {
			slog.Warn("failed to build link preview", "url", url, "error", err)
		} else {
			embed = preview
		}
	}

	everywhere := false
	if opt, ok := opts["everywhere"]; ok {
		everywhere = opt.BoolValue()
	}

	targets := []string{i.ChannelID}
	if everywhere {
		targets = targets[:0]
		for _, c := range guildChannels(i.GuildID) {
			if c.Kind == discordgo.ChannelTypeGuildText {
				targets = append(targets, c.ID)
			}
		}
	}

	if config.Get().Discord.DryRun {
		slog.Warn("dry run enabled, not sending announcement", "channels", targets)
		respondEphemeral(s, i, "dry-runのため送信しませんでした。")
		span.SetStatus(codes.Ok, "ok")
		return
	}

	respondEphemeral(s, i, "お知らせを送信します。")

	wg := &sync.WaitGroup{}
	for _, channel := range targets {
		wg.Add(1)
		common.GetBackpressureMonitor().Increase("announce_send")

		go func(channelID string) {
			defer func() {
				common.GetBackpressureMonitor().Decrease("announce_send")
				wg.Done()
			}()

			if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
				slog.Error("failed to send announcement", "channel", channelID, "error", err)
			}
		}(channel)
	}
	wg.Wait()

	span.SetAttributes(attribute.Int("channels", len(targets)))
	span.SetStatus(codes.Ok, "ok")
}

// linkEmbed builds a link-preview embed from the page's OpenGraph data.
func linkEmbed(url string, description string) (*discordgo.MessageEmbed, error) {
	siteData, err := og.GetPageInfoFromUrl(url)
	if err != nil {
		return nil, err
	}

	if description == "" {
		description = siteData.Description
	}

	embed := &discordgo.MessageEmbed{
		Type:        discordgo.EmbedTypeLink,
		URL:         url,
		Title:       siteData.Title,
		Description: description,
		Color:       colorAnnounce,
		Provider: &discordgo.MessageEmbedProvider{
			URL:  url,
			Name: siteData.SiteName,
		},
	}

	if len(siteData.Images) > 0 {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{
			URL:    siteData.Images[0].Url,
			Width:  int(siteData.Images[0].Width),
			Height: int(siteData.Images[0].Height),
		}
	}

	return embed, nil
}
