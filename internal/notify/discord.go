package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"greekledger/internal/core"
)

type channelPoster interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts to the chapter's configured channel using the bot token.
// Only the REST API is used; no gateway session is opened.
type Discord struct {
	channelID string
	session   channelPoster
}

func DiscordFromSettings(s core.ChapterSettings) MessageSender {
	if !s.DiscordConfigured() {
		return NewDisabled(core.ChannelDiscord, "discord notifications not configured")
	}
	session, err := discordgo.New("Bot " + s.DiscordBotToken)
	if err != nil {
		return NewDisabled(core.ChannelDiscord, "discord session: "+err.Error())
	}
	return &Discord{channelID: s.DiscordChannelID, session: session}
}

func (d *Discord) Channel() core.Channel { return core.ChannelDiscord }

func (d *Discord) Enabled() bool { return true }

func (d *Discord) Send(ctx context.Context, msg Message) error {
	if _, err := d.session.ChannelMessageSend(d.channelID, msg.Body, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("post discord message: %w", err)
	}
	return nil
}
