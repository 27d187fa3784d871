package discord

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"

	"astrobot/internal/engine"
)

const maxMessageLength = 2000

// Transport sends engine outbound actions through the Discord session. It is
// constructed before the session exists and bound once the bot connects.
type Transport struct {
	mu sync.RWMutex
	dg *discordgo.Session
}

func NewTransport() *Transport {
	return &Transport{}
}

// Bind attaches the live session.
func (t *Transport) Bind(dg *discordgo.Session) {
	t.mu.Lock()
	t.dg = dg
	t.mu.Unlock()
}

func (t *Transport) session() (*discordgo.Session, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.dg == nil {
		return nil, fmt.Errorf("discord session not connected")
	}
	return t.dg, nil
}

// Dispatch performs one outbound action.
func (t *Transport) Dispatch(ctx context.Context, action engine.OutboundAction) error {
	dg, err := t.session()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	switch action.Kind {
	case engine.ActionMessage:
		return t.sendMessage(dg, action.ChannelID, action.Content, action.Embed)

	case engine.ActionReaction:
		// A bad emoji must not block the rest of the set.
		for _, emoji := range action.Reactions {
			if err := dg.MessageReactionAdd(action.ChannelID, action.MessageID, emoji); err != nil {
				log.Printf("[WARN] Could not add reaction %q: %v", emoji, err)
			}
		}
		return nil

	case engine.ActionDM:
		channel, err := dg.UserChannelCreate(action.UserID)
		if err != nil {
			return fmt.Errorf("open DM channel: %w", err)
		}
		return t.sendMessage(dg, channel.ID, action.Content, action.Embed)

	case engine.ActionFile:
		_, err := dg.ChannelFileSend(action.ChannelID, action.FileName, bytes.NewReader(action.FileData))
		return err
	}

	return fmt.Errorf("unknown action kind %q", action.Kind)
}

func (t *Transport) sendMessage(dg *discordgo.Session, channelID, content string, embed *engine.EmbedDoc) error {
	if len(content) > maxMessageLength {
		content = content[:maxMessageLength-3] + "..."
	}

	msg := &discordgo.MessageSend{Content: content}
	if embed != nil {
		msg.Embeds = []*discordgo.MessageEmbed{toMessageEmbed(embed)}
	}
	_, err := dg.ChannelMessageSendComplex(channelID, msg)
	return err
}

func toMessageEmbed(doc *engine.EmbedDoc) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       doc.Title,
		Description: doc.Description,
		URL:         doc.URL,
		Color:       int(doc.Color),
		Timestamp:   doc.Timestamp,
	}
	if doc.Author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    doc.Author.Name,
			URL:     doc.Author.URL,
			IconURL: doc.Author.IconURL,
		}
	}
	if doc.Footer != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text:    doc.Footer.Text,
			IconURL: doc.Footer.IconURL,
		}
	}
	if doc.Thumbnail != nil {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: doc.Thumbnail.URL}
	}
	if doc.Image != nil {
		embed.Image = &discordgo.MessageEmbedImage{URL: doc.Image.URL}
	}
	for _, f := range doc.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return embed
}
