package discord

import (
	"log"

	"github.com/bwmarrin/discordgo"

	"astrobot/internal/engine"
)

// buildMessageContext assembles the engine's view of a message. Guild,
// channel and member details come from the session state cache when warm,
// falling back to the API.
func buildMessageContext(s *discordgo.Session, m *discordgo.MessageCreate) *engine.MessageContext {
	mc := &engine.MessageContext{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		UserID:    m.Author.ID,

		UserTag:     m.Author.String(),
		UserName:    m.Author.Username,
		UserMention: m.Author.Mention(),
		UserAvatar:  m.Author.AvatarURL(""),

		Content: m.Content,
	}

	if m.Member != nil {
		mc.UserNick = m.Member.Nick
		mc.UserRoles = m.Member.Roles
	} else if member, err := s.State.Member(m.GuildID, m.Author.ID); err == nil {
		mc.UserNick = member.Nick
		mc.UserRoles = member.Roles
	} else if member, err := s.GuildMember(m.GuildID, m.Author.ID); err == nil {
		mc.UserNick = member.Nick
		mc.UserRoles = member.Roles
	}

	guild, err := s.State.Guild(m.GuildID)
	if err != nil {
		guild, err = s.Guild(m.GuildID)
	}
	if err == nil {
		mc.GuildName = guild.Name
		mc.GuildIcon = guild.IconURL("")
		mc.MemberCount = guild.MemberCount
	} else {
		log.Printf("[WARN] Could not resolve guild %s: %v", m.GuildID, err)
	}

	channel, err := s.State.Channel(m.ChannelID)
	if err != nil {
		channel, err = s.Channel(m.ChannelID)
	}
	if err == nil {
		mc.ChannelName = channel.Name
		mc.ChannelMention = channel.Mention()
	}

	for _, u := range m.Mentions {
		mc.Mentions = append(mc.Mentions, u.ID)
	}
	for _, a := range m.Attachments {
		mc.Attachments = append(mc.Attachments, a.URL)
	}

	return mc
}
