// /internal/engine/builtins.go
package engine

import (
	"strconv"
	"strings"
	"time"
)

// builtinBindings maps the fixed template token names to their values for one
// message. Tokens are pure substitutions computed up front, so a token used
// twice in a template always expands to the same text.
func builtinBindings(mc *MessageContext, now time.Time) map[string]string {
	now = now.UTC()

	nick := mc.UserNick
	if nick == "" {
		nick = mc.UserName
	}

	return map[string]string{
		"user":         mc.UserTag,
		"user.mention": mc.UserMention,
		"user.id":      mc.UserID,
		"user.name":    mc.UserName,
		"user.nick":    nick,
		"user.avatar":  mc.UserAvatar,

		"server":             mc.GuildName,
		"server.id":          mc.GuildID,
		"server.icon":        mc.GuildIcon,
		"server.membercount": strconv.Itoa(mc.MemberCount),

		"channel":         mc.ChannelName,
		"channel.mention": mc.ChannelMention,
		"channel.id":      mc.ChannelID,

		"message.id":      mc.MessageID,
		"message.content": mc.Content,

		"time":      now.Format("15:04:05"),
		"date":      now.Format("2006-01-02"),
		"datetime":  now.Format("2006-01-02 15:04:05"),
		"timestamp": strconv.FormatInt(now.Unix(), 10),

		"newline": "\n",
		"nl":      "\n",

		"args": strings.Join(mc.Args(), " "),
	}
}
