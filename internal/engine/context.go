// /internal/engine/context.go
package engine

import "strings"

// MessageContext carries everything the engine needs to know about one
// inbound chat message. It is built by the transport adapter and owned by
// the caller; the engine never mutates it.
type MessageContext struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string

	// Display fields resolved by the transport, used by template built-ins.
	UserTag     string // name#discriminator or global display string
	UserName    string
	UserNick    string
	UserMention string
	UserAvatar  string

	GuildName   string
	GuildIcon   string
	MemberCount int

	ChannelName    string
	ChannelMention string

	UserRoles   []string
	Content     string
	Mentions    []string
	Attachments []string
}

// Args returns the positional arguments: every whitespace-separated token of
// the message after the first one.
func (mc *MessageContext) Args() []string {
	fields := strings.Fields(mc.Content)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// HasRole reports whether the author carries the given role.
func (mc *MessageContext) HasRole(roleID string) bool {
	for _, r := range mc.UserRoles {
		if r == roleID {
			return true
		}
	}
	return false
}
