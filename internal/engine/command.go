// /internal/engine/command.go
package engine

import "time"

// TriggerType selects how a command's trigger is matched against message text.
type TriggerType string

const (
	TriggerExact      TriggerType = "exact"
	TriggerStartsWith TriggerType = "startswith"
	TriggerContains   TriggerType = "contains"
	TriggerRegex      TriggerType = "regex"
)

// ResponseType selects the outbound shape of a rendered command.
type ResponseType string

const (
	ResponseText     ResponseType = "text"
	ResponseEmbed    ResponseType = "embed"
	ResponseReaction ResponseType = "reaction"
	ResponseDM       ResponseType = "dm"
	ResponseFile     ResponseType = "file"
	ResponseComplex  ResponseType = "complex"
)

// CommandSettings are the per-command gates and options set by guild admins.
// Allow and deny lists for the same dimension are evaluated allow-first,
// deny wins on conflict.
type CommandSettings struct {
	ChannelAllow []string `json:"channel_allow,omitempty"`
	ChannelDeny  []string `json:"channel_deny,omitempty"`
	RoleAllow    []string `json:"role_allow,omitempty"`
	RoleDeny     []string `json:"role_deny,omitempty"`

	UserCooldown   int `json:"user_cooldown,omitempty"`   // seconds, 0 = none
	GlobalCooldown int `json:"global_cooldown,omitempty"` // seconds, 0 = none

	CustomCondition  string `json:"custom_condition,omitempty"`
	NotifyOnCooldown bool   `json:"notify_cooldown,omitempty"`
	ShowErrors       bool   `json:"show_errors,omitempty"`
	Filename         string `json:"filename,omitempty"` // file responses, defaults to file.txt
}

// Command is an admin-authored custom command stored per guild.
type Command struct {
	ID                  string          `json:"id"`
	GuildID             string          `json:"guild_id"`
	Trigger             string          `json:"trigger"`
	TriggerType         TriggerType     `json:"trigger_type"`
	ResponseType        ResponseType    `json:"response_type"`
	Template            string          `json:"template"`
	Settings            CommandSettings `json:"settings"`
	Priority            int             `json:"priority"`
	GroupID             string          `json:"group_id,omitempty"`
	Enabled             bool            `json:"enabled"`
	TerminateProcessing bool            `json:"terminate_processing"`
	CreatedBy           string          `json:"created_by,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedBy           string          `json:"updated_by,omitempty"`
	UpdatedAt           time.Time       `json:"updated_at,omitempty"`
}

// UsageEvent records one successfully dispatched command invocation.
type UsageEvent struct {
	ID        string    `json:"id"`
	CommandID string    `json:"command_id"`
	GuildID   string    `json:"guild_id"`
	UserID    string    `json:"user_id"`
	ChannelID string    `json:"channel_id"`
	Trigger   string    `json:"trigger"`
	UsedAt    time.Time `json:"used_at"`
}

// Store is the narrow persistence surface the engine depends on. The durable
// layer is the system of record; every in-memory cache must be rebuildable
// from it.
type Store interface {
	LoadCommands(guildID string) ([]Command, error)
	LoadVariable(guildID, name string) (string, bool, error)
	SaveVariable(guildID, name, value string) error
	AppendUsageEvent(ev UsageEvent) error
}

// GroupPermission is the external capability consulted when a command belongs
// to a permission group.
type GroupPermission interface {
	Allows(groupID string, mc *MessageContext) bool
}
