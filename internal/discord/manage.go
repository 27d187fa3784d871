package discord

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"astrobot/internal/engine"
)

// handleManage processes the management prefix (!cc ...). Everything here
// requires Manage Server, matching how dashboards gate command editing.
func (b *Bot) handleManage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !b.canManage(s, m) {
		b.reply(s, m, "You need the Manage Server permission to manage custom commands.")
		return
	}

	fields := strings.Fields(m.Content)
	if len(fields) < 2 {
		b.reply(s, m, b.usageText())
		return
	}
	sub, args := fields[1], fields[2:]

	var err error
	switch sub {
	case "add":
		err = b.manageAdd(s, m, args)
	case "edit":
		err = b.manageEdit(s, m, args)
	case "remove":
		err = b.manageRemove(s, m, args)
	case "list":
		err = b.manageList(s, m)
	case "info":
		err = b.manageInfo(s, m, args)
	case "enable":
		err = b.manageSetEnabled(s, m, args, true)
	case "disable":
		err = b.manageSetEnabled(s, m, args, false)
	case "settype":
		err = b.manageSetType(s, m, args)
	case "setresponse":
		err = b.manageSetResponse(s, m, args)
	case "setcooldown":
		err = b.manageSetCooldown(s, m, args)
	case "setcondition":
		err = b.manageSetCondition(s, m, args)
	case "variables":
		err = b.manageVariables(s, m)
	case "setvar":
		err = b.manageSetVar(s, m, args)
	case "delvar":
		err = b.manageDelVar(s, m, args)
	case "usage":
		err = b.manageUsage(s, m, args)
	case "help":
		b.reply(s, m, b.usageText())
	default:
		b.reply(s, m, fmt.Sprintf("Unknown subcommand '%s'. Try `%s help`.", sub, b.cfg.CommandPrefix))
	}

	if err != nil {
		b.reply(s, m, "Error: "+err.Error())
	}
}

func (b *Bot) canManage(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if b.cfg.DeveloperID != "" && m.Author.ID == b.cfg.DeveloperID {
		return true
	}
	perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		log.Printf("[WARN] Could not resolve permissions for %s: %v", m.Author.ID, err)
		return false
	}
	return perms&discordgo.PermissionManageServer != 0
}

func (b *Bot) manageAdd(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: add <trigger> <template>")
	}
	cmd := engine.Command{
		GuildID:     m.GuildID,
		Trigger:     args[0],
		TriggerType: engine.TriggerExact,
		Template:    strings.Join(args[1:], " "),
		Enabled:     true,
		CreatedBy:   m.Author.ID,
	}
	created, err := b.storage.CreateCommand(cmd)
	if err != nil {
		return err
	}
	b.reloadGuild(m.GuildID)
	b.reply(s, m, fmt.Sprintf("Created command '%s' (%s).", created.Trigger, created.ID))
	return nil
}

func (b *Bot) manageEdit(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: edit <trigger> <template>")
	}
	cmd, err := b.storage.FindCommandByTrigger(m.GuildID, args[0])
	if err != nil {
		return err
	}
	cmd.Template = strings.Join(args[1:], " ")
	cmd.UpdatedBy = m.Author.ID
	if err := b.storage.UpdateCommand(*cmd); err != nil {
		return err
	}
	b.reloadGuild(m.GuildID)
	b.reply(s, m, fmt.Sprintf("Updated command '%s'.", cmd.Trigger))
	return nil
}

func (b *Bot) manageRemove(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: remove <trigger>")
	}
	cmd, err := b.storage.FindCommandByTrigger(m.GuildID, args[0])
	if err != nil {
		return err
	}
	if err := b.storage.DeleteCommand(m.GuildID, cmd.ID); err != nil {
		return err
	}
	b.reloadGuild(m.GuildID)
	b.reply(s, m, fmt.Sprintf("Removed command '%s'.", cmd.Trigger))
	return nil
}

func (b *Bot) manageList(s *discordgo.Session, m *discordgo.MessageCreate) error {
	cmds, err := b.storage.LoadCommands(m.GuildID)
	if err != nil {
		return err
	}
	if len(cmds) == 0 {
		b.reply(s, m, "No custom commands yet.")
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**%d custom commands:**\n", len(cmds)))
	for _, cmd := range cmds {
		state := "enabled"
		if !cmd.Enabled {
			state = "disabled"
		}
		sb.WriteString(fmt.Sprintf("- `%s` (%s, %s, %s)\n", cmd.Trigger, cmd.TriggerType, cmd.ResponseType, state))
	}
	b.reply(s, m, sb.String())
	return nil
}

func (b *Bot) manageInfo(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: info <trigger>")
	}
	cmd, err := b.storage.FindCommandByTrigger(m.GuildID, args[0])
	if err != nil {
		return err
	}
	count, _ := b.storage.UsageCount(m.GuildID, cmd.ID)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**%s**\n", cmd.Trigger))
	sb.WriteString(fmt.Sprintf("ID: `%s`\n", cmd.ID))
	sb.WriteString(fmt.Sprintf("Match: %s, response: %s, priority: %d\n", cmd.TriggerType, cmd.ResponseType, cmd.Priority))
	sb.WriteString(fmt.Sprintf("Enabled: %t, uses: %d\n", cmd.Enabled, count))
	if cmd.Settings.UserCooldown > 0 || cmd.Settings.GlobalCooldown > 0 {
		sb.WriteString(fmt.Sprintf("Cooldown: user %ds, global %ds\n", cmd.Settings.UserCooldown, cmd.Settings.GlobalCooldown))
	}
	if cmd.Settings.CustomCondition != "" {
		sb.WriteString(fmt.Sprintf("Condition: `%s`\n", cmd.Settings.CustomCondition))
	}
	sb.WriteString(fmt.Sprintf("Template: ```%s```", cmd.Template))
	b.reply(s, m, sb.String())
	return nil
}

func (b *Bot) manageSetEnabled(s *discordgo.Session, m *discordgo.MessageCreate, args []string, enabled bool) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: enable|disable <trigger>")
	}
	cmd, err := b.storage.FindCommandByTrigger(m.GuildID, args[0])
	if err != nil {
		return err
	}
	if err := b.storage.SetCommandEnabled(m.GuildID, cmd.ID, enabled); err != nil {
		return err
	}
	b.reloadGuild(m.GuildID)
	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	b.reply(s, m, fmt.Sprintf("Command '%s' %s.", cmd.Trigger, state))
	return nil
}

func (b *Bot) manageSetType(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: settype <trigger> <exact|startswith|contains|regex>")
	}
	cmd, err := b.storage.FindCommandByTrigger(m.GuildID, args[0])
	if err != nil {
		return err
	}
	switch engine.TriggerType(args[1]) {
	case engine.TriggerExact, engine.TriggerStartsWith, engine.TriggerContains, engine.TriggerRegex:
	default:
		return fmt.Errorf("unknown trigger type '%s'", args[1])
	}
	cmd.TriggerType = engine.TriggerType(args[1])
	cmd.UpdatedBy = m.Author.ID
	if err := b.storage.UpdateCommand(*cmd); err != nil {
		return err
	}
	b.reloadGuild(m.GuildID)
	b.reply(s, m, fmt.Sprintf("Command '%s' now matches as %s.", cmd.Trigger, cmd.TriggerType))
	return nil
}

func (b *Bot) manageSetResponse(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: setresponse <trigger> <text|embed|reaction|dm|file|complex>")
	}
	cmd, err := b.storage.FindCommandByTrigger(m.GuildID, args[0])
	if err != nil {
		return err
	}
	switch engine.ResponseType(args[1]) {
	case engine.ResponseText, engine.ResponseEmbed, engine.ResponseReaction,
		engine.ResponseDM, engine.ResponseFile, engine.ResponseComplex:
	default:
		return fmt.Errorf("unknown response type '%s'", args[1])
	}
	cmd.ResponseType = engine.ResponseType(args[1])
	cmd.UpdatedBy = m.Author.ID
	if err := b.storage.UpdateCommand(*cmd); err != nil {
		return err
	}
	b.reloadGuild(m.GuildID)
	b.reply(s, m, fmt.Sprintf("Command '%s' now responds as %s.", cmd.Trigger, cmd.ResponseType))
	return nil
}

func (b *Bot) manageSetCooldown(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: setcooldown <trigger> <user_seconds> [global_seconds]")
	}
	cmd, err := b.storage.FindCommandByTrigger(m.GuildID, args[0])
	if err != nil {
		return err
	}
	user, err := strconv.Atoi(args[1])
	if err != nil || user < 0 {
		return fmt.Errorf("bad user cooldown '%s'", args[1])
	}
	cmd.Settings.UserCooldown = user
	if len(args) > 2 {
		global, err := strconv.Atoi(args[2])
		if err != nil || global < 0 {
			return fmt.Errorf("bad global cooldown '%s'", args[2])
		}
		cmd.Settings.GlobalCooldown = global
	}
	cmd.UpdatedBy = m.Author.ID
	if err := b.storage.UpdateCommand(*cmd); err != nil {
		return err
	}
	b.reloadGuild(m.GuildID)
	b.reply(s, m, fmt.Sprintf("Cooldowns for '%s' set to user %ds, global %ds.",
		cmd.Trigger, cmd.Settings.UserCooldown, cmd.Settings.GlobalCooldown))
	return nil
}

func (b *Bot) manageSetCondition(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: setcondition <trigger> [expression], empty expression clears it")
	}
	cmd, err := b.storage.FindCommandByTrigger(m.GuildID, args[0])
	if err != nil {
		return err
	}
	cmd.Settings.CustomCondition = strings.Join(args[1:], " ")
	cmd.UpdatedBy = m.Author.ID
	if err := b.storage.UpdateCommand(*cmd); err != nil {
		return err
	}
	b.reloadGuild(m.GuildID)
	if cmd.Settings.CustomCondition == "" {
		b.reply(s, m, fmt.Sprintf("Condition cleared for '%s'.", cmd.Trigger))
	} else {
		b.reply(s, m, fmt.Sprintf("Condition for '%s' set to `%s`.", cmd.Trigger, cmd.Settings.CustomCondition))
	}
	return nil
}

func (b *Bot) manageVariables(s *discordgo.Session, m *discordgo.MessageCreate) error {
	vars, err := b.storage.ListVariables(m.GuildID)
	if err != nil {
		return err
	}
	if len(vars) == 0 {
		b.reply(s, m, "No variables set.")
		return nil
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**%d variables:**\n", len(vars)))
	for name, v := range vars {
		sb.WriteString(fmt.Sprintf("- `%s` = `%s`\n", name, v.Value))
	}
	b.reply(s, m, sb.String())
	return nil
}

func (b *Bot) manageSetVar(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: setvar <name> <value>")
	}
	name, value := args[0], strings.Join(args[1:], " ")
	if err := b.engine.Variables().Set(m.GuildID, name, value); err != nil {
		return err
	}
	b.reply(s, m, fmt.Sprintf("Variable `%s` set.", name))
	return nil
}

func (b *Bot) manageDelVar(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: delvar <name>")
	}
	if err := b.storage.DeleteVariable(m.GuildID, args[0]); err != nil {
		return err
	}
	b.engine.Variables().Forget(m.GuildID, args[0])
	b.reply(s, m, fmt.Sprintf("Variable `%s` deleted.", args[0]))
	return nil
}

func (b *Bot) manageUsage(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: usage <trigger>")
	}
	cmd, err := b.storage.FindCommandByTrigger(m.GuildID, args[0])
	if err != nil {
		return err
	}
	count, err := b.storage.UsageCount(m.GuildID, cmd.ID)
	if err != nil {
		return err
	}
	b.reply(s, m, fmt.Sprintf("Command '%s' has been used %d times.", cmd.Trigger, count))
	return nil
}

func (b *Bot) reloadGuild(guildID string) {
	if _, err := b.engine.Registry().Reload(guildID); err != nil {
		log.Printf("[WARN] Reloading command registry for guild %s: %v", guildID, err)
	}
}

func (b *Bot) reply(s *discordgo.Session, m *discordgo.MessageCreate, content string) {
	if len(content) > maxMessageLength {
		content = content[:maxMessageLength-3] + "..."
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, content); err != nil {
		log.Println("[WARN] Could not send management reply:", err)
	}
}

func (b *Bot) usageText() string {
	p := b.cfg.CommandPrefix
	return "**Custom command management:**\n" +
		"`" + p + " add <trigger> <template>` - create a command\n" +
		"`" + p + " edit <trigger> <template>` - change the template\n" +
		"`" + p + " remove <trigger>` - delete a command\n" +
		"`" + p + " list` / `" + p + " info <trigger>` / `" + p + " usage <trigger>`\n" +
		"`" + p + " enable|disable <trigger>`\n" +
		"`" + p + " settype <trigger> <exact|startswith|contains|regex>`\n" +
		"`" + p + " setresponse <trigger> <text|embed|reaction|dm|file|complex>`\n" +
		"`" + p + " setcooldown <trigger> <user_seconds> [global_seconds]`\n" +
		"`" + p + " setcondition <trigger> [expression]`\n" +
		"`" + p + " variables` / `" + p + " setvar <name> <value>` / `" + p + " delvar <name>`"
}
