package discord

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"astrobot/internal/config"
	"astrobot/internal/engine"
	"astrobot/internal/storage"
)

// Bot is the Discord front end: it turns gateway events into engine calls
// and handles the management command prefix.
type Bot struct {
	dg        *discordgo.Session
	cfg       *config.Config
	storage   *storage.Storage
	engine    *engine.Engine
	transport *Transport

	ctx context.Context
}

// StartBot runs the Discord bot until ctx is done.
func StartBot(ctx context.Context, cfg *config.Config, store *storage.Storage, eng *engine.Engine, transport *Transport) error {
	b := &Bot{
		cfg:       cfg,
		storage:   store,
		engine:    eng,
		transport: transport,
		ctx:       ctx,
	}
	if err := b.run(ctx, cfg.DiscordToken); err != nil {
		return fmt.Errorf("bot run error: %w", err)
	}
	return nil
}

func (b *Bot) run(ctx context.Context, token string) error {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	b.dg = dg
	b.transport.Bind(dg)

	b.configureIntents()
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onMessageCreate)
	dg.AddHandler(b.onGuildCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Cleaning up...")
	return nil
}

func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	botInfo, err := s.User("@me")
	if err != nil {
		log.Println("[WARN] Error retrieving bot user:", err)
		return
	}
	log.Printf("[INFO] ✅ Discord bot %v is running in %d guilds.", botInfo.Username, len(r.Guilds))
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Printf("[INFO] Bot added to guild: %s (%s)", g.Guild.ID, g.Guild.Name)
	b.engine.Registry().Forget(g.Guild.ID)
}

// onMessageCreate routes messages: management prefix first, then the command
// engine. Bots never trigger anything.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}
	if m.GuildID == "" {
		return
	}

	if strings.HasPrefix(m.Content, b.cfg.CommandPrefix+" ") || m.Content == b.cfg.CommandPrefix {
		b.handleManage(s, m)
		return
	}

	mc := buildMessageContext(s, m)
	b.engine.HandleMessage(b.ctx, mc)
}
