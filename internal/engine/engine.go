// /internal/engine/engine.go
package engine

import (
	"context"
	"log"
	"strings"
	"time"

	"astrobot/internal/engine/template"
)

// IntegrationResolver runs named external data blocks used from templates
// (weather, translate, ai, ...). Known distinguishes a real integration from
// arbitrary tag text so unrecognized tags can stay inert.
type IntegrationResolver interface {
	Known(name string) bool
	Resolve(ctx context.Context, name, args string, mc *MessageContext) (string, error)
}

// Options tune engine behavior; zero values pick the defaults.
type Options struct {
	LoopLimit          int           // template loop cap, default 20
	IntegrationTimeout time.Duration // per integration call, default 10s
}

// Engine ties matching, gating, cooldowns, rendering and dispatch together.
// One Engine serves all guilds; per-guild state lives in the registry, the
// variable store and the cooldown tracker.
type Engine struct {
	store        Store
	registry     *GuildRegistry
	vars         *VariableStore
	gate         *ConditionGate
	cooldowns    *CooldownTracker
	dispatcher   *ResponseDispatcher
	integrations IntegrationResolver

	loopLimit          int
	integrationTimeout time.Duration
	now                func() time.Time
}

func New(store Store, transport Transport, integrations IntegrationResolver, groups GroupPermission, opts Options) *Engine {
	if opts.LoopLimit <= 0 {
		opts.LoopLimit = 20
	}
	if opts.IntegrationTimeout <= 0 {
		opts.IntegrationTimeout = 10 * time.Second
	}

	vars := NewVariableStore(store)
	return &Engine{
		store:              store,
		registry:           NewGuildRegistry(store),
		vars:               vars,
		gate:               NewConditionGate(groups, vars),
		cooldowns:          NewCooldownTracker(),
		dispatcher:         NewResponseDispatcher(transport),
		integrations:       integrations,
		loopLimit:          opts.LoopLimit,
		integrationTimeout: opts.IntegrationTimeout,
		now:                time.Now,
	}
}

// Registry exposes the command snapshot cache so management commands can force
// a reload after mutations.
func (e *Engine) Registry() *GuildRegistry { return e.registry }

// Variables exposes the variable store for management commands.
func (e *Engine) Variables() *VariableStore { return e.vars }

// Cooldowns exposes the tracker so main can run the sweeper against it.
func (e *Engine) Cooldowns() *CooldownTracker { return e.cooldowns }

// HandleMessage runs the full pipeline for one inbound message: match the
// guild's commands, then for each candidate in order check gates and
// cooldowns, render, dispatch and record usage. A candidate that fails any
// stage is skipped without affecting the others; a dispatched command with
// terminate_processing stops the chain.
func (e *Engine) HandleMessage(ctx context.Context, mc *MessageContext) {
	if mc.GuildID == "" || strings.TrimSpace(mc.Content) == "" {
		return
	}

	cmds, err := e.registry.Commands(mc.GuildID)
	if err != nil {
		log.Printf("[ERR] Loading commands for guild %s: %v", mc.GuildID, err)
		return
	}
	if len(cmds) == 0 {
		return
	}

	for _, cmd := range MatchTriggers(cmds, mc.Content) {
		cmd := cmd
		if !e.gate.Allows(&cmd, mc) {
			continue
		}

		outcome := e.cooldowns.CheckAndRecord(&cmd, mc, e.now())
		if !outcome.Allowed() {
			e.notifyCooldown(ctx, &cmd, mc, outcome)
			continue
		}

		rendered, err := e.render(ctx, &cmd, mc)
		if err != nil {
			log.Printf("[ERR] Rendering command %s: %v", cmd.ID, err)
			if cmd.Settings.ShowErrors {
				e.sendText(ctx, mc, "Error rendering command: "+err.Error())
			}
			continue
		}
		if strings.TrimSpace(rendered) == "" {
			log.Printf("[INFO] Command %s rendered empty output, skipping dispatch", cmd.ID)
			continue
		}

		if err := e.dispatcher.Dispatch(ctx, &cmd, mc, rendered); err != nil {
			log.Printf("[ERR] Dispatching command %s: %v", cmd.ID, err)
			continue
		}

		e.recordUsage(&cmd, mc)

		if cmd.TerminateProcessing {
			break
		}
	}
}

func (e *Engine) render(ctx context.Context, cmd *Command, mc *MessageContext) (string, error) {
	r := &template.Renderer{
		Vars:          &guildVars{vars: e.vars, guildID: mc.GuildID},
		Resolve:       e.resolveFunc(cmd, mc),
		EvalCondition: func(condition string) bool { return e.gate.EvalCondition(condition, mc) },
		Binds:         builtinBindings(mc, e.now()),
		Args:          mc.Args(),
		LoopLimit:     e.loopLimit,
	}
	return r.Render(ctx, cmd.Template)
}

// resolveFunc adapts the integration resolver to the renderer contract:
// unknown names report false so the tag passes through, call errors collapse
// to empty text so a flaky upstream never breaks the whole response.
func (e *Engine) resolveFunc(cmd *Command, mc *MessageContext) func(context.Context, string, string) (string, bool) {
	if e.integrations == nil {
		return nil
	}
	return func(ctx context.Context, name, args string) (string, bool) {
		if !e.integrations.Known(name) {
			return "", false
		}
		callCtx, cancel := context.WithTimeout(ctx, e.integrationTimeout)
		defer cancel()

		out, err := e.integrations.Resolve(callCtx, name, args, mc)
		if err != nil {
			log.Printf("[WARN] Integration %s for command %s: %v", name, cmd.ID, err)
			return "", true
		}
		return out, true
	}
}

func (e *Engine) notifyCooldown(ctx context.Context, cmd *Command, mc *MessageContext, outcome CooldownOutcome) {
	if !cmd.Settings.NotifyOnCooldown {
		return
	}
	scope := "cooldown"
	if outcome.State == CooldownGlobal {
		scope = "global cooldown"
	}
	e.sendText(ctx, mc, mc.UserMention+" this command is on "+scope+" for another "+FormatRemaining(outcome.Remaining))
}

func (e *Engine) sendText(ctx context.Context, mc *MessageContext, content string) {
	err := e.dispatcher.transport.Dispatch(ctx, OutboundAction{
		Kind:      ActionMessage,
		ChannelID: mc.ChannelID,
		Content:   content,
	})
	if err != nil {
		log.Printf("[WARN] Sending notice to channel %s: %v", mc.ChannelID, err)
	}
}

func (e *Engine) recordUsage(cmd *Command, mc *MessageContext) {
	ev := UsageEvent{
		CommandID: cmd.ID,
		GuildID:   mc.GuildID,
		UserID:    mc.UserID,
		ChannelID: mc.ChannelID,
		Trigger:   cmd.Trigger,
		UsedAt:    e.now(),
	}
	if err := e.store.AppendUsageEvent(ev); err != nil {
		log.Printf("[WARN] Recording usage for command %s: %v", cmd.ID, err)
	}
}

// guildVars binds the shared variable store to one guild for the renderer.
type guildVars struct {
	vars    *VariableStore
	guildID string
}

func (g *guildVars) Get(name string) (string, bool) { return g.vars.Get(g.guildID, name) }
func (g *guildVars) Set(name, value string) error   { return g.vars.Set(g.guildID, name, value) }
func (g *guildVars) Incr(name string) (string, error) {
	return g.vars.Increment(g.guildID, name)
}
