// /internal/engine/gate.go
package engine

import (
	"log"
	"strings"
	"sync"
	"time"

	"astrobot/internal/engine/expr"
)

// ConditionGate decides whether a matched command may run for a message:
// channel allow/deny lists, role allow/deny lists, group permission, then the
// optional sandboxed custom condition. Evaluation short-circuits on the first
// failing check. Condition programs are parsed once and cached; a condition
// that fails to parse or evaluate is treated as false and never surfaced to
// chat.
type ConditionGate struct {
	groups GroupPermission
	vars   *VariableStore
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]*expr.Program // condition text -> program, nil = parse failed
}

func NewConditionGate(groups GroupPermission, vars *VariableStore) *ConditionGate {
	return &ConditionGate{
		groups: groups,
		vars:   vars,
		now:    time.Now,
		cache:  make(map[string]*expr.Program),
	}
}

// Allows reports whether the command passes every gate for this message.
func (g *ConditionGate) Allows(cmd *Command, mc *MessageContext) bool {
	s := &cmd.Settings

	if len(s.ChannelAllow) > 0 && !containsString(s.ChannelAllow, mc.ChannelID) {
		return false
	}
	if containsString(s.ChannelDeny, mc.ChannelID) {
		return false
	}

	if len(s.RoleAllow) > 0 && !intersects(s.RoleAllow, mc.UserRoles) {
		return false
	}
	if intersects(s.RoleDeny, mc.UserRoles) {
		return false
	}

	if cmd.GroupID != "" && g.groups != nil {
		if !g.groups.Allows(cmd.GroupID, mc) {
			return false
		}
	}

	if s.CustomCondition != "" {
		return g.evalCondition(s.CustomCondition, mc)
	}

	return true
}

// EvalCondition evaluates a condition string against a message, fail-closed.
// The template renderer uses this for if-blocks so conditions behave the same
// everywhere.
func (g *ConditionGate) EvalCondition(condition string, mc *MessageContext) bool {
	return g.evalCondition(condition, mc)
}

func (g *ConditionGate) evalCondition(condition string, mc *MessageContext) bool {
	prog, ok := g.cached(condition)
	if !ok {
		p, err := expr.Parse(condition)
		if err != nil {
			log.Printf("[WARN] Rejected custom condition %q: %v", condition, err)
			p = nil
		}
		g.mu.Lock()
		g.cache[condition] = p
		g.mu.Unlock()
		prog = p
	}
	if prog == nil {
		return false
	}

	result, err := prog.Eval(expr.Env{Lookup: g.lookupFunc(mc)})
	if err != nil {
		log.Printf("[WARN] Custom condition %q failed to evaluate: %v", condition, err)
		return false
	}
	return result
}

func (g *ConditionGate) cached(condition string) (*expr.Program, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.cache[condition]
	return p, ok
}

// lookupFunc exposes the fixed read-only namespace: message identity, UTC
// clock fields and var_<name> lookups into the variable store.
func (g *ConditionGate) lookupFunc(mc *MessageContext) func(string) (any, bool) {
	return func(name string) (any, bool) {
		switch name {
		case "user_id":
			return mc.UserID, true
		case "channel_id":
			return mc.ChannelID, true
		case "guild_id":
			return mc.GuildID, true
		case "day_of_week":
			return strings.ToLower(g.now().UTC().Weekday().String()), true
		case "hour":
			return g.now().UTC().Hour(), true
		case "minute":
			return g.now().UTC().Minute(), true
		}
		if varName, ok := strings.CutPrefix(name, "var_"); ok {
			value, exists := g.vars.Get(mc.GuildID, varName)
			if !exists {
				return "", true
			}
			return value, true
		}
		return nil, false
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
