// /internal/engine/template/render.go

// Package template renders the custom command mini-language: built-in tokens,
// variable directives (setvar/var/incr), named integration blocks,
// if/else/endif conditionals, bounded loops and random choice, all delimited
// by {{ and }}. Unrecognized tags pass through unchanged since they may be
// literal braces in user content.
package template

import (
	"context"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
)

// VarStore is the per-guild variable surface the renderer writes through.
// The engine binds the guild before handing it in.
type VarStore interface {
	Get(name string) (string, bool)
	Set(name, value string) error
	Incr(name string) (string, error)
}

// Renderer evaluates one template for one message. Construct a fresh value
// per render; it is cheap and keeps the message bindings immutable.
type Renderer struct {
	Vars VarStore

	// Resolve runs a named integration block. It reports false when the name
	// is unknown so the tag stays inert; errors and timeouts inside the call
	// must be mapped to empty text by the implementation.
	Resolve func(ctx context.Context, name, args string) (string, bool)

	// EvalCondition evaluates an if-block condition, fail-closed.
	EvalCondition func(condition string) bool

	// Binds maps built-in token names (user.mention, server, time, ...) to
	// their values for this message.
	Binds map[string]string

	// Args are the positional message arguments backing {{argN}}.
	Args []string

	// LoopLimit caps loop expansion regardless of the requested count.
	LoopLimit int

	// Intn is the random source for {{random ...}}; nil uses math/rand.
	Intn func(n int) int
}

var argTokenRe = regexp.MustCompile(`^arg(\d+)$`)

// Render evaluates the template into final output text. Malformed constructs
// degrade to empty or inert text individually; the only error surfaced is a
// failed variable persistence, which aborts the render as a whole.
func (r *Renderer) Render(ctx context.Context, template string) (string, error) {
	return r.eval(ctx, parse(template), nil)
}

func (r *Renderer) eval(ctx context.Context, nodes []node, locals map[string]string) (string, error) {
	var b strings.Builder
	for _, n := range nodes {
		switch t := n.(type) {
		case textNode:
			b.WriteString(string(t))

		case *ifNode:
			branch := t.els
			if r.EvalCondition != nil && r.EvalCondition(t.cond) {
				branch = t.then
			}
			out, err := r.eval(ctx, branch, locals)
			if err != nil {
				return "", err
			}
			b.WriteString(out)

		case *loopNode:
			count := t.count
			if limit := r.loopLimit(); count > limit {
				count = limit
			}
			for i := 0; i < count; i++ {
				iter := make(map[string]string, len(locals)+1)
				for k, v := range locals {
					iter[k] = v
				}
				iter["index"] = strconv.Itoa(i)
				out, err := r.eval(ctx, t.body, iter)
				if err != nil {
					return "", err
				}
				b.WriteString(out)
			}

		case tagNode:
			out, err := r.resolveTag(ctx, string(t), locals)
			if err != nil {
				return "", err
			}
			b.WriteString(out)
		}
	}
	return b.String(), nil
}

func (r *Renderer) resolveTag(ctx context.Context, content string, locals map[string]string) (string, error) {
	trimmed := strings.TrimSpace(content)

	if v, ok := locals[trimmed]; ok {
		return v, nil
	}
	if v, ok := r.Binds[trimmed]; ok {
		return v, nil
	}
	if m := argTokenRe.FindStringSubmatch(trimmed); m != nil {
		idx, _ := strconv.Atoi(m[1])
		if idx < len(r.Args) {
			return r.Args[idx], nil
		}
		return "", nil
	}

	name, rest, _ := strings.Cut(trimmed, " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "setvar":
		varName, value, ok := strings.Cut(rest, " ")
		if !ok || varName == "" {
			return "", nil // malformed directive, drop it
		}
		if err := r.Vars.Set(varName, r.substituteTokens(value, locals)); err != nil {
			return "", err
		}
		return "", nil

	case "var":
		if rest == "" {
			return "", nil
		}
		value, _ := r.Vars.Get(rest)
		return value, nil

	case "incr":
		if rest == "" {
			return "", nil
		}
		return r.Vars.Incr(rest)

	case "random":
		options := strings.Split(rest, "|")
		if len(options) == 0 {
			return "", nil
		}
		choice := options[r.intn(len(options))]
		return r.substituteTokens(choice, locals), nil
	}

	if r.Resolve != nil {
		if out, known := r.Resolve(ctx, name, r.substituteTokens(rest, locals)); known {
			return out, nil
		}
	}

	// Unrecognized tag: pass through unchanged.
	return "{{" + content + "}}", nil
}

// substituteTokens applies built-in token substitution to argument text of a
// directive (setvar values, random options, integration arguments). Only
// bindings and argN expand here; block syntax stays literal.
func (r *Renderer) substituteTokens(s string, locals map[string]string) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	var b strings.Builder
	for len(s) > 0 {
		open := strings.Index(s, "{{")
		if open < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:open])
		s = s[open:]
		end := matchTag(s)
		if end < 0 {
			b.WriteString(s)
			break
		}
		inner := strings.TrimSpace(s[2 : end-2])
		if v, ok := locals[inner]; ok {
			b.WriteString(v)
		} else if v, ok := r.Binds[inner]; ok {
			b.WriteString(v)
		} else if m := argTokenRe.FindStringSubmatch(inner); m != nil {
			if idx, _ := strconv.Atoi(m[1]); idx < len(r.Args) {
				b.WriteString(r.Args[idx])
			}
		} else {
			b.WriteString(s[:end])
		}
		s = s[end:]
	}
	return b.String()
}

func (r *Renderer) loopLimit() int {
	if r.LoopLimit > 0 {
		return r.LoopLimit
	}
	return 20
}

func (r *Renderer) intn(n int) int {
	if n <= 1 {
		return 0
	}
	if r.Intn != nil {
		return r.Intn(n)
	}
	return rand.Intn(n)
}
