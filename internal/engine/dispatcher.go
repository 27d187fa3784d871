// /internal/engine/dispatcher.go
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
)

// ActionKind is the concrete outbound operation a rendered command turns into.
type ActionKind string

const (
	ActionMessage  ActionKind = "message"
	ActionReaction ActionKind = "reaction"
	ActionDM       ActionKind = "dm"
	ActionFile     ActionKind = "file"
)

// OutboundAction describes one outbound call for the transport to perform.
// Exactly the fields relevant to Kind are set.
type OutboundAction struct {
	Kind      ActionKind
	ChannelID string
	MessageID string // reaction target
	UserID    string // DM recipient

	Content   string
	Embed     *EmbedDoc
	Reactions []string
	FileName  string
	FileData  []byte
}

// Transport delivers outbound actions to the chat service.
type Transport interface {
	Dispatch(ctx context.Context, action OutboundAction) error
}

// EmbedDoc is the structured document an embed response template must render
// to (as JSON). Field names mirror what guild admins author in the dashboard.
type EmbedDoc struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       EmbedColor   `json:"color,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Thumbnail   *EmbedMedia  `json:"thumbnail,omitempty"`
	Image       *EmbedMedia  `json:"image,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

type EmbedAuthor struct {
	Name    string `json:"name,omitempty"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type EmbedFooter struct {
	Text    string `json:"text,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type EmbedMedia struct {
	URL string `json:"url,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedColor accepts either a JSON number or a "#rrggbb" string.
type EmbedColor int

func (c *EmbedColor) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*c = EmbedColor(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("embed color must be a number or hex string")
	}
	s = strings.TrimPrefix(s, "#")
	v, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return fmt.Errorf("bad embed color %q", s)
	}
	*c = EmbedColor(v)
	return nil
}

type complexDoc struct {
	Content string    `json:"content"`
	Embed   *EmbedDoc `json:"embed,omitempty"`
}

// ResponseDispatcher maps rendered content plus the command's declared
// response type onto outbound actions. Parse failures fall back to a plain
// text error (shown only when the command opts in) instead of propagating.
type ResponseDispatcher struct {
	transport Transport
}

func NewResponseDispatcher(transport Transport) *ResponseDispatcher {
	return &ResponseDispatcher{transport: transport}
}

var typeOverrideRe = regexp.MustCompile(`^\{\{([a-z_]+)\}\}\s*`)

// Dispatch sends the rendered command output. A rendered body starting with
// a {{text}}/{{embed}}/{{reaction}}/{{dm}}/{{file}}/{{complex}} token
// overrides the stored response type.
func (d *ResponseDispatcher) Dispatch(ctx context.Context, cmd *Command, mc *MessageContext, rendered string) error {
	responseType := cmd.ResponseType
	if responseType == "" {
		responseType = ResponseText
	}
	if m := typeOverrideRe.FindStringSubmatch(rendered); m != nil {
		if override, ok := parseResponseType(m[1]); ok {
			responseType = override
			rendered = rendered[len(m[0]):]
		}
	}

	switch responseType {
	case ResponseText:
		return d.sendOrAck(ctx, mc, OutboundAction{
			Kind:      ActionMessage,
			ChannelID: mc.ChannelID,
			Content:   rendered,
		})

	case ResponseEmbed:
		var doc EmbedDoc
		if err := json.Unmarshal([]byte(rendered), &doc); err != nil {
			return d.parseFallback(ctx, cmd, mc, fmt.Errorf("parsing embed: %w", err))
		}
		return d.sendOrAck(ctx, mc, OutboundAction{
			Kind:      ActionMessage,
			ChannelID: mc.ChannelID,
			Embed:     &doc,
		})

	case ResponseReaction:
		return d.transport.Dispatch(ctx, OutboundAction{
			Kind:      ActionReaction,
			ChannelID: mc.ChannelID,
			MessageID: mc.MessageID,
			Reactions: strings.Fields(rendered),
		})

	case ResponseDM:
		err := d.transport.Dispatch(ctx, OutboundAction{
			Kind:    ActionDM,
			UserID:  mc.UserID,
			Content: rendered,
		})
		// Acknowledge on the triggering message either way; a failed DM must
		// not spill the content into the channel.
		ack := "✅"
		if err != nil {
			log.Printf("[WARN] DM dispatch for command %s failed: %v", cmd.ID, err)
			ack = "❌"
		}
		d.react(ctx, mc, ack)
		return nil

	case ResponseFile:
		name := cmd.Settings.Filename
		if name == "" {
			name = "file.txt"
		}
		return d.sendOrAck(ctx, mc, OutboundAction{
			Kind:      ActionFile,
			ChannelID: mc.ChannelID,
			FileName:  name,
			FileData:  []byte(rendered),
		})

	case ResponseComplex:
		var doc complexDoc
		if err := json.Unmarshal([]byte(rendered), &doc); err != nil {
			return d.parseFallback(ctx, cmd, mc, fmt.Errorf("parsing complex response: %w", err))
		}
		// Content and embed go out as a single action.
		return d.sendOrAck(ctx, mc, OutboundAction{
			Kind:      ActionMessage,
			ChannelID: mc.ChannelID,
			Content:   doc.Content,
			Embed:     doc.Embed,
		})
	}

	return fmt.Errorf("unknown response type %q", responseType)
}

// sendOrAck dispatches the primary action; when the transport fails it tries
// a minimal failure acknowledgment before reporting the error.
func (d *ResponseDispatcher) sendOrAck(ctx context.Context, mc *MessageContext, action OutboundAction) error {
	err := d.transport.Dispatch(ctx, action)
	if err != nil {
		d.react(ctx, mc, "❌")
	}
	return err
}

// parseFallback handles a malformed structured response: logged always,
// surfaced to chat only when the command opts into showing errors.
func (d *ResponseDispatcher) parseFallback(ctx context.Context, cmd *Command, mc *MessageContext, cause error) error {
	log.Printf("[WARN] Command %s: %v", cmd.ID, cause)
	if !cmd.Settings.ShowErrors {
		return nil
	}
	return d.transport.Dispatch(ctx, OutboundAction{
		Kind:      ActionMessage,
		ChannelID: mc.ChannelID,
		Content:   "Error " + cause.Error(),
	})
}

func (d *ResponseDispatcher) react(ctx context.Context, mc *MessageContext, emoji string) {
	err := d.transport.Dispatch(ctx, OutboundAction{
		Kind:      ActionReaction,
		ChannelID: mc.ChannelID,
		MessageID: mc.MessageID,
		Reactions: []string{emoji},
	})
	if err != nil {
		log.Printf("[WARN] Fallback reaction failed: %v", err)
	}
}

func parseResponseType(s string) (ResponseType, bool) {
	switch ResponseType(s) {
	case ResponseText, ResponseEmbed, ResponseReaction, ResponseDM, ResponseFile, ResponseComplex:
		return ResponseType(s), true
	}
	return "", false
}
