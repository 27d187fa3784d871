// /internal/engine/template/parse.go
package template

import (
	"strconv"
	"strings"
)

// The template text is tokenized exactly once into a block tree; evaluation
// walks the tree. Rendered output is never re-scanned for block syntax, so a
// variable value containing {{...}} stays inert instead of being interpreted
// a second time.

type node interface{}

// textNode is literal template text between tags.
type textNode string

// tagNode is the inner content of one {{...}} tag (built-in token, variable
// directive, integration block, random block or unrecognized text).
type tagNode string

type ifNode struct {
	cond string
	then []node
	els  []node
}

type loopNode struct {
	count int
	body  []node
}

type segment struct {
	text  string
	isTag bool
}

// tokenize splits the template into literal text and {{...}} tags. Tags are
// matched with brace counting so a tag may carry nested {{...}} tokens in its
// argument text (e.g. {{setvar greet Hello {{user.name}}}}). A {{ without a
// closing }} is literal text.
func tokenize(s string) []segment {
	var segs []segment
	for len(s) > 0 {
		open := strings.Index(s, "{{")
		if open < 0 {
			segs = append(segs, segment{text: s})
			break
		}
		if open > 0 {
			segs = append(segs, segment{text: s[:open]})
		}
		s = s[open:]

		end := matchTag(s)
		if end < 0 {
			segs = append(segs, segment{text: s})
			break
		}
		segs = append(segs, segment{text: s[2 : end-2], isTag: true})
		s = s[end:]
	}
	return segs
}

// matchTag returns the index just past the }} closing the tag that starts at
// the beginning of s, or -1 when unterminated.
func matchTag(s string) int {
	depth := 0
	for i := 0; i+1 < len(s); i++ {
		switch {
		case s[i] == '{' && s[i+1] == '{':
			depth++
			i++
		case s[i] == '}' && s[i+1] == '}':
			depth--
			i++
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

type frame struct {
	kind   string // "root", "if" or "loop"
	cond   string
	count  int
	nodes  []node
	els    []node
	inElse bool
}

func (f *frame) append(n node) {
	if f.kind == "if" && f.inElse {
		f.els = append(f.els, n)
		return
	}
	f.nodes = append(f.nodes, n)
}

// parse builds the block tree, matching if/endif and loop/endloop with a
// stack. Unclosed blocks are dropped silently along with their bodies; stray
// else/endif/endloop tags pass through as inert text.
func parse(template string) []node {
	stack := []*frame{{kind: "root"}}
	top := func() *frame { return stack[len(stack)-1] }

	for _, seg := range tokenize(template) {
		if !seg.isTag {
			if seg.text != "" {
				top().append(textNode(seg.text))
			}
			continue
		}

		content := seg.text
		trimmed := strings.TrimSpace(content)
		switch {
		case strings.HasPrefix(trimmed, "if "):
			stack = append(stack, &frame{kind: "if", cond: strings.TrimSpace(trimmed[3:])})

		case trimmed == "else":
			if f := top(); f.kind == "if" && !f.inElse {
				f.inElse = true
			} else {
				top().append(tagNode(content))
			}

		case trimmed == "endif":
			if f := top(); f.kind == "if" {
				stack = stack[:len(stack)-1]
				top().append(&ifNode{cond: f.cond, then: f.nodes, els: f.els})
			} else {
				top().append(tagNode(content))
			}

		case loopCount(trimmed) >= 0:
			stack = append(stack, &frame{kind: "loop", count: loopCount(trimmed)})

		case trimmed == "endloop":
			if f := top(); f.kind == "loop" {
				stack = stack[:len(stack)-1]
				top().append(&loopNode{count: f.count, body: f.nodes})
			} else {
				top().append(tagNode(content))
			}

		default:
			top().append(tagNode(content))
		}
	}

	// Anything still open is malformed; drop it, keeping only the root.
	return stack[0].nodes
}

// loopCount parses "loop N", returning -1 when the tag is not a loop opener.
func loopCount(tag string) int {
	rest, ok := strings.CutPrefix(tag, "loop ")
	if !ok {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || n < 0 {
		return -1
	}
	return n
}
