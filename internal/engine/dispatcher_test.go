package engine

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func dispatch(t *testing.T, transport *fakeTransport, c *Command, rendered string) {
	t.Helper()
	d := NewResponseDispatcher(transport)
	if err := d.Dispatch(context.Background(), c, testMessage("g1", "u1", "!x"), rendered); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
}

func TestDispatchText(t *testing.T) {
	transport := &fakeTransport{}
	dispatch(t, transport, &Command{ID: "c1", ResponseType: ResponseText}, "hello")

	sent := transport.sent()
	if len(sent) != 1 || sent[0].Kind != ActionMessage || sent[0].Content != "hello" {
		t.Errorf("actions = %+v", sent)
	}
}

func TestDispatchDefaultsToText(t *testing.T) {
	transport := &fakeTransport{}
	dispatch(t, transport, &Command{ID: "c1"}, "hello")

	sent := transport.sent()
	if len(sent) != 1 || sent[0].Kind != ActionMessage {
		t.Errorf("actions = %+v", sent)
	}
}

func TestDispatchEmbed(t *testing.T) {
	transport := &fakeTransport{}
	rendered := `{"title":"Hi","description":"There","color":"#ff0000","fields":[{"name":"a","value":"b","inline":true}]}`
	dispatch(t, transport, &Command{ID: "c1", ResponseType: ResponseEmbed}, rendered)

	sent := transport.sent()
	if len(sent) != 1 || sent[0].Embed == nil {
		t.Fatalf("actions = %+v", sent)
	}
	e := sent[0].Embed
	if e.Title != "Hi" || int(e.Color) != 0xff0000 || len(e.Fields) != 1 {
		t.Errorf("embed = %+v", e)
	}
}

func TestDispatchEmbedParseFailure(t *testing.T) {
	// Hidden by default.
	transport := &fakeTransport{}
	dispatch(t, transport, &Command{ID: "c1", ResponseType: ResponseEmbed}, "not json")
	if len(transport.sent()) != 0 {
		t.Errorf("parse failure dispatched without show_errors")
	}

	// Visible when the command opts in.
	transport = &fakeTransport{}
	c := &Command{ID: "c1", ResponseType: ResponseEmbed, Settings: CommandSettings{ShowErrors: true}}
	dispatch(t, transport, c, "not json")
	sent := transport.sent()
	if len(sent) != 1 || !strings.Contains(sent[0].Content, "Error") {
		t.Errorf("actions = %+v", sent)
	}
}

func TestDispatchReaction(t *testing.T) {
	transport := &fakeTransport{}
	dispatch(t, transport, &Command{ID: "c1", ResponseType: ResponseReaction}, "👍 🎉")

	sent := transport.sent()
	if len(sent) != 1 || sent[0].Kind != ActionReaction {
		t.Fatalf("actions = %+v", sent)
	}
	if len(sent[0].Reactions) != 2 || sent[0].MessageID != "msg-1" {
		t.Errorf("reaction action = %+v", sent[0])
	}
}

func TestDispatchDM(t *testing.T) {
	transport := &fakeTransport{}
	dispatch(t, transport, &Command{ID: "c1", ResponseType: ResponseDM}, "psst")

	sent := transport.sent()
	if len(sent) != 2 {
		t.Fatalf("actions = %+v", sent)
	}
	if sent[0].Kind != ActionDM || sent[0].UserID != "u1" {
		t.Errorf("DM action = %+v", sent[0])
	}
	if sent[1].Kind != ActionReaction || sent[1].Reactions[0] != "✅" {
		t.Errorf("ack = %+v", sent[1])
	}
}

func TestDispatchDMFailureAcksWithCross(t *testing.T) {
	transport := &fakeTransport{failDM: true}
	dispatch(t, transport, &Command{ID: "c1", ResponseType: ResponseDM}, "psst")

	sent := transport.sent()
	if len(sent) != 1 || sent[0].Kind != ActionReaction || sent[0].Reactions[0] != "❌" {
		t.Errorf("actions = %+v", sent)
	}
}

func TestDispatchFile(t *testing.T) {
	transport := &fakeTransport{}
	dispatch(t, transport, &Command{ID: "c1", ResponseType: ResponseFile}, "file body")

	sent := transport.sent()
	if len(sent) != 1 || sent[0].Kind != ActionFile {
		t.Fatalf("actions = %+v", sent)
	}
	if sent[0].FileName != "file.txt" || string(sent[0].FileData) != "file body" {
		t.Errorf("file action = %+v", sent[0])
	}

	transport = &fakeTransport{}
	c := &Command{ID: "c1", ResponseType: ResponseFile, Settings: CommandSettings{Filename: "notes.md"}}
	dispatch(t, transport, c, "x")
	if transport.sent()[0].FileName != "notes.md" {
		t.Errorf("custom filename ignored")
	}
}

func TestDispatchComplex(t *testing.T) {
	transport := &fakeTransport{}
	rendered := `{"content":"look","embed":{"title":"Both"}}`
	dispatch(t, transport, &Command{ID: "c1", ResponseType: ResponseComplex}, rendered)

	sent := transport.sent()
	if len(sent) != 1 {
		t.Fatalf("actions = %+v", sent)
	}
	if sent[0].Content != "look" || sent[0].Embed == nil || sent[0].Embed.Title != "Both" {
		t.Errorf("complex action = %+v", sent[0])
	}
}

func TestDispatchTypeOverride(t *testing.T) {
	transport := &fakeTransport{}
	dispatch(t, transport, &Command{ID: "c1", ResponseType: ResponseText}, "{{reaction}} 🔥")

	sent := transport.sent()
	if len(sent) != 1 || sent[0].Kind != ActionReaction {
		t.Fatalf("override ignored: %+v", sent)
	}
	if sent[0].Reactions[0] != "🔥" {
		t.Errorf("override kept the type token: %+v", sent[0])
	}

	// A non-type leading tag is plain content.
	transport = &fakeTransport{}
	dispatch(t, transport, &Command{ID: "c1", ResponseType: ResponseText}, "{{shrug}} whatever")
	sent = transport.sent()
	if len(sent) != 1 || sent[0].Kind != ActionMessage || !strings.HasPrefix(sent[0].Content, "{{shrug}}") {
		t.Errorf("non-type tag mangled: %+v", sent)
	}
}

func TestEmbedColorForms(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{`{"color":255}`, 255},
		{`{"color":"#00ff00"}`, 0x00ff00},
		{`{"color":"0000ff"}`, 0x0000ff},
	}
	for _, tc := range cases {
		var doc EmbedDoc
		if err := json.Unmarshal([]byte(tc.in), &doc); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		if int(doc.Color) != tc.want {
			t.Errorf("color from %s = %d, want %d", tc.in, doc.Color, tc.want)
		}
	}

	var doc EmbedDoc
	if err := json.Unmarshal([]byte(`{"color":"#zzz"}`), &doc); err == nil {
		t.Error("bad hex color accepted")
	}
}
