// Package agent is the boundary to the reasoning component. Mull treats it
// as a black box that takes a prompt and returns text plus optional
// structured interrupt requests.
package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Interrupt is a structured request from the agent that the front-end
// should handle before continuing (for example confirming a send).
type Interrupt struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Reply is the agent's answer to one prompt.
type Reply struct {
	Text       string      `json:"text"`
	Interrupts []Interrupt `json:"interrupts,omitempty"`
}

// Agent answers prompts.
type Agent interface {
	Respond(ctx context.Context, prompt string) (Reply, error)
}

// Func adapts a function to the Agent interface.
type Func func(ctx context.Context, prompt string) (Reply, error)

// Respond calls f.
func (f Func) Respond(ctx context.Context, prompt string) (Reply, error) {
	return f(ctx, prompt)
}

// ParseReply interprets agent output. A JSON object supplies "text" and
// "interrupts"; anything else is the reply text verbatim (trimmed).
func ParseReply(out string) Reply {
	trimmed := strings.TrimSpace(out)
	if !strings.HasPrefix(trimmed, "{") || !gjson.Valid(trimmed) {
		return Reply{Text: trimmed}
	}

	doc := gjson.Parse(trimmed)
	reply := Reply{Text: doc.Get("text").String()}
	doc.Get("interrupts").ForEach(func(_, v gjson.Result) bool {
		kind := v.Get("kind").String()
		if kind == "" {
			kind = v.Get("type").String()
		}
		if kind == "" {
			return true
		}
		in := Interrupt{Kind: kind}
		if p := v.Get("payload"); p.Exists() {
			in.Payload = json.RawMessage(p.Raw)
		}
		reply.Interrupts = append(reply.Interrupts, in)
		return true
	})
	return reply
}
