package ops

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"

	"github.com/hpungsan/mull/internal/agent"
	"github.com/hpungsan/mull/internal/digest"
	"github.com/hpungsan/mull/internal/errors"
	"github.com/hpungsan/mull/internal/session"
)

// AskInput contains parameters for the Ask operation.
type AskInput struct {
	Query string
}

// AskOutput contains the agent's reply and the size of the context it saw.
type AskOutput struct {
	Reply                 string            `json:"reply"`
	Interrupts            []agent.Interrupt `json:"interrupts,omitempty"`
	ContextChars          int               `json:"context_chars"`
	ContextTokensEstimate int               `json:"context_tokens_estimate"`
}

// Ask prepends the current context block to the query, asks the agent and
// records the exchange. A failed agent call records nothing.
func Ask(ctx context.Context, deps *Deps, input AskInput) (*AskOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	if digest.CountChars(query) > MaxQueryChars {
		return nil, errors.NewInvalidRequest("query too long (max 8000 chars)")
	}
	if deps.Agent == nil {
		return nil, errors.NewNotConfigured("agent")
	}

	block := deps.Store.RenderContext()
	prompt := session.WrapPrompt(block, query)

	reply, err := deps.Agent.Respond(ctx, prompt)
	if err != nil {
		var mErr *errors.MullError
		if stderrors.As(err, &mErr) {
			return nil, err
		}
		return nil, errors.NewAgentFailed(err)
	}

	deps.Store.RecordExchange(query, reply.Text)
	slog.Debug("agent replied",
		"context_chars", digest.CountChars(block),
		"interrupts", len(reply.Interrupts),
	)

	return &AskOutput{
		Reply:                 reply.Text,
		Interrupts:            reply.Interrupts,
		ContextChars:          digest.CountChars(block),
		ContextTokensEstimate: digest.EstimateTokens(block),
	}, nil
}
