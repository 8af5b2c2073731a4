package ops

import (
	"strings"

	"github.com/hpungsan/mull/internal/digest"
	"github.com/hpungsan/mull/internal/errors"
)

// ContextOutput describes the current context block and the state
// behind it.
type ContextOutput struct {
	Context        string   `json:"context"`
	Chars          int      `json:"chars"`
	TokensEstimate int      `json:"tokens_estimate"`
	ActiveIDs      []string `json:"active_ids"`
	CachedCount    int      `json:"cached_count"`
	HistoryTurns   int      `json:"history_turns"`
	SessionID      string   `json:"session_id"`
}

// Context renders the context block.
func Context(deps *Deps) *ContextOutput {
	block := deps.Store.RenderContext()
	return &ContextOutput{
		Context:        block,
		Chars:          digest.CountChars(block),
		TokensEstimate: digest.EstimateTokens(block),
		ActiveIDs:      deps.Store.ActiveIDs(),
		CachedCount:    deps.Store.CacheLen(),
		HistoryTurns:   len(deps.Store.History()),
		SessionID:      deps.Store.ID(),
	}
}

// ActiveInput contains the ids for SetActive and AddActive.
type ActiveInput struct {
	IDs []string
}

// ActiveOutput reports the active set after a change. Missing lists ids
// that are not cached; they stay in the set but are skipped when
// rendering.
type ActiveOutput struct {
	ActiveIDs []string `json:"active_ids"`
	Missing   []string `json:"missing,omitempty"`
}

// SetActive replaces the active set.
func SetActive(deps *Deps, input ActiveInput) (*ActiveOutput, error) {
	ids, err := normalizeIDs(input.IDs)
	if err != nil {
		return nil, err
	}
	deps.Store.SetActive(ids)
	return activeOutput(deps, ids), nil
}

// AddActive appends ids to the active set, skipping ones already present.
func AddActive(deps *Deps, input ActiveInput) (*ActiveOutput, error) {
	ids, err := normalizeIDs(input.IDs)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errors.NewInvalidRequest("ids is required")
	}
	deps.Store.AddActive(ids)
	return activeOutput(deps, ids), nil
}

func activeOutput(deps *Deps, requested []string) *ActiveOutput {
	out := &ActiveOutput{ActiveIDs: deps.Store.ActiveIDs()}
	for _, id := range requested {
		if _, ok := deps.Store.CachedDigest(id); !ok {
			out.Missing = append(out.Missing, id)
		}
	}
	return out
}

// RecordInput is one user/agent exchange.
type RecordInput struct {
	User  string
	Agent string
}

// RecordOutput reports the history size after recording.
type RecordOutput struct {
	HistoryTurns int `json:"history_turns"`
}

// Record appends an exchange produced outside Ask.
func Record(deps *Deps, input RecordInput) (*RecordOutput, error) {
	if strings.TrimSpace(input.User) == "" {
		return nil, errors.NewInvalidRequest("user is required")
	}
	deps.Store.RecordExchange(input.User, input.Agent)
	return &RecordOutput{HistoryTurns: len(deps.Store.History())}, nil
}

// ClearOutput contains the result of the Clear operation.
type ClearOutput struct {
	Cleared   bool   `json:"cleared"`
	SessionID string `json:"session_id"`
}

// Clear drops all cached digests, the active set and the history.
func Clear(deps *Deps) *ClearOutput {
	deps.Store.Clear()
	return &ClearOutput{Cleared: true, SessionID: deps.Store.ID()}
}
