package ops

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/mull/internal/errors"
)

func TestContext_Empty(t *testing.T) {
	deps, _ := newTestDeps(t, false)

	out := Context(deps)
	assert.Equal(t, "", out.Context)
	assert.Equal(t, 0, out.Chars)
	assert.Equal(t, 0, out.TokensEstimate)
	assert.Empty(t, out.ActiveIDs)
	assert.Equal(t, deps.Store.ID(), out.SessionID)
}

func TestContext_AfterList(t *testing.T) {
	deps, _ := newTestDeps(t, false)
	_, err := List(context.Background(), deps, ListInput{})
	require.NoError(t, err)

	out := Context(deps)
	assert.True(t, strings.HasPrefix(out.Context, "CURRENTLY DISCUSSED EMAILS:\n1. billing@acme.com | Invoice #42 | transactional"))
	assert.Equal(t, len([]rune(out.Context)), out.Chars)
	assert.Equal(t, 3, out.CachedCount)
}

func TestSetActive_ReportsMissing(t *testing.T) {
	deps, _ := newTestDeps(t, false)
	_, err := List(context.Background(), deps, ListInput{})
	require.NoError(t, err)

	out, err := SetActive(deps, ActiveInput{IDs: []string{"mtg", " ", "ghost"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"mtg", "ghost"}, out.ActiveIDs)
	assert.Equal(t, []string{"ghost"}, out.Missing)

	// Missing ids are skipped when rendering.
	block := Context(deps).Context
	assert.Contains(t, block, "Planning meeting")
	assert.NotContains(t, block, "ghost")

	out, err = SetActive(deps, ActiveInput{})
	require.NoError(t, err)
	assert.Empty(t, out.ActiveIDs)
}

func TestAddActive(t *testing.T) {
	deps, _ := newTestDeps(t, false)
	deps.Store.SetActive([]string{"a"})

	out, err := AddActive(deps, ActiveInput{IDs: []string{"b", "a"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.ActiveIDs)

	_, err = AddActive(deps, ActiveInput{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	tooMany := make([]string, MaxIDsPerCall+1)
	for i := range tooMany {
		tooMany[i] = "x"
	}
	_, err = AddActive(deps, ActiveInput{IDs: tooMany})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestRecordAndClear(t *testing.T) {
	deps, _ := newTestDeps(t, false)

	out, err := Record(deps, RecordInput{User: "what's new?", Agent: "Three emails."})
	require.NoError(t, err)
	assert.Equal(t, 2, out.HistoryTurns)

	_, err = Record(deps, RecordInput{Agent: "orphan"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	block := Context(deps).Context
	assert.Equal(t, "\nRECENT CONVERSATION:\nuser: what's new?\nagent: Three emails.", block)

	cleared := Clear(deps)
	assert.True(t, cleared.Cleared)
	assert.Equal(t, "", Context(deps).Context)
}
