package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/mull/internal/digest"
	"github.com/hpungsan/mull/internal/errors"
)

func TestStats(t *testing.T) {
	deps, _ := newTestDeps(t, true)
	ctx := context.Background()

	out, err := Stats(ctx, deps, StatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Total)
	assert.Empty(t, out.Categories)
	assert.NotNil(t, out.Recent)

	for _, id := range []string{"inv", "mtg", "inv"} {
		_, err := Read(ctx, deps, ReadInput{ID: id})
		require.NoError(t, err)
	}

	out, err = Stats(ctx, deps, StatsInput{Recent: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)
	require.Len(t, out.Categories, 2)
	assert.Equal(t, digest.CategoryTransactional, out.Categories[0].Category)
	assert.Equal(t, digest.CategoryEvent, out.Categories[1].Category)
	require.Len(t, out.Recent, 1)
}

func TestStats_NoLedger(t *testing.T) {
	deps, _ := newTestDeps(t, false)

	_, err := Stats(context.Background(), deps, StatsInput{})
	assert.True(t, errors.Is(err, errors.ErrNotConfigured))
}
