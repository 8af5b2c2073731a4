package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/mull/internal/db"
	"github.com/hpungsan/mull/internal/digest"
	"github.com/hpungsan/mull/internal/errors"
)

func TestList_CachesAndActivates(t *testing.T) {
	deps, _ := newTestDeps(t, false)

	out, err := List(context.Background(), deps, ListInput{})
	require.NoError(t, err)
	require.Equal(t, 3, out.Count)

	assert.Equal(t, "inv", out.Items[0].ID)
	assert.Equal(t, digest.CategoryTransactional, out.Items[0].Type)
	assert.Equal(t, fixedNow(), out.Items[0].CachedAt)

	assert.Equal(t, []string{"inv", "mtg", "hi"}, deps.Store.ActiveIDs())
	assert.Equal(t, 3, deps.Store.CacheLen())
}

func TestList_ReplacesActiveSet(t *testing.T) {
	deps, _ := newTestDeps(t, false)
	deps.Store.SetActive([]string{"older"})

	_, err := List(context.Background(), deps, ListInput{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"inv"}, deps.Store.ActiveIDs())
}

func TestList_NoMailbox(t *testing.T) {
	deps, _ := newTestDeps(t, false)
	deps.Mailbox = nil

	_, err := List(context.Background(), deps, ListInput{})
	assert.True(t, errors.Is(err, errors.ErrNotConfigured))
}

func TestList_ProviderError(t *testing.T) {
	deps, mb := newTestDeps(t, false)
	mb.failWith = errors.NewMailboxUnavailable("list", assert.AnError)

	_, err := List(context.Background(), deps, ListInput{})
	assert.True(t, errors.Is(err, errors.ErrMailboxUnavailable))
	assert.Empty(t, deps.Store.ActiveIDs())
}

func TestRead_FetchesAndRecords(t *testing.T) {
	deps, mb := newTestDeps(t, true)
	ctx := context.Background()

	d, err := Read(ctx, deps, ReadInput{ID: "mtg"})
	require.NoError(t, err)
	assert.Equal(t, "Planning meeting", d.Subject)
	assert.Equal(t, digest.CategoryEvent, d.Type)
	assert.Equal(t, []string{"mtg"}, deps.Store.ActiveIDs())
	assert.Equal(t, 1, mb.fetches)

	row, err := db.GetTriage(ctx, deps.DB, "mtg")
	require.NoError(t, err)
	assert.Equal(t, digest.CategoryEvent, row.Category)
	assert.Equal(t, deps.Store.ID(), row.SessionID)
	assert.Equal(t, fixedNow().Unix(), row.LastSeenAt)
}

func TestRead_UseCache(t *testing.T) {
	deps, mb := newTestDeps(t, false)
	ctx := context.Background()

	_, err := List(ctx, deps, ListInput{})
	require.NoError(t, err)
	deps.Store.SetActive(nil)

	d, err := Read(ctx, deps, ReadInput{ID: "hi", UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, "Hello", d.Subject)
	assert.Equal(t, 0, mb.fetches)
	assert.Equal(t, []string{"hi"}, deps.Store.ActiveIDs())

	// Without UseCache the message is fetched again.
	_, err = Read(ctx, deps, ReadInput{ID: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, mb.fetches)
}

func TestRead_Errors(t *testing.T) {
	deps, _ := newTestDeps(t, false)
	ctx := context.Background()

	_, err := Read(ctx, deps, ReadInput{ID: "  "})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Read(ctx, deps, ReadInput{ID: "nope"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Empty(t, deps.Store.ActiveIDs())
}

func TestLabel(t *testing.T) {
	deps, mb := newTestDeps(t, false)
	ctx := context.Background()

	out, err := Label(ctx, deps, LabelInput{ID: "inv", Add: []string{" finance ", "finance", ""}})
	require.NoError(t, err)
	assert.Equal(t, []string{"finance"}, out.Added)
	assert.Equal(t, []string{"finance"}, mb.labels["inv"])

	_, err = Label(ctx, deps, LabelInput{ID: "inv"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestArchive(t *testing.T) {
	deps, mb := newTestDeps(t, false)
	ctx := context.Background()

	out, err := Archive(ctx, deps, ArchiveInput{ID: "hi"})
	require.NoError(t, err)
	assert.True(t, out.Archived)
	assert.True(t, mb.archived["hi"])

	_, err = Archive(ctx, deps, ArchiveInput{ID: "hi"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSend(t *testing.T) {
	deps, mb := newTestDeps(t, false)
	ctx := context.Background()

	out, err := Send(ctx, deps, SendInput{
		To:      []string{"a@example.com"},
		Subject: "Re: Invoice #42",
		Body:    "Paid, thanks.",
	})
	require.NoError(t, err)
	assert.Equal(t, "sent-1", out.MessageID)
	require.Len(t, mb.sent, 1)
	assert.Equal(t, []string{"a@example.com"}, mb.sent[0].To)

	tests := []SendInput{
		{Subject: "no recipient"},
		{To: []string{"a@example.com"}},
	}
	for _, in := range tests {
		_, err := Send(ctx, deps, in)
		assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "Send(%+v)", in)
	}
}
