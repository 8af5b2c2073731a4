package ops

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/mull/internal/db"
	"github.com/hpungsan/mull/internal/digest"
	"github.com/hpungsan/mull/internal/errors"
	"github.com/hpungsan/mull/internal/mailbox"
	"github.com/hpungsan/mull/internal/session"
)

// fakeMailbox is an in-memory mailbox.Provider.
type fakeMailbox struct {
	mu       sync.Mutex
	msgs     map[string]digest.RawMessage
	order    []string
	labels   map[string][]string
	archived map[string]bool
	sent     []mailbox.Outgoing
	fetches  int
	failWith error
}

func newFakeMailbox(msgs ...digest.RawMessage) *fakeMailbox {
	f := &fakeMailbox{
		msgs:     map[string]digest.RawMessage{},
		labels:   map[string][]string{},
		archived: map[string]bool{},
	}
	for _, m := range msgs {
		f.msgs[m.ID] = m
		f.order = append(f.order, m.ID)
	}
	return f
}

func (f *fakeMailbox) List(_ context.Context, opts mailbox.ListOptions) ([]digest.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []digest.RawMessage
	for _, id := range f.order {
		if f.archived[id] {
			continue
		}
		out = append(out, f.msgs[id])
		if len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeMailbox) Fetch(_ context.Context, id string) (digest.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.failWith != nil {
		return digest.RawMessage{}, f.failWith
	}
	m, ok := f.msgs[id]
	if !ok {
		return digest.RawMessage{}, errors.NewNotFound(id)
	}
	return m, nil
}

func (f *fakeMailbox) Send(_ context.Context, out mailbox.Outgoing) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, out)
	return fmt.Sprintf("sent-%d", len(f.sent)), nil
}

func (f *fakeMailbox) Label(_ context.Context, id string, add, _ []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.msgs[id]; !ok {
		return errors.NewNotFound(id)
	}
	f.labels[id] = append(f.labels[id], add...)
	return nil
}

func (f *fakeMailbox) Archive(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.msgs[id]; !ok || f.archived[id] {
		return errors.NewNotFound(id)
	}
	f.archived[id] = true
	return nil
}

func rawMessage(id, from, subject, body string) digest.RawMessage {
	return digest.RawMessage{
		ID:      id,
		Headers: digest.Headers{From: from, Subject: subject, Date: "Mon, 1 Jan 2024"},
		Body:    body,
	}
}

var testMessages = []digest.RawMessage{
	rawMessage("inv", "billing@acme.com", "Invoice #42",
		"Your invoice for $120.00 is attached. Please pay by Friday. Thank you for your business."),
	rawMessage("mtg", "boss@corp.com", "Planning meeting",
		"Let's schedule a meeting on Monday to review the roadmap for next quarter."),
	rawMessage("hi", "friend@example.com", "Hello",
		"Long time no see, how have you been lately?"),
}

func fixedNow() time.Time {
	return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
}

func newTestDeps(t *testing.T, withDB bool) (*Deps, *fakeMailbox) {
	t.Helper()
	mb := newFakeMailbox(testMessages...)
	deps := &Deps{
		Store:   session.New(session.Options{Now: fixedNow}),
		Mailbox: mb,
		Now:     fixedNow,
	}
	if withDB {
		database, err := db.Init(t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { database.Close() })
		deps.DB = database
	}
	return deps, mb
}
