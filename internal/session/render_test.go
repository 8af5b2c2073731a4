package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/mull/internal/digest"
)

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "", Render(nil, nil))
}

func TestRender_DigestsOnly(t *testing.T) {
	d := digest.Digest{
		From:        "alice@example.com",
		Subject:     "Q3 planning",
		Type:        digest.CategoryEvent,
		Summary:     "Planning meeting next week",
		ActionItems: []string{"please confirm by Friday", "bring slides"},
		Dates:       []string{"Friday", "next week"},
	}

	got := Render([]digest.Digest{d}, nil)
	want := strings.Join([]string{
		"CURRENTLY DISCUSSED EMAILS:",
		"1. alice@example.com | Q3 planning | event",
		"   Summary: Planning meeting next week",
		"   Action items: please confirm by Friday; bring slides",
		"   Dates: Friday, next week",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRender_OptionalLinesOmitted(t *testing.T) {
	d := digest.Digest{From: "x", Subject: "y", Type: digest.CategoryPersonal, Summary: "s", Amounts: []string{"$5"}}
	got := Render([]digest.Digest{d}, nil)
	assert.NotContains(t, got, "Action items:")
	assert.NotContains(t, got, "Dates:")
	assert.Contains(t, got, "   Amounts: $5")
}

func TestRender_TruncatesSummary(t *testing.T) {
	d := digest.Digest{From: "x", Subject: "y", Type: digest.CategoryPersonal, Summary: strings.Repeat("s", 400)}
	got := Render([]digest.Digest{d}, nil)

	lines := strings.Split(got, "\n")
	require.Len(t, lines, 3)
	summary := strings.TrimPrefix(lines[2], "   Summary: ")
	assert.Equal(t, 200, digest.CountChars(summary))
	assert.True(t, strings.HasSuffix(summary, "..."))
}

func TestRender_HistoryOnly(t *testing.T) {
	history := []Turn{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAgent, Content: "hi"},
	}
	got := Render(nil, history)
	assert.Equal(t, "\nRECENT CONVERSATION:\nuser: hello\nagent: hi", got)
}

func TestRender_LastSixTurnsTruncated(t *testing.T) {
	var history []Turn
	for i := 0; i < 5; i++ {
		history = append(history,
			Turn{Role: RoleUser, Content: "question " + string(rune('A'+i))},
			Turn{Role: RoleAgent, Content: strings.Repeat("r", 300)},
		)
	}

	got := Render(nil, history)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "user: question C", lines[1])
	assert.Equal(t, "agent: "+strings.Repeat("r", 147)+"...", lines[2])
	assert.Equal(t, "user: question E", lines[5])
}

func TestRender_BothSectionsSeparatedByBlankLine(t *testing.T) {
	s := New(Options{})
	s.CacheDigest("a", digest.Digest{From: "f", Subject: "s", Type: digest.CategoryPersonal, Summary: "sum"})
	s.SetActive([]string{"a"})
	s.RecordExchange("what is this?", "an email")

	got := s.RenderContext()
	want := "CURRENTLY DISCUSSED EMAILS:\n1. f | s | personal\n   Summary: sum\n\nRECENT CONVERSATION:\nuser: what is this?\nagent: an email"
	assert.Equal(t, want, got)
}

func TestWrapPrompt(t *testing.T) {
	assert.Equal(t, "plain question", WrapPrompt("", "plain question"))
	assert.Equal(t,
		"[CONTEXT]\nBLOCK\n[/CONTEXT]\n\nUser: follow up",
		WrapPrompt("BLOCK", "follow up"))
}
