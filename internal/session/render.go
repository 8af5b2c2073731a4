package session

import (
	"fmt"
	"strings"

	"github.com/hpungsan/mull/internal/digest"
)

// Rendering limits.
const (
	renderSummaryChars = 200
	renderTurnChars    = 150
	renderTurns        = 6 // the last three exchanges

	emailsHeader       = "CURRENTLY DISCUSSED EMAILS:"
	conversationHeader = "RECENT CONVERSATION:"
)

// RenderContext serializes the active digests and recent turns into the
// block that is prepended to the next query. An empty store renders "".
func (s *Store) RenderContext() string {
	return Render(s.ActiveDigests(), s.History())
}

// Render builds the context block from digests and history. Output is
// deterministic for the same input.
func Render(digests []digest.Digest, history []Turn) string {
	var lines []string

	if len(digests) > 0 {
		lines = append(lines, emailsHeader)
		for i, d := range digests {
			lines = append(lines, renderDigest(i+1, d)...)
		}
	}

	if len(history) > 0 {
		// The blank separator is emitted even when no digests precede it.
		lines = append(lines, "", conversationHeader)
		if len(history) > renderTurns {
			history = history[len(history)-renderTurns:]
		}
		for _, t := range history {
			lines = append(lines, fmt.Sprintf("%s: %s", t.Role, digest.Truncate(t.Content, renderTurnChars)))
		}
	}

	return strings.Join(lines, "\n")
}

func renderDigest(n int, d digest.Digest) []string {
	lines := []string{
		fmt.Sprintf("%d. %s | %s | %s", n, d.From, d.Subject, d.Type),
		"   Summary: " + digest.Truncate(d.Summary, renderSummaryChars),
	}
	if len(d.ActionItems) > 0 {
		lines = append(lines, "   Action items: "+strings.Join(d.ActionItems, "; "))
	}
	if len(d.Dates) > 0 {
		lines = append(lines, "   Dates: "+strings.Join(d.Dates, ", "))
	}
	if len(d.Amounts) > 0 {
		lines = append(lines, "   Amounts: "+strings.Join(d.Amounts, ", "))
	}
	return lines
}

// WrapPrompt prefixes query with the context block. An empty block means
// there is nothing to inject and the query is returned unchanged.
func WrapPrompt(block, query string) string {
	if block == "" {
		return query
	}
	return "[CONTEXT]\n" + block + "\n[/CONTEXT]\n\nUser: " + query
}
