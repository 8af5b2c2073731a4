package digest

import (
	"strings"
	"time"
)

// Digest limits and placeholders.
const (
	MaxSummaryChars    = 400
	bodyFallbackChars  = 300
	DefaultFrom        = "Unknown"
	DefaultSubject     = "No Subject"
	NoReadableContent  = "No readable content"
	keyPhraseSeparator = ". "
)

// Digest is the bounded summary of one message. It is immutable once
// built; the only field set afterwards is CachedAt, stamped by the
// session store when the digest is cached.
type Digest struct {
	// ID is the source message identifier
	ID string `json:"id"`

	// ThreadID is the source thread identifier, when the provider has one
	ThreadID string `json:"threadId,omitempty"`

	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Date    string `json:"date"`

	// Type is the classifier's category
	Type Category `json:"type"`

	// Summary is capped at MaxSummaryChars runes
	Summary string `json:"summary"`

	KeyPoints   []string `json:"keyPoints"`
	ActionItems []string `json:"actionItems"`
	Dates       []string `json:"dates"`
	Amounts     []string `json:"amounts"`

	// ActionRequired is true iff ActionItems is non-empty
	ActionRequired bool `json:"actionRequired"`

	// FullBodyLength is the rune length of the original, uncleaned body
	FullBodyLength int `json:"fullBodyLength"`

	CachedAt time.Time `json:"cachedAt,omitzero"`
}

// Build turns a raw message into a Digest. It never fails: missing
// headers fall back to placeholders and an empty body falls back to the
// snippet and then to a fixed marker.
func Build(msg RawMessage) Digest {
	cleaned := Clean(msg.Body)
	ext := Extract(cleaned)

	d := Digest{
		ID:             msg.ID,
		ThreadID:       msg.ThreadID,
		From:           orDefault(msg.Headers.From, DefaultFrom),
		To:             msg.Headers.To,
		Subject:        orDefault(msg.Headers.Subject, DefaultSubject),
		Date:           msg.Headers.Date,
		Type:           Classify(msg.Headers, cleaned),
		KeyPoints:      ext.KeyPhrases,
		ActionItems:    ext.ActionItems,
		Dates:          ext.Dates,
		Amounts:        ext.Amounts,
		ActionRequired: len(ext.ActionItems) > 0,
		FullBodyLength: CountChars(msg.Body),
	}
	d.Summary = Truncate(summarize(ext.KeyPhrases, cleaned, msg.Snippet), MaxSummaryChars)
	return d
}

// summarize picks the summary text: key phrases, then the head of the
// cleaned body, then the provider snippet.
func summarize(keyPhrases []string, cleaned, snippet string) string {
	switch {
	case len(keyPhrases) > 0:
		return strings.Join(keyPhrases, keyPhraseSeparator)
	case cleaned != "":
		return prefix(cleaned, bodyFallbackChars)
	case strings.TrimSpace(snippet) != "":
		return snippet
	default:
		return NoReadableContent
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
