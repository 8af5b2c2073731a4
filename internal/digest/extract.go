package digest

import (
	"regexp"
	"strings"
)

// Extraction limits.
const (
	MaxDates       = 5
	MaxAmounts     = 5
	MaxActionItems = 5
	MaxKeyPhrases  = 3

	minSentenceChars  = 11
	minKeyPhraseChars = 20 // exclusive
	maxKeyPhraseChars = 200 // exclusive
)

const (
	monthNames   = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`
	weekdayNames = `monday|tuesday|wednesday|thursday|friday|saturday|sunday`
)

// dateRegex is a single alternation so matches come back in text order.
// Longer forms are listed first because RE2 alternation is leftmost-first.
var dateRegex = regexp.MustCompile(`(?i)` +
	`\b\d{1,2}(?:st|nd|rd|th)?[ \t]+(?:` + monthNames + `)\.?,?[ \t]+\d{4}\b` + // 15 March 2025
	`|\b(?:` + monthNames + `)\.?[ \t]+\d{1,2}(?:st|nd|rd|th)?(?:,?[ \t]+\d{4})?\b` + // March 15, 2025
	`|\b\d{1,2}/\d{1,2}/\d{2,4}\b` + // 3/15/2025
	`|\b(?:` + weekdayNames + `)\b` +
	`|\b(?:today|tomorrow|next week|this week)\b`)

// currencyCodes are the ISO 4217 codes recognized as amount suffixes.
var currencyCodes = []string{"USD", "EUR", "GBP", "INR", "JPY", "CAD", "AUD", "CHF", "CNY", "SGD", "NZD", "SEK", "NOK", "DKK", "HKD", "MXN", "BRL", "ZAR"}

var amountRegex = regexp.MustCompile(
	`[$€£¥₹][ \t]?\d+(?:,\d{3})*(?:\.\d+)?` +
		`|\b\d+(?:,\d{3})*(?:\.\d+)?[ \t]?(?i:` + strings.Join(currencyCodes, "|") + `)\b`)

var sentenceSplitRegex = regexp.MustCompile(`[.!?\n]+`)

// actionVocabulary marks a sentence as something the reader has to do.
var actionVocabulary = []string{
	"please", "kindly", "required", "must", "need to", "action", "deadline",
	"respond", "reply", "confirm", "submit", "complete", "attend", "join",
	"register", "rsvp",
}

var actionRegex = vocabularyRegex(actionVocabulary)

// Extraction is the structured data pulled out of a cleaned body.
type Extraction struct {
	Dates       []string `json:"dates"`
	Amounts     []string `json:"amounts"`
	ActionItems []string `json:"actionItems"`
	KeyPhrases  []string `json:"keyPhrases"`
}

// Extract pulls dates, amounts, action items and key phrases out of a
// cleaned body. Action items and key phrases are chosen independently
// from the same sentence list, so a sentence may appear in both.
func Extract(cleaned string) Extraction {
	sentences := Sentences(cleaned)
	return Extraction{
		Dates:       firstUnique(dateRegex.FindAllString(cleaned, -1), MaxDates),
		Amounts:     firstUnique(amountRegex.FindAllString(cleaned, -1), MaxAmounts),
		ActionItems: actionItems(sentences),
		KeyPhrases:  keyPhrases(sentences),
	}
}

// Sentences splits text on sentence punctuation and newlines and drops
// fragments shorter than 11 characters.
func Sentences(text string) []string {
	var out []string
	for _, s := range sentenceSplitRegex.Split(text, -1) {
		s = strings.TrimSpace(s)
		if CountChars(s) < minSentenceChars {
			continue
		}
		out = append(out, s)
	}
	return out
}

func actionItems(sentences []string) []string {
	out := make([]string, 0, MaxActionItems)
	for _, s := range sentences {
		if len(out) == MaxActionItems {
			break
		}
		if actionRegex.MatchString(s) {
			out = append(out, s)
		}
	}
	return out
}

func keyPhrases(sentences []string) []string {
	out := make([]string, 0, MaxKeyPhrases)
	for _, s := range sentences {
		if len(out) == MaxKeyPhrases {
			break
		}
		n := CountChars(s)
		if n <= minKeyPhraseChars || n >= maxKeyPhraseChars {
			continue
		}
		if strings.HasPrefix(s, LinkPlaceholder) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// vocabularyRegex matches text containing any of words, case-insensitively.
// Terms match anywhere, including inside longer words.
func vocabularyRegex(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)
}
