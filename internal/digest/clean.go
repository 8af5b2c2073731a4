package digest

import (
	"regexp"
	"strings"
)

// LinkPlaceholder replaces every URL in a cleaned body.
const LinkPlaceholder = "[link]"

var (
	crlfRegex = regexp.MustCompile(`\r\n?`)
	urlRegex  = regexp.MustCompile(`(?i)(?:\bhttps?://|\bwww\.)[^\s]*`)

	// footerPatterns strip from the match to the end of the line.
	footerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)unsubscribe[^\n]*`),
		regexp.MustCompile(`(?i)you(?:'re| are)? receiv(?:ed|ing) this (?:e-?mail|email|message|newsletter)[^\n]*`),
		regexp.MustCompile(`(?i)view (?:this (?:e-?mail|message) )?(?:in|on) (?:your |a )?(?:web )?browser[^\n]*`),
		regexp.MustCompile(`(?i)(?:manage|update|change) (?:your )?(?:e-?mail |notification |subscription |communication )?preferences[^\n]*`),
		regexp.MustCompile(`(?i)(?:©|\bcopyright\b|\(c\)[ \t]*\d{4})[^\n]*`),
		regexp.MustCompile(`(?im)^[ \t]*\d{4}[ \t]+(?:[\w.'-]+[ \t]+){0,4}(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|suite|ste|way|court|ct|parkway|pkwy|place|pl|square|sq|highway|hwy)\b[^\n]*`),
	}

	quotedLineRegex  = regexp.MustCompile(`(?m)^[\t\f\v\p{Z}\x{0085}]*>[^\n]*$`)
	attributionRegex = regexp.MustCompile(`(?im)^[ \t]*on\b[^\n]*\bwrote:[ \t]*$`)
	trailingWSRegex  = regexp.MustCompile(`(?m)[ \t\f\v\x{00A0}]+$`)
	blankRunRegex    = regexp.MustCompile(`\n{3,}`)
	horizontalWS     = regexp.MustCompile(`[ \t\f\v\x{00A0}]{2,}`)
)

// Clean strips links, boilerplate footers, quoted replies and reply
// attributions from a raw message body and normalizes its whitespace.
// The steps run in a fixed order: footer patterns assume URLs are
// already collapsed to LinkPlaceholder.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	text := crlfRegex.ReplaceAllString(raw, "\n")

	text = urlRegex.ReplaceAllString(text, LinkPlaceholder)

	for _, re := range footerPatterns {
		text = re.ReplaceAllString(text, "")
	}

	text = quotedLineRegex.ReplaceAllString(text, "")
	text = attributionRegex.ReplaceAllString(text, "")

	text = trailingWSRegex.ReplaceAllString(text, "")
	text = blankRunRegex.ReplaceAllString(text, "\n\n")
	text = horizontalWS.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
