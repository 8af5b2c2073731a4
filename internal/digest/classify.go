package digest

import (
	"regexp"
	"strings"
)

// Category is the single label assigned to a message.
type Category string

const (
	CategoryPromotional   Category = "promotional"
	CategoryNewsletter    Category = "newsletter"
	CategorySecurity      Category = "security"
	CategoryTransactional Category = "transactional"
	CategoryEvent         Category = "event"
	CategoryNotification  Category = "notification"
	CategoryDevelopment   Category = "development"
	CategoryPersonal      Category = "personal"
)

// Categories lists every category in rule precedence order.
var Categories = []Category{
	CategoryPromotional,
	CategoryNewsletter,
	CategorySecurity,
	CategoryTransactional,
	CategoryEvent,
	CategoryNotification,
	CategoryDevelopment,
	CategoryPersonal,
}

// RulesVersion identifies the vocabulary below and how it matches. Bump
// it whenever a list or the matching changes so pinned test expectations
// are revisited.
const RulesVersion = 2

// Classification vocabulary.
var (
	BulkVocabulary       = []string{"noreply", "no-reply", "newsletter", "marketing", "promo", "offer", "sale", "discount", "deal", "unsubscribe"}
	DiscountVocabulary   = []string{"off", "%", "discount", "sale", "deal", "coupon", "offer", "price", "save"}
	SecurityVocabulary   = []string{"alert", "security", "verification", "verify", "password", "signin", "login", "suspicious", "unusual"}
	BillingVocabulary    = []string{"invoice", "payment", "receipt", "order", "transaction", "billing", "subscription"}
	SchedulingVocabulary = []string{"meeting", "invite", "calendar", "event", "rsvp", "attend", "join", "webinar", "summit", "conference"}
	NoticeVocabulary     = []string{"notification", "update", "reminder", "notice"}
	DevToolingVocabulary = []string{"github", "gitlab", "jenkins", "deploy", "build", "commit", "pull request", "merge"}
)

var (
	bulkRegex       = vocabularyRegex(BulkVocabulary)
	discountRegex   = vocabularyRegex(DiscountVocabulary)
	securityRegex   = vocabularyRegex(SecurityVocabulary)
	billingRegex    = vocabularyRegex(BillingVocabulary)
	schedulingRegex = vocabularyRegex(SchedulingVocabulary)
	noticeRegex     = vocabularyRegex(NoticeVocabulary)
	devRegex        = vocabularyRegex(DevToolingVocabulary)
)

// rule reports the category for lower-cased message text, or false when
// it does not apply.
type rule func(text string) (Category, bool)

// rules are evaluated in order; the first match wins.
var rules = []rule{
	func(text string) (Category, bool) {
		if !bulkRegex.MatchString(text) {
			return "", false
		}
		if discountRegex.MatchString(text) {
			return CategoryPromotional, true
		}
		return CategoryNewsletter, true
	},
	keywordRule(securityRegex, CategorySecurity),
	keywordRule(billingRegex, CategoryTransactional),
	keywordRule(schedulingRegex, CategoryEvent),
	keywordRule(noticeRegex, CategoryNotification),
	keywordRule(devRegex, CategoryDevelopment),
}

// Classify assigns one category to a message from its sender, subject
// and cleaned body. The rules are heuristic and best-effort; any input,
// including empty strings, yields a category.
func Classify(h Headers, cleaned string) Category {
	text := strings.ToLower(h.From + " " + h.Subject + " " + cleaned)
	for _, r := range rules {
		if c, ok := r(text); ok {
			return c
		}
	}
	return CategoryPersonal
}

func keywordRule(re *regexp.Regexp, c Category) rule {
	return func(text string) (Category, bool) {
		return c, re.MatchString(text)
	}
}
