package digest

import "testing"

func TestClassify_Rules(t *testing.T) {
	tests := []struct {
		name    string
		headers Headers
		body    string
		want    Category
	}{
		{"promotional", Headers{From: "noreply@shop.com", Subject: "50% OFF everything!"}, "Big savings inside.", CategoryPromotional},
		{"newsletter", Headers{From: "newsletter@blog.dev", Subject: "This month in Go"}, "Articles we liked.", CategoryNewsletter},
		{"security", Headers{From: "accounts@bank.com", Subject: "Unusual sign-in attempt"}, "We noticed something.", CategorySecurity},
		{"transactional", Headers{From: "billing@host.io", Subject: "Your invoice is ready"}, "Amount due $20.", CategoryTransactional},
		{"event", Headers{Subject: "Meeting invite: Q3 planning"}, "please confirm by Friday", CategoryEvent},
		{"notification", Headers{Subject: "Reminder"}, "Your library books are due.", CategoryNotification},
		{"development", Headers{From: "ci@jenkins.local", Subject: "Build #42 failed"}, "See logs.", CategoryDevelopment},
		{"personal", Headers{From: "mom@family.net", Subject: "Dinner?"}, "Are you free on the weekend?", CategoryPersonal},
		{"empty", Headers{}, "", CategoryPersonal},
		{"plural still matches", Headers{Subject: "Your invoices"}, "", CategoryTransactional},
		{"embedded bulk and discount terms", Headers{Subject: "Wholesale ideas"}, "", CategoryPromotional},
		{"embedded security term", Headers{From: "friend@x.com"}, "Our cybersecurity review is done", CategorySecurity},
		{"embedded billing term", Headers{From: "friend@x.com"}, "The preorder shipped", CategoryTransactional},
		{"embedded scheduling term", Headers{From: "friend@x.com"}, "We rejoined the club", CategoryEvent},
		{"embedded dev term", Headers{From: "friend@x.com"}, "Rebuild finished", CategoryDevelopment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.headers, Clean(tt.body))
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_Precedence(t *testing.T) {
	// Matches both security and billing vocabulary; security ranks first.
	got := Classify(Headers{Subject: "Security alert on your payment"}, "")
	if got != CategorySecurity {
		t.Errorf("Classify() = %q, want %q", got, CategorySecurity)
	}

	// Bulk sender outranks everything else.
	got = Classify(Headers{From: "no-reply@service.com", Subject: "Password changed"}, "")
	if got != CategoryNewsletter {
		t.Errorf("Classify() = %q, want %q", got, CategoryNewsletter)
	}
}

func TestClassify_PromotionalSpecExample(t *testing.T) {
	h := Headers{From: "noreply@shop.com", Subject: "50% OFF everything!"}
	body := "Shop now and save big.\nClick to unsubscribe from these emails."
	if got := Classify(h, Clean(body)); got != CategoryPromotional {
		t.Errorf("Classify() = %q, want %q", got, CategoryPromotional)
	}
}

func TestClassify_Total(t *testing.T) {
	known := make(map[Category]bool, len(Categories))
	for _, c := range Categories {
		known[c] = true
	}

	inputs := []string{"", " ", "%", "pull request merged", "¿qué?", "\n\n", "offer"}
	for _, in := range inputs {
		got := Classify(Headers{Subject: in}, in)
		if !known[got] {
			t.Errorf("Classify(%q) = %q, not a known category", in, got)
		}
	}
}
