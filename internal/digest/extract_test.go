package digest

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtract_InvoiceExample(t *testing.T) {
	ext := Extract(Clean("Invoice #123 due $250.00 by 3/15/2025"))

	if len(ext.Amounts) == 0 || !strings.HasPrefix(ext.Amounts[0], "$") {
		t.Errorf("Amounts = %v, want a $-prefixed match", ext.Amounts)
	}
	if !contains(ext.Dates, "3/15/2025") {
		t.Errorf("Dates = %v, want 3/15/2025", ext.Dates)
	}
}

func TestExtract_Dates(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"day month year", "Due 15 March 2025 at noon", []string{"15 March 2025"}},
		{"month day year", "Due March 15, 2025 at noon", []string{"March 15, 2025"}},
		{"month day", "Kickoff on Jan 9th for all", []string{"Jan 9th"}},
		{"numeric", "Shipped 01/02/24 and 3/15/2025", []string{"01/02/24", "3/15/2025"}},
		{"weekday", "See you Friday or Monday", []string{"Friday", "Monday"}},
		{"relative", "Do it today, not next week", []string{"today", "next week"}},
		{"dedupe exact", "friday, Friday, friday", []string{"friday", "Friday"}},
		{"text order", "tomorrow then 4/5/2025 then Tuesday", []string{"tomorrow", "4/5/2025", "Tuesday"}},
		{"none", "nothing scheduled here", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text).Dates
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Dates = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestExtract_Amounts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"symbol", "Total $1,250.50 charged", []string{"$1,250.50"}},
		{"euro and pound", "€40 or £35.99", []string{"€40", "£35.99"}},
		{"code suffix", "Pay 300 USD or 280 eur", []string{"300 USD", "280 eur"}},
		{"unknown code", "Ship 300 ABC boxes", []string{}},
		{"dedupe", "$5 and $5 and $6", []string{"$5", "$6"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text).Amounts
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Amounts = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestExtract_Caps(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 9; i++ {
		b.WriteString("Please confirm attendance for session number ")
		b.WriteString(strings.Repeat("x", i))
		b.WriteString(" on 1/")
		b.WriteString(string(rune('0' + i)))
		b.WriteString("/2025 costing $")
		b.WriteString(string(rune('0' + i)))
		b.WriteString("\n")
	}

	ext := Extract(b.String())
	if len(ext.Dates) != MaxDates {
		t.Errorf("len(Dates) = %d, want %d", len(ext.Dates), MaxDates)
	}
	if len(ext.Amounts) != MaxAmounts {
		t.Errorf("len(Amounts) = %d, want %d", len(ext.Amounts), MaxAmounts)
	}
	if len(ext.ActionItems) != MaxActionItems {
		t.Errorf("len(ActionItems) = %d, want %d", len(ext.ActionItems), MaxActionItems)
	}
	if len(ext.KeyPhrases) != MaxKeyPhrases {
		t.Errorf("len(KeyPhrases) = %d, want %d", len(ext.KeyPhrases), MaxKeyPhrases)
	}
	if ext.Dates[0] != "1/1/2025" {
		t.Errorf("Dates[0] = %q, want first occurrence 1/1/2025", ext.Dates[0])
	}
}

func TestSentences(t *testing.T) {
	got := Sentences("Short one. This sentence is long enough!\nTiny\nIs this a real question? ok")
	want := []string{"This sentence is long enough", "Is this a real question"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sentences() = %#v, want %#v", got, want)
	}
}

func TestExtract_ActionItems(t *testing.T) {
	text := "Kindly review the attached draft. The weather was lovely today. You need to submit the form. RSVP by the end of day"
	got := Extract(text).ActionItems
	want := []string{"Kindly review the attached draft", "You need to submit the form", "RSVP by the end of day"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ActionItems = %#v, want %#v", got, want)
	}
}

func TestExtract_ActionItemsMatchInsideWords(t *testing.T) {
	text := "Your transaction was processed today\nThe form is incomplete for now\nNothing to see here at all"
	got := Extract(text).ActionItems
	want := []string{"Your transaction was processed today", "The form is incomplete for now"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ActionItems = %#v, want %#v", got, want)
	}
}

func TestExtract_KeyPhrases(t *testing.T) {
	long := strings.Repeat("word ", 45) // 224 chars once trimmed
	text := "Too short here.\n[link] is a link line that is long enough\n" +
		long + "\nExactly twenty chars\nThis line is comfortably inside the window"

	got := Extract(text).KeyPhrases
	want := []string{"This line is comfortably inside the window"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("KeyPhrases = %#v, want %#v", got, want)
	}
}

func TestExtract_OverlapPreserved(t *testing.T) {
	ext := Extract("Please confirm the venue booking before noon")
	if len(ext.ActionItems) != 1 || len(ext.KeyPhrases) != 1 {
		t.Fatalf("ActionItems = %v, KeyPhrases = %v; want the sentence in both", ext.ActionItems, ext.KeyPhrases)
	}
	if ext.ActionItems[0] != ext.KeyPhrases[0] {
		t.Errorf("ActionItems[0] = %q, KeyPhrases[0] = %q; want equal", ext.ActionItems[0], ext.KeyPhrases[0])
	}
}

func TestExtract_Empty(t *testing.T) {
	ext := Extract("")
	if len(ext.Dates)+len(ext.Amounts)+len(ext.ActionItems)+len(ext.KeyPhrases) != 0 {
		t.Errorf("Extract(\"\") = %+v, want all empty", ext)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
