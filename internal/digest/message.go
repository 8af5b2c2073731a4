package digest

// Headers holds the message headers the pipeline reads. Values are free
// text exactly as the mailbox provider returned them.
type Headers struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
}

// RawMessage is a message as fetched from a mailbox provider.
// It is never modified by the pipeline.
type RawMessage struct {
	ID           string   `json:"id"`
	ThreadID     string   `json:"threadId"`
	LabelIDs     []string `json:"labelIds,omitempty"`
	Snippet      string   `json:"snippet"`
	InternalDate int64    `json:"internalDate"` // Unix millis
	Headers      Headers  `json:"headers"`
	Body         string   `json:"body"`
}
