package mcp

import "github.com/mark3labs/mcp-go/mcp"

var emailListToolDef = mcp.NewTool("email_list",
	mcp.WithDescription("List recent messages as digests. The listed messages become the active set of the conversation context."),
	mcp.WithString("query", mcp.Description("Case-insensitive text to match against sender, subject and body")),
	mcp.WithString("label", mcp.Description("Only messages carrying this label")),
	mcp.WithNumber("limit", mcp.Description("Maximum messages to return (default 20, max 100)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var emailReadToolDef = mcp.NewTool("email_read",
	mcp.WithDescription("Read one message and return its full digest: summary, key points, action items, dates and amounts. The message is added to the active set."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Message id from email_list")),
	mcp.WithBoolean("use_cache", mcp.Description("Serve the cached digest when present instead of re-fetching")),
)

var emailLabelToolDef = mcp.NewTool("email_label",
	mcp.WithDescription("Add or remove labels on a message."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Message id")),
	mcp.WithArray("add", mcp.Description("Labels to add"), mcp.WithStringItems()),
	mcp.WithArray("remove", mcp.Description("Labels to remove"), mcp.WithStringItems()),
)

var emailArchiveToolDef = mcp.NewTool("email_archive",
	mcp.WithDescription("Move a message out of the inbox."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Message id")),
	mcp.WithDestructiveHintAnnotation(true),
)

var emailSendToolDef = mcp.NewTool("email_send",
	mcp.WithDescription("Send a message or a reply. Confirm the draft with the user before calling."),
	mcp.WithArray("to", mcp.Required(), mcp.Description("Recipient addresses"), mcp.WithStringItems()),
	mcp.WithString("subject", mcp.Description("Subject line")),
	mcp.WithString("body", mcp.Description("Plain text body")),
	mcp.WithString("in_reply_to", mcp.Description("Message-ID being replied to")),
	mcp.WithDestructiveHintAnnotation(true),
)

var contextRenderToolDef = mcp.NewTool("context_render",
	mcp.WithDescription("Render the conversation context block: the active digests and the last few exchanges."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var contextSetActiveToolDef = mcp.NewTool("context_set_active",
	mcp.WithDescription("Replace the set of messages in focus."),
	mcp.WithArray("ids", mcp.Required(), mcp.Description("Message ids, in display order"), mcp.WithStringItems()),
)

var contextAddActiveToolDef = mcp.NewTool("context_add_active",
	mcp.WithDescription("Add messages to the set in focus."),
	mcp.WithArray("ids", mcp.Required(), mcp.Description("Message ids to append"), mcp.WithStringItems()),
)

var contextRecordToolDef = mcp.NewTool("context_record",
	mcp.WithDescription("Record one user/agent exchange in the conversation history."),
	mcp.WithString("user", mcp.Required(), mcp.Description("What the user asked")),
	mcp.WithString("agent", mcp.Description("What was answered")),
)

var contextClearToolDef = mcp.NewTool("context_clear",
	mcp.WithDescription("Forget cached digests, the active set and the conversation history."),
	mcp.WithDestructiveHintAnnotation(true),
)

var triageStatsToolDef = mcp.NewTool("triage_stats",
	mcp.WithDescription("Summarize how read messages were classified."),
	mcp.WithNumber("recent", mcp.Description("Recently read messages to include (default 10, max 100)")),
	mcp.WithReadOnlyHintAnnotation(true),
)
