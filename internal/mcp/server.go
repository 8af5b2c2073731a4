package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/mull/internal/config"
	"github.com/hpungsan/mull/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"email", "context", "triage"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"email_list": {
		def:     emailListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEmailList },
	},
	"email_read": {
		def:     emailReadToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEmailRead },
	},
	"email_label": {
		def:     emailLabelToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEmailLabel },
	},
	"email_archive": {
		def:     emailArchiveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEmailArchive },
	},
	"email_send": {
		def:     emailSendToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEmailSend },
	},
	"context_render": {
		def:     contextRenderToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContextRender },
	},
	"context_set_active": {
		def:     contextSetActiveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContextSetActive },
	},
	"context_add_active": {
		def:     contextAddActiveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContextAddActive },
	},
	"context_record": {
		def:     contextRecordToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContextRecord },
	},
	"context_clear": {
		def:     contextClearToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContextClear },
	},
	"triage_stats": {
		def:     triageStatsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTriageStats },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "email_read" → "email").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with Mull tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(deps *ops.Deps, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"mull",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(deps)

	// Build set of disabled tools: first expand types, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(deps *ops.Deps, cfg *config.Config, version string) error {
	s := NewServer(deps, cfg, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
