package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/mull/internal/errors"
	"github.com/hpungsan/mull/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	deps *ops.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *ops.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// Request types for each tool

// EmailListRequest represents the arguments for email_list.
type EmailListRequest struct {
	Query string `json:"query,omitempty"`
	Label string `json:"label,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// EmailReadRequest represents the arguments for email_read.
type EmailReadRequest struct {
	ID       string `json:"id"`
	UseCache bool   `json:"use_cache,omitempty"`
}

// EmailLabelRequest represents the arguments for email_label.
type EmailLabelRequest struct {
	ID     string   `json:"id"`
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

// EmailArchiveRequest represents the arguments for email_archive.
type EmailArchiveRequest struct {
	ID string `json:"id"`
}

// EmailSendRequest represents the arguments for email_send.
type EmailSendRequest struct {
	To        []string `json:"to"`
	Subject   string   `json:"subject,omitempty"`
	Body      string   `json:"body,omitempty"`
	InReplyTo string   `json:"in_reply_to,omitempty"`
}

// ActiveRequest represents the arguments for context_set_active and
// context_add_active.
type ActiveRequest struct {
	IDs []string `json:"ids"`
}

// RecordRequest represents the arguments for context_record.
type RecordRequest struct {
	User  string `json:"user"`
	Agent string `json:"agent,omitempty"`
}

// StatsRequest represents the arguments for triage_stats.
type StatsRequest struct {
	Recent int `json:"recent,omitempty"`
}

// Handler implementations

// HandleEmailList handles the email_list tool call.
func (h *Handlers) HandleEmailList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EmailListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.List(ctx, h.deps, ops.ListInput{
		Query: input.Query,
		Label: input.Label,
		Limit: input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleEmailRead handles the email_read tool call.
func (h *Handlers) HandleEmailRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EmailReadRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Read(ctx, h.deps, ops.ReadInput{ID: input.ID, UseCache: input.UseCache})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleEmailLabel handles the email_label tool call.
func (h *Handlers) HandleEmailLabel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EmailLabelRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Label(ctx, h.deps, ops.LabelInput{
		ID:     input.ID,
		Add:    input.Add,
		Remove: input.Remove,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleEmailArchive handles the email_archive tool call.
func (h *Handlers) HandleEmailArchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EmailArchiveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Archive(ctx, h.deps, ops.ArchiveInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleEmailSend handles the email_send tool call.
func (h *Handlers) HandleEmailSend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EmailSendRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Send(ctx, h.deps, ops.SendInput{
		To:        input.To,
		Subject:   input.Subject,
		Body:      input.Body,
		InReplyTo: input.InReplyTo,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleContextRender handles the context_render tool call.
func (h *Handlers) HandleContextRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.Context(h.deps))
}

// HandleContextSetActive handles the context_set_active tool call.
func (h *Handlers) HandleContextSetActive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ActiveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.SetActive(h.deps, ops.ActiveInput{IDs: input.IDs})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleContextAddActive handles the context_add_active tool call.
func (h *Handlers) HandleContextAddActive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ActiveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.AddActive(h.deps, ops.ActiveInput{IDs: input.IDs})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleContextRecord handles the context_record tool call.
func (h *Handlers) HandleContextRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RecordRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Record(h.deps, ops.RecordInput{User: input.User, Agent: input.Agent})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleContextClear handles the context_clear tool call.
func (h *Handlers) HandleContextClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.Clear(h.deps))
}

// HandleTriageStats handles the triage_stats tool call.
func (h *Handlers) HandleTriageStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StatsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Stats(ctx, h.deps, ops.StatsInput{Recent: input.Recent})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if mullErr, ok := err.(*errors.MullError); ok {
		errorObj := map[string]any{
			"code":    mullErr.Code,
			"message": mullErr.Message,
			"status":  mullErr.Status,
		}
		if mullErr.Code != errors.ErrInternal && mullErr.Details != nil {
			errorObj["details"] = mullErr.Details
		}
		if mullErr.Code == errors.ErrInternal || mullErr.Code == errors.ErrMailboxUnavailable {
			slog.Error("tool call failed", "code", mullErr.Code, "error", err)
		}
		payload = map[string]any{"error": errorObj}
	} else {
		slog.Error("tool call failed", "error", err)
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
