package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/clinicseo/internal/config"
	"github.com/hpungsan/clinicseo/internal/errors"
	"github.com/hpungsan/clinicseo/internal/llm"
	"github.com/hpungsan/clinicseo/internal/logging"
	"github.com/hpungsan/clinicseo/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
	gen llm.Generator
	log *logging.Logger
}

// NewHandlers creates a new Handlers instance. A nil log discards output.
func NewHandlers(db *sql.DB, cfg *config.Config, gen llm.Generator, log *logging.Logger) *Handlers {
	if log == nil {
		log = logging.Nop()
	}
	return &Handlers{db: db, cfg: cfg, gen: gen, log: log}
}

// Request types for each tool

// ResolveRequest represents the arguments for clinic_resolve.
type ResolveRequest struct {
	Record recordArg `json:"record"`
}

// ComposeRequest represents the arguments for prompt_compose and content_generate.
type ComposeRequest struct {
	Record    recordArg `json:"record"`
	WordCount int       `json:"word_count,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	Session   string    `json:"session,omitempty"`
	Template  *string   `json:"template,omitempty"`
}

// SessionRequest represents the arguments for prompt_template_get and prompt_template_reset.
type SessionRequest struct {
	Session string `json:"session,omitempty"`
}

// TemplateSaveRequest represents the arguments for prompt_template_save.
type TemplateSaveRequest struct {
	Session string `json:"session,omitempty"`
	Text    string `json:"text"`
}

// FetchRequest represents the arguments for content_fetch.
type FetchRequest struct {
	ID             string `json:"id"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
	IncludePrompt  bool   `json:"include_prompt,omitempty"`
}

// ListRequest represents the arguments for content_list.
type ListRequest struct {
	Session        string `json:"session,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// IDRequest represents the arguments for content_delete.
type IDRequest struct {
	ID string `json:"id"`
}

// ExportRequest represents the arguments for content_export.
type ExportRequest struct {
	ID   string `json:"id"`
	Path string `json:"path,omitempty"`
}

// PurgeRequest represents the arguments for content_purge.
type PurgeRequest struct {
	Session       *string `json:"session,omitempty"`
	OlderThanDays *int    `json:"older_than_days,omitempty"`
}

// Handler implementations

// HandleResolve handles the clinic_resolve tool call.
func (h *Handlers) HandleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ResolveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Resolve(ctx, h.cfg, ops.ResolveInput{RecordJSON: input.Record.Text()})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCompose handles the prompt_compose tool call.
func (h *Handlers) HandleCompose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ComposeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Compose(ctx, h.db, h.cfg, ops.ComposeInput{
		RecordJSON: input.Record.Text(),
		WordCount:  input.WordCount,
		Mode:       input.Mode,
		Session:    input.Session,
		Template:   input.Template,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTemplateGet handles the prompt_template_get tool call.
func (h *Handlers) HandleTemplateGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.GetTemplate(ctx, h.db, ops.GetTemplateInput{Session: input.Session})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTemplateSave handles the prompt_template_save tool call.
func (h *Handlers) HandleTemplateSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TemplateSaveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.SaveTemplate(ctx, h.db, h.cfg, ops.SaveTemplateInput{
		Session: input.Session,
		Text:    input.Text,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTemplateReset handles the prompt_template_reset tool call.
func (h *Handlers) HandleTemplateReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ResetTemplate(ctx, h.db, ops.ResetTemplateInput{Session: input.Session})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGenerate handles the content_generate tool call.
func (h *Handlers) HandleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ComposeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	start := time.Now()
	result, err := ops.Generate(ctx, h.db, h.cfg, h.gen, ops.GenerateInput{
		RecordJSON: input.Record.Text(),
		WordCount:  input.WordCount,
		Mode:       input.Mode,
		Session:    input.Session,
		Template:   input.Template,
	})
	if err != nil {
		h.log.Warn("generation failed", "tool", "content_generate", "error", err)
		return errorResult(err), nil
	}

	h.log.Info("generation finished",
		"tool", "content_generate",
		"generated", result.Generated,
		"id", result.ID,
		"mode", result.Mode,
		"provider", result.Provider,
		"elapsed", time.Since(start),
	)
	return successResult(result)
}

// HandleFetch handles the content_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Fetch(ctx, h.db, ops.FetchInput{
		ID:             input.ID,
		IncludeDeleted: input.IncludeDeleted,
		IncludePrompt:  input.IncludePrompt,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the content_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Session:        input.Session,
		Limit:          input.Limit,
		Offset:         input.Offset,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the content_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Delete(ctx, h.db, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the content_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		ID:   input.ID,
		Path: input.Path,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePurge handles the content_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Purge(ctx, h.db, ops.PurgeInput{
		Session:       input.Session,
		OlderThanDays: input.OlderThanDays,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// INTERNAL errors never carry details; they may hold paths or SQL text.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		errorObj := map[string]any{
			"code":    appErr.Code,
			"message": err.Error(),
			"status":  appErr.Status,
		}
		if err == error(appErr) {
			errorObj["message"] = appErr.Message
		}
		if appErr.Code != errors.ErrInternal && appErr.Details != nil {
			errorObj["details"] = appErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
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
