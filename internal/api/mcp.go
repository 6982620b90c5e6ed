package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/smartfill/internal/fill"
)

// NewMCPServer creates an MCP server exposing the fill pipeline as tools and
// the profile summary as a resource.
func NewMCPServer(deps Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"smartfill",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("SmartFill produces text for form fields from the user's profile."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("smart_fill", withPayloadArgs(
			mcp.WithDescription("Produce the text to put into a form field, given what is known about the field."),
		)...),
		mcpSmartFill(deps),
	)

	s.AddTool(
		mcp.NewTool("classify_field", withPayloadArgs(
			mcp.WithDescription("Classify a form field and return its content type, field type, style and length as JSON."),
		)...),
		mcpClassifyField(deps),
	)

	s.AddTool(
		mcp.NewTool("update_profile",
			mcp.WithDescription("Set one value of the user profile. List values are comma separated."),
			mcp.WithString("section", mcp.Description("Profile section, e.g. basic, skills, work_experience"), mcp.Required()),
			mcp.WithString("key", mcp.Description("Key within the section, e.g. email or 0.title"), mcp.Required()),
			mcp.WithString("value", mcp.Description("Value to set"), mcp.Required()),
		),
		mcpUpdateProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"smartfill://profile/summary",
			"Profile Summary",
			mcp.WithResourceDescription("Plain text summary of the active profile"),
			mcp.WithMIMEType("text/plain"),
		),
		mcpResourceSummary(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"smartfill://history/recent",
			"Recent Fills",
			mcp.WithResourceDescription("Last 10 fills (metadata only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceHistory(deps),
	)

	return s
}

// withPayloadArgs appends the bridge payload arguments to opts.
func withPayloadArgs(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append(opts,
		mcp.WithString("fieldLabel", mcp.Description("Visible label or placeholder of the field"), mcp.Required()),
		mcp.WithString("appName", mcp.Description("Application the field belongs to")),
		mcp.WithString("windowTitle", mcp.Description("Title of the window or page")),
		mcp.WithString("fieldRole", mcp.Description("Accessibility role, e.g. text field or text area")),
		mcp.WithString("surroundingText", mcp.Description("Text near the field, plain or HTML")),
		mcp.WithString("selectedText", mcp.Description("Currently selected text")),
	)
}

func payloadFromRequest(req mcp.CallToolRequest) (fill.Payload, error) {
	label, err := req.RequireString("fieldLabel")
	if err != nil {
		return fill.Payload{}, err
	}
	return fill.Payload{
		AppName:         req.GetString("appName", ""),
		WindowTitle:     req.GetString("windowTitle", ""),
		FieldLabel:      label,
		FieldRole:       req.GetString("fieldRole", ""),
		SurroundingText: req.GetString("surroundingText", ""),
		SelectedText:    req.GetString("selectedText", ""),
	}, nil
}

func mcpSmartFill(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := payloadFromRequest(req)
		if err != nil {
			return mcpError("fieldLabel is required"), nil
		}
		out, err := deps.Fills.Resolve(ctx, "mcp", p.Snapshot())
		switch {
		case errors.Is(err, fill.ErrGeneration):
			return mcpError(out.Content.Text), nil
		case err != nil:
			return mcpError(fmt.Sprintf("Error: %v", err)), nil
		}
		return mcpText(out.Content.Text), nil
	}
}

func mcpClassifyField(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := payloadFromRequest(req)
		if err != nil {
			return mcpError("fieldLabel is required"), nil
		}
		b, err := json.Marshal(deps.Fills.Classify(ctx, p.Snapshot()))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpUpdateProfile(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		section, err := req.RequireString("section")
		if err != nil {
			return mcpError("section is required"), nil
		}
		key, err := req.RequireString("key")
		if err != nil {
			return mcpError("key is required"), nil
		}
		value, err := req.RequireString("value")
		if err != nil {
			return mcpError("value is required"), nil
		}

		if err := deps.Profile.Update(section, key, value); err != nil {
			return mcpError(fmt.Sprintf("failed to update profile: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Set %s.%s = %s", section, key, value)), nil
	}
}

func mcpResourceSummary(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		summary, err := deps.Profile.Summary()
		if err != nil {
			return nil, fmt.Errorf("failed to summarize profile: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     summary,
			},
		}, nil
	}
}

func mcpResourceHistory(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if deps.History == nil {
			return nil, fmt.Errorf("fill history is not available")
		}
		fills, err := deps.History.RecentFills(10)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent fills: %w", err)
		}
		b, err := json.Marshal(fills)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal fills: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
