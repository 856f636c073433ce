// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the draft workflow as tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"draftsmith/internal/draft"
	"draftsmith/internal/gitflow"
)

// Server wraps the MCP server with draft and git tools.
type Server struct {
	mcp    *server.MCPServer
	drafts *draft.Service
	git    *gitflow.Engine
}

// New creates a new MCP server with all tools registered.
func New(drafts *draft.Service, git *gitflow.Engine) *Server {
	s := &Server{drafts: drafts, git: git}

	s.mcp = server.NewMCPServer(
		"Draftsmith",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("generate_draft",
		mcp.WithDescription("Create a new Markdown blog draft in the workspace. "+
			"The draft gets YAML frontmatter, the brief and outline as HTML comments, "+
			"a banner slot, and a placeholder body. A name collision creates a "+
			"versioned sibling instead of overwriting."),
		mcp.WithString("emoji", mcp.Required(), mcp.Description("Emoji shown in the frontmatter and the overview heading")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Post title; the file name is derived from it")),
		mcp.WithString("brief", mcp.Required(), mcp.Description("One-paragraph brief embedded as an HTML comment")),
		mcp.WithString("outline", mcp.Required(), mcp.Description("Outline items, one per line")),
		mcp.WithString("categories", mcp.Required(), mcp.Description("Category path segment, e.g. go/web")),
		mcp.WithString("date", mcp.Description("Publication date YYYY-MM-DD (default: today in KST)")),
		mcp.WithString("slug", mcp.Description("URL slug (default: derived from title and categories)")),
	), s.generateDraft)

	s.mcp.AddTool(mcp.NewTool("patch_draft",
		mcp.WithDescription("Write the generated body into an existing draft, either by "+
			"replacing the placeholder comment or by appending."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Draft date YYYY-MM-DD")),
		mcp.WithString("categories", mcp.Required(), mcp.Description("Category path segment of the draft")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Draft title")),
		mcp.WithString("bodyMarkdown", mcp.Required(), mcp.Description("Markdown body to write")),
		mcp.WithString("mode", mcp.Description("replacePlaceholder (default) or append")),
		mcp.WithString("placeholder", mcp.Description("Placeholder text to replace (default: the generation placeholder)")),
	), s.patchDraft)

	s.mcp.AddTool(mcp.NewTool("apply_images",
		mcp.WithDescription("Compute canonical image URLs for the named targets and "+
			"rewrite the draft's slot markers and frontmatter thumbnail."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Draft date YYYY-MM-DD")),
		mcp.WithString("categories", mcp.Required(), mcp.Description("Category path segment of the draft")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Draft title")),
		mcp.WithString("targets", mcp.Required(), mcp.Description("Image targets, one per line, e.g. thumbnail, banner, section-1")),
		mcp.WithString("mode", mcp.Description("replaceSlots (default), insertSlots, or noPatch")),
		mcp.WithString("slotPrefix", mcp.Description("Slot marker prefix (default from config)")),
		mcp.WithString("imageExt", mcp.Description("Image extension: png (default), jpg, or webp")),
		mcp.WithString("baseUrl", mcp.Description("Image URL base (default from config)")),
		mcp.WithBoolean("updateFrontmatterThumbnail", mcp.Description("Rewrite the frontmatter thumbnail for the thumbnail target (default true)")),
	), s.applyImages)

	s.mcp.AddTool(mcp.NewTool("git_push",
		mcp.WithDescription("Stage the given paths on a fresh timestamped branch, commit, "+
			"and push. A no-op when the paths hold no changes."),
		mcp.WithString("commitMessage", mcp.Required(), mcp.Description("Commit message")),
		mcp.WithString("paths", mcp.Required(), mcp.Description("Repository paths to stage, one per line")),
		mcp.WithString("branchPrefix", mcp.Description("Branch name prefix (default from config)")),
	), s.gitPush)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) generateDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	emoji, err := req.RequireString("emoji")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	brief, err := req.RequireString("brief")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outline, err := req.RequireString("outline")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	categories, err := req.RequireString("categories")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.drafts.Generate(ctx, draft.GenerateRequest{
		Emoji:      emoji,
		Title:      title,
		Brief:      brief,
		Outline:    splitLines(outline),
		Categories: categories,
		Date:       req.GetString("date", ""),
		Slug:       req.GetString("slug", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

// splitLines turns a newline separated tool argument into a clean slice.
func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (s *Server) patchDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	categories, err := req.RequireString("categories")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("bodyMarkdown")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.drafts.Patch(ctx, draft.PatchRequest{
		Date:         date,
		Categories:   categories,
		Title:        title,
		BodyMarkdown: body,
		Mode:         draft.PatchMode(req.GetString("mode", "")),
		Placeholder:  req.GetString("placeholder", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) applyImages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	categories, err := req.RequireString("categories")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	targets, err := req.RequireString("targets")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	update := req.GetBool("updateFrontmatterThumbnail", true)
	result, err := s.drafts.ApplyImages(ctx, draft.ImagesRequest{
		Date:                       date,
		Categories:                 categories,
		Title:                      title,
		Targets:                    splitLines(targets),
		Mode:                       draft.ImagesMode(req.GetString("mode", "")),
		SlotPrefix:                 req.GetString("slotPrefix", ""),
		ImageExt:                   req.GetString("imageExt", ""),
		BaseURL:                    req.GetString("baseUrl", ""),
		UpdateFrontmatterThumbnail: &update,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) gitPush(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := req.RequireString("commitMessage")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths, err := req.RequireString("paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.git.Push(ctx, gitflow.PushRequest{
		BranchPrefix:  req.GetString("branchPrefix", ""),
		CommitMessage: message,
		Paths:         splitLines(paths),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
