// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Othala's notes to LLM tooling via stdio transport. The AI panels
// only ever consume the flattened-text projection of a note; they never see
// or mutate cell structure.
package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/othala/internal/document"
	"github.com/starford/othala/internal/lint"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/store"
)

// Server wraps the MCP server with Othala tools.
type Server struct {
	mcp *server.MCPServer
	db  *store.DB
}

// New creates a new MCP server with all Othala tools registered.
func New(db *store.DB) *Server {
	s := &Server{db: db}

	s.mcp = server.NewMCPServer(
		"Othala",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List note titles and ids, newest first, optionally scoped to one folder."),
		mcp.WithString("folder", mcp.Description("Optional folder id; \"root\" selects unfiled notes, empty lists everything")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note as flattened plain text: cell contents joined by blank lines."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("lint_note",
		mcp.WithDescription("Run the advisory prose linter over a note's flattened text."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.lintNote)

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

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var notes []models.Note
	var err error

	if f, ferr := req.RequireString("folder"); ferr == nil && f != "" {
		if f == "root" {
			notes, err = s.db.NotesIn(ctx, nil)
		} else {
			notes, err = s.db.NotesIn(ctx, &f)
		}
	} else {
		notes, err = s.db.AllNotes(ctx)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})

	var lines []string
	for _, n := range notes {
		lines = append(lines, fmt.Sprintf("%s\t%s", n.ID, n.Title))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no notes"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.db.GetNote(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(document.Flatten(note)), nil
}

func (s *Server) lintNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.db.GetNote(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}

	issues := lint.Lint(document.Flatten(note))
	if len(issues) == 0 {
		return mcp.NewToolResultText("no issues"), nil
	}
	var lines []string
	for _, is := range issues {
		line := fmt.Sprintf("[%s] %d+%d: %s", is.Severity, is.Index, is.Length, is.Message)
		if is.Suggestion != "" {
			line += " -> " + is.Suggestion
		}
		lines = append(lines, line)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}
