package mcpserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/store"
	"github.com/starford/othala/internal/testutil"
)

func testServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	db := testutil.TestDB(t)
	return New(db), db
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so we invoke the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "lint_note":
		result, err = srv.lintNote(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func put(t *testing.T, db *store.DB, n models.Note) models.Note {
	t.Helper()
	stored, err := db.PutNote(context.Background(), n)
	if err != nil {
		t.Fatal(err)
	}
	return stored
}

func TestReadNote(t *testing.T) {
	srv, db := testServer(t)
	put(t, db, models.Note{ID: "n1", Title: "Test", Cells: []models.Cell{
		{ID: "c1", Type: models.CellMarkdown, Content: "alpha"},
		{ID: "c2", Type: models.CellCode, Content: "beta"},
	}})

	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "n1"})
	if got := resultText(r); got != "alpha\n\nbeta" {
		t.Errorf("read result = %q", got)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestListNotes(t *testing.T) {
	srv, db := testServer(t)

	f1 := "f1"
	put(t, db, models.Note{ID: "n1", Title: "Unfiled"})
	// Timestamps have millisecond resolution; keep the ordering unambiguous.
	time.Sleep(5 * time.Millisecond)
	put(t, db, models.Note{ID: "n2", Title: "Filed", FolderID: &f1})

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "n1\tUnfiled") || !strings.Contains(text, "n2\tFiled") {
		t.Errorf("list = %q", text)
	}

	// Newest update first.
	lines := strings.Split(text, "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "n2") {
		t.Errorf("order = %q", text)
	}

	r = callTool(t, srv, "list_notes", map[string]interface{}{"folder": "root"})
	if got := resultText(r); strings.Contains(got, "n2") || !strings.Contains(got, "n1") {
		t.Errorf("root list = %q", got)
	}

	r = callTool(t, srv, "list_notes", map[string]interface{}{"folder": "f1"})
	if got := resultText(r); strings.Contains(got, "n1") || !strings.Contains(got, "n2") {
		t.Errorf("folder list = %q", got)
	}
}

func TestListNotesEmpty(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	if got := resultText(r); got != "no notes" {
		t.Errorf("empty list = %q", got)
	}
}

func TestLintNote(t *testing.T) {
	srv, db := testServer(t)
	put(t, db, models.Note{ID: "n1", Title: "n", Cells: []models.Cell{
		{ID: "c1", Type: models.CellMarkdown, Content: "This is basically done."},
	}})

	r := callTool(t, srv, "lint_note", map[string]interface{}{"id": "n1"})
	text := resultText(r)
	if !strings.Contains(text, "[warning]") || !strings.Contains(text, "basically") {
		t.Errorf("lint = %q", text)
	}

	put(t, db, models.Note{ID: "n2", Title: "clean", Cells: []models.Cell{
		{ID: "c2", Type: models.CellMarkdown, Content: "All good here."},
	}})
	r = callTool(t, srv, "lint_note", map[string]interface{}{"id": "n2"})
	if got := resultText(r); got != "no issues" {
		t.Errorf("clean lint = %q", got)
	}
}
