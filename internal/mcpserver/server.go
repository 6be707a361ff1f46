// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes deck assembly tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/cardsmith/internal/assemble"
	"github.com/starford/cardsmith/internal/models"
	"github.com/starford/cardsmith/internal/storage"
	"github.com/starford/cardsmith/internal/transform"
)

// Server wraps the MCP server with deck assembly tools.
type Server struct {
	mcp        *server.MCPServer
	pipeline   *assemble.Pipeline
	cfg        models.DeckConfig
	exportPath string
}

// New creates a new MCP server with all tools registered. exportPath is
// used by assemble_decks when the caller does not pass one.
func New(pipeline *assemble.Pipeline, cfg models.DeckConfig, exportPath string) *Server {
	s := &Server{pipeline: pipeline, cfg: cfg, exportPath: exportPath}

	s.mcp = server.NewMCPServer(
		"Cardsmith",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_decks",
		mcp.WithDescription("List the deck source files and the remote deck each one fills."),
	), s.listDecks)

	s.mcp.AddTool(mcp.NewTool("preview_deck",
		mcp.WithDescription("Transform one deck source into note payloads without contacting the application. "+
			"Returns the notes and any media diagnostics."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Deck id (file stem) or file name, e.g. verbs or verbs.csv")),
	), s.previewDeck)

	s.mcp.AddTool(mcp.NewTool("assemble_decks",
		mcp.WithDescription("Create the model and every deck, submit all notes and export the master deck package."),
		mcp.WithString("export_path", mcp.Description("Package path on the application host (defaults to the configured path)")),
	), s.assembleDecks)

	s.mcp.AddResource(
		mcp.NewResource("cardsmith://deck-format", "Deck Source Format",
			mcp.WithResourceDescription("Format of deck source files for the configured note model."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDeckFormatResource,
	)

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

type deckEntry struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Deck   string `json:"deck"`
}

func (s *Server) listDecks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sources, err := s.pipeline.ListDecks()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries := make([]deckEntry, 0, len(sources))
	for _, src := range sources {
		id := storage.DeckID(src)
		entries = append(entries, deckEntry{ID: id, Source: src, Deck: s.cfg.QualifiedDeckName(id)})
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

type preview struct {
	Deck        models.DeckUnit        `json:"deck"`
	Diagnostics []transform.Diagnostic `json:"diagnostics"`
}

func (s *Server) previewDeck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	source, err := s.resolveSource(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	unit, diags, err := s.pipeline.BuildDeck(ctx, source)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if diags == nil {
		diags = []transform.Diagnostic{}
	}
	out, _ := json.MarshalIndent(preview{Deck: unit, Diagnostics: diags}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

// resolveSource matches name against deck file names first, then ids.
func (s *Server) resolveSource(name string) (string, error) {
	sources, err := s.pipeline.ListDecks()
	if err != nil {
		return "", err
	}
	for _, src := range sources {
		if src == name {
			return src, nil
		}
	}
	for _, src := range sources {
		if storage.DeckID(src) == name {
			return src, nil
		}
	}
	return "", fmt.Errorf("deck not found: %s", name)
}

type deckResult struct {
	Deck      string `json:"deck"`
	Submitted int    `json:"submitted"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
}

type runResult struct {
	RunID      string         `json:"run_id"`
	State      assemble.State `json:"state"`
	ExportPath string         `json:"export_path"`
	Decks      []deckResult   `json:"decks"`
	Error      string         `json:"error,omitempty"`
}

func (s *Server) assembleDecks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exportPath := s.exportPath
	if v, err := req.RequireString("export_path"); err == nil && v != "" {
		exportPath = v
	}

	report, runErr := s.pipeline.Run(ctx, exportPath)
	res := runResult{RunID: report.RunID, State: report.State, ExportPath: report.ExportPath, Decks: []deckResult{}}
	for _, d := range report.Decks {
		res.Decks = append(res.Decks, deckResult{
			Deck:      d.Deck,
			Submitted: d.Submitted,
			Failed:    d.Failed,
			Error:     d.ErrorString(),
		})
	}
	if runErr != nil {
		res.Error = runErr.Error()
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	if runErr != nil {
		return mcp.NewToolResultError(string(out)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDeckFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "cardsmith://deck-format",
			MIMEType: "text/markdown",
			Text:     DeckFormat(s.cfg),
		},
	}, nil
}
