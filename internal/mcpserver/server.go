// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Fihrist study tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/fihrist/internal/model"
	"github.com/starford/fihrist/internal/quran"
	"github.com/starford/fihrist/internal/search"
	"github.com/starford/fihrist/internal/studyservice"
)

// Server wraps the MCP server with Fihrist tools. All tools act as the
// configured user identity.
type Server struct {
	mcp      *server.MCPServer
	svc      *studyservice.Service
	captures *quran.Service
	userID   string
}

// New creates a new MCP server with all Fihrist tools registered.
func New(svc *studyservice.Service, captures *quran.Service, userID string) *Server {
	s := &Server{svc: svc, captures: captures, userID: userID}

	s.mcp = server.NewMCPServer(
		"Fihrist",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_entities",
		mcp.WithDescription("Search study entities (words, roots, verses, hadith, notes, ...) "+
			"by Arabic text, transliteration, root pattern, or reference string. "+
			"Arabic queries match regardless of diacritics."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query (Arabic, Latin, root pattern like k-t-b, or a reference like 2:255)")),
		mcp.WithString("kinds", mcp.Description("Optional comma-separated kind filter (e.g. word,root)")),
	), s.searchEntities)

	s.mcp.AddTool(mcp.NewTool("read_entity",
		mcp.WithDescription("Read one entity in full, including its backlinks and cross-reference links."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Entity kind (word, root, verse, hadith, note, ...)")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entity id")),
	), s.readEntity)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes whose rich text references the given entity."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Target entity kind")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Target entity id")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_links",
		mcp.WithDescription("List an entity's cross-reference links in both directions, "+
			"with the far-side entity hydrated where it still exists."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Entity kind")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entity id")),
	), s.getLinks)

	s.mcp.AddTool(mcp.NewTool("find_overlapping_captures",
		mcp.WithDescription("Find saved verse captures whose ayah range intersects the given range."),
		mcp.WithNumber("surah", mcp.Required(), mcp.Description("Surah number (1-114)")),
		mcp.WithNumber("ayah_start", mcp.Required(), mcp.Description("First ayah of the range")),
		mcp.WithNumber("ayah_end", mcp.Description("Last ayah of the range (omit for a single ayah)")),
	), s.findOverlappingCaptures)

	s.mcp.AddTool(mcp.NewTool("get_doc_contract",
		mcp.WithDescription("Returns the canonical rich-text document format for note entities. "+
			"Call this before writing note docs to ensure references are extracted."),
	), s.getDocContract)

	// Resource: note document format contract.
	s.mcp.AddResource(
		mcp.NewResource("fihrist://doc-format", "Note Document Contract",
			mcp.WithResourceDescription("Canonical rich-text document format for note entities."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocFormatResource,
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

func (s *Server) searchEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var filters *search.Filters
	if raw := req.GetString("kinds", ""); raw != "" {
		f := &search.Filters{}
		for _, part := range strings.Split(raw, ",") {
			kind := model.Kind(strings.TrimSpace(part))
			if !kind.Valid() {
				return mcp.NewToolResultError(fmt.Sprintf("unknown kind: %s", kind)), nil
			}
			f.Kinds = append(f.Kinds, kind)
		}
		filters = f
	}

	results, err := s.svc.Search(ctx, s.userID, query, filters)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) entityRef(req mcp.CallToolRequest) (model.Ref, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return model.Ref{}, err
	}
	id, err := req.RequireString("id")
	if err != nil {
		return model.Ref{}, err
	}
	return model.Ref{Kind: model.Kind(kind), ID: id}, nil
}

func (s *Server) readEntity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := s.entityRef(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetEntity(ctx, s.userID, ref)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", ref.Key())), nil
	}
	out, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := s.entityRef(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Graph().BacklinksFor(s.userID, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	var lines []string
	for _, b := range bl {
		line := b.NoteID
		if b.DisplayText != "" {
			line += " (" + b.DisplayText + ")"
		}
		lines = append(lines, line)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := s.entityRef(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	links, err := s.svc.Graph().LinksFor(s.userID, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(links, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) findOverlappingCaptures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	surah, err := req.RequireInt("surah")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ayahStart, err := req.RequireInt("ayah_start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ayahEnd := req.GetInt("ayah_end", 0)

	captures, err := s.captures.FindOverlapping(s.userID, surah, ayahStart, ayahEnd)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(captures) == 0 {
		return mcp.NewToolResultText("no overlapping captures"), nil
	}
	out, _ := json.MarshalIndent(captures, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocFormatContract), nil
}

func (s *Server) readDocFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "fihrist://doc-format",
			MIMEType: "text/markdown",
			Text:     DocFormatContract,
		},
	}, nil
}
