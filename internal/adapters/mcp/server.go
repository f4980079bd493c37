package mcpadapter

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/medref-rag/internal/core/ports"
)

const (
	ToolRetrievePages = "retrieve_pages"
	ToolCorpusInfo    = "corpus_info"
)

type handlers struct {
	retriever ports.Retriever
	reloader  ports.CorpusReloader
}

// NewServer exposes retrieval and snapshot info as MCP tools.
func NewServer(version string, retriever ports.Retriever, reloader ports.CorpusReloader) *server.MCPServer {
	h := &handlers{retriever: retriever, reloader: reloader}
	s := server.NewMCPServer("medref-rag", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool(ToolRetrievePages,
		mcp.WithDescription("Selects the textbook pages that answer a clinical question and returns them as citable context."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("question",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.MaxLength(4000),
			mcp.Description("Question in Portuguese, e.g. \"dose de adrenalina na PCR\""),
		),
	), h.retrievePages)

	s.AddTool(mcp.NewTool(ToolCorpusInfo,
		mcp.WithDescription("Reports the corpus snapshot currently served."),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.corpusInfo)

	return s
}

func (h *handlers) retrievePages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return mcp.NewToolResultError("question is required"), nil
	}
	result, err := h.retriever.Retrieve(ctx, question)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("retrieval failed", err), nil
	}
	return mcp.NewToolResultJSON(result)
}

func (h *handlers) corpusInfo(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := h.reloader.Info()
	if err != nil {
		return mcp.NewToolResultErrorFromErr("corpus unavailable", err), nil
	}
	return mcp.NewToolResultJSON(info)
}
