// Package jobserver exposes the engine as MCP tools for agent clients.
package jobserver

import (
	"resumescout/internal/engine/ats"
	"resumescout/internal/store"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Deps carries the shared state the tool handlers close over.
type Deps struct {
	Store *store.Store
	Agg   *ats.Aggregator
}

// RegisterTools registers every tool on the given MCP server: resume_parse,
// job_search, and the application tracker triple.
func RegisterTools(server *mcp.Server, deps Deps) {
	registerResumeParse(server, deps)
	registerJobSearch(server, deps)
	registerApplicationSave(server, deps)
	registerApplicationList(server, deps)
	registerApplicationUpdate(server, deps)
}
