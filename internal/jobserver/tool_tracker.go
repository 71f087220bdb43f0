package jobserver

import (
	"context"
	"errors"

	"resumescout/internal/engine"
	"resumescout/internal/store"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ApplicationSaveInput saves one listing from job_search results.
type ApplicationSaveInput struct {
	Job engine.JobListing `json:"job"`
}

// ApplicationSaveOutput returns the tracker row id.
type ApplicationSaveOutput struct {
	ApplicationID int64 `json:"application_id"`
}

// ApplicationListInput filters the tracker.
type ApplicationListInput struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// ApplicationListOutput is the tracker listing.
type ApplicationListOutput struct {
	Applications []store.Application `json:"applications"`
	Total        int                 `json:"total"`
}

// ApplicationUpdateInput changes status and/or notes by row id.
type ApplicationUpdateInput struct {
	ID     int64  `json:"id"`
	Status string `json:"status,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

func registerApplicationSave(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_save",
		Description: "Save a job listing from job_search to the local application tracker with status 'saved'. Saving the same listing again returns the existing ID.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ApplicationSaveInput) (*mcp.CallToolResult, *ApplicationSaveOutput, error) {
		id, err := deps.Store.SaveApplication(ctx, input.Job)
		if err != nil {
			return nil, nil, err
		}
		return nil, &ApplicationSaveOutput{ApplicationID: id}, nil
	})
}

func registerApplicationList(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_list",
		Description: "List saved job applications, most recently updated first. Optionally filter by status: saved, applied, in_progress, rejected.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ApplicationListInput) (*mcp.CallToolResult, *ApplicationListOutput, error) {
		apps, err := deps.Store.ListApplications(ctx, input.Status, input.Limit)
		if err != nil {
			return nil, nil, err
		}
		return nil, &ApplicationListOutput{Applications: apps, Total: len(apps)}, nil
	})
}

func registerApplicationUpdate(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_update",
		Description: "Update status or notes of a saved application by ID. Status options: saved, applied, in_progress, rejected. Get IDs from application_list.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ApplicationUpdateInput) (*mcp.CallToolResult, *ApplicationSaveOutput, error) {
		if input.ID <= 0 {
			return nil, nil, errors.New("id is required")
		}
		if err := deps.Store.UpdateApplication(ctx, input.ID, input.Status, input.Notes); err != nil {
			return nil, nil, err
		}
		return nil, &ApplicationSaveOutput{ApplicationID: input.ID}, nil
	})
}
