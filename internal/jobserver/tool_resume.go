package jobserver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"resumescout/internal/engine"
	"resumescout/internal/engine/resume"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResumeParseInput accepts either raw resume text or a base64-encoded
// document (PDF, DOCX, or TXT) with its filename.
type ResumeParseInput struct {
	Text       string `json:"text,omitempty"`
	Filename   string `json:"filename,omitempty"`
	DataBase64 string `json:"data_base64,omitempty"`
	Save       bool   `json:"save,omitempty"`
}

// ResumeParseOutput is the parsed record plus the career-field ranking.
type ResumeParseOutput struct {
	ResumeID      int64                  `json:"resume_id,omitempty"`
	Record        engine.ResumeRecord    `json:"record"`
	FieldAffinity []engine.FieldAffinity `json:"field_affinity"`
}

func registerResumeParse(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "resume_parse",
		Description: "Parse a resume (raw text, or a base64-encoded PDF/DOCX/TXT) into structured contact, skills, experience, education and keywords, and rank career fields by affinity. Set save=true to persist the record and get a resume_id for job_search.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ResumeParseInput) (*mcp.CallToolResult, *ResumeParseOutput, error) {
		text := input.Text
		if text == "" {
			if input.DataBase64 == "" {
				return nil, nil, errors.New("either text or data_base64 is required")
			}
			data, err := base64.StdEncoding.DecodeString(input.DataBase64)
			if err != nil {
				return nil, nil, fmt.Errorf("data_base64 is not valid base64: %w", err)
			}
			text, err = resume.ExtractText(engine.RawDocument{Filename: input.Filename, Data: data})
			if err != nil {
				engine.IncrExtractionFailures()
				return nil, nil, err
			}
		}
		engine.IncrUploadRequests()

		rec := resume.ParseResume(text)
		out := &ResumeParseOutput{
			Record:        rec,
			FieldAffinity: resume.ScoreFields(rec),
		}
		if input.Save && deps.Store != nil {
			id, err := deps.Store.SaveResume(ctx, input.Filename, rec)
			if err != nil {
				return nil, nil, err
			}
			out.ResumeID = id
		}
		return nil, out, nil
	})
}
