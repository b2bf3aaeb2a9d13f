package tools

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"jobhunter/internal/domain/models/agent"
	svc "jobhunter/internal/domain/services/agent"
	"jobhunter/internal/service/agent/tools/external"
)

// JobSearchToolName is the registry name of the job search tool.
const JobSearchToolName = "search_jobs"

// snippetPolicy strips all markup; search backends often return raw HTML
// fragments in titles and snippets.
var snippetPolicy = bluemonday.StrictPolicy()

// JobSearchTool implements the 'search_jobs' tool: a web search restricted to
// job boards through the SearchClient abstraction.
type JobSearchTool struct {
	client external.SearchClient
	config *ToolConfig
}

// NewJobSearchTool creates a new JobSearchTool instance.
func NewJobSearchTool(client external.SearchClient, config *ToolConfig) *JobSearchTool {
	if config == nil {
		config = DefaultToolConfig()
	}
	return &JobSearchTool{
		client: client,
		config: config,
	}
}

// Spec implements ToolHandler.
func (t *JobSearchTool) Spec() svc.ToolSpec {
	return svc.ToolSpec{
		Name:        JobSearchToolName,
		Description: "Search job boards for open positions. Returns postings with title, url and a snippet.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Role, skills or company to search for",
				},
				"location": map[string]any{
					"type":        "string",
					"description": "City, region or country",
				},
				"remote": map[string]any{
					"type":        "boolean",
					"description": "Only remote positions",
				},
				"max_results": map[string]any{
					"type":        "integer",
					"description": fmt.Sprintf("Maximum postings to return (default %d, max %d)", t.config.JobSearchDefaultLimit, t.config.JobSearchMaxLimit),
				},
			},
			"required": []string{"query"},
		},
	}
}

// Invoke implements ToolHandler.
// Input parameters:
//   - query (string, required)
//   - location (string, optional)
//   - remote (bool, optional)
//   - max_results (integer, optional)
func (t *JobSearchTool) Invoke(ctx context.Context, input map[string]any) (agent.ToolResult, error) {
	query, ok := input["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return agent.ToolResult{
			Success: false,
			Error:   "missing required parameter: query (string)",
		}, nil
	}

	terms := []string{strings.TrimSpace(query), "jobs"}
	if location, ok := input["location"].(string); ok && strings.TrimSpace(location) != "" {
		terms = append(terms, "in", strings.TrimSpace(location))
	}
	if remote, ok := input["remote"].(bool); ok && remote {
		terms = append(terms, "remote")
	}

	maxResults := t.config.JobSearchDefaultLimit
	if maxVal, exists := input["max_results"]; exists {
		if maxFloat, ok := maxVal.(float64); ok {
			maxResults = min(max(int(maxFloat), 1), t.config.JobSearchMaxLimit)
		}
	}

	response, err := t.client.Search(ctx, strings.Join(terms, " "), external.SearchOptions{
		MaxResults:     maxResults,
		IncludeDomains: t.config.JobBoardDomains,
	})
	if err != nil {
		return agent.ToolResult{}, fmt.Errorf("job search failed: %w", err)
	}

	postings := make([]map[string]any, len(response.Results))
	for i, result := range response.Results {
		posting := map[string]any{
			"title":   plainText(result.Title),
			"url":     result.URL,
			"snippet": plainText(result.Snippet),
		}
		if result.PublishedAt != nil {
			posting["published_at"] = result.PublishedAt.Format("2006-01-02")
		}
		postings[i] = posting
	}

	return agent.ToolResult{
		Success: true,
		Data:    postings,
		Message: fmt.Sprintf("found %d postings for %q", len(postings), response.Query),
	}, nil
}

func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(snippetPolicy.Sanitize(s)))
}
