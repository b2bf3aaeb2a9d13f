package tools

// ToolConfig centralizes configuration for the built-in tools.
type ToolConfig struct {
	// Job search tool configuration
	JobSearchDefaultLimit int // Default number of postings returned
	JobSearchMaxLimit     int // Maximum allowed postings per call

	// JobBoardDomains restricts job searches to these sites
	JobBoardDomains []string
}

// DefaultToolConfig returns the default tool configuration.
func DefaultToolConfig() *ToolConfig {
	return &ToolConfig{
		JobSearchDefaultLimit: 5,
		JobSearchMaxLimit:     15,
		JobBoardDomains: []string{
			"indeed.com",
			"linkedin.com",
			"glassdoor.com",
			"boards.greenhouse.io",
			"jobs.lever.co",
			"wellfound.com",
		},
	}
}
