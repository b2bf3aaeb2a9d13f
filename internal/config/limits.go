package config

const (
	// MaxMessageLength is the maximum length of an inbound user message.
	// Long pastes (a full resume, a job description) fit comfortably; anything
	// larger belongs in a tool, not the prompt.
	MaxMessageLength = 32000

	// MaxIDLength bounds session and agent identifiers.
	// Session ids are UUIDs; agent ids are short slugs.
	MaxIDLength = 64
)
