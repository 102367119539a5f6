package transform

import "github.com/mdcomp/mdcomp/frontmatter"

// Result holds the output of a transform.
type Result struct {
	Code string `json:"code"`
	// Bypassed is set when the identifier does not name a markdown document
	// and Code is the untouched input.
	Bypassed bool                  `json:"bypassed,omitempty"`
	Metadata *frontmatter.Metadata `json:"metadata,omitempty"`
	Warnings []Warning             `json:"warnings,omitempty"`
}

// WarningType categorizes transform warnings.
type WarningType string

const (
	WarningInvalidFrontMatter WarningType = "invalid_frontmatter"
)

// Warning represents a non-fatal issue encountered during a transform.
type Warning struct {
	Type    WarningType `json:"type"`
	Message string      `json:"message"`
}
