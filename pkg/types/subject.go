// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the usecase-engine pipeline:
// the subject a run is about, the output of each agent stage, the final
// proposal, run history records, and configuration.
package types

import "strings"

// Subject is the user input that starts a run: the company or industry to
// analyze and optional free-form context (goals, constraints, focus areas).
type Subject struct {
	// CompanyOrIndustry names the company or industry (e.g. "Tesla", "Healthcare").
	CompanyOrIndustry string `json:"company_or_industry" yaml:"company_or_industry" validate:"required,max=200"`

	// Context carries additional requirements passed to every agent.
	Context string `json:"context,omitempty" yaml:"context,omitempty" validate:"max=4000"`
}

// Normalize trims surrounding whitespace from both fields.
func (s Subject) Normalize() Subject {
	return Subject{
		CompanyOrIndustry: strings.TrimSpace(s.CompanyOrIndustry),
		Context:           strings.TrimSpace(s.Context),
	}
}
