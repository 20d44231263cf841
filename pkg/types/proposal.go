// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Proposal is the final document combining research, use cases and resources.
type Proposal struct {
	CompanyOrIndustry string    `json:"company_or_industry" yaml:"company_or_industry"`
	Markdown          string    `json:"markdown" yaml:"markdown"`
	GeneratedAt       time.Time `json:"generated_at" yaml:"generated_at"`
}

// ProposalFiles holds the paths of the written proposal documents.
type ProposalFiles struct {
	Markdown string `json:"markdown" yaml:"markdown"`
	HTML     string `json:"html" yaml:"html"`
}

// RunResult is everything produced by one pipeline run.
type RunResult struct {
	RunID     string          `json:"run_id" yaml:"run_id"`
	Subject   Subject         `json:"subject" yaml:"subject"`
	Research  *ResearchResult `json:"research_results" yaml:"research_results"`
	UseCases  *UseCaseResult  `json:"use_case_results" yaml:"use_case_results"`
	Resources *ResourceResult `json:"resource_results" yaml:"resource_results"`
	Proposal  *Proposal       `json:"final_proposal" yaml:"final_proposal"`
	Files     ProposalFiles   `json:"files" yaml:"files"`

	// Published lists where the proposal files were uploaded, if anywhere.
	Published []string `json:"published,omitempty" yaml:"published,omitempty"`
}

// RunStatus tracks a run through the pipeline.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunRecord is the persisted summary of a run.
type RunRecord struct {
	ID                string    `json:"id" yaml:"id"`
	CompanyOrIndustry string    `json:"company_or_industry" yaml:"company_or_industry"`
	Context           string    `json:"context,omitempty" yaml:"context,omitempty"`
	Status            RunStatus `json:"status" yaml:"status"`
	StartedAt         time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt        time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Error             string    `json:"error,omitempty" yaml:"error,omitempty"`
	MarkdownPath      string    `json:"markdown_path,omitempty" yaml:"markdown_path,omitempty"`
	HTMLPath          string    `json:"html_path,omitempty" yaml:"html_path,omitempty"`
	Proposal          string    `json:"proposal,omitempty" yaml:"proposal,omitempty"`
}
