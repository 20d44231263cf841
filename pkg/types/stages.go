// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AgentStep records one tool invocation made by an agent while working on
// its task.
type AgentStep struct {
	// Thought is the reasoning the model gave before choosing the action.
	Thought string `json:"thought,omitempty" yaml:"thought,omitempty"`

	// Tool is the name of the tool the agent called.
	Tool string `json:"tool" yaml:"tool"`

	// Input is the raw tool input the agent supplied.
	Input string `json:"input" yaml:"input"`

	// Observation is the tool output fed back to the agent.
	Observation string `json:"observation" yaml:"observation"`
}

// ResearchResult is the output of the industry research stage.
type ResearchResult struct {
	CompanyOrIndustry string `json:"company_or_industry" yaml:"company_or_industry"`

	// Research is the structured report in Markdown.
	Research string `json:"research" yaml:"research"`

	Steps []AgentStep `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// Complexity rates how hard a use case is to implement.
type Complexity string

const (
	ComplexityUnknown Complexity = ""
	ComplexityLow     Complexity = "low"
	ComplexityMedium  Complexity = "medium"
	ComplexityHigh    Complexity = "high"
)

// UseCase is one proposed AI/ML/GenAI application parsed from the use case
// stage's Markdown.
type UseCase struct {
	Title       string     `json:"title" yaml:"title"`
	Category    string     `json:"category,omitempty" yaml:"category,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Complexity  Complexity `json:"complexity,omitempty" yaml:"complexity,omitempty"`
}

// UseCaseResult is the output of the use case generation stage.
type UseCaseResult struct {
	CompanyOrIndustry string `json:"company_or_industry" yaml:"company_or_industry"`

	// UseCases is the categorized, prioritized list in Markdown.
	UseCases string `json:"use_cases" yaml:"use_cases"`

	// Parsed holds the use cases recovered from UseCases. It may be empty
	// when the model's Markdown does not follow a heading structure.
	Parsed []UseCase `json:"parsed,omitempty" yaml:"parsed,omitempty"`

	Steps []AgentStep `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// LinkStatus reports the result of checking a resource link.
type LinkStatus string

const (
	LinkUnchecked LinkStatus = "unchecked"
	LinkOK        LinkStatus = "ok"
	LinkBroken    LinkStatus = "broken"
)

// Link is a URL found in the resource stage's Markdown.
type Link struct {
	URL        string     `json:"url" yaml:"url"`
	Text       string     `json:"text,omitempty" yaml:"text,omitempty"`
	Status     LinkStatus `json:"status" yaml:"status"`
	StatusCode int        `json:"status_code,omitempty" yaml:"status_code,omitempty"`
}

// ResourceResult is the output of the resource collection stage.
type ResourceResult struct {
	CompanyOrIndustry string `json:"company_or_industry" yaml:"company_or_industry"`

	// UseCases is carried forward from the use case stage.
	UseCases string `json:"use_cases" yaml:"use_cases"`

	// Resources is the resource list organized by use case, in Markdown.
	Resources string `json:"resources" yaml:"resources"`

	Links []Link `json:"links,omitempty" yaml:"links,omitempty"`

	Steps []AgentStep `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// BrokenLinks returns the links whose check failed.
func (r *ResourceResult) BrokenLinks() []Link {
	var out []Link
	for _, l := range r.Links {
		if l.Status == LinkBroken {
			out = append(out, l)
		}
	}
	return out
}
