package agent

import (
	"errors"
	"regexp"
	"strings"
)

const finalAnswerPrefix = "Final Answer:"

var (
	actionRe      = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)
	actionOnlyRe  = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)`)
	actionInputRe = regexp.MustCompile(`(?s)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)
)

// Parse errors are fed back to the model as observations.
var (
	errMissingAction      = errors.New("Invalid Format: Missing 'Action:' after 'Thought:'")
	errMissingActionInput = errors.New("Invalid Format: Missing 'Action Input:' after 'Action:'")
	errIncomplete         = errors.New("Invalid or incomplete response")
	errAnswerAndAction    = errors.New("Invalid Format: Parsing LLM output produced both a final answer and a parse-able action. Give either an Action or a Final Answer")
)

// step is one parsed model turn.
type step struct {
	Thought string
	Tool    string
	Input   string

	// Final is set when the model gave its answer.
	Final    string
	HasFinal bool
}

// parseOutput reads a ReAct turn: either an Action/Action Input pair or a
// Final Answer.
func parseOutput(text string) (step, error) {
	if i := strings.Index(text, "\nObservation:"); i >= 0 {
		text = text[:i]
	}
	includesAnswer := strings.Contains(text, finalAnswerPrefix)

	if m := actionRe.FindStringSubmatchIndex(text); m != nil {
		if includesAnswer {
			return step{}, errAnswerAndAction
		}
		return step{
			Thought: thoughtOf(text[:m[0]]),
			Tool:    strings.TrimSpace(text[m[2]:m[3]]),
			Input:   strings.Trim(strings.TrimSpace(text[m[4]:m[5]]), `"`),
		}, nil
	}

	if includesAnswer {
		i := strings.LastIndex(text, finalAnswerPrefix)
		return step{
			Thought:  thoughtOf(text[:strings.Index(text, finalAnswerPrefix)]),
			Final:    strings.TrimSpace(text[i+len(finalAnswerPrefix):]),
			HasFinal: true,
		}, nil
	}

	if !actionOnlyRe.MatchString(text) {
		return step{}, errMissingAction
	}
	if !actionInputRe.MatchString(text) {
		return step{}, errMissingActionInput
	}
	return step{}, errIncomplete
}

func thoughtOf(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimPrefix(s, "Thought:"))
}
