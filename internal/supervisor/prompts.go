package supervisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shieldops/shieldops/internal/core"
)

// classificationDecision is the schema the decision client must fill when
// refining a classification.
type classificationDecision struct {
	EventType  string  `json:"event_type"`
	TaskType   string  `json:"task_type"`
	Priority   string  `json:"priority"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func (d classificationDecision) toRuleClassification() core.RuleClassification {
	return core.RuleClassification{
		EventType:  d.EventType,
		TaskType:   d.TaskType,
		Priority:   d.Priority,
		Confidence: d.Confidence,
		Reasoning:  d.Reasoning,
	}
}

// chainDecision is the schema the decision client must fill when refining a
// chain decision.
type chainDecision struct {
	ShouldChain   bool   `json:"should_chain"`
	ChainTaskType string `json:"chain_task_type"`
	Reasoning     string `json:"reasoning"`
}

func (d chainDecision) toSuggestion() core.ChainSuggestion {
	return core.ChainSuggestion{
		ShouldChain:   d.ShouldChain,
		ChainTaskType: d.ChainTaskType,
		Reasoning:     d.Reasoning,
	}
}

const classificationSystemPrompt = `You are the triage brain of an operations platform.
Classify the incoming operational event and choose which specialist agent should handle it.
Respond with a single JSON object matching this schema:
{"event_type": string, "task_type": string, "priority": "low"|"medium"|"high"|"critical", "confidence": number between 0 and 1, "reasoning": string}
task_type must be one of the supported types listed in the user message. No prose outside the JSON object.`

const chainSystemPrompt = `You are the follow-up planner of an operations platform.
Given a finished task and its result, decide whether a follow-up task is warranted.
Respond with a single JSON object matching this schema:
{"should_chain": boolean, "chain_task_type": string, "reasoning": string}
chain_task_type must be one of the supported types listed in the user message, or "none" when should_chain is false. No prose outside the JSON object.`

// classificationUserPrompt builds the refinement prompt from the raw event
// and the rule-based suggestion being second-guessed.
func classificationUserPrompt(event core.Event, rule core.RuleClassification) string {
	var b strings.Builder
	b.WriteString("Supported task types: ")
	b.WriteString(taskTypeList())
	b.WriteString("\n\nEvent:\n")
	writeJSON(&b, event)
	fmt.Fprintf(&b, "\n\nRule-based suggestion (confidence %.2f): task_type=%s priority=%s\nReasoning: %s\n",
		rule.Confidence, rule.TaskType, rule.Priority, rule.Reasoning)
	b.WriteString("\nProvide a more precise classification.")
	return b.String()
}

// chainUserPrompt builds the refinement prompt from the finished task and the
// rule-based chain suggestion.
func chainUserPrompt(task *core.DelegatedTask, rule core.ChainSuggestion) string {
	var b strings.Builder
	b.WriteString("Supported task types: ")
	b.WriteString(taskTypeList())
	fmt.Fprintf(&b, "\n\nFinished task: id=%s type=%s agent=%s status=%s\n",
		task.TaskID, task.TaskType, task.AgentName, task.Status)
	b.WriteString("Result:\n")
	writeJSON(&b, task.Result)
	fmt.Fprintf(&b, "\n\nRule-based suggestion: should_chain=%t chain_task_type=%s\nReasoning: %s\n",
		rule.ShouldChain, rule.ChainTaskType, rule.Reasoning)
	b.WriteString("\nDecide whether a follow-up task is warranted.")
	return b.String()
}

func taskTypeList() string {
	types := core.TaskTypes()
	names := make([]string, len(types))
	for i, tt := range types {
		names[i] = string(tt)
	}
	return strings.Join(names, ", ")
}

func writeJSON(b *strings.Builder, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(b, "%v", v)
		return
	}
	b.Write(data)
}
