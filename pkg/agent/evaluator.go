package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"helpdesk/pkg/llm"
)

// Evaluator judges whether a drafted answer is good enough to ship.
// Like the classifier it is fail-open: an evaluation error accepts the
// draft rather than blocking the turn.
type Evaluator struct {
	client llm.Client
}

// NewEvaluator creates an evaluator on the given completion client.
func NewEvaluator(client llm.Client) *Evaluator {
	return &Evaluator{client: client}
}

// Evaluate returns whether the answer is satisfactory and, when it is
// not, the reason to feed back into regeneration.
func (e *Evaluator) Evaluate(ctx context.Context, question, answer string, toolsCalled []string) (bool, string) {
	toolsUsed := "none"
	if len(toolsCalled) > 0 {
		toolsUsed = strings.Join(toolsCalled, ", ")
	}

	resp, err := e.client.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{
			llm.NewSystemMessage(`Evaluate if the answer is satisfactory. Check:
1. Does it directly address the question?
2. Is it helpful and informative?
3. Is it polite and professional?
4. Does it avoid making up information?

IMPORTANT: If the question was just a greeting/introduction, the answer should be a warm welcome - that's satisfactory.

Return JSON: {"satisfactory": true/false, "reason": "why not satisfactory if false"}
If satisfactory=false, provide a brief reason.`),
			llm.NewUserMessage(fmt.Sprintf("Question: %s\n\nAnswer: %s\n\nTools used: %s", question, answer, toolsUsed)),
		},
		JSONOnly:    true,
		Temperature: &classifierTemperature,
	})
	if err != nil {
		slog.Debug("Answer evaluation failed, accepting draft", "error", err)
		return true, ""
	}

	var verdict struct {
		Satisfactory bool   `json:"satisfactory"`
		Reason       string `json:"reason"`
	}
	verdict.Satisfactory = true // absent field accepts the draft
	if err := json.Unmarshal([]byte(resp.Content), &verdict); err != nil {
		return true, ""
	}

	return verdict.Satisfactory, verdict.Reason
}
