package agent

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"helpdesk/pkg/llm"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// classifierTemperature keeps the judgment calls near-deterministic.
var classifierTemperature = 0.3

// Classifier runs the cheap per-turn judgment calls: name extraction,
// greeting detection and coherence checking. Every call is fail-open --
// a provider error never blocks the turn, it just skips the refinement.
type Classifier struct {
	client llm.Client
}

// NewClassifier creates a classifier on the given completion client.
func NewClassifier(client llm.Client) *Classifier {
	return &Classifier{client: client}
}

// ExtractName pulls a person's name out of free text. Returns "" when no
// name is present or the extraction call fails.
func (c *Classifier) ExtractName(ctx context.Context, text string) string {
	resp, err := c.client.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{
			llm.NewSystemMessage("Extract the person's name from the text. Return only the name, or 'none' if no name is found."),
			llm.NewUserMessage(text),
		},
		Temperature: &classifierTemperature,
	})
	if err != nil {
		slog.Debug("Name extraction failed", "error", err)
		return ""
	}

	name := strings.ToLower(strings.TrimSpace(resp.Content))
	if name == "" || name == "none" {
		return ""
	}
	if n := utf8.RuneCountInString(name); n <= 1 || n >= 50 {
		return ""
	}

	// Capitalize first letter of each word
	words := strings.Fields(name)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// IsGreetingOnly reports whether the message is only a greeting or
// introduction with no actual question or request.
func (c *Classifier) IsGreetingOnly(ctx context.Context, message string) bool {
	resp, err := c.client.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{
			llm.NewSystemMessage(`Determine if this message is:
1. Just a greeting or introduction (e.g., "Hi", "Hello", "I'm John", "Hi there, I am Joshua")
2. A greeting/introduction WITH a question or request (e.g., "Hi, I need a printer")

Return JSON: {"is_intro_only": true/false}
Only return true if it's ONLY a greeting/introduction with no question or request.`),
			llm.NewUserMessage(message),
		},
		JSONOnly:    true,
		Temperature: &classifierTemperature,
	})
	if err != nil {
		return greetingHeuristic(message)
	}

	var verdict struct {
		IsIntroOnly bool `json:"is_intro_only"`
	}
	if err := json.Unmarshal([]byte(resp.Content), &verdict); err != nil {
		return greetingHeuristic(message)
	}
	return verdict.IsIntroOnly
}

// greetingHeuristic is the fallback when the LLM verdict is unavailable:
// a short message with a greeting pattern and no question words.
func greetingHeuristic(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))

	greetingPatterns := []string{"hi there", "hello", "hey", "hi, i am", "i am", "i'm", "my name is"}
	hasGreeting := false
	for _, pattern := range greetingPatterns {
		if strings.Contains(lower, pattern) {
			hasGreeting = true
			break
		}
	}

	questionWords := []string{"?", "what", "which", "how", "can you", "need", "want", "looking for"}
	hasQuestion := false
	for _, word := range questionWords {
		if strings.Contains(lower, word) {
			hasQuestion = true
			break
		}
	}

	return hasGreeting && !hasQuestion && len(strings.Fields(message)) < 15
}

// defaultClarification is used when the model flags an incoherent
// question but offers no clarifying prompt of its own.
const defaultClarification = "Could you please rephrase your question? I want to make sure I understand what you're looking for."

// CheckCoherence reports whether the question is understandable. When it
// is not, the second return value carries the clarification to send back.
// Evaluation failures assume coherent so the turn proceeds.
func (c *Classifier) CheckCoherence(ctx context.Context, question string) (bool, string) {
	resp, err := c.client.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{
			llm.NewSystemMessage(`You are evaluating if a customer question is coherent and understandable.

A question is INCOHERENT if:
- It's just random characters or gibberish (e.g., "asdfghjkl")
- It makes no grammatical sense
- It's completely unclear what the customer is asking

A question is COHERENT if:
- It's a real question, even if vague
- It asks for product recommendations, information, or help
- It's understandable, even if you need to ask follow-up questions

Return JSON: {"coherent": true/false, "clarification": "what to ask if incoherent"}
Only mark as incoherent if it's truly gibberish or completely unclear.`),
			llm.NewUserMessage(question),
		},
		JSONOnly:    true,
		Temperature: &classifierTemperature,
	})
	if err != nil {
		slog.Debug("Coherence check failed, assuming coherent", "error", err)
		return true, ""
	}

	var verdict struct {
		Coherent      bool   `json:"coherent"`
		Clarification string `json:"clarification"`
	}
	// Missing fields default to coherent, matching the fail-open posture
	verdict.Coherent = true
	if err := json.Unmarshal([]byte(resp.Content), &verdict); err != nil {
		return true, ""
	}

	if !verdict.Coherent {
		if verdict.Clarification == "" {
			verdict.Clarification = defaultClarification
		}
		return false, verdict.Clarification
	}
	return true, ""
}
