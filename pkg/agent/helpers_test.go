package agent

import (
	"context"
	"strings"
	"sync"

	"helpdesk/pkg/llm"
)

// scriptClient routes the engine's LLM calls by their system prompt so a
// test can script each judgment independently of the generation flow.
type scriptClient struct {
	mu sync.Mutex

	// nameReply is what the name-extraction call answers ("none" by default).
	nameReply string
	// greetingJSON is the greeting-detection verdict.
	greetingJSON string
	// coherenceJSON is the coherence verdict.
	coherenceJSON string
	// evalJSON is a queue of evaluator verdicts; exhausted means satisfactory.
	evalJSON []string
	// genResponses is a queue of generation responses; the last one repeats
	// once the queue is exhausted.
	genResponses []*llm.ChatResponse
	genErr       error
	// judgmentUsage, when set, is attached to every judgment response so a
	// test can prove those counters never leak into the turn result.
	judgmentUsage *llm.Usage

	// genRequests records every generation call for assertions.
	genRequests []*llm.ChatRequest
}

func (s *scriptClient) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	system := ""
	if len(req.Messages) > 0 {
		system = req.Messages[0].Content
	}

	switch {
	case strings.HasPrefix(system, "Extract the person's name"):
		reply := s.nameReply
		if reply == "" {
			reply = "none"
		}
		return &llm.ChatResponse{Content: reply, Usage: s.judgmentUsage}, nil

	case strings.HasPrefix(system, "Determine if this message is"):
		verdict := s.greetingJSON
		if verdict == "" {
			verdict = `{"is_intro_only": false}`
		}
		return &llm.ChatResponse{Content: verdict, Usage: s.judgmentUsage}, nil

	case strings.HasPrefix(system, "You are evaluating if a customer question is coherent"):
		verdict := s.coherenceJSON
		if verdict == "" {
			verdict = `{"coherent": true}`
		}
		return &llm.ChatResponse{Content: verdict, Usage: s.judgmentUsage}, nil

	case strings.HasPrefix(system, "Evaluate if the answer is satisfactory"):
		if len(s.evalJSON) == 0 {
			return &llm.ChatResponse{Content: `{"satisfactory": true}`, Usage: s.judgmentUsage}, nil
		}
		verdict := s.evalJSON[0]
		s.evalJSON = s.evalJSON[1:]
		return &llm.ChatResponse{Content: verdict, Usage: s.judgmentUsage}, nil
	}

	// Everything else is a generation call
	s.genRequests = append(s.genRequests, req)
	if s.genErr != nil {
		return nil, s.genErr
	}
	if len(s.genResponses) == 0 {
		return &llm.ChatResponse{Content: "Here is your answer."}, nil
	}
	resp := s.genResponses[0]
	if len(s.genResponses) > 1 {
		s.genResponses = s.genResponses[1:]
	}
	return resp, nil
}

func (s *scriptClient) Provider() string { return "script" }

func (s *scriptClient) IsTransientError(err error) bool { return false }

func (s *scriptClient) lastGenRequest() *llm.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.genRequests) == 0 {
		return nil
	}
	return s.genRequests[len(s.genRequests)-1]
}

// toolCallResponse builds a generation response requesting one tool call.
func toolCallResponse(id, name, args string) *llm.ChatResponse {
	return &llm.ChatResponse{
		ToolCalls: []llm.ToolCall{{
			ID:       id,
			Name:     name,
			Function: llm.FunctionCall{Name: name, Arguments: args},
		}},
	}
}
