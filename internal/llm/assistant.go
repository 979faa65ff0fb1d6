package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"documind-backend/internal/shared/util"
)

const questionInputLimit = 3000 // runes

// Answer carries a model response plus a coarse confidence label derived
// from the answer's own wording.
type Answer struct {
	Text       string
	Confidence string // "high", "medium", or "low"
}

// Assistant layers document operations over a raw completion client.
type Assistant struct {
	Client Client
}

// NewAssistant wraps a completion client.
func NewAssistant(client Client) *Assistant {
	return &Assistant{Client: client}
}

// Summarize produces a summary of roughly maxWords words.
func (a *Assistant) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	if maxWords <= 0 {
		maxWords = 500
	}
	out, err := a.Client.Complete(ctx, Request{
		System:      documentSystemPrompt,
		Prompt:      summarizePrompt(text, maxWords),
		MaxTokens:   1500,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// AnswerQuestion answers a question against the document text and labels
// the answer with a lexical confidence estimate.
func (a *Assistant) AnswerQuestion(ctx context.Context, text, question string) (Answer, error) {
	out, err := a.Client.Complete(ctx, Request{
		System:      documentSystemPrompt,
		Prompt:      answerPrompt(text, question),
		MaxTokens:   1000,
		Temperature: 0.2,
	})
	if err != nil {
		return Answer{}, err
	}
	out = strings.TrimSpace(out)
	return Answer{Text: out, Confidence: classifyConfidence(out)}, nil
}

// classifyConfidence grades an answer by its hedging language. The model is
// instructed to say "couldn't find" when the document lacks the answer, so
// that phrasing maps to low.
func classifyConfidence(answer string) string {
	lower := strings.ToLower(answer)
	if strings.Contains(lower, "couldn't find") || strings.Contains(lower, "could not find") || strings.Contains(lower, "not found") {
		return "low"
	}
	if strings.Contains(lower, "may ") || strings.Contains(lower, "might ") {
		return "medium"
	}
	return "high"
}

// ExtractEntities asks for named entities as JSON. When the model response
// cannot be parsed, the raw text is returned under "raw_response" instead of
// failing the request.
func (a *Assistant) ExtractEntities(ctx context.Context, text string) (map[string]any, error) {
	out, err := a.Client.Complete(ctx, Request{
		System:      documentSystemPrompt,
		Prompt:      entitiesPrompt(text),
		MaxTokens:   1000,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}
	if parsed, ok := parseEntityJSON(out); ok {
		return parsed, nil
	}
	return map[string]any{"raw_response": strings.TrimSpace(out)}, nil
}

// parseEntityJSON pulls the outermost JSON object out of a response that may
// be wrapped in prose or code fences.
func parseEntityJSON(out string) (map[string]any, bool) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(out[start:end+1]), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

var questionLinePattern = regexp.MustCompile(`^(?:\d+[.)]|[-*•])\s*(.+)$`)

// SuggestQuestions generates up to n reader questions for the document. The
// input is truncated so question generation stays cheap on large documents.
func (a *Assistant) SuggestQuestions(ctx context.Context, text string, n int) ([]string, error) {
	if n <= 0 {
		n = 5
	}
	input := util.TruncateRunes(text, questionInputLimit)
	out, err := a.Client.Complete(ctx, Request{
		System:      documentSystemPrompt,
		Prompt:      questionsPrompt(input, n),
		MaxTokens:   500,
		Temperature: 0.5,
	})
	if err != nil {
		return nil, err
	}
	return parseQuestionList(out, n), nil
}

func parseQuestionList(out string, n int) []string {
	var questions []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := questionLinePattern.FindStringSubmatch(line); m != nil {
			line = strings.TrimSpace(m[1])
		} else if !strings.HasSuffix(line, "?") {
			continue
		}
		if line == "" {
			continue
		}
		questions = append(questions, line)
		if len(questions) == n {
			break
		}
	}
	return questions
}
