package queries

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"documind-backend/internal/documents"
	"documind-backend/internal/llm"
	"documind-backend/internal/shared/metrics"
)

// MaxQuestionChars bounds a single question, counted in runes.
const MaxQuestionChars = 1000

// Service answers questions against a document's extracted text and records
// every exchange in the document's history.
type Service struct {
	Repo      documents.Repo
	Assistant *llm.Assistant
}

// Result is one answered question.
type Result struct {
	DocumentID string
	Question   string
	Answer     string
	Confidence string
	Timestamp  time.Time
}

// Ask validates the question, answers it from the document text, and appends
// the exchange to the query history. Validation happens before any store or
// model call.
func (s *Service) Ask(ctx context.Context, userID, documentID, question string) (Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{}, fmt.Errorf("%w: question is required", documents.ErrInvalidInput)
	}
	if utf8.RuneCountInString(question) > MaxQuestionChars {
		return Result{}, fmt.Errorf("%w: question exceeds %d characters", documents.ErrInvalidInput, MaxQuestionChars)
	}

	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Result{}, err
	}
	if !documents.CanAccess(doc, userID) {
		return Result{}, documents.ErrForbidden
	}
	if doc.ExtractedText == "" {
		return Result{}, documents.ErrNotExtracted
	}

	metrics.IncLLMInvocations()
	answer, err := s.Assistant.AnswerQuestion(ctx, doc.ExtractedText, question)
	if err != nil {
		return Result{}, err
	}

	entry := documents.QueryEntry{
		Question:  question,
		Answer:    answer.Text,
		Timestamp: time.Now().UTC(),
	}
	// History records every answer, including low-confidence ones.
	if err := s.Repo.AppendQuery(ctx, documentID, entry); err != nil {
		return Result{}, err
	}

	return Result{
		DocumentID: documentID,
		Question:   question,
		Answer:     answer.Text,
		Confidence: answer.Confidence,
		Timestamp:  entry.Timestamp,
	}, nil
}
