package summaries

import (
	"context"

	"documind-backend/internal/documents"
	"documind-backend/internal/llm"
	"documind-backend/internal/shared/metrics"
)

// DefaultMaxWords is the summary length when the caller does not set one.
const DefaultMaxWords = 500

// Options control a summarization run.
type Options struct {
	MaxWords         int
	IncludeEntities  bool
	IncludeQuestions bool
}

// Result is a summarization outcome. Cached means the stored summary was
// reused rather than regenerated.
type Result struct {
	Document  documents.Document
	Summary   string
	Cached    bool
	Entities  map[string]any
	Questions []string
}

// Service produces and persists document summaries, moving records to
// COMPLETED, plus optional entity extraction and question suggestions.
type Service struct {
	Repo      documents.Repo
	Assistant *llm.Assistant
}

const suggestedQuestionCount = 5

// Summarize returns the document summary, generating and persisting it when
// the record has none. A stored summary is reused without a model call only
// when neither entities nor questions were requested; asking for extras
// regenerates the summary alongside them.
func (s *Service) Summarize(ctx context.Context, userID, documentID string, opts Options) (Result, error) {
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

	if opts.MaxWords <= 0 {
		opts.MaxWords = DefaultMaxWords
	}

	extras := opts.IncludeEntities || opts.IncludeQuestions
	res := Result{Summary: doc.Summary, Cached: doc.Summary != "" && !extras}
	if !res.Cached {
		metrics.IncLLMInvocations()
		summary, err := s.Assistant.Summarize(ctx, doc.ExtractedText, opts.MaxWords)
		if err != nil {
			return Result{}, err
		}
		if err := s.Repo.StoreSummary(ctx, documentID, summary); err != nil {
			return Result{}, err
		}
		res.Summary = summary
	}

	if opts.IncludeEntities {
		metrics.IncLLMInvocations()
		entities, err := s.Assistant.ExtractEntities(ctx, doc.ExtractedText)
		if err != nil {
			return Result{}, err
		}
		res.Entities = entities
	}
	if opts.IncludeQuestions {
		metrics.IncLLMInvocations()
		questions, err := s.Assistant.SuggestQuestions(ctx, doc.ExtractedText, suggestedQuestionCount)
		if err != nil {
			return Result{}, err
		}
		res.Questions = questions
	}

	doc, err = s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Result{}, err
	}
	res.Document = doc
	return res, nil
}
