package usecase

import (
	"errors"
	"log/slog"

	"NewsClassifier/internal/classifier"
	"NewsClassifier/internal/domain"
)

// ClassificationService is the facade ingestion uses to label new items.
type ClassificationService struct {
	handle *classifier.Handle
	logger *slog.Logger
}

// NewClassificationService wraps the model handle shared with the retrainer.
func NewClassificationService(handle *classifier.Handle, logger *slog.Logger) *ClassificationService {
	return &ClassificationService{handle: handle, logger: logger}
}

// Classify never fails: while no model is fitted it returns domain.DefaultClassification.
func (s *ClassificationService) Classify(title, summary string) domain.Classification {
	if s == nil || s.handle == nil {
		return domain.DefaultClassification()
	}

	prediction, err := s.handle.Predict(domain.ClassifierText(title, summary))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFitted) && s.logger != nil {
			s.logger.Warn("classification failed, using default", "error", err)
		}
		return domain.DefaultClassification()
	}

	terms := prediction.KeyTerms
	if terms == nil {
		terms = []domain.Term{}
	}
	return domain.Classification{
		Category:           prediction.Category,
		CategoryConfidence: prediction.CategoryConfidence,
		Priority:           prediction.Priority,
		PriorityConfidence: prediction.PriorityConfidence,
		KeyTerms:           terms,
	}
}

// Ready reports whether a fitted model is installed.
func (s *ClassificationService) Ready() bool {
	return s != nil && s.handle != nil && s.handle.Fitted()
}
