package review

import (
	"context"
	"log/slog"

	"github.com/solarch-labs/advisor/internal/domain"
	"github.com/solarch-labs/advisor/internal/llm"
	"github.com/solarch-labs/advisor/internal/prompts"
)

// fallbackConfidence is reported when intent classification fails; low enough
// that the engine routes through the clarification branch.
const fallbackConfidence = 0.1

// IntentClassifier interprets free text during the service-collection phase.
type IntentClassifier struct {
	client llm.Client
	logger *slog.Logger
}

// NewIntentClassifier creates a classifier backed by the given client.
func NewIntentClassifier(client llm.Client, logger *slog.Logger) *IntentClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntentClassifier{client: client, logger: logger}
}

// ClassifyIntent returns the intent behind userText. On any failure it
// returns the safe unclear fallback instead of an error. Detected service
// names are passed through verbatim; dedup is the caller's job.
func (c *IntentClassifier) ClassifyIntent(ctx context.Context, userText string) domain.IntentResult {
	var result domain.IntentResult
	if err := c.client.Classify(ctx, prompts.IntentClassification, userText, "user_intent", &result); err != nil {
		c.logger.Warn("intent classification failed, falling back to unclear", "error", err)
		return domain.IntentResult{Intent: domain.IntentUnclear, Confidence: fallbackConfidence}
	}

	switch result.Intent {
	case domain.IntentAddServices, domain.IntentContinueToReview, domain.IntentUnclear:
	default:
		// Out-of-schema value from the model; treat as unclear.
		result.Intent = domain.IntentUnclear
	}
	return result
}

// ResponseClassifier interprets answers to checklist questions.
type ResponseClassifier struct {
	client llm.Client
	logger *slog.Logger
}

// NewResponseClassifier creates a classifier backed by the given client.
func NewResponseClassifier(client llm.Client, logger *slog.Logger) *ResponseClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResponseClassifier{client: client, logger: logger}
}

// ClassifyResponse returns the implementation status stated in userText. On
// any failure it returns unclear instead of an error.
func (c *ResponseClassifier) ClassifyResponse(ctx context.Context, userText string) domain.ResponseResult {
	var result domain.ResponseResult
	if err := c.client.Classify(ctx, prompts.ResponseClassification, userText, "implementation_status", &result); err != nil {
		c.logger.Warn("response classification failed, falling back to unclear", "error", err)
		return domain.ResponseResult{Implemented: domain.ResponseUnclear}
	}

	switch result.Implemented {
	case domain.ResponseImplemented, domain.ResponseNeedsAttention, domain.ResponseUnclear:
	default:
		result.Implemented = domain.ResponseUnclear
	}
	return result
}
