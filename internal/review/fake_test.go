package review

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/solarch-labs/advisor/internal/domain"
	"github.com/solarch-labs/advisor/internal/llm"
)

var errFakeUpstream = errors.New("upstream unavailable")

// fakeClient is a deterministic llm.Client. Intent and response results are
// consumed from queues in order; checklists are generated from a fixed set
// of titles per service.
type fakeClient struct {
	intents       []domain.IntentResult
	intentErrs    []error
	responses     []domain.ResponseResult
	responseErrs  []error
	itemTitles    map[string][]string
	failChecklist bool

	classifyCalls int
}

func (f *fakeClient) Complete(_ context.Context, _ string, _ []llm.Message) (string, error) {
	return "ok", nil
}

func (f *fakeClient) CompleteStream(_ context.Context, _ string, _ []llm.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("ok", nil)
	}
}

func (f *fakeClient) Classify(_ context.Context, _, userText, schemaName string, result any) error {
	f.classifyCalls++
	switch schemaName {
	case "user_intent":
		if len(f.intentErrs) > 0 {
			err := f.intentErrs[0]
			f.intentErrs = f.intentErrs[1:]
			if err != nil {
				return err
			}
		}
		if len(f.intents) == 0 {
			return fmt.Errorf("fake: no intent queued for %q", userText)
		}
		*result.(*domain.IntentResult) = f.intents[0]
		f.intents = f.intents[1:]
		return nil

	case "implementation_status":
		if len(f.responseErrs) > 0 {
			err := f.responseErrs[0]
			f.responseErrs = f.responseErrs[1:]
			if err != nil {
				return err
			}
		}
		if len(f.responses) == 0 {
			return fmt.Errorf("fake: no response queued for %q", userText)
		}
		*result.(*domain.ResponseResult) = f.responses[0]
		f.responses = f.responses[1:]
		return nil

	case "service_checklist":
		if f.failChecklist {
			return errFakeUpstream
		}
		titles, ok := f.itemTitles[userText]
		if !ok {
			titles = []string{
				"Enable diagnostics for " + userText,
				"Configure autoscaling for " + userText,
				"Set up backup for " + userText,
				"Review access control for " + userText,
			}
		}
		payload := result.(*checklistPayload)
		for _, title := range titles {
			payload.Items = append(payload.Items, struct {
				Title       string `json:"title"`
				Importance  string `json:"importance"`
				Description string `json:"description"`
			}{
				Title:       title,
				Importance:  "it keeps " + userText + " healthy in production",
				Description: "verify in the portal",
			})
		}
		return nil

	default:
		return fmt.Errorf("fake: unknown schema %q", schemaName)
	}
}

var _ llm.Client = (*fakeClient)(nil)

func addServices(names ...string) domain.IntentResult {
	return domain.IntentResult{Intent: domain.IntentAddServices, DetectedServices: names, Confidence: 0.9}
}

func continueToReview() domain.IntentResult {
	return domain.IntentResult{Intent: domain.IntentContinueToReview, Confidence: 0.9}
}

func answered(status domain.ImplementationStatus) domain.ResponseResult {
	return domain.ResponseResult{Implemented: status}
}
