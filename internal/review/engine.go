package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/solarch-labs/advisor/internal/domain"
	"github.com/solarch-labs/advisor/internal/llm"
)

// Validation errors surfaced to the caller. Everything else in the review
// flow degrades to a conversational fallback instead of failing.
var (
	ErrEmptyMessage = errors.New("message is required")
	ErrEmptyService = errors.New("service name is required")
)

const (
	affirmationText = "Confirmed as implemented. Keep this verified in your release checklist."

	lostTrackMessage = "I seem to have lost track of where we were in the review. " +
		"Could you tell me which service and item we were discussing?"

	completeMessage = "This review is complete. Ask for the summary any time to see the full report."

	noSessionSummary = "No production readiness review is in progress."
)

// Engine drives the phased readiness interview. It owns no session state;
// callers pass the session on every turn and must serialize turns per
// session.
type Engine struct {
	catalog   *ChecklistCatalog
	intents   *IntentClassifier
	responses *ResponseClassifier
	logger    *slog.Logger
}

// NewEngine wires the engine and its classifiers to one model client.
func NewEngine(client llm.Client, knowledge string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		catalog:   NewChecklistCatalog(client, knowledge, logger),
		intents:   NewIntentClassifier(client, logger),
		responses: NewResponseClassifier(client, logger),
		logger:    logger,
	}
}

// StartSession creates a new session in the collecting phase, seeded with
// one service, and returns the greeting.
func (e *Engine) StartSession(initialService string) (*domain.ReviewSession, string, error) {
	initialService = strings.TrimSpace(initialService)
	if initialService == "" {
		return nil, "", ErrEmptyService
	}

	now := time.Now().UTC()
	session := &domain.ReviewSession{
		ID:           uuid.NewString(),
		Phase:        domain.PhaseCollectingServices,
		ServiceNames: []string{initialService},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	greeting := fmt.Sprintf(
		"I'll help you review %s for production readiness. "+
			"Name any other services you'd like included, or say \"continue\" when you're ready to start.",
		initialService,
	)
	return session, greeting, nil
}

// HandleTurn processes one user message and returns the next assistant
// message, mutating session in place. The only error it returns is
// ErrEmptyMessage; classifier failures are absorbed into the conversation.
func (e *Engine) HandleTurn(ctx context.Context, session *domain.ReviewSession, userText string) (string, error) {
	if strings.TrimSpace(userText) == "" {
		return "", ErrEmptyMessage
	}
	session.UpdatedAt = time.Now().UTC()

	switch session.Phase {
	case domain.PhaseCollectingServices:
		return e.handleCollecting(ctx, session, userText), nil
	case domain.PhaseReviewingServices:
		return e.handleReviewing(ctx, session, userText), nil
	case domain.PhaseComplete:
		return completeMessage, nil
	default:
		e.logger.Error("session in unknown phase", "session_id", session.ID, "phase", session.Phase)
		return lostTrackMessage, nil
	}
}

func (e *Engine) handleCollecting(ctx context.Context, session *domain.ReviewSession, userText string) string {
	result := e.intents.ClassifyIntent(ctx, userText)
	e.logger.Info("intent classified",
		"session_id", session.ID,
		"intent", result.Intent,
		"detected_services", result.DetectedServices,
		"confidence", result.Confidence,
	)

	switch result.Intent {
	case domain.IntentAddServices:
		session.AddServiceNames(result.DetectedServices)
		return fmt.Sprintf(
			"Got it. Services queued for review: %s. Add more, or say \"continue\" to begin.",
			strings.Join(session.ServiceNames, ", "),
		)

	case domain.IntentContinueToReview:
		e.beginReview(ctx, session)
		return e.serviceIntro(session.CurrentService())

	default:
		return fmt.Sprintf(
			"I didn't catch that. Tell me which services to add, or say \"continue\" to start reviewing: %s.",
			strings.Join(session.ServiceNames, ", "),
		)
	}
}

// beginReview generates every service's checklist and publishes the
// reviewing phase. Generation runs concurrently per service; the progress
// slice is assembled in the original service order before the phase flips.
func (e *Engine) beginReview(ctx context.Context, session *domain.ReviewSession) {
	progress := make([]*domain.ServiceProgress, len(session.ServiceNames))

	var wg sync.WaitGroup
	for i, name := range session.ServiceNames {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			progress[i] = &domain.ServiceProgress{
				ServiceName: name,
				Items:       e.catalog.GenerateChecklist(ctx, name),
			}
		}(i, name)
	}
	wg.Wait()

	session.Services = progress
	session.CurrentServiceIndex = 0
	session.Phase = domain.PhaseReviewingServices
}

func (e *Engine) handleReviewing(ctx context.Context, session *domain.ReviewSession, userText string) string {
	svc := session.CurrentService()
	if svc == nil {
		e.logger.Warn("current service unresolvable", "session_id", session.ID, "index", session.CurrentServiceIndex)
		return lostTrackMessage
	}
	item := svc.CurrentItem()
	if item == nil {
		e.logger.Warn("current item unresolvable",
			"session_id", session.ID,
			"service", svc.ServiceName,
			"index", svc.CurrentItemIndex,
		)
		return lostTrackMessage
	}

	item.UserResponse = userText
	result := e.responses.ClassifyResponse(ctx, userText)

	var ack string
	switch result.Implemented {
	case domain.ResponseImplemented:
		item.Status = domain.ItemImplemented
		item.Recommendation = affirmationText
		ack = fmt.Sprintf("Great - %s is in place.", item.Title)
	case domain.ResponseNeedsAttention:
		item.Status = domain.ItemNeedsAttention
		item.Recommendation = fmt.Sprintf("Prioritize this before launch: %s", item.Importance)
		ack = fmt.Sprintf("Noted - %s needs attention before launch.", item.Title)
	default:
		// Ambiguous replies are conservatively treated as not yet implemented
		// so they surface in the summary, but the phrasing asks for
		// clarification rather than asserting a gap.
		item.Status = domain.ItemNeedsAttention
		item.Recommendation = fmt.Sprintf(
			"I couldn't tell from your answer whether %q is in place. Revisit this item and confirm either way.",
			item.Title,
		)
		ack = fmt.Sprintf("I wasn't sure about %s, so I've flagged it for follow-up.", item.Title)
	}

	prevService := session.CurrentServiceIndex
	svc.Advance()
	if svc.Complete {
		session.CurrentServiceIndex++
		if session.CurrentServiceIndex >= len(session.Services) {
			session.Phase = domain.PhaseComplete
		}
	}

	switch {
	case session.Phase == domain.PhaseComplete:
		return RenderSummary(session.Services)
	case session.CurrentServiceIndex != prevService:
		return ack + "\n\n" + e.serviceIntro(session.CurrentService())
	default:
		return ack + "\n\n" + itemQuestion(svc.ServiceName, svc.CurrentItem())
	}
}

// serviceIntro lists a service's checklist and poses its first question.
func (e *Engine) serviceIntro(svc *domain.ServiceProgress) string {
	if svc == nil {
		return lostTrackMessage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Now reviewing %s. Here's the checklist:\n", svc.ServiceName)
	for i, item := range svc.Items {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, item.Title)
	}
	b.WriteString("\n")
	b.WriteString(itemQuestion(svc.ServiceName, svc.CurrentItem()))
	return b.String()
}

func itemQuestion(serviceName string, item *domain.ChecklistItem) string {
	if item == nil {
		return lostTrackMessage
	}
	return fmt.Sprintf("Have you implemented %s for your %s?", item.Title, serviceName)
}

// SummaryReport is the structured summary returned to the presentation layer.
type SummaryReport struct {
	SummaryText string                    `json:"summary_text"`
	Services    []*domain.ServiceProgress `json:"services,omitempty"`
	Phase       domain.Phase              `json:"phase,omitempty"`
}

// Summary renders the report for a session at any phase. A nil session
// yields the no-review placeholder.
func (e *Engine) Summary(session *domain.ReviewSession) SummaryReport {
	if session == nil {
		return SummaryReport{SummaryText: noSessionSummary}
	}
	if len(session.Services) == 0 {
		return SummaryReport{
			SummaryText: fmt.Sprintf(
				"The review hasn't started yet. Services queued: %s.",
				strings.Join(session.ServiceNames, ", "),
			),
			Phase: session.Phase,
		}
	}
	return SummaryReport{
		SummaryText: RenderSummary(session.Services),
		Services:    session.Services,
		Phase:       session.Phase,
	}
}
