// Package domain contains the core data model for chat and readiness reviews.
package domain

import (
	"time"
)

// Phase is the coarse stage of a guided readiness review.
type Phase string

const (
	// PhaseCollectingServices means the session is still gathering service names.
	PhaseCollectingServices Phase = "collecting_services"
	// PhaseReviewingServices means the session is walking checklist items.
	PhaseReviewingServices Phase = "reviewing_services"
	// PhaseComplete means every service has been reviewed.
	PhaseComplete Phase = "complete"
)

// ItemStatus is the review outcome recorded on a checklist item.
type ItemStatus string

const (
	// ItemPending means the item has not been discussed yet.
	ItemPending ItemStatus = "pending"
	// ItemImplemented means the user confirmed the practice is in place.
	ItemImplemented ItemStatus = "implemented"
	// ItemNeedsAttention means the practice is missing or uncertain.
	ItemNeedsAttention ItemStatus = "needs_attention"
	// ItemNotApplicable means the practice does not apply to the service.
	ItemNotApplicable ItemStatus = "not_applicable"
)

// ChecklistItem is one discrete production-readiness practice to verify.
// UserResponse and Recommendation are set exactly once, when the user's
// reply about the item is classified.
type ChecklistItem struct {
	Title          string     `json:"title"`
	Importance     string     `json:"importance"`
	Description    string     `json:"description"`
	Status         ItemStatus `json:"status"`
	UserResponse   string     `json:"user_response,omitempty"`
	Recommendation string     `json:"recommendation,omitempty"`
}

// ServiceProgress tracks one service's walk through its checklist.
// Items keep their generation order for the lifetime of the session.
type ServiceProgress struct {
	ServiceName      string          `json:"service_name"`
	Items            []ChecklistItem `json:"items"`
	CurrentItemIndex int             `json:"current_item_index"`
	Complete         bool            `json:"complete"`
}

// CurrentItem returns the item under discussion, or nil when the index is
// out of range.
func (p *ServiceProgress) CurrentItem() *ChecklistItem {
	if p.CurrentItemIndex < 0 || p.CurrentItemIndex >= len(p.Items) {
		return nil
	}
	return &p.Items[p.CurrentItemIndex]
}

// Advance moves to the next item and marks the service complete once the
// index reaches the end of the list.
func (p *ServiceProgress) Advance() {
	p.CurrentItemIndex++
	if p.CurrentItemIndex >= len(p.Items) {
		p.Complete = true
	}
}

// ReviewSession is the mutable state of one guided readiness review.
// Callers must serialize turns for a given session; transitions are
// multi-step read-modify-write sequences.
type ReviewSession struct {
	ID                  string             `json:"id"`
	Phase               Phase              `json:"phase"`
	ServiceNames        []string           `json:"service_names"`
	Services            []*ServiceProgress `json:"services,omitempty"`
	CurrentServiceIndex int                `json:"current_service_index"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// AddServiceNames appends names not already present, preserving first-seen
// order. Dedup is a case-sensitive exact match. Returns the names actually
// added.
func (s *ReviewSession) AddServiceNames(names []string) []string {
	var added []string
	for _, name := range names {
		if name == "" {
			continue
		}
		exists := false
		for _, have := range s.ServiceNames {
			if have == name {
				exists = true
				break
			}
		}
		if !exists {
			s.ServiceNames = append(s.ServiceNames, name)
			added = append(added, name)
		}
	}
	return added
}

// CurrentService returns the service under review, or nil when the index is
// out of range.
func (s *ReviewSession) CurrentService() *ServiceProgress {
	if s.CurrentServiceIndex < 0 || s.CurrentServiceIndex >= len(s.Services) {
		return nil
	}
	return s.Services[s.CurrentServiceIndex]
}

// Intent is the classified purpose of a user message during service
// collection.
type Intent string

const (
	// IntentAddServices means the message names services to review.
	IntentAddServices Intent = "add_services"
	// IntentContinueToReview means the user wants to start the review.
	IntentContinueToReview Intent = "continue_to_review"
	// IntentUnclear means the classifier could not decide.
	IntentUnclear Intent = "unclear"
)

// IntentResult is the transient outcome of one intent classification.
type IntentResult struct {
	Intent           Intent   `json:"intent"`
	DetectedServices []string `json:"detected_services"`
	Confidence       float64  `json:"confidence"`
}

// ImplementationStatus is the classified answer to a checklist question.
type ImplementationStatus string

const (
	// ResponseImplemented means the user confirmed the item is in place.
	ResponseImplemented ImplementationStatus = "implemented"
	// ResponseNeedsAttention means the user indicated the item is missing.
	ResponseNeedsAttention ImplementationStatus = "needs_attention"
	// ResponseUnclear means the answer was ambiguous or off-topic.
	ResponseUnclear ImplementationStatus = "unclear"
)

// ResponseResult is the transient outcome of one response classification.
type ResponseResult struct {
	Implemented ImplementationStatus `json:"implemented"`
}
