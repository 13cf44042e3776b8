// Package review implements the guided production-readiness interview: the
// phase state machine, the LLM-backed classifiers and checklist catalog, and
// the summary report.
package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solarch-labs/advisor/internal/domain"
	"github.com/solarch-labs/advisor/internal/llm"
	"github.com/solarch-labs/advisor/internal/prompts"
)

// maxChecklistItems caps how many generated items are kept per service.
const maxChecklistItems = 5

// ChecklistCatalog generates per-service checklists through the model.
type ChecklistCatalog struct {
	client    llm.Client
	knowledge string
	logger    *slog.Logger
}

// NewChecklistCatalog creates a catalog grounded in the given knowledge text.
func NewChecklistCatalog(client llm.Client, knowledge string, logger *slog.Logger) *ChecklistCatalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChecklistCatalog{client: client, knowledge: knowledge, logger: logger}
}

type checklistPayload struct {
	Items []struct {
		Title       string `json:"title"`
		Importance  string `json:"importance"`
		Description string `json:"description"`
	} `json:"items"`
}

// GenerateChecklist asks the model for 4-5 items tailored to serviceName.
// Any failure degrades to a single generic item; callers always receive a
// non-empty list and never an error.
func (c *ChecklistCatalog) GenerateChecklist(ctx context.Context, serviceName string) []domain.ChecklistItem {
	var payload checklistPayload
	err := c.client.Classify(ctx, prompts.Checklist(serviceName, c.knowledge), serviceName, "service_checklist", &payload)
	if err != nil || len(payload.Items) == 0 {
		c.logger.Warn("checklist generation failed, using fallback item", "service", serviceName, "error", err)
		return fallbackChecklist(serviceName)
	}

	raw := payload.Items
	if len(raw) > maxChecklistItems {
		raw = raw[:maxChecklistItems]
	}
	items := make([]domain.ChecklistItem, 0, len(raw))
	for _, it := range raw {
		if it.Title == "" {
			continue
		}
		items = append(items, domain.ChecklistItem{
			Title:       it.Title,
			Importance:  it.Importance,
			Description: it.Description,
			Status:      domain.ItemPending,
		})
	}
	if len(items) == 0 {
		return fallbackChecklist(serviceName)
	}
	return items
}

func fallbackChecklist(serviceName string) []domain.ChecklistItem {
	return []domain.ChecklistItem{{
		Title:       fmt.Sprintf("Production readiness assessment for %s", serviceName),
		Importance:  "A baseline review catches the most common reliability and security gaps before launch.",
		Description: fmt.Sprintf("Walk through monitoring, scaling, backup, and security configuration for %s.", serviceName),
		Status:      domain.ItemPending,
	}}
}
