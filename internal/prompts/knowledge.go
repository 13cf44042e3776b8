// Package prompts builds the system prompts sent to the model, including the
// static best-practice knowledge document loaded once at startup.
package prompts

import (
	"log/slog"
	"os"
	"strings"
)

const knowledgeMissing = "Core knowledge file not found."

// LoadKnowledge reads the best-practice reference document from disk. A
// missing or unreadable file degrades to a placeholder rather than failing
// startup; the advisor still works from the model's general expertise.
func LoadKnowledge(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("core knowledge unavailable, continuing without it", "path", path, "error", err)
		return knowledgeMissing
	}
	return strings.TrimSpace(string(data))
}
