// Package tokenbudget implements TokenBudgetManager: deterministic
// per-section token budgeting, adaptive scaling by conversation length, and
// hard-ceiling clamping of the assembled prompt.
package tokenbudget

import (
	"strings"

	"github.com/tfpre/CourseNavigator-sub000/pkg/config"
)

// Section is one named, budgeted piece of the assembled prompt.
type Section struct {
	Name string
	Text string
}

// EstimateTokens approximates a token count as max(1, len(s)/4). Every
// caller uses the same approximation so prompt sizes stay reproducible.
func EstimateTokens(s string) int {
	n := len(s) / 4
	if n < 1 {
		return 1
	}
	return n
}

// conversationLengthFactor scales section budgets down as a conversation
// grows.
func conversationLengthFactor(messageCount int) float64 {
	switch {
	case messageCount <= 5:
		return 1.0
	case messageCount <= 10:
		return 0.85
	default:
		return 0.7
	}
}

// Manager allocates and clamps prompt sections against a configured
// per-section budget table and a hard total ceiling.
type Manager struct {
	cfg *config.TokenBudgetConfig
}

// New returns a Manager over cfg (falls back to config.BuiltinDefaults()'s
// TokenBudget table if cfg is nil).
func New(cfg *config.TokenBudgetConfig) *Manager {
	if cfg == nil {
		defaults := config.BuiltinDefaults().TokenBudget
		cfg = &defaults
	}
	return &Manager{cfg: cfg}
}

// priorityOrder is the fixed allocation order: sections earlier in
// this list are funded first when the total ceiling would otherwise be
// exceeded.
var priorityOrder = []string{
	"system_template",
	"student_profile",
	"conversation_history",
	"graph_analysis",
	"vector_search",
	"professor_intel",
	"difficulty_data",
	"enrollment_data",
}

// Assemble allocates a per-section character budget for each section (in
// priority order, stopping once the total ceiling is exhausted), truncates
// each section's text to its adjusted budget, and joins the result with a
// final hard re-clamp to the total ceiling as a safety net.
func (m *Manager) Assemble(sections []Section, conversationMessageCount int) string {
	budgets := m.adjustedBudgets(conversationMessageCount)

	bySection := make(map[string]Section, len(sections))
	for _, s := range sections {
		bySection[s.Name] = s
	}

	var spent int
	ceiling := m.cfg.TotalCeiling
	var parts []string

	order := append([]string{}, priorityOrder...)
	for name := range bySection {
		if !contains(order, name) {
			order = append(order, name)
		}
	}

	for _, name := range order {
		section, ok := bySection[name]
		if !ok || section.Text == "" {
			continue
		}
		budgetTokens, ok := budgets[name]
		if !ok {
			continue
		}
		if spent >= ceiling {
			break
		}
		remaining := ceiling - spent
		if budgetTokens > remaining {
			budgetTokens = remaining
		}
		if budgetTokens <= 0 {
			continue
		}

		clamped := clampToTokenBudget(section.Text, budgetTokens)
		parts = append(parts, clamped)
		spent += EstimateTokens(clamped)
	}

	assembled := strings.Join(parts, "\n\n")
	return clampToTokenBudget(assembled, ceiling)
}

// adjustedBudgets applies each section's priority weight and the
// conversation-length scaling factor to its base budget.
func (m *Manager) adjustedBudgets(conversationMessageCount int) map[string]int {
	factor := conversationLengthFactor(conversationMessageCount)
	out := make(map[string]int, len(m.cfg.Sections))
	for name, base := range m.cfg.Sections {
		weight := m.cfg.Weights[name]
		if weight == 0 {
			weight = 1.0
		}
		out[name] = int(float64(base) * weight * factor)
	}
	return out
}

// clampToTokenBudget truncates s by character count to approximately
// budgetTokens tokens (budgetTokens*4 characters), appending an ellipsis
// when truncation occurred.
func clampToTokenBudget(s string, budgetTokens int) string {
	maxChars := budgetTokens * 4
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	const ellipsis = "…"
	if maxChars <= len(ellipsis) {
		return ellipsis
	}
	return s[:maxChars-len(ellipsis)] + ellipsis
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
