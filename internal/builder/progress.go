package builder

import (
	"strings"

	"github.com/divu-hq/module-builder/internal/models"
)

// Progress computes the completion estimate for a draft: a floor of 5, plus
// 20 for a non-empty title, 20 for a non-empty description, 40 for having at
// least one page and 20 for being on the review step, clamped to [5, 100].
// It is a heuristic for the progress bar, not a measure of required work.
func Progress(d *models.Draft) int {
	base := 0
	if strings.TrimSpace(d.Title) != "" {
		base += 20
	}
	if strings.TrimSpace(d.Description) != "" {
		base += 20
	}
	if len(d.Pages) > 0 {
		base += 40
	}
	if d.CurrentStep == models.StepReview {
		base += 20
	}
	return clamp(base, 5, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
