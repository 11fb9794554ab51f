package builder

import (
	"strings"

	"github.com/divu-hq/module-builder/internal/models"
)

// ValidatePages checks every page and section against the per-type
// completeness rules. It fails fast: the first problem found is returned and
// nothing later is inspected. A nil return means the pages are publishable.
func ValidatePages(pages []models.Page) error {
	if len(pages) == 0 {
		return &ValidationError{Message: "Add at least one page before proceeding."}
	}

	for pIndex, page := range pages {
		if len(page.Sections) == 0 {
			return validationErrorf("Page %d must have at least one section.", pIndex+1)
		}

		for sIndex, s := range page.Sections {
			switch s.Kind {
			case models.KindText:
				if strings.TrimSpace(s.Body) == "" {
					return validationErrorf("Page %d — text section %d cannot be empty.", pIndex+1, sIndex+1)
				}
			case models.KindPhoto, models.KindVideo:
				if strings.TrimSpace(s.MediaPath) == "" {
					return validationErrorf("Page %d — %s section %d requires an upload.", pIndex+1, s.Kind, sIndex+1)
				}
			case models.KindFlashcards:
				if len(s.Cards) == 0 {
					return validationErrorf("Page %d — flashcards need at least one card.", pIndex+1)
				}
			case models.KindDropdowns:
				if len(s.Items) == 0 {
					return validationErrorf("Page %d — dropdown needs at least one item.", pIndex+1)
				}
			case models.KindQuestionnaire:
				if len(s.Questions) == 0 {
					return validationErrorf("Page %d — questionnaire needs at least one question.", pIndex+1)
				}
			case models.KindChecklist:
				if len(s.Items) == 0 {
					return validationErrorf("Page %d — checklist needs at least one item.", pIndex+1)
				}
			case models.KindEmbed:
				if strings.TrimSpace(s.URL) == "" {
					return validationErrorf("Page %d — embed requires a URL.", pIndex+1)
				}
			default:
				// unknown kinds render as a placeholder and do not block
			}
		}
	}

	return nil
}
