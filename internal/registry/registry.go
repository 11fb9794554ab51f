// Package registry declares the supported section content types and produces
// default values for them. It is the single source of truth for what kinds of
// content a module page can hold.
package registry

import (
	"github.com/google/uuid"

	"github.com/divu-hq/module-builder/internal/models"
)

// KindInfo pairs a section kind with its display label for the type chooser
type KindInfo struct {
	Kind  models.SectionKind `json:"kind"`
	Label string             `json:"label"`
}

// Kinds returns the supported section kinds in chooser order
func Kinds() []KindInfo {
	return []KindInfo{
		{models.KindText, "Text"},
		{models.KindPhoto, "Photo"},
		{models.KindVideo, "Video"},
		{models.KindFlashcards, "Flashcards"},
		{models.KindDropdowns, "Dropdowns"},
		{models.KindQuestionnaire, "Questionnaire"},
		{models.KindChecklist, "Checklist"},
		{models.KindEmbed, "Embed (URL)"},
	}
}

// Known reports whether kind is a registered section kind
func Known(kind models.SectionKind) bool {
	for _, k := range Kinds() {
		if k.Kind == kind {
			return true
		}
	}
	return false
}

// Default returns a freshly-identified empty section of the given kind.
// List-shaped kinds are seeded with one empty entry so the editor has a row
// to start from. An unknown kind falls back to text rather than erroring.
func Default(kind models.SectionKind) models.Section {
	id := uuid.New().String()

	switch kind {
	case models.KindText:
		return models.Section{ID: id, Kind: kind}
	case models.KindPhoto, models.KindVideo:
		return models.Section{ID: id, Kind: kind}
	case models.KindFlashcards:
		return models.Section{ID: id, Kind: kind, Cards: []models.Card{DefaultCard()}}
	case models.KindDropdowns:
		return models.Section{ID: id, Kind: kind, Items: []models.ListItem{DefaultDropdownItem()}}
	case models.KindQuestionnaire:
		return models.Section{ID: id, Kind: kind, Questions: []models.Question{DefaultQuestion()}}
	case models.KindChecklist:
		return models.Section{ID: id, Kind: kind, Items: []models.ListItem{DefaultChecklistItem()}}
	case models.KindEmbed:
		return models.Section{ID: id, Kind: kind}
	default:
		return models.Section{ID: id, Kind: models.KindText}
	}
}

// DefaultCard returns an empty flashcard with a fresh identity
func DefaultCard() models.Card {
	return models.Card{ID: uuid.New().String()}
}

// DefaultDropdownItem returns an empty dropdown entry with a fresh identity
func DefaultDropdownItem() models.ListItem {
	return models.ListItem{ID: uuid.New().String()}
}

// DefaultChecklistItem returns an empty checklist entry, required by default
func DefaultChecklistItem() models.ListItem {
	return models.ListItem{ID: uuid.New().String(), Required: true}
}

// DefaultQuestion returns an empty multiple-choice question with two blank
// options and the first marked correct
func DefaultQuestion() models.Question {
	return models.Question{
		ID:           uuid.New().String(),
		Kind:         "mcq",
		Options:      []string{"", ""},
		CorrectIndex: 0,
	}
}
