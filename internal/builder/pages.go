package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/divu-hq/module-builder/internal/models"
	"github.com/divu-hq/module-builder/internal/notify"
	"github.com/divu-hq/module-builder/internal/registry"
)

// AddPage appends a page named "Page N" seeded with exactly one section of
// the chosen kind, and moves the wizard onto the Pages step. Adding the
// first page requires the title and description to be filled in.
func (s *Service) AddPage(ctx context.Context, actor models.Actor, draftID string, req models.AddPageRequest) (*models.PageResult, error) {
	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(d.Title) == "" {
		return nil, &ValidationError{Message: "Add a module title first."}
	}
	if strings.TrimSpace(d.Description) == "" {
		return nil, &ValidationError{Message: "Add a module description first."}
	}

	page := models.Page{
		ID:       uuid.New().String(),
		Name:     fmt.Sprintf("Page %d", len(d.Pages)+1),
		Sections: []models.Section{registry.Default(req.SectionType)},
	}
	d.Pages = append(d.Pages, page)
	if d.CurrentStep == models.StepInfo {
		d.CurrentStep = models.StepPages
	}

	if err := s.save(ctx, actor, d); err != nil {
		return nil, err
	}

	s.notifier.Notify(notify.Notice{
		AuthorID: d.AuthorID,
		DraftID:  d.ID,
		Severity: notify.SeveritySuccess,
		Message:  fmt.Sprintf("%s section added to new page.", req.SectionType),
	})
	return &models.PageResult{Draft: d, ActivePageIndex: len(d.Pages) - 1}, nil
}

// RemovePage deletes a page. The returned active index points at the page
// now occupying the deleted page's slot, clamped into range, or -1 when no
// pages remain.
func (s *Service) RemovePage(ctx context.Context, actor models.Actor, draftID, pageID string) (*models.PageResult, error) {
	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	idx := findPage(d, pageID)
	if idx < 0 {
		return nil, ErrPageNotFound
	}

	d.Pages = append(d.Pages[:idx], d.Pages[idx+1:]...)

	active := -1
	if len(d.Pages) > 0 {
		active = clamp(idx, 0, len(d.Pages)-1)
	}

	if err := s.save(ctx, actor, d); err != nil {
		return nil, err
	}

	s.notifier.Notify(notify.Notice{
		AuthorID: d.AuthorID,
		DraftID:  d.ID,
		Severity: notify.SeverityInfo,
		Message:  "Page deleted.",
	})
	return &models.PageResult{Draft: d, ActivePageIndex: active}, nil
}

// DuplicatePage deep-copies a page with entirely fresh identifiers and
// inserts the clone immediately after the source. The clone becomes the
// active page.
func (s *Service) DuplicatePage(ctx context.Context, actor models.Actor, draftID, pageID string) (*models.PageResult, error) {
	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	idx := findPage(d, pageID)
	if idx < 0 {
		return nil, ErrPageNotFound
	}

	clone := clonePage(d.Pages[idx])
	cloneIdx := idx + 1

	d.Pages = append(d.Pages, models.Page{})
	copy(d.Pages[cloneIdx+1:], d.Pages[cloneIdx:])
	d.Pages[cloneIdx] = clone

	if err := s.save(ctx, actor, d); err != nil {
		return nil, err
	}

	s.notifier.Notify(notify.Notice{
		AuthorID: d.AuthorID,
		DraftID:  d.ID,
		Severity: notify.SeveritySuccess,
		Message:  "Page duplicated.",
	})
	return &models.PageResult{Draft: d, ActivePageIndex: cloneIdx}, nil
}

// RenamePage sets a page's display label. Names need not be unique.
func (s *Service) RenamePage(ctx context.Context, actor models.Actor, draftID, pageID, name string) (*models.Draft, error) {
	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	idx := findPage(d, pageID)
	if idx < 0 {
		return nil, ErrPageNotFound
	}

	d.Pages[idx].Name = name
	if err := s.save(ctx, actor, d); err != nil {
		return nil, err
	}
	return d, nil
}

// AddSection appends a default section of the given kind to a page
func (s *Service) AddSection(ctx context.Context, actor models.Actor, draftID, pageID string, kind models.SectionKind) (*models.Draft, error) {
	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	idx := findPage(d, pageID)
	if idx < 0 {
		return nil, ErrPageNotFound
	}

	d.Pages[idx].Sections = append(d.Pages[idx].Sections, registry.Default(kind))
	if err := s.save(ctx, actor, d); err != nil {
		return nil, err
	}

	s.notifier.Notify(notify.Notice{
		AuthorID: d.AuthorID,
		DraftID:  d.ID,
		Severity: notify.SeveritySuccess,
		Message:  fmt.Sprintf("%s section added to page.", kind),
	})
	return d, nil
}

// RemoveSection deletes a section from a page by ID. No undo.
func (s *Service) RemoveSection(ctx context.Context, actor models.Actor, draftID, pageID, sectionID string) (*models.Draft, error) {
	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	idx := findPage(d, pageID)
	if idx < 0 {
		return nil, ErrPageNotFound
	}

	sections := d.Pages[idx].Sections
	sIdx := findSection(sections, sectionID)
	if sIdx < 0 {
		return nil, ErrSectionNotFound
	}

	d.Pages[idx].Sections = append(sections[:sIdx], sections[sIdx+1:]...)
	if err := s.save(ctx, actor, d); err != nil {
		return nil, err
	}

	s.notifier.Notify(notify.Notice{
		AuthorID: d.AuthorID,
		DraftID:  d.ID,
		Severity: notify.SeverityInfo,
		Message:  "Section removed.",
	})
	return d, nil
}

// MoveSection swaps a section with its neighbor in the given direction.
// A move that would go out of bounds is a no-op, not an error.
func (s *Service) MoveSection(ctx context.Context, actor models.Actor, draftID, pageID, sectionID, direction string) (*models.Draft, error) {
	if direction != "up" && direction != "down" {
		return nil, ErrInvalidDirection
	}

	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	idx := findPage(d, pageID)
	if idx < 0 {
		return nil, ErrPageNotFound
	}

	sections := d.Pages[idx].Sections
	sIdx := findSection(sections, sectionID)
	if sIdx < 0 {
		return nil, ErrSectionNotFound
	}

	target := sIdx - 1
	if direction == "down" {
		target = sIdx + 1
	}
	if target < 0 || target >= len(sections) {
		return d, nil
	}

	sections[sIdx], sections[target] = sections[target], sections[sIdx]
	if err := s.save(ctx, actor, d); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateSection merges a partial update into a section. Slices in the patch
// replace the section's slice wholesale, which is how item appends, edits
// and deletions arrive. Shrinking a questionnaire's options re-clamps every
// correctIndex.
func (s *Service) UpdateSection(ctx context.Context, actor models.Actor, draftID, pageID, sectionID string, patch models.SectionPatch) (*models.Draft, error) {
	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	idx := findPage(d, pageID)
	if idx < 0 {
		return nil, ErrPageNotFound
	}

	sIdx := findSection(d.Pages[idx].Sections, sectionID)
	if sIdx < 0 {
		return nil, ErrSectionNotFound
	}

	sec := &d.Pages[idx].Sections[sIdx]
	applyPatch(sec, patch)

	if err := s.save(ctx, actor, d); err != nil {
		return nil, err
	}
	return d, nil
}

// AppendItem adds one default entry to a list-shaped section (a card, a
// dropdown or checklist item, or a question).
func (s *Service) AppendItem(ctx context.Context, actor models.Actor, draftID, pageID, sectionID string) (*models.Draft, error) {
	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	idx := findPage(d, pageID)
	if idx < 0 {
		return nil, ErrPageNotFound
	}

	sIdx := findSection(d.Pages[idx].Sections, sectionID)
	if sIdx < 0 {
		return nil, ErrSectionNotFound
	}

	sec := &d.Pages[idx].Sections[sIdx]
	switch sec.Kind {
	case models.KindFlashcards:
		sec.Cards = append(sec.Cards, registry.DefaultCard())
	case models.KindDropdowns:
		sec.Items = append(sec.Items, registry.DefaultDropdownItem())
	case models.KindChecklist:
		sec.Items = append(sec.Items, registry.DefaultChecklistItem())
	case models.KindQuestionnaire:
		sec.Questions = append(sec.Questions, registry.DefaultQuestion())
	default:
		return nil, validationErrorf("%s sections do not hold list items.", sec.Kind)
	}

	if err := s.save(ctx, actor, d); err != nil {
		return nil, err
	}
	return d, nil
}

// RemoveItem deletes the entry at index from a list-shaped section. An
// out-of-range index is rejected. Deleting a questionnaire question's
// neighbors re-clamps the remaining correctIndex values.
func (s *Service) RemoveItem(ctx context.Context, actor models.Actor, draftID, pageID, sectionID string, index int) (*models.Draft, error) {
	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	idx := findPage(d, pageID)
	if idx < 0 {
		return nil, ErrPageNotFound
	}

	sIdx := findSection(d.Pages[idx].Sections, sectionID)
	if sIdx < 0 {
		return nil, ErrSectionNotFound
	}

	sec := &d.Pages[idx].Sections[sIdx]
	switch sec.Kind {
	case models.KindFlashcards:
		if index < 0 || index >= len(sec.Cards) {
			return nil, validationErrorf("No card at position %d.", index+1)
		}
		sec.Cards = append(sec.Cards[:index], sec.Cards[index+1:]...)
	case models.KindDropdowns, models.KindChecklist:
		if index < 0 || index >= len(sec.Items) {
			return nil, validationErrorf("No item at position %d.", index+1)
		}
		sec.Items = append(sec.Items[:index], sec.Items[index+1:]...)
	case models.KindQuestionnaire:
		if index < 0 || index >= len(sec.Questions) {
			return nil, validationErrorf("No question at position %d.", index+1)
		}
		sec.Questions = append(sec.Questions[:index], sec.Questions[index+1:]...)
		for i := range sec.Questions {
			q := &sec.Questions[i]
			if len(q.Options) == 0 {
				q.CorrectIndex = 0
			} else {
				q.CorrectIndex = clamp(q.CorrectIndex, 0, len(q.Options)-1)
			}
		}
	default:
		return nil, validationErrorf("%s sections do not hold list items.", sec.Kind)
	}

	if err := s.save(ctx, actor, d); err != nil {
		return nil, err
	}
	return d, nil
}

// --- helpers ---

func findPage(d *models.Draft, pageID string) int {
	for i := range d.Pages {
		if d.Pages[i].ID == pageID {
			return i
		}
	}
	return -1
}

func findSection(sections []models.Section, sectionID string) int {
	for i := range sections {
		if sections[i].ID == sectionID {
			return i
		}
	}
	return -1
}

// clonePage deep-copies a page and all nested content with fresh IDs, so the
// clone shares no identity or backing storage with the source.
func clonePage(p models.Page) models.Page {
	clone := models.Page{
		ID:       uuid.New().String(),
		Name:     p.Name + " (copy)",
		Sections: make([]models.Section, len(p.Sections)),
	}

	for i, s := range p.Sections {
		cs := s
		cs.ID = uuid.New().String()

		if s.Cards != nil {
			cs.Cards = make([]models.Card, len(s.Cards))
			for j, c := range s.Cards {
				c.ID = uuid.New().String()
				cs.Cards[j] = c
			}
		}
		if s.Items != nil {
			cs.Items = make([]models.ListItem, len(s.Items))
			for j, it := range s.Items {
				it.ID = uuid.New().String()
				cs.Items[j] = it
			}
		}
		if s.Questions != nil {
			cs.Questions = make([]models.Question, len(s.Questions))
			for j, q := range s.Questions {
				q.ID = uuid.New().String()
				q.Options = append([]string(nil), q.Options...)
				cs.Questions[j] = q
			}
		}

		clone.Sections[i] = cs
	}

	return clone
}

// applyPatch merges non-nil patch fields into the section. Questionnaire
// option shrinkage re-clamps correctIndex into the valid range.
func applyPatch(sec *models.Section, patch models.SectionPatch) {
	if patch.Title != nil {
		sec.Title = *patch.Title
	}
	if patch.Body != nil {
		sec.Body = *patch.Body
	}
	if patch.MediaPath != nil {
		sec.MediaPath = *patch.MediaPath
	}
	if patch.Caption != nil {
		sec.Caption = *patch.Caption
	}
	if patch.Transcript != nil {
		sec.Transcript = *patch.Transcript
	}
	if patch.Cards != nil {
		sec.Cards = *patch.Cards
	}
	if patch.Items != nil {
		sec.Items = *patch.Items
	}
	if patch.Questions != nil {
		sec.Questions = *patch.Questions
	}
	if patch.URL != nil {
		sec.URL = *patch.URL
	}
	if patch.Note != nil {
		sec.Note = *patch.Note
	}

	for i := range sec.Questions {
		q := &sec.Questions[i]
		if len(q.Options) == 0 {
			q.CorrectIndex = 0
		} else {
			q.CorrectIndex = clamp(q.CorrectIndex, 0, len(q.Options)-1)
		}
	}
}
