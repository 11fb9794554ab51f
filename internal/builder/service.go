// Package builder implements the module-builder wizard: a persisted,
// resumable draft editor that walks an author from blank draft to published
// module through the Info, Pages and Review steps.
package builder

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/divu-hq/module-builder/internal/blueprints"
	"github.com/divu-hq/module-builder/internal/models"
	"github.com/divu-hq/module-builder/internal/notify"
	"github.com/divu-hq/module-builder/internal/revision"
)

// abandonTokenTTL bounds how long a pending abandon confirmation stays valid
const abandonTokenTTL = 5 * time.Minute

// Store is the persistence surface the builder needs. The Postgres
// repository satisfies it.
type Store interface {
	CreateDraft(ctx context.Context, d *models.Draft) error
	GetDraft(ctx context.Context, id string) (*models.Draft, error)
	GetLatestDraft(ctx context.Context, authorID string) (*models.Draft, error)
	UpdateDraft(ctx context.Context, d *models.Draft) (int64, error)
	DeleteDraft(ctx context.Context, id string) error
	ListDrafts(ctx context.Context, filters models.DraftFilters) ([]*models.Draft, error)
	PublishModule(ctx context.Context, m *models.Module, draftID string) error
}

// Service orchestrates all wizard operations. Every mutation persists the
// full draft snapshot before returning; there is no partial-field write path.
type Service struct {
	store      Store
	tracker    revision.Tracker
	notifier   notify.Notifier
	blueprints *blueprints.Loader

	mu      sync.Mutex
	pending map[string]pendingAbandon // draftID -> outstanding confirmation
}

type pendingAbandon struct {
	token     string
	expiresAt time.Time
}

// NewService wires the builder. tracker and bps may be nil; notifier falls
// back to the structured log when nil.
func NewService(store Store, tracker revision.Tracker, notifier notify.Notifier, bps *blueprints.Loader) *Service {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Service{
		store:      store,
		tracker:    tracker,
		notifier:   notifier,
		blueprints: bps,
		pending:    make(map[string]pendingAbandon),
	}
}

// CreateDraft opens a fresh draft for the author, optionally seeded from a
// blueprint.
func (s *Service) CreateDraft(ctx context.Context, req models.CreateDraftRequest) (*models.Draft, error) {
	now := time.Now()
	d := &models.Draft{
		ID:          uuid.New().String(),
		AuthorID:    req.AuthorID,
		AuthorName:  req.AuthorName,
		CurrentStep: models.StepInfo,
		Status:      models.DraftStatusDraft,
		Pages:       []models.Page{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if req.BlueprintID != "" {
		if s.blueprints == nil {
			return nil, ErrBlueprintNotFound
		}
		bp := s.blueprints.Get(req.BlueprintID)
		if bp == nil {
			return nil, ErrBlueprintNotFound
		}
		d.Title, d.Description, d.Pages = bp.Instantiate()
		if len(d.Pages) > 0 {
			d.CurrentStep = models.StepPages
		}
	}

	d.ProgressPercent = Progress(d)

	if err := s.store.CreateDraft(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	slog.Info("draft created", "draft_id", d.ID, "author_id", d.AuthorID, "blueprint_id", req.BlueprintID)
	return d, nil
}

// GetDraft loads a draft by ID
func (s *Service) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	return s.getDraft(ctx, id)
}

// ResumeDraft returns the author's most recently updated draft, so closing
// the wizard never loses work.
func (s *Service) ResumeDraft(ctx context.Context, authorID string) (*models.Draft, error) {
	d, err := s.store.GetLatestDraft(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest draft: %w", err)
	}
	if d == nil {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

// ListDrafts lists drafts matching the filters
func (s *Service) ListDrafts(ctx context.Context, filters models.DraftFilters) ([]*models.Draft, error) {
	return s.store.ListDrafts(ctx, filters)
}

// UpdateInfo patches the title and/or description. Edits that push a field
// past its word cap are rejected whole; nothing is truncated.
func (s *Service) UpdateInfo(ctx context.Context, actor models.Actor, draftID string, req models.UpdateInfoRequest) (*models.Draft, error) {
	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if wordCount(*req.Title) > models.TitleWordLimit {
			return nil, validationErrorf("Title is limited to %d words.", models.TitleWordLimit)
		}
		d.Title = *req.Title
	}
	if req.Description != nil {
		if wordCount(*req.Description) > models.DescriptionWordLimit {
			return nil, validationErrorf("Description is limited to %d words.", models.DescriptionWordLimit)
		}
		d.Description = *req.Description
	}

	if err := s.save(ctx, actor, d); err != nil {
		return nil, err
	}
	return d, nil
}

// SetStep moves the wizard to the given step. Steps are directly
// addressable; the only gate is that entering Review re-runs full page
// validation.
func (s *Service) SetStep(ctx context.Context, actor models.Actor, draftID string, step models.Step) (*models.Draft, error) {
	if !step.Valid() {
		return nil, ErrInvalidStep
	}

	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	if step == models.StepReview {
		if err := ValidatePages(d.Pages); err != nil {
			s.notifyValidation(d, err)
			return nil, err
		}
	}

	d.CurrentStep = step
	if err := s.save(ctx, actor, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Publish re-validates the draft, writes the module and deletes the draft in
// one transaction. On failure the draft is untouched and the publish can be
// retried.
func (s *Service) Publish(ctx context.Context, actor models.Actor, draftID string) (*models.Module, error) {
	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Description) == "" || len(d.Pages) == 0 {
		err := &ValidationError{Message: "Complete Title, Description and at least one Page."}
		s.notifyValidation(d, err)
		return nil, err
	}
	if err := ValidatePages(d.Pages); err != nil {
		s.notifyValidation(d, err)
		return nil, err
	}

	m := &models.Module{
		ID:               uuid.New().String(),
		Title:            strings.TrimSpace(d.Title),
		Description:      strings.TrimSpace(d.Description),
		CreatedBy:        d.AuthorID,
		EstimatedTimeMin: 10,
		Pages:            d.Pages,
		CreatedAt:        time.Now(),
	}

	if err := s.store.PublishModule(ctx, m, d.ID); err != nil {
		s.notifier.Notify(notify.Notice{
			AuthorID: d.AuthorID,
			DraftID:  d.ID,
			Severity: notify.SeverityError,
			Message:  "Error creating module. Your draft is unchanged; try again.",
		})
		return nil, fmt.Errorf("failed to publish module: %w", err)
	}

	s.forget(ctx, d.ID)
	s.notifier.Notify(notify.Notice{
		AuthorID: d.AuthorID,
		DraftID:  d.ID,
		Severity: notify.SeveritySuccess,
		Message:  "Module created successfully!",
	})
	slog.Info("module published", "module_id", m.ID, "draft_id", d.ID, "author_id", d.AuthorID, "pages", len(m.Pages))
	return m, nil
}

// RequestAbandon starts the two-phase abandon: it hands back a short-lived
// confirmation token without touching the draft.
func (s *Service) RequestAbandon(ctx context.Context, draftID string) (*models.AbandonResponse, error) {
	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate confirmation token: %w", err)
	}

	expires := time.Now().Add(abandonTokenTTL)
	s.mu.Lock()
	s.pending[d.ID] = pendingAbandon{token: token, expiresAt: expires}
	s.mu.Unlock()

	return &models.AbandonResponse{ConfirmToken: token, ExpiresAt: expires}, nil
}

// ConfirmAbandon executes the irreversible delete. The token must match the
// outstanding confirmation for this draft and must not have expired.
func (s *Service) ConfirmAbandon(ctx context.Context, draftID, token string) error {
	s.mu.Lock()
	p, ok := s.pending[draftID]
	if ok && time.Now().After(p.expiresAt) {
		// Expired confirmations are dead either way; drop them so the map
		// does not accumulate entries for drafts nobody confirms.
		delete(s.pending, draftID)
		ok = false
	}
	if ok && p.token != token {
		// A mismatch keeps the entry: the real token must stay usable.
		ok = false
	}
	if ok {
		delete(s.pending, draftID)
	}
	s.mu.Unlock()

	if !ok {
		return ErrInvalidToken
	}

	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteDraft(ctx, draftID); err != nil {
		return fmt.Errorf("failed to abandon draft: %w", err)
	}

	s.forget(ctx, draftID)
	s.notifier.Notify(notify.Notice{
		AuthorID: d.AuthorID,
		DraftID:  draftID,
		Severity: notify.SeverityInfo,
		Message:  "Draft abandoned and deleted.",
	})
	slog.Info("draft abandoned", "draft_id", draftID, "author_id", d.AuthorID)
	return nil
}

// --- internals ---

func (s *Service) getDraft(ctx context.Context, id string) (*models.Draft, error) {
	d, err := s.store.GetDraft(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	if d == nil {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

// save persists the full draft snapshot, refreshes derived fields and runs
// stale-write detection.
func (s *Service) save(ctx context.Context, actor models.Actor, d *models.Draft) error {
	d.Status = models.DraftStatusDraft
	d.ProgressPercent = Progress(d)
	d.UpdatedAt = time.Now()

	rev, err := s.store.UpdateDraft(ctx, d)
	if err != nil {
		s.notifier.Notify(notify.Notice{
			AuthorID: d.AuthorID,
			DraftID:  d.ID,
			Severity: notify.SeverityError,
			Message:  "Failed to save draft.",
		})
		return fmt.Errorf("failed to save draft: %w", err)
	}
	d.Revision = rev

	if s.tracker != nil {
		stale, terr := s.tracker.Observe(ctx, d.ID, actor.ID, rev)
		if terr != nil {
			slog.Warn("stale-write tracking failed", "draft_id", d.ID, "error", terr)
		} else if stale {
			s.notifier.Notify(notify.Notice{
				AuthorID: d.AuthorID,
				DraftID:  d.ID,
				Severity: notify.SeverityWarning,
				Message:  "This draft was changed in another session; your edit overwrote it.",
			})
		}
	}

	return nil
}

func (s *Service) forget(ctx context.Context, draftID string) {
	s.mu.Lock()
	delete(s.pending, draftID)
	s.mu.Unlock()

	if s.tracker != nil {
		if err := s.tracker.Forget(ctx, draftID); err != nil {
			slog.Warn("failed to clear revision tracking", "draft_id", draftID, "error", err)
		}
	}
}

func (s *Service) notifyValidation(d *models.Draft, err error) {
	s.notifier.Notify(notify.Notice{
		AuthorID: d.AuthorID,
		DraftID:  d.ID,
		Severity: notify.SeverityError,
		Message:  err.Error(),
	})
}

func generateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
