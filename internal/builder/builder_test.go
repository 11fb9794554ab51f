package builder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/divu-hq/module-builder/internal/models"
	"github.com/divu-hq/module-builder/internal/notify"
	"github.com/divu-hq/module-builder/internal/revision"
)

// fakeStore keeps drafts as JSON snapshots so tests exercise the same
// serialize-everything persistence the real repository has: nothing handed
// back aliases what was stored.
type fakeStore struct {
	mu          sync.Mutex
	drafts      map[string][]byte
	revs        map[string]int64
	modules     map[string]*models.Module
	failPublish bool
	failUpdate  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		drafts:  make(map[string][]byte),
		revs:    make(map[string]int64),
		modules: make(map[string]*models.Module),
	}
}

func (f *fakeStore) put(d *models.Draft) {
	data, _ := json.Marshal(d)
	f.drafts[d.ID] = data
}

func (f *fakeStore) CreateDraft(_ context.Context, d *models.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put(d)
	f.revs[d.ID] = 0
	return nil
}

func (f *fakeStore) GetDraft(_ context.Context, id string) (*models.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.drafts[id]
	if !ok {
		return nil, nil
	}
	var d models.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (f *fakeStore) GetLatestDraft(_ context.Context, authorID string) (*models.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.Draft
	for _, data := range f.drafts {
		var d models.Draft
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		if d.AuthorID != authorID {
			continue
		}
		if latest == nil || d.UpdatedAt.After(latest.UpdatedAt) {
			copied := d
			latest = &copied
		}
	}
	return latest, nil
}

func (f *fakeStore) UpdateDraft(_ context.Context, d *models.Draft) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate {
		return 0, errors.New("simulated write failure")
	}
	if _, ok := f.drafts[d.ID]; !ok {
		return 0, errors.New("draft does not exist")
	}
	f.revs[d.ID]++
	rev := f.revs[d.ID]
	d.Revision = rev
	f.put(d)
	return rev, nil
}

func (f *fakeStore) DeleteDraft(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.drafts, id)
	return nil
}

func (f *fakeStore) ListDrafts(_ context.Context, filters models.DraftFilters) ([]*models.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Draft
	for _, data := range f.drafts {
		var d models.Draft
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		if filters.AuthorID != "" && d.AuthorID != filters.AuthorID {
			continue
		}
		copied := d
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeStore) PublishModule(_ context.Context, m *models.Module, draftID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPublish {
		return errors.New("simulated publish failure")
	}
	f.modules[m.ID] = m
	delete(f.drafts, draftID)
	return nil
}

var author = models.Actor{ID: "user-1", DisplayName: "Pat"}

func newTestService(t *testing.T) (*Service, *fakeStore, *notify.Recorder) {
	t.Helper()
	store := newFakeStore()
	rec := &notify.Recorder{}
	svc := NewService(store, revision.NewMemoryTracker(), rec, nil)
	return svc, store, rec
}

// readyDraft returns a draft with title, description and one page holding a
// filled text section: the minimum publishable shape.
func readyDraft(t *testing.T, svc *Service) *models.Draft {
	t.Helper()
	ctx := context.Background()

	d, err := svc.CreateDraft(ctx, models.CreateDraftRequest{AuthorID: author.ID})
	if err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}

	title, desc := "Orientation", "Intro to the company."
	if _, err := svc.UpdateInfo(ctx, author, d.ID, models.UpdateInfoRequest{Title: &title, Description: &desc}); err != nil {
		t.Fatalf("UpdateInfo failed: %v", err)
	}

	res, err := svc.AddPage(ctx, author, d.ID, models.AddPageRequest{SectionType: models.KindText})
	if err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}

	body := "Welcome!"
	page := res.Draft.Pages[0]
	updated, err := svc.UpdateSection(ctx, author, d.ID, page.ID, page.Sections[0].ID, models.SectionPatch{Body: &body})
	if err != nil {
		t.Fatalf("UpdateSection failed: %v", err)
	}
	return updated
}

func TestProgressBoundaries(t *testing.T) {
	empty := &models.Draft{CurrentStep: models.StepInfo}
	if got := Progress(empty); got != 5 {
		t.Errorf("empty draft progress = %d, want 5", got)
	}

	full := &models.Draft{
		Title:       "Orientation",
		Description: "Intro",
		CurrentStep: models.StepReview,
		Pages:       []models.Page{{}},
	}
	if got := Progress(full); got != 100 {
		t.Errorf("complete draft progress = %d, want 100", got)
	}

	// Whitespace-only fields count as empty
	blank := &models.Draft{Title: "   ", Description: "\n", CurrentStep: models.StepInfo}
	if got := Progress(blank); got != 5 {
		t.Errorf("whitespace draft progress = %d, want 5", got)
	}

	// Review without anything else never dips below the floor
	reviewOnly := &models.Draft{CurrentStep: models.StepReview}
	if got := Progress(reviewOnly); got != 20 {
		t.Errorf("review-only draft progress = %d, want 20", got)
	}
}

func TestOrientationScenario(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	d, err := svc.CreateDraft(ctx, models.CreateDraftRequest{AuthorID: author.ID})
	if err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}
	if d.ProgressPercent != 5 {
		t.Errorf("fresh draft progress = %d, want 5", d.ProgressPercent)
	}

	title, desc := "Orientation", "Intro to the company."
	if _, err := svc.UpdateInfo(ctx, author, d.ID, models.UpdateInfoRequest{Title: &title, Description: &desc}); err != nil {
		t.Fatalf("UpdateInfo failed: %v", err)
	}

	res, err := svc.AddPage(ctx, author, d.ID, models.AddPageRequest{SectionType: models.KindText})
	if err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}
	if res.Draft.CurrentStep != models.StepPages {
		t.Errorf("step after first page = %v, want pages", res.Draft.CurrentStep)
	}

	// Review is gated on validation: the text section is still empty
	_, err = svc.SetStep(ctx, author, d.ID, models.StepReview)
	if err == nil {
		t.Fatal("expected validation failure entering review")
	}
	if err.Error() != "Page 1 — text section 1 cannot be empty." {
		t.Errorf("unexpected validation message: %q", err.Error())
	}

	body := "Welcome!"
	page := res.Draft.Pages[0]
	if _, err := svc.UpdateSection(ctx, author, d.ID, page.ID, page.Sections[0].ID, models.SectionPatch{Body: &body}); err != nil {
		t.Fatalf("UpdateSection failed: %v", err)
	}

	final, err := svc.SetStep(ctx, author, d.ID, models.StepReview)
	if err != nil {
		t.Fatalf("SetStep(review) failed: %v", err)
	}
	if final.ProgressPercent != 100 {
		t.Errorf("progress = %d, want 100", final.ProgressPercent)
	}
}

func TestAddPageRequiresInfo(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	d, _ := svc.CreateDraft(ctx, models.CreateDraftRequest{AuthorID: author.ID})

	_, err := svc.AddPage(ctx, author, d.ID, models.AddPageRequest{SectionType: models.KindText})
	if err == nil || err.Error() != "Add a module title first." {
		t.Fatalf("expected title guard, got %v", err)
	}

	title := "Orientation"
	svc.UpdateInfo(ctx, author, d.ID, models.UpdateInfoRequest{Title: &title})

	_, err = svc.AddPage(ctx, author, d.ID, models.AddPageRequest{SectionType: models.KindText})
	if err == nil || err.Error() != "Add a module description first." {
		t.Fatalf("expected description guard, got %v", err)
	}
}

func TestWordCapsRejectNotTruncate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	d := readyDraft(t, svc)

	long := strings.Repeat("word ", models.TitleWordLimit+1)
	_, err := svc.UpdateInfo(ctx, author, d.ID, models.UpdateInfoRequest{Title: &long})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for oversized title, got %v", err)
	}

	reloaded, _ := svc.GetDraft(ctx, d.ID)
	if reloaded.Title != "Orientation" {
		t.Errorf("title was modified on rejected edit: %q", reloaded.Title)
	}

	longDesc := strings.Repeat("word ", models.DescriptionWordLimit+1)
	if _, err := svc.UpdateInfo(ctx, author, d.ID, models.UpdateInfoRequest{Description: &longDesc}); !IsValidation(err) {
		t.Fatalf("expected validation error for oversized description, got %v", err)
	}

	// Exactly at the cap is allowed
	atCap := strings.TrimSpace(strings.Repeat("word ", models.TitleWordLimit))
	if _, err := svc.UpdateInfo(ctx, author, d.ID, models.UpdateInfoRequest{Title: &atCap}); err != nil {
		t.Errorf("title at the cap should be accepted, got %v", err)
	}
}

func TestReorderIdempotence(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	d := readyDraft(t, svc)
	pageID := d.Pages[0].ID

	d, err := svc.AddSection(ctx, author, d.ID, pageID, models.KindEmbed)
	if err != nil {
		t.Fatalf("AddSection failed: %v", err)
	}
	if len(d.Pages[0].Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(d.Pages[0].Sections))
	}

	before := []string{d.Pages[0].Sections[0].ID, d.Pages[0].Sections[1].ID}

	d, err = svc.MoveSection(ctx, author, d.ID, pageID, before[1], "up")
	if err != nil {
		t.Fatalf("MoveSection up failed: %v", err)
	}
	if d.Pages[0].Sections[0].ID != before[1] {
		t.Fatal("up move did not swap sections")
	}

	d, err = svc.MoveSection(ctx, author, d.ID, pageID, before[1], "down")
	if err != nil {
		t.Fatalf("MoveSection down failed: %v", err)
	}
	after := []string{d.Pages[0].Sections[0].ID, d.Pages[0].Sections[1].ID}
	if after[0] != before[0] || after[1] != before[1] {
		t.Errorf("up then down did not restore order: %v vs %v", after, before)
	}
}

func TestMoveSectionOutOfBoundsIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	d := readyDraft(t, svc)
	pageID := d.Pages[0].ID
	sectionID := d.Pages[0].Sections[0].ID

	d, err := svc.MoveSection(ctx, author, d.ID, pageID, sectionID, "up")
	if err != nil {
		t.Fatalf("expected no-op, got error: %v", err)
	}
	if d.Pages[0].Sections[0].ID != sectionID {
		t.Error("out-of-bounds move changed order")
	}

	if _, err := svc.MoveSection(ctx, author, d.ID, pageID, sectionID, "sideways"); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("expected ErrInvalidDirection, got %v", err)
	}
}

func TestDuplicatePageIsolation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	d := readyDraft(t, svc)

	res, err := svc.DuplicatePage(ctx, author, d.ID, d.Pages[0].ID)
	if err != nil {
		t.Fatalf("DuplicatePage failed: %v", err)
	}
	if len(res.Draft.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(res.Draft.Pages))
	}
	if res.ActivePageIndex != 1 {
		t.Errorf("active index = %d, want 1 (the clone)", res.ActivePageIndex)
	}

	source, clone := res.Draft.Pages[0], res.Draft.Pages[1]
	if clone.Name != "Page 1 (copy)" {
		t.Errorf("clone name = %q, want \"Page 1 (copy)\"", clone.Name)
	}
	if clone.ID == source.ID {
		t.Error("clone shares page ID with source")
	}
	if clone.Sections[0].ID == source.Sections[0].ID {
		t.Error("clone shares section ID with source")
	}
	if clone.Sections[0].Body != "Welcome!" {
		t.Errorf("clone content not copied: %q", clone.Sections[0].Body)
	}

	// Mutating the clone must not touch the source
	mutated := "changed in clone"
	updated, err := svc.UpdateSection(ctx, author, d.ID, clone.ID, clone.Sections[0].ID, models.SectionPatch{Body: &mutated})
	if err != nil {
		t.Fatalf("UpdateSection on clone failed: %v", err)
	}
	if updated.Pages[0].Sections[0].Body != "Welcome!" {
		t.Error("mutating the clone altered the source page")
	}
}

func TestRemovePageAdjustsActiveIndex(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	d := readyDraft(t, svc)

	res, err := svc.RemovePage(ctx, author, d.ID, d.Pages[0].ID)
	if err != nil {
		t.Fatalf("RemovePage failed: %v", err)
	}
	if len(res.Draft.Pages) != 0 {
		t.Errorf("expected 0 pages, got %d", len(res.Draft.Pages))
	}
	if res.ActivePageIndex != -1 {
		t.Errorf("active index = %d, want -1 for empty draft", res.ActivePageIndex)
	}

	if _, err := svc.RemovePage(ctx, author, d.ID, "no-such-page"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("expected ErrPageNotFound, got %v", err)
	}
}

func TestCorrectIndexClamping(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	d := readyDraft(t, svc)
	pageID := d.Pages[0].ID

	d, err := svc.AddSection(ctx, author, d.ID, pageID, models.KindQuestionnaire)
	if err != nil {
		t.Fatalf("AddSection failed: %v", err)
	}
	quiz := d.Pages[0].Sections[1]

	// Two options with the second marked correct
	qs := quiz.Questions
	qs[0].Prompt = "Pick one"
	qs[0].Options = []string{"A", "B"}
	qs[0].CorrectIndex = 1
	d, err = svc.UpdateSection(ctx, author, d.ID, pageID, quiz.ID, models.SectionPatch{Questions: &qs})
	if err != nil {
		t.Fatalf("UpdateSection failed: %v", err)
	}
	if d.Pages[0].Sections[1].Questions[0].CorrectIndex != 1 {
		t.Fatal("valid correctIndex was altered")
	}

	// Removing an option invalidates the index; it must clamp to 0
	qs = d.Pages[0].Sections[1].Questions
	qs[0].Options = []string{"A"}
	d, err = svc.UpdateSection(ctx, author, d.ID, pageID, quiz.ID, models.SectionPatch{Questions: &qs})
	if err != nil {
		t.Fatalf("UpdateSection failed: %v", err)
	}
	if got := d.Pages[0].Sections[1].Questions[0].CorrectIndex; got != 0 {
		t.Errorf("correctIndex = %d, want clamped to 0", got)
	}
}

func TestAppendItem(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	d := readyDraft(t, svc)
	pageID := d.Pages[0].ID

	d, err := svc.AddSection(ctx, author, d.ID, pageID, models.KindChecklist)
	if err != nil {
		t.Fatalf("AddSection failed: %v", err)
	}
	checklist := d.Pages[0].Sections[1]
	if len(checklist.Items) != 1 {
		t.Fatalf("new checklist should be seeded with 1 item, got %d", len(checklist.Items))
	}

	d, err = svc.AppendItem(ctx, author, d.ID, pageID, checklist.ID)
	if err != nil {
		t.Fatalf("AppendItem failed: %v", err)
	}
	items := d.Pages[0].Sections[1].Items
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID == items[1].ID {
		t.Error("appended item shares ID with existing item")
	}
	if !items[1].Required {
		t.Error("appended checklist item should default to required")
	}

	// Text sections have no item list
	textID := d.Pages[0].Sections[0].ID
	if _, err := svc.AppendItem(ctx, author, d.ID, pageID, textID); !IsValidation(err) {
		t.Errorf("expected validation error for text section, got %v", err)
	}
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	d := readyDraft(t, svc)
	pageID := d.Pages[0].ID

	d, err := svc.AddSection(ctx, author, d.ID, pageID, models.KindQuestionnaire)
	if err != nil {
		t.Fatalf("AddSection failed: %v", err)
	}
	quiz := d.Pages[0].Sections[1]

	d, err = svc.AppendItem(ctx, author, d.ID, pageID, quiz.ID)
	if err != nil {
		t.Fatalf("AppendItem failed: %v", err)
	}

	// Point the second question at its last option, then delete the first
	// question; the survivor's correctIndex must stay valid.
	questions := d.Pages[0].Sections[1].Questions
	questions[1].Options = []string{"a", "b", "c"}
	questions[1].CorrectIndex = 2
	d, err = svc.UpdateSection(ctx, author, d.ID, pageID, quiz.ID, models.SectionPatch{Questions: &questions})
	if err != nil {
		t.Fatalf("UpdateSection failed: %v", err)
	}

	d, err = svc.RemoveItem(ctx, author, d.ID, pageID, quiz.ID, 0)
	if err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	remaining := d.Pages[0].Sections[1].Questions
	if len(remaining) != 1 {
		t.Fatalf("expected 1 question left, got %d", len(remaining))
	}
	if remaining[0].CorrectIndex != 2 {
		t.Errorf("correctIndex = %d, want 2", remaining[0].CorrectIndex)
	}

	// Out-of-range indices are rejected, not clamped
	if _, err := svc.RemoveItem(ctx, author, d.ID, pageID, quiz.ID, 5); !IsValidation(err) {
		t.Errorf("expected validation error for out-of-range index, got %v", err)
	}

	// Text sections have no item list
	textID := d.Pages[0].Sections[0].ID
	if _, err := svc.RemoveItem(ctx, author, d.ID, pageID, textID, 0); !IsValidation(err) {
		t.Errorf("expected validation error for text section, got %v", err)
	}
}

func TestConfirmAbandonPrunesExpiredTokens(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	d := readyDraft(t, svc)

	svc.mu.Lock()
	svc.pending[d.ID] = pendingAbandon{token: "stale-token", expiresAt: time.Now().Add(-time.Minute)}
	svc.mu.Unlock()

	// Even the matching token is rejected once expired
	if err := svc.ConfirmAbandon(ctx, d.ID, "stale-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	svc.mu.Lock()
	_, still := svc.pending[d.ID]
	svc.mu.Unlock()
	if still {
		t.Error("expired confirmation should be removed when observed")
	}

	if _, err := svc.GetDraft(ctx, d.ID); err != nil {
		t.Errorf("draft should survive an expired confirmation: %v", err)
	}

	// A fresh request issues a usable token again
	resp, err := svc.RequestAbandon(ctx, d.ID)
	if err != nil {
		t.Fatalf("RequestAbandon failed: %v", err)
	}
	if err := svc.ConfirmAbandon(ctx, d.ID, resp.ConfirmToken); err != nil {
		t.Fatalf("ConfirmAbandon failed: %v", err)
	}
}

func TestAbandonIsTwoPhaseAndIrreversible(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	d := readyDraft(t, svc)

	resp, err := svc.RequestAbandon(ctx, d.ID)
	if err != nil {
		t.Fatalf("RequestAbandon failed: %v", err)
	}
	if resp.ConfirmToken == "" {
		t.Fatal("expected a confirmation token")
	}

	// The request phase alone must not delete anything
	if _, err := svc.GetDraft(ctx, d.ID); err != nil {
		t.Fatalf("draft should survive the request phase: %v", err)
	}

	if err := svc.ConfirmAbandon(ctx, d.ID, "wrong-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	// Re-requesting replaces the outstanding confirmation
	resp, err = svc.RequestAbandon(ctx, d.ID)
	if err != nil {
		t.Fatalf("second RequestAbandon failed: %v", err)
	}
	if err := svc.ConfirmAbandon(ctx, d.ID, resp.ConfirmToken); err != nil {
		t.Fatalf("ConfirmAbandon failed: %v", err)
	}

	if _, err := svc.GetDraft(ctx, d.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("abandoned draft still loadable: %v", err)
	}

	// The spent token cannot be replayed
	if err := svc.ConfirmAbandon(ctx, d.ID, resp.ConfirmToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken on replay, got %v", err)
	}
}

func TestPublishAtomicity(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	d := readyDraft(t, svc)

	store.failPublish = true
	if _, err := svc.Publish(ctx, author, d.ID); err == nil {
		t.Fatal("expected publish failure")
	}

	// The draft must be intact and loadable with its pre-publish content
	reloaded, err := svc.GetDraft(ctx, d.ID)
	if err != nil {
		t.Fatalf("draft lost after failed publish: %v", err)
	}
	if reloaded.Title != "Orientation" || len(reloaded.Pages) != 1 {
		t.Error("draft content changed after failed publish")
	}

	store.failPublish = false
	m, err := svc.Publish(ctx, author, d.ID)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if m.EstimatedTimeMin != 10 {
		t.Errorf("estimated_time_min = %d, want 10", m.EstimatedTimeMin)
	}
	if m.CreatedBy != author.ID {
		t.Errorf("created_by = %q, want %q", m.CreatedBy, author.ID)
	}

	if _, err := svc.GetDraft(ctx, d.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("draft should be deleted after successful publish, got %v", err)
	}
}

func TestPublishRequiresCompleteDraft(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	d, _ := svc.CreateDraft(ctx, models.CreateDraftRequest{AuthorID: author.ID})
	_, err := svc.Publish(ctx, author, d.ID)
	if err == nil || err.Error() != "Complete Title, Description and at least one Page." {
		t.Fatalf("expected completeness guard, got %v", err)
	}
}

func TestResumeReturnsMostRecentDraft(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	first, _ := svc.CreateDraft(ctx, models.CreateDraftRequest{AuthorID: author.ID})
	second, _ := svc.CreateDraft(ctx, models.CreateDraftRequest{AuthorID: author.ID})

	// Touch the second draft so it is unambiguously the most recent
	title := "Second"
	if _, err := svc.UpdateInfo(ctx, author, second.ID, models.UpdateInfoRequest{Title: &title}); err != nil {
		t.Fatalf("UpdateInfo failed: %v", err)
	}

	resumed, err := svc.ResumeDraft(ctx, author.ID)
	if err != nil {
		t.Fatalf("ResumeDraft failed: %v", err)
	}
	if resumed.ID != second.ID {
		t.Errorf("resumed draft %s, want %s", resumed.ID, second.ID)
	}
	_ = first

	if _, err := svc.ResumeDraft(ctx, "nobody"); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("expected ErrDraftNotFound for unknown author, got %v", err)
	}
}

func TestStaleWriteWarning(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := newTestService(t)
	d := readyDraft(t, svc)

	other := models.Actor{ID: "user-2", DisplayName: "Sam"}
	title := "Edited elsewhere"
	if _, err := svc.UpdateInfo(ctx, other, d.ID, models.UpdateInfoRequest{Title: &title}); err != nil {
		t.Fatalf("UpdateInfo failed: %v", err)
	}

	var warnings int
	for _, n := range rec.Notices() {
		if n.Severity == notify.SeverityWarning && n.DraftID == d.ID {
			warnings++
		}
	}
	if warnings == 0 {
		t.Error("expected a stale-write warning when a second session overwrites the draft")
	}
}

func TestSaveFailureSurfacesAsNotice(t *testing.T) {
	ctx := context.Background()
	svc, store, rec := newTestService(t)
	d := readyDraft(t, svc)

	store.failUpdate = true
	title := "Will not stick"
	if _, err := svc.UpdateInfo(ctx, author, d.ID, models.UpdateInfoRequest{Title: &title}); err == nil {
		t.Fatal("expected save failure")
	}

	found := false
	for _, n := range rec.Notices() {
		if n.Severity == notify.SeverityError && n.Message == "Failed to save draft." {
			found = true
		}
	}
	if !found {
		t.Error("expected a failure notice for the dropped save")
	}
}

func TestBlueprintNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.CreateDraft(ctx, models.CreateDraftRequest{AuthorID: author.ID, BlueprintID: "nope"})
	if !errors.Is(err, ErrBlueprintNotFound) {
		t.Errorf("expected ErrBlueprintNotFound, got %v", err)
	}
}

func TestPageAutoNaming(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	d := readyDraft(t, svc)

	res, err := svc.AddPage(ctx, author, d.ID, models.AddPageRequest{SectionType: models.KindEmbed})
	if err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}

	for i, want := range []string{"Page 1", "Page 2"} {
		if got := res.Draft.Pages[i].Name; got != want {
			t.Errorf("page %d name = %q, want %q", i, got, want)
		}
	}

	renamed, err := svc.RenamePage(ctx, author, d.ID, res.Draft.Pages[1].ID, "Culture")
	if err != nil {
		t.Fatalf("RenamePage failed: %v", err)
	}
	if renamed.Pages[1].Name != "Culture" {
		t.Errorf("rename did not stick: %q", renamed.Pages[1].Name)
	}
}

func TestSetStepRejectsUnknownStep(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	d := readyDraft(t, svc)

	if _, err := svc.SetStep(ctx, author, d.ID, models.Step(7)); !errors.Is(err, ErrInvalidStep) {
		t.Errorf("expected ErrInvalidStep, got %v", err)
	}

	// Backward moves are always free
	if _, err := svc.SetStep(ctx, author, d.ID, models.StepInfo); err != nil {
		t.Errorf("backward move should be unguarded, got %v", err)
	}
}

func ExampleProgress() {
	d := &models.Draft{
		Title:       "Orientation",
		Description: "Intro to the company.",
		CurrentStep: models.StepReview,
		Pages:       []models.Page{{}},
	}
	fmt.Println(Progress(d))
	// Output: 100
}
