package models

import (
	"time"
)

// Step is the wizard step a draft is currently on
type Step int

const (
	StepInfo   Step = 0
	StepPages  Step = 1
	StepReview Step = 2
)

// Valid reports whether the step is one of the three wizard steps
func (s Step) Valid() bool {
	return s >= StepInfo && s <= StepReview
}

func (s Step) String() string {
	switch s {
	case StepInfo:
		return "info"
	case StepPages:
		return "pages"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// Word limits enforced at edit time: an edit pushing a field over the cap is
// rejected outright, never truncated.
const (
	TitleWordLimit       = 100
	DescriptionWordLimit = 250
)

// DraftStatus is the lifecycle state of a draft row
type DraftStatus string

const (
	DraftStatusDraft DraftStatus = "draft"
)

// Draft is the unit of work of the module builder. Every mutation persists
// the full snapshot of this struct; there is no partial-field write path.
type Draft struct {
	ID              string      `json:"id"`
	AuthorID        string      `json:"author_id"`
	AuthorName      string      `json:"author_name,omitempty"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	CurrentStep     Step        `json:"current_step"`
	ProgressPercent int         `json:"progress_percent"`
	Status          DraftStatus `json:"status"`
	Pages           []Page      `json:"pages"`
	Revision        int64       `json:"revision"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Actor identifies who is driving a builder session. It is resolved once per
// session and passed down explicitly; nothing reads an ambient current user.
type Actor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

// DraftFilters narrows draft listings
type DraftFilters struct {
	AuthorID string
	Limit    int
	Offset   int
}

// CreateDraftRequest creates a fresh draft, optionally seeded from a blueprint
type CreateDraftRequest struct {
	AuthorID    string `json:"author_id"`
	AuthorName  string `json:"author_name,omitempty"`
	BlueprintID string `json:"blueprint_id,omitempty"`
}

// UpdateInfoRequest patches title and/or description
type UpdateInfoRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// SetStepRequest moves the wizard to a step
type SetStepRequest struct {
	Step Step `json:"step"`
}

// AddPageRequest adds a page seeded with one section of the chosen kind
type AddPageRequest struct {
	SectionType SectionKind `json:"section_type"`
}

// RenamePageRequest renames a page; names need not be unique
type RenamePageRequest struct {
	Name string `json:"name"`
}

// AddSectionRequest appends a default section to a page
type AddSectionRequest struct {
	SectionType SectionKind `json:"section_type"`
}

// MoveSectionRequest swaps a section with its neighbor
type MoveSectionRequest struct {
	Direction string `json:"direction"` // "up" or "down"
}

// AbandonResponse carries the confirmation token for the second phase
type AbandonResponse struct {
	ConfirmToken string    `json:"confirm_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ConfirmAbandonRequest executes the irreversible delete
type ConfirmAbandonRequest struct {
	ConfirmToken string `json:"confirm_token"`
}

// PageResult is returned by page mutations that change the active page
type PageResult struct {
	Draft           *Draft `json:"draft"`
	ActivePageIndex int    `json:"active_page_index"`
}
