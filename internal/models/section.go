package models

// SectionKind identifies the content variant a section carries
type SectionKind string

const (
	KindText          SectionKind = "text"
	KindPhoto         SectionKind = "photo"
	KindVideo         SectionKind = "video"
	KindFlashcards    SectionKind = "flashcards"
	KindDropdowns     SectionKind = "dropdowns"
	KindQuestionnaire SectionKind = "questionnaire"
	KindChecklist     SectionKind = "checklist"
	KindEmbed         SectionKind = "embed"
)

// Section is a tagged union keyed by Kind. Only the fields belonging to the
// active variant are populated; everything else stays at its zero value and
// is omitted from JSON. Every section carries an ID generated at creation,
// stable across reorders and renames.
type Section struct {
	ID   string      `json:"id"`
	Kind SectionKind `json:"type"`

	// text
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`

	// photo / video
	MediaPath  string `json:"media_path,omitempty"`
	Caption    string `json:"caption,omitempty"`
	Transcript string `json:"transcript,omitempty"`

	// flashcards
	Cards []Card `json:"cards,omitempty"`

	// dropdowns / checklist (both variants store their entries under "items")
	Items []ListItem `json:"items,omitempty"`

	// questionnaire
	Questions []Question `json:"questions,omitempty"`

	// embed
	URL  string `json:"url,omitempty"`
	Note string `json:"note,omitempty"`
}

// Card is one flashcard entry
type Card struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Info  string `json:"info"`
}

// ListItem is one entry of a dropdowns or checklist section. Dropdowns use
// Header/Info, checklists use Text/Required.
type ListItem struct {
	ID       string `json:"id"`
	Header   string `json:"header,omitempty"`
	Info     string `json:"info,omitempty"`
	Text     string `json:"text,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// Question is one questionnaire entry. CorrectIndex is always kept inside
// [0, len(Options)-1]; mutations that shrink Options re-clamp it.
type Question struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Kind         string   `json:"kind"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Page owns an ordered list of sections. Order is meaningful: it defines
// rendering and traversal order.
type Page struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Sections []Section `json:"sections"`
}

// SectionPatch is a partial update for one section. Nil fields are left
// untouched; non-nil slices replace the section's slice wholesale, which is
// how item appends, edits and deletions arrive from the editor.
type SectionPatch struct {
	Title      *string     `json:"title,omitempty"`
	Body       *string     `json:"body,omitempty"`
	MediaPath  *string     `json:"media_path,omitempty"`
	Caption    *string     `json:"caption,omitempty"`
	Transcript *string     `json:"transcript,omitempty"`
	Cards      *[]Card     `json:"cards,omitempty"`
	Items      *[]ListItem `json:"items,omitempty"`
	Questions  *[]Question `json:"questions,omitempty"`
	URL        *string     `json:"url,omitempty"`
	Note       *string     `json:"note,omitempty"`
}
