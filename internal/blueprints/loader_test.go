package blueprints

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/divu-hq/module-builder/internal/models"
)

const orientationYAML = `
name: Orientation Starter
description: A starter for first-week orientation modules
title: Welcome to the Team
summary: Everything a new hire needs in week one.
pages:
  - name: Welcome
    sections:
      - type: text
        title: Hello
        body: Welcome aboard!
      - type: embed
        url: https://handbook.example.com
        note: Company handbook
  - name: Policies
    sections:
      - type: checklist
        items:
          - text: Sign the NDA
          - text: Read the code of conduct
            required: false
      - type: questionnaire
        questions:
          - prompt: Who do you contact for IT issues?
            options: ["Helpdesk", "Your manager", "Nobody"]
            correct_index: 0
`

func writeBlueprint(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write blueprint file: %v", err)
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	writeBlueprint(t, dir, "orientation.yaml", orientationYAML)
	writeBlueprint(t, dir, "broken.yaml", "name: [unclosed")

	loader := NewLoader()
	if err := loader.LoadFromDir(dir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}

	// The broken file is skipped, not fatal
	if got := len(loader.List()); got != 1 {
		t.Fatalf("expected 1 blueprint loaded, got %d", got)
	}

	bp := loader.Get("orientation")
	if bp == nil {
		t.Fatal("orientation blueprint not found")
	}
	if bp.Name != "Orientation Starter" {
		t.Errorf("unexpected name: %s", bp.Name)
	}
	if len(bp.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(bp.Pages))
	}
	if bp.Pages[0].Name != "Welcome" {
		t.Errorf("unexpected first page name: %s", bp.Pages[0].Name)
	}

	checklist := bp.Pages[1].Sections[0]
	if checklist.Kind != models.KindChecklist {
		t.Fatalf("expected checklist section, got %s", checklist.Kind)
	}
	if len(checklist.Items) != 2 {
		t.Fatalf("expected 2 checklist items, got %d", len(checklist.Items))
	}
	if !checklist.Items[0].Required {
		t.Error("checklist items should default to required")
	}
	if checklist.Items[1].Required {
		t.Error("explicit required: false should be honored")
	}

	quiz := bp.Pages[1].Sections[1]
	if quiz.Kind != models.KindQuestionnaire {
		t.Fatalf("expected questionnaire section, got %s", quiz.Kind)
	}
	if len(quiz.Questions) != 1 || len(quiz.Questions[0].Options) != 3 {
		t.Fatalf("unexpected quiz shape: %+v", quiz.Questions)
	}
	if quiz.Questions[0].Kind != "mcq" {
		t.Errorf("question kind should default to mcq, got %s", quiz.Questions[0].Kind)
	}
}

func TestLoadRequiresName(t *testing.T) {
	dir := t.TempDir()
	writeBlueprint(t, dir, "anon.yaml", "title: No Name Here")

	loader := NewLoader()
	if err := loader.LoadFromFile(filepath.Join(dir, "anon.yaml")); err == nil {
		t.Error("expected error for blueprint without a name")
	}
}

func TestInstantiateGeneratesFreshIDs(t *testing.T) {
	dir := t.TempDir()
	writeBlueprint(t, dir, "orientation.yaml", orientationYAML)

	loader := NewLoader()
	if err := loader.LoadFromDir(dir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}
	bp := loader.Get("orientation")

	title, summary, first := bp.Instantiate()
	_, _, second := bp.Instantiate()

	if title != "Welcome to the Team" {
		t.Errorf("unexpected title: %s", title)
	}
	if summary == "" {
		t.Error("expected a summary")
	}

	if first[0].ID == second[0].ID {
		t.Error("two instantiations share a page ID")
	}
	if first[0].Sections[0].ID == second[0].Sections[0].ID {
		t.Error("two instantiations share a section ID")
	}
	if first[1].Sections[0].Items[0].ID == second[1].Sections[0].Items[0].ID {
		t.Error("two instantiations share a checklist item ID")
	}

	// Instantiation must not alias the blueprint's own content either
	if first[0].ID == bp.Pages[0].ID {
		t.Error("instantiated page shares ID with the blueprint template")
	}

	first[0].Sections[0].Body = "mutated"
	if bp.Pages[0].Sections[0].Body == "mutated" {
		t.Error("mutating an instantiation leaked into the blueprint")
	}
}

func TestMediaSectionsCarryUploadPaths(t *testing.T) {
	dir := t.TempDir()
	writeBlueprint(t, dir, "tour.yaml", `
name: Facility Tour
title: Facility Tour
summary: Video walkthrough of the office.
pages:
  - name: Tour
    sections:
      - type: video
        title: Walkthrough
        media_path: uploads/tour.mp4
        transcript: Welcome to the building.
      - type: photo
        media_path: uploads/lobby.png
        caption: The lobby
`)

	loader := NewLoader()
	if err := loader.LoadFromDir(dir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}

	bp := loader.Get("tour")
	if bp == nil {
		t.Fatal("tour blueprint not found")
	}

	video := bp.Pages[0].Sections[0]
	if video.Kind != models.KindVideo {
		t.Fatalf("expected video section, got %s", video.Kind)
	}
	if video.MediaPath != "uploads/tour.mp4" {
		t.Errorf("video media_path = %q, want uploads/tour.mp4", video.MediaPath)
	}
	if video.Transcript != "Welcome to the building." {
		t.Errorf("unexpected transcript: %q", video.Transcript)
	}

	photo := bp.Pages[0].Sections[1]
	if photo.MediaPath != "uploads/lobby.png" || photo.Caption != "The lobby" {
		t.Errorf("unexpected photo section: %+v", photo)
	}

	// Media paths survive instantiation, so a seeded draft validates
	_, _, pages := bp.Instantiate()
	if pages[0].Sections[0].MediaPath != "uploads/tour.mp4" {
		t.Errorf("instantiated video lost its media_path: %q", pages[0].Sections[0].MediaPath)
	}
}

func TestUnknownSectionTypeFallsBackToText(t *testing.T) {
	dir := t.TempDir()
	writeBlueprint(t, dir, "odd.yaml", `
name: Odd
pages:
  - sections:
      - type: hologram
        body: future content
`)

	loader := NewLoader()
	if err := loader.LoadFromDir(dir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}

	bp := loader.Get("odd")
	if bp == nil {
		t.Fatal("odd blueprint not found")
	}
	if bp.Pages[0].Name != "Page 1" {
		t.Errorf("unnamed page should default to Page 1, got %q", bp.Pages[0].Name)
	}
	s := bp.Pages[0].Sections[0]
	if s.Kind != models.KindText {
		t.Errorf("unknown type should fall back to text, got %s", s.Kind)
	}
	if s.Body != "future content" {
		t.Errorf("body should survive the fallback, got %q", s.Body)
	}
}
