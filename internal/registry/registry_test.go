package registry

import (
	"testing"

	"github.com/divu-hq/module-builder/internal/models"
)

func TestKindsOrderAndKnown(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 8 {
		t.Fatalf("expected 8 kinds, got %d", len(kinds))
	}
	if kinds[0].Kind != models.KindText || kinds[len(kinds)-1].Kind != models.KindEmbed {
		t.Errorf("chooser order changed: first %s, last %s", kinds[0].Kind, kinds[len(kinds)-1].Kind)
	}

	for _, k := range kinds {
		if !Known(k.Kind) {
			t.Errorf("%s should be known", k.Kind)
		}
		if k.Label == "" {
			t.Errorf("%s has no label", k.Kind)
		}
	}
	if Known("hologram") {
		t.Error("unregistered kind reported as known")
	}
}

func TestDefaultShapes(t *testing.T) {
	for _, k := range Kinds() {
		s := Default(k.Kind)
		if s.ID == "" {
			t.Errorf("%s default has no ID", k.Kind)
		}
		if s.Kind != k.Kind {
			t.Errorf("%s default carries kind %s", k.Kind, s.Kind)
		}
	}

	fc := Default(models.KindFlashcards)
	if len(fc.Cards) != 1 || fc.Cards[0].ID == "" {
		t.Errorf("flashcards default should seed one identified card: %+v", fc.Cards)
	}

	dd := Default(models.KindDropdowns)
	if len(dd.Items) != 1 {
		t.Errorf("dropdowns default should seed one item: %+v", dd.Items)
	}

	cl := Default(models.KindChecklist)
	if len(cl.Items) != 1 || !cl.Items[0].Required {
		t.Errorf("checklist default should seed one required item: %+v", cl.Items)
	}

	qn := Default(models.KindQuestionnaire)
	if len(qn.Questions) != 1 {
		t.Fatalf("questionnaire default should seed one question: %+v", qn.Questions)
	}
	q := qn.Questions[0]
	if q.Kind != "mcq" || len(q.Options) != 2 || q.CorrectIndex != 0 {
		t.Errorf("unexpected default question shape: %+v", q)
	}
}

func TestDefaultGeneratesFreshIdentities(t *testing.T) {
	a := Default(models.KindFlashcards)
	b := Default(models.KindFlashcards)
	if a.ID == b.ID {
		t.Error("two defaults share a section ID")
	}
	if a.Cards[0].ID == b.Cards[0].ID {
		t.Error("two defaults share a card ID")
	}
}

func TestUnknownKindFallsBackToText(t *testing.T) {
	s := Default("hologram")
	if s.Kind != models.KindText {
		t.Errorf("unknown kind should fall back to text, got %s", s.Kind)
	}
	if s.ID == "" {
		t.Error("fallback section has no ID")
	}
}
