// Package blueprints loads starter module definitions from YAML files. A
// blueprint is a pre-filled draft skeleton (title, description, pages and
// sections) an author can start from instead of a blank wizard.
package blueprints

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/divu-hq/module-builder/internal/models"
	"github.com/divu-hq/module-builder/internal/registry"
)

// Blueprint is one loaded starter definition
type Blueprint struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Title       string        `json:"title"`
	Summary     string        `json:"summary"`
	Pages       []models.Page `json:"pages"`
}

// Loader manages loading and caching of blueprints
type Loader struct {
	mu         sync.RWMutex
	blueprints map[string]*Blueprint
}

// NewLoader creates a new blueprint loader
func NewLoader() *Loader {
	return &Loader{blueprints: make(map[string]*Blueprint)}
}

// LoadFromDir loads all YAML blueprints from a directory
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading blueprints from directory", "dir", dir)

	patterns := []string{"*.yaml", "*.yml"}
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load blueprint", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("blueprints loaded", "count", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads a single blueprint from a YAML file. The file name
// (without extension) becomes the blueprint ID unless the file sets one.
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var bf blueprintFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if bf.Name == "" {
		return fmt.Errorf("blueprint name is required")
	}

	id := bf.ID
	if id == "" {
		base := filepath.Base(path)
		id = strings.TrimSuffix(base, filepath.Ext(base))
	}

	bp := &Blueprint{
		ID:          id,
		Name:        bf.Name,
		Description: bf.Description,
		Title:       bf.Title,
		Summary:     bf.Summary,
	}

	for i, pf := range bf.Pages {
		page := models.Page{
			ID:   uuid.New().String(),
			Name: pf.Name,
		}
		if page.Name == "" {
			page.Name = fmt.Sprintf("Page %d", i+1)
		}
		for _, sf := range pf.Sections {
			page.Sections = append(page.Sections, buildSection(sf))
		}
		bp.Pages = append(bp.Pages, page)
	}

	l.mu.Lock()
	l.blueprints[id] = bp
	l.mu.Unlock()

	slog.Info("blueprint loaded", "id", id, "name", bf.Name, "pages", len(bp.Pages))
	return nil
}

// Get retrieves a blueprint by ID
func (l *Loader) Get(id string) *Blueprint {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.blueprints[id]
}

// List returns all loaded blueprints
func (l *Loader) List() []*Blueprint {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*Blueprint, 0, len(l.blueprints))
	for _, bp := range l.blueprints {
		result = append(result, bp)
	}
	return result
}

// Add programmatically adds a blueprint
func (l *Loader) Add(bp *Blueprint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blueprints[bp.ID] = bp
}

// Instantiate produces draft content from the blueprint with fresh IDs for
// every page, section and nested entry, so two drafts seeded from the same
// blueprint never share identity.
func (bp *Blueprint) Instantiate() (title, description string, pages []models.Page) {
	pages = make([]models.Page, len(bp.Pages))
	for i, p := range bp.Pages {
		page := models.Page{
			ID:   uuid.New().String(),
			Name: p.Name,
		}
		for _, s := range p.Sections {
			page.Sections = append(page.Sections, freshen(s))
		}
		pages[i] = page
	}
	return bp.Title, bp.Summary, pages
}

func freshen(s models.Section) models.Section {
	out := s
	out.ID = uuid.New().String()

	if s.Cards != nil {
		out.Cards = make([]models.Card, len(s.Cards))
		for i, c := range s.Cards {
			c.ID = uuid.New().String()
			out.Cards[i] = c
		}
	}
	if s.Items != nil {
		out.Items = make([]models.ListItem, len(s.Items))
		for i, it := range s.Items {
			it.ID = uuid.New().String()
			out.Items[i] = it
		}
	}
	if s.Questions != nil {
		out.Questions = make([]models.Question, len(s.Questions))
		for i, q := range s.Questions {
			q.ID = uuid.New().String()
			q.Options = append([]string(nil), q.Options...)
			out.Questions[i] = q
		}
	}
	return out
}

// buildSection converts one YAML section definition into a live section,
// starting from the kind's default so list-shaped kinds stay well-formed.
func buildSection(sf sectionFile) models.Section {
	kind := models.SectionKind(sf.Type)
	s := registry.Default(kind)

	s.Title = sf.Title
	s.Body = sf.Body
	s.MediaPath = sf.MediaPath
	s.Caption = sf.Caption
	s.Transcript = sf.Transcript
	s.URL = sf.URL
	s.Note = sf.Note

	if len(sf.Cards) > 0 {
		s.Cards = nil
		for _, c := range sf.Cards {
			s.Cards = append(s.Cards, models.Card{
				ID:    uuid.New().String(),
				Title: c.Title,
				Info:  c.Info,
			})
		}
	}
	if len(sf.Items) > 0 {
		s.Items = nil
		for _, it := range sf.Items {
			item := models.ListItem{
				ID:     uuid.New().String(),
				Header: it.Header,
				Info:   it.Info,
				Text:   it.Text,
			}
			if kind == models.KindChecklist {
				item.Required = it.Required == nil || *it.Required
			}
			s.Items = append(s.Items, item)
		}
	}
	if len(sf.Questions) > 0 {
		s.Questions = nil
		for _, q := range sf.Questions {
			question := models.Question{
				ID:           uuid.New().String(),
				Prompt:       q.Prompt,
				Kind:         q.Kind,
				Options:      q.Options,
				CorrectIndex: q.CorrectIndex,
			}
			if question.Kind == "" {
				question.Kind = "mcq"
			}
			if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.Options) {
				question.CorrectIndex = 0
			}
			s.Questions = append(s.Questions, question)
		}
	}

	return s
}

// --- YAML file structs ---

// blueprintFile represents the YAML structure of a blueprint file
type blueprintFile struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Title       string     `yaml:"title"`
	Summary     string     `yaml:"summary"`
	Pages       []pageFile `yaml:"pages"`
}

type pageFile struct {
	Name     string        `yaml:"name"`
	Sections []sectionFile `yaml:"sections"`
}

type sectionFile struct {
	Type       string         `yaml:"type"`
	Title      string         `yaml:"title"`
	Body       string         `yaml:"body"`
	MediaPath  string         `yaml:"media_path"`
	Caption    string         `yaml:"caption"`
	Transcript string         `yaml:"transcript"`
	URL        string         `yaml:"url"`
	Note       string         `yaml:"note"`
	Cards      []cardFile     `yaml:"cards"`
	Items      []itemFile     `yaml:"items"`
	Questions  []questionFile `yaml:"questions"`
}

type cardFile struct {
	Title string `yaml:"title"`
	Info  string `yaml:"info"`
}

type itemFile struct {
	Header   string `yaml:"header"`
	Info     string `yaml:"info"`
	Text     string `yaml:"text"`
	Required *bool  `yaml:"required"`
}

type questionFile struct {
	Prompt       string   `yaml:"prompt"`
	Kind         string   `yaml:"kind"`
	Options      []string `yaml:"options"`
	CorrectIndex int      `yaml:"correct_index"`
}
