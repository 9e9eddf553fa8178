package appstate

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// Template parsing and category errors.
var (
	ErrTemplateIncomplete = errors.New("template requires a title and a body")
	ErrEmptyCategory      = errors.New("category name is empty")
	ErrDuplicateCategory  = errors.New("category already exists")
)

// Template is an in-memory reply template captured from the admin panel.
type Template struct {
	Title     string   `json:"title"`
	Category  string   `json:"category,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Text      string   `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TemplateStore keeps templates for the lifetime of the process.
type TemplateStore struct {
	mu    sync.Mutex
	items []Template
}

// NewTemplateStore creates an empty store.
func NewTemplateStore() *TemplateStore {
	return &TemplateStore{}
}

// Add appends a template.
func (s *TemplateStore) Add(t Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.CreatedAt = time.Now()
	s.items = append(s.items, t)
}

// List returns a copy of all templates.
func (s *TemplateStore) List() []Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Template, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of stored templates.
func (s *TemplateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// ParseTemplate reads the structured multi-line capture format:
//
//	Заголовок: <title>
//	Категория: <category>
//	Теги: <tag, tag>
//	Текст: <body, may span the remaining lines>
//
// Title and body are required; category and tags are optional.
func ParseTemplate(raw string) (Template, error) {
	var t Template
	lines := strings.Split(raw, "\n")
	inText := false
	var textLines []string

	for _, line := range lines {
		if inText {
			textLines = append(textLines, line)
			continue
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Заголовок:"):
			t.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "Заголовок:"))
		case strings.HasPrefix(trimmed, "Категория:"):
			t.Category = strings.TrimSpace(strings.TrimPrefix(trimmed, "Категория:"))
		case strings.HasPrefix(trimmed, "Теги:"):
			for _, tag := range strings.Split(strings.TrimPrefix(trimmed, "Теги:"), ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					t.Tags = append(t.Tags, tag)
				}
			}
		case strings.HasPrefix(trimmed, "Текст:"):
			first := strings.TrimSpace(strings.TrimPrefix(trimmed, "Текст:"))
			if first != "" {
				textLines = append(textLines, first)
			}
			inText = true
		}
	}

	t.Text = strings.TrimSpace(strings.Join(textLines, "\n"))
	if t.Title == "" || t.Text == "" {
		return Template{}, ErrTemplateIncomplete
	}
	return t, nil
}

// CategoryList is the in-memory list of question/template categories.
type CategoryList struct {
	mu    sync.Mutex
	names []string
}

// NewCategoryList seeds the default categories.
func NewCategoryList(defaults ...string) *CategoryList {
	l := &CategoryList{}
	l.names = append(l.names, defaults...)
	return l
}

// Add validates and appends a category name.
func (l *CategoryList) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategory
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.names {
		if strings.EqualFold(existing, name) {
			return ErrDuplicateCategory
		}
	}
	l.names = append(l.names, name)
	return nil
}

// List returns a copy of the category names.
func (l *CategoryList) List() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}
