package appstate

import (
	"errors"
	"testing"
)

func TestParseTemplateFull(t *testing.T) {
	raw := "Заголовок: Уход в первый день\nКатегория: Уход после сеанса\nТеги: уход, день1\nТекст: Промойте тату тёплой водой.\nНе трите полотенцем."

	tpl, err := ParseTemplate(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tpl.Title != "Уход в первый день" {
		t.Fatalf("title = %q", tpl.Title)
	}
	if tpl.Category != "Уход после сеанса" {
		t.Fatalf("category = %q", tpl.Category)
	}
	if len(tpl.Tags) != 2 || tpl.Tags[0] != "уход" || tpl.Tags[1] != "день1" {
		t.Fatalf("tags = %v", tpl.Tags)
	}
	if tpl.Text != "Промойте тату тёплой водой.\nНе трите полотенцем." {
		t.Fatalf("text = %q", tpl.Text)
	}
}

func TestParseTemplateMinimal(t *testing.T) {
	tpl, err := ParseTemplate("Заголовок: Кратко\nТекст: Тело")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tpl.Category != "" || len(tpl.Tags) != 0 {
		t.Fatalf("optional fields populated: %+v", tpl)
	}
}

func TestParseTemplateRequiresTitleAndText(t *testing.T) {
	cases := []string{
		"Текст: только тело",
		"Заголовок: только заголовок",
		"произвольный текст без разметки",
		"",
	}
	for _, raw := range cases {
		if _, err := ParseTemplate(raw); !errors.Is(err, ErrTemplateIncomplete) {
			t.Fatalf("ParseTemplate(%q) err = %v, want ErrTemplateIncomplete", raw, err)
		}
	}
}

func TestCategoryListRejectsDuplicatesAndEmpty(t *testing.T) {
	list := NewCategoryList("Заживление")

	if err := list.Add("Коррекция"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := list.Add("  "); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("empty name err = %v", err)
	}
	if err := list.Add("заживление"); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("case-insensitive duplicate err = %v", err)
	}
	if got := len(list.List()); got != 2 {
		t.Fatalf("categories = %d, want 2", got)
	}
}

func TestCategoryListTrimsNames(t *testing.T) {
	list := NewCategoryList()
	if err := list.Add("  Общие вопросы  "); err != nil {
		t.Fatalf("add: %v", err)
	}
	if list.List()[0] != "Общие вопросы" {
		t.Fatalf("name not trimmed: %q", list.List()[0])
	}
}
