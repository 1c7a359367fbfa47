package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "MCQ Grader" {
		t.Errorf("T(AppTitle) = %q, want 'MCQ Grader'", got)
	}

	got = T(ctx, "InvalidCourseCode")
	if got != "Course code cannot be empty." {
		t.Errorf("T(InvalidCourseCode) = %q", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "AppTitle")
	if got != "Проверка тестов" {
		t.Errorf("T(AppTitle) = %q, want 'Проверка тестов'", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "TemplateNotFound", map[string]any{"Course": "CS101"})
	if got != "No template is saved for course CS101." {
		t.Errorf("Td(TemplateNotFound) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}
