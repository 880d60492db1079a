package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestReadFile(t *testing.T) {
	path := writeTemp(t, `{
		"url": "https://habr.com/ru/articles/12345/",
		"comments": [
			{"id": 7, "author": "vasya", "text": "Отличная статья", "datetime": "2025-10-04 12:00"},
			{"id": "8", "author": "petya", "text": "Спасибо!", "extra": true}
		]
	}`)

	dump, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if dump.URL != "https://habr.com/ru/articles/12345/" {
		t.Errorf("unexpected url %q", dump.URL)
	}
	if len(dump.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(dump.Comments))
	}
	if dump.Comments[0].ID.String() != "7" {
		t.Errorf("expected id 7, got %q", dump.Comments[0].ID.String())
	}
	if dump.Comments[1].ID.SortKey() != 8 {
		t.Errorf("expected numeric string id to sort as 8, got %v", dump.Comments[1].ID.SortKey())
	}
}

func TestReadFileDefaults(t *testing.T) {
	dump, err := ReadFile(writeTemp(t, `{}`))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if dump.URL != "" {
		t.Errorf("expected empty url, got %q", dump.URL)
	}
	if len(dump.Comments) != 0 {
		t.Errorf("expected no comments, got %d", len(dump.Comments))
	}
}

func TestReadFileMalformed(t *testing.T) {
	if _, err := ReadFile(writeTemp(t, `not json at all`)); err == nil {
		t.Fatal("expected error for malformed file")
	}
	if _, err := ReadFile(writeTemp(t, `[1, 2, 3]`)); err == nil {
		t.Fatal("expected error for unexpected top-level shape")
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEligibleDropsIncompleteRecords(t *testing.T) {
	dump, err := ReadFile(writeTemp(t, `{
		"comments": [
			{"id": 1, "author": "a", "text": "ok"},
			{"id": 2, "author": "", "text": "no author"},
			{"id": 3, "author": "b"},
			{"id": 4, "text": "no author key"}
		]
	}`))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	eligible := dump.Eligible()
	if len(eligible) != 1 {
		t.Fatalf("expected 1 eligible comment, got %d", len(eligible))
	}
	if eligible[0].Author != "a" {
		t.Errorf("unexpected survivor %q", eligible[0].Author)
	}
}

func TestCommentIDVariants(t *testing.T) {
	dump, err := ReadFile(writeTemp(t, `{
		"comments": [
			{"id": null, "author": "a", "text": "t"},
			{"id": 2.5, "author": "a", "text": "t"},
			{"id": "abc", "author": "a", "text": "t"},
			{"author": "a", "text": "t"}
		]
	}`))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	ids := dump.Comments
	if ids[0].ID.String() != "unknown" || ids[0].ID.SortKey() != 0 {
		t.Errorf("null id: got %q/%v", ids[0].ID.String(), ids[0].ID.SortKey())
	}
	if ids[1].ID.SortKey() != 2.5 || ids[1].ID.String() != "2.5" {
		t.Errorf("float id: got %q/%v", ids[1].ID.String(), ids[1].ID.SortKey())
	}
	// Non-numeric string keeps its display form but sorts as 0.
	if ids[2].ID.String() != "abc" || ids[2].ID.SortKey() != 0 {
		t.Errorf("string id: got %q/%v", ids[2].ID.String(), ids[2].ID.SortKey())
	}
	if ids[3].ID.String() != "unknown" {
		t.Errorf("absent id: got %q", ids[3].ID.String())
	}
}
