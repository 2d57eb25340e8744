package state

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "last_processed_ids.json"))
}

func TestLoadMissingFile(t *testing.T) {
	s := newTestStore(t)
	wm := s.Load()
	if len(wm) != 0 {
		t.Fatalf("expected empty watermarks for missing file, got %v", wm)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	in := Watermarks{
		-1001622757657: 4521,
		-1001686905299: 98,
	}
	if err := s.Save(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out := s.Load()
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if out[-1001622757657] != 4521 || out[-1001686905299] != 98 {
		t.Fatalf("round trip mismatch: %v", out)
	}
}

func TestLoadStringKeys(t *testing.T) {
	// The file format keeps chat ids as JSON string keys.
	s := newTestStore(t)
	content := `{"-1001622757657": 4521, "42": 7}`
	if err := os.WriteFile(s.Path(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	wm := s.Load()
	if wm[-1001622757657] != 4521 {
		t.Errorf("negative chat id not parsed: %v", wm)
	}
	if wm[42] != 7 {
		t.Errorf("positive chat id not parsed: %v", wm)
	}
}

func TestLoadMalformedContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "this is not json{{{"},
		{"wrong shape", `[1, 2, 3]`},
		{"non-numeric key", `{"chat-one": 5}`},
		{"non-numeric value", `{"42": "five"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			if err := os.WriteFile(s.Path(), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			wm := s.Load()
			if len(wm) != 0 {
				t.Fatalf("expected empty watermarks for malformed content, got %v", wm)
			}
		})
	}
}

func TestLoadEmptyFile(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if wm := s.Load(); len(wm) != 0 {
		t.Fatalf("expected empty watermarks for empty file, got %v", wm)
	}
}

func TestSaveReplacesWholeMapping(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(Watermarks{1: 10, 2: 20}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(Watermarks{1: 15}); err != nil {
		t.Fatal(err)
	}

	out := s.Load()
	if len(out) != 1 || out[1] != 15 {
		t.Fatalf("save should replace the full mapping, got %v", out)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(Watermarks{1: 10}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only the state file, found %v", names)
	}
}

func TestSaveIsByteStableForSameMapping(t *testing.T) {
	s := newTestStore(t)
	wm := Watermarks{-100111: 9, -100222: 42}

	if err := s.Save(wm); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Save(wm); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != string(second) {
		t.Fatalf("same mapping produced different bytes:\n%s\nvs\n%s", first, second)
	}
}
