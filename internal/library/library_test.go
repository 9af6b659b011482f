package library

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/sfxagent/pkg/models"
)

func record(path string, peak float64) models.LibraryRecord {
	return models.LibraryRecord{
		Prompt:     "prompt for " + path,
		OutputPath: path,
		Duration:   1.5,
		Influence:  0.7,
		Parameters: models.SoundParameters{Source: "door"},
		Metrics:    models.Metrics{PeakLevel: peak, IntegratedLoudness: -18},
		RunID:      "run-1",
		CreatedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNew_DefaultPath(t *testing.T) {
	if got := New("").Path(); got != DefaultPath {
		t.Errorf("Path() = %q, want %q", got, DefaultPath)
	}
}

func TestAppendRecords_NewLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.yml")
	store := New(path)

	got, err := store.AppendRecords("my test brief", []models.LibraryRecord{record("a.wav", -1)})
	if err != nil {
		t.Fatalf("AppendRecords failed: %v", err)
	}
	if got != path {
		t.Errorf("returned path = %q, want %q", got, path)
	}

	data, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	recs := data["my test brief"]
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if recs[0].OutputPath != "a.wav" || recs[0].Metrics.PeakLevel != -1 {
		t.Errorf("record = %+v", recs[0])
	}
	if !recs[0].CreatedAt.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", recs[0].CreatedAt)
	}
}

func TestAppendRecords_ConcatenatesExisting(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "lib.yml"))

	if _, err := store.AppendRecords("brief", []models.LibraryRecord{record("a.wav", -1)}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AppendRecords("other", []models.LibraryRecord{record("x.wav", -3)}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AppendRecords("brief", []models.LibraryRecord{record("b.wav", -2)}); err != nil {
		t.Fatal(err)
	}

	data, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	recs := data["brief"]
	if len(recs) != 2 || recs[0].OutputPath != "a.wav" || recs[1].OutputPath != "b.wav" {
		t.Errorf("brief records = %+v, want a.wav then b.wav", recs)
	}
	if len(data["other"]) != 1 {
		t.Errorf("other brief should be untouched, got %+v", data["other"])
	}

	briefs, err := store.Briefs()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(briefs, ",") != "brief,other" {
		t.Errorf("Briefs() = %v, want [brief other]", briefs)
	}
}

func TestAppendRecords_PreservesForeignContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.yml")
	initial := "# hand-written notes\nmy test brief:\n  - path: a.wav\n    peak_dB: -1.0\n"
	if err := os.WriteFile(path, []byte(initial), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(path).AppendRecords("my test brief", []models.LibraryRecord{record("b.wav", -2)}); err != nil {
		t.Fatalf("AppendRecords failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string][]map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("library is not valid YAML: %v", err)
	}
	entries := doc["my test brief"]
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0]["path"] != "a.wav" || entries[0]["peak_dB"] != -1.0 {
		t.Errorf("existing entry changed: %v", entries[0])
	}
	if entries[1]["output_path"] != "b.wav" {
		t.Errorf("new entry = %v", entries[1])
	}
	if !strings.Contains(string(raw), "# hand-written notes") {
		t.Error("comments should survive an append")
	}
}

func TestAppendRecords_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "lib.yml")

	if _, err := New(path).AppendRecords("brief", nil); err != nil {
		t.Fatalf("AppendRecords failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("library not created: %v", err)
	}
	var doc map[string][]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	entries, ok := doc["brief"]
	if !ok || len(entries) != 0 {
		t.Errorf("doc = %v, want {brief: []}", doc)
	}
}

func TestAppendRecords_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.yml")
	if err := os.WriteFile(path, []byte("\n  \n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(path).AppendRecords("brief", []models.LibraryRecord{record("a.wav", -1)}); err != nil {
		t.Fatalf("AppendRecords on empty file failed: %v", err)
	}
	data, err := New(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(data["brief"]) != 1 {
		t.Errorf("records = %d, want 1", len(data["brief"]))
	}
}

func TestAppendRecords_CorruptFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "brief: [unclosed\n  - : :"},
		{"not a mapping", "- one\n- two\n"},
		{"entry not a list", "brief: just text\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lib.yml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			_, err := New(path).AppendRecords("brief", []models.LibraryRecord{record("a.wav", -1)})
			var se *StoreError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want StoreError", err)
			}

			after, _ := os.ReadFile(path)
			if string(after) != tt.content {
				t.Error("a failed append must leave the file untouched")
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	data, err := New(filepath.Join(t.TempDir(), "none.yml")).Load()
	if err != nil {
		t.Fatalf("Load on missing file failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("data = %v, want empty", data)
	}
}
