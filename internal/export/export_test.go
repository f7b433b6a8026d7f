package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/rewired-gh/usercube/internal/cube"
	"github.com/rewired-gh/usercube/internal/models"
	"github.com/rewired-gh/usercube/internal/source"
)

func sampleSnapshot(filter string) Snapshot {
	c := cube.BuildFromText(source.SampleCSV, cube.Options{})
	view := cube.Filter(c, filter)
	return Snapshot{
		Dataset:     "sessions",
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Filter:      filter,
		Stats:       cube.ComputeStats(view.Cells),
		Categories:  cube.CategoryBreakdown(view.Cells, view.Categories, nil),
		Spread:      cube.Spread(view.Cells),
		View:        view,
		Labels:      map[string]string{"video": "Video"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in       string
		expected Format
		wantErr  bool
	}{
		{"json", FormatJSON, false},
		{" YAML ", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"table", FormatTable, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.expected {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, sampleSnapshot("U0")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var got struct {
		Dataset string             `json:"dataset"`
		Stats   models.GlobalStats `json:"stats"`
		View    struct {
			Cells []struct {
				ID      string           `json:"id"`
				Details []map[string]any `json:"details"`
			} `json:"cells"`
		} `json:"view"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if got.Dataset != "sessions" || got.Stats.UserCount != 9 || len(got.View.Cells) != 9 {
		t.Errorf("Unexpected export %+v", got)
	}
	detail := got.View.Cells[0].Details[0]
	if detail["user_id"] != "U01" || detail["hour"] != float64(8) || detail["recommended"] != "no" {
		t.Errorf("Unexpected detail encoding %+v", detail)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatYAML, sampleSnapshot("U40")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var got struct {
		Stats struct {
			UserCount int `yaml:"user_count"`
		} `yaml:"stats"`
		View struct {
			Cells []struct {
				ID        string           `yaml:"id"`
				PageLabel string           `yaml:"page_label"`
				Details   []map[string]any `yaml:"details"`
			} `yaml:"cells"`
		} `yaml:"view"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Invalid YAML: %v\n%s", err, buf.String())
	}
	if got.Stats.UserCount != 1 || len(got.View.Cells) != 1 {
		t.Fatalf("Unexpected export %+v", got)
	}
	cell := got.View.Cells[0]
	if cell.ID != "video-U40" || cell.PageLabel != "Group 5" {
		t.Errorf("Unexpected cell %+v", cell)
	}
	if cell.Details[0]["session_minutes"] != 60 || cell.Details[0]["day_type"] != "weekend" {
		t.Errorf("Unexpected details %+v", cell.Details[0])
	}
	if !strings.Contains(buf.String(), "- user_id: U40\n") {
		t.Errorf("Expected user_id first in detail mapping:\n%s", buf.String())
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatTable, sampleSnapshot("U3")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"PAGE", "VIDEO", "U03", "U39", "Group 4 (U25 - U32)", "110", "users=13"} {
		if !strings.Contains(strings.ToUpper(out), strings.ToUpper(want)) {
			t.Errorf("Expected table to contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "U02") {
		t.Errorf("Expected filtered-out users to be absent:\n%s", out)
	}
}

func TestWriteTable_SelectedCell(t *testing.T) {
	snap := sampleSnapshot("U3")
	cell, ok := snap.View.CellByID("video-U31")
	if !ok {
		t.Fatal("Expected video-U31 in the sample")
	}
	snap.Selected = cell

	var buf bytes.Buffer
	if err := WriteTable(&buf, snap); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"video-U31 (Video, Group 4)", "minutes=110", "weight=1.00", "weekend", "desktop"} {
		if !strings.Contains(strings.ToUpper(out), strings.ToUpper(want)) {
			t.Errorf("Expected output to contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "users=") {
		t.Errorf("Expected the cell panel instead of view stats:\n%s", out)
	}
}

func TestWriteJSON_SelectedCell(t *testing.T) {
	snap := sampleSnapshot("U40")
	snap.Selected = snap.View.Cells[0]

	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, snap); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	var got struct {
		Selected *struct {
			ID string `json:"id"`
		} `json:"selected"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if got.Selected == nil || got.Selected.ID != "video-U40" {
		t.Errorf("Expected selected video-U40, got %+v", got.Selected)
	}
}

func TestWriteTable_EmptyView(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sampleSnapshot("#")); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	if !strings.Contains(buf.String(), "users=0 total_hours=0 avg_min=0 binge=0") {
		t.Errorf("Unexpected empty table output:\n%s", buf.String())
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, Format("xml"), sampleSnapshot("")); err == nil {
		t.Error("Expected error for unknown format")
	}
}
