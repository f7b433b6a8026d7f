package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rewired-gh/usercube/internal/config"
	"github.com/rewired-gh/usercube/internal/cube"
	"github.com/rewired-gh/usercube/internal/export"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg.Storage.DBPath = ":memory:"
	cfg.Storage.MaxDatasets = 2
	a, err := newApp(cfg)
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	t.Cleanup(a.close)
	return a
}

func TestLoadDataset_ImportsSampleWhenEmpty(t *testing.T) {
	a := newTestApp(t)

	d, err := a.loadDataset(context.Background(), "")
	if err != nil {
		t.Fatalf("loadDataset failed: %v", err)
	}
	if d.RowCount != 40 || d.Source != "sample" {
		t.Errorf("Expected 40 sample rows, got %d from %q", d.RowCount, d.Source)
	}

	again, err := a.loadDataset(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != d.ID {
		t.Errorf("Expected latest dataset %s, got %s", d.ID, again.ID)
	}
}

func TestOpenExplorer_RestoresSession(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	d, err := a.loadDataset(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	e := a.openExplorer(d)
	if st := e.Stats(); st.UserCount != 40 || st.TotalHours != 24 {
		t.Errorf("Unexpected stats %+v", st)
	}

	e.SetFilter("U4")
	if _, err := e.Select("video-U40"); err != nil {
		t.Fatal(err)
	}
	a.saveSession(e)

	restored := a.openExplorer(d)
	if restored.Filter() != "U4" {
		t.Errorf("Expected restored filter U4, got %q", restored.Filter())
	}
	if sel := restored.Selected(); sel == nil || sel.ID != "video-U40" {
		t.Errorf("Expected restored selection video-U40, got %+v", sel)
	}
}

func TestSummary_ShowsRestoredSelection(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	d, err := a.loadDataset(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	e := a.openExplorer(d)
	if _, err := e.Select("video-U32"); err != nil {
		t.Fatal(err)
	}
	a.saveSession(e)

	snap := snapshot(d, a.openExplorer(d))
	if snap.Selected == nil || snap.Selected.ID != "video-U32" {
		t.Fatalf("Expected snapshot to carry video-U32, got %+v", snap.Selected)
	}
	var buf bytes.Buffer
	if err := export.WriteTable(&buf, snap); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "minutes=90") {
		t.Errorf("Expected the selected cell's minutes in the summary:\n%s", buf.String())
	}
}

func TestReload_FromFile(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "sessions.csv")
	raw := "user_id,content_type,session_minutes\nU1,video,30\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := a.importDataset(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	e := a.openExplorer(d)
	if _, err := e.Select("video-U1"); err != nil {
		t.Fatal(err)
	}

	raw += "U2,music,90\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := a.reload(ctx, e, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if e.DatasetID() == d.ID {
		t.Error("Expected a new dataset id after reload")
	}
	if st := e.Stats(); st.UserCount != 2 {
		t.Errorf("Expected 2 users after reload, got %d", st.UserCount)
	}
	if sel := e.Selected(); sel == nil || sel.ID != "video-U1" {
		t.Errorf("Expected selection to survive reload, got %+v", sel)
	}
}

func TestCubeOptions_FromConfig(t *testing.T) {
	a := newTestApp(t)
	a.cfg.Dataset.PageSize = 4
	a.cfg.Dataset.Categories = []string{"video", "music"}

	c := cube.BuildFromText("user_id,content_type,session_minutes\nU1,music,5\nU2,video,7\n", a.cubeOptions())
	if c.PageSize != 4 || len(c.Categories) != 2 || c.Categories[0] != "video" {
		t.Errorf("Unexpected cube layout %+v", c)
	}
	if cell, ok := c.CellByID("music-U1"); !ok || cell.Grid.Category() != 1 {
		t.Errorf("Expected music-U1 at category index 1, got %+v", cell)
	}
}

func TestNewWatcher_SkipsNonFileSources(t *testing.T) {
	a := newTestApp(t)
	a.cfg.Watch.Enabled = true

	d, err := a.loadDataset(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if w := a.newWatcher(context.Background(), d, a.openExplorer(d), nil); w != nil {
		t.Error("Expected no watcher for the bundled sample")
	}
}
