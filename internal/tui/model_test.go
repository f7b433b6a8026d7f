package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rewired-gh/usercube/internal/cube"
	"github.com/rewired-gh/usercube/internal/explorer"
	"github.com/rewired-gh/usercube/internal/models"
	"github.com/rewired-gh/usercube/internal/source"
)

func newModel(t *testing.T, opts ...Option) (Model, *explorer.Explorer) {
	t.Helper()
	c := cube.BuildFromText(source.SampleCSV, cube.Options{})
	e := explorer.New(c, explorer.Options{DatasetID: "ds-1"})
	return New(e, "sessions", opts...), e
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func TestModel_Navigation(t *testing.T) {
	m, e := newModel(t)

	m, _ = send(m, runes("n"))
	if sel := e.Selected(); sel == nil || sel.ID != "music-U01" {
		t.Fatalf("Expected music-U01, got %+v", sel)
	}
	m, _ = send(m, runes("n"))
	if sel := e.Selected(); sel == nil || sel.ID != "news-U02" {
		t.Errorf("Expected news-U02, got %+v", sel)
	}
	m, _ = send(m, runes("p"), runes("p"))
	if sel := e.Selected(); sel == nil || sel.ID != "video-U40" {
		t.Errorf("Expected wrap to video-U40, got %+v", sel)
	}
	if m.Page() != 4 {
		t.Errorf("Expected page to follow the selection to 4, got %d", m.Page())
	}
}

func TestModel_Paging(t *testing.T) {
	m, _ := newModel(t)

	m, _ = send(m, runes("["))
	if m.Page() != 0 {
		t.Errorf("Expected page to stay at 0, got %d", m.Page())
	}
	for i := 0; i < 10; i++ {
		m, _ = send(m, runes("]"))
	}
	if m.Page() != 4 {
		t.Errorf("Expected page to stop at 4, got %d", m.Page())
	}
	if !strings.Contains(m.View(), "Group 5") {
		t.Errorf("Expected view to show Group 5")
	}
}

func TestModel_Filter(t *testing.T) {
	var sessions []models.Session
	m, e := newModel(t, WithOnChange(func(s models.Session) {
		sessions = append(sessions, s)
	}))

	m, _ = send(m, runes("/"))
	if !m.Filtering() {
		t.Fatal("Expected filter box to have focus")
	}
	m, _ = send(m, runes("U"), runes("4"))
	if e.Filter() != "U4" {
		t.Errorf("Expected filter U4, got %q", e.Filter())
	}
	if st := e.Stats(); st.UserCount != 5 {
		t.Errorf("Expected 5 users, got %d", st.UserCount)
	}

	// Keys go to the filter box while it has focus.
	m, _ = send(m, runes("q"))
	if e.Filter() != "U4q" {
		t.Errorf("Expected q to be typed, got %q", e.Filter())
	}
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Filtering() {
		t.Error("Expected enter to leave the filter box")
	}
	if e.Filter() != "U4" {
		t.Errorf("Expected filter U4, got %q", e.Filter())
	}

	if len(sessions) == 0 || sessions[len(sessions)-1].Filter != "U4" {
		t.Errorf("Expected session callback with filter U4, got %+v", sessions)
	}

	m, _ = send(m, runes("n"))
	if sel := e.Selected(); sel == nil || sel.Entity != "U04" {
		t.Errorf("Expected navigation inside the filter to land on U04, got %+v", sel)
	}

	send(m, runes("x"))
	if e.Filter() != "" {
		t.Errorf("Expected x to clear the filter, got %q", e.Filter())
	}
}

func TestModel_ClearSelection(t *testing.T) {
	calls := 0
	m, e := newModel(t, WithOnChange(func(models.Session) { calls++ }))

	m, _ = send(m, runes("c"))
	if calls != 0 {
		t.Errorf("Expected no callback without a selection, got %d", calls)
	}
	m, _ = send(m, runes("n"), runes("c"))
	if e.Selected() != nil {
		t.Error("Expected selection to be cleared")
	}
	if calls != 2 {
		t.Errorf("Expected 2 callbacks, got %d", calls)
	}
	if !strings.Contains(m.View(), "Overview") {
		t.Error("Expected overview panel without a selection")
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := newModel(t)
	_, cmd := send(m, runes("q"))
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("Expected tea.QuitMsg, got %T", cmd())
	}
}

func TestModel_ViewShowsSelection(t *testing.T) {
	m, e := newModel(t)
	if _, err := e.Select("video-U31"); err != nil {
		t.Fatal(err)
	}
	m, _ = send(m, ReloadedMsg{})
	if m.Page() != 3 {
		t.Errorf("Expected page 3 for U31, got %d", m.Page())
	}

	out := m.View()
	for _, want := range []string{"video-U31", "Group 4", "U25 - U32", "110"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected view to contain %q:\n%s", want, out)
		}
	}
}

func TestModel_DetailsFollowInputColumns(t *testing.T) {
	raw := "uid,slot,kind,mins,mood\nA1,late,video,42,happy\n"
	c := cube.BuildFromText(raw, cube.Options{
		Categories: []string{"video"},
		Schema: models.Schema{
			EntityField:   "uid",
			TimeField:     "slot",
			CategoryField: "kind",
			DurationField: "mins",
		},
	})
	e := explorer.New(c, explorer.Options{})
	if _, err := e.Select("video-A1"); err != nil {
		t.Fatal(err)
	}

	out := New(e, "custom").View()
	if !strings.Contains(out, "late · 42 · happy") {
		t.Errorf("Expected detail row from the input columns:\n%s", out)
	}
}

func TestModel_EmptyCube(t *testing.T) {
	e := explorer.New(cube.BuildFromText("", cube.Options{}), explorer.Options{})
	m := New(e, "empty")
	m, _ = send(m, runes("n"), runes("]"))
	if e.Selected() != nil || m.Page() != 0 {
		t.Errorf("Expected no-op on empty cube, selected=%v page=%d", e.Selected(), m.Page())
	}
	if !strings.Contains(m.View(), "no users") {
		t.Error("Expected empty grid message")
	}
}

func TestHeatStyle(t *testing.T) {
	if heatStyle(0).GetBackground() != heatPalette[0] {
		t.Error("Expected coldest color at 0")
	}
	if heatStyle(1).GetBackground() != heatPalette[len(heatPalette)-1] {
		t.Error("Expected hottest color at 1")
	}
}
