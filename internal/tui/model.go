// Package tui is the interactive terminal explorer: a page of the cube grid
// colored by weight, a filter box, and a side panel showing either the stats
// of the current view or the selected cell.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/usercube/internal/cube"
	"github.com/rewired-gh/usercube/internal/explorer"
	"github.com/rewired-gh/usercube/internal/models"
)

const cellWidth = 9

// ReloadedMsg tells the model the explorer swapped in a new cube.
type ReloadedMsg struct{}

// Model is the bubbletea model of the explorer UI
type Model struct {
	explorer  *explorer.Explorer
	dataset   string
	input     textinput.Model
	filtering bool
	page      int
	width     int
	height    int
	onChange  func(models.Session)
}

// Option configures a Model.
type Option func(*Model)

// WithOnChange sets a callback invoked with the session after every filter or
// selection change.
func WithOnChange(fn func(models.Session)) Option {
	return func(m *Model) {
		m.onChange = fn
	}
}

// New creates the UI for an explorer.
func New(e *explorer.Explorer, dataset string, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "filter users..."
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.Width = 24
	ti.SetValue(e.Filter())

	m := Model{
		explorer: e,
		dataset:  dataset,
		input:    ti,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if sel := e.Selected(); sel != nil {
		m.page = sel.Grid.Page()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Page returns the page index on screen.
func (m Model) Page() int { return m.page }

// Filtering reports whether the filter box has focus.
func (m Model) Filtering() bool { return m.filtering }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case ReloadedMsg:
		m.clampPage()
		if sel := m.explorer.Selected(); sel != nil {
			m.page = sel.Grid.Page()
		}
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.filtering = false
		m.input.Blur()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.explorer.Filter() {
		m.explorer.SetFilter(m.input.Value())
		m.page = 0
		m.changed()
	}
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.filtering = true
		return m, m.input.Focus()
	case "n", "j", "down", "tab":
		m.advance(cube.Next)
	case "p", "k", "up", "shift+tab":
		m.advance(cube.Prev)
	case "]", "pgdown", "right", "l":
		if m.page < m.explorer.Cube().PageCount()-1 {
			m.page++
		}
	case "[", "pgup", "left", "h":
		if m.page > 0 {
			m.page--
		}
	case "c", "esc":
		if m.explorer.Selected() != nil {
			m.explorer.ClearSelection()
			m.changed()
		}
	case "x":
		m.input.SetValue("")
		if m.explorer.Filter() != "" {
			m.explorer.SetFilter("")
			m.changed()
		}
	}
	return m, nil
}

func (m *Model) advance(dir cube.Direction) {
	before := m.explorer.Selected()
	sel := m.explorer.Advance(dir)
	if sel == nil {
		return
	}
	m.page = sel.Grid.Page()
	if sel != before {
		m.changed()
	}
}

func (m *Model) clampPage() {
	if n := m.explorer.Cube().PageCount(); m.page >= n {
		m.page = max(n-1, 0)
	}
}

func (m *Model) changed() {
	if m.onChange != nil {
		m.onChange(m.explorer.Session())
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("usercube"))
	b.WriteString(subtleStyle.Render(" | " + m.dataset))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	grid := m.renderGrid()
	panel := panelStyle.Render(m.renderPanel())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, grid, "  ", panel))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("n/p next/prev user • [/] page • / filter • x clear filter • c clear selection • q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderGrid() string {
	c := m.explorer.Cube()
	view := m.explorer.View()
	selected := m.explorer.Selected()

	var b strings.Builder
	if c.PageCount() == 0 {
		b.WriteString(emptyStyle.Render("no users"))
		return b.String()
	}

	page := min(m.page, c.PageCount()-1)
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s  %s", models.PageLabel(page), c.PageLabels[page])))
	b.WriteString(subtleStyle.Render(fmt.Sprintf("  (%d/%d)", page+1, c.PageCount())))
	b.WriteString("\n")

	b.WriteString(pad("", cellWidth))
	for _, category := range c.Categories {
		b.WriteString(labelStyle.Render(pad(m.explorer.Label(category), cellWidth)))
	}
	b.WriteString("\n")

	visible := make(map[string]*models.Cell, len(view.Cells))
	for _, cell := range view.Cells {
		visible[cell.ID] = cell
	}

	start := page * c.PageSize
	end := min(start+c.PageSize, len(c.Entities))
	for _, entity := range c.Entities[start:end] {
		b.WriteString(labelStyle.Render(pad(entity, cellWidth)))
		for _, category := range c.Categories {
			cell, ok := visible[models.CellID(category, entity)]
			if !ok {
				b.WriteString(emptyStyle.Render(pad("·", cellWidth)))
				continue
			}
			text := pad(strconv.FormatFloat(cell.Metric(c.PrimaryMetric), 'f', -1, 64), cellWidth)
			style := heatStyle(cell.Normalized)
			if selected != nil && selected.ID == cell.ID {
				style = selectedStyle
			}
			b.WriteString(style.Render(text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderPanel() string {
	if cell := m.explorer.Selected(); cell != nil {
		return m.renderCell(cell)
	}

	st := m.explorer.Stats()
	var b strings.Builder
	b.WriteString(headerStyle.Render("Overview"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Users       %s\n", humanize.Comma(int64(st.UserCount)))
	fmt.Fprintf(&b, "Total hours %s\n", humanize.Comma(int64(st.TotalHours)))
	fmt.Fprintf(&b, "Avg minutes %s\n", humanize.Comma(int64(st.AvgMin)))
	fmt.Fprintf(&b, "Binge       %s\n", humanize.Comma(int64(st.TotalBinge)))
	b.WriteString("\n")
	for _, cs := range m.explorer.Categories() {
		if cs.Cells == 0 {
			continue
		}
		fmt.Fprintf(&b, "%-8s %5s min %3.0f%%\n", cs.Label, humanize.Commaf(cs.Minutes), cs.ShareOfTotal*100)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderCell(cell *models.Cell) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(cell.ID))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s · %s\n", m.explorer.Label(cell.Category), cell.PageLabel)
	fmt.Fprintf(&b, "Minutes     %s\n", humanize.Commaf(cell.Metric(models.MetricSessionMinutes)))
	fmt.Fprintf(&b, "Completed   %d\n", int(cell.Metric(models.MetricCompleted)))
	fmt.Fprintf(&b, "Binge       %d\n", int(cell.Metric(models.MetricBinge)))
	fmt.Fprintf(&b, "Recommended %d\n", int(cell.Metric(models.MetricRecommended)))
	fmt.Fprintf(&b, "Weight      %.2f\n", cell.Normalized)
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%d sessions", len(cell.Details))))
	for _, rec := range cell.Details {
		b.WriteString("\n  ")
		b.WriteString(detailLine(rec, cell))
	}
	return b.String()
}

// detailLine joins a record's values in header order, leaving out the entity
// and category the cell already names.
func detailLine(rec models.Record, cell *models.Cell) string {
	values := make([]string, 0, len(rec.Fields()))
	for _, field := range rec.Fields() {
		v := rec.String(field)
		if v == cell.Entity || v == cell.Category {
			continue
		}
		values = append(values, v)
	}
	return strings.Join(values, " · ")
}

func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s[:width-1] + " "
}
