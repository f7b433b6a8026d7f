// Package export writes an explorer snapshot as JSON, YAML or a text table.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"

	"github.com/rewired-gh/usercube/internal/models"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatTable:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json, yaml or table)", s)
	}
}

// Snapshot is everything one export contains.
type Snapshot struct {
	Dataset     string                 `json:"dataset" yaml:"dataset"`
	GeneratedAt time.Time              `json:"generated_at" yaml:"generated_at"`
	Filter      string                 `json:"filter" yaml:"filter"`
	Stats       models.GlobalStats     `json:"stats" yaml:"stats"`
	Categories  []models.CategoryStats `json:"categories" yaml:"categories"`
	Spread      models.Spread          `json:"spread" yaml:"spread"`
	View        *models.Cube           `json:"view" yaml:"view"`
	Selected    *models.Cell           `json:"selected,omitempty" yaml:"selected,omitempty"`
	Labels      map[string]string      `json:"-" yaml:"-"`
}

// Write encodes s to w in the given format.
func Write(w io.Writer, format Format, s Snapshot) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	case FormatTable:
		return WriteTable(w, s)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteTable renders the visible grid: one row per entity, one column per
// category holding the primary metric, grouped by page. It ends with the view
// stats, or with the selected cell and its records when one is set.
func WriteTable(w io.Writer, s Snapshot) error {
	view := s.View
	if view == nil {
		return fmt.Errorf("snapshot has no view")
	}

	byEntity := make(map[string]map[string]*models.Cell)
	for _, cell := range view.Cells {
		if byEntity[cell.Entity] == nil {
			byEntity[cell.Entity] = make(map[string]*models.Cell)
		}
		byEntity[cell.Entity][cell.Category] = cell
	}

	headers := []string{"Page", "User"}
	for _, category := range view.Categories {
		headers = append(headers, label(s.Labels, category))
	}
	headers = append(headers, "Total")

	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.Off}},
		})))
	table.Header(headers)

	alignments := make([]tw.Align, len(headers))
	for i := range alignments {
		if i < 2 {
			alignments[i] = tw.AlignLeft
		} else {
			alignments[i] = tw.AlignRight
		}
	}
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.PerColumn = alignments
	})

	columnTotals := make([]float64, len(view.Categories))
	var grandTotal float64
	for _, entity := range view.Entities {
		cells, ok := byEntity[entity]
		if !ok {
			continue
		}

		var page int
		row := make([]string, 0, len(headers))
		var total float64
		metrics := make([]string, len(view.Categories))
		for i, category := range view.Categories {
			cell, ok := cells[category]
			if !ok {
				continue
			}
			page = cell.Grid.Page()
			v := cell.Metric(view.PrimaryMetric)
			metrics[i] = formatNumber(v)
			columnTotals[i] += v
			total += v
		}
		grandTotal += total

		pageLabel := models.PageLabel(page)
		if page < len(view.PageLabels) {
			pageLabel += " (" + view.PageLabels[page] + ")"
		}
		row = append(row, pageLabel, entity)
		row = append(row, metrics...)
		row = append(row, formatNumber(total))
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append row for %s: %w", entity, err)
		}
	}

	footer := []string{"", "Total"}
	for _, v := range columnTotals {
		footer = append(footer, formatNumber(v))
	}
	footer = append(footer, formatNumber(grandTotal))
	table.Footer(footer)

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	if s.Selected != nil {
		return writeCell(w, s.Selected, s.Labels)
	}
	_, err := fmt.Fprintf(w, "users=%d total_hours=%d avg_min=%d binge=%d\n",
		s.Stats.UserCount, s.Stats.TotalHours, s.Stats.AvgMin, s.Stats.TotalBinge)
	return err
}

// writeCell prints one cell's metrics followed by its contributing records.
func writeCell(w io.Writer, cell *models.Cell, labels map[string]string) error {
	if _, err := fmt.Fprintf(w, "\n%s (%s, %s)\nminutes=%s completed=%s binge=%s recommended=%s weight=%.2f\n",
		cell.ID, label(labels, cell.Category), cell.PageLabel,
		formatNumber(cell.Metric(models.MetricSessionMinutes)),
		formatNumber(cell.Metric(models.MetricCompleted)),
		formatNumber(cell.Metric(models.MetricBinge)),
		formatNumber(cell.Metric(models.MetricRecommended)),
		cell.Normalized); err != nil {
		return err
	}
	if len(cell.Details) == 0 {
		return nil
	}

	fields := cell.Details[0].Fields()
	table := tablewriter.NewTable(w)
	table.Header(fields)
	for _, rec := range cell.Details {
		row := make([]string, len(fields))
		for i, field := range fields {
			row[i] = rec.String(field)
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append record for %s: %w", cell.ID, err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render records for %s: %w", cell.ID, err)
	}
	return nil
}

func label(labels map[string]string, category string) string {
	if l := labels[category]; l != "" {
		return l
	}
	return category
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
