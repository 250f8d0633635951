package pipeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/spektr-org/ednadash/engine"
)

// ============================================================================
// STEP RENDERING — Charts and plain-text report sections
// ============================================================================
// A failed artifact is always rendered as a visible error block, never as
// an empty section.
// ============================================================================

// StepChart is a built chart and the table it came from.
type StepChart struct {
	Artifact string              `json:"artifact"`
	Config   *engine.ChartConfig `json:"config"`
}

// BuildCharts applies the step's chart specs to its loaded tables. Charts
// read each table's current filtered and sorted view. Charts over missing
// tables or empty views are skipped.
func BuildCharts(r *StepReport) ([]StepChart, error) {
	var charts []StepChart
	for _, c := range r.Step.Charts {
		t, ok := r.Tables[c.Artifact]
		if !ok {
			continue
		}
		d, err := t.Derive()
		if err != nil {
			return nil, err
		}
		cfg, err := engine.BuildChart(c.Spec, d.Filtered, t.Schema())
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", r.Step.ID, err)
		}
		if cfg != nil {
			charts = append(charts, StepChart{Artifact: c.Artifact, Config: cfg})
		}
	}
	return charts, nil
}

// RenderOptions controls RenderText.
type RenderOptions struct {
	Tables  []string // restrict to these tables; empty renders all
	NoChart bool
}

// RenderText writes a plain-text section for r.
func RenderText(w io.Writer, r *StepReport, opt RenderOptions) error {
	var b strings.Builder

	fmt.Fprintf(&b, "== Step %d: %s [%s] ==\n", r.Step.Number, r.Step.Title, r.Status)
	if r.Step.Description != "" {
		b.WriteString(r.Step.Description)
		b.WriteString("\n")
	}

	for _, e := range r.Errors {
		fmt.Fprintf(&b, "! %s\n", e.Error())
	}

	for _, name := range r.SummaryNames() {
		s := r.Summaries[name]
		fmt.Fprintf(&b, "\n-- %s --\n", name)
		summary, err := r.SummaryTable(name, engine.WithItemsPerPage(maxCards(s)))
		if err != nil {
			return err
		}
		data, err := summary.Build("")
		if err != nil {
			return err
		}
		for _, row := range data.Rows {
			fmt.Fprintf(&b, "%s: %s\n", row[0], row[1])
		}
	}

	for _, name := range r.TableNames() {
		if len(opt.Tables) > 0 && !contains(opt.Tables, name) {
			continue
		}
		t := r.Tables[name]
		data, err := t.Build(name)
		if err != nil {
			return err
		}
		b.WriteString("\n")
		if err := engine.WriteText(&b, data); err != nil {
			return err
		}
		if issues := r.Issues[name]; len(issues) > 0 {
			fmt.Fprintf(&b, "%d malformed cells (first: %s)\n", len(issues), issues[0])
		}
	}

	if !opt.NoChart {
		charts, err := BuildCharts(r)
		if err != nil {
			return err
		}
		for _, c := range charts {
			points := 0
			for _, s := range c.Config.Series {
				points += len(s.Data)
			}
			fmt.Fprintf(&b, "chart: %s (%s, %d series, %d points)\n",
				c.Config.Title, c.Config.ChartType, len(c.Config.Series), points)
		}
	}

	for _, a := range r.Step.Artifacts {
		if url, ok := r.Assets[a.Name]; ok {
			fmt.Fprintf(&b, "asset %s: %s\n", a.Name, url)
		}
	}

	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func maxCards(s map[string]any) int {
	return max(1, countLeaves(s))
}

func countLeaves(v any) int {
	switch node := v.(type) {
	case map[string]any:
		n := 0
		for _, c := range node {
			n += countLeaves(c)
		}
		return n
	case []any:
		n := 0
		for _, c := range node {
			n += countLeaves(c)
		}
		return n
	default:
		return 1
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
