// Package ednadash reports the results of an eDNA metabarcoding pipeline.
//
// Usage:
//
//	import "github.com/spektr-org/ednadash/pipeline"
//
//	l := loader.New(loader.NewSource("https://reports.example.org/run-42"))
//	report := pipeline.LoadStep(ctx, l, step,
//	    pipeline.WithItemsPerPage(25),
//	)
//	table, _ := report.Table("taxonomy")
//	table.Search("chordata")
//	table.ToggleSort("confidence")
//	view, err := table.Derive()
//
// Each pipeline step publishes JSON summaries and CSV/TSV tables. The
// engine package searches, filters, sorts and paginates those tables
// without copying them; loader and pipeline fetch them and record every
// failure instead of rendering an empty section.
package ednadash
