package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/spektr-org/ednadash/config"
	"github.com/spektr-org/ednadash/engine"
	"github.com/spektr-org/ednadash/helpers"
	"github.com/spektr-org/ednadash/internal/logging"
	"github.com/spektr-org/ednadash/internal/shell"
	"github.com/spektr-org/ednadash/loader"
	"github.com/spektr-org/ednadash/pipeline"
)

// ============================================================================
// EDNADASH CLI — eDNA metabarcoding results from the terminal
// ============================================================================

const version = "0.1.0"

// filterFlags collects repeated --filter col=value flags.
type filterFlags []string

func (f *filterFlags) String() string { return strings.Join(*f, ",") }

func (f *filterFlags) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("want col=value, got %q", v)
	}
	*f = append(*f, v)
	return nil
}

func main() {
	// ── Flags ─────────────────────────────────────────────────────────────
	var filters filterFlags
	configPath := flag.String("config", "", "Path to YAML config file")
	dataLoc := flag.String("data", "", "Data location: base URL or directory (overrides config)")
	stepID := flag.String("step", "", "Step to show (default: all steps)")
	tableName := flag.String("table", "", "Only show this table of the step")
	search := flag.String("search", "", "Search term applied to the tables")
	flag.Var(&filters, "filter", "Column filter col=value (repeatable)")
	sortCol := flag.String("sort", "", "Sort column, optionally col:asc or col:desc")
	desc := flag.Bool("desc", false, "Sort descending")
	page := flag.Int("page", 1, "Page number")
	perPage := flag.Int("per-page", 0, "Rows per page (overrides config)")
	format := flag.String("format", "text", "Output format: text, json, pretty, csv")
	outFile := flag.String("out", "", "Write output to file instead of stdout")
	charts := flag.Bool("chart", false, "Include chart configs")
	asset := flag.String("asset", "", "Copy a pass-through asset (e.g. tree_image) of --step to --out")
	interactive := flag.Bool("interactive", false, "Open an interactive shell over the step's tables")
	list := flag.Bool("list", false, "List steps and artifacts and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `ednadash — eDNA metabarcoding results from the terminal

Usage:
  ednadash --data https://reports.example.org/run-42
  ednadash --data ./out --step taxonomy --search Chordata --sort confidence:desc
  ednadash --data ./out --step diversity --format csv --out alpha.csv
  ednadash --data ./out --step phylogenetics --asset tree_image --out tree.png
  ednadash --data ./out --step asv --interactive

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Environment:
  EDNADASH_DATA_LOCATION, EDNADASH_LOG_LEVEL, ... override config keys

Formats:
  text      Plain-text report (default)
  json      Full JSON output
  pretty    Pretty-printed JSON
  csv       Filtered, sorted rows of one table (needs --step and --table)
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("ednadash %s\n", version)
		os.Exit(0)
	}

	if *list {
		printCatalog(os.Stdout)
		return
	}

	// ── Config & logging ──────────────────────────────────────────────────
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	if *dataLoc != "" {
		cfg.Data.Location = *dataLoc
	}
	if *perPage != 0 {
		cfg.Table.ItemsPerPage = *perPage
	}
	if err := cfg.Validate(); err != nil {
		fatalf("Invalid config: %v", err)
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		fatalf("Failed to set up logging: %v", err)
	}

	switch *format {
	case "text", "json", "pretty", "csv":
	default:
		fatalf("Unknown format %q", *format)
	}
	if (*format == "csv" || *interactive || *asset != "") && *stepID == "" {
		fatalf("--step is required with --format csv, --interactive and --asset")
	}
	if *format == "csv" && *tableName == "" {
		fatalf("--table is required with --format csv")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := loader.New(loader.NewSource(cfg.Data.Location), loader.WithTimeout(cfg.Load.Timeout))

	// ── Output writer ─────────────────────────────────────────────────────
	var writer io.Writer = os.Stdout
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		writer = f
	}

	// ── Asset mode ────────────────────────────────────────────────────────
	if *asset != "" {
		step, err := pipeline.Lookup(*stepID)
		if err != nil {
			fatalf("%v", err)
		}
		a, ok := step.Artifact(*asset)
		if !ok {
			fatalf("Step %s has no artifact %q", step.ID, *asset)
		}
		n, err := l.CopyAsset(ctx, pipeline.ArtifactPath(cfg.Data.Prefix, a), writer)
		if err != nil {
			fatalf("Failed to copy asset: %v", err)
		}
		log.Info().Str("asset", a.Name).Int64("bytes", n).Msg("asset copied")
		return
	}

	// ── Load ──────────────────────────────────────────────────────────────
	opts := []pipeline.Option{
		pipeline.WithPrefix(cfg.Data.Prefix),
		pipeline.WithItemsPerPage(cfg.Table.ItemsPerPage),
		pipeline.WithOverrides(cfg.Columns),
	}
	if cfg.Load.VerifyAssets {
		opts = append(opts, pipeline.WithVerifiedAssets())
	}

	var reports []*pipeline.StepReport
	if *stepID != "" {
		step, err := pipeline.Lookup(*stepID)
		if err != nil {
			fatalf("%v", err)
		}
		reports = []*pipeline.StepReport{pipeline.LoadStep(ctx, l, step, opts...)}
	} else {
		reports = pipeline.LoadAll(ctx, l, opts...)
	}

	view := viewFlags{
		table:   *tableName,
		search:  *search,
		filters: filters,
		sort:    *sortCol,
		desc:    *desc,
		page:    *page,
	}
	for _, r := range reports {
		if err := view.apply(r); err != nil {
			fatalf("%v", err)
		}
	}

	// ── Interactive mode ──────────────────────────────────────────────────
	if *interactive {
		r := reports[0]
		for _, e := range r.Errors {
			fmt.Fprintf(os.Stderr, "! %v\n", e)
		}
		sess, err := shell.NewSession(r.Tables, *tableName)
		if err != nil {
			fatalf("%v", err)
		}
		if err := shell.Run(sess, shell.Config{Prompt: cfg.Shell.Prompt, HistoryFile: cfg.Shell.HistoryFile}, os.Stdout); err != nil {
			fatalf("%v", err)
		}
		return
	}

	// ── Render output ─────────────────────────────────────────────────────
	switch *format {
	case "csv":
		t, ok := reports[0].Table(*tableName)
		if !ok {
			fatalf("Table %q not loaded (%s)", *tableName, loadedTables(reports[0]))
		}
		if err := t.Export(writer); err != nil {
			fatalf("Export failed: %v", err)
		}
		if *outFile != "" {
			log.Info().Str("file", *outFile).Msg("CSV written")
		}
	case "text":
		ro := pipeline.RenderOptions{NoChart: !*charts}
		if *tableName != "" {
			ro.Tables = []string{*tableName}
		}
		for _, r := range reports {
			if err := pipeline.RenderText(writer, r, ro); err != nil {
				fatalf("Render failed: %v", err)
			}
		}
	default:
		out := make([]stepOutput, 0, len(reports))
		for _, r := range reports {
			so, err := buildStepOutput(r, *tableName, *charts)
			if err != nil {
				fatalf("Render failed: %v", err)
			}
			out = append(out, so)
		}
		writeJSON(writer, out, *format)
	}

	for _, r := range reports {
		if r.Status == pipeline.StatusFailed {
			os.Exit(1)
		}
	}
}

// ============================================================================
// VIEW FLAGS — Search, filter, sort and page applied to loaded tables
// ============================================================================

type viewFlags struct {
	table   string
	search  string
	filters []string
	sort    string
	desc    bool
	page    int
}

// apply sets the view on the selected table, or on every table of r when
// no table is selected. Sorting needs a column the table has.
func (v viewFlags) apply(r *pipeline.StepReport) error {
	for name, t := range r.Tables {
		if v.table != "" && name != v.table {
			continue
		}
		st := t.State().WithSearch(v.search)
		for _, f := range v.filters {
			key, value, _ := strings.Cut(f, "=")
			st = st.WithFilter(t.Schema(), key, value)
		}
		if v.sort != "" {
			key, dir, err := v.sortSpec()
			if err != nil {
				return err
			}
			if _, ok := t.Schema().Column(key); ok {
				st.SortColumn = key
				st.SortDirection = dir
			} else if v.table != "" {
				return fmt.Errorf("table %s: %w: %q", name, engine.ErrUnknownColumn, key)
			}
		}
		st = st.WithPage(v.page)
		if err := t.SetState(st); err != nil {
			return fmt.Errorf("table %s: %w", name, err)
		}
	}
	return nil
}

// sortSpec splits --sort into a column and direction. An explicit
// direction wins over --desc.
func (v viewFlags) sortSpec() (string, engine.Direction, error) {
	key, d, ok := strings.Cut(v.sort, ":")
	if !ok {
		if v.desc {
			return key, engine.Desc, nil
		}
		return key, engine.Asc, nil
	}
	dir, ok := engine.ParseDirection(d)
	if !ok {
		return "", "", fmt.Errorf("--sort %q: direction must be asc or desc", v.sort)
	}
	return key, dir, nil
}

// ============================================================================
// OUTPUT TYPES
// ============================================================================

type stepOutput struct {
	Step      pipeline.StepID               `json:"step"`
	Number    int                           `json:"number"`
	Title     string                        `json:"title"`
	Status    pipeline.Status               `json:"status"`
	Summaries map[string]helpers.Summary    `json:"summaries,omitempty"`
	Tables    map[string]*engine.TableData  `json:"tables,omitempty"`
	Charts    []pipeline.StepChart          `json:"charts,omitempty"`
	Assets    map[string]string             `json:"assets,omitempty"`
	Issues    map[string][]helpers.RowIssue `json:"issues,omitempty"`
	Errors    []errorOutput                 `json:"errors,omitempty"`
}

type errorOutput struct {
	*loader.LoadError
	Message string `json:"message"`
}

func buildStepOutput(r *pipeline.StepReport, table string, withCharts bool) (stepOutput, error) {
	out := stepOutput{
		Step:      r.Step.ID,
		Number:    r.Step.Number,
		Title:     r.Step.Title,
		Status:    r.Status,
		Summaries: r.Summaries,
		Tables:    make(map[string]*engine.TableData, len(r.Tables)),
		Assets:    r.Assets,
		Issues:    r.Issues,
	}
	for _, name := range r.TableNames() {
		if table != "" && name != table {
			continue
		}
		data, err := r.Tables[name].Build(name)
		if err != nil {
			return out, err
		}
		out.Tables[name] = data
	}
	if withCharts {
		charts, err := pipeline.BuildCharts(r)
		if err != nil {
			return out, err
		}
		out.Charts = charts
	}
	for _, e := range r.Errors {
		out.Errors = append(out.Errors, errorOutput{LoadError: e, Message: e.Error()})
	}
	return out, nil
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v any, format string) {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}

	if err != nil {
		fatalf("Failed to marshal output: %v", err)
	}
	fmt.Fprintln(w, string(out))
}

// ============================================================================
// HELPERS
// ============================================================================

func printCatalog(w io.Writer) {
	for _, s := range pipeline.Catalog() {
		fmt.Fprintf(w, "%d. %-14s %s\n", s.Number, s.ID, s.Title)
		for _, a := range s.Artifacts {
			req := ""
			if a.Required {
				req = " (required)"
			}
			fmt.Fprintf(w, "     %-16s %s%s\n", a.Name, a.Path, req)
		}
	}
}

func loadedTables(r *pipeline.StepReport) string {
	if names := r.TableNames(); len(names) > 0 {
		return "have " + strings.Join(names, ", ")
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return "no tables loaded: " + strings.Join(msgs, "; ")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
