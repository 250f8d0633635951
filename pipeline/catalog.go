package pipeline

import (
	"fmt"
	"strings"

	"github.com/spektr-org/ednadash/engine"
	"github.com/spektr-org/ednadash/schema"
)

// ============================================================================
// STEP CATALOG — The eight report steps and the artifacts each one reads
// ============================================================================
// Paths are relative to the data prefix ("/data" by default). Tables with a
// nil schema are discovered from their header.
// ============================================================================

// StepID identifies a pipeline step.
type StepID string

const (
	Acquisition   StepID = "acquisition"
	ASV           StepID = "asv"
	Taxonomy      StepID = "taxonomy"
	Clustering    StepID = "clustering"
	Diversity     StepID = "diversity"
	Comparative   StepID = "comparative"
	Phylogenetics StepID = "phylogenetics"
	Report        StepID = "report"
)

// Format is an artifact's file format.
type Format string

const (
	FormatJSON   Format = "json"
	FormatCSV    Format = "csv"
	FormatTSV    Format = "tsv"
	FormatPNG    Format = "png"
	FormatHTML   Format = "html"
	FormatNewick Format = "newick"
)

// IsTable reports whether f is a delimited table.
func (f Format) IsTable() bool { return f == FormatCSV || f == FormatTSV }

// IsAsset reports whether f is passed through unparsed.
func (f Format) IsAsset() bool { return f == FormatPNG || f == FormatHTML || f == FormatNewick }

// Delimiter returns the field separator for table formats.
func (f Format) Delimiter() rune {
	if f == FormatTSV {
		return '\t'
	}
	return ','
}

// Artifact is one file a step reads.
type Artifact struct {
	Name     string
	Path     string
	Format   Format
	Table    *schema.Table // nil: discover from header
	Required bool
	SortBy   string // initial sort column
	SortDir  engine.Direction
	Totals   []string // numeric columns summed in the footer
}

// Chart binds a chart spec to one of the step's tables.
type Chart struct {
	Artifact string
	Spec     engine.ChartSpec
}

// Step is one section of the report.
type Step struct {
	ID          StepID
	Number      int
	Title       string
	Description string
	Artifacts   []Artifact
	Charts      []Chart
}

// Artifact returns the named artifact.
func (s Step) Artifact(name string) (Artifact, bool) {
	for _, a := range s.Artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}

// Catalog returns the steps in pipeline order.
func Catalog() []Step {
	steps := []Step{
		acquisitionStep(),
		asvStep(),
		taxonomyStep(),
		clusteringStep(),
		diversityStep(),
		comparativeStep(),
		phylogeneticsStep(),
		reportStep(),
	}
	for i := range steps {
		steps[i].Number = i + 1
	}
	return steps
}

// Lookup finds a step by id, case-insensitively.
func Lookup(id string) (Step, error) {
	for _, s := range Catalog() {
		if strings.EqualFold(string(s.ID), strings.TrimSpace(id)) {
			return s, nil
		}
	}
	return Step{}, fmt.Errorf("%w: %q", ErrUnknownStep, id)
}

// ── Tables ──

var (
	denoisingTable = schema.Table{
		Name: "denoising_stats",
		Columns: []schema.ColumnSpec{
			schema.Text("sample_id", "Sample"),
			schema.Number("input", "Input").WithRender("thousands"),
			schema.Number("filtered", "Filtered").WithRender("thousands"),
			schema.Number("percentage_of_input_passed_filter", "% Passed Filter").WithRender("fixed:1"),
			schema.Number("denoised", "Denoised").WithRender("thousands"),
			schema.Number("merged", "Merged").WithRender("thousands"),
			schema.Number("non_chimeric", "Non-chimeric").WithRender("thousands"),
			schema.Number("percentage_of_input_non_chimeric", "% Non-chimeric").WithRender("fixed:1"),
		},
	}

	asvTable = schema.Table{
		Name: "asv_table",
		Columns: []schema.ColumnSpec{
			schema.Text("asv_id", "ASV"),
			schema.Text("sequence", "Sequence").WithRender("truncate:40").WithWidth(40).Unsortable(),
			schema.Number("length", "Length"),
			schema.Number("total_reads", "Total Reads").WithRender("thousands"),
			schema.Number("samples_present", "Samples"),
		},
	}

	taxonomyTable = schema.Table{
		Name: "taxonomy",
		Columns: []schema.ColumnSpec{
			schema.Text("asv_id", "ASV"),
			schema.Text("kingdom", "Kingdom"),
			schema.Text("phylum", "Phylum"),
			schema.Text("class", "Class"),
			schema.Text("order", "Order"),
			schema.Text("family", "Family"),
			schema.Text("genus", "Genus"),
			schema.Text("species", "Species").WithWidth(30),
			schema.Number("confidence", "Confidence").WithRender("fraction:1"),
		},
	}

	clustersTable = schema.Table{
		Name: "clusters",
		Columns: []schema.ColumnSpec{
			schema.Text("cluster_id", "Cluster"),
			schema.Text("representative", "Representative ASV"),
			schema.Number("size", "Size"),
			schema.Number("identity", "Identity").WithRender("fraction:1"),
		},
	}

	alphaTable = schema.Table{
		Name: "alpha_diversity",
		Columns: []schema.ColumnSpec{
			schema.Text("sample", "Sample"),
			schema.Number("observed", "Observed"),
			schema.Number("shannon", "Shannon").WithRender("fixed:3"),
			schema.Number("simpson", "Simpson").WithRender("fixed:3"),
			schema.Number("chao1", "Chao1").WithRender("fixed:1"),
		},
	}

	similarityTable = schema.Table{
		Name: "similarity",
		Columns: []schema.ColumnSpec{
			schema.Text("sample_a", "Sample A"),
			schema.Text("sample_b", "Sample B"),
			schema.Number("jaccard", "Jaccard").WithRender("fixed:3"),
			schema.Number("bray_curtis", "Bray-Curtis").WithRender("fixed:3"),
		},
	}
)

// ── Steps ──

func acquisitionStep() Step {
	return Step{
		ID:          Acquisition,
		Title:       "Data Acquisition",
		Description: "Raw sequencing runs, sample metadata and read counts.",
		Artifacts: []Artifact{
			{Name: "summary", Path: "acquisition/summary.json", Format: FormatJSON, Required: true},
			{Name: "samples", Path: "acquisition/samples.tsv", Format: FormatTSV},
		},
	}
}

func asvStep() Step {
	return Step{
		ID:          ASV,
		Title:       "ASV Inference",
		Description: "Denoising into amplicon sequence variants and per-sample read retention.",
		Artifacts: []Artifact{
			{Name: "summary", Path: "asv/summary.json", Format: FormatJSON, Required: true},
			{Name: "asv_table", Path: "asv/asv_table.tsv", Format: FormatTSV, Table: &asvTable,
				SortBy: "total_reads", SortDir: engine.Desc, Totals: []string{"total_reads"}},
			{Name: "denoising_stats", Path: "asv/denoising_stats.tsv", Format: FormatTSV, Table: &denoisingTable,
				Totals: []string{"input", "non_chimeric"}},
		},
		Charts: []Chart{
			{Artifact: "denoising_stats", Spec: engine.ChartSpec{
				Type: engine.ChartLine, Title: "Read retention by sample",
				Label: "sample_id", Values: []string{"input", "filtered", "non_chimeric"}, YAxis: "Reads",
			}},
		},
	}
}

func taxonomyStep() Step {
	return Step{
		ID:          Taxonomy,
		Title:       "Taxonomic Assignment",
		Description: "Classifier assignments per ASV from kingdom to species.",
		Artifacts: []Artifact{
			{Name: "taxonomy", Path: "taxonomy/taxonomy.tsv", Format: FormatTSV, Table: &taxonomyTable, Required: true},
			{Name: "summary", Path: "taxonomy/summary.json", Format: FormatJSON},
		},
		Charts: []Chart{
			{Artifact: "taxonomy", Spec: engine.ChartSpec{
				Type: engine.ChartPie, Title: "Phylum composition", GroupBy: "phylum", Limit: 8,
			}},
			{Artifact: "taxonomy", Spec: engine.ChartSpec{
				Type: engine.ChartBar, Title: "ASVs per class", GroupBy: "class", SortBy: "value_desc", Limit: 10,
			}},
		},
	}
}

func clusteringStep() Step {
	return Step{
		ID:          Clustering,
		Title:       "Clustering",
		Description: "ASVs grouped into OTU clusters at a sequence identity threshold.",
		Artifacts: []Artifact{
			{Name: "clusters", Path: "clustering/clusters.csv", Format: FormatCSV, Table: &clustersTable, Required: true,
				SortBy: "size", SortDir: engine.Desc},
			{Name: "summary", Path: "clustering/summary.json", Format: FormatJSON},
		},
		Charts: []Chart{
			{Artifact: "clusters", Spec: engine.ChartSpec{
				Type: engine.ChartBar, Title: "Largest clusters", GroupBy: "cluster_id",
				Measure: "size", Agg: engine.AggSum, SortBy: "value_desc", Limit: 20,
			}},
		},
	}
}

func diversityStep() Step {
	return Step{
		ID:          Diversity,
		Title:       "Diversity Analysis",
		Description: "Alpha diversity indices per sample.",
		Artifacts: []Artifact{
			{Name: "alpha", Path: "diversity/alpha.csv", Format: FormatCSV, Table: &alphaTable, Required: true},
			{Name: "summary", Path: "diversity/summary.json", Format: FormatJSON},
		},
		Charts: []Chart{
			{Artifact: "alpha", Spec: engine.ChartSpec{
				Type: engine.ChartBar, Title: "Shannon index by sample", GroupBy: "sample",
				Measure: "shannon", Agg: engine.AggMax,
			}},
			{Artifact: "alpha", Spec: engine.ChartSpec{
				Type: engine.ChartLine, Title: "Observed vs. Chao1 richness",
				Label: "sample", Values: []string{"observed", "chao1"}, YAxis: "Richness",
			}},
		},
	}
}

func comparativeStep() Step {
	return Step{
		ID:          Comparative,
		Title:       "Comparative Analysis",
		Description: "Pairwise community similarity between samples.",
		Artifacts: []Artifact{
			{Name: "similarity", Path: "comparative/similarity.csv", Format: FormatCSV, Table: &similarityTable, Required: true,
				SortBy: "bray_curtis", SortDir: engine.Asc},
			{Name: "summary", Path: "comparative/summary.json", Format: FormatJSON},
		},
		Charts: []Chart{
			{Artifact: "similarity", Spec: engine.ChartSpec{
				Type: engine.ChartScatter, Title: "Jaccard vs. Bray-Curtis",
				Label: "sample_a", Values: []string{"jaccard", "bray_curtis"}, YAxis: "Dissimilarity",
			}},
		},
	}
}

func phylogeneticsStep() Step {
	return Step{
		ID:          Phylogenetics,
		Title:       "Phylogenetics",
		Description: "Phylogenetic tree of representative sequences.",
		Artifacts: []Artifact{
			{Name: "tree_stats", Path: "phylogenetics/tree_stats.json", Format: FormatJSON, Required: true},
			{Name: "tree", Path: "phylogenetics/tree.nwk", Format: FormatNewick},
			{Name: "tree_image", Path: "phylogenetics/tree.png", Format: FormatPNG},
		},
	}
}

func reportStep() Step {
	return Step{
		ID:          Report,
		Title:       "Final Report",
		Description: "Run-level summary and the rendered HTML report.",
		Artifacts: []Artifact{
			{Name: "summary", Path: "report/summary.json", Format: FormatJSON, Required: true},
			{Name: "report", Path: "report/report.html", Format: FormatHTML},
		},
	}
}
