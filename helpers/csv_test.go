package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spektr-org/ednadash/engine"
	"github.com/spektr-org/ednadash/schema"
)

var denoiseTable = schema.Table{
	Name: "denoising_stats",
	Columns: []schema.ColumnSpec{
		schema.Text("sample_id", "Sample"),
		schema.Number("input", "Input"),
		schema.Number("filtered", "Filtered"),
		schema.Number("percentage_passed", "% Passed").WithRender("percent:1"),
		schema.Flag("chimera_checked", "Chimera checked"),
	},
}

const denoiseTSV = "# produced by dada2\n" +
	"sample-id\tinput\tfiltered\tpercentage passed\tchimera checked\n" +
	"S1\t12,345\t11000\t89.1%\tyes\n" +
	"S2\t9000\tNA\t\tno\n" +
	"S3\tabc\t100\t1.1\tmaybe\n" +
	"S4\t500\n"

func TestParseTSV(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	report, err := ParseTSV([]byte(denoiseTSV), denoiseTable)
	req.NoError(err)
	req.Len(report.Records, 4)
	req.Empty(report.Missing)
	req.Zero(report.Skipped)

	s1 := report.Records[0]
	req.Equal(engine.String("S1"), s1.Get("sample_id"))
	req.Equal(engine.Number(12345), s1.Get("input"))
	req.Equal(engine.Number(89.1), s1.Get("percentage_passed"))
	req.Equal(engine.Bool(true), s1.Get("chimera_checked"))

	s2 := report.Records[1]
	req.True(s2.Get("filtered").IsNull())
	req.True(s2.Get("percentage_passed").IsNull())
	req.Equal(engine.Bool(false), s2.Get("chimera_checked"))

	s3 := report.Records[2]
	req.True(s3.Get("input").IsNull(), "junk is null, never 0")
	req.True(s3.Get("chimera_checked").IsNull())

	s4 := report.Records[3]
	req.Equal(engine.Number(500), s4.Get("input"))
	req.True(s4.Get("filtered").IsNull())

	req.Equal([]RowIssue{
		{Line: 5, Column: "input", Raw: "abc", Reason: "not a number"},
		{Line: 5, Column: "chimera_checked", Raw: "maybe", Reason: "not a boolean"},
		{Line: 6, Reason: "short row: 2 of 5 fields"},
	}, report.Issues)
}

func TestParseCSVQuoting(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	table := schema.Table{
		Name: "taxonomy",
		Columns: []schema.ColumnSpec{
			schema.Text("asv_id", "ASV"),
			schema.Text("species", "Species"),
			schema.Number("confidence", "Confidence"),
		},
	}
	data := "ASV,Species,Confidence,extra\n" +
		"ASV_1,\"Gadus morhua, Atlantic cod\",0.99,ignored\n" +
		"ASV_2,\"line\nbreak\",0.5,\n" +
		",,,\n" +
		"ASV_3,\"say \"\"hi\"\"\",1\n"

	report, err := ParseCSV([]byte(data), table)
	req.NoError(err)
	req.Len(report.Records, 3)
	req.Equal("Gadus morhua, Atlantic cod", report.Records[0].Get("species").Text())
	req.Equal("line\nbreak", report.Records[1].Get("species").Text())
	req.Equal(`say "hi"`, report.Records[2].Get("species").Text())
	req.Empty(report.Issues)
}

func TestParseDelimitedByPosition(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	table := schema.Table{
		Name: "clusters",
		Columns: []schema.ColumnSpec{
			schema.Text("cluster_id", "Cluster"),
			schema.Number("size", "Size"),
		},
	}

	report, err := ParseDelimited([]byte("C1;12\nC2;7\n"), ';', table, ParseOptions{ByPosition: true})
	req.NoError(err)
	req.Len(report.Records, 2)
	req.Equal(engine.Number(7), report.Records[1].Get("size"))
}

func TestParseDelimitedErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		data  string
		table schema.Table
		want  error
	}{
		"empty":          {data: "", table: denoiseTable, want: ErrEmptyInput},
		"comments only":  {data: "# nothing\n", table: denoiseTable, want: ErrEmptyInput},
		"no match":       {data: "a\tb\n1\t2\n", table: denoiseTable, want: ErrNoMatchingColumns},
		"invalid schema": {data: "a\n", table: schema.Table{}, want: schema.ErrInvalidSchema},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTSV([]byte(tc.data), tc.table)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseMissingColumns(t *testing.T) {
	t.Parallel()
	report, err := ParseTSV([]byte("sample-id\tinput\nS1\t10\n"), denoiseTable)
	require.NoError(t, err)
	require.Equal(t, []string{"filtered", "percentage_passed", "chimera_checked"}, report.Missing)
	require.True(t, report.Records[0].Get("filtered").IsNull())
}

func TestParseAuto(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	data := "sample_a,sample_b,jaccard,bray_curtis\nS1,S2,0.41,0.52\nS1,S3,0.2,n/a\n"
	table, report, err := ParseAuto([]byte(data), 0, "similarity")
	req.NoError(err)
	req.Equal("similarity", table.Name)
	req.Equal([]string{"sample_a", "sample_b", "jaccard", "bray_curtis"}, table.Keys())

	col, ok := table.Column("bray_curtis")
	req.True(ok)
	req.Equal(schema.KindNumber, col.Kind)
	req.Len(report.Records, 2)
	req.True(report.Records[1].Get("bray_curtis").IsNull())
	req.Empty(report.Issues)
}

func TestDetectDelimiter(t *testing.T) {
	t.Parallel()
	require.Equal(t, '\t', DetectDelimiter([]byte("# c,o,m\na\tb\tc\n")))
	require.Equal(t, ',', DetectDelimiter([]byte("a,b\tc,d\n")))
	require.Equal(t, ',', DetectDelimiter(nil))
}
