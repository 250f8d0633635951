package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// ============================================================================
// DISCOVERY TESTS
// ============================================================================

// Per-sample read tracking as written by the denoising step.
var denoiseTSV = []byte("sample\tinput\tfiltered\tdenoisedF\tmerged\tnonchim\tRetained %\tpassed_qc\n" +
	"S01\t120,450\t101230\t99800\t95400\t93012\t77.2\tyes\n" +
	"S02\t98230\t80111\t79020\t75000\t74010\t75.3\tyes\n" +
	"S03\t15000\t9000\t8700\t8000\tNA\t53.3\tno\n" +
	"S04\t143001\t130020\t129000\t120000\t119500\t83.6\tyes\n")

// Cluster membership export, comma separated.
var clustersCSV = []byte(`Cluster ID,Representative,Size,Identity
OTU_1,ASV_0001,45,0.97
OTU_2,ASV_0017,12,0.97
OTU_3,ASV_0100,1,1.0
`)

func TestDiscoverDenoiseTSV(t *testing.T) {
	req := require.New(t)

	table, err := DiscoverFromCSV(denoiseTSV, DiscoverOptions{Delimiter: '\t', Name: "denoising"})
	req.NoError(err)
	req.Equal("denoising", table.Name)
	req.NoError(table.Validate())

	req.Equal([]string{
		"sample", "input", "filtered", "denoised_f", "merged", "nonchim", "retained_pct", "passed_qc",
	}, table.Keys())

	kinds := make(map[string]Kind)
	for _, c := range table.Columns {
		kinds[c.Key] = c.Kind
		req.True(c.Sortable, "%s should be sortable", c.Key)
		req.True(c.Filterable, "%s should be filterable", c.Key)
	}
	req.Equal(KindString, kinds["sample"])
	req.Equal(KindNumber, kinds["input"], "thousands separators are numeric")
	req.Equal(KindNumber, kinds["nonchim"], "NA is a null token, not a string")
	req.Equal(KindNumber, kinds["retained_pct"])
	req.Equal(KindBool, kinds["passed_qc"])

	col, ok := table.Column("retained_pct")
	req.True(ok)
	req.Equal("Retained %", col.Header)
}

func TestDiscoverClustersCSV(t *testing.T) {
	req := require.New(t)

	table, err := DiscoverFromCSV(clustersCSV)
	req.NoError(err)
	req.Equal("discovered", table.Name)
	req.Equal([]string{"cluster_id", "representative", "size", "identity"}, table.Keys())
	req.Equal([]string{"Cluster ID", "Representative", "Size", "Identity"}, table.Headers())

	size, _ := table.Column("size")
	req.Equal(KindNumber, size.Kind)
	rep, _ := table.Column("representative")
	req.Equal(KindString, rep.Kind)
	req.Equal(len("Representative"), rep.Width)
}

func TestDiscoverKindOverride(t *testing.T) {
	req := require.New(t)

	table, err := DiscoverFromCSV(clustersCSV, DiscoverOptions{
		Kinds: map[string]Kind{"size": KindString, "identity": "bogus"},
	})
	req.NoError(err)

	size, _ := table.Column("size")
	req.Equal(KindString, size.Kind)
	identity, _ := table.Column("identity")
	req.Equal(KindNumber, identity.Kind, "invalid forced kind is ignored")
}

func TestDiscoverDuplicateKeys(t *testing.T) {
	req := require.New(t)

	table, err := DiscoverFromCSV([]byte("Reads,reads,READS\n1,2,3\n"))
	req.NoError(err)
	req.Equal([]string{"reads", "reads_2", "reads_3"}, table.Keys())
	req.NoError(table.Validate())
}

func TestDiscoverErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input []byte
	}{
		"empty input": {input: []byte("")},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DiscoverFromCSV(tc.input)
			require.Error(t, err)
		})
	}
}

func TestDiscoverSampleSize(t *testing.T) {
	t.Parallel()
	data := []byte("reads\n" + strings.Repeat("1\n", 100001) + strings.Repeat("unassigned\n", 100001))

	tests := map[string]struct {
		size int
		want Kind
	}{
		"sampled head": {size: 1000, want: KindNumber},
		"all rows":     {size: 0, want: KindString},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			table, err := DiscoverFromCSV(data, DiscoverOptions{SampleSize: tc.size})
			req.NoError(err)
			req.Equal(tc.want, table.Columns[0].Kind)
		})
	}
}

func TestDiscoverHeaderOnly(t *testing.T) {
	req := require.New(t)

	table, err := DiscoverFromCSV([]byte("asv_id,abundance\n"))
	req.NoError(err)
	for _, c := range table.Columns {
		req.Equal(KindString, c.Kind, "no values means no evidence for a numeric kind")
	}
}

func TestDetectKind(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		values   []string
		expected Kind
	}{
		"no values":           {values: nil, expected: KindString},
		"integers":            {values: []string{"1", "2", "300"}, expected: KindNumber},
		"zero one is numeric": {values: []string{"0", "1", "1", "0"}, expected: KindNumber},
		"yes no":              {values: []string{"yes", "no", "YES"}, expected: KindBool},
		"mostly numeric":      {values: []string{"1", "2", "3", "4", "x"}, expected: KindNumber},
		"taxon names":         {values: []string{"Chordata", "Arthropoda"}, expected: KindString},
		"scientific notation": {values: []string{"1e-5", "2.5E3"}, expected: KindNumber},
		"percentages":         {values: []string{"98.5%", "12%"}, expected: KindNumber},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, detectKind(tc.values))
		})
	}
}

func TestParseNumber(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input    string
		expected float64
		ok       bool
	}{
		"plain":       {input: "42", expected: 42, ok: true},
		"thousands":   {input: "1,234,567", expected: 1234567, ok: true},
		"grouped dec": {input: "-12,345.5", expected: -12345.5, ok: true},
		"grouped pct": {input: "1,000%", expected: 1000, ok: true},
		"bad group":   {input: "1,2", ok: false},
		"long group":  {input: "1,2345", ok: false},
		"lead group":  {input: "1234,567", ok: false},
		"trailing":    {input: "12,", ok: false},
		"list":        {input: "0.5,0.7", ok: false},
		"percent":     {input: " 77.5% ", expected: 77.5, ok: true},
		"negative":    {input: "-0.25", expected: -0.25, ok: true},
		"nan literal": {input: "NaN", ok: false},
		"inf literal": {input: "Inf", ok: false},
		"empty":       {input: "", ok: false},
		"word":        {input: "unassigned", ok: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			got, ok := ParseNumber(tc.input)
			req.Equal(tc.ok, ok)
			if tc.ok {
				req.InDelta(tc.expected, got, 1e-9)
			}
		})
	}
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Sample ID":     "sample_id",
		"sampleID":      "sample_id",
		"ASV_ID":        "asv_id",
		"Retained %":    "retained_pct",
		"Time (hours)":  "time_hours",
		"bray-curtis":   "bray_curtis",
		"read.count":    "read_count",
		"  padded  ":    "padded",
		"\ufeffsample":  "sample",
		"Chao1":         "chao1",
		"denoisedF":     "denoised_f",
		"reads/sample":  "reads_sample",
		"Double  Space": "double_space",
		"already_snake": "already_snake",
	}

	for input, expected := range tests {
		require.Equal(t, expected, ToKey(input), "ToKey(%q)", input)
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"asv_id":      "Asv Id",
		"shannon":     "Shannon",
		"bray-curtis": "Bray Curtis",
		"Sample Name": "Sample Name",
	}

	for input, expected := range tests {
		require.Equal(t, expected, toDisplayName(input), "toDisplayName(%q)", input)
	}
}

func TestIsNullToken(t *testing.T) {
	for _, s := range []string{"", " ", "NA", "NaN", "null", "None", "n/a", "-"} {
		require.True(t, IsNullToken(s), "%q should be null", s)
	}
	for _, s := range []string{"0", "Unassigned", "no"} {
		require.False(t, IsNullToken(s), "%q should not be null", s)
	}
}
