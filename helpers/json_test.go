package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const asvSummary = "```json\n" + `{
  "total_asvs": 1532,
  "total_reads": 2450000,
  "mean_length": 251.4,
  "chimeras_removed": 0.0042,
  "method": "DADA2",
  "paired": true,
  "samples": {"count": 12, "ids": ["S1", "S2"]},
  "notes": null,
  "empty": {}
}` + "\n```"

func TestParseSummary(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	s, err := ParseSummary([]byte(asvSummary))
	req.NoError(err)

	n, ok := s.Number("total_reads")
	req.True(ok)
	req.Equal(2450000.0, n)

	n, ok = s.Number("samples.count")
	req.True(ok)
	req.Equal(12.0, n)

	str, ok := s.String("samples.ids.1")
	req.True(ok)
	req.Equal("S2", str)

	str, ok = s.String("paired")
	req.True(ok)
	req.Equal("true", str)

	_, ok = s.String("samples")
	req.False(ok)
	_, ok = s.Number("method")
	req.False(ok)
	_, ok = s.Number("samples.ids.9")
	req.False(ok)
	_, ok = s.Lookup("missing.path")
	req.False(ok)
}

func TestParseSummaryErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		body string
		want error
	}{
		"empty":       {body: "", want: ErrEmptySummary},
		"fences only": {body: "```json\n```", want: ErrEmptySummary},
		"array":       {body: `[1, 2]`, want: ErrNotObject},
		"scalar":      {body: `"ok"`, want: ErrNotObject},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSummary([]byte(tc.body))
			require.ErrorIs(t, err, tc.want)
		})
	}

	_, err := ParseSummary([]byte(`{"a": `))
	require.Error(t, err)
}

func TestFlatten(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	s, err := ParseSummary([]byte(asvSummary))
	req.NoError(err)

	fields := Flatten(s)
	paths := make([]string, len(fields))
	for i, f := range fields {
		paths[i] = f.Path
	}
	req.Equal([]string{
		"chimeras_removed",
		"mean_length",
		"method",
		"notes",
		"paired",
		"samples.count",
		"samples.ids.0",
		"samples.ids.1",
		"total_asvs",
		"total_reads",
	}, paths)
}

func TestSummaryView(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	s, err := ParseSummary([]byte(asvSummary))
	req.NoError(err)
	view := SummaryView(Flatten(s))

	req.Equal(10, view.Len())
	req.Equal([]string{"metric", "value"}, view.Keys())
	req.Equal("Chimeras Removed", view.Value(0, "metric").String())
	req.Equal("0.0042", view.Value(0, "value").String())
	req.Equal("251.40", view.Value(1, "value").String())
	req.Equal("Samples › Count", view.Value(5, "metric").String())
	req.Equal("2,450,000", view.Value(9, "value").String())
	req.Equal("", view.Value(3, "value").String())
	req.NoError(SummaryTable.Validate())
}
