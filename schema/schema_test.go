package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func taxonomyTable() Table {
	return Table{
		Name: "taxonomy",
		Columns: []ColumnSpec{
			Text("asv_id", "ASV"),
			Text("phylum", "Phylum"),
			Text("species", "Species").WithWidth(30),
			Number("confidence", "Confidence").WithRender("percent:1"),
			Text("sequence", "Sequence").Unsortable(),
		},
	}
}

func TestTableValidate(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		table   Table
		wantErr bool
	}{
		"valid": {
			table: taxonomyTable(),
		},
		"no columns": {
			table:   Table{Name: "empty"},
			wantErr: true,
		},
		"empty key": {
			table:   Table{Columns: []ColumnSpec{{Key: " ", Kind: KindString}}},
			wantErr: true,
		},
		"duplicate key": {
			table:   Table{Columns: []ColumnSpec{Text("a", "A"), Number("a", "A again")}},
			wantErr: true,
		},
		"unknown kind": {
			table:   Table{Columns: []ColumnSpec{{Key: "a", Kind: "date"}}},
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			err := tc.table.Validate()
			if !tc.wantErr {
				req.NoError(err)
				return
			}
			req.Error(err)
			req.True(errors.Is(err, ErrInvalidSchema), "expected %v to wrap ErrInvalidSchema", err)
		})
	}
}

func TestTableLookups(t *testing.T) {
	req := require.New(t)
	table := taxonomyTable()

	req.Equal([]string{"asv_id", "phylum", "species", "confidence", "sequence"}, table.Keys())
	req.Equal([]string{"ASV", "Phylum", "Species", "Confidence", "Sequence"}, table.Headers())

	c, ok := table.Column("confidence")
	req.True(ok)
	req.Equal(KindNumber, c.Kind)
	req.Equal("percent:1", c.Render)

	_, ok = table.Column("genus")
	req.False(ok)

	seq, _ := table.Column("sequence")
	req.False(seq.Sortable)
	req.True(seq.Filterable)
}

func TestColumnLabelFallback(t *testing.T) {
	require.Equal(t, "Total Abundance", ColumnSpec{Key: "total_abundance"}.Label())
	require.Equal(t, "Reads", ColumnSpec{Key: "n", Header: "Reads"}.Label())
}

func TestCloneIsolation(t *testing.T) {
	req := require.New(t)
	original := taxonomyTable()
	clone := original.Clone()
	clone.Columns[0].Header = "changed"
	req.Equal("ASV", original.Columns[0].Header)
}

// ============================================================================
// OVERRIDES
// ============================================================================

func TestApplyOverrides(t *testing.T) {
	req := require.New(t)
	draft := taxonomyTable()
	no := false

	result, unknown := ApplyOverrides(draft, map[string]ColumnOverride{
		"phylum":     {Header: "Phylum (SILVA)", Filterable: &no},
		"confidence": {Render: "fixed:3", Width: 8},
		"sequence":   {Hidden: true},
		"asv_id":     {Kind: "bogus"},
		"genus":      {Header: "Genus"},
		"order":      {Hidden: true},
	})

	req.Equal([]string{"genus", "order"}, unknown)
	req.Equal([]string{"asv_id", "phylum", "species", "confidence"}, result.Keys())

	phylum, _ := result.Column("phylum")
	req.Equal("Phylum (SILVA)", phylum.Header)
	req.False(phylum.Filterable)
	req.True(phylum.Sortable)

	conf, _ := result.Column("confidence")
	req.Equal("fixed:3", conf.Render)
	req.Equal(8, conf.Width)

	asv, _ := result.Column("asv_id")
	req.Equal(KindString, asv.Kind)

	// draft is untouched
	req.Len(draft.Columns, 5)
	p, _ := draft.Column("phylum")
	req.Equal("Phylum", p.Header)
	req.True(p.Filterable)
}

func TestApplyOverridesEmpty(t *testing.T) {
	req := require.New(t)
	result, unknown := ApplyOverrides(taxonomyTable(), nil)
	req.Empty(unknown)
	req.Equal(taxonomyTable(), result)
}
