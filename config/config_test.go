package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spektr-org/ednadash/engine"
	"github.com/spektr-org/ednadash/schema"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ednadash.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadConfig("")
	req.NoError(err)
	req.Equal(".", cfg.Data.Location)
	req.Equal("/data", cfg.Data.Prefix)
	req.Equal(10, cfg.Table.ItemsPerPage)
	req.Equal(30*time.Second, cfg.Load.Timeout)
	req.Equal("info", cfg.Log.Level)
	req.Equal("console", cfg.Log.Format)
	req.Equal("ednadash> ", cfg.Shell.Prompt)
	req.Empty(cfg.Columns)
}

func TestLoadConfigFile(t *testing.T) {
	req := require.New(t)

	p := writeConfig(t, `
data:
  location: https://reports.example.org/run-42
  prefix: /results
table:
  items_per_page: 25
load:
  timeout: 5s
  verify_assets: true
log:
  level: debug
  format: json
columns:
  asv_table:
    sequence:
      hidden: true
    length:
      header: Length (bp)
      sortable: false
`)
	cfg, err := LoadConfig(p)
	req.NoError(err)
	req.Equal("https://reports.example.org/run-42", cfg.Data.Location)
	req.Equal("/results", cfg.Data.Prefix)
	req.Equal(25, cfg.Table.ItemsPerPage)
	req.Equal(5*time.Second, cfg.Load.Timeout)
	req.True(cfg.Load.VerifyAssets)
	req.Equal("json", cfg.Log.Format)

	asv := cfg.Columns["asv_table"]
	req.True(asv["sequence"].Hidden)
	req.Equal("Length (bp)", asv["length"].Header)
	req.NotNil(asv["length"].Sortable)
	req.False(*asv["length"].Sortable)
}

func TestLoadConfigEnv(t *testing.T) {
	req := require.New(t)
	t.Setenv("EDNADASH_DATA_LOCATION", "/srv/edna")
	t.Setenv("EDNADASH_TABLE_ITEMS_PER_PAGE", "50")

	p := writeConfig(t, "data:\n  location: ./local\n")
	cfg, err := LoadConfig(p)
	req.NoError(err)
	req.Equal("/srv/edna", cfg.Data.Location)
	req.Equal(50, cfg.Table.ItemsPerPage)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := map[string]struct {
		body string
		want []error
	}{
		"bad page size": {
			body: "table:\n  items_per_page: 0\n",
			want: []error{errItemsPerPage},
		},
		"everything wrong": {
			body: "data:\n  location: ' '\nlog:\n  level: loud\n  format: xml\nload:\n  timeout: -1s\n",
			want: []error{errNoLocation, errLogLevel, errLogFormat, errTimeout},
		},
		"bad column kind": {
			body: "columns:\n  alpha:\n    shannon:\n      kind: date\n",
			want: []error{errColumnKind},
		},
		"bad render": {
			body: "columns:\n  alpha:\n    shannon:\n      render: fixd:2\n",
			want: []error{errColumnRender, engine.ErrUnknownRenderer},
		},
		"render without length": {
			body: "columns:\n  taxonomy:\n    species:\n      render: truncate\n",
			want: []error{errColumnRender},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			require.Error(t, err)
			for _, want := range tc.want {
				require.ErrorIs(t, err, want)
			}
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")
}

func TestValidateColumnKinds(t *testing.T) {
	var cfg Config
	cfg.Data.Location = "."
	cfg.Table.ItemsPerPage = 10
	cfg.Log.Level = "INFO"
	cfg.Log.Format = "console"
	cfg.Columns = map[string]map[string]schema.ColumnOverride{
		"alpha":    {"shannon": {Kind: schema.KindNumber, Render: "fixed:2"}},
		"taxonomy": {"confidence": {Render: "fraction:1"}, "species": {Render: ""}},
	}
	require.NoError(t, cfg.Validate())
}
