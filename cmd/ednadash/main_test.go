package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spektr-org/ednadash/engine"
)

func TestSortSpec(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		flags   viewFlags
		key     string
		dir     engine.Direction
		wantErr bool
	}{
		"column only":       {flags: viewFlags{sort: "confidence"}, key: "confidence", dir: engine.Asc},
		"desc flag":         {flags: viewFlags{sort: "confidence", desc: true}, key: "confidence", dir: engine.Desc},
		"inline desc":       {flags: viewFlags{sort: "confidence:desc"}, key: "confidence", dir: engine.Desc},
		"inline wins":       {flags: viewFlags{sort: "confidence:asc", desc: true}, key: "confidence", dir: engine.Asc},
		"bad direction":     {flags: viewFlags{sort: "confidence:down"}, wantErr: true},
		"missing direction": {flags: viewFlags{sort: "confidence:"}, wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			key, dir, err := tc.flags.sortSpec()
			if tc.wantErr {
				req.Error(err)
				return
			}
			req.NoError(err)
			req.Equal(tc.key, key)
			req.Equal(tc.dir, dir)
		})
	}
}
