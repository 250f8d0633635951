package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	t.Run("json", func(t *testing.T) {
		req := require.New(t)
		var buf bytes.Buffer
		req.NoError(Setup("warn", "json", &buf))

		log.Info().Msg("hidden")
		log.Warn().Str("step", "asv").Msg("artifact load failed")

		var entry map[string]any
		req.NoError(json.Unmarshal(buf.Bytes(), &entry))
		req.Equal("warn", entry["level"])
		req.Equal("asv", entry["step"])
		req.Equal("artifact load failed", entry["message"])
	})

	t.Run("console", func(t *testing.T) {
		req := require.New(t)
		var buf bytes.Buffer
		req.NoError(Setup("DEBUG", "console", &buf))

		log.Debug().Int("rows", 3).Msg("table derived")
		req.Contains(buf.String(), "table derived")
		req.Contains(buf.String(), "rows=3")
	})

	t.Run("errors", func(t *testing.T) {
		req := require.New(t)
		req.Error(Setup("loud", "json", &bytes.Buffer{}))
		req.Error(Setup("info", "xml", &bytes.Buffer{}))
	})
}
