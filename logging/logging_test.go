package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(Config{Level: "debug", Format: "json", Out: &buf}), "renderer")
	log.Debug().Int("targets", 3).Msg("effect added")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "renderer", entry["component"])
	assert.Equal(t, "postfx", entry["app"])
	assert.Equal(t, float64(3), entry["targets"])
	assert.Equal(t, "effect added", entry["message"])
}

func TestLevels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"", false, true},
		{"loud", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: tt.level, Format: "json", Out: &buf})

			log.Debug().Msg("d")
			assert.Equal(t, tt.wantDebug, buf.Len() > 0, "debug")
			buf.Reset()

			log.Info().Msg("i")
			assert.Equal(t, tt.wantInfo, buf.Len() > 0, "info")
		})
	}
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Out: &buf}).Info().Str("chain", "bloom.yaml").Msg("chain loaded")
	assert.Contains(t, buf.String(), "chain loaded")
	assert.Contains(t, buf.String(), "bloom.yaml")
}
