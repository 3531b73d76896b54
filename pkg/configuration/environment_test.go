package configuration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuggestionOptions_Validate(t *testing.T) {
	valid := SuggestionOptions{WindowHours: 1.2, SampleLimit: 1000, InsertChunkLen: 100}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.WindowHours = 0
	require.Error(t, bad.Validate())

	bad = valid
	bad.SampleLimit = -1
	require.Error(t, bad.Validate())

	bad = valid
	bad.InsertChunkLen = 5000
	require.Error(t, bad.Validate())
}

func TestConfiguration_LogrusLogLevel(t *testing.T) {
	c := &Configuration{LogLevel: "debug"}
	require.Equal(t, "debug", c.LogrusLogLevel().String())

	c.LogLevel = "unknown"
	require.Equal(t, "error", c.LogrusLogLevel().String())
}
