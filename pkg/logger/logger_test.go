package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigureSetsLevel(t *testing.T) {
	t.Cleanup(func() { Replace(nil) })

	require.NoError(t, Init("debug"))
	require.True(t, Logger().Core().Enabled(zap.DebugLevel))

	require.NoError(t, Configure(Options{Level: "loud", Encoding: "console"}))
	require.False(t, Logger().Core().Enabled(zap.DebugLevel))
	require.True(t, Logger().Core().Enabled(zap.InfoLevel))
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zapcore.WarnLevel, ParseLevel(" warn "))
	require.Equal(t, zapcore.ErrorLevel, ParseLevel("ERROR"))
	require.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	require.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestReplaceNilInstallsNop(t *testing.T) {
	Replace(nil)
	require.NotNil(t, Logger())
	require.False(t, Logger().Core().Enabled(zap.ErrorLevel))
}

func TestModuleAndTeamFields(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	t.Cleanup(func() { Replace(nil) })
	Replace(zap.New(core))

	WithModule("succession").Info("graph loaded", zap.Int("tasks", 3))
	WithTeam("scope", "team-design").Info("active team changed")

	entries := recorded.All()
	require.Len(t, entries, 2)
	require.Equal(t, map[string]any{"module": "succession", "tasks": int64(3)}, entries[0].ContextMap())
	require.Equal(t, map[string]any{"module": "scope", "team_id": "team-design"}, entries[1].ContextMap())
}
