package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{input: "", want: LevelInfo},
		{input: "debug", want: LevelDebug},
		{input: "DEBUG", want: LevelDebug},
		{input: "Info", want: LevelInfo},
		{input: "warn", want: LevelWarn},
		{input: "ERROR", want: LevelError},
		{input: "fatal", wantErr: true},
		{input: "nonsense", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("parse "+tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevel_Validate(t *testing.T) {
	assert.NoError(t, Level("").Validate())
	assert.NoError(t, LevelDebug.Validate())
	assert.NoError(t, Level("warn").Validate())
	assert.Error(t, Level("TRACE").Validate())
}

func TestLevel_toZapCoreLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  zapcore.Level
	}{
		{level: LevelDebug, want: zapcore.DebugLevel},
		{level: LevelInfo, want: zapcore.InfoLevel},
		{level: Level(""), want: zapcore.InfoLevel},
		{level: LevelWarn, want: zapcore.WarnLevel},
		{level: LevelError, want: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		got, err := tt.level.toZapCoreLevel()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := Level("TRACE").toZapCoreLevel()
	require.Error(t, err)
}
