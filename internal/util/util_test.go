package util

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		require.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestStripPhoneFormatting(t *testing.T) {
	require.Equal(t, "+998901234567", StripPhoneFormatting(" +998 (90) 123-45-67 "))
	require.Equal(t, "+998901234567", StripPhoneFormatting("+998\t90 1234567"))
	require.Equal(t, "", StripPhoneFormatting(" - ( ) "))
}

func TestSanitizeInput(t *testing.T) {
	require.Equal(t, "&lt;b&gt;Ali&lt;/b&gt; &amp; co", SanitizeInput("  <b>Ali</b> & co\n"))
}

func TestCharLen(t *testing.T) {
	require.Equal(t, 5, CharLen("Жасур"))
	require.Equal(t, 2, CharLen("🙂🙂"))
}

func TestMaskPhone(t *testing.T) {
	require.Equal(t, "+998*******67", MaskPhone("+998901234567"))
	require.Equal(t, "****", MaskPhone("1234"))
}
