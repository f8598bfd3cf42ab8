package logger

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, fn func()) (stdout string, stderr string) {
	origOut, origErr := os.Stdout, os.Stderr
	defer func() { os.Stdout, os.Stderr = origOut, origErr }()

	rOut, wOut, err := os.Pipe()
	require.NoError(t, err, "failed to create stdout pipe")
	rErr, wErr, err := os.Pipe()
	require.NoError(t, err, "failed to create stderr pipe")

	os.Stdout, os.Stderr = wOut, wErr

	fn()

	err = wOut.Close()
	require.NoError(t, err, "failed to close stdout pipe")
	err = wErr.Close()
	require.NoError(t, err, "failed to close stderr pipe")

	outBytes, err := io.ReadAll(rOut)
	require.NoError(t, err, "failed to read stdout pipe")
	errBytes, err := io.ReadAll(rErr)
	require.NoError(t, err, "failed to read stderr pipe")

	return string(outBytes), string(errBytes)
}

func TestLogger_parseLevel(t *testing.T) {
	t.Run("valid value", func(t *testing.T) {
		tests := []struct {
			name     string
			input    string
			expected slog.Level
		}{
			{"Debug level", "DEBUG", slog.LevelDebug},
			{"Debug level lowercase", "debug", slog.LevelDebug},
			{"Info level", "INFO", slog.LevelInfo},
			{"Info level lowercase", "info", slog.LevelInfo},
			{"Warn level", "WARN", slog.LevelWarn},
			{"Warn level lowercase", "warn", slog.LevelWarn},
			{"Error level", "ERROR", slog.LevelError},
			{"Error level lowercase", "error", slog.LevelError},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := parseLevel(tt.input)

				require.NoError(t, err, "parseLevel(%q) should not return an error", tt.input)
				require.Equal(t, tt.expected, got, "parseLevel(%q) should return %v", tt.input, tt.expected)
			})
		}
	})

	t.Run("not valid", func(t *testing.T) {
		tests := []struct {
			name  string
			value string
		}{
			{
				name:  "empty level",
				value: "",
			},
			{
				name:  "unknown level",
				value: "uknown",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := parseLevel(tt.value)

				require.Error(t, err, "parseLevel(%q) should return an error", tt.value)
			})
		}
	})
}

func TestLogger_New(t *testing.T) {
	t.Run("dev environment logs text", func(t *testing.T) {
		l, err := New(EnvDevelopment, LevelInfo)
		require.NoError(t, err)

		stdout, _ := capture(t, func() {
			l.Info("hello", "key", "value")
		})

		require.Contains(t, stdout, "msg=hello")
		require.Contains(t, stdout, "key=value")
	})

	t.Run("prod environment logs json", func(t *testing.T) {
		l, err := New(EnvProduction, LevelInfo)
		require.NoError(t, err)

		stdout, _ := capture(t, func() {
			l.Info("hello", "key", "value")
		})

		var record map[string]any
		err = json.Unmarshal([]byte(stdout), &record)
		require.NoError(t, err, "prod logger should produce valid json")
		require.Equal(t, "hello", record["msg"])
		require.Equal(t, "value", record["key"])
	})

	t.Run("level is respected", func(t *testing.T) {
		l, err := New(EnvDevelopment, LevelWarn)
		require.NoError(t, err)

		stdout, _ := capture(t, func() {
			l.Info("should be dropped")
			l.Warn("should be logged")
		})

		require.NotContains(t, stdout, "should be dropped")
		require.Contains(t, stdout, "should be logged")
	})

	t.Run("unknown environment fails", func(t *testing.T) {
		_, err := New("staging", LevelInfo)
		require.Error(t, err)
	})

	t.Run("noop logs nothing", func(t *testing.T) {
		l := NewNoOp()

		stdout, stderr := capture(t, func() {
			l.Error("silence")
		})

		require.Empty(t, stdout)
		require.Empty(t, stderr)
	})
}
