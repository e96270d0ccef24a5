package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("console", func(t *testing.T) {
		var buf bytes.Buffer
		logger, closer, err := New(Options{Console: &buf})
		require.NoError(t, err)
		logger.WithField("target", "pack").Info("Unzipping files...")
		logger.Warn("Screen is not installed.")
		logger.Debug("hidden")
		require.NoError(t, closer())
		require.Equal(t, "Unzipping files...\nwarning: Screen is not installed.\n", buf.String())
	})

	t.Run("debug shows fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger, _, err := New(Options{Console: &buf, Level: "debug"})
		require.NoError(t, err)
		logger.WithField("target", "pack").WithField("archive", "pack.zip").Info("Downloaded files.")
		require.Equal(t, "Downloaded files. archive=pack.zip target=pack\n", buf.String())
	})

	t.Run("error level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, _, err := New(Options{Console: &buf, Level: "error"})
		require.NoError(t, err)
		logger.Info("quiet")
		logger.Error("loud")
		require.Equal(t, "error: loud\n", buf.String())
	})

	t.Run("invalid level", func(t *testing.T) {
		_, _, err := New(Options{Level: "chatty"})
		require.ErrorContains(t, err, `failed parsing log level "chatty"`)
	})

	t.Run("file", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "logs", "mcmpi.log")
		logger, closer, err := New(Options{File: logFile})
		require.NoError(t, err)
		logger.WithField("target", "pack").Info("Agreed to eula.")
		require.NoError(t, closer())
		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		require.Regexp(t, `time="[^"]+" level=info msg="Agreed to eula." target=pack`, string(content))
	})
}
