package mcmpi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcceptLicense(t *testing.T) {
	t.Run("new", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, AcceptLicense(dir))
		got, err := os.ReadFile(filepath.Join(dir, LicenseFile))
		require.NoError(t, err)
		require.Equal(t, "eula=true", string(got))
	})

	t.Run("replaces existing", func(t *testing.T) {
		dir := t.TempDir()
		filename := filepath.Join(dir, LicenseFile)
		require.NoError(t, os.WriteFile(filename, []byte("#By changing the setting below to TRUE...\neula=false\n"), 0o644))
		require.NoError(t, AcceptLicense(dir))
		got, err := os.ReadFile(filename)
		require.NoError(t, err)
		require.Equal(t, "eula=true", string(got))
	})

	t.Run("missing directory", func(t *testing.T) {
		err := AcceptLicense(filepath.Join(t.TempDir(), "missing"))
		require.ErrorIs(t, err, ErrLicenseWrite)
		require.Equal(t, 18, ExitCode(err))
	})
}
