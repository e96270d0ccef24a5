package mcmpi

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time {
		return t
	}
}

func TestStateStore(t *testing.T) {
	stamp := time.Date(2024, time.March, 5, 14, 30, 0, 0, time.FixedZone("CET", 3600))

	t.Run("writes once", func(t *testing.T) {
		dir := t.TempDir()
		store := &StateStore{Now: fixedClock(stamp)}
		require.False(t, store.HasMetadata(dir))

		written, err := store.WriteMetadataIfAbsent(dir, "Pack.zip", "https://example.com/Pack.zip")
		require.NoError(t, err)
		require.True(t, written)
		require.True(t, store.HasMetadata(dir))

		content, err := os.ReadFile(filepath.Join(dir, MetadataFile))
		require.NoError(t, err)
		require.Equal(t, "Name: Pack.zip\nDownload: https://example.com/Pack.zip\nDate: Tue, 05 Mar 2024 14:30:00 +0100", string(content))

		store.Now = fixedClock(stamp.Add(time.Hour))
		written, err = store.WriteMetadataIfAbsent(dir, "Other.zip", "https://example.com/Other.zip")
		require.NoError(t, err)
		require.False(t, written)
		again, err := os.ReadFile(filepath.Join(dir, MetadataFile))
		require.NoError(t, err)
		require.Equal(t, string(content), string(again))
	})

	t.Run("read", func(t *testing.T) {
		dir := t.TempDir()
		store := &StateStore{Now: fixedClock(stamp)}
		_, err := store.WriteMetadataIfAbsent(dir, "Pack Alpha.zip", "https://example.com/Pack Alpha.zip")
		require.NoError(t, err)
		got, err := store.ReadMetadata(dir)
		require.NoError(t, err)
		want := &InstallMetadata{
			ArchiveName: "Pack Alpha.zip",
			SourceURL:   "https://example.com/Pack Alpha.zip",
			Timestamp:   "Tue, 05 Mar 2024 14:30:00 +0100",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("unexpected metadata (-want +got):\n%s", diff)
		}
		gotTime, err := got.Time()
		require.NoError(t, err)
		require.True(t, stamp.Equal(gotTime))
	})

	t.Run("read missing", func(t *testing.T) {
		_, err := (&StateStore{}).ReadMetadata(t.TempDir())
		require.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("read invalid", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFile), []byte("Name: a.zip\nDate: x"), 0o644))
		_, err := (&StateStore{}).ReadMetadata(dir)
		require.EqualError(t, err, `metadata is missing "Download"`)
	})

	t.Run("missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nope")
		_, err := (&StateStore{}).WriteMetadataIfAbsent(dir, "a.zip", "https://example.com/a.zip")
		require.ErrorIs(t, err, ErrMetadataWrite)
		assert.NoDirExists(t, dir)
	})

	t.Run("nil store uses the current time", func(t *testing.T) {
		dir := t.TempDir()
		var store *StateStore
		written, err := store.WriteMetadataIfAbsent(dir, "a.zip", "https://example.com/a.zip")
		require.NoError(t, err)
		require.True(t, written)
		got, err := store.ReadMetadata(dir)
		require.NoError(t, err)
		gotTime, err := got.Time()
		require.NoError(t, err)
		require.WithinDuration(t, time.Now(), gotTime, time.Minute)
	})
}
