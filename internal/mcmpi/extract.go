package mcmpi

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	kzip "github.com/klauspost/compress/zip"
	"github.com/mholt/archiver/v3"
	"github.com/sirupsen/logrus"
)

// Extractor unpacks zip archives.
type Extractor struct {
	Logger logrus.FieldLogger
}

// Extract writes every entry of the zip archive at archivePath into targetDir, creating targetDir if
// needed. Existing files are overwritten.
//
// All entry names are checked before anything is written. If any entry would land outside targetDir
// the whole extraction is aborted with ErrUnsafePath. Other failures abort at the failing entry and
// leave whatever was already written in place.
func (e *Extractor) Extract(archivePath, targetDir string) error {
	logger := e.logger().WithField("archive", archivePath)
	z := archiver.NewZip()

	entries := 0
	var stepErr error
	err := z.Walk(archivePath, func(f archiver.File) error {
		name, hErr := entryName(f)
		if hErr == nil {
			_, hErr = entryDestination(targetDir, name)
		}
		if hErr != nil {
			stepErr = hErr
			return archiver.ErrStopWalk
		}
		entries++
		return nil
	})
	if stepErr != nil {
		return stepErr
	}
	if err != nil {
		return newError(ErrArchiveOpen, archivePath, err)
	}
	logger.WithField("entries", entries).Debug("validated archive entries")

	err = os.MkdirAll(targetDir, 0o755)
	if err != nil {
		return newError(ErrDirectoryCreate, targetDir, err)
	}

	err = z.Walk(archivePath, func(f archiver.File) error {
		stepErr = extractEntry(f, targetDir)
		if stepErr != nil {
			return archiver.ErrStopWalk
		}
		return nil
	})
	if stepErr != nil {
		return stepErr
	}
	if err != nil {
		return newError(ErrArchiveOpen, archivePath, err)
	}
	return nil
}

func (e *Extractor) logger() logrus.FieldLogger {
	if e == nil || e.Logger == nil {
		return discardLogger
	}
	return e.Logger
}

func extractEntry(f archiver.File, targetDir string) (errOut error) {
	name, err := entryName(f)
	if err != nil {
		return err
	}
	dest, err := entryDestination(targetDir, name)
	if err != nil {
		return err
	}
	if f.IsDir() {
		err = os.MkdirAll(dest, 0o755)
		if err != nil {
			return newError(ErrDirectoryCreate, dest, err)
		}
		return nil
	}
	err = os.MkdirAll(filepath.Dir(dest), 0o755)
	if err != nil {
		return newError(ErrDirectoryCreate, filepath.Dir(dest), err)
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode().Perm()|0o600)
	if err != nil {
		return newError(ErrFileCreate, dest, err)
	}
	defer deferErr(&errOut, func() error {
		closeErr := out.Close()
		if closeErr != nil {
			return newError(ErrCopy, dest, closeErr)
		}
		return nil
	})
	_, err = io.Copy(out, f)
	if err != nil {
		return newError(ErrCopy, dest, err)
	}
	return nil
}

// entryName returns the full stored name of a zip entry. f.Name() only has the base name.
func entryName(f archiver.File) (string, error) {
	switch h := f.Header.(type) {
	case zip.FileHeader:
		return h.Name, nil
	case *zip.FileHeader:
		return h.Name, nil
	case kzip.FileHeader:
		return h.Name, nil
	case *kzip.FileHeader:
		return h.Name, nil
	}
	return "", newError(ErrArchiveOpen, f.Name(), fmt.Errorf("unexpected zip header type %T", f.Header))
}

// entryDestination joins targetDir and an entry name, rejecting names that would resolve outside of
// targetDir. Backslashes are treated as separators since zip tools on windows write them.
func entryDestination(targetDir, name string) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(slashed, "/") ||
		filepath.IsAbs(filepath.FromSlash(slashed)) ||
		filepath.VolumeName(filepath.FromSlash(slashed)) != "" {
		return "", newError(ErrUnsafePath, name, fmt.Errorf("absolute path not allowed"))
	}
	clean := path.Clean(slashed)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", newError(ErrUnsafePath, name, fmt.Errorf("path escapes %q", targetDir))
	}
	dest := filepath.Join(targetDir, filepath.FromSlash(clean))
	rel, err := filepath.Rel(targetDir, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", newError(ErrUnsafePath, name, fmt.Errorf("path escapes %q", targetDir))
	}
	return dest, nil
}
