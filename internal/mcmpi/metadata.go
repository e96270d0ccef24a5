package mcmpi

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rogpeppe/go-internal/lockedfile"
)

// MetadataFile is the name of the provenance marker written into every installed directory.
const MetadataFile = ".mcmpi"

// MetadataTimeFormat is the format of InstallMetadata.Timestamp.
const MetadataTimeFormat = time.RFC1123Z

const (
	metaNameKey     = "Name"
	metaDownloadKey = "Download"
	metaDateKey     = "Date"
)

// InstallMetadata records where an installed directory came from.
type InstallMetadata struct {
	ArchiveName string
	SourceURL   string
	Timestamp   string
}

// Time parses Timestamp.
func (m *InstallMetadata) Time() (time.Time, error) {
	return time.Parse(MetadataTimeFormat, m.Timestamp)
}

// StateStore reads and writes the metadata marker.
type StateStore struct {
	// Now returns the time to record. Defaults to time.Now.
	Now func() time.Time
}

// HasMetadata reports whether targetDir already has a metadata marker.
func (s *StateStore) HasMetadata(targetDir string) bool {
	return fileExists(filepath.Join(targetDir, MetadataFile))
}

// WriteMetadataIfAbsent writes the metadata marker unless one already exists. The first write wins;
// an existing marker is never modified. written is false when the marker was already there.
func (s *StateStore) WriteMetadataIfAbsent(targetDir, archiveName, sourceURL string) (written bool, errOut error) {
	filename := filepath.Join(targetDir, MetadataFile)
	if s.HasMetadata(targetDir) {
		return false, nil
	}
	file, err := lockedfile.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, newError(ErrMetadataWrite, filename, err)
	}
	defer deferErr(&errOut, func() error {
		closeErr := file.Close()
		if closeErr != nil {
			return newError(ErrMetadataWrite, filename, closeErr)
		}
		return nil
	})
	meta := InstallMetadata{
		ArchiveName: archiveName,
		SourceURL:   sourceURL,
		Timestamp:   s.now().Format(MetadataTimeFormat),
	}
	_, err = file.WriteString(meta.String())
	if err != nil {
		return false, newError(ErrMetadataWrite, filename, err)
	}
	return true, nil
}

// ReadMetadata reads the metadata marker in targetDir. The returned error wraps fs.ErrNotExist when
// there is no marker.
func (s *StateStore) ReadMetadata(targetDir string) (*InstallMetadata, error) {
	filename := filepath.Join(targetDir, MetadataFile)
	content, err := lockedfile.Read(filename)
	if err != nil {
		return nil, err
	}
	return parseMetadata(string(content))
}

func (s *StateStore) now() time.Time {
	if s == nil || s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (m *InstallMetadata) String() string {
	return fmt.Sprintf("%s: %s\n%s: %s\n%s: %s", metaNameKey, m.ArchiveName, metaDownloadKey, m.SourceURL, metaDateKey, m.Timestamp)
}

func parseMetadata(content string) (*InstallMetadata, error) {
	var meta InstallMetadata
	seen := map[string]bool{}
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		key, val, ok := strings.Cut(line, ": ")
		if !ok {
			return nil, fmt.Errorf("invalid metadata line %q", line)
		}
		switch key {
		case metaNameKey:
			meta.ArchiveName = val
		case metaDownloadKey:
			meta.SourceURL = val
		case metaDateKey:
			meta.Timestamp = val
		default:
			return nil, fmt.Errorf("unknown metadata key %q", key)
		}
		seen[key] = true
	}
	err := scanner.Err()
	if err != nil {
		return nil, err
	}
	for _, key := range []string{metaNameKey, metaDownloadKey, metaDateKey} {
		if !seen[key] {
			return nil, fmt.Errorf("metadata is missing %q", key)
		}
	}
	return &meta, nil
}
