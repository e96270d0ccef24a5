package mcmpi

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ArchiveExt is appended to the target directory name to get the archive file name.
// Archives are always treated as zip files regardless of the url's extension.
const ArchiveExt = ".zip"

// ResolvedPaths are the file names derived from an InstallRequest.
type ResolvedPaths struct {
	ArchiveFile string
	TargetDir   string
	DecodedURL  string
}

var urlDecoder = strings.NewReplacer(
	"%20", " ",
	"%28", "(",
	"%29", ")",
	"%21", "!",
	"%23", "#",
	"%24", "$",
)

// DecodeURL replaces the percent-encoded characters that commonly show up in file names with their
// literal characters. Every other escape is left alone.
func DecodeURL(u string) string {
	return urlDecoder.Replace(u)
}

// ResolvePaths derives the archive file and target directory names for req.
func ResolvePaths(req *InstallRequest) (ResolvedPaths, error) {
	decoded := DecodeURL(req.URL)
	name, err := urlFilename(req.URL)
	if err != nil {
		return ResolvedPaths{}, err
	}
	dir := req.OutputDir
	if dir != "" {
		dir, err = cleanOutputDir(dir)
		if err != nil {
			return ResolvedPaths{}, err
		}
	} else {
		dir = name
		if idx := strings.LastIndex(name, "."); idx >= 0 {
			dir = name[:idx]
		}
	}
	if dir == "" {
		return ResolvedPaths{}, newError(ErrNameExtraction, "", fmt.Errorf("no directory name in %q", req.URL))
	}
	return ResolvedPaths{
		ArchiveFile: dir + ArchiveExt,
		TargetDir:   dir,
		DecodedURL:  decoded,
	}, nil
}

// cleanOutputDir drops trailing separators from an OutputDir override so the archive stays a sibling of
// the target directory. Overrides without a usable last element are rejected.
func cleanOutputDir(dir string) (string, error) {
	clean := filepath.Clean(dir)
	switch filepath.Base(clean) {
	case ".", "..", string(filepath.Separator):
		return "", newError(ErrNameExtraction, dir, fmt.Errorf("%q is not a usable directory name", dir))
	}
	return clean, nil
}

// urlFilename returns the decoded last path segment of rawURL.
func urlFilename(rawURL string) (string, error) {
	// the query is cut before decoding so that a decoded '#' or '?' stays part of the name
	if idx := strings.IndexByte(rawURL, '?'); idx >= 0 {
		rawURL = rawURL[:idx]
	}
	decoded := DecodeURL(rawURL)
	name := decoded[strings.LastIndex(decoded, "/")+1:]
	if name == "" {
		return "", newError(ErrNameExtraction, "", fmt.Errorf("no file name in %q", rawURL))
	}
	return name, nil
}
