package mcmpi

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by this package matches exactly one of these with errors.Is.
var (
	ErrNameExtraction      = errors.New("failed to extract file name")
	ErrDownload            = errors.New("failed to download file")
	ErrArchiveOpen         = errors.New("failed to open archive")
	ErrUnsafePath          = errors.New("unsafe path in archive")
	ErrDirectoryCreate     = errors.New("failed to create directory")
	ErrFileCreate          = errors.New("failed to create file")
	ErrCopy                = errors.New("failed to write file")
	ErrArchiveDelete       = errors.New("failed to delete archive")
	ErrLicenseWrite        = errors.New("failed to write license file")
	ErrMetadataWrite       = errors.New("failed to write metadata file")
	ErrToolMissing         = errors.New("screen is not installed")
	ErrLaunchScriptMissing = errors.New("failed to find launch script")
	ErrLaunch              = errors.New("failed to launch server")
)

// Error is a failure of one installation step.
type Error struct {
	Kind error
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Path != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, path string, err error) error {
	return &Error{Kind: kind, Path: path, Err: err}
}

var exitCodes = []struct {
	kind error
	code int
}{
	{ErrNameExtraction, 10},
	{ErrDownload, 11},
	{ErrArchiveOpen, 12},
	{ErrUnsafePath, 13},
	{ErrDirectoryCreate, 14},
	{ErrFileCreate, 15},
	{ErrCopy, 16},
	{ErrArchiveDelete, 17},
	{ErrLicenseWrite, 18},
	{ErrMetadataWrite, 19},
	{ErrToolMissing, 20},
	{ErrLaunchScriptMissing, 21},
	{ErrLaunch, 22},
}

// ExitCode returns the process exit code for err. 0 for nil, 1 for errors of no known kind.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var stepErr *Error
	if errors.As(err, &stepErr) {
		err = stepErr.Kind
	}
	for _, ec := range exitCodes {
		if errors.Is(err, ec.kind) {
			return ec.code
		}
	}
	return 1
}
