package mcmpi

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

var discardLogger logrus.FieldLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// fileExists asserts that a file or directory exists.
// Returns false for symlinks pointing to non-existent files.
func fileExists(path string) bool {
	_, statErr := os.Stat(filepath.FromSlash(path))
	return !os.IsNotExist(statErr)
}

func deferErr(errOut *error, fn func() error) {
	deferredErr := fn()
	if *errOut == nil {
		*errOut = deferredErr
	}
}
