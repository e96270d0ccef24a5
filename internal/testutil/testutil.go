package testutil

import (
	"archive/zip"
	"bytes"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// ZipEntry is one member of a test archive. Names ending in "/" are directories.
type ZipEntry struct {
	Name    string
	Content string
	Mode    fs.FileMode
}

// ZipBytes returns a zip archive containing entries in order.
func ZipBytes(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range entries {
		hdr := &zip.FileHeader{
			Name:   entry.Name,
			Method: zip.Deflate,
		}
		mode := entry.Mode
		if mode == 0 {
			mode = 0o644
			if isDirName(entry.Name) {
				mode = fs.ModeDir | 0o755
			}
		}
		hdr.SetMode(mode)
		w, err := zw.CreateHeader(hdr)
		require.NoError(t, err)
		if !isDirName(entry.Name) {
			_, err = w.Write([]byte(entry.Content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// WriteZip writes a zip archive containing entries to filename.
func WriteZip(t testing.TB, filename string, entries ...ZipEntry) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filename), 0o755))
	require.NoError(t, os.WriteFile(filename, ZipBytes(t, entries...), 0o644))
}

func isDirName(name string) bool {
	return name != "" && name[len(name)-1] == '/'
}

// Server serves fixed content and counts requests.
type Server struct {
	*httptest.Server
	hits atomic.Int32
}

// Hits returns the number of requests served so far, including failed ones.
func (s *Server) Hits() int {
	return int(s.hits.Load())
}

// ServeContent starts an http server that serves content at path and 404 everywhere else.
func ServeContent(t testing.TB, path string, content []byte) *Server {
	t.Helper()
	srv := &Server{}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		srv.hits.Add(1)
		if req.URL.Path != path {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_, _ = w.Write(content)
	})
	srv.Server = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// DirContents returns the content of every regular file under dir keyed by slash-separated relative
// path. Directories are keyed with a trailing slash and an empty value.
func DirContents(t testing.TB, dir string) map[string]string {
	t.Helper()
	got := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == "." {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			got[rel+"/"] = ""
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		got[rel] = string(content)
		return nil
	})
	require.NoError(t, err)
	return got
}
