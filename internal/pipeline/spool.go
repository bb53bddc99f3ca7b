package pipeline

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Spool file constants.
const (
	dirPermissions  = 0o750
	filePermissions = 0o640
)

// spool is the run's transient line file. Lines accumulate here while the
// run progresses; at run end the spool is either discarded or retained as
// a compressed audit artifact.
//
// The file name carries the process id so concurrent processes sharing an
// output directory never collide.
type spool struct {
	f    *os.File
	path string
}

// newSpool creates the transient spool file under dir.
func newSpool(dir string) (*spool, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("tmp_%d.txt", os.Getpid()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermissions)
	if err != nil {
		return nil, fmt.Errorf("creating spool file: %w", err)
	}

	return &spool{f: f, path: path}, nil
}

// Append writes lines to the spool, one per line.
func (s *spool) Append(lines []string) error {
	for _, line := range lines {
		if _, err := s.f.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("writing spool: %w", err)
		}
	}
	return nil
}

// Discard closes and removes the spool. Safe to call after Retain (no-op
// once the file is gone).
func (s *spool) Discard() error {
	_ = s.f.Close()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing spool: %w", err)
	}
	return nil
}

// Retain finalizes the spool as an audit artifact: the file is renamed to
// its canonical name, gzip-compressed in place, and the uncompressed
// intermediate removed.
//
// Parameters:
//   - dir: Output directory for the artifact
//   - name: Canonical artifact file name (without .gz suffix)
//
// Returns:
//   - string: Path of the compressed artifact
//   - error: If rename, compression, or cleanup fails
func (s *spool) Retain(dir, name string) (string, error) {
	if err := s.f.Close(); err != nil {
		return "", fmt.Errorf("closing spool: %w", err)
	}

	finalPath := filepath.Join(dir, name)
	if err := os.Rename(s.path, finalPath); err != nil {
		return "", fmt.Errorf("renaming spool: %w", err)
	}

	gzPath, err := gzipFile(finalPath)
	if err != nil {
		return "", err
	}

	if err := os.Remove(finalPath); err != nil {
		return "", fmt.Errorf("removing uncompressed artifact: %w", err)
	}

	return gzPath, nil
}

// gzipFile compresses path to path.gz and returns the compressed path.
func gzipFile(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening artifact: %w", err)
	}
	defer in.Close() //nolint:errcheck // read-only file

	gzPath := path + ".gz"
	out, err := os.OpenFile(gzPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermissions)
	if err != nil {
		return "", fmt.Errorf("creating compressed artifact: %w", err)
	}

	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("compressing artifact: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("finalizing compression: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing compressed artifact: %w", err)
	}

	return gzPath, nil
}
