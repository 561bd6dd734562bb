// Package fileutil holds small filesystem helpers shared by the durable
// cache and the tabular writers.
package fileutil

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// WriteFileAtomic replaces path with data. The bytes go to a temp file in the
// same directory which is synced and renamed over the target, so readers see
// either the previous contents or the new contents, never a partial write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "fileutil: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return eris.Wrap(err, "fileutil: create temp file")
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return eris.Wrap(err, "fileutil: write temp file")
	}
	if err := tmp.Chmod(perm); err != nil {
		return eris.Wrap(err, "fileutil: chmod temp file")
	}
	if err := tmp.Sync(); err != nil {
		return eris.Wrap(err, "fileutil: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "fileutil: close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "fileutil: rename to %s", path)
	}
	committed = true
	return nil
}
