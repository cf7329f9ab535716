package sync

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// pruneUndeclared deletes every regular file under dir whose path
// relative to dir is not in keep, then removes directories left empty,
// bottom-up. dir itself is preserved even when empty. Individual delete
// failures are logged and skipped, never fatal.
func pruneUndeclared(fsys afero.Fs, dir string, keep map[string]struct{}, log *zap.Logger) {
	walkErr := afero.Walk(fsys, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn("cannot walk configurations directory",
				zap.String("path", path),
				zap.Error(err))
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			log.Warn("cannot relativize path",
				zap.String("path", path),
				zap.Error(err))
			return nil
		}
		if _, ok := keep[filepath.ToSlash(rel)]; ok {
			return nil
		}
		log.Debug("deleting undeclared file", zap.String("path", path))
		if err := fsys.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("cannot delete undeclared file",
				zap.String("path", path),
				zap.Error(err))
		}
		return nil
	})
	if walkErr != nil {
		log.Warn("walking configurations directory failed",
			zap.String("path", dir),
			zap.Error(walkErr))
	}

	removeEmptyDirs(fsys, dir, true, log)
}

// removeEmptyDirs removes empty directories below dir depth-first and
// reports whether dir itself was removed. The root is never removed.
func removeEmptyDirs(fsys afero.Fs, dir string, isRoot bool, log *zap.Logger) bool {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		log.Warn("cannot list directory",
			zap.String("path", dir),
			zap.Error(err))
		return false
	}

	empty := true
	for _, e := range entries {
		if e.IsDir() && removeEmptyDirs(fsys, filepath.Join(dir, e.Name()), false, log) {
			continue
		}
		empty = false
	}
	if !empty || isRoot {
		return false
	}

	if err := fsys.Remove(dir); err != nil {
		log.Warn("cannot remove empty directory",
			zap.String("path", dir),
			zap.Error(err))
		return false
	}
	return true
}

// writeFileAtomic writes data to path via a temp file and rename, fsyncing
// before the rename so a crash never leaves a half-written configuration.
// Parent directories are created as needed.
func writeFileAtomic(fsys afero.Fs, path string, data []byte) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	f, err := fsys.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = fsys.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = fsys.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = fsys.Remove(tmpPath)
		return err
	}
	return fsys.Rename(tmpPath, path)
}
