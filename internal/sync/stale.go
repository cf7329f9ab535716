package sync

import (
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/configgery/configgery-go/internal/metadata"
)

// Outdated returns the entries whose content under dir does not match
// their recorded digest, ordered by path ascending. It holds no cursor
// state and recomputes from scratch on every call.
func Outdated(fsys afero.Fs, dir string, group *metadata.DeviceGroup, log *zap.Logger) []metadata.Configuration {
	var out []metadata.Configuration
	for _, c := range group.SortedByPath() {
		if FileMD5(fsys, filepath.Join(dir, filepath.FromSlash(c.Path)), log) != c.MD5 {
			out = append(out, c)
		}
	}
	return out
}

// IsDownloadNeeded reports whether any entry is outdated, stopping at the
// first hit. Cheaper than Outdated for polling checks.
func IsDownloadNeeded(fsys afero.Fs, dir string, group *metadata.DeviceGroup, log *zap.Logger) bool {
	for _, c := range group.SortedByPath() {
		if FileMD5(fsys, filepath.Join(dir, filepath.FromSlash(c.Path)), log) != c.MD5 {
			return true
		}
	}
	return false
}
