package sync

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// FileMD5 returns the hex MD5 digest of the file at path.
//
// A missing or unreadable file yields the empty string, which never
// matches a recorded digest, so such a file always compares as stale.
// Read errors are logged, never propagated: a single unreadable file must
// not block reconciliation.
func FileMD5(fsys afero.Fs, path string, log *zap.Logger) string {
	f, err := fsys.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("cannot open file for hashing",
				zap.String("path", path),
				zap.Error(err))
		}
		return ""
	}
	defer func() { _ = f.Close() }()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		log.Warn("cannot read file for hashing",
			zap.String("path", path),
			zap.Error(err))
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}
