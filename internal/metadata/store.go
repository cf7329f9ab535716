package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// SchemaVersion is the version of the persisted snapshot document.
// Bump it when the document shape changes; a mismatch makes Load treat
// the file as absent, forcing a fresh fetch from the server.
const SchemaVersion = 1

// document is the persisted form of a DeviceGroup.
type document struct {
	SchemaVersion          int             `json:"schema_version"`
	DeviceGroupID          uuid.UUID       `json:"device_group_id"`
	DeviceGroupVersion     int             `json:"device_group_version"`
	ConfigurationsMetadata []Configuration `json:"configurations_metadata"`
	LastChecked            time.Time       `json:"last_checked"`
}

// Store persists the device group snapshot as a JSON document.
type Store struct {
	fs   afero.Fs
	path string
	log  *zap.Logger
}

// NewStore creates a store persisting to path on fs.
func NewStore(fs afero.Fs, path string, log *zap.Logger) *Store {
	return &Store{fs: fs, path: path, log: log}
}

// Path returns the location of the persisted document.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted snapshot.
//
// It fails soft: a missing file, invalid JSON, a schema_version mismatch,
// or missing required fields all return (nil, nil) so the caller falls
// back to a fresh fetch. Only an unexpected read error is returned.
func (s *Store) Load() (*DeviceGroup, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn("discarding unparseable snapshot file",
			zap.String("path", s.path),
			zap.Error(err))
		return nil, nil
	}
	if doc.SchemaVersion != SchemaVersion {
		s.log.Warn("discarding snapshot file with unsupported schema version",
			zap.String("path", s.path),
			zap.Int("schema_version", doc.SchemaVersion),
			zap.Int("supported", SchemaVersion))
		return nil, nil
	}
	if doc.DeviceGroupID == uuid.Nil {
		s.log.Warn("discarding snapshot file without a device group id",
			zap.String("path", s.path))
		return nil, nil
	}
	for _, c := range doc.ConfigurationsMetadata {
		if c.ConfigurationID == uuid.Nil || c.Path == "" || c.MD5 == "" {
			s.log.Warn("discarding snapshot file with an incomplete entry",
				zap.String("path", s.path),
				zap.String("configuration_id", c.ConfigurationID.String()),
				zap.String("entry_path", c.Path))
			return nil, nil
		}
	}

	return NewDeviceGroup(doc.DeviceGroupID, doc.DeviceGroupVersion, doc.ConfigurationsMetadata, doc.LastChecked), nil
}

// Save writes the snapshot, overwriting any previous document.
//
// Entries are serialized sorted by path for reproducible diffs. The
// document is written to a temp file and renamed into place, so readers
// observe either the old complete document or the new one.
func (s *Store) Save(group *DeviceGroup) error {
	doc := document{
		SchemaVersion:          SchemaVersion,
		DeviceGroupID:          group.DeviceGroupID,
		DeviceGroupVersion:     group.DeviceGroupVersion,
		ConfigurationsMetadata: group.SortedByPath(),
		LastChecked:            group.LastChecked,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming %s: %w", tmpPath, err)
	}
	return nil
}
