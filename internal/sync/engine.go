// Package sync implements the reconciliation engine that keeps a local
// configurations directory converged to the server-declared device group
// snapshot.
//
// The engine is single-threaded and non-reentrant: every public operation
// runs to completion before another may be invoked on the same instance,
// and there is no internal locking. A directory must have a single owning
// engine; concurrent engines on one directory are not guarded against.
package sync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/configgery/configgery-go/internal/client"
	"github.com/configgery/configgery-go/internal/metadata"
)

var (
	// ErrNoMetadata is returned when an operation requires a loaded
	// device group snapshot and none is held.
	ErrNoMetadata = errors.New("no device group metadata loaded")

	// ErrConfigurationsOutdated is returned when local configurations do
	// not match the snapshot and must not be served as valid.
	ErrConfigurationsOutdated = errors.New("configurations are outdated")

	// ErrNotFound is returned when no entry matches a lookup key by path
	// or alias.
	ErrNotFound = errors.New("configuration not found")
)

// MetadataFileName is the snapshot cache file under the engine's root
// directory.
const MetadataFileName = "configurations.json"

// ConfigurationsDirName is the directory under the engine's root that
// holds the configuration files themselves.
const ConfigurationsDirName = "configurations"

// Transport is the subset of the configgery device API the engine drives.
type Transport interface {
	CurrentConfigurations(ctx context.Context) (*client.DeviceGroupResponse, error)
	DownloadConfiguration(ctx context.Context, id uuid.UUID, version int) ([]byte, error)
}

// Engine owns the in-memory snapshot and the client state machine, and
// orchestrates refresh, prune and download.
type Engine struct {
	fsys      afero.Fs
	transport Transport
	store     *metadata.Store
	configDir string
	clock     clockwork.Clock
	log       *zap.Logger

	state State
	group *metadata.DeviceGroup
}

// New builds an engine rooted at dir. Configuration files live under
// dir/configurations and the snapshot cache at dir/configurations.json.
// A valid cached snapshot is loaded immediately; a corrupt one is
// discarded and replaced on the next successful CheckLatest.
func New(fsys afero.Fs, transport Transport, dir string, clock clockwork.Clock, log *zap.Logger) (*Engine, error) {
	configDir := filepath.Join(dir, ConfigurationsDirName)
	if err := fsys.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating configurations directory: %w", err)
	}

	e := &Engine{
		fsys:      fsys,
		transport: transport,
		store:     metadata.NewStore(fsys, filepath.Join(dir, MetadataFileName), log),
		configDir: configDir,
		clock:     clock,
		log:       log,
		state:     Uninitialized,
	}

	group, err := e.store.Load()
	if err != nil {
		log.Warn("cannot read cached configuration data", zap.Error(err))
	}
	if group != nil {
		log.Info("loaded cached configuration data",
			zap.String("device_group_id", group.DeviceGroupID.String()),
			zap.Int("device_group_version", group.DeviceGroupVersion))
		e.group = group
		e.state = MetadataLoaded
	} else {
		log.Info("no cached configuration data found")
	}
	return e, nil
}

// State returns the current client state.
func (e *Engine) State() State {
	return e.state
}

// DeviceGroup returns the currently held snapshot, or nil when none is
// loaded. Callers must not mutate it.
func (e *Engine) DeviceGroup() *metadata.DeviceGroup {
	return e.group
}

// ConfigurationsDir returns the directory holding the configuration
// files.
func (e *Engine) ConfigurationsDir() string {
	return e.configDir
}

// CheckLatest replaces the snapshot with the server's current device
// group metadata and persists it.
//
// On any failure the in-memory snapshot is cleared: a snapshot that could
// not just be confirmed current must not be trusted.
func (e *Engine) CheckLatest(ctx context.Context) error {
	e.log.Info("checking for latest configuration data")

	resp, err := e.transport.CurrentConfigurations(ctx)
	if err != nil {
		e.log.Error("failed to fetch latest configuration data", zap.Error(err))
		e.state = MetadataFetchFailed
		e.group = nil
		return fmt.Errorf("fetching current configurations: %w", err)
	}

	group := metadata.NewDeviceGroup(
		resp.DeviceGroupID,
		resp.DeviceGroupVersion,
		resp.ConfigurationsMetadata,
		e.clock.Now().UTC(),
	)
	if err := e.store.Save(group); err != nil {
		e.log.Error("failed to persist configuration data", zap.Error(err))
		e.state = MetadataFetchFailed
		e.group = nil
		return fmt.Errorf("persisting snapshot: %w", err)
	}

	e.group = group
	e.state = MetadataLoaded
	return nil
}

// TimeSinceLastChecked returns the elapsed wall-clock time since the
// snapshot was last confirmed with the server. With no snapshot the
// baseline is the Unix epoch, signaling callers to refresh immediately.
func (e *Engine) TimeSinceLastChecked() time.Duration {
	now := e.clock.Now()
	if e.group == nil {
		return now.Sub(time.Unix(0, 0).UTC())
	}
	return now.Sub(e.group.LastChecked)
}

// Outdated lists the entries whose local content does not match the
// snapshot, ordered by path. With no snapshot it returns nil.
func (e *Engine) Outdated() []metadata.Configuration {
	if e.group == nil {
		return nil
	}
	return Outdated(e.fsys, e.configDir, e.group, e.log)
}

// IsDownloadNeeded reports whether any entry is outdated, short-circuiting
// on the first hit. With no snapshot it returns false; callers should
// consult State or TimeSinceLastChecked to decide whether to refresh.
func (e *Engine) IsDownloadNeeded() bool {
	if e.group == nil {
		return false
	}
	return IsDownloadNeeded(e.fsys, e.configDir, e.group, e.log)
}

// Prune deletes local files not declared by the snapshot and removes
// directories left empty. It requires a loaded snapshot: without one,
// nothing is prunable.
func (e *Engine) Prune() error {
	if e.group == nil {
		e.log.Error("cannot remove old configurations without device group metadata")
		return ErrNoMetadata
	}
	e.log.Info("removing old configurations")
	pruneUndeclared(e.fsys, e.configDir, e.group.Paths(), e.log)
	return nil
}

// Synchronize converges the configurations directory to the snapshot:
// refresh the snapshot when none is held, prune undeclared files, then
// download every outdated entry in path order.
//
// The download batch is fail-fast: the first failed entry aborts the
// remainder and sets DownloadFailed. Files written earlier in the batch
// stay in place; a re-run re-attempts only the entries still outdated.
func (e *Engine) Synchronize(ctx context.Context) error {
	if e.group == nil {
		if err := e.CheckLatest(ctx); err != nil {
			return err
		}
	}

	// Prune before downloading so the directory always holds a subset of
	// the current snapshot, never a mix of two generations.
	pruneUndeclared(e.fsys, e.configDir, e.group.Paths(), e.log)

	for _, c := range e.Outdated() {
		data, err := e.transport.DownloadConfiguration(ctx, c.ConfigurationID, c.Version)
		if err != nil {
			e.log.Error("failed to download configuration",
				zap.String("configuration_id", c.ConfigurationID.String()),
				zap.Int("version", c.Version),
				zap.String("path", c.Path),
				zap.Error(err))
			e.state = DownloadFailed
			return fmt.Errorf("downloading configuration %s version %d: %w", c.ConfigurationID, c.Version, err)
		}

		target := filepath.Join(e.configDir, filepath.FromSlash(c.Path))
		if err := writeFileAtomic(e.fsys, target, data); err != nil {
			e.log.Error("failed to write configuration",
				zap.String("configuration_id", c.ConfigurationID.String()),
				zap.Int("version", c.Version),
				zap.String("path", target),
				zap.Error(err))
			e.state = DownloadFailed
			return fmt.Errorf("writing configuration %s: %w", c.Path, err)
		}
		e.log.Debug("downloaded configuration",
			zap.String("configuration_id", c.ConfigurationID.String()),
			zap.Int("version", c.Version),
			zap.String("path", c.Path))
	}

	e.log.Info("configurations synchronized",
		zap.String("device_group_id", e.group.DeviceGroupID.String()),
		zap.Int("device_group_version", e.group.DeviceGroupVersion))
	e.state = Synchronized
	return nil
}

// GetConfiguration returns the on-disk content of the entry matching the
// given path or, failing that, alias. Stale local state is never served:
// the lookup fails while any entry is outdated.
func (e *Engine) GetConfiguration(pathOrAlias string) ([]byte, error) {
	if e.group == nil {
		e.log.Error("cannot get configuration without device group metadata",
			zap.String("path", pathOrAlias))
		return nil, ErrNoMetadata
	}
	if e.IsDownloadNeeded() {
		e.log.Error("cannot get configuration with outdated configurations",
			zap.String("path", pathOrAlias))
		return nil, ErrConfigurationsOutdated
	}

	c, ok := e.group.ByPathOrAlias(pathOrAlias)
	if !ok {
		return nil, fmt.Errorf("%q: %w", pathOrAlias, ErrNotFound)
	}
	data, err := afero.ReadFile(e.fsys, filepath.Join(e.configDir, filepath.FromSlash(c.Path)))
	if err != nil {
		return nil, fmt.Errorf("reading configuration %s: %w", c.Path, err)
	}
	return data, nil
}
