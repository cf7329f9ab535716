package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/configgery/configgery-go/internal/metadata"
)

// DeviceEvent is an event reported to the server about the device's use
// of its configuration set. The value is the wire-level action name.
type DeviceEvent string

const (
	// ConfigurationsApplied signals that the device has applied the
	// synchronized configuration set.
	ConfigurationsApplied DeviceEvent = "ConfigurationsApplied"

	// Upvote signals that the applied configuration set works.
	Upvote DeviceEvent = "Upvote"

	// Downvote signals that the applied configuration set misbehaves.
	Downvote DeviceEvent = "Downvote"
)

// ParseDeviceEvent maps a user-supplied name to a DeviceEvent. It accepts
// the wire names and the short forms "applied", "upvote" and "downvote".
func ParseDeviceEvent(name string) (DeviceEvent, error) {
	switch name {
	case "applied", string(ConfigurationsApplied):
		return ConfigurationsApplied, nil
	case "upvote", string(Upvote):
		return Upvote, nil
	case "downvote", string(Downvote):
		return Downvote, nil
	default:
		return "", fmt.Errorf("unknown device event %q", name)
	}
}

// StateTransport posts device-state events to the server.
type StateTransport interface {
	UpdateState(ctx context.Context, groupID uuid.UUID, groupVersion int, action string) error
}

// MetadataSource yields the currently held device group snapshot, if any.
// *Engine satisfies it.
type MetadataSource interface {
	DeviceGroup() *metadata.DeviceGroup
}

// Reporter sends device-state events attributed to the current device
// group. It never retries; retry policy belongs to the caller.
type Reporter struct {
	transport StateTransport
	source    MetadataSource
	log       *zap.Logger
}

// NewReporter creates a reporter reading the group to attribute events to
// from source.
func NewReporter(transport StateTransport, source MetadataSource, log *zap.Logger) *Reporter {
	return &Reporter{transport: transport, source: source, log: log}
}

// Report sends the event. It fails with ErrNoMetadata, without contacting
// the server, when no snapshot is loaded: the server needs the group id
// and version to attribute the event.
func (r *Reporter) Report(ctx context.Context, event DeviceEvent) error {
	group := r.source.DeviceGroup()
	if group == nil {
		r.log.Error("cannot update device state without device group metadata",
			zap.String("event", string(event)))
		return ErrNoMetadata
	}

	r.log.Info("updating device state",
		zap.String("event", string(event)),
		zap.String("device_group_id", group.DeviceGroupID.String()),
		zap.Int("device_group_version", group.DeviceGroupVersion))

	if err := r.transport.UpdateState(ctx, group.DeviceGroupID, group.DeviceGroupVersion, string(event)); err != nil {
		r.log.Error("failed to update device state",
			zap.String("event", string(event)),
			zap.Error(err))
		return fmt.Errorf("updating device state with %s: %w", event, err)
	}
	return nil
}
