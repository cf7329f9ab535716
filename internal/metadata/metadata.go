// Package metadata defines the device group snapshot model and its
// schema-versioned persisted form.
//
// A DeviceGroup is the set of configuration files the server says this
// device should hold, as last confirmed with the configgery API. The
// snapshot on disk plus one remote fetch is always enough to rebuild the
// in-memory model, so a corrupt or incompatible cache file degrades to
// "no cached snapshot" instead of an error.
package metadata

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Configuration describes a single configuration file the device should
// hold: its identity, target path relative to the configurations
// directory, expected content digest, and version.
type Configuration struct {
	ConfigurationID uuid.UUID `json:"configuration_id"`
	Path            string    `json:"path"`
	MD5             string    `json:"md5"`
	Version         int       `json:"version"`

	// Alias is an alternate lookup key with no filesystem meaning.
	Alias string `json:"alias,omitempty"`
}

// DeviceGroup is the snapshot of the desired configuration set.
//
// Configurations is keyed by configuration ID and is replaced wholesale
// on refresh, never mutated in place.
type DeviceGroup struct {
	DeviceGroupID      uuid.UUID
	DeviceGroupVersion int
	Configurations     map[uuid.UUID]Configuration

	// LastChecked records when this snapshot was last confirmed with the
	// server, independent of when local files were last verified.
	LastChecked time.Time
}

// NewDeviceGroup builds a snapshot from a list of entries, keyed by
// configuration ID.
func NewDeviceGroup(groupID uuid.UUID, groupVersion int, configurations []Configuration, lastChecked time.Time) *DeviceGroup {
	byID := make(map[uuid.UUID]Configuration, len(configurations))
	for _, c := range configurations {
		byID[c.ConfigurationID] = c
	}
	return &DeviceGroup{
		DeviceGroupID:      groupID,
		DeviceGroupVersion: groupVersion,
		Configurations:     byID,
		LastChecked:        lastChecked,
	}
}

// SortedByPath returns the entries ordered by path ascending.
func (g *DeviceGroup) SortedByPath() []Configuration {
	out := make([]Configuration, 0, len(g.Configurations))
	for _, c := range g.Configurations {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Paths returns the set of relative paths declared by the snapshot.
func (g *DeviceGroup) Paths() map[string]struct{} {
	paths := make(map[string]struct{}, len(g.Configurations))
	for _, c := range g.Configurations {
		paths[c.Path] = struct{}{}
	}
	return paths
}

// ByPathOrAlias looks up an entry by exact path first, then by alias.
// A real path always wins over an alias collision.
func (g *DeviceGroup) ByPathOrAlias(key string) (Configuration, bool) {
	for _, c := range g.Configurations {
		if c.Path == key {
			return c, true
		}
	}
	for _, c := range g.Configurations {
		if c.Alias == key {
			return c, true
		}
	}
	return Configuration{}, false
}
