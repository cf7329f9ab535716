package metadata

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedByPath(t *testing.T) {
	group := NewDeviceGroup(testGroupID, 1, []Configuration{
		{ConfigurationID: testFooID, Path: "zz/last.json", MD5: "a", Version: 1},
		{ConfigurationID: testBarID, Path: "aa/first.json", MD5: "b", Version: 1},
		{ConfigurationID: uuid.MustParse("11111111-2222-3333-4444-555555555555"), Path: "mm/middle.json", MD5: "c", Version: 1},
	}, time.Now())

	sorted := group.SortedByPath()
	require.Len(t, sorted, 3)
	assert.Equal(t, "aa/first.json", sorted[0].Path)
	assert.Equal(t, "mm/middle.json", sorted[1].Path)
	assert.Equal(t, "zz/last.json", sorted[2].Path)
}

func TestPaths(t *testing.T) {
	group := testGroup()

	paths := group.Paths()
	assert.Equal(t, map[string]struct{}{
		"foo.json": {},
		"bar.json": {},
	}, paths)
}

func TestByPathOrAlias(t *testing.T) {
	abcID := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	group := NewDeviceGroup(testGroupID, 1, []Configuration{
		{ConfigurationID: abcID, Path: "abc.json", MD5: "a", Version: 1},
		{ConfigurationID: testBarID, Path: "bar.json", MD5: "b", Version: 1, Alias: "abc.json"},
		{ConfigurationID: testFooID, Path: "foo.json", MD5: "c", Version: 1, Alias: "feature-flags"},
	}, time.Now())

	tests := []struct {
		name  string
		key   string
		want  uuid.UUID
		found bool
	}{
		{name: "ExactPath", key: "foo.json", want: testFooID, found: true},
		{name: "Alias", key: "feature-flags", want: testFooID, found: true},
		{name: "PathWinsOverAlias", key: "abc.json", want: abcID, found: true},
		{name: "Unknown", key: "nope.json", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := group.ByPathOrAlias(tt.key)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, got.ConfigurationID)
			}
		})
	}
}

func TestNewDeviceGroup_KeyedByID(t *testing.T) {
	group := testGroup()

	require.Len(t, group.Configurations, 2)
	assert.Equal(t, "foo.json", group.Configurations[testFooID].Path)
	assert.Equal(t, "bar.json", group.Configurations[testBarID].Path)
}
