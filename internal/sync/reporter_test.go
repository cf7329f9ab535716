package sync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/configgery/configgery-go/internal/client"
	"github.com/configgery/configgery-go/internal/metadata"
)

type reportedEvent struct {
	groupID      uuid.UUID
	groupVersion int
	action       string
}

type fakeStateTransport struct {
	calls []reportedEvent
	err   error
}

func (f *fakeStateTransport) UpdateState(ctx context.Context, groupID uuid.UUID, groupVersion int, action string) error {
	f.calls = append(f.calls, reportedEvent{groupID: groupID, groupVersion: groupVersion, action: action})
	return f.err
}

type staticSource struct {
	group *metadata.DeviceGroup
}

func (s staticSource) DeviceGroup() *metadata.DeviceGroup {
	return s.group
}

func TestReport(t *testing.T) {
	group := metadata.NewDeviceGroup(testGroupID, 7, nil, time.Now())
	transport := &fakeStateTransport{}
	reporter := NewReporter(transport, staticSource{group: group}, zap.NewNop())

	require.NoError(t, reporter.Report(context.Background(), ConfigurationsApplied))

	require.Len(t, transport.calls, 1)
	assert.Equal(t, reportedEvent{
		groupID:      testGroupID,
		groupVersion: 7,
		action:       "ConfigurationsApplied",
	}, transport.calls[0])
}

func TestReport_WithoutMetadata(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	transport := &fakeStateTransport{}
	reporter := NewReporter(transport, staticSource{}, zap.New(core))

	err := reporter.Report(context.Background(), Upvote)

	assert.ErrorIs(t, err, ErrNoMetadata)
	assert.Empty(t, transport.calls, "the server must not be contacted")
	assert.Equal(t, 1, logs.FilterMessage("cannot update device state without device group metadata").Len())
}

func TestReport_ServerError(t *testing.T) {
	group := metadata.NewDeviceGroup(testGroupID, 7, nil, time.Now())
	transport := &fakeStateTransport{err: &client.Error{StatusCode: 400, Body: "stale device_group_version"}}
	reporter := NewReporter(transport, staticSource{group: group}, zap.NewNop())

	err := reporter.Report(context.Background(), Downvote)

	require.Error(t, err)
	var apiErr *client.Error
	assert.ErrorAs(t, err, &apiErr)
	// Not retried: one call only.
	assert.Len(t, transport.calls, 1)
}

func TestParseDeviceEvent(t *testing.T) {
	tests := []struct {
		in      string
		want    DeviceEvent
		wantErr bool
	}{
		{in: "applied", want: ConfigurationsApplied},
		{in: "ConfigurationsApplied", want: ConfigurationsApplied},
		{in: "upvote", want: Upvote},
		{in: "Upvote", want: Upvote},
		{in: "downvote", want: Downvote},
		{in: "Downvote", want: Downvote},
		{in: "sideways", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDeviceEvent(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
