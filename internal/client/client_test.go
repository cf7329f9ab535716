package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestCurrentConfigurations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/v1/current_configurations" {
			t.Errorf("Expected /v1/current_configurations, got %s", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"device_group_id": "85ffb504-cc91-4710-a0e7-e05599b19d0b",
			"device_group_version": 1,
			"configurations_metadata": [
				{
					"configuration_id": "e312aa23-f8a8-4142-9a21-be640be7e547",
					"path": "foo.json",
					"md5": "99914b932bd37a50b983c5e7c90ae93b",
					"version": 1
				},
				{
					"configuration_id": "85d0acae-4a9c-49ce-b8dc-f8a41c6c6c6a",
					"path": "bar.json",
					"md5": "3d29a75fcf0ed7dfff86d3db8f92fc69",
					"version": 2,
					"alias": "abc.json"
				}
			]
		}`))
	}))
	defer server.Close()

	c := NewWithHTTPClient(server.URL, server.Client())
	resp, err := c.CurrentConfigurations(context.Background())
	if err != nil {
		t.Fatalf("CurrentConfigurations() error: %v", err)
	}

	if resp.DeviceGroupID != uuid.MustParse("85ffb504-cc91-4710-a0e7-e05599b19d0b") {
		t.Errorf("Unexpected device group id %s", resp.DeviceGroupID)
	}
	if resp.DeviceGroupVersion != 1 {
		t.Errorf("Expected version 1, got %d", resp.DeviceGroupVersion)
	}
	if len(resp.ConfigurationsMetadata) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(resp.ConfigurationsMetadata))
	}
	if resp.ConfigurationsMetadata[1].Alias != "abc.json" {
		t.Errorf("Expected alias abc.json, got %q", resp.ConfigurationsMetadata[1].Alias)
	}
}

func TestCurrentConfigurations_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("unknown device"))
	}))
	defer server.Close()

	c := NewWithHTTPClient(server.URL, server.Client())
	_, err := c.CurrentConfigurations(context.Background())
	if err == nil {
		t.Fatal("Expected an error")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *Error, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", apiErr.StatusCode)
	}
	if apiErr.Body != "unknown device" {
		t.Errorf("Expected diagnostic body, got %q", apiErr.Body)
	}
}

func TestDownloadConfiguration(t *testing.T) {
	id := uuid.MustParse("e312aa23-f8a8-4142-9a21-be640be7e547")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/configuration" {
			t.Errorf("Expected /v1/configuration, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("configuration_id"); got != id.String() {
			t.Errorf("Expected configuration_id %s, got %s", id, got)
		}
		if got := r.URL.Query().Get("version"); got != "3" {
			t.Errorf("Expected version 3, got %s", got)
		}
		_, _ = w.Write([]byte(`{"feature": true}`))
	}))
	defer server.Close()

	c := NewWithHTTPClient(server.URL, server.Client())
	data, err := c.DownloadConfiguration(context.Background(), id, 3)
	if err != nil {
		t.Fatalf("DownloadConfiguration() error: %v", err)
	}
	if string(data) != `{"feature": true}` {
		t.Errorf("Unexpected content %q", data)
	}
}

func TestDownloadConfiguration_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such configuration"))
	}))
	defer server.Close()

	c := NewWithHTTPClient(server.URL, server.Client())
	_, err := c.DownloadConfiguration(context.Background(), uuid.New(), 1)

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *Error, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", apiErr.StatusCode)
	}
}

func TestUpdateState(t *testing.T) {
	groupID := uuid.MustParse("85ffb504-cc91-4710-a0e7-e05599b19d0b")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/update_state" {
			t.Errorf("Expected /v1/update_state, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Expected application/json, got %q", got)
		}

		var req updateStateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}
		if req.DeviceGroupID != groupID.String() {
			t.Errorf("Expected device_group_id %s, got %s", groupID, req.DeviceGroupID)
		}
		if req.DeviceGroupVersion != 7 {
			t.Errorf("Expected device_group_version 7, got %d", req.DeviceGroupVersion)
		}
		if req.Action != "Upvote" {
			t.Errorf("Expected action Upvote, got %q", req.Action)
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewWithHTTPClient(server.URL, server.Client())
	if err := c.UpdateState(context.Background(), groupID, 7, "Upvote"); err != nil {
		t.Fatalf("UpdateState() error: %v", err)
	}
}

func TestUpdateState_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("stale device_group_version"))
	}))
	defer server.Close()

	c := NewWithHTTPClient(server.URL, server.Client())
	err := c.UpdateState(context.Background(), uuid.New(), 1, "Downvote")

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *Error, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", apiErr.StatusCode)
	}
}
