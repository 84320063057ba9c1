package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	// Test with nil config
	client := NewClient(nil)
	if client.config.BaseURL != "http://localhost:8080" {
		t.Errorf("Expected default BaseURL, got %s", client.config.BaseURL)
	}
	if client.client != http.DefaultClient {
		t.Error("Expected default HTTP client")
	}

	// Test with custom config
	customConfig := &Config{
		BaseURL:    "http://example.com",
		Timeout:    5 * time.Second,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	client = NewClient(customConfig)
	if client.config.BaseURL != "http://example.com" {
		t.Errorf("Expected custom BaseURL, got %s", client.config.BaseURL)
	}
	if client.config.Timeout != 5*time.Second {
		t.Errorf("Expected custom timeout, got %v", client.config.Timeout)
	}
	if client.client != customConfig.HTTPClient {
		t.Error("Expected custom HTTP client")
	}
}

func TestCreateWorkspace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/api/workspaces" {
			t.Errorf("Expected /api/workspaces path, got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("Expected bearer token header, got %q", auth)
		}

		var req CreateWorkspaceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "Missing name", http.StatusBadRequest)
			return
		}

		resp := workspaceEnvelope{
			Workspace: &Workspace{
				ID:          "2f0c8f8e-0000-0000-0000-000000000001",
				Name:        req.Name,
				Type:        req.Type,
				MemberCount: 1,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(&Config{
		BaseURL: server.URL,
		Token:   "test-token",
		Timeout: 5 * time.Second,
	})

	workspace, err := client.CreateWorkspace(context.Background(), &CreateWorkspaceRequest{
		Name: "City Rowing Club",
		Type: "club",
	})
	if err != nil {
		t.Fatalf("CreateWorkspace failed: %v", err)
	}
	if workspace.Name != "City Rowing Club" {
		t.Errorf("Expected workspace name to round-trip, got %s", workspace.Name)
	}
	if workspace.MemberCount != 1 {
		t.Errorf("Expected member count 1, got %d", workspace.MemberCount)
	}
}

func TestSetMemberRoleConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("Expected PUT request, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "workspace must retain at least one administrator"})
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL})

	err := client.SetMemberRole(context.Background(), "ws-1", "admin-1", "member")
	if err == nil {
		t.Fatal("Expected an error for a conflict response")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("Expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", apiErr.StatusCode)
	}
	if apiErr.Message == "" {
		t.Error("Expected the error body message to be preserved")
	}
}

func TestListMyInvitationsStatusFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/invitations" {
			t.Errorf("Expected /api/invitations path, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("status"); got != "pending" {
			t.Errorf("Expected status=pending query, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(invitationListEnvelope{
			Invitations: []*Invitation{
				{ID: "inv-1", Email: "dana@example.com", Status: "pending"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL})

	invitations, err := client.ListMyInvitations(context.Background(), "pending")
	if err != nil {
		t.Fatalf("ListMyInvitations failed: %v", err)
	}
	if len(invitations) != 1 {
		t.Fatalf("Expected one invitation, got %d", len(invitations))
	}
	if invitations[0].Status != "pending" {
		t.Errorf("Expected pending status, got %s", invitations[0].Status)
	}
}
