// Package client is a thin typed HTTP client for the workspace service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config represents the configuration for the workspace client
type Config struct {
	// BaseURL is the base URL of the workspace service
	BaseURL string
	// Token is the identity-provider bearer token sent with every request
	Token string
	// HTTPClient is an optional custom HTTP client
	HTTPClient *http.Client
	// Timeout is the default request timeout
	Timeout time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:8080",
		HTTPClient: http.DefaultClient,
		Timeout:    10 * time.Second,
	}
}

// Client is the workspace service client
type Client struct {
	config *Config
	client *http.Client
}

// NewClient creates a new workspace client with the given configuration
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		config: config,
		client: client,
	}
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("workspace service: %d %s", e.StatusCode, e.Message)
}

// Workspace represents a workspace as returned by the service
type Workspace struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	OwnerID     string    `json:"owner_id"`
	MemberCount int       `json:"member_count"`
	LogoURL     string    `json:"logo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Member represents a workspace membership
type Member struct {
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Invitation represents a workspace invitation
type Invitation struct {
	ID            string     `json:"id"`
	WorkspaceID   string     `json:"workspace_id"`
	WorkspaceName string     `json:"workspace_name,omitempty"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	InvitedBy     string     `json:"invited_by"`
	InviterName   string     `json:"inviter_name,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
}

// CreateWorkspaceRequest represents a workspace creation request
type CreateWorkspaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
}

// UpdateWorkspaceRequest represents a partial workspace update; nil
// fields are left unchanged
type UpdateWorkspaceRequest struct {
	Name               *string `json:"name,omitempty"`
	Description        *string `json:"description,omitempty"`
	LogoURL            *string `json:"logo_url,omitempty"`
	AllowMemberInvites *bool   `json:"allow_member_invites,omitempty"`
	Visibility         *string `json:"visibility,omitempty"`
}

// InviteRequest represents an invitation creation request
type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

type workspaceEnvelope struct {
	Workspace *Workspace `json:"workspace"`
}

type workspaceListEnvelope struct {
	Workspaces []*Workspace `json:"workspaces"`
}

type memberListEnvelope struct {
	Members []*Member `json:"members"`
}

type invitationEnvelope struct {
	Invitation *Invitation `json:"invitation"`
}

type invitationListEnvelope struct {
	Invitations []*Invitation `json:"invitations"`
}

// CreateWorkspace creates a workspace owned by the authenticated user
func (c *Client) CreateWorkspace(ctx context.Context, req *CreateWorkspaceRequest) (*Workspace, error) {
	var out workspaceEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/workspaces", req, &out); err != nil {
		return nil, err
	}
	return out.Workspace, nil
}

// GetWorkspace fetches a single workspace the caller belongs to
func (c *Client) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	var out workspaceEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/workspaces/"+id, nil, &out); err != nil {
		return nil, err
	}
	return out.Workspace, nil
}

// ListWorkspaces lists the workspaces the caller is a member of
func (c *Client) ListWorkspaces(ctx context.Context) ([]*Workspace, error) {
	var out workspaceListEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/workspaces", nil, &out); err != nil {
		return nil, err
	}
	return out.Workspaces, nil
}

// UpdateWorkspace applies a partial update to a workspace
func (c *Client) UpdateWorkspace(ctx context.Context, id string, req *UpdateWorkspaceRequest) (*Workspace, error) {
	var out workspaceEnvelope
	if err := c.do(ctx, http.MethodPatch, "/api/workspaces/"+id, req, &out); err != nil {
		return nil, err
	}
	return out.Workspace, nil
}

// DeleteWorkspace deletes a workspace and its memberships
func (c *Client) DeleteWorkspace(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/workspaces/"+id, nil, nil)
}

// ListMembers lists the members of a workspace
func (c *Client) ListMembers(ctx context.Context, workspaceID string) ([]*Member, error) {
	var out memberListEnvelope
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/workspaces/%s/members", workspaceID), nil, &out); err != nil {
		return nil, err
	}
	return out.Members, nil
}

// SetMemberRole changes a member's role; the service refuses to demote
// the last administrator and responds with a conflict
func (c *Client) SetMemberRole(ctx context.Context, workspaceID, userID, role string) error {
	payload := map[string]string{"role": role}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/workspaces/%s/members/%s/role", workspaceID, userID), payload, nil)
}

// RemoveMember removes a member from a workspace
func (c *Client) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/workspaces/%s/members/%s", workspaceID, userID), nil, nil)
}

// LeaveWorkspace removes the authenticated user from a workspace
func (c *Client) LeaveWorkspace(ctx context.Context, workspaceID string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/workspaces/%s/leave", workspaceID), nil, nil)
}

// CreateInvitation invites an email address to a workspace
func (c *Client) CreateInvitation(ctx context.Context, workspaceID string, req *InviteRequest) (*Invitation, error) {
	var out invitationEnvelope
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/workspaces/%s/invitations", workspaceID), req, &out); err != nil {
		return nil, err
	}
	return out.Invitation, nil
}

// ListWorkspaceInvitations lists invitations for a workspace, optionally
// filtered by status
func (c *Client) ListWorkspaceInvitations(ctx context.Context, workspaceID, status string) ([]*Invitation, error) {
	path := fmt.Sprintf("/api/workspaces/%s/invitations", workspaceID)
	if status != "" {
		path += "?status=" + status
	}
	var out invitationListEnvelope
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Invitations, nil
}

// ListMyInvitations lists invitations addressed to the authenticated
// user's email, optionally filtered by status
func (c *Client) ListMyInvitations(ctx context.Context, status string) ([]*Invitation, error) {
	path := "/api/invitations"
	if status != "" {
		path += "?status=" + status
	}
	var out invitationListEnvelope
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Invitations, nil
}

// AcceptInvitation accepts a pending invitation addressed to the caller
func (c *Client) AcceptInvitation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/invitations/%s/accept", id), nil, nil)
}

// DeclineInvitation declines a pending invitation addressed to the caller
func (c *Client) DeclineInvitation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/invitations/%s/decline", id), nil, nil)
}

// CancelInvitation cancels a pending invitation as a workspace manager
func (c *Client) CancelInvitation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/invitations/"+id, nil, nil)
}

// ResendInvitation cancels and reissues a pending invitation
func (c *Client) ResendInvitation(ctx context.Context, id string) (*Invitation, error) {
	var out invitationEnvelope
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/invitations/%s/resend", id), nil, &out); err != nil {
		return nil, err
	}
	return out.Invitation, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
