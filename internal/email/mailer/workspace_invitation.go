// internal/email/mailer/workspace_invitation.go
package mailer

import (
	"context"
	"fmt"

	"github.com/sponsorgrid/sponsorgrid/internal/email"
	"github.com/sponsorgrid/sponsorgrid/internal/model"
)

// InvitationTemplateData contains data for the invitation email template
type InvitationTemplateData struct {
	WorkspaceName string
	InviterName   string
	Role          string
	AcceptLink    string
	ExpiresAt     string
}

// SendWorkspaceInvitation sends the invitation notice to the invitee
func SendWorkspaceInvitation(s *email.Service, baseURL string, invitation *model.Invitation) error {
	inviter := invitation.InviterName
	if inviter == "" {
		inviter = "A workspace administrator"
	}

	templateData := InvitationTemplateData{
		WorkspaceName: invitation.WorkspaceName,
		InviterName:   inviter,
		Role:          string(invitation.Role),
		AcceptLink:    fmt.Sprintf("%s/invitations/%s", baseURL, invitation.ID),
		ExpiresAt:     invitation.ExpiresAt.Format("January 2, 2006"),
	}

	emailData := email.EmailData{
		To:           invitation.Email,
		FromName:     "SponsorGrid",
		Subject:      fmt.Sprintf("You've been invited to join %s on SponsorGrid", invitation.WorkspaceName),
		TemplateName: "workspace_invitation",
		TemplateData: templateData,
	}

	return s.SendEmail(emailData)
}

// InvitationMailer adapts the email service to the invitation workflow's
// notification hook.
type InvitationMailer struct {
	service *email.Service
	baseURL string
}

func NewInvitationMailer(service *email.Service, baseURL string) *InvitationMailer {
	return &InvitationMailer{service: service, baseURL: baseURL}
}

func (m *InvitationMailer) SendInvitation(_ context.Context, invitation *model.Invitation) error {
	return SendWorkspaceInvitation(m.service, m.baseURL, invitation)
}
