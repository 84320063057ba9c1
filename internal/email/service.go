// internal/email/service.go
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sponsorgrid/sponsorgrid"
	"github.com/sponsorgrid/sponsorgrid/internal/config"
)

var templateFS = sponsorgrid.EmailFS

// Provider identifies supported email providers
type Provider string

const (
	ProviderSMTP     Provider = "smtp"
	ProviderSendgrid Provider = "sendgrid"

	DefaultTemplatePath = "templates/emails"
)

// EmailData contains all necessary information for sending an email
type EmailData struct {
	To           string
	From         string
	FromName     string
	Subject      string
	TemplateName string
	TemplateData interface{}
}

// Service handles email operations
type Service struct {
	config         *config.Config
	provider       Provider
	sendgridClient *sendgrid.Client
	Templates      map[string]*Template
}

type Template struct {
	HTML      *template.Template
	Plaintext *template.Template
}

// NewEmailService creates a new email service instance. The provider is
// resolved here, once: sendgrid without an API key degrades to the SMTP
// relay, and the senders themselves never re-decide.
func NewEmailService(config *config.Config, provider Provider) (*Service, error) {
	if provider == ProviderSendgrid && config.Sendgrid.APIKey == "" {
		slog.Warn("sendgrid api key not configured, delivering through the smtp relay")
		provider = ProviderSMTP
	}

	s := &Service{
		config:    config,
		provider:  provider,
		Templates: make(map[string]*Template),
	}

	switch provider {
	case ProviderSendgrid:
		s.sendgridClient = sendgrid.NewSendClient(config.Sendgrid.APIKey)
	case ProviderSMTP:
		if config.SMTP.Host == "" {
			return nil, fmt.Errorf("smtp provider selected but no relay host configured")
		}
	default:
		return nil, fmt.Errorf("unknown email provider %q", provider)
	}

	if err := s.loadTemplates(); err != nil {
		return nil, fmt.Errorf("loading email templates: %w", err)
	}

	return s, nil
}

// loadTemplates loads all email templates from the embedded filesystem
func (s *Service) loadTemplates() error {
	templateGroups, err := templateFS.ReadDir(DefaultTemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read email templates directory: %w", err)
	}

	if len(templateGroups) == 0 {
		return fmt.Errorf("no email templates found")
	}

	for _, group := range templateGroups {
		if !group.IsDir() {
			continue
		}

		groupPath := DefaultTemplatePath + "/" + group.Name()
		groupEntries, err := templateFS.ReadDir(groupPath)
		if err != nil {
			return fmt.Errorf("failed to read email template group %s: %w", group.Name(), err)
		}

		if len(groupEntries) != 2 {
			return fmt.Errorf("invalid email template group %s: must contain exactly two files (HTML and plaintext)", group.Name())
		}

		tmpl := Template{
			HTML:      template.Must(template.ParseFS(templateFS, groupPath+"/html.tmpl")),
			Plaintext: template.Must(template.ParseFS(templateFS, groupPath+"/plaintext.tmpl")),
		}

		s.Templates[group.Name()] = &tmpl
	}

	return nil
}

// SendEmail renders the named template pair and sends it via the configured
// provider.
func (s *Service) SendEmail(data EmailData) error {
	tmpl, ok := s.Templates[data.TemplateName]
	if !ok {
		return fmt.Errorf("unknown email template %q", data.TemplateName)
	}

	if data.From == "" {
		data.From = s.config.Email.From
	}

	var htmlContent bytes.Buffer
	if err := tmpl.HTML.Execute(&htmlContent, data.TemplateData); err != nil {
		return fmt.Errorf("rendering HTML template: %w", err)
	}

	var textContent bytes.Buffer
	if err := tmpl.Plaintext.Execute(&textContent, data.TemplateData); err != nil {
		return fmt.Errorf("rendering plaintext template: %w", err)
	}

	switch s.provider {
	case ProviderSendgrid:
		return s.sendWithSendgrid(data, htmlContent.String(), textContent.String())
	default:
		// The constructor rejects anything else, so this is the relay.
		return s.sendWithSMTP(data, htmlContent.String(), textContent.String())
	}
}
