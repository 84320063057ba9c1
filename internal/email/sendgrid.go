// internal/email/sendgrid.go
package email

import (
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendWithSendgrid delivers the rendered message through the SendGrid v3
// API. Anything other than 202 Accepted counts as a failure.
func (s *Service) sendWithSendgrid(data EmailData, htmlContent, textContent string) error {
	message := mail.NewSingleEmail(
		mail.NewEmail(data.FromName, data.From),
		data.Subject,
		mail.NewEmail("", data.To),
		textContent,
		htmlContent,
	)

	response, err := s.sendgridClient.Send(message)
	if err != nil {
		return fmt.Errorf("sending via sendgrid: %w", err)
	}
	if response.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid rejected the message: status %d, body %s",
			response.StatusCode, response.Body)
	}
	return nil
}
