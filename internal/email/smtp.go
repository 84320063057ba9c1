// internal/email/smtp.go
package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"time"
)

// sendWithSMTP delivers the rendered message through the configured relay
// as a multipart/alternative body carrying the plaintext and HTML parts.
func (s *Service) sendWithSMTP(data EmailData, htmlContent, textContent string) error {
	relay := s.config.SMTP

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", data.FromName, data.From)
	fmt.Fprintf(&msg, "To: %s\r\n", data.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", data.Subject)
	msg.WriteString("MIME-Version: 1.0\r\n")

	boundary := fmt.Sprintf("part_%d", time.Now().UnixNano())
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	part := func(contentType, body string) {
		fmt.Fprintf(&msg, "--%s\r\n", boundary)
		fmt.Fprintf(&msg, "Content-Type: %s; charset=utf-8\r\n", contentType)
		msg.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
		msg.WriteString(base64.StdEncoding.EncodeToString([]byte(body)))
		msg.WriteString("\r\n")
	}
	part("text/plain", textContent)
	part("text/html", htmlContent)
	fmt.Fprintf(&msg, "--%s--", boundary)

	// Unauthenticated relays (a local postfix, mailhog in development) get
	// no AUTH exchange at all.
	var auth smtp.Auth
	if relay.Username != "" {
		auth = smtp.PlainAuth("", relay.Username, relay.Password, relay.Host)
	}
	addr := fmt.Sprintf("%s:%d", relay.Host, relay.Port)

	if err := smtp.SendMail(addr, auth, data.From, []string{data.To}, msg.Bytes()); err != nil {
		return fmt.Errorf("sending via smtp relay %s: %w", addr, err)
	}
	return nil
}
