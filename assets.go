package sponsorgrid

import "embed"

// EmailFS carries the embedded email template pairs under templates/emails.
//
//go:embed templates/emails
var EmailFS embed.FS
