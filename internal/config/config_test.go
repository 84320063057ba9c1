package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEmailSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := Load()
		assert.Equal(t, "sendgrid", cfg.Email.Provider)
		assert.Equal(t, "localhost", cfg.SMTP.Host)
		assert.Equal(t, 587, cfg.SMTP.Port)
	})

	t.Run("smtp relay from the environment", func(t *testing.T) {
		t.Setenv("EMAIL_PROVIDER", "smtp")
		t.Setenv("EMAIL_FROM", "noreply@sponsorgrid.com")
		t.Setenv("SMTP_HOST", "mail.internal")
		t.Setenv("SMTP_PORT", "2525")
		t.Setenv("SMTP_USERNAME", "mailer")
		t.Setenv("SMTP_PASSWORD", "hunter2")

		cfg := Load()
		assert.Equal(t, "smtp", cfg.Email.Provider)
		assert.Equal(t, "noreply@sponsorgrid.com", cfg.Email.From)
		assert.Equal(t, "mail.internal", cfg.SMTP.Host)
		assert.Equal(t, 2525, cfg.SMTP.Port)
		assert.Equal(t, "mailer", cfg.SMTP.Username)
		assert.Equal(t, "hunter2", cfg.SMTP.Password)
	})

	t.Run("from address falls back to the sendgrid variable", func(t *testing.T) {
		t.Setenv("SENDGRID_FROM", "invites@sponsorgrid.com")

		cfg := Load()
		assert.Equal(t, "invites@sponsorgrid.com", cfg.Email.From)
	})

	t.Run("malformed smtp port keeps the default", func(t *testing.T) {
		t.Setenv("SMTP_PORT", "not-a-port")

		cfg := Load()
		assert.Equal(t, 587, cfg.SMTP.Port)
	})
}

func TestLoadInvitationWindows(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := Load()
		assert.Equal(t, 7*24*time.Hour, cfg.Invitations.Validity)
		assert.Equal(t, 30*24*time.Hour, cfg.Invitations.Retention)
		assert.Equal(t, time.Hour, cfg.Invitations.SweepEvery)
	})

	t.Run("bare integers are read as days", func(t *testing.T) {
		t.Setenv("INVITE_VALIDITY", "3")

		cfg := Load()
		assert.Equal(t, 3*24*time.Hour, cfg.Invitations.Validity)
	})
}
