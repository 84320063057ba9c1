package email

import (
	"testing"

	"github.com/sponsorgrid/sponsorgrid/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmailService(t *testing.T) {
	t.Run("sendgrid with an api key", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Sendgrid.APIKey = "SG.test"

		svc, err := NewEmailService(cfg, ProviderSendgrid)
		require.NoError(t, err)
		assert.Equal(t, ProviderSendgrid, svc.provider)
		assert.NotNil(t, svc.sendgridClient)
	})

	t.Run("sendgrid without an api key falls back to the relay", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.SMTP.Host = "mail.internal"
		cfg.SMTP.Port = 25

		svc, err := NewEmailService(cfg, ProviderSendgrid)
		require.NoError(t, err)
		assert.Equal(t, ProviderSMTP, svc.provider)
		assert.Nil(t, svc.sendgridClient)
	})

	t.Run("smtp without a relay host is rejected", func(t *testing.T) {
		cfg := &config.Config{}

		_, err := NewEmailService(cfg, ProviderSMTP)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no relay host")
	})

	t.Run("unknown provider is rejected", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Sendgrid.APIKey = "SG.test"

		_, err := NewEmailService(cfg, Provider("carrier-pigeon"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown email provider")
	})

	t.Run("templates are loaded", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Sendgrid.APIKey = "SG.test"

		svc, err := NewEmailService(cfg, ProviderSendgrid)
		require.NoError(t, err)
		require.Contains(t, svc.Templates, "workspace_invitation")
		assert.NotNil(t, svc.Templates["workspace_invitation"].HTML)
		assert.NotNil(t, svc.Templates["workspace_invitation"].Plaintext)
	})
}
