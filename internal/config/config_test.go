package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeGateway() GatewayConfig {
	return GatewayConfig{
		Endpoint:              "https://gateway.test",
		ClientID:              "client-id",
		ClientSecret:          "client-secret",
		ApplicationKey:        "app-key",
		Covenant:              "77001",
		CertificateBase64:     "cGtjczEy",
		CertificatePassphrase: "secret",
	}
}

func TestGatewayValidateRequiresEveryCredential(t *testing.T) {
	require.NoError(t, completeGateway().Validate())

	strip := map[string]func(*GatewayConfig){
		"endpoint":      func(g *GatewayConfig) { g.Endpoint = "" },
		"client_id":     func(g *GatewayConfig) { g.ClientID = "" },
		"client_secret": func(g *GatewayConfig) { g.ClientSecret = "" },
		"certificate":   func(g *GatewayConfig) { g.CertificateBase64 = "" },
		"passphrase":    func(g *GatewayConfig) { g.CertificatePassphrase = "" },
	}
	for name, mutate := range strip {
		t.Run(name, func(t *testing.T) {
			g := completeGateway()
			mutate(&g)
			assert.ErrorIs(t, g.Validate(), ErrGatewayConfigIncomplete)
		})
	}
}

func TestGatewayDisabledSkipsCredentialCheck(t *testing.T) {
	g := GatewayConfig{Disabled: true}
	require.NoError(t, g.Validate())
	assert.False(t, g.Enabled())
}
