package stripe

import (
	"context"
	"testing"

	"github.com/shopward/shopward-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientValidatesKeyEnvPairing(t *testing.T) {
	_, err := NewClient(context.Background(), config.StripeConfig{
		APIKey:        "sk_live_abc",
		WebhookSecret: "whsec_x",
		Env:           "test",
	}, nil)
	assert.Error(t, err)

	client, err := NewClient(context.Background(), config.StripeConfig{
		APIKey:        "sk_test_abc",
		WebhookSecret: "whsec_x",
		Env:           "test",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "test", client.Environment())
	assert.Equal(t, "whsec_x", client.SigningSecret())
}

func TestNewClientRequiresSecrets(t *testing.T) {
	_, err := NewClient(context.Background(), config.StripeConfig{WebhookSecret: "whsec_x"}, nil)
	assert.ErrorIs(t, err, errAPIKeyRequired)

	_, err = NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_abc"}, nil)
	assert.ErrorIs(t, err, errSecretRequired)
}

func TestNewClientRejectsUnknownEnv(t *testing.T) {
	_, err := NewClient(context.Background(), config.StripeConfig{
		APIKey:        "sk_test_abc",
		WebhookSecret: "whsec_x",
		Env:           "staging",
	}, nil)
	assert.ErrorIs(t, err, errInvalidStripeEnv)
}
