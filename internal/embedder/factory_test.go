package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToLocal(t *testing.T) {
	emb, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, emb.Provider())
}

func TestNewExplicitProviders(t *testing.T) {
	emb, err := New(Config{Provider: "local"})
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, emb.Provider())

	emb, err = New(Config{Provider: "openai", APIKey: "key", Model: "custom"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, emb.Provider())
	assert.Equal(t, "custom", emb.Model())

	_, err = New(Config{Provider: "quantum"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvAPIKey, "")

	emb, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, emb.Provider())
	assert.Equal(t, ProviderLocal, DetectProvider())

	t.Setenv(EnvAPIKey, "some-key")
	emb, err = NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, emb.Provider())
	assert.Equal(t, ProviderOpenAI, DetectProvider())

	t.Setenv(EnvProvider, "local")
	emb, err = NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, emb.Provider())
}
