package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvider struct {
	name  string
	reply string
}

func (p *staticProvider) Supports(name string) bool {
	return name == p.name
}

func (p *staticProvider) Send(ctx context.Context, prompt, apiKey string) (string, error) {
	return p.reply, nil
}

func TestRegistryFind(t *testing.T) {
	first := &staticProvider{name: "alpha", reply: "from alpha"}
	second := &staticProvider{name: "beta", reply: "from beta"}
	registry := NewRegistry(first, second)

	t.Run("matches by name", func(t *testing.T) {
		provider, ok := registry.Find("beta")
		require.True(t, ok)
		assert.Same(t, second, provider)
	})

	t.Run("first matching provider wins", func(t *testing.T) {
		duplicate := &staticProvider{name: "alpha", reply: "shadowed"}
		reg := NewRegistry(first, duplicate)
		provider, ok := reg.Find("alpha")
		require.True(t, ok)
		assert.Same(t, first, provider)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, ok := registry.Find("gamma")
		assert.False(t, ok)
	})
}

func TestProviderNames(t *testing.T) {
	gemini := NewGeminiProvider("", "")
	assert.True(t, gemini.Supports("gemini"))
	assert.True(t, gemini.Supports("Gemini"))
	assert.False(t, gemini.Supports("openai"))

	oai := NewOpenAIProvider("", "", "")
	assert.True(t, oai.Supports("openai"))
	assert.True(t, oai.Supports("chatgpt"))
	assert.False(t, oai.Supports("gemini"))
}

func TestResolveKey(t *testing.T) {
	t.Run("request credential wins", func(t *testing.T) {
		assert.Equal(t, "from-request", resolveKey("from-request", "from-config"))
	})

	t.Run("configured credential is the fallback", func(t *testing.T) {
		assert.Equal(t, "from-config", resolveKey("", "from-config"))
	})

	t.Run("no credential anywhere fails the call", func(t *testing.T) {
		_, err := NewGeminiProvider("", "").Send(context.Background(), "prompt", "")
		require.Error(t, err)

		_, err = NewOpenAIProvider("", "", "").Send(context.Background(), "prompt", "")
		require.Error(t, err)
	})
}
